package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"wallet/internal/amqp"
	"wallet/internal/core"
	apphttp "wallet/internal/http"
	"wallet/internal/log"
	"wallet/internal/storage"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(l *loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API with periodic sync and AMQP intake",
		Long: `Bootstrap the state store and serve the JSON API. When SYNC_INTERVAL is set
the connected message source is polled in the background, and when AMQP_URL
points at a reachable broker inbound messages are consumed as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), l)
		},
	}
}

func runServe(parent context.Context, l *loader) error {
	app, err := l.app(parent)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Store.Bootstrap(parent); err != nil {
		return fmt.Errorf("bootstrap state: %w", err)
	}

	srv := apphttp.NewServer(":"+app.Config.Port, apphttp.Deps{
		Store:              app.Store,
		Entry:              app.Entry,
		Ingestor:           app.Ingestor,
		History:            app.Repo,
		Metrics:            app.Metrics,
		Logger:             app.Logger.WithComponent(log.ComponentHTTP),
		RateLimitPerMinute: app.Config.RateLimitPerMinute,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	runCtx, stop := context.WithCancel(parent)
	defer stop()
	ctx, done := GracefulShutdown(runCtx, app.Logger, shutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Logger.Info("Starting wallet server",
			"port", app.Config.Port,
			"source", app.Source.Name(),
			"amqp", app.AMQP != nil,
			"sync_interval", app.Config.SyncInterval)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error { return app.Worker.Run(gctx) })
	if app.AMQP != nil {
		g.Go(func() error {
			err := app.AMQP.ConsumeInbound(gctx, app.Worker.HandleInbound)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	err = g.Wait()
	stop()
	WaitForShutdown(ctx, done)
	app.Logger.Info("Server stopped")
	return err
}

func newMigrateCommand(l *loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema and seed default data",
		Long:  `Bring the database to the latest schema and seed the default accounts, categories and sample transactions into empty tables.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := l.app(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Repo.Initialize(ctx); err != nil {
				return fmt.Errorf("initialize database: %w", err)
			}
			n, err := app.Repo.CountTransactions(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database %s is up to date (%d transactions)\n", app.Config.SQLiteDBPath, n)
			return nil
		},
	}
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the schema DDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stmts, err := storage.SchemaStatements()
			if err != nil {
				return err
			}
			for _, stmt := range stmts {
				fmt.Fprintf(cmd.OutOrStdout(), "%s;\n\n", stmt)
			}
			return nil
		},
	}
}

func newSyncCommand(l *loader) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Connect the message source and ingest its messages once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := l.app(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Store.Bootstrap(ctx); err != nil {
				return fmt.Errorf("bootstrap state: %w", err)
			}
			if _, err := app.Source.Connect(ctx); err != nil {
				return fmt.Errorf("connect %s: %w", app.Source.Name(), err)
			}
			defer app.Source.Disconnect(ctx)

			report, err := app.Ingestor.Sync(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: fetched %d, inserted %d, duplicates %d, dropped %d\n",
				app.Source.Name(), report.Fetched, report.Inserted, report.Duplicates, report.Dropped)
			return nil
		},
	}
}

func newConsumeCommand(l *loader) *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Ingest inbound messages from the AMQP queue",
		Long: `Consume the inbound queue until interrupted. Duplicates and unparsable messages
are acknowledged, messages that fail validation are rejected and storage
failures are requeued.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := l.app(cmd.Context(), RequireAMQP())
			if err != nil {
				return err
			}
			defer app.Close()
			if app.AMQP == nil {
				return errNoBroker
			}

			if err := app.Store.Bootstrap(cmd.Context()); err != nil {
				return fmt.Errorf("bootstrap state: %w", err)
			}

			runCtx, stop := context.WithCancel(cmd.Context())
			defer stop()
			ctx, done := GracefulShutdown(runCtx, app.Logger, shutdownTimeout, nil)
			app.Logger.Info("Consuming inbound messages", "queue", app.Config.AMQPQueue)
			err = app.AMQP.ConsumeInbound(ctx, app.Worker.HandleInbound)
			stop()
			WaitForShutdown(ctx, done)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newPublishCommand(l *loader) *cobra.Command {
	var id, subject, snippet, receivedAt string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Forward one notification onto the AMQP queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := buildMessage(id, subject, snippet, receivedAt, time.Now())
			if err != nil {
				return err
			}

			app, err := l.app(cmd.Context(), RequireAMQP())
			if err != nil {
				return err
			}
			defer app.Close()
			if app.AMQP == nil {
				return errNoBroker
			}

			if err := app.AMQP.PublishInbound(cmd.Context(), amqp.NewInboundMessage(msg)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published message %s\n", msg.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Message id (a random UUID when empty)")
	cmd.Flags().StringVar(&subject, "subject", "", "Notification subject")
	cmd.Flags().StringVar(&snippet, "snippet", "", "Notification body snippet")
	cmd.Flags().StringVar(&receivedAt, "received-at", "", "Receive time, RFC 3339 (now when empty)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func buildMessage(id, subject, snippet, receivedAt string, now time.Time) (core.Message, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return core.Message{}, errors.New("subject is required")
	}
	if id == "" {
		id = uuid.NewString()
	}
	at := now
	if receivedAt != "" {
		t, err := time.Parse(time.RFC3339, receivedAt)
		if err != nil {
			return core.Message{}, fmt.Errorf("invalid --received-at: %w", err)
		}
		at = t
	}
	return core.Message{
		ID:         id,
		Subject:    subject,
		Snippet:    strings.TrimSpace(snippet),
		ReceivedAt: core.FormatTimestamp(at),
	}, nil
}

func newSummaryCommand(l *loader) *cobra.Command {
	var month string
	var limit int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the totals and top categories of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := core.CurrentMonthKey(time.Now())
			if month != "" {
				var err error
				if key, err = core.ParseMonthKey(month); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			app, err := l.app(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Store.Bootstrap(ctx); err != nil {
				return fmt.Errorf("bootstrap state: %w", err)
			}
			if err := app.Store.Refresh(ctx, key); err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), app.Store.MonthlySummary(key), app.Store.TopCategories(key, limit))
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (current month when empty)")
	cmd.Flags().IntVar(&limit, "limit", core.DefaultTopCategoriesLimit, "Number of top categories")
	return cmd
}

func printSummary(out io.Writer, s core.MonthlySummary, top []core.CategoryTotal) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Month\t%s\t\n", s.Month)
	fmt.Fprintf(w, "In\t%s\t\n", s.TotalIn)
	fmt.Fprintf(w, "Out\t%s\t\n", s.TotalOut)
	fmt.Fprintf(w, "Net\t%s\t\n", s.Net)
	if len(top) > 0 {
		fmt.Fprintln(w, "\t\t")
		for _, c := range top {
			fmt.Fprintf(w, "%s\t%s\t\n", c.Category, c.Total)
		}
	}
	return w.Flush()
}
