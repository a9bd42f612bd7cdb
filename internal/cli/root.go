package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"wallet/internal/config"
	"wallet/internal/log"
)

// loader builds Apps with the options handed to NewRootCommand.
type loader struct {
	appOpts []AppOption
}

func (l *loader) config() (*config.Config, *log.Logger, error) {
	return LoadAndValidateConfig()
}

// app loads configuration and builds an App. The caller closes it.
func (l *loader) app(ctx context.Context, opts ...AppOption) (*App, error) {
	cfg, logger, err := l.config()
	if err != nil {
		return nil, err
	}
	app, err := NewApp(ctx, cfg, logger, append(append([]AppOption(nil), l.appOpts...), opts...)...)
	if err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}
	return app, nil
}

// NewRootCommand assembles the wallet command tree.
func NewRootCommand(opts ...AppOption) *cobra.Command {
	l := &loader{appOpts: opts}

	root := &cobra.Command{
		Use:   "wallet",
		Short: "Track bank notifications and manual entries as categorized transactions",
		Long: `wallet keeps account transactions in a local SQLite database. Transactions
arrive as parsed bank notifications (Gmail, AMQP or the built-in mock source)
or as manual entries, are categorized by keyword rules and are summarized per
month. Configuration comes from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCommand(l),
		newMigrateCommand(l),
		newSchemaCommand(),
		newSyncCommand(l),
		newConsumeCommand(l),
		newPublishCommand(l),
		newSummaryCommand(l),
	)
	return root
}
