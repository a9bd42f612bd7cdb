package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"

	"wallet/internal/amqp"
	"wallet/internal/sources"
	"wallet/internal/sources/gmail"
	"wallet/internal/sources/mock"
	"wallet/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger      *slog.Logger
	gmailOpts   []option.ClientOption
	dialAMQP    func(url, exchange, queue string) (*amqp.Client, error)
	repoOptions []storage.Option
}

type FactoryOption func(*DefaultFactory)

// WithGmailOptions appends client options to the Gmail source, e.g. a test endpoint.
func WithGmailOptions(opts ...option.ClientOption) FactoryOption {
	return func(f *DefaultFactory) { f.gmailOpts = append(f.gmailOpts, opts...) }
}

func WithRepositoryOptions(opts ...storage.Option) FactoryOption {
	return func(f *DefaultFactory) { f.repoOptions = append(f.repoOptions, opts...) }
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger, opts ...FactoryOption) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	f := &DefaultFactory{
		logger:   logger,
		dialAMQP: amqp.NewClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create opens the database and builds the message source and, when
// configured, the AMQP client. The schema is not touched.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.repoOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		switch {
		case err != nil && config.RequireAMQP:
			repo.Close()
			return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		case err != nil:
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without message intake", "error", err)
			amqpClient = nil
		default:
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	src := f.createSource(config)

	f.logger.InfoContext(ctx, "Initialized backend",
		"db_path", config.SQLiteDBPath,
		"source", src.Name(),
		"amqp_enabled", amqpClient != nil)

	return &Result{
		Repository: repo,
		Source:     src,
		AMQP:       amqpClient,
		Cleanup: func() error {
			var errs []error
			if amqpClient != nil {
				errs = append(errs, amqpClient.Close())
			}
			errs = append(errs, repo.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createSource(config Config) sources.MessageSource {
	switch config.Source {
	case GmailSource:
		cfg := config.Gmail
		if cfg.Now == nil {
			cfg.Now = config.Now
		}
		return gmail.New(cfg, f.gmailOpts...)
	default:
		return mock.New(config.Now)
	}
}
