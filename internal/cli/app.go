package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet/internal/amqp"
	"wallet/internal/backend"
	"wallet/internal/cache"
	"wallet/internal/categorizer"
	"wallet/internal/config"
	"wallet/internal/log"
	"wallet/internal/metrics"
	"wallet/internal/parser"
	"wallet/internal/services"
	"wallet/internal/sources"
	"wallet/internal/storage"
	"wallet/internal/worker"
)

// App is one process worth of wired services.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Metrics  *metrics.Metrics
	Repo     *storage.SQLiteRepository
	Source   sources.MessageSource
	AMQP     *amqp.Client
	Store    *services.StateStore
	Entry    *services.ManualEntry
	Ingestor *services.Ingestor
	Worker   *worker.SyncWorker

	caches  *cache.Manager
	cleanup backend.CleanupFunc
}

type appOptions struct {
	factory     backend.Factory
	requireAMQP bool
	storeOpts   []services.StateOption
}

type AppOption func(*appOptions)

// WithFactory replaces the default backend factory.
func WithFactory(f backend.Factory) AppOption {
	return func(o *appOptions) { o.factory = f }
}

// RequireAMQP fails NewApp when the broker is missing or unreachable.
func RequireAMQP() AppOption {
	return func(o *appOptions) { o.requireAMQP = true }
}

func WithStateOptions(opts ...services.StateOption) AppOption {
	return func(o *appOptions) { o.storeOpts = append(o.storeOpts, opts...) }
}

// NewApp builds the infrastructure and services described by cfg. The schema
// is left alone until the state store bootstraps.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ...AppOption) (*App, error) {
	o := appOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.factory == nil {
		o.factory = backend.NewFactory(logger.WithComponent(log.ComponentStorage).Logger)
	}

	rules, err := loadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	bcfg.RequireAMQP = o.requireAMQP
	res, err := o.factory.Create(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	seen := cache.NewSeenSet(cfg.SeenCacheSize, cfg.SeenCacheTTL)
	caches := cache.NewManager()
	caches.Register(seen)
	caches.StartCleanup(sweepInterval(cfg.SeenCacheTTL))

	storeOpts := append([]services.StateOption{
		services.WithCategorizer(rules),
		services.WithMetrics(m),
		services.WithMatchMode(services.MatchMode(cfg.CategoryMatchMode)),
	}, o.storeOpts...)
	store := services.NewStateStore(res.Repository, storeOpts...)

	ingestor := services.NewIngestor(res.Repository,
		parser.New(rules, parser.WithCurrency(cfg.DefaultCurrency), parser.WithLocation(loc)),
		services.WithSource(res.Source),
		services.WithSeenSet(seen),
		services.WithIngestMetrics(m),
		services.WithRefresher(store))

	return &App{
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
		Repo:     res.Repository,
		Source:   res.Source,
		AMQP:     res.AMQP,
		Store:    store,
		Entry:    services.NewManualEntry(store, loc, cfg.DefaultCurrency),
		Ingestor: ingestor,
		Worker:   worker.NewSyncWorker(ingestor, cfg.SyncInterval),
		caches:   caches,
		cleanup:  res.Cleanup,
	}, nil
}

// Close stops background sweeps and releases the backend.
func (a *App) Close() error {
	a.caches.Stop()
	if a.cleanup == nil {
		return nil
	}
	return a.cleanup()
}

func loadRules(path string) (*categorizer.Categorizer, error) {
	if path == "" {
		return categorizer.Default(), nil
	}
	rules, err := categorizer.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load rules %s: %w", path, err)
	}
	return rules, nil
}

// sweepInterval purges the seen cache four times per TTL, at most every
// minute.
func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}

var errNoBroker = errors.New("AMQP broker not configured: set AMQP_URL")
