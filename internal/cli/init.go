// Package cli holds the wallet commands and the initialization they share.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet/internal/config"
	"wallet/internal/log"
)

// SetupLogger builds the process logger at level and makes it the slog
// default.
func SetupLogger(level string) (*log.Logger, error) {
	cfg := log.DefaultConfig()
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger, nil
}

// LoadAndValidateConfig loads configuration and sets up the logger it asks
// for. Validation problems are logged and returned together.
func LoadAndValidateConfig() (*config.Config, *log.Logger, error) {
	cfg := config.Load()
	logger, err := SetupLogger(cfg.LogLevel)
	if err != nil {
		// Validate reports the bad level alongside anything else.
		logger = log.New(log.DefaultConfig())
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		return nil, nil, err
	}
	return cfg, logger.WithComponent(log.ComponentCLI), nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// then runs with timeout, and done closes once it returned or timed out.
func GracefulShutdown(parent context.Context, logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			defer close(finished)
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is over.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
