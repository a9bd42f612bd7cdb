package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wallet/internal/amqp"
	"wallet/internal/core"
	"wallet/internal/services"
)

// Ingester is the part of services.Ingestor the worker drives.
type Ingester interface {
	Ingest(ctx context.Context, msg core.Message) (services.Outcome, error)
	Sync(ctx context.Context) (services.SyncReport, error)
}

// SyncWorker feeds messages into the ingestion pipeline, either from AMQP
// deliveries or by polling the configured message source.
type SyncWorker struct {
	ingestor Ingester
	interval time.Duration
}

func NewSyncWorker(ingestor Ingester, interval time.Duration) *SyncWorker {
	return &SyncWorker{ingestor: ingestor, interval: interval}
}

// HandleInbound processes a single inbound message from AMQP. Dropped and
// duplicate messages are acknowledged; messages that can never be stored are
// rejected; anything else is returned so the delivery is requeued.
func (w *SyncWorker) HandleInbound(ctx context.Context, msg *amqp.InboundMessage) error {
	slog.InfoContext(ctx, "Processing inbound message",
		"message_id", msg.ID,
		"forwarded_at", msg.ForwardedAt)

	outcome, err := w.ingestor.Ingest(ctx, msg.Message())
	if err != nil {
		if core.IsValidation(err) {
			return fmt.Errorf("%w: %w", amqp.ErrReject, err)
		}
		return fmt.Errorf("ingest inbound message: %w", err)
	}

	slog.InfoContext(ctx, "Inbound message processed",
		"message_id", msg.ID,
		"outcome", outcome)
	return nil
}

// SyncOnce runs one sync against the message source. A disconnected source
// is not an error here; the sync is skipped.
func (w *SyncWorker) SyncOnce(ctx context.Context) (services.SyncReport, error) {
	report, err := w.ingestor.Sync(ctx)
	if errors.Is(err, core.ErrNotConnected) {
		slog.DebugContext(ctx, "Message source not connected, skipping sync")
		return report, nil
	}
	return report, err
}

// Run polls the source every interval until ctx is done. A zero interval
// disables polling and Run returns immediately.
func (w *SyncWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return nil
	}

	slog.InfoContext(ctx, "Periodic sync started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Periodic sync stopped")
			return nil
		case <-ticker.C:
			if _, err := w.SyncOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}
