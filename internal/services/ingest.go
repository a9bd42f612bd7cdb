package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"wallet/internal/cache"
	"wallet/internal/core"
	"wallet/internal/metrics"
	"wallet/internal/sources"
)

// Outcome is the fate of one ingested message.
type Outcome string

const (
	OutcomeInserted  Outcome = "inserted"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeDropped   Outcome = "dropped"
)

// SyncReport counts what a sync did with the fetched messages.
type SyncReport struct {
	Fetched    int `json:"fetched"`
	Parsed     int `json:"parsed"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Dropped    int `json:"dropped"`
}

type TransactionInserter interface {
	InsertTransaction(ctx context.Context, in core.TransactionInput) (int64, error)
}

type MessageParser interface {
	Parse(msg core.Message) (core.TransactionInput, bool)
}

// Refresher reloads cached transactions after new rows land.
type Refresher interface {
	Refresh(ctx context.Context, month core.MonthKey) error
}

type Ingestor struct {
	repo      TransactionInserter
	parser    MessageParser
	source    sources.MessageSource
	seen      *cache.SeenSet
	metrics   *metrics.Metrics
	refresher Refresher
}

type IngestOption func(*Ingestor)

func WithSource(src sources.MessageSource) IngestOption {
	return func(i *Ingestor) { i.source = src }
}

func WithSeenSet(seen *cache.SeenSet) IngestOption {
	return func(i *Ingestor) { i.seen = seen }
}

func WithIngestMetrics(m *metrics.Metrics) IngestOption {
	return func(i *Ingestor) { i.metrics = m }
}

// WithRefresher reloads r after a sync that inserted anything.
func WithRefresher(r Refresher) IngestOption {
	return func(i *Ingestor) { i.refresher = r }
}

func NewIngestor(repo TransactionInserter, parser MessageParser, opts ...IngestOption) *Ingestor {
	i := &Ingestor{repo: repo, parser: parser}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Source returns the configured message source, or nil.
func (i *Ingestor) Source() sources.MessageSource { return i.source }

// Fingerprint identifies a message for deduplication. Messages without an id
// are identified by their content.
func Fingerprint(source core.Source, msg core.Message) string {
	key := string(source) + ":" + msg.ID
	if msg.ID == "" {
		key = string(source) + ":" + msg.Subject + "\n" + msg.Snippet + "\n" + msg.ReceivedAt
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Ingest parses and stores one message. Unparsable messages are dropped and
// already stored ones reported as duplicates; neither is an error. A parse
// that fails transaction validation is returned as a validation error.
func (i *Ingestor) Ingest(ctx context.Context, msg core.Message) (Outcome, error) {
	in, ok := i.parser.Parse(msg)
	if !ok {
		i.metrics.IncIngest(string(OutcomeDropped))
		slog.DebugContext(ctx, "Message dropped, no amount found", "message_id", msg.ID)
		return OutcomeDropped, nil
	}
	if err := in.Validate(); err != nil {
		i.metrics.IncIngest("invalid")
		return "", fmt.Errorf("ingest message %s: %w", msg.ID, err)
	}

	hash := Fingerprint(in.Source, msg)
	if i.seen != nil {
		hit := i.seen.Seen(hash)
		i.metrics.IncSeenCache(hit)
		if hit {
			i.metrics.IncIngest(string(OutcomeDuplicate))
			return OutcomeDuplicate, nil
		}
	}

	in.DedupeHash = hash
	in.SourceMeta = sourceMeta(msg)

	id, err := i.repo.InsertTransaction(ctx, in)
	switch {
	case errors.Is(err, core.ErrConstraint):
		i.markSeen(hash)
		i.metrics.IncIngest(string(OutcomeDuplicate))
		slog.DebugContext(ctx, "Message already ingested", "message_id", msg.ID)
		return OutcomeDuplicate, nil
	case err != nil:
		i.metrics.IncIngest("error")
		return "", fmt.Errorf("ingest message %s: %w", msg.ID, err)
	}

	i.markSeen(hash)
	i.metrics.IncIngest(string(OutcomeInserted))
	slog.InfoContext(ctx, "Message ingested",
		"message_id", msg.ID,
		"transaction_id", id,
		"amount_cents", in.AmountNative.Cents,
		"direction", in.Direction,
		"category", in.Category)
	return OutcomeInserted, nil
}

// Sync fetches from the source and ingests every message. A storage failure
// stops the sync and is returned with the counts so far.
func (i *Ingestor) Sync(ctx context.Context) (SyncReport, error) {
	var report SyncReport
	if i.source == nil {
		return report, fmt.Errorf("sync: %w", core.ErrNotConnected)
	}

	msgs, err := i.source.FetchMessages(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch messages: %w", err)
	}
	report.Fetched = len(msgs)

	for _, msg := range msgs {
		outcome, err := i.Ingest(ctx, msg)
		if core.IsValidation(err) {
			slog.WarnContext(ctx, "Message failed validation", "message_id", msg.ID, "error", err)
			report.Dropped++
			continue
		}
		if err != nil {
			return report, err
		}
		switch outcome {
		case OutcomeInserted:
			report.Parsed++
			report.Inserted++
		case OutcomeDuplicate:
			report.Parsed++
			report.Duplicates++
		case OutcomeDropped:
			report.Dropped++
		}
	}

	if report.Inserted > 0 && i.refresher != nil {
		if err := i.refresher.Refresh(ctx, ""); err != nil {
			return report, err
		}
	}

	slog.InfoContext(ctx, "Sync completed",
		"source", i.source.Name(),
		"fetched", report.Fetched,
		"inserted", report.Inserted,
		"duplicates", report.Duplicates,
		"dropped", report.Dropped)
	return report, nil
}

func (i *Ingestor) markSeen(hash string) {
	if i.seen != nil {
		i.seen.Mark(hash)
	}
}

func sourceMeta(msg core.Message) string {
	meta, err := json.Marshal(struct {
		MessageID string `json:"messageId,omitempty"`
		Subject   string `json:"subject"`
	}{msg.ID, msg.Subject})
	if err != nil {
		return ""
	}
	return string(meta)
}
