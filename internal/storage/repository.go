package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wallet/internal/core"
)

const driverName = "sqlite"

func dsn(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	path    string
	now     func() time.Time
}

// Option customises a repository at construction.
type Option func(*SQLiteRepository)

// WithClock overrides the clock used for ingested_at.
func WithClock(now func() time.Time) Option {
	return func(r *SQLiteRepository) { r.now = now }
}

// NewSQLiteRepository opens the database file, creating its directory when
// needed. The schema is created by Initialize.
func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open(driverName, dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection for the whole process; SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		path:    dbPath,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for schema tooling.
func (r *SQLiteRepository) DB() *sql.DB { return r.db }

// Migrate applies pending schema migrations.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	if err := RunMigrations(r.path); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorage, err)
	}
	slog.DebugContext(ctx, "Schema up to date", "path", r.path)
	return nil
}

// Initialize migrates the schema and seeds default data.
func (r *SQLiteRepository) Initialize(ctx context.Context) error {
	if err := r.Migrate(ctx); err != nil {
		return err
	}
	return r.Seed(ctx, r.now())
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, classify("list transactions", err)
	}
	return toTransactions(rows)
}

func (r *SQLiteRepository) ListTransactionsForMonth(ctx context.Context, month core.MonthKey) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsForMonth(ctx, month.String())
	if err != nil {
		return nil, classify("list transactions for month", err)
	}
	return toTransactions(rows)
}

// GetTransaction returns the transaction with id, or sql.ErrNoRows wrapped in
// ErrStorage when missing.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, classify("get transaction", err)
	}
	return toTransaction(row)
}

// InsertTransaction stores in and returns the new row id. The description is
// stored trimmed as both raw and clean text.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, in core.TransactionInput) (int64, error) {
	source := in.Source
	if source == "" {
		source = core.SourceManual
	}
	desc := strings.TrimSpace(in.Description)

	params := InsertTransactionParams{
		AmountNativeCents:  in.AmountNative.Cents,
		CurrencyNative:     strings.TrimSpace(in.CurrencyNative),
		Direction:          string(in.Direction),
		DescriptionRaw:     nullString(desc),
		DescriptionClean:   nullString(desc),
		Category:           nullString(strings.TrimSpace(in.Category)),
		CategoryConfidence: nullFloat(in.CategoryConfidence),
		AccountID:          nullInt(in.AccountID),
		TxnDatetime:        core.FormatTimestamp(in.TxnDatetime),
		IngestedAt:         core.FormatTimestamp(r.now()),
		Source:             string(source),
		SourceMeta:         nullString(in.SourceMeta),
		DedupeHash:         nullString(in.DedupeHash),
		ParserVersion:      nullString(in.ParserVersion),
		IsTransfer:         boolInt(in.IsTransfer),
		IsRefund:           boolInt(in.IsRefund),
		Notes:              nullString(in.Notes),
	}

	id, err := r.queries.InsertTransaction(ctx, params)
	if err != nil {
		return 0, classify("insert transaction", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"amount_cents", params.AmountNativeCents,
		"direction", params.Direction,
		"source", params.Source)
	return id, nil
}

// UpdateTransactionCategory sets the category and marks the row edited. An
// unknown id is not an error.
func (r *SQLiteRepository) UpdateTransactionCategory(ctx context.Context, id int64, category string) error {
	n, err := r.queries.UpdateTransactionCategory(ctx, UpdateTransactionCategoryParams{
		Category: nullString(strings.TrimSpace(category)),
		ID:       id,
	})
	if err != nil {
		return classify("update transaction category", err)
	}
	if n == 0 {
		slog.DebugContext(ctx, "Category update matched no transaction", "id", id)
	}
	return nil
}

func (r *SQLiteRepository) CountTransactions(ctx context.Context) (int64, error) {
	n, err := r.queries.CountTransactions(ctx)
	if err != nil {
		return 0, classify("count transactions", err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.queries.ListAccounts(ctx)
	if err != nil {
		return nil, classify("list accounts", err)
	}
	accounts := make([]core.Account, len(rows))
	for i, a := range rows {
		accounts[i] = core.Account{
			ID:              a.ID,
			Name:            a.Name,
			Type:            core.AccountType(a.Type),
			CurrencyDefault: a.CurrencyDefault,
		}
	}
	return accounts, nil
}

func (r *SQLiteRepository) InsertAccount(ctx context.Context, in core.AccountInput) (int64, error) {
	id, err := r.queries.InsertAccount(ctx, InsertAccountParams{
		Name:            strings.TrimSpace(in.Name),
		Type:            string(in.Type),
		CurrencyDefault: strings.TrimSpace(in.Currency),
	})
	if err != nil {
		return 0, classify("insert account", err)
	}
	slog.InfoContext(ctx, "Account created", "id", id, "name", in.Name, "type", in.Type)
	return id, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, classify("list categories", err)
	}
	categories := make([]core.Category, len(rows))
	for i, c := range rows {
		categories[i] = core.Category{ID: c.ID, Name: c.Name}
	}
	return categories, nil
}

// InsertCategoryIfNotExists ensures a category named name exists and returns
// its id. found is false only when the follow-up lookup returns nothing.
func (r *SQLiteRepository) InsertCategoryIfNotExists(ctx context.Context, name string) (id int64, found bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, core.ErrEmptyCategory
	}
	if err := r.queries.InsertCategoryOrIgnore(ctx, name); err != nil {
		return 0, false, classify("insert category", err)
	}
	c, err := r.queries.GetCategoryByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, classify("get category", err)
	}
	return c.ID, true, nil
}

func toTransactions(rows []Transaction) ([]core.Transaction, error) {
	txns := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toTransaction(row)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, nil
}

func toTransaction(row Transaction) (core.Transaction, error) {
	txnAt, err := parseTimestamp(row.TxnDatetime)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: transaction %d txn_datetime: %w", core.ErrStorage, row.ID, err)
	}
	ingestedAt, err := parseTimestamp(row.IngestedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: transaction %d ingested_at: %w", core.ErrStorage, row.ID, err)
	}

	t := core.Transaction{
		ID:                 row.ID,
		AmountNative:       core.Money{Cents: row.AmountNativeCents},
		CurrencyNative:     row.CurrencyNative,
		CurrencyBase:       stringPtr(row.CurrencyBase),
		Direction:          core.Direction(row.Direction),
		DescriptionRaw:     stringPtr(row.DescriptionRaw),
		DescriptionClean:   stringPtr(row.DescriptionClean),
		Category:           stringPtr(row.Category),
		TxnDatetime:        txnAt,
		IngestedAt:         ingestedAt,
		Source:             core.Source(row.Source),
		SourceMeta:         stringPtr(row.SourceMeta),
		DedupeHash:         stringPtr(row.DedupeHash),
		ParserVersion:      stringPtr(row.ParserVersion),
		IsTransfer:         row.IsTransfer != 0,
		IsRefund:           row.IsRefund != 0,
		Edited:             row.Edited != 0,
		Notes:              stringPtr(row.Notes),
	}
	if row.AmountBaseCents.Valid {
		t.AmountBase = &core.Money{Cents: row.AmountBaseCents.Int64}
	}
	if row.FxRate.Valid {
		rate := row.FxRate.Decimal
		t.FXRate = &rate
	}
	if row.CategoryConfidence.Valid {
		c := row.CategoryConfidence.Float64
		t.CategoryConfidence = &c
	}
	if row.AccountID.Valid {
		id := row.AccountID.Int64
		t.AccountID = &id
	}
	return t, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(core.TimestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
