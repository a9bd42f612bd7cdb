package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"wallet/internal/core"
	"wallet/internal/metrics"
)

// Repository is the persistence the state store works against.
type Repository interface {
	Initialize(ctx context.Context) error
	ListTransactionsForMonth(ctx context.Context, month core.MonthKey) ([]core.Transaction, error)
	InsertTransaction(ctx context.Context, in core.TransactionInput) (int64, error)
	UpdateTransactionCategory(ctx context.Context, id int64, category string) error
	ListAccounts(ctx context.Context) ([]core.Account, error)
	InsertAccount(ctx context.Context, in core.AccountInput) (int64, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	InsertCategoryIfNotExists(ctx context.Context, name string) (int64, bool, error)
}

// Categorizer assigns a category to a description when one matches.
type Categorizer interface {
	Categorize(description string) (string, bool)
}

// MatchMode selects how the category filter compares names.
type MatchMode string

const (
	// MatchExact keeps transactions whose category equals the filter exactly.
	MatchExact MatchMode = "exact"
	// MatchContains keeps transactions whose category contains the filter,
	// ignoring case.
	MatchContains MatchMode = "contains"
)

func (m MatchMode) Valid() bool { return m == MatchExact || m == MatchContains }

// Filters narrow VisibleTransactions. Zero fields match everything.
type Filters struct {
	Category  string         `json:"category,omitempty"`
	Direction core.Direction `json:"direction,omitempty"`
	AccountID *int64         `json:"accountId,omitempty"`
}

// StateStore caches reference data and the transactions of one month, and
// routes every write through the repository before touching the cache.
type StateStore struct {
	repo        Repository
	categorizer Categorizer
	metrics     *metrics.Metrics
	matchMode   MatchMode

	mu            sync.RWMutex
	loading       bool
	bootstrapped  bool
	accounts      []core.Account
	categories    []core.Category
	transactions  []core.Transaction
	cachedMonth   core.MonthKey
	selectedMonth core.MonthKey
	filters       Filters
	// generation counts writes to the transaction cache.
	generation uint64

	group   singleflight.Group
	reloads sync.WaitGroup
}

type StateOption func(*StateStore)

func WithCategorizer(c Categorizer) StateOption {
	return func(s *StateStore) { s.categorizer = c }
}

func WithMetrics(m *metrics.Metrics) StateOption {
	return func(s *StateStore) { s.metrics = m }
}

func WithMatchMode(mode MatchMode) StateOption {
	return func(s *StateStore) {
		if mode.Valid() {
			s.matchMode = mode
		}
	}
}

// WithMonth overrides the initially selected month.
func WithMonth(month core.MonthKey) StateOption {
	return func(s *StateStore) { s.selectedMonth = month }
}

// NewStateStore selects the current month. Nothing is loaded until Bootstrap.
func NewStateStore(repo Repository, opts ...StateOption) *StateStore {
	s := &StateStore{
		repo:          repo,
		matchMode:     MatchExact,
		selectedMonth: core.CurrentMonthKey(time.Now()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap initializes the database and loads accounts, categories and the
// selected month. It succeeds at most once; concurrent callers share one
// attempt and a failed attempt may be retried.
func (s *StateStore) Bootstrap(ctx context.Context) error {
	s.mu.RLock()
	done := s.bootstrapped
	s.mu.RUnlock()
	if done {
		return nil
	}

	_, err, _ := s.group.Do("bootstrap", func() (interface{}, error) {
		s.mu.Lock()
		if s.bootstrapped {
			s.mu.Unlock()
			return nil, nil
		}
		s.loading = true
		month := s.selectedMonth
		s.mu.Unlock()

		// Shared by every waiting caller, so no single caller may cancel it.
		ctx := context.WithoutCancel(ctx)
		started := time.Now()
		err := s.bootstrap(ctx, month)
		s.metrics.ObserveStore("bootstrap", started, err)
		return nil, err
	})
	return err
}

func (s *StateStore) bootstrap(ctx context.Context, month core.MonthKey) error {
	fail := func(err error) error {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		slog.ErrorContext(ctx, "Failed to bootstrap state", "month", month, "error", err)
		return err
	}

	if err := s.repo.Initialize(ctx); err != nil {
		return fail(fmt.Errorf("initialize database: %w", err))
	}

	var (
		accounts   []core.Account
		categories []core.Category
		txns       []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		accounts, err = s.repo.ListAccounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		categories, err = s.repo.ListCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		txns, err = s.repo.ListTransactionsForMonth(gctx, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return fail(fmt.Errorf("load initial state: %w", err))
	}

	s.mu.Lock()
	s.accounts = accounts
	s.categories = categories
	if s.selectedMonth == month {
		s.setTransactions(month, txns)
	}
	reload := s.selectedMonth != month
	s.bootstrapped = true
	s.loading = false
	s.mu.Unlock()

	if reload {
		s.reloadAsync(ctx, s.SelectedMonth())
	}

	slog.InfoContext(ctx, "State bootstrapped",
		"month", month,
		"accounts", len(accounts),
		"categories", len(categories),
		"transactions", len(txns))
	return nil
}

// Refresh reloads the transactions of month, or of the selected month when
// month is empty, into the cache.
func (s *StateStore) Refresh(ctx context.Context, month core.MonthKey) error {
	if month == "" {
		month = s.SelectedMonth()
	}
	started := time.Now()
	txns, err := s.repo.ListTransactionsForMonth(ctx, month)
	s.metrics.ObserveStore("refresh", started, err)
	if err != nil {
		return fmt.Errorf("refresh transactions: %w", err)
	}

	s.mu.Lock()
	s.setTransactions(month, txns)
	s.mu.Unlock()
	return nil
}

// setTransactions replaces the cached month. s.mu must be held.
func (s *StateStore) setTransactions(month core.MonthKey, txns []core.Transaction) {
	s.transactions = txns
	s.cachedMonth = month
	s.generation++
}

// AddTransaction validates and stores in, categorizing it when no category
// was given, then reloads the selected month.
func (s *StateStore) AddTransaction(ctx context.Context, in core.TransactionInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(in.Category) == "" && s.categorizer != nil {
		if category, ok := s.categorizer.Categorize(in.Description); ok {
			in.Category = category
		}
	}

	started := time.Now()
	id, err := s.repo.InsertTransaction(ctx, in)
	s.metrics.ObserveStore("add_transaction", started, err)
	if err != nil {
		return 0, fmt.Errorf("add transaction: %w", err)
	}

	if err := s.reconcileViaReload(ctx); err != nil {
		return id, err
	}
	return id, nil
}

func (s *StateStore) reconcileViaReload(ctx context.Context) error {
	return s.Refresh(ctx, "")
}

// UpdateCategory stores a category correction and patches the cached copy.
func (s *StateStore) UpdateCategory(ctx context.Context, id int64, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return core.ErrEmptyCategory
	}

	started := time.Now()
	err := s.repo.UpdateTransactionCategory(ctx, id, category)
	s.metrics.ObserveStore("update_category", started, err)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}

	s.patchInPlace(id, category)
	return nil
}

func (s *StateStore) patchInPlace(id int64, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			c := category
			s.transactions[i].Category = &c
			s.transactions[i].Edited = true
		}
	}
}

func (s *StateStore) AddAccount(ctx context.Context, in core.AccountInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	started := time.Now()
	id, err := s.repo.InsertAccount(ctx, in)
	s.metrics.ObserveStore("add_account", started, err)
	if err != nil {
		return 0, fmt.Errorf("add account: %w", err)
	}

	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return id, fmt.Errorf("reload accounts: %w", err)
	}
	s.mu.Lock()
	s.accounts = accounts
	s.mu.Unlock()
	return id, nil
}

// AddCategory creates the category unless it exists and reloads the list.
func (s *StateStore) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyCategory
	}

	started := time.Now()
	_, _, err := s.repo.InsertCategoryIfNotExists(ctx, name)
	s.metrics.ObserveStore("add_category", started, err)
	if err != nil {
		return fmt.Errorf("add category: %w", err)
	}

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("reload categories: %w", err)
	}
	s.mu.Lock()
	s.categories = categories
	s.mu.Unlock()
	return nil
}

// SetSelectedMonth switches the selected month and reloads it in the
// background. Use Wait to block until the reload lands.
func (s *StateStore) SetSelectedMonth(ctx context.Context, month string) (core.MonthKey, error) {
	key, err := core.ParseMonthKey(month)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.selectedMonth = key
	s.mu.Unlock()

	s.reloadAsync(ctx, key)
	return key, nil
}

// reloadAsync loads month and applies it only if month is still selected and
// the cache was not written since the load started.
func (s *StateStore) reloadAsync(ctx context.Context, month core.MonthKey) {
	ctx = context.WithoutCancel(ctx)
	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	s.reloads.Add(1)
	go func() {
		defer s.reloads.Done()
		started := time.Now()
		txns, err := s.repo.ListTransactionsForMonth(ctx, month)
		s.metrics.ObserveStore("reload_month", started, err)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to reload month", "month", month, "error", err)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.selectedMonth != month || s.generation != gen {
			slog.DebugContext(ctx, "Discarding stale month reload", "month", month, "selected", s.selectedMonth)
			return
		}
		s.setTransactions(month, txns)
	}()
}

// Wait blocks until every pending background reload has finished.
func (s *StateStore) Wait() { s.reloads.Wait() }

func (s *StateStore) SetFilters(f Filters) {
	f.Category = strings.TrimSpace(f.Category)
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
}

// VisibleTransactions applies the current filters to the cached month.
func (s *StateStore) VisibleTransactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		if s.visible(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *StateStore) visible(t core.Transaction) bool {
	f := s.filters
	if f.Category != "" {
		name := t.CategoryName()
		switch s.matchMode {
		case MatchContains:
			if !strings.Contains(strings.ToLower(name), strings.ToLower(f.Category)) {
				return false
			}
		default:
			if name != f.Category {
				return false
			}
		}
	}
	if f.Direction != "" && t.Direction != f.Direction {
		return false
	}
	if f.AccountID != nil && (t.AccountID == nil || *t.AccountID != *f.AccountID) {
		return false
	}
	return true
}

// MonthlySummary totals the cached transactions of month (selected when empty).
func (s *StateStore) MonthlySummary(month core.MonthKey) core.MonthlySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if month == "" {
		month = s.selectedMonth
	}
	return core.Summarize(s.transactions, month)
}

// TopCategories ranks the cached transactions of month (selected when empty).
func (s *StateStore) TopCategories(month core.MonthKey, limit int) []core.CategoryTotal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if month == "" {
		month = s.selectedMonth
	}
	return core.TopCategories(s.transactions, month, limit)
}

func (s *StateStore) Accounts() []core.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Account(nil), s.accounts...)
}

func (s *StateStore) Categories() []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Category(nil), s.categories...)
}

// Transactions returns the cached month, unfiltered.
func (s *StateStore) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.transactions...)
}

func (s *StateStore) SelectedMonth() core.MonthKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedMonth
}

// CachedMonth is the month the cached transactions belong to.
func (s *StateStore) CachedMonth() core.MonthKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cachedMonth
}

func (s *StateStore) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

func (s *StateStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *StateStore) Bootstrapped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bootstrapped
}

// MatchMode reports the configured category filter mode.
func (s *StateStore) MatchMode() MatchMode { return s.matchMode }
