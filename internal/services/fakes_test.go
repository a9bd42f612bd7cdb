package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"wallet/internal/core"
)

// fakeRepo is an in-memory Repository with error injection.
type fakeRepo struct {
	mu         sync.Mutex
	txns       []core.Transaction
	accounts   []core.Account
	categories []core.Category
	nextID     int64
	calls      []string

	initErr   error
	insertErr error
	listErr   error

	// gates block ListTransactionsForMonth for a month until closed.
	gates map[core.MonthKey]chan struct{}
	// holds block the next ListTransactionsForMonth for a month after it
	// took its snapshot. Each hold is used once.
	holds map[core.MonthKey]*hold
}

type hold struct {
	taken   chan struct{}
	release chan struct{}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		gates: make(map[core.MonthKey]chan struct{}),
		holds: make(map[core.MonthKey]*hold),
	}
}

// holdAfterSnapshot arranges for the next load of month to block once its
// rows are read. Wait on taken, then close release.
func (f *fakeRepo) holdAfterSnapshot(month core.MonthKey) *hold {
	h := &hold{taken: make(chan struct{}), release: make(chan struct{})}
	f.mu.Lock()
	f.holds[month] = h
	f.mu.Unlock()
	return h
}

func (f *fakeRepo) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeRepo) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeRepo) Initialize(ctx context.Context) error {
	f.record("initialize")
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initErr
}

func (f *fakeRepo) ListTransactionsForMonth(ctx context.Context, month core.MonthKey) ([]core.Transaction, error) {
	f.record("list_month")
	f.mu.Lock()
	gate := f.gates[month]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	if f.listErr != nil {
		f.mu.Unlock()
		return nil, f.listErr
	}
	var out []core.Transaction
	for i := len(f.txns) - 1; i >= 0; i-- {
		if f.txns[i].Month() == month {
			out = append(out, f.txns[i])
		}
	}
	h := f.holds[month]
	delete(f.holds, month)
	f.mu.Unlock()

	if h != nil {
		close(h.taken)
		<-h.release
	}
	return out, nil
}

func (f *fakeRepo) InsertTransaction(ctx context.Context, in core.TransactionInput) (int64, error) {
	f.record("insert_transaction")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	if in.DedupeHash != "" {
		for _, t := range f.txns {
			if t.DedupeHash != nil && *t.DedupeHash == in.DedupeHash {
				return 0, fmt.Errorf("insert transaction: %w: UNIQUE constraint failed", core.ErrConstraint)
			}
		}
	}
	f.nextID++
	desc := strings.TrimSpace(in.Description)
	t := core.Transaction{
		ID:             f.nextID,
		AmountNative:   in.AmountNative,
		CurrencyNative: in.CurrencyNative,
		Direction:      in.Direction,
		DescriptionRaw: &desc,
		TxnDatetime:    in.TxnDatetime,
		AccountID:      in.AccountID,
		Source:         in.Source,
	}
	if in.Category != "" {
		c := in.Category
		t.Category = &c
	}
	if in.DedupeHash != "" {
		h := in.DedupeHash
		t.DedupeHash = &h
	}
	f.txns = append(f.txns, t)
	return t.ID, nil
}

func (f *fakeRepo) UpdateTransactionCategory(ctx context.Context, id int64, category string) error {
	f.record("update_category")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.txns {
		if f.txns[i].ID == id {
			c := category
			f.txns[i].Category = &c
			f.txns[i].Edited = true
		}
	}
	return nil
}

func (f *fakeRepo) ListAccounts(ctx context.Context) ([]core.Account, error) {
	f.record("list_accounts")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Account(nil), f.accounts...), nil
}

func (f *fakeRepo) InsertAccount(ctx context.Context, in core.AccountInput) (int64, error) {
	f.record("insert_account")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.accounts = append(f.accounts, core.Account{ID: f.nextID, Name: in.Name, Type: in.Type, CurrencyDefault: in.Currency})
	return f.nextID, nil
}

func (f *fakeRepo) ListCategories(ctx context.Context) ([]core.Category, error) {
	f.record("list_categories")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Category(nil), f.categories...), nil
}

func (f *fakeRepo) InsertCategoryIfNotExists(ctx context.Context, name string) (int64, bool, error) {
	f.record("insert_category")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Name == name {
			return c.ID, true, nil
		}
	}
	f.nextID++
	f.categories = append(f.categories, core.Category{ID: f.nextID, Name: name})
	return f.nextID, true, nil
}

func (f *fakeRepo) seed(in core.TransactionInput) int64 {
	id, err := f.InsertTransaction(context.Background(), in)
	if err != nil {
		panic(err)
	}
	return id
}

type staticCategorizer map[string]string

func (s staticCategorizer) Categorize(description string) (string, bool) {
	for k, v := range s {
		if strings.Contains(strings.ToLower(description), k) {
			return v, true
		}
	}
	return "", false
}

func txnInput(desc string, cents int64, dir core.Direction, at time.Time, category string) core.TransactionInput {
	return core.TransactionInput{
		AmountNative:   core.Money{Cents: cents},
		CurrencyNative: "SGD",
		Direction:      dir,
		Description:    desc,
		Category:       category,
		TxnDatetime:    at,
	}
}
