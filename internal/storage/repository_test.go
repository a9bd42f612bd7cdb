package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wallet/internal/core"
)

var fixedNow = time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "wallet.db"), WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	return repo
}

func input(desc string, cents int64, at time.Time) core.TransactionInput {
	return core.TransactionInput{
		AmountNative:   core.Money{Cents: cents},
		CurrencyNative: "SGD",
		Direction:      core.DirectionOut,
		Description:    desc,
		TxnDatetime:    at,
	}
}

func TestInsertAndListTransactions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first := input("  Coffee  ", 450, time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC))
	first.Category = "Food"
	if _, err := repo.InsertTransaction(ctx, first); err != nil {
		t.Fatalf("InsertTransaction() error: %v", err)
	}
	if _, err := repo.InsertTransaction(ctx, input("Taxi", 1500, time.Date(2024, 5, 10, 22, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("InsertTransaction() error: %v", err)
	}
	if _, err := repo.InsertTransaction(ctx, input("Rent", 200000, time.Date(2024, 4, 28, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("InsertTransaction() error: %v", err)
	}

	all, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions() error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListTransactions() len = %d, want 3", len(all))
	}
	wantOrder := []string{"Taxi", "Coffee", "Rent"}
	for i, want := range wantOrder {
		if got := *all[i].DescriptionRaw; got != want {
			t.Errorf("position %d = %q, want %q", i, got, want)
		}
	}

	coffee := all[1]
	if *coffee.DescriptionClean != "Coffee" || coffee.CategoryName() != "Food" {
		t.Errorf("coffee = %+v", coffee)
	}
	if coffee.Source != core.SourceManual {
		t.Errorf("default source = %q, want manual", coffee.Source)
	}
	if !coffee.IngestedAt.Equal(fixedNow) {
		t.Errorf("IngestedAt = %v, want %v", coffee.IngestedAt, fixedNow)
	}
	if coffee.AccountID != nil || coffee.DedupeHash != nil || coffee.AmountBase != nil || coffee.FXRate != nil {
		t.Errorf("absent optionals should be nil: %+v", coffee)
	}

	may, err := repo.ListTransactionsForMonth(ctx, "2024-05")
	if err != nil {
		t.Fatalf("ListTransactionsForMonth() error: %v", err)
	}
	if len(may) != 2 {
		t.Fatalf("May len = %d, want 2", len(may))
	}

	n, err := repo.CountTransactions(ctx)
	if err != nil || n != 3 {
		t.Fatalf("CountTransactions() = %d, %v", n, err)
	}
}

func TestInsertDuplicateDedupeHash(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	in := input("Card Transaction", 1290, fixedNow)
	in.DedupeHash = "abc123"
	if _, err := repo.InsertTransaction(ctx, in); err != nil {
		t.Fatalf("first insert error: %v", err)
	}
	_, err := repo.InsertTransaction(ctx, in)
	if !errors.Is(err, core.ErrConstraint) {
		t.Fatalf("second insert = %v, want ErrConstraint", err)
	}

	// NULL hashes never collide.
	for i := 0; i < 2; i++ {
		if _, err := repo.InsertTransaction(ctx, input("No hash", 100, fixedNow)); err != nil {
			t.Fatalf("insert without hash %d: %v", i, err)
		}
	}

	n, _ := repo.CountTransactions(ctx)
	if n != 3 {
		t.Fatalf("CountTransactions() = %d, want 3", n)
	}
}

func TestInsertConstraintFailures(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	cases := []struct {
		name   string
		mutate func(*core.TransactionInput)
	}{
		{"non-positive amount", func(in *core.TransactionInput) { in.AmountNative = core.Money{} }},
		{"bad direction", func(in *core.TransactionInput) { in.Direction = "sideways" }},
		{"bad source", func(in *core.TransactionInput) { in.Source = "fax" }},
		{"unknown account", func(in *core.TransactionInput) { id := int64(999); in.AccountID = &id }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := input("x", 100, fixedNow)
			tc.mutate(&in)
			if _, err := repo.InsertTransaction(ctx, in); !errors.Is(err, core.ErrConstraint) {
				t.Fatalf("InsertTransaction() = %v, want ErrConstraint", err)
			}
		})
	}
}

func TestUpdateTransactionCategory(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.InsertTransaction(ctx, input("Shopee order", 3000, fixedNow))
	if err != nil {
		t.Fatalf("InsertTransaction() error: %v", err)
	}
	if err := repo.UpdateTransactionCategory(ctx, id, "Shopping"); err != nil {
		t.Fatalf("UpdateTransactionCategory() error: %v", err)
	}
	got, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction() error: %v", err)
	}
	if got.CategoryName() != "Shopping" || !got.Edited {
		t.Fatalf("after update = category %q edited %v", got.CategoryName(), got.Edited)
	}

	if err := repo.UpdateTransactionCategory(ctx, 12345, "Food"); err != nil {
		t.Fatalf("update of unknown id should not fail: %v", err)
	}
}

func TestAccountsAndCategories(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, name := range []string{"zeta Bank", "Alpha Wallet"} {
		if _, err := repo.InsertAccount(ctx, core.AccountInput{Name: name, Type: core.AccountBank, Currency: "SGD"}); err != nil {
			t.Fatalf("InsertAccount(%q) error: %v", name, err)
		}
	}
	accounts, err := repo.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts() error: %v", err)
	}
	if len(accounts) != 2 || accounts[0].Name != "Alpha Wallet" {
		t.Fatalf("ListAccounts() = %+v", accounts)
	}

	id1, found, err := repo.InsertCategoryIfNotExists(ctx, " Travel ")
	if err != nil || !found {
		t.Fatalf("InsertCategoryIfNotExists() = %d, %v, %v", id1, found, err)
	}
	id2, found, err := repo.InsertCategoryIfNotExists(ctx, "Travel")
	if err != nil || !found || id2 != id1 {
		t.Fatalf("second insert = %d, %v, %v; want same id %d", id2, found, err, id1)
	}
	if _, _, err := repo.InsertCategoryIfNotExists(ctx, "bills"); err != nil {
		t.Fatalf("insert bills: %v", err)
	}
	if _, _, err := repo.InsertCategoryIfNotExists(ctx, "   "); !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("blank category = %v, want ErrEmptyCategory", err)
	}

	categories, err := repo.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories() error: %v", err)
	}
	if len(categories) != 2 || categories[0].Name != "bills" || categories[1].Name != "Travel" {
		t.Fatalf("ListCategories() = %+v", categories)
	}
}
