package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wallet/internal/core"
)

type seedTransaction struct {
	day, hour, minute int
	description       string
	cents             int64
	direction         core.Direction
	category          string
	account           string
}

var (
	defaultAccounts = []InsertAccountParams{
		{Name: "UOB Current", Type: string(core.AccountBank), CurrencyDefault: "SGD"},
		{Name: "GrabPay Wallet", Type: string(core.AccountWallet), CurrencyDefault: "SGD"},
	}

	defaultCategories = []string{"Food", "Transport", "Groceries", "Shopping", "Income", "Bills"}

	sampleTransactions = []seedTransaction{
		{5, 12, 30, "Lunch at Amoy Street Food Centre", 1840, core.DirectionOut, "Food", "UOB Current"},
		{6, 9, 15, "Grab Transport Ride", 1200, core.DirectionOut, "Transport", "GrabPay Wallet"},
		{1, 10, 0, "Salary Credit", 250000, core.DirectionIn, "Income", "UOB Current"},
	}
)

// Seed inserts the default accounts, categories and sample transactions into
// whichever of those tables is empty. Samples are dated in the month of now.
func (r *SQLiteRepository) Seed(ctx context.Context, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin seed", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)

	accounts, err := q.CountAccounts(ctx)
	if err != nil {
		return classify("count accounts", err)
	}
	if accounts == 0 {
		for _, a := range defaultAccounts {
			if _, err := q.InsertAccount(ctx, a); err != nil {
				return classify("seed account", err)
			}
		}
	}

	categories, err := q.CountCategories(ctx)
	if err != nil {
		return classify("count categories", err)
	}
	if categories == 0 {
		for _, name := range defaultCategories {
			if err := q.InsertCategoryOrIgnore(ctx, name); err != nil {
				return classify("seed category", err)
			}
		}
	}

	txns, err := q.CountTransactions(ctx)
	if err != nil {
		return classify("count transactions", err)
	}
	if txns == 0 {
		ingestedAt := core.FormatTimestamp(r.now())
		for _, s := range sampleTransactions {
			accountID, err := seedAccountID(ctx, q, s.account)
			if err != nil {
				return err
			}
			at := time.Date(now.Year(), now.Month(), s.day, s.hour, s.minute, 0, 0, now.Location())
			_, err = q.InsertTransaction(ctx, InsertTransactionParams{
				AmountNativeCents: s.cents,
				CurrencyNative:    "SGD",
				Direction:         string(s.direction),
				DescriptionRaw:    nullString(s.description),
				DescriptionClean:  nullString(s.description),
				Category:          nullString(s.category),
				AccountID:         accountID,
				TxnDatetime:       core.FormatTimestamp(at),
				IngestedAt:        ingestedAt,
				Source:            string(core.SourceEmail),
			})
			if err != nil {
				return classify("seed transaction", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return classify("commit seed", err)
	}

	slog.InfoContext(ctx, "Database seeded",
		"seeded_accounts", accounts == 0,
		"seeded_categories", categories == 0,
		"seeded_transactions", txns == 0)
	return nil
}

func seedAccountID(ctx context.Context, q *Queries, name string) (sql.NullInt64, error) {
	id, err := q.GetAccountIDByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.NullInt64{}, nil
	}
	if err != nil {
		return sql.NullInt64{}, classify(fmt.Sprintf("lookup account %q", name), err)
	}
	return sql.NullInt64{Int64: id, Valid: true}, nil
}
