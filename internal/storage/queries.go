package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const transactionColumns = `id, amount_native_cents, currency_native, amount_base_cents, currency_base, fx_rate,
    direction, description_raw, description_clean, category, category_confidence, account_id,
    txn_datetime, ingested_at, source, source_meta, dedupe_hash, parser_version,
    is_transfer, is_refund, edited, notes`

func scanTransaction(rows interface{ Scan(...interface{}) error }) (Transaction, error) {
	var i Transaction
	err := rows.Scan(
		&i.ID,
		&i.AmountNativeCents,
		&i.CurrencyNative,
		&i.AmountBaseCents,
		&i.CurrencyBase,
		&i.FxRate,
		&i.Direction,
		&i.DescriptionRaw,
		&i.DescriptionClean,
		&i.Category,
		&i.CategoryConfidence,
		&i.AccountID,
		&i.TxnDatetime,
		&i.IngestedAt,
		&i.Source,
		&i.SourceMeta,
		&i.DedupeHash,
		&i.ParserVersion,
		&i.IsTransfer,
		&i.IsRefund,
		&i.Edited,
		&i.Notes,
	)
	return i, err
}

func (q *Queries) collectTransactions(ctx context.Context, query string, args ...interface{}) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTransactions = `SELECT ` + transactionColumns + `
FROM transactions
ORDER BY datetime(txn_datetime) DESC, id DESC`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	return q.collectTransactions(ctx, listTransactions)
}

const listTransactionsForMonth = `SELECT ` + transactionColumns + `
FROM transactions
WHERE substr(txn_datetime, 1, 7) = ?
ORDER BY datetime(txn_datetime) DESC, id DESC`

func (q *Queries) ListTransactionsForMonth(ctx context.Context, month string) ([]Transaction, error) {
	return q.collectTransactions(ctx, listTransactionsForMonth, month)
}

const getTransaction = `SELECT ` + transactionColumns + `
FROM transactions
WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	return scanTransaction(row)
}

const insertTransaction = `INSERT INTO transactions (
    amount_native_cents, currency_native, direction, description_raw, description_clean,
    category, category_confidence, account_id, txn_datetime, ingested_at, source,
    source_meta, dedupe_hash, parser_version, is_transfer, is_refund, notes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTransaction(ctx context.Context, arg InsertTransactionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertTransaction,
		arg.AmountNativeCents,
		arg.CurrencyNative,
		arg.Direction,
		arg.DescriptionRaw,
		arg.DescriptionClean,
		arg.Category,
		arg.CategoryConfidence,
		arg.AccountID,
		arg.TxnDatetime,
		arg.IngestedAt,
		arg.Source,
		arg.SourceMeta,
		arg.DedupeHash,
		arg.ParserVersion,
		arg.IsTransfer,
		arg.IsRefund,
		arg.Notes,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const updateTransactionCategory = `UPDATE transactions
SET category = ?, edited = 1
WHERE id = ?`

func (q *Queries) UpdateTransactionCategory(ctx context.Context, arg UpdateTransactionCategoryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTransactionCategory, arg.Category, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countTransactions = `SELECT COUNT(*) FROM transactions`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTransactions)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listAccounts = `SELECT id, name, type, currency_default
FROM accounts
ORDER BY name COLLATE NOCASE, id`

func (q *Queries) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(&i.ID, &i.Name, &i.Type, &i.CurrencyDefault); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertAccount = `INSERT INTO accounts (name, type, currency_default) VALUES (?, ?, ?)`

func (q *Queries) InsertAccount(ctx context.Context, arg InsertAccountParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertAccount, arg.Name, arg.Type, arg.CurrencyDefault)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getAccountIDByName = `SELECT id FROM accounts WHERE name = ? ORDER BY id LIMIT 1`

func (q *Queries) GetAccountIDByName(ctx context.Context, name string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getAccountIDByName, name)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const countAccounts = `SELECT COUNT(*) FROM accounts`

func (q *Queries) CountAccounts(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countAccounts)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listCategories = `SELECT id, name
FROM categories
ORDER BY name COLLATE NOCASE, id`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertCategoryOrIgnore = `INSERT OR IGNORE INTO categories (name) VALUES (?)`

func (q *Queries) InsertCategoryOrIgnore(ctx context.Context, name string) error {
	_, err := q.db.ExecContext(ctx, insertCategoryOrIgnore, name)
	return err
}

const getCategoryByName = `SELECT id, name FROM categories WHERE name = ?`

func (q *Queries) GetCategoryByName(ctx context.Context, name string) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategoryByName, name)
	var i Category
	err := row.Scan(&i.ID, &i.Name)
	return i, err
}

const countCategories = `SELECT COUNT(*) FROM categories`

func (q *Queries) CountCategories(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countCategories)
	var count int64
	err := row.Scan(&count)
	return count, err
}
