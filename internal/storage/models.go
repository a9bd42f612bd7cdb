package storage

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID              int64
	Name            string
	Type            string
	CurrencyDefault string
}

type Category struct {
	ID   int64
	Name string
}

type Transaction struct {
	ID                 int64
	AmountNativeCents  int64
	CurrencyNative     string
	AmountBaseCents    sql.NullInt64
	CurrencyBase       sql.NullString
	FxRate             decimal.NullDecimal
	Direction          string
	DescriptionRaw     sql.NullString
	DescriptionClean   sql.NullString
	Category           sql.NullString
	CategoryConfidence sql.NullFloat64
	AccountID          sql.NullInt64
	TxnDatetime        string
	IngestedAt         string
	Source             string
	SourceMeta         sql.NullString
	DedupeHash         sql.NullString
	ParserVersion      sql.NullString
	IsTransfer         int64
	IsRefund           int64
	Edited             int64
	Notes              sql.NullString
}

type InsertTransactionParams struct {
	AmountNativeCents  int64
	CurrencyNative     string
	Direction          string
	DescriptionRaw     sql.NullString
	DescriptionClean   sql.NullString
	Category           sql.NullString
	CategoryConfidence sql.NullFloat64
	AccountID          sql.NullInt64
	TxnDatetime        string
	IngestedAt         string
	Source             string
	SourceMeta         sql.NullString
	DedupeHash         sql.NullString
	ParserVersion      sql.NullString
	IsTransfer         int64
	IsRefund           int64
	Notes              sql.NullString
}

type InsertAccountParams struct {
	Name            string
	Type            string
	CurrencyDefault string
}

type UpdateTransactionCategoryParams struct {
	Category sql.NullString
	ID       int64
}
