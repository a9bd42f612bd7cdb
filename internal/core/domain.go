package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

const (
	SourceSMS    Source = "sms"
	SourceEmail  Source = "email"
	SourcePush   Source = "push"
	SourceManual Source = "manual"
)

const (
	AccountBank   AccountType = "bank"
	AccountWallet AccountType = "wallet"
	AccountCash   AccountType = "cash"
	AccountCard   AccountType = "card"
	AccountOther  AccountType = "other"
)

// TimestampLayout is the persisted ISO-8601 form of event and ingestion times.
// The first seven characters are the month key.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type (
	Direction   string
	Source      string
	AccountType string

	Account struct {
		ID              int64
		Name            string
		Type            AccountType
		CurrencyDefault string
	}

	Category struct {
		ID   int64
		Name string
	}

	// Transaction is a persisted money movement. Optional columns are nil
	// when absent.
	Transaction struct {
		ID                 int64
		AmountNative       Money
		CurrencyNative     string
		AmountBase         *Money
		CurrencyBase       *string
		FXRate             *decimal.Decimal
		Direction          Direction
		DescriptionRaw     *string
		DescriptionClean   *string
		Category           *string
		CategoryConfidence *float64
		AccountID          *int64
		TxnDatetime        time.Time
		IngestedAt         time.Time
		Source             Source
		SourceMeta         *string
		DedupeHash         *string
		ParserVersion      *string
		IsTransfer         bool
		IsRefund           bool
		Edited             bool
		Notes              *string
	}

	// TransactionInput is what callers hand to the store for insertion.
	// Empty strings mean "absent" and are persisted as NULL.
	TransactionInput struct {
		AmountNative       Money
		CurrencyNative     string
		Direction          Direction
		Description        string
		Category           string
		CategoryConfidence *float64
		TxnDatetime        time.Time
		AccountID          *int64
		Source             Source
		SourceMeta         string
		DedupeHash         string
		ParserVersion      string
		IsTransfer         bool
		IsRefund           bool
		Notes              string
	}

	AccountInput struct {
		Name     string
		Type     AccountType
		Currency string
	}

	// Message is one record handed over by a message source.
	Message struct {
		ID         string `json:"id"`
		Subject    string `json:"subject"`
		Snippet    string `json:"snippet"`
		ReceivedAt string `json:"receivedAt"`
	}
)

func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

func (s Source) Valid() bool {
	switch s {
	case SourceSMS, SourceEmail, SourcePush, SourceManual:
		return true
	}
	return false
}

func (a AccountType) Valid() bool {
	switch a {
	case AccountBank, AccountWallet, AccountCash, AccountCard, AccountOther:
		return true
	}
	return false
}

// Month returns the bucket the transaction falls into.
func (t Transaction) Month() MonthKey {
	return MonthKeyOf(t.TxnDatetime)
}

// CategoryName returns the category or "" when uncategorized.
func (t Transaction) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return *t.Category
}

// Validate checks the input before any persistence call.
func (in TransactionInput) Validate() error {
	if err := in.AmountNative.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(in.Description) == "" {
		return ErrEmptyDescription
	}
	if !in.Direction.Valid() {
		return ErrInvalidDirection
	}
	if in.Source != "" && !in.Source.Valid() {
		return ErrInvalidSource
	}
	if in.TxnDatetime.IsZero() {
		return ErrInvalidDateTime
	}
	if err := validateCurrency(in.CurrencyNative); err != nil {
		return err
	}
	return nil
}

func (in AccountInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if !in.Type.Valid() {
		return ErrInvalidAccountType
	}
	return validateCurrency(in.Currency)
}

func validateCurrency(code string) error {
	code = strings.TrimSpace(code)
	if len(code) != 3 {
		return ErrInvalidCurrency
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ErrInvalidCurrency
		}
	}
	return nil
}

// FormatTimestamp renders t in the persisted layout, in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
