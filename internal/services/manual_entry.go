package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wallet/internal/core"
)

// ManualEntryForm is the raw user input of the add-transaction form.
type ManualEntryForm struct {
	Amount      string         `json:"amount"`
	Direction   core.Direction `json:"direction"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	NewCategory bool           `json:"newCategory"`
	Date        string         `json:"date"`
	Hour        string         `json:"hour"`
	Minute      string         `json:"minute"`
	AccountID   *int64         `json:"accountId,omitempty"`
	Notes       string         `json:"notes"`
}

// ManualEntry validates form input and hands it to the state store.
type ManualEntry struct {
	store    *StateStore
	location *time.Location
	currency string
}

// NewManualEntry composes form dates in loc. A nil loc means time.Local.
func NewManualEntry(store *StateStore, loc *time.Location, currency string) *ManualEntry {
	if loc == nil {
		loc = time.Local
	}
	if currency = strings.ToUpper(strings.TrimSpace(currency)); currency == "" {
		currency = "SGD"
	}
	return &ManualEntry{store: store, location: loc, currency: currency}
}

// Build checks the whole form and returns the transaction it describes.
// Nothing is persisted.
func (m *ManualEntry) Build(form ManualEntryForm) (core.TransactionInput, error) {
	amount, err := core.ParseAmount(form.Amount)
	if err != nil {
		return core.TransactionInput{}, err
	}
	description := strings.TrimSpace(form.Description)
	if description == "" {
		return core.TransactionInput{}, core.ErrEmptyDescription
	}
	category := strings.TrimSpace(form.Category)
	if form.NewCategory && category == "" {
		return core.TransactionInput{}, core.ErrEmptyCategory
	}
	at, err := m.composeTime(form.Date, form.Hour, form.Minute)
	if err != nil {
		return core.TransactionInput{}, err
	}

	direction := form.Direction
	if direction == "" {
		direction = core.DirectionOut
	}
	in := core.TransactionInput{
		AmountNative:   amount,
		CurrencyNative: m.currency,
		Direction:      direction,
		Description:    description,
		Category:       category,
		TxnDatetime:    at,
		AccountID:      form.AccountID,
		Source:         core.SourceManual,
		Notes:          strings.TrimSpace(form.Notes),
	}
	if err := in.Validate(); err != nil {
		return core.TransactionInput{}, err
	}
	return in, nil
}

// Submit validates the form, creates a new category when requested and then
// stores the transaction.
func (m *ManualEntry) Submit(ctx context.Context, form ManualEntryForm) (int64, error) {
	in, err := m.Build(form)
	if err != nil {
		return 0, err
	}
	if form.NewCategory {
		if err := m.store.AddCategory(ctx, in.Category); err != nil {
			return 0, err
		}
	}
	return m.store.AddTransaction(ctx, in)
}

func (m *ManualEntry) composeTime(date, hour, minute string) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), m.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", core.ErrInvalidDateTime)
	}
	hh, err := strconv.Atoi(strings.TrimSpace(hour))
	if err != nil || hh < 0 || hh > 23 {
		return time.Time{}, fmt.Errorf("%w: hour must be 00-23", core.ErrInvalidDateTime)
	}
	mm, err := strconv.Atoi(strings.TrimSpace(minute))
	if err != nil || mm < 0 || mm > 59 {
		return time.Time{}, fmt.Errorf("%w: minute must be 00-59", core.ErrInvalidDateTime)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, m.location).UTC(), nil
}
