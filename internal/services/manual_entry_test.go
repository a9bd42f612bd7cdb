package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet/internal/core"
)

func validForm() ManualEntryForm {
	return ManualEntryForm{
		Amount:      "18.40",
		Description: "Chicken rice",
		Category:    "Food",
		Date:        "2024-05-10",
		Hour:        "09",
		Minute:      "05",
	}
}

func TestManualEntryBuild(t *testing.T) {
	sgt := time.FixedZone("SGT", 8*3600)
	entry := NewManualEntry(nil, sgt, "")

	in, err := entry.Build(validForm())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if in.AmountNative.Cents != 1840 || in.Direction != core.DirectionOut || in.Source != core.SourceManual || in.CurrencyNative != "SGD" {
		t.Fatalf("Build() = %+v", in)
	}
	if want := time.Date(2024, 5, 10, 1, 5, 0, 0, time.UTC); !in.TxnDatetime.Equal(want) || in.TxnDatetime.Location() != time.UTC {
		t.Fatalf("time = %v, want %v", in.TxnDatetime, want)
	}
}

func TestManualEntryValidationOrder(t *testing.T) {
	entry := NewManualEntry(nil, time.UTC, "SGD")

	tests := []struct {
		name   string
		mutate func(*ManualEntryForm)
		want   error
	}{
		{"amount checked first", func(f *ManualEntryForm) { f.Amount = "abc"; f.Description = "" }, core.ErrInvalidAmount},
		{"zero amount", func(f *ManualEntryForm) { f.Amount = "0" }, core.ErrInvalidAmount},
		{"negative amount", func(f *ManualEntryForm) { f.Amount = "-3" }, core.ErrInvalidAmount},
		{"description before date", func(f *ManualEntryForm) { f.Description = "  "; f.Date = "bad" }, core.ErrEmptyDescription},
		{"new category needs a name", func(f *ManualEntryForm) { f.NewCategory = true; f.Category = " " }, core.ErrEmptyCategory},
		{"bad date", func(f *ManualEntryForm) { f.Date = "10/05/2024" }, core.ErrInvalidDateTime},
		{"hour out of range", func(f *ManualEntryForm) { f.Hour = "24" }, core.ErrInvalidDateTime},
		{"minute out of range", func(f *ManualEntryForm) { f.Minute = "60" }, core.ErrInvalidDateTime},
		{"bad direction", func(f *ManualEntryForm) { f.Direction = "sideways" }, core.ErrInvalidDirection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)
			_, err := entry.Build(form)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Build() = %v, want %v", err, tt.want)
			}
			if !core.IsValidation(err) {
				t.Fatalf("Build() error %v is not a validation error", err)
			}
		})
	}
}

func TestManualEntrySubmitCreatesCategoryFirst(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := newStore(repo)
	entry := NewManualEntry(store, time.UTC, "SGD")

	form := validForm()
	form.Category = "Hawker"
	form.NewCategory = true
	id, err := entry.Submit(ctx, form)
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	repo.mu.Lock()
	calls := append([]string(nil), repo.calls...)
	repo.mu.Unlock()
	catAt, txnAt := -1, -1
	for i, c := range calls {
		switch c {
		case "insert_category":
			catAt = i
		case "insert_transaction":
			txnAt = i
		}
	}
	if catAt < 0 || txnAt < 0 || catAt > txnAt {
		t.Fatalf("calls = %v, want category before transaction", calls)
	}

	if cats := store.Categories(); len(cats) != 1 || cats[0].Name != "Hawker" {
		t.Fatalf("categories = %+v", cats)
	}
	txns := store.Transactions()
	if len(txns) != 1 || txns[0].ID != id || txns[0].CategoryName() != "Hawker" {
		t.Fatalf("transactions = %+v", txns)
	}
}

func TestManualEntrySubmitInvalidPersistsNothing(t *testing.T) {
	repo := newFakeRepo()
	entry := NewManualEntry(newStore(repo), time.UTC, "SGD")

	form := validForm()
	form.NewCategory = true
	form.Amount = ""
	if _, err := entry.Submit(context.Background(), form); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("Submit() = %v", err)
	}
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.calls) != 0 {
		t.Fatalf("repository touched: %v", repo.calls)
	}
}
