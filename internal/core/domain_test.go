package core

import (
	"errors"
	"testing"
	"time"
)

func validInput() TransactionInput {
	return TransactionInput{
		AmountNative:   Money{Cents: 1840},
		CurrencyNative: "SGD",
		Direction:      DirectionOut,
		Description:    "Lunch",
		TxnDatetime:    time.Date(2024, 5, 5, 12, 30, 0, 0, time.UTC),
	}
}

func TestTransactionInputValidate(t *testing.T) {
	if err := validInput().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*TransactionInput)
		want   error
	}{
		{"zero amount", func(in *TransactionInput) { in.AmountNative = Money{} }, ErrInvalidAmount},
		{"negative amount", func(in *TransactionInput) { in.AmountNative = Money{Cents: -100} }, ErrInvalidAmount},
		{"blank description", func(in *TransactionInput) { in.Description = "   " }, ErrEmptyDescription},
		{"bad direction", func(in *TransactionInput) { in.Direction = "sideways" }, ErrInvalidDirection},
		{"bad source", func(in *TransactionInput) { in.Source = "fax" }, ErrInvalidSource},
		{"zero time", func(in *TransactionInput) { in.TxnDatetime = time.Time{} }, ErrInvalidDateTime},
		{"bad currency", func(in *TransactionInput) { in.CurrencyNative = "sg" }, ErrInvalidCurrency},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			err := in.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
			if !IsValidation(err) {
				t.Fatalf("Validate() = %v, want validation family", err)
			}
		})
	}
}

func TestAccountInputValidate(t *testing.T) {
	good := AccountInput{Name: "UOB Current", Type: AccountBank, Currency: "SGD"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []AccountInput{
		{Name: "", Type: AccountBank, Currency: "SGD"},
		{Name: "x", Type: "savings", Currency: "SGD"},
		{Name: "x", Type: AccountCash, Currency: "dollars"},
	}
	for i, in := range bads {
		if err := in.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseMonthKey(t *testing.T) {
	for _, ok := range []string{"2024-05", " 2024-12 "} {
		if _, err := ParseMonthKey(ok); err != nil {
			t.Errorf("ParseMonthKey(%q) error: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "2024-5", "2024-13", "May 2024", "2024-05-01"} {
		if _, err := ParseMonthKey(bad); !errors.Is(err, ErrInvalidMonthKey) {
			t.Errorf("ParseMonthKey(%q) = %v, want ErrInvalidMonthKey", bad, err)
		}
	}
}

func TestMonthKeyOfUsesUTC(t *testing.T) {
	loc := time.FixedZone("SGT", 8*3600)
	// 2024-06-01 01:00 in Singapore is still May in UTC.
	ts := time.Date(2024, 6, 1, 1, 0, 0, 0, loc)
	if got := MonthKeyOf(ts); got != "2024-05" {
		t.Fatalf("MonthKeyOf = %q, want 2024-05", got)
	}
	if got := FormatTimestamp(ts); got != "2024-05-31T17:00:00.000Z" {
		t.Fatalf("FormatTimestamp = %q", got)
	}
}
