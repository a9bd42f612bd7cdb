package parser

import (
	"testing"
	"time"

	"wallet/internal/categorizer"
	"wallet/internal/core"
)

var clock = time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)

func newParser() *Parser {
	return New(categorizer.Default(), WithClock(func() time.Time { return clock }))
}

func TestParseSampleMessages(t *testing.T) {
	p := newParser()
	cases := []struct {
		name      string
		msg       core.Message
		cents     int64
		direction core.Direction
		desc      string
		category  string
	}{
		{
			name:      "paynow received",
			msg:       core.Message{ID: "mock-1", Subject: "PAYNOW RECEIVED: SGD 48.10 from JOHN DOE", Snippet: "Ref 1234, Lunch split", ReceivedAt: "2024-05-18T10:00:00Z"},
			cents:     4810,
			direction: core.DirectionIn,
			desc:      "PAYNOW RECEIVED:  from JOHN DOE",
			category:  "Transfers",
		},
		{
			name:      "card charged",
			msg:       core.Message{ID: "mock-2", Subject: "Card Transaction: SGD 12.90 SHPEE*12345", Snippet: "Your UOB Visa was charged SGD 12.90 at SHPEE*12345", ReceivedAt: "2024-05-18T11:00:00Z"},
			cents:     1290,
			direction: core.DirectionOut,
			desc:      "Card Transaction:  SHPEE*12345",
			category:  "",
		},
		{
			name:      "thousands separator",
			msg:       core.Message{Subject: "Salary credited S$2,500.00", ReceivedAt: "2024-05-01"},
			cents:     250000,
			direction: core.DirectionIn,
			desc:      "Salary credited",
			category:  "Income",
		},
		{
			name:      "no keywords defaults to out",
			msg:       core.Message{Subject: "Grab ride sgd 9.50"},
			cents:     950,
			direction: core.DirectionOut,
			desc:      "Grab ride",
			category:  "Transport",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := p.Parse(tc.msg)
			if !ok {
				t.Fatal("Parse() ok = false")
			}
			if got.AmountNative.Cents != tc.cents {
				t.Errorf("amount = %d, want %d", got.AmountNative.Cents, tc.cents)
			}
			if got.Direction != tc.direction {
				t.Errorf("direction = %q, want %q", got.Direction, tc.direction)
			}
			if got.Description != tc.desc {
				t.Errorf("description = %q, want %q", got.Description, tc.desc)
			}
			if got.Category != tc.category {
				t.Errorf("category = %q, want %q", got.Category, tc.category)
			}
			if got.Source != core.SourceEmail || got.CurrencyNative != "SGD" || got.ParserVersion != Version {
				t.Errorf("metadata = %q %q %q", got.Source, got.CurrencyNative, got.ParserVersion)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("parsed input does not validate: %v", err)
			}
		})
	}
}

func TestParseRejectsMessagesWithoutAmount(t *testing.T) {
	p := newParser()
	for _, msg := range []core.Message{
		{Subject: "Thanks for visiting", Snippet: "See you again"},
		{Subject: "Your statement is ready", Snippet: "USD 12.00 fee waived"},
		{Subject: "Promo SGD 0.00 today"},
	} {
		if _, ok := p.Parse(msg); ok {
			t.Errorf("Parse(%q) ok = true, want false", msg.Subject)
		}
	}
}

func TestParseDescriptionFallsBackToSubject(t *testing.T) {
	got, ok := Parse(core.Message{Subject: "SGD 5.00", Snippet: "paid"})
	if !ok {
		t.Fatal("Parse() ok = false")
	}
	if got.Description != "SGD 5.00" {
		t.Fatalf("description = %q, want raw subject", got.Description)
	}
	if got.Category != "" {
		t.Fatalf("category = %q, want none", got.Category)
	}
}

func TestParseTimestamp(t *testing.T) {
	p := newParser()
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-05-18T10:15:00+08:00", time.Date(2024, 5, 18, 2, 15, 0, 0, time.UTC)},
		{"2024-05-18T10:15:00.123Z", time.Date(2024, 5, 18, 10, 15, 0, 123000000, time.UTC)},
		{"2024-05-18T10:15:00", time.Date(2024, 5, 18, 10, 15, 0, 0, time.UTC)},
		{"2024-05-18", time.Date(2024, 5, 18, 0, 0, 0, 0, time.UTC)},
		{"yesterday", clock},
		{"", clock},
	}
	for _, tc := range cases {
		got, ok := p.Parse(core.Message{Subject: "Paid SGD 1.00", ReceivedAt: tc.in})
		if !ok {
			t.Fatalf("Parse(%q) ok = false", tc.in)
		}
		if !got.TxnDatetime.Equal(tc.want) {
			t.Errorf("ReceivedAt %q -> %v, want %v", tc.in, got.TxnDatetime, tc.want)
		}
	}
}

func TestParseTimestampLocation(t *testing.T) {
	sgt := time.FixedZone("SGT", 8*3600)
	p := New(nil, WithLocation(sgt), WithClock(func() time.Time { return clock }))

	cases := []struct {
		in        string
		want      time.Time
		wantMonth core.MonthKey
	}{
		{"2024-06-01T02:30:00", time.Date(2024, 5, 31, 18, 30, 0, 0, time.UTC), "2024-05"},
		{"2024-06-01", time.Date(2024, 5, 31, 16, 0, 0, 0, time.UTC), "2024-05"},
		{"2024-06-01T02:30:00Z", time.Date(2024, 6, 1, 2, 30, 0, 0, time.UTC), "2024-06"},
	}
	for _, tc := range cases {
		got, ok := p.Parse(core.Message{Subject: "Paid SGD 1.00", ReceivedAt: tc.in})
		if !ok {
			t.Fatalf("Parse(%q) ok = false", tc.in)
		}
		if !got.TxnDatetime.Equal(tc.want) {
			t.Errorf("ReceivedAt %q -> %v, want %v", tc.in, got.TxnDatetime, tc.want)
		}
		if m := core.MonthKeyOf(got.TxnDatetime); m != tc.wantMonth {
			t.Errorf("ReceivedAt %q month = %q, want %q", tc.in, m, tc.wantMonth)
		}
	}
}

func TestWithCurrency(t *testing.T) {
	p := New(nil, WithCurrency("myr"))
	got, ok := p.Parse(core.Message{Subject: "Paid SGD 3.00"})
	if !ok || got.CurrencyNative != "MYR" {
		t.Fatalf("currency = %q, ok %v", got.CurrencyNative, ok)
	}
}
