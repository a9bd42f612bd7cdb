package core

import (
	"testing"
	"time"
)

func txn(dir Direction, cents int64, month string, category string) Transaction {
	ts, err := time.Parse("2006-01", month)
	if err != nil {
		panic(err)
	}
	t := Transaction{
		AmountNative: Money{Cents: cents},
		Direction:    dir,
		TxnDatetime:  ts.Add(36 * time.Hour),
	}
	if category != "" {
		t.Category = &category
	}
	return t
}

func TestSummarize(t *testing.T) {
	txns := []Transaction{
		txn(DirectionOut, 10000, "2024-05", ""),
		txn(DirectionIn, 4000, "2024-05", "Income"),
		txn(DirectionOut, 500, "2024-06", "Food"),
	}

	got := Summarize(txns, "2024-05")
	want := MonthlySummary{
		Month:    "2024-05",
		TotalIn:  Money{Cents: 4000},
		TotalOut: Money{Cents: 10000},
		Net:      Money{Cents: -6000},
	}
	if got != want {
		t.Fatalf("Summarize() = %+v, want %+v", got, want)
	}

	empty := Summarize(nil, "2024-07")
	if empty.TotalIn.Cents != 0 || empty.TotalOut.Cents != 0 || empty.Net.Cents != 0 {
		t.Fatalf("Summarize(nil) = %+v, want zeros", empty)
	}
}

func TestTopCategoriesSignConvention(t *testing.T) {
	txns := []Transaction{
		txn(DirectionOut, 3000, "2024-05", "Food"),
		txn(DirectionIn, 1000, "2024-05", "Food"),
	}
	got := TopCategories(txns, "2024-05", 5)
	if len(got) != 1 || got[0].Category != "Food" || got[0].Total.Cents != 2000 {
		t.Fatalf("TopCategories() = %+v, want Food 20.00", got)
	}
}

func TestTopCategoriesRankingAndLimit(t *testing.T) {
	txns := []Transaction{
		txn(DirectionOut, 500, "2024-05", "Transport"),
		txn(DirectionOut, 2000, "2024-05", "Shopping"),
		txn(DirectionOut, 900, "2024-05", ""),
		txn(DirectionIn, 250000, "2024-05", "Income"),
		txn(DirectionOut, 500, "2024-05", "Bills"),
		txn(DirectionOut, 9999, "2024-04", "Groceries"),
		txn(DirectionOut, 1200, "2024-05", "Food"),
	}

	got := TopCategories(txns, "2024-05", 0)
	want := []CategoryTotal{
		{"Shopping", Money{Cents: 2000}},
		{"Food", Money{Cents: 1200}},
		{"Transport", Money{Cents: 500}},
		{"Bills", Money{Cents: 500}},
		{"Income", Money{Cents: -250000}},
	}
	if len(got) != len(want) {
		t.Fatalf("TopCategories() len = %d, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rank %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	top2 := TopCategories(txns, "2024-05", 2)
	if len(top2) != 2 || top2[0].Category != "Shopping" || top2[1].Category != "Food" {
		t.Fatalf("TopCategories(limit=2) = %+v", top2)
	}
}

func TestTopCategoriesTieKeepsFirstSeen(t *testing.T) {
	txns := []Transaction{
		txn(DirectionOut, 700, "2024-05", "Zeta"),
		txn(DirectionOut, 700, "2024-05", "Alpha"),
		txn(DirectionOut, 700, "2024-05", "Mid"),
	}
	for i := 0; i < 10; i++ {
		got := TopCategories(txns, "2024-05", 5)
		if got[0].Category != "Zeta" || got[1].Category != "Alpha" || got[2].Category != "Mid" {
			t.Fatalf("tie order = %+v, want Zeta, Alpha, Mid", got)
		}
	}
}
