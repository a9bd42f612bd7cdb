package core

import "sort"

// DefaultTopCategoriesLimit is used when TopCategories gets a non-positive limit.
const DefaultTopCategoriesLimit = 5

// MonthlySummary holds income, spending and their difference for one month.
type MonthlySummary struct {
	Month    MonthKey
	TotalIn  Money
	TotalOut Money
	Net      Money
}

// CategoryTotal is a signed per-category total: spending counts positive,
// income and refunds count negative.
type CategoryTotal struct {
	Category string
	Total    Money
}

// Summarize totals the transactions of month by direction. Transactions of
// other months are ignored; categories play no part.
func Summarize(txns []Transaction, month MonthKey) MonthlySummary {
	s := MonthlySummary{Month: month}
	for _, t := range txns {
		if t.Month() != month {
			continue
		}
		if t.Direction == DirectionIn {
			s.TotalIn.Cents += t.AmountNative.Cents
		} else {
			s.TotalOut.Cents += t.AmountNative.Cents
		}
	}
	s.Net.Cents = s.TotalIn.Cents - s.TotalOut.Cents
	return s
}

// TopCategories ranks the categorized transactions of month by net spending,
// highest first. Equal totals keep the order in which their category was first
// seen in txns.
func TopCategories(txns []Transaction, month MonthKey, limit int) []CategoryTotal {
	if limit <= 0 {
		limit = DefaultTopCategoriesLimit
	}

	index := make(map[string]int)
	var totals []CategoryTotal
	for _, t := range txns {
		if t.Month() != month {
			continue
		}
		name := t.CategoryName()
		if name == "" {
			continue
		}
		amount := t.AmountNative.Cents
		if t.Direction != DirectionOut {
			amount = -amount
		}
		i, ok := index[name]
		if !ok {
			i = len(totals)
			index[name] = i
			totals = append(totals, CategoryTotal{Category: name})
		}
		totals[i].Total.Cents += amount
	}

	sort.SliceStable(totals, func(a, b int) bool {
		return totals[a].Total.Cents > totals[b].Total.Cents
	})
	if len(totals) > limit {
		totals = totals[:limit]
	}
	return totals
}
