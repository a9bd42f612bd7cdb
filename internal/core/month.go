package core

import (
	"strings"
	"time"
)

const monthLayout = "2006-01"

// MonthKey is a "YYYY-MM" aggregation bucket.
type MonthKey string

// ParseMonthKey validates s as a calendar month.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	if len(s) != len(monthLayout) {
		return "", ErrInvalidMonthKey
	}
	if _, err := time.Parse(monthLayout, s); err != nil {
		return "", ErrInvalidMonthKey
	}
	return MonthKey(s), nil
}

// MonthKeyOf returns the bucket of an event time. It matches the first seven
// characters of the persisted UTC timestamp.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.UTC().Format(monthLayout))
}

// CurrentMonthKey returns the calendar month of now in its own location.
func CurrentMonthKey(now time.Time) MonthKey {
	return MonthKey(now.Format(monthLayout))
}

func (m MonthKey) String() string { return string(m) }
