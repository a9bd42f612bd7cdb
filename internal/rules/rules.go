// Package rules evaluates ordered (predicate, outcome) tables where the first
// matching entry wins.
package rules

import (
	"regexp"
	"strings"
)

// Rule pairs a text predicate with the outcome it yields when it matches.
type Rule[T any] struct {
	Name    string
	Match   func(text string) bool
	Outcome T
}

// FirstMatch returns the outcome of the first rule whose predicate accepts
// text. Later rules are never consulted once one matches.
func FirstMatch[T any](table []Rule[T], text string) (T, bool) {
	for _, r := range table {
		if r.Match != nil && r.Match(text) {
			return r.Outcome, true
		}
	}
	var zero T
	return zero, false
}

// Regexp builds a predicate from a compiled expression.
func Regexp(re *regexp.Regexp) func(string) bool {
	return re.MatchString
}

// ContainsAny builds a case-insensitive substring predicate over keywords.
func ContainsAny(keywords ...string) func(string) bool {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return func(text string) bool {
		text = strings.ToLower(text)
		for _, k := range lowered {
			if strings.Contains(text, k) {
				return true
			}
		}
		return false
	}
}
