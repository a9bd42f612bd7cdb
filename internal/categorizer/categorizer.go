// Package categorizer maps free-text transaction descriptions to spending
// categories using an ordered table of case-insensitive patterns.
package categorizer

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"wallet/internal/rules"
)

// Rule is one entry of the pattern table.
type Rule struct {
	Pattern  string `toml:"pattern"`
	Category string `toml:"category"`
}

// DefaultRules is the built-in table. Earlier entries shadow later ones.
var DefaultRules = []Rule{
	{Pattern: "grab", Category: "Transport"},
	{Pattern: "taxi|cab", Category: "Transport"},
	{Pattern: "fairprice|redmart|cold storage", Category: "Groceries"},
	{Pattern: "shopee|lazada|amazon", Category: "Shopping"},
	{Pattern: "paynow", Category: "Transfers"},
	{Pattern: "salary|payroll|income", Category: "Income"},
	{Pattern: "coffee|starbucks|%", Category: "Food"},
	{Pattern: "food|restaurant|dining", Category: "Food"},
}

// Categorizer is immutable once built and safe for concurrent use.
type Categorizer struct {
	rules []Rule
	table []rules.Rule[string]
}

type rulesFile struct {
	Rule []Rule `toml:"rule"`
}

// New compiles the rule list in order.
func New(list []Rule) (*Categorizer, error) {
	c := &Categorizer{
		rules: make([]Rule, 0, len(list)),
		table: make([]rules.Rule[string], 0, len(list)),
	}
	for i, r := range list {
		pattern := strings.TrimSpace(r.Pattern)
		category := strings.TrimSpace(r.Category)
		if pattern == "" || category == "" {
			return nil, fmt.Errorf("rule %d: pattern and category are required", i)
		}
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: compile %q: %w", i, pattern, err)
		}
		c.rules = append(c.rules, Rule{Pattern: pattern, Category: category})
		c.table = append(c.table, rules.Rule[string]{
			Name:    pattern,
			Match:   rules.Regexp(re),
			Outcome: category,
		})
	}
	return c, nil
}

// Default returns a categorizer over DefaultRules.
func Default() *Categorizer {
	c, err := New(DefaultRules)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFile reads a TOML rules file:
//
//	[[rule]]
//	pattern = "grab"
//	category = "Transport"
//
// An empty path yields the default table.
func LoadFile(path string) (*Categorizer, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(string(data))
}

// Parse builds a categorizer from TOML text.
func Parse(data string) (*Categorizer, error) {
	var f rulesFile
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if len(f.Rule) == 0 {
		return nil, errors.New("rules file defines no [[rule]] entries")
	}
	return New(f.Rule)
}

// Categorize returns the category of the first rule matching description.
// Blank descriptions are never evaluated.
func (c *Categorizer) Categorize(description string) (string, bool) {
	if strings.TrimSpace(description) == "" {
		return "", false
	}
	return rules.FirstMatch(c.table, description)
}

// Rules returns a copy of the table in evaluation order.
func (c *Categorizer) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}
