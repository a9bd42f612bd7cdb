// Package parser turns bank notification messages into transaction inputs.
package parser

import (
	"regexp"
	"strings"
	"time"

	"wallet/internal/core"
	"wallet/internal/rules"
)

// Version is stamped on every parsed transaction.
const Version = "email-regex-v1"

var amountPattern = regexp.MustCompile(`(?i)(S\$|SGD)\s?([0-9,]+(?:\.[0-9]{2})?)`)

// Inbound keywords are checked before outbound ones; text matching neither
// counts as spending.
var directionRules = []rules.Rule[core.Direction]{
	{Name: "inbound", Match: rules.ContainsAny("received", "credited", "salary"), Outcome: core.DirectionIn},
	{Name: "outbound", Match: rules.ContainsAny("paid", "charged", "debited", "spent"), Outcome: core.DirectionOut},
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Categorizer is the subset of the categorizer the parser needs.
type Categorizer interface {
	Categorize(description string) (string, bool)
}

type Parser struct {
	categorizer Categorizer
	currency    string
	loc         *time.Location
	now         func() time.Time
}

type Option func(*Parser)

// WithCurrency sets the native currency of parsed amounts. Default SGD.
func WithCurrency(code string) Option {
	return func(p *Parser) {
		if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
			p.currency = code
		}
	}
}

// WithLocation sets the zone of timestamps that carry no offset. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithClock sets the clock used when a message timestamp cannot be read.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// New returns a parser. A nil categorizer leaves transactions uncategorized.
func New(c Categorizer, opts ...Option) *Parser {
	p := &Parser{categorizer: c, currency: "SGD", loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts a transaction from msg. ok is false when the message carries
// no usable amount; that is the only rejection.
func (p *Parser) Parse(msg core.Message) (core.TransactionInput, bool) {
	text := msg.Subject + " " + msg.Snippet
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return core.TransactionInput{}, false
	}
	amount, err := core.ParseAmount(m[2])
	if err != nil {
		return core.TransactionInput{}, false
	}

	direction, ok := rules.FirstMatch(directionRules, text)
	if !ok {
		direction = core.DirectionOut
	}

	description := strings.TrimSpace(strings.Replace(msg.Subject, m[0], "", 1))

	in := core.TransactionInput{
		AmountNative:   amount,
		CurrencyNative: p.currency,
		Direction:      direction,
		Description:    description,
		TxnDatetime:    p.timestamp(msg.ReceivedAt),
		Source:         core.SourceEmail,
		ParserVersion:  Version,
	}
	if p.categorizer != nil {
		if category, ok := p.categorizer.Categorize(description); ok {
			in.Category = category
		}
	}
	if in.Description == "" {
		in.Description = msg.Subject
	}
	return in, true
}

// timestamp reads an ISO-8601 time. Zone-less values are taken in the
// parser's location. Unreadable values fall back to the clock.
func (p *Parser) timestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
			return t.UTC()
		}
	}
	return p.now().UTC()
}

// Parse runs a parser with no categorizer and default options.
func Parse(msg core.Message) (core.TransactionInput, bool) {
	return New(nil).Parse(msg)
}
