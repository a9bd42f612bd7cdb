// Package mock provides an in-process message source returning fixed samples.
package mock

import (
	"context"
	"time"

	"wallet/internal/core"
	"wallet/internal/sources"
)

var _ sources.MessageSource = (*Source)(nil)

type Source struct {
	conn sources.Connection
}

// New returns a disconnected mock source. A nil clock means time.Now.
func New(now func() time.Time) *Source {
	s := &Source{}
	s.conn.Now = now
	return s
}

func (s *Source) Name() string { return "mock" }

func (s *Source) Connect(ctx context.Context) (sources.State, error) {
	return s.conn.Open(), nil
}

func (s *Source) Disconnect(ctx context.Context) (sources.State, error) {
	return s.conn.Close(), nil
}

func (s *Source) State() sources.State { return s.conn.State() }

// FetchMessages returns the two sample notifications, stamped now.
func (s *Source) FetchMessages(ctx context.Context) ([]core.Message, error) {
	if err := s.conn.Require(s.Name()); err != nil {
		return nil, err
	}
	now := time.Now
	if s.conn.Now != nil {
		now = s.conn.Now
	}
	received := core.FormatTimestamp(now())
	msgs := []core.Message{
		{
			ID:         "mock-1",
			Subject:    "PAYNOW RECEIVED: SGD 48.10 from JOHN DOE",
			Snippet:    "Ref 1234, Lunch split",
			ReceivedAt: received,
		},
		{
			ID:         "mock-2",
			Subject:    "Card Transaction: SGD 12.90 SHPEE*12345",
			Snippet:    "Your UOB Visa was charged SGD 12.90 at SHPEE*12345",
			ReceivedAt: received,
		},
	}
	s.conn.MarkSynced()
	return msgs, nil
}
