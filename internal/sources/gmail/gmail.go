// Package gmail reads bank notifications from a Gmail mailbox using
// pre-provisioned credentials.
package gmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"wallet/internal/core"
	"wallet/internal/sources"
)

var _ sources.MessageSource = (*Source)(nil)

type Config struct {
	CredentialsFile string
	CredentialsJSON string
	User            string
	Query           string
	MaxResults      int64
	Now             func() time.Time
}

type Source struct {
	cfg     Config
	options []option.ClientOption
	cb      *gobreaker.CircuitBreaker
	conn    sources.Connection

	mu  sync.Mutex
	svc *gmail.Service
}

// New returns a disconnected source. Extra client options are appended after
// the credential options derived from cfg.
func New(cfg Config, opts ...option.ClientOption) *Source {
	if strings.TrimSpace(cfg.User) == "" {
		cfg.User = "me"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 25
	}

	var clientOpts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if len(clientOpts) > 0 {
		clientOpts = append(clientOpts, option.WithScopes(gmail.GmailReadonlyScope))
	}
	clientOpts = append(clientOpts, opts...)

	s := &Source{
		cfg:     cfg,
		options: clientOpts,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "gmail",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
	s.conn.Now = cfg.Now
	return s
}

func (s *Source) Name() string { return "gmail" }

// Connect builds the Gmail client on first use.
func (s *Source) Connect(ctx context.Context) (sources.State, error) {
	if _, err := s.connectService(ctx); err != nil {
		return s.conn.State(), err
	}
	slog.InfoContext(ctx, "Gmail source connected", "user", s.cfg.User)
	return s.conn.Open(), nil
}

func (s *Source) connectService(ctx context.Context) (*gmail.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.svc == nil {
		svc, err := gmail.NewService(ctx, s.options...)
		if err != nil {
			return nil, fmt.Errorf("create gmail service: %w", err)
		}
		s.svc = svc
	}
	return s.svc, nil
}

func (s *Source) service() *gmail.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.svc
}

func (s *Source) Disconnect(ctx context.Context) (sources.State, error) {
	return s.conn.Close(), nil
}

func (s *Source) State() sources.State { return s.conn.State() }

// FetchMessages lists the most recent messages matching the configured query
// and loads their subject, snippet and receive time.
func (s *Source) FetchMessages(ctx context.Context) ([]core.Message, error) {
	if err := s.conn.Require(s.Name()); err != nil {
		return nil, err
	}
	svc := s.service()
	if svc == nil {
		return nil, errors.New("gmail service not initialized")
	}

	result, err := s.cb.Execute(func() (interface{}, error) {
		return s.fetch(ctx, svc)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch gmail messages: %w", err)
	}
	s.conn.MarkSynced()
	return result.([]core.Message), nil
}

func (s *Source) fetch(ctx context.Context, svc *gmail.Service) ([]core.Message, error) {
	call := svc.Users.Messages.List(s.cfg.User).MaxResults(s.cfg.MaxResults).Context(ctx)
	if q := strings.TrimSpace(s.cfg.Query); q != "" {
		call = call.Q(q)
	}
	list, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	msgs := make([]core.Message, 0, len(list.Messages))
	for _, ref := range list.Messages {
		m, err := svc.Users.Messages.Get(s.cfg.User, ref.Id).
			Format("metadata").
			MetadataHeaders("Subject").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("get message %s: %w", ref.Id, err)
		}
		msgs = append(msgs, toMessage(m))
	}

	slog.DebugContext(ctx, "Fetched gmail messages", "count", len(msgs))
	return msgs, nil
}

func toMessage(m *gmail.Message) core.Message {
	msg := core.Message{ID: m.Id, Snippet: m.Snippet}
	if m.Payload != nil {
		for _, h := range m.Payload.Headers {
			if strings.EqualFold(h.Name, "Subject") {
				msg.Subject = h.Value
				break
			}
		}
	}
	if m.InternalDate > 0 {
		msg.ReceivedAt = core.FormatTimestamp(time.UnixMilli(m.InternalDate))
	}
	return msg
}
