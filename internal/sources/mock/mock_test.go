package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet/internal/core"
)

func TestMockLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)
	s := New(func() time.Time { return now })

	if st := s.State(); st.Connected || st.LastSync != nil {
		t.Fatalf("initial state = %+v, want disconnected", st)
	}
	if _, err := s.FetchMessages(ctx); !errors.Is(err, core.ErrNotConnected) {
		t.Fatalf("FetchMessages() before connect = %v, want ErrNotConnected", err)
	}

	st, err := s.Connect(ctx)
	if err != nil || !st.Connected || st.LastSync == nil || !st.LastSync.Equal(now) {
		t.Fatalf("Connect() = %+v, %v", st, err)
	}

	msgs, err := s.FetchMessages(ctx)
	if err != nil {
		t.Fatalf("FetchMessages() error: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "mock-1" || msgs[1].ID != "mock-2" {
		t.Fatalf("FetchMessages() = %+v", msgs)
	}
	if msgs[0].ReceivedAt != "2024-05-20T08:00:00.000Z" {
		t.Fatalf("ReceivedAt = %q", msgs[0].ReceivedAt)
	}

	st, _ = s.Disconnect(ctx)
	if st.Connected || st.LastSync != nil {
		t.Fatalf("Disconnect() = %+v", st)
	}
	if _, err := s.FetchMessages(ctx); !errors.Is(err, core.ErrNotConnected) {
		t.Fatalf("FetchMessages() after disconnect = %v", err)
	}
}
