package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowFixedWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(Config{RequestsPerWindow: 2, Window: time.Minute}).WithClock(func() time.Time { return now })
	defer l.Stop()

	for i, want := range []bool{true, true, false} {
		if got := l.Allow("a"); got != want {
			t.Fatalf("request %d: Allow() = %v, want %v", i, got, want)
		}
	}
	if !l.Allow("b") {
		t.Fatal("clients must be limited independently")
	}

	now = now.Add(time.Minute)
	if !l.Allow("a") {
		t.Fatal("new window should reset the budget")
	}
}

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	l := NewLimiter(Config{})
	defer l.Stop()
	for i := 0; i < 1000; i++ {
		if !l.Allow("a") {
			t.Fatalf("request %d rejected with limiting disabled", i)
		}
	}
	if l.ActiveClients() != 0 {
		t.Fatalf("disabled limiter tracked %d clients", l.ActiveClients())
	}
}

func TestCleanupRemovesIdleClients(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(Config{RequestsPerWindow: 5, Window: time.Minute}).WithClock(func() time.Time { return now })
	defer l.Stop()

	l.Allow("idle")
	now = now.Add(5 * time.Minute)
	l.Allow("busy")
	now = now.Add(6 * time.Minute)

	if n := l.Cleanup(); n != 1 {
		t.Fatalf("Cleanup() = %d, want 1", n)
	}
	if l.ActiveClients() != 1 {
		t.Fatalf("active = %d, want 1", l.ActiveClients())
	}
}

func TestMiddleware(t *testing.T) {
	l := NewLimiter(Config{RequestsPerWindow: 1, Window: 30 * time.Second})
	defer l.Stop()

	h := l.Middleware(func(r *http.Request) string { return r.RemoteAddr }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	codes := make([]int, 0, 2)
	var last *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
	if got := last.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("Retry-After = %q, want 30", got)
	}
}
