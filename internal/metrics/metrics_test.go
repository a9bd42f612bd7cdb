package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorders(t *testing.T) {
	m := New()
	m.IncIngest("inserted")
	m.IncIngest("inserted")
	m.IncIngest("duplicate")
	m.IncHTTPRequest("GET", "/api/summary", 200)
	m.IncSeenCache(true)
	m.ObserveStore("bootstrap", time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(m.ingestOutcomes.WithLabelValues("inserted")); got != 2 {
		t.Fatalf("inserted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/summary", "200")); got != 1 {
		t.Fatalf("http requests = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.storeDuration); n != 1 {
		t.Fatalf("store duration series = %d, want 1", n)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.IncIngest("inserted")
	m.ObserveStore("refresh", time.Now(), nil)
	m.IncHTTPRequest("GET", "/", 200)
	m.IncSeenCache(false)
}

func TestHandler(t *testing.T) {
	m := New()
	m.IncIngest("dropped")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `wallet_ingest_messages_total{outcome="dropped"} 1`) {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}
}
