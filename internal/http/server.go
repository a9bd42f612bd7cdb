// Package http serves the wallet state store as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/metrics"
	"wallet/internal/middleware/ratelimit"
	"wallet/internal/middleware/security"
	"wallet/internal/services"
)

// MonthLoader reads months that are not in the state store cache.
type MonthLoader interface {
	ListTransactionsForMonth(ctx context.Context, month core.MonthKey) ([]core.Transaction, error)
}

// Deps are the collaborators behind the API. Ingestor and History may be nil.
type Deps struct {
	Store    *services.StateStore
	Entry    *services.ManualEntry
	Ingestor *services.Ingestor
	History  MonthLoader
	Metrics  *metrics.Metrics
	Logger   *log.Logger
	// RateLimitPerMinute bounds /api requests per client. Zero disables it.
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	store    *services.StateStore
	entry    *services.ManualEntry
	ingestor *services.Ingestor
	history  MonthLoader
	metrics  *metrics.Metrics
	limiter  *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:    deps.Store,
		entry:    deps.Entry,
		ingestor: deps.Ingestor,
		history:  deps.History,
		metrics:  deps.Metrics,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerWindow: deps.RateLimitPerMinute,
			Window:            time.Minute,
		}),
	}
	s.Handler = s.routes(logger)
	return s
}

func (s *Server) routes(logger *log.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(log.Middleware(logger))
	r.Use(log.AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(s.countRequests)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(clientIP, s.handleRateLimited))

		r.Post("/bootstrap", s.handleBootstrap)
		r.Post("/refresh", s.handleRefresh)

		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleCreateTransaction)
		r.Patch("/transactions/{id}/category", s.handleUpdateCategory)

		r.Get("/accounts", s.handleListAccounts)
		r.Post("/accounts", s.handleCreateAccount)
		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleCreateCategory)

		r.Put("/month", s.handleSetMonth)
		r.Put("/filters", s.handleSetFilters)

		r.Get("/summary", s.handleSummary)
		r.Get("/top-categories", s.handleTopCategories)

		r.Get("/source", s.handleSourceState)
		r.Post("/source/connect", s.handleSourceConnect)
		r.Post("/source/disconnect", s.handleSourceDisconnect)
		r.Post("/sync", s.handleSync)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})
	return r
}

// countRequests records every response by route pattern so ids in paths do
// not explode label cardinality.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.IncHTTPRequest(r.Method, route, status)
	})
}

// Shutdown stops the rate limiter and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
