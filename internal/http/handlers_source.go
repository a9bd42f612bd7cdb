package http

import (
	"fmt"
	"net/http"

	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/services"
	"wallet/internal/sources"
)

type syncResponse struct {
	services.SyncReport
	Source sourceResponse `json:"source"`
}

// source returns the configured message source or ErrNotConnected when the
// server runs without one.
func (s *Server) source() (sources.MessageSource, error) {
	if s.ingestor == nil || s.ingestor.Source() == nil {
		return nil, fmt.Errorf("no message source configured: %w", core.ErrNotConnected)
	}
	return s.ingestor.Source(), nil
}

func (s *Server) handleSourceState(w http.ResponseWriter, r *http.Request) {
	src, err := s.source()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sourceResponse{Name: src.Name(), State: src.State()})
}

func (s *Server) handleSourceConnect(w http.ResponseWriter, r *http.Request) {
	src, err := s.source()
	if err != nil {
		writeError(w, r, err)
		return
	}
	state, err := src.Connect(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Message source connected",
		log.FieldSource, src.Name())
	writeJSON(w, http.StatusOK, sourceResponse{Name: src.Name(), State: state})
}

func (s *Server) handleSourceDisconnect(w http.ResponseWriter, r *http.Request) {
	src, err := s.source()
	if err != nil {
		writeError(w, r, err)
		return
	}
	state, err := src.Disconnect(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sourceResponse{Name: src.Name(), State: state})
}

// handleSync pulls the source once. A storage failure mid-sync still reports
// nothing but the error; rows inserted before it stay persisted.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	src, err := s.source()
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.ingestor.Sync(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{
		SyncReport: report,
		Source:     sourceResponse{Name: src.Name(), State: src.State()},
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldPath, r.URL.Path,
		"client", clientIP(r))
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
}
