package http

import (
	"fmt"
	"net/http"
	"strings"

	"wallet/internal/core"
	"wallet/internal/services"
)

type updateCategoryRequest struct {
	Category string `json:"category"`
}

type createAccountRequest struct {
	Name     string           `json:"name"`
	Type     core.AccountType `json:"type"`
	Currency string           `json:"currency"`
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

type setMonthRequest struct {
	Month string `json:"month"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports 503 until the state store has bootstrapped.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.store.Bootstrapped() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Bootstrap(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTransactions(w)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.Refresh(r.Context(), month); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTransactions(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	s.writeTransactions(w)
}

func (s *Server) writeTransactions(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, transactionsResponse{
		Month:        s.store.CachedMonth(),
		Filters:      s.store.Filters(),
		Transactions: newTransactionsResponse(s.store.VisibleTransactions()),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var form services.ManualEntryForm
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, r, err)
		return
	}
	form.Description = sanitizeInput(form.Description)
	form.Category = sanitizeInput(form.Category)
	form.Notes = sanitizeInput(form.Notes)

	id, err := s.entry.Submit(r.Context(), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.UpdateCategory(r.Context(), id, sanitizeInput(req.Category)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newAccountsResponse(s.store.Accounts()))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.store.AddAccount(r.Context(), core.AccountInput{
		Name:     sanitizeInput(req.Name),
		Type:     req.Type,
		Currency: strings.ToUpper(strings.TrimSpace(req.Currency)),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newCategoriesResponse(s.store.Categories()))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.AddCategory(r.Context(), sanitizeInput(req.Name)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCategoriesResponse(s.store.Categories()))
}

// handleSetMonth switches the selected month. The reload runs in the
// background, hence 202.
func (s *Server) handleSetMonth(w http.ResponseWriter, r *http.Request) {
	var req setMonthRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	month, err := s.store.SetSelectedMonth(r.Context(), strings.TrimSpace(req.Month))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, setMonthRequest{Month: month.String()})
}

func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var f services.Filters
	if err := decodeJSON(w, r, &f); err != nil {
		writeError(w, r, err)
		return
	}
	if f.Direction != "" && !f.Direction.Valid() {
		writeError(w, r, fmt.Errorf("%w: %q", core.ErrInvalidDirection, f.Direction))
		return
	}
	f.Category = sanitizeInput(f.Category)
	s.store.SetFilters(f)
	s.writeTransactions(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, txns, ok := s.monthTransactions(w, r)
	if !ok {
		return
	}
	if txns == nil {
		writeJSON(w, http.StatusOK, newSummaryResponse(s.store.MonthlySummary(month)))
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(core.Summarize(txns, month)))
}

func (s *Server) handleTopCategories(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimitQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	month, txns, ok := s.monthTransactions(w, r)
	if !ok {
		return
	}
	if txns == nil {
		writeJSON(w, http.StatusOK, newTopCategoriesResponse(month, s.store.TopCategories(month, limit)))
		return
	}
	writeJSON(w, http.StatusOK, newTopCategoriesResponse(month, core.TopCategories(txns, month, limit)))
}

// monthTransactions resolves ?month. When the month is the cached one it
// returns nil transactions and the store answers from its cache; other months
// are read through the history loader.
func (s *Server) monthTransactions(w http.ResponseWriter, r *http.Request) (core.MonthKey, []core.Transaction, bool) {
	month, err := parseMonthQuery(r)
	if err != nil {
		writeError(w, r, err)
		return "", nil, false
	}
	if month == "" {
		month = s.store.SelectedMonth()
	}
	if month == s.store.CachedMonth() || s.history == nil {
		return month, nil, true
	}

	txns, err := s.history.ListTransactionsForMonth(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return "", nil, false
	}
	if txns == nil {
		txns = []core.Transaction{}
	}
	return month, txns, true
}
