package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sony/gobreaker"

	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/services"
	"wallet/internal/sources"
)

type errorResponse struct {
	Error string `json:"error"`
}

type transactionResponse struct {
	ID          int64          `json:"id"`
	Amount      string         `json:"amount"`
	Currency    string         `json:"currency"`
	Direction   core.Direction `json:"direction"`
	Description string         `json:"description"`
	Category    *string        `json:"category"`
	AccountID   *int64         `json:"accountId"`
	TxnDatetime string         `json:"txnDatetime"`
	Source      core.Source    `json:"source"`
	IsTransfer  bool           `json:"isTransfer"`
	IsRefund    bool           `json:"isRefund"`
	Edited      bool           `json:"edited"`
	Notes       *string        `json:"notes,omitempty"`
}

type transactionsResponse struct {
	Month        core.MonthKey         `json:"month"`
	Filters      services.Filters      `json:"filters"`
	Transactions []transactionResponse `json:"transactions"`
}

type accountResponse struct {
	ID       int64            `json:"id"`
	Name     string           `json:"name"`
	Type     core.AccountType `json:"type"`
	Currency string           `json:"currency"`
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type summaryResponse struct {
	Month    core.MonthKey `json:"month"`
	TotalIn  string        `json:"totalIn"`
	TotalOut string        `json:"totalOut"`
	Net      string        `json:"net"`
}

type categoryTotalResponse struct {
	Category string `json:"category"`
	Total    string `json:"total"`
}

type topCategoriesResponse struct {
	Month      core.MonthKey           `json:"month"`
	Categories []categoryTotalResponse `json:"categories"`
}

type sourceResponse struct {
	Name string `json:"name"`
	sources.State
}

type createdResponse struct {
	ID int64 `json:"id"`
}

func newTransactionResponse(t core.Transaction) transactionResponse {
	desc := ""
	switch {
	case t.DescriptionClean != nil:
		desc = *t.DescriptionClean
	case t.DescriptionRaw != nil:
		desc = *t.DescriptionRaw
	}
	return transactionResponse{
		ID:          t.ID,
		Amount:      t.AmountNative.String(),
		Currency:    t.CurrencyNative,
		Direction:   t.Direction,
		Description: desc,
		Category:    t.Category,
		AccountID:   t.AccountID,
		TxnDatetime: core.FormatTimestamp(t.TxnDatetime),
		Source:      t.Source,
		IsTransfer:  t.IsTransfer,
		IsRefund:    t.IsRefund,
		Edited:      t.Edited,
		Notes:       t.Notes,
	}
}

func newTransactionsResponse(txns []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, newTransactionResponse(t))
	}
	return out
}

func newAccountsResponse(accounts []core.Account) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountResponse{ID: a.ID, Name: a.Name, Type: a.Type, Currency: a.CurrencyDefault})
	}
	return out
}

func newCategoriesResponse(categories []core.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{ID: c.ID, Name: c.Name})
	}
	return out
}

func newSummaryResponse(s core.MonthlySummary) summaryResponse {
	return summaryResponse{
		Month:    s.Month,
		TotalIn:  s.TotalIn.String(),
		TotalOut: s.TotalOut.String(),
		Net:      s.Net.String(),
	}
}

func newTopCategoriesResponse(month core.MonthKey, totals []core.CategoryTotal) topCategoriesResponse {
	out := topCategoriesResponse{Month: month, Categories: make([]categoryTotalResponse, 0, len(totals))}
	for _, t := range totals {
		out.Categories = append(out.Categories, categoryTotalResponse{Category: t.Category, Total: t.Total.String()})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps an error family to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity
	case core.IsConstraint(err), errors.Is(err, core.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends err as {"error": ...}. Server-side failures are logged and
// their details withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		if status == http.StatusInternalServerError {
			msg = "internal server error"
		}
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
