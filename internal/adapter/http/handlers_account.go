package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/TokenCalc/internal/domain/billing"
)

// RegisterAccount handles POST /api/v1/accounts
func (h *Handlers) RegisterAccount(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[billing.CreateRequest](w, r)
	if !ok {
		return
	}
	acct, err := h.Accounts.Register(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "register account")
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

// GetAccount handles GET /api/v1/accounts/{id}
func (h *Handlers) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	acct, err := h.Accounts.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

// RechargeAccount handles POST /api/v1/accounts/{id}/recharge
func (h *Handlers) RechargeAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := readJSON[billing.RechargeRequest](w, r)
	if !ok {
		return
	}
	acct, err := h.Accounts.Recharge(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, err, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

// UpgradeAccount handles POST /api/v1/accounts/{id}/upgrade
func (h *Handlers) UpgradeAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := readJSON[billing.UpgradeRequest](w, r)
	if !ok {
		return
	}
	acct, err := h.Accounts.Upgrade(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, err, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

// GetLedger handles GET /api/v1/accounts/{id}/ledger
func (h *Handlers) GetLedger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := h.Accounts.Ledger(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "account not found")
		return
	}
	if entries == nil {
		entries = []billing.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetHistory handles GET /api/v1/accounts/{id}/history
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	hist, err := h.Accounts.History(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "account not found")
		return
	}
	if hist == nil {
		hist = []billing.Calculation{}
	}
	writeJSON(w, http.StatusOK, hist)
}

// ClearHistory handles DELETE /api/v1/accounts/{id}/history
func (h *Handlers) ClearHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Accounts.ClearHistory(r.Context(), id); err != nil {
		writeDomainError(w, err, "account not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
