package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/TokenCalc/internal/service"
)

// CreateCalculatorSession handles POST /api/v1/accounts/{id}/calculator
func (h *Handlers) CreateCalculatorSession(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	view, err := h.Calculator.CreateSession(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err, "account not found")
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// GetCalculatorState handles GET /api/v1/calculator/{sid}
func (h *Handlers) GetCalculatorState(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	view, err := h.Calculator.State(r.Context(), sid)
	if err != nil {
		writeDomainError(w, err, "calculator session not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ApplyCalculatorInput handles POST /api/v1/calculator/{sid}/input.
// An equals press may be denied with 402 (balance) or 403 (plan); the
// session state is unchanged in both cases and the press can be retried.
func (h *Handlers) ApplyCalculatorInput(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	req, ok := readJSON[service.InputRequest](w, r)
	if !ok {
		return
	}
	view, err := h.Calculator.ApplyInput(r.Context(), sid, req.Token)
	if err != nil {
		writeDomainError(w, err, "calculator session not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// CloseCalculatorSession handles DELETE /api/v1/calculator/{sid}
func (h *Handlers) CloseCalculatorSession(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	if err := h.Calculator.CloseSession(sid); err != nil {
		writeDomainError(w, err, "calculator session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
