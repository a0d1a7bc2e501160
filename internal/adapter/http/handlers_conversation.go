package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/TokenCalc/internal/domain/conversation"
)

// CreateConversation handles POST /api/v1/accounts/{id}/conversations
func (h *Handlers) CreateConversation(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	sess, err := h.Assistant.CreateSession(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err, "account not found")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// ListConversationMessages handles GET /api/v1/conversations/{cid}/messages
func (h *Handlers) ListConversationMessages(w http.ResponseWriter, r *http.Request) {
	cid := chi.URLParam(r, "cid")
	msgs, err := h.Assistant.Messages(r.Context(), cid)
	if err != nil {
		writeDomainError(w, err, "conversation not found")
		return
	}
	if msgs == nil {
		msgs = []conversation.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// AskConversation handles POST /api/v1/conversations/{cid}/ask.
// Returns the new user and model turns. A second ask while one is in
// flight for the same conversation gets 409.
func (h *Handlers) AskConversation(w http.ResponseWriter, r *http.Request) {
	cid := chi.URLParam(r, "cid")
	req, ok := readJSON[conversation.AskRequest](w, r)
	if !ok {
		return
	}
	turns, err := h.Assistant.Ask(r.Context(), cid, req)
	if err != nil {
		writeDomainError(w, err, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, turns)
}

// DeleteConversation handles DELETE /api/v1/conversations/{cid}
func (h *Handlers) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	cid := chi.URLParam(r, "cid")
	if err := h.Assistant.Reset(r.Context(), cid); err != nil {
		writeDomainError(w, err, "conversation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
