// Package conversation defines the chat session domain: an append-only
// ordered log of user and model turns, replayed in full as LLM context
// on every pipeline invocation.
package conversation

import (
	"errors"
	"time"
)

// Roles for conversation turns.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Session is one conversation thread owned by an account.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single turn in a session.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // "user" or "model"
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// AskRequest is the request body for submitting a free-text question.
type AskRequest struct {
	Question string `json:"question"`
}

// Validate checks the ask request.
func (r *AskRequest) Validate() error {
	if r.Question == "" {
		return errors.New("question is required")
	}
	if len(r.Question) > 4000 {
		return errors.New("question too long (max 4000 chars)")
	}
	return nil
}
