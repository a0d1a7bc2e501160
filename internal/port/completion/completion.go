// Package completion defines the port interface for the LLM completion
// backend. The core depends only on this request/response contract, not
// on any vendor SDK.
package completion

import "context"

// Turn is one conversation turn sent as model context.
type Turn struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

// Request is a single completion call.
type Request struct {
	SystemInstruction string  `json:"system_instruction"`
	Contents          []Turn  `json:"contents"`
	Temperature       float64 `json:"temperature"`
	// ForceJSON asks the backend for a structured JSON response with a
	// single string "expression" field (the stage-1 formulate schema).
	ForceJSON bool `json:"force_json,omitempty"`
}

// Backend issues completion requests against an LLM service.
type Backend interface {
	Complete(ctx context.Context, req Request) (string, error)
}
