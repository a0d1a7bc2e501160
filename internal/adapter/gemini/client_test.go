package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Strob0t/TokenCalc/internal/adapter/gemini"
	"github.com/Strob0t/TokenCalc/internal/port/completion"
	"github.com/Strob0t/TokenCalc/internal/resilience"
)

func candidateResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{
				"role":  "model",
				"parts": []map[string]string{{"text": text}},
			}},
		},
	}
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-flash:generateContent" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Fatalf("unexpected api key header: %q", got)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["system_instruction"] == nil {
			t.Fatal("system_instruction missing")
		}
		contents := req["contents"].([]any)
		if len(contents) != 2 {
			t.Fatalf("contents len = %d, want 2", len(contents))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(candidateResponse("the answer is 42"))
	}))
	defer srv.Close()

	client := gemini.NewClient(srv.URL, "test-key", "gemini-2.5-flash", 5*time.Second)
	text, err := client.Complete(context.Background(), completion.Request{
		SystemInstruction: "be helpful",
		Contents: []completion.Turn{
			{Role: "user", Text: "what is 6*7?"},
			{Role: "model", Text: "42"},
		},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "the answer is 42" {
		t.Fatalf("text = %q", text)
	}
}

func TestComplete_ForceJSONSetsSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			GenerationConfig struct {
				ResponseMIMEType string          `json:"responseMimeType"`
				ResponseSchema   json.RawMessage `json:"responseSchema"`
			} `json:"generationConfig"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.GenerationConfig.ResponseMIMEType != "application/json" {
			t.Fatalf("mime type = %q", req.GenerationConfig.ResponseMIMEType)
		}
		if len(req.GenerationConfig.ResponseSchema) == 0 {
			t.Fatal("response schema missing")
		}
		_ = json.NewEncoder(w).Encode(candidateResponse(`{"expression":"6*7"}`))
	}))
	defer srv.Close()

	client := gemini.NewClient(srv.URL, "k", "gemini-2.5-flash", 5*time.Second)
	text, err := client.Complete(context.Background(), completion.Request{
		Contents:  []completion.Turn{{Role: "user", Text: "six times seven"}},
		ForceJSON: true,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != `{"expression":"6*7"}` {
		t.Fatalf("text = %q", text)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := gemini.NewClient(srv.URL, "k", "m", 5*time.Second)
	_, err := client.Complete(context.Background(), completion.Request{
		Contents: []completion.Turn{{Role: "user", Text: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestComplete_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer srv.Close()

	client := gemini.NewClient(srv.URL, "k", "m", 5*time.Second)
	_, err := client.Complete(context.Background(), completion.Request{
		Contents: []completion.Turn{{Role: "user", Text: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestComplete_BreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := gemini.NewClient(srv.URL, "k", "m", 5*time.Second)
	client.SetBreaker(resilience.NewBreaker(2, time.Minute))

	req := completion.Request{Contents: []completion.Turn{{Role: "user", Text: "hi"}}}
	_, _ = client.Complete(context.Background(), req)
	_, _ = client.Complete(context.Background(), req)

	_, err := client.Complete(context.Background(), req)
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
}
