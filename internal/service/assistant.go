package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"text/template"
	"time"

	"github.com/Strob0t/TokenCalc/internal/adapter/otel"
	"github.com/Strob0t/TokenCalc/internal/config"
	"github.com/Strob0t/TokenCalc/internal/domain"
	"github.com/Strob0t/TokenCalc/internal/domain/calc"
	"github.com/Strob0t/TokenCalc/internal/domain/conversation"
	"github.com/Strob0t/TokenCalc/internal/domain/expr"
	"github.com/Strob0t/TokenCalc/internal/port/cache"
	"github.com/Strob0t/TokenCalc/internal/port/completion"
	"github.com/Strob0t/TokenCalc/internal/port/database"
	"github.com/Strob0t/TokenCalc/internal/resilience"
)

//go:embed templates/formulate_system.tmpl
var formulateSystem string

//go:embed templates/synthesize_system.tmpl
var synthesizeSystemTmpl string

// synthesizeTmpl is the parsed system prompt template for the synthesize stage.
var synthesizeTmpl = template.Must(template.New("synthesize_system").Parse(synthesizeSystemTmpl))

// apologyAnswer is the single error turn appended when a pipeline stage
// fails; the transcript is never left half-updated.
const apologyAnswer = "Sorry, something went wrong while working that out. Please try again."

// AssistantService orchestrates the three-stage resolution pipeline:
// the model formulates a symbolic expression, the service evaluates it
// locally, and the model phrases an answer around the verified number.
// The model never does the arithmetic that reaches the user.
type AssistantService struct {
	db      database.Store
	llm     completion.Backend
	cache   cache.Cache
	retry   config.Retry
	temp    float64
	ttl     time.Duration
	metrics *otel.Metrics

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewAssistantService creates a new AssistantService. cache may be nil to
// disable formulate memoization.
func NewAssistantService(db database.Store, llm completion.Backend, c cache.Cache, cfg *config.Config, metrics *otel.Metrics) *AssistantService {
	return &AssistantService{
		db:       db,
		llm:      llm,
		cache:    c,
		retry:    cfg.Retry,
		temp:     cfg.LLM.Temperature,
		ttl:      cfg.Cache.TTL,
		metrics:  metrics,
		inFlight: make(map[string]bool),
	}
}

// CreateSession opens a new conversation for an account.
func (s *AssistantService) CreateSession(ctx context.Context, accountID string) (*conversation.Session, error) {
	if _, err := s.db.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.db.CreateSession(ctx, &conversation.Session{AccountID: accountID})
}

// Messages returns the transcript of a session.
func (s *AssistantService) Messages(ctx context.Context, sessionID string) ([]conversation.Message, error) {
	if _, err := s.db.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.db.ListMessages(ctx, sessionID)
}

// Reset deletes a session and its transcript.
func (s *AssistantService) Reset(ctx context.Context, sessionID string) error {
	return s.db.DeleteSession(ctx, sessionID)
}

// Ask runs the pipeline for one question and returns the two new turns.
// Only one ask may be in flight per session: the transcript is the model
// context, so turn ordering must be preserved.
func (s *AssistantService) Ask(ctx context.Context, sessionID string, req conversation.AskRequest) ([]conversation.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	if _, err := s.db.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	if !s.acquire(sessionID) {
		return nil, fmt.Errorf("conversation %s: %w", sessionID, domain.ErrBusy)
	}
	defer s.release(sessionID)

	history, err := s.db.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.StartPipelineSpan(ctx, sessionID)
	defer span.End()
	start := time.Now()
	if s.metrics != nil {
		s.metrics.PipelineRuns.Add(ctx, 1)
	}

	answer, err := s.resolve(ctx, history, req.Question)
	if err != nil {
		// A failed stage yields a single generic error turn; the
		// transcript is never partially updated.
		slog.ErrorContext(ctx, "pipeline failed", "session_id", sessionID, "error", err)
		if s.metrics != nil {
			s.metrics.PipelineFailures.Add(ctx, 1)
		}
		answer = apologyAnswer
	}
	if s.metrics != nil {
		s.metrics.PipelineDuration.Record(ctx, time.Since(start).Seconds())
	}

	turns := []conversation.Message{
		{SessionID: sessionID, Role: conversation.RoleUser, Text: req.Question},
		{SessionID: sessionID, Role: conversation.RoleModel, Text: answer},
	}
	if err := s.db.AppendMessages(ctx, sessionID, turns); err != nil {
		return nil, fmt.Errorf("append transcript: %w", err)
	}
	return turns, nil
}

// resolve runs the three stages. Stage 2 has no network dependency: the
// expression the model proposed is evaluated locally, so the number in
// the final answer is always ours, never the model's.
func (s *AssistantService) resolve(ctx context.Context, history []conversation.Message, question string) (string, error) {
	raw, err := s.formulate(ctx, history, question)
	if err != nil {
		return "", fmt.Errorf("formulate: %w", err)
	}

	var extracted struct {
		Expression string `json:"expression"`
	}
	if err := json.Unmarshal([]byte(raw), &extracted); err != nil || extracted.Expression == "" {
		// Degraded path: the model ignored the schema, so its raw text
		// is the best answer available.
		slog.WarnContext(ctx, "formulate output not parseable, degrading to raw text")
		return raw, nil
	}

	_, evalSpan := otel.StartStageSpan(ctx, "evaluate")
	result, err := expr.Evaluate(extracted.Expression)
	evalSpan.End()
	if err != nil {
		slog.WarnContext(ctx, "formulated expression rejected",
			"expression", extracted.Expression, "error", err)
		return raw, nil
	}

	answer, err := s.synthesize(ctx, history, question, result)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	return answer, nil
}

func (s *AssistantService) formulate(ctx context.Context, history []conversation.Message, question string) (string, error) {
	ctx, span := otel.StartStageSpan(ctx, "formulate")
	defer span.End()

	key := formulateKey(history, question)
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			return string(data), nil
		}
	}

	req := completion.Request{
		SystemInstruction: formulateSystem,
		Contents:          append(turns(history), completion.Turn{Role: conversation.RoleUser, Text: question}),
		Temperature:       0,
		ForceJSON:         true,
	}
	raw, err := s.complete(ctx, req)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, []byte(raw), s.ttl)
	}
	return raw, nil
}

func (s *AssistantService) synthesize(ctx context.Context, history []conversation.Message, question string, result float64) (string, error) {
	ctx, span := otel.StartStageSpan(ctx, "synthesize")
	defer span.End()

	var sys bytes.Buffer
	if err := synthesizeTmpl.Execute(&sys, struct{ Result string }{calc.FormatNumber(result)}); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}

	req := completion.Request{
		SystemInstruction: sys.String(),
		Contents:          append(turns(history), completion.Turn{Role: conversation.RoleUser, Text: question}),
		Temperature:       s.temp,
	}
	return s.complete(ctx, req)
}

// complete issues one backend call with per-stage retries. Each stage is
// independently retryable; an open circuit aborts without retrying.
func (s *AssistantService) complete(ctx context.Context, req completion.Request) (string, error) {
	var text string
	err := resilience.Retry(ctx, s.retry.MaxAttempts, s.retry.BaseDelay, func(ctx context.Context) error {
		var err error
		text, err = s.llm.Complete(ctx, req)
		if err == nil {
			return nil
		}
		if errors.Is(err, resilience.ErrCircuitOpen) ||
			errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return resilience.Transient(err)
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (s *AssistantService) acquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[sessionID] {
		return false
	}
	s.inFlight[sessionID] = true
	return true
}

func (s *AssistantService) release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, sessionID)
}

func turns(history []conversation.Message) []completion.Turn {
	out := make([]completion.Turn, 0, len(history)+1)
	for _, m := range history {
		out = append(out, completion.Turn{Role: m.Role, Text: m.Text})
	}
	return out
}

// formulateKey digests the question and history so identical re-asks hit
// the formulate cache.
func formulateKey(history []conversation.Message, question string) string {
	h := sha256.New()
	for _, m := range history {
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(m.Text))
		h.Write([]byte{0})
	}
	h.Write([]byte(question))
	return "formulate:" + hex.EncodeToString(h.Sum(nil))
}
