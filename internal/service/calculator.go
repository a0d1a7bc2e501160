package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/TokenCalc/internal/adapter/otel"
	"github.com/Strob0t/TokenCalc/internal/domain"
	"github.com/Strob0t/TokenCalc/internal/domain/billing"
	"github.com/Strob0t/TokenCalc/internal/domain/calc"
	"github.com/Strob0t/TokenCalc/internal/port/database"
)

// CalculatorService owns the in-memory keypad sessions and coordinates
// the metered equals press: authorize, compute, debit, record. Keypad
// state is ephemeral by design; accounts, ledger and history persist.
type CalculatorService struct {
	db      database.Store
	locks   *accountLocks
	metrics *otel.Metrics

	mu       sync.Mutex
	sessions map[string]*keypadSession
}

type keypadSession struct {
	mu        sync.Mutex
	accountID string
	state     *calc.State
}

// StateView is the calculator state as shown to the caller, with the
// derived live cost preview and the current balance.
type StateView struct {
	SessionID     string     `json:"session_id"`
	State         calc.State `json:"state"`
	PotentialCost int64      `json:"potential_cost"`
	Balance       int64      `json:"balance"`
}

// InputRequest is the request body for one keypad press.
type InputRequest struct {
	Token string `json:"token"`
}

// NewCalculatorService creates a new CalculatorService.
func NewCalculatorService(db database.Store, locks *accountLocks, metrics *otel.Metrics) *CalculatorService {
	return &CalculatorService{
		db:       db,
		locks:    locks,
		metrics:  metrics,
		sessions: make(map[string]*keypadSession),
	}
}

// CreateSession opens a fresh keypad session for an account.
func (s *CalculatorService) CreateSession(ctx context.Context, accountID string) (*StateView, error) {
	acct, err := s.db.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	sess := &keypadSession{accountID: accountID, state: calc.NewState()}
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	return s.view(id, sess, acct.Balance), nil
}

// State returns the current state of a keypad session.
func (s *CalculatorService) State(ctx context.Context, sessionID string) (*StateView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	acct, err := s.db.GetAccount(ctx, sess.accountID)
	if err != nil {
		return nil, err
	}
	return s.view(sessionID, sess, acct.Balance), nil
}

// ApplyInput processes one keypad press. Every token except equals is a
// pure state transition; equals goes through metering and fails without
// touching the state when authorization is denied, so the user can
// recharge or upgrade and retry the same pending operation.
func (s *CalculatorService) ApplyInput(ctx context.Context, sessionID, token string) (*StateView, error) {
	t, err := calc.ParseToken(token)
	if err != nil {
		return nil, err
	}

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if t.Kind == calc.KindEquals {
		return s.equals(ctx, sessionID, sess)
	}

	sess.state.Apply(t)
	acct, err := s.db.GetAccount(ctx, sess.accountID)
	if err != nil {
		return nil, err
	}
	return s.view(sessionID, sess, acct.Balance), nil
}

// CloseSession discards a keypad session.
func (s *CalculatorService) CloseSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("calculator session %s: %w", sessionID, domain.ErrNotFound)
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *CalculatorService) equals(ctx context.Context, sessionID string, sess *keypadSession) (*StateView, error) {
	ctx, span := otel.StartEqualsSpan(ctx, sess.accountID)
	defer span.End()

	a, op, b, ok := sess.state.PendingEquation()
	if !ok {
		// Nothing pending: equals is a no-op, like on a desk calculator.
		acct, err := s.db.GetAccount(ctx, sess.accountID)
		if err != nil {
			return nil, err
		}
		return s.view(sessionID, sess, acct.Balance), nil
	}

	unlock := s.locks.lock(sess.accountID)
	defer unlock()

	acct, err := s.db.GetAccount(ctx, sess.accountID)
	if err != nil {
		return nil, err
	}

	if err := billing.Authorize(acct, a, b); err != nil {
		if s.metrics != nil {
			s.metrics.CalculationsDenied.Add(ctx, 1)
		}
		return nil, err
	}

	cost := billing.Price(a, b)
	expression := calc.FormatNumber(a) + " " + string(op) + " " + calc.FormatNumber(b)
	now := time.Now().UTC()

	if err := s.db.AppendLedger(ctx, acct.ID, billing.LedgerEntry{
		At:     now,
		Amount: -cost,
		Reason: "calculation: " + expression,
	}); err != nil {
		return nil, fmt.Errorf("debit: %w", err)
	}

	result := calc.Compute(op, a, b)
	calculation := billing.Calculation{
		Expression: expression,
		Result:     calc.FormatNumber(result),
		Cost:       cost,
		At:         now,
	}
	if err := s.db.AddCalculation(ctx, acct.ID, calculation); err != nil {
		// The debit is already committed; history is best-effort on top
		// of the ledger, which stays authoritative.
		slog.ErrorContext(ctx, "record calculation failed", "account_id", acct.ID, "error", err)
	}

	sess.state.Complete(result)

	if s.metrics != nil {
		s.metrics.CalculationsCompleted.Add(ctx, 1)
		s.metrics.TokensDebited.Add(ctx, cost)
	}

	return s.view(sessionID, sess, acct.Balance-cost), nil
}

func (s *CalculatorService) session(id string) (*keypadSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("calculator session %s: %w", id, domain.ErrNotFound)
	}
	return sess, nil
}

func (s *CalculatorService) view(id string, sess *keypadSession, balance int64) *StateView {
	return &StateView{
		SessionID:     id,
		State:         *sess.state,
		PotentialCost: sess.state.PreviewCost(billing.Price),
		Balance:       balance,
	}
}
