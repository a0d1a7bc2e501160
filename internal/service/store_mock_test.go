package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Strob0t/TokenCalc/internal/domain"
	"github.com/Strob0t/TokenCalc/internal/domain/billing"
	"github.com/Strob0t/TokenCalc/internal/domain/conversation"
)

// mockStore is an in-memory database.Store for service tests. Error
// injection fields force failures on specific operations.
type mockStore struct {
	mu       sync.Mutex
	accounts map[string]*billing.Account
	ledgers  map[string][]billing.LedgerEntry
	calcs    map[string][]billing.Calculation
	sessions map[string]*conversation.Session
	messages map[string][]conversation.Message

	appendLedgerErr   error
	addCalculationErr error
	appendMessagesErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		accounts: make(map[string]*billing.Account),
		ledgers:  make(map[string][]billing.LedgerEntry),
		calcs:    make(map[string][]billing.Calculation),
		sessions: make(map[string]*conversation.Session),
		messages: make(map[string][]conversation.Message),
	}
}

// seedAccount inserts an account with a given plan and balance, bypassing
// the registration flow.
func (m *mockStore) seedAccount(plan billing.Plan, balance int64) *billing.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct := &billing.Account{
		ID:      uuid.NewString(),
		Email:   "test@example.com",
		Name:    "Test",
		Plan:    plan,
		Balance: balance,
	}
	m.accounts[acct.ID] = acct
	return acct
}

func (m *mockStore) CreateAccount(_ context.Context, acct *billing.Account) (*billing.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *acct
	cp.ID = uuid.NewString()
	m.accounts[cp.ID] = &cp
	return &cp, nil
}

func (m *mockStore) GetAccount(_ context.Context, id string) (*billing.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
	}
	cp := *acct
	return &cp, nil
}

func (m *mockStore) UpdatePlan(_ context.Context, id string, plan billing.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[id]
	if !ok {
		return fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
	}
	acct.Plan = plan
	return nil
}

func (m *mockStore) AppendLedger(_ context.Context, accountID string, e billing.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendLedgerErr != nil {
		return m.appendLedgerErr
	}
	acct, ok := m.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	m.ledgers[accountID] = append(m.ledgers[accountID], e)
	acct.Balance += e.Amount
	return nil
}

func (m *mockStore) ListLedger(_ context.Context, accountID string) ([]billing.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]billing.LedgerEntry(nil), m.ledgers[accountID]...), nil
}

func (m *mockStore) AddCalculation(_ context.Context, accountID string, c billing.Calculation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addCalculationErr != nil {
		return m.addCalculationErr
	}
	list := append([]billing.Calculation{c}, m.calcs[accountID]...)
	if len(list) > billing.HistoryCap {
		list = list[:billing.HistoryCap]
	}
	m.calcs[accountID] = list
	return nil
}

func (m *mockStore) ListCalculations(_ context.Context, accountID string) ([]billing.Calculation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]billing.Calculation(nil), m.calcs[accountID]...), nil
}

func (m *mockStore) ClearCalculations(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.calcs, accountID)
	return nil
}

func (m *mockStore) CreateSession(_ context.Context, s *conversation.Session) (*conversation.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.ID = uuid.NewString()
	m.sessions[cp.ID] = &cp
	return &cp, nil
}

func (m *mockStore) GetSession(_ context.Context, id string) (*conversation.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (m *mockStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	delete(m.sessions, id)
	delete(m.messages, id)
	return nil
}

func (m *mockStore) ListMessages(_ context.Context, sessionID string) ([]conversation.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]conversation.Message(nil), m.messages[sessionID]...), nil
}

func (m *mockStore) AppendMessages(_ context.Context, sessionID string, msgs []conversation.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendMessagesErr != nil {
		return m.appendMessagesErr
	}
	m.messages[sessionID] = append(m.messages[sessionID], msgs...)
	return nil
}
