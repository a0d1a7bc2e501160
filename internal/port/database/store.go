// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/TokenCalc/internal/domain/billing"
	"github.com/Strob0t/TokenCalc/internal/domain/conversation"
)

// Store is the port interface for database operations.
type Store interface {
	// Accounts
	CreateAccount(ctx context.Context, acct *billing.Account) (*billing.Account, error)
	GetAccount(ctx context.Context, id string) (*billing.Account, error)
	UpdatePlan(ctx context.Context, id string, plan billing.Plan) error

	// Ledger. AppendLedger inserts the entry and adjusts the stored
	// balance by its amount in one transaction, so the balance never
	// drifts from the ledger sum.
	AppendLedger(ctx context.Context, accountID string, e billing.LedgerEntry) error
	ListLedger(ctx context.Context, accountID string) ([]billing.LedgerEntry, error)

	// Calculation history (newest first, capped).
	AddCalculation(ctx context.Context, accountID string, c billing.Calculation) error
	ListCalculations(ctx context.Context, accountID string) ([]billing.Calculation, error)
	ClearCalculations(ctx context.Context, accountID string) error

	// Conversations
	CreateSession(ctx context.Context, s *conversation.Session) (*conversation.Session, error)
	GetSession(ctx context.Context, id string) (*conversation.Session, error)
	DeleteSession(ctx context.Context, id string) error
	ListMessages(ctx context.Context, sessionID string) ([]conversation.Message, error)
	AppendMessages(ctx context.Context, sessionID string, msgs []conversation.Message) error
}
