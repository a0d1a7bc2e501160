package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/TokenCalc/internal/domain"
	"github.com/Strob0t/TokenCalc/internal/domain/billing"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Accounts ---

func (s *Store) CreateAccount(ctx context.Context, acct *billing.Account) (*billing.Account, error) {
	var created billing.Account
	err := s.pool.QueryRow(ctx,
		`INSERT INTO accounts (email, name, plan, balance)
		 VALUES ($1, $2, $3, 0)
		 RETURNING id, email, name, plan, balance, created_at, updated_at`,
		acct.Email, acct.Name, acct.Plan,
	).Scan(&created.ID, &created.Email, &created.Name, &created.Plan, &created.Balance,
		&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &created, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*billing.Account, error) {
	var a billing.Account
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, plan, balance, created_at, updated_at
		 FROM accounts WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Email, &a.Name, &a.Plan, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get account %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	return &a, nil
}

func (s *Store) UpdatePlan(ctx context.Context, id string, plan billing.Plan) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET plan = $2, updated_at = now() WHERE id = $1`,
		id, plan)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update plan %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// --- Ledger ---

// AppendLedger inserts the entry and adjusts the stored balance by its
// amount in one transaction. The accounts.balance CHECK rejects any debit
// that would drive the balance negative.
func (s *Store) AppendLedger(ctx context.Context, accountID string, e billing.LedgerEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO ledger_entries (account_id, amount, reason, at)
		 VALUES ($1, $2, $3, $4)`,
		accountID, e.Amount, e.Reason, e.At); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE accounts SET balance = balance + $2, updated_at = now() WHERE id = $1`,
		accountID, e.Amount)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("adjust balance %s: %w", accountID, domain.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) ListLedger(ctx context.Context, accountID string) ([]billing.LedgerEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT amount, reason, at FROM ledger_entries
		 WHERE account_id = $1 ORDER BY at, id`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	var result []billing.LedgerEntry
	for rows.Next() {
		var e billing.LedgerEntry
		if err := rows.Scan(&e.Amount, &e.Reason, &e.At); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// --- Calculation history ---

func (s *Store) AddCalculation(ctx context.Context, accountID string, c billing.Calculation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO calculations (account_id, expression, result, cost, at)
		 VALUES ($1, $2, $3, $4, $5)`,
		accountID, c.Expression, c.Result, c.Cost, c.At); err != nil {
		return fmt.Errorf("insert calculation: %w", err)
	}

	// Evict beyond the history cap, oldest first.
	if _, err := tx.Exec(ctx,
		`DELETE FROM calculations
		 WHERE account_id = $1 AND id NOT IN (
		     SELECT id FROM calculations
		     WHERE account_id = $1 ORDER BY at DESC, id DESC LIMIT $2
		 )`,
		accountID, billing.HistoryCap); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) ListCalculations(ctx context.Context, accountID string) ([]billing.Calculation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT expression, result, cost, at FROM calculations
		 WHERE account_id = $1 ORDER BY at DESC, id DESC LIMIT $2`,
		accountID, billing.HistoryCap)
	if err != nil {
		return nil, fmt.Errorf("list calculations: %w", err)
	}
	defer rows.Close()

	var result []billing.Calculation
	for rows.Next() {
		var c billing.Calculation
		if err := rows.Scan(&c.Expression, &c.Result, &c.Cost, &c.At); err != nil {
			return nil, fmt.Errorf("scan calculation: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) ClearCalculations(ctx context.Context, accountID string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM calculations WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("clear calculations: %w", err)
	}
	return nil
}
