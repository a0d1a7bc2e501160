package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/TokenCalc/internal/adapter/otel"
	"github.com/Strob0t/TokenCalc/internal/domain"
	"github.com/Strob0t/TokenCalc/internal/domain/billing"
	"github.com/Strob0t/TokenCalc/internal/port/database"
)

// AccountService manages account registration, plans and the token ledger.
type AccountService struct {
	db      database.Store
	locks   *accountLocks
	metrics *otel.Metrics
}

// NewAccountService creates a new AccountService.
func NewAccountService(db database.Store, locks *accountLocks, metrics *otel.Metrics) *AccountService {
	return &AccountService{db: db, locks: locks, metrics: metrics}
}

// Register creates an account on the Hobby plan and credits the baseline
// registration grant.
func (s *AccountService) Register(ctx context.Context, req billing.CreateRequest) (*billing.Account, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	acct, err := s.db.CreateAccount(ctx, &billing.Account{
		Email: req.Email,
		Name:  req.Name,
		Plan:  billing.PlanHobby,
	})
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	if err := s.credit(ctx, acct.ID, billing.RegistrationGrant, "registration grant"); err != nil {
		return nil, fmt.Errorf("registration grant: %w", err)
	}
	return s.db.GetAccount(ctx, acct.ID)
}

// Get returns an account by ID.
func (s *AccountService) Get(ctx context.Context, id string) (*billing.Account, error) {
	return s.db.GetAccount(ctx, id)
}

// Recharge credits one of the fixed token packages.
func (s *AccountService) Recharge(ctx context.Context, id string, req billing.RechargeRequest) (*billing.Account, error) {
	if !billing.RechargePackages[req.Amount] {
		return nil, fmt.Errorf("%w: unknown recharge package %d", domain.ErrValidation, req.Amount)
	}

	unlock := s.locks.lock(id)
	defer unlock()

	if _, err := s.db.GetAccount(ctx, id); err != nil {
		return nil, err
	}
	if err := s.credit(ctx, id, req.Amount, "recharge"); err != nil {
		return nil, err
	}
	return s.db.GetAccount(ctx, id)
}

// Upgrade moves the account to a paid plan. The upgrade bonus fires only
// on the Hobby-to-paid transition; regrading between paid tiers changes
// the plan without a new bonus.
func (s *AccountService) Upgrade(ctx context.Context, id string, req billing.UpgradeRequest) (*billing.Account, error) {
	if !billing.ValidPlans[req.Plan] || req.Plan == billing.PlanHobby {
		return nil, fmt.Errorf("%w: plan must be pro or enterprise", domain.ErrValidation)
	}

	unlock := s.locks.lock(id)
	defer unlock()

	acct, err := s.db.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	wasHobby := acct.Plan == billing.PlanHobby
	if err := s.db.UpdatePlan(ctx, id, req.Plan); err != nil {
		return nil, err
	}
	if wasHobby {
		if err := s.credit(ctx, id, billing.UpgradeBonus, "plan upgrade bonus"); err != nil {
			return nil, err
		}
	}
	return s.db.GetAccount(ctx, id)
}

// Ledger returns the full append-only ledger for an account.
func (s *AccountService) Ledger(ctx context.Context, id string) ([]billing.LedgerEntry, error) {
	if _, err := s.db.GetAccount(ctx, id); err != nil {
		return nil, err
	}
	return s.db.ListLedger(ctx, id)
}

// History returns the calculation history, newest first.
func (s *AccountService) History(ctx context.Context, id string) ([]billing.Calculation, error) {
	if _, err := s.db.GetAccount(ctx, id); err != nil {
		return nil, err
	}
	return s.db.ListCalculations(ctx, id)
}

// ClearHistory removes all calculation history for an account.
func (s *AccountService) ClearHistory(ctx context.Context, id string) error {
	if _, err := s.db.GetAccount(ctx, id); err != nil {
		return err
	}
	return s.db.ClearCalculations(ctx, id)
}

func (s *AccountService) credit(ctx context.Context, id string, amount int64, reason string) error {
	err := s.db.AppendLedger(ctx, id, billing.LedgerEntry{
		At:     time.Now().UTC(),
		Amount: amount,
		Reason: reason,
	})
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.TokensCredited.Add(ctx, amount)
	}
	return nil
}
