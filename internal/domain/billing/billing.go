// Package billing defines the token metering domain: plans, pricing,
// ledger accounting and the per-account calculation history.
package billing

import (
	"errors"
	"fmt"
	"math"
	"net/mail"
	"time"
)

// Plan represents the account tier gating feature access.
type Plan string

const (
	PlanHobby      Plan = "hobby"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// ValidPlans is the set of all valid account plans.
var ValidPlans = map[Plan]bool{
	PlanHobby:      true,
	PlanPro:        true,
	PlanEnterprise: true,
}

// Paid reports whether the plan is a paid tier.
func (p Plan) Paid() bool {
	return p == PlanPro || p == PlanEnterprise
}

// Authorization failures are distinct user-facing conditions, not generic
// errors: the caller leaves calculator state untouched so the user can
// recharge or upgrade and retry the same pending operation.
var (
	ErrPlanRestricted      = errors.New("plan restricted: large calculations require a paid plan")
	ErrInsufficientBalance = errors.New("insufficient token balance")
)

// largeOperandThreshold is the operand magnitude at which Hobby accounts
// are locked out and the top price tier starts.
const largeOperandThreshold = 10000

// UpgradeBonus is the one-time token credit for the Hobby-to-paid transition.
const UpgradeBonus = 100000

// RegistrationGrant is the baseline balance credited at registration.
const RegistrationGrant = 1000

// HistoryCap bounds the calculation history, newest first.
const HistoryCap = 50

// RechargePackages are the fixed token amounts an account may recharge.
var RechargePackages = map[int64]bool{
	5000:   true,
	20000:  true,
	100000: true,
	500000: true,
}

// LedgerEntry is one immutable balance change. Positive amounts are
// credits, negative amounts are debits.
type LedgerEntry struct {
	At     time.Time `json:"at"`
	Amount int64     `json:"amount"`
	Reason string    `json:"reason"`
}

// Calculation is one completed, paid binary operation.
type Calculation struct {
	Expression string    `json:"expression"`
	Result     string    `json:"result"`
	Cost       int64     `json:"cost"`
	At         time.Time `json:"at"`
}

// Account holds a user's plan, token balance and audit trail. The ledger
// is the source of truth: Balance is always the running sum of entries.
type Account struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Plan      Plan          `json:"plan"`
	Balance   int64         `json:"balance"`
	Ledger    []LedgerEntry `json:"ledger,omitempty"`
	History   []Calculation `json:"history,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Price returns the token cost of a binary operation, tiered by the
// larger operand's magnitude. Pure: used both for the live preview and
// for the final authorization at equals.
func Price(a, b float64) int64 {
	m := math.Max(math.Abs(a), math.Abs(b))
	switch {
	case m >= largeOperandThreshold:
		return 20
	case m >= 1000:
		return 10
	case m >= 100:
		return 5
	default:
		return 1
	}
}

// Authorize gates a binary operation before it may complete. It returns
// ErrPlanRestricted for large operands on the Hobby plan and
// ErrInsufficientBalance when the balance cannot cover the price.
func Authorize(acct *Account, a, b float64) error {
	if acct.Plan == PlanHobby && math.Max(math.Abs(a), math.Abs(b)) >= largeOperandThreshold {
		return ErrPlanRestricted
	}
	if acct.Balance < Price(a, b) {
		return ErrInsufficientBalance
	}
	return nil
}

// Credit appends a positive ledger entry.
func (a *Account) Credit(amount int64, reason string, now time.Time) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	a.Ledger = append(a.Ledger, LedgerEntry{At: now, Amount: amount, Reason: reason})
	a.Balance += amount
	return nil
}

// Debit appends a negative ledger entry. It is only valid after a
// successful Authorize; driving the balance negative is a programming
// error and is rejected.
func (a *Account) Debit(amount int64, reason string, now time.Time) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	if a.Balance < amount {
		return ErrInsufficientBalance
	}
	a.Ledger = append(a.Ledger, LedgerEntry{At: now, Amount: -amount, Reason: reason})
	a.Balance -= amount
	return nil
}

// LedgerSum recomputes the balance from the ledger. It must always equal
// Balance; the store layer checks this on load.
func (a *Account) LedgerSum() int64 {
	var sum int64
	for _, e := range a.Ledger {
		sum += e.Amount
	}
	return sum
}

// AddCalculation prepends a completed calculation, evicting the oldest
// beyond the history cap.
func (a *Account) AddCalculation(c Calculation) {
	a.History = append([]Calculation{c}, a.History...)
	if len(a.History) > HistoryCap {
		a.History = a.History[:HistoryCap]
	}
}

// CreateRequest is the input for registering a new account.
type CreateRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// RechargeRequest is the input for crediting a token package.
type RechargeRequest struct {
	Amount int64 `json:"amount"`
}

// UpgradeRequest is the input for changing the account plan.
type UpgradeRequest struct {
	Plan Plan `json:"plan"`
}
