package service

import "sync"

// accountLocks serializes balance mutation per account. The ledger is not
// designed for concurrent writers, so every authorize/debit/credit path
// takes the account's lock first.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAccountLocks creates the shared per-account lock table. One instance
// is shared by every service that mutates balances.
func NewAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *accountLocks) lock(accountID string) func() {
	l.mu.Lock()
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
