package store

import (
	"fmt"
	"sync"
)

// MemoryLedger is an in-memory balance ledger for a single player, used for
// guest play and when the server runs without database persistence. All
// mutations are atomic read-modify-write steps.
type MemoryLedger struct {
	mu      sync.Mutex
	balance int
}

// NewMemoryLedger creates a ledger with a starting balance.
func NewMemoryLedger(balance int) *MemoryLedger {
	return &MemoryLedger{balance: balance}
}

// Balance returns the current balance.
func (l *MemoryLedger) Balance() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance, nil
}

// Apply adds a signed delta to the balance and returns the new balance. A
// delta that would take the balance negative is rejected.
func (l *MemoryLedger) Apply(delta int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balance+delta < 0 {
		return l.balance, fmt.Errorf("insufficient balance: %d with delta %d", l.balance, delta)
	}
	l.balance += delta
	return l.balance, nil
}
