// Package state owns the singleton operational record of the disbursement
// service: status, remaining budget, and the approved-transaction counter.
//
// Invariants enforced here:
//   - budget only decreases, clamped at zero
//   - the transaction counter only increases
//   - frozen is absorbing; only Freeze may set it, only a process restart
//     clears it
package state

import "sync"

// Status is the operational status of the service.
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusFrozen Status = "frozen"
)

// FreezeReason records which trigger moved the system into frozen.
type FreezeReason string

const (
	FreezeTamper    FreezeReason = "ledger_integrity"
	FreezeExhausted FreezeReason = "budget_exhausted"
)

// Snapshot is an immutable copy of the state, safe to hand to callers.
type Snapshot struct {
	Status           Status       `json:"status"`
	Budget           int64        `json:"budget"`
	TransactionCount uint64       `json:"transaction_count"`
	FreezeReason     FreezeReason `json:"freeze_reason,omitempty"`
}

// State is the mutable record. All mutation goes through its methods.
type State struct {
	mu      sync.RWMutex
	status  Status
	budget  int64
	txCount uint64
	reason  FreezeReason
}

// New creates a State in active status with the given initial budget.
func New(initialBudget int64) *State {
	if initialBudget < 0 {
		initialBudget = 0
	}
	return &State{status: StatusActive, budget: initialBudget}
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Status:           s.status,
		Budget:           s.budget,
		TransactionCount: s.txCount,
		FreezeReason:     s.reason,
	}
}

// Pause transitions active -> paused. Any other status is left untouched.
func (s *State) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusActive {
		s.status = StatusPaused
	}
}

// Resume transitions paused -> active. Frozen stays frozen.
func (s *State) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusPaused {
		s.status = StatusActive
	}
}

// Freeze moves to frozen from any status. Idempotent; the first recorded
// reason wins.
func (s *State) Freeze(reason FreezeReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freezeLocked(reason)
}

func (s *State) freezeLocked(reason FreezeReason) {
	if s.status == StatusFrozen {
		return
	}
	s.status = StatusFrozen
	s.reason = reason
}

// Deduct subtracts amount from the budget, clamping at zero. Driving the
// budget to zero freezes the system.
func (s *State) Deduct(amount int64) {
	if amount <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget -= amount
	if s.budget <= 0 {
		s.budget = 0
		s.freezeLocked(FreezeExhausted)
	}
}

// IncrementTransactions bumps the approved-transaction counter.
func (s *State) IncrementTransactions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++
}
