// Package claims implements the ordered admission pipeline that decides
// whether a benefit claim is disbursed.
//
// Five gates run in strict order, halting at the first failure: system
// availability, session replay, eligibility, budget, claim frequency.
// The ordering is deliberate: the cheapest global checks run before the
// registry lookup, which runs before the numeric checks whose approval
// path mutates shared state. The whole pipeline, plus the administrative
// pause/resume operations, is linearized behind one mutex so concurrent
// claims can never both observe sufficient budget or both pass replay.
package claims

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/rupesh-3/jandhan/pkg/identity"
	"github.com/rupesh-3/jandhan/pkg/ledger"
	"github.com/rupesh-3/jandhan/pkg/registry"
	"github.com/rupesh-3/jandhan/pkg/state"
)

// Gate names, in evaluation order.
const (
	GateSystem      = "system"
	GateReplay      = "replay"
	GateEligibility = "eligibility"
	GateBudget      = "budget"
	GateFrequency   = "frequency"
)

// Rejection reasons surfaced in decisions.
const (
	ReasonPaused         = "system_paused"
	ReasonFrozen         = "system_frozen"
	ReasonDuplicate      = "duplicate_claim"
	ReasonNotEnrolled    = "not_enrolled"
	ReasonInactive       = "account_inactive"
	ReasonNotLinked      = "credential_not_linked"
	ReasonSchemeMismatch = "scheme_mismatch"
	ReasonClaimLimit     = "claim_limit_exceeded"
	ReasonExhausted      = "budget_exhausted"
	ReasonInsufficient   = "budget_insufficient"
	ReasonCooldown       = "cooldown_active"
	ReasonApproved       = "approved"
)

const (
	maxClaims    = 3
	cooldownDays = 30.0
)

// Decision is the structured outcome handed back to the intake surface.
// It never carries the raw identity or its token.
type Decision struct {
	Approved  bool   `json:"approved"`
	Gate      string `json:"gate,omitempty"`
	Reason    string `json:"reason"`
	Scheme    string `json:"scheme,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	DaysLeft  int    `json:"days_left,omitempty"`
}

// Validator orchestrates the gates. Stateless between calls apart from
// the session replay set it owns.
type Validator struct {
	mu     sync.Mutex
	state  *state.State
	reg    registry.Registry
	ledger *ledger.Ledger
	replay map[string]struct{}
	logger *slog.Logger
	clock  func() time.Time
}

// New wires a Validator over shared system state, the eligibility
// registry, and the disbursement ledger.
func New(st *state.State, reg registry.Registry, led *ledger.Ledger, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		state:  st,
		reg:    reg,
		ledger: led,
		replay: make(map[string]struct{}),
		logger: logger,
		clock:  time.Now,
	}
}

// WithClock overrides the clock for testing.
func (v *Validator) WithClock(clock func() time.Time) *Validator {
	v.clock = clock
	return v
}

func reject(gate, reason string) Decision {
	return Decision{Approved: false, Gate: gate, Reason: reason}
}

// Evaluate runs a claim through the five gates. Rejections come back as
// data; only registry backend failures and durable-write failures on the
// ledger surface as errors, and an errored claim is never approved.
func (v *Validator) Evaluate(ctx context.Context, rawID, scheme string) (Decision, error) {
	token := identity.Token(rawID)

	v.mu.Lock()
	defer v.mu.Unlock()

	// Gate 1: system availability.
	snap := v.state.Snapshot()
	switch snap.Status {
	case state.StatusPaused:
		return reject(GateSystem, ReasonPaused), nil
	case state.StatusFrozen:
		return reject(GateSystem, ReasonFrozen), nil
	}

	// Gate 2: one approval per identity per session.
	if _, dup := v.replay[token]; dup {
		return reject(GateReplay, ReasonDuplicate), nil
	}

	// Gate 3: eligibility.
	rec, err := v.reg.Lookup(ctx, token)
	if err != nil {
		return Decision{}, fmt.Errorf("registry lookup: %w", err)
	}
	switch {
	case rec == nil:
		return reject(GateEligibility, ReasonNotEnrolled), nil
	case !rec.Active:
		return reject(GateEligibility, ReasonInactive), nil
	case !rec.Linked:
		return reject(GateEligibility, ReasonNotLinked), nil
	case !schemeEqual(scheme, rec.Scheme):
		return reject(GateEligibility, ReasonSchemeMismatch), nil
	case rec.ClaimCount > maxClaims:
		return reject(GateEligibility, ReasonClaimLimit), nil
	}

	// Gate 4: budget. The zero-budget freeze check runs before the
	// shortfall check; the two report different reasons at the boundary.
	if snap.Budget == 0 {
		v.state.Freeze(state.FreezeExhausted)
		return reject(GateBudget, ReasonExhausted), nil
	}
	if snap.Budget < rec.Amount {
		return reject(GateBudget, ReasonInsufficient), nil
	}

	// Gate 5: claim frequency.
	if rec.LastClaim != nil {
		elapsed := v.clock().Sub(*rec.LastClaim).Hours() / 24
		if elapsed < cooldownDays {
			d := reject(GateFrequency, ReasonCooldown)
			d.DaysLeft = int(math.Ceil(cooldownDays - elapsed))
			return d, nil
		}
	}

	// All gates passed. The ledger entry lands before any budget movement
	// so a failed write can never leave a deduction with no durable record.
	entry, err := v.ledger.Append(token, rec.Scheme, rec.Amount)
	if err != nil {
		v.logger.Error("disbursement not recorded", "scheme", rec.Scheme, "error", err)
		return Decision{}, fmt.Errorf("record disbursement: %w", err)
	}

	v.state.Deduct(rec.Amount)
	v.state.IncrementTransactions()
	v.replay[token] = struct{}{}

	v.logger.Info("claim approved",
		"scheme", rec.Scheme,
		"amount", rec.Amount,
		"budget_remaining", v.state.Snapshot().Budget,
	)

	return Decision{
		Approved:  true,
		Reason:    ReasonApproved,
		Scheme:    rec.Scheme,
		Amount:    rec.Amount,
		Timestamp: entry.Timestamp.Format(time.RFC3339),
	}, nil
}

// Pause suspends intake, linearized with in-flight claims: a pause never
// retroactively un-approves a claim already past the system gate, but
// blocks the next one.
func (v *Validator) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Pause()
}

// Resume lifts a pause. Frozen state is not resumable.
func (v *Validator) Resume() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Resume()
}

// Snapshot reads system state through the same serialization point as
// the pipeline.
func (v *Validator) Snapshot() state.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Snapshot()
}

// schemeEqual compares scheme names case-insensitively after trimming
// and NFC normalization, so visually identical names match regardless of
// the encoding the intake form produced.
func schemeEqual(a, b string) bool {
	return strings.EqualFold(
		norm.NFC.String(strings.TrimSpace(a)),
		norm.NFC.String(strings.TrimSpace(b)),
	)
}
