// Package registry provides read-only access to beneficiary eligibility
// records, keyed by identity token. Records are immutable for the
// lifetime of the process once loaded; nothing in this package mutates
// them after that point.
package registry

import (
	"context"
	"time"
)

// Record is one beneficiary's eligibility record.
type Record struct {
	Token      string     `json:"-"`
	Active     bool       `json:"active"`
	Linked     bool       `json:"linked"`
	Scheme     string     `json:"scheme"`
	Amount     int64      `json:"amount"`
	ClaimCount int        `json:"claim_count"`
	LastClaim  *time.Time `json:"last_claim,omitempty"`
}

// Registry is the lookup surface the gate validator consumes. Lookup
// returns (nil, nil) when no record exists for the token; errors are
// reserved for backend failures. Schemes is a sorted catalog for display
// only and is never consulted inside the gates.
type Registry interface {
	Lookup(ctx context.Context, token string) (*Record, error)
	Schemes(ctx context.Context) ([]string, error)
}
