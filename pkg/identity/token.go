// Package identity derives opaque tokens from raw beneficiary identifiers.
//
// Tokens are one-way: once an identifier is hashed, the raw value never
// travels further into the pipeline, the ledger, or the logs. Offline
// tooling that needs to agree on tokens must apply the same
// canonicalization width.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// CanonicalWidth is the fixed digit width identifiers are left-padded to
// before hashing. Changing it invalidates every previously issued token.
const CanonicalWidth = 12

// Canonicalize trims surrounding whitespace and left-pads the identifier
// with zeros to CanonicalWidth.
func Canonicalize(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= CanonicalWidth {
		return s
	}
	return strings.Repeat("0", CanonicalWidth-len(s)) + s
}

// Token maps a raw identifier to its opaque token: the SHA-256 of the
// canonical form, as lowercase hex. Deterministic and side-effect free.
func Token(raw string) string {
	sum := sha256.Sum256([]byte(Canonicalize(raw)))
	return hex.EncodeToString(sum[:])
}

// Truncate shortens a token or hash for display. Truncated values are
// never compared or verified.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
