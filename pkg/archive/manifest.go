// Package archive pushes off-site copies of the ledger file pair to
// object storage, giving auditors a tamper-evidence trail that survives
// tampering with the host itself. Archival is never in the claim path;
// a failed upload is logged and retried on the next cycle, not fatal.
package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
)

// Manifest describes one archived ledger snapshot.
type Manifest struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Entries      int       `json:"entries"`
	HeadHash     string    `json:"head_hash"`
	LedgerDigest string    `json:"ledger_digest"`
	LedgerObject string    `json:"ledger_object"`
	DigestObject string    `json:"digest_object"`
}

func newManifest(entries int, headHash, ledgerDigest, ledgerObject, digestObject string, now time.Time) *Manifest {
	return &Manifest{
		ID:           uuid.New().String(),
		CreatedAt:    now.UTC().Truncate(time.Second),
		Entries:      entries,
		HeadHash:     headHash,
		LedgerDigest: ledgerDigest,
		LedgerObject: ledgerObject,
		DigestObject: digestObject,
	}
}

// CanonicalBytes returns the RFC 8785 canonical JSON form of the
// manifest, so independently produced copies hash identically.
func (m *Manifest) CanonicalBytes() ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize manifest: %w", err)
	}
	return canonical, nil
}

// Hash is the SHA-256 of the canonical manifest bytes.
func (m *Manifest) Hash() (string, error) {
	canonical, err := m.CanonicalBytes()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
