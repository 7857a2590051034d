package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// entryHash computes the chained hash of one entry: SHA-256 over the
// entry's own fields joined with its declared previous hash. All fields
// are the exact serialized strings that land on disk.
func entryHash(ts, token, scheme, amount, prevHash string) string {
	payload := strings.Join([]string{ts, token, scheme, amount, prevHash}, "|")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// fileDigest is the whole-file tamper check: SHA-256 over the exact
// persisted byte sequence, catching edits that a per-line walk would
// miss (whitespace, encoding, reordering of identical lines).
func fileDigest(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
