// Package ledger persists approved disbursements as an append-only,
// hash-chained text log.
//
// Two independent tamper checks guard the file: a whole-file SHA-256
// digest kept in a side file, and a per-entry hash chain anchored at an
// all-zero genesis hash. Either failing freezes the system rather than
// letting it continue on unverifiable state.
package ledger

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rupesh-3/jandhan/pkg/identity"
)

// GenesisHash anchors the chain: the previous hash of the first entry.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

const (
	fieldCount = 6
	timeLayout = time.RFC3339
)

var (
	// ErrIntegrity is returned when the persisted ledger cannot be trusted.
	ErrIntegrity = errors.New("ledger integrity check failed")
	// ErrInvalidField rejects entry fields that would corrupt the line format.
	ErrInvalidField = errors.New("entry field contains reserved characters")
)

// Entry is one disbursement record in the chain.
type Entry struct {
	Timestamp time.Time
	Token     string
	Scheme    string
	Amount    int64
	PrevHash  string
	Hash      string
}

// DisplayEntry is the truncated reporting view returned by RecentEntries.
// Never a source of truth for integrity checks.
type DisplayEntry struct {
	Timestamp string `json:"timestamp"`
	Token     string `json:"token"`
	Scheme    string `json:"scheme"`
	Amount    int64  `json:"amount"`
	Hash      string `json:"hash"`
}

// Ledger owns one chain file and its digest side file. The zero value is
// not usable; construct with New.
type Ledger struct {
	mu         sync.Mutex
	path       string
	digestPath string
	onTamper   func()
	headHash   string
	verified   bool
	clock      func() time.Time
}

// New creates a Ledger over the given chain file and digest side file.
// onTamper, if non-nil, is invoked exactly when integrity cannot be
// established (the caller freezes system state there).
func New(path, digestPath string, onTamper func()) *Ledger {
	return &Ledger{
		path:       path,
		digestPath: digestPath,
		onTamper:   onTamper,
		headHash:   GenesisHash,
		clock:      time.Now,
	}
}

// WithClock overrides the clock for testing.
func (l *Ledger) WithClock(clock func() time.Time) *Ledger {
	l.clock = clock
	return l
}

// Path returns the chain file location.
func (l *Ledger) Path() string { return l.path }

// DigestPath returns the digest side file location.
func (l *Ledger) DigestPath() string { return l.digestPath }

// Head returns the cached hash of the most recent entry, or the genesis
// hash for an empty chain.
func (l *Ledger) Head() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.headHash
}

// VerifyIntegrity recomputes the whole-file digest and walks the chain
// from genesis. On any failure it fires the tamper hook and returns
// false. On success it caches the head hash so appends can resume where
// the persisted chain left off. Safe to call repeatedly.
func (l *Ledger) VerifyIntegrity() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verifyLocked()
}

func (l *Ledger) verifyLocked() bool {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			// Fresh install: no chain yet. A digest side file with no
			// chain file means the chain was removed out from under us.
			if _, derr := os.Stat(l.digestPath); derr == nil {
				return l.tamperLocked()
			}
			l.headHash = GenesisHash
			l.verified = true
			return true
		}
		return l.tamperLocked()
	}

	expected, err := os.ReadFile(l.digestPath)
	if err != nil {
		return l.tamperLocked()
	}
	if fileDigest(raw) != strings.TrimSpace(string(expected)) {
		return l.tamperLocked()
	}

	head := GenesisHash
	for _, line := range chainLines(raw) {
		fields := strings.Split(line, "|")
		if len(fields) != fieldCount {
			return l.tamperLocked()
		}
		if fields[4] != head {
			return l.tamperLocked()
		}
		if entryHash(fields[0], fields[1], fields[2], fields[3], fields[4]) != fields[5] {
			return l.tamperLocked()
		}
		head = fields[5]
	}

	l.headHash = head
	l.verified = true
	return true
}

func (l *Ledger) tamperLocked() bool {
	l.verified = false
	if l.onTamper != nil {
		l.onTamper()
	}
	return false
}

// Append durably records an approved disbursement and advances the chain
// head. If the ledger has not been verified this process lifetime it
// verifies first. Any persistence failure is returned without advancing
// the in-memory head, so the caller must treat the claim as failed.
func (l *Ledger) Append(token, scheme string, amount int64) (Entry, error) {
	if strings.ContainsAny(token, "|\n") || strings.ContainsAny(scheme, "|\n") {
		return Entry{}, ErrInvalidField
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.verified && !l.verifyLocked() {
		return Entry{}, ErrIntegrity
	}

	now := l.clock().UTC().Truncate(time.Second)
	ts := now.Format(timeLayout)
	amt := strconv.FormatInt(amount, 10)
	prev := l.headHash
	hash := entryHash(ts, token, scheme, amt, prev)
	line := strings.Join([]string{ts, token, scheme, amt, prev, hash}, "|") + "\n"

	if err := appendDurable(l.path, []byte(line)); err != nil {
		// The on-disk state is unknown; force a re-verify before the
		// next append.
		l.verified = false
		return Entry{}, fmt.Errorf("ledger append: %w", err)
	}
	if err := l.persistDigestLocked(); err != nil {
		l.verified = false
		return Entry{}, fmt.Errorf("ledger digest: %w", err)
	}

	l.headHash = hash
	return Entry{
		Timestamp: now,
		Token:     token,
		Scheme:    scheme,
		Amount:    amount,
		PrevHash:  prev,
		Hash:      hash,
	}, nil
}

func (l *Ledger) persistDigestLocked() error {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return err
	}
	return writeDurable(l.digestPath, []byte(fileDigest(raw)+"\n"))
}

// RecentEntries returns up to the last n entries, oldest first, with
// tokens and hashes truncated for display.
func (l *Ledger) RecentEntries(n int) ([]DisplayEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	raw, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	lines := chainLines(raw)
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	out := make([]DisplayEntry, 0, len(lines))
	for _, line := range lines {
		fields := strings.Split(line, "|")
		if len(fields) != fieldCount {
			return nil, fmt.Errorf("%w: malformed line", ErrIntegrity)
		}
		amount, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad amount", ErrIntegrity)
		}
		out = append(out, DisplayEntry{
			Timestamp: fields[0],
			Token:     identity.Truncate(fields[1], 10),
			Scheme:    fields[2],
			Amount:    amount,
			Hash:      identity.Truncate(fields[5], 12),
		})
	}
	return out, nil
}

func chainLines(raw []byte) []string {
	trimmed := strings.TrimRight(string(raw), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func appendDurable(path string, b []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeDurable(path string, b []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
