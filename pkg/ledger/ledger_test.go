package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLedger(t *testing.T) (*Ledger, *bool) {
	t.Helper()
	dir := t.TempDir()
	frozen := false
	l := New(filepath.Join(dir, "ledger.log"), filepath.Join(dir, "ledger.log.sha256"), func() { frozen = true })
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	n := 0
	l.WithClock(func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	})
	return l, &frozen
}

func TestVerifyFreshInstall(t *testing.T) {
	l, frozen := testLedger(t)
	assert.True(t, l.VerifyIntegrity())
	assert.False(t, *frozen)
	assert.Equal(t, GenesisHash, l.Head())
}

func TestFirstEntryChainsFromGenesis(t *testing.T) {
	l, _ := testLedger(t)
	e, err := l.Append("token-a", "Food", 5000)
	require.NoError(t, err)
	assert.Equal(t, GenesisHash, e.PrevHash)
	assert.Equal(t, e.Hash, l.Head())
	assert.Equal(t, int64(5000), e.Amount)
}

func TestAppendThenVerify(t *testing.T) {
	l, frozen := testLedger(t)
	_, err := l.Append("token-a", "Food", 5000)
	require.NoError(t, err)
	_, err = l.Append("token-b", "Housing", 12000)
	require.NoError(t, err)
	_, err = l.Append("token-c", "Food", 5000)
	require.NoError(t, err)

	assert.True(t, l.VerifyIntegrity())
	assert.False(t, *frozen)
}

func TestVerifySurvivesRestart(t *testing.T) {
	l, _ := testLedger(t)
	e1, err := l.Append("token-a", "Food", 5000)
	require.NoError(t, err)

	// A fresh Ledger over the same files rebuilds the head cursor.
	reopened := New(l.Path(), l.DigestPath(), nil)
	assert.True(t, reopened.VerifyIntegrity())
	assert.Equal(t, e1.Hash, reopened.Head())

	e2, err := reopened.Append("token-b", "Food", 5000)
	require.NoError(t, err)
	assert.Equal(t, e1.Hash, e2.PrevHash)
}

func TestSingleByteFlipDetected(t *testing.T) {
	l, frozen := testLedger(t)
	_, err := l.Append("token-a", "Food", 5000)
	require.NoError(t, err)
	_, err = l.Append("token-b", "Food", 5000)
	require.NoError(t, err)

	raw, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	// Flip one character in the middle of the file.
	i := len(raw) / 2
	if raw[i] == 'a' {
		raw[i] = 'b'
	} else {
		raw[i] = 'a'
	}
	require.NoError(t, os.WriteFile(l.Path(), raw, 0o600))

	assert.False(t, l.VerifyIntegrity())
	assert.True(t, *frozen)
}

func TestDigestSideFileTamperDetected(t *testing.T) {
	l, frozen := testLedger(t)
	_, err := l.Append("token-a", "Food", 5000)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(l.DigestPath(), []byte(strings.Repeat("0", 64)+"\n"), 0o600))
	assert.False(t, l.VerifyIntegrity())
	assert.True(t, *frozen)
}

func TestChainBreakBehindFreshDigest(t *testing.T) {
	// Rewriting the digest side file to match a doctored chain defeats the
	// whole-file check; the chain walk still has to catch it.
	l, frozen := testLedger(t)
	_, err := l.Append("token-a", "Food", 5000)
	require.NoError(t, err)
	_, err = l.Append("token-b", "Food", 5000)
	require.NoError(t, err)

	raw, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	doctored := strings.Replace(string(raw), "5000", "9000", 1)
	require.NoError(t, os.WriteFile(l.Path(), []byte(doctored), 0o600))
	require.NoError(t, os.WriteFile(l.DigestPath(), []byte(fileDigest([]byte(doctored))+"\n"), 0o600))

	assert.False(t, l.VerifyIntegrity())
	assert.True(t, *frozen)
}

func TestMissingFieldDetected(t *testing.T) {
	l, frozen := testLedger(t)
	_, err := l.Append("token-a", "Food", 5000)
	require.NoError(t, err)

	raw, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	doctored := []byte(strings.Replace(string(raw), "|Food", "", 1))
	require.NoError(t, os.WriteFile(l.Path(), doctored, 0o600))
	require.NoError(t, os.WriteFile(l.DigestPath(), []byte(fileDigest(doctored)+"\n"), 0o600))

	assert.False(t, l.VerifyIntegrity())
	assert.True(t, *frozen)
}

func TestAppendRefusesAfterTamper(t *testing.T) {
	l, _ := testLedger(t)
	_, err := l.Append("token-a", "Food", 5000)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(l.DigestPath(), []byte(strings.Repeat("f", 64)+"\n"), 0o600))
	head := New(l.Path(), l.DigestPath(), nil)
	_, err = head.Append("token-b", "Food", 5000)
	assert.ErrorIs(t, err, ErrIntegrity)
	assert.Equal(t, GenesisHash, head.Head())
}

func TestAppendRejectsReservedCharacters(t *testing.T) {
	l, _ := testLedger(t)
	_, err := l.Append("token-a", "Fo|od", 5000)
	assert.ErrorIs(t, err, ErrInvalidField)
	_, err = l.Append("tok\nen", "Food", 5000)
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestAppendFailureDoesNotAdvanceHead(t *testing.T) {
	dir := t.TempDir()
	// Pointing the chain file at a directory forces the durable write to fail.
	l := New(dir, filepath.Join(dir, "d.sha256"), nil)
	l.verified = true
	before := l.Head()
	_, err := l.Append("token-a", "Food", 5000)
	assert.Error(t, err)
	assert.Equal(t, before, l.Head())
}

func TestRecentEntries(t *testing.T) {
	l, _ := testLedger(t)
	_, err := l.Append("aaaaaaaaaaaaaaaaaaaa", "Food", 5000)
	require.NoError(t, err)
	_, err = l.Append("bbbbbbbbbbbbbbbbbbbb", "Housing", 12000)
	require.NoError(t, err)
	_, err = l.Append("cccccccccccccccccccc", "Food", 5000)
	require.NoError(t, err)

	entries, err := l.RecentEntries(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Housing", entries[0].Scheme)
	assert.Equal(t, "Food", entries[1].Scheme)
	// Display values are truncated, never full tokens or hashes.
	assert.Equal(t, "bbbbbbbbbb...", entries[0].Token)
	assert.Len(t, entries[0].Hash, 15)
}

func TestRecentEntriesEmpty(t *testing.T) {
	l, _ := testLedger(t)
	entries, err := l.RecentEntries(10)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInspectReportsBreakPoint(t *testing.T) {
	l, _ := testLedger(t)
	_, err := l.Append("token-a", "Food", 5000)
	require.NoError(t, err)
	_, err = l.Append("token-b", "Food", 5000)
	require.NoError(t, err)

	rep, err := Inspect(l.Path(), l.DigestPath())
	require.NoError(t, err)
	assert.True(t, rep.OK())
	assert.Equal(t, 2, rep.Entries)
	assert.Equal(t, l.Head(), rep.HeadHash)

	raw, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	lines := strings.SplitAfter(string(raw), "\n")
	doctored := []byte(strings.Replace(lines[0], "5000", "7000", 1) + lines[1])
	require.NoError(t, os.WriteFile(l.Path(), doctored, 0o600))
	require.NoError(t, os.WriteFile(l.DigestPath(), []byte(fileDigest(doctored)+"\n"), 0o600))

	rep, err = Inspect(l.Path(), l.DigestPath())
	require.NoError(t, err)
	assert.False(t, rep.OK())
	assert.Equal(t, 1, rep.BreakLine)
	assert.Equal(t, "entry hash mismatch", rep.Reason)
}
