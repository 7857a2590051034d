package archive

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestHashIsStable(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m := newManifest(3, "abc123", "def456", "ledger/x/ledger.log", "ledger/x/ledger.log.sha256", now)
	m.ID = "fixed-id"

	h1, err := m.Hash()
	require.NoError(t, err)
	h2, err := m.Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestManifestCanonicalBytesSortKeys(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m := newManifest(1, "head", "digest", "l", "d", now)
	canonical, err := m.CanonicalBytes()
	require.NoError(t, err)

	// Canonical form is valid JSON with lexicographically ordered keys.
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(canonical, &decoded))
	s := string(canonical)
	assert.Less(t, strings.Index(s, `"created_at"`), strings.Index(s, `"entries"`))
	assert.Less(t, strings.Index(s, `"entries"`), strings.Index(s, `"head_hash"`))
}

func TestManifestFieldsDistinguishHashes(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := newManifest(1, "head-a", "digest", "l", "d", now)
	b := newManifest(1, "head-b", "digest", "l", "d", now)
	a.ID = "same"
	b.ID = "same"

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)
}
