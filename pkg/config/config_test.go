package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "data/ledger.log", cfg.LedgerPath)
	assert.Equal(t, "data/ledger.log.sha256", cfg.DigestPath)
	assert.Equal(t, int64(1_000_000), cfg.InitialBudget)
	assert.Equal(t, "sqlite", cfg.RegistryDriver)
	assert.Equal(t, "s3", cfg.ArchiveDriver)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("JANDHAN_LEDGER_PATH", "/var/lib/jandhan/ledger.log")
	t.Setenv("JANDHAN_DIGEST_PATH", "/var/lib/jandhan/digest")
	t.Setenv("JANDHAN_INITIAL_BUDGET", "250000")
	t.Setenv("JANDHAN_REGISTRY_DRIVER", "postgres")
	t.Setenv("JANDHAN_ARCHIVE_DRIVER", "gcs")

	cfg := Load()
	assert.Equal(t, "9001", cfg.Port)
	assert.Equal(t, "/var/lib/jandhan/ledger.log", cfg.LedgerPath)
	assert.Equal(t, "/var/lib/jandhan/digest", cfg.DigestPath)
	assert.Equal(t, int64(250000), cfg.InitialBudget)
	assert.Equal(t, "postgres", cfg.RegistryDriver)
	assert.Equal(t, "gcs", cfg.ArchiveDriver)
}

func TestLoadIgnoresBadBudget(t *testing.T) {
	t.Setenv("JANDHAN_INITIAL_BUDGET", "not-a-number")
	assert.Equal(t, int64(1_000_000), Load().InitialBudget)

	t.Setenv("JANDHAN_INITIAL_BUDGET", "-5")
	assert.Equal(t, int64(1_000_000), Load().InitialBudget)
}

func TestLoadSchemes(t *testing.T) {
	raw := `schemes:
  - name: Housing
    amount: 12000
    description: housing assistance
  - name: Food
    amount: 5000
`
	path := filepath.Join(t.TempDir(), "schemes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	catalog, err := LoadSchemes(path)
	require.NoError(t, err)
	require.Len(t, catalog.Schemes, 2)
	// Sorted by name.
	assert.Equal(t, "Food", catalog.Schemes[0].Name)
	assert.Equal(t, int64(5000), catalog.Schemes[0].Amount)
	assert.Equal(t, "Housing", catalog.Schemes[1].Name)
}

func TestLoadSchemesRejectsBadEntries(t *testing.T) {
	raw := `schemes:
  - name: ""
    amount: 100
`
	path := filepath.Join(t.TempDir(), "schemes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	_, err := LoadSchemes(path)
	assert.Error(t, err)

	raw = `schemes:
  - name: Food
    amount: 0
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	_, err = LoadSchemes(path)
	assert.Error(t, err)
}
