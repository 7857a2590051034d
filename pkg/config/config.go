// Package config loads service configuration from the environment, with
// a YAML loader for the scheme catalog shown on the public surface.
package config

import (
	"os"
	"strconv"
)

// Config holds server configuration.
type Config struct {
	Port           string
	LogLevel       string
	LedgerPath     string
	DigestPath     string
	RegistryDriver string // "memory" | "sqlite" | "postgres"
	RegistryPath   string // CSV export (memory) or database file (sqlite)
	DatabaseURL    string // postgres connection string
	InitialBudget  int64
	MasterSecret   string
	SchemesPath    string
	OTLPEndpoint   string
	ArchiveDriver  string // "s3" | "gcs"
	ArchiveBucket  string
	ArchiveRegion  string
	ArchivePrefix  string
}

// Load reads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		Port:           getenv("PORT", "8080"),
		LogLevel:       getenv("LOG_LEVEL", "INFO"),
		LedgerPath:     getenv("JANDHAN_LEDGER_PATH", "data/ledger.log"),
		DigestPath:     getenv("JANDHAN_DIGEST_PATH", ""),
		RegistryDriver: getenv("JANDHAN_REGISTRY_DRIVER", "sqlite"),
		RegistryPath:   getenv("JANDHAN_REGISTRY_PATH", "data/registry.db"),
		DatabaseURL:    getenv("DATABASE_URL", ""),
		MasterSecret:   os.Getenv("JANDHAN_MASTER_SECRET"),
		SchemesPath:    getenv("JANDHAN_SCHEMES_PATH", ""),
		OTLPEndpoint:   getenv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ArchiveDriver:  getenv("JANDHAN_ARCHIVE_DRIVER", "s3"),
		ArchiveBucket:  getenv("JANDHAN_ARCHIVE_BUCKET", ""),
		ArchiveRegion:  getenv("JANDHAN_ARCHIVE_REGION", "ap-south-1"),
		ArchivePrefix:  getenv("JANDHAN_ARCHIVE_PREFIX", "ledger/"),
	}

	if cfg.DigestPath == "" {
		cfg.DigestPath = cfg.LedgerPath + ".sha256"
	}

	cfg.InitialBudget = 1_000_000
	if v := os.Getenv("JANDHAN_INITIAL_BUDGET"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			cfg.InitialBudget = n
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
