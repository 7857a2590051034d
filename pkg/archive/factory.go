package archive

import (
	"context"
	"fmt"
)

// Driver names an archive backend.
type Driver string

const (
	DriverS3  Driver = "s3"
	DriverGCS Driver = "gcs"
)

// Archiver uploads a verified ledger snapshot off-site. Every backend
// refuses to archive a snapshot that fails either tamper check.
type Archiver interface {
	Archive(ctx context.Context, ledgerPath, digestPath string) (*Manifest, error)
}

// Config selects and configures the archive backend.
type Config struct {
	Driver Driver
	Bucket string
	Region string // S3 only
	Prefix string
}

// New creates the archiver named by cfg.Driver. An empty driver selects
// S3. The GCS backend is compiled in only with the gcp build tag.
func New(ctx context.Context, cfg Config) (Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}

	switch cfg.Driver {
	case DriverS3, "":
		return NewS3Archiver(ctx, S3Config{
			Bucket: cfg.Bucket,
			Region: cfg.Region,
			Prefix: cfg.Prefix,
		})
	case DriverGCS:
		return newGCSArchiverFromConfig(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported archive driver: %s", cfg.Driver)
	}
}
