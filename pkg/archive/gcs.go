//go:build gcp

package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/storage"

	"github.com/rupesh-3/jandhan/pkg/ledger"
)

// GCSConfig holds configuration for the GCS archiver.
type GCSConfig struct {
	Bucket string
	Prefix string
}

// GCSArchiver uploads ledger snapshots to Google Cloud Storage.
type GCSArchiver struct {
	client *storage.Client
	bucket string
	prefix string
	clock  func() time.Time
}

// NewGCSArchiver creates an archiver using application default credentials.
func NewGCSArchiver(ctx context.Context, cfg GCSConfig) (*GCSArchiver, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSArchiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		clock:  time.Now,
	}, nil
}

// Archive mirrors S3Archiver.Archive for GCS deployments.
func (a *GCSArchiver) Archive(ctx context.Context, ledgerPath, digestPath string) (*Manifest, error) {
	report, err := ledger.Inspect(ledgerPath, digestPath)
	if err != nil {
		return nil, fmt.Errorf("inspect before archive: %w", err)
	}
	if !report.OK() {
		return nil, fmt.Errorf("refusing to archive: %s", report.Reason)
	}

	ledgerBytes, err := os.ReadFile(ledgerPath)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	digestBytes, err := os.ReadFile(digestPath)
	if err != nil {
		return nil, fmt.Errorf("read digest: %w", err)
	}

	now := a.clock().UTC()
	stamp := now.Format("20060102T150405Z")
	ledgerKey := a.prefix + stamp + "/ledger.log"
	digestKey := a.prefix + stamp + "/ledger.log.sha256"
	manifestKey := a.prefix + stamp + "/manifest.json"

	sum := sha256.Sum256(ledgerBytes)
	manifest := newManifest(report.Entries, report.HeadHash, hex.EncodeToString(sum[:]), ledgerKey, digestKey, now)
	manifestBytes, err := manifest.CanonicalBytes()
	if err != nil {
		return nil, err
	}

	uploads := []struct {
		key  string
		body []byte
	}{
		{ledgerKey, ledgerBytes},
		{digestKey, digestBytes},
		{manifestKey, manifestBytes},
	}
	for _, u := range uploads {
		w := a.client.Bucket(a.bucket).Object(u.key).NewWriter(ctx)
		if _, err := w.Write(u.body); err != nil {
			w.Close()
			return nil, fmt.Errorf("upload %s: %w", u.key, err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("finalize %s: %w", u.key, err)
		}
	}

	return manifest, nil
}
