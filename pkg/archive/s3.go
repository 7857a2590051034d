package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rupesh-3/jandhan/pkg/ledger"
)

// S3Config holds configuration for the S3 archiver.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // optional, for MinIO/LocalStack
	Prefix   string // optional key prefix, e.g. "ledger/"
}

// S3Archiver uploads ledger snapshots to S3.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
	clock  func() time.Time
}

// NewS3Archiver creates an archiver using the default AWS credential chain.
func NewS3Archiver(ctx context.Context, cfg S3Config) (*S3Archiver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	clientOpts := func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}

	return &S3Archiver{
		client: s3.NewFromConfig(awsCfg, clientOpts),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		clock:  time.Now,
	}, nil
}

// Archive uploads the ledger file, its digest side file, and a canonical
// manifest. It inspects the pair first and refuses to archive a snapshot
// that fails either tamper check, so the off-site trail only ever holds
// verified states.
func (a *S3Archiver) Archive(ctx context.Context, ledgerPath, digestPath string) (*Manifest, error) {
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
	manifestHash, err := manifest.Hash()
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
		_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:   aws.String(a.bucket),
			Key:      aws.String(u.key),
			Body:     bytes.NewReader(u.body),
			Metadata: map[string]string{"manifest-hash": manifestHash},
		})
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", u.key, err)
		}
	}

	return manifest, nil
}
