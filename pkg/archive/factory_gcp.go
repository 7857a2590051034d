//go:build gcp

package archive

import "context"

func newGCSArchiverFromConfig(ctx context.Context, cfg Config) (Archiver, error) {
	return NewGCSArchiver(ctx, GCSConfig{
		Bucket: cfg.Bucket,
		Prefix: cfg.Prefix,
	})
}
