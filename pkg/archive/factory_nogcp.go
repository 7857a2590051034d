//go:build !gcp

package archive

import (
	"context"
	"fmt"
)

func newGCSArchiverFromConfig(ctx context.Context, cfg Config) (Archiver, error) {
	return nil, fmt.Errorf("GCS archival is not enabled in this build (use -tags gcp)")
}
