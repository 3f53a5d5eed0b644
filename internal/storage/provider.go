// Package storage defines the blob storage provider used for run snapshots
// and scraped packet payloads. The abstraction keeps the application
// independent of a specific backend (GCS, local filesystem, none).
package storage

import (
	"context"
)

// Provider saves a named blob.
type Provider interface {
	// Save uploads data under objectName and returns the stored location.
	Save(ctx context.Context, objectName string, data []byte) (string, error)
}

// NoOpProvider discards blobs; useful for dry runs.
type NoOpProvider struct{}

// Save does nothing and reports a placeholder location.
func (NoOpProvider) Save(_ context.Context, objectName string, _ []byte) (string, error) {
	return "noop://" + objectName, nil
}
