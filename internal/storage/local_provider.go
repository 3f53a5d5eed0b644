package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalProvider implements Provider on a local directory.
type LocalProvider struct {
	baseDir string
}

// NewLocalProvider creates the base directory if needed.
func NewLocalProvider(baseDir string) (*LocalProvider, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create blob dir %s: %w", baseDir, err)
	}
	return &LocalProvider{baseDir: baseDir}, nil
}

// Save writes data under baseDir/objectName and returns a file:// URI.
func (l *LocalProvider) Save(ctx context.Context, objectName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := filepath.Join(l.baseDir, filepath.FromSlash(objectName))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fmt.Errorf("create blob subdir for %s: %w", target, err)
	}
	if err := os.WriteFile(target, data, 0o600); err != nil {
		return "", fmt.Errorf("write blob %s: %w", target, err)
	}
	return "file://" + target, nil
}
