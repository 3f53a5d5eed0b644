package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProvider_SaveWritesNestedObjects(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p, err := NewLocalProvider(dir)
	require.NoError(t, err)

	uri, err := p.Save(context.Background(), "processed/1200.txt", []byte("TinyGS packet page"))
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.Join(dir, "processed", "1200.txt"), uri)

	data, err := os.ReadFile(filepath.Join(dir, "processed", "1200.txt"))
	require.NoError(t, err)
	assert.Equal(t, "TinyGS packet page", string(data))
}

func TestLocalProvider_RequiresBaseDir(t *testing.T) {
	t.Parallel()

	_, err := NewLocalProvider("")
	require.Error(t, err)
}

func TestLocalProvider_SaveCancelledContext(t *testing.T) {
	t.Parallel()

	p, err := NewLocalProvider(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Save(ctx, "x.txt", []byte("data"))
	require.Error(t, err)
}

func TestNoOpProvider_Save(t *testing.T) {
	t.Parallel()

	uri, err := NoOpProvider{}.Save(context.Background(), "anything.json", []byte("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "noop://anything.json", uri)
}
