package records_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/records"
)

func TestMemoryProvider_SaveAndSeen(t *testing.T) {
	t.Parallel()

	m := records.NewMemoryProvider()
	ctx := context.Background()

	rec := testRecord()
	require.NoError(t, m.Save(ctx, rec))

	seen, err := m.Seen(ctx, rec.Channel, rec.URL)
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = m.Seen(ctx, rec.Channel, "https://tinygs.com/packet/9999")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = m.Seen(ctx, "some_other_channel", rec.URL)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryProvider_DuplicateEntryKeptOnce(t *testing.T) {
	t.Parallel()

	m := records.NewMemoryProvider()
	ctx := context.Background()

	rec := testRecord()
	require.NoError(t, m.Save(ctx, rec))
	require.NoError(t, m.Save(ctx, rec))

	assert.Len(t, m.Rows(), 1)
}
