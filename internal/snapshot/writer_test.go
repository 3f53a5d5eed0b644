package snapshot

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/harvest"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/storage"
)

func TestWriter_Write(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryProvider()
	w := NewWriter(store, nil)

	day := time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)
	recs := []harvest.Record{
		{URL: "https://tinygs.com/packet/1100", Timestamp: "2025-03-01T11:00:00Z", EntryID: 1100},
		{URL: "https://tinygs.com/packet/1249", Timestamp: "2025-03-01T14:00:00Z", EntryID: 1249},
	}

	paths, err := w.Write(context.Background(), "Polytech_Universe-5", day, recs)
	require.NoError(t, err)
	assert.Contains(t, paths.Text, "Polytech_Universe-5_2025-03-02.txt")
	assert.Contains(t, paths.JSON, "Polytech_Universe-5_2025-03-02.json")

	text, ok := store.Get("Polytech_Universe-5_2025-03-02.txt")
	require.True(t, ok)
	assert.Equal(t,
		"https://tinygs.com/packet/1249 2025-03-01 14:00 1249\n"+
			"https://tinygs.com/packet/1100 2025-03-01 11:00 1100\n",
		string(text),
	)

	raw, ok := store.Get("Polytech_Universe-5_2025-03-02.json")
	require.True(t, ok)
	var entries []Entry
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 2)
	// Newest entry first, regardless of input order.
	assert.Equal(t, int64(1249), entries[0].EntryID)
	assert.Equal(t, "2025-03-01 14:00", entries[0].Date)
	assert.Equal(t, int64(1100), entries[1].EntryID)
}

func TestWriter_WriteLogsOncePerSnapshot(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	w := NewWriter(storage.NewMemoryProvider(), zap.New(core))

	_, err := w.Write(context.Background(), "Polytech_Universe-5", time.Now(), []harvest.Record{
		{URL: "https://tinygs.com/packet/1249", Timestamp: "2025-03-01T14:00:00Z", EntryID: 1249},
	})
	require.NoError(t, err)

	written := logs.FilterMessage("snapshot written").All()
	require.Len(t, written, 1)
	assert.Equal(t, int64(1), written[0].ContextMap()["records"])
}

func TestWriter_WriteEmptyRun(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryProvider()
	w := NewWriter(store, nil)

	_, err := w.Write(context.Background(), "Polytech_Universe-5", time.Now(), nil)
	require.NoError(t, err)

	raw, ok := store.Get("Polytech_Universe-5_" + time.Now().Format("2006-01-02") + ".json")
	require.True(t, ok)
	assert.Equal(t, "[]", string(raw))
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a_b_c_d", sanitizeFilename(`a/b:c?d`))
	assert.Equal(t, "Polytech_Universe-5", sanitizeFilename("Polytech_Universe-5"))
}

func TestHumanDate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2025-03-01 13:00", humanDate("2025-03-01T13:00:00Z"))
	assert.Equal(t, "not-a-date", humanDate("not-a-date"))
}
