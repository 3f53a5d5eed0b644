// Package snapshot renders a run's collected records into the daily txt and
// json snapshot files consumed by the downstream scraping tools.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/harvest"
	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/storage"
)

var unsafeFilename = regexp.MustCompile(`[\\/*?:"<>|]`)

// Entry is one row of the json snapshot.
type Entry struct {
	URL     string `json:"url"`
	Date    string `json:"date"`
	EntryID int64  `json:"entry_id"`
}

// Paths reports where the two snapshot blobs were stored.
type Paths struct {
	Text string
	JSON string
}

// Writer persists snapshots through a blob provider.
type Writer struct {
	store  storage.Provider
	logger *zap.Logger
}

// NewWriter builds a Writer.
func NewWriter(store storage.Provider, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{store: store, logger: logger}
}

// Write renders records newest-to-oldest by entry id into
// "<term>_<day>.txt" and "<term>_<day>.json" and saves both blobs.
func (w *Writer) Write(ctx context.Context, searchTerm string, day time.Time, recs []harvest.Record) (Paths, error) {
	sorted := make([]harvest.Record, len(recs))
	copy(sorted, recs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].EntryID > sorted[j].EntryID })

	base := fmt.Sprintf("%s_%s", sanitizeFilename(searchTerm), day.Format("2006-01-02"))

	var text strings.Builder
	entries := make([]Entry, 0, len(sorted))
	for _, rec := range sorted {
		human := humanDate(rec.Timestamp)
		fmt.Fprintf(&text, "%s %s %d\n", rec.URL, human, rec.EntryID)
		entries = append(entries, Entry{URL: rec.URL, Date: human, EntryID: rec.EntryID})
	}

	payload, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return Paths{}, fmt.Errorf("marshal snapshot: %w", err)
	}

	var paths Paths
	if paths.Text, err = w.store.Save(ctx, base+".txt", []byte(text.String())); err != nil {
		return Paths{}, fmt.Errorf("save text snapshot: %w", err)
	}
	if paths.JSON, err = w.store.Save(ctx, base+".json", payload); err != nil {
		return Paths{}, fmt.Errorf("save json snapshot: %w", err)
	}

	w.logger.Info("snapshot written",
		zap.String("text", paths.Text),
		zap.String("json", paths.JSON),
		zap.Int("records", len(sorted)),
	)
	return paths, nil
}

// humanDate shortens an RFC3339 timestamp to "2006-01-02 15:04"; anything
// unparsable passes through untouched.
func humanDate(ts string) string {
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return parsed.Format("2006-01-02 15:04")
}

func sanitizeFilename(name string) string {
	return unsafeFilename.ReplaceAllString(name, "_")
}
