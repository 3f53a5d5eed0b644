// Package records persists collected telemetry links across runs and backs
// the cross-run URL de-duplication hook.
package records

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/harvest"
)

// Record is one stored telemetry link row.
type Record struct {
	ID          uuid.UUID
	Channel     string
	SearchTerm  string
	URL         string
	EntryID     int64
	EntryAt     time.Time
	CollectedAt time.Time
}

// FromHarvest converts a harvester record into a row for persistence.
func FromHarvest(channel, searchTerm string, rec harvest.Record, collectedAt time.Time) Record {
	entryAt, err := time.Parse(time.RFC3339, rec.Timestamp)
	if err != nil {
		entryAt = collectedAt
	}
	return Record{
		ID:          uuid.New(),
		Channel:     channel,
		SearchTerm:  searchTerm,
		URL:         rec.URL,
		EntryID:     rec.EntryID,
		EntryAt:     entryAt,
		CollectedAt: collectedAt,
	}
}

// Provider stores collected records. Seen doubles as the harvester's
// harvest.Deduper hook.
type Provider interface {
	// Save inserts the record; saving the same (channel, entry id) twice is
	// a no-op.
	Save(ctx context.Context, rec Record) error
	// Seen reports whether a URL was already collected for the channel in
	// any prior run.
	Seen(ctx context.Context, channel, url string) (bool, error)
	// Close releases underlying resources.
	Close()
}

// NoOpProvider discards records and never reports a URL as seen. Useful for
// dry runs without a database.
type NoOpProvider struct{}

// Save discards the record.
func (NoOpProvider) Save(_ context.Context, _ Record) error { return nil }

// Seen always reports false.
func (NoOpProvider) Seen(_ context.Context, _, _ string) (bool, error) { return false, nil }

// Close does nothing.
func (NoOpProvider) Close() {}
