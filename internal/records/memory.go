package records

import (
	"context"
	"sync"
)

// MemoryProvider keeps records in memory. Used in tests and as a single-run
// dedup backend when no database is configured.
type MemoryProvider struct {
	mu   sync.Mutex
	rows []Record
	urls map[string]map[string]struct{}
}

// NewMemoryProvider returns an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{urls: make(map[string]map[string]struct{})}
}

// Save appends the record and indexes its URL.
func (m *MemoryProvider) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Channel == rec.Channel && row.EntryID == rec.EntryID {
			return nil
		}
	}
	m.rows = append(m.rows, rec)
	set, ok := m.urls[rec.Channel]
	if !ok {
		set = make(map[string]struct{})
		m.urls[rec.Channel] = set
	}
	set[rec.URL] = struct{}{}
	return nil
}

// Seen reports whether the URL was saved for the channel.
func (m *MemoryProvider) Seen(_ context.Context, channel, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.urls[channel]
	if !ok {
		return false, nil
	}
	_, seen := set[url]
	return seen, nil
}

// Rows returns a copy of the saved records.
func (m *MemoryProvider) Rows() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.rows))
	copy(out, m.rows)
	return out
}

// Close does nothing.
func (m *MemoryProvider) Close() {}
