package publisher

import (
	"context"
	"sync"
)

// MemoryProvider records events in memory; test double.
type MemoryProvider struct {
	mu     sync.Mutex
	events []RecordEvent
}

// NewMemoryProvider returns an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{}
}

// Publish appends the event.
func (m *MemoryProvider) Publish(_ context.Context, evt RecordEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

// Events returns a copy of the published events.
func (m *MemoryProvider) Events() []RecordEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Close does nothing.
func (m *MemoryProvider) Close() error { return nil }
