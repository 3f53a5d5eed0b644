// Package publisher pushes collected-record events to downstream consumers.
package publisher

import (
	"context"
)

// RecordEvent is the payload published for each collected record.
type RecordEvent struct {
	Channel    string `json:"channel"`
	SearchTerm string `json:"search_term"`
	URL        string `json:"url"`
	EntryID    int64  `json:"entry_id"`
	Timestamp  string `json:"timestamp"`
}

// Provider publishes record events.
type Provider interface {
	Publish(ctx context.Context, evt RecordEvent) error
	Close() error
}

// NoOpProvider discards events.
type NoOpProvider struct{}

// Publish does nothing.
func (NoOpProvider) Publish(_ context.Context, _ RecordEvent) error { return nil }

// Close does nothing.
func (NoOpProvider) Close() error { return nil }
