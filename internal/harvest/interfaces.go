package harvest

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors distinguishing "retry later" from "misconfiguration".
var (
	// ErrIdentityUnresolved means the channel could not be resolved to a
	// canonical identity; fatal for the run.
	ErrIdentityUnresolved = errors.New("channel identity unresolved")
	// ErrTransportGaveUp means a bounded reconnect policy exhausted its
	// attempts. The unbounded production policy never returns this.
	ErrTransportGaveUp = errors.New("transport retries exhausted")
)

// Archive is the remote message archive transport.
type Archive interface {
	// ResolveChannel maps a channel name (bare handle, @handle, or t.me URL)
	// to its canonical identity.
	ResolveChannel(ctx context.Context, channel string) (ChannelInfo, error)
	// Open establishes a session against the channel's history.
	Open(ctx context.Context, channel string) (Session, error)
}

// Session is one live connection walking a channel newest-to-oldest.
type Session interface {
	// FetchPage returns up to limit entries strictly older than before,
	// ordered newest-to-oldest. A nil cursor starts from the newest entry.
	// Fewer than limit entries means the archive is exhausted. Transport
	// failures surface to the caller; the session never retries internally.
	FetchPage(ctx context.Context, before *Cursor, limit int) ([]Entry, error)
	// Reconnect tears down and re-establishes the underlying connection.
	Reconnect(ctx context.Context) error
	// Close releases the session.
	Close() error
}

// CheckpointStore persists harvester state durably. Load returns a fresh
// default state when none exists; a corrupt state is an error, never a silent
// reset. Save must be atomic (no partial file visible to a later reader).
type CheckpointStore interface {
	Load() (*State, error)
	Save(state *State) error
}

// Deduper is the optional cross-run de-duplication hook. A nil Deduper means
// no payload-level dedup (cursor monotonicity alone prevents re-scanning).
type Deduper interface {
	Seen(ctx context.Context, channel, url string) (bool, error)
}

// ReconnectPolicy governs retry behavior after transport failures and the
// pause around proactive reconnects.
type ReconnectPolicy interface {
	// ShouldRetry reports whether attempt (1-based) may proceed.
	ShouldRetry(attempt int) bool
	// Delay is the fixed pause before the next attempt or reconnect.
	Delay() time.Duration
}

// Clock abstracts wall time for deterministic tests.
type Clock interface {
	Now() time.Time
}
