// Package checkpoint persists harvester state as one JSON flags file per
// (channel, search term) identity.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/harvest"
)

// ErrCorrupt marks an unreadable or unparsable state file. This is fatal for
// the identity: guessing a starting cursor risks duplicate collection or
// ordering violations, so the store never silently resets to defaults.
var ErrCorrupt = errors.New("corrupt harvest state file")

// FileStore is a durable, crash-safe harvest.CheckpointStore backed by a
// single JSON file. Saves go through a temp file and an atomic rename, so a
// reader never observes a truncated state. It provides no locking: at most
// one harvester per identity may run at a time.
type FileStore struct {
	path  string
	clock harvest.Clock
}

// NewFileStore returns a store persisting to path.
func NewFileStore(path string, clock harvest.Clock) *FileStore {
	if clock == nil {
		clock = systemClock{}
	}
	return &FileStore{path: path, clock: clock}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Path returns the state file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the persisted state, or returns a fresh default state when the
// file does not exist yet. Anything unreadable or unparsable is ErrCorrupt.
func (s *FileStore) Load() (*harvest.State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return harvest.NewState(s.clock.Now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrCorrupt, s.path, err)
	}

	var state harvest.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrCorrupt, s.path, err)
	}
	if state.Version == 0 {
		return nil, fmt.Errorf("%w: %s: missing version", ErrCorrupt, s.path)
	}
	switch state.Status {
	case harvest.StatusIdle, harvest.StatusInProgress:
	default:
		return nil, fmt.Errorf("%w: %s: unknown status %q", ErrCorrupt, s.path, state.Status)
	}
	return &state, nil
}

// Save atomically overwrites the state file, refreshing updated_at.
func (s *FileStore) Save(state *harvest.State) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create state dir %s: %w", dir, err)
	}

	state.UpdatedAt = s.clock.Now().UTC().Format(time.RFC3339)
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write temp state %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state %s: %w", s.path, err)
	}
	return nil
}

// StatePath builds the deterministic, filesystem-safe file name for a
// (channel, search term) identity under dir.
func StatePath(dir, channel, searchTerm string) string {
	safe := sanitizeIdentity(channel + "_" + searchTerm)
	return filepath.Join(dir, "flags_"+safe+".json")
}

func sanitizeIdentity(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '.' || r == ' ':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
