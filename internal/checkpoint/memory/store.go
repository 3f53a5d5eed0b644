// Package memory provides an in-memory checkpoint store for tests and
// dry runs.
package memory

import (
	"sync"
	"time"

	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/harvest"
)

// Store is an in-memory harvest.CheckpointStore. Load and Save exchange deep
// copies, so callers can mutate the returned state without affecting the
// stored value. Error fields let tests inject failures.
type Store struct {
	mu    sync.Mutex
	state *harvest.State
	saves int

	// LoadErr/SaveErr, when set, are returned by the next Load/Save.
	LoadErr error
	SaveErr error
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Load returns a copy of the stored state, or a fresh default state when
// nothing has been saved yet.
func (s *Store) Load() (*harvest.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	if s.state == nil {
		return harvest.NewState(time.Now()), nil
	}
	return s.state.Clone(), nil
}

// Save stores a copy of state and refreshes updated_at.
func (s *Store) Save(state *harvest.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	state.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	s.state = state.Clone()
	s.saves++
	return nil
}

// Seed replaces the stored state, bypassing Save bookkeeping.
func (s *Store) Seed(state *harvest.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
}

// Current returns a copy of the stored state, or nil.
func (s *Store) Current() *harvest.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Saves reports how many times Save succeeded.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
