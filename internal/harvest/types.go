// Package harvest implements the checkpointed Telegram archive walk that
// collects telemetry links for a (channel, search term) identity.
package harvest

import (
	"time"
)

// Status is the lifecycle state persisted in the flags file.
type Status string

// Persisted status values.
const (
	StatusIdle       Status = "idle"
	StatusInProgress Status = "in_progress"
)

// ResumeStrategy names the rule that selected the run's starting cursor.
type ResumeStrategy string

// Resume strategies, evaluated once at run start.
const (
	ResumeUnfinished ResumeStrategy = "resume_unfinished"
	ContinueArchive  ResumeStrategy = "continue_archive"
	FirstRun         ResumeStrategy = "first_run"
)

// Cursor identifies a position in the channel's total order. The id is the
// true order; message timestamps are not unique at sub-second resolution, so
// the timestamp rides along for humans only.
type Cursor struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
}

// CursorFor builds a Cursor from an observed archive entry.
func CursorFor(e Entry) Cursor {
	return Cursor{
		ID:        e.ID,
		Timestamp: e.Date.UTC().Format(time.RFC3339),
	}
}

// Entry is one archive message as exposed by the transport.
type Entry struct {
	ID         int64
	Date       time.Time
	Text       string
	ButtonURLs []string
}

// Record is one collected telemetry link handed to the downstream consumer.
type Record struct {
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
	EntryID   int64  `json:"entry_id"`
}

// RunMeta captures the parameters and timing of the most recent run.
type RunMeta struct {
	Channel    string         `json:"channel"`
	SearchTerm string         `json:"search_term"`
	BatchSize  int            `json:"batch_size"`
	MaxRecords int            `json:"max_records"`
	RunReason  ResumeStrategy `json:"run_reason"`
	StartedAt  string         `json:"started_at"`
	FinishedAt string         `json:"finished_at,omitempty"`
	Collected  int            `json:"collected"`
}

// State is the sole persisted aggregate: status plus the three named cursors.
//
//   - StartFlag: newest message observed when the last run began.
//   - MiddleFlag: last position fully scanned; the safe resume point. Updated
//     only after a batch completes, never mid-batch.
//   - EndFlag: oldest collected message; the continuation point for the next
//     run. Moves strictly older across collected entries.
type State struct {
	Version    int      `json:"version"`
	Status     Status   `json:"status"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
	StartFlag  *Cursor  `json:"start_flag"`
	MiddleFlag *Cursor  `json:"middle_flag"`
	EndFlag    *Cursor  `json:"end_flag"`
	LastRun    *string  `json:"last_run"`
	Meta       *RunMeta `json:"meta,omitempty"`
}

// NewState returns the default state for an identity that has never run.
func NewState(now time.Time) *State {
	iso := now.UTC().Format(time.RFC3339)
	return &State{
		Version:   1,
		Status:    StatusIdle,
		CreatedAt: iso,
		UpdatedAt: iso,
	}
}

// Clone deep-copies the state so stores can hand out independent values.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.StartFlag = cloneCursor(s.StartFlag)
	out.MiddleFlag = cloneCursor(s.MiddleFlag)
	out.EndFlag = cloneCursor(s.EndFlag)
	if s.LastRun != nil {
		lr := *s.LastRun
		out.LastRun = &lr
	}
	if s.Meta != nil {
		meta := *s.Meta
		out.Meta = &meta
	}
	return &out
}

func cloneCursor(c *Cursor) *Cursor {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// ChannelInfo is the canonical identity of a resolved channel.
type ChannelInfo struct {
	Username string
	Title    string
}
