package harvest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamaroma/SpacePi-PolytechUniversity/internal/metrics"
)

// Params are the per-run knobs for one harvest.
type Params struct {
	Channel    string
	SearchTerm string
	MaxRecords int
	BatchSize  int
}

const (
	defaultMaxRecords = 10
	defaultBatchSize  = 99
)

func (p *Params) validate() error {
	if p.Channel == "" {
		return fmt.Errorf("channel is required")
	}
	if p.SearchTerm == "" {
		return fmt.Errorf("search term is required")
	}
	if p.MaxRecords <= 0 {
		p.MaxRecords = defaultMaxRecords
	}
	if p.BatchSize <= 0 {
		p.BatchSize = defaultBatchSize
	}
	return nil
}

// Result is handed to the downstream consumer at run end. Records are in
// scan order, newest-to-oldest.
type Result struct {
	Channel ChannelInfo
	Reason  ResumeStrategy
	Records []Record
}

// Harvester drives the fetch/filter/checkpoint loop for one identity. It is
// single-threaded: one outstanding remote read at a time, no internal locks.
// Callers must serialize runs per (channel, search term) identity; the
// checkpoint store provides no cross-process mutual exclusion.
type Harvester struct {
	archive Archive
	store   CheckpointStore
	policy  ReconnectPolicy
	dedup   Deduper
	clock   Clock
	logger  *zap.Logger
}

// New constructs a Harvester. dedup may be nil (no cross-run de-duplication);
// clock and logger fall back to wall time and a no-op logger.
func New(
	archive Archive,
	store CheckpointStore,
	policy ReconnectPolicy,
	dedup Deduper,
	clock Clock,
	logger *zap.Logger,
) *Harvester {
	if clock == nil {
		clock = wallClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harvester{
		archive: archive,
		store:   store,
		policy:  policy,
		dedup:   dedup,
		clock:   clock,
		logger:  logger,
	}
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Run executes one harvest: resolve the channel, pick a resume strategy from
// the persisted flags, walk the archive in batches, and collect up to
// MaxRecords qualifying entries. The walk checkpoints after every scanned
// batch, so a crash re-scans at most one batch and never skips history.
func (h *Harvester) Run(ctx context.Context, p Params) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	metrics.Init()

	log := h.logger.With(
		zap.String("channel", p.Channel),
		zap.String("search_term", p.SearchTerm),
	)

	info, err := h.archive.ResolveChannel(ctx, p.Channel)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIdentityUnresolved, p.Channel, err)
	}
	log.Info("channel resolved",
		zap.String("username", info.Username),
		zap.String("title", info.Title),
	)

	state, err := h.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load harvest state: %w", err)
	}

	session, err := h.openSession(ctx, p.Channel, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("session close failed", zap.Error(cerr))
		}
	}()

	latest, err := h.latestCursor(ctx, session, p.Channel, log)
	if err != nil {
		return nil, err
	}

	cursor, reason := selectResume(state)
	started := h.clock.Now()

	state.Status = StatusInProgress
	state.Meta = &RunMeta{
		Channel:    p.Channel,
		SearchTerm: p.SearchTerm,
		BatchSize:  p.BatchSize,
		MaxRecords: p.MaxRecords,
		RunReason:  reason,
		StartedAt:  started.UTC().Format(time.RFC3339),
	}
	if latest != nil {
		state.StartFlag = cloneCursor(latest)
	}
	if cursor != nil {
		state.MiddleFlag = cloneCursor(cursor)
	}
	if err := h.store.Save(state); err != nil {
		return nil, fmt.Errorf("persist run start: %w", err)
	}

	metrics.RecordRunStart(p.Channel, string(reason))
	log.Info("run started",
		zap.String("reason", string(reason)),
		zap.Int("max_records", p.MaxRecords),
		zap.Int("batch_size", p.BatchSize),
	)

	extractor := NewExtractor(p.SearchTerm, p.Channel)
	collected := make([]Record, 0, p.MaxRecords)
	attempt := 0

	for len(collected) < p.MaxRecords {
		entries, err := session.FetchPage(ctx, cursor, p.BatchSize)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			metrics.RecordTransportError(p.Channel)
			attempt++
			if !h.policy.ShouldRetry(attempt) {
				return nil, fmt.Errorf("%w after %d attempts: %v", ErrTransportGaveUp, attempt, err)
			}
			log.Warn("archive read failed, resuming from middle flag",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if serr := sleep(ctx, h.policy.Delay()); serr != nil {
				return nil, serr
			}
			// Defensive reload: trust the persisted flags over memory in case
			// another process moved them while we were disconnected.
			fresh, lerr := h.store.Load()
			if lerr != nil {
				return nil, fmt.Errorf("reload harvest state: %w", lerr)
			}
			state = fresh
			if state.MiddleFlag != nil {
				cursor = cloneCursor(state.MiddleFlag)
			}
			continue
		}
		attempt = 0
		metrics.RecordBatch(p.Channel, len(entries))

		if len(entries) == 0 {
			log.Info("archive exhausted", zap.Int("collected", len(collected)))
			break
		}
		log.Debug("batch fetched",
			zap.Int("got", len(entries)),
			zap.Int64("newest_id", entries[0].ID),
			zap.Int64("oldest_id", entries[len(entries)-1].ID),
			zap.Int("collected", len(collected)),
		)

		var last *Cursor
		for i := range entries {
			c := CursorFor(entries[i])
			last = &c

			rec, ok := extractor.Extract(entries[i])
			if !ok {
				continue
			}
			if h.dedup != nil {
				seen, derr := h.dedup.Seen(ctx, p.Channel, rec.URL)
				if derr != nil {
					log.Warn("dedup lookup failed, keeping record", zap.Error(derr))
				} else if seen {
					metrics.RecordDedupSkip(p.Channel)
					log.Debug("record already collected in a prior run",
						zap.String("url", rec.URL),
						zap.Int64("entry_id", rec.EntryID),
					)
					continue
				}
			}

			collected = append(collected, rec)
			metrics.RecordCollected(p.Channel)
			end := CursorFor(entries[i])
			state.EndFlag = &end

			if len(collected) >= p.MaxRecords {
				break
			}
		}

		// The crash-safety checkpoint: middle flag moves only after the batch
		// is scanned, so a crash re-scans at most this one batch.
		cursor = last
		state.MiddleFlag = cloneCursor(last)
		if err := h.store.Save(state); err != nil {
			return nil, fmt.Errorf("persist checkpoint: %w", err)
		}

		// A full batch means more history plausibly remains; cycle the
		// connection to stay under provider long-connection limits. A short
		// batch means the archive is nearly exhausted and reconnecting would
		// only add latency.
		if len(entries) >= p.BatchSize && len(collected) < p.MaxRecords {
			metrics.RecordReconnect(p.Channel)
			if serr := sleep(ctx, h.policy.Delay()); serr != nil {
				return nil, serr
			}
			if rerr := session.Reconnect(ctx); rerr != nil {
				// The next fetch goes through the retry policy anyway.
				log.Warn("proactive reconnect failed", zap.Error(rerr))
			}
		}
	}

	finished := h.clock.Now()
	finishedISO := finished.UTC().Format(time.RFC3339)
	state.Status = StatusIdle
	// A mid-run reload may have handed us a state written by something that
	// never records run meta; rebuild it rather than dereferencing nil.
	if state.Meta == nil {
		state.Meta = &RunMeta{
			Channel:    p.Channel,
			SearchTerm: p.SearchTerm,
			BatchSize:  p.BatchSize,
			MaxRecords: p.MaxRecords,
			RunReason:  reason,
			StartedAt:  started.UTC().Format(time.RFC3339),
		}
	}
	state.Meta.FinishedAt = finishedISO
	state.Meta.Collected = len(collected)
	state.LastRun = &finishedISO
	if err := h.store.Save(state); err != nil {
		return nil, fmt.Errorf("persist run end: %w", err)
	}

	metrics.ObserveRunDuration(p.Channel, finished.Sub(started))
	log.Info("run finished",
		zap.Int("collected", len(collected)),
		zap.String("reason", string(reason)),
	)

	return &Result{Channel: info, Reason: reason, Records: collected}, nil
}

// selectResume applies the resume table against the loaded state:
// an unfinished run resumes from the middle flag, a completed run continues
// the archive walk from the end flag, anything else starts at the newest.
func selectResume(s *State) (*Cursor, ResumeStrategy) {
	switch {
	case s.Status == StatusInProgress && s.MiddleFlag != nil:
		return cloneCursor(s.MiddleFlag), ResumeUnfinished
	case s.Status == StatusIdle && s.EndFlag != nil:
		return cloneCursor(s.EndFlag), ContinueArchive
	default:
		return nil, FirstRun
	}
}

func (h *Harvester) openSession(ctx context.Context, channel string, log *zap.Logger) (Session, error) {
	attempt := 0
	for {
		session, err := h.archive.Open(ctx, channel)
		if err == nil {
			return session, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.RecordTransportError(channel)
		attempt++
		if !h.policy.ShouldRetry(attempt) {
			return nil, fmt.Errorf("%w: connect after %d attempts: %v", ErrTransportGaveUp, attempt, err)
		}
		log.Warn("archive connect failed", zap.Int("attempt", attempt), zap.Error(err))
		if serr := sleep(ctx, h.policy.Delay()); serr != nil {
			return nil, serr
		}
	}
}

// latestCursor records the newest entry as the run's informational
// high-water mark. An empty archive yields a nil cursor.
func (h *Harvester) latestCursor(ctx context.Context, session Session, channel string, log *zap.Logger) (*Cursor, error) {
	attempt := 0
	for {
		entries, err := session.FetchPage(ctx, nil, 1)
		if err == nil {
			if len(entries) == 0 {
				return nil, nil
			}
			c := CursorFor(entries[0])
			return &c, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.RecordTransportError(channel)
		attempt++
		if !h.policy.ShouldRetry(attempt) {
			return nil, fmt.Errorf("%w: head read after %d attempts: %v", ErrTransportGaveUp, attempt, err)
		}
		log.Warn("head read failed", zap.Int("attempt", attempt), zap.Error(err))
		if serr := sleep(ctx, h.policy.Delay()); serr != nil {
			return nil, serr
		}
	}
}
