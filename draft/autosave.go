/*
autosave.go - Debounced, snapshot-deduplicated persistence trigger

PURPOSE:
  Watches the draft store's dirty transitions and persists the draft through
  a pluggable SaveSink after a quiet period. A burst of mutations inside the
  debounce window produces exactly one save, reflecting only the final state
  ("last write wins").

DEDUPLICATION:
  When the timer fires, the snapshot is fingerprinted (draft + current step;
  timestamp and version are excluded, otherwise every snapshot would look
  new) and compared against the last fingerprint actually persisted. An
  unchanged fingerprint is a no-op.

LIFECYCLE:
  The scheduler is owned by one wizard session and torn down with it. Stop
  cancels any pending timer WITHOUT saving - navigating away with unsaved
  changes is a user-confirmed discard, not a flush.

SEE ALSO:
  - store.go: Fires Notify via the store's change callback
  - session.go: Ownership and teardown
  - store/sqlite: Production SaveSink
*/
package draft

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// DefaultAutoSaveDelay is the debounce window between the last mutation and
// the save attempt.
const DefaultAutoSaveDelay = 30 * time.Second

// Snapshot is what the scheduler hands to the sink.
type Snapshot struct {
	SessionID   string      `json:"session_id"`
	Draft       WizardDraft `json:"draft"`
	CurrentStep Step        `json:"current_step"`
	Timestamp   time.Time   `json:"timestamp"`
	Version     int         `json:"version"`
}

// SaveSink receives draft snapshots. Implementations must tolerate being
// called from a timer goroutine.
type SaveSink interface {
	Save(ctx context.Context, snap Snapshot) error
}

// Scheduler debounces draft mutations into snapshot saves.
type Scheduler struct {
	mu        sync.Mutex
	sessionID string
	store     *Store
	sink      SaveSink
	delay     time.Duration
	logger    *slog.Logger

	timer     *time.Timer
	lastSaved string // fingerprint of the last snapshot actually persisted
	version   int
	step      Step
	stopped   bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithDelay overrides the debounce window (tests use millisecond delays).
func WithDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.delay = d }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler builds a scheduler for one session's store and sink. The
// caller wires store.SetOnChange(sched.Notify).
func NewScheduler(sessionID string, store *Store, sink SaveSink, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		sessionID: sessionID,
		store:     store,
		sink:      sink,
		delay:     DefaultAutoSaveDelay,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify restarts the debounce window. Called on every dirty transition or
// draft change while already dirty; only the trailing state is ever saved.
func (s *Scheduler) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fire)
}

// SetStep records the wizard step included in snapshots. Step navigation
// cancels any pending timer without saving.
func (s *Scheduler) SetStep(step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Stop cancels any pending timer without saving. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Flush saves immediately, bypassing the debounce but not the fingerprint
// dedup. Used before submit so the sink holds the final state.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return s.save(ctx)
}

func (s *Scheduler) fire() {
	if err := s.save(context.Background()); err != nil {
		s.logger.Warn("auto-save failed", "session", s.sessionID, "err", err)
	}
}

func (s *Scheduler) save(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	snap := Snapshot{
		SessionID:   s.sessionID,
		Draft:       s.store.Draft(),
		CurrentStep: s.step,
		Timestamp:   time.Now().UTC(),
		Version:     s.version + 1,
	}
	fp := fingerprint(snap)
	if fp == s.lastSaved {
		s.mu.Unlock()
		return nil
	}
	s.version = snap.Version
	s.mu.Unlock()

	if err := s.sink.Save(ctx, snap); err != nil {
		return err
	}

	s.mu.Lock()
	s.lastSaved = fp
	s.mu.Unlock()
	s.logger.Debug("auto-saved draft", "session", s.sessionID, "version", snap.Version)
	return nil
}

// fingerprint serializes the parts of the snapshot that constitute "the same
// state": draft and step. Timestamp and version are bookkeeping and would
// defeat deduplication.
func fingerprint(snap Snapshot) string {
	b, err := json.Marshal(struct {
		Draft WizardDraft `json:"draft"`
		Step  Step        `json:"step"`
	}{snap.Draft, snap.CurrentStep})
	if err != nil {
		return ""
	}
	return string(b)
}

// =============================================================================
// MEMORY SINK - For tests and the stubbed persistence mode
// =============================================================================

// MemorySink records snapshots in memory.
type MemorySink struct {
	mu    sync.Mutex
	saves []Snapshot
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, snap)
	return nil
}

// Saves returns a copy of everything persisted so far.
func (m *MemorySink) Saves() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Snapshot{}, m.saves...)
}
