/*
session.go - Wizard session lifetime

PURPOSE:
  A Session owns one draft store and one auto-save scheduler for the lifetime
  of a single wizard run, and tears both down together. There is no
  module-level mutable state: timers and dirty flags live inside the session
  and die with it.

SEE ALSO:
  - api/sessions.go: HTTP-facing registry of live sessions
*/
package draft

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session binds a draft store to its auto-save scheduler.
type Session struct {
	ID        string
	Store     *Store
	Scheduler *Scheduler
	CreatedAt time.Time

	closeOnce sync.Once
}

// NewSession creates a session with a fresh empty draft and wires the
// store's change notifications into the scheduler's debounce window.
func NewSession(sink SaveSink, opts ...SchedulerOption) *Session {
	id := uuid.NewString()
	store := NewStore()
	sched := NewScheduler(id, store, sink, opts...)
	store.SetOnChange(sched.Notify)
	return &Session{
		ID:        id,
		Store:     store,
		Scheduler: sched,
		CreatedAt: time.Now().UTC(),
	}
}

// Close tears the session down: the pending auto-save timer is cancelled
// without saving. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.Scheduler.Stop()
	})
}
