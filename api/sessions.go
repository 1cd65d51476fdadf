/*
sessions.go - Registry of live wizard sessions

PURPOSE:
  Tracks the wizard sessions currently open against this server. Each
  session owns its draft store and auto-save scheduler (see draft/session.go);
  the registry only maps ids to sessions and tears them down on delete.
*/
package api

import (
	"errors"
	"sync"

	"github.com/danielGPGT/tour-ops-saas-app-sub001/draft"
)

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// SessionRegistry holds live sessions keyed by id.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*draft.Session
	sink     draft.SaveSink
	opts     []draft.SchedulerOption
}

// NewSessionRegistry creates a registry. Every session it creates saves
// through sink; opts are forwarded to each session's scheduler.
func NewSessionRegistry(sink draft.SaveSink, opts ...draft.SchedulerOption) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*draft.Session),
		sink:     sink,
		opts:     opts,
	}
}

// Create opens a new wizard session with an empty draft.
func (r *SessionRegistry) Create() *draft.Session {
	sess := draft.NewSession(r.sink, r.opts...)
	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()
	return sess
}

// Get looks up a live session.
func (r *SessionRegistry) Get(id string) (*draft.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete closes and removes a session. The pending auto-save timer is
// cancelled without saving.
func (r *SessionRegistry) Delete(id string) error {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	sess.Close()
	return nil
}

// CloseAll tears down every live session (server shutdown).
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sess := range r.sessions {
		sess.Close()
		delete(r.sessions, id)
	}
}
