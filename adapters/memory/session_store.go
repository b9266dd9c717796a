package memory

import (
	"context"
	"sync"
	"time"

	"regdash/domain/core"
	"regdash/domain/dashboard"
	"regdash/internal/errors"
	"regdash/ports"
)

// SessionStore implements ports.SessionStore in process memory. Sessions idle
// for longer than the TTL are dropped by Sweep.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*dashboard.State
	ttl      time.Duration
	now      func() time.Time
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates an empty store. ttl <= 0 disables expiry.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[core.SessionID]*dashboard.State),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create stores a new session
func (s *SessionStore) Create(ctx context.Context, state *dashboard.State) error {
	if state == nil || state.ID == "" {
		return errors.InvalidInput("session state requires an ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[state.ID]; exists {
		return errors.InvalidInput("session " + state.ID.String() + " already exists")
	}
	stored := state.Clone()
	stored.UpdatedAt = s.now()
	s.sessions[state.ID] = stored
	return nil
}

// Get returns a copy of the session
func (s *SessionStore) Get(ctx context.Context, id core.SessionID) (*dashboard.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[id]
	if !ok {
		return nil, errors.NotFound("session " + id.String())
	}
	return state.Clone(), nil
}

// Update runs fn against a working copy and stores it when fn succeeds
func (s *SessionStore) Update(ctx context.Context, id core.SessionID, fn func(*dashboard.State) error) (*dashboard.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[id]
	if !ok {
		return nil, errors.NotFound("session " + id.String())
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.ID = id
	working.UpdatedAt = s.now()
	s.sessions[id] = working
	return working.Clone(), nil
}

// Delete removes a session; missing sessions are not an error
func (s *SessionStore) Delete(ctx context.Context, id core.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Len reports the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops idle sessions and reports how many were removed. Sessions with
// insight generation in flight are kept.
func (s *SessionStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, state := range s.sessions {
		if state.UpdatedAt.Before(cutoff) && !state.InsightsPending {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done
func (s *SessionStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
