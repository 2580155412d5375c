package session

import (
	"context"
	"sync"
	"time"

	"qareport/domain/core"
	"qareport/internal/errors"
	"qareport/internal/logging"
	"qareport/internal/report"
)

type entry struct {
	state   State
	touched time.Time
}

// Store keeps session states in memory until they go unused for the TTL
type Store struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*entry
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates an empty store
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[core.SessionID]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a new session for a report kind
func (s *Store) Create(kind report.Kind) (core.SessionID, State) {
	id := core.NewSessionID()
	state := New(kind)

	s.mu.Lock()
	s.sessions[id] = &entry{state: state, touched: s.now()}
	s.mu.Unlock()
	return id, state
}

// Get returns the state of a live session and refreshes its TTL
func (s *Store) Get(id core.SessionID) (State, error) {
	if id.IsEmpty() {
		return State{}, errors.ValidationError("session ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || s.expired(e) {
		return State{}, errors.NotFound("session " + id.String())
	}
	e.touched = s.now()
	return e.state, nil
}

// Update applies an intent under the store lock. The result replaces the state only
// when fn succeeds; on error the previous state is returned alongside the error.
func (s *Store) Update(id core.SessionID, fn func(State) (State, error)) (State, error) {
	if id.IsEmpty() {
		return State{}, errors.ValidationError("session ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || s.expired(e) {
		return State{}, errors.NotFound("session " + id.String())
	}
	next, err := fn(e.state)
	e.touched = s.now()
	if err != nil {
		return e.state, err
	}
	e.state = next
	return next, nil
}

// Delete drops a session
func (s *Store) Delete(id core.SessionID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of stored sessions, expired ones included until swept
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

var storeLog = logging.New("SessionStore")

// Sweep removes expired sessions and returns how many were removed
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.sessions {
		if s.expired(e) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is cancelled
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := s.Sweep()
			if n > 0 {
				storeLog.Infof("swept %d expired sessions, %d remain", n, s.Len())
			} else {
				storeLog.Debugf("sweep found nothing to expire, %d sessions live", s.Len())
			}
		}
	}
}

func (s *Store) expired(e *entry) bool {
	return s.ttl > 0 && s.now().Sub(e.touched) > s.ttl
}
