package session

import (
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned for unknown or expired session identifiers.
var ErrNotFound = errors.New("session not found")

// Store keeps sessions in memory.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create registers a new empty session.
func (s *Store) Create() *Session {
	sess := newSession(s.now)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess
}

// Get returns the session with the given id and marks it as used.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	sess.touch()
	return sess, nil
}

// Resolve returns the session with the given id, or a new one when id is
// empty.
func (s *Store) Resolve(id string) (*Session, error) {
	if id == "" {
		return s.Create(), nil
	}
	return s.Get(id)
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// Prune drops sessions idle for longer than ttl and returns how many were
// removed. A non-positive ttl keeps everything.
func (s *Store) Prune(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}

	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.lastTouched().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
