package review

import (
	"errors"
	"sync"
)

var ErrSessionNotFound = errors.New("session not found")

type sessionEntry struct {
	mu      sync.Mutex
	session *Session
}

// SessionStore keeps active review sessions in memory. Access to one session
// is serialized through its entry mutex; different sessions proceed
// concurrently.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*sessionEntry)}
}

// Put registers a new session, replacing any previous one under the same id.
func (s *SessionStore) Put(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = &sessionEntry{session: session}
}

// WithSession runs fn with exclusive access to the session.
func (s *SessionStore) WithSession(id string, fn func(*Session) error) error {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.session)
}

// Snapshot returns a deep copy of the session for read-only use.
func (s *SessionStore) Snapshot(id string) (*Session, error) {
	var snap *Session
	err := s.WithSession(id, func(session *Session) error {
		snap = session.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Delete forgets a session.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
