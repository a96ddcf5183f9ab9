package memory

import (
	"context"
	"sync"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore. Live
// sessions are keyed by pin; snapshots are retained last-write-wins so
// result queries work without external storage.
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]*app.Session
	snapshots map[string]domain.SessionSnapshot
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:  make(map[string]*app.Session),
		snapshots: make(map[string]domain.SessionSnapshot),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Pin()] = session
}

func (s *SessionStore) Get(pin string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[pin]
	return session, ok
}

func (s *SessionStore) Delete(pin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, pin)
	delete(s.snapshots, pin)
}

func (s *SessionStore) SaveSnapshot(_ context.Context, snap domain.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.Pin] = snap
	return nil
}

// Snapshot returns the last persisted snapshot for a pin.
func (s *SessionStore) Snapshot(pin string) (domain.SessionSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[pin]
	return snap, ok
}
