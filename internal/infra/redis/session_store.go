package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// SessionStore is a Redis-backed implementation of app.SessionStore.
// Notes:
//   - Live sessions stay in a local map: the coordinator's lock and timer
//     handles are process-local and cannot round-trip through Redis.
//   - Every snapshot write overwrites the session document key
//     (last-write-wins); the TTL keeps finished games readable for the
//     retention window and then lets Redis collect them.
//   - For true distribution you'd pair this with a pub/sub projector that
//     fans events out across instances.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Pin()] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.liveKey(session.Pin()), "1", s.ttl).Err()
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
	_ = s.client.Del(context.Background(), s.liveKey(pin)).Err()
}

func (s *SessionStore) SaveSnapshot(ctx context.Context, snap domain.SessionSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal session snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.docKey(snap.Pin), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("write session snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the persisted session document, e.g. for result
// queries after the live session was reaped.
func (s *SessionStore) LoadSnapshot(ctx context.Context, pin string) (domain.SessionSnapshot, error) {
	data, err := s.client.Get(ctx, s.docKey(pin)).Bytes()
	if err == redis.Nil {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("read session snapshot: %w", err)
	}
	var snap domain.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("unmarshal session snapshot: %w", err)
	}
	return snap, nil
}

func (s *SessionStore) liveKey(pin string) string {
	return "game:session:" + pin + ":live"
}

func (s *SessionStore) docKey(pin string) string {
	return "game:session:" + pin
}
