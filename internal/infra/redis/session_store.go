package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"mindgap-tutor/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Live sessions stay in a local map; a session owns a callback and a
//     lock, neither of which survives serialization.
//   - Every Save mirrors the session snapshot to Redis with a TTL so other
//     instances and operators can inspect progress.
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

func (s *SessionStore) Save(ctx context.Context, session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	// best-effort snapshot mirror
	if raw, err := json.Marshal(session.State()); err == nil {
		_ = s.client.Set(ctx, s.key(session.ID()), raw, s.ttl).Err()
	}
}

func (s *SessionStore) Get(_ context.Context, id string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *SessionStore) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	_ = s.client.Del(ctx, s.key(id)).Err()
}

// Snapshot reads the mirrored state of session id from Redis.
func (s *SessionStore) Snapshot(ctx context.Context, id string) (app.State, error) {
	var st app.State
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(raw, &st)
	return st, err
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
