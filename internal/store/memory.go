package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps chat history in process memory. It is the fallback when
// no DATABASE_URL is configured; history vanishes when the backend stops.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]User
	exchanges map[string][]Exchange // username -> newest last
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		users:     map[string]User{},
		exchanges: map[string][]Exchange{},
	}
}

func (s *MemoryStore) GetOrCreateUser(_ context.Context, username string) (User, error) {
	if username == "" {
		username = DefaultUsername
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[username]; ok {
		u.LastActive = time.Now()
		s.users[username] = u
		return u, nil
	}
	u := User{ID: uuid.New(), Username: username, CreatedAt: time.Now(), LastActive: time.Now()}
	s.users[username] = u
	return u, nil
}

func (s *MemoryStore) UpdateLastActive(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return ErrUserNotFound
	}
	u.LastActive = time.Now()
	s.users[username] = u
	return nil
}

func (s *MemoryStore) SaveExchange(ctx context.Context, ex Exchange) error {
	if ex.Username == "" {
		ex.Username = DefaultUsername
	}
	if _, err := s.GetOrCreateUser(ctx, ex.Username); err != nil {
		return err
	}
	if ex.QueryID == uuid.Nil {
		ex.QueryID = uuid.New()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges[ex.Username] = append(s.exchanges[ex.Username], ex)
	return nil
}

func (s *MemoryStore) History(_ context.Context, username string, limit, offset int) ([]Exchange, error) {
	if username == "" {
		username = DefaultUsername
	}
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.exchanges[username]
	// Newest first, like the Postgres query.
	var out []Exchange
	for i := len(all) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
