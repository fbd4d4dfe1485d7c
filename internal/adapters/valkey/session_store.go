package valkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
)

const sessionPrefix = "session:"

// SessionStore implements ports.SessionStore on top of the Valkey client.
type SessionStore struct {
	cache *Cache
}

// NewSessionStore shares the cache's client.
func NewSessionStore(c *Cache) *SessionStore {
	return &SessionStore{cache: c}
}

// Save stores a session until its TTL lapses.
func (s *SessionStore) Save(ctx context.Context, sess *domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	seconds := int(ttl / time.Second)
	if seconds <= 0 {
		seconds = 1
	}
	return s.cache.Set(ctx, sessionPrefix+sess.ID, data, seconds)
}

// Get loads a session, returning domain.ErrSessionNotFound for missing keys.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.cache.Get(ctx, sessionPrefix+id)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, sessionPrefix+id)
}
