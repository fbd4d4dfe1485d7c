package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
)

// SessionStore implements ports.SessionStore in memory.
type SessionStore struct {
	store *ristretto.Cache[string, *domain.Session]
}

// NewSessionStore creates a store holding up to maxSessions sessions.
func NewSessionStore(maxSessions int64) (*SessionStore, error) {
	if maxSessions <= 0 {
		maxSessions = 10_000
	}
	store, err := ristretto.NewCache(&ristretto.Config[string, *domain.Session]{
		NumCounters: maxSessions * 10,
		MaxCost:     maxSessions,
		BufferItems: 64,
		// Cost counts sessions, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("ristretto session store: %w", err)
	}
	return &SessionStore{store: store}, nil
}

// Save stores a copy of the session until its TTL lapses.
func (s *SessionStore) Save(_ context.Context, sess *domain.Session, ttl time.Duration) error {
	cp := *sess
	if !s.store.SetWithTTL(sess.ID, &cp, 1, ttl) {
		return fmt.Errorf("save session %s: rejected", sess.ID)
	}
	s.store.Wait()
	return nil
}

// Get loads a session, returning domain.ErrSessionNotFound when absent.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.store.Del(id)
	return nil
}

// Close releases the store.
func (s *SessionStore) Close() {
	s.store.Close()
}
