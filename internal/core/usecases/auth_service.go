package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
	"github.com/samirrijal/crownbreaker/internal/core/ports"
)

// DefaultRedirectURI is the mobile deep link the platform redirects to.
const DefaultRedirectURI = "crownbreaker://auth/strava"

// AuthService issues and resolves gateway sessions.
type AuthService struct {
	optimizer   ports.Optimizer
	sessions    ports.SessionStore
	cache       ports.CacheService
	ttl         time.Duration
	redirectURI string
	now         func() time.Time

	// OnSessionCreated, when set, is called after every successful login.
	OnSessionCreated func()
}

// NewAuthService creates a new AuthService. cache may be nil.
func NewAuthService(optimizer ports.Optimizer, sessions ports.SessionStore, cache ports.CacheService, ttl time.Duration, redirectURI string) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}
	return &AuthService{
		optimizer:   optimizer,
		sessions:    sessions,
		cache:       cache,
		ttl:         ttl,
		redirectURI: redirectURI,
		now:         time.Now,
	}
}

// AuthURL returns the platform authorization URL. An empty redirectURI uses
// the configured deep link.
func (s *AuthService) AuthURL(ctx context.Context, redirectURI string) (string, error) {
	if redirectURI == "" {
		redirectURI = s.redirectURI
	}
	return s.optimizer.AuthURL(ctx, redirectURI)
}

// CompleteLogin parses the deep-link callback the platform redirected to and
// opens a session for the token it carries.
func (s *AuthService) CompleteLogin(ctx context.Context, callbackURL string) (*domain.Session, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCallback, err)
	}
	return s.CompleteLoginParams(ctx, u.Query())
}

// CompleteLoginParams is CompleteLogin for already-parsed query parameters.
func (s *AuthService) CompleteLoginParams(ctx context.Context, q url.Values) (*domain.Session, error) {
	if msg := q.Get("error"); msg != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrAuthDenied, msg)
	}
	token := q.Get("token")
	if q.Get("success") != "true" || token == "" {
		return nil, domain.ErrInvalidCallback
	}
	user, err := parseUser(q.Get("user"))
	if err != nil {
		return nil, err
	}
	return s.Login(ctx, token, user)
}

// Login opens a session for an upstream token obtained out of band.
func (s *AuthService) Login(ctx context.Context, token string, user json.RawMessage) (*domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}
	if len(user) > 0 && !json.Valid(user) {
		return nil, fmt.Errorf("%w: user must be JSON", domain.ErrInvalidInput)
	}

	now := s.now().UTC()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		Token:     token,
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, sess, s.ttl); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if s.OnSessionCreated != nil {
		s.OnSessionCreated()
	}
	return sess, nil
}

// Resolve returns the session for id, or domain.ErrSessionNotFound.
func (s *AuthService) Resolve(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, domain.ErrSessionNotFound
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.ExpiresAt.IsZero() && s.now().After(sess.ExpiresAt) {
		_ = s.sessions.Delete(ctx, id)
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// Logout deletes the session and anything cached on its behalf.
func (s *AuthService) Logout(ctx context.Context, id string) error {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, starredCacheKey(id))
	}
	return s.sessions.Delete(ctx, id)
}

// parseUser accepts the user profile either as JSON or as percent-encoded
// JSON, the way mobile redirects double-encode it.
func parseUser(raw string) (json.RawMessage, error) {
	if raw == "" {
		return nil, nil
	}
	if json.Valid([]byte(raw)) {
		return json.RawMessage(raw), nil
	}
	decoded, err := url.QueryUnescape(raw)
	if err == nil && json.Valid([]byte(decoded)) {
		return json.RawMessage(decoded), nil
	}
	return nil, fmt.Errorf("%w: failed to parse authentication response", domain.ErrInvalidCallback)
}
