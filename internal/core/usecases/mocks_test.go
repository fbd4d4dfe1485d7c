package usecases_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
)

// --- Mock Optimizer ---

type mockOptimizer struct {
	authURLFn         func(ctx context.Context, redirectURI string) (string, error)
	starredSegmentsFn func(ctx context.Context, sess *domain.Session) ([]domain.Segment, error)
	segmentDetailsFn  func(ctx context.Context, sess *domain.Session, id int64) (*domain.SegmentDetails, error)
	optimizeRouteFn   func(ctx context.Context, sess *domain.Session, req *domain.OptimizeRequest) (*domain.GeneratedRoute, error)
	userRoutesFn      func(ctx context.Context, sess *domain.Session) ([]domain.UserRoute, error)
	routeFn           func(ctx context.Context, sess *domain.Session, id string) (*domain.GeneratedRoute, error)
	exportRouteFn     func(ctx context.Context, sess *domain.Session, id string, format domain.ExportFormat) ([]byte, error)
}

func (m *mockOptimizer) AuthURL(ctx context.Context, redirectURI string) (string, error) {
	if m.authURLFn != nil {
		return m.authURLFn(ctx, redirectURI)
	}
	return "", nil
}

func (m *mockOptimizer) StarredSegments(ctx context.Context, sess *domain.Session) ([]domain.Segment, error) {
	if m.starredSegmentsFn != nil {
		return m.starredSegmentsFn(ctx, sess)
	}
	return nil, nil
}

func (m *mockOptimizer) SegmentDetails(ctx context.Context, sess *domain.Session, id int64) (*domain.SegmentDetails, error) {
	if m.segmentDetailsFn != nil {
		return m.segmentDetailsFn(ctx, sess, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockOptimizer) OptimizeRoute(ctx context.Context, sess *domain.Session, req *domain.OptimizeRequest) (*domain.GeneratedRoute, error) {
	if m.optimizeRouteFn != nil {
		return m.optimizeRouteFn(ctx, sess, req)
	}
	return &domain.GeneratedRoute{}, nil
}

func (m *mockOptimizer) UserRoutes(ctx context.Context, sess *domain.Session) ([]domain.UserRoute, error) {
	if m.userRoutesFn != nil {
		return m.userRoutesFn(ctx, sess)
	}
	return nil, nil
}

func (m *mockOptimizer) Route(ctx context.Context, sess *domain.Session, id string) (*domain.GeneratedRoute, error) {
	if m.routeFn != nil {
		return m.routeFn(ctx, sess, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockOptimizer) ExportRoute(ctx context.Context, sess *domain.Session, id string, format domain.ExportFormat) ([]byte, error) {
	if m.exportRouteFn != nil {
		return m.exportRouteFn(ctx, sess, id, format)
	}
	return nil, nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock SessionStore ---

type mockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	lastTTL  time.Duration
	saveErr  error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: map[string]domain.Session{}}
}

func (m *mockSessionStore) Save(ctx context.Context, sess *domain.Session, ttl time.Duration) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = *sess
	m.lastTTL = ttl
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// --- Mock RouteHistoryRepository ---

type mockHistory struct {
	insertFn func(ctx context.Context, rec *domain.RouteRecord) error
	listFn   func(ctx context.Context, athleteKey string, limit int) ([]domain.RouteRecord, error)
	inserted []domain.RouteRecord
}

func (m *mockHistory) Insert(ctx context.Context, rec *domain.RouteRecord) error {
	m.inserted = append(m.inserted, *rec)
	if m.insertFn != nil {
		return m.insertFn(ctx, rec)
	}
	return nil
}

func (m *mockHistory) ListByAthlete(ctx context.Context, athleteKey string, limit int) ([]domain.RouteRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, athleteKey, limit)
	}
	return nil, nil
}

func (m *mockHistory) GetByRouteID(ctx context.Context, routeID string) (*domain.RouteRecord, error) {
	for _, r := range m.inserted {
		if r.RouteID == routeID {
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	events []*domain.RouteEvent
	err    error
}

func (m *mockPublisher) PublishRouteGenerated(ctx context.Context, event *domain.RouteEvent) error {
	m.events = append(m.events, event)
	return m.err
}

var testSession = &domain.Session{ID: "sess-1", Token: "jwt", User: []byte(`{"id":42}`)}

func latlng(lat, lng float64) domain.LatLng {
	return domain.LatLng{lat, lng}
}
