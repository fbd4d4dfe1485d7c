package ports

import (
	"context"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
)

// Optimizer is the remote KOM optimizer API. Authenticated calls take the
// caller's session explicitly.
type Optimizer interface {
	AuthURL(ctx context.Context, redirectURI string) (string, error)
	StarredSegments(ctx context.Context, sess *domain.Session) ([]domain.Segment, error)
	SegmentDetails(ctx context.Context, sess *domain.Session, id int64) (*domain.SegmentDetails, error)
	OptimizeRoute(ctx context.Context, sess *domain.Session, req *domain.OptimizeRequest) (*domain.GeneratedRoute, error)
	UserRoutes(ctx context.Context, sess *domain.Session) ([]domain.UserRoute, error)
	Route(ctx context.Context, sess *domain.Session, id string) (*domain.GeneratedRoute, error)
	ExportRoute(ctx context.Context, sess *domain.Session, id string, format domain.ExportFormat) ([]byte, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishRouteGenerated(ctx context.Context, event *domain.RouteEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// WorkflowStarter starts asynchronous route generation.
type WorkflowStarter interface {
	StartRouteGeneration(ctx context.Context, sess *domain.Session, cfg *domain.RouteConfig, segmentIDs []int64) (string, error)
}

// RouteEventSubscriber streams route events for a single session.
type RouteEventSubscriber interface {
	SubscribeRouteEvents(sessionID string, handler func(*domain.RouteEvent)) (cancel func(), err error)
}
