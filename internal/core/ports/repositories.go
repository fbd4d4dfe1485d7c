package ports

import (
	"context"
	"time"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
)

// SessionStore persists authenticated sessions.
type SessionStore interface {
	Save(ctx context.Context, sess *domain.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// RouteHistoryRepository records routes generated through the gateway.
type RouteHistoryRepository interface {
	Insert(ctx context.Context, rec *domain.RouteRecord) error
	ListByAthlete(ctx context.Context, athleteKey string, limit int) ([]domain.RouteRecord, error)
	GetByRouteID(ctx context.Context, routeID string) (*domain.RouteRecord, error)
}
