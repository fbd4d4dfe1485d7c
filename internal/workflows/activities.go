package workflows

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
	"github.com/samirrijal/crownbreaker/internal/core/usecases"
	"github.com/samirrijal/crownbreaker/internal/pkg/telemetry"
)

// RouteActivities holds the activity implementations for route generation.
type RouteActivities struct {
	Auth   *usecases.AuthService
	Routes *usecases.RouteService
}

// OptimizeRoute generates the route for the input's session.
func (a *RouteActivities) OptimizeRoute(ctx context.Context, input RouteGenerationInput) (*domain.RoutePreview, error) {
	ctx, span := otel.Tracer("crownbreaker/workflows").Start(ctx, telemetry.SpanRouteGeneration)
	defer span.End()

	sess, err := a.session(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	cfg := input.Config
	preview, err := a.Routes.Generate(ctx, sess, &cfg, input.SegmentIDs)
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrUnauthorized) {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidRequest", err)
	}
	return preview, err
}

// RecordRoute stores a generated route in the history.
func (a *RouteActivities) RecordRoute(ctx context.Context, sessionID string, preview *domain.RoutePreview, profile domain.Profile) error {
	sess, err := a.session(ctx, sessionID)
	if err != nil {
		return err
	}
	return a.Routes.Record(ctx, sess, preview, profile)
}

// PublishRouteGenerated announces a generated route.
func (a *RouteActivities) PublishRouteGenerated(ctx context.Context, sessionID string, preview *domain.RoutePreview) error {
	return a.Routes.Publish(ctx, &domain.Session{ID: sessionID}, preview)
}

func (a *RouteActivities) session(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := a.Auth.Resolve(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "SessionNotFound", err)
	}
	return sess, err
}
