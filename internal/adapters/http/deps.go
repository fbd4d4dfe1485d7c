package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/crownbreaker/internal/core/ports"
	"github.com/samirrijal/crownbreaker/internal/core/usecases"
)

// Pinger is a backend that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Auth     *usecases.AuthService
	Segments *usecases.SegmentService
	Routes   *usecases.RouteService
	Geometry *usecases.GeometryService

	// Workflows is nil when Temporal is disabled.
	Workflows ports.WorkflowStarter
	// Events is nil when NATS is disabled; /ws then only answers pings.
	Events ports.RouteEventSubscriber

	NATS    *nats.Conn
	DB      Pinger
	Cache   Pinger
	Version string
	// OpenAPIPath overrides DefaultOpenAPIPath for /docs.
	OpenAPIPath string
}
