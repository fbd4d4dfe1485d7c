package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/crownbreaker/internal/pkg/metrics"
)

const (
	requestTimeout = 15 * time.Second
	// Route generation waits on the optimizer, whose own timeout is 30s.
	optimizeTimeout = 32 * time.Second
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Server span per request
	app.Use(TracingMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "no-referrer")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Deprecation headers for optimizer-style aliases
	app.Use(DeprecationMiddleware(deprecatedRoutes))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")

	// Public: auth and pure geometry
	v1.Get("/auth/url", timeout.NewWithContext(AuthURLHandler(deps), requestTimeout))
	v1.Get("/auth/callback", timeout.NewWithContext(AuthCallbackHandler(deps), requestTimeout))
	v1.Post("/auth/login", timeout.NewWithContext(LoginHandler(deps), requestTimeout))
	v1.Post("/geo/decode", GeoDecodeHandler(deps))
	v1.Post("/geo/region", GeoRegionHandler(deps))
	v1.Post("/geo/encode", GeoEncodeHandler(deps))

	// Session-protected
	auth := SessionMiddleware(deps.Auth)
	v1.Post("/auth/logout", auth, timeout.NewWithContext(LogoutHandler(deps), requestTimeout))

	segments := v1.Group("/segments", auth)
	segments.Get("/starred", timeout.NewWithContext(StarredSegmentsHandler(deps), requestTimeout))
	segments.Get("/summary", timeout.NewWithContext(SegmentSummaryHandler(deps), requestTimeout))
	segments.Get("/region", timeout.NewWithContext(SegmentRegionHandler(deps), requestTimeout))
	segments.Get("/batch", timeout.NewWithContext(SegmentBatchHandler(deps), requestTimeout))
	segments.Get("/:id", timeout.NewWithContext(SegmentHandler(deps), requestTimeout))

	routes := v1.Group("/routes", auth)
	routes.Post("/optimize", timeout.NewWithContext(OptimizeRouteHandler(deps), optimizeTimeout))
	routes.Post("/optimize/async", timeout.NewWithContext(OptimizeRouteAsyncHandler(deps), requestTimeout))
	routes.Get("/", timeout.NewWithContext(ListRoutesHandler(deps), requestTimeout))
	routes.Get("/history", timeout.NewWithContext(RouteHistoryHandler(deps), requestTimeout))
	routes.Get("/history/:id", timeout.NewWithContext(RouteHistoryEntryHandler(deps), requestTimeout))
	routes.Get("/:id", timeout.NewWithContext(GetRouteHandler(deps), requestTimeout))
	routes.Get("/:id/export/:format", timeout.NewWithContext(ExportRouteHandler(deps), requestTimeout))

	// Deprecated aliases
	v1.Get("/route/my-routes", auth, timeout.NewWithContext(ListRoutesHandler(deps), requestTimeout))
	v1.Get("/route/:id", auth, timeout.NewWithContext(GetRouteHandler(deps), requestTimeout))

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), requestTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app, deps.OpenAPIPath)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, auth)
	app.Get("/ws", websocket.New(WebSocketHandler(deps.Events)))
}
