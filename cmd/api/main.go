package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/crownbreaker/internal/adapters/http"
	"github.com/samirrijal/crownbreaker/internal/adapters/komoptimizer"
	"github.com/samirrijal/crownbreaker/internal/adapters/memory"
	natsadapter "github.com/samirrijal/crownbreaker/internal/adapters/nats"
	"github.com/samirrijal/crownbreaker/internal/adapters/postgres"
	"github.com/samirrijal/crownbreaker/internal/adapters/valkey"
	"github.com/samirrijal/crownbreaker/internal/core/domain"
	"github.com/samirrijal/crownbreaker/internal/core/ports"
	"github.com/samirrijal/crownbreaker/internal/core/usecases"
	"github.com/samirrijal/crownbreaker/internal/pkg/config"
	"github.com/samirrijal/crownbreaker/internal/pkg/geospatial"
	"github.com/samirrijal/crownbreaker/internal/pkg/logging"
	"github.com/samirrijal/crownbreaker/internal/pkg/metrics"
	"github.com/samirrijal/crownbreaker/internal/pkg/telemetry"
	"github.com/samirrijal/crownbreaker/internal/workflows"
)

var version = "dev"

func main() {
	cfg, err := config.Load("crownbreaker-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{Version: version}

	// Route history (optional)
	var history ports.RouteHistoryRepository
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			slog.Warn("database unavailable, route history disabled", "error", err)
		} else {
			defer db.Close()
			history = postgres.NewRouteHistoryRepo(db)
			deps.DB = db
			go reportPoolStats(ctx, db)
		}
	}

	// Cache and sessions: Valkey when reachable, process memory otherwise
	var (
		cache    ports.CacheService
		sessions ports.SessionStore
	)
	if cfg.Valkey.Enabled {
		vc, err := valkey.New(ctx, valkey.Options{
			Addr:     cfg.Valkey.Addr,
			Password: cfg.Valkey.Password,
			DB:       cfg.Valkey.DB,
			Prefix:   cfg.Valkey.KeyPrefix,
		})
		if err != nil {
			slog.Warn("valkey unavailable, using in-memory cache", "error", err)
		} else {
			defer vc.Close()
			cache, sessions = vc, valkey.NewSessionStore(vc)
			deps.Cache = vc
		}
	}
	if cache == nil {
		mc, err := memory.NewCache(0)
		if err != nil {
			log.Fatalf("memory cache: %v", err)
		}
		defer mc.Close()
		ms, err := memory.NewSessionStore(0)
		if err != nil {
			log.Fatalf("memory sessions: %v", err)
		}
		defer ms.Close()
		cache, sessions = mc, ms
		deps.Cache = mc
	}

	// NATS: route events out, WebSocket relay in
	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			events = pub
			deps.NATS = pub.Conn()
		}

		// Raw NATS connection for WebSocket relay
		natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			defer natsConn.Close()
			deps.Events = natsadapter.NewSubscriber(natsConn)
		}
	}

	// Metrics hooks
	geospatial.DecodeFailureHook = func(error) { metrics.PolylineDecodeFailures.Inc() }

	// Use cases
	optimizer := komoptimizer.New(cfg.Upstream.BaseURL, cfg.Upstream.TimeoutDuration())
	deps.Auth = usecases.NewAuthService(optimizer, sessions, cache, cfg.Session.TTLDuration(), cfg.Session.RedirectURI)
	deps.Auth.OnSessionCreated = metrics.SessionsCreated.Inc
	deps.Segments = usecases.NewSegmentService(optimizer, cache)
	deps.Segments.OnCacheLookup = observeCache("starred_segments")
	deps.Routes = usecases.NewRouteService(optimizer, deps.Segments, history, events)
	deps.Routes.OnRouteGenerated = func(p domain.Profile) { metrics.RoutesGenerated.WithLabelValues(string(p)).Inc() }
	deps.Geometry = usecases.NewGeometryService()

	// Temporal (optional)
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			slog.Warn("temporal unavailable, async route generation disabled", "error", err)
		} else {
			defer tc.Close()
			deps.Workflows = workflows.NewStarter(tc, cfg.Temporal.TaskQueue)
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "CrownBreaker Gateway",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "upstream", cfg.Upstream.BaseURL)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func observeCache(op string) func(hit bool) {
	return func(hit bool) {
		if hit {
			metrics.CacheHits.WithLabelValues(op).Inc()
		} else {
			metrics.CacheMisses.WithLabelValues(op).Inc()
		}
	}
}

// reportPoolStats publishes pgx pool gauges every 15 seconds.
func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		metrics.UpdateDBPoolMetrics(db.Stat())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
