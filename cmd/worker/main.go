package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/crownbreaker/internal/adapters/komoptimizer"
	natsadapter "github.com/samirrijal/crownbreaker/internal/adapters/nats"
	"github.com/samirrijal/crownbreaker/internal/adapters/postgres"
	"github.com/samirrijal/crownbreaker/internal/adapters/valkey"
	"github.com/samirrijal/crownbreaker/internal/core/domain"
	"github.com/samirrijal/crownbreaker/internal/core/ports"
	"github.com/samirrijal/crownbreaker/internal/core/usecases"
	"github.com/samirrijal/crownbreaker/internal/pkg/config"
	"github.com/samirrijal/crownbreaker/internal/pkg/logging"
	"github.com/samirrijal/crownbreaker/internal/pkg/metrics"
	"github.com/samirrijal/crownbreaker/internal/pkg/telemetry"
	"github.com/samirrijal/crownbreaker/internal/workflows"
)

// The worker resolves sessions created by the API, so both must share Valkey.
func main() {
	cfg, err := config.Load("crownbreaker-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	if !cfg.Valkey.Enabled {
		log.Fatal("worker requires valkey.enabled: sessions are shared with the API")
	}
	cache, err := valkey.New(ctx, valkey.Options{
		Addr:     cfg.Valkey.Addr,
		Password: cfg.Valkey.Password,
		DB:       cfg.Valkey.DB,
		Prefix:   cfg.Valkey.KeyPrefix,
	})
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	var history ports.RouteHistoryRepository
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			slog.Warn("database unavailable, route history disabled", "error", err)
		} else {
			defer db.Close()
			history = postgres.NewRouteHistoryRepo(db)
		}
	}

	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, route events disabled", "error", err)
		} else {
			defer pub.Close()
			events = pub
		}
	}

	optimizer := komoptimizer.New(cfg.Upstream.BaseURL, cfg.Upstream.TimeoutDuration())
	auth := usecases.NewAuthService(optimizer, valkey.NewSessionStore(cache), cache, cfg.Session.TTLDuration(), cfg.Session.RedirectURI)
	segments := usecases.NewSegmentService(optimizer, cache)
	routes := usecases.NewRouteService(optimizer, segments, history, events)
	routes.OnRouteGenerated = func(p domain.Profile) { metrics.RoutesGenerated.WithLabelValues(string(p)).Inc() }

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.RouteGenerationWorkflow)
	w.RegisterActivity(&workflows.RouteActivities{Auth: auth, Routes: routes})

	slog.Info("route generation worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
