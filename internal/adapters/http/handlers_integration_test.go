//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	handler "github.com/samirrijal/crownbreaker/internal/adapters/http"
	"github.com/samirrijal/crownbreaker/internal/adapters/postgres"
	"github.com/samirrijal/crownbreaker/internal/core/domain"
	"github.com/samirrijal/crownbreaker/internal/core/usecases"
	"github.com/samirrijal/crownbreaker/internal/pkg/config"
)

// setupTestDB connects to the test database and applies migrations.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("crownbreaker-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := db.Migrate(ctx, postgres.Up, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(db.Close)

	return db
}

// TestOptimizeRecordsHistory_Integration generates a route through the API and
// reads it back from the history endpoint.
func TestOptimizeRecordsHistory_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	routeID := "it-" + time.Now().Format("20060102150405.000000")

	opt := &mockOptimizer{
		optimizeFn: func(ctx context.Context, sess *domain.Session, req *domain.OptimizeRequest) (*domain.GeneratedRoute, error) {
			r := generatedRoute()
			r.RouteID = routeID
			return r, nil
		},
	}
	deps := makeDeps(t, opt, func(d *handler.Dependencies) {
		d.Routes = usecases.NewRouteService(opt, d.Segments, postgres.NewRouteHistoryRepo(db), nil)
		d.DB = db
	})
	app := setupApp(deps)
	sess := login(t, app)

	status, body, _ := doJSON(t, app, "POST", "/v1/routes/optimize", sess, map[string]any{
		"route_name":  "Integration loop",
		"segment_ids": []int64{229781},
	})
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	status, body, _ = doJSON(t, app, "GET", "/v1/routes/history?limit=5", sess, nil)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var records []domain.RouteRecord
	if err := json.Unmarshal(body, &records); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(records) == 0 || records[0].RouteID != routeID {
		t.Fatalf("expected %s first in history, got %+v", routeID, records)
	}
	if records[0].AthleteKey != "42" || records[0].Name != "Integration loop" {
		t.Errorf("unexpected record %+v", records[0])
	}

	status, body, _ = doJSON(t, app, "GET", "/v1/routes/history/"+routeID, sess, nil)
	if status != 200 {
		t.Fatalf("expected 200 for history entry, got %d: %s", status, body)
	}
	var rec domain.RouteRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rec.RouteID != routeID {
		t.Errorf("unexpected history entry %+v", rec)
	}

	status, _, _ = doJSON(t, app, "GET", "/v1/ready", "", nil)
	if status != 200 {
		t.Errorf("expected ready with database, got %d", status)
	}
}
