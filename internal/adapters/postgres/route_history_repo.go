package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
)

// RouteHistoryRepo implements ports.RouteHistoryRepository.
type RouteHistoryRepo struct {
	db *DB
}

func NewRouteHistoryRepo(db *DB) *RouteHistoryRepo { return &RouteHistoryRepo{db: db} }

const routeHistoryColumns = `route_id, athlete_key, name, profile, total_distance,
	total_duration, segment_count, polyline, created_at`

// Insert records a generated route. Re-recording the same route ID updates it.
func (r *RouteHistoryRepo) Insert(ctx context.Context, rec *domain.RouteRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO route_history (`+routeHistoryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (route_id) DO UPDATE
		SET name = EXCLUDED.name, profile = EXCLUDED.profile,
		    total_distance = EXCLUDED.total_distance, total_duration = EXCLUDED.total_duration,
		    segment_count = EXCLUDED.segment_count, polyline = EXCLUDED.polyline
	`, rec.RouteID, rec.AthleteKey, rec.Name, string(rec.Profile), rec.TotalDistance,
		rec.TotalDuration, rec.SegmentCount, rec.Polyline, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert route %s: %w", rec.RouteID, err)
	}
	return nil
}

// ListByAthlete returns the athlete's most recent routes first.
func (r *RouteHistoryRepo) ListByAthlete(ctx context.Context, athleteKey string, limit int) ([]domain.RouteRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+routeHistoryColumns+`
		FROM route_history WHERE athlete_key = $1
		ORDER BY created_at DESC LIMIT $2
	`, athleteKey, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RouteRecord
	for rows.Next() {
		rec, err := scanRouteRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// GetByRouteID returns domain.ErrNotFound for unknown routes.
func (r *RouteHistoryRepo) GetByRouteID(ctx context.Context, routeID string) (*domain.RouteRecord, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT `+routeHistoryColumns+`
		FROM route_history WHERE route_id = $1
	`, routeID)
	rec, err := scanRouteRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("route %s: %w", routeID, domain.ErrNotFound)
	}
	return rec, err
}

func scanRouteRecord(row pgx.Row) (*domain.RouteRecord, error) {
	var rec domain.RouteRecord
	var profile string
	if err := row.Scan(&rec.RouteID, &rec.AthleteKey, &rec.Name, &profile, &rec.TotalDistance,
		&rec.TotalDuration, &rec.SegmentCount, &rec.Polyline, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Profile = domain.Profile(profile)
	return &rec, nil
}
