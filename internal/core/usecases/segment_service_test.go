package usecases_test

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
	"github.com/samirrijal/crownbreaker/internal/core/usecases"
	"github.com/samirrijal/crownbreaker/internal/pkg/geospatial"
)

func starred() []domain.Segment {
	return []domain.Segment{
		{ID: 1, Name: "Croix-Rousse", Distance: 1200, ElevationHigh: 250, ElevationLow: 170, AverageGrade: 6.5,
			StartLatLng: latlng(45.0, 4.0), EndLatLng: latlng(45.5, 4.5)},
		{ID: 2, Name: "Fourvière", Distance: 900, ElevationHigh: 290, ElevationLow: 180, AverageGrade: 10.1,
			StartLatLng: latlng(46.0, 5.0)},
		{ID: 3, Name: "No coords", Distance: 400},
	}
}

func TestSegmentService_Starred_ReadThrough(t *testing.T) {
	var calls int32
	opt := &mockOptimizer{
		starredSegmentsFn: func(ctx context.Context, sess *domain.Session) ([]domain.Segment, error) {
			atomic.AddInt32(&calls, 1)
			return starred(), nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewSegmentService(opt, cache)
	var hits, misses int
	svc.OnCacheLookup = func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	}

	for i := 0; i < 3; i++ {
		segs, err := svc.Starred(context.Background(), testSession, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(segs) != 3 {
			t.Fatalf("expected 3 segments, got %d", len(segs))
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls)
	}
	if hits != 2 || misses != 1 {
		t.Errorf("expected 2 hits and 1 miss, got %d/%d", hits, misses)
	}
	if _, err := cache.Get(context.Background(), "segments:starred:sess-1"); err != nil {
		t.Error("expected list cached under the session key")
	}
}

func TestSegmentService_Starred_Refresh(t *testing.T) {
	var calls int32
	opt := &mockOptimizer{
		starredSegmentsFn: func(ctx context.Context, sess *domain.Session) ([]domain.Segment, error) {
			atomic.AddInt32(&calls, 1)
			return starred(), nil
		},
	}
	svc := usecases.NewSegmentService(opt, newMockCache())

	_, _ = svc.Starred(context.Background(), testSession, false)
	_, _ = svc.Starred(context.Background(), testSession, true)
	if calls != 2 {
		t.Errorf("refresh should bypass the cache, got %d calls", calls)
	}
}

func TestSegmentService_Starred_UpstreamError(t *testing.T) {
	opt := &mockOptimizer{
		starredSegmentsFn: func(ctx context.Context, sess *domain.Session) ([]domain.Segment, error) {
			return nil, domain.ErrUnauthorized
		},
	}
	svc := usecases.NewSegmentService(opt, nil)
	if _, err := svc.Starred(context.Background(), testSession, false); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSegmentService_Details_DecodesPolyline(t *testing.T) {
	opt := &mockOptimizer{
		segmentDetailsFn: func(ctx context.Context, sess *domain.Session, id int64) (*domain.SegmentDetails, error) {
			return &domain.SegmentDetails{Segment: domain.Segment{
				ID:  id,
				Map: &domain.SegmentMap{Polyline: "_p~iF~ps|U_ulLnnqC_mqNvxq`@"},
			}}, nil
		},
	}
	svc := usecases.NewSegmentService(opt, nil)

	v, err := svc.Details(context.Background(), testSession, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.Coordinates) != 3 {
		t.Fatalf("expected 3 coordinates, got %d", len(v.Coordinates))
	}
	if math.Abs(v.Region.CenterLatitude-(38.5+43.252)/2) > 1e-9 {
		t.Errorf("unexpected region center %f", v.Region.CenterLatitude)
	}
}

func TestSegmentService_Details_MalformedPolyline(t *testing.T) {
	opt := &mockOptimizer{
		segmentDetailsFn: func(ctx context.Context, sess *domain.Session, id int64) (*domain.SegmentDetails, error) {
			return &domain.SegmentDetails{Segment: domain.Segment{
				ID:          id,
				StartLatLng: latlng(45, 4),
				Map:         &domain.SegmentMap{Polyline: "_"},
			}}, nil
		},
	}
	svc := usecases.NewSegmentService(opt, nil)

	v, err := svc.Details(context.Background(), testSession, 9)
	if err != nil {
		t.Fatalf("malformed geometry must not fail the request: %v", err)
	}
	if v.Coordinates == nil || len(v.Coordinates) != 0 {
		t.Errorf("expected empty non-nil coordinates, got %v", v.Coordinates)
	}
	if v.Region.CenterLatitude != 45 {
		t.Errorf("expected region from start point, got %+v", v.Region)
	}
}

func TestSegmentService_DetailsBatch_PreservesOrder(t *testing.T) {
	opt := &mockOptimizer{
		segmentDetailsFn: func(ctx context.Context, sess *domain.Session, id int64) (*domain.SegmentDetails, error) {
			// Later IDs return first.
			time.Sleep(time.Duration(10-id) * time.Millisecond)
			return &domain.SegmentDetails{Segment: domain.Segment{ID: id}}, nil
		},
	}
	svc := usecases.NewSegmentService(opt, nil)

	ids := []int64{1, 2, 3, 4, 5, 6}
	views, err := svc.DetailsBatch(context.Background(), testSession, ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range views {
		if v.ID != ids[i] {
			t.Errorf("position %d: expected %d, got %d", i, ids[i], v.ID)
		}
	}
}

func TestSegmentService_DetailsBatch_Error(t *testing.T) {
	opt := &mockOptimizer{
		segmentDetailsFn: func(ctx context.Context, sess *domain.Session, id int64) (*domain.SegmentDetails, error) {
			if id == 2 {
				return nil, domain.ErrNotFound
			}
			return &domain.SegmentDetails{Segment: domain.Segment{ID: id}}, nil
		},
	}
	svc := usecases.NewSegmentService(opt, nil)
	if _, err := svc.DetailsBatch(context.Background(), testSession, []int64{1, 2, 3}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSegmentService_Summary(t *testing.T) {
	opt := &mockOptimizer{
		starredSegmentsFn: func(ctx context.Context, sess *domain.Session) ([]domain.Segment, error) {
			return starred(), nil
		},
	}
	svc := usecases.NewSegmentService(opt, nil)

	sum, err := svc.Summary(context.Background(), testSession)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Count != 3 {
		t.Errorf("expected count 3, got %d", sum.Count)
	}
	// 2500 m rounds half up to 3 km.
	if sum.TotalDistanceKm != 3 {
		t.Errorf("expected 3 km, got %d", sum.TotalDistanceKm)
	}
	if sum.TotalElevationM != 190 {
		t.Errorf("expected 190 m, got %d", sum.TotalElevationM)
	}
	if sum.Region.CenterLatitude != 45.5 || sum.Region.CenterLongitude != 4.5 {
		t.Errorf("unexpected region %+v", sum.Region)
	}
}

func TestSummarize_Empty(t *testing.T) {
	sum := usecases.Summarize(nil)
	if sum.Count != 0 || sum.AverageGrade != 0 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if sum.Region != geospatial.DefaultRegion() {
		t.Errorf("expected fallback region, got %+v", sum.Region)
	}
}

func TestSegmentService_Region_Selection(t *testing.T) {
	opt := &mockOptimizer{
		starredSegmentsFn: func(ctx context.Context, sess *domain.Session) ([]domain.Segment, error) {
			return starred(), nil
		},
	}
	svc := usecases.NewSegmentService(opt, nil)

	r, err := svc.Region(context.Background(), testSession, []int64{2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.CenterLatitude != 46 || r.LatitudeSpan != 0 {
		t.Errorf("single start should give zero span at its position, got %+v", r)
	}

	r, _ = svc.Region(context.Background(), testSession, []int64{3})
	if r != geospatial.DefaultRegion() {
		t.Errorf("segment without coordinates should fall back, got %+v", r)
	}
}

func TestParseSegmentIDs(t *testing.T) {
	ids, err := usecases.ParseSegmentIDs([]string{"1", "229781"})
	if err != nil || len(ids) != 2 || ids[1] != 229781 {
		t.Errorf("unexpected result %v, %v", ids, err)
	}
	if _, err := usecases.ParseSegmentIDs([]string{"abc"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := usecases.ParseSegmentIDs([]string{"-3"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative id, got %v", err)
	}
}
