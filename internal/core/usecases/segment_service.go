package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
	"github.com/samirrijal/crownbreaker/internal/core/ports"
	"github.com/samirrijal/crownbreaker/internal/pkg/geospatial"
)

const (
	starredCacheTTL  = 300 // seconds
	detailsBatchSize = 25
	detailsParallel  = 4
)

func starredCacheKey(sessionID string) string {
	return "segments:starred:" + sessionID
}

// SegmentService handles starred segment browsing.
type SegmentService struct {
	optimizer ports.Optimizer
	cache     ports.CacheService

	// OnCacheLookup, when set, is called with the outcome of every cache read.
	OnCacheLookup func(hit bool)
}

// NewSegmentService creates a new SegmentService. cache may be nil.
func NewSegmentService(optimizer ports.Optimizer, cache ports.CacheService) *SegmentService {
	return &SegmentService{optimizer: optimizer, cache: cache}
}

// Starred returns the session's starred segments. refresh skips the cached
// list and repopulates it.
func (s *SegmentService) Starred(ctx context.Context, sess *domain.Session, refresh bool) ([]domain.Segment, error) {
	key := ""
	if sess != nil {
		key = starredCacheKey(sess.ID)
	}

	if s.cache != nil && key != "" && !refresh {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var segs []domain.Segment
			if err := json.Unmarshal(data, &segs); err == nil {
				s.observe(true)
				return segs, nil
			}
		}
		s.observe(false)
	}

	segs, err := s.optimizer.StarredSegments(ctx, sess)
	if err != nil {
		return nil, err
	}
	if segs == nil {
		segs = []domain.Segment{}
	}

	if s.cache != nil && key != "" {
		if data, err := json.Marshal(segs); err == nil {
			_ = s.cache.Set(ctx, key, data, starredCacheTTL)
		}
	}
	return segs, nil
}

// Details returns one segment with its geometry decoded.
func (s *SegmentService) Details(ctx context.Context, sess *domain.Session, id int64) (*domain.SegmentView, error) {
	d, err := s.optimizer.SegmentDetails(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return viewOf(d), nil
}

// DetailsBatch fetches several segments concurrently. Results keep the order
// of ids; the first failure cancels the rest.
func (s *SegmentService) DetailsBatch(ctx context.Context, sess *domain.Session, ids []int64) ([]domain.SegmentView, error) {
	if len(ids) > detailsBatchSize {
		return nil, fmt.Errorf("%w: at most %d segments per batch", domain.ErrInvalidInput, detailsBatchSize)
	}
	out := make([]domain.SegmentView, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailsParallel)
	for i, id := range ids {
		g.Go(func() error {
			v, err := s.Details(gctx, sess, id)
			if err != nil {
				return fmt.Errorf("segment %d: %w", id, err)
			}
			out[i] = *v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary aggregates the starred segments for the home screen.
func (s *SegmentService) Summary(ctx context.Context, sess *domain.Session) (*domain.SegmentSummary, error) {
	segs, err := s.Starred(ctx, sess, false)
	if err != nil {
		return nil, err
	}
	return Summarize(segs), nil
}

// Region returns the map region covering the selected starred segments.
// Empty ids selects all of them.
func (s *SegmentService) Region(ctx context.Context, sess *domain.Session, ids []int64) (domain.Region, error) {
	segs, err := s.Starred(ctx, sess, false)
	if err != nil {
		return domain.Region{}, err
	}
	return geospatial.CalculateMapRegion(SelectSegments(segs, ids)), nil
}

func (s *SegmentService) observe(hit bool) {
	if s.OnCacheLookup != nil {
		s.OnCacheLookup(hit)
	}
}

// Summarize computes totals over a segment list.
func Summarize(segs []domain.Segment) *domain.SegmentSummary {
	var distance, elevation, grade float64
	for _, seg := range segs {
		distance += seg.Distance
		elevation += seg.ElevationGain()
		grade += seg.AverageGrade
	}
	sum := &domain.SegmentSummary{
		Count:           len(segs),
		TotalDistanceKm: roundHalfUp(distance / 1000),
		TotalElevationM: roundHalfUp(elevation),
		Region:          geospatial.CalculateMapRegion(segs),
	}
	if len(segs) > 0 {
		sum.AverageGrade = math.Round(grade/float64(len(segs))*10) / 10
	}
	return sum
}

// SelectSegments keeps the segments whose IDs appear in ids, in list order.
// Empty ids keeps everything.
func SelectSegments(segs []domain.Segment, ids []int64) []domain.Segment {
	if len(ids) == 0 {
		return segs
	}
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]domain.Segment, 0, len(ids))
	for _, seg := range segs {
		if _, ok := want[seg.ID]; ok {
			out = append(out, seg)
		}
	}
	return out
}

// ParseSegmentIDs converts string IDs into int64 IDs.
func ParseSegmentIDs(raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := strconv.ParseInt(r, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: invalid segment id %q", domain.ErrInvalidInput, r)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func viewOf(d *domain.SegmentDetails) *domain.SegmentView {
	coords := geospatial.DecodePolyline(d.Polyline())
	region := geospatial.RegionForCoordinates(coords)
	if len(coords) == 0 {
		region = geospatial.CalculateMapRegion([]domain.Segment{d.Segment})
	}
	return &domain.SegmentView{SegmentDetails: *d, Coordinates: coords, Region: region}
}

// roundHalfUp matches the client's rounding of display totals.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
