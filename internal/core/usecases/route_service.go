package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tkrajina/gpxgo/gpx"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
	"github.com/samirrijal/crownbreaker/internal/core/ports"
	"github.com/samirrijal/crownbreaker/internal/pkg/geospatial"
)

const (
	currentPositionName = "Current position"
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// RouteService handles route generation, listing and export.
type RouteService struct {
	optimizer ports.Optimizer
	segments  *SegmentService
	history   ports.RouteHistoryRepository
	events    ports.EventPublisher
	validate  *validator.Validate
	now       func() time.Time

	// OnRouteGenerated, when set, is called for every generated route.
	OnRouteGenerated func(profile domain.Profile)
}

// NewRouteService creates a new RouteService. history and events may be nil.
func NewRouteService(optimizer ports.Optimizer, segments *SegmentService, history ports.RouteHistoryRepository, events ports.EventPublisher) *RouteService {
	return &RouteService{
		optimizer: optimizer,
		segments:  segments,
		history:   history,
		events:    events,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		now:       time.Now,
	}
}

// Optimize generates a route through segmentIDs, records it and announces it.
// Recording and publishing failures are logged, never returned.
func (s *RouteService) Optimize(ctx context.Context, sess *domain.Session, cfg *domain.RouteConfig, segmentIDs []int64) (*domain.RoutePreview, error) {
	preview, err := s.Generate(ctx, sess, cfg, segmentIDs)
	if err != nil {
		return nil, err
	}
	if err := s.Record(ctx, sess, preview, cfg.Profile); err != nil {
		slog.WarnContext(ctx, "route history not recorded", "route_id", preview.RouteID, "error", err)
	}
	if err := s.Publish(ctx, sess, preview); err != nil {
		slog.WarnContext(ctx, "route event not published", "route_id", preview.RouteID, "error", err)
	}
	return preview, nil
}

// Generate validates the configuration and asks the optimizer for a route.
func (s *RouteService) Generate(ctx context.Context, sess *domain.Session, cfg *domain.RouteConfig, segmentIDs []int64) (*domain.RoutePreview, error) {
	req, err := s.BuildRequest(ctx, sess, cfg, segmentIDs)
	if err != nil {
		return nil, err
	}

	route, err := s.optimizer.OptimizeRoute(ctx, sess, req)
	if err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}
	if s.OnRouteGenerated != nil {
		s.OnRouteGenerated(req.Profile)
	}
	return Preview(route, req.RouteName), nil
}

// BuildRequest validates cfg and derives the optimizer request. A missing
// start point defaults to the first selected segment's start, then to the
// default map center.
func (s *RouteService) BuildRequest(ctx context.Context, sess *domain.Session, cfg *domain.RouteConfig, segmentIDs []int64) (*domain.OptimizeRequest, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: route configuration is required", domain.ErrInvalidInput)
	}
	c := *cfg
	c.RouteName = strings.TrimSpace(c.RouteName)
	if c.Profile == "" {
		c.Profile = domain.ProfileBike
	}
	if err := s.validate.StructCtx(ctx, &c); err != nil {
		return nil, validationError(err)
	}
	if len(segmentIDs) == 0 {
		return nil, fmt.Errorf("%w: select at least one segment", domain.ErrInvalidInput)
	}

	req := &domain.OptimizeRequest{
		SegmentIDs: make([]string, len(segmentIDs)),
		RouteName:  c.RouteName,
		Profile:    c.Profile,
		GoBack:     c.GoBack,
	}
	for i, id := range segmentIDs {
		req.SegmentIDs[i] = strconv.FormatInt(id, 10)
	}

	if c.StartPoint != nil {
		req.StartPoint = *c.StartPoint
	} else {
		req.StartPoint = s.defaultStart(ctx, sess, segmentIDs[0])
	}

	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, validationError(err)
	}
	return req, nil
}

func (s *RouteService) defaultStart(ctx context.Context, sess *domain.Session, firstID int64) domain.StartPoint {
	if s.segments != nil {
		segs, err := s.segments.Starred(ctx, sess, false)
		if err == nil {
			for _, seg := range SelectSegments(segs, []int64{firstID}) {
				if c, ok := seg.StartCoordinate(); ok {
					return domain.StartPoint{Latitude: c.Latitude, Longitude: c.Longitude, Name: currentPositionName}
				}
			}
		}
	}
	return domain.StartPoint{
		Latitude:  geospatial.DefaultCenterLatitude,
		Longitude: geospatial.DefaultCenterLongitude,
		Name:      currentPositionName,
	}
}

// Record stores the generated route in the gateway's history.
func (s *RouteService) Record(ctx context.Context, sess *domain.Session, preview *domain.RoutePreview, profile domain.Profile) error {
	if s.history == nil {
		return nil
	}
	return s.history.Insert(ctx, &domain.RouteRecord{
		RouteID:       preview.RouteID,
		AthleteKey:    sess.AthleteKey(),
		Name:          preview.Name,
		Profile:       profile,
		TotalDistance: preview.TotalDistance,
		TotalDuration: preview.TotalDuration,
		SegmentCount:  len(preview.Segments),
		Polyline:      preview.Polyline,
		CreatedAt:     s.now().UTC(),
	})
}

// Publish announces the generated route to the session's subscribers.
func (s *RouteService) Publish(ctx context.Context, sess *domain.Session, preview *domain.RoutePreview) error {
	if s.events == nil {
		return nil
	}
	return s.events.PublishRouteGenerated(ctx, &domain.RouteEvent{
		SessionID: sess.ID,
		RouteID:   preview.RouteID,
		Name:      preview.Name,
		Distance:  preview.TotalDistance,
		Time:      s.now().UTC(),
	})
}

// UserRoutes lists the athlete's routes known to the optimizer.
func (s *RouteService) UserRoutes(ctx context.Context, sess *domain.Session) ([]domain.UserRoute, error) {
	routes, err := s.optimizer.UserRoutes(ctx, sess)
	if err != nil {
		return nil, err
	}
	if routes == nil {
		routes = []domain.UserRoute{}
	}
	return routes, nil
}

// Route returns one route prepared for preview.
func (s *RouteService) Route(ctx context.Context, sess *domain.Session, id string) (*domain.RoutePreview, error) {
	route, err := s.optimizer.Route(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return Preview(route, ""), nil
}

// History returns routes recorded by the gateway, newest first.
func (s *RouteService) History(ctx context.Context, sess *domain.Session, limit int) ([]domain.RouteRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if s.history == nil {
		return []domain.RouteRecord{}, nil
	}
	recs, err := s.history.ListByAthlete(ctx, sess.AthleteKey(), limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if recs == nil {
		recs = []domain.RouteRecord{}
	}
	return recs, nil
}

// HistoryEntry returns one recorded route. Records of other athletes are
// reported as not found.
func (s *RouteService) HistoryEntry(ctx context.Context, sess *domain.Session, routeID string) (*domain.RouteRecord, error) {
	if s.history == nil {
		return nil, fmt.Errorf("history %s: %w", routeID, domain.ErrNotFound)
	}
	rec, err := s.history.GetByRouteID(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("get history %s: %w", routeID, err)
	}
	if rec.AthleteKey != sess.AthleteKey() {
		return nil, fmt.Errorf("history %s: %w", routeID, domain.ErrNotFound)
	}
	return rec, nil
}

// Export renders a route export. GeoJSON is built locally from the route's
// geometry; other formats come from the optimizer, GPX being checked for
// well-formedness.
func (s *RouteService) Export(ctx context.Context, sess *domain.Session, id string, format domain.ExportFormat) (*domain.Export, error) {
	var body []byte
	if format.Remote() {
		raw, err := s.optimizer.ExportRoute(ctx, sess, id, format)
		if err != nil {
			return nil, err
		}
		if format == domain.ExportGPX {
			if _, err := gpx.ParseBytes(raw); err != nil {
				return nil, fmt.Errorf("export %s: %w: malformed gpx: %v", id, domain.ErrUpstream, err)
			}
		}
		body = raw
	} else {
		route, err := s.optimizer.Route(ctx, sess, id)
		if err != nil {
			return nil, err
		}
		body, err = RouteGeoJSON(route)
		if err != nil {
			return nil, fmt.Errorf("render geojson: %w", err)
		}
	}
	return &domain.Export{
		Format:      format,
		FileName:    format.FileName(id),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

// Preview prepares a generated route for display.
func Preview(route *domain.GeneratedRoute, name string) *domain.RoutePreview {
	geometry := route.Geometry()
	region := geospatial.RegionForCoordinates(geometry)
	if len(geometry) == 0 && len(route.Segments) > 0 {
		starts := make([]domain.Coordinate, len(route.Segments))
		for i, seg := range route.Segments {
			starts[i] = seg.StartPoint
		}
		region = geospatial.RegionForCoordinates(starts)
	}
	return &domain.RoutePreview{
		GeneratedRoute: *route,
		Name:           name,
		Region:         region,
		Polyline:       EncodePolyline(geometry, geospatial.DefaultPrecision),
		LengthM:        geospatial.Length(geometry),
	}
}

// RouteGeoJSON renders a route as a FeatureCollection: the full line followed
// by one point per visited segment start.
func RouteGeoJSON(route *domain.GeneratedRoute) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	line := make(orb.LineString, 0, len(route.FullGeometry))
	for _, p := range route.FullGeometry {
		line = append(line, orb.Point{p.Longitude, p.Latitude})
	}
	f := geojson.NewFeature(line)
	f.Properties["route_id"] = route.RouteID
	f.Properties["total_distance"] = route.TotalDistance
	f.Properties["total_duration"] = route.TotalDuration
	fc.Append(f)

	for _, seg := range route.Segments {
		pf := geojson.NewFeature(orb.Point{seg.StartPoint.Longitude, seg.StartPoint.Latitude})
		pf.Properties["segment_id"] = seg.ID
		pf.Properties["name"] = seg.Name
		pf.Properties["distance"] = seg.Distance
		if seg.KOMTime != nil {
			pf.Properties["kom_time"] = *seg.KOMTime
		}
		fc.Append(pf)
	}
	return fc.MarshalJSON()
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}
