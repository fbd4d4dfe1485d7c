package domain

import (
	"encoding/json"
	"time"
)

// SegmentMap holds the encoded geometry of a segment.
type SegmentMap struct {
	ID              string `json:"id"`
	Polyline        string `json:"polyline"`
	SummaryPolyline string `json:"summary_polyline"`
}

// Segment is a starred Strava route portion.
type Segment struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Distance      float64     `json:"distance"` // meters
	AverageGrade  float64     `json:"average_grade"`
	MaximumGrade  float64     `json:"maximum_grade"`
	ElevationHigh float64     `json:"elevation_high"`
	ElevationLow  float64     `json:"elevation_low"`
	StartLatLng   LatLng      `json:"start_latlng,omitempty"`
	EndLatLng     LatLng      `json:"end_latlng,omitempty"`
	ClimbCategory int         `json:"climb_category"`
	City          string      `json:"city,omitempty"`
	State         string      `json:"state,omitempty"`
	Country       string      `json:"country,omitempty"`
	Private       bool        `json:"private"`
	Starred       bool        `json:"starred"`
	Map           *SegmentMap `json:"map,omitempty"`
}

// StartCoordinate implements geospatial.Endpoints.
func (s Segment) StartCoordinate() (Coordinate, bool) {
	if !s.StartLatLng.Valid() {
		return Coordinate{}, false
	}
	return s.StartLatLng.Coordinate(), true
}

// EndCoordinate implements geospatial.Endpoints.
func (s Segment) EndCoordinate() (Coordinate, bool) {
	if !s.EndLatLng.Valid() {
		return Coordinate{}, false
	}
	return s.EndLatLng.Coordinate(), true
}

// Polyline returns the most detailed encoded geometry available, or "".
func (s Segment) Polyline() string {
	if s.Map == nil {
		return ""
	}
	if s.Map.Polyline != "" {
		return s.Map.Polyline
	}
	return s.Map.SummaryPolyline
}

// ElevationGain is the difference between the highest and lowest points.
func (s Segment) ElevationGain() float64 {
	return s.ElevationHigh - s.ElevationLow
}

// SegmentDetails is the full segment record.
type SegmentDetails struct {
	Segment
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
	EffortCount        int       `json:"effort_count"`
	AthleteCount       int       `json:"athlete_count"`
	Hazardous          bool      `json:"hazardous"`
	StarCount          int       `json:"star_count"`
}

// SegmentView is a segment with its geometry decoded for map rendering.
type SegmentView struct {
	SegmentDetails
	Coordinates []Coordinate `json:"coordinates"`
	Region      Region       `json:"region"`
}

// SegmentSummary aggregates the starred segments list.
type SegmentSummary struct {
	Count           int     `json:"count"`
	TotalDistanceKm int     `json:"total_distance_km"`
	TotalElevationM int     `json:"total_elevation_m"`
	Region          Region  `json:"region"`
	AverageGrade    float64 `json:"average_grade"`
}

// Profile is the routing profile understood by the optimizer.
type Profile string

// The "moutainbike" spelling is part of the optimizer's wire contract.
const (
	ProfileBike         Profile = "bike"
	ProfileFoot         Profile = "foot"
	ProfileMountainBike Profile = "moutainbike"
)

// RouteConfig is the user's route configuration.
type RouteConfig struct {
	RouteName  string      `json:"route_name" validate:"required,max=120"`
	StartPoint *StartPoint `json:"start_point,omitempty" validate:"omitempty"`
	Profile    Profile     `json:"profile" validate:"required,oneof=bike foot moutainbike"`
	GoBack     bool        `json:"go_back"`
}

// OptimizeRequest is the body sent to the optimizer.
type OptimizeRequest struct {
	SegmentIDs []string   `json:"segmentIds" validate:"required,min=1,max=25,dive,required,numeric"`
	StartPoint StartPoint `json:"startPoint"`
	RouteName  string     `json:"routeName,omitempty"`
	Profile    Profile    `json:"profile"`
	GoBack     bool       `json:"goBack"`
}

// RouteSegment is a segment visited by a generated route.
type RouteSegment struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Distance   float64    `json:"distance"`
	KOMTime    *float64   `json:"komTime"`
	StartPoint Coordinate `json:"startPoint"`
}

// GeneratedRoute is the optimizer's answer.
type GeneratedRoute struct {
	RouteID       string         `json:"routeId"`
	TotalDistance float64        `json:"totalDistance"` // meters
	TotalDuration float64        `json:"totalDuration"` // seconds
	Segments      []RouteSegment `json:"segments"`
	FullGeometry  []StartPoint   `json:"fullGeometry"`
	Waypoints     []StartPoint   `json:"waypoints"`
}

// Geometry returns the route's full geometry as coordinates.
func (r *GeneratedRoute) Geometry() []Coordinate {
	coords := make([]Coordinate, len(r.FullGeometry))
	for i, p := range r.FullGeometry {
		coords[i] = p.Coordinate()
	}
	return coords
}

// RoutePreview is a generated route prepared for the preview screen.
type RoutePreview struct {
	GeneratedRoute
	Name     string  `json:"name"`
	Region   Region  `json:"region"`
	Polyline string  `json:"polyline"`
	LengthM  float64 `json:"length_m"`
}

// UserRoute is a route previously generated by the user.
type UserRoute struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	TotalDistance float64   `json:"totalDistance"`
	TotalDuration float64   `json:"totalDuration"`
	SegmentCount  int       `json:"segmentCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// RouteRecord is a generated route recorded by the gateway.
type RouteRecord struct {
	RouteID       string    `json:"route_id"`
	AthleteKey    string    `json:"athlete_key"`
	Name          string    `json:"name"`
	Profile       Profile   `json:"profile"`
	TotalDistance float64   `json:"total_distance"`
	TotalDuration float64   `json:"total_duration"`
	SegmentCount  int       `json:"segment_count"`
	Polyline      string    `json:"polyline"`
	CreatedAt     time.Time `json:"created_at"`
}

// RouteEvent is published when a route has been generated.
type RouteEvent struct {
	SessionID string    `json:"session_id"`
	RouteID   string    `json:"route_id"`
	Name      string    `json:"name"`
	Distance  float64   `json:"distance"`
	Time      time.Time `json:"time"`
}

// Export is a rendered route export.
type Export struct {
	Format      ExportFormat `json:"format"`
	FileName    string       `json:"file_name"`
	ContentType string       `json:"content_type"`
	Body        []byte       `json:"-"`
}

// Session is the explicit authentication context for upstream calls.
type Session struct {
	ID        string          `json:"id"`
	Token     string          `json:"token"`
	User      json.RawMessage `json:"user,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// AthleteKey identifies the athlete behind a session, falling back to the
// session ID when the profile carries no id.
func (s *Session) AthleteKey() string {
	var u struct {
		ID json.Number `json:"id"`
	}
	if len(s.User) > 0 && json.Unmarshal(s.User, &u) == nil && u.ID != "" {
		return u.ID.String()
	}
	return s.ID
}
