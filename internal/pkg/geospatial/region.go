package geospatial

import "math"

// Fallback viewport used when there is nothing to bound (Lyon city centre).
const (
	DefaultCenterLatitude  = 45.764
	DefaultCenterLongitude = 4.835
	DefaultSpan            = 0.1

	// regionMargin widens the bounding box by 20% so that points do not sit
	// on the viewport edge.
	regionMargin = 1.2
)

// Region is a map viewport: a center point and an angular span in degrees.
type Region struct {
	CenterLatitude  float64 `json:"latitude"`
	CenterLongitude float64 `json:"longitude"`
	LatitudeSpan    float64 `json:"latitude_delta"`
	LongitudeSpan   float64 `json:"longitude_delta"`
}

// DefaultRegion returns the fallback viewport.
func DefaultRegion() Region {
	return Region{
		CenterLatitude:  DefaultCenterLatitude,
		CenterLongitude: DefaultCenterLongitude,
		LatitudeSpan:    DefaultSpan,
		LongitudeSpan:   DefaultSpan,
	}
}

// Endpoints is anything carrying an optional start and end coordinate.
type Endpoints interface {
	StartCoordinate() (Coordinate, bool)
	EndCoordinate() (Coordinate, bool)
}

// bounds accumulates the extent of a set of coordinates.
type bounds struct {
	minLat, maxLat float64
	minLng, maxLng float64
	n              int
}

func newBounds() bounds {
	return bounds{
		minLat: math.Inf(1), maxLat: math.Inf(-1),
		minLng: math.Inf(1), maxLng: math.Inf(-1),
	}
}

func (b *bounds) add(c Coordinate) {
	b.minLat = math.Min(b.minLat, c.Latitude)
	b.maxLat = math.Max(b.maxLat, c.Latitude)
	b.minLng = math.Min(b.minLng, c.Longitude)
	b.maxLng = math.Max(b.maxLng, c.Longitude)
	b.n++
}

func (b *bounds) region() Region {
	if b.n == 0 {
		return DefaultRegion()
	}
	return Region{
		CenterLatitude:  (b.minLat + b.maxLat) / 2,
		CenterLongitude: (b.minLng + b.maxLng) / 2,
		LatitudeSpan:    (b.maxLat - b.minLat) * regionMargin,
		LongitudeSpan:   (b.maxLng - b.minLng) * regionMargin,
	}
}

// CalculateMapRegion returns the viewport bounding the start and end
// coordinates of the given segments. Missing coordinates are skipped; when no
// coordinate is present at all the fallback region is returned.
// A single point yields a zero span.
func CalculateMapRegion[S Endpoints](segments []S) Region {
	b := newBounds()
	for _, s := range segments {
		if c, ok := s.StartCoordinate(); ok {
			b.add(c)
		}
		if c, ok := s.EndCoordinate(); ok {
			b.add(c)
		}
	}
	return b.region()
}

// RegionForCoordinates returns the viewport bounding a coordinate sequence,
// such as a decoded route geometry.
func RegionForCoordinates(coords []Coordinate) Region {
	b := newBounds()
	for _, c := range coords {
		b.add(c)
	}
	return b.region()
}
