package geospatial_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samirrijal/crownbreaker/internal/pkg/geospatial"
)

type endpoints struct {
	start, end *geospatial.Coordinate
}

func (e endpoints) StartCoordinate() (geospatial.Coordinate, bool) {
	if e.start == nil {
		return geospatial.Coordinate{}, false
	}
	return *e.start, true
}

func (e endpoints) EndCoordinate() (geospatial.Coordinate, bool) {
	if e.end == nil {
		return geospatial.Coordinate{}, false
	}
	return *e.end, true
}

func at(lat, lng float64) *geospatial.Coordinate {
	return &geospatial.Coordinate{Latitude: lat, Longitude: lng}
}

func TestCalculateMapRegion_Empty(t *testing.T) {
	r := geospatial.CalculateMapRegion([]endpoints(nil))
	assert.Equal(t, geospatial.Region{
		CenterLatitude:  45.764,
		CenterLongitude: 4.835,
		LatitudeSpan:    0.1,
		LongitudeSpan:   0.1,
	}, r)
}

func TestCalculateMapRegion_NoCoordinates(t *testing.T) {
	r := geospatial.CalculateMapRegion([]endpoints{{}, {}})
	assert.Equal(t, geospatial.DefaultRegion(), r)
	assert.False(t, math.IsNaN(r.CenterLatitude))
}

func TestCalculateMapRegion_SingleStart(t *testing.T) {
	r := geospatial.CalculateMapRegion([]endpoints{{start: at(45.0, 4.0)}})
	assert.Equal(t, 45.0, r.CenterLatitude)
	assert.Equal(t, 4.0, r.CenterLongitude)
	assert.Zero(t, r.LatitudeSpan)
	assert.Zero(t, r.LongitudeSpan)
}

func TestCalculateMapRegion_TwoStarts(t *testing.T) {
	r := geospatial.CalculateMapRegion([]endpoints{
		{start: at(45.0, 4.0)},
		{start: at(46.0, 5.0)},
	})
	assert.InDelta(t, 45.5, r.CenterLatitude, 1e-12)
	assert.InDelta(t, 4.5, r.CenterLongitude, 1e-12)
	assert.InDelta(t, 1.2, r.LatitudeSpan, 1e-12)
	assert.InDelta(t, 1.2, r.LongitudeSpan, 1e-12)
}

func TestCalculateMapRegion_StartAndEnd(t *testing.T) {
	r := geospatial.CalculateMapRegion([]endpoints{
		{start: at(43.26, -2.94), end: at(43.30, -2.90)},
		{end: at(43.20, -2.98)},
	})
	assert.InDelta(t, 43.25, r.CenterLatitude, 1e-9)
	assert.InDelta(t, -2.94, r.CenterLongitude, 1e-9)
	assert.InDelta(t, 0.12, r.LatitudeSpan, 1e-9)
	assert.InDelta(t, 0.096, r.LongitudeSpan, 1e-9)
}

func TestRegionForCoordinates(t *testing.T) {
	assert.Equal(t, geospatial.DefaultRegion(), geospatial.RegionForCoordinates(nil))

	coords := geospatial.DecodePolyline(googleExample)
	r := geospatial.RegionForCoordinates(coords)
	assert.InDelta(t, (38.5+43.252)/2, r.CenterLatitude, 1e-9)
	assert.InDelta(t, (-120.2-126.453)/2, r.CenterLongitude, 1e-9)
	assert.InDelta(t, (43.252-38.5)*1.2, r.LatitudeSpan, 1e-9)
	assert.InDelta(t, (126.453-120.2)*1.2, r.LongitudeSpan, 1e-9)
}
