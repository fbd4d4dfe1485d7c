package usecases

import (
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
	"github.com/samirrijal/crownbreaker/internal/pkg/geospatial"
)

// GeometryService exposes the geometry core to the HTTP and GraphQL layers.
type GeometryService struct{}

// NewGeometryService creates a new GeometryService.
func NewGeometryService() *GeometryService {
	return &GeometryService{}
}

// Decode strictly decodes an encoded polyline. Precision 0 means 5.
func (s *GeometryService) Decode(encoded string, precision int) ([]domain.Coordinate, error) {
	if precision == 0 {
		precision = geospatial.DefaultPrecision
	}
	coords, err := geospatial.DecodeWithPrecision(encoded, precision)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return coords, nil
}

// Region computes the map region for segment-like input.
func (s *GeometryService) Region(segments []domain.Segment) domain.Region {
	return geospatial.CalculateMapRegion(segments)
}

// RegionForLine computes the map region for a decoded line.
func (s *GeometryService) RegionForLine(coords []domain.Coordinate) domain.Region {
	return geospatial.RegionForCoordinates(coords)
}

// Encode encodes coordinates. Precision 0 means 5.
func (s *GeometryService) Encode(coords []domain.Coordinate, precision int) (string, error) {
	if precision == 0 {
		precision = geospatial.DefaultPrecision
	}
	if precision < 1 || precision > 9 {
		return "", fmt.Errorf("%w: precision %d out of range", domain.ErrInvalidInput, precision)
	}
	return EncodePolyline(coords, precision), nil
}

// Length returns the length of a line in meters.
func (s *GeometryService) Length(coords []domain.Coordinate) float64 {
	return geospatial.Length(coords)
}

// EncodePolyline encodes coords in the polyline format at the given precision.
func EncodePolyline(coords []domain.Coordinate, precision int) string {
	pts := make([][]float64, len(coords))
	for i, c := range coords {
		pts[i] = []float64{c.Latitude, c.Longitude}
	}
	codec := polyline.Codec{Dim: 2, Scale: math.Pow10(precision)}
	return string(codec.EncodeCoords(nil, pts))
}
