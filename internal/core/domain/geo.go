package domain

import (
	"encoding/json"

	"github.com/samirrijal/crownbreaker/internal/pkg/geospatial"
)

// Coordinate and Region are the geometry core's value types.
type (
	Coordinate = geospatial.Coordinate
	Region     = geospatial.Region
)

// LatLng is a [latitude, longitude] pair as delivered by the optimizer API.
// A nil LatLng means the segment has no such endpoint.
type LatLng []float64

// UnmarshalJSON keeps only well-formed pairs. The platform sends [] for
// segments without a location; that, and any other shape than exactly two
// numbers, decodes as absent.
func (l *LatLng) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil || len(pair) != 2 {
		*l = nil
		return nil
	}
	*l = pair
	return nil
}

// Valid reports whether l holds a latitude and a longitude.
func (l LatLng) Valid() bool { return len(l) == 2 }

// Lat returns the latitude, or 0 for an absent pair.
func (l LatLng) Lat() float64 {
	if !l.Valid() {
		return 0
	}
	return l[0]
}

// Lng returns the longitude, or 0 for an absent pair.
func (l LatLng) Lng() float64 {
	if !l.Valid() {
		return 0
	}
	return l[1]
}

// Coordinate converts the pair into a Coordinate.
func (l LatLng) Coordinate() Coordinate {
	return Coordinate{Latitude: l.Lat(), Longitude: l.Lng()}
}

// StartPoint is the point a generated route leaves from.
type StartPoint struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Name      string  `json:"name,omitempty"`
}

// Coordinate returns the start point as a Coordinate.
func (p StartPoint) Coordinate() Coordinate {
	return Coordinate{Latitude: p.Latitude, Longitude: p.Longitude}
}
