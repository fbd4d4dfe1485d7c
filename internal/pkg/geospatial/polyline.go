package geospatial

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// DefaultPrecision is the number of decimal digits used by the Google/Mapbox
// polyline format.
const DefaultPrecision = 5

// ErrMalformedPolyline is returned by Decode when the input is not a valid
// encoded polyline.
var ErrMalformedPolyline = errors.New("malformed polyline")

// DecodeFailureHook is invoked by DecodePolyline whenever a decode fails.
// It is set once at startup (metrics) and must be safe for concurrent use.
var DecodeFailureHook func(err error)

// Coordinate is a WGS 84 latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DecodePolyline decodes an encoded polyline at the default precision.
// It never fails: empty input and malformed input both yield an empty slice,
// the latter being logged.
func DecodePolyline(encoded string) []Coordinate {
	coords, err := Decode(encoded)
	if err != nil {
		slog.Warn("polyline decode failed", "error", err, "length", len(encoded))
		if DecodeFailureHook != nil {
			DecodeFailureHook(err)
		}
		return []Coordinate{}
	}
	return coords
}

// Decode decodes an encoded polyline at the default precision.
func Decode(encoded string) ([]Coordinate, error) {
	return DecodeWithPrecision(encoded, DefaultPrecision)
}

// DecodeWithPrecision decodes a polyline whose values were scaled by
// 10^precision (5 for Google polylines, 6 for polyline6 sources).
func DecodeWithPrecision(encoded string, precision int) ([]Coordinate, error) {
	if encoded == "" {
		return []Coordinate{}, nil
	}
	if precision < 1 || precision > 9 {
		return nil, fmt.Errorf("polyline precision %d out of range 1-9", precision)
	}
	factor := math.Pow10(precision)

	// Every coordinate takes at least two bytes.
	coords := make([]Coordinate, 0, len(encoded)/2)
	var lat, lng int64
	index := 0

	for index < len(encoded) {
		dLat, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		if next >= len(encoded) {
			return nil, fmt.Errorf("%w: missing longitude at offset %d", ErrMalformedPolyline, next)
		}
		dLng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		index = next

		lat += dLat
		lng += dLng
		coords = append(coords, Coordinate{
			Latitude:  float64(lat) / factor,
			Longitude: float64(lng) / factor,
		})
	}

	return coords, nil
}

// maxShift bounds a single value to 12 chunks (60 bits).
const maxShift = 60

// decodeValue reads one zig-zag encoded delta starting at index and returns
// it with the offset of the next unread byte.
func decodeValue(encoded string, index int) (int64, int, error) {
	var result int64
	shift := 0

	for {
		if index >= len(encoded) {
			return 0, index, fmt.Errorf("%w: unterminated chunk at offset %d", ErrMalformedPolyline, index)
		}
		c := encoded[index]
		if c < 63 || c > 126 {
			return 0, index, fmt.Errorf("%w: invalid byte %q at offset %d", ErrMalformedPolyline, c, index)
		}
		b := int64(c) - 63
		index++

		result |= (b & 0x1f) << shift
		shift += 5
		if b&0x20 == 0 {
			break
		}
		if shift >= maxShift {
			return 0, index, fmt.Errorf("%w: value overflow at offset %d", ErrMalformedPolyline, index)
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}
