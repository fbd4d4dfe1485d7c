package usecases_test

import (
	"errors"
	"math"
	"testing"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
	"github.com/samirrijal/crownbreaker/internal/core/usecases"
)

func TestGeometryService_EncodeDecode(t *testing.T) {
	svc := usecases.NewGeometryService()
	coords := []domain.Coordinate{
		{Latitude: 38.5, Longitude: -120.2},
		{Latitude: 40.7, Longitude: -120.95},
		{Latitude: 43.252, Longitude: -126.453},
	}

	enc, err := svc.Encode(coords, 0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if enc != "_p~iF~ps|U_ulLnnqC_mqNvxq`@" {
		t.Errorf("unexpected encoding %s", enc)
	}

	got, err := svc.Decode(enc, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range coords {
		if math.Abs(got[i].Latitude-coords[i].Latitude) > 1e-9 || math.Abs(got[i].Longitude-coords[i].Longitude) > 1e-9 {
			t.Errorf("point %d: expected %+v, got %+v", i, coords[i], got[i])
		}
	}
}

func TestGeometryService_Precision6(t *testing.T) {
	svc := usecases.NewGeometryService()
	coords := []domain.Coordinate{{Latitude: 45.764043, Longitude: 4.835659}}

	enc, err := svc.Encode(coords, 6)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := svc.Decode(enc, 6)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if math.Abs(got[0].Latitude-45.764043) > 1e-6 {
		t.Errorf("unexpected latitude %f", got[0].Latitude)
	}
}

func TestGeometryService_DecodeErrors(t *testing.T) {
	svc := usecases.NewGeometryService()
	if _, err := svc.Decode("_", 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Encode(nil, 12); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for precision 12, got %v", err)
	}
}

func TestGeometryService_Region(t *testing.T) {
	svc := usecases.NewGeometryService()
	r := svc.Region([]domain.Segment{
		{StartLatLng: latlng(45, 4)},
		{StartLatLng: latlng(46, 5)},
	})
	if r.CenterLatitude != 45.5 || math.Abs(r.LatitudeSpan-1.2) > 1e-12 {
		t.Errorf("unexpected region %+v", r)
	}
}
