package domain

import "fmt"

// ExportFormat is a route export format.
type ExportFormat string

const (
	ExportGPX     ExportFormat = "gpx"
	ExportJSON    ExportFormat = "json"
	ExportTCX     ExportFormat = "tcx"
	ExportGeoJSON ExportFormat = "geojson"
)

// ParseExportFormat validates a format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(s); f {
	case ExportGPX, ExportJSON, ExportTCX, ExportGeoJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Remote reports whether the optimizer renders this format.
func (f ExportFormat) Remote() bool {
	return f != ExportGeoJSON
}

// ContentType is the MIME type served for the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportGPX:
		return "application/gpx+xml"
	case ExportTCX:
		return "application/vnd.garmin.tcx+xml"
	case ExportGeoJSON:
		return "application/geo+json"
	default:
		return "application/json"
	}
}

// FileName is the download name for a route export.
func (f ExportFormat) FileName(routeID string) string {
	return fmt.Sprintf("route_%s.%s", routeID, f)
}
