package geospatial

import "math"

// earthRadiusM is the mean Earth radius used for all distance figures.
const earthRadiusM = 6_371_000.0

// Haversine returns the great-circle distance in meters between two
// latitude/longitude pairs given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := radians(lat1), radians(lat2)
	sinDPhi := math.Sin((phi2 - phi1) / 2)
	sinDLambda := math.Sin(radians(lon2-lon1) / 2)

	h := sinDPhi*sinDPhi + math.Cos(phi1)*math.Cos(phi2)*sinDLambda*sinDLambda
	// Clamp rounding noise for antipodal points.
	h = math.Min(1, h)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

// Distance is Haversine over two coordinates.
func Distance(a, b Coordinate) float64 {
	return Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// Length returns the length in meters of the line through coords.
func Length(coords []Coordinate) float64 {
	var total float64
	for i := 1; i < len(coords); i++ {
		total += Distance(coords[i-1], coords[i])
	}
	return total
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
