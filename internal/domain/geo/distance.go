// Package geo provides great-circle distance calculations between coordinates.
package geo

import "math"

const (
	// nauticalMilesPerDegree is the length of one arc-minute summed over a degree.
	nauticalMilesPerDegree = 60
	// statuteMilesPerNautical converts nautical miles to statute miles.
	statuteMilesPerNautical = 1.1515
	// kilometersPerMile converts statute miles to kilometers.
	kilometersPerMile = 1.609344
)

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// IsValid reports whether the point lies within the WGS84 coordinate ranges.
func (p Point) IsValid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180 &&
		!math.IsNaN(p.Latitude) && !math.IsNaN(p.Longitude)
}

// DistanceTo returns the distance from p to q in kilometers.
func (p Point) DistanceTo(q Point) float64 {
	return Distance(p.Latitude, p.Longitude, q.Latitude, q.Longitude)
}

// Distance returns the great-circle distance between two coordinates in
// kilometers, rounded to three decimal digits, using the spherical law of
// cosines.
func Distance(srcLat, srcLng, dstLat, dstLng float64) float64 {
	theta := srcLng - dstLng
	cos := math.Sin(deg2rad(srcLat))*math.Sin(deg2rad(dstLat)) +
		math.Cos(deg2rad(srcLat))*math.Cos(deg2rad(dstLat))*math.Cos(deg2rad(theta))

	// Coincident points can land just above 1 through rounding, which would make acos NaN.
	cos = math.Max(-1, math.Min(1, cos))

	dist := rad2deg(math.Acos(cos)) * nauticalMilesPerDegree * statuteMilesPerNautical * kilometersPerMile
	return round3(dist)
}

// BoundingBox returns the latitude/longitude window that contains every point
// within radiusKm of center. It is a cheap prefilter; callers still compare
// exact distances.
func BoundingBox(center Point, radiusKm float64) (minLat, maxLat, minLng, maxLng float64) {
	kmPerDegree := nauticalMilesPerDegree * statuteMilesPerNautical * kilometersPerMile
	dLat := radiusKm / kmPerDegree

	cosLat := math.Cos(deg2rad(center.Latitude))
	dLng := 180.0
	if cosLat > 1e-9 {
		dLng = math.Min(180, dLat/cosLat)
	}

	return center.Latitude - dLat, center.Latitude + dLat, center.Longitude - dLng, center.Longitude + dLng
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func rad2deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
