package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var samplePoints = []Point{
	{Latitude: 37.5665, Longitude: 126.9780},  // Seoul
	{Latitude: 35.1796, Longitude: 129.0756},  // Busan
	{Latitude: 33.4996, Longitude: 126.5312},  // Jeju
	{Latitude: 0, Longitude: 0},
	{Latitude: -33.8688, Longitude: 151.2093},
	{Latitude: 89.9999, Longitude: -179.9999},
	{Latitude: 37.123456789, Longitude: 127.987654321},
}

func TestDistance_SamePointIsZero(t *testing.T) {
	for _, p := range samplePoints {
		d := Distance(p.Latitude, p.Longitude, p.Latitude, p.Longitude)
		assert.False(t, math.IsNaN(d), "distance for %+v must not be NaN", p)
		assert.Equal(t, 0.0, d, "distance for %+v", p)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	for _, a := range samplePoints {
		for _, b := range samplePoints {
			assert.Equal(t, a.DistanceTo(b), b.DistanceTo(a), "%+v <-> %+v", a, b)
		}
	}
}

func TestDistance_KnownCities(t *testing.T) {
	seoul, busan := samplePoints[0], samplePoints[1]

	d := seoul.DistanceTo(busan)

	assert.InDelta(t, 325.0, d, 5.0)
	assert.Equal(t, d, math.Round(d*1000)/1000, "distance is rounded to three decimals")
}

func TestDistance_Antipodal(t *testing.T) {
	d := Distance(0, 0, 0, 180)

	assert.False(t, math.IsNaN(d))
	assert.InDelta(t, 20015.0, d, 30.0)
}

func TestPoint_IsValid(t *testing.T) {
	assert.True(t, Point{Latitude: 37.5, Longitude: 127}.IsValid())
	assert.False(t, Point{Latitude: 91, Longitude: 0}.IsValid())
	assert.False(t, Point{Latitude: 0, Longitude: -181}.IsValid())
	assert.False(t, Point{Latitude: math.NaN(), Longitude: 0}.IsValid())
}

func TestBoundingBox_ContainsRadius(t *testing.T) {
	center := samplePoints[0]

	minLat, maxLat, minLng, maxLng := BoundingBox(center, 10)

	assert.Less(t, minLat, center.Latitude)
	assert.Greater(t, maxLat, center.Latitude)
	assert.Less(t, minLng, center.Longitude)
	assert.Greater(t, maxLng, center.Longitude)

	edge := Point{Latitude: maxLat, Longitude: center.Longitude}
	assert.InDelta(t, 10.0, center.DistanceTo(edge), 0.05)
}
