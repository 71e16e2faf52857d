// Package search implements the instructor search pipeline: normalization of
// loosely typed records, criteria filtering, radius search and pagination.
package search

import (
	"math"

	"github.com/golflink/golflink-api/internal/models"
)

const earthRadiusKm = 6371.0

// DistanceKm computes the great-circle distance between two points using the
// Haversine formula on a spherical Earth. Inputs are degrees, output is
// kilometers. Callers must not pass records without coordinates.
func DistanceKm(a, b models.Coordinates) float64 {
	lat1 := degreesToRadians(a.Latitude)
	lat2 := degreesToRadians(b.Latitude)
	deltaLat := degreesToRadians(b.Latitude - a.Latitude)
	deltaLon := degreesToRadians(b.Longitude - a.Longitude)

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}
