// Package geo selects historical expenses close to a point.
package geo

import (
	"math"

	"github.com/Veraticus/geospice/internal/model"
)

const (
	// EarthRadiusKm is the mean Earth radius used by Distance.
	EarthRadiusKm = 6371.0
	// DefaultRadiusMeters is the proximity threshold for nearby expenses.
	DefaultRadiusMeters = 500.0
)

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b model.Point) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLng := toRadians(b.Longitude - a.Longitude)
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push h just outside [0, 1] for near-antipodal points.
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Asin(math.Sqrt(h))

	return EarthRadiusKm * c * 1000
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// FilterNearby returns the expenses within radiusMeters of origin, in input
// order, annotated with their distance. A non-positive radius uses
// DefaultRadiusMeters. The result is never nil.
func FilterNearby(origin model.Point, history []model.Expense, radiusMeters float64) []model.NearbyTransaction {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}

	nearby := make([]model.NearbyTransaction, 0, len(history))
	for _, e := range history {
		d := Distance(origin, e.Point())
		if !(d <= radiusMeters) {
			continue
		}
		nearby = append(nearby, model.NearbyTransaction{
			Category: string(e.Category),
			Amount:   e.Amount,
			Distance: d,
			DateTime: e.DateTime,
		})
	}
	return nearby
}
