package catalog

import (
	"math"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two coordinates.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Nearby filters stores to those within radiusKm of the given position.
// Stores without coordinates (0,0) are excluded.
func Nearby(stores []domain.Store, lat, lng, radiusKm float64) []domain.Store {
	var out []domain.Store
	for _, s := range stores {
		if s.Lat == 0 && s.Lng == 0 {
			continue
		}
		if HaversineKm(lat, lng, s.Lat, s.Lng) <= radiusKm {
			out = append(out, s)
		}
	}
	return out
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
