package geo

import (
	"math"
	"sort"
)

const EarthRadiusKm = 6371.0

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Distance is the great-circle distance in kilometres (Haversine).
func Distance(a, b Point) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

type Match[T any] struct {
	Item       T
	DistanceKm float64
}

// Within returns the items located at most radiusKm from center, nearest
// first. Items for which locate reports false are skipped.
func Within[T any](center Point, radiusKm float64, items []T, locate func(T) (Point, bool)) []Match[T] {
	var out []Match[T]
	for _, it := range items {
		p, ok := locate(it)
		if !ok || !p.Valid() {
			continue
		}
		if d := Distance(center, p); d <= radiusKm {
			out = append(out, Match[T]{Item: it, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}
