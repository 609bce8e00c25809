package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	t.Parallel()

	delhi := Point{Lat: 28.6139, Lng: 77.2090}
	mumbai := Point{Lat: 19.0760, Lng: 72.8777}

	assert.InDelta(t, 0, Distance(delhi, delhi), 1e-9)
	assert.InDelta(t, 1153, Distance(delhi, mumbai), 5)
	assert.InDelta(t, Distance(delhi, mumbai), Distance(mumbai, delhi), 1e-9)

	// a quarter of the equator
	assert.InDelta(t, 10007.5, Distance(Point{0, 0}, Point{0, 90}), 1)
}

type spot struct {
	name string
	at   *Point
}

func TestWithin(t *testing.T) {
	t.Parallel()

	center := Point{Lat: 28.6139, Lng: 77.2090}
	items := []spot{
		{"far", &Point{Lat: 19.0760, Lng: 72.8777}},
		{"near", &Point{Lat: 28.6200, Lng: 77.2100}},
		{"nowhere", nil},
		{"nearer", &Point{Lat: 28.6140, Lng: 77.2091}},
		{"broken", &Point{Lat: 120, Lng: 0}},
	}

	got := Within(center, 5, items, func(s spot) (Point, bool) {
		if s.at == nil {
			return Point{}, false
		}
		return *s.at, true
	})

	if assert.Len(t, got, 2) {
		assert.Equal(t, "nearer", got[0].Item.name)
		assert.Equal(t, "near", got[1].Item.name)
		assert.Less(t, got[0].DistanceKm, got[1].DistanceKm)
	}
}
