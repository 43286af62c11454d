package geo_test

import (
	"testing"

	"github.com/antonkh/kupid/internal/geo"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	// Kyiv -> Lviv is roughly 470 km
	d := geo.DistanceKm(50.4501, 30.5234, 49.8397, 24.0297)
	assert.InDelta(t, 470, d, 10)
}

func TestDistanceKm_SamePoint(t *testing.T) {
	d := geo.DistanceKm(50.4501, 30.5234, 50.4501, 30.5234)
	assert.Zero(t, d)
}

func TestDistanceKm_ShortHop(t *testing.T) {
	// one degree of longitude at ~50N is ~71.5 km
	d := geo.DistanceKm(50, 30, 50, 31)
	assert.InDelta(t, 71.5, d, 1)
}
