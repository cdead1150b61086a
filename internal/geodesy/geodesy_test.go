package geodesy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInverseKnownSeparation(t *testing.T) {
	inv := Inverse(10.0, 20.0, 10.0001, 20.0001)

	assert.InDelta(t, 15.6, inv.Distance, 0.2)
	assert.InDelta(t, 45, inv.InitialBearing, 1.0)
}

func TestInverseCardinalBearings(t *testing.T) {
	north := Inverse(0, 0, 1, 0)
	assert.InDelta(t, 0, angleDiff(0, north.InitialBearing), 1e-9)
	assert.InDelta(t, 110574.4, north.Distance, 1.0)

	west := Inverse(0, 0, 0, -1)
	assert.InDelta(t, 270, west.InitialBearing, 1e-6)
}

func TestDirectInverseRoundTrip(t *testing.T) {
	cases := []struct {
		lat, lon, bearing, distance float64
	}{
		{10, 20, 45, 20},
		{48.8566, 2.3522, 180, 1500},
		{-33.86, 151.21, 300, 50},
		{0, 179.9999, 90, 100},
		{70, -20, 359.5, 12345},
	}

	for _, c := range cases {
		lat2, lon2 := Direct(c.lat, c.lon, c.bearing, c.distance)
		inv := Inverse(c.lat, c.lon, lat2, lon2)

		assert.InDelta(t, c.distance, inv.Distance, 1e-6, "distance for %+v", c)
		assert.InDelta(t, 0, angleDiff(c.bearing, inv.InitialBearing), 1e-6, "bearing for %+v", c)
	}
}

func TestFollowPointDistanceFromLeader(t *testing.T) {
	leaderLat, leaderLon := 10.0, 20.0
	followers := [][2]float64{{10.0001, 20.0001}, {9.9995, 20.0}, {10.0, 19.998}, {10.003, 20.004}}

	for _, f := range followers {
		for _, d := range []float64{5, 20, 75} {
			lat, lon := FollowPoint(leaderLat, leaderLon, f[0], f[1], d)
			inv := Inverse(leaderLat, leaderLon, lat, lon)
			assert.InDelta(t, d, inv.Distance, 1e-6)

			toFollower := Inverse(leaderLat, leaderLon, f[0], f[1])
			assert.InDelta(t, 0, angleDiff(toFollower.InitialBearing, inv.InitialBearing), 1e-4)
		}
	}
}

func TestFollowPointCoincident(t *testing.T) {
	lat, lon := FollowPoint(10, 20, 10, 20, 20)
	inv := Inverse(10, 20, lat, lon)

	assert.InDelta(t, 20, inv.Distance, 1e-6)
	assert.InDelta(t, 0, angleDiff(0, inv.InitialBearing), 1e-6)
}

func TestNormalizeBearing(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeBearing(360))
	assert.Equal(t, 270.0, NormalizeBearing(-90))
	assert.Equal(t, 10.0, NormalizeBearing(730))
}

func angleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
