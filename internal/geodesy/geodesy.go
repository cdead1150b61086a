// Package geodesy computes bearings, distances and destination points on the
// WGS84 ellipsoid.
package geodesy

import (
	"math"

	"github.com/tidwall/geodesic"
)

const (
	SemiMajorAxis = 6378137.0
	Flattening    = 1 / 298.257223563
)

var ellipsoid = geodesic.NewEllipsoid(SemiMajorAxis, Flattening)

// InverseResult is the solution of the inverse geodesic problem.
type InverseResult struct {
	Distance       float64 // meters
	InitialBearing float64 // degrees in [0, 360)
}

// Inverse returns the distance and initial bearing from A to B.
func Inverse(latA, lonA, latB, lonB float64) InverseResult {
	var s12, azi1 float64
	ellipsoid.Inverse(latA, lonA, latB, lonB, &s12, &azi1, nil)
	return InverseResult{Distance: s12, InitialBearing: NormalizeBearing(azi1)}
}

// Direct returns the point reached travelling distance meters from (lat, lon)
// along bearing degrees.
func Direct(lat, lon, bearing, distance float64) (float64, float64) {
	var lat2, lon2 float64
	ellipsoid.Direct(lat, lon, bearing, distance, &lat2, &lon2, nil)
	return lat2, lon2
}

// FollowPoint returns the point distance meters from the leader along the
// bearing from leader toward follower. Coincident positions use bearing 0.
func FollowPoint(leaderLat, leaderLon, followerLat, followerLon, distance float64) (float64, float64) {
	inv := Inverse(leaderLat, leaderLon, followerLat, followerLon)
	bearing := inv.InitialBearing
	if inv.Distance == 0 {
		bearing = 0
	}
	return Direct(leaderLat, leaderLon, bearing, distance)
}

// NormalizeBearing maps any angle in degrees to [0, 360).
func NormalizeBearing(deg float64) float64 {
	b := math.Mod(deg, 360)
	if b < 0 {
		b += 360
	}
	if b >= 360 {
		b = 0
	}
	return b
}
