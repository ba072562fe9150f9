// Package geo implements the proximity policy used by the attendance
// verification gate.
package geo

import "math"

const earthRadiusMeters = 6371000

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Policy bounds scans to a radius around a reference point. A disabled
// policy allows everything, including scans with no location at all.
type Policy struct {
	Enabled      bool
	Center       Point
	RadiusMeters float64
}

// Allows reports whether a scan location satisfies the policy. loc is nil
// when the student device sent no coordinates.
func (p Policy) Allows(loc *Point) bool {
	if !p.Enabled {
		return true
	}
	if loc == nil {
		return false
	}
	return DistanceMeters(p.Center, *loc) <= p.RadiusMeters
}

// DistanceMeters returns the haversine great-circle distance between two points.
func DistanceMeters(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
