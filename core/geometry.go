package core

import (
	"math"

	satellite "github.com/joshuaferrara/go-satellite"
)

// WGS84 ellipsoid parameters.
const (
	WGS84SemiMajor  = 6378137.0 // metres
	WGS84Flattening = 1.0 / 298.257223563
)

var (
	wgs84E2        = WGS84Flattening * (2.0 - WGS84Flattening)
	wgs84SemiMinor = WGS84SemiMajor * (1.0 - WGS84Flattening)
)

// Vec3 is an earth-centred or local Cartesian vector in metres.
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// GeodeticToECEF converts latitude/longitude in degrees and ellipsoidal
// height in metres to an earth-centred position.
func GeodeticToECEF(lat, lon, h float64) Vec3 {
	sinp, cosp := math.Sincos(lat * math.Pi / 180.0)
	sinl, cosl := math.Sincos(lon * math.Pi / 180.0)
	n := WGS84SemiMajor / math.Sqrt(1.0-wgs84E2*sinp*sinp)

	return Vec3{
		X: (n + h) * cosp * cosl,
		Y: (n + h) * cosp * sinl,
		Z: (n*(1.0-wgs84E2) + h) * sinp,
	}
}

// ECEFToGeodetic converts an earth-centred position to latitude/longitude in
// degrees and ellipsoidal height in metres.
//
// go-satellite works in kilometres on inertial coordinates; with a zero
// sidereal angle the inertial and earth-fixed frames coincide.
func ECEFToGeodetic(p Vec3) (lat, lon, h float64) {
	const mToKm = 1.0 / 1000.0

	// The iteration divides by cos(lat); on the polar axis use the closed form.
	if math.Hypot(p.X, p.Y) < 1.0 {
		lat = 90.0
		if p.Z < 0 {
			lat = -90.0
		}
		return lat, 0, math.Abs(p.Z) - wgs84SemiMinor
	}

	altKm, _, ll := satellite.ECIToLLA(satellite.Vector3{X: p.X * mToKm, Y: p.Y * mToKm, Z: p.Z * mToKm}, 0)
	return ll.Latitude * 180.0 / math.Pi, ll.Longitude * 180.0 / math.Pi, altKm * 1000.0
}

// MapProjection places geodetic positions in a local east-north-up frame
// anchored at a fixed map origin. It is safe for concurrent use.
type MapProjection struct {
	originLat, originLon, originH float64

	origin Vec3
	// rot is the ECEF→ENU rotation, row-major.
	rot [9]float64
}

// NewMapProjection anchors the map frame at the given geodetic origin.
func NewMapProjection(lat, lon, h float64) *MapProjection {
	sinp, cosp := math.Sincos(lat * math.Pi / 180.0)
	sinl, cosl := math.Sincos(lon * math.Pi / 180.0)

	return &MapProjection{
		originLat: lat,
		originLon: lon,
		originH:   h,
		origin:    GeodeticToECEF(lat, lon, h),
		rot: [9]float64{
			-sinl, cosl, 0,
			-sinp * cosl, -sinp * sinl, cosp,
			cosp * cosl, cosp * sinl, sinp,
		},
	}
}

// Origin returns the map origin in degrees and metres.
func (m *MapProjection) Origin() (lat, lon, h float64) {
	return m.originLat, m.originLon, m.originH
}

// ECEFToLLH converts an earth-centred position to geodetic coordinates.
func (m *MapProjection) ECEFToLLH(x, y, z float64) (lat, lon, h float64) {
	return ECEFToGeodetic(Vec3{X: x, Y: y, Z: z})
}

// LLHToMapXYZ returns the east/north/up offset in metres of a geodetic
// position from the map origin.
func (m *MapProjection) LLHToMapXYZ(lat, lon, h float64) (x, y, z float64) {
	d := GeodeticToECEF(lat, lon, h).Sub(m.origin)
	r := &m.rot
	return r[0]*d.X + r[1]*d.Y + r[2]*d.Z,
		r[3]*d.X + r[4]*d.Y + r[5]*d.Z,
		r[6]*d.X + r[7]*d.Y + r[8]*d.Z
}
