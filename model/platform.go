package model

// Position is a Cartesian position or velocity in metres (or m/s).
// It is used both for earth-centred coordinates and the local map frame.
type Position struct {
	X float64
	Y float64
	Z float64
}

// Platform describes the radar site that reported a track, as carried in
// every wire record. Longitude and latitude are degrees, altitude metres.
type Platform struct {
	StationID uint16
	Sensor    SensorID

	Longitude float64
	Latitude  float64
	Altitude  float64
}

// SensorID identifies which radar of a station produced a frame.
type SensorID uint16

const (
	SensorAzimuth   SensorID = 0 // horizontal-scan radar
	SensorElevation SensorID = 1 // vertical-scan radar
	SensorFused     SensorID = 2 // fused track output
)

func (s SensorID) String() string {
	switch s {
	case SensorAzimuth:
		return "azimuth"
	case SensorElevation:
		return "elevation"
	case SensorFused:
		return "fused"
	default:
		return "unknown"
	}
}
