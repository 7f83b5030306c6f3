package protocol

import (
	"math"
	"time"
)

// Scale is the physical value of one raw integer unit of a wire field.
type Scale float64

const (
	Distance01m Scale = 0.1     // ranges, speed, airport and threat-area distance
	Angle1e5Deg Scale = 0.00001 // azimuth, elevation, platform lon/lat
	Velocity001 Scale = 0.01    // radial velocity, m/s
	AngRate1e3  Scale = 0.001   // azimuth/elevation rate, deg/s
	Accel001    Scale = 0.01    // m/s²
	Course01Deg Scale = 0.1
	ErrAngle1e3 Scale = 0.001
	Amp01dB     Scale = 0.1
	SNR001dB    Scale = 0.01
	RCS001dB    Scale = 0.01
	Alt001m     Scale = 0.01
	ServoLSB    Scale = 0.005493247 // servo azimuth/pitch, deg
	Period1e3s  Scale = 0.001       // tracking period, seconds
	ECEF001     Scale = 0.01        // earth-centred position (m) and velocity (m/s)
)

// TickDuration is the unit of the record time-of-day and header sub-second fields.
const TickDuration = 25 * time.Microsecond

// Apply converts a raw field value to physical units. Callers widen the
// wire integer to int64 first, so signedness is carried by the field type.
func (s Scale) Apply(raw int64) float64 {
	return float64(raw) * float64(s)
}

// Raw converts a physical value back to the nearest raw integer.
func (s Scale) Raw(v float64) int64 {
	return int64(math.Round(v / float64(s)))
}

func clampU32(v int64) uint32 {
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(v)
}

func clampI32(v int64) int32 {
	switch {
	case v < math.MinInt32:
		return math.MinInt32
	case v > math.MaxInt32:
		return math.MaxInt32
	}
	return int32(v)
}

func clampU16(v int64) uint16 {
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(v)
}

func clampI16(v int64) int16 {
	switch {
	case v < math.MinInt16:
		return math.MinInt16
	case v > math.MaxInt16:
		return math.MaxInt16
	}
	return int16(v)
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}
