package model

import "time"

// Status is the lifecycle state a sensor reports for a target.
type Status uint8

const (
	StatusLost     Status = 0 // target dropped by the sensor
	StatusTracking Status = 1 // actively tracked
	StatusMemory   Status = 2 // coasting on prediction, no current detection
)

// Known reports whether s is one of the lifecycle states the store acts on.
func (s Status) Known() bool {
	return s <= StatusMemory
}

func (s Status) String() string {
	switch s {
	case StatusLost:
		return "lost"
	case StatusTracking:
		return "tracking"
	case StatusMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// Category is the major target classification.
type Category uint8

const (
	CategoryNone      Category = 0
	CategoryBird      Category = 1
	CategoryBalloon   Category = 2
	CategoryAircraft  Category = 3
	CategoryVehicle   Category = 4
	CategoryLargeBird Category = 5
	CategorySmallBird Category = 6
	CategoryUAV       Category = 7
	CategoryUnknown   Category = 0xF
)

var categoryNames = map[Category]string{
	CategoryNone:      "none",
	CategoryBird:      "bird",
	CategoryBalloon:   "balloon",
	CategoryAircraft:  "aircraft",
	CategoryVehicle:   "vehicle",
	CategoryLargeBird: "large-bird",
	CategorySmallBird: "small-bird",
	CategoryUAV:       "uav",
	CategoryUnknown:   "unknown",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// IFF is the friend-or-foe attribute of a track.
type IFF uint8

const (
	IFFHostile IFF = iota
	IFFHostileAlly
	IFFOwn
	IFFFriendly
	IFFNeutral
	IFFUnknown
	IFFUnidentified
)

// TrackSource names the radar geometry a track was formed from.
type TrackSource uint8

const (
	SourceHorizontal TrackSource = iota
	SourceVertical
	SourceFused
)

// TrackRecord is the engineering-unit view of one wire record, tagged with
// the station and sensor of the frame that carried it. Angles are degrees,
// distances metres, velocities m/s and levels dB unless noted.
type TrackRecord struct {
	StationID uint16
	Sensor    SensorID

	// ID is the target batch number, the stable key across frames.
	ID      uint16
	Channel uint16
	Serial  uint32
	Hits    uint16

	Status      Status
	Working     uint8
	ReportFlagA uint8
	ReportFlagB uint8
	IFF         IFF
	Source      TrackSource
	Quality     uint8
	Fixed       bool
	Ghost       bool
	Slow        bool

	Date      uint32
	TimeOfDay time.Duration

	Range     float64
	Azimuth   float64
	Elevation float64

	PointRange     float64
	PointAzimuth   float64
	PointElevation float64

	RadialVelocity float64
	AzimuthRate    float64 // deg/s
	ElevationRate  float64 // deg/s
	Speed          float64
	Acceleration   float64 // m/s²
	Course         float64

	RangeErrMean     float64
	RangeErrStd      float64
	AzimuthErrMean   float64
	AzimuthErrStd    float64
	ElevationErrMean float64
	ElevationErrStd  float64

	Amplitude float64
	SNR       float64
	RCS       float64

	Category   Category
	Species    uint8
	Threat     uint8
	TaskStatus uint8

	Platform Platform

	ServoAzimuth float64
	ServoPitch   float64
	PulseWidth   uint16
	ChirpRate    uint8
	Bandwidth    uint8

	AirportDistance   float64
	TrackingFrequency uint16
	TrackingPeriod    time.Duration
	ProcessingSeq     uint32

	ECEF         Position
	ECEFVelocity Position

	ThreatAreaDistance float64
	ThreatAreaTime     time.Duration

	// Derived at decode time.
	ProjectedRange      float64
	Latitude            float64
	Longitude           float64
	Height              float64
	HeightAbovePlatform float64
	Map                 Position
}
