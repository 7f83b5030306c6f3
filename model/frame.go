package model

import "time"

// FrameHeader is the fixed header that opens every track-report frame.
// It only lives as long as the frame being decoded.
type FrameHeader struct {
	MsgCode   uint16
	Command   uint16
	Length    uint16 // declared frame length including header and trailer
	Sequence  uint16
	StationID uint16
	Sensor    SensorID

	// BCD holds the raw year/month/day/hour/minute/second bytes.
	BCD [6]byte
	// Ticks counts 25µs units past BCD's second.
	Ticks uint16
	// Timestamp is BCD plus Ticks; zero when the BCD digits are invalid.
	Timestamp time.Time

	Sync     uint16 // 1 when emitted for a synchronisation command
	Reserved uint16
}

// WireTrackItem mirrors one per-target wire record field by field, with
// no unit conversion applied. Sub-byte fields are already unpacked.
type WireTrackItem struct {
	Status       uint8
	Working      uint8
	ReportFlagA  uint8
	ReportFlagB  uint8
	TgtNum       uint16
	ChanNum      uint16
	BurstNum     uint32
	TrkHits      uint16
	IFF          uint8
	TgtType      uint8
	Quality      uint8
	Reserved2    uint8
	FixFlag      bool
	GhostFlag    bool
	SlowFlag     bool
	FlagReserved uint16
	Spare        uint16

	Date uint32
	Time uint32

	TgtRng uint32
	TgtAzi uint32
	TgtEle int32
	DtcRng uint32
	DtcAzi uint32
	DtcEle int32

	RadialVel int32
	AziVel    int16
	EleVel    int16
	Speed     uint32
	Acc       uint16
	Course    uint16

	RngErrMean int16
	RngErrStd  uint16
	AzErrMean  int16
	AzErrStd   uint16
	EleErrMean int16
	EleErrStd  uint16

	Amp uint16
	SNR uint16
	RCS int16

	Category   uint8
	Species    uint8
	Threat     uint8
	TaskStatus uint8

	PlatLon int32
	PlatLat int32
	PlatAlt int32

	ServoYaw   uint16
	ServoPitch uint16
	PulseWidth uint16
	ChirpRate  uint8
	Bandwidth  uint8

	DisAirport uint32
	TasFreq    uint16
	TasPeriod  uint16
	TasNum     uint32

	X, Y, Z    int32
	VX, VY, VZ int32

	ThreatDis  uint32
	ThreatTime uint32

	Padding [4]uint16
}
