package protocol

import (
	"encoding/binary"
	"time"

	"github.com/signalsfoundry/radar-track-ingest/model"
)

// Trailer holds the two words that close a frame.
type Trailer struct {
	Checksum uint16
	End      uint16
}

// Encoder builds wire frames. It is used for fixtures, capture synthesis
// and the traffic simulator.
type Encoder struct {
	order binary.ByteOrder
}

// NewEncoder returns an Encoder writing multi-byte fields in order.
func NewEncoder(order binary.ByteOrder) *Encoder {
	if order == nil {
		order = binary.LittleEndian
	}
	return &Encoder{order: order}
}

// EncodeItem writes one record into a fresh RecordSize buffer.
func (e *Encoder) EncodeItem(it model.WireTrackItem) []byte {
	rec := make([]byte, RecordSize)
	putItem(e.order, rec, it)
	return rec
}

// EncodeFrame assembles header, target count, records and trailer. A zero
// hdr.Length is replaced by the encoded frame length.
func (e *Encoder) EncodeFrame(hdr model.FrameHeader, items []model.WireTrackItem, tr Trailer) []byte {
	size := RecordsOffset + len(items)*RecordSize + TrailerSize
	buf := make([]byte, size)
	if hdr.Length == 0 {
		hdr.Length = clampU16(int64(size))
	}
	putHeader(e.order, buf, hdr)
	e.order.PutUint16(buf[HeaderSize:], uint16(len(items)))

	off := RecordsOffset
	for _, it := range items {
		putItem(e.order, buf[off:off+RecordSize], it)
		off += RecordSize
	}
	e.order.PutUint16(buf[off:], tr.Checksum)
	e.order.PutUint16(buf[off+2:], tr.End)
	return buf
}

// Quantize converts an engineering-unit record back to wire integers,
// rounding to the nearest raw unit and saturating at the field bounds.
// Derived fields are not encoded.
func Quantize(r model.TrackRecord) model.WireTrackItem {
	it := model.WireTrackItem{
		Status:      uint8(r.Status) & 0x0F,
		Working:     r.Working & 0x0F,
		ReportFlagA: r.ReportFlagA & 0x0F,
		ReportFlagB: r.ReportFlagB & 0x0F,
		TgtNum:      r.ID,
		ChanNum:     r.Channel,
		BurstNum:    r.Serial,
		TrkHits:     r.Hits,
		IFF:         uint8(r.IFF) & 0x0F,
		TgtType:     uint8(r.Source) & 0x0F,
		Quality:     r.Quality & 0x0F,
		FixFlag:     r.Fixed,
		GhostFlag:   r.Ghost,
		SlowFlag:    r.Slow,
		Date:        r.Date,
		Time:        clampU32(int64(r.TimeOfDay / TickDuration)),

		TgtRng: clampU32(Distance01m.Raw(r.Range)),
		TgtAzi: clampU32(Angle1e5Deg.Raw(r.Azimuth)),
		TgtEle: clampI32(Angle1e5Deg.Raw(r.Elevation)),
		DtcRng: clampU32(Distance01m.Raw(r.PointRange)),
		DtcAzi: clampU32(Angle1e5Deg.Raw(r.PointAzimuth)),
		DtcEle: clampI32(Angle1e5Deg.Raw(r.PointElevation)),

		RadialVel: clampI32(Velocity001.Raw(r.RadialVelocity)),
		AziVel:    clampI16(AngRate1e3.Raw(r.AzimuthRate)),
		EleVel:    clampI16(AngRate1e3.Raw(r.ElevationRate)),
		Speed:     clampU32(Distance01m.Raw(r.Speed)),
		Acc:       clampU16(Accel001.Raw(r.Acceleration)),
		Course:    clampU16(Course01Deg.Raw(r.Course)),

		RngErrMean: clampI16(Distance01m.Raw(r.RangeErrMean)),
		RngErrStd:  clampU16(Distance01m.Raw(r.RangeErrStd)),
		AzErrMean:  clampI16(ErrAngle1e3.Raw(r.AzimuthErrMean)),
		AzErrStd:   clampU16(ErrAngle1e3.Raw(r.AzimuthErrStd)),
		EleErrMean: clampI16(ErrAngle1e3.Raw(r.ElevationErrMean)),
		EleErrStd:  clampU16(ErrAngle1e3.Raw(r.ElevationErrStd)),

		Amp: clampU16(Amp01dB.Raw(r.Amplitude)),
		SNR: clampU16(SNR001dB.Raw(r.SNR)),
		RCS: clampI16(RCS001dB.Raw(r.RCS)),

		Category:   uint8(r.Category),
		Species:    r.Species,
		Threat:     r.Threat,
		TaskStatus: r.TaskStatus,

		PlatLon: clampI32(Angle1e5Deg.Raw(r.Platform.Longitude)),
		PlatLat: clampI32(Angle1e5Deg.Raw(r.Platform.Latitude)),
		PlatAlt: clampI32(Alt001m.Raw(r.Platform.Altitude)),

		ServoYaw:   clampU16(ServoLSB.Raw(r.ServoAzimuth)),
		ServoPitch: clampU16(ServoLSB.Raw(r.ServoPitch)),
		PulseWidth: r.PulseWidth,
		ChirpRate:  r.ChirpRate,
		Bandwidth:  r.Bandwidth,

		DisAirport: clampU32(Distance01m.Raw(r.AirportDistance)),
		TasFreq:    r.TrackingFrequency,
		TasPeriod:  clampU16(int64(r.TrackingPeriod / time.Millisecond)),
		TasNum:     r.ProcessingSeq,

		X:  clampI32(ECEF001.Raw(r.ECEF.X)),
		Y:  clampI32(ECEF001.Raw(r.ECEF.Y)),
		Z:  clampI32(ECEF001.Raw(r.ECEF.Z)),
		VX: clampI32(ECEF001.Raw(r.ECEFVelocity.X)),
		VY: clampI32(ECEF001.Raw(r.ECEFVelocity.Y)),
		VZ: clampI32(ECEF001.Raw(r.ECEFVelocity.Z)),

		ThreatDis:  clampU32(Distance01m.Raw(r.ThreatAreaDistance)),
		ThreatTime: clampU32(int64(r.ThreatAreaTime / time.Second)),
	}
	return it
}
