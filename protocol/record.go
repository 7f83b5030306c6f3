package protocol

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/signalsfoundry/radar-track-ingest/model"
)

// Record field offsets, relative to the start of a record.
const (
	offStatus     = 0 // status | working<<4
	offReport     = 1 // report flag A | report flag B<<4
	offTgtNum     = 2
	offChan       = 4
	offBurst      = 6
	offHits       = 10
	offIFF        = 12 // iff | type<<4 | quality<<8 | reserved<<12
	offFlags      = 14 // fixed bit0, ghost bit1, slow bit2, reserved bits 3-15
	offSpare      = 16
	offDate       = 18
	offTime       = 22
	offTgtRng     = 26
	offTgtAzi     = 30
	offTgtEle     = 34
	offDtcRng     = 38
	offDtcAzi     = 42
	offDtcEle     = 46
	offRadial     = 50
	offAziVel     = 54
	offEleVel     = 56
	offSpeed      = 58
	offAcc        = 62
	offCourse     = 64
	offRngErr     = 66 // mean, std
	offAzErr      = 70
	offEleErr     = 74
	offAmp        = 78
	offSNR        = 80
	offRCS        = 82
	offClass      = 84 // category | species<<8
	offThreat     = 86 // threat | task<<8
	offPlatLon    = 88
	offPlatLat    = 92
	offPlatAlt    = 96
	offServoYaw   = 100
	offServoPitch = 102
	offPulse      = 104
	offChirp      = 106
	offBand       = 107
	offAirport    = 108
	offTasFreq    = 112
	offTasPeriod  = 114
	offTasNum     = 116
	offECEF       = 120 // X, Y, Z
	offECEFVel    = 132 // VX, VY, VZ
	offThreatDis  = 144
	offThreatTime = 148
	offPadding    = 152
)

// DecodeItem extracts the raw fields of one record. rec must hold at least
// RecordSize bytes; exactly RecordSize bytes are read whatever the values.
func (d *Decoder) DecodeItem(rec []byte) model.WireTrackItem {
	_ = rec[RecordSize-1]
	o := d.order
	u16 := func(off int) uint16 { return o.Uint16(rec[off:]) }
	u32 := func(off int) uint32 { return o.Uint32(rec[off:]) }
	i16 := func(off int) int16 { return int16(o.Uint16(rec[off:])) }
	i32 := func(off int) int32 { return int32(o.Uint32(rec[off:])) }

	var it model.WireTrackItem

	it.Status = rec[offStatus] & 0x0F
	it.Working = rec[offStatus] >> 4
	it.ReportFlagA = rec[offReport] & 0x0F
	it.ReportFlagB = rec[offReport] >> 4

	it.TgtNum = u16(offTgtNum)
	it.ChanNum = u16(offChan)
	it.BurstNum = u32(offBurst)
	it.TrkHits = u16(offHits)

	iff := u16(offIFF)
	it.IFF = uint8(iff & 0x0F)
	it.TgtType = uint8(iff >> 4 & 0x0F)
	it.Quality = uint8(iff >> 8 & 0x0F)
	it.Reserved2 = uint8(iff >> 12)

	flags := u16(offFlags)
	it.FixFlag = flags&0x1 != 0
	it.GhostFlag = flags&0x2 != 0
	it.SlowFlag = flags&0x4 != 0
	it.FlagReserved = flags >> 3
	it.Spare = u16(offSpare)

	it.Date = u32(offDate)
	it.Time = u32(offTime)

	it.TgtRng = u32(offTgtRng)
	it.TgtAzi = u32(offTgtAzi)
	it.TgtEle = i32(offTgtEle)
	it.DtcRng = u32(offDtcRng)
	it.DtcAzi = u32(offDtcAzi)
	it.DtcEle = i32(offDtcEle)

	it.RadialVel = i32(offRadial)
	it.AziVel = i16(offAziVel)
	it.EleVel = i16(offEleVel)
	it.Speed = u32(offSpeed)
	it.Acc = u16(offAcc)
	it.Course = u16(offCourse)

	it.RngErrMean = i16(offRngErr)
	it.RngErrStd = u16(offRngErr + 2)
	it.AzErrMean = i16(offAzErr)
	it.AzErrStd = u16(offAzErr + 2)
	it.EleErrMean = i16(offEleErr)
	it.EleErrStd = u16(offEleErr + 2)

	it.Amp = u16(offAmp)
	it.SNR = u16(offSNR)
	it.RCS = i16(offRCS)

	class := u16(offClass)
	it.Category = uint8(class)
	it.Species = uint8(class >> 8)
	threat := u16(offThreat)
	it.Threat = uint8(threat)
	it.TaskStatus = uint8(threat >> 8)

	it.PlatLon = i32(offPlatLon)
	it.PlatLat = i32(offPlatLat)
	it.PlatAlt = i32(offPlatAlt)

	it.ServoYaw = u16(offServoYaw)
	it.ServoPitch = u16(offServoPitch)
	it.PulseWidth = u16(offPulse)
	it.ChirpRate = rec[offChirp]
	it.Bandwidth = rec[offBand]

	it.DisAirport = u32(offAirport)
	it.TasFreq = u16(offTasFreq)
	it.TasPeriod = u16(offTasPeriod)
	it.TasNum = u32(offTasNum)

	it.X = i32(offECEF)
	it.Y = i32(offECEF + 4)
	it.Z = i32(offECEF + 8)
	it.VX = i32(offECEFVel)
	it.VY = i32(offECEFVel + 4)
	it.VZ = i32(offECEFVel + 8)

	it.ThreatDis = u32(offThreatDis)
	it.ThreatTime = u32(offThreatTime)

	for i := range it.Padding {
		it.Padding[i] = u16(offPadding + 2*i)
	}
	return it
}

// DecodeRecord decodes one record and converts it to engineering units.
func (d *Decoder) DecodeRecord(hdr model.FrameHeader, rec []byte) model.TrackRecord {
	return d.Convert(hdr, d.DecodeItem(rec))
}

// Convert applies the unit scales to a raw record and derives the projected
// range and geodetic fields. Station and sensor come from hdr.
func (d *Decoder) Convert(hdr model.FrameHeader, it model.WireTrackItem) model.TrackRecord {
	var r model.TrackRecord
	r.StationID = hdr.StationID
	r.Sensor = hdr.Sensor

	r.ID = it.TgtNum
	r.Channel = it.ChanNum
	r.Serial = it.BurstNum
	r.Hits = it.TrkHits

	r.Status = model.Status(it.Status)
	r.Working = it.Working
	r.ReportFlagA = it.ReportFlagA
	r.ReportFlagB = it.ReportFlagB
	r.IFF = model.IFF(it.IFF)
	r.Source = model.TrackSource(it.TgtType)
	r.Quality = it.Quality
	r.Fixed = it.FixFlag
	r.Ghost = it.GhostFlag
	r.Slow = it.SlowFlag

	r.Date = it.Date
	r.TimeOfDay = time.Duration(it.Time) * TickDuration

	r.Range = Distance01m.Apply(int64(it.TgtRng))
	r.Azimuth = Angle1e5Deg.Apply(int64(it.TgtAzi))
	r.Elevation = Angle1e5Deg.Apply(int64(it.TgtEle))
	r.PointRange = Distance01m.Apply(int64(it.DtcRng))
	r.PointAzimuth = Angle1e5Deg.Apply(int64(it.DtcAzi))
	r.PointElevation = Angle1e5Deg.Apply(int64(it.DtcEle))

	r.RadialVelocity = Velocity001.Apply(int64(it.RadialVel))
	r.AzimuthRate = AngRate1e3.Apply(int64(it.AziVel))
	r.ElevationRate = AngRate1e3.Apply(int64(it.EleVel))
	r.Speed = Distance01m.Apply(int64(it.Speed))
	r.Acceleration = Accel001.Apply(int64(it.Acc))
	r.Course = Course01Deg.Apply(int64(it.Course))

	r.RangeErrMean = Distance01m.Apply(int64(it.RngErrMean))
	r.RangeErrStd = Distance01m.Apply(int64(it.RngErrStd))
	r.AzimuthErrMean = ErrAngle1e3.Apply(int64(it.AzErrMean))
	r.AzimuthErrStd = ErrAngle1e3.Apply(int64(it.AzErrStd))
	r.ElevationErrMean = ErrAngle1e3.Apply(int64(it.EleErrMean))
	r.ElevationErrStd = ErrAngle1e3.Apply(int64(it.EleErrStd))

	r.Amplitude = Amp01dB.Apply(int64(it.Amp))
	r.SNR = SNR001dB.Apply(int64(it.SNR))
	r.RCS = RCS001dB.Apply(int64(it.RCS))

	r.Category = model.Category(it.Category)
	r.Species = it.Species
	r.Threat = it.Threat
	r.TaskStatus = it.TaskStatus

	r.Platform = model.Platform{
		StationID: hdr.StationID,
		Sensor:    hdr.Sensor,
		Longitude: Angle1e5Deg.Apply(int64(it.PlatLon)),
		Latitude:  Angle1e5Deg.Apply(int64(it.PlatLat)),
		Altitude:  Alt001m.Apply(int64(it.PlatAlt)),
	}

	r.ServoAzimuth = ServoLSB.Apply(int64(it.ServoYaw))
	r.ServoPitch = ServoLSB.Apply(int64(it.ServoPitch))
	r.PulseWidth = it.PulseWidth
	r.ChirpRate = it.ChirpRate
	r.Bandwidth = it.Bandwidth

	r.AirportDistance = Distance01m.Apply(int64(it.DisAirport))
	r.TrackingFrequency = it.TasFreq
	r.TrackingPeriod = time.Duration(it.TasPeriod) * time.Millisecond
	r.ProcessingSeq = it.TasNum

	r.ECEF = model.Position{
		X: ECEF001.Apply(int64(it.X)),
		Y: ECEF001.Apply(int64(it.Y)),
		Z: ECEF001.Apply(int64(it.Z)),
	}
	r.ECEFVelocity = model.Position{
		X: ECEF001.Apply(int64(it.VX)),
		Y: ECEF001.Apply(int64(it.VY)),
		Z: ECEF001.Apply(int64(it.VZ)),
	}

	r.ThreatAreaDistance = Distance01m.Apply(int64(it.ThreatDis))
	r.ThreatAreaTime = time.Duration(it.ThreatTime) * time.Second

	// Filtered range and elevation, not the point values.
	r.ProjectedRange = r.Range * math.Cos(degToRad(r.Elevation))

	if d.geo != nil {
		lat, lon, h := d.geo.ECEFToLLH(r.ECEF.X, r.ECEF.Y, r.ECEF.Z)
		r.Latitude, r.Longitude, r.Height = lat, lon, h
		r.HeightAbovePlatform = math.Abs(h - r.Platform.Altitude)
		x, y, z := d.geo.LLHToMapXYZ(lat, lon, h)
		r.Map = model.Position{X: x, Y: y, Z: z}
	}
	return r
}

func putItem(o binary.ByteOrder, rec []byte, it model.WireTrackItem) {
	_ = rec[RecordSize-1]
	p16 := func(off int, v uint16) { o.PutUint16(rec[off:], v) }
	p32 := func(off int, v uint32) { o.PutUint32(rec[off:], v) }

	rec[offStatus] = it.Status&0x0F | it.Working<<4
	rec[offReport] = it.ReportFlagA&0x0F | it.ReportFlagB<<4
	p16(offTgtNum, it.TgtNum)
	p16(offChan, it.ChanNum)
	p32(offBurst, it.BurstNum)
	p16(offHits, it.TrkHits)
	p16(offIFF, uint16(it.IFF&0x0F)|uint16(it.TgtType&0x0F)<<4|uint16(it.Quality&0x0F)<<8|uint16(it.Reserved2&0x0F)<<12)

	var flags uint16
	if it.FixFlag {
		flags |= 0x1
	}
	if it.GhostFlag {
		flags |= 0x2
	}
	if it.SlowFlag {
		flags |= 0x4
	}
	p16(offFlags, flags|it.FlagReserved<<3)
	p16(offSpare, it.Spare)

	p32(offDate, it.Date)
	p32(offTime, it.Time)
	p32(offTgtRng, it.TgtRng)
	p32(offTgtAzi, it.TgtAzi)
	p32(offTgtEle, uint32(it.TgtEle))
	p32(offDtcRng, it.DtcRng)
	p32(offDtcAzi, it.DtcAzi)
	p32(offDtcEle, uint32(it.DtcEle))

	p32(offRadial, uint32(it.RadialVel))
	p16(offAziVel, uint16(it.AziVel))
	p16(offEleVel, uint16(it.EleVel))
	p32(offSpeed, it.Speed)
	p16(offAcc, it.Acc)
	p16(offCourse, it.Course)

	p16(offRngErr, uint16(it.RngErrMean))
	p16(offRngErr+2, it.RngErrStd)
	p16(offAzErr, uint16(it.AzErrMean))
	p16(offAzErr+2, it.AzErrStd)
	p16(offEleErr, uint16(it.EleErrMean))
	p16(offEleErr+2, it.EleErrStd)

	p16(offAmp, it.Amp)
	p16(offSNR, it.SNR)
	p16(offRCS, uint16(it.RCS))
	p16(offClass, uint16(it.Category)|uint16(it.Species)<<8)
	p16(offThreat, uint16(it.Threat)|uint16(it.TaskStatus)<<8)

	p32(offPlatLon, uint32(it.PlatLon))
	p32(offPlatLat, uint32(it.PlatLat))
	p32(offPlatAlt, uint32(it.PlatAlt))

	p16(offServoYaw, it.ServoYaw)
	p16(offServoPitch, it.ServoPitch)
	p16(offPulse, it.PulseWidth)
	rec[offChirp] = it.ChirpRate
	rec[offBand] = it.Bandwidth

	p32(offAirport, it.DisAirport)
	p16(offTasFreq, it.TasFreq)
	p16(offTasPeriod, it.TasPeriod)
	p32(offTasNum, it.TasNum)

	p32(offECEF, uint32(it.X))
	p32(offECEF+4, uint32(it.Y))
	p32(offECEF+8, uint32(it.Z))
	p32(offECEFVel, uint32(it.VX))
	p32(offECEFVel+4, uint32(it.VY))
	p32(offECEFVel+8, uint32(it.VZ))

	p32(offThreatDis, it.ThreatDis)
	p32(offThreatTime, it.ThreatTime)
	for i, v := range it.Padding {
		p16(offPadding+2*i, v)
	}
}
