package protocol

import (
	"time"

	"github.com/signalsfoundry/radar-track-ingest/model"
)

func sampleHeader() model.FrameHeader {
	return model.FrameHeader{
		MsgCode:   SyncCode,
		Command:   CommandTrackReport,
		Sequence:  7,
		StationID: 31,
		Sensor:    model.SensorFused,
		BCD:       BCDFromTime(time.Date(2025, time.October, 17, 8, 30, 15, 0, time.UTC)),
		Ticks:     40000,
	}
}

func sampleItem(id uint16, status uint8) model.WireTrackItem {
	return model.WireTrackItem{
		Status:      status,
		Working:     1,
		ReportFlagA: 3,
		ReportFlagB: 0xA,
		TgtNum:      id,
		ChanNum:     4,
		BurstNum:    123456,
		TrkHits:     17,
		IFF:         5,
		TgtType:     2,
		Quality:     7,
		Reserved2:   0xF,
		FixFlag:     true,
		SlowFlag:    true,
		Date:        9000,
		Time:        1440000,
		TgtRng:      1000,
		TgtAzi:      1000000,
		TgtEle:      -250000,
		DtcRng:      1010,
		DtcAzi:      999000,
		DtcEle:      -249000,
		RadialVel:   -1234,
		AziVel:      -500,
		EleVel:      250,
		Speed:       155,
		Acc:         120,
		Course:      2705,
		RngErrMean:  -12,
		RngErrStd:   30,
		AzErrMean:   -4,
		AzErrStd:    9,
		EleErrMean:  3,
		EleErrStd:   11,
		Amp:         455,
		SNR:         1820,
		RCS:         -1550,
		Category:    7,
		Species:     3,
		Threat:      2,
		TaskStatus:  1,
		PlatLon:     11632000,
		PlatLat:     3995000,
		PlatAlt:     4550,
		ServoYaw:    16384,
		ServoPitch:  910,
		PulseWidth:  40,
		ChirpRate:   12,
		Bandwidth:   5,
		DisAirport:  35000,
		TasFreq:     3,
		TasPeriod:   250,
		TasNum:      99,
		X:           -217806000,
		Y:           443218000,
		Z:           407403000,
		VX:          120,
		VY:          -340,
		VZ:          15,
		ThreatDis:   8000,
		ThreatTime:  42,
	}
}

type fakeGeo struct {
	gotECEF [3]float64
	gotLLH  [3]float64
	lat     float64
	lon     float64
	height  float64
	mapXYZ  [3]float64
}

func (g *fakeGeo) ECEFToLLH(x, y, z float64) (float64, float64, float64) {
	g.gotECEF = [3]float64{x, y, z}
	return g.lat, g.lon, g.height
}

func (g *fakeGeo) LLHToMapXYZ(lat, lon, h float64) (float64, float64, float64) {
	g.gotLLH = [3]float64{lat, lon, h}
	return g.mapXYZ[0], g.mapXYZ[1], g.mapXYZ[2]
}
