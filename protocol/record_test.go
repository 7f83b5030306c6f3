package protocol

import (
	"encoding/binary"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/signalsfoundry/radar-track-ingest/model"
)

func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %v, want %v (±%v)", name, got, want, tol)
	}
}

func TestDecodeItemMatchesEncoderBothByteOrders(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			want := sampleItem(42, 1)
			rec := NewEncoder(order).EncodeItem(want)
			if len(rec) != RecordSize {
				t.Fatalf("encoded record is %d bytes, want %d", len(rec), RecordSize)
			}
			got := NewDecoder(WithByteOrder(order)).DecodeItem(rec)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("DecodeItem mismatch\n got: %+v\nwant: %+v", got, want)
			}
		})
	}
}

func TestDecodeItemFixedOffsets(t *testing.T) {
	rec := make([]byte, RecordSize)
	rec[0] = 0x12 // status 2, working 1
	rec[1] = 0xA3 // report A 3, report B 0xA
	binary.LittleEndian.PutUint16(rec[2:], 42)
	binary.LittleEndian.PutUint16(rec[12:], 0xF725) // iff 5, type 2, quality 7, reserved 0xF
	binary.LittleEndian.PutUint16(rec[14:], 0x0006) // ghost + slow
	binary.LittleEndian.PutUint32(rec[26:], 1000)
	binary.LittleEndian.PutUint32(rec[30:], 1000000)
	binary.LittleEndian.PutUint16(rec[84:], 0x0307) // category 7, species 3
	rec[106], rec[107] = 9, 4
	binary.LittleEndian.PutUint32(rec[148:], 77)

	it := NewDecoder().DecodeItem(rec)
	if it.Status != 2 || it.Working != 1 {
		t.Fatalf("status/working = %d/%d, want 2/1", it.Status, it.Working)
	}
	if it.ReportFlagA != 3 || it.ReportFlagB != 0xA {
		t.Fatalf("report flags = %d/%d, want 3/10", it.ReportFlagA, it.ReportFlagB)
	}
	if it.TgtNum != 42 {
		t.Fatalf("TgtNum = %d, want 42", it.TgtNum)
	}
	if it.IFF != 5 || it.TgtType != 2 || it.Quality != 7 || it.Reserved2 != 0xF {
		t.Fatalf("iff word unpacked to %d/%d/%d/%d", it.IFF, it.TgtType, it.Quality, it.Reserved2)
	}
	if it.FixFlag || !it.GhostFlag || !it.SlowFlag {
		t.Fatalf("flags = fix:%v ghost:%v slow:%v", it.FixFlag, it.GhostFlag, it.SlowFlag)
	}
	if it.TgtRng != 1000 || it.TgtAzi != 1000000 {
		t.Fatalf("range/azimuth = %d/%d", it.TgtRng, it.TgtAzi)
	}
	if it.Category != 7 || it.Species != 3 {
		t.Fatalf("class = %d/%d, want 7/3", it.Category, it.Species)
	}
	if it.ChirpRate != 9 || it.Bandwidth != 4 {
		t.Fatalf("chirp/band = %d/%d", it.ChirpRate, it.Bandwidth)
	}
	if it.ThreatTime != 77 {
		t.Fatalf("ThreatTime = %d, want 77", it.ThreatTime)
	}
}

func TestDecodeItemSignedFields(t *testing.T) {
	rec := make([]byte, RecordSize)
	binary.BigEndian.PutUint32(rec[34:], uint32(0xFFFFFFFF)) // elevation -1
	binary.BigEndian.PutUint16(rec[82:], 0xFF38)             // rcs -200

	it := NewDecoder(WithByteOrder(binary.BigEndian)).DecodeItem(rec)
	if it.TgtEle != -1 {
		t.Fatalf("TgtEle = %d, want -1", it.TgtEle)
	}
	if it.RCS != -200 {
		t.Fatalf("RCS = %d, want -200", it.RCS)
	}
}

func TestConvertAppliesScales(t *testing.T) {
	d := NewDecoder()
	r := d.Convert(sampleHeader(), sampleItem(42, 1))

	if r.ID != 42 || r.Status != model.StatusTracking {
		t.Fatalf("id/status = %d/%v", r.ID, r.Status)
	}
	approx(t, "Range", r.Range, 100.0, 1e-9)
	approx(t, "Azimuth", r.Azimuth, 10.0, 1e-9)
	approx(t, "Elevation", r.Elevation, -2.5, 1e-9)
	approx(t, "PointRange", r.PointRange, 101.0, 1e-9)
	approx(t, "RadialVelocity", r.RadialVelocity, -12.34, 1e-9)
	approx(t, "AzimuthRate", r.AzimuthRate, -0.5, 1e-9)
	approx(t, "Speed", r.Speed, 15.5, 1e-9)
	approx(t, "Acceleration", r.Acceleration, 1.2, 1e-9)
	approx(t, "Course", r.Course, 270.5, 1e-9)
	approx(t, "RangeErrMean", r.RangeErrMean, -1.2, 1e-9)
	approx(t, "AzimuthErrStd", r.AzimuthErrStd, 0.009, 1e-12)
	approx(t, "Amplitude", r.Amplitude, 45.5, 1e-9)
	approx(t, "SNR", r.SNR, 18.2, 1e-9)
	approx(t, "RCS", r.RCS, -15.5, 1e-9)
	approx(t, "Platform.Longitude", r.Platform.Longitude, 116.32, 1e-9)
	approx(t, "Platform.Latitude", r.Platform.Latitude, 39.95, 1e-9)
	approx(t, "Platform.Altitude", r.Platform.Altitude, 45.5, 1e-9)
	approx(t, "ServoAzimuth", r.ServoAzimuth, 90.001358848, 1e-9)
	approx(t, "AirportDistance", r.AirportDistance, 3500, 1e-9)
	approx(t, "ECEF.X", r.ECEF.X, -2178060.0, 1e-6)
	approx(t, "ECEFVelocity.Y", r.ECEFVelocity.Y, -3.4, 1e-9)
	approx(t, "ThreatAreaDistance", r.ThreatAreaDistance, 800, 1e-9)

	if r.Category != model.CategoryUAV || r.Species != 3 {
		t.Fatalf("category/species = %v/%d", r.Category, r.Species)
	}
	if r.TimeOfDay != 36*time.Second {
		t.Fatalf("TimeOfDay = %v, want 36s", r.TimeOfDay)
	}
	if r.TrackingPeriod != 250*time.Millisecond {
		t.Fatalf("TrackingPeriod = %v, want 250ms", r.TrackingPeriod)
	}
	if r.ThreatAreaTime != 42*time.Second {
		t.Fatalf("ThreatAreaTime = %v, want 42s", r.ThreatAreaTime)
	}
	if !r.Fixed || r.Ghost || !r.Slow {
		t.Fatalf("flags = fixed:%v ghost:%v slow:%v", r.Fixed, r.Ghost, r.Slow)
	}
}

func TestConvertProjectsFilteredRange(t *testing.T) {
	it := sampleItem(1, 1)
	it.TgtRng = 20000   // 2000 m
	it.TgtEle = 6000000 // 60°
	it.DtcRng = 50000   // point values must not be used
	it.DtcEle = 0

	r := NewDecoder().Convert(sampleHeader(), it)
	approx(t, "ProjectedRange", r.ProjectedRange, 1000.0, 1e-6)
}

func TestConvertTagsHeaderIdentity(t *testing.T) {
	hdr := sampleHeader()
	hdr.StationID = 9
	hdr.Sensor = model.SensorElevation

	r := NewDecoder().Convert(hdr, sampleItem(5, 2))
	if r.StationID != 9 || r.Sensor != model.SensorElevation {
		t.Fatalf("identity = %d/%v, want 9/elevation", r.StationID, r.Sensor)
	}
	if r.Platform.StationID != 9 || r.Platform.Sensor != model.SensorElevation {
		t.Fatalf("platform identity = %d/%v", r.Platform.StationID, r.Platform.Sensor)
	}
}

func TestConvertSequencesGeoTransforms(t *testing.T) {
	geo := &fakeGeo{lat: 39.9, lon: 116.3, height: 25.5, mapXYZ: [3]float64{10, 20, 30}}
	d := NewDecoder(WithGeoTransform(geo))

	it := sampleItem(3, 1)
	it.PlatAlt = 4550 // 45.5 m
	r := d.Convert(sampleHeader(), it)

	if geo.gotECEF != [3]float64{r.ECEF.X, r.ECEF.Y, r.ECEF.Z} {
		t.Fatalf("ECEFToLLH got %v, want record ECEF %+v", geo.gotECEF, r.ECEF)
	}
	if geo.gotLLH != [3]float64{39.9, 116.3, 25.5} {
		t.Fatalf("LLHToMapXYZ got %v, want geodetic output", geo.gotLLH)
	}
	approx(t, "HeightAbovePlatform", r.HeightAbovePlatform, 20.0, 1e-9)
	if r.Map != (model.Position{X: 10, Y: 20, Z: 30}) {
		t.Fatalf("Map = %+v", r.Map)
	}
	if r.Latitude != 39.9 || r.Longitude != 116.3 || r.Height != 25.5 {
		t.Fatalf("geodetic = %v/%v/%v", r.Latitude, r.Longitude, r.Height)
	}
}

func TestQuantizeInvertsConvert(t *testing.T) {
	want := sampleItem(42, 2)
	want.Reserved2 = 0
	want.FlagReserved = 0
	r := NewDecoder().Convert(sampleHeader(), want)

	got := Quantize(r)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Quantize(Convert(item)) mismatch\n got: %+v\nwant: %+v", got, want)
	}
}
