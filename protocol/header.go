// Package protocol implements the binary track-report wire format: the frame
// header, the fixed-size per-target record and the quantised unit scales.
//
// Every field is extracted explicitly at a fixed offset with the byte order
// configured for the deployment. Sub-byte fields are unpacked from the
// integer read at their offset, lowest-order bits first.
package protocol

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/signalsfoundry/radar-track-ingest/model"
)

const (
	// HeaderSize is the byte length of the frame header.
	HeaderSize = 24
	// CountSize is the byte length of the target count following the header.
	CountSize = 2
	// RecordSize is the byte length of one per-target record.
	RecordSize = 160
	// TrailerSize covers the checksum and frame-end words.
	TrailerSize = 4

	// RecordsOffset is where the first record starts.
	RecordsOffset = HeaderSize + CountSize
	// MinFrameSize is the smallest frame that can carry a single record.
	MinFrameSize = HeaderSize + RecordSize + CountSize + TrailerSize
)

const (
	// SyncCode is the header message code of the sender.
	SyncCode uint16 = 0xA1A1
	// CommandTrackReport is the command class of track-report frames.
	CommandTrackReport uint16 = 0x1010
)

// DecodeHeader parses the header at the start of buf.
func (d *Decoder) DecodeHeader(buf []byte) (model.FrameHeader, error) {
	if len(buf) < HeaderSize {
		return model.FrameHeader{}, fmt.Errorf("%w: header needs %d bytes, have %d", ErrFrameTooShort, HeaderSize, len(buf))
	}
	o := d.order
	hdr := model.FrameHeader{
		MsgCode:   o.Uint16(buf[0:]),
		Command:   o.Uint16(buf[2:]),
		Length:    o.Uint16(buf[4:]),
		Sequence:  o.Uint16(buf[6:]),
		StationID: o.Uint16(buf[8:]),
		Sensor:    model.SensorID(o.Uint16(buf[10:])),
		Ticks:     o.Uint16(buf[18:]),
		Sync:      o.Uint16(buf[20:]),
		Reserved:  o.Uint16(buf[22:]),
	}
	copy(hdr.BCD[:], buf[12:18])
	if ts, ok := bcdTime(hdr.BCD, d.loc); ok {
		hdr.Timestamp = ts.Add(time.Duration(hdr.Ticks) * TickDuration)
	}
	return hdr, nil
}

func putHeader(o binary.ByteOrder, dst []byte, hdr model.FrameHeader) {
	o.PutUint16(dst[0:], hdr.MsgCode)
	o.PutUint16(dst[2:], hdr.Command)
	o.PutUint16(dst[4:], hdr.Length)
	o.PutUint16(dst[6:], hdr.Sequence)
	o.PutUint16(dst[8:], hdr.StationID)
	o.PutUint16(dst[10:], uint16(hdr.Sensor))
	copy(dst[12:18], hdr.BCD[:])
	o.PutUint16(dst[18:], hdr.Ticks)
	o.PutUint16(dst[20:], hdr.Sync)
	o.PutUint16(dst[22:], hdr.Reserved)
}

// BCDFromTime packs t (two-digit year) into the header BCD layout.
func BCDFromTime(t time.Time) [6]byte {
	return [6]byte{
		toBCD(t.Year() % 100),
		toBCD(int(t.Month())),
		toBCD(t.Day()),
		toBCD(t.Hour()),
		toBCD(t.Minute()),
		toBCD(t.Second()),
	}
}

func bcdTime(b [6]byte, loc *time.Location) (time.Time, bool) {
	var v [6]int
	for i, x := range b {
		n, ok := fromBCD(x)
		if !ok {
			return time.Time{}, false
		}
		v[i] = n
	}
	year, month, day, hour, minute, second := v[0], v[1], v[2], v[3], v[4], v[5]
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}
	return time.Date(2000+year, time.Month(month), day, hour, minute, second, 0, loc), true
}

func fromBCD(b byte) (int, bool) {
	hi, lo := int(b>>4), int(b&0x0F)
	if hi > 9 || lo > 9 {
		return 0, false
	}
	return hi*10 + lo, true
}

func toBCD(n int) byte {
	return byte((n/10)<<4 | n%10)
}
