package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/radar-track-ingest/model"
)

var (
	// ErrFrameTooShort indicates a buffer cannot hold even one record.
	ErrFrameTooShort = errors.New("frame too short")
	// ErrTargetCount indicates a declared target count of zero or above the store bound.
	ErrTargetCount = errors.New("target count out of range")
	// ErrFrameTruncated indicates the declared records and trailer do not fit the buffer.
	ErrFrameTruncated = errors.New("frame truncated")
)

// GeoTransform converts earth-centred positions to geodetic and map
// coordinates. Angles are degrees, distances metres.
type GeoTransform interface {
	ECEFToLLH(x, y, z float64) (lat, lon, height float64)
	LLHToMapXYZ(lat, lon, height float64) (x, y, z float64)
}

// Frame is a validated frame envelope. Records are read from the original
// buffer starting at RecordsOffset.
type Frame struct {
	Header   model.FrameHeader
	Count    int
	Checksum uint16
	End      uint16
}

// Size is the number of bytes the frame occupies, trailer included.
func (f Frame) Size() int {
	return RecordsOffset + f.Count*RecordSize + TrailerSize
}

// Decoder turns wire bytes into headers and track records. It holds no
// mutable state and may be shared between goroutines.
type Decoder struct {
	order binary.ByteOrder
	loc   *time.Location
	geo   GeoTransform
}

// DecoderOption customises a Decoder.
type DecoderOption func(*Decoder)

// WithByteOrder sets the byte order of multi-byte fields. The default is
// little-endian.
func WithByteOrder(order binary.ByteOrder) DecoderOption {
	return func(d *Decoder) {
		if order != nil {
			d.order = order
		}
	}
}

// WithLocation sets the time zone the header BCD timestamp is expressed in.
func WithLocation(loc *time.Location) DecoderOption {
	return func(d *Decoder) {
		if loc != nil {
			d.loc = loc
		}
	}
}

// WithGeoTransform attaches the geodetic collaborator used for derived
// position fields. Without one those fields stay zero.
func WithGeoTransform(geo GeoTransform) DecoderOption {
	return func(d *Decoder) {
		d.geo = geo
	}
}

// NewDecoder constructs a Decoder.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		order: binary.LittleEndian,
		loc:   time.UTC,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ByteOrder reports the configured byte order.
func (d *Decoder) ByteOrder() binary.ByteOrder {
	return d.order
}

// DecodeFrame validates the frame envelope in buf. A frame is accepted only
// when it can hold at least one record, declares 0 < count <= maxTracks and
// carries all declared records plus the trailer. Nothing is partially
// accepted.
func (d *Decoder) DecodeFrame(buf []byte, maxTracks int) (Frame, error) {
	if len(buf) < MinFrameSize {
		return Frame{}, fmt.Errorf("%w: %d bytes, need %d", ErrFrameTooShort, len(buf), MinFrameSize)
	}
	hdr, err := d.DecodeHeader(buf)
	if err != nil {
		return Frame{}, err
	}

	count := int(d.order.Uint16(buf[HeaderSize:]))
	if count <= 0 || count > maxTracks {
		return Frame{}, fmt.Errorf("%w: %d (max %d)", ErrTargetCount, count, maxTracks)
	}

	f := Frame{Header: hdr, Count: count}
	end := RecordsOffset + count*RecordSize
	if end+TrailerSize > len(buf) {
		return Frame{}, fmt.Errorf("%w: %d records need %d bytes, have %d", ErrFrameTruncated, count, f.Size(), len(buf))
	}
	f.Checksum = d.order.Uint16(buf[end:])
	f.End = d.order.Uint16(buf[end+2:])
	return f, nil
}
