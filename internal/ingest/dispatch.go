// Package ingest routes decoded track records into the track store.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/signalsfoundry/radar-track-ingest/internal/logging"
	"github.com/signalsfoundry/radar-track-ingest/internal/observability"
	"github.com/signalsfoundry/radar-track-ingest/model"
	"github.com/signalsfoundry/radar-track-ingest/protocol"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/signalsfoundry/radar-track-ingest/internal/ingest"

// Summary describes what Process did with one frame.
type Summary struct {
	Header   model.FrameHeader
	Declared int // target count from the frame, zero when rejected early

	Visited  int
	Upserts  int
	Deletes  int
	Filtered int
	Unknown  int

	// Consumed is the byte offset just past the last visited record.
	Consumed int

	// Err is set when the whole frame was rejected. No store calls were made.
	Err error
}

// Rejected reports whether the frame was discarded before dispatch.
func (s Summary) Rejected() bool {
	return s.Err != nil
}

// Dispatcher decodes frames and routes each record by lifecycle status.
// It holds no per-frame state and may be shared between goroutines.
type Dispatcher struct {
	dec      *protocol.Decoder
	store    TrackStore
	playback PlaybackProvider
	log      logging.Logger
	metrics  Metrics
	tracer   trace.Tracer
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithMetrics attaches a metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithTracer overrides the tracer used for per-frame spans.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

// NewDispatcher wires a decoder to a store. A nil playback provider means
// frames are always treated as live. It panics if store is nil.
func NewDispatcher(dec *protocol.Decoder, store TrackStore, playback PlaybackProvider, log logging.Logger, opts ...Option) *Dispatcher {
	if store == nil {
		panic("ingest: NewDispatcher called with nil TrackStore")
	}
	if dec == nil {
		dec = protocol.NewDecoder()
	}
	if playback == nil {
		playback = livePlayback{}
	}
	if log == nil {
		log = logging.Noop()
	}
	d := &Dispatcher{
		dec:      dec,
		store:    store,
		playback: playback,
		log:      log,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Process decodes buf and dispatches every record in wire order. Status 0
// deletes, 1 and 2 upsert, anything else is skipped. Frames that fail
// envelope validation are rejected whole and reported in the Summary.
func (d *Dispatcher) Process(ctx context.Context, buf []byte) Summary {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "ingest.Process", trace.WithAttributes(
		attribute.Int("frame.bytes", len(buf)),
	))
	defer span.End()

	frame, err := d.dec.DecodeFrame(buf, d.store.MaxTracks())
	if err != nil {
		sum := Summary{Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, "frame rejected")
		d.log.Warn(ctx, "frame rejected", logging.Int("bytes", len(buf)), logging.Err(err))
		d.observe(rejectResult(err), start, sum)
		return sum
	}

	// Snapshot once so a concurrent filter change never splits a frame.
	mode := d.playback.Mode()
	var allowed map[uint16]struct{}
	if mode == model.PlaybackReplaying {
		allowed = d.playback.AllowedIDs()
	}

	sum := Summary{Header: frame.Header, Declared: frame.Count}
	cursor := protocol.RecordsOffset
	for i := 0; i < frame.Count; i++ {
		rec := buf[cursor : cursor+protocol.RecordSize]
		cursor += protocol.RecordSize
		sum.Visited++

		item := d.dec.DecodeItem(rec)
		if !Retain(mode, allowed, item.TgtNum) {
			sum.Filtered++
			continue
		}

		switch model.Status(item.Status) {
		case model.StatusLost:
			d.store.DeleteByID(item.TgtNum)
			sum.Deletes++
		case model.StatusTracking, model.StatusMemory:
			d.store.Upsert(d.dec.Convert(frame.Header, item))
			sum.Upserts++
		default:
			sum.Unknown++
			d.log.Debug(ctx, "skipping record with unknown status",
				logging.Uint16("target", item.TgtNum),
				logging.Int("status", int(item.Status)),
			)
		}
	}
	sum.Consumed = cursor

	span.SetAttributes(
		attribute.Int("frame.sequence", int(frame.Header.Sequence)),
		attribute.Int("frame.station", int(frame.Header.StationID)),
		attribute.Int("frame.records", frame.Count),
		attribute.Int("frame.upserts", sum.Upserts),
		attribute.Int("frame.deletes", sum.Deletes),
		attribute.String("playback.mode", mode.String()),
	)
	if sum.Filtered > 0 {
		d.log.Debug(ctx, "replay filter dropped records", logging.Int("filtered", sum.Filtered))
	}
	d.observe(observability.FrameAccepted, start, sum)
	return sum
}

func (d *Dispatcher) observe(result string, start time.Time, sum Summary) {
	if d.metrics == nil {
		return
	}
	d.metrics.ObserveFrame(result, time.Since(start))
	d.metrics.AddRecords(observability.RecordUpserted, sum.Upserts)
	d.metrics.AddRecords(observability.RecordDeleted, sum.Deletes)
	d.metrics.AddRecords(observability.RecordFiltered, sum.Filtered)
	d.metrics.AddRecords(observability.RecordUnknown, sum.Unknown)
}

func rejectResult(err error) string {
	switch {
	case errors.Is(err, protocol.ErrFrameTooShort):
		return observability.FrameTooShort
	case errors.Is(err, protocol.ErrTargetCount):
		return observability.FrameBadCount
	default:
		return observability.FrameTruncated
	}
}
