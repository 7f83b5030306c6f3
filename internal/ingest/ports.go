package ingest

import (
	"context"
	"time"

	"github.com/signalsfoundry/radar-track-ingest/model"
)

// TrackStore receives routed track updates.
type TrackStore interface {
	Upsert(rec model.TrackRecord)
	DeleteByID(id uint16)
	// MaxTracks bounds the target count a frame may declare.
	MaxTracks() int
}

// PlaybackProvider exposes the current playback mode and replay allow list.
type PlaybackProvider interface {
	Mode() model.PlaybackMode
	AllowedIDs() map[uint16]struct{}
}

// FrameSink consumes one raw frame buffer.
type FrameSink interface {
	Process(ctx context.Context, buf []byte) Summary
}

// Metrics records per-frame and per-record outcomes.
type Metrics interface {
	ObserveFrame(result string, elapsed time.Duration)
	AddRecords(action string, n int)
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(ctx context.Context, buf []byte) Summary

// Process calls f(ctx, buf).
func (f FrameSinkFunc) Process(ctx context.Context, buf []byte) Summary {
	return f(ctx, buf)
}

// livePlayback is used when no provider is configured.
type livePlayback struct{}

func (livePlayback) Mode() model.PlaybackMode          { return model.PlaybackLive }
func (livePlayback) AllowedIDs() map[uint16]struct{} { return nil }
