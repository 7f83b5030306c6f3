package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/signalsfoundry/radar-track-ingest/internal/ingest"
	"github.com/signalsfoundry/radar-track-ingest/internal/logging"
	"github.com/signalsfoundry/radar-track-ingest/model"
	"github.com/signalsfoundry/radar-track-ingest/timectrl"
)

// ReplayStats summarises one replay run.
type ReplayStats struct {
	Frames   int
	Rejected int
	Upserts  int
	Deletes  int
	Filtered int
	First    time.Time
	Last     time.Time
}

// Replayer feeds a capture file through a frame sink, paced by a
// TimeController.
type Replayer struct {
	sink    ingest.FrameSink
	manager *Manager
	clock   *timectrl.TimeController
	log     logging.Logger
}

// NewReplayer wires a replayer. A nil clock replays flat out.
func NewReplayer(sink ingest.FrameSink, manager *Manager, clock *timectrl.TimeController, log logging.Logger) *Replayer {
	if manager == nil {
		manager = NewManager()
	}
	if clock == nil {
		clock = timectrl.NewTimeController(timectrl.Accelerated, 1)
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Replayer{sink: sink, manager: manager, clock: clock, log: log}
}

// Run replays the capture at path. The manager is in Replaying mode for
// the duration of the call and back in Live mode afterwards.
func (rp *Replayer) Run(ctx context.Context, path string) (ReplayStats, error) {
	r, err := OpenCapture(path)
	if err != nil {
		return ReplayStats{}, err
	}
	defer r.Close()

	rp.manager.SetMode(model.PlaybackReplaying)
	defer rp.manager.SetMode(model.PlaybackLive)

	rp.log.Info(ctx, "replay started",
		logging.String("capture", path),
		logging.String("pacing", rp.clock.Mode.String()),
		logging.Float64("speed", rp.clock.Speed),
	)

	var stats ReplayStats
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read capture entry %d: %w", stats.Frames+1, err)
		}
		if err := rp.clock.AdvanceTo(ctx, e.Time); err != nil {
			return stats, err
		}

		sum := rp.sink.Process(ctx, e.Frame)
		stats.Frames++
		if stats.First.IsZero() {
			stats.First = e.Time
		}
		stats.Last = e.Time
		if sum.Rejected() {
			stats.Rejected++
			continue
		}
		stats.Upserts += sum.Upserts
		stats.Deletes += sum.Deletes
		stats.Filtered += sum.Filtered
	}

	rp.log.Info(ctx, "replay finished",
		logging.Int("frames", stats.Frames),
		logging.Int("rejected", stats.Rejected),
		logging.Duration("span", stats.Last.Sub(stats.First)),
	)
	return stats, nil
}
