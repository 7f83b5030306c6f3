package playback

import (
	"context"
	"time"

	"github.com/signalsfoundry/radar-track-ingest/internal/ingest"
	"github.com/signalsfoundry/radar-track-ingest/internal/logging"
	"github.com/signalsfoundry/radar-track-ingest/model"
)

// RecordingSink tees live frames into a Recorder before handing them on.
// Frames arriving while a replay is running are not recorded.
type RecordingSink struct {
	next     ingest.FrameSink
	rec      *Recorder
	playback ingest.PlaybackProvider
	log      logging.Logger
	now      func() time.Time
}

// NewRecordingSink wraps next.
func NewRecordingSink(next ingest.FrameSink, rec *Recorder, playback ingest.PlaybackProvider, log logging.Logger) *RecordingSink {
	if log == nil {
		log = logging.Noop()
	}
	return &RecordingSink{next: next, rec: rec, playback: playback, log: log, now: time.Now}
}

// Process records buf when live, then forwards it.
func (s *RecordingSink) Process(ctx context.Context, buf []byte) ingest.Summary {
	if s.playback == nil || s.playback.Mode() == model.PlaybackLive {
		if err := s.rec.Write(s.now(), buf); err != nil {
			s.log.Warn(ctx, "capture write failed", logging.String("capture", s.rec.Path()), logging.Err(err))
		}
	}
	return s.next.Process(ctx, buf)
}
