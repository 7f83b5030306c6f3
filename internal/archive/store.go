package archive

import (
	"context"
	"time"

	"github.com/signalsfoundry/radar-track-ingest/internal/ingest"
	"github.com/signalsfoundry/radar-track-ingest/internal/logging"
	"github.com/signalsfoundry/radar-track-ingest/model"
)

// ArchivingStore forwards every change to the wrapped store and appends
// it to the archive. Archive failures are logged and never reach the
// caller.
type ArchivingStore struct {
	next    ingest.TrackStore
	archive *Archive
	log     logging.Logger
	now     func() time.Time
}

// NewArchivingStore decorates next.
func NewArchivingStore(next ingest.TrackStore, archive *Archive, log logging.Logger) *ArchivingStore {
	if log == nil {
		log = logging.Noop()
	}
	return &ArchivingStore{next: next, archive: archive, log: log, now: time.Now}
}

// Upsert implements ingest.TrackStore.
func (s *ArchivingStore) Upsert(rec model.TrackRecord) {
	s.next.Upsert(rec)
	if err := s.archive.RecordUpsert(context.Background(), rec, s.now()); err != nil {
		s.log.Warn(context.Background(), "archive upsert failed", logging.Uint16("target", rec.ID), logging.Err(err))
	}
}

// DeleteByID implements ingest.TrackStore.
func (s *ArchivingStore) DeleteByID(id uint16) {
	s.next.DeleteByID(id)
	if err := s.archive.RecordDelete(context.Background(), id, s.now()); err != nil {
		s.log.Warn(context.Background(), "archive delete failed", logging.Uint16("target", id), logging.Err(err))
	}
}

// MaxTracks implements ingest.TrackStore.
func (s *ArchivingStore) MaxTracks() int {
	return s.next.MaxTracks()
}
