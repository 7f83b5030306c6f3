package kb

import (
	"sort"
	"sync"
	"time"

	"github.com/signalsfoundry/radar-track-ingest/model"
)

// EventType indicates what kind of change happened in the track file.
type EventType int

const (
	EventTrackUpserted EventType = iota
	EventTrackDeleted
	// EventTrackEvicted is emitted when a new track displaces the stalest
	// one because the file is full.
	EventTrackEvicted
)

func (t EventType) String() string {
	switch t {
	case EventTrackUpserted:
		return "upserted"
	case EventTrackDeleted:
		return "deleted"
	case EventTrackEvicted:
		return "evicted"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers when a track changes.
type Event struct {
	Type  EventType
	ID    uint16
	Track model.TrackRecord
}

// Track is a snapshot of a stored track and its bookkeeping.
type Track struct {
	model.TrackRecord

	FirstSeen time.Time
	LastSeen  time.Time
	Updates   uint64
}

// MetricsRecorder receives the number of live tracks after every change.
type MetricsRecorder interface {
	SetActiveTracks(n int)
}

// TrackFile is an in-memory, thread-safe store of live tracks keyed by
// target batch number and bounded to a fixed number of entries.
type TrackFile struct {
	mu sync.RWMutex

	maxTracks int
	tracks    map[uint16]*Track

	subs    map[int]func(Event)
	nextSub int

	now     func() time.Time
	metrics MetricsRecorder
}

// Option customises TrackFile construction.
type Option func(*TrackFile)

// WithMetricsRecorder attaches a recorder for the live track gauge.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(kb *TrackFile) {
		kb.metrics = m
	}
}

// WithClock overrides the wall clock used for FirstSeen/LastSeen.
func WithClock(now func() time.Time) Option {
	return func(kb *TrackFile) {
		if now != nil {
			kb.now = now
		}
	}
}

// NewTrackFile constructs an empty track file holding at most maxTracks.
func NewTrackFile(maxTracks int, opts ...Option) *TrackFile {
	kb := &TrackFile{
		maxTracks: maxTracks,
		tracks:    make(map[uint16]*Track),
		subs:      make(map[int]func(Event)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(kb)
	}
	return kb
}

// MaxTracks reports the configured bound. Frames declaring more targets
// than this are rejected before decoding.
func (kb *TrackFile) MaxTracks() int {
	return kb.maxTracks
}

// Upsert creates or replaces the track keyed by rec.ID. When the file is
// full and rec.ID is new, the least recently updated track is evicted.
func (kb *TrackFile) Upsert(rec model.TrackRecord) {
	now := kb.now()
	events := make([]Event, 0, 2)

	kb.mu.Lock()
	t, ok := kb.tracks[rec.ID]
	if !ok {
		if kb.maxTracks <= 0 {
			kb.mu.Unlock()
			return
		}
		if len(kb.tracks) >= kb.maxTracks {
			if victim := kb.stalestLocked(); victim != nil {
				delete(kb.tracks, victim.ID)
				events = append(events, Event{Type: EventTrackEvicted, ID: victim.ID, Track: victim.TrackRecord})
			}
		}
		t = &Track{FirstSeen: now}
		kb.tracks[rec.ID] = t
	}
	t.TrackRecord = rec
	t.LastSeen = now
	t.Updates++
	events = append(events, Event{Type: EventTrackUpserted, ID: rec.ID, Track: rec})
	n := len(kb.tracks)
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	kb.notify(subs, events, n)
}

// DeleteByID removes a track. Deleting an unknown id is a no-op.
func (kb *TrackFile) DeleteByID(id uint16) {
	kb.mu.Lock()
	t, ok := kb.tracks[id]
	if !ok {
		kb.mu.Unlock()
		return
	}
	delete(kb.tracks, id)
	n := len(kb.tracks)
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	kb.notify(subs, []Event{{Type: EventTrackDeleted, ID: id, Track: t.TrackRecord}}, n)
}

// Get returns a copy of the track with the given id.
func (kb *TrackFile) Get(id uint16) (Track, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	t, ok := kb.tracks[id]
	if !ok {
		return Track{}, false
	}
	return *t, true
}

// List returns a snapshot of all tracks ordered by id.
func (kb *TrackFile) List() []Track {
	kb.mu.RLock()
	res := make([]Track, 0, len(kb.tracks))
	for _, t := range kb.tracks {
		res = append(res, *t)
	}
	kb.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Len returns the number of live tracks.
func (kb *TrackFile) Len() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.tracks)
}

// Subscribe registers a callback for track events. It returns an
// unsubscribe function. Callbacks run outside the store lock.
func (kb *TrackFile) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	id := kb.nextSub
	kb.nextSub++
	kb.subs[id] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}

func (kb *TrackFile) stalestLocked() *Track {
	var victim *Track
	for _, t := range kb.tracks {
		if victim == nil || t.LastSeen.Before(victim.LastSeen) ||
			(t.LastSeen.Equal(victim.LastSeen) && t.ID < victim.ID) {
			victim = t
		}
	}
	return victim
}

func (kb *TrackFile) subscribersLocked() []func(Event) {
	if len(kb.subs) == 0 {
		return nil
	}
	ids := make([]int, 0, len(kb.subs))
	for id := range kb.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, kb.subs[id])
	}
	return subs
}

// notify delivers events outside the lock to avoid deadlocks with
// subscribers that read back from the store.
func (kb *TrackFile) notify(subs []func(Event), events []Event, n int) {
	if kb.metrics != nil {
		kb.metrics.SetActiveTracks(n)
	}
	for _, ev := range events {
		for _, sub := range subs {
			sub(ev)
		}
	}
}
