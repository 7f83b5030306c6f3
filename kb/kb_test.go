package kb

import (
	"sync"
	"testing"
	"time"

	"github.com/signalsfoundry/radar-track-ingest/model"
)

type gaugeRecorder struct {
	mu   sync.Mutex
	last int
	sets int
}

func (g *gaugeRecorder) SetActiveTracks(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = n
	g.sets++
}

func steppingClock() func() time.Time {
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	store := NewTrackFile(10, WithClock(steppingClock()))

	store.Upsert(model.TrackRecord{ID: 42, Range: 100})
	store.Upsert(model.TrackRecord{ID: 42, Range: 150})

	got, ok := store.Get(42)
	if !ok {
		t.Fatalf("Get(42) missing after upsert")
	}
	if got.Range != 150 {
		t.Fatalf("Range = %v, want 150", got.Range)
	}
	if got.Updates != 2 {
		t.Fatalf("Updates = %d, want 2", got.Updates)
	}
	if !got.LastSeen.After(got.FirstSeen) {
		t.Fatalf("LastSeen %v not after FirstSeen %v", got.LastSeen, got.FirstSeen)
	}
	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}
}

func TestDeleteByID(t *testing.T) {
	store := NewTrackFile(10)
	store.Upsert(model.TrackRecord{ID: 1})
	store.Upsert(model.TrackRecord{ID: 2})

	store.DeleteByID(1)
	store.DeleteByID(99) // unknown id is a no-op

	if _, ok := store.Get(1); ok {
		t.Fatalf("track 1 still present after delete")
	}
	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}
}

func TestUpsertEvictsStalestWhenFull(t *testing.T) {
	store := NewTrackFile(2, WithClock(steppingClock()))
	var events []Event
	store.Subscribe(func(ev Event) { events = append(events, ev) })

	store.Upsert(model.TrackRecord{ID: 1})
	store.Upsert(model.TrackRecord{ID: 2})
	store.Upsert(model.TrackRecord{ID: 1}) // refresh 1, 2 is now stalest
	store.Upsert(model.TrackRecord{ID: 3})

	if _, ok := store.Get(2); ok {
		t.Fatalf("track 2 should have been evicted")
	}
	if store.Len() != 2 || store.MaxTracks() != 2 {
		t.Fatalf("Len()/MaxTracks() = %d/%d, want 2/2", store.Len(), store.MaxTracks())
	}

	var evicted []uint16
	for _, ev := range events {
		if ev.Type == EventTrackEvicted {
			evicted = append(evicted, ev.ID)
		}
	}
	if len(evicted) != 1 || evicted[0] != 2 {
		t.Fatalf("evicted = %v, want [2]", evicted)
	}
}

func TestListIsSortedByID(t *testing.T) {
	store := NewTrackFile(10)
	for _, id := range []uint16{9, 3, 7} {
		store.Upsert(model.TrackRecord{ID: id})
	}
	list := store.List()
	if len(list) != 3 || list[0].ID != 3 || list[1].ID != 7 || list[2].ID != 9 {
		t.Fatalf("List() ids = %v", ids(list))
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	store := NewTrackFile(10)
	var got []EventType
	unsubscribe := store.Subscribe(func(ev Event) { got = append(got, ev.Type) })

	store.Upsert(model.TrackRecord{ID: 5})
	store.DeleteByID(5)
	unsubscribe()
	store.Upsert(model.TrackRecord{ID: 6})

	if len(got) != 2 || got[0] != EventTrackUpserted || got[1] != EventTrackDeleted {
		t.Fatalf("events = %v, want [upserted deleted]", got)
	}
}

func TestMetricsRecorderTracksCount(t *testing.T) {
	rec := &gaugeRecorder{}
	store := NewTrackFile(10, WithMetricsRecorder(rec))
	store.Upsert(model.TrackRecord{ID: 1})
	store.Upsert(model.TrackRecord{ID: 2})
	store.DeleteByID(1)

	if rec.last != 1 || rec.sets != 3 {
		t.Fatalf("gauge last/sets = %d/%d, want 1/3", rec.last, rec.sets)
	}
}

func TestZeroCapacityStoresNothing(t *testing.T) {
	store := NewTrackFile(0)
	store.Upsert(model.TrackRecord{ID: 1})
	if store.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", store.Len())
	}
}

func TestConcurrentUpsertDelete(t *testing.T) {
	store := NewTrackFile(64)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := uint16(w*8 + i%8)
				store.Upsert(model.TrackRecord{ID: id})
				if i%3 == 0 {
					store.DeleteByID(id)
				}
				_ = store.List()
			}
		}(w)
	}
	wg.Wait()
	if store.Len() > 64 {
		t.Fatalf("Len() = %d exceeds bound", store.Len())
	}
}

func ids(list []Track) []uint16 {
	out := make([]uint16, 0, len(list))
	for _, t := range list {
		out = append(out, t.ID)
	}
	return out
}
