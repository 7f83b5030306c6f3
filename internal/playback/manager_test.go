package playback

import (
	"testing"

	"github.com/signalsfoundry/radar-track-ingest/model"
)

func TestManagerDefaultsToLive(t *testing.T) {
	m := NewManager()
	if m.Mode() != model.PlaybackLive {
		t.Fatalf("Mode() = %v, want live", m.Mode())
	}
	if m.AllowedIDs() != nil {
		t.Fatalf("AllowedIDs() = %v, want nil", m.AllowedIDs())
	}
}

func TestManagerFilterIsCopied(t *testing.T) {
	m := NewManager()
	m.SetFilter(7, 9)

	ids := m.AllowedIDs()
	delete(ids, 7)
	if _, ok := m.AllowedIDs()[7]; !ok {
		t.Fatalf("mutating the returned map changed the manager")
	}

	m.ClearFilter()
	if m.AllowedIDs() != nil {
		t.Fatalf("AllowedIDs() after ClearFilter = %v", m.AllowedIDs())
	}

	m.SetFilter()
	if m.AllowedIDs() != nil {
		t.Fatalf("empty SetFilter should clear the list")
	}
}

func TestManagerSetMode(t *testing.T) {
	m := NewManager()
	m.SetMode(model.PlaybackReplaying)
	if m.Mode() != model.PlaybackReplaying {
		t.Fatalf("Mode() = %v, want replaying", m.Mode())
	}
}
