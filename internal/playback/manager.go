// Package playback records live frames to capture files and replays them
// through the ingest pipeline.
package playback

import (
	"sync"

	"github.com/signalsfoundry/radar-track-ingest/model"
)

// Manager holds the process-wide playback mode and the replay allow list.
// It satisfies ingest.PlaybackProvider and is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	mode    model.PlaybackMode
	allowed map[uint16]struct{}
}

// NewManager returns a Manager in Live mode with no filter.
func NewManager() *Manager {
	return &Manager{mode: model.PlaybackLive}
}

// Mode returns the current playback mode.
func (m *Manager) Mode() model.PlaybackMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// SetMode switches between Live and Replaying.
func (m *Manager) SetMode(mode model.PlaybackMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
}

// SetFilter replaces the allow list. Passing no ids clears it.
func (m *Manager) SetFilter(ids ...uint16) {
	allowed := make(map[uint16]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowed = allowed
}

// ClearFilter removes the allow list.
func (m *Manager) ClearFilter() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowed = nil
}

// AllowedIDs returns a copy of the allow list, or nil when none is set.
func (m *Manager) AllowedIDs() map[uint16]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.allowed) == 0 {
		return nil
	}
	out := make(map[uint16]struct{}, len(m.allowed))
	for id := range m.allowed {
		out[id] = struct{}{}
	}
	return out
}
