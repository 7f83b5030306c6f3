package ingest

import "github.com/signalsfoundry/radar-track-ingest/model"

// Retain reports whether a record with the given target id passes the
// replay filter. Only Replaying mode with a non-empty allow list filters;
// in every other case all records are kept.
func Retain(mode model.PlaybackMode, allowed map[uint16]struct{}, id uint16) bool {
	if mode != model.PlaybackReplaying || len(allowed) == 0 {
		return true
	}
	_, ok := allowed[id]
	return ok
}
