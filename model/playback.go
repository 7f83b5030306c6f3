package model

// PlaybackMode reports whether frames come from live sensors or a replay.
type PlaybackMode int

const (
	PlaybackLive PlaybackMode = iota
	PlaybackReplaying
)

func (m PlaybackMode) String() string {
	if m == PlaybackReplaying {
		return "replaying"
	}
	return "live"
}
