package domain

// PlaybackStatus is the per-guild playback state tracked from voice runtime events.
type PlaybackStatus int

const (
	StatusIdle    PlaybackStatus = iota // nothing queued
	StatusPlaying                       // a track is audible
	StatusPaused
	StatusSkipped // the current track was stopped by a user
	StatusEnded   // the current track finished, the queue decides what comes next
)

// String returns a human-readable representation of the status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusSkipped:
		return "skipped"
	case StatusEnded:
		return "ended"
	default:
		return "idle"
	}
}

// StatusAfterEnd returns the status a track end with the given reason leads to.
func StatusAfterEnd(reason TrackEndReason) PlaybackStatus {
	switch reason {
	case TrackEndStopped, TrackEndReplaced:
		return StatusSkipped
	default:
		return StatusEnded
	}
}
