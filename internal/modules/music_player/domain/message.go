package domain

// Message is a chat notification produced by the music player.
// The set of variants is closed; transports render each one.
type Message interface {
	isMessage()
}

// PlayUpdateKind is the action a PlayUpdateMessage reports.
type PlayUpdateKind int

const (
	UpdateQueued PlayUpdateKind = iota
	UpdatePlaying
	UpdatePaused
	UpdateResumed
	UpdateSkipped
	UpdateRemoved
	UpdateStopped
)

func (k PlayUpdateKind) String() string {
	switch k {
	case UpdateQueued:
		return "Queued"
	case UpdatePlaying:
		return "Playing"
	case UpdatePaused:
		return "Paused"
	case UpdateResumed:
		return "Resumed"
	case UpdateSkipped:
		return "Skipped"
	case UpdateRemoved:
		return "Removed"
	case UpdateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// PlayUpdateMessage reports a playback action on a single track.
type PlayUpdateMessage struct {
	Kind  PlayUpdateKind
	Track *ResolvedTrack // nil for title-only updates such as Stopped
	// QueueSize is shown when positive.
	QueueSize int
}

// Detailed reports whether the update carries artist, length and queue details.
func (m PlayUpdateMessage) Detailed() bool {
	return m.Kind == UpdatePlaying && m.Track != nil
}

// AddProgressMessage reports the state of a bulk add.
type AddProgressMessage struct {
	Total     int
	Queued    int
	Failed    int
	Recent    []*ResolvedTrack
	CancelID  string // custom ID of the cancel button, empty when not cancelable
	Finished  bool
	Cancelled bool
}

// NewAddProgressMessage snapshots p. A non-empty cancelID adds a cancel affordance.
func NewAddProgressMessage(p *AddProgress, cancelID string) AddProgressMessage {
	return AddProgressMessage{
		Total:    p.Total(),
		Queued:   p.QueuedCount(),
		Failed:   p.FailedCount(),
		Recent:   p.Recent(),
		CancelID: cancelID,
	}
}

// Cancelable reports whether the message carries a cancel affordance.
func (m AddProgressMessage) Cancelable() bool {
	return m.CancelID != "" && !m.Finished
}

// TextMessage is a plain informational message.
type TextMessage struct {
	Text string
}

// ErrorMessage is a user-facing error.
type ErrorMessage struct {
	Text string
}

func (PlayUpdateMessage) isMessage()  {}
func (AddProgressMessage) isMessage() {}
func (TextMessage) isMessage()        {}
func (ErrorMessage) isMessage()       {}
