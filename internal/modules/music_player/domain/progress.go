package domain

// DefaultProgressWindow is the number of recently queued titles shown in a progress message.
const DefaultProgressWindow = 10

// AddProgress tracks a single add operation for progress display.
type AddProgress struct {
	total  int
	queued int
	failed int
	window int
	recent []*ResolvedTrack
}

// NewAddProgress creates an AddProgress for total queries, remembering at most window recent tracks.
func NewAddProgress(total, window int) *AddProgress {
	if window <= 0 {
		window = DefaultProgressWindow
	}
	return &AddProgress{
		total:  total,
		window: window,
		recent: make([]*ResolvedTrack, 0, window),
	}
}

// Queued records a successfully queued track.
func (p *AddProgress) Queued(track *ResolvedTrack) {
	p.queued++
	if len(p.recent) == p.window {
		copy(p.recent, p.recent[1:])
		p.recent = p.recent[:p.window-1]
	}
	p.recent = append(p.recent, track)
}

// Failed records a query that could not be resolved or queued.
func (p *AddProgress) Failed() {
	p.failed++
}

// Total returns the declared number of queries.
func (p *AddProgress) Total() int {
	return p.total
}

// QueuedCount returns the number of tracks queued so far.
func (p *AddProgress) QueuedCount() int {
	return p.queued
}

// FailedCount returns the number of failed queries so far.
func (p *AddProgress) FailedCount() int {
	return p.failed
}

// Recent returns a copy of the most recently queued tracks, oldest first.
func (p *AddProgress) Recent() []*ResolvedTrack {
	out := make([]*ResolvedTrack, len(p.recent))
	copy(out, p.recent)
	return out
}

// IsBulk reports whether this operation covers more than one query.
func (p *AddProgress) IsBulk() bool {
	return p.total > 1
}
