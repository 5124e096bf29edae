package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// DefaultSkipTolerance is how far behind a segment start playback may be when a skip fires.
const DefaultSkipTolerance = time.Second

// SegmentSkipper seeks playing tracks past their skip segments.
type SegmentSkipper struct {
	tolerance time.Duration
}

// NewSegmentSkipper creates a new SegmentSkipper.
func NewSegmentSkipper(tolerance time.Duration) *SegmentSkipper {
	if tolerance <= 0 {
		tolerance = DefaultSkipTolerance
	}
	return &SegmentSkipper{tolerance: tolerance}
}

// Start schedules the first skip of the handle's track. Later skips are chained from it.
// Segments must be sorted and non-overlapping.
func (s *SegmentSkipper) Start(handle ports.TrackHandle) {
	if s == nil {
		return
	}
	segments := handle.Track().Segments
	if len(segments) == 0 {
		return
	}

	run := &skipRun{
		handle:    handle,
		segments:  segments,
		tolerance: s.tolerance,
	}
	handle.ScheduleDelayed(segments[0].Start, run.step)
}

// skipRun is the state of one track's skips. Only its own chained callbacks touch it.
type skipRun struct {
	handle    ports.TrackHandle
	segments  []domain.Segment
	next      int
	tolerance time.Duration
}

func (r *skipRun) step(ctx context.Context) {
	segment := r.segments[r.next]
	position := r.handle.Position()

	// Timers may fire early. Wait until playback reaches the segment.
	if behind := segment.Start - position; behind > r.tolerance {
		r.handle.ScheduleDelayed(behind, r.step)
		return
	}

	landed := position
	if position < segment.End {
		if err := r.handle.Seek(ctx, segment.End); err != nil {
			slog.Warn("failed to skip segment",
				"track", r.handle.Track().DisplayTitle(),
				"start", segment.Start,
				"end", segment.End,
				"error", err,
			)
		}
		landed = segment.End
	}

	r.next++
	if r.next >= len(r.segments) {
		return
	}
	r.handle.ScheduleDelayed(max(r.segments[r.next].Start-landed, 0), r.step)
}
