package domain

import (
	"cmp"
	"slices"
	"time"
)

// Segment is a time range within a track that is skipped during playback.
type Segment struct {
	Start time.Duration
	End   time.Duration
}

// Length returns the duration covered by the segment.
func (s Segment) Length() time.Duration {
	return s.End - s.Start
}

// MergeSegments sorts segments by start, drops empty or inverted ranges and
// collapses overlapping or contained ranges into their union.
func MergeSegments(segments []Segment) []Segment {
	if len(segments) == 0 {
		return nil
	}

	sorted := slices.Clone(segments)
	slices.SortFunc(sorted, func(a, b Segment) int {
		return cmp.Compare(a.Start, b.Start)
	})

	var merged []Segment
	for _, s := range sorted {
		if s.Start >= s.End {
			continue
		}
		if n := len(merged); n > 0 && s.Start <= merged[n-1].End {
			merged[n-1].End = max(merged[n-1].End, s.End)
			continue
		}
		merged = append(merged, s)
	}

	return merged
}
