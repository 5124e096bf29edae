package domain

import (
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// DefaultVolume is the loudness factor used when no normalization data is available.
const DefaultVolume = 1.0

// ResolvedTrack is a query turned into a playable source plus metadata.
type ResolvedTrack struct {
	Identifier  string // source-specific identifier, e.g. a YouTube video ID
	Encoded     string // Lavalink encoded track data, empty until the track is playable
	Title       string
	Artist      string
	Duration    time.Duration
	SourceURL   string
	ArtworkURL  string
	SourceName  string // e.g., "youtube", "soundcloud"
	IsStream    bool
	Volume      float64 // loudness factor in [0,1]
	Segments    []Segment
	RequesterID snowflake.ID
	EnqueuedAt  time.Time
}

// IsPlayable returns true if the track carries data the voice runtime can play directly.
func (t *ResolvedTrack) IsPlayable() bool {
	return t.Encoded != ""
}

// Source returns the parsed TrackSource for this track.
func (t *ResolvedTrack) Source() TrackSource {
	return ParseTrackSource(t.SourceName)
}

// DisplayTitle returns the title, or "Unknown" if the source did not provide one.
func (t *ResolvedTrack) DisplayTitle() string {
	if t.Title == "" {
		return "Unknown"
	}
	return t.Title
}

// DisplayArtist returns the artist, or "Unknown" if the source did not provide one.
func (t *ResolvedTrack) DisplayArtist() string {
	if t.Artist == "" {
		return "Unknown"
	}
	return t.Artist
}

// SkippedDuration returns the total length of the segments that will be skipped.
func (t *ResolvedTrack) SkippedDuration() time.Duration {
	var total time.Duration
	for _, s := range t.Segments {
		total += s.Length()
	}
	return total
}

// FormattedDuration returns the duration as h:mm:ss or m:ss.
func (t *ResolvedTrack) FormattedDuration() string {
	if t.IsStream {
		return "LIVE"
	}
	if t.Duration <= 0 {
		return "Unknown"
	}
	return FormatDuration(t.Duration)
}

// FormatDuration formats d as h:mm:ss, or m:ss when shorter than an hour.
func FormatDuration(d time.Duration) string {
	totalSeconds := int64(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
