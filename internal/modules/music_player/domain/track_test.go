package domain

import (
	"testing"
	"time"
)

func TestResolvedTrack_FormattedDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		isStream bool
		want     string
	}{
		{name: "seconds only", duration: 45 * time.Second, want: "0:45"},
		{name: "minutes and seconds", duration: 3*time.Minute + 5*time.Second, want: "3:05"},
		{name: "hours", duration: time.Hour + 2*time.Minute + 3*time.Second, want: "1:02:03"},
		{name: "double digit hours", duration: 12 * time.Hour, want: "12:00:00"},
		{name: "unknown", duration: 0, want: "Unknown"},
		{name: "stream", duration: time.Minute, isStream: true, want: "LIVE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := &ResolvedTrack{Duration: tt.duration, IsStream: tt.isStream}
			if got := track.FormattedDuration(); got != tt.want {
				t.Errorf("FormattedDuration() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolvedTrack_IsPlayable(t *testing.T) {
	track := &ResolvedTrack{Title: "Song"}
	if track.IsPlayable() {
		t.Error("expected track without encoded data to be unplayable")
	}

	track.Encoded = "QAAA"
	if !track.IsPlayable() {
		t.Error("expected track with encoded data to be playable")
	}
}

func TestResolvedTrack_DisplayFallbacks(t *testing.T) {
	track := &ResolvedTrack{}

	if got := track.DisplayTitle(); got != "Unknown" {
		t.Errorf("DisplayTitle() = %q, want %q", got, "Unknown")
	}
	if got := track.DisplayArtist(); got != "Unknown" {
		t.Errorf("DisplayArtist() = %q, want %q", got, "Unknown")
	}

	track.Title = "Deja Vu"
	track.Artist = "Dreamcatcher"
	if got := track.DisplayTitle(); got != "Deja Vu" {
		t.Errorf("DisplayTitle() = %q, want %q", got, "Deja Vu")
	}
	if got := track.DisplayArtist(); got != "Dreamcatcher" {
		t.Errorf("DisplayArtist() = %q, want %q", got, "Dreamcatcher")
	}
}

func TestResolvedTrack_SkippedDuration(t *testing.T) {
	track := &ResolvedTrack{
		Segments: []Segment{
			{Start: 0, End: 10 * time.Second},
			{Start: time.Minute, End: 90 * time.Second},
		},
	}

	if got := track.SkippedDuration(); got != 40*time.Second {
		t.Errorf("SkippedDuration() = %v, want 40s", got)
	}
}

func TestParseTrackSource(t *testing.T) {
	tests := map[string]TrackSource{
		"youtube":       TrackSourceYouTube,
		"youtube_music": TrackSourceYouTube,
		"soundcloud":    TrackSourceSoundCloud,
		"twitch":        TrackSourceTwitch,
		"bandcamp":      TrackSourceOther,
		"":              TrackSourceOther,
	}

	for name, want := range tests {
		if got := ParseTrackSource(name); got != want {
			t.Errorf("ParseTrackSource(%q) = %q, want %q", name, got, want)
		}
	}
}
