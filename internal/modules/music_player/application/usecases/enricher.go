package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// DefaultEnrichTimeout bounds metadata lookups for one track.
const DefaultEnrichTimeout = 5 * time.Second

// Metadata is the best-effort playback metadata of a track.
type Metadata struct {
	Volume   float64
	Segments []domain.Segment
}

// MetadataEnricher looks up loudness and skip segments for tracks.
type MetadataEnricher struct {
	loudness ports.LoudnessSource
	segments ports.SegmentSource
	timeout  time.Duration
}

// NewMetadataEnricher creates a new MetadataEnricher. Either source may be nil.
func NewMetadataEnricher(
	loudness ports.LoudnessSource,
	segments ports.SegmentSource,
	timeout time.Duration,
) *MetadataEnricher {
	if timeout <= 0 {
		timeout = DefaultEnrichTimeout
	}
	return &MetadataEnricher{
		loudness: loudness,
		segments: segments,
		timeout:  timeout,
	}
}

// Enrich looks up loudness and segments concurrently.
// Each lookup degrades on its own: a failed or timed out loudness lookup keeps full
// volume, a failed segment lookup keeps no segments.
func (e *MetadataEnricher) Enrich(ctx context.Context, sourceURL string) Metadata {
	meta := Metadata{Volume: domain.DefaultVolume}
	if e == nil || sourceURL == "" {
		return meta
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var wg sync.WaitGroup

	if e.loudness != nil {
		wg.Go(func() {
			db, err := e.loudness.Loudness(ctx, sourceURL)
			if err != nil {
				slog.Debug("loudness lookup failed", "url", sourceURL, "error", err)
				return
			}
			meta.Volume = domain.LoudnessToVolume(db)
		})
	}

	if e.segments != nil {
		wg.Go(func() {
			segments, err := e.segments.Segments(ctx, sourceURL)
			if err != nil {
				slog.Debug("segment lookup failed", "url", sourceURL, "error", err)
				return
			}
			meta.Segments = domain.MergeSegments(segments)
		})
	}

	wg.Wait()

	return meta
}

// Apply copies the metadata onto the track.
func (m Metadata) Apply(track *domain.ResolvedTrack) {
	track.Volume = m.Volume
	track.Segments = m.Segments
}
