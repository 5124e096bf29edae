package ports

import (
	"context"
	"errors"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// ErrNoMatches is returned by a TrackResolver when a search finds nothing.
var ErrNoMatches = errors.New("no matches")

// TrackResolver turns queries into tracks.
type TrackResolver interface {
	// Resolve resolves the query. With lazy set, only metadata is fetched
	// and the returned track must be made playable before it starts.
	Resolve(ctx context.Context, query domain.Query, lazy bool) (*domain.ResolvedTrack, error)
}

// LoudnessSource looks up a track's loudness relative to the normalization target, in dB.
type LoudnessSource interface {
	Loudness(ctx context.Context, sourceURL string) (float64, error)
}

// SegmentSource looks up the segments to skip in a track.
type SegmentSource interface {
	Segments(ctx context.Context, sourceURL string) ([]domain.Segment, error)
}

// PlaylistSource lists the entries of a playlist.
type PlaylistSource interface {
	// ListPlaylist returns one URL query per playlist entry, in playlist order.
	ListPlaylist(ctx context.Context, playlistURL string) ([]domain.Query, error)
}
