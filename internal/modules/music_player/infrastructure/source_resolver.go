package infrastructure

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// videoSearcher finds the metadata of the best video for free text.
type videoSearcher interface {
	SearchVideo(ctx context.Context, text string) (*domain.ResolvedTrack, error)
}

// urlInspector fetches the metadata of a URL.
type urlInspector interface {
	Inspect(ctx context.Context, sourceURL string) (*domain.ResolvedTrack, error)
}

var _ ports.TrackResolver = (*SourceResolver)(nil)

// SourceResolver resolves queries eagerly through Lavalink, or lazily by fetching only metadata.
// Lazy tracks are loaded through Lavalink when they are made playable.
type SourceResolver struct {
	loader    trackLoader
	search    videoSearcher
	inspector urlInspector
}

// NewSourceResolver creates a new SourceResolver. Without search or inspector,
// lazy resolution falls back to eager loading.
func NewSourceResolver(loader trackLoader, search videoSearcher, inspector urlInspector) *SourceResolver {
	return &SourceResolver{
		loader:    loader,
		search:    search,
		inspector: inspector,
	}
}

func (r *SourceResolver) Resolve(ctx context.Context, query domain.Query, lazy bool) (*domain.ResolvedTrack, error) {
	if !query.IsValid() {
		return nil, ports.ErrNoMatches
	}

	if lazy {
		track, err := r.resolveLazy(ctx, query)
		if err == nil || errors.Is(err, ports.ErrNoMatches) {
			return track, err
		}
		slog.Debug("lazy resolution failed, loading eagerly", "query", query.String(), "error", err)
	}

	return r.loader.LoadTrack(ctx, query.LavalinkIdentifier())
}

func (r *SourceResolver) resolveLazy(ctx context.Context, query domain.Query) (*domain.ResolvedTrack, error) {
	var (
		track *domain.ResolvedTrack
		err   error
	)
	switch {
	case query.Kind() == domain.QuerySearch && r.search != nil:
		track, err = r.search.SearchVideo(ctx, query.Value())
	case query.Kind() == domain.QueryURL && r.inspector != nil:
		track, err = r.inspector.Inspect(ctx, query.Value())
	default:
		return nil, errLazyUnsupported
	}
	if err != nil {
		return nil, err
	}
	if track.SourceURL == "" {
		return nil, errNoMetadata
	}
	return track, nil
}

var errLazyUnsupported = errors.New("lazy resolution unsupported")
