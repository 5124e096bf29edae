package ports

import (
	"context"
	"time"
)

// SongResult is a single song search hit.
type SongResult struct {
	VideoID  string
	Title    string
	Artist   string
	Duration time.Duration
}

// AlbumResult is a single album search hit.
type AlbumResult struct {
	BrowseID string
	Title    string
	Artist   string
}

// MusicSearcher searches a music catalog.
type MusicSearcher interface {
	SearchSongs(ctx context.Context, query string) ([]SongResult, error)
	SearchAlbums(ctx context.Context, query string) ([]AlbumResult, error)
}
