package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/raitonoberu/ytmusic"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
)

var _ ports.MusicSearcher = (*YTMusicSearcher)(nil)

// YTMusicSearcher searches the YouTube Music catalog.
type YTMusicSearcher struct{}

// NewYTMusicSearcher creates a new YTMusicSearcher.
func NewYTMusicSearcher() *YTMusicSearcher {
	return &YTMusicSearcher{}
}

// SearchSongs returns the songs matching query, best match first.
func (s *YTMusicSearcher) SearchSongs(ctx context.Context, query string) ([]ports.SongResult, error) {
	result, err := nextPage(ctx, ytmusic.TrackSearch(query))
	if err != nil {
		return nil, fmt.Errorf("failed to search songs: %w", err)
	}

	songs := make([]ports.SongResult, 0, len(result.Tracks))
	for _, track := range result.Tracks {
		if track.VideoID == "" {
			continue
		}
		song := ports.SongResult{
			VideoID:  track.VideoID,
			Title:    track.Title,
			Duration: time.Duration(track.Duration) * time.Second,
		}
		if len(track.Artists) > 0 {
			song.Artist = track.Artists[0].Name
		}
		songs = append(songs, song)
	}
	return songs, nil
}

// SearchAlbums returns the albums matching query, best match first.
func (s *YTMusicSearcher) SearchAlbums(ctx context.Context, query string) ([]ports.AlbumResult, error) {
	result, err := nextPage(ctx, ytmusic.AlbumSearch(query))
	if err != nil {
		return nil, fmt.Errorf("failed to search albums: %w", err)
	}

	albums := make([]ports.AlbumResult, 0, len(result.Albums))
	for _, album := range result.Albums {
		if album.BrowseID == "" {
			continue
		}
		a := ports.AlbumResult{
			BrowseID: album.BrowseID,
			Title:    album.Title,
		}
		if len(album.Artists) > 0 {
			a.Artist = album.Artists[0].Name
		}
		albums = append(albums, a)
	}
	return albums, nil
}

// nextPage fetches one result page. The ytmusic client takes no context, so ctx only bounds the wait.
func nextPage(ctx context.Context, search *ytmusic.SearchClient) (*ytmusic.SearchResult, error) {
	type page struct {
		result *ytmusic.SearchResult
		err    error
	}

	done := make(chan page, 1)
	go func() {
		result, err := search.Next()
		done <- page{result: result, err: err}
	}()

	select {
	case p := <-done:
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
