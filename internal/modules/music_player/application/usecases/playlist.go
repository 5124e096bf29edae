package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// RequestInput contains the input shared by the playlist, song and album use cases.
type RequestInput struct {
	GuildID               snowflake.ID
	RequesterID           snowflake.ID
	NotificationChannelID snowflake.ID
	Query                 string // playlist URL, song title or album title
}

// PlaylistService expands playlists and catalog searches into AddTracks calls.
type PlaylistService struct {
	adder     *AddTracksService
	playlists ports.PlaylistSource
	searcher  ports.MusicSearcher
}

// NewPlaylistService creates a new PlaylistService.
func NewPlaylistService(
	adder *AddTracksService,
	playlists ports.PlaylistSource,
	searcher ports.MusicSearcher,
) *PlaylistService {
	return &PlaylistService{
		adder:     adder,
		playlists: playlists,
		searcher:  searcher,
	}
}

// AddPlaylist adds every entry of a YouTube playlist or YouTube Music album link.
func (p *PlaylistService) AddPlaylist(ctx context.Context, input RequestInput) error {
	playlistURL, ok := domain.ParsePlaylistURL(input.Query)
	if !ok {
		return ErrBadPlaylist
	}

	queries, err := p.playlists.ListPlaylist(ctx, playlistURL)
	if err != nil {
		slog.Warn("failed to list playlist", "url", playlistURL, "error", err)
		return ErrBadPlaylist
	}
	if len(queries) == 0 {
		return ErrBadPlaylist
	}

	slog.Debug("adding playlist", "guild", input.GuildID, "url", playlistURL, "tracks", len(queries))

	return p.adder.AddTracks(ctx, AddTracksInput{
		GuildID:               input.GuildID,
		RequesterID:           input.RequesterID,
		NotificationChannelID: input.NotificationChannelID,
		Queries:               QueriesOf(queries...),
		Total:                 len(queries),
	})
}

// AddSong adds the best song search match.
func (p *PlaylistService) AddSong(ctx context.Context, input RequestInput) error {
	songs, err := p.searcher.SearchSongs(ctx, input.Query)
	if err != nil {
		return &BadSourceError{Detail: fmt.Sprintf("song search failed: %v", err)}
	}
	if len(songs) == 0 {
		return ErrNoResults
	}

	return p.adder.AddTracks(ctx, AddTracksInput{
		GuildID:               input.GuildID,
		RequesterID:           input.RequesterID,
		NotificationChannelID: input.NotificationChannelID,
		Queries:               QueriesOf(domain.URL(domain.YouTubeWatchURL(songs[0].VideoID))),
		Total:                 1,
	})
}

// AddAlbum adds every track of the best album search match.
func (p *PlaylistService) AddAlbum(ctx context.Context, input RequestInput) error {
	albums, err := p.searcher.SearchAlbums(ctx, input.Query)
	if err != nil {
		return &BadSourceError{Detail: fmt.Sprintf("album search failed: %v", err)}
	}
	if len(albums) == 0 {
		return ErrNoResults
	}

	input.Query = "https://music.youtube.com/browse/" + albums[0].BrowseID
	return p.AddPlaylist(ctx, input)
}

// Play adds a playlist link as a playlist, any other link as a single track,
// and anything else as a song search.
func (p *PlaylistService) Play(ctx context.Context, input RequestInput) error {
	query := domain.ParseQuery(input.Query)
	if query.Kind() != domain.QueryURL {
		return p.AddSong(ctx, input)
	}

	if _, ok := domain.ParsePlaylistURL(query.Value()); ok {
		return p.AddPlaylist(ctx, input)
	}

	return p.AddQuery(ctx, input, query)
}

// AddQuery adds a single query.
func (p *PlaylistService) AddQuery(ctx context.Context, input RequestInput, query domain.Query) error {
	if !query.IsValid() {
		return ErrNoResults
	}
	return p.adder.AddTracks(ctx, AddTracksInput{
		GuildID:               input.GuildID,
		RequesterID:           input.RequesterID,
		NotificationChannelID: input.NotificationChannelID,
		Queries:               QueriesOf(query),
		Total:                 1,
	})
}
