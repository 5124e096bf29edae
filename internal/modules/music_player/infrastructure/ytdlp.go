package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// metadataPrintFormat is the yt-dlp --print template parsed by parseMetadataLine.
const metadataPrintFormat = "%(id)s\t%(title)s\t%(uploader)s\t%(duration)s\t%(webpage_url)s\t%(thumbnail)s\t%(extractor_key)s\t%(is_live)s"

var errNoMetadata = errors.New("yt-dlp returned no metadata")

var _ ports.PlaylistSource = (*YtdlpClient)(nil)

// YtdlpClient runs the yt-dlp CLI for playlist listings and metadata lookups.
type YtdlpClient struct {
	proxy string
}

// NewYtdlpClient creates a new YtdlpClient. An empty proxy means direct connections.
func NewYtdlpClient(proxy string) *YtdlpClient {
	return &YtdlpClient{proxy: proxy}
}

func (c *YtdlpClient) command() *ytdlp.Command {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig()
	if c.proxy != "" {
		cmd.Proxy(c.proxy)
	}
	return cmd
}

// ListPlaylist returns one watch URL query per playlist entry, in playlist order.
func (c *YtdlpClient) ListPlaylist(ctx context.Context, playlistURL string) ([]domain.Query, error) {
	res, err := c.command().
		FlatPlaylist().
		YesPlaylist().
		Print("%(id)s").
		Run(ctx, playlistURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist: %w", err)
	}
	return parsePlaylistIDs(res.Stdout), nil
}

func parsePlaylistIDs(output string) []domain.Query {
	var queries []domain.Query
	for line := range strings.Lines(output) {
		id := strings.TrimSpace(line)
		if id == "" || id == "NA" {
			continue
		}
		queries = append(queries, domain.URL(domain.YouTubeWatchURL(id)))
	}
	return queries
}

// Inspect fetches the metadata of a single URL without downloading it.
// The returned track is not playable.
func (c *YtdlpClient) Inspect(ctx context.Context, sourceURL string) (*domain.ResolvedTrack, error) {
	res, err := c.command().
		NoPlaylist().
		SkipDownload().
		Print(metadataPrintFormat).
		Run(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect url: %w", err)
	}

	for line := range strings.Lines(res.Stdout) {
		if track, ok := parseMetadataLine(strings.TrimRight(line, "\r\n")); ok {
			if track.SourceURL == "" {
				track.SourceURL = sourceURL
			}
			return track, nil
		}
	}
	return nil, errNoMetadata
}

// parseMetadataLine parses one line printed with metadataPrintFormat. yt-dlp prints NA for missing fields.
func parseMetadataLine(line string) (*domain.ResolvedTrack, bool) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, false
	}
	for i, f := range fields {
		if f == "NA" {
			fields[i] = ""
		}
	}

	track := &domain.ResolvedTrack{
		Identifier: fields[0],
		Title:      fields[1],
		Artist:     fields[2],
		SourceURL:  fields[4],
		ArtworkURL: fields[5],
		SourceName: strings.ToLower(fields[6]),
		IsStream:   fields[7] == "True",
		Volume:     domain.DefaultVolume,
	}
	if seconds, err := strconv.ParseFloat(fields[3], 64); err == nil {
		track.Duration = time.Duration(seconds * float64(time.Second))
	}
	if track.Identifier == "" && track.Title == "" {
		return nil, false
	}
	return track, true
}
