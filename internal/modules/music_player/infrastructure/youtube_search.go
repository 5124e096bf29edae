package infrastructure

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ppalone/ytsearch"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// YouTubeSearchClient finds videos through YouTube's web search without the Lavalink node.
type YouTubeSearchClient struct {
	client *ytsearch.Client
}

// NewYouTubeSearchClient creates a new YouTubeSearchClient.
func NewYouTubeSearchClient() *YouTubeSearchClient {
	return &YouTubeSearchClient{client: ytsearch.NewClient(nil)}
}

// SearchVideo returns the metadata of the first video matching text. The returned track is not playable.
func (c *YouTubeSearchClient) SearchVideo(ctx context.Context, text string) (*domain.ResolvedTrack, error) {
	res, err := c.client.Search(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to search youtube: %w", err)
	}

	for _, v := range res.Results {
		if v.VideoID == "" {
			continue
		}
		return &domain.ResolvedTrack{
			Identifier: v.VideoID,
			Title:      v.Title,
			Artist:     v.Channel,
			Duration:   parseClockDuration(v.Duration),
			SourceURL:  domain.YouTubeWatchURL(v.VideoID),
			SourceName: string(domain.TrackSourceYouTube),
			IsStream:   v.Duration == "",
			Volume:     domain.DefaultVolume,
		}, nil
	}
	return nil, ports.ErrNoMatches
}

// parseClockDuration parses "m:ss" or "h:mm:ss". Anything else is zero.
func parseClockDuration(s string) time.Duration {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}

	var total time.Duration
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + time.Duration(n)
	}
	return total * time.Second
}
