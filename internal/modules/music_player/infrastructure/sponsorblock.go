package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"golang.org/x/time/rate"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// DefaultSponsorBlockURL is the public SponsorBlock API.
const DefaultSponsorBlockURL = "https://sponsor.ajay.app"

// sponsorBlockCategories are the segment categories that are skipped.
var sponsorBlockCategories = []string{
	"sponsor",
	"selfpromo",
	"interaction",
	"intro",
	"outro",
	"preview",
	"music_offtopic",
}

var watchURLPattern = regexp.MustCompile(`https://www\.youtube\.com/watch\?v=([\w\-]+)`)

// youtubeVideoID returns the video ID of a YouTube watch URL.
func youtubeVideoID(sourceURL string) (string, bool) {
	m := watchURLPattern.FindStringSubmatch(sourceURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

var _ ports.SegmentSource = (*SponsorBlockClient)(nil)

// SponsorBlockClient looks up community-submitted skip segments of YouTube videos.
type SponsorBlockClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// NewSponsorBlockClient creates a new SponsorBlockClient. A nil limiter disables rate limiting.
func NewSponsorBlockClient(httpClient *http.Client, limiter *rate.Limiter, baseURL string) *SponsorBlockClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultSponsorBlockURL
	}
	return &SponsorBlockClient{
		httpClient: httpClient,
		limiter:    limiter,
		baseURL:    baseURL,
	}
}

type sponsorBlockSegment struct {
	Segment [2]float64 `json:"segment"`
}

// Segments returns the skip segments of the video. Non-YouTube URLs and
// videos without submissions have none.
func (c *SponsorBlockClient) Segments(ctx context.Context, sourceURL string) ([]domain.Segment, error) {
	videoID, ok := youtubeVideoID(sourceURL)
	if !ok {
		return nil, nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
		}
	}

	query := url.Values{"videoID": {videoID}}
	for _, category := range sponsorBlockCategories {
		query.Add("category", category)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/skipSegments?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query SponsorBlock: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected SponsorBlock status: %s", resp.Status)
	}

	var raw []sponsorBlockSegment
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode SponsorBlock response: %w", err)
	}

	segments := make([]domain.Segment, 0, len(raw))
	for _, s := range raw {
		segments = append(segments, domain.Segment{
			Start: secondsToDuration(s.Segment[0]),
			End:   secondsToDuration(s.Segment[1]),
		})
	}
	return segments, nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
