package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/time/rate"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
)

// maxWatchPageSize bounds how much of a watch page is read.
const maxWatchPageSize = 8 << 20

var (
	youtubeHostPattern = regexp.MustCompile(`^https?://www\.youtube\.com`)

	errNotYouTube       = errors.New("not a youtube url")
	errNoPlayerResponse = errors.New("no player response in watch page")
)

var _ ports.LoudnessSource = (*YouTubeLoudnessClient)(nil)

// YouTubeLoudnessClient reads the loudness YouTube reports for a video from its watch page.
type YouTubeLoudnessClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	// origin replaces the scheme and host of watch URLs when set.
	origin string
}

// NewYouTubeLoudnessClient creates a new YouTubeLoudnessClient. A nil limiter disables rate limiting.
func NewYouTubeLoudnessClient(httpClient *http.Client, limiter *rate.Limiter) *YouTubeLoudnessClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &YouTubeLoudnessClient{
		httpClient: httpClient,
		limiter:    limiter,
	}
}

type playerResponse struct {
	PlayerConfig struct {
		AudioConfig struct {
			LoudnessDB *float64 `json:"loudnessDb"`
		} `json:"audioConfig"`
	} `json:"playerConfig"`
}

// Loudness returns the video's loudness in dB relative to YouTube's normalization target.
func (c *YouTubeLoudnessClient) Loudness(ctx context.Context, sourceURL string) (float64, error) {
	if !youtubeHostPattern.MatchString(sourceURL) {
		return 0, errNotYouTube
	}

	target, err := c.resolve(sourceURL)
	if err != nil {
		return 0, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("failed to wait for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch watch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected watch page status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWatchPageSize))
	if err != nil {
		return 0, fmt.Errorf("failed to read watch page: %w", err)
	}

	return parseLoudness(string(body))
}

func (c *YouTubeLoudnessClient) resolve(sourceURL string) (string, error) {
	if c.origin == "" {
		return sourceURL, nil
	}
	u, err := url.Parse(sourceURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}
	return c.origin + u.RequestURI(), nil
}

// parseLoudness extracts audioConfig.loudnessDb from the ytInitialPlayerResponse object of a watch page.
func parseLoudness(page string) (float64, error) {
	marker := strings.Index(page, "ytInitialPlayerResponse")
	if marker < 0 {
		return 0, errNoPlayerResponse
	}
	start := strings.IndexByte(page[marker:], '{')
	if start < 0 {
		return 0, errNoPlayerResponse
	}

	var resp playerResponse
	if err := json.NewDecoder(strings.NewReader(page[marker+start:])).Decode(&resp); err != nil {
		return 0, fmt.Errorf("failed to decode player response: %w", err)
	}
	if resp.PlayerConfig.AudioConfig.LoudnessDB == nil {
		return 0, errNoPlayerResponse
	}
	return *resp.PlayerConfig.AudioConfig.LoudnessDB, nil
}
