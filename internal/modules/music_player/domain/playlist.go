package domain

import "regexp"

var (
	playlistURLPattern = regexp.MustCompile(
		`^https?://(?:www|music)\.youtube\.com/playlist\?list=([0-9A-Za-z_-]+)`,
	)
	albumBrowsePattern = regexp.MustCompile(
		`^https?://music\.youtube\.com/browse/([0-9A-Za-z_-]+)`,
	)
)

// ParsePlaylistURL returns the canonical URL to list for a YouTube playlist
// or YouTube Music album link.
func ParsePlaylistURL(u string) (string, bool) {
	if m := playlistURLPattern.FindStringSubmatch(u); m != nil {
		return "https://www.youtube.com/playlist?list=" + m[1], true
	}
	if m := albumBrowsePattern.FindStringSubmatch(u); m != nil {
		return "https://music.youtube.com/browse/" + m[1], true
	}
	return "", false
}

// YouTubeWatchURL returns the watch URL for a video ID.
func YouTubeWatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
