package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	// Registers the "sqlite" driver.
	_ "modernc.org/sqlite"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// DefaultMetadataCacheTTL is how long cached loudness and segments stay fresh.
const DefaultMetadataCacheTTL = 7 * 24 * time.Hour

const metadataCacheSchema = `
CREATE TABLE IF NOT EXISTS loudness_cache (
	video_id    TEXT PRIMARY KEY,
	loudness_db REAL NOT NULL,
	fetched_at  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS segment_cache (
	video_id   TEXT PRIMARY KEY,
	segments   TEXT NOT NULL,
	fetched_at INTEGER NOT NULL
);
`

// MetadataCache stores loudness and skip segments per YouTube video in SQLite.
type MetadataCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenMetadataCache opens or creates the cache database at path.
func OpenMetadataCache(ctx context.Context, path string, ttl time.Duration) (*MetadataCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata cache: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, metadataCacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create metadata cache schema: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultMetadataCacheTTL
	}
	return &MetadataCache{db: db, ttl: ttl, now: time.Now}, nil
}

// Close closes the database.
func (c *MetadataCache) Close() error {
	return c.db.Close()
}

func (c *MetadataCache) isExpired(fetchedAt int64) bool {
	return fetchedAt < c.now().Add(-c.ttl).Unix()
}

// Loudness returns the cached loudness of a video. ok is false on a miss or an expired entry.
func (c *MetadataCache) Loudness(ctx context.Context, videoID string) (db float64, ok bool, err error) {
	var fetchedAt int64
	err = c.db.QueryRowContext(ctx,
		`SELECT loudness_db, fetched_at FROM loudness_cache WHERE video_id = ?`,
		videoID,
	).Scan(&db, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if c.isExpired(fetchedAt) {
		return 0, false, nil
	}
	return db, true, nil
}

// SetLoudness caches the loudness of a video.
func (c *MetadataCache) SetLoudness(ctx context.Context, videoID string, db float64) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO loudness_cache (video_id, loudness_db, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET loudness_db = excluded.loudness_db, fetched_at = excluded.fetched_at
	`, videoID, db, c.now().Unix())
	return err
}

type cachedSegment struct {
	StartMS int64 `json:"start_ms"`
	EndMS   int64 `json:"end_ms"`
}

// Segments returns the cached segments of a video. ok is false on a miss or an expired entry.
func (c *MetadataCache) Segments(ctx context.Context, videoID string) (segments []domain.Segment, ok bool, err error) {
	var (
		raw       string
		fetchedAt int64
	)
	err = c.db.QueryRowContext(ctx,
		`SELECT segments, fetched_at FROM segment_cache WHERE video_id = ?`,
		videoID,
	).Scan(&raw, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if c.isExpired(fetchedAt) {
		return nil, false, nil
	}

	var stored []cachedSegment
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached segments: %w", err)
	}
	for _, s := range stored {
		segments = append(segments, domain.Segment{
			Start: time.Duration(s.StartMS) * time.Millisecond,
			End:   time.Duration(s.EndMS) * time.Millisecond,
		})
	}
	return segments, true, nil
}

// SetSegments caches the segments of a video. An empty list is cached as well.
func (c *MetadataCache) SetSegments(ctx context.Context, videoID string, segments []domain.Segment) error {
	stored := make([]cachedSegment, len(segments))
	for i, s := range segments {
		stored[i] = cachedSegment{StartMS: s.Start.Milliseconds(), EndMS: s.End.Milliseconds()}
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO segment_cache (video_id, segments, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET segments = excluded.segments, fetched_at = excluded.fetched_at
	`, videoID, string(raw), c.now().Unix())
	return err
}

// CachedLoudnessSource serves loudness from the cache and fills it from the wrapped source.
type CachedLoudnessSource struct {
	source ports.LoudnessSource
	cache  *MetadataCache
}

// NewCachedLoudnessSource creates a new CachedLoudnessSource.
func NewCachedLoudnessSource(source ports.LoudnessSource, cache *MetadataCache) *CachedLoudnessSource {
	return &CachedLoudnessSource{source: source, cache: cache}
}

func (s *CachedLoudnessSource) Loudness(ctx context.Context, sourceURL string) (float64, error) {
	videoID, ok := youtubeVideoID(sourceURL)
	if !ok {
		return s.source.Loudness(ctx, sourceURL)
	}

	db, hit, err := s.cache.Loudness(ctx, videoID)
	if err != nil {
		slog.Warn("failed to read loudness cache", "video", videoID, "error", err)
	}
	if hit {
		return db, nil
	}

	db, err = s.source.Loudness(ctx, sourceURL)
	if err != nil {
		return 0, err
	}
	if err := s.cache.SetLoudness(ctx, videoID, db); err != nil {
		slog.Warn("failed to write loudness cache", "video", videoID, "error", err)
	}
	return db, nil
}

// CachedSegmentSource serves segments from the cache and fills it from the wrapped source.
type CachedSegmentSource struct {
	source ports.SegmentSource
	cache  *MetadataCache
}

// NewCachedSegmentSource creates a new CachedSegmentSource.
func NewCachedSegmentSource(source ports.SegmentSource, cache *MetadataCache) *CachedSegmentSource {
	return &CachedSegmentSource{source: source, cache: cache}
}

func (s *CachedSegmentSource) Segments(ctx context.Context, sourceURL string) ([]domain.Segment, error) {
	videoID, ok := youtubeVideoID(sourceURL)
	if !ok {
		return s.source.Segments(ctx, sourceURL)
	}

	segments, hit, err := s.cache.Segments(ctx, videoID)
	if err != nil {
		slog.Warn("failed to read segment cache", "video", videoID, "error", err)
	}
	if hit {
		return segments, nil
	}

	segments, err = s.source.Segments(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetSegments(ctx, videoID, segments); err != nil {
		slog.Warn("failed to write segment cache", "video", videoID, "error", err)
	}
	return segments, nil
}

var (
	_ ports.LoudnessSource = (*CachedLoudnessSource)(nil)
	_ ports.SegmentSource  = (*CachedSegmentSource)(nil)
)
