package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

var errTrackNotPlaying = errors.New("track is not playing")

// trackPlayer is the part of a guild's audio player the queue drives.
type trackPlayer interface {
	Play(ctx context.Context, encoded string, volume int) error
	Stop(ctx context.Context) error
	SetPaused(ctx context.Context, paused bool) error
	Seek(ctx context.Context, position time.Duration) error
	SetVolume(ctx context.Context, volume int) error
	Position() time.Duration
}

// trackLoader loads playable track data for an identifier.
type trackLoader interface {
	LoadTrack(ctx context.Context, identifier string) (*domain.ResolvedTrack, error)
}

var (
	_ ports.PlaybackQueue = (*trackQueue)(nil)
	_ ports.TrackHandle   = (*queuedTrack)(nil)
)

// trackQueue is a guild's playback queue. The first entry is the playing track.
type trackQueue struct {
	guildID   snowflake.ID
	player    trackPlayer
	loader    trackLoader
	publisher ports.EventPublisher

	mu      sync.Mutex
	entries []*queuedTrack
	playing *queuedTrack
	paused  bool
}

func newTrackQueue(
	guildID snowflake.ID,
	player trackPlayer,
	loader trackLoader,
	publisher ports.EventPublisher,
) *trackQueue {
	return &trackQueue{
		guildID:   guildID,
		player:    player,
		loader:    loader,
		publisher: publisher,
	}
}

// Enqueue appends the track. A track enqueued onto an empty queue starts playing.
func (q *trackQueue) Enqueue(ctx context.Context, track *domain.ResolvedTrack) (ports.TrackHandle, error) {
	q.mu.Lock()
	handle := &queuedTrack{
		TimerScheduler: NewTimerScheduler(),
		id:             uuid.NewString(),
		queue:          q,
		track:          track,
		initial:        len(q.entries) == 0,
	}
	q.entries = append(q.entries, handle)
	start := len(q.entries) == 1 && q.playing == nil
	q.mu.Unlock()

	if !start {
		return handle, nil
	}

	if err := q.start(ctx, handle); err != nil {
		q.drop(handle)
		return nil, err
	}
	return handle, nil
}

func (q *trackQueue) Current() (ports.TrackHandle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil, false
	}
	return q.entries[0], true
}

// DequeueFront removes the head of the queue without stopping it.
func (q *trackQueue) DequeueFront() (ports.TrackHandle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil, false
	}
	front := q.entries[0]
	q.entries = q.entries[1:]
	return front, true
}

func (q *trackQueue) Modify(fn func(tracks []ports.TrackHandle) []ports.TrackHandle) {
	q.mu.Lock()
	defer q.mu.Unlock()

	handles := make([]ports.TrackHandle, len(q.entries))
	for i, entry := range q.entries {
		handles[i] = entry
	}

	modified := fn(handles)
	entries := make([]*queuedTrack, 0, len(modified))
	for _, handle := range modified {
		if entry, ok := handle.(*queuedTrack); ok && entry.queue == q {
			entries = append(entries, entry)
		}
	}
	q.entries = entries
}

func (q *trackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *trackQueue) Tracks() []ports.TrackHandle {
	q.mu.Lock()
	defer q.mu.Unlock()
	handles := make([]ports.TrackHandle, len(q.entries))
	for i, entry := range q.entries {
		handles[i] = entry
	}
	return handles
}

// Stop clears the queue, then stops the playing track.
// Scheduled events of every cleared track, the playing one included, are cancelled.
func (q *trackQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	cleared := q.entries
	q.entries = nil
	playing := q.playing
	q.mu.Unlock()

	for _, entry := range cleared {
		entry.Close()
	}

	if playing == nil {
		return nil
	}
	playing.Close()
	if err := q.player.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	return nil
}

// start makes the handle playable and plays it.
func (q *trackQueue) start(ctx context.Context, handle *queuedTrack) error {
	if err := handle.MakePlayable(ctx); err != nil {
		return err
	}

	track := handle.Track()
	if err := q.player.Play(ctx, track.Encoded, volumePercent(track.Volume)); err != nil {
		return fmt.Errorf("failed to play track: %w", err)
	}

	q.mu.Lock()
	q.playing = handle
	q.paused = false
	initial := handle.initial
	handle.initial = false
	q.mu.Unlock()

	slog.Debug("track started", "guild", q.guildID, "track", track.DisplayTitle())
	q.publish(domain.TrackStartedEvent{
		GuildID:  q.guildID,
		HandleID: handle.id,
		Track:    track,
		Initial:  initial,
	})
	return nil
}

// advance starts the head of the queue, dropping entries that fail to start.
func (q *trackQueue) advance(ctx context.Context) {
	for {
		q.mu.Lock()
		if len(q.entries) == 0 || q.playing != nil {
			q.mu.Unlock()
			return
		}
		next := q.entries[0]
		q.mu.Unlock()

		err := q.start(ctx, next)
		if err == nil {
			return
		}
		slog.Warn("failed to start track, skipping",
			"guild", q.guildID,
			"track", next.Track().DisplayTitle(),
			"error", err,
		)
		q.drop(next)
		q.publish(domain.TrackEndedEvent{
			GuildID:  q.guildID,
			HandleID: next.id,
			Track:    next.Track(),
			Reason:   domain.TrackEndLoadFailed,
		})
	}
}

// onTrackEnd is called when the player reports that the playing track ended.
func (q *trackQueue) onTrackEnd(ctx context.Context, reason domain.TrackEndReason) {
	if !reason.ShouldAdvanceQueue() {
		return
	}

	q.mu.Lock()
	ended := q.playing
	if ended == nil {
		q.mu.Unlock()
		return
	}
	q.playing = nil
	q.paused = false
	if len(q.entries) > 0 && q.entries[0] == ended {
		q.entries = q.entries[1:]
	}
	q.mu.Unlock()

	ended.Close()

	slog.Debug("track ended", "guild", q.guildID, "track", ended.Track().DisplayTitle(), "reason", reason)
	q.publish(domain.TrackEndedEvent{
		GuildID:  q.guildID,
		HandleID: ended.id,
		Track:    ended.Track(),
		Reason:   reason,
	})

	q.advance(ctx)
}

// release forgets every entry and the playing track and cancels their scheduled events.
// It is used when the call ends, since no track end is reported afterwards.
func (q *trackQueue) release() {
	q.mu.Lock()
	entries := q.entries
	playing := q.playing
	q.entries = nil
	q.playing = nil
	q.paused = false
	q.mu.Unlock()

	for _, entry := range entries {
		entry.Close()
	}
	if playing != nil {
		playing.Close()
	}
}

func (q *trackQueue) drop(handle *queuedTrack) {
	q.mu.Lock()
	q.entries = slices.DeleteFunc(q.entries, func(e *queuedTrack) bool { return e == handle })
	q.mu.Unlock()
	handle.Close()
}

func (q *trackQueue) isPlaying(handle *queuedTrack) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playing == handle
}

func (q *trackQueue) publish(event domain.Event) {
	if q.publisher == nil {
		return
	}
	if err := q.publisher.Publish(event); err != nil {
		slog.Warn("failed to publish event", "guild", q.guildID, "error", err)
	}
}

func volumePercent(volume float64) int {
	return int(math.Round(volume * 100))
}

// queuedTrack is a queue entry. Its scheduled events are cancelled when the track ends.
type queuedTrack struct {
	*TimerScheduler

	id    string
	queue *trackQueue

	mu      sync.Mutex
	track   *domain.ResolvedTrack
	initial bool
}

func (t *queuedTrack) ID() string {
	return t.id
}

func (t *queuedTrack) Track() *domain.ResolvedTrack {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.track
}

func (t *queuedTrack) Position() time.Duration {
	if !t.queue.isPlaying(t) {
		return 0
	}
	return t.queue.player.Position()
}

func (t *queuedTrack) IsPaused() bool {
	t.queue.mu.Lock()
	defer t.queue.mu.Unlock()
	return t.queue.playing == t && t.queue.paused
}

func (t *queuedTrack) Seek(ctx context.Context, position time.Duration) error {
	if !t.queue.isPlaying(t) {
		return errTrackNotPlaying
	}
	if err := t.queue.player.Seek(ctx, position); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	return nil
}

func (t *queuedTrack) Pause(ctx context.Context) error {
	if !t.queue.isPlaying(t) {
		return errTrackNotPlaying
	}
	if err := t.queue.player.SetPaused(ctx, true); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}

	t.queue.mu.Lock()
	t.queue.paused = true
	t.queue.mu.Unlock()

	t.queue.publish(domain.TrackPausedEvent{
		GuildID:  t.queue.guildID,
		HandleID: t.id,
		Track:    t.Track(),
	})
	return nil
}

func (t *queuedTrack) Resume(ctx context.Context) error {
	if !t.queue.isPlaying(t) {
		return errTrackNotPlaying
	}
	if err := t.queue.player.SetPaused(ctx, false); err != nil {
		return fmt.Errorf("failed to resume playback: %w", err)
	}

	t.queue.mu.Lock()
	t.queue.paused = false
	t.queue.mu.Unlock()

	t.queue.publish(domain.TrackStartedEvent{
		GuildID:  t.queue.guildID,
		HandleID: t.id,
		Track:    t.Track(),
		Position: t.queue.player.Position(),
	})
	return nil
}

// Stop ends the track. Stopping the playing track advances the queue once the player reports the end.
func (t *queuedTrack) Stop(ctx context.Context) error {
	if !t.queue.isPlaying(t) {
		t.Close()
		return nil
	}
	if err := t.queue.player.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop track: %w", err)
	}
	return nil
}

func (t *queuedTrack) SetVolume(ctx context.Context, volume float64) error {
	t.update(func(track *domain.ResolvedTrack) {
		track.Volume = volume
	})

	if !t.queue.isPlaying(t) {
		return nil
	}
	if err := t.queue.player.SetVolume(ctx, volumePercent(volume)); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	return nil
}

// MakePlayable loads the track's playable data from its source URL.
func (t *queuedTrack) MakePlayable(ctx context.Context) error {
	t.mu.Lock()
	if t.track.IsPlayable() {
		t.mu.Unlock()
		return nil
	}
	identifier := t.track.SourceURL
	t.mu.Unlock()

	loaded, err := t.queue.loader.LoadTrack(ctx, identifier)
	if err != nil {
		return fmt.Errorf("failed to load track: %w", err)
	}

	t.update(func(track *domain.ResolvedTrack) {
		track.Encoded = loaded.Encoded
		if track.Duration == 0 {
			track.Duration = loaded.Duration
		}
		if track.ArtworkURL == "" {
			track.ArtworkURL = loaded.ArtworkURL
		}
	})
	return nil
}

// update replaces the track with a modified copy. Tracks handed out earlier are never mutated.
func (t *queuedTrack) update(fn func(track *domain.ResolvedTrack)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	updated := *t.track
	fn(&updated)
	t.track = &updated
}
