package ports

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// TrackHandle is a reference to a track owned by the voice runtime.
type TrackHandle interface {
	// ID uniquely identifies this queue entry.
	ID() string

	// Track returns the metadata the track was enqueued with.
	Track() *domain.ResolvedTrack

	// Position returns the current playback position. It is zero for tracks that are not playing.
	Position() time.Duration

	// IsPaused reports whether the track is paused.
	IsPaused() bool

	Seek(ctx context.Context, position time.Duration) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error

	// Stop ends the track. Stopping the playing track advances the queue.
	Stop(ctx context.Context) error

	// SetVolume sets the playback volume factor in [0,1].
	SetVolume(ctx context.Context, volume float64) error

	// MakePlayable loads a lazily resolved track so it can start without delay.
	// It is a no-op for tracks that are already playable.
	MakePlayable(ctx context.Context) error

	// ScheduleDelayed runs fn after delay unless the track ends first.
	Scheduler
}

// PlaybackQueue is the per-guild queue of the voice runtime.
// The first entry is the playing track.
type PlaybackQueue interface {
	// Enqueue appends the track. A track enqueued onto an empty queue starts playing.
	Enqueue(ctx context.Context, track *domain.ResolvedTrack) (TrackHandle, error)

	// Current returns the head of the queue.
	Current() (TrackHandle, bool)

	// DequeueFront removes the head of the queue without stopping it.
	DequeueFront() (TrackHandle, bool)

	// Modify replaces the queue entries with the result of fn while holding the queue's lock.
	// fn must not call back into the queue.
	Modify(fn func(tracks []TrackHandle) []TrackHandle)

	Len() int

	// Tracks returns a snapshot of the queue entries.
	Tracks() []TrackHandle

	// Stop stops the playing track and clears the queue.
	Stop(ctx context.Context) error
}

// Call is the bot's voice connection in one guild.
type Call interface {
	GuildID() snowflake.ID
	ChannelID() snowflake.ID
	Queue() PlaybackQueue

	// Leave disconnects from voice.
	Leave(ctx context.Context) error

	// ScheduleDelayed runs fn after delay unless RemoveAllEvents is called first.
	Scheduler

	// RemoveAllEvents cancels every event scheduled on the call.
	RemoveAllEvents()
}

// VoiceManager creates and looks up calls.
type VoiceManager interface {
	// Join connects to the voice channel deafened, or moves an existing call there.
	Join(ctx context.Context, guildID, channelID snowflake.ID) (Call, error)

	// Get returns the active call for the guild.
	Get(guildID snowflake.ID) (Call, bool)
}
