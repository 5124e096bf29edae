package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
)

// SkipOutput contains the result of the Skip use case.
type SkipOutput struct {
	Skipped ports.TrackHandle
	Next    ports.TrackHandle // nil if the queue is now empty
}

// StopOutput contains the result of the Stop use case.
type StopOutput struct {
	Cleared int // number of tracks that were queued
}

// PlaybackService handles playback controls. It does not take the guild lock;
// the playback queue serializes these against adds and removes.
type PlaybackService struct {
	voice ports.VoiceManager
}

// NewPlaybackService creates a new PlaybackService.
func NewPlaybackService(voice ports.VoiceManager) *PlaybackService {
	return &PlaybackService{voice: voice}
}

// Pause pauses the playing track.
func (p *PlaybackService) Pause(ctx context.Context, guildID snowflake.ID) (ports.TrackHandle, error) {
	current, err := p.current(guildID)
	if err != nil {
		return nil, err
	}
	if current == nil || current.IsPaused() {
		return nil, ErrNoPlayingTrack
	}

	if err := current.Pause(ctx); err != nil {
		return nil, &InternalError{Cause: fmt.Errorf("failed to pause track: %w", err)}
	}
	return current, nil
}

// Resume resumes the paused track.
func (p *PlaybackService) Resume(ctx context.Context, guildID snowflake.ID) (ports.TrackHandle, error) {
	current, err := p.current(guildID)
	if err != nil {
		return nil, err
	}
	if current == nil || !current.IsPaused() {
		return nil, ErrNoPausedTrack
	}

	if err := current.Resume(ctx); err != nil {
		return nil, &InternalError{Cause: fmt.Errorf("failed to resume track: %w", err)}
	}
	return current, nil
}

// Skip removes the playing track from the queue and stops it, which starts the next one.
func (p *PlaybackService) Skip(ctx context.Context, guildID snowflake.ID) (*SkipOutput, error) {
	call, ok := p.voice.Get(guildID)
	if !ok {
		return nil, ErrNotInVoiceChannel
	}
	queue := call.Queue()

	skipped, ok := queue.DequeueFront()
	if !ok {
		return nil, ErrNoPlayingTrack
	}

	if err := skipped.Stop(ctx); err != nil {
		slog.Warn("failed to stop skipped track", "guild", guildID, "error", err)
	}

	output := &SkipOutput{Skipped: skipped}
	if next, ok := queue.Current(); ok {
		output.Next = next
	}
	return output, nil
}

// Stop stops playback and clears the queue.
func (p *PlaybackService) Stop(ctx context.Context, guildID snowflake.ID) (*StopOutput, error) {
	call, ok := p.voice.Get(guildID)
	if !ok {
		return nil, ErrNotInVoiceChannel
	}
	queue := call.Queue()

	cleared := queue.Len()
	if err := queue.Stop(ctx); err != nil {
		return nil, &InternalError{Cause: fmt.Errorf("failed to stop queue: %w", err)}
	}
	return &StopOutput{Cleared: cleared}, nil
}

// current returns the head of the guild's queue, or nil if it is empty.
func (p *PlaybackService) current(guildID snowflake.ID) (ports.TrackHandle, error) {
	call, ok := p.voice.Get(guildID)
	if !ok {
		return nil, ErrNotInVoiceChannel
	}
	current, ok := call.Queue().Current()
	if !ok {
		return nil, nil
	}
	return current, nil
}
