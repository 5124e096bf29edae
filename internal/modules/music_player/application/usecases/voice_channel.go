package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// JoinInput contains the input for the Join use case.
type JoinInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
	VoiceChannelID        snowflake.ID // Optional: specific channel to join (0 means use user's channel)
}

// JoinOutput contains the result of the Join use case.
type JoinOutput struct {
	VoiceChannelID snowflake.ID
}

// VoiceChannelService handles voice channel operations.
type VoiceChannelService struct {
	repo       domain.GuildSessionRepository
	voice      ports.VoiceManager
	voiceState ports.VoiceStateProvider
	idle       *IdleTimerTable
}

// NewVoiceChannelService creates a new VoiceChannelService.
func NewVoiceChannelService(
	repo domain.GuildSessionRepository,
	voice ports.VoiceManager,
	voiceState ports.VoiceStateProvider,
	idle *IdleTimerTable,
) *VoiceChannelService {
	return &VoiceChannelService{
		repo:       repo,
		voice:      voice,
		voiceState: voiceState,
		idle:       idle,
	}
}

// Join joins the bot to a voice channel, moving it if it is already connected elsewhere.
func (v *VoiceChannelService) Join(ctx context.Context, input JoinInput) (*JoinOutput, error) {
	voiceChannelID := input.VoiceChannelID
	if voiceChannelID == 0 {
		userChannel, err := v.voiceState.UserVoiceChannel(input.GuildID, input.UserID)
		if err != nil {
			return nil, &InternalError{Cause: fmt.Errorf("failed to get user voice channel: %w", err)}
		}
		if userChannel == 0 {
			return nil, ErrNotInVoiceChannel
		}
		voiceChannelID = userChannel
	}

	if call, ok := v.voice.Get(input.GuildID); !ok || call.ChannelID() != voiceChannelID {
		if _, err := v.voice.Join(ctx, input.GuildID, voiceChannelID); err != nil {
			slog.Error("failed to join voice channel",
				"guild", input.GuildID,
				"channel", voiceChannelID,
				"error", err,
			)
			return nil, ErrNotInVoiceChannel
		}
	}

	session := domain.NewGuildSession(input.GuildID, voiceChannelID, input.NotificationChannelID)
	if err := v.repo.Save(ctx, session); err != nil {
		return nil, &InternalError{Cause: fmt.Errorf("failed to save guild session: %w", err)}
	}

	return &JoinOutput{VoiceChannelID: voiceChannelID}, nil
}

// EnsureJoined joins the user's voice channel unless the bot is already connected.
// Either way the notification channel is updated.
func (v *VoiceChannelService) EnsureJoined(ctx context.Context, input JoinInput) error {
	call, ok := v.voice.Get(input.GuildID)
	if !ok {
		_, err := v.Join(ctx, input)
		return err
	}

	session := domain.NewGuildSession(input.GuildID, call.ChannelID(), input.NotificationChannelID)
	if err := v.repo.Save(ctx, session); err != nil {
		return &InternalError{Cause: fmt.Errorf("failed to save guild session: %w", err)}
	}
	return nil
}

// Leave leaves the voice channel after stopping playback.
func (v *VoiceChannelService) Leave(ctx context.Context, guildID snowflake.ID) error {
	if _, ok := v.voice.Get(guildID); !ok {
		return ErrNotInVoiceChannel
	}
	v.Disconnect(ctx, guildID)
	return nil
}

// Disconnect stops playback, clears the queue, leaves voice and cancels every scheduled event
// for the guild. Failures are logged and otherwise ignored.
func (v *VoiceChannelService) Disconnect(ctx context.Context, guildID snowflake.ID) {
	v.idle.Disarm(guildID)

	if call, ok := v.voice.Get(guildID); ok {
		if err := call.Queue().Stop(ctx); err != nil {
			slog.Warn("failed to stop queue", "guild", guildID, "error", err)
		}
		if err := call.Leave(ctx); err != nil {
			slog.Warn("failed to leave voice channel", "guild", guildID, "error", err)
		}
		call.RemoveAllEvents()
	}

	if err := v.repo.Delete(ctx, guildID); err != nil {
		slog.Warn("failed to delete guild session", "guild", guildID, "error", err)
	}

	slog.Info("disconnected from voice", "guild", guildID)
}

// BotMoved records that the bot was moved to another voice channel.
func (v *VoiceChannelService) BotMoved(ctx context.Context, guildID, channelID snowflake.ID) {
	session, err := v.repo.Get(ctx, guildID)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			slog.Warn("failed to get guild session", "guild", guildID, "error", err)
		}
		return
	}

	session.VoiceChannelID = channelID
	if err := v.repo.Save(ctx, session); err != nil {
		slog.Warn("failed to save guild session", "guild", guildID, "error", err)
	}
}

// NotificationChannel returns the channel the guild's notifications go to, or 0 if unknown.
func (v *VoiceChannelService) NotificationChannel(ctx context.Context, guildID snowflake.ID) snowflake.ID {
	session, err := v.repo.Get(ctx, guildID)
	if err != nil {
		return 0
	}
	return session.NotificationChannelID
}
