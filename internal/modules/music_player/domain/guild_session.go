package domain

import (
	"context"
	"errors"

	"github.com/disgoorg/snowflake/v2"
)

// ErrSessionNotFound is returned when a guild has no active session.
var ErrSessionNotFound = errors.New("guild session not found")

// GuildSession records where the player lives for a guild.
type GuildSession struct {
	GuildID               snowflake.ID
	VoiceChannelID        snowflake.ID // Voice channel the bot is connected to
	NotificationChannelID snowflake.ID // Text channel for notifications
}

// NewGuildSession creates a new GuildSession for the given guild and channels.
func NewGuildSession(guildID, voiceChannelID, notificationChannelID snowflake.ID) GuildSession {
	return GuildSession{
		GuildID:               guildID,
		VoiceChannelID:        voiceChannelID,
		NotificationChannelID: notificationChannelID,
	}
}

// GuildSessionRepository defines the interface for storing and retrieving guild sessions.
type GuildSessionRepository interface {
	// Get returns the GuildSession for the given guild, or ErrSessionNotFound.
	Get(ctx context.Context, guildID snowflake.ID) (GuildSession, error)

	// Save stores the GuildSession.
	Save(ctx context.Context, session GuildSession) error

	// Delete removes the GuildSession for the given guild.
	Delete(ctx context.Context, guildID snowflake.ID) error
}
