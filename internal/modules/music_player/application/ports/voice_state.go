package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// VoiceStateProvider reads the chat gateway's voice state cache.
type VoiceStateProvider interface {
	// UserVoiceChannel returns the voice channel the user is in, or 0 if none.
	UserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error)

	// CountListeners returns the number of non-bot users in the voice channel.
	CountListeners(guildID, channelID snowflake.ID) (int, error)
}
