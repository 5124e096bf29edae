package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// MessageRef identifies a sent chat message.
type MessageRef struct {
	ChannelID snowflake.ID
	MessageID snowflake.ID
}

// ChatTransport delivers music player messages to a chat channel.
type ChatTransport interface {
	Send(ctx context.Context, channelID snowflake.ID, msg domain.Message) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, msg domain.Message) error

	// AwaitButton blocks until the button with customID is pressed or ctx is done.
	// It returns nil only when the button was pressed.
	AwaitButton(ctx context.Context, customID string) error
}

// Requester is display information for the user who queued a track.
type Requester struct {
	DisplayName string
	AvatarURL   string
}

// RequesterLookup resolves requester display information for notifications.
type RequesterLookup interface {
	LookupRequester(guildID, userID snowflake.ID) (*Requester, error)
}
