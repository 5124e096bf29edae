package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// botMover records the bot being moved between voice channels.
type botMover interface {
	BotMoved(ctx context.Context, guildID, channelID snowflake.ID)
}

// EventHandlers turns Discord voice state updates into music player events.
type EventHandlers struct {
	botID      snowflake.ID
	voice      ports.VoiceManager
	voiceState ports.VoiceStateProvider
	sessions   botMover
	publisher  ports.EventPublisher
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(
	botID snowflake.ID,
	voice ports.VoiceManager,
	voiceState ports.VoiceStateProvider,
	sessions botMover,
	publisher ports.EventPublisher,
) *EventHandlers {
	return &EventHandlers{
		botID:      botID,
		voice:      voice,
		voiceState: voiceState,
		sessions:   sessions,
		publisher:  publisher,
	}
}

// HandleVoiceStateUpdate publishes membership changes of the bot's voice channel.
// The voice runtime must have seen the update first.
func (h *EventHandlers) HandleVoiceStateUpdate(_ *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	// The bot leaving on its own removes the call first, so its own disconnect is not seen here.
	call, ok := h.voice.Get(guildID)
	if !ok {
		return
	}

	if event.UserID == h.botID.String() {
		h.handleBotUpdate(guildID, event)
		return
	}

	channelID := call.ChannelID()
	if !touchesChannel(event, channelID) {
		return
	}
	h.publishMembership(guildID, channelID)
}

func (h *EventHandlers) handleBotUpdate(guildID snowflake.ID, event *discordgo.VoiceStateUpdate) {
	if event.ChannelID == "" {
		slog.Info("bot was disconnected from voice", "guild", guildID)
		h.publish(domain.VoiceDisconnectedEvent{GuildID: guildID})
		return
	}

	channelID, err := snowflake.Parse(event.ChannelID)
	if err != nil {
		slog.Error("failed to parse channel ID in voice state update", "error", err)
		return
	}

	if event.BeforeUpdate != nil && event.BeforeUpdate.ChannelID == event.ChannelID {
		return
	}

	slog.Debug("bot moved to another voice channel", "guild", guildID, "channel", channelID)
	h.sessions.BotMoved(context.Background(), guildID, channelID)
	h.publishMembership(guildID, channelID)
}

func (h *EventHandlers) publishMembership(guildID, channelID snowflake.ID) {
	listeners, err := h.voiceState.CountListeners(guildID, channelID)
	if err != nil {
		slog.Warn("failed to count listeners", "guild", guildID, "channel", channelID, "error", err)
		return
	}

	h.publish(domain.VoiceMembershipChangedEvent{
		GuildID:   guildID,
		ChannelID: channelID,
		Listeners: listeners,
	})
}

func (h *EventHandlers) publish(event domain.Event) {
	if err := h.publisher.Publish(event); err != nil {
		slog.Warn("failed to publish voice event", "guild", event.Guild(), "error", err)
	}
}

// touchesChannel reports whether the update moved a user into or out of the channel.
func touchesChannel(event *discordgo.VoiceStateUpdate, channelID snowflake.ID) bool {
	target := channelID.String()
	before := ""
	if event.BeforeUpdate != nil {
		before = event.BeforeUpdate.ChannelID
	}
	if before == event.ChannelID {
		return false
	}
	return before == target || event.ChannelID == target
}
