package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/bot"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	voiceChannel *usecases.VoiceChannelService
	playback     *usecases.PlaybackService
	queue        *usecases.QueueService
	playlists    *usecases.PlaylistService
	chat         ports.ChatTransport
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	voiceChannel *usecases.VoiceChannelService,
	playback *usecases.PlaybackService,
	queue *usecases.QueueService,
	playlists *usecases.PlaylistService,
	chat ports.ChatTransport,
) *CommandHandlers {
	return &CommandHandlers{
		voiceChannel: voiceChannel,
		playback:     playback,
		queue:        queue,
		playlists:    playlists,
		chat:         chat,
	}
}

// interactionContext holds the IDs every command needs.
type interactionContext struct {
	guildID   snowflake.ID
	userID    snowflake.ID
	channelID snowflake.ID
}

func parseInteraction(i *discordgo.InteractionCreate) (interactionContext, error) {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return interactionContext{}, fmt.Errorf("failed to parse guild ID: %w", err)
	}

	var user *discordgo.User
	switch {
	case i.Member != nil && i.Member.User != nil:
		user = i.Member.User
	case i.User != nil:
		user = i.User
	default:
		return interactionContext{}, fmt.Errorf("interaction has no user")
	}
	userID, err := snowflake.Parse(user.ID)
	if err != nil {
		return interactionContext{}, fmt.Errorf("failed to parse user ID: %w", err)
	}

	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return interactionContext{}, fmt.Errorf("failed to parse channel ID: %w", err)
	}

	return interactionContext{guildID: guildID, userID: userID, channelID: channelID}, nil
}

func (c interactionContext) joinInput() usecases.JoinInput {
	return usecases.JoinInput{
		GuildID:               c.guildID,
		UserID:                c.userID,
		NotificationChannelID: c.channelID,
	}
}

func (c interactionContext) requestInput(query string) usecases.RequestInput {
	return usecases.RequestInput{
		GuildID:               c.guildID,
		RequesterID:           c.userID,
		NotificationChannelID: c.channelID,
		Query:                 query,
	}
}

// command runs fn behind a deferred reply. The reply is deleted when fn succeeds
// and replaced by the error's user message when it fails.
func command(
	r bot.Responder,
	i *discordgo.InteractionCreate,
	fn func(ctx context.Context, ic interactionContext) error,
) error {
	if err := deferReply(r); err != nil {
		return err
	}

	ic, err := parseInteraction(i)
	if err != nil {
		return editError(r, &usecases.InternalError{Cause: err})
	}

	if err := fn(context.Background(), ic); err != nil {
		return editError(r, err)
	}
	return r.Delete()
}

// commandWithReply is like command but edits the deferred reply into fn's embed on success.
func commandWithReply(
	r bot.Responder,
	i *discordgo.InteractionCreate,
	fn func(ctx context.Context, ic interactionContext) (*discordgo.MessageEmbed, error),
) error {
	if err := deferReply(r); err != nil {
		return err
	}

	ic, err := parseInteraction(i)
	if err != nil {
		return editError(r, &usecases.InternalError{Cause: err})
	}

	embed, err := fn(context.Background(), ic)
	if err != nil {
		return editError(r, err)
	}
	return r.Edit(&discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
}

// HandleJoin handles the /join command.
func (h *CommandHandlers) HandleJoin(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return commandWithReply(r, i, func(ctx context.Context, ic interactionContext) (*discordgo.MessageEmbed, error) {
		input := ic.joinInput()
		if opt := findOption(i.ApplicationCommandData().Options, "channel"); opt != nil {
			channelID, err := snowflake.Parse(optionChannelID(opt))
			if err != nil {
				return nil, &usecases.InternalError{Cause: fmt.Errorf("failed to parse voice channel: %w", err)}
			}
			input.VoiceChannelID = channelID
		}

		output, err := h.voiceChannel.Join(ctx, input)
		if err != nil {
			return nil, err
		}
		return successEmbed(fmt.Sprintf("Connected to <#%d>.", output.VoiceChannelID)), nil
	})
}

// HandleLeave handles the /leave command.
func (h *CommandHandlers) HandleLeave(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return commandWithReply(r, i, func(ctx context.Context, ic interactionContext) (*discordgo.MessageEmbed, error) {
		if err := h.voiceChannel.Leave(ctx, ic.guildID); err != nil {
			return nil, err
		}
		return successEmbed("Disconnected."), nil
	})
}

// HandlePlay handles the /play command. Without an argument it resumes playback.
func (h *CommandHandlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	query := stringOption(i.ApplicationCommandData().Options, "song_or_url")

	return command(r, i, func(ctx context.Context, ic interactionContext) error {
		if strings.TrimSpace(query) == "" {
			_, err := h.playback.Resume(ctx, ic.guildID)
			return err
		}

		if err := h.voiceChannel.EnsureJoined(ctx, ic.joinInput()); err != nil {
			return err
		}
		return h.playlists.Play(ctx, ic.requestInput(query))
	})
}

// HandleSong handles the /song command.
func (h *CommandHandlers) HandleSong(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	song := stringOption(i.ApplicationCommandData().Options, "song")

	return command(r, i, func(ctx context.Context, ic interactionContext) error {
		if err := h.voiceChannel.EnsureJoined(ctx, ic.joinInput()); err != nil {
			return err
		}

		// Autocomplete fills in the watch URL of the chosen song.
		if query := domain.ParseQuery(song); query.Kind() == domain.QueryURL {
			return h.playlists.AddQuery(ctx, ic.requestInput(song), query)
		}
		return h.playlists.AddSong(ctx, ic.requestInput(song))
	})
}

// HandleVideo handles the /video command.
func (h *CommandHandlers) HandleVideo(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	value := stringOption(i.ApplicationCommandData().Options, "query_or_url")

	return command(r, i, func(ctx context.Context, ic interactionContext) error {
		if err := h.voiceChannel.EnsureJoined(ctx, ic.joinInput()); err != nil {
			return err
		}
		return h.playlists.AddQuery(ctx, ic.requestInput(value), domain.ParseQuery(value))
	})
}

// HandleAlbum handles the /album command.
func (h *CommandHandlers) HandleAlbum(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	album := stringOption(i.ApplicationCommandData().Options, "album")

	return command(r, i, func(ctx context.Context, ic interactionContext) error {
		if err := h.voiceChannel.EnsureJoined(ctx, ic.joinInput()); err != nil {
			return err
		}
		return h.playlists.AddAlbum(ctx, ic.requestInput(album))
	})
}

// HandlePause handles the /pause command. The paused track is announced by the event machine.
func (h *CommandHandlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return command(r, i, func(ctx context.Context, ic interactionContext) error {
		_, err := h.playback.Pause(ctx, ic.guildID)
		return err
	})
}

// HandleResume handles the /resume command.
func (h *CommandHandlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return command(r, i, func(ctx context.Context, ic interactionContext) error {
		_, err := h.playback.Resume(ctx, ic.guildID)
		return err
	})
}

// HandleSkip handles the /skip command.
func (h *CommandHandlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return command(r, i, func(ctx context.Context, ic interactionContext) error {
		output, err := h.playback.Skip(ctx, ic.guildID)
		if err != nil {
			return err
		}
		h.notify(ctx, ic.channelID, domain.PlayUpdateMessage{
			Kind:  domain.UpdateSkipped,
			Track: output.Skipped.Track(),
		})
		return nil
	})
}

// HandleStop handles the /stop command.
func (h *CommandHandlers) HandleStop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return command(r, i, func(ctx context.Context, ic interactionContext) error {
		if _, err := h.playback.Stop(ctx, ic.guildID); err != nil {
			return err
		}
		h.notify(ctx, ic.channelID, domain.PlayUpdateMessage{Kind: domain.UpdateStopped})
		return nil
	})
}

// HandleList handles the /list command.
func (h *CommandHandlers) HandleList(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	start := stringOption(i.ApplicationCommandData().Options, "start")

	return commandWithReply(r, i, func(_ context.Context, ic interactionContext) (*discordgo.MessageEmbed, error) {
		input, err := parseListStart(start)
		if err != nil {
			return nil, err
		}
		input.GuildID = ic.guildID

		output, err := h.queue.List(input)
		if err != nil {
			return nil, err
		}
		return queueListEmbed(output), nil
	})
}

// HandleRemove handles the /remove command. Positions are 1-indexed.
func (h *CommandHandlers) HandleRemove(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	options := i.ApplicationCommandData().Options
	start := int(intOption(options, "track"))
	end := start
	if opt := findOption(options, "track_end"); opt != nil {
		end = int(opt.IntValue())
	}

	return command(r, i, func(ctx context.Context, ic interactionContext) error {
		output, err := h.queue.Remove(ctx, usecases.QueueRemoveInput{
			GuildID: ic.guildID,
			Start:   start - 1,
			End:     end - 1,
		})
		if err != nil {
			return err
		}
		if len(output.Removed) == 0 {
			return usecases.ErrRemoveTrack
		}

		h.notify(ctx, ic.channelID, removedMessage(output.Removed))
		return nil
	})
}

func (h *CommandHandlers) notify(ctx context.Context, channelID snowflake.ID, msg domain.Message) {
	if _, err := h.chat.Send(ctx, channelID, msg); err != nil {
		slog.Warn("failed to send notification", "channel", channelID, "error", err)
	}
}

func removedMessage(removed []ports.TrackHandle) domain.Message {
	if len(removed) == 1 {
		return domain.PlayUpdateMessage{
			Kind:  domain.UpdateRemoved,
			Track: removed[0].Track(),
		}
	}
	return domain.TextMessage{Text: fmt.Sprintf("Removed %d tracks", len(removed))}
}

// parseListStart parses the /list start option: empty, a 1-indexed position or "end".
func parseListStart(value string) (usecases.QueueListInput, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return usecases.QueueListInput{}, nil
	case strings.EqualFold(value, "end"):
		return usecases.QueueListInput{FromEnd: true}, nil
	}

	position, err := strconv.Atoi(value)
	if err != nil || position < 1 {
		return usecases.QueueListInput{}, usecases.ErrNoResults
	}
	return usecases.QueueListInput{Start: position - 1}, nil
}

func queueListEmbed(output *usecases.QueueListOutput) *discordgo.MessageEmbed {
	if output.TotalTracks == 0 {
		return &discordgo.MessageEmbed{
			Description: "Queue is empty",
			Color:       colorSuccess,
		}
	}

	title := fmt.Sprintf("%d tracks in queue", output.TotalTracks)
	if output.TotalTracks == 1 {
		title = "1 track in queue"
	}

	var b strings.Builder
	b.WriteString("```\n")
	for i, handle := range output.Tracks {
		name := strings.ReplaceAll(handle.Track().DisplayTitle(), "`", "")
		fmt.Fprintf(&b, "%2d: %s\n", output.Start+i+1, name)
	}
	b.WriteString("```")

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: b.String(),
		Color:       colorSuccess,
	}
}

func deferReply(r bot.Responder) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func editError(r bot.Responder, err error) error {
	if usecases.IsInternal(err) {
		slog.Error("failed to handle command", "error", err)
	} else {
		slog.Debug("command failed", "error", err)
	}

	return r.Edit(&discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{
			{
				Description: usecases.UserMessage(err),
				Color:       colorError,
			},
		},
	})
}

func successEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: description,
		Color:       colorSuccess,
	}
}

func findOption(
	options []*discordgo.ApplicationCommandInteractionDataOption,
	name string,
) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options {
		if opt.Name == name {
			return opt
		}
	}
	return nil
}

func stringOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt := findOption(options, name); opt != nil {
		return opt.StringValue()
	}
	return ""
}

func intOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) int64 {
	if opt := findOption(options, name); opt != nil {
		return opt.IntValue()
	}
	return 0
}

// optionChannelID returns the channel ID of a channel option without needing the state cache.
func optionChannelID(opt *discordgo.ApplicationCommandInteractionDataOption) string {
	if id, ok := opt.Value.(string); ok {
		return id
	}
	return ""
}
