package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorRed     = 0xE74C3C
	colorNeutral = 0x5865F2
)

// thumbnailProbeTimeout bounds the HEAD requests used to pick a thumbnail.
const thumbnailProbeTimeout = 5 * time.Second

// Notifier is the Discord chat transport. It renders music player messages as embeds.
type Notifier struct {
	session    *discordgo.Session
	buttons    *ComponentRouter
	requesters ports.RequesterLookup
	httpClient *http.Client
}

// NewNotifier creates a new Notifier. Cancel buttons are awaited through buttons.
func NewNotifier(
	session *discordgo.Session,
	buttons *ComponentRouter,
	requesters ports.RequesterLookup,
) *Notifier {
	return &Notifier{
		session:    session,
		buttons:    buttons,
		requesters: requesters,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Send renders msg and sends it to the channel.
func (n *Notifier) Send(
	ctx context.Context,
	channelID snowflake.ID,
	msg domain.Message,
) (ports.MessageRef, error) {
	embed, components := n.render(ctx, channelID, msg)

	sent, err := n.session.ChannelMessageSendComplex(channelID.String(), &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return ports.MessageRef{}, fmt.Errorf("failed to send message: %w", err)
	}

	messageID, err := snowflake.Parse(sent.ID)
	if err != nil {
		return ports.MessageRef{}, fmt.Errorf("failed to parse message id: %w", err)
	}
	return ports.MessageRef{ChannelID: channelID, MessageID: messageID}, nil
}

// Edit replaces the content of a sent message with msg.
func (n *Notifier) Edit(ctx context.Context, ref ports.MessageRef, msg domain.Message) error {
	embed, components := n.render(ctx, ref.ChannelID, msg)
	embeds := []*discordgo.MessageEmbed{embed}
	if components == nil {
		components = []discordgo.MessageComponent{}
	}

	_, err := n.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         ref.MessageID.String(),
		Channel:    ref.ChannelID.String(),
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// AwaitButton blocks until the button is pressed or ctx is done.
func (n *Notifier) AwaitButton(ctx context.Context, customID string) error {
	return n.buttons.Await(ctx, customID)
}

func (n *Notifier) render(
	ctx context.Context,
	channelID snowflake.ID,
	msg domain.Message,
) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	switch m := msg.(type) {
	case domain.PlayUpdateMessage:
		return n.renderPlayUpdate(ctx, channelID, m), nil
	case domain.AddProgressMessage:
		return renderAddProgress(m), cancelButton(m)
	case domain.TextMessage:
		return &discordgo.MessageEmbed{Description: m.Text, Color: colorNeutral}, nil
	case domain.ErrorMessage:
		return &discordgo.MessageEmbed{Description: m.Text, Color: colorRed}, nil
	default:
		return &discordgo.MessageEmbed{Description: fmt.Sprintf("%v", msg)}, nil
	}
}

func (n *Notifier) renderPlayUpdate(
	ctx context.Context,
	channelID snowflake.ID,
	m domain.PlayUpdateMessage,
) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: m.Kind.String(),
		Color: colorNeutral,
	}
	if m.Track == nil {
		return embed
	}

	source := m.Track.Source()
	embed.Color = sourceColor(source)
	embed.Author = &discordgo.MessageEmbedAuthor{
		Name:    m.Kind.String(),
		IconURL: sourceIconURL(source),
	}
	embed.Title = ""
	embed.Description = trackLink(m.Track)

	if m.QueueSize > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Queue size",
			Value:  fmt.Sprintf("%d", m.QueueSize),
			Inline: true,
		})
	}

	if !m.Detailed() {
		return embed
	}

	embed.Fields = append([]*discordgo.MessageEmbedField{
		{Name: "Artist", Value: m.Track.DisplayArtist(), Inline: true},
		{Name: "Length", Value: m.Track.FormattedDuration(), Inline: true},
	}, embed.Fields...)

	if skipped := m.Track.SkippedDuration(); skipped > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Skipping",
			Value:  domain.FormatDuration(skipped),
			Inline: true,
		})
	}

	if !m.Track.EnqueuedAt.IsZero() {
		embed.Timestamp = m.Track.EnqueuedAt.UTC().Format(time.RFC3339)
	}

	if thumbnailURL := n.bestThumbnail(ctx, source, m.Track); thumbnailURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: thumbnailURL}
	}

	if footer := n.requesterFooter(channelID, m.Track.RequesterID); footer != nil {
		embed.Footer = footer
	}

	return embed
}

// trackLink renders the track title as a markdown link to its source.
func trackLink(track *domain.ResolvedTrack) string {
	title := strings.NewReplacer("[", "", "]", "").Replace(track.DisplayTitle())
	if track.SourceURL == "" {
		return "**" + title + "**"
	}
	return fmt.Sprintf("**[%s](%s)**", title, track.SourceURL)
}

func renderAddProgress(m domain.AddProgressMessage) *discordgo.MessageEmbed {
	title := "Adding tracks"
	switch {
	case m.Cancelled:
		title = "Cancelled"
	case m.Finished:
		title = "Added tracks"
	}

	var b strings.Builder
	for _, track := range m.Recent {
		fmt.Fprintf(&b, "%s\n", strings.ReplaceAll(track.DisplayTitle(), "`", ""))
	}

	status := fmt.Sprintf("%d/%d queued", m.Queued, m.Total)
	if m.Finished {
		status = fmt.Sprintf("finished %d/%d", m.Queued, m.Total)
	}
	if m.Failed > 0 {
		status += fmt.Sprintf(", %d failed", m.Failed)
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: b.String(),
		Color:       colorNeutral,
		Footer:      &discordgo.MessageEmbedFooter{Text: status},
	}
}

func cancelButton(m domain.AddProgressMessage) []discordgo.MessageComponent {
	if !m.Cancelable() {
		return nil
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Cancel",
					Style:    discordgo.DangerButton,
					CustomID: m.CancelID,
				},
			},
		},
	}
}

// requesterFooter returns "Requested by" with the requester's guild display name.
func (n *Notifier) requesterFooter(
	channelID, requesterID snowflake.ID,
) *discordgo.MessageEmbedFooter {
	if n.requesters == nil || requesterID == 0 || n.session == nil || n.session.State == nil {
		return nil
	}

	channel, err := n.session.State.Channel(channelID.String())
	if err != nil {
		return nil
	}
	guildID, err := snowflake.Parse(channel.GuildID)
	if err != nil {
		return nil
	}

	requester, err := n.requesters.LookupRequester(guildID, requesterID)
	if err != nil {
		slog.Debug("failed to look up requester", "user", requesterID, "error", err)
		return nil
	}
	return &discordgo.MessageEmbedFooter{
		Text:    fmt.Sprintf("Requested by %s", requester.DisplayName),
		IconURL: requester.AvatarURL,
	}
}

func sourceColor(source domain.TrackSource) int {
	switch source {
	case domain.TrackSourceYouTube:
		return 0xFF0000
	case domain.TrackSourceSoundCloud:
		return 0xFF5500
	case domain.TrackSourceTwitch:
		return 0x9146FF
	default:
		return colorNeutral
	}
}

func sourceIconURL(source domain.TrackSource) string {
	switch source {
	case domain.TrackSourceYouTube:
		return "https://www.youtube.com/s/desktop/favicon_144x144.png"
	case domain.TrackSourceSoundCloud:
		return "https://a-v2.sndcdn.com/assets/images/sc-icons/favicon-2cadd14bdb.ico"
	case domain.TrackSourceTwitch:
		return "https://static.twitchcdn.net/assets/favicon-32-e29e246c157142c94346.png"
	default:
		return ""
	}
}

// bestThumbnail picks the highest quality thumbnail that exists for the track.
func (n *Notifier) bestThumbnail(
	ctx context.Context,
	source domain.TrackSource,
	track *domain.ResolvedTrack,
) string {
	ctx, cancel := context.WithTimeout(ctx, thumbnailProbeTimeout)
	defer cancel()

	switch source {
	case domain.TrackSourceYouTube:
		videoID := track.Identifier
		if id, ok := youtubeVideoID(track.SourceURL); ok {
			videoID = id
		}
		if videoID == "" {
			return track.ArtworkURL
		}
		for _, quality := range []string{"maxresdefault", "sddefault", "hqdefault", "mqdefault"} {
			url := fmt.Sprintf("https://img.youtube.com/vi/%s/%s.jpg", videoID, quality)
			if n.urlExists(ctx, url) {
				return url
			}
		}
		return track.ArtworkURL
	case domain.TrackSourceTwitch:
		highRes := strings.Replace(track.ArtworkURL, "440x248", "1280x720", 1)
		if highRes != track.ArtworkURL && n.urlExists(ctx, highRes) {
			return highRes
		}
		return track.ArtworkURL
	default:
		return track.ArtworkURL
	}
}

func (n *Notifier) urlExists(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

var _ ports.ChatTransport = (*Notifier)(nil)
