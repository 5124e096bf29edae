package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// voiceConnectionTimeout is the maximum time to wait for voice connection to be established.
const voiceConnectionTimeout = 10 * time.Second

type voiceStatePart struct {
	channelID *snowflake.ID
	sessionID string
}

type voiceServerPart struct {
	token    string
	endpoint string
}

// voiceHandshake collects the VoiceStateUpdate and VoiceServerUpdate of one guild.
// Lavalink rejects partial voice state, so both are forwarded together once both arrived.
type voiceHandshake struct {
	mu      sync.Mutex
	state   *voiceStatePart
	server  *voiceServerPart
	waiters []chan struct{}
}

// wait returns a channel closed when the next complete handshake is forwarded.
func (h *voiceHandshake) wait() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	ready := make(chan struct{})
	h.waiters = append(h.waiters, ready)
	return ready
}

func (h *voiceHandshake) setState(part voiceStatePart) (voiceStatePart, voiceServerPart, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = &part
	return h.completeLocked()
}

func (h *voiceHandshake) setServer(part voiceServerPart) (voiceStatePart, voiceServerPart, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.server = &part
	return h.completeLocked()
}

// completeLocked takes both parts and releases waiters once both are present.
func (h *voiceHandshake) completeLocked() (voiceStatePart, voiceServerPart, bool) {
	if h.state == nil || h.server == nil {
		return voiceStatePart{}, voiceServerPart{}, false
	}
	state, server := *h.state, *h.server
	h.state, h.server = nil, nil
	for _, ready := range h.waiters {
		close(ready)
	}
	h.waiters = nil
	return state, server, true
}

// LavalinkAdapter is the voice runtime. It joins voice through discordgo and plays
// audio through a Lavalink node, keeping one call with its own track queue per guild.
type LavalinkAdapter struct {
	link      disgolink.Client
	session   *discordgo.Session
	botID     snowflake.ID
	publisher ports.EventPublisher

	handshakesMu sync.Mutex
	handshakes   map[snowflake.ID]*voiceHandshake

	callsMu sync.Mutex
	calls   map[snowflake.ID]*lavalinkCall
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
	Secure   bool
}

// NewLavalinkAdapter creates a new LavalinkAdapter connected to a Lavalink node.
func NewLavalinkAdapter(
	session *discordgo.Session,
	config LavalinkConfig,
	publisher ports.EventPublisher,
) (*LavalinkAdapter, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	adapter := &LavalinkAdapter{
		session:    session,
		botID:      botID,
		publisher:  publisher,
		handshakes: make(map[snowflake.ID]*voiceHandshake),
		calls:      make(map[snowflake.ID]*lavalinkCall),
	}

	link := disgolink.New(botID,
		disgolink.WithListenerFunc(adapter.onTrackStart),
		disgolink.WithListenerFunc(adapter.onTrackEnd),
		disgolink.WithListenerFunc(adapter.onTrackException),
		disgolink.WithListenerFunc(adapter.onTrackStuck),
	)
	adapter.link = link

	node, err := link.AddNode(context.Background(), disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return adapter, nil
}

// BotID returns the bot's user ID.
func (c *LavalinkAdapter) BotID() snowflake.ID {
	return c.botID
}

// Close disconnects from every Lavalink node.
func (c *LavalinkAdapter) Close() {
	c.link.Close()
}

// Join connects to the voice channel deafened, or moves the existing call there.
// It waits for both VoiceStateUpdate and VoiceServerUpdate events before returning.
func (c *LavalinkAdapter) Join(ctx context.Context, guildID, channelID snowflake.ID) (ports.Call, error) {
	ready := c.handshake(guildID).wait()

	err := c.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-ready:
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(voiceConnectionTimeout):
		return nil, errors.New("timeout waiting for voice connection")
	}

	c.callsMu.Lock()
	defer c.callsMu.Unlock()

	if call, ok := c.calls[guildID]; ok {
		call.setChannel(channelID)
		return call, nil
	}

	call := &lavalinkCall{
		TimerScheduler: NewTimerScheduler(),
		adapter:        c,
		guildID:        guildID,
		channelID:      channelID,
	}
	call.queue = newTrackQueue(guildID, &lavalinkPlayer{link: c.link, guildID: guildID}, c, c.publisher)
	c.calls[guildID] = call

	slog.Info("joined voice channel", "guild", guildID, "channel", channelID)
	return call, nil
}

// Get returns the active call for the guild.
func (c *LavalinkAdapter) Get(guildID snowflake.ID) (ports.Call, bool) {
	call, ok := c.call(guildID)
	if !ok {
		return nil, false
	}
	return call, true
}

func (c *LavalinkAdapter) call(guildID snowflake.ID) (*lavalinkCall, bool) {
	c.callsMu.Lock()
	defer c.callsMu.Unlock()
	call, ok := c.calls[guildID]
	return call, ok
}

// leave destroys the guild's player and disconnects from voice.
func (c *LavalinkAdapter) leave(ctx context.Context, guildID snowflake.ID) error {
	c.callsMu.Lock()
	call, ok := c.calls[guildID]
	delete(c.calls, guildID)
	c.callsMu.Unlock()

	if ok {
		call.queue.release()
	}

	if player := c.link.ExistingPlayer(guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	err := c.session.ChannelVoiceJoinManual(guildID.String(), "", false, false)
	if err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// LoadTrack loads a single playable track for a URL or a prefixed search.
func (c *LavalinkAdapter) LoadTrack(ctx context.Context, identifier string) (*domain.ResolvedTrack, error) {
	node := c.link.BestNode()
	if node == nil {
		return nil, errors.New("no available Lavalink node")
	}

	result, err := node.LoadTracks(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}

	switch data := result.Data.(type) {
	case lavalink.Track:
		return convertTrack(data), nil

	case lavalink.Playlist:
		if len(data.Tracks) == 0 {
			return nil, ports.ErrNoMatches
		}
		selected := data.Info.SelectedTrack
		if selected < 0 || selected >= len(data.Tracks) {
			selected = 0
		}
		return convertTrack(data.Tracks[selected]), nil

	case lavalink.Search:
		if len(data) == 0 {
			return nil, ports.ErrNoMatches
		}
		return convertTrack(data[0]), nil

	case lavalink.Exception:
		return nil, fmt.Errorf("lavalink failed to load %q: %s", identifier, data.Message)

	default:
		return nil, ports.ErrNoMatches
	}
}

// convertTrack converts a Lavalink track to a playable ResolvedTrack.
func convertTrack(track lavalink.Track) *domain.ResolvedTrack {
	info := track.Info
	return &domain.ResolvedTrack{
		Identifier: info.Identifier,
		Encoded:    track.Encoded,
		Title:      info.Title,
		Artist:     info.Author,
		Duration:   time.Duration(info.Length) * time.Millisecond,
		SourceURL:  derefString(info.URI),
		ArtworkURL: derefString(info.ArtworkURL),
		SourceName: info.SourceName,
		IsStream:   info.IsStream,
		Volume:     domain.DefaultVolume,
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// OnVoiceServerUpdate handles Discord voice server updates.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	state, server, ok := c.handshake(guildID).setServer(voiceServerPart{
		token:    event.Token,
		endpoint: event.Endpoint,
	})
	if ok {
		c.forwardVoiceEvents(guildID, state, server)
	}
}

// OnVoiceStateUpdate handles Discord voice state updates of the bot.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != c.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	// An empty channel means the bot left voice. Lavalink needs no server update for that.
	if event.ChannelID == "" {
		c.link.OnVoiceStateUpdate(context.Background(), guildID, nil, event.SessionID)
		c.handshakesMu.Lock()
		delete(c.handshakes, guildID)
		c.handshakesMu.Unlock()
		return
	}

	channelID, err := snowflake.Parse(event.ChannelID)
	if err != nil {
		slog.Error("failed to parse channel ID in voice state update", "error", err)
		return
	}

	if call, ok := c.call(guildID); ok {
		call.setChannel(channelID)
	}

	state, server, ok := c.handshake(guildID).setState(voiceStatePart{
		channelID: &channelID,
		sessionID: event.SessionID,
	})
	if ok {
		c.forwardVoiceEvents(guildID, state, server)
	}
}

func (c *LavalinkAdapter) handshake(guildID snowflake.ID) *voiceHandshake {
	c.handshakesMu.Lock()
	defer c.handshakesMu.Unlock()

	h, ok := c.handshakes[guildID]
	if !ok {
		h = &voiceHandshake{}
		c.handshakes[guildID] = h
	}
	return h
}

func (c *LavalinkAdapter) forwardVoiceEvents(guildID snowflake.ID, state voiceStatePart, server voiceServerPart) {
	slog.Debug("forwarding voice events to Lavalink",
		"guild", guildID,
		"channel", state.channelID,
		"hasSessionID", state.sessionID != "",
	)

	// State must reach Lavalink before the server update.
	c.link.OnVoiceStateUpdate(context.Background(), guildID, state.channelID, state.sessionID)
	c.link.OnVoiceServerUpdate(context.Background(), guildID, server.token, server.endpoint)
}

func (c *LavalinkAdapter) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("lavalink track started", "guild", player.GuildID(), "track", event.Track.Info.Title)
}

func (c *LavalinkAdapter) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	slog.Debug("lavalink track ended", "guild", player.GuildID(), "reason", event.Reason)

	call, ok := c.call(player.GuildID())
	if !ok {
		return
	}
	call.queue.onTrackEnd(context.Background(), convertEndReason(event.Reason))
}

func (c *LavalinkAdapter) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)
}

func (c *LavalinkAdapter) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)
}

func convertEndReason(reason lavalink.TrackEndReason) domain.TrackEndReason {
	switch reason {
	case lavalink.TrackEndReasonFinished:
		return domain.TrackEndFinished
	case lavalink.TrackEndReasonLoadFailed:
		return domain.TrackEndLoadFailed
	case lavalink.TrackEndReasonStopped:
		return domain.TrackEndStopped
	case lavalink.TrackEndReasonReplaced:
		return domain.TrackEndReplaced
	case lavalink.TrackEndReasonCleanup:
		return domain.TrackEndCleanup
	default:
		return domain.TrackEndStopped
	}
}

// lavalinkCall is the bot's voice connection in one guild.
type lavalinkCall struct {
	*TimerScheduler

	adapter *LavalinkAdapter
	guildID snowflake.ID
	queue   *trackQueue

	mu        sync.Mutex
	channelID snowflake.ID
}

func (c *lavalinkCall) GuildID() snowflake.ID {
	return c.guildID
}

func (c *lavalinkCall) ChannelID() snowflake.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channelID
}

func (c *lavalinkCall) setChannel(channelID snowflake.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channelID = channelID
}

func (c *lavalinkCall) Queue() ports.PlaybackQueue {
	return c.queue
}

func (c *lavalinkCall) Leave(ctx context.Context) error {
	return c.adapter.leave(ctx, c.guildID)
}

func (c *lavalinkCall) RemoveAllEvents() {
	c.RemoveAll()
}

// lavalinkPlayer drives the guild's Lavalink player.
type lavalinkPlayer struct {
	link    disgolink.Client
	guildID snowflake.ID
}

func (p *lavalinkPlayer) Play(ctx context.Context, encoded string, volume int) error {
	return p.link.Player(p.guildID).Update(ctx,
		lavalink.WithEncodedTrack(encoded),
		lavalink.WithVolume(volume),
		lavalink.WithPaused(false),
	)
}

func (p *lavalinkPlayer) Stop(ctx context.Context) error {
	return p.link.Player(p.guildID).Update(ctx, lavalink.WithNullTrack())
}

func (p *lavalinkPlayer) SetPaused(ctx context.Context, paused bool) error {
	return p.link.Player(p.guildID).Update(ctx, lavalink.WithPaused(paused))
}

func (p *lavalinkPlayer) Seek(ctx context.Context, position time.Duration) error {
	return p.link.Player(p.guildID).Update(ctx,
		lavalink.WithPosition(lavalink.Duration(position.Milliseconds())),
	)
}

func (p *lavalinkPlayer) SetVolume(ctx context.Context, volume int) error {
	return p.link.Player(p.guildID).Update(ctx, lavalink.WithVolume(volume))
}

func (p *lavalinkPlayer) Position() time.Duration {
	player := p.link.ExistingPlayer(p.guildID)
	if player == nil {
		return 0
	}
	return time.Duration(player.Position()) * time.Millisecond
}

var (
	_ ports.VoiceManager = (*LavalinkAdapter)(nil)
	_ ports.Call         = (*lavalinkCall)(nil)
	_ trackLoader        = (*LavalinkAdapter)(nil)
	_ trackPlayer        = (*lavalinkPlayer)(nil)
)
