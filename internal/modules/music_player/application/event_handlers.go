package application

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// resumeThreshold separates a fresh start from a resume.
const resumeThreshold = time.Second

// prewarmTimeout bounds making the next track playable after a track ends.
const prewarmTimeout = 10 * time.Second

// GuildDisconnector tears down a guild's voice connection and playback.
type GuildDisconnector interface {
	Disconnect(ctx context.Context, guildID snowflake.ID)
}

// PlaybackEventMachine reacts to voice runtime events for every guild.
// It announces tracks, prewarms the next track, starts segment skipping
// and manages the idle-leave timer.
type PlaybackEventMachine struct {
	voice        ports.VoiceManager
	sessions     domain.GuildSessionRepository
	chat         ports.ChatTransport
	disconnector GuildDisconnector
	idle         *usecases.IdleTimerTable
	skipper      *SegmentSkipper
	subscriber   ports.EventSubscriber
	idleDelay    time.Duration

	mu     sync.Mutex
	status map[snowflake.ID]domain.PlaybackStatus
}

// NewPlaybackEventMachine creates a new PlaybackEventMachine.
func NewPlaybackEventMachine(
	voice ports.VoiceManager,
	sessions domain.GuildSessionRepository,
	chat ports.ChatTransport,
	disconnector GuildDisconnector,
	idle *usecases.IdleTimerTable,
	skipper *SegmentSkipper,
	subscriber ports.EventSubscriber,
	idleDelay time.Duration,
) *PlaybackEventMachine {
	if idleDelay <= 0 {
		idleDelay = usecases.DefaultIdleLeaveDelay
	}
	return &PlaybackEventMachine{
		voice:        voice,
		sessions:     sessions,
		chat:         chat,
		disconnector: disconnector,
		idle:         idle,
		skipper:      skipper,
		subscriber:   subscriber,
		idleDelay:    idleDelay,
		status:       make(map[snowflake.ID]domain.PlaybackStatus),
	}
}

// Start registers event handlers with the subscriber.
func (m *PlaybackEventMachine) Start() error {
	handlers := map[reflect.Type]func(context.Context, domain.Event){
		reflect.TypeFor[domain.TrackStartedEvent](): func(ctx context.Context, e domain.Event) {
			m.OnTrackStarted(ctx, e.(domain.TrackStartedEvent))
		},
		reflect.TypeFor[domain.TrackPausedEvent](): func(ctx context.Context, e domain.Event) {
			m.OnTrackPaused(ctx, e.(domain.TrackPausedEvent))
		},
		reflect.TypeFor[domain.TrackEndedEvent](): func(ctx context.Context, e domain.Event) {
			m.OnTrackEnded(ctx, e.(domain.TrackEndedEvent))
		},
		reflect.TypeFor[domain.VoiceMembershipChangedEvent](): func(ctx context.Context, e domain.Event) {
			m.OnVoiceMembershipChanged(ctx, e.(domain.VoiceMembershipChangedEvent))
		},
		reflect.TypeFor[domain.VoiceDisconnectedEvent](): func(ctx context.Context, e domain.Event) {
			m.OnVoiceDisconnected(ctx, e.(domain.VoiceDisconnectedEvent))
		},
	}

	for eventType, handler := range handlers {
		if err := m.subscriber.Subscribe(eventType, handler); err != nil {
			return err
		}
	}

	slog.Debug("playback event handlers properly registered")

	return nil
}

// Status returns the playback status of the guild.
func (m *PlaybackEventMachine) Status(guildID snowflake.ID) domain.PlaybackStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status[guildID]
}

// OnTrackStarted handles a track starting or resuming.
func (m *PlaybackEventMachine) OnTrackStarted(ctx context.Context, event domain.TrackStartedEvent) {
	m.setStatus(event.GuildID, domain.StatusPlaying)
	m.idle.Disarm(event.GuildID)

	call, ok := m.voice.Get(event.GuildID)
	if !ok {
		slog.Debug("track started without a call", "guild", event.GuildID)
		return
	}
	queue := call.Queue()

	current, isHead := queue.Current()
	isHead = isHead && current.ID() == event.HandleID
	fresh := event.Position < resumeThreshold

	if fresh && isHead {
		m.skipper.Start(current)
	}

	// Adds announce the tracks they start themselves.
	if event.Initial {
		return
	}

	kind := domain.UpdatePlaying
	if !fresh {
		kind = domain.UpdateResumed
	}
	msg := domain.PlayUpdateMessage{Kind: kind, Track: event.Track}
	if isHead {
		msg.QueueSize = queue.Len()
	}

	slog.Debug("track started",
		"guild", event.GuildID,
		"track", event.Track.DisplayTitle(),
		"position", event.Position,
	)
	m.notify(ctx, event.GuildID, msg)
}

// OnTrackPaused handles the playing track being paused.
func (m *PlaybackEventMachine) OnTrackPaused(ctx context.Context, event domain.TrackPausedEvent) {
	m.setStatus(event.GuildID, domain.StatusPaused)
	m.notify(ctx, event.GuildID, domain.PlayUpdateMessage{
		Kind:  domain.UpdatePaused,
		Track: event.Track,
	})
}

// OnTrackEnded prewarms the next track, or arms the idle timer if nothing is left to play.
func (m *PlaybackEventMachine) OnTrackEnded(ctx context.Context, event domain.TrackEndedEvent) {
	m.setStatus(event.GuildID, domain.StatusAfterEnd(event.Reason))

	if event.Reason == domain.TrackEndLoadFailed {
		title := "a track"
		if event.Track != nil {
			title = event.Track.DisplayTitle()
		}
		m.notify(ctx, event.GuildID, domain.ErrorMessage{
			Text: fmt.Sprintf("Could not load %s, skipping it.", title),
		})
	}

	call, ok := m.voice.Get(event.GuildID)
	if !ok {
		return
	}

	tracks := call.Queue().Tracks()
	if len(tracks) == 0 {
		slog.Debug("track ended with an empty queue, arming idle timer",
			"guild", event.GuildID,
			"reason", event.Reason,
			"delay", m.idleDelay,
		)
		m.setStatus(event.GuildID, domain.StatusIdle)
		m.armIdle(call)
		return
	}

	if len(tracks) > 1 {
		prewarmCtx, cancel := context.WithTimeout(ctx, prewarmTimeout)
		defer cancel()
		if err := tracks[1].MakePlayable(prewarmCtx); err != nil {
			slog.Debug("failed to prewarm next track", "guild", event.GuildID, "error", err)
		}
	}
}

// OnVoiceMembershipChanged arms the idle timer when the bot is left alone,
// and disarms it when listeners return to a non-empty queue.
func (m *PlaybackEventMachine) OnVoiceMembershipChanged(
	_ context.Context,
	event domain.VoiceMembershipChangedEvent,
) {
	call, ok := m.voice.Get(event.GuildID)
	if !ok || call.ChannelID() != event.ChannelID {
		return
	}

	if event.Listeners == 0 {
		slog.Debug("bot is alone in voice, arming idle timer", "guild", event.GuildID)
		m.armIdle(call)
		return
	}

	if call.Queue().Len() > 0 && m.idle.Disarm(event.GuildID) {
		slog.Debug("listeners returned, idle timer disarmed", "guild", event.GuildID)
	}
}

// OnVoiceDisconnected cleans up after the bot was removed from voice.
func (m *PlaybackEventMachine) OnVoiceDisconnected(ctx context.Context, event domain.VoiceDisconnectedEvent) {
	slog.Info("bot disconnected from voice, cleaning up", "guild", event.GuildID)
	m.disconnector.Disconnect(ctx, event.GuildID)
	m.forget(event.GuildID)
}

func (m *PlaybackEventMachine) armIdle(call ports.Call) {
	guildID := call.GuildID()
	m.idle.Arm(guildID, call, m.idleDelay, func(ctx context.Context) {
		slog.Info("idle timeout reached, leaving voice", "guild", guildID)
		m.disconnector.Disconnect(ctx, guildID)
		m.forget(guildID)
	})
}

func (m *PlaybackEventMachine) notify(ctx context.Context, guildID snowflake.ID, msg domain.Message) {
	session, err := m.sessions.Get(ctx, guildID)
	if err != nil {
		slog.Debug("no notification channel", "guild", guildID, "error", err)
		return
	}

	if _, err := m.chat.Send(ctx, session.NotificationChannelID, msg); err != nil {
		slog.Warn("failed to send notification",
			"guild", guildID,
			"channel", session.NotificationChannelID,
			"error", err,
		)
	}
}

func (m *PlaybackEventMachine) setStatus(guildID snowflake.ID, status domain.PlaybackStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[guildID] = status
}

func (m *PlaybackEventMachine) forget(guildID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.status, guildID)
}
