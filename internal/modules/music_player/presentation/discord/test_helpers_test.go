package discord

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

const (
	testGuildID        snowflake.ID = 1
	testVoiceChannelID snowflake.ID = 2
	testTextChannelID  snowflake.ID = 3
	testUserID         snowflake.ID = 10
)

var errMock = errors.New("mock error")

type noopEvent struct{}

func (noopEvent) Cancel() bool { return false }

type mockHandle struct {
	id      string
	track   *domain.ResolvedTrack
	paused  bool
	stopped bool
}

func newMockHandle(title string) *mockHandle {
	return &mockHandle{id: title, track: &domain.ResolvedTrack{Title: title}}
}

func (h *mockHandle) ID() string                                { return h.id }
func (h *mockHandle) Track() *domain.ResolvedTrack              { return h.track }
func (h *mockHandle) Position() time.Duration                   { return 0 }
func (h *mockHandle) IsPaused() bool                            { return h.paused }
func (h *mockHandle) Seek(context.Context, time.Duration) error { return nil }
func (h *mockHandle) Pause(context.Context) error               { h.paused = true; return nil }
func (h *mockHandle) Resume(context.Context) error              { h.paused = false; return nil }
func (h *mockHandle) Stop(context.Context) error                { h.stopped = true; return nil }
func (h *mockHandle) SetVolume(context.Context, float64) error  { return nil }
func (h *mockHandle) MakePlayable(context.Context) error        { return nil }
func (h *mockHandle) ScheduleDelayed(time.Duration, func(context.Context)) ports.ScheduledEvent {
	return noopEvent{}
}

type mockQueue struct {
	mu     sync.Mutex
	tracks []ports.TrackHandle
}

func newMockQueue(titles ...string) *mockQueue {
	q := &mockQueue{}
	for _, title := range titles {
		q.tracks = append(q.tracks, newMockHandle(title))
	}
	return q
}

func (q *mockQueue) Enqueue(_ context.Context, track *domain.ResolvedTrack) (ports.TrackHandle, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	h := &mockHandle{id: track.Title, track: track}
	q.tracks = append(q.tracks, h)
	return h, nil
}

func (q *mockQueue) Current() (ports.TrackHandle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tracks) == 0 {
		return nil, false
	}
	return q.tracks[0], true
}

func (q *mockQueue) DequeueFront() (ports.TrackHandle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tracks) == 0 {
		return nil, false
	}
	h := q.tracks[0]
	q.tracks = q.tracks[1:]
	return h, true
}

func (q *mockQueue) Modify(fn func([]ports.TrackHandle) []ports.TrackHandle) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = fn(q.tracks)
}

func (q *mockQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}

func (q *mockQueue) Tracks() []ports.TrackHandle {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]ports.TrackHandle(nil), q.tracks...)
}

func (q *mockQueue) Stop(context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = nil
	return nil
}

type mockCall struct {
	channelID snowflake.ID
	queue     *mockQueue
}

func (c *mockCall) GuildID() snowflake.ID       { return testGuildID }
func (c *mockCall) ChannelID() snowflake.ID     { return c.channelID }
func (c *mockCall) Queue() ports.PlaybackQueue  { return c.queue }
func (c *mockCall) Leave(context.Context) error { return nil }
func (c *mockCall) RemoveAllEvents()            {}
func (c *mockCall) ScheduleDelayed(time.Duration, func(context.Context)) ports.ScheduledEvent {
	return noopEvent{}
}

type mockVoiceManager struct {
	call *mockCall
}

func (m *mockVoiceManager) Join(context.Context, snowflake.ID, snowflake.ID) (ports.Call, error) {
	return nil, errMock
}

func (m *mockVoiceManager) Get(snowflake.ID) (ports.Call, bool) {
	if m.call == nil {
		return nil, false
	}
	return m.call, true
}

type mockVoiceState struct {
	listeners map[snowflake.ID]int
	err       error
}

func (m *mockVoiceState) UserVoiceChannel(snowflake.ID, snowflake.ID) (snowflake.ID, error) {
	return 0, nil
}

func (m *mockVoiceState) CountListeners(_ snowflake.ID, channelID snowflake.ID) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.listeners[channelID], nil
}

type mockMover struct {
	moved []snowflake.ID
}

func (m *mockMover) BotMoved(_ context.Context, _ snowflake.ID, channelID snowflake.ID) {
	m.moved = append(m.moved, channelID)
}

type mockPublisher struct {
	events []domain.Event
}

func (m *mockPublisher) Publish(event domain.Event) error {
	m.events = append(m.events, event)
	return nil
}

type mockChat struct {
	sent []domain.Message
}

func (m *mockChat) Send(_ context.Context, channelID snowflake.ID, msg domain.Message) (ports.MessageRef, error) {
	m.sent = append(m.sent, msg)
	return ports.MessageRef{ChannelID: channelID, MessageID: snowflake.ID(len(m.sent))}, nil
}

func (m *mockChat) Edit(context.Context, ports.MessageRef, domain.Message) error {
	return nil
}

func (m *mockChat) AwaitButton(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

type mockInteractionResponder struct {
	responses []*discordgo.InteractionResponse
}

func (m *mockInteractionResponder) InteractionRespond(
	_ *discordgo.Interaction,
	resp *discordgo.InteractionResponse,
	_ ...discordgo.RequestOption,
) error {
	m.responses = append(m.responses, resp)
	return nil
}

func commandInteraction(
	name string,
	options ...*discordgo.ApplicationCommandInteractionDataOption,
) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			GuildID:   testGuildID.String(),
			ChannelID: testTextChannelID.String(),
			Member: &discordgo.Member{
				User: &discordgo.User{ID: testUserID.String()},
			},
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: options,
			},
		},
	}
}

func intOpt(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(value),
	}
}

func stringOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}
