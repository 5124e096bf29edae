package application

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

const (
	testGuildID        = snowflake.ID(1)
	testVoiceChannelID = snowflake.ID(2)
	testTextChannelID  = snowflake.ID(3)
)

var errMock = errors.New("mock error")

// manualScheduler records delayed callbacks; tests run them explicitly.
type manualScheduler struct {
	mu     sync.Mutex
	events []*manualEvent
}

type manualEvent struct {
	delay time.Duration
	fn    func(context.Context)
	done  bool
}

func (e *manualEvent) Cancel() bool {
	if e.done {
		return false
	}
	e.done = true
	return true
}

func (s *manualScheduler) ScheduleDelayed(delay time.Duration, fn func(context.Context)) ports.ScheduledEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &manualEvent{delay: delay, fn: fn}
	s.events = append(s.events, e)
	return e
}

func (s *manualScheduler) pending() []*manualEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manualEvent
	for _, e := range s.events {
		if !e.done {
			out = append(out, e)
		}
	}
	return out
}

// fireNext runs the oldest pending callback and returns its delay.
func (s *manualScheduler) fireNext() (time.Duration, bool) {
	pending := s.pending()
	if len(pending) == 0 {
		return 0, false
	}
	e := pending[0]
	e.done = true
	e.fn(context.Background())
	return e.delay, true
}

type mockHandle struct {
	manualScheduler

	id           string
	track        *domain.ResolvedTrack
	position     time.Duration
	seeks        []time.Duration
	seekErr      error
	makePlayable int
}

func newMockHandle(id string, track *domain.ResolvedTrack) *mockHandle {
	return &mockHandle{id: id, track: track}
}

func (h *mockHandle) ID() string                   { return h.id }
func (h *mockHandle) Track() *domain.ResolvedTrack { return h.track }
func (h *mockHandle) Position() time.Duration      { return h.position }
func (h *mockHandle) IsPaused() bool               { return false }
func (h *mockHandle) Pause(context.Context) error  { return nil }
func (h *mockHandle) Resume(context.Context) error { return nil }
func (h *mockHandle) Stop(context.Context) error   { return nil }

func (h *mockHandle) SetVolume(context.Context, float64) error { return nil }

func (h *mockHandle) Seek(_ context.Context, position time.Duration) error {
	h.seeks = append(h.seeks, position)
	if h.seekErr != nil {
		return h.seekErr
	}
	h.position = position
	return nil
}

func (h *mockHandle) MakePlayable(context.Context) error {
	h.makePlayable++
	return nil
}

type mockQueue struct {
	tracks  []ports.TrackHandle
	stopped bool
}

func (q *mockQueue) Enqueue(_ context.Context, track *domain.ResolvedTrack) (ports.TrackHandle, error) {
	h := newMockHandle(track.Title, track)
	q.tracks = append(q.tracks, h)
	return h, nil
}

func (q *mockQueue) Current() (ports.TrackHandle, bool) {
	if len(q.tracks) == 0 {
		return nil, false
	}
	return q.tracks[0], true
}

func (q *mockQueue) DequeueFront() (ports.TrackHandle, bool) {
	if len(q.tracks) == 0 {
		return nil, false
	}
	front := q.tracks[0]
	q.tracks = q.tracks[1:]
	return front, true
}

func (q *mockQueue) Modify(fn func([]ports.TrackHandle) []ports.TrackHandle) {
	q.tracks = fn(slices.Clone(q.tracks))
}

func (q *mockQueue) Len() int                    { return len(q.tracks) }
func (q *mockQueue) Tracks() []ports.TrackHandle { return slices.Clone(q.tracks) }

func (q *mockQueue) Stop(context.Context) error {
	q.tracks = nil
	q.stopped = true
	return nil
}

type mockCall struct {
	manualScheduler

	channelID snowflake.ID
	queue     *mockQueue
}

func (c *mockCall) GuildID() snowflake.ID       { return testGuildID }
func (c *mockCall) ChannelID() snowflake.ID     { return c.channelID }
func (c *mockCall) Queue() ports.PlaybackQueue  { return c.queue }
func (c *mockCall) Leave(context.Context) error { return nil }

func (c *mockCall) RemoveAllEvents() {
	for _, e := range c.pending() {
		e.Cancel()
	}
}

type mockVoiceManager struct {
	call *mockCall
}

func (m *mockVoiceManager) Join(context.Context, snowflake.ID, snowflake.ID) (ports.Call, error) {
	return m.call, nil
}

func (m *mockVoiceManager) Get(guildID snowflake.ID) (ports.Call, bool) {
	if m.call == nil || guildID != testGuildID {
		return nil, false
	}
	return m.call, true
}

type mockChat struct {
	sent []domain.Message
}

func (c *mockChat) Send(_ context.Context, _ snowflake.ID, msg domain.Message) (ports.MessageRef, error) {
	c.sent = append(c.sent, msg)
	return ports.MessageRef{}, nil
}

func (c *mockChat) Edit(context.Context, ports.MessageRef, domain.Message) error { return nil }

func (c *mockChat) AwaitButton(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (c *mockChat) lastUpdate() (domain.PlayUpdateMessage, bool) {
	if len(c.sent) == 0 {
		return domain.PlayUpdateMessage{}, false
	}
	msg, ok := c.sent[len(c.sent)-1].(domain.PlayUpdateMessage)
	return msg, ok
}

type mockSessions struct {
	sessions map[snowflake.ID]domain.GuildSession
}

func (m *mockSessions) Get(_ context.Context, guildID snowflake.ID) (domain.GuildSession, error) {
	s, ok := m.sessions[guildID]
	if !ok {
		return domain.GuildSession{}, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *mockSessions) Save(_ context.Context, s domain.GuildSession) error {
	m.sessions[s.GuildID] = s
	return nil
}

func (m *mockSessions) Delete(_ context.Context, guildID snowflake.ID) error {
	delete(m.sessions, guildID)
	return nil
}

type mockDisconnector struct {
	disconnected []snowflake.ID
}

func (m *mockDisconnector) Disconnect(_ context.Context, guildID snowflake.ID) {
	m.disconnected = append(m.disconnected, guildID)
}

type mockSubscriber struct {
	handlers map[reflect.Type]func(context.Context, domain.Event)
}

func (m *mockSubscriber) Subscribe(eventType reflect.Type, handler func(context.Context, domain.Event)) error {
	if m.handlers == nil {
		m.handlers = make(map[reflect.Type]func(context.Context, domain.Event))
	}
	m.handlers[eventType] = handler
	return nil
}

func (m *mockSubscriber) dispatch(event domain.Event) {
	if handler, ok := m.handlers[reflect.TypeOf(event)]; ok {
		handler(context.Background(), event)
	}
}

var (
	_ ports.TrackHandle     = (*mockHandle)(nil)
	_ ports.PlaybackQueue   = (*mockQueue)(nil)
	_ ports.Call            = (*mockCall)(nil)
	_ ports.VoiceManager    = (*mockVoiceManager)(nil)
	_ ports.ChatTransport   = (*mockChat)(nil)
	_ ports.EventSubscriber = (*mockSubscriber)(nil)
	_ GuildDisconnector     = (*mockDisconnector)(nil)
)
