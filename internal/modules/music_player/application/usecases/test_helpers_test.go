package usecases

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

func mockTrack(title string) *domain.ResolvedTrack {
	return &domain.ResolvedTrack{
		Title:     title,
		Artist:    "Artist",
		Duration:  3 * time.Minute,
		SourceURL: "https://www.youtube.com/watch?v=" + title,
		Volume:    domain.DefaultVolume,
	}
}

// mockScheduler records scheduled events and runs them on demand.
type mockScheduler struct {
	mu     sync.Mutex
	events []*mockEvent
}

type mockEvent struct {
	delay     time.Duration
	fn        func(context.Context)
	mu        sync.Mutex
	done      bool
	cancelled bool
}

func (e *mockEvent) Cancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done {
		return false
	}
	e.done = true
	e.cancelled = true
	return true
}

// fire runs the event unless it was cancelled.
func (e *mockEvent) fire() {
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		return
	}
	e.done = true
	e.mu.Unlock()
	e.fn(context.Background())
}

func (s *mockScheduler) ScheduleDelayed(delay time.Duration, fn func(context.Context)) ports.ScheduledEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	event := &mockEvent{delay: delay, fn: fn}
	s.events = append(s.events, event)
	return event
}

// pending returns the events that have neither fired nor been cancelled.
func (s *mockScheduler) pending() []*mockEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*mockEvent
	for _, e := range s.events {
		e.mu.Lock()
		if !e.done {
			out = append(out, e)
		}
		e.mu.Unlock()
	}
	return out
}

func (s *mockScheduler) cancelAll() {
	for _, e := range s.pending() {
		e.Cancel()
	}
}

type mockHandle struct {
	mockScheduler

	id    string
	track *domain.ResolvedTrack

	mu           sync.Mutex
	paused       bool
	stopped      bool
	makePlayable int
	stopErr      error
}

func (h *mockHandle) ID() string { return h.id }
func (h *mockHandle) Track() *domain.ResolvedTrack { return h.track }
func (h *mockHandle) Position() time.Duration { return 0 }
func (h *mockHandle) Seek(context.Context, time.Duration) error { return nil }
func (h *mockHandle) SetVolume(context.Context, float64) error { return nil }

func (h *mockHandle) IsPaused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

func (h *mockHandle) Pause(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = true
	return nil
}

func (h *mockHandle) Resume(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = false
	return nil
}

func (h *mockHandle) Stop(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	return h.stopErr
}

func (h *mockHandle) MakePlayable(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.makePlayable++
	return nil
}

func (h *mockHandle) isStopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

func (h *mockHandle) makePlayableCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.makePlayable
}

type mockQueue struct {
	mu         sync.Mutex
	tracks     []ports.TrackHandle
	nextID     int
	enqueueErr error
	// history records every enqueued title in order.
	history []string
	stopped bool
}

func (q *mockQueue) Enqueue(_ context.Context, track *domain.ResolvedTrack) (ports.TrackHandle, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.enqueueErr != nil {
		return nil, q.enqueueErr
	}
	q.nextID++
	handle := &mockHandle{id: fmt.Sprintf("handle-%d", q.nextID), track: track}
	q.tracks = append(q.tracks, handle)
	q.history = append(q.history, track.Title)
	return handle, nil
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
	front := q.tracks[0]
	q.tracks = q.tracks[1:]
	return front, true
}

func (q *mockQueue) Modify(fn func([]ports.TrackHandle) []ports.TrackHandle) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = fn(slices.Clone(q.tracks))
}

func (q *mockQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}

func (q *mockQueue) Tracks() []ports.TrackHandle {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.tracks)
}

func (q *mockQueue) Stop(context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = nil
	q.stopped = true
	return nil
}

func (q *mockQueue) titles() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	titles := make([]string, len(q.tracks))
	for i, h := range q.tracks {
		titles[i] = h.Track().Title
	}
	return titles
}

func (q *mockQueue) enqueued() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.history)
}

func (q *mockQueue) handle(i int) *mockHandle {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tracks[i].(*mockHandle)
}

type mockCall struct {
	mockScheduler

	guildID   snowflake.ID
	channelID snowflake.ID
	queue     *mockQueue
	leaveErr  error
	left      bool
}

func (c *mockCall) GuildID() snowflake.ID { return c.guildID }
func (c *mockCall) ChannelID() snowflake.ID { return c.channelID }
func (c *mockCall) Queue() ports.PlaybackQueue { return c.queue }
func (c *mockCall) RemoveAllEvents() { c.cancelAll() }

func (c *mockCall) Leave(context.Context) error {
	c.left = true
	return c.leaveErr
}

type mockVoiceManager struct {
	mu      sync.Mutex
	calls   map[snowflake.ID]*mockCall
	joinErr error
	joins   int
}

func newMockVoiceManager() *mockVoiceManager {
	return &mockVoiceManager{calls: make(map[snowflake.ID]*mockCall)}
}

// connect creates a call for the guild as if the bot had joined channelID.
func (m *mockVoiceManager) connect(guildID, channelID snowflake.ID) *mockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := &mockCall{guildID: guildID, channelID: channelID, queue: &mockQueue{}}
	m.calls[guildID] = call
	return call
}

func (m *mockVoiceManager) Join(_ context.Context, guildID, channelID snowflake.ID) (ports.Call, error) {
	if m.joinErr != nil {
		return nil, m.joinErr
	}
	m.mu.Lock()
	m.joins++
	call, ok := m.calls[guildID]
	m.mu.Unlock()
	if ok {
		call.channelID = channelID
		return call, nil
	}
	return m.connect(guildID, channelID), nil
}

func (m *mockVoiceManager) Get(guildID snowflake.ID) (ports.Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call, ok := m.calls[guildID]
	if !ok {
		return nil, false
	}
	return call, true
}

// mockResolver resolves queries through resolveFn, or to a track titled after the query.
type mockResolver struct {
	mu        sync.Mutex
	resolveFn func(ctx context.Context, q domain.Query, lazy bool) (*domain.ResolvedTrack, error)
	lazy      map[string]bool
}

func (r *mockResolver) Resolve(ctx context.Context, q domain.Query, lazy bool) (*domain.ResolvedTrack, error) {
	r.mu.Lock()
	if r.lazy == nil {
		r.lazy = make(map[string]bool)
	}
	r.lazy[q.Value()] = lazy
	r.mu.Unlock()

	if r.resolveFn != nil {
		return r.resolveFn(ctx, q, lazy)
	}
	return mockTrack(q.Value()), nil
}

func (r *mockResolver) wasLazy(value string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lazy[value]
}

type mockChat struct {
	mu       sync.Mutex
	messages []domain.Message // sends and edits, in order
	sends    int
	edits    int
	buttons  map[string]chan struct{}
	awaiting int
	// onProgress is called for every progress message sent or edited.
	onProgress func(msg domain.AddProgressMessage)
}

func newMockChat() *mockChat {
	return &mockChat{buttons: make(map[string]chan struct{})}
}

func (c *mockChat) Send(_ context.Context, channelID snowflake.ID, msg domain.Message) (ports.MessageRef, error) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.sends++
	id := c.sends
	onProgress := c.onProgress
	c.mu.Unlock()

	if p, ok := msg.(domain.AddProgressMessage); ok && onProgress != nil {
		onProgress(p)
	}
	return ports.MessageRef{ChannelID: channelID, MessageID: snowflake.ID(id)}, nil
}

func (c *mockChat) Edit(_ context.Context, _ ports.MessageRef, msg domain.Message) error {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.edits++
	onProgress := c.onProgress
	c.mu.Unlock()

	if p, ok := msg.(domain.AddProgressMessage); ok && onProgress != nil {
		onProgress(p)
	}
	return nil
}

func (c *mockChat) button(customID string) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.buttons[customID]
	if !ok {
		ch = make(chan struct{})
		c.buttons[customID] = ch
	}
	return ch
}

func (c *mockChat) AwaitButton(ctx context.Context, customID string) error {
	c.mu.Lock()
	c.awaiting++
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.awaiting--
		c.mu.Unlock()
	}()

	select {
	case <-c.button(customID):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *mockChat) press(customID string) {
	close(c.button(customID))
}

func (c *mockChat) listeners() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awaiting
}

func (c *mockChat) all() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

func (c *mockChat) last() domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return nil
	}
	return c.messages[len(c.messages)-1]
}

type mockLoudness struct {
	db  float64
	err error
}

func (m *mockLoudness) Loudness(context.Context, string) (float64, error) {
	return m.db, m.err
}

type mockSegments struct {
	segments []domain.Segment
	err      error
	block    bool
}

func (m *mockSegments) Segments(ctx context.Context, _ string) ([]domain.Segment, error) {
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.segments, m.err
}

type mockPlaylists struct {
	queries []domain.Query
	err     error
	listed  string
}

func (m *mockPlaylists) ListPlaylist(_ context.Context, url string) ([]domain.Query, error) {
	m.listed = url
	return m.queries, m.err
}

type mockSearcher struct {
	songs  []ports.SongResult
	albums []ports.AlbumResult
	err    error
}

func (m *mockSearcher) SearchSongs(context.Context, string) ([]ports.SongResult, error) {
	return m.songs, m.err
}

func (m *mockSearcher) SearchAlbums(context.Context, string) ([]ports.AlbumResult, error) {
	return m.albums, m.err
}

type mockVoiceStateProvider struct {
	channels map[snowflake.ID]snowflake.ID // userID -> channelID
	err      error
}

func (m *mockVoiceStateProvider) UserVoiceChannel(_, userID snowflake.ID) (snowflake.ID, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.channels[userID], nil
}

func (m *mockVoiceStateProvider) CountListeners(_, _ snowflake.ID) (int, error) {
	return 0, nil
}

type mockSessionRepository struct {
	mu       sync.Mutex
	sessions map[snowflake.ID]domain.GuildSession
	deleted  []snowflake.ID
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{sessions: make(map[snowflake.ID]domain.GuildSession)}
}

func (m *mockSessionRepository) Get(_ context.Context, guildID snowflake.ID) (domain.GuildSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[guildID]
	if !ok {
		return domain.GuildSession{}, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *mockSessionRepository) Save(_ context.Context, s domain.GuildSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.GuildID] = s
	return nil
}

func (m *mockSessionRepository) Delete(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, guildID)
	delete(m.sessions, guildID)
	return nil
}

var errMock = errors.New("mock failure")

var (
	_ ports.VoiceManager            = (*mockVoiceManager)(nil)
	_ ports.Call                    = (*mockCall)(nil)
	_ ports.PlaybackQueue           = (*mockQueue)(nil)
	_ ports.TrackHandle             = (*mockHandle)(nil)
	_ ports.ChatTransport           = (*mockChat)(nil)
	_ ports.TrackResolver           = (*mockResolver)(nil)
	_ ports.PlaylistSource          = (*mockPlaylists)(nil)
	_ ports.MusicSearcher           = (*mockSearcher)(nil)
	_ ports.VoiceStateProvider      = (*mockVoiceStateProvider)(nil)
	_ domain.GuildSessionRepository = (*mockSessionRepository)(nil)
)
