package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// DefaultEventBufferSize is the default number of events buffered per guild.
const DefaultEventBufferSize = 100

var (
	// ErrBusClosed is returned when publishing to or subscribing on a closed bus.
	ErrBusClosed = errors.New("event bus closed")
	// ErrBufferFull is returned when an event is dropped because the buffer is full.
	ErrBufferFull = errors.New("event buffer full")
)

// Compile-time checks that ChannelEventBus implements ports interfaces.
var (
	_ ports.EventPublisher  = (*ChannelEventBus)(nil)
	_ ports.EventSubscriber = (*ChannelEventBus)(nil)
)

type eventHandler func(context.Context, domain.Event)

// ChannelEventBus provides a channel-based event bus for async event handling.
// Each guild has its own dispatcher, so events of one guild are delivered in publish order
// while a slow handler never delays other guilds.
type ChannelEventBus struct {
	bufferSize int
	handlers   map[reflect.Type][]eventHandler
	lanes      map[snowflake.ID]chan domain.Event

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
	mu      sync.RWMutex
	lanesMu sync.Mutex
}

// NewChannelEventBus creates a new ChannelEventBus buffering bufferSize events per guild.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ChannelEventBus{
		bufferSize: bufferSize,
		handlers:   make(map[reflect.Type][]eventHandler),
		lanes:      make(map[snowflake.ID]chan domain.Event),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// lane returns the guild's event channel, starting its dispatcher on first use.
func (b *ChannelEventBus) lane(guildID snowflake.ID) chan domain.Event {
	b.lanesMu.Lock()
	defer b.lanesMu.Unlock()

	events, ok := b.lanes[guildID]
	if !ok {
		events = make(chan domain.Event, b.bufferSize)
		b.lanes[guildID] = events
		b.wg.Go(func() { b.dispatch(events) })
	}
	return events
}

func (b *ChannelEventBus) dispatch(events <-chan domain.Event) {
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := b.handlers[reflect.TypeOf(event)]
			b.mu.RUnlock()
			for _, handler := range handlers {
				b.invoke(handler, event)
			}
		}
	}
}

// invoke runs a handler, keeping the dispatcher alive if it panics.
func (b *ChannelEventBus) invoke(handler eventHandler, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked",
				"type", reflect.TypeOf(event).Name(),
				"guild", event.Guild(),
				"panic", r,
			)
		}
	}()
	handler(b.ctx, event)
}

// Publish queues an event for delivery.
// Non-blocking: if the guild's buffer is full, the event is dropped.
func (b *ChannelEventBus) Publish(event domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	name := reflect.TypeOf(event).Name()
	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", name)
		return ErrBusClosed
	}

	select {
	case b.lane(event.Guild()) <- event:
		slog.Debug("published event", "type", name, "guild", event.Guild())
		return nil
	default:
		slog.Warn("event buffer full, dropping event", "type", name, "guild", event.Guild())
		return ErrBufferFull
	}
}

// Subscribe registers a handler for events of the given type.
func (b *ChannelEventBus) Subscribe(
	eventType reflect.Type,
	handler func(context.Context, domain.Event),
) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Close stops the dispatcher. Events still buffered are discarded.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.lanesMu.Lock()
	for _, events := range b.lanes {
		close(events)
	}
	clear(b.lanes)
	b.lanesMu.Unlock()
	b.wg.Wait()

	slog.Debug("channel event bus closed")
}
