package infrastructure

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

var errMock = errors.New("mock error")

type playerCall struct {
	op      string
	encoded string
	value   int
}

type mockPlayer struct {
	mu       sync.Mutex
	calls    []playerCall
	position time.Duration
	playErr  map[string]error
}

func (p *mockPlayer) record(call playerCall) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *mockPlayer) Play(_ context.Context, encoded string, volume int) error {
	if err := p.playErr[encoded]; err != nil {
		return err
	}
	p.record(playerCall{op: "play", encoded: encoded, value: volume})
	return nil
}

func (p *mockPlayer) Stop(context.Context) error {
	p.record(playerCall{op: "stop"})
	return nil
}

func (p *mockPlayer) SetPaused(_ context.Context, paused bool) error {
	op := "resume"
	if paused {
		op = "pause"
	}
	p.record(playerCall{op: op})
	return nil
}

func (p *mockPlayer) Seek(_ context.Context, position time.Duration) error {
	p.record(playerCall{op: "seek", value: int(position / time.Second)})
	return nil
}

func (p *mockPlayer) SetVolume(_ context.Context, volume int) error {
	p.record(playerCall{op: "volume", value: volume})
	return nil
}

func (p *mockPlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *mockPlayer) ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ops := make([]string, len(p.calls))
	for i, c := range p.calls {
		ops[i] = c.op
	}
	return ops
}

func (p *mockPlayer) played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, c := range p.calls {
		if c.op == "play" {
			out = append(out, c.encoded)
		}
	}
	return out
}

// mockLoader encodes an identifier as "enc:" + identifier.
type mockLoader struct {
	mu    sync.Mutex
	loads []string
	err   error
}

func (l *mockLoader) LoadTrack(_ context.Context, identifier string) (*domain.ResolvedTrack, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads = append(l.loads, identifier)
	if l.err != nil {
		return nil, l.err
	}
	return &domain.ResolvedTrack{
		Encoded:  "enc:" + identifier,
		Duration: 3 * time.Minute,
	}, nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *mockPublisher) Publish(event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *mockPublisher) all() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Event(nil), p.events...)
}
