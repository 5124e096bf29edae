package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
)

var _ ports.Scheduler = (*TimerScheduler)(nil)

// TimerScheduler runs delayed callbacks on their own goroutines using time.AfterFunc.
// Pending callbacks can be cancelled as a group.
type TimerScheduler struct {
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	pending map[*timerEvent]struct{}
	closed  bool
}

// NewTimerScheduler creates a new TimerScheduler.
func NewTimerScheduler() *TimerScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &TimerScheduler{
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[*timerEvent]struct{}),
	}
}

type timerEvent struct {
	scheduler *TimerScheduler
	timer     *time.Timer
}

// Cancel prevents the callback from running.
func (e *timerEvent) Cancel() bool {
	if e.timer == nil {
		return false
	}
	if !e.scheduler.forget(e) {
		return false
	}
	return e.timer.Stop()
}

// ScheduleDelayed runs fn after delay. The context passed to fn is cancelled by RemoveAll and Close.
// On a closed scheduler fn never runs.
func (s *TimerScheduler) ScheduleDelayed(delay time.Duration, fn func(ctx context.Context)) ports.ScheduledEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	event := &timerEvent{scheduler: s}
	if s.closed {
		return event
	}

	ctx := s.ctx
	event.timer = time.AfterFunc(delay, func() {
		if !s.forget(event) {
			return
		}
		fn(ctx)
	})
	s.pending[event] = struct{}{}
	return event
}

// Pending returns the number of callbacks waiting to run.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// RemoveAll cancels every pending callback. The scheduler stays usable.
func (s *TimerScheduler) RemoveAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	if !s.closed {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}
}

// Close cancels every pending callback and refuses new ones.
func (s *TimerScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopLocked()
}

func (s *TimerScheduler) stopLocked() {
	for event := range s.pending {
		event.timer.Stop()
	}
	clear(s.pending)
	s.cancel()
}

// forget removes a pending event. It reports whether the event was still pending.
func (s *TimerScheduler) forget(event *timerEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[event]; !ok {
		return false
	}
	delete(s.pending, event)
	return true
}
