package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
)

// DefaultIdleLeaveDelay is how long the bot stays in voice with nothing to play.
const DefaultIdleLeaveDelay = 10 * time.Minute

type idleTimer struct {
	generation uint64
	event      ports.ScheduledEvent
}

// IdleTimerTable tracks the pending idle-leave timer of each guild.
// At most one timer per guild is pending at any time.
type IdleTimerTable struct {
	mu         sync.Mutex
	timers     map[snowflake.ID]idleTimer
	generation uint64
}

// NewIdleTimerTable creates an empty IdleTimerTable.
func NewIdleTimerTable() *IdleTimerTable {
	return &IdleTimerTable{
		timers: make(map[snowflake.ID]idleTimer),
	}
}

// Arm schedules fn on scheduler after delay, replacing any timer already armed for the guild.
func (t *IdleTimerTable) Arm(
	guildID snowflake.ID,
	scheduler ports.Scheduler,
	delay time.Duration,
	fn func(ctx context.Context),
) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.timers[guildID]; ok {
		prev.event.Cancel()
		delete(t.timers, guildID)
	}

	t.generation++
	generation := t.generation

	event := scheduler.ScheduleDelayed(delay, func(ctx context.Context) {
		if !t.take(guildID, generation) {
			return
		}
		fn(ctx)
	})
	t.timers[guildID] = idleTimer{generation: generation, event: event}
}

// Disarm cancels the guild's pending timer. It reports whether one was pending.
func (t *IdleTimerTable) Disarm(guildID snowflake.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	timer, ok := t.timers[guildID]
	if !ok {
		return false
	}
	delete(t.timers, guildID)
	timer.event.Cancel()
	return true
}

// Armed reports whether the guild has a pending timer.
func (t *IdleTimerTable) Armed(guildID snowflake.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.timers[guildID]
	return ok
}

// take removes the guild's timer if it is still the given generation.
func (t *IdleTimerTable) take(guildID snowflake.ID, generation uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	timer, ok := t.timers[guildID]
	if !ok || timer.generation != generation {
		return false
	}
	delete(t.timers, guildID)
	return true
}
