package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

func TestIdleTimerTable_ArmReplacesPrevious(t *testing.T) {
	table := NewIdleTimerTable()
	scheduler := &mockScheduler{}
	guildID := snowflake.ID(1)

	fired := 0
	for range 5 {
		table.Arm(guildID, scheduler, time.Minute, func(context.Context) { fired++ })
	}

	pending := scheduler.pending()
	if len(pending) != 1 {
		t.Fatalf("got %d pending timers, want 1", len(pending))
	}
	if pending[0].delay != time.Minute {
		t.Errorf("delay = %v, want 1m", pending[0].delay)
	}

	// Every replaced timer was cancelled; firing them anyway must not run fn.
	for _, e := range scheduler.events {
		e.fn(context.Background())
	}
	if fired != 1 {
		t.Errorf("fn ran %d times, want 1", fired)
	}
	if table.Armed(guildID) {
		t.Error("expected no timer after firing")
	}
}

func TestIdleTimerTable_Disarm(t *testing.T) {
	table := NewIdleTimerTable()
	scheduler := &mockScheduler{}
	guildID := snowflake.ID(1)

	if table.Disarm(guildID) {
		t.Error("Disarm() = true with nothing armed")
	}

	fired := false
	table.Arm(guildID, scheduler, time.Minute, func(context.Context) { fired = true })
	if !table.Disarm(guildID) {
		t.Error("Disarm() = false with a timer armed")
	}

	if len(scheduler.pending()) != 0 {
		t.Error("expected scheduled event to be cancelled")
	}
	scheduler.events[0].fn(context.Background())
	if fired {
		t.Error("disarmed timer ran")
	}
}

func TestIdleTimerTable_GuildsAreIndependent(t *testing.T) {
	table := NewIdleTimerTable()
	scheduler := &mockScheduler{}

	table.Arm(snowflake.ID(1), scheduler, time.Minute, func(context.Context) {})
	table.Arm(snowflake.ID(2), scheduler, time.Minute, func(context.Context) {})
	table.Disarm(snowflake.ID(1))

	if table.Armed(snowflake.ID(1)) {
		t.Error("guild 1 should be disarmed")
	}
	if !table.Armed(snowflake.ID(2)) {
		t.Error("guild 2 should still be armed")
	}
}
