package ports

import (
	"context"
	"time"
)

// ScheduledEvent is a pending delayed callback.
type ScheduledEvent interface {
	// Cancel prevents the callback from running.
	// It returns false if the callback already ran or was already cancelled.
	Cancel() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	ScheduleDelayed(delay time.Duration, fn func(ctx context.Context)) ScheduledEvent
}
