package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// ErrButtonAwaited is returned when a second waiter registers for the same button.
var ErrButtonAwaited = errors.New("button is already awaited")

// interactionAcker acknowledges component interactions.
type interactionAcker interface {
	InteractionRespond(
		interaction *discordgo.Interaction,
		resp *discordgo.InteractionResponse,
		options ...discordgo.RequestOption,
	) error
}

// ComponentRouter delivers button presses to the goroutines awaiting them.
type ComponentRouter struct {
	mu      sync.Mutex
	waiters map[string]chan struct{}
}

// NewComponentRouter creates a new ComponentRouter.
func NewComponentRouter() *ComponentRouter {
	return &ComponentRouter{
		waiters: make(map[string]chan struct{}),
	}
}

// Await blocks until the button with customID is pressed or ctx is done.
func (r *ComponentRouter) Await(ctx context.Context, customID string) error {
	pressed := make(chan struct{}, 1)

	r.mu.Lock()
	if _, ok := r.waiters[customID]; ok {
		r.mu.Unlock()
		return ErrButtonAwaited
	}
	r.waiters[customID] = pressed
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.waiters, customID)
		r.mu.Unlock()
	}()

	select {
	case <-pressed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Press signals the waiter for customID. It reports whether anyone was waiting.
func (r *ComponentRouter) Press(customID string) bool {
	r.mu.Lock()
	pressed, ok := r.waiters[customID]
	r.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case pressed <- struct{}{}:
	default:
	}
	return true
}

// HandleInteraction routes message component interactions to their waiters.
// Presses of buttons nobody awaits any more are acknowledged and ignored.
func (r *ComponentRouter) HandleInteraction(s interactionAcker, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	customID := i.MessageComponentData().CustomID
	if !r.Press(customID) {
		slog.Debug("button pressed without a waiter", "custom_id", customID)
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		slog.Warn("failed to acknowledge button press", "custom_id", customID, "error", err)
	}
}
