package infrastructure

import (
	"context"
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// MemoryRepository is an in-memory implementation of GuildSessionRepository.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[snowflake.ID]domain.GuildSession
}

// NewMemoryRepository creates a new MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[snowflake.ID]domain.GuildSession),
	}
}

// Get returns the GuildSession for the given guild, or domain.ErrSessionNotFound.
func (r *MemoryRepository) Get(
	_ context.Context,
	guildID snowflake.ID,
) (domain.GuildSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[guildID]
	if !ok {
		return domain.GuildSession{}, domain.ErrSessionNotFound
	}
	return session, nil
}

// Save stores the GuildSession.
func (r *MemoryRepository) Save(_ context.Context, session domain.GuildSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.GuildID] = session
	return nil
}

// Delete removes the GuildSession for the given guild.
func (r *MemoryRepository) Delete(_ context.Context, guildID snowflake.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, guildID)
	return nil
}

// Count returns the number of stored sessions.
func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

var _ domain.GuildSessionRepository = (*MemoryRepository)(nil)
