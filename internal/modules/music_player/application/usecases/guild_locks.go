package usecases

import (
	"errors"
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

var errLockTableUnavailable = errors.New("guild lock table is not initialized")

// GuildLockTable holds one queue-mutation lock per guild.
// Locks are created on first use and live as long as the table.
type GuildLockTable struct {
	mu    sync.Mutex
	locks map[snowflake.ID]*sync.Mutex
}

// NewGuildLockTable creates an empty GuildLockTable.
func NewGuildLockTable() *GuildLockTable {
	return &GuildLockTable{
		locks: make(map[snowflake.ID]*sync.Mutex),
	}
}

// Get returns the lock for the guild, creating it if needed.
func (t *GuildLockTable) Get(guildID snowflake.ID) (*sync.Mutex, error) {
	if t == nil {
		return nil, errLockTableUnavailable
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.locks == nil {
		return nil, errLockTableUnavailable
	}

	lock, ok := t.locks[guildID]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[guildID] = lock
	}
	return lock, nil
}
