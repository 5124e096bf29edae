package usecases

import (
	"context"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
)

// DefaultPageSize is the number of tracks listed per page.
const DefaultPageSize = 25

// QueueRemoveInput contains the input for the QueueRemove use case.
type QueueRemoveInput struct {
	GuildID snowflake.ID
	Start   int // 0-indexed, inclusive
	End     int // 0-indexed, inclusive
}

// QueueRemoveOutput contains the result of the QueueRemove use case.
type QueueRemoveOutput struct {
	// Removed holds the removed tracks, last queue position first.
	Removed []ports.TrackHandle
}

// QueueListInput contains the input for the QueueList use case.
type QueueListInput struct {
	GuildID  snowflake.ID
	Start    int  // 0-indexed
	FromEnd  bool // list the last page instead of starting at Start
	PageSize int  // defaults to DefaultPageSize
}

// QueueListOutput contains the result of the QueueList use case.
type QueueListOutput struct {
	Tracks      []ports.TrackHandle
	Start       int // 0-indexed position of Tracks[0]
	TotalTracks int
}

// QueueService handles queue inspection and removal.
type QueueService struct {
	locks *GuildLockTable
	voice ports.VoiceManager
}

// NewQueueService creates a new QueueService.
func NewQueueService(locks *GuildLockTable, voice ports.VoiceManager) *QueueService {
	return &QueueService{
		locks: locks,
		voice: voice,
	}
}

// Remove removes the tracks at positions Start through End and stops them.
// Positions past the end of the queue are ignored.
func (q *QueueService) Remove(ctx context.Context, input QueueRemoveInput) (*QueueRemoveOutput, error) {
	if input.Start < 0 || input.End < input.Start {
		return nil, ErrRemoveTrack
	}

	lock, err := q.locks.Get(input.GuildID)
	if err != nil {
		slog.Error("failed to get guild lock", "guild", input.GuildID, "error", err)
		return nil, ErrRemoveTrack
	}
	lock.Lock()
	defer lock.Unlock()

	call, ok := q.voice.Get(input.GuildID)
	if !ok {
		return nil, ErrRemoveTrack
	}

	var removed []ports.TrackHandle
	call.Queue().Modify(func(tracks []ports.TrackHandle) []ports.TrackHandle {
		// Descending order keeps the remaining indices valid.
		for i := input.End; i >= input.Start; i-- {
			if i >= len(tracks) {
				continue
			}
			removed = append(removed, tracks[i])
			tracks = append(tracks[:i], tracks[i+1:]...)
		}
		return tracks
	})

	for _, handle := range removed {
		if err := handle.Stop(ctx); err != nil {
			slog.Warn("failed to stop removed track",
				"guild", input.GuildID,
				"track", handle.Track().DisplayTitle(),
				"error", err,
			)
		}
	}

	slog.Debug("removed tracks", "guild", input.GuildID, "count", len(removed))

	return &QueueRemoveOutput{Removed: removed}, nil
}

// List returns a page of the queue.
func (q *QueueService) List(input QueueListInput) (*QueueListOutput, error) {
	call, ok := q.voice.Get(input.GuildID)
	if !ok {
		return nil, ErrNotInVoiceChannel
	}

	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	tracks := call.Queue().Tracks()
	total := len(tracks)

	start := max(input.Start, 0)
	if input.FromEnd {
		start = max(total-pageSize, 0)
	}
	start = min(start, total)
	end := min(start+pageSize, total)

	return &QueueListOutput{
		Tracks:      tracks[start:end],
		Start:       start,
		TotalTracks: total,
	}, nil
}
