package usecases

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// DefaultResolveConcurrency is the number of queries resolved in parallel by one add.
const DefaultResolveConcurrency = 20

// AddTracksInput contains the input for the AddTracks use case.
type AddTracksInput struct {
	GuildID               snowflake.ID
	RequesterID           snowflake.ID
	NotificationChannelID snowflake.ID
	Queries               iter.Seq[domain.Query]
	// Total is the number of queries Queries yields. More than one makes this a bulk add.
	Total int
}

// QueriesOf returns a sequence over the given queries.
func QueriesOf(queries ...domain.Query) iter.Seq[domain.Query] {
	return slices.Values(queries)
}

// AddTracksConfig contains the tunables of AddTracksService.
type AddTracksConfig struct {
	Concurrency    int
	ProgressWindow int
}

// AddTracksService resolves queries and enqueues them onto a guild's playback queue.
type AddTracksService struct {
	locks    *GuildLockTable
	idle     *IdleTimerTable
	voice    ports.VoiceManager
	resolver ports.TrackResolver
	enricher *MetadataEnricher
	chat     ports.ChatTransport

	concurrency int
	window      int
	newID       func() string
	now         func() time.Time
}

// NewAddTracksService creates a new AddTracksService.
func NewAddTracksService(
	locks *GuildLockTable,
	idle *IdleTimerTable,
	voice ports.VoiceManager,
	resolver ports.TrackResolver,
	enricher *MetadataEnricher,
	chat ports.ChatTransport,
	cfg AddTracksConfig,
) *AddTracksService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultResolveConcurrency
	}
	if cfg.ProgressWindow <= 0 {
		cfg.ProgressWindow = domain.DefaultProgressWindow
	}
	return &AddTracksService{
		locks:       locks,
		idle:        idle,
		voice:       voice,
		resolver:    resolver,
		enricher:    enricher,
		chat:        chat,
		concurrency: cfg.Concurrency,
		window:      cfg.ProgressWindow,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

type resolveResult struct {
	track *domain.ResolvedTrack
	err   error
}

// AddTracks resolves the queries with bounded concurrency and enqueues the results in query order.
// A single query that fails returns its error. A bulk add skips failed queries and returns
// an *AddTracksError when any failed. Cancelling a bulk add keeps what was already queued.
func (s *AddTracksService) AddTracks(ctx context.Context, input AddTracksInput) error {
	lock, err := s.locks.Get(input.GuildID)
	if err != nil {
		slog.Error("failed to get guild lock", "guild", input.GuildID, "error", err)
		return &InternalError{Cause: err}
	}
	lock.Lock()
	defer lock.Unlock()

	call, ok := s.voice.Get(input.GuildID)
	if !ok {
		return ErrNotInVoiceChannel
	}
	queue := call.Queue()

	progress := domain.NewAddProgress(input.Total, s.window)
	bulk := progress.IsBulk()

	cancelCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var cancelID string
	stopListener := func() {}
	if bulk {
		cancelID = s.newID()
		stopListener = s.listenForCancel(ctx, cancelID, cancel)
	}
	defer stopListener()

	produceCtx, stopProducing := context.WithCancel(cancelCtx)
	ordered, producerDone := s.produce(produceCtx, ctx, input.Queries, queue.Len() > 0)
	defer func() {
		stopProducing()
		<-producerDone
	}()

	var (
		progressRef   *ports.MessageRef
		lastPrewarmed string
		cancelled     bool
	)

consume:
	for pending := range ordered {
		result := <-pending

		if result.err != nil {
			if !bulk {
				return result.err
			}
			slog.Warn("failed to resolve track", "guild", input.GuildID, "error", result.err)
			progress.Failed()
			continue
		}

		select {
		case <-cancelCtx.Done():
			cancelled = true
			break consume
		default:
		}

		track := result.track
		track.RequesterID = input.RequesterID
		track.EnqueuedAt = s.now()

		wasEmpty := queue.Len() == 0
		if _, err := queue.Enqueue(ctx, track); err != nil {
			if !bulk {
				slog.Error("failed to enqueue track", "guild", input.GuildID, "error", err)
				return &InternalError{Cause: fmt.Errorf("failed to enqueue track: %w", err)}
			}
			slog.Warn("failed to enqueue track", "guild", input.GuildID, "error", err)
			progress.Failed()
			continue
		}
		// Only a queued track supersedes a pending idle leave.
		if progress.QueuedCount() == 0 {
			s.idle.Disarm(input.GuildID)
		}
		progress.Queued(track)

		lastPrewarmed = prewarmNext(ctx, queue, lastPrewarmed)

		switch {
		case wasEmpty:
			s.send(ctx, input.NotificationChannelID, domain.PlayUpdateMessage{
				Kind:      domain.UpdatePlaying,
				Track:     track,
				QueueSize: queue.Len(),
			})
		case !bulk:
			s.send(ctx, input.NotificationChannelID, domain.PlayUpdateMessage{
				Kind:      domain.UpdateQueued,
				Track:     track,
				QueueSize: queue.Len(),
			})
		}

		if bulk {
			progressRef = s.reportProgress(
				ctx,
				input.NotificationChannelID,
				progressRef,
				domain.NewAddProgressMessage(progress, cancelID),
			)
		}
	}

	stopListener()
	processed := progress.QueuedCount() + progress.FailedCount()
	if cancelCtx.Err() != nil && processed < progress.Total() {
		cancelled = true
	}

	if bulk {
		final := domain.NewAddProgressMessage(progress, "")
		final.Finished = true
		final.Cancelled = cancelled
		s.reportProgress(ctx, input.NotificationChannelID, progressRef, final)

		slog.Info("bulk add finished",
			"guild", input.GuildID,
			"queued", progress.QueuedCount(),
			"failed", progress.FailedCount(),
			"total", progress.Total(),
			"cancelled", cancelled,
		)
	}

	if progress.FailedCount() > 0 {
		return &AddTracksError{Failed: progress.FailedCount(), Total: progress.Total()}
	}
	return nil
}

// produce starts resolving queries in the background. Each query gets a result channel that is
// sent on ordered in query order. Submission stops when produceCtx is done; resolutions already
// submitted run to completion under ctx.
func (s *AddTracksService) produce(
	produceCtx context.Context,
	ctx context.Context,
	queries iter.Seq[domain.Query],
	queueBusy bool,
) (<-chan chan resolveResult, <-chan struct{}) {
	ordered := make(chan chan resolveResult, s.concurrency)
	done := make(chan struct{})
	sem := semaphore.NewWeighted(int64(s.concurrency))

	go func() {
		defer close(done)
		defer close(ordered)

		i := 0
		for query := range queries {
			if err := sem.Acquire(produceCtx, 1); err != nil {
				return
			}

			pending := make(chan resolveResult, 1)
			select {
			case ordered <- pending:
			case <-produceCtx.Done():
				sem.Release(1)
				return
			}

			// Only the first track of an add onto an idle queue is loaded eagerly.
			lazy := queueBusy || i != 0
			go func() {
				defer sem.Release(1)
				track, err := s.resolve(ctx, query, lazy)
				pending <- resolveResult{track: track, err: err}
			}()
			i++
		}
	}()

	return ordered, done
}

func (s *AddTracksService) resolve(
	ctx context.Context,
	query domain.Query,
	lazy bool,
) (*domain.ResolvedTrack, error) {
	track, err := s.resolver.Resolve(ctx, query, lazy)
	if err != nil {
		if errors.Is(err, ports.ErrNoMatches) {
			return nil, ErrNoResults
		}
		return nil, &BadSourceError{Detail: err.Error()}
	}

	s.enricher.Enrich(ctx, track.SourceURL).Apply(track)
	return track, nil
}

// listenForCancel cancels the add when the cancel button is pressed.
// The returned function stops the listener and waits for it to exit.
func (s *AddTracksService) listenForCancel(
	ctx context.Context,
	cancelID string,
	cancel context.CancelFunc,
) func() {
	listenCtx, stop := context.WithCancel(ctx)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.chat.AwaitButton(listenCtx, cancelID); err == nil {
			slog.Debug("add cancelled by user", "cancel_id", cancelID)
			cancel()
		}
	}()

	return func() {
		stop()
		wg.Wait()
	}
}

func (s *AddTracksService) send(ctx context.Context, channelID snowflake.ID, msg domain.Message) {
	if _, err := s.chat.Send(ctx, channelID, msg); err != nil {
		slog.Warn("failed to send notification", "channel", channelID, "error", err)
	}
}

// reportProgress sends the progress message on first use and edits it afterwards.
func (s *AddTracksService) reportProgress(
	ctx context.Context,
	channelID snowflake.ID,
	ref *ports.MessageRef,
	msg domain.AddProgressMessage,
) *ports.MessageRef {
	if ref != nil {
		if err := s.chat.Edit(ctx, *ref, msg); err != nil {
			slog.Warn("failed to edit progress message", "channel", channelID, "error", err)
		}
		return ref
	}

	sent, err := s.chat.Send(ctx, channelID, msg)
	if err != nil {
		slog.Warn("failed to send progress message", "channel", channelID, "error", err)
		return nil
	}
	return &sent
}

// prewarmNext makes the track after the playing one playable unless it was already handled.
// It returns the ID of the handle it considered.
func prewarmNext(ctx context.Context, queue ports.PlaybackQueue, last string) string {
	tracks := queue.Tracks()
	if len(tracks) < 2 {
		return last
	}

	next := tracks[1]
	if next.ID() == last {
		return last
	}
	if err := next.MakePlayable(ctx); err != nil {
		slog.Debug("failed to prewarm next track", "track", next.Track().DisplayTitle(), "error", err)
	}
	return next.ID()
}
