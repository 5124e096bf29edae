package music_player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/sglre6355/sgrmusic/internal/bot"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/presentation/discord"
)

const metadataHTTPTimeout = 10 * time.Second

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*MusicPlayerModule)(nil)

// MusicPlayerModule provides music playback commands.
type MusicPlayerModule struct {
	config          *Config
	commandHandlers *discord.CommandHandlers
	autocomplete    *discord.AutocompleteHandler
	eventHandlers   *discord.EventHandlers
	buttons         *infrastructure.ComponentRouter
	lavalinkAdapter *infrastructure.LavalinkAdapter
	metadataCache   *infrastructure.MetadataCache

	// Event-driven components
	eventBus *infrastructure.ChannelEventBus
	machine  *application.PlaybackEventMachine
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"join":   m.commandHandlers.HandleJoin,
		"leave":  m.commandHandlers.HandleLeave,
		"play":   m.commandHandlers.HandlePlay,
		"song":   m.commandHandlers.HandleSong,
		"video":  m.commandHandlers.HandleVideo,
		"album":  m.commandHandlers.HandleAlbum,
		"pause":  m.commandHandlers.HandlePause,
		"resume": m.commandHandlers.HandleResume,
		"skip":   m.commandHandlers.HandleSkip,
		"stop":   m.commandHandlers.HandleStop,
		"list":   m.commandHandlers.HandleList,
		"remove": m.commandHandlers.HandleRemove,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.handleVoiceServerUpdate(s, event)
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.handleVoiceStateUpdate(s, event)
		},
		func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			m.handleInteractionCreate(s, i)
		},
	}
}

// LoadConfig loads module-specific configuration from the optional TOML file and the environment.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		return errors.New("music_player module requires a discord session")
	}
	if m.config == nil {
		m.config = DefaultConfig()
	}
	cfg := m.config

	// Lavalink publishes track events on the bus, so the bus comes first.
	m.eventBus = infrastructure.NewChannelEventBus(infrastructure.DefaultEventBufferSize)

	lavalinkAdapter, err := infrastructure.NewLavalinkAdapter(
		deps.Session,
		infrastructure.LavalinkConfig{
			Address:  cfg.LavalinkAddress,
			Password: cfg.LavalinkPassword,
			Secure:   cfg.LavalinkSecure,
		},
		m.eventBus,
	)
	if err != nil {
		return fmt.Errorf("failed to create lavalink adapter: %w", err)
	}
	m.lavalinkAdapter = lavalinkAdapter

	// Discord adapters
	repo := infrastructure.NewMemoryRepository()
	voiceState := infrastructure.NewVoiceStateProvider(deps.Session.State)
	requesters := infrastructure.NewDiscordRequesterLookup(deps.Session)
	m.buttons = infrastructure.NewComponentRouter()
	notifier := infrastructure.NewNotifier(deps.Session, m.buttons, requesters)

	// Metadata sources
	loudness, segments := m.metadataSources(cfg)
	enricher := usecases.NewMetadataEnricher(loudness, segments, cfg.EnrichTimeout)

	// Track sources
	ytdlp := infrastructure.NewYtdlpClient(cfg.YtdlpProxy)
	resolver := infrastructure.NewSourceResolver(
		lavalinkAdapter,
		infrastructure.NewYouTubeSearchClient(),
		ytdlp,
	)
	searcher := infrastructure.NewYTMusicSearcher()

	// Use cases
	locks := usecases.NewGuildLockTable()
	idle := usecases.NewIdleTimerTable()
	voiceChannel := usecases.NewVoiceChannelService(repo, lavalinkAdapter, voiceState, idle)
	playback := usecases.NewPlaybackService(lavalinkAdapter)
	queue := usecases.NewQueueService(locks, lavalinkAdapter)
	adder := usecases.NewAddTracksService(
		locks,
		idle,
		lavalinkAdapter,
		resolver,
		enricher,
		notifier,
		usecases.AddTracksConfig{
			Concurrency:    cfg.ResolveConcurrency,
			ProgressWindow: cfg.ProgressWindow,
		},
	)
	playlists := usecases.NewPlaylistService(adder, ytdlp, searcher)
	suggestions := usecases.NewAutocompleteService(lavalinkAdapter, searcher)

	// Event machine
	m.machine = application.NewPlaybackEventMachine(
		lavalinkAdapter,
		repo,
		notifier,
		voiceChannel,
		idle,
		application.NewSegmentSkipper(cfg.SegmentSkipTolerance),
		m.eventBus,
		cfg.IdleLeaveDelay,
	)
	if err := m.machine.Start(); err != nil {
		return fmt.Errorf("failed to start playback event machine: %w", err)
	}

	// Presentation
	m.commandHandlers = discord.NewCommandHandlers(voiceChannel, playback, queue, playlists, notifier)
	m.autocomplete = discord.NewAutocompleteHandler(suggestions)
	m.eventHandlers = discord.NewEventHandlers(
		lavalinkAdapter.BotID(),
		lavalinkAdapter,
		voiceState,
		voiceChannel,
		m.eventBus,
	)

	slog.Info("music_player module initialized with Lavalink",
		"address", cfg.LavalinkAddress,
		"concurrency", cfg.ResolveConcurrency,
		"idle_leave_delay", cfg.IdleLeaveDelay,
	)

	return nil
}

// metadataSources builds the rate limited loudness and segment clients,
// wrapped in the SQLite cache when it can be opened.
func (m *MusicPlayerModule) metadataSources(cfg *Config) (ports.LoudnessSource, ports.SegmentSource) {
	httpClient := &http.Client{Timeout: metadataHTTPTimeout}
	burst := max(1, int(math.Ceil(cfg.MetadataRequestsPerSecond)))
	limiter := rate.NewLimiter(rate.Limit(cfg.MetadataRequestsPerSecond), burst)

	var loudness ports.LoudnessSource = infrastructure.NewYouTubeLoudnessClient(httpClient, limiter)
	var segments ports.SegmentSource = infrastructure.NewSponsorBlockClient(
		httpClient,
		limiter,
		cfg.SponsorBlockURL,
	)

	cache, err := infrastructure.OpenMetadataCache(
		context.Background(),
		cfg.MetadataCachePath,
		cfg.MetadataCacheTTL,
	)
	if err != nil {
		slog.Warn("failed to open metadata cache, looking up metadata uncached",
			"path", cfg.MetadataCachePath,
			"error", err,
		)
		return loudness, segments
	}
	m.metadataCache = cache

	return infrastructure.NewCachedLoudnessSource(loudness, cache),
		infrastructure.NewCachedSegmentSource(segments, cache)
}

// Shutdown cleans up module resources.
func (m *MusicPlayerModule) Shutdown() error {
	if m.eventBus != nil {
		m.eventBus.Close()
	}

	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Close()
	}

	if m.metadataCache != nil {
		if err := m.metadataCache.Close(); err != nil {
			return fmt.Errorf("failed to close metadata cache: %w", err)
		}
	}

	return nil
}

// Event handlers.

func (m *MusicPlayerModule) handleVoiceServerUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceServerUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceServerUpdate(event)
	}
}

func (m *MusicPlayerModule) handleVoiceStateUpdate(
	s *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceStateUpdate(event)
	}
	if m.eventHandlers != nil {
		m.eventHandlers.HandleVoiceStateUpdate(s, event)
	}
}

func (m *MusicPlayerModule) handleInteractionCreate(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
) {
	switch i.Type {
	case discordgo.InteractionApplicationCommandAutocomplete:
		if m.autocomplete != nil {
			m.autocomplete.Handle(s, i)
		}
	case discordgo.InteractionMessageComponent:
		if m.buttons != nil {
			m.buttons.HandleInteraction(s, i)
		}
	}
}
