package music_player

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/infrastructure"
)

// configFileEnv names the environment variable holding the optional TOML config path.
const configFileEnv = "MUSIC_PLAYER_CONFIG_FILE"

// Config holds the music player module configuration.
// Values come from defaults, then the optional TOML file, then environment variables.
type Config struct {
	LavalinkAddress  string `koanf:"lavalink_address"  env:"LAVALINK_ADDRESS"`
	LavalinkPassword string `koanf:"lavalink_password" env:"LAVALINK_PASSWORD"`
	LavalinkSecure   bool   `koanf:"lavalink_secure"   env:"LAVALINK_SECURE"`

	IdleLeaveDelay       time.Duration `koanf:"idle_leave_delay"       env:"MUSIC_IDLE_LEAVE_DELAY"`
	ResolveConcurrency   int           `koanf:"resolve_concurrency"    env:"MUSIC_RESOLVE_CONCURRENCY"`
	ProgressWindow       int           `koanf:"progress_window"        env:"MUSIC_PROGRESS_WINDOW"`
	EnrichTimeout        time.Duration `koanf:"enrich_timeout"         env:"MUSIC_ENRICH_TIMEOUT"`
	SegmentSkipTolerance time.Duration `koanf:"segment_skip_tolerance" env:"MUSIC_SEGMENT_SKIP_TOLERANCE"`

	MetadataCachePath         string        `koanf:"metadata_cache_path"          env:"MUSIC_METADATA_CACHE_PATH"`
	MetadataCacheTTL          time.Duration `koanf:"metadata_cache_ttl"           env:"MUSIC_METADATA_CACHE_TTL"`
	MetadataRequestsPerSecond float64       `koanf:"metadata_requests_per_second" env:"MUSIC_METADATA_RPS"`

	SponsorBlockURL string `koanf:"sponsorblock_url" env:"MUSIC_SPONSORBLOCK_URL"`
	YtdlpProxy      string `koanf:"ytdlp_proxy"      env:"MUSIC_YTDLP_PROXY"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		IdleLeaveDelay:            usecases.DefaultIdleLeaveDelay,
		ResolveConcurrency:        usecases.DefaultResolveConcurrency,
		ProgressWindow:            domain.DefaultProgressWindow,
		EnrichTimeout:             usecases.DefaultEnrichTimeout,
		SegmentSkipTolerance:      time.Second,
		MetadataCachePath:         "music_metadata.db",
		MetadataCacheTTL:          infrastructure.DefaultMetadataCacheTTL,
		MetadataRequestsPerSecond: 8,
		SponsorBlockURL:           infrastructure.DefaultSponsorBlockURL,
	}
}

// LoadConfig merges the defaults, the TOML file named by MUSIC_PLAYER_CONFIG_FILE
// and the environment, then validates the result.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv(configFileEnv); path != "" {
		if err := loadConfigFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration can be used.
func (c *Config) Validate() error {
	var errs []error
	if c.LavalinkAddress == "" {
		errs = append(errs, errors.New("lavalink address is required"))
	}
	if c.LavalinkPassword == "" {
		errs = append(errs, errors.New("lavalink password is required"))
	}
	if c.ResolveConcurrency < 1 {
		errs = append(errs, fmt.Errorf("resolve concurrency must be positive, got %d", c.ResolveConcurrency))
	}
	if c.ProgressWindow < 1 {
		errs = append(errs, fmt.Errorf("progress window must be positive, got %d", c.ProgressWindow))
	}
	if c.MetadataRequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf(
			"metadata requests per second must be positive, got %v", c.MetadataRequestsPerSecond,
		))
	}
	return errors.Join(errs...)
}
