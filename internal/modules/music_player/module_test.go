package music_player

import (
	"slices"
	"strings"
	"testing"

	"github.com/sglre6355/sgrmusic/internal/bot"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/presentation/discord"
)

func TestMusicPlayerModule_Registered(t *testing.T) {
	mod, ok := bot.Lookup("music_player")
	if !ok {
		t.Fatal("expected music_player to be registered")
	}
	if _, ok := mod.(*MusicPlayerModule); !ok {
		t.Fatalf("expected *MusicPlayerModule, got %T", mod)
	}
	if _, ok := mod.(bot.ConfigurableModule); !ok {
		t.Error("expected music_player to load its own configuration")
	}
}

func TestMusicPlayerModule_HandlesEveryCommand(t *testing.T) {
	m := &MusicPlayerModule{
		commandHandlers: discord.NewCommandHandlers(nil, nil, nil, nil, nil),
	}

	var commands []string
	for _, cmd := range m.Commands() {
		commands = append(commands, cmd.Name)
	}
	var handled []string
	for name, handler := range m.CommandHandlers() {
		if handler == nil {
			t.Errorf("nil handler for %q", name)
		}
		handled = append(handled, name)
	}
	slices.Sort(commands)
	slices.Sort(handled)

	if !slices.Equal(commands, handled) {
		t.Errorf("commands %v do not match handlers %v", commands, handled)
	}
}

func TestMusicPlayerModule_LoadConfig(t *testing.T) {
	t.Run("stores loaded config", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv(configFileEnv, "")
		t.Setenv("MUSIC_PROGRESS_WINDOW", "4")

		m := &MusicPlayerModule{}
		if err := m.LoadConfig(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.config == nil || m.config.ProgressWindow != 4 {
			t.Errorf("expected loaded config to be kept, got %+v", m.config)
		}
	})

	t.Run("missing lavalink settings", func(t *testing.T) {
		t.Setenv(configFileEnv, "")
		t.Setenv("LAVALINK_ADDRESS", "")
		t.Setenv("LAVALINK_PASSWORD", "")

		m := &MusicPlayerModule{}
		err := m.LoadConfig()
		if err == nil || !strings.Contains(err.Error(), "lavalink address is required") {
			t.Fatalf("expected lavalink error, got %v", err)
		}
		if m.config != nil {
			t.Error("expected no config to be stored on error")
		}
	})
}

func TestMusicPlayerModule_InitRequiresSession(t *testing.T) {
	m := &MusicPlayerModule{}
	if err := m.Init(bot.ModuleDependencies{}); err == nil {
		t.Fatal("expected error without a discord session")
	}
}

func TestMusicPlayerModule_ShutdownBeforeInit(t *testing.T) {
	m := &MusicPlayerModule{}
	if err := m.Shutdown(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
