package bot

import (
	"fmt"
	"slices"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// InteractionHandler handles a slash command. Handlers usually defer the reply through r
// and then edit or delete it.
type InteractionHandler func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error

// EventHandler is a discordgo handler function, e.g. func(*discordgo.Session, *discordgo.VoiceStateUpdate).
// Autocomplete and component interactions reach modules through these as well.
type EventHandler any

// ModuleDependencies is what the bot hands to modules once the gateway session is open.
type ModuleDependencies struct {
	// Session is connected, so Session.State.User is populated.
	Session *discordgo.Session
}

// Module is a feature the bot hosts.
type Module interface {
	// Name identifies the module. It must be unique within a registry.
	Name() string
	Commands() []*discordgo.ApplicationCommand
	// CommandHandlers maps command names to handlers. Names must not collide across modules.
	CommandHandlers() map[string]InteractionHandler
	EventHandlers() []EventHandler
	Init(deps ModuleDependencies) error
	Shutdown() error
}

// ConfigurableModule is a Module that loads its own configuration.
// LoadConfig runs before the gateway connection is opened, so bad configuration fails fast.
type ConfigurableModule interface {
	Module
	LoadConfig() error
}

// Registry holds modules in registration order.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds m. It panics if a module with the same name is already registered,
// since registration happens from init functions.
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.ContainsFunc(r.modules, func(existing Module) bool { return existing.Name() == m.Name() }) {
		panic(fmt.Sprintf("bot: module %q registered twice", m.Name()))
	}
	r.modules = append(r.modules, m)
}

// Lookup returns the module registered under name.
func (r *Registry) Lookup(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := slices.IndexFunc(r.modules, func(m Module) bool { return m.Name() == name })
	if i < 0 {
		return nil, false
	}
	return r.modules[i], true
}

// Modules returns a copy of the registered modules.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.modules)
}

var globalRegistry = NewRegistry()

// Register adds m to the global registry. Modules call it from init.
func Register(m Module) {
	globalRegistry.Register(m)
}

// Lookup returns the globally registered module with the given name.
func Lookup(name string) (Module, bool) {
	return globalRegistry.Lookup(name)
}

// Modules returns the globally registered modules.
func Modules() []Module {
	return globalRegistry.Modules()
}

// ResetGlobalRegistry empties the global registry. Tests only.
func ResetGlobalRegistry() {
	globalRegistry = NewRegistry()
}
