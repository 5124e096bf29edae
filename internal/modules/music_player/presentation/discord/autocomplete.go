package discord

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/usecases"
)

// autocompleteTimeout keeps suggestions within the interaction response deadline.
const autocompleteTimeout = 2500 * time.Millisecond

// minSearchLength is the shortest partial query that is searched.
const minSearchLength = 2

// interactionResponder responds to interactions.
type interactionResponder interface {
	InteractionRespond(
		interaction *discordgo.Interaction,
		resp *discordgo.InteractionResponse,
		options ...discordgo.RequestOption,
	) error
}

// AutocompleteHandler handles autocomplete requests.
type AutocompleteHandler struct {
	suggestions *usecases.AutocompleteService
}

// NewAutocompleteHandler creates a new AutocompleteHandler.
func NewAutocompleteHandler(suggestions *usecases.AutocompleteService) *AutocompleteHandler {
	return &AutocompleteHandler{
		suggestions: suggestions,
	}
}

// Handle routes an autocomplete interaction to the suggestions for its command.
func (h *AutocompleteHandler) Handle(s interactionResponder, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return
	}

	data := i.ApplicationCommandData()
	focused := focusedOption(data.Options)
	if focused == nil {
		respondChoices(s, i, nil)
		return
	}

	switch data.Name {
	case "play", "song":
		h.suggestSongs(s, i, focused.StringValue())
	case "remove":
		h.suggestQueuePositions(s, i)
	default:
		respondChoices(s, i, nil)
	}
}

func (h *AutocompleteHandler) suggestSongs(s interactionResponder, i *discordgo.InteractionCreate, partial string) {
	if len([]rune(partial)) < minSearchLength {
		respondChoices(s, i, nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), autocompleteTimeout)
	defer cancel()

	suggestions, err := h.suggestions.SuggestSongs(ctx, partial)
	if err != nil {
		slog.Debug("failed to suggest songs", "query", partial, "error", err)
	}
	respondChoices(s, i, stringChoices(suggestions))
}

func (h *AutocompleteHandler) suggestQueuePositions(s interactionResponder, i *discordgo.InteractionCreate) {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		respondChoices(s, i, nil)
		return
	}
	respondChoices(s, i, integerChoices(h.suggestions.SuggestQueuePositions(guildID)))
}

func focusedOption(
	options []*discordgo.ApplicationCommandInteractionDataOption,
) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options {
		if opt.Focused {
			return opt
		}
	}
	return nil
}

func stringChoices(suggestions []usecases.Suggestion) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(suggestions))
	for _, suggestion := range suggestions {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  suggestion.Name,
			Value: suggestion.Value,
		})
	}
	return choices
}

// integerChoices converts suggestions for integer options. Non-numeric values are dropped.
func integerChoices(suggestions []usecases.Suggestion) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(suggestions))
	for _, suggestion := range suggestions {
		value, err := strconv.Atoi(suggestion.Value)
		if err != nil {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  suggestion.Name,
			Value: value,
		})
	}
	return choices
}

func respondChoices(
	s interactionResponder,
	i *discordgo.InteractionCreate,
	choices []*discordgo.ApplicationCommandOptionChoice,
) {
	if choices == nil {
		choices = []*discordgo.ApplicationCommandOptionChoice{}
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
	if err != nil {
		slog.Debug("failed to respond to autocomplete", "error", err)
	}
}
