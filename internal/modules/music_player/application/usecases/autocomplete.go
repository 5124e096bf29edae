package usecases

import (
	"context"
	"strconv"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// maxSuggestions is the most choices a chat autocomplete accepts.
const maxSuggestions = 25

// Suggestion is a single autocomplete choice.
type Suggestion struct {
	Name  string
	Value string
}

// AutocompleteService handles autocomplete-related operations.
type AutocompleteService struct {
	voice    ports.VoiceManager
	searcher ports.MusicSearcher
}

// NewAutocompleteService creates a new AutocompleteService.
func NewAutocompleteService(voice ports.VoiceManager, searcher ports.MusicSearcher) *AutocompleteService {
	return &AutocompleteService{
		voice:    voice,
		searcher: searcher,
	}
}

// SuggestSongs suggests songs for a partial query. URLs get no suggestions.
func (s *AutocompleteService) SuggestSongs(ctx context.Context, partial string) ([]Suggestion, error) {
	query := domain.ParseQuery(partial)
	if !query.IsValid() || query.Kind() == domain.QueryURL || s.searcher == nil {
		return nil, nil
	}

	songs, err := s.searcher.SearchSongs(ctx, query.Value())
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, min(len(songs), maxSuggestions))
	for _, song := range songs {
		if len(suggestions) == maxSuggestions {
			break
		}
		name := song.Title
		if song.Artist != "" {
			name = song.Artist + " - " + song.Title
		}
		suggestions = append(suggestions, Suggestion{
			Name:  truncate(name, 100),
			Value: domain.YouTubeWatchURL(song.VideoID),
		})
	}
	return suggestions, nil
}

// SuggestQueuePositions suggests queue entries by title. Values are 1-indexed positions.
func (s *AutocompleteService) SuggestQueuePositions(guildID snowflake.ID) []Suggestion {
	call, ok := s.voice.Get(guildID)
	if !ok {
		return nil
	}

	tracks := call.Queue().Tracks()
	suggestions := make([]Suggestion, 0, min(len(tracks), maxSuggestions))
	for i, handle := range tracks {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, Suggestion{
			Name:  truncate(strconv.Itoa(i+1)+": "+handle.Track().DisplayTitle(), 100),
			Value: strconv.Itoa(i + 1),
		})
	}
	return suggestions
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
