package infrastructure

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

func fieldValue(embed *discordgo.MessageEmbed, name string) (string, bool) {
	for _, f := range embed.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func TestNotifier_RenderPlaying(t *testing.T) {
	n := NewNotifier(nil, NewComponentRouter(), nil)
	track := &domain.ResolvedTrack{
		Title:      "Song",
		Artist:     "Artist",
		Duration:   3*time.Minute + 5*time.Second,
		SourceURL:  "https://soundcloud.com/a/b",
		ArtworkURL: "https://example.com/art.jpg",
		SourceName: "soundcloud",
		Segments:   []domain.Segment{{Start: 0, End: 30 * time.Second}},
	}

	embed, components := n.render(context.Background(), 3, domain.PlayUpdateMessage{
		Kind:      domain.UpdatePlaying,
		Track:     track,
		QueueSize: 4,
	})

	if components != nil {
		t.Errorf("expected no components, got %v", components)
	}
	if embed.Author == nil || embed.Author.Name != "Playing" {
		t.Errorf("expected author Playing, got %+v", embed.Author)
	}
	if !strings.Contains(embed.Description, "[Song](https://soundcloud.com/a/b)") {
		t.Errorf("expected track link, got %q", embed.Description)
	}

	want := map[string]string{
		"Artist":     "Artist",
		"Length":     "3:05",
		"Queue size": "4",
		"Skipping":   "0:30",
	}
	for name, value := range want {
		got, ok := fieldValue(embed, name)
		if !ok {
			t.Errorf("missing field %q", name)
			continue
		}
		if got != value {
			t.Errorf("field %q: expected %q, got %q", name, value, got)
		}
	}

	if embed.Image == nil || embed.Image.URL != track.ArtworkURL {
		t.Errorf("expected artwork image, got %+v", embed.Image)
	}
}

func TestNotifier_RenderPlayUpdates(t *testing.T) {
	n := NewNotifier(nil, NewComponentRouter(), nil)
	track := &domain.ResolvedTrack{Title: "Song", SourceName: "other"}

	tests := []struct {
		name       string
		msg        domain.PlayUpdateMessage
		wantTitle  string
		wantAuthor string
		wantFields int
	}{
		{
			name:      "stopped is title only",
			msg:       domain.PlayUpdateMessage{Kind: domain.UpdateStopped},
			wantTitle: "Stopped",
		},
		{
			name:       "queued shows queue size",
			msg:        domain.PlayUpdateMessage{Kind: domain.UpdateQueued, Track: track, QueueSize: 2},
			wantAuthor: "Queued",
			wantFields: 1,
		},
		{
			name:       "removed without details",
			msg:        domain.PlayUpdateMessage{Kind: domain.UpdateRemoved, Track: track},
			wantAuthor: "Removed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embed, _ := n.render(context.Background(), 3, tt.msg)
			if embed.Title != tt.wantTitle {
				t.Errorf("expected title %q, got %q", tt.wantTitle, embed.Title)
			}
			if tt.wantAuthor != "" && (embed.Author == nil || embed.Author.Name != tt.wantAuthor) {
				t.Errorf("expected author %q, got %+v", tt.wantAuthor, embed.Author)
			}
			if len(embed.Fields) != tt.wantFields {
				t.Errorf("expected %d fields, got %d", tt.wantFields, len(embed.Fields))
			}
		})
	}
}

func TestNotifier_RenderLengthUnknown(t *testing.T) {
	n := NewNotifier(nil, NewComponentRouter(), nil)
	embed, _ := n.render(context.Background(), 3, domain.PlayUpdateMessage{
		Kind:  domain.UpdatePlaying,
		Track: &domain.ResolvedTrack{Title: "Song", SourceName: "other"},
	})

	if got, _ := fieldValue(embed, "Length"); got != "Unknown" {
		t.Errorf("expected Unknown length, got %q", got)
	}
}

func TestNotifier_RenderAddProgress(t *testing.T) {
	n := NewNotifier(nil, NewComponentRouter(), nil)
	recent := []*domain.ResolvedTrack{{Title: "a`b"}, {Title: "c"}}

	embed, components := n.render(context.Background(), 3, domain.AddProgressMessage{
		Total:    5,
		Queued:   2,
		Recent:   recent,
		CancelID: "cancel-1",
	})

	if embed.Description != "ab\nc\n" {
		t.Errorf("expected window titles, got %q", embed.Description)
	}
	if embed.Footer.Text != "2/5 queued" {
		t.Errorf("expected running counter, got %q", embed.Footer.Text)
	}
	if len(components) != 1 {
		t.Fatalf("expected cancel button row, got %d components", len(components))
	}
	row := components[0].(discordgo.ActionsRow)
	button := row.Components[0].(discordgo.Button)
	if button.CustomID != "cancel-1" {
		t.Errorf("expected custom id cancel-1, got %q", button.CustomID)
	}

	embed, components = n.render(context.Background(), 3, domain.AddProgressMessage{
		Total:    5,
		Queued:   4,
		Failed:   1,
		CancelID: "cancel-1",
		Finished: true,
	})
	if components != nil {
		t.Error("expected no cancel button once finished")
	}
	if embed.Footer.Text != "finished 4/5, 1 failed" {
		t.Errorf("expected finished counter, got %q", embed.Footer.Text)
	}
	if embed.Title != "Added tracks" {
		t.Errorf("expected title Added tracks, got %q", embed.Title)
	}
}

func TestNotifier_RenderError(t *testing.T) {
	n := NewNotifier(nil, NewComponentRouter(), nil)
	embed, _ := n.render(context.Background(), 3, domain.ErrorMessage{Text: "No results found"})

	if embed.Color != colorRed {
		t.Errorf("expected red, got %x", embed.Color)
	}
	if embed.Description != "No results found" {
		t.Errorf("expected error text, got %q", embed.Description)
	}
}
