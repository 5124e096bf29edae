package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

func TestYoutubeVideoID(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://www.youtube.com/watch?v=Pq_mbTSR-a0", "Pq_mbTSR-a0", true},
		{"https://www.youtube.com/watch?v=abc&list=PL1", "abc", true},
		{"https://youtu.be/abc", "", false},
		{"https://soundcloud.com/a/b", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := youtubeVideoID(tt.url)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.want, tt.wantOK, got, ok)
			}
		})
	}
}

func TestSponsorBlockClient_Segments(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/skipSegments" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"segment": [30.5, 45], "category": "sponsor"},
			{"segment": [0, 5.25], "category": "intro"}
		]`))
	}))
	defer server.Close()

	client := NewSponsorBlockClient(server.Client(), rate.NewLimiter(rate.Inf, 1), server.URL)
	segments, err := client.Segments(context.Background(), "https://www.youtube.com/watch?v=vid123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.Segment{
		{Start: 30500 * time.Millisecond, End: 45 * time.Second},
		{Start: 0, End: 5250 * time.Millisecond},
	}
	if !slices.Equal(segments, want) {
		t.Errorf("expected %v, got %v", want, segments)
	}

	if got := gotQuery["videoID"]; !slices.Equal(got, []string{"vid123"}) {
		t.Errorf("expected videoID vid123, got %v", got)
	}
	if got := gotQuery["category"]; !slices.Equal(got, sponsorBlockCategories) {
		t.Errorf("expected categories %v, got %v", sponsorBlockCategories, got)
	}
}

func TestSponsorBlockClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewSponsorBlockClient(server.Client(), nil, server.URL)
	segments, err := client.Segments(context.Background(), "https://www.youtube.com/watch?v=vid123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 0 {
		t.Errorf("expected no segments, got %v", segments)
	}
}

func TestSponsorBlockClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
		{name: "bad json", status: http.StatusOK, body: `{"nope"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewSponsorBlockClient(server.Client(), nil, server.URL)
			_, err := client.Segments(context.Background(), "https://www.youtube.com/watch?v=vid123")
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSponsorBlockClient_SkipsNonYouTube(t *testing.T) {
	client := NewSponsorBlockClient(nil, nil, "http://127.0.0.1:1")
	segments, err := client.Segments(context.Background(), "https://soundcloud.com/a/b")
	if err != nil || segments != nil {
		t.Errorf("expected no lookup, got %v, %v", segments, err)
	}
}
