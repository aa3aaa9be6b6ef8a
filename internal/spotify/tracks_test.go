package spotify

import (
	"context"
	"errors"
	"testing"

	"github.com/zmb3/spotify/v2"
)

func TestConvertTrack(t *testing.T) {
	tests := []struct {
		name        string
		full        spotify.FullTrack
		wantID      string
		wantName    string
		wantArtists string
		wantURL     string
	}{
		{
			name: "single artist",
			full: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{
					ID:   "track123",
					Name: "Test Song",
					Artists: []spotify.SimpleArtist{
						{Name: "Artist One"},
					},
				},
			},
			wantID:      "track123",
			wantName:    "Test Song",
			wantArtists: "Artist One",
			wantURL:     "https://open.spotify.com/track/track123",
		},
		{
			name: "multiple artists joined",
			full: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{
					ID:   "track456",
					Name: "Collab Track",
					Artists: []spotify.SimpleArtist{
						{Name: "Artist A"},
						{Name: "Artist B"},
						{Name: "Artist C"},
					},
				},
			},
			wantID:      "track456",
			wantName:    "Collab Track",
			wantArtists: "Artist A, Artist B, Artist C",
			wantURL:     "https://open.spotify.com/track/track456",
		},
		{
			name: "no artists",
			full: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{
					ID:   "track789",
					Name: "Orphan Track",
				},
			},
			wantID:      "track789",
			wantName:    "Orphan Track",
			wantArtists: "",
			wantURL:     "https://open.spotify.com/track/track789",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertTrack(tt.full)

			if got.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", got.ID, tt.wantID)
			}
			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
			if got.Artists != tt.wantArtists {
				t.Errorf("Artists = %q, want %q", got.Artists, tt.wantArtists)
			}
			if got.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", got.URL, tt.wantURL)
			}
		})
	}
}

func TestTrackURL(t *testing.T) {
	if got := TrackURL("5SuOikwiRyPMVoIQDJUgSV"); got != "https://open.spotify.com/track/5SuOikwiRyPMVoIQDJUgSV" {
		t.Errorf("TrackURL() = %q", got)
	}
	if got := TrackURL(""); got != "" {
		t.Errorf("TrackURL(\"\") = %q, want empty", got)
	}
}

func TestNewSearchRequiresCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "both empty", cfg: Config{}},
		{name: "missing secret", cfg: Config{ClientID: "id"}},
		{name: "missing id", cfg: Config{ClientSecret: "secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSearch(context.Background(), tt.cfg); !errors.Is(err, ErrNoCredentials) {
				t.Errorf("NewSearch() error = %v, want ErrNoCredentials", err)
			}
		})
	}
}
