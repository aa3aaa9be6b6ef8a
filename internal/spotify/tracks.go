package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
)

// defaultSearchLimit is used when the caller passes a non-positive limit.
const defaultSearchLimit = 10

// SearchTracks queries the Spotify catalog and returns up to limit matching
// tracks with artists joined by ", ".
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("searching tracks: %w", err)
	}
	if results.Tracks == nil {
		return []Track{}, nil
	}

	tracks := make([]Track, 0, len(results.Tracks.Tracks))
	for _, full := range results.Tracks.Tracks {
		tracks = append(tracks, convertTrack(full))
	}
	return tracks, nil
}

// convertTrack flattens a Spotify API track into the display shape.
func convertTrack(full spotify.FullTrack) Track {
	artists := make([]string, len(full.Artists))
	for i, a := range full.Artists {
		artists[i] = a.Name
	}

	id := full.ID.String()
	return Track{
		ID:      id,
		Name:    full.Name,
		Artists: strings.Join(artists, ", "),
		URL:     TrackURL(id),
	}
}
