package spotify

// trackBaseURL is the public playback page for a track id.
const trackBaseURL = "https://open.spotify.com/track/"

// Track is a catalog search result with enough metadata to display and link.
type Track struct {
	ID      string
	Name    string
	Artists string // comma-separated artist names
	URL     string // public playback link
}

// TrackURL builds the public playback link for a track id. Dataset rows
// without an id yield an empty string.
func TrackURL(id string) string {
	if id == "" {
		return ""
	}
	return trackBaseURL + id
}
