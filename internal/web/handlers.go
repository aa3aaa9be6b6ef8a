package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vibematch/vibematch/internal/cluster"
	"github.com/vibematch/vibematch/internal/library"
	"github.com/vibematch/vibematch/internal/moodai"
	"github.com/vibematch/vibematch/internal/recommend"
	"github.com/vibematch/vibematch/internal/spotify"
)

const maxBodyBytes = 1 << 20

// Handlers contains HTTP handlers for the recommendation API.
type Handlers struct {
	rec  *recommend.Recommender
	mood *moodai.Client
	lib  *library.Store
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(rec *recommend.Recommender, mood *moodai.Client, lib *library.Store) *Handlers {
	return &Handlers{
		rec:  rec,
		mood: mood,
		lib:  lib,
	}
}

type errorResponse struct {
	Error      string   `json:"error"`
	Candidates []string `json:"candidates,omitempty"`
}

type trackJSON struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Artists string `json:"artists"`
	Genre   string `json:"genre,omitempty"`
	Cluster int    `json:"cluster"`
	URL     string `json:"url,omitempty"`
}

type recommendationJSON struct {
	Rank     int     `json:"rank"`
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Artists  string  `json:"artists"`
	Genre    string  `json:"genre,omitempty"`
	Cluster  int     `json:"cluster"`
	Distance float64 `json:"distance"`
	URL      string  `json:"url,omitempty"`
}

type scoreJSON struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type clusterJSON struct {
	ID    int                `json:"id"`
	Size  int                `json:"size"`
	Label string             `json:"label,omitempty"`
	Means map[string]float64 `json:"means,omitempty"`
}

type playlistTrackJSON struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Artists string `json:"artists"`
	Genre   string `json:"genre,omitempty"`
	URL     string `json:"url,omitempty"`
}

type playlistJSON struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	CreatedAt  time.Time           `json:"created_at"`
	TrackCount int                 `json:"track_count"`
	Tracks     []playlistTrackJSON `json:"tracks,omitempty"`
}

// SearchTracks handles GET /api/search.
func (h *Handlers) SearchTracks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("track")
	artist := r.URL.Query().Get("artist")
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
		return
	}

	results := h.rec.SearchTracks(query, artist, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"results": toTrackJSONs(results),
	})
}

// RecommendByTrack handles POST /api/recommend/track.
func (h *Handlers) RecommendByTrack(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Artist string `json:"artist"`
		K      int    `json:"k"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "track name is required"})
		return
	}

	seed, recs, err := h.rec.RecommendByTrack(req.Name, req.Artist, req.K)
	if err != nil {
		writeError(w, err)
		return
	}

	recommendationsServed.WithLabelValues("track").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"seed":            toTrackJSON(seed),
		"recommendations": toRecommendationJSONs(recs),
	})
}

// RecommendByMood handles POST /api/recommend/mood.
func (h *Handlers) RecommendByMood(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Features map[string]float64 `json:"features"`
		K        int                `json:"k"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	recs, err := h.rec.RecommendByMood(req.Features, req.K)
	if err != nil {
		writeError(w, err)
		return
	}

	recommendationsServed.WithLabelValues("mood").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"recommendations": toRecommendationJSONs(recs),
	})
}

// RecommendByText handles POST /api/recommend/text.
func (h *Handlers) RecommendByText(w http.ResponseWriter, r *http.Request) {
	if h.mood == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "mood classification is not configured"})
		return
	}

	var req struct {
		Text string `json:"text"`
		N    int    `json:"n"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required"})
		return
	}

	scores, err := h.mood.ClassifyMood(r.Context(), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	mood := scores[0].Label
	n := req.N
	if n <= 0 {
		n = recommend.DefaultK
	}
	tracks, err := h.rec.RecommendByPreset(mood, n)
	if err != nil {
		writeError(w, err)
		return
	}

	recommendationsServed.WithLabelValues("text").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"mood":   mood,
		"scores": toScoreJSONs(scores),
		"tracks": toTrackJSONs(tracks),
	})
}

// Moods handles GET /api/moods.
func (h *Handlers) Moods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"moods": recommend.Presets(),
	})
}

// Clusters handles GET /api/clusters.
func (h *Handlers) Clusters(w http.ResponseWriter, r *http.Request) {
	summaries := h.rec.DescribeClusters()
	clusters := make([]clusterJSON, 0, len(summaries))
	for i := 0; i < len(summaries); i++ {
		s := summaries[i]
		clusters = append(clusters, clusterJSON{ID: s.ID, Size: s.Size, Label: s.Label, Means: s.Means})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"clusters": clusters,
	})
}

// ClusterTracks handles GET /api/clusters/{id}/tracks.
func (h *Handlers) ClusterTracks(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cluster id"})
		return
	}
	n, err := queryInt(r, "n", recommend.DefaultK)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid n"})
		return
	}

	tracks, err := h.rec.SampleClusterTracks(id, n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cluster": id,
		"tracks":  toTrackJSONs(tracks),
	})
}

// CreatePlaylist handles POST /api/playlists.
func (h *Handlers) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	if h.lib == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "playlist library is not configured"})
		return
	}

	var req struct {
		Name   string              `json:"name"`
		Tracks []playlistTrackJSON `json:"tracks"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "playlist name is required"})
		return
	}

	tracks := make([]library.Track, 0, len(req.Tracks))
	for i := 0; i < len(req.Tracks); i++ {
		t := req.Tracks[i]
		tracks = append(tracks, library.Track{ID: t.ID, Name: t.Name, Artists: t.Artists, Genre: t.Genre})
	}

	playlist, err := h.lib.SavePlaylist(r.Context(), req.Name, tracks)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"playlist": toPlaylistJSON(playlist, true),
	})
}

// ListPlaylists handles GET /api/playlists.
func (h *Handlers) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	if h.lib == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "playlist library is not configured"})
		return
	}

	playlists, err := h.lib.ListPlaylists(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]playlistJSON, 0, len(playlists))
	for i := 0; i < len(playlists); i++ {
		out = append(out, toPlaylistJSON(&playlists[i], false))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"playlists": out,
	})
}

// GetPlaylist handles GET /api/playlists/{id}.
func (h *Handlers) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	if h.lib == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "playlist library is not configured"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid playlist id"})
		return
	}

	playlist, err := h.lib.GetPlaylist(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"playlist": toPlaylistJSON(playlist, true),
	})
}

// DeletePlaylist handles DELETE /api/playlists/{id}.
func (h *Handlers) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	if h.lib == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "playlist library is not configured"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid playlist id"})
		return
	}

	if err := h.lib.DeletePlaylist(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"tracks":   h.rec.Len(),
		"features": h.rec.Features(),
		"clusters": h.rec.Clusters(),
	})
}

func toTrackJSON(t recommend.TrackInfo) trackJSON {
	return trackJSON{
		ID:      t.Track.ID,
		Name:    t.Track.Name,
		Artists: t.Track.Artists,
		Genre:   t.Track.Genre,
		Cluster: t.Cluster,
		URL:     spotify.TrackURL(t.Track.ID),
	}
}

func toTrackJSONs(tracks []recommend.TrackInfo) []trackJSON {
	out := make([]trackJSON, 0, len(tracks))
	for i := 0; i < len(tracks); i++ {
		out = append(out, toTrackJSON(tracks[i]))
	}
	return out
}

func toRecommendationJSONs(recs []recommend.Recommendation) []recommendationJSON {
	out := make([]recommendationJSON, 0, len(recs))
	for i := 0; i < len(recs); i++ {
		rec := recs[i]
		out = append(out, recommendationJSON{
			Rank:     rec.Rank,
			ID:       rec.Track.ID,
			Name:     rec.Track.Name,
			Artists:  rec.Track.Artists,
			Genre:    rec.Track.Genre,
			Cluster:  rec.Cluster,
			Distance: rec.Distance,
			URL:      spotify.TrackURL(rec.Track.ID),
		})
	}
	return out
}

func toScoreJSONs(scores []moodai.LabelScore) []scoreJSON {
	out := make([]scoreJSON, 0, len(scores))
	for i := 0; i < len(scores); i++ {
		out = append(out, scoreJSON{Label: scores[i].Label, Score: scores[i].Score})
	}
	return out
}

func toPlaylistJSON(p *library.Playlist, withTracks bool) playlistJSON {
	out := playlistJSON{
		ID:         p.ID.String(),
		Name:       p.Name,
		CreatedAt:  p.CreatedAt,
		TrackCount: p.TrackCount,
	}
	if withTracks {
		out.Tracks = make([]playlistTrackJSON, 0, len(p.Tracks))
		for i := 0; i < len(p.Tracks); i++ {
			t := p.Tracks[i]
			out.Tracks = append(out.Tracks, playlistTrackJSON{
				ID:      t.ID,
				Name:    t.Name,
				Artists: t.Artists,
				Genre:   t.Genre,
				URL:     spotify.TrackURL(t.ID),
			})
		}
	}
	return out
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var ambiguous *recommend.AmbiguousTrackError
	var moodValue *recommend.MoodValueError
	switch {
	case errors.As(err, &ambiguous):
		status = http.StatusConflict
		resp.Candidates = ambiguous.Artists
	case errors.Is(err, recommend.ErrAmbiguousTrack):
		status = http.StatusConflict
	case errors.Is(err, recommend.ErrTrackNotFound),
		errors.Is(err, cluster.ErrUnknownCluster),
		errors.Is(err, library.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &moodValue),
		errors.Is(err, recommend.ErrUnknownMood):
		status = http.StatusBadRequest
	case errors.Is(err, moodai.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
