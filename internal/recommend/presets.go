package recommend

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
)

// presetBand constrains one raw feature column. Open bands exclude their
// endpoints, closed bands include them; one-sided bands use an infinity.
type presetBand struct {
	column string
	min    float64
	max    float64
	closed bool
}

func (b presetBand) holds(v float64) bool {
	if b.closed {
		return v >= b.min && v <= b.max
	}
	return v > b.min && v < b.max
}

var inf = math.Inf(1)

// presets maps each mood label to the feature constraints a track has to
// satisfy. Bands whose column is not part of the feature set are skipped,
// so reduced column configurations still work with looser rules.
var presets = map[string][]presetBand{
	"happy": {
		{column: "valence", min: 0.7, max: inf},
		{column: "energy", min: 0.5, max: inf},
	},
	"sad": {
		{column: "valence", min: -inf, max: 0.4},
		{column: "tempo", min: -inf, max: 115},
	},
	"calm": {
		{column: "energy", min: -inf, max: 0.5},
		{column: "acousticness", min: 0.5, max: inf},
	},
	"energetic": {
		{column: "energy", min: 0.75, max: inf},
		{column: "danceability", min: 0.6, max: inf},
	},
	"focus": {
		{column: "energy", min: 0.3, max: 0.7, closed: true},
		{column: "valence", min: 0.3, max: 0.7, closed: true},
		{column: "speechiness", min: -inf, max: 0.33},
	},
	"party": {
		{column: "danceability", min: 0.7, max: inf},
		{column: "energy", min: 0.7, max: inf},
	},
}

// Presets lists the available mood preset names, sorted.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RecommendByPreset returns a deterministic sample of up to n tracks that
// satisfy a named mood preset. Presets filter on raw feature rules rather
// than ranking by distance, so an empty result is not an error: it means no
// track fits the mood's constraints. n <= 0 returns an empty slice.
func (r *Recommender) RecommendByPreset(mood string, n int) ([]TrackInfo, error) {
	bands, ok := presets[strings.ToLower(mood)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMood, mood)
	}
	if n <= 0 {
		return []TrackInfo{}, nil
	}

	var rows []int
	for i := 0; i < r.table.Len(); i++ {
		if r.fits(bands, i) {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return []TrackInfo{}, nil
	}

	// Each preset draws from its own deterministic stream.
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(mood)))
	rng := rand.New(rand.NewPCG(r.cfg.Seed, h.Sum64()))
	rng.Shuffle(len(rows), func(i, j int) {
		rows[i], rows[j] = rows[j], rows[i]
	})
	if n < len(rows) {
		rows = rows[:n]
	}

	out := make([]TrackInfo, len(rows))
	for i, row := range rows {
		out[i] = TrackInfo{Row: row, Track: r.table.Track(row), Cluster: r.model.Label(row)}
	}
	return out, nil
}

func (r *Recommender) fits(bands []presetBand, row int) bool {
	for _, b := range bands {
		j := r.table.ColumnIndex(b.column)
		if j < 0 {
			continue
		}
		if !b.holds(r.table.Features().At(row, j)) {
			return false
		}
	}
	return true
}
