package recommend

import (
	"math/rand/v2"
	"strings"
)

// DescribeClusters summarizes every cluster in id order. Means are computed
// over the raw feature values so the numbers stay interpretable (a mean
// tempo of 120 instead of a z-score).
func (r *Recommender) DescribeClusters() []ClusterSummary {
	cols := r.table.Columns()
	feats := r.table.Features()

	summaries := make([]ClusterSummary, r.model.K())
	for id := 0; id < r.model.K(); id++ {
		members, _ := r.model.Members(id)
		summary := ClusterSummary{ID: id, Size: len(members)}
		if len(members) > 0 {
			summary.Means = make(map[string]float64, len(cols))
			for j, col := range cols {
				var sum float64
				for _, row := range members {
					sum += feats.At(row, j)
				}
				summary.Means[col] = sum / float64(len(members))
			}
			summary.Label = moodLabel(summary.Means)
		}
		summaries[id] = summary
	}
	return summaries
}

// moodLabel names a cluster from its mean energy/valence quadrant, with an
// acoustic modifier when acousticness dominates.
func moodLabel(means map[string]float64) string {
	highEnergy := means["energy"] > 0.6
	highValence := means["valence"] > 0.5

	var name string
	switch {
	case highEnergy && highValence:
		name = "Upbeat Party"
	case highEnergy && !highValence:
		name = "Intense & Dark"
	case !highEnergy && highValence:
		name = "Chill & Happy"
	default:
		name = "Reflective & Melancholy"
	}

	if means["acousticness"] > 0.6 {
		return name + " (Acoustic)"
	}
	return name
}

// SampleClusterTracks returns a deterministic sample of up to n tracks from
// a cluster: the same recommender always draws the same sample for a given
// cluster. n larger than the cluster returns every member, n <= 0 returns
// an empty slice.
func (r *Recommender) SampleClusterTracks(id, n int) ([]TrackInfo, error) {
	members, err := r.model.Members(id)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []TrackInfo{}, nil
	}

	rng := rand.New(rand.NewPCG(r.cfg.Seed, uint64(id)))
	rng.Shuffle(len(members), func(i, j int) {
		members[i], members[j] = members[j], members[i]
	})
	if n < len(members) {
		members = members[:n]
	}

	out := make([]TrackInfo, len(members))
	for i, row := range members {
		out[i] = TrackInfo{Row: row, Track: r.table.Track(row), Cluster: id}
	}
	return out, nil
}

// SearchTracks lists tracks whose name contains query, case-insensitive,
// optionally narrowed by an artists substring. One entry is returned per
// logical track (lowest row wins), in row order, capped at limit.
// limit <= 0 selects DefaultSearchLimit.
func (r *Recommender) SearchTracks(query, artist string, limit int) []TrackInfo {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := strings.ToLower(query)
	hint := strings.ToLower(artist)

	out := make([]TrackInfo, 0, min(limit, r.table.Len()))
	seen := make(map[trackKey]bool)
	for i := 0; i < r.table.Len() && len(out) < limit; i++ {
		track := r.table.Track(i)
		if q != "" && !strings.Contains(strings.ToLower(track.Name), q) {
			continue
		}
		if hint != "" && !strings.Contains(strings.ToLower(track.Artists), hint) {
			continue
		}
		key := keyFor(track)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, TrackInfo{Row: i, Track: track, Cluster: r.model.Label(i)})
	}
	return out
}
