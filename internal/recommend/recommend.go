// Package recommend builds song recommendations from a static audio-feature
// dataset. A Recommender is constructed once from a CSV snapshot and then
// answers three kinds of queries: similarity to a seed track, similarity to
// a mood point, and cluster exploration. All state is immutable after
// construction, so one instance is safe for concurrent readers.
package recommend

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/vibematch/vibematch/internal/cluster"
	"github.com/vibematch/vibematch/internal/dataset"
	"github.com/vibematch/vibematch/internal/neighbors"
	"github.com/vibematch/vibematch/internal/scale"
)

// Defaults applied when Config fields or query parameters are left zero.
const (
	DefaultClusters     = 5
	DefaultNeighborPool = 30
	DefaultK            = 10
	DefaultSeed         = 42
	DefaultSearchLimit  = 50
)

// dedupeHeadroom widens neighbor queries beyond the requested k so that
// dropping duplicate (name, artists) pairs still leaves k results.
const dedupeHeadroom = 5

var (
	// ErrTrackNotFound is returned when no dataset row matches a seed name.
	ErrTrackNotFound = errors.New("recommend: track not found")

	// ErrAmbiguousTrack is returned when a seed name matches several
	// distinct tracks. The concrete error is *AmbiguousTrackError.
	ErrAmbiguousTrack = errors.New("recommend: track name is ambiguous")

	// ErrUnknownMood is returned for mood preset names that do not exist.
	ErrUnknownMood = errors.New("recommend: unknown mood preset")
)

// AmbiguousTrackError lists the distinct artists matching an ambiguous seed
// name so callers can prompt for a narrower query.
type AmbiguousTrackError struct {
	Name    string
	Artists []string
}

func (e *AmbiguousTrackError) Error() string {
	return fmt.Sprintf("recommend: %q matches %d different tracks (artists: %s)",
		e.Name, len(e.Artists), strings.Join(e.Artists, "; "))
}

// Is makes errors.Is(err, ErrAmbiguousTrack) hold for this type.
func (e *AmbiguousTrackError) Is(target error) bool {
	return target == ErrAmbiguousTrack
}

// MoodValueError reports a rejected mood override: either the feature name
// is not a feature column, or the value falls outside the feature's valid
// range. Values are never clamped.
type MoodValueError struct {
	Feature string
	Value   float64
	Min     float64
	Max     float64
	Unknown bool // feature name is not a feature column
}

func (e *MoodValueError) Error() string {
	if e.Unknown {
		return fmt.Sprintf("recommend: unknown mood feature %q", e.Feature)
	}
	return fmt.Sprintf("recommend: %s=%g is outside the valid range [%g, %g]",
		e.Feature, e.Value, e.Min, e.Max)
}

// featureRanges bounds user-supplied mood overrides. Normalized audio
// features live in [0, 1]; the remaining ranges follow the dataset export.
// Columns without an entry (custom feature sets) accept any value.
var featureRanges = map[string][2]float64{
	"danceability":     {0, 1},
	"energy":           {0, 1},
	"speechiness":      {0, 1},
	"acousticness":     {0, 1},
	"instrumentalness": {0, 1},
	"liveness":         {0, 1},
	"valence":          {0, 1},
	"loudness":         {-60, 5},
	"tempo":            {0, 250},
	"duration_ms":      {0, math.MaxFloat64},
	"popularity":       {0, 100},
}

// Config carries the construction parameters. Zero fields select defaults.
type Config struct {
	Clusters       int      // number of mood clusters
	NeighborPool   int      // minimum neighbor pool for dedupe headroom
	Seed           uint64   // seed for clustering and sampling, 0 selects DefaultSeed
	MaxIterations  int      // k-means iteration cap, 0 selects the cluster default
	FeatureColumns []string // nil selects dataset.FeatureColumns()
}

func (c Config) withDefaults() Config {
	if c.Clusters <= 0 {
		c.Clusters = DefaultClusters
	}
	if c.NeighborPool <= 0 {
		c.NeighborPool = DefaultNeighborPool
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	if len(c.FeatureColumns) == 0 {
		c.FeatureColumns = dataset.FeatureColumns()
	}
	return c
}

// Recommendation is one result row of a similarity query.
type Recommendation struct {
	Rank     int
	Row      int
	Track    dataset.Track
	Cluster  int
	Distance float64
}

// TrackInfo pairs a dataset row with its cluster assignment.
type TrackInfo struct {
	Row     int
	Track   dataset.Track
	Cluster int
}

// ClusterSummary describes one cluster: its size, a mood label derived
// from its centroid, and the raw (unscaled) mean of every feature column
// over its members. Means is nil and Label empty for an empty cluster.
type ClusterSummary struct {
	ID    int
	Size  int
	Label string
	Means map[string]float64
}

// trackKey identifies a logical track. Rows that share it are editions of
// the same recording (the dataset repeats tracks across genre rows).
type trackKey struct {
	name    string
	artists string
}

func keyFor(t dataset.Track) trackKey {
	return trackKey{name: strings.ToLower(t.Name), artists: strings.ToLower(t.Artists)}
}

// Recommender answers similarity and cluster queries over one dataset
// snapshot.
type Recommender struct {
	cfg    Config
	table  *dataset.Table
	scaler *scale.Scaler
	model  *cluster.Model
	index  *neighbors.Index
	scaled *mat.Dense
	byName map[string][]int // lower(track_name) -> ascending row indices
}

// New builds a recommender from an already-loaded table: it fits the scaler,
// standardizes the features, fits the cluster model, and indexes the rows
// for neighbor queries.
func New(table *dataset.Table, cfg Config) (*Recommender, error) {
	cfg = cfg.withDefaults()

	scaler := &scale.Scaler{}
	scaled, err := scaler.FitTransform(table.Features())
	if err != nil {
		return nil, fmt.Errorf("standardizing features: %w", err)
	}

	model, err := cluster.Fit(scaled, cluster.Config{
		K:             cfg.Clusters,
		Seed:          cfg.Seed,
		MaxIterations: cfg.MaxIterations,
	})
	if err != nil {
		return nil, fmt.Errorf("clustering tracks: %w", err)
	}

	byName := make(map[string][]int)
	for i := 0; i < table.Len(); i++ {
		key := strings.ToLower(table.Track(i).Name)
		byName[key] = append(byName[key], i)
	}

	return &Recommender{
		cfg:    cfg,
		table:  table,
		scaler: scaler,
		model:  model,
		index:  neighbors.New(scaled),
		scaled: scaled,
		byName: byName,
	}, nil
}

// FromCSV builds a recommender from a CSV file on disk.
func FromCSV(path string, cfg Config) (*Recommender, error) {
	cfg = cfg.withDefaults()
	table, err := dataset.Load(path, cfg.FeatureColumns)
	if err != nil {
		return nil, err
	}
	return New(table, cfg)
}

// FromReader builds a recommender from CSV data in r.
func FromReader(r io.Reader, cfg Config) (*Recommender, error) {
	cfg = cfg.withDefaults()
	table, err := dataset.Read(r, cfg.FeatureColumns)
	if err != nil {
		return nil, err
	}
	return New(table, cfg)
}

// RecommendByTrack returns up to k tracks similar to the named seed track,
// ascending by distance. Every edition of the seed (rows sharing its name
// and artists, case-insensitive) is excluded from results, and candidate
// editions of the same track are collapsed to the closest one. The artist
// argument narrows resolution by case-insensitive substring when several
// tracks share a name. k <= 0 selects DefaultK.
func (r *Recommender) RecommendByTrack(name, artist string, k int) (TrackInfo, []Recommendation, error) {
	k = r.clampK(k)

	seedRow, seedRows, err := r.resolveTrack(name, artist)
	if err != nil {
		return TrackInfo{}, nil, err
	}

	exclude := make(map[int]bool, len(seedRows))
	for _, row := range seedRows {
		exclude[row] = true
	}

	hits, err := r.index.Query(r.scaled.RawRowView(seedRow), r.pool(k), exclude)
	if err != nil {
		return TrackInfo{}, nil, fmt.Errorf("querying neighbors: %w", err)
	}

	seed := TrackInfo{Row: seedRow, Track: r.table.Track(seedRow), Cluster: r.model.Label(seedRow)}
	return seed, r.dedupe(hits, k), nil
}

// RecommendByMood returns up to k tracks closest to a mood point, ascending
// by distance. values maps feature column names to raw (unscaled) targets;
// unspecified columns fall back to the dataset mean, which is the neutral
// point after standardization. k <= 0 selects DefaultK.
func (r *Recommender) RecommendByMood(values map[string]float64, k int) ([]Recommendation, error) {
	k = r.clampK(k)

	raw, err := r.moodVector(values)
	if err != nil {
		return nil, err
	}
	vec, err := r.scaler.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("standardizing mood vector: %w", err)
	}

	hits, err := r.index.Query(vec, r.pool(k), nil)
	if err != nil {
		return nil, fmt.Errorf("querying neighbors: %w", err)
	}
	return r.dedupe(hits, k), nil
}

// resolveTrack maps a name and optional artist hint to a seed row plus all
// rows of the same logical track. Distinct artists under one name is an
// ambiguity the caller has to resolve.
func (r *Recommender) resolveTrack(name, artist string) (int, []int, error) {
	rows := r.byName[strings.ToLower(name)]
	if artist != "" {
		hint := strings.ToLower(artist)
		filtered := make([]int, 0, len(rows))
		for _, row := range rows {
			if strings.Contains(strings.ToLower(r.table.Track(row).Artists), hint) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	if len(rows) == 0 {
		return 0, nil, fmt.Errorf("%w: %q", ErrTrackNotFound, name)
	}

	var artists []string
	seen := make(map[trackKey]bool, 1)
	for _, row := range rows {
		key := keyFor(r.table.Track(row))
		if !seen[key] {
			seen[key] = true
			artists = append(artists, r.table.Track(row).Artists)
		}
	}
	if len(artists) > 1 {
		sort.Strings(artists)
		return 0, nil, &AmbiguousTrackError{Name: name, Artists: artists}
	}
	return rows[0], rows, nil
}

// moodVector builds a raw feature vector from partial overrides. Overrides
// are validated in sorted name order so the reported error is stable.
func (r *Recommender) moodVector(values map[string]float64) ([]float64, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	vec := r.scaler.Means()
	for _, name := range names {
		idx := r.table.ColumnIndex(name)
		if idx < 0 {
			return nil, &MoodValueError{Feature: name, Value: values[name], Unknown: true}
		}
		v := values[name]
		if bounds, ok := featureRanges[name]; ok && (v < bounds[0] || v > bounds[1]) {
			return nil, &MoodValueError{Feature: name, Value: v, Min: bounds[0], Max: bounds[1]}
		}
		vec[idx] = v
	}
	return vec, nil
}

// clampK normalizes a requested result count: non-positive selects DefaultK,
// anything beyond the dataset degrades to "all rows" rather than failing.
func (r *Recommender) clampK(k int) int {
	if k <= 0 {
		k = DefaultK
	}
	if k > r.table.Len() {
		k = r.table.Len()
	}
	return k
}

// pool sizes a neighbor query so deduplication has headroom. k is already
// clamped to the table size, so the sum cannot overflow.
func (r *Recommender) pool(k int) int {
	if p := k + dedupeHeadroom; p > r.cfg.NeighborPool {
		return p
	}
	return r.cfg.NeighborPool
}

// dedupe collapses hits to one row per logical track, keeping the closest,
// and returns the first k as ranked recommendations. Hits must already be
// in ascending distance order.
func (r *Recommender) dedupe(hits []neighbors.Hit, k int) []Recommendation {
	recs := make([]Recommendation, 0, min(k, len(hits)))
	seen := make(map[trackKey]bool, len(hits))
	for _, h := range hits {
		if len(recs) == k {
			break
		}
		track := r.table.Track(h.Row)
		key := keyFor(track)
		if seen[key] {
			continue
		}
		seen[key] = true
		recs = append(recs, Recommendation{
			Rank:     len(recs) + 1,
			Row:      h.Row,
			Track:    track,
			Cluster:  r.model.Label(h.Row),
			Distance: h.Distance,
		})
	}
	return recs
}

// Len returns the number of usable dataset rows.
func (r *Recommender) Len() int {
	return r.table.Len()
}

// Dropped returns how many input rows were discarded during cleaning.
func (r *Recommender) Dropped() int {
	return r.table.Dropped()
}

// Clusters returns the number of fitted clusters.
func (r *Recommender) Clusters() int {
	return r.model.K()
}

// Iterations returns how many k-means iterations the cluster fit ran.
func (r *Recommender) Iterations() int {
	return r.model.Iterations()
}

// Features returns the number of feature columns the scaler was fitted on.
func (r *Recommender) Features() int {
	return r.scaler.Dim()
}

// Columns returns the feature column order.
func (r *Recommender) Columns() []string {
	return r.table.Columns()
}
