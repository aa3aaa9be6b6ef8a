// Package dataset loads and cleans the audio-feature track table that every
// other component is built from.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// featureColumns is the canonical feature column order. Every feature vector
// in the system (matrix rows, mood vectors, centroids) follows it.
var featureColumns = []string{
	"danceability",
	"energy",
	"loudness",
	"speechiness",
	"acousticness",
	"instrumentalness",
	"liveness",
	"valence",
	"tempo",
	"duration_ms",
	"popularity",
}

// Metadata column names.
const (
	colTrackID   = "track_id"
	colTrackName = "track_name"
	colArtists   = "artists"
	colGenre     = "track_genre"
)

// ErrNoUsableRows is returned when cleaning discards every input row.
var ErrNoUsableRows = errors.New("dataset: no rows with complete feature values")

// SchemaError reports required columns missing from the input header.
// It is returned before any row is processed.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "dataset: missing required columns: " + strings.Join(e.Missing, ", ")
}

// FeatureColumns returns the canonical feature column order.
func FeatureColumns() []string {
	return slices.Clone(featureColumns)
}

// Track identifies one row of the dataset.
type Track struct {
	ID      string // Spotify track id, may be empty
	Name    string
	Artists string // comma-separated artist names, as exported
	Genre   string
}

// Table is the cleaned dataset: one Track per row plus a raw feature matrix
// in the same row order. The row index is the join key between the two and
// stays meaningful for the lifetime of the table.
type Table struct {
	tracks   []Track
	features *mat.Dense
	columns  []string
	dropped  int
}

// Load reads a CSV file from disk. See Read for the contract.
func Load(path string, columns []string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	return Read(f, columns)
}

// Read parses a CSV export into a Table. The first record must be a header
// naming all feature and metadata columns; a *SchemaError is returned before
// any row processing when one is absent. Rows missing any feature value are
// dropped: a value is missing when the cell is empty or does not parse as a
// finite number (CSV carries no typed nulls). Empty metadata cells are kept
// as empty strings. A nil or empty columns slice selects the canonical
// feature columns.
func Read(r io.Reader, columns []string) (*Table, error) {
	if len(columns) == 0 {
		columns = featureColumns
	}

	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range columns {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	for _, name := range []string{colTrackID, colTrackName, colArtists, colGenre} {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	var (
		tracks  []Track
		values  []float64
		dropped int
		row     = make([]float64, len(columns))
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		if !parseFeatures(rec, idx, columns, row) {
			dropped++
			continue
		}
		values = append(values, row...)
		tracks = append(tracks, Track{
			ID:      field(rec, idx, colTrackID),
			Name:    field(rec, idx, colTrackName),
			Artists: field(rec, idx, colArtists),
			Genre:   field(rec, idx, colGenre),
		})
	}
	if len(tracks) == 0 {
		return nil, ErrNoUsableRows
	}

	return &Table{
		tracks:   tracks,
		features: mat.NewDense(len(tracks), len(columns), values),
		columns:  slices.Clone(columns),
		dropped:  dropped,
	}, nil
}

// parseFeatures fills dst with the row's feature values in column order.
// It reports false when any value is missing.
func parseFeatures(rec []string, idx map[string]int, columns []string, dst []float64) bool {
	for i, name := range columns {
		cell := strings.TrimSpace(rec[idx[name]])
		if cell == "" {
			return false
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		dst[i] = v
	}
	return true
}

func field(rec []string, idx map[string]int, name string) string {
	return strings.TrimSpace(rec[idx[name]])
}

// Len returns the number of usable rows.
func (t *Table) Len() int {
	return len(t.tracks)
}

// Dropped returns how many input rows were discarded during cleaning.
func (t *Table) Dropped() int {
	return t.dropped
}

// Columns returns the feature column order of the table.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// ColumnIndex returns the position of a feature column, or -1 when the
// column is not part of the table.
func (t *Table) ColumnIndex(name string) int {
	return slices.Index(t.columns, name)
}

// Features returns the raw feature matrix, one row per track. The matrix is
// shared, not copied; callers must treat it as read-only.
func (t *Table) Features() *mat.Dense {
	return t.features
}

// FeatureRow returns a copy of the raw feature values for row i.
func (t *Table) FeatureRow(i int) []float64 {
	return mat.Row(nil, i, t.features)
}

// Track returns the metadata for row i.
func (t *Table) Track(i int) Track {
	return t.tracks[i]
}
