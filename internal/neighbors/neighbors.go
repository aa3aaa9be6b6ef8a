// Package neighbors answers exact nearest-neighbor queries over a fixed set
// of feature rows with a full linear scan. Exact distances keep results
// reproducible, and a scan over a few hundred thousand rows is fast enough
// that no approximate structure is needed.
package neighbors

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidK is returned when a query asks for fewer than one neighbor.
	ErrInvalidK = errors.New("neighbors: k must be at least 1")

	// ErrDimensionMismatch is returned when the query vector length does
	// not match the indexed rows.
	ErrDimensionMismatch = errors.New("neighbors: query dimension mismatch")
)

// Hit is one neighbor: a row index into the indexed matrix and its Euclidean
// distance from the query point.
type Hit struct {
	Row      int
	Distance float64
}

// Index holds the rows queries run against. The zero value is not usable;
// construct with New.
type Index struct {
	data *mat.Dense
	dim  int
}

// New indexes the rows of m. The matrix is shared, not copied, and must not
// change while the index is in use.
func New(m *mat.Dense) *Index {
	_, dim := m.Dims()
	return &Index{data: m, dim: dim}
}

// Len returns the number of indexed rows.
func (ix *Index) Len() int {
	rows, _ := ix.data.Dims()
	return rows
}

// Query returns the k rows closest to vec, ordered by ascending distance
// with ties broken by lower row index. Rows present in exclude are skipped;
// exclude may be nil. When fewer than k rows remain after exclusion, all of
// them are returned.
func (ix *Index) Query(vec []float64, k int, exclude map[int]bool) ([]Hit, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if len(vec) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d values, index has %d",
			ErrDimensionMismatch, len(vec), ix.dim)
	}

	rows, _ := ix.data.Dims()
	hits := make([]Hit, 0, rows)
	for i := 0; i < rows; i++ {
		if exclude[i] {
			continue
		}
		hits = append(hits, Hit{Row: i, Distance: euclidean(vec, ix.data.RawRowView(i))})
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Distance != hits[b].Distance {
			return hits[a].Distance < hits[b].Distance
		}
		return hits[a].Row < hits[b].Row
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i, v := range a {
		d := v - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
