// Package cluster partitions standardized feature rows into k groups using
// k-means with k-means++ seeding. Fits are deterministic for a given seed:
// the random source is injected, empty clusters keep their previous centroid
// instead of being reseeded, and assignment ties resolve to the lowest
// cluster id.
package cluster

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/muesli/clusters"
	"gonum.org/v1/gonum/mat"
)

// DefaultMaxIterations bounds the Lloyd loop when Config leaves it unset.
const DefaultMaxIterations = 100

var (
	// ErrClusterCount is returned when k is not in [1, rows].
	ErrClusterCount = errors.New("cluster: cluster count must be between 1 and the number of rows")

	// ErrUnknownCluster is returned for cluster ids outside [0, k).
	ErrUnknownCluster = errors.New("cluster: unknown cluster id")
)

// Config controls a fit.
type Config struct {
	K             int
	Seed          uint64
	MaxIterations int // 0 selects DefaultMaxIterations
}

// Model is a fitted partition. Cluster ids are dense in [0, k) and row
// indices refer to the matrix the model was fitted on.
type Model struct {
	k          int
	labels     []int
	centroids  *mat.Dense
	members    [][]int
	iterations int
}

// Fit clusters the rows of m. The matrix is expected to already be in the
// space distances should be measured in (standardized features).
func Fit(m mat.Matrix, cfg Config) (*Model, error) {
	rows, cols := m.Dims()
	if cfg.K < 1 || cfg.K > rows {
		return nil, fmt.Errorf("%w: k=%d with %d rows", ErrClusterCount, cfg.K, rows)
	}
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	obs := make(clusters.Observations, rows)
	for i := 0; i < rows; i++ {
		obs[i] = clusters.Coordinates(mat.Row(nil, i, m))
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, 0))
	cc := seedCenters(obs, cfg.K, rng)

	labels := make([]int, rows)
	iterations := 0
	for iter := 0; iter < maxIter; iter++ {
		cc.Reset()
		changed := false
		for i, o := range obs {
			n := cc.Nearest(o)
			if iter == 0 || n != labels[i] {
				changed = true
			}
			labels[i] = n
			cc[n].Append(o)
		}
		// Recenter keeps the previous center when a cluster is empty.
		for ci := range cc {
			cc[ci].Recenter()
		}
		iterations = iter + 1
		if !changed {
			break
		}
	}

	centroids := mat.NewDense(cfg.K, cols, nil)
	for ci := range cc {
		centroids.SetRow(ci, cc[ci].Center)
	}
	members := make([][]int, cfg.K)
	for i, l := range labels {
		members[l] = append(members[l], i)
	}

	return &Model{
		k:          cfg.K,
		labels:     labels,
		centroids:  centroids,
		members:    members,
		iterations: iterations,
	}, nil
}

// seedCenters picks k initial centers with the k-means++ scheme: the first
// uniformly at random, each following one with probability proportional to
// its squared distance from the nearest already-chosen center.
func seedCenters(obs clusters.Observations, k int, rng *rand.Rand) clusters.Clusters {
	cc := make(clusters.Clusters, 0, k)
	first := obs[rng.IntN(len(obs))]
	cc = append(cc, clusters.Cluster{Center: first.Coordinates()})

	d2 := make([]float64, len(obs))
	for len(cc) < k {
		last := cc[len(cc)-1].Center
		var total float64
		for i, o := range obs {
			d := o.Distance(last)
			if len(cc) == 1 || d < d2[i] {
				d2[i] = d
			}
			total += d2[i]
		}

		next := len(obs) - 1
		if total == 0 {
			// Every point coincides with a chosen center.
			next = rng.IntN(len(obs))
		} else {
			target := rng.Float64() * total
			for i, w := range d2 {
				target -= w
				if target < 0 {
					next = i
					break
				}
			}
		}
		cc = append(cc, clusters.Cluster{Center: obs[next].Coordinates()})
	}
	return cc
}

// K returns the number of clusters.
func (m *Model) K() int {
	return m.k
}

// Label returns the cluster id of row i.
func (m *Model) Label(i int) int {
	return m.labels[i]
}

// Labels returns a copy of the per-row cluster assignments.
func (m *Model) Labels() []int {
	return slices.Clone(m.labels)
}

// Iterations returns how many Lloyd iterations ran.
func (m *Model) Iterations() int {
	return m.iterations
}

// Centroid returns a copy of the centroid of cluster id, in the space the
// model was fitted on.
func (m *Model) Centroid(id int) ([]float64, error) {
	if id < 0 || id >= m.k {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCluster, id)
	}
	return mat.Row(nil, id, m.centroids), nil
}

// Members returns the row indices assigned to cluster id, in ascending
// row order.
func (m *Model) Members(id int) ([]int, error) {
	if id < 0 || id >= m.k {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCluster, id)
	}
	return slices.Clone(m.members[id]), nil
}

// Count returns the number of rows assigned to cluster id.
func (m *Model) Count(id int) (int, error) {
	if id < 0 || id >= m.k {
		return 0, fmt.Errorf("%w: %d", ErrUnknownCluster, id)
	}
	return len(m.members[id]), nil
}

// Sizes returns the member count of every cluster, indexed by cluster id.
func (m *Model) Sizes() []int {
	sizes := make([]int, m.k)
	for id, rows := range m.members {
		sizes[id] = len(rows)
	}
	return sizes
}
