package neighbors

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func testIndex() *Index {
	return New(mat.NewDense(4, 2, []float64{
		0, 0,
		3, 4,
		1, 0,
		-1, 0,
	}))
}

func TestQueryOrdersByDistance(t *testing.T) {
	ix := testIndex()

	hits, err := ix.Query([]float64{0, 0}, 4, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 4 {
		t.Fatalf("Query() returned %d hits, want 4", len(hits))
	}

	wantRows := []int{0, 2, 3, 1}
	for i, want := range wantRows {
		if hits[i].Row != want {
			t.Errorf("hits[%d].Row = %d, want %d", i, hits[i].Row, want)
		}
	}

	// Euclidean, not squared: (3,4) is exactly 5 away from the origin.
	if hits[3].Distance != 5 {
		t.Errorf("hits[3].Distance = %v, want 5", hits[3].Distance)
	}
	if hits[0].Distance != 0 {
		t.Errorf("hits[0].Distance = %v, want 0", hits[0].Distance)
	}
}

func TestQueryTieBreaksByRow(t *testing.T) {
	ix := testIndex()

	hits, err := ix.Query([]float64{0, 0}, 3, map[int]bool{0: true})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	// Rows 2 and 3 are both at distance 1; the lower index comes first.
	if hits[0].Row != 2 || hits[1].Row != 3 {
		t.Errorf("tied rows ordered %d, %d, want 2, 3", hits[0].Row, hits[1].Row)
	}
}

func TestQueryExcludes(t *testing.T) {
	ix := testIndex()

	hits, err := ix.Query([]float64{0, 0}, 4, map[int]bool{0: true, 2: true})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Query() returned %d hits, want 2", len(hits))
	}
	for _, h := range hits {
		if h.Row == 0 || h.Row == 2 {
			t.Errorf("excluded row %d in results", h.Row)
		}
	}
}

func TestQueryIsDeterministic(t *testing.T) {
	ix := testIndex()

	first, err := ix.Query([]float64{0.3, 0.7}, 4, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := ix.Query([]float64{0.3, 0.7}, 4, nil)
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d: hits[%d] = %+v, want %+v", i, j, again[j], first[j])
			}
		}
	}
}

func TestQueryWantsMoreThanAvailable(t *testing.T) {
	ix := testIndex()

	hits, err := ix.Query([]float64{0, 0}, 100, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != ix.Len() {
		t.Errorf("Query(k=100) returned %d hits, want all %d", len(hits), ix.Len())
	}
}

func TestQueryInvalidK(t *testing.T) {
	ix := testIndex()

	for _, k := range []int{0, -3} {
		if _, err := ix.Query([]float64{0, 0}, k, nil); !errors.Is(err, ErrInvalidK) {
			t.Errorf("Query(k=%d) error = %v, want ErrInvalidK", k, err)
		}
	}
}

func TestQueryDimensionMismatch(t *testing.T) {
	ix := testIndex()

	if _, err := ix.Query([]float64{0, 0, 0}, 1, nil); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Query() error = %v, want ErrDimensionMismatch", err)
	}
}
