package rtree

import (
	"testing"

	"github.com/rtreedb/rtreedb/geometry"
)

// TestScenarioDNearestNeighbor is spec.md §8 Scenario D.
func TestScenarioDNearestNeighbor(t *testing.T) {
	tree := newTestTree(t, DefaultConfig())

	xs := []float64{0, 1, 2, 3}
	for i, x := range xs {
		p := geometry.NewPoint([2]float64{x, 0})
		if err := tree.Insert(int64(i), p.GetMBR(), nil); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	comparator := PointComparator{Query: geometry.NewPoint([2]float64{0.4, 0})}
	results, err := tree.NearestNeighborQuery(2, comparator)
	if err != nil {
		t.Fatalf("NearestNeighborQuery: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != 0 || results[1].ID != 1 {
		t.Fatalf("expected ids [0, 1] in order, got [%d, %d]", results[0].ID, results[1].ID)
	}
	if results[0].Distance > results[1].Distance {
		t.Fatalf("expected ascending distance order, got %v then %v", results[0].Distance, results[1].Distance)
	}
}

// TestNearestNeighborReturnsTies exercises the "tie with the k-th result"
// rule: ids 0 and 1 are equidistant from the query point and must both
// be returned even though k=1 only asks for the single nearest neighbor.
func TestNearestNeighborReturnsTies(t *testing.T) {
	tree := newTestTree(t, DefaultConfig())

	pts := [][2]float64{{-1, 0}, {1, 0}, {5, 0}}
	for i, p := range pts {
		pt := geometry.NewPoint(p)
		if err := tree.Insert(int64(i), pt.GetMBR(), nil); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	comparator := PointComparator{Query: geometry.NewPoint([2]float64{0, 0})}
	results, err := tree.NearestNeighborQuery(1, comparator)
	if err != nil {
		t.Fatalf("NearestNeighborQuery: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both tied nearest neighbors (ids 0 and 1), got %d: %+v", len(results), results)
	}
	seen := map[int64]bool{}
	for _, r := range results {
		seen[r.ID] = true
		if r.ID == 2 {
			t.Fatalf("id 2 is strictly farther than the tie and must not be included: %+v", results)
		}
	}
	if !seen[0] || !seen[1] {
		t.Fatalf("expected ids 0 and 1 in the tied result set, got %+v", results)
	}
}

func TestNearestNeighborZeroK(t *testing.T) {
	tree := newTestTree(t, DefaultConfig())
	if err := tree.Insert(1, unitSquare(0, 0), nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	results, err := tree.NearestNeighborQuery(0, PointComparator{Query: geometry.NewPoint([2]float64{0, 0})})
	if err != nil {
		t.Fatalf("NearestNeighborQuery: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results for k=0, got %d", len(results))
	}
}
