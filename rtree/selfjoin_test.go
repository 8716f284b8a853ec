package rtree

import (
	"testing"

	"github.com/rtreedb/rtreedb/geometry"
)

// TestScenarioESelfJoin is spec.md §8 Scenario E.
func TestScenarioESelfJoin(t *testing.T) {
	tree := newTestTree(t, DefaultConfig())

	regions := []geometry.Region{
		geometry.NewRegion(geometry.NewPoint([2]float64{0, 0}), geometry.NewPoint([2]float64{3, 3})),
		geometry.NewRegion(geometry.NewPoint([2]float64{1, 1}), geometry.NewPoint([2]float64{4, 4})),
		geometry.NewRegion(geometry.NewPoint([2]float64{2, 2}), geometry.NewPoint([2]float64{5, 5})),
	}
	for i, r := range regions {
		if err := tree.Insert(int64(i), r, nil); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	query := geometry.NewRegion(geometry.NewPoint([2]float64{-10, -10}), geometry.NewPoint([2]float64{10, 10}))
	pairs, err := tree.SelfJoinQuery(query)
	if err != nil {
		t.Fatalf("SelfJoinQuery: %v", err)
	}

	if len(pairs) != 3 {
		t.Fatalf("expected exactly 3 pairs, got %d: %+v", len(pairs), pairs)
	}

	seen := map[[2]int64]bool{}
	for _, p := range pairs {
		if p.A.ID == p.B.ID {
			t.Fatalf("self-pair reported: %+v", p)
		}
		a, b := p.A.ID, p.B.ID
		if a > b {
			a, b = b, a
		}
		key := [2]int64{a, b}
		if seen[key] {
			t.Fatalf("pair (%d,%d) reported more than once", a, b)
		}
		seen[key] = true
	}

	for _, want := range [][2]int64{{0, 1}, {0, 2}, {1, 2}} {
		if !seen[want] {
			t.Fatalf("expected pair %v to be reported, got %v", want, seen)
		}
	}
}

func TestSelfJoinExcludesNonOverlapping(t *testing.T) {
	tree := newTestTree(t, DefaultConfig())

	if err := tree.Insert(0, unitSquare(0, 0), nil); err != nil {
		t.Fatalf("Insert(0): %v", err)
	}
	if err := tree.Insert(1, unitSquare(100, 100), nil); err != nil {
		t.Fatalf("Insert(1): %v", err)
	}

	query := geometry.NewRegion(geometry.NewPoint([2]float64{-1000, -1000}), geometry.NewPoint([2]float64{1000, 1000}))
	pairs, err := tree.SelfJoinQuery(query)
	if err != nil {
		t.Fatalf("SelfJoinQuery: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("expected no pairs for non-overlapping shapes, got %+v", pairs)
	}
}
