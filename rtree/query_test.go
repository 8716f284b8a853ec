package rtree

import (
	"encoding/binary"
	"testing"

	"github.com/rtreedb/rtreedb/geometry"
)

func TestContainsWhatQuery(t *testing.T) {
	tree := newTestTree(t, DefaultConfig())

	inside := unitSquare(2, 2)
	straddling := geometry.NewRegion(
		geometry.NewPoint([2]float64{-1, -1}),
		geometry.NewPoint([2]float64{0.5, 0.5}),
	)
	if err := tree.Insert(1, inside, nil); err != nil {
		t.Fatalf("Insert(1): %v", err)
	}
	if err := tree.Insert(2, straddling, nil); err != nil {
		t.Fatalf("Insert(2): %v", err)
	}

	query := geometry.NewRegion(geometry.NewPoint([2]float64{0, 0}), geometry.NewPoint([2]float64{10, 10}))
	results, err := tree.ContainsWhatQuery(query)
	if err != nil {
		t.Fatalf("ContainsWhatQuery: %v", err)
	}
	if len(results) != 1 || results[0].ID != 1 {
		t.Fatalf("expected only the fully-contained entry (id 1), got %+v", results)
	}
}

func TestPointLocationQuery(t *testing.T) {
	tree := newTestTree(t, DefaultConfig())
	if err := tree.Insert(1, unitSquare(0, 0), nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tree.Insert(2, unitSquare(10, 10), nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	results, err := tree.PointLocationQuery(geometry.NewPoint([2]float64{0.5, 0.5}))
	if err != nil {
		t.Fatalf("PointLocationQuery: %v", err)
	}
	if len(results) != 1 || results[0].ID != 1 {
		t.Fatalf("expected only id 1 to contain the point, got %+v", results)
	}
}

func TestInternalNodesQuery(t *testing.T) {
	tree := newTestTree(t, smallCapacityConfig(4))

	for i := int64(0); i < 20; i++ {
		x := float64(i % 10)
		y := float64(i / 10)
		if err := tree.Insert(i, unitSquare(x*2, y*2), nil); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	whole := geometry.NewRegion(geometry.NewPoint([2]float64{-100, -100}), geometry.NewPoint([2]float64{100, 100}))
	results, err := tree.InternalNodesQuery(whole)
	if err != nil {
		t.Fatalf("InternalNodesQuery: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one internal node fully contained in the query")
	}

	seen := map[int64]bool{}
	for _, r := range results {
		if len(r.Data)%8 != 0 {
			t.Fatalf("expected packed leaf-id payload to be a multiple of 8 bytes, got %d", len(r.Data))
		}
		for i := 0; i+8 <= len(r.Data); i += 8 {
			seen[decodeID(r.Data[i:])] = true
		}
	}
	if len(seen) != 20 {
		t.Fatalf("expected all 20 leaf ids packed across emitted subtrees, got %d", len(seen))
	}
}

// TestInternalNodesQueryEmitsContainedLeafEntries exercises the
// leaf-level branch of InternalNodesQuery: a query region that
// intersects but does not wholly contain any node's MBR must still
// emit every leaf entry whose own MBR is contained, tagged with the
// owning leaf's id rather than being dropped.
func TestInternalNodesQueryEmitsContainedLeafEntries(t *testing.T) {
	tree := newTestTree(t, smallCapacityConfig(4))

	for i := int64(0); i < 20; i++ {
		x := float64(i % 10)
		y := float64(i / 10)
		if err := tree.Insert(i, unitSquare(x*2, y*2), nil); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	// Contains entry 0's unit square ([0,1]x[0,1]) alone, but not the
	// rest of whatever leaf it lives in (entries are 2 units apart on
	// both axes), so no node's MBR is wholly contained by this query.
	narrow := geometry.NewRegion(
		geometry.NewPoint([2]float64{-0.5, -0.5}),
		geometry.NewPoint([2]float64{1.5, 1.5}),
	)
	results, err := tree.InternalNodesQuery(narrow)
	if err != nil {
		t.Fatalf("InternalNodesQuery: %v", err)
	}

	found := false
	for _, r := range results {
		for i := 0; i+8 <= len(r.Data); i += 8 {
			if decodeID(r.Data[i:]) == 0 {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected entry 0 to be emitted via leaf-level containment, got %+v", results)
	}
}

func decodeID(buf []byte) int64 {
	return int64(binary.LittleEndian.Uint64(buf))
}

// countingStrategy visits every node reachable by always descending
// into the first child, exercising QueryStrategy's "ask the strategy
// what to fetch next" contract.
type countingStrategy struct {
	visited int
	depth   int
}

func (s *countingStrategy) GetNextEntry(n *Node) (int64, bool) {
	s.visited++
	if n.IsLeaf() || len(n.Entries) == 0 {
		return 0, false
	}
	s.depth++
	return n.Entries[0].ID, true
}

func TestQueryStrategyDrivesTraversal(t *testing.T) {
	tree := newTestTree(t, smallCapacityConfig(4))
	for i := int64(0); i < 20; i++ {
		if err := tree.Insert(i, unitSquare(float64(i)*2, 0), nil); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	strategy := &countingStrategy{}
	if err := tree.QueryStrategy(strategy); err != nil {
		t.Fatalf("QueryStrategy: %v", err)
	}
	if strategy.visited == 0 {
		t.Fatal("expected the strategy to visit at least the root")
	}
}

func TestTraverseStopsEarly(t *testing.T) {
	tree := newTestTree(t, smallCapacityConfig(4))
	for i := int64(0); i < 20; i++ {
		if err := tree.Insert(i, unitSquare(float64(i)*2, 0), nil); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	visits := 0
	err := tree.Traverse(VisitorFunc(func(n *Node) VisitStatus {
		visits++
		return Stop
	}))
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}
	if visits != 1 {
		t.Fatalf("expected Stop on the first visit to end traversal immediately, got %d visits", visits)
	}
}
