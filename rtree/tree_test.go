package rtree

import (
	"testing"

	"github.com/rtreedb/rtreedb/geometry"
	"github.com/rtreedb/rtreedb/storage"
)

func newTestTree(t *testing.T, cfg Config) *Tree {
	t.Helper()
	tree, err := New(storage.NewMemoryManager(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tree
}

func smallCapacityConfig(capacity int) Config {
	cfg := DefaultConfig()
	cfg.IndexCapacity = capacity
	cfg.LeafCapacity = capacity
	return cfg
}

// TestScenarioASmallInsertAndQuery is spec.md §8 Scenario A.
func TestScenarioASmallInsertAndQuery(t *testing.T) {
	tree := newTestTree(t, DefaultConfig())

	for i := int64(0); i < 10; i++ {
		mbr := unitSquare(float64(i), float64(i))
		if err := tree.Insert(i, mbr, nil); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	query := geometry.NewRegion(
		geometry.NewPoint([2]float64{2.5, 2.5}),
		geometry.NewPoint([2]float64{4.5, 4.5}),
	)
	results, err := tree.IntersectsWithQuery(query)
	if err != nil {
		t.Fatalf("IntersectsWithQuery: %v", err)
	}

	got := map[int64]bool{}
	for _, r := range results {
		got[r.ID] = true
	}
	want := map[int64]bool{2: true, 3: true, 4: true}
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d: %v", len(got), len(want), got)
	}
	for id := range want {
		if !got[id] {
			t.Fatalf("expected id %d in results, got %v", id, got)
		}
	}
}

// TestScenarioBSplit is spec.md §8 Scenario B.
func TestScenarioBSplit(t *testing.T) {
	tree := newTestTree(t, smallCapacityConfig(4))

	points := [][2]float64{{0, 0}, {10, 0}, {0, 10}, {10, 10}, {5, 5}}
	for i, p := range points {
		mbr := unitSquare(p[0], p[1])
		if err := tree.Insert(int64(i), mbr, nil); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	if h := tree.Height(); h != 2 {
		t.Fatalf("expected tree_height == 2 after the 5th insert, got %d", h)
	}

	root, err := tree.readNode(tree.RootID())
	if err != nil {
		t.Fatalf("readNode(root): %v", err)
	}
	if len(root.Entries) != 2 {
		t.Fatalf("expected root to have 2 children, got %d", len(root.Entries))
	}

	total := 0
	for _, e := range root.Entries {
		leaf, err := tree.readNode(e.ID)
		if err != nil {
			t.Fatalf("readNode(leaf): %v", err)
		}
		if len(leaf.Entries) < 2 {
			t.Fatalf("expected every leaf to hold >= 2 entries, got %d", len(leaf.Entries))
		}
		union := leaf.Entries[0].MBR
		for _, le := range leaf.Entries[1:] {
			union.Combine(le.MBR)
		}
		if !union.Equals(leaf.MBR) {
			t.Fatalf("leaf MBR %+v does not equal union of its entries %+v", leaf.MBR, union)
		}
		total += len(leaf.Entries)
	}
	if total != 5 {
		t.Fatalf("expected 5 total entries across leaves, got %d", total)
	}
}

// TestScenarioCCondense is spec.md §8 Scenario C.
func TestScenarioCCondense(t *testing.T) {
	tree := newTestTree(t, smallCapacityConfig(4))

	points := [][2]float64{{0, 0}, {10, 0}, {0, 10}, {10, 10}, {5, 5}}
	for i, p := range points {
		if err := tree.Insert(int64(i), unitSquare(p[0], p[1]), nil); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	for i := 0; i < 4; i++ {
		if err := tree.Delete(int64(i), unitSquare(points[i][0], points[i][1])); err != nil {
			t.Fatalf("Delete(%d): %v", i, err)
		}
	}

	if h := tree.Height(); h != 1 {
		t.Fatalf("expected tree_height == 1 after condense, got %d", h)
	}
	root, err := tree.readNode(tree.RootID())
	if err != nil {
		t.Fatalf("readNode(root): %v", err)
	}
	if !root.IsLeaf() {
		t.Fatalf("expected root to be a leaf (level 0), got level %d", root.Level)
	}
	if len(root.Entries) != 1 || root.Entries[0].ID != 4 {
		t.Fatalf("expected root to hold only entry 4, got %+v", root.Entries)
	}
}

// TestInsertDeleteIdempotence exercises spec.md §8 property 9: insert
// then delete leaves the indexed id set unchanged.
func TestInsertDeleteIdempotence(t *testing.T) {
	tree := newTestTree(t, smallCapacityConfig(4))

	mbr := unitSquare(3, 3)
	if err := tree.Insert(42, mbr, []byte("payload")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	before := tree.Stats().Data

	if err := tree.Delete(42, mbr); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	after := tree.Stats().Data

	if after != before-1 {
		t.Fatalf("expected data count to drop by 1, got %d -> %d", before, after)
	}

	results, err := tree.IntersectsWithQuery(mbr)
	if err != nil {
		t.Fatalf("IntersectsWithQuery: %v", err)
	}
	for _, r := range results {
		if r.ID == 42 {
			t.Fatal("expected id 42 to be gone after delete")
		}
	}
}

func TestDeleteUnknownEntryFails(t *testing.T) {
	tree := newTestTree(t, DefaultConfig())
	if err := tree.Insert(1, unitSquare(0, 0), nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tree.Delete(999, unitSquare(50, 50)); err == nil {
		t.Fatal("expected error deleting an id that was never inserted")
	}
}

// TestHeaderRoundTripAcrossReopen exercises spec.md §8 property 6
// (via the disk-backed manager) through the tree's New/Flush/Open
// path rather than the bare storage manager.
func TestHeaderRoundTripAcrossReopen(t *testing.T) {
	base := t.TempDir() + "/tree"
	diskCfg := storage.DefaultDiskConfig(base)
	manager, err := storage.NewDiskManager(diskCfg)
	if err != nil {
		t.Fatalf("NewDiskManager: %v", err)
	}

	cfg := smallCapacityConfig(4)
	tree, err := New(manager, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := int64(0); i < 8; i++ {
		if err := tree.Insert(i, unitSquare(float64(i), 0), nil); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	if err := tree.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	wantHeight := tree.Height()
	wantData := tree.Stats().Data
	if err := tree.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	manager2, err := storage.NewDiskManager(diskCfg)
	if err != nil {
		t.Fatalf("reopen NewDiskManager: %v", err)
	}
	defer manager2.Close()

	reopened, err := Open(manager2, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reopened.Height() != wantHeight {
		t.Fatalf("height mismatch after reopen: got %d, want %d", reopened.Height(), wantHeight)
	}
	if reopened.Stats().Data != wantData {
		t.Fatalf("data count mismatch after reopen: got %d, want %d", reopened.Stats().Data, wantData)
	}

	results, err := reopened.IntersectsWithQuery(unitSquare(3, 0))
	if err != nil {
		t.Fatalf("IntersectsWithQuery after reopen: %v", err)
	}
	found := false
	for _, r := range results {
		if r.ID == 3 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected id 3 to survive reopen")
	}
}

func TestInsertGrowsMultipleLevels(t *testing.T) {
	tree := newTestTree(t, smallCapacityConfig(4))

	for i := int64(0); i < 60; i++ {
		x := float64(i % 20)
		y := float64(i / 20)
		if err := tree.Insert(i, unitSquare(x*2, y*2), nil); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	stats := tree.Stats()
	if stats.Data != 60 {
		t.Fatalf("expected 60 indexed entries, got %d", stats.Data)
	}
	if stats.Height < 2 {
		t.Fatalf("expected tree to have grown past a single leaf, got height %d", stats.Height)
	}

	sum := int64(0)
	for _, c := range stats.NodesPerLevel {
		sum += c
	}
	if sum != stats.Nodes {
		t.Fatalf("sum of nodes_per_level (%d) != nodes (%d)", sum, stats.Nodes)
	}
	if stats.NodesPerLevel[stats.Height-1] != 1 {
		t.Fatalf("expected exactly one node at the root level, got %d", stats.NodesPerLevel[stats.Height-1])
	}
}
