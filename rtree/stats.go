package rtree

// Stats is the tree-level counter bag spec.md §1 calls for: the core
// only needs a counter bag, not a full reporting subsystem. Mirrors
// the teacher's btree.stats anonymous struct, exported here since
// there is no surrounding metrics/reporting layer to feed it through.
type Stats struct {
	Nodes         int64
	Data          int64
	Height        int
	NodesPerLevel []int64

	Splits       int64
	Reinsertions int64
	Condenses    int64
}
