package rtree

import (
	"fmt"

	"github.com/rtreedb/rtreedb/storage"
)

// Validate walks the whole tree and reports the first structural
// inconsistency found, ported from the original's IsIndexValid: the
// root sits at header.height-1, every node's MBR is the exact union
// of its entries' MBRs, every parent-recorded child MBR matches the
// child's own MBR when TightMBRs is enabled, and per-level and total
// node counts match the header's bookkeeping. It never mutates the
// tree and is meant for tests and offline consistency checks, not the
// hot insert/delete path.
func (t *Tree) Validate() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	root, err := t.readNode(t.header.rootID)
	if err != nil {
		return err
	}
	if root.Level != t.header.height-1 {
		return fmt.Errorf("%w: root level %d does not match header height %d", storage.ErrIllegalState, root.Level, t.header.height)
	}

	nodesInLevel := make([]int64, t.header.height)
	total, err := t.validateNode(root, nodesInLevel)
	if err != nil {
		return err
	}

	if total != t.header.nodeCount {
		return fmt.Errorf("%w: reachable node count %d does not match header node count %d", storage.ErrIllegalState, total, t.header.nodeCount)
	}
	for level, count := range nodesInLevel {
		want := int64(0)
		if level < len(t.header.nodesPerLevel) {
			want = t.header.nodesPerLevel[level]
		}
		if count != want {
			return fmt.Errorf("%w: level %d has %d reachable nodes, header records %d", storage.ErrIllegalState, level, count, want)
		}
	}
	return nil
}

// validateNode checks node's own tight-MBR invariant, recurses into
// every child (validating the parent-recorded child MBR matches the
// child's actual MBR when TightMBRs requires it), and returns the
// total number of nodes in node's subtree, tallying nodesInLevel as
// it goes.
func (t *Tree) validateNode(node *Node, nodesInLevel []int64) (int64, error) {
	nodesInLevel[node.Level]++

	union := node.MBR
	union.MakeInfinite()
	for _, e := range node.Entries {
		union.Combine(e.MBR)
	}
	if len(node.Entries) > 0 && !node.MBR.Equals(union) {
		return 0, fmt.Errorf("%w: node %d's stored MBR does not equal the union of its entries", storage.ErrIllegalState, node.ID)
	}

	var total int64 = 1
	if node.IsLeaf() {
		return total, nil
	}

	for _, e := range node.Entries {
		child, err := t.readNode(e.ID)
		if err != nil {
			return 0, err
		}
		if t.cfg.TightMBRs && !child.MBR.Equals(e.MBR) {
			return 0, fmt.Errorf("%w: parent %d's recorded MBR for child %d does not match the child's own MBR", storage.ErrIllegalState, node.ID, child.ID)
		}
		childTotal, err := t.validateNode(child, nodesInLevel)
		if err != nil {
			return 0, err
		}
		total += childTotal
	}
	return total, nil
}
