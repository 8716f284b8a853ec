package rtree

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rtreedb/rtreedb/geometry"
	"github.com/rtreedb/rtreedb/storage"
)

// Delete removes the entry with the given application id and MBR from
// the tree (spec.md §4.D FindLeaf/DeleteData, followed by
// CondenseTree). Returns storage.ErrInvalidPage if no such entry
// exists.
func (t *Tree) Delete(id int64, mbr geometry.Region) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	root, err := t.readNode(t.header.rootID)
	if err != nil {
		return err
	}
	path, leaf, idx, err := t.findLeaf(root, nil, mbr, id)
	if err != nil {
		return err
	}
	if leaf == nil {
		return fmt.Errorf("%w: no entry with id=%d in region", storage.ErrInvalidPage, id)
	}

	leaf.Entries = removeAt(leaf.Entries, idx)
	leaf.recomputeMBR()
	if err := t.writeNode(leaf); err != nil {
		return err
	}
	t.header.dataCount--
	t.logger.Debug("deleted", zap.Int64("id", id), zap.Int64("leaf", leaf.ID))

	return t.condenseTree(leaf, path)
}

// findLeaf implements spec.md §4.D FindLeaf: descend into every child
// whose MBR contains the target MBR, backtracking (returning a nil
// leaf to the caller so it tries the next sibling) until some leaf
// holds a matching (id, mbr) entry.
func (t *Tree) findLeaf(node *Node, ancestors []int64, mbr geometry.Region, id int64) ([]int64, *Node, int, error) {
	if node.IsLeaf() {
		for i, e := range node.Entries {
			if e.ID == id && e.MBR.Equals(mbr) {
				return ancestors, node, i, nil
			}
		}
		return nil, nil, -1, nil
	}

	childPath := append(append([]int64(nil), ancestors...), node.ID)
	for _, e := range node.Entries {
		if !geometry.ContainsRegion(e.MBR, mbr) {
			continue
		}
		child, err := t.readNode(e.ID)
		if err != nil {
			return nil, nil, -1, err
		}
		path, leaf, leafIdx, err := t.findLeaf(child, childPath, mbr, id)
		if err != nil {
			return nil, nil, -1, err
		}
		if leaf != nil {
			return path, leaf, leafIdx, nil
		}
	}
	return nil, nil, -1, nil
}

// orphanEntry is a child evicted from an underfull node during
// CondenseTree, awaiting reinsertion once the tree shape has settled.
// level is the level of the node the entry was evicted from — i.e.
// the level its new sibling node must live at, exactly as
// chooseSubtreePath's targetLevel parameter expects.
type orphanEntry struct {
	level int
	entry Entry
}

// condenseTree implements spec.md §4.D CondenseTree: walk from the
// affected leaf up to the root, pruning underfull nodes (remembering
// their entries for reinsertion) and shrinking ancestor MBRs, then
// collapse a single-child root, then reinsert every orphaned entry.
func (t *Tree) condenseTree(leaf *Node, path []int64) error {
	var orphans []orphanEntry
	node := leaf

	for i := len(path) - 1; i >= 0; i-- {
		parent, err := t.readNode(path[i])
		if err != nil {
			return err
		}

		idx := findEntryIndex(parent.Entries, node.ID)
		if idx < 0 {
			return fmt.Errorf("%w: child %d not found in parent %d", storage.ErrIllegalState, node.ID, parent.ID)
		}

		minimumLoad := t.cfg.minimumLoad(t.capacityFor(node.Level))
		if len(node.Entries) < minimumLoad {
			parent.Entries = removeAt(parent.Entries, idx)
			parent.recomputeMBR()
			for _, e := range node.Entries {
				orphans = append(orphans, orphanEntry{level: node.Level, entry: e.Clone()})
			}
			if err := t.manager.Delete(node.ID); err != nil {
				return err
			}
			t.header.nodeCount--
			t.growNodesPerLevel(node.Level, -1)
			t.stats.Condenses++
			t.logger.Debug("condensed", zap.Int64("node", node.ID), zap.Int("orphaned", len(node.Entries)))
		} else {
			parent.Entries[idx].MBR = node.MBR
			if t.cfg.TightMBRs {
				parent.recomputeMBR()
			}
		}

		if err := t.writeNode(parent); err != nil {
			return err
		}
		node = parent
	}

	// node is now the root.
	if node.IsIndex() && len(node.Entries) == 1 {
		onlyChild, err := t.readNode(node.Entries[0].ID)
		if err != nil {
			return err
		}
		if err := t.manager.Delete(node.ID); err != nil {
			return err
		}
		t.header.rootID = onlyChild.ID
		t.header.height--
		t.header.nodeCount--
		if len(t.header.nodesPerLevel) > 0 {
			t.header.nodesPerLevel = t.header.nodesPerLevel[:len(t.header.nodesPerLevel)-1]
		}
		t.logger.Debug("root collapsed", zap.Int64("new_root", onlyChild.ID))
	}

	for _, o := range orphans {
		overflow := make([]bool, t.header.height)
		p, target, err := t.chooseSubtreePath(o.entry.MBR, o.level)
		if err != nil {
			return err
		}
		if err := t.insertAt(target, p, o.entry, &overflow); err != nil {
			return err
		}
	}

	return nil
}
