package rtree

import (
	"go.uber.org/zap"

	"github.com/rtreedb/rtreedb/geometry"
)

// forcedReinsert implements the R* "forced reinsertion" recipe
// (spec.md §4.D): evict the entries farthest from the node-MBR
// center, shrink the node, bubble the change upward, then reinsert
// the evicted entries one at a time (closest-to-center first) at the
// same level, reusing the overflow table so each level re-triggers at
// most once per top-level insert.
//
// The source's ReinsertData body is empty (spec.md §9 Open
// Questions); this is the textbook behavior it should have had.
func (t *Tree) forcedReinsert(node *Node, path []int64, overflow *[]bool) error {
	nodeMBR := mbrOf(node.Entries)
	center := nodeMBR.Center()

	type scored struct {
		entry Entry
		dist  float64
	}
	scoredEntries := make([]scored, len(node.Entries))
	for i, e := range node.Entries {
		scoredEntries[i] = scored{entry: e, dist: centerDistance(e.MBR, center)}
	}

	// Sort descending by distance so the farthest entries are first.
	for i := 1; i < len(scoredEntries); i++ {
		for j := i; j > 0 && scoredEntries[j-1].dist < scoredEntries[j].dist; j-- {
			scoredEntries[j-1], scoredEntries[j] = scoredEntries[j], scoredEntries[j-1]
		}
	}

	count := len(node.Entries)
	k := ceilInt(t.cfg.ReinsertFactor * float64(count))
	if k < 1 {
		k = 1
	}
	if k > count {
		k = count
	}

	toReinsert := make([]Entry, k)
	for i := 0; i < k; i++ {
		toReinsert[i] = scoredEntries[i].entry.Clone()
	}
	remaining := make([]Entry, 0, count-k)
	for i := k; i < count; i++ {
		remaining = append(remaining, scoredEntries[i].entry.Clone())
	}

	node.Entries = remaining
	node.recomputeMBR()
	if err := t.writeNode(node); err != nil {
		return err
	}
	t.stats.Reinsertions++
	t.logger.Debug("forced reinsertion", zap.Int64("node", node.ID), zap.Int("evicted", k))

	if err := t.adjustTree(path, node.ID, node.MBR); err != nil {
		return err
	}

	// Reinsert closest-to-center-first: reverse toReinsert (currently
	// farthest-first) before walking it.
	for i, j := 0, len(toReinsert)-1; i < j; i, j = i+1, j-1 {
		toReinsert[i], toReinsert[j] = toReinsert[j], toReinsert[i]
	}

	level := node.Level
	for _, e := range toReinsert {
		p, target, err := t.chooseSubtreePath(e.MBR, level)
		if err != nil {
			return err
		}
		if err := t.insertAt(target, p, e, overflow); err != nil {
			return err
		}
	}
	return nil
}

func centerDistance(mbr geometry.Region, center [geometry.Dimensions]float64) float64 {
	sum := 0.0
	mc := mbr.Center()
	for i := 0; i < geometry.Dimensions; i++ {
		d := mc[i] - center[i]
		sum += d * d
	}
	return sum
}
