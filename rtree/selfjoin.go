package rtree

import (
	"fmt"

	"github.com/rtreedb/rtreedb/geometry"
	"github.com/rtreedb/rtreedb/storage"
)

// SelfJoinPair is one unordered pair of distinct entries both found
// within a SelfJoinQuery's region, with intersecting MBRs.
type SelfJoinPair struct {
	A, B Result
}

// SelfJoinQuery implements spec.md §4.E's self-join: recursive descent
// starting at (root, root). At two leaf nodes, every pair of distinct
// entries both contained in region and with intersecting MBRs is
// emitted once. At two index nodes, recursion continues on pairs of
// children whose MBRs both intersect region and each other, narrowing
// region to the triple intersection as it descends.
func (t *Tree) SelfJoinQuery(region geometry.Region) ([]SelfJoinPair, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	root, err := t.readNode(t.header.rootID)
	if err != nil {
		return nil, err
	}
	var out []SelfJoinPair
	err = t.selfJoin(root, root, region, &out)
	return out, err
}

func (t *Tree) selfJoin(n1, n2 *Node, region geometry.Region, out *[]SelfJoinPair) error {
	if n1.Level != n2.Level {
		return fmt.Errorf("%w: self-join requires nodes at the same level", storage.ErrIllegalState)
	}

	sameNode := n1.ID == n2.ID

	if n1.IsLeaf() {
		for i, e1 := range n1.Entries {
			if !geometry.ContainsRegion(region, e1.MBR) {
				continue
			}
			for j, e2 := range n2.Entries {
				if sameNode && j <= i {
					continue
				}
				if e1.ID == e2.ID {
					continue
				}
				if !geometry.ContainsRegion(region, e2.MBR) {
					continue
				}
				if !geometry.IntersectsRegion(e1.MBR, e2.MBR) {
					continue
				}
				*out = append(*out, SelfJoinPair{
					A: Result{ID: e1.ID, MBR: e1.MBR, Data: e1.Data},
					B: Result{ID: e2.ID, MBR: e2.MBR, Data: e2.Data},
				})
			}
		}
		return nil
	}

	for i, e1 := range n1.Entries {
		if !geometry.IntersectsRegion(region, e1.MBR) {
			continue
		}
		for j, e2 := range n2.Entries {
			if sameNode && j < i {
				continue
			}
			if !geometry.IntersectsRegion(region, e2.MBR) {
				continue
			}
			if e1.ID != e2.ID && !geometry.IntersectsRegion(e1.MBR, e2.MBR) {
				continue
			}

			refined, ok := tripleIntersection(region, e1.MBR, e2.MBR)
			if !ok {
				continue
			}

			child1, err := t.readNode(e1.ID)
			if err != nil {
				return err
			}
			child2 := child1
			if e1.ID != e2.ID {
				child2, err = t.readNode(e2.ID)
				if err != nil {
					return err
				}
			}
			if err := t.selfJoin(child1, child2, refined, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func tripleIntersection(region, a, b geometry.Region) (geometry.Region, bool) {
	ab, ok := geometry.GetIntersectingRegion(a, b)
	if !ok {
		return geometry.Region{}, false
	}
	return geometry.GetIntersectingRegion(ab, region)
}
