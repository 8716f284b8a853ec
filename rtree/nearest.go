package rtree

import (
	"container/heap"

	"github.com/rtreedb/rtreedb/geometry"
)

// NearestNeighborComparator supplies the distance metric
// NearestNeighborQuery orders candidates by (spec.md §4.E: "best-first
// traversal ... leaf entries are pushed with the comparator's distance
// to the actual shape"). NodeDistance bounds every shape inside an
// unexpanded node's MBR, for ordering subtree expansion; EntryDistance
// scores a leaf entry once its exact shape (or just its MBR, for
// callers that only index bare regions) is known.
type NearestNeighborComparator interface {
	NodeDistance(mbr geometry.Region) float64
	EntryDistance(e Entry) float64
}

// PointComparator ranks candidates by Euclidean distance to a fixed
// query point, using each node's and entry's MBR directly — the
// common case (spec.md §8 Scenario D) where the indexed shapes are
// points or the caller only needs MBR-level precision.
type PointComparator struct {
	Query geometry.Point
}

// NodeDistance implements NearestNeighborComparator.
func (c PointComparator) NodeDistance(mbr geometry.Region) float64 {
	return mbr.GetMinimumDistance(c.Query)
}

// EntryDistance implements NearestNeighborComparator.
func (c PointComparator) EntryDistance(e Entry) float64 {
	return e.MBR.GetMinimumDistance(c.Query)
}

// ShapeComparator ranks candidates against an arbitrary query Shape.
// When Loader is set, EntryDistance reconstructs each leaf entry's
// shape through it and measures from that shape's MBR; when Loader is
// nil or the payload fails to decode, it measures from the entry's
// MBR. Either way the distance is MBR-to-MBR against the query
// shape's MBR: the exact geometry of the shapes is not used.
type ShapeComparator struct {
	Query  geometry.Shape
	Loader geometry.ShapeLoader
}

// NodeDistance implements NearestNeighborComparator using the query
// shape's own bounding box, since the kernel has no general
// shape-to-region distance primitive.
func (c ShapeComparator) NodeDistance(mbr geometry.Region) float64 {
	return geometry.GetMinimumDistanceRegion(mbr, c.Query.GetMBR())
}

// EntryDistance implements NearestNeighborComparator.
func (c ShapeComparator) EntryDistance(e Entry) float64 {
	if c.Loader == nil {
		return geometry.GetMinimumDistanceRegion(e.MBR, c.Query.GetMBR())
	}
	shape, err := c.Loader(e.Data)
	if err != nil {
		return geometry.GetMinimumDistanceRegion(e.MBR, c.Query.GetMBR())
	}
	return geometry.GetMinimumDistanceRegion(shape.GetMBR(), c.Query.GetMBR())
}

// NeighborResult is one ranked result from NearestNeighborQuery.
type NeighborResult struct {
	ID       int64
	MBR      geometry.Region
	Data     []byte
	Distance float64
}

// pqItem is an entry in the best-first priority queue: either an
// unexpanded node or a leaf entry already scored against the query.
type pqItem struct {
	dist   float64
	isNode bool
	nodeID int64
	entry  Entry
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(*pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// NearestNeighborQuery implements spec.md §4.E's best-first k-NN
// traversal: a priority queue ordered by ascending minimum distance.
// Nodes are expanded into their children; leaf entries are scored and
// reported in ascending-distance order. Results are emitted until
// count >= k AND the next queue head's distance strictly exceeds the
// last reported result's distance, so ties beyond k are all returned
// (spec.md §8 property 8).
func (t *Tree) NearestNeighborQuery(k int, comparator NearestNeighborComparator) ([]NeighborResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if k <= 0 {
		return nil, nil
	}

	root, err := t.readNode(t.header.rootID)
	if err != nil {
		return nil, err
	}

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &pqItem{dist: comparator.NodeDistance(root.MBR), isNode: true, nodeID: root.ID})

	var results []NeighborResult
	for pq.Len() > 0 {
		head := (*pq)[0]
		if len(results) >= k && head.dist > results[len(results)-1].Distance {
			break
		}

		item := heap.Pop(pq).(*pqItem)
		if !item.isNode {
			results = append(results, NeighborResult{
				ID: item.entry.ID, MBR: item.entry.MBR, Data: item.entry.Data, Distance: item.dist,
			})
			continue
		}

		node, err := t.readNode(item.nodeID)
		if err != nil {
			return nil, err
		}
		if node.IsLeaf() {
			for _, e := range node.Entries {
				heap.Push(pq, &pqItem{dist: comparator.EntryDistance(e), entry: e})
			}
		} else {
			for _, e := range node.Entries {
				heap.Push(pq, &pqItem{dist: comparator.NodeDistance(e.MBR), isNode: true, nodeID: e.ID})
			}
		}
	}

	return results, nil
}
