package rtree

import (
	"encoding/binary"

	"github.com/rtreedb/rtreedb/geometry"
)

// Result is one matching leaf entry returned by a range, containment,
// or intersection query: the application id, its indexed MBR, and its
// opaque payload.
type Result struct {
	ID   int64
	MBR  geometry.Region
	Data []byte
}

// VisitStatus controls whether a generic traversal descends into a
// node's children (spec.md §4.E): Continue expands them, Skip leaves
// them unvisited, Stop ends the whole traversal immediately.
type VisitStatus int

const (
	Continue VisitStatus = iota
	Skip
	Stop
)

// Visitor is consulted once per node during a Traverse call.
type Visitor interface {
	VisitNode(n *Node) VisitStatus
}

// VisitorFunc adapts a plain function to the Visitor interface.
type VisitorFunc func(n *Node) VisitStatus

// VisitNode implements Visitor.
func (f VisitorFunc) VisitNode(n *Node) VisitStatus { return f(n) }

// Traverse is the generic node-visitor mechanism every built-in query
// ultimately reduces to (spec.md §4.E): visit the root, then every
// child a Continue status allows, stopping early the moment any
// VisitNode call returns Stop.
func (t *Tree) Traverse(visitor Visitor) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	root, err := t.readNode(t.header.rootID)
	if err != nil {
		return err
	}
	_, err = t.traverseNode(root, visitor)
	return err
}

func (t *Tree) traverseNode(n *Node, visitor Visitor) (VisitStatus, error) {
	switch visitor.VisitNode(n) {
	case Stop:
		return Stop, nil
	case Skip:
		return Continue, nil
	}
	if n.IsLeaf() {
		return Continue, nil
	}
	for _, e := range n.Entries {
		child, err := t.readNode(e.ID)
		if err != nil {
			return Stop, err
		}
		status, err := t.traverseNode(child, visitor)
		if err != nil {
			return Stop, err
		}
		if status == Stop {
			return Stop, nil
		}
	}
	return Continue, nil
}

// IntersectsWithQuery implements spec.md §4.E's range search: DFS from
// the root, descending into every child whose MBR intersects query
// and emitting every leaf entry whose MBR intersects query.
func (t *Tree) IntersectsWithQuery(query geometry.Region) ([]Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	root, err := t.readNode(t.header.rootID)
	if err != nil {
		return nil, err
	}
	var out []Result
	err = t.rangeQueryNode(root, query, false, &out)
	return out, err
}

// PointLocationQuery is IntersectsWithQuery specialized to a
// degenerate point region.
func (t *Tree) PointLocationQuery(p geometry.Point) ([]Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	root, err := t.readNode(t.header.rootID)
	if err != nil {
		return nil, err
	}
	var out []Result
	err = t.rangeQueryNode(root, p.GetMBR(), false, &out)
	return out, err
}

// ContainsWhatQuery implements spec.md §4.E's containment search: same
// DFS as IntersectsWithQuery, but the match predicate is containment,
// and once query fully contains the current node's MBR the whole
// subtree is emitted without further per-entry testing.
func (t *Tree) ContainsWhatQuery(query geometry.Region) ([]Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	root, err := t.readNode(t.header.rootID)
	if err != nil {
		return nil, err
	}
	var out []Result
	err = t.rangeQueryNode(root, query, true, &out)
	return out, err
}

// rangeQueryNode is the shared DFS behind IntersectsWithQuery,
// PointLocationQuery and ContainsWhatQuery; containsMode selects the
// containment predicate and the whole-subtree shortcut over plain
// intersection.
func (t *Tree) rangeQueryNode(node *Node, query geometry.Region, containsMode bool, out *[]Result) error {
	if containsMode && geometry.ContainsRegion(query, node.MBR) {
		return t.emitSubtree(node, out)
	}

	if node.IsLeaf() {
		for _, e := range node.Entries {
			var match bool
			if containsMode {
				match = geometry.ContainsRegion(query, e.MBR)
			} else {
				match = geometry.IntersectsRegion(query, e.MBR)
			}
			if match {
				*out = append(*out, Result{ID: e.ID, MBR: e.MBR, Data: e.Data})
			}
		}
		return nil
	}

	for _, e := range node.Entries {
		if !geometry.IntersectsRegion(query, e.MBR) {
			continue
		}
		child, err := t.readNode(e.ID)
		if err != nil {
			return err
		}
		if err := t.rangeQueryNode(child, query, containsMode, out); err != nil {
			return err
		}
	}
	return nil
}

// emitSubtree appends every leaf entry beneath node without any
// further predicate testing, for the ContainsWhatQuery shortcut.
func (t *Tree) emitSubtree(node *Node, out *[]Result) error {
	if node.IsLeaf() {
		for _, e := range node.Entries {
			*out = append(*out, Result{ID: e.ID, MBR: e.MBR, Data: e.Data})
		}
		return nil
	}
	for _, e := range node.Entries {
		child, err := t.readNode(e.ID)
		if err != nil {
			return err
		}
		if err := t.emitSubtree(child, out); err != nil {
			return err
		}
	}
	return nil
}

// InternalNodesQuery implements spec.md §4.E: on each branch, emits
// the page id of the highest node (internal or leaf) whose MBR is
// fully contained in query, packing all its descendant leaf ids (its
// own entry ids, for a leaf) into that result's Data payload; the
// descendants of an emitted node are not emitted separately. A leaf reached without
// being wholly contained is not skipped: each of its entries whose
// own MBR is contained in query is emitted individually, tagged with
// the leaf's own id rather than the entry's, matching the original
// per-child emission at the leaf level rather than returning nothing
// there.
func (t *Tree) InternalNodesQuery(query geometry.Region) ([]Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	root, err := t.readNode(t.header.rootID)
	if err != nil {
		return nil, err
	}
	var out []Result
	err = t.internalNodesQuery(root, query, &out)
	return out, err
}

func (t *Tree) internalNodesQuery(node *Node, query geometry.Region, out *[]Result) error {
	if geometry.ContainsRegion(query, node.MBR) {
		ids, err := t.collectLeafIDs(node)
		if err != nil {
			return err
		}
		*out = append(*out, Result{ID: node.ID, MBR: node.MBR, Data: encodeIDs(ids)})
		return nil
	}

	if node.IsLeaf() {
		for _, e := range node.Entries {
			if geometry.ContainsRegion(query, e.MBR) {
				*out = append(*out, Result{ID: node.ID, MBR: e.MBR, Data: encodeIDs([]int64{e.ID})})
			}
		}
		return nil
	}

	if !geometry.IntersectsRegion(query, node.MBR) {
		return nil
	}
	for _, e := range node.Entries {
		child, err := t.readNode(e.ID)
		if err != nil {
			return err
		}
		if err := t.internalNodesQuery(child, query, out); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) collectLeafIDs(node *Node) ([]int64, error) {
	if node.IsLeaf() {
		ids := make([]int64, len(node.Entries))
		for i, e := range node.Entries {
			ids[i] = e.ID
		}
		return ids, nil
	}
	var ids []int64
	for _, e := range node.Entries {
		child, err := t.readNode(e.ID)
		if err != nil {
			return nil, err
		}
		childIDs, err := t.collectLeafIDs(child)
		if err != nil {
			return nil, err
		}
		ids = append(ids, childIDs...)
	}
	return ids, nil
}

func encodeIDs(ids []int64) []byte {
	buf := make([]byte, 8*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(id))
	}
	return buf
}

// Strategy drives a caller-controlled traversal: QueryStrategy hands
// it each visited node in turn and lets it decide which node id to
// fetch next, and when to stop (spec.md §4.E).
type Strategy interface {
	// GetNextEntry receives the node just fetched (the root on the
	// first call) and returns the page id of the next node to fetch.
	// hasNext == false ends the traversal.
	GetNextEntry(n *Node) (id int64, hasNext bool)
}

// QueryStrategy implements spec.md §4.E's strategy-driven traversal:
// the engine fetches whatever id strategy names next, handing it back
// the node, until strategy reports it is done.
func (t *Tree) QueryStrategy(strategy Strategy) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.header.rootID
	for {
		node, err := t.readNode(id)
		if err != nil {
			return err
		}
		nextID, hasNext := strategy.GetNextEntry(node)
		if !hasNext {
			return nil
		}
		id = nextID
	}
}
