package rtree

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/rtreedb/rtreedb/geometry"
	"github.com/rtreedb/rtreedb/storage"
)

// Tree is a persistent R-tree/R*-tree index (spec.md §4.D) backed by a
// storage.Manager. Mutation is single-threaded per the design's
// concurrency model (spec.md §5), but Tree still guards its state
// with a mutex the way the teacher's BTree guards structural changes
// with a global lock — callers that want concurrent access serialize
// through it rather than relying on internal sharding.
type Tree struct {
	mu sync.Mutex

	cfg     Config
	manager storage.Manager
	logger  *zap.Logger

	header *header
	stats  Stats
}

// New creates a fresh tree: an empty leaf root and a header record,
// against a manager with no prior state.
func New(manager storage.Manager, cfg Config, logger *zap.Logger) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &header{cfg: cfg, rootID: storage.Empty, height: 1, nodesPerLevel: []int64{0}}
	hdrID, err := manager.Store(storage.NewPage, encodeHeader(h))
	if err != nil {
		return nil, err
	}
	if hdrID != headerPageID {
		return nil, fmt.Errorf("%w: storage manager is not fresh (header landed on page %d, want %d)", storage.ErrIllegalState, hdrID, headerPageID)
	}

	root := &Node{ID: storage.NewPage, Level: 0}
	root.recomputeMBR()
	rootBuf := encodeNode(root)
	rootID, err := manager.Store(storage.NewPage, rootBuf)
	if err != nil {
		return nil, err
	}

	h.rootID = rootID
	h.nodeCount = 1
	h.nodesPerLevel[0] = 1
	if _, err := manager.Store(headerPageID, encodeHeader(h)); err != nil {
		return nil, err
	}

	logger.Debug("tree created", zap.Int64("root", rootID), zap.String("variant", cfg.Variant.String()))

	return &Tree{cfg: cfg, manager: manager, logger: logger, header: h}, nil
}

// Open reopens a tree whose header was previously flushed.
func Open(manager storage.Manager, logger *zap.Logger) (*Tree, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	buf, err := manager.Load(headerPageID)
	if err != nil {
		return nil, err
	}
	h, err := decodeHeader(buf)
	if err != nil {
		return nil, err
	}
	return &Tree{cfg: h.cfg, manager: manager, logger: logger, header: h}, nil
}

// Flush persists the tree header and the underlying storage manager's
// pending index state (spec.md §5's ordering rule: a flush is
// required for the header to reflect the latest tree state).
func (t *Tree) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.manager.Store(headerPageID, encodeHeader(t.header)); err != nil {
		return err
	}
	return t.manager.Flush()
}

// Close releases the underlying storage manager without flushing.
func (t *Tree) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.manager.Close()
}

// Stats reports the tree's counter bag.
func (t *Tree) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stats
	s.Nodes = t.header.nodeCount
	s.Data = t.header.dataCount
	s.Height = t.header.height
	s.NodesPerLevel = append([]int64(nil), t.header.nodesPerLevel...)
	return s
}

// RootID returns the page id of the current root, mainly for tests
// asserting tree-shape invariants.
func (t *Tree) RootID() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.header.rootID
}

// Height returns the current tree height.
func (t *Tree) Height() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.header.height
}

func (t *Tree) capacityFor(level int) int {
	if level == 0 {
		return t.cfg.LeafCapacity
	}
	return t.cfg.IndexCapacity
}

func (t *Tree) readNode(id int64) (*Node, error) {
	buf, err := t.manager.Load(id)
	if err != nil {
		return nil, err
	}
	return decodeNode(id, buf)
}

func (t *Tree) writeNode(n *Node) error {
	id, err := t.manager.Store(n.ID, encodeNode(n))
	if err != nil {
		return err
	}
	n.ID = id
	return nil
}

func findEntryIndex(entries []Entry, id int64) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func removeAt(entries []Entry, idx int) []Entry {
	return append(entries[:idx], entries[idx+1:]...)
}

func (t *Tree) growNodesPerLevel(level int, delta int64) {
	for len(t.header.nodesPerLevel) <= level {
		t.header.nodesPerLevel = append(t.header.nodesPerLevel, 0)
	}
	t.header.nodesPerLevel[level] += delta
}

// chooseSubtreePath descends from the root to the node at targetLevel
// that mbr should be inserted under, per spec.md §4.D ChooseSubtree,
// recording the ancestor ids walked along the way.
func (t *Tree) chooseSubtreePath(mbr geometry.Region, targetLevel int) ([]int64, *Node, error) {
	current, err := t.readNode(t.header.rootID)
	if err != nil {
		return nil, nil, err
	}

	var path []int64
	for current.Level != targetLevel {
		path = append(path, current.ID)
		idx := chooseSubtreeIndex(t.cfg, current.Entries, mbr, current.Level-1)
		childID := current.Entries[idx].ID
		current, err = t.readNode(childID)
		if err != nil {
			return nil, nil, err
		}
	}
	return path, current, nil
}

// Insert adds a shape's MBR, application id and opaque payload to the
// tree (spec.md §4.D Insert).
func (t *Tree) Insert(id int64, mbr geometry.Region, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data := payload
	if len(data) > 0 {
		data = append([]byte(nil), payload...)
	}
	entry := Entry{MBR: mbr, ID: id, Data: data}

	overflow := make([]bool, t.header.height)
	path, leaf, err := t.chooseSubtreePath(mbr, 0)
	if err != nil {
		return err
	}
	if err := t.insertAt(leaf, path, entry, &overflow); err != nil {
		return err
	}
	t.header.dataCount++
	return nil
}

// insertAt appends entry to node (simple case), or handles overflow
// via forced reinsertion (R* only, once per level per top-level
// insert) or Split, per spec.md §4.D steps 2-4.
func (t *Tree) insertAt(node *Node, path []int64, entry Entry, overflow *[]bool) error {
	capacity := t.capacityFor(node.Level)

	if len(node.Entries) < capacity {
		previous := node.MBR
		node.Entries = append(node.Entries, entry)
		node.recomputeMBR()
		if err := t.writeNode(node); err != nil {
			return err
		}
		if !geometry.ContainsRegion(previous, entry.MBR) {
			return t.adjustTree(path, node.ID, node.MBR)
		}
		return nil
	}

	node.Entries = append(node.Entries, entry)
	level := node.Level

	if t.cfg.Variant == VariantRStar && len(path) > 0 && !(*overflow)[level] {
		(*overflow)[level] = true
		return t.forcedReinsert(node, path, overflow)
	}

	return t.splitAndAdjust(node, path, overflow)
}

// splitAndAdjust splits an oversized node, writes both halves, and
// propagates the change upward: a new root if node was the root,
// otherwise an adjusted parent entry plus recursive insertion of the
// right half into the parent (spec.md §4.D Split).
func (t *Tree) splitAndAdjust(node *Node, path []int64, overflow *[]bool) error {
	capacity := t.capacityFor(node.Level)
	leftEntries, rightEntries := splitEntries(t.cfg, node.Entries, capacity)

	node.Entries = leftEntries
	node.recomputeMBR()
	if err := t.writeNode(node); err != nil {
		return err
	}

	right := &Node{ID: storage.NewPage, Level: node.Level, Entries: rightEntries}
	right.recomputeMBR()
	if err := t.writeNode(right); err != nil {
		return err
	}

	t.header.nodeCount++
	t.growNodesPerLevel(node.Level, 1)
	t.stats.Splits++
	t.logger.Debug("split", zap.Int64("left", node.ID), zap.Int64("right", right.ID), zap.Int("level", node.Level))

	if len(path) == 0 {
		newRoot := &Node{ID: storage.NewPage, Level: node.Level + 1, Entries: []Entry{
			{MBR: node.MBR, ID: node.ID},
			{MBR: right.MBR, ID: right.ID},
		}}
		newRoot.recomputeMBR()
		if err := t.writeNode(newRoot); err != nil {
			return err
		}
		t.header.rootID = newRoot.ID
		t.header.height++
		t.header.nodeCount++
		t.header.nodesPerLevel = append(t.header.nodesPerLevel, 1)
		if len(*overflow) < t.header.height {
			*overflow = append(*overflow, false)
		}
		return nil
	}

	parentID := path[len(path)-1]
	if err := t.adjustTree(path, node.ID, node.MBR); err != nil {
		return err
	}
	parent, err := t.readNode(parentID)
	if err != nil {
		return err
	}
	rightEntry := Entry{MBR: right.MBR, ID: right.ID}
	return t.insertAt(parent, path[:len(path)-1], rightEntry, overflow)
}

// adjustTree bubbles a single changed child's MBR up through path,
// the "single child changed" AdjustTree variant (spec.md §4.D): it
// stops as soon as a level's own MBR doesn't need to change.
func (t *Tree) adjustTree(path []int64, childID int64, childMBR geometry.Region) error {
	for i := len(path) - 1; i >= 0; i-- {
		node, err := t.readNode(path[i])
		if err != nil {
			return err
		}
		idx := findEntryIndex(node.Entries, childID)
		if idx < 0 {
			return fmt.Errorf("%w: child %d not found in parent %d", storage.ErrIllegalState, childID, node.ID)
		}
		oldChildMBR := node.Entries[idx].MBR
		node.Entries[idx].MBR = childMBR

		previous := node.MBR
		needRecompute := !geometry.ContainsRegion(previous, childMBR) ||
			(t.cfg.TightMBRs && geometry.TouchesRegion(previous, oldChildMBR))
		if needRecompute {
			node.recomputeMBR()
		}
		if err := t.writeNode(node); err != nil {
			return err
		}
		if !needRecompute {
			return nil
		}
		childID = node.ID
		childMBR = node.MBR
	}
	return nil
}

func ceilInt(v float64) int {
	return int(math.Ceil(v))
}
