package rtree

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/rtreedb/rtreedb/geometry"
	"github.com/rtreedb/rtreedb/storage"
)

// nodeTypeIndex and nodeTypeLeaf tag a node's encoded byte layout
// (spec.md §4.C). Level 0 is always the leaf level; a node's Level
// field is the single source of truth and nodeType is derived from it
// on encode, never stored independently — avoiding the inverted
// IsIndex/IsLeaf definition the source carried.
const (
	nodeTypeIndex uint32 = 1
	nodeTypeLeaf  uint32 = 2
)

// Node is the common structure for index and leaf nodes (spec.md §3).
type Node struct {
	ID      int64
	Level   int
	MBR     geometry.Region
	Entries []Entry
}

// IsLeaf reports whether n is at the leaf level (level 0).
func (n *Node) IsLeaf() bool { return n.Level == 0 }

// IsIndex reports whether n is an internal (non-leaf) node.
func (n *Node) IsIndex() bool { return n.Level != 0 }

// recomputeMBR sets n.MBR to the union of its entries' MBRs, or the
// infinite-negative sentinel if n has no entries.
func (n *Node) recomputeMBR() {
	if len(n.Entries) == 0 {
		n.MBR.MakeInfinite()
		return
	}
	mbr := n.Entries[0].MBR
	for _, e := range n.Entries[1:] {
		mbr.Combine(e.MBR)
	}
	n.MBR = mbr
}

// encodeNode serializes n per spec.md §4.C: all little-endian,
// node_type/level/children header, then per-entry low/high/id/data,
// then the trailing node MBR.
func encodeNode(n *Node) []byte {
	size := 4 + 4 + 4 // node_type, level, children
	for _, e := range n.Entries {
		size += 8*2*geometry.Dimensions + 8 + 4 + len(e.Data)
	}
	size += 8 * 2 * geometry.Dimensions // node MBR

	buf := make([]byte, size)
	off := 0

	nodeType := nodeTypeIndex
	if n.IsLeaf() {
		nodeType = nodeTypeLeaf
	}
	binary.LittleEndian.PutUint32(buf[off:], nodeType)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(n.Level))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(n.Entries)))
	off += 4

	for _, e := range n.Entries {
		for i := 0; i < geometry.Dimensions; i++ {
			putF64(buf[off:], e.MBR.Low[i])
			off += 8
		}
		for i := 0; i < geometry.Dimensions; i++ {
			putF64(buf[off:], e.MBR.High[i])
			off += 8
		}
		binary.LittleEndian.PutUint64(buf[off:], uint64(e.ID))
		off += 8
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(e.Data)))
		off += 4
		copy(buf[off:], e.Data)
		off += len(e.Data)
	}

	for i := 0; i < geometry.Dimensions; i++ {
		putF64(buf[off:], n.MBR.Low[i])
		off += 8
	}
	for i := 0; i < geometry.Dimensions; i++ {
		putF64(buf[off:], n.MBR.High[i])
		off += 8
	}

	return buf
}

// decodeNode rebuilds a Node from encodeNode's byte layout, reading
// each entry's own data length as it goes; no total data length is
// stored or kept.
func decodeNode(id int64, buf []byte) (*Node, error) {
	if len(buf) < 12 {
		return nil, fmt.Errorf("%w: node record too short (%d bytes)", storage.ErrIllegalState, len(buf))
	}
	off := 0
	nodeType := binary.LittleEndian.Uint32(buf[off:])
	off += 4
	level := binary.LittleEndian.Uint32(buf[off:])
	off += 4
	childCount := binary.LittleEndian.Uint32(buf[off:])
	off += 4

	if nodeType != nodeTypeIndex && nodeType != nodeTypeLeaf {
		return nil, fmt.Errorf("%w: unknown node type tag %d", storage.ErrIllegalState, nodeType)
	}

	n := &Node{ID: id, Level: int(level), Entries: make([]Entry, 0, childCount)}

	for i := uint32(0); i < childCount; i++ {
		var e Entry
		if off+8*2*geometry.Dimensions+8+4 > len(buf) {
			return nil, fmt.Errorf("%w: truncated entry %d", storage.ErrIllegalState, i)
		}
		for d := 0; d < geometry.Dimensions; d++ {
			e.MBR.Low[d] = getF64(buf[off:])
			off += 8
		}
		for d := 0; d < geometry.Dimensions; d++ {
			e.MBR.High[d] = getF64(buf[off:])
			off += 8
		}
		e.ID = int64(binary.LittleEndian.Uint64(buf[off:]))
		off += 8
		dataLen := binary.LittleEndian.Uint32(buf[off:])
		off += 4
		if off+int(dataLen) > len(buf) {
			return nil, fmt.Errorf("%w: truncated entry %d payload", storage.ErrIllegalState, i)
		}
		if dataLen > 0 {
			e.Data = make([]byte, dataLen)
			copy(e.Data, buf[off:off+int(dataLen)])
			off += int(dataLen)
		}
		n.Entries = append(n.Entries, e)
	}

	if off+8*2*geometry.Dimensions > len(buf) {
		return nil, fmt.Errorf("%w: truncated node MBR", storage.ErrIllegalState)
	}
	for d := 0; d < geometry.Dimensions; d++ {
		n.MBR.Low[d] = getF64(buf[off:])
		off += 8
	}
	for d := 0; d < geometry.Dimensions; d++ {
		n.MBR.High[d] = getF64(buf[off:])
		off += 8
	}

	return n, nil
}

func putF64(buf []byte, v float64) {
	binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
}

func getF64(buf []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(buf))
}
