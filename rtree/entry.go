package rtree

import "github.com/rtreedb/rtreedb/geometry"

// Entry is one child of a node: for index nodes, ID is the page id of
// the child node and Data is empty; for leaf nodes, ID is the
// application-supplied shape id and Data is the opaque payload.
//
// Replaces the parallel-array layout (lengths/pointers/MBRs/ids kept
// as side-by-side slices with manual ownership) with a single owned
// record per child.
type Entry struct {
	MBR  geometry.Region
	ID   int64
	Data []byte
}

// Clone returns a deep copy of e so callers can mutate MBR/Data
// without aliasing the original.
func (e Entry) Clone() Entry {
	out := Entry{MBR: e.MBR, ID: e.ID}
	if len(e.Data) > 0 {
		out.Data = make([]byte, len(e.Data))
		copy(out.Data, e.Data)
	}
	return out
}
