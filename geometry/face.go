package geometry

import "math"

// Face is a B-Rep polygon primitive: a closed sequence of vertices in
// Dimensions-space. It is kept faithful to the shape it was ported
// from, including that shape's deliberately unimplemented exact
// predicates — the index only ever calls GetMBR during traversal
// (Shape's doc comment), so Face's IntersectsShape/ContainsShape/
// TouchesShape are stubs that always report false and
// GetMinimumDistance reports +Inf, exactly as the upstream
// implementation does. Only GetMBR carries real logic.
type Face struct {
	Vertices []Point
}

// NewFace builds a face from its ordered vertex list.
func NewFace(vertices []Point) Face {
	out := make([]Point, len(vertices))
	copy(out, vertices)
	return Face{Vertices: out}
}

func (f Face) ShapeType() ShapeType { return ShapeTypeFace }

// GetMBR returns the bounding box of every vertex in f.
//
// A from-scratch port of this formula has a well-known trap: writing
// min() for both the low and the high corner instead of min() for Low
// and max() for High. Spec.md §9 calls this out explicitly as a known
// source bug to avoid; the fix lives here, not on Edge.
func (f Face) GetMBR() Region {
	var r Region
	for i := 0; i < Dimensions; i++ {
		r.Low[i] = math.Inf(1)
		r.High[i] = math.Inf(-1)
	}
	for _, v := range f.Vertices {
		for i := 0; i < Dimensions; i++ {
			if v.Coords[i] < r.Low[i] {
				r.Low[i] = v.Coords[i]
			}
			if v.Coords[i] > r.High[i] {
				r.High[i] = v.Coords[i]
			}
		}
	}
	return r
}

// GetCenter returns the centroid of f's vertices.
func (f Face) GetCenter() Point {
	var p Point
	if len(f.Vertices) == 0 {
		return p
	}
	for _, v := range f.Vertices {
		for i := 0; i < Dimensions; i++ {
			p.Coords[i] += v.Coords[i]
		}
	}
	n := float64(len(f.Vertices))
	for i := 0; i < Dimensions; i++ {
		p.Coords[i] /= n
	}
	return p
}

// GetMinimumDistance always reports +Inf: exact face-to-point distance
// was never implemented upstream, and the index never calls it.
func (f Face) GetMinimumDistance(p Point) float64 {
	return math.Inf(1)
}

// IntersectsShape, ContainsShape and TouchesShape always report
// false: the exact B-Rep predicates were stubbed out upstream and the
// index only ever filters by MBR, never by these.
func (f Face) IntersectsShape(other Shape) bool { return false }
func (f Face) ContainsShape(other Shape) bool   { return false }
func (f Face) TouchesShape(other Shape) bool    { return false }

// GetByteArraySize returns the encoded size of f: a leading vertex
// count followed by that many (x, y) float64 pairs.
func (f Face) GetByteArraySize() int {
	return 4 + len(f.Vertices)*Dimensions*8
}

// StoreToByteArray encodes f as a little-endian vertex count followed
// by its vertex coordinates, Dimensions floats per vertex.
func (f Face) StoreToByteArray() []byte {
	buf := make([]byte, f.GetByteArraySize())
	putUint32(buf[0:], uint32(len(f.Vertices)))
	off := 4
	for _, v := range f.Vertices {
		for i := 0; i < Dimensions; i++ {
			putFloat64(buf[off:], v.Coords[i])
			off += 8
		}
	}
	return buf
}

// LoadFace parses the encoding StoreToByteArray produces.
func LoadFace(data []byte) (Face, error) {
	num := int(getUint32(data[0:]))
	off := 4
	vertices := make([]Point, num)
	for i := 0; i < num; i++ {
		var p Point
		for j := 0; j < Dimensions; j++ {
			p.Coords[j] = getFloat64(data[off:])
			off += 8
		}
		vertices[i] = p
	}
	return Face{Vertices: vertices}, nil
}
