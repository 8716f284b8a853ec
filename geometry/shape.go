package geometry

// ShapeType tags the concrete kind behind a Shape, mirroring the small
// type tag spec.md §6.4 requires callers to expose.
type ShapeType uint8

const (
	ShapeTypePoint ShapeType = iota + 1
	ShapeTypeRegion
	ShapeTypeEdge
	ShapeTypeFace
)

// Shape is the external collaborator contract spec.md §6.4 describes:
// geometry primitives richer than a bare Region are supplied by
// callers, and the core only ever calls GetMBR for indexing. The
// remaining predicates are invoked solely when a query visitor asks
// for exact-shape filtering rather than MBR-only filtering.
type Shape interface {
	ShapeType() ShapeType
	GetMBR() Region
	GetMinimumDistance(p Point) float64
	IntersectsShape(other Shape) bool
	ContainsShape(other Shape) bool
	TouchesShape(other Shape) bool
	GetByteArraySize() int
	StoreToByteArray() []byte
}

// ShapeLoader reconstructs a Shape from its byte-array round-trip
// encoding (the inverse of StoreToByteArray). Callers
// register the shapes they index; the core never needs to know how to
// parse arbitrary payloads, only how to hand them back unchanged.
type ShapeLoader func(data []byte) (Shape, error)

// RegionShape adapts a bare Region to the Shape contract so the query
// engine can treat index/leaf MBRs uniformly with caller shapes.
type RegionShape struct {
	Region Region
}

func (s RegionShape) ShapeType() ShapeType { return ShapeTypeRegion }
func (s RegionShape) GetMBR() Region       { return s.Region }

func (s RegionShape) GetMinimumDistance(p Point) float64 {
	return s.Region.GetMinimumDistance(p)
}

func (s RegionShape) IntersectsShape(other Shape) bool {
	return IntersectsRegion(s.Region, other.GetMBR())
}

func (s RegionShape) ContainsShape(other Shape) bool {
	return ContainsRegion(s.Region, other.GetMBR())
}

func (s RegionShape) TouchesShape(other Shape) bool {
	return TouchesRegion(s.Region, other.GetMBR())
}

func (s RegionShape) GetByteArraySize() int { return 4 * 8 }

func (s RegionShape) StoreToByteArray() []byte {
	buf := make([]byte, s.GetByteArraySize())
	putFloat64(buf[0:], s.Region.Low[0])
	putFloat64(buf[8:], s.Region.Low[1])
	putFloat64(buf[16:], s.Region.High[0])
	putFloat64(buf[24:], s.Region.High[1])
	return buf
}

// LoadRegionShape parses the encoding StoreToByteArray produces.
func LoadRegionShape(data []byte) (RegionShape, error) {
	var r Region
	r.Low[0] = getFloat64(data[0:])
	r.Low[1] = getFloat64(data[8:])
	r.High[0] = getFloat64(data[16:])
	r.High[1] = getFloat64(data[24:])
	return RegionShape{Region: r}, nil
}
