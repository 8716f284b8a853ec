package geometry

// Edge is a line segment between two endpoints.
type Edge struct {
	Start Point
	End   Point
}

// NewEdge builds an edge from its two endpoints.
func NewEdge(start, end Point) Edge {
	return Edge{Start: start, End: end}
}

// GetMBR returns the bounding box of e: the per-axis minimum of the
// two endpoints for Low, the per-axis maximum for High.
func (e Edge) GetMBR() Region {
	var r Region
	for i := 0; i < Dimensions; i++ {
		if e.Start.Coords[i] <= e.End.Coords[i] {
			r.Low[i] = e.Start.Coords[i]
			r.High[i] = e.End.Coords[i]
		} else {
			r.Low[i] = e.End.Coords[i]
			r.High[i] = e.Start.Coords[i]
		}
	}
	return r
}

// GetMinimumDistance returns the minimum distance from e's bounding
// region to a point; exact segment distance is not needed by the
// index, which only ever consults a shape's MBR during traversal.
func (e Edge) GetMinimumDistance(p Point) float64 {
	return e.GetMBR().GetMinimumDistance(p)
}

// orientation returns the sign of the double area of the triangle
// (a, b, c): positive for counter-clockwise, negative for clockwise,
// zero for collinear points.
func orientation(a, b, c Point) float64 {
	return (b.Coords[0]-a.Coords[0])*(c.Coords[1]-a.Coords[1]) -
		(b.Coords[1]-a.Coords[1])*(c.Coords[0]-a.Coords[0])
}

func onSegment(a, b, p Point) bool {
	minX, maxX := a.Coords[0], b.Coords[0]
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := a.Coords[1], b.Coords[1]
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return p.Coords[0] >= minX-epsilon && p.Coords[0] <= maxX+epsilon &&
		p.Coords[1] >= minY-epsilon && p.Coords[1] <= maxY+epsilon
}

// segmentsIntersect reports whether edge (p1,p2) and edge (p3,p4)
// intersect, properly or improperly (touching endpoints / collinear
// overlap both count), via the standard double-area-of-triangle
// orientation predicate.
func segmentsIntersect(p1, p2, p3, p4 Point) bool {
	o1 := orientation(p1, p2, p3)
	o2 := orientation(p1, p2, p4)
	o3 := orientation(p3, p4, p1)
	o4 := orientation(p3, p4, p2)

	if ((o1 > 0) != (o2 > 0)) && ((o3 > 0) != (o4 > 0)) && o1 != 0 && o2 != 0 && o3 != 0 && o4 != 0 {
		return true
	}

	// Collinear / touching special cases.
	if o1 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if o2 == 0 && onSegment(p1, p2, p4) {
		return true
	}
	if o3 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if o4 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	return false
}

// IntersectsEdge reports whether e intersects r: either endpoint lies
// inside r, or e crosses one of r's four sides.
func (e Edge) IntersectsEdge(r Region) bool {
	startIn := r.Low[0] <= e.Start.Coords[0] && e.Start.Coords[0] <= r.High[0] &&
		r.Low[1] <= e.Start.Coords[1] && e.Start.Coords[1] <= r.High[1]
	if startIn {
		return true
	}
	endIn := r.Low[0] <= e.End.Coords[0] && e.End.Coords[0] <= r.High[0] &&
		r.Low[1] <= e.End.Coords[1] && e.End.Coords[1] <= r.High[1]
	if endIn {
		return true
	}

	corners := [4]Point{
		{Coords: [2]float64{r.Low[0], r.Low[1]}},
		{Coords: [2]float64{r.High[0], r.Low[1]}},
		{Coords: [2]float64{r.High[0], r.High[1]}},
		{Coords: [2]float64{r.Low[0], r.High[1]}},
	}
	for i := 0; i < 4; i++ {
		side := NewEdge(corners[i], corners[(i+1)%4])
		if segmentsIntersect(e.Start, e.End, side.Start, side.End) {
			return true
		}
	}
	return false
}
