package geometry

import (
	"math"
	"testing"
)

func TestFaceGetMBR(t *testing.T) {
	f := NewFace([]Point{
		NewPoint([2]float64{0, 3}),
		NewPoint([2]float64{5, 0}),
		NewPoint([2]float64{2, 7}),
	})

	mbr := f.GetMBR()
	want := Region{Low: [2]float64{0, 0}, High: [2]float64{5, 7}}
	if mbr != want {
		t.Fatalf("GetMBR() = %+v, want %+v", mbr, want)
	}
}

func TestFaceShapeType(t *testing.T) {
	f := NewFace(nil)
	if f.ShapeType() != ShapeTypeFace {
		t.Fatalf("ShapeType() = %v, want ShapeTypeFace", f.ShapeType())
	}
}

func TestFaceByteArrayRoundTrip(t *testing.T) {
	f := NewFace([]Point{
		NewPoint([2]float64{1.5, -2.25}),
		NewPoint([2]float64{3, 4}),
	})

	data := f.StoreToByteArray()
	if len(data) != f.GetByteArraySize() {
		t.Fatalf("StoreToByteArray() len = %d, want %d", len(data), f.GetByteArraySize())
	}

	got, err := LoadFace(data)
	if err != nil {
		t.Fatalf("LoadFace() error = %v", err)
	}
	if len(got.Vertices) != len(f.Vertices) {
		t.Fatalf("LoadFace() vertex count = %d, want %d", len(got.Vertices), len(f.Vertices))
	}
	for i := range f.Vertices {
		if got.Vertices[i] != f.Vertices[i] {
			t.Fatalf("LoadFace() vertex %d = %+v, want %+v", i, got.Vertices[i], f.Vertices[i])
		}
	}
}

func TestFacePredicatesAreStubs(t *testing.T) {
	f := NewFace([]Point{NewPoint([2]float64{0, 0})})
	other := RegionShape{Region: f.GetMBR()}

	if f.IntersectsShape(other) {
		t.Fatalf("IntersectsShape() = true, want false")
	}
	if f.ContainsShape(other) {
		t.Fatalf("ContainsShape() = true, want false")
	}
	if f.TouchesShape(other) {
		t.Fatalf("TouchesShape() = true, want false")
	}
	if !math.IsInf(f.GetMinimumDistance(NewPoint([2]float64{1, 1})), 1) {
		t.Fatalf("GetMinimumDistance() is not +Inf")
	}
}
