package geom

import (
	"math"
	"testing"
)

func TestIsRectangle_UnitSquare(t *testing.T) {
	ok, aspect := IsRectangle([4]Point{Pt(0, 0), Pt(1, 0), Pt(1, 1), Pt(0, 1)})
	if !ok {
		t.Fatalf("unit square not recognized")
	}
	if math.Abs(aspect-1) > 1e-9 {
		t.Fatalf("aspect=%v want 1", aspect)
	}
}

func TestIsRectangle_PerturbedCorner(t *testing.T) {
	base := [4]Point{Pt(0, 0), Pt(1, 0), Pt(1, 1), Pt(0, 1)}
	for i := 0; i < 4; i++ {
		for _, d := range []Point{{X: 0.5}, {Y: 0.5}, {X: -0.4}, {Y: 1}} {
			pts := base
			pts[i] = pts[i].Add(d)
			if ok, _ := IsRectangle(pts); ok {
				t.Fatalf("perturbed corner %d by %v still a rectangle", i, d)
			}
		}
	}
}

func TestIsRectangle_ThinAndRotated(t *testing.T) {
	ok, aspect := IsRectangle([4]Point{Pt(2, 2), Pt(6, 2), Pt(6, 3), Pt(2, 3)})
	if !ok || math.Abs(aspect-4) > 1e-9 {
		t.Fatalf("1x4 rectangle: ok=%v aspect=%v", ok, aspect)
	}
	// Tilted square: (0,0) (2,1) (1,3) (-1,2).
	ok, aspect = IsRectangle([4]Point{Pt(0, 0), Pt(2, 1), Pt(1, 3), Pt(-1, 2)})
	if !ok || math.Abs(aspect-1) > 1e-9 {
		t.Fatalf("tilted square: ok=%v aspect=%v", ok, aspect)
	}
}

func TestExtendedBorderPoint(t *testing.T) {
	cases := []struct {
		name   string
		p1, p2 Point
		want   Point
	}{
		{"diagonal", Pt(0, 0), Pt(5, 5), Pt(9, 9)},
		{"horizontal", Pt(2, 4), Pt(3, 4), Pt(9, 4)},
		{"backwards", Pt(5, 5), Pt(4, 5), Pt(0, 5)},
		{"shallow", Pt(1, 1), Pt(3, 2), Pt(9, 5)},
		{"touching border", Pt(5, 5), Pt(9, 5), Pt(9, 5)},
		{"touching border up", Pt(3, 3), Pt(3, 0), Pt(3, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtendedBorderPoint(tc.p1, tc.p2, 10, nil)
			if !ok {
				t.Fatalf("no border point")
			}
			if !got.Eq(tc.want) {
				t.Fatalf("got=%v want=%v", got, tc.want)
			}
			// The result is never behind the origin.
			if got.Sub(tc.p1).Dot(tc.p2.Sub(tc.p1)) < 0 {
				t.Fatalf("border point %v is behind origin", got)
			}
		})
	}
}

func TestExtendedBorderPoint_Blocked(t *testing.T) {
	wall := []Segment{{A: Pt(7, 0), B: Pt(7, 9)}}
	if _, ok := ExtendedBorderPoint(Pt(1, 4), Pt(3, 4), 10, wall); ok {
		t.Fatalf("expected obstacle to block extension")
	}
	if _, ok := ExtendedBorderPoint(Pt(3, 4), Pt(1, 4), 10, wall); !ok {
		t.Fatalf("obstacle behind origin must not block")
	}
	if _, ok := ExtendedBorderPoint(Pt(3, 3), Pt(3, 3), 10, nil); ok {
		t.Fatalf("degenerate segment must not extend")
	}
}

func TestSegmentsIntersect(t *testing.T) {
	if !SegmentsIntersect(Pt(0, 0), Pt(4, 4), Pt(0, 4), Pt(4, 0)) {
		t.Fatalf("crossing diagonals")
	}
	if SegmentsIntersect(Pt(0, 0), Pt(1, 1), Pt(2, 2), Pt(3, 3)) {
		t.Fatalf("disjoint collinear segments")
	}
	if !SegmentsIntersect(Pt(0, 0), Pt(2, 2), Pt(1, 1), Pt(3, 3)) {
		t.Fatalf("overlapping collinear segments")
	}
	p, ok := SegmentIntersectionPoint(Pt(0, 0), Pt(4, 4), Pt(0, 4), Pt(4, 0))
	if !ok || !p.Eq(Pt(2, 2)) {
		t.Fatalf("intersection=%v ok=%v", p, ok)
	}
	if _, ok := SegmentIntersectionPoint(Pt(0, 0), Pt(1, 1), Pt(0, 4), Pt(4, 0)); ok {
		t.Fatalf("intersection outside [0,1] must not report")
	}
}

func TestIsRegularPentagon(t *testing.T) {
	ok := IsRegularPentagon([5]Point{Pt(5, 0), Pt(10, 4), Pt(8, 10), Pt(2, 10), Pt(0, 4)})
	if !ok {
		t.Fatalf("integer pentagon not recognized")
	}
	if IsRegularPentagon([5]Point{Pt(0, 0), Pt(4, 0), Pt(4, 4), Pt(0, 4), Pt(2, 6)}) {
		t.Fatalf("house shape accepted as pentagon")
	}
}

func TestIsoscelesTriangleInfo(t *testing.T) {
	iso, ok := IsoscelesTriangleInfo(Pt(0, 0), Pt(4, 0), Pt(2, 5))
	if !ok || iso.Apex != 2 {
		t.Fatalf("iso=%+v ok=%v", iso, ok)
	}
	if _, ok := IsoscelesTriangleInfo(Pt(0, 0), Pt(5, 0), Pt(1, 2)); ok {
		t.Fatalf("scalene accepted")
	}
}

func TestConvexHullAndArea(t *testing.T) {
	hull := ConvexHull([]Point{Pt(0, 0), Pt(4, 0), Pt(2, 1), Pt(4, 4), Pt(0, 4), Pt(2, 2), Pt(2, 0)})
	if len(hull) != 4 {
		t.Fatalf("hull=%v want 4 corners", hull)
	}
	if a := PolygonArea(hull); math.Abs(a-16) > 1e-9 {
		t.Fatalf("area=%v want 16", a)
	}
	if p := PolygonPerimeter(hull); math.Abs(p-16) > 1e-9 {
		t.Fatalf("perimeter=%v want 16", p)
	}
	if !PointInPolygon(Pt(1, 1), hull) || PointInPolygon(Pt(5, 1), hull) {
		t.Fatalf("point in polygon mismatch")
	}
	if !IsPointInsideTriangle(Pt(1, 1), Pt(0, 0), Pt(4, 0), Pt(0, 4)) {
		t.Fatalf("inside triangle")
	}
	if IsPointInsideTriangle(Pt(3, 3), Pt(0, 0), Pt(4, 0), Pt(0, 4)) {
		t.Fatalf("outside triangle")
	}
}

func TestReflectAndRotate(t *testing.T) {
	r := Reflect(Pt(1, 3), Pt(0, 0), Pt(4, 0))
	if !r.Eq(Pt(1, -3)) {
		t.Fatalf("reflect=%v", r)
	}
	q := Rotate(Pt(2, 0), Pt(0, 0), math.Pi/2)
	if !q.Eq(Pt(0, 2)) {
		t.Fatalf("rotate=%v", q)
	}
}

func TestRayToBorder(t *testing.T) {
	p, ok := RayToBorder(Pt(4, 4), Point{X: 0, Y: -1}, 10)
	if !ok || !p.Eq(Pt(4, 0)) {
		t.Fatalf("ray=%v ok=%v", p, ok)
	}
	if _, ok := RayToBorder(Pt(0, 4), Point{X: -1}, 10); ok {
		t.Fatalf("ray leaving from the border must not report")
	}
}
