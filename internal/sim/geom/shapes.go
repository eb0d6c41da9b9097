package geom

import (
	"math"
	"sort"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func nearRel(a, b, tol float64) bool {
	m := math.Max(math.Abs(a), math.Abs(b))
	if m < Eps {
		return true
	}
	return math.Abs(a-b)/m <= tol
}

func pairwiseSquared(pts []Point) []float64 {
	out := make([]float64, 0, len(pts)*(len(pts)-1)/2)
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			out = append(out, DistanceSquared(pts[i], pts[j]))
		}
	}
	sort.Float64s(out)
	return out
}

// IsRectangle reports whether the four points form a rectangle and returns
// its aspect ratio (long side / short side, always >= 1).
//
// The sorted squared pairwise distances of a rectangle are
// {s, s, l, l, d, d} with s + l = d.
func IsRectangle(pts [4]Point) (bool, float64) {
	d := pairwiseSquared(pts[:])
	if d[0] < DistTol {
		return false, 0
	}
	if !near(d[0], d[1], DistTol) || !near(d[2], d[3], DistTol) || !near(d[4], d[5], DistTol) {
		return false, 0
	}
	if !near(d[0]+d[2], d[4], DistTol) {
		return false, 0
	}
	return true, math.Sqrt(d[2] / d[0])
}

// IsParallelogram reports whether the four points, in any order, form a
// non-degenerate parallelogram. The returned order walks its perimeter.
func IsParallelogram(pts [4]Point) (bool, [4]int) {
	// The diagonals of a parallelogram bisect each other. Try each way of
	// splitting the four points into two diagonals.
	pairs := [3][4]int{{0, 2, 1, 3}, {0, 1, 2, 3}, {0, 3, 1, 2}}
	for _, pr := range pairs {
		m1 := pts[pr[0]].Midpoint(pts[pr[1]])
		m2 := pts[pr[2]].Midpoint(pts[pr[3]])
		if DistanceSquared(m1, m2) > DistTol {
			continue
		}
		order := [4]int{pr[0], pr[2], pr[1], pr[3]}
		poly := []Point{pts[order[0]], pts[order[1]], pts[order[2]], pts[order[3]]}
		if PolygonArea(poly) < 0.5 {
			return false, [4]int{}
		}
		return true, order
	}
	return false, [4]int{}
}

// IsRegularPentagon reports whether five points approximate a regular
// pentagon: five similar sides, five similar diagonals, and a
// diagonal/side ratio of phi.
func IsRegularPentagon(pts [5]Point) bool {
	d := pairwiseSquared(pts[:])
	side, diag := d[:5], d[5:]
	if side[0] < 1 {
		return false
	}
	meanS, meanD := mean(side), mean(diag)
	for i := 0; i < 5; i++ {
		if !nearRel(side[i], meanS, ShapeRelTol) || !nearRel(diag[i], meanD, ShapeRelTol) {
			return false
		}
	}
	return nearRel(meanD/meanS, Phi*Phi, ShapeRelTol/2)
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}

// Isosceles describes a triangle with two equal legs meeting at Apex.
type Isosceles struct {
	Apex   int // index into the input triangle
	Base   [2]int
	LegSq  float64
	BaseSq float64
}

// IsoscelesTriangleInfo decomposes a triangle into apex and base when two
// of its sides are equal. Equilateral triangles report vertex 0 as apex.
func IsoscelesTriangleInfo(a, b, c Point) (Isosceles, bool) {
	pts := [3]Point{a, b, c}
	if TriangleArea(a, b, c) < 0.5 {
		return Isosceles{}, false
	}
	for apex := 0; apex < 3; apex++ {
		i, j := (apex+1)%3, (apex+2)%3
		l1 := DistanceSquared(pts[apex], pts[i])
		l2 := DistanceSquared(pts[apex], pts[j])
		if near(l1, l2, DistTol) {
			return Isosceles{Apex: apex, Base: [2]int{i, j}, LegSq: l1, BaseSq: DistanceSquared(pts[i], pts[j])}, true
		}
	}
	return Isosceles{}, false
}

// TriangleArea is the unsigned area of abc.
func TriangleArea(a, b, c Point) float64 {
	return math.Abs(b.Sub(a).Cross(c.Sub(a))) / 2
}

// IsPointInsideTriangle uses the area-sum test; boundary points count as inside.
func IsPointInsideTriangle(p, a, b, c Point) bool {
	total := TriangleArea(a, b, c)
	if total < Eps {
		return false
	}
	sum := TriangleArea(p, a, b) + TriangleArea(p, b, c) + TriangleArea(p, c, a)
	return near(total, sum, AreaTol)
}

// ConvexHull returns the hull of pts in counter-clockwise order using a
// Graham scan. Collinear boundary points are dropped.
func ConvexHull(pts []Point) []Point {
	uniq := make([]Point, 0, len(pts))
	for _, p := range pts {
		dup := false
		for _, q := range uniq {
			if p.Eq(q) {
				dup = true
				break
			}
		}
		if !dup {
			uniq = append(uniq, p)
		}
	}
	if len(uniq) < 3 {
		return uniq
	}

	pivot := 0
	for i, p := range uniq {
		if p.Y < uniq[pivot].Y || (p.Y == uniq[pivot].Y && p.X < uniq[pivot].X) {
			pivot = i
		}
	}
	uniq[0], uniq[pivot] = uniq[pivot], uniq[0]
	p0 := uniq[0]
	rest := uniq[1:]
	sort.Slice(rest, func(i, j int) bool {
		ci := rest[i].Sub(p0).Cross(rest[j].Sub(p0))
		if math.Abs(ci) < Eps {
			return DistanceSquared(p0, rest[i]) < DistanceSquared(p0, rest[j])
		}
		return ci > 0
	})

	stack := []Point{p0}
	for _, p := range rest {
		for len(stack) >= 2 {
			top := stack[len(stack)-1]
			under := stack[len(stack)-2]
			if top.Sub(under).Cross(p.Sub(under)) > Eps {
				break
			}
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, p)
	}
	return stack
}

// PolygonArea is the unsigned shoelace area.
func PolygonArea(poly []Point) float64 {
	if len(poly) < 3 {
		return 0
	}
	s := 0.0
	for i := range poly {
		j := (i + 1) % len(poly)
		s += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return math.Abs(s) / 2
}

func PolygonPerimeter(poly []Point) float64 {
	if len(poly) < 2 {
		return 0
	}
	s := 0.0
	for i := range poly {
		j := (i + 1) % len(poly)
		s += math.Sqrt(DistanceSquared(poly[i], poly[j]))
	}
	return s
}

// Centroid is the vertex average.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(pts)))
}

// PointInPolygon is an even-odd ray cast; points on an edge count as inside.
func PointInPolygon(p Point, poly []Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		if Orientation(a, p, b) == Collinear && OnSegment(a, p, b) {
			return true
		}
	}
	in := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				in = !in
			}
		}
	}
	return in
}

// PolygonEdges returns the closed edge list of poly.
func PolygonEdges(poly []Point) []Segment {
	if len(poly) < 2 {
		return nil
	}
	out := make([]Segment, 0, len(poly))
	for i := range poly {
		out = append(out, Segment{A: poly[i], B: poly[(i+1)%len(poly)]})
	}
	return out
}
