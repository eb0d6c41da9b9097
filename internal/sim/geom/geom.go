// Package geom is the geometry kernel shared by the formation detector,
// the query layer and the action engine. Every function here is pure.
package geom

import "math"

// Tolerances are fixed so that outcomes are reproducible across runs.
const (
	// Eps guards divisions and orientation signs.
	Eps = 1e-9
	// DistTol is the absolute tolerance used when comparing squared distances.
	DistTol = 0.1
	// AreaTol is the absolute tolerance used by area-sum containment tests.
	AreaTol = 0.01
	// PerpTol bounds |cos| for two directions to count as perpendicular.
	PerpTol = 0.1
	// ShapeRelTol is the relative tolerance used for shapes that integer
	// grids can only approximate (regular pentagons, kites).
	ShapeRelTol = 0.15
)

// Phi is the golden ratio.
var Phi = (1 + math.Sqrt(5)) / 2

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Segment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

func Pt(x, y int) Point { return Point{X: float64(x), Y: float64(y)} }

func (p Point) Add(q Point) Point        { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point        { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(s float64) Point    { return Point{p.X * s, p.Y * s} }
func (p Point) Dot(q Point) float64      { return p.X*q.X + p.Y*q.Y }
func (p Point) Cross(q Point) float64    { return p.X*q.Y - p.Y*q.X }
func (p Point) Len() float64             { return math.Hypot(p.X, p.Y) }
func (p Point) Eq(q Point) bool          { return DistanceSquared(p, q) < Eps }
func (p Point) Round() (x, y int)        { return int(math.Round(p.X)), int(math.Round(p.Y)) }
func (p Point) Perp() Point              { return Point{-p.Y, p.X} }
func (p Point) Midpoint(q Point) Point   { return Point{(p.X + q.X) / 2, (p.Y + q.Y) / 2} }
func (s Segment) Midpoint() Point        { return s.A.Midpoint(s.B) }
func (s Segment) LengthSquared() float64 { return DistanceSquared(s.A, s.B) }

func (p Point) Norm() Point {
	l := p.Len()
	if l < Eps {
		return Point{}
	}
	return Point{p.X / l, p.Y / l}
}

func DistanceSquared(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Orientation classifies the turn p->q->r.
const (
	Collinear        = 0
	Clockwise        = 1
	CounterClockwise = 2
)

func Orientation(p, q, r Point) int {
	v := (q.Y-p.Y)*(r.X-q.X) - (q.X-p.X)*(r.Y-q.Y)
	if math.Abs(v) < Eps {
		return Collinear
	}
	if v > 0 {
		return Clockwise
	}
	return CounterClockwise
}

// OnSegment reports whether q lies on segment pr, given p, q, r are collinear.
func OnSegment(p, q, r Point) bool {
	return q.X <= math.Max(p.X, r.X)+Eps && q.X >= math.Min(p.X, r.X)-Eps &&
		q.Y <= math.Max(p.Y, r.Y)+Eps && q.Y >= math.Min(p.Y, r.Y)-Eps
}

func SegmentsIntersect(p1, q1, p2, q2 Point) bool {
	o1 := Orientation(p1, q1, p2)
	o2 := Orientation(p1, q1, q2)
	o3 := Orientation(p2, q2, p1)
	o4 := Orientation(p2, q2, q1)

	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == Collinear && OnSegment(p1, p2, q1) {
		return true
	}
	if o2 == Collinear && OnSegment(p1, q2, q1) {
		return true
	}
	if o3 == Collinear && OnSegment(p2, p1, q2) {
		return true
	}
	if o4 == Collinear && OnSegment(p2, q1, q2) {
		return true
	}
	return false
}

// SegmentIntersectionPoint solves p1+t(p2-p1) = p3+u(p4-p3) and returns the
// point when both parameters fall in [0,1]. Parallel segments never report.
func SegmentIntersectionPoint(p1, p2, p3, p4 Point) (Point, bool) {
	d1 := p2.Sub(p1)
	d2 := p4.Sub(p3)
	den := d1.Cross(d2)
	if math.Abs(den) < Eps {
		return Point{}, false
	}
	w := p3.Sub(p1)
	t := w.Cross(d2) / den
	u := w.Cross(d1) / den
	if t < -Eps || t > 1+Eps || u < -Eps || u > 1+Eps {
		return Point{}, false
	}
	return p1.Add(d1.Scale(t)), true
}

// SegmentCrossesAny reports whether ab intersects any of the obstacles.
func SegmentCrossesAny(a, b Point, obstacles []Segment) bool {
	for _, o := range obstacles {
		if SegmentsIntersect(a, b, o.A, o.B) {
			return true
		}
	}
	return false
}

// ExtendedBorderPoint extrapolates the ray p1->p2 until it leaves the
// gridSize x gridSize board and returns the last integer cell on it. It
// returns false for a degenerate segment or when the stretch beyond p2
// crosses an obstacle.
func ExtendedBorderPoint(p1, p2 Point, gridSize int, obstacles []Segment) (Point, bool) {
	d := p2.Sub(p1)
	if d.Len() < Eps || gridSize <= 0 {
		return Point{}, false
	}
	hi := float64(gridSize - 1)
	best := math.Inf(1)
	for _, c := range []struct{ pos, delta float64 }{{p1.X, d.X}, {p1.Y, d.Y}} {
		if math.Abs(c.delta) < Eps {
			continue
		}
		bound := 0.0
		if c.delta > 0 {
			bound = hi
		}
		t := (bound - c.pos) / c.delta
		if t >= 1-Eps && t < best {
			best = t
		}
	}
	if math.IsInf(best, 1) {
		return Point{}, false
	}
	x, y := p1.Add(d.Scale(best)).Round()
	end := Pt(ClampInt(x, 0, gridSize-1), ClampInt(y, 0, gridSize-1))

	// Test the forward stretch as one long segment. It starts a hair past p2
	// so an obstacle that merely touches the origin line does not block it.
	start := p2.Add(d.Norm().Scale(1e-6))
	if SegmentCrossesAny(start, end, obstacles) {
		return Point{}, false
	}
	return end, true
}

// RayToBorder returns the last board cell reached from origin along dir.
// It reports false when dir is degenerate or origin already sits on the
// border facing outward.
func RayToBorder(origin, dir Point, gridSize int) (Point, bool) {
	if dir.Len() < Eps || gridSize <= 0 {
		return Point{}, false
	}
	hi := float64(gridSize - 1)
	best := math.Inf(1)
	for _, c := range []struct{ pos, delta float64 }{{origin.X, dir.X}, {origin.Y, dir.Y}} {
		if math.Abs(c.delta) < Eps {
			continue
		}
		bound := 0.0
		if c.delta > 0 {
			bound = hi
		}
		t := (bound - c.pos) / c.delta
		if t < best {
			best = t
		}
	}
	if math.IsInf(best, 1) || best*dir.Len() < 0.5 {
		return Point{}, false
	}
	x, y := origin.Add(dir.Scale(best)).Round()
	return Pt(ClampInt(x, 0, gridSize-1), ClampInt(y, 0, gridSize-1)), true
}

func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp rounds p to the nearest cell inside the board.
func Clamp(p Point, gridSize int) (x, y int) {
	x, y = p.Round()
	return ClampInt(x, 0, gridSize-1), ClampInt(y, 0, gridSize-1)
}

// InBounds reports whether the cell is on the board.
func InBounds(x, y, gridSize int) bool {
	return x >= 0 && y >= 0 && x < gridSize && y < gridSize
}

// DistancePointSegmentSquared is the squared distance from p to segment ab.
func DistancePointSegmentSquared(p, a, b Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < Eps {
		return DistanceSquared(p, a)
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return DistanceSquared(p, a.Add(ab.Scale(t)))
}

// Rotate turns p around center by angle radians (counter-clockwise).
func Rotate(p, center Point, angle float64) Point {
	s, c := math.Sincos(angle)
	v := p.Sub(center)
	return Point{center.X + v.X*c - v.Y*s, center.Y + v.X*s + v.Y*c}
}

// Reflect mirrors p across the infinite line through a and b.
func Reflect(p, a, b Point) Point {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < Eps {
		return p
	}
	t := p.Sub(a).Dot(ab) / l2
	foot := a.Add(ab.Scale(t))
	return foot.Scale(2).Sub(p)
}

// IsPerpendicular reports whether u and v are at right angles within PerpTol.
func IsPerpendicular(u, v Point) bool {
	lu, lv := u.Len(), v.Len()
	if lu < Eps || lv < Eps {
		return false
	}
	return math.Abs(u.Dot(v))/(lu*lv) < PerpTol
}

// IsParallelDir reports whether u and v point the same or opposite way.
func IsParallelDir(u, v Point) bool {
	lu, lv := u.Len(), v.Len()
	if lu < Eps || lv < Eps {
		return false
	}
	return math.Abs(u.Cross(v))/(lu*lv) < PerpTol
}

// AngleAt returns the angle a-v-b in radians.
func AngleAt(v, a, b Point) float64 {
	u := a.Sub(v)
	w := b.Sub(v)
	lu, lw := u.Len(), w.Len()
	if lu < Eps || lw < Eps {
		return 0
	}
	c := u.Dot(w) / (lu * lw)
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

// Bisector returns the unit direction that halves the angle a-v-b.
func Bisector(v, a, b Point) Point {
	return a.Sub(v).Norm().Add(b.Sub(v).Norm()).Norm()
}
