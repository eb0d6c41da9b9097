package query

import (
	"runegrid.ai/internal/sim/formation"
	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/state"
)

// Extension is a line extended past one endpoint to the border.
type Extension struct {
	LineID string
	From   string // the endpoint the ray starts behind
	Tip    string // the endpoint the ray leaves from
	End    geom.Point
}

// Extensions lists both directions of every team line whose border point
// is reachable, free and at least minSpacing from every existing point.
func Extensions(s *state.State, teamID string, minSpacing float64) []Extension {
	obstacles := s.Obstacles(teamID)
	var out []Extension
	for _, lid := range s.TeamLineIDs(teamID) {
		l := s.Lines[lid]
		for _, dir := range [][2]string{{l.P1, l.P2}, {l.P2, l.P1}} {
			a, _ := s.Pos(dir[0])
			b, _ := s.Pos(dir[1])
			end, ok := geom.ExtendedBorderPoint(a, b, s.GridSize, obstacles)
			if !ok {
				continue
			}
			x, y := end.Round()
			if !s.CanSpawnAt(x, y) || !Spaced(s, x, y, minSpacing) {
				continue
			}
			out = append(out, Extension{LineID: lid, From: dir[0], Tip: dir[1], End: end})
		}
	}
	return out
}

// Spaced reports whether no point lies closer than minDist to the cell.
func Spaced(s *state.State, x, y int, minDist float64) bool {
	c := geom.Pt(x, y)
	limit := minDist * minDist
	for _, p := range s.Points {
		if geom.DistanceSquared(c, p.Pos()) < limit {
			return false
		}
	}
	return true
}

// Ray is a beam cast from a team point toward an end point.
type Ray struct {
	LineID string
	Origin geom.Point
	End    geom.Point
}

// AttackRays casts both directions of every team line to the border
// without obstacle tests; obstacles only stop growth, not attacks.
func AttackRays(s *state.State, teamID string) []Ray {
	var out []Ray
	for _, lid := range s.TeamLineIDs(teamID) {
		l := s.Lines[lid]
		for _, dir := range [][2]string{{l.P1, l.P2}, {l.P2, l.P1}} {
			a, _ := s.Pos(dir[0])
			b, _ := s.Pos(dir[1])
			end, ok := geom.ExtendedBorderPoint(a, b, s.GridSize, nil)
			if !ok {
				continue
			}
			out = append(out, Ray{LineID: lid, Origin: b, End: end})
		}
	}
	return out
}

// Hit is the closest enemy line crossed by a ray.
type Hit struct {
	LineID string
	At     geom.Point
}

// FirstHit finds the enemy line a ray meets first. Shielded lines are
// skipped unless bypass is set; bastion lines are always skipped.
func FirstHit(s *state.State, teamID string, origin, end geom.Point, bypass bool) (Hit, bool) {
	bastion := BastionLines(s)
	var best Hit
	bestD := -1.0
	for _, lid := range s.EnemyLineIDs(teamID) {
		if bastion[lid] || (!bypass && s.Shields[lid] > 0) {
			continue
		}
		seg, _ := s.Segment(lid)
		p, ok := geom.SegmentIntersectionPoint(origin, end, seg.A, seg.B)
		if !ok {
			continue
		}
		d := geom.DistanceSquared(origin, p)
		if d < geom.Eps {
			continue
		}
		if bestD < 0 || d < bestD {
			best, bestD = Hit{LineID: lid, At: p}, d
		}
	}
	return best, bestD >= 0
}

// BastionLines are lines joining a bastion core to one of its prongs.
func BastionLines(s *state.State) map[string]bool {
	out := map[string]bool{}
	for _, st := range s.StructuresOfKind(state.KindBastion) {
		b := st.(*state.Bastion)
		for _, pr := range b.Prongs {
			if lid, ok := s.LineBetween(b.Core, pr); ok {
				out[lid] = true
			}
		}
	}
	return out
}

// AttackableEnemyLines lists enemy lines a standard attack may damage.
func AttackableEnemyLines(s *state.State, teamID string) []string {
	bastion := BastionLines(s)
	var out []string
	for _, lid := range s.EnemyLineIDs(teamID) {
		if !bastion[lid] && s.Shields[lid] == 0 {
			out = append(out, lid)
		}
	}
	return out
}

// AddablePairs lists unconnected team point pairs whose segment crosses
// no obstacle and no other point.
func AddablePairs(s *state.State, teamID string) [][2]string {
	var out [][2]string
	eachAddablePair(s, teamID, func(a, b string) bool {
		out = append(out, [2]string{a, b})
		return true
	})
	return out
}

// HasAddablePair reports whether AddablePairs would be non-empty, stopping
// at the first pair found.
func HasAddablePair(s *state.State, teamID string) bool {
	found := false
	eachAddablePair(s, teamID, func(a, b string) bool {
		found = true
		return false
	})
	return found
}

// eachAddablePair calls fn for every addable pair in id order until fn
// returns false.
func eachAddablePair(s *state.State, teamID string, fn func(a, b string) bool) {
	obstacles := s.Obstacles(teamID)
	ids := s.TeamPointIDs(teamID)
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := ids[i], ids[j]
			if _, ok := s.LineBetween(a, b); ok {
				continue
			}
			pa, _ := s.Pos(a)
			pb, _ := s.Pos(b)
			if passesThroughPoint(s, pa, pb, a, b) || geom.SegmentCrossesAny(pa, pb, obstacles) {
				continue
			}
			if !fn(a, b) {
				return
			}
		}
	}
}

// passesThroughPoint reports whether any point other than skipA and skipB
// lies within half a cell of segment ab.
func passesThroughPoint(s *state.State, a, b geom.Point, skipA, skipB string) bool {
	minX, maxX := min(a.X, b.X)-0.5, max(a.X, b.X)+0.5
	minY, maxY := min(a.Y, b.Y)-0.5, max(a.Y, b.Y)+0.5
	for id, p := range s.Points {
		x, y := float64(p.X), float64(p.Y)
		if x < minX || x > maxX || y < minY || y > maxY || id == skipA || id == skipB {
			continue
		}
		if geom.DistancePointSegmentSquared(p.Pos(), a, b) < 0.25 {
			return true
		}
	}
	return false
}

// FracturableLines are team lines at least minLenSq long with a free cell
// near their middle.
func FracturableLines(s *state.State, teamID string, minLenSq float64) []string {
	var out []string
	for _, lid := range s.TeamLineIDs(teamID) {
		seg, _ := s.Segment(lid)
		if seg.LengthSquared() < minLenSq {
			continue
		}
		if len(FracturePoints(s, seg)) > 0 {
			out = append(out, lid)
		}
	}
	return out
}

// FracturePoints are free integer cells on the line between 30% and 70%
// of its length.
func FracturePoints(s *state.State, seg geom.Segment) [][2]int {
	var out [][2]int
	seen := map[[2]int]bool{}
	for i := 3; i <= 7; i++ {
		t := float64(i) / 10
		p := seg.A.Add(seg.B.Sub(seg.A).Scale(t))
		x, y := p.Round()
		c := [2]int{x, y}
		if seen[c] || !s.CanSpawnAt(x, y) {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// ClaimableTriangles are closed team triangles not yet claimed.
func ClaimableTriangles(s *state.State, teamID string) [][3]string {
	var out [][3]string
	for _, tri := range formation.Triangles(Graph(s, teamID)) {
		if s.TerritoryExists(tri) {
			continue
		}
		a, _ := s.Pos(tri[0])
		b, _ := s.Pos(tri[1])
		c, _ := s.Pos(tri[2])
		if geom.TriangleArea(a, b, c) < geom.AreaTol {
			continue
		}
		out = append(out, tri)
	}
	return out
}

// NovaCandidates are sacrificeable points with an enemy line within
// radius of them.
func NovaCandidates(s *state.State, teamID string, radius float64) []string {
	r2 := radius * radius
	var out []string
	for _, pid := range SacrificeCandidates(s, teamID) {
		p, _ := s.Pos(pid)
		for _, lid := range s.EnemyLineIDs(teamID) {
			seg, _ := s.Segment(lid)
			if geom.DistancePointSegmentSquared(p, seg.A, seg.B) <= r2 {
				out = append(out, pid)
				break
			}
		}
	}
	return out
}

// Hull returns the convex hull of the team's points.
func Hull(s *state.State, teamID string) []geom.Point {
	var pts []geom.Point
	for _, id := range s.TeamPointIDs(teamID) {
		pts = append(pts, s.Points[id].Pos())
	}
	return geom.ConvexHull(pts)
}

// EnemyPointsInHull lists enemy points strictly covered by the team hull.
func EnemyPointsInHull(s *state.State, teamID string) []string {
	hull := Hull(s, teamID)
	if len(hull) < 3 {
		return nil
	}
	var out []string
	for _, id := range s.EnemyPointIDs(teamID) {
		if geom.PointInPolygon(s.Points[id].Pos(), hull) {
			out = append(out, id)
		}
	}
	return out
}

// FreePoints are team points that can be moved: not critical, not in
// territory, not frozen.
func FreePoints(s *state.State, teamID string) []string {
	immune := ImmunePoints(s)
	var out []string
	for _, id := range s.TeamPointIDs(teamID) {
		if !immune[id] && !s.Frozen(id) {
			out = append(out, id)
		}
	}
	return out
}

// UnshieldedLines lists team lines without an active shield.
func UnshieldedLines(s *state.State, teamID string) []string {
	var out []string
	for _, lid := range s.TeamLineIDs(teamID) {
		if s.Shields[lid] == 0 {
			out = append(out, lid)
		}
	}
	return out
}

// StrengthenableLines lists team lines below the strength cap.
func StrengthenableLines(s *state.State, teamID string, maxStrength int) []string {
	var out []string
	for _, lid := range s.TeamLineIDs(teamID) {
		if s.Strengths[lid] < maxStrength {
			out = append(out, lid)
		}
	}
	return out
}
