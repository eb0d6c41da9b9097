package formation

import (
	"sort"
	"strings"

	"runegrid.ai/internal/sim/geom"
)

// cornerTolSq is how far the computed fourth corner may sit from a real
// point for that point to count.
const cornerTolSq = 0.5

// Quad is a rectangle whose four sides are all lines of the graph.
// Corners walk the perimeter.
type Quad struct {
	Corners [4]string
	Aspect  float64
}

func quadKey(ids ...string) string {
	s := sortedCopy(ids)
	return strings.Join(s, ",")
}

// FindRectangles finds connected rectangles using the opposite-corner
// technique: for two lines meeting at ~90 degrees at p1 toward p2 and p3,
// the fourth corner must sit at p2+p3-p1 and be joined to both p2 and p3.
func FindRectangles(g *Graph) []Quad {
	seen := map[string]bool{}
	var out []Quad
	for _, p1 := range g.nodes {
		nb := g.adj[p1]
		for i := 0; i < len(nb); i++ {
			for j := i + 1; j < len(nb); j++ {
				p2, p3 := nb[i], nb[j]
				if !g.perpendicular(p1, p2, p3) {
					continue
				}
				want := g.pos[p2].Add(g.pos[p3]).Sub(g.pos[p1])
				p4, ok := g.NodeNear(want, cornerTolSq)
				if !ok || !distinct(p1, p2, p3, p4) {
					continue
				}
				if !g.Connected(p4, p2) || !g.Connected(p4, p3) {
					continue
				}
				key := quadKey(p1, p2, p3, p4)
				if seen[key] {
					continue
				}
				rect, aspect := geom.IsRectangle([4]geom.Point{g.pos[p1], g.pos[p2], g.pos[p4], g.pos[p3]})
				if !rect {
					continue
				}
				seen[key] = true
				out = append(out, Quad{Corners: [4]string{p1, p2, p4, p3}, Aspect: aspect})
			}
		}
	}
	return out
}

func pickQuads(g *Graph, kind Kind, keep func(Quad) bool) []Match {
	used := usedSet{}
	var out []Match
	for _, q := range FindRectangles(g) {
		if !keep(q) || used.any(q.Corners[:]...) {
			continue
		}
		used.mark(q.Corners[:]...)
		out = append(out, Match{Kind: kind, Points: q.Corners[:], Aspect: q.Aspect})
	}
	return out
}

// FindNexus finds squares with at least one diagonal drawn. Arms holds the
// connected diagonal.
func FindNexus(g *Graph) []Match {
	used := usedSet{}
	var out []Match
	for _, q := range FindRectangles(g) {
		if q.Aspect > 1+geom.PerpTol || used.any(q.Corners[:]...) {
			continue
		}
		c := q.Corners
		var diag []string
		switch {
		case g.Connected(c[0], c[2]):
			diag = []string{c[0], c[2]}
		case g.Connected(c[1], c[3]):
			diag = []string{c[1], c[3]}
		default:
			continue
		}
		used.mark(c[:]...)
		out = append(out, Match{Kind: KindNexus, Points: c[:], Arms: diag, Aspect: q.Aspect})
	}
	return out
}

// FindMonoliths finds thin rectangles.
func FindMonoliths(g *Graph) []Match {
	return pickQuads(g, KindMonolith, func(q Quad) bool { return q.Aspect >= ThinRectAspect })
}

// FindBarricadeRunes finds rectangles that are neither squares nor thin
// enough to be monoliths.
func FindBarricadeRunes(g *Graph) []Match {
	return pickQuads(g, KindBarricadeRune, func(q Quad) bool {
		return q.Aspect > 1+geom.PerpTol && q.Aspect < ThinRectAspect
	})
}

// FindTrebuchets finds kites: a 4-cycle tip-b-tail-c with |tip b| = |tip c|
// and |tail b| = |tail c| but unequal leg pairs, convex across b-c. Center
// is the tip (the apex with the shorter legs), Arms are [b, c, tail].
func FindTrebuchets(g *Graph) []Match {
	used := usedSet{}
	var out []Match
	for _, a := range g.nodes {
		if used[a] {
			continue
		}
		nb := g.adj[a]
		found := false
		for i := 0; i < len(nb) && !found; i++ {
			for j := i + 1; j < len(nb) && !found; j++ {
				b, c := nb[i], nb[j]
				for _, d := range g.adj[b] {
					if d == a || !g.Connected(d, c) || !distinct(a, b, c, d) || used.any(a, b, c, d) {
						continue
					}
					if m, ok := g.kite(a, b, c, d); ok {
						used.mark(a, b, c, d)
						out = append(out, m)
						found = true
						break
					}
				}
			}
		}
	}
	return out
}

func (g *Graph) kite(a, b, c, d string) (Match, bool) {
	pa, pb, pc, pd := g.pos[a], g.pos[b], g.pos[c], g.pos[d]
	ab, ac := geom.DistanceSquared(pa, pb), geom.DistanceSquared(pa, pc)
	db, dc := geom.DistanceSquared(pd, pb), geom.DistanceSquared(pd, pc)
	if !nearRel(ab, ac) || !nearRel(db, dc) || nearRel(ab, db) {
		return Match{}, false
	}
	// a and d must be on opposite sides of b-c.
	oa := geom.Orientation(pb, pc, pa)
	od := geom.Orientation(pb, pc, pd)
	if oa == geom.Collinear || od == geom.Collinear || oa == od {
		return Match{}, false
	}
	tip, tail := a, d
	if db < ab {
		tip, tail = d, a
	}
	return Match{Kind: KindTrebuchet, Points: []string{a, b, c, d}, Center: tip, Arms: []string{b, c, tail}}, true
}

func nearRel(x, y float64) bool {
	m := x
	if y > m {
		m = y
	}
	if m < geom.Eps {
		return true
	}
	diff := x - y
	if diff < 0 {
		diff = -diff
	}
	return diff/m <= geom.ShapeRelTol
}

// FindPentagons finds 5-cycles of lines that approximate a regular
// pentagon. Points walk the cycle.
func FindPentagons(g *Graph) []Match {
	seen := map[string]bool{}
	used := usedSet{}
	var out []Match
	for _, s := range g.nodes {
		if used[s] || g.Degree(s) < 2 {
			continue
		}
		var cycles [][]string
		var walk func(path []string)
		walk = func(path []string) {
			last := path[len(path)-1]
			if len(path) == 5 {
				if g.Connected(last, s) {
					cycles = append(cycles, append([]string(nil), path...))
				}
				return
			}
			for _, n := range g.adj[last] {
				// Only visit ids greater than the start so each cycle is
				// rooted at its smallest member.
				if n <= s || contains(path, n) {
					continue
				}
				walk(append(path, n))
			}
		}
		walk([]string{s})
		for _, cyc := range cycles {
			key := quadKey(cyc...)
			if seen[key] || used.any(cyc...) {
				continue
			}
			seen[key] = true
			var pts [5]geom.Point
			for i, id := range cyc {
				pts[i] = g.pos[id]
			}
			if !geom.IsRegularPentagon(pts) {
				continue
			}
			used.mark(cyc...)
			out = append(out, Match{Kind: KindPentagon, Points: cyc})
			break
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// Triangles returns every 3-clique of the graph, each sorted, in order.
func Triangles(g *Graph) [][3]string {
	var out [][3]string
	for _, a := range g.nodes {
		for _, b := range g.adj[a] {
			if b <= a {
				continue
			}
			for _, c := range g.adj[b] {
				if c <= b || !g.Connected(a, c) {
					continue
				}
				out = append(out, [3]string{a, b, c})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return quadKey(out[i][:]...) < quadKey(out[j][:]...)
	})
	return out
}
