package formation

import (
	"math"

	"runegrid.ai/internal/sim/geom"
)

type Kind string

const (
	KindIRune         Kind = "I_RUNE"
	KindVRune         Kind = "V_RUNE"
	KindTRune         Kind = "T_RUNE"
	KindPlusRune      Kind = "PLUS_RUNE"
	KindTridentRune   Kind = "TRIDENT_RUNE"
	KindHourglassRune Kind = "HOURGLASS_RUNE"
	KindStarRune      Kind = "STAR_RUNE"
	KindNexus         Kind = "NEXUS"
	KindBarricadeRune Kind = "BARRICADE_RUNE"
	KindMonolith      Kind = "MONOLITH"
	KindTrebuchet     Kind = "TREBUCHET"
	KindPentagon      Kind = "PENTAGON"
	KindPrism         Kind = "PRISM"
	KindBastion       Kind = "BASTION"
)

// Match is one recognized formation. Points lists every participant;
// Center and Arms carry the roles a rune's effect needs.
type Match struct {
	Kind   Kind     `json:"kind"`
	Points []string `json:"points"`
	Center string   `json:"center,omitempty"`
	Arms   []string `json:"arms,omitempty"`
	Refs   []string `json:"refs,omitempty"`
	Aspect float64  `json:"aspect,omitempty"`
}

const (
	// VRuneMinRatio and VRuneMaxRatio bound the arm length ratio of a V.
	VRuneMinRatio = 0.8
	VRuneMaxRatio = 1.2
	// ThinRectAspect is the minimum aspect ratio of a monolith.
	ThinRectAspect = 3.0
	// minArmAngle keeps V arms from being collinear or folded.
	minArmAngle = 0.2
)

// collinearThrough reports whether a-v-b is a straight line with v between.
func (g *Graph) collinearThrough(a, v, b string) bool {
	pa, pv, pb := g.pos[a], g.pos[v], g.pos[b]
	return geom.Orientation(pa, pv, pb) == geom.Collinear && pa.Sub(pv).Dot(pb.Sub(pv)) < 0
}

func (g *Graph) perpendicular(v, a, b string) bool {
	return geom.IsPerpendicular(g.pos[a].Sub(g.pos[v]), g.pos[b].Sub(g.pos[v]))
}

// FindIRunes walks maximal simple paths between degree-1 endpoints whose
// interior nodes have degree 2 and are collinear with their neighbors. A
// path needs at least three points.
func FindIRunes(g *Graph) []Match {
	used := usedSet{}
	var out []Match
	for _, start := range g.nodes {
		if g.Degree(start) != 1 || used[start] {
			continue
		}
		path := []string{start}
		prev, cur := "", start
		ok := true
		for {
			var next string
			for _, n := range g.adj[cur] {
				if n != prev {
					next = n
					break
				}
			}
			if next == "" {
				break
			}
			if prev != "" && !g.collinearThrough(prev, cur, next) {
				ok = false
				break
			}
			path = append(path, next)
			if g.Degree(next) == 1 {
				break
			}
			if g.Degree(next) != 2 || len(path) > len(g.nodes) {
				ok = false
				break
			}
			prev, cur = cur, next
		}
		if !ok || len(path) < 3 || g.Degree(path[len(path)-1]) != 1 || used.any(path...) {
			continue
		}
		used.mark(path...)
		out = append(out, Match{
			Kind:   KindIRune,
			Points: path,
			Center: path[len(path)/2],
			Arms:   []string{path[0], path[len(path)-1]},
		})
	}
	return out
}

// FindVRunes finds vertices with two incident lines of comparable length
// that are neither collinear nor folded onto each other.
func FindVRunes(g *Graph) []Match {
	used := usedSet{}
	var out []Match
	for _, v := range g.nodes {
		if used[v] {
			continue
		}
		nb := g.adj[v]
	pairs:
		for i := 0; i < len(nb); i++ {
			for j := i + 1; j < len(nb); j++ {
				a, b := nb[i], nb[j]
				if used.any(a, b) {
					continue
				}
				la := math.Sqrt(geom.DistanceSquared(g.pos[v], g.pos[a]))
				lb := math.Sqrt(geom.DistanceSquared(g.pos[v], g.pos[b]))
				if la < geom.Eps || lb < geom.Eps {
					continue
				}
				r := la / lb
				if r < VRuneMinRatio || r > VRuneMaxRatio {
					continue
				}
				ang := geom.AngleAt(g.pos[v], g.pos[a], g.pos[b])
				if ang < minArmAngle || ang > math.Pi-minArmAngle {
					continue
				}
				used.mark(v, a, b)
				out = append(out, Match{Kind: KindVRune, Points: []string{v, a, b}, Center: v, Arms: []string{a, b}})
				break pairs
			}
		}
	}
	return out
}

// FindTRunes finds a junction with a straight bar through it and a stem
// perpendicular to the bar. Arms are [barA, barB, stem].
func FindTRunes(g *Graph) []Match {
	used := usedSet{}
	var out []Match
	for _, j := range g.nodes {
		if g.Degree(j) < 3 || used[j] {
			continue
		}
		nb := g.adj[j]
		found := false
		for x := 0; x < len(nb) && !found; x++ {
			for y := x + 1; y < len(nb) && !found; y++ {
				a, b := nb[x], nb[y]
				if !g.collinearThrough(a, j, b) {
					continue
				}
				for _, s := range nb {
					if s == a || s == b || used.any(a, b, s) {
						continue
					}
					if g.perpendicular(j, a, s) {
						used.mark(j, a, b, s)
						out = append(out, Match{Kind: KindTRune, Points: []string{j, a, b, s}, Center: j, Arms: []string{a, b, s}})
						found = true
						break
					}
				}
			}
		}
	}
	return out
}

// FindPlusRunes finds a hub crossed by two perpendicular straight bars.
func FindPlusRunes(g *Graph) []Match {
	used := usedSet{}
	var out []Match
	for _, c := range g.nodes {
		if g.Degree(c) < 4 || used[c] {
			continue
		}
		nb := g.adj[c]
		var bars [][2]string
		for x := 0; x < len(nb); x++ {
			for y := x + 1; y < len(nb); y++ {
				if g.collinearThrough(nb[x], c, nb[y]) {
					bars = append(bars, [2]string{nb[x], nb[y]})
				}
			}
		}
		found := false
		for x := 0; x < len(bars) && !found; x++ {
			for y := x + 1; y < len(bars) && !found; y++ {
				b1, b2 := bars[x], bars[y]
				if !distinct(b1[0], b1[1], b2[0], b2[1]) || used.any(b1[0], b1[1], b2[0], b2[1]) {
					continue
				}
				if !g.perpendicular(c, b1[0], b2[0]) {
					continue
				}
				arms := []string{b1[0], b2[0], b1[1], b2[1]}
				used.mark(c)
				used.mark(arms...)
				out = append(out, Match{Kind: KindPlusRune, Points: append([]string{c}, arms...), Center: c, Arms: arms})
				found = true
			}
		}
	}
	return out
}

// FindTridentRunes finds a handle-center-middle straight shaft with two
// side prongs mirrored around the middle prong. Arms are
// [handle, middle, left, right].
func FindTridentRunes(g *Graph) []Match {
	used := usedSet{}
	var out []Match
	for _, c := range g.nodes {
		if g.Degree(c) < 4 || used[c] {
			continue
		}
		nb := g.adj[c]
		pc := g.pos[c]
		found := false
		for x := 0; x < len(nb) && !found; x++ {
			for y := 0; y < len(nb) && !found; y++ {
				h, m := nb[x], nb[y]
				if h == m || !g.collinearThrough(h, c, m) {
					continue
				}
				shaft := g.pos[m].Sub(pc)
				var left, right []string
				for _, p := range nb {
					if p == h || p == m {
						continue
					}
					v := g.pos[p].Sub(pc)
					if v.Dot(shaft) <= 0 {
						continue
					}
					if shaft.Cross(v) > 0 {
						left = append(left, p)
					} else if shaft.Cross(v) < 0 {
						right = append(right, p)
					}
				}
				for _, l := range left {
					for _, r := range right {
						if found || used.any(h, m, l, r) {
							continue
						}
						al := geom.AngleAt(pc, g.pos[l], g.pos[m])
						ar := geom.AngleAt(pc, g.pos[r], g.pos[m])
						if math.Abs(al-ar) > geom.ShapeRelTol*math.Max(al, ar) {
							continue
						}
						used.mark(c, h, m, l, r)
						out = append(out, Match{Kind: KindTridentRune, Points: []string{c, h, m, l, r}, Center: c, Arms: []string{h, m, l, r}})
						found = true
					}
				}
			}
		}
	}
	return out
}

// FindHourglassRunes finds two triangles meeting at a single shared vertex
// and opening in opposite directions. Arms are [a1, a2, b1, b2].
func FindHourglassRunes(g *Graph) []Match {
	used := usedSet{}
	var out []Match
	for _, c := range g.nodes {
		if g.Degree(c) < 4 || used[c] {
			continue
		}
		nb := g.adj[c]
		var wings [][2]string
		for x := 0; x < len(nb); x++ {
			for y := x + 1; y < len(nb); y++ {
				if g.Connected(nb[x], nb[y]) {
					wings = append(wings, [2]string{nb[x], nb[y]})
				}
			}
		}
		pc := g.pos[c]
		found := false
		for x := 0; x < len(wings) && !found; x++ {
			for y := x + 1; y < len(wings) && !found; y++ {
				w1, w2 := wings[x], wings[y]
				if !distinct(w1[0], w1[1], w2[0], w2[1]) || used.any(w1[0], w1[1], w2[0], w2[1]) {
					continue
				}
				m1 := g.pos[w1[0]].Midpoint(g.pos[w1[1]]).Sub(pc)
				m2 := g.pos[w2[0]].Midpoint(g.pos[w2[1]]).Sub(pc)
				if m1.Dot(m2) >= 0 {
					continue
				}
				arms := []string{w1[0], w1[1], w2[0], w2[1]}
				used.mark(c)
				used.mark(arms...)
				out = append(out, Match{Kind: KindHourglassRune, Points: append([]string{c}, arms...), Center: c, Arms: arms})
				found = true
			}
		}
	}
	return out
}

// FindStarRunes finds a hub whose neighbors include a closed loop of 5 or 6
// points. Each loop member must have exactly two neighbors inside the
// candidate set; the loop order is recovered by walking single neighbors.
func FindStarRunes(g *Graph) []Match {
	used := usedSet{}
	var out []Match
	for _, h := range g.nodes {
		if g.Degree(h) < 5 || used[h] {
			continue
		}
		ring := map[string]bool{}
		for _, n := range g.adj[h] {
			ring[n] = true
		}
		var cand []string
		inCand := map[string]bool{}
		for _, n := range g.adj[h] {
			c := 0
			for _, m := range g.adj[n] {
				if ring[m] {
					c++
				}
			}
			if c == 2 {
				cand = append(cand, n)
				inCand[n] = true
			}
		}
		if len(cand) < 5 || len(cand) > 6 || used.any(cand...) {
			continue
		}
		cycle := []string{cand[0]}
		prev, cur := "", cand[0]
		for {
			next := ""
			for _, m := range g.adj[cur] {
				if inCand[m] && m != prev {
					next = m
					break
				}
			}
			if next == "" || next == cand[0] {
				break
			}
			cycle = append(cycle, next)
			if len(cycle) > len(cand) {
				break
			}
			prev, cur = cur, next
		}
		if len(cycle) != len(cand) || !g.Connected(cycle[len(cycle)-1], cycle[0]) {
			continue
		}
		used.mark(h)
		used.mark(cycle...)
		out = append(out, Match{Kind: KindStarRune, Points: append([]string{h}, cycle...), Center: h, Arms: cycle})
	}
	return out
}

// FindBastions finds cores with at least three degree-1 prongs.
func FindBastions(g *Graph) []Match {
	used := usedSet{}
	var out []Match
	for _, c := range g.nodes {
		if g.Degree(c) < 3 || used[c] {
			continue
		}
		var prongs []string
		for _, n := range g.adj[c] {
			if g.Degree(n) == 1 && !used[n] {
				prongs = append(prongs, n)
			}
		}
		if len(prongs) < 3 {
			continue
		}
		used.mark(c)
		used.mark(prongs...)
		out = append(out, Match{Kind: KindBastion, Points: append([]string{c}, prongs...), Center: c, Arms: prongs})
	}
	return out
}

// FindPrisms finds pairs of territories sharing an edge. Territories are
// given as id -> member points. Arms holds the shared edge, Refs the two
// territory ids.
func FindPrisms(g *Graph, territories map[string][3]string, order []string) []Match {
	used := map[string]bool{}
	var out []Match
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			ta, tb := order[i], order[j]
			if used[ta] || used[tb] {
				continue
			}
			a, b := territories[ta], territories[tb]
			var shared []string
			for _, x := range a {
				for _, y := range b {
					if x == y {
						shared = append(shared, x)
					}
				}
			}
			if len(shared) != 2 || !g.Has(shared[0]) || !g.Has(shared[1]) {
				continue
			}
			pts := map[string]bool{}
			for _, x := range a {
				pts[x] = true
			}
			for _, y := range b {
				pts[y] = true
			}
			ids := make([]string, 0, 4)
			for id := range pts {
				ids = append(ids, id)
			}
			used[ta], used[tb] = true, true
			out = append(out, Match{Kind: KindPrism, Points: sortedCopy(ids), Arms: sortedCopy(shared), Refs: []string{ta, tb}})
		}
	}
	return out
}
