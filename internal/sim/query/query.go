// Package query answers derived questions about a game state without
// mutating it.
package query

import (
	"math/rand/v2"
	"sort"

	"runegrid.ai/internal/sim/formation"
	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/state"
)

// Graph builds the team's point/line graph.
func Graph(s *state.State, teamID string) *formation.Graph {
	pos := map[string]geom.Point{}
	for _, id := range s.TeamPointIDs(teamID) {
		pos[id] = s.Points[id].Pos()
	}
	var edges [][2]string
	for _, id := range s.TeamLineIDs(teamID) {
		l := s.Lines[id]
		edges = append(edges, [2]string{l.P1, l.P2})
	}
	return formation.NewGraph(pos, edges)
}

// CriticalPoints are points referenced by critical structures.
func CriticalPoints(s *state.State) map[string]bool {
	return s.StructurePoints(true)
}

// ImmunePoints is the union of critical structure points, territory
// points and points in stasis.
func ImmunePoints(s *state.State) map[string]bool {
	out := CriticalPoints(s)
	for _, t := range s.Territories {
		for _, pid := range t.Points {
			out[pid] = true
		}
	}
	for pid, n := range s.Stasis {
		if n > 0 {
			out[pid] = true
		}
	}
	return out
}

// VulnerableEnemyPoints lists enemy points outside the immune set, sorted.
func VulnerableEnemyPoints(s *state.State, teamID string) []string {
	immune := ImmunePoints(s)
	var out []string
	for _, id := range s.EnemyPointIDs(teamID) {
		if !immune[id] {
			out = append(out, id)
		}
	}
	return out
}

// ArticulationPoints returns the cut vertices of the team's graph using an
// iterative low-link traversal.
func ArticulationPoints(g *formation.Graph) map[string]bool {
	disc := map[string]int{}
	low := map[string]int{}
	parent := map[string]string{}
	out := map[string]bool{}
	timer := 0

	type frame struct {
		node string
		next int
	}
	for _, root := range g.Nodes() {
		if _, seen := disc[root]; seen {
			continue
		}
		timer++
		disc[root], low[root] = timer, timer
		rootChildren := 0
		stack := []frame{{node: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			nbs := g.Neighbors(top.node)
			if top.next < len(nbs) {
				v := nbs[top.next]
				top.next++
				if _, seen := disc[v]; !seen {
					parent[v] = top.node
					if top.node == root {
						rootChildren++
					}
					timer++
					disc[v], low[v] = timer, timer
					stack = append(stack, frame{node: v})
				} else if v != parent[top.node] {
					low[top.node] = min(low[top.node], disc[v])
				}
				continue
			}
			u := top.node
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				break
			}
			p := stack[len(stack)-1].node
			low[p] = min(low[p], low[u])
			if p != root && low[u] >= disc[p] {
				out[p] = true
			}
		}
		if rootChildren > 1 {
			out[root] = true
		}
	}
	return out
}

// SacrificeCandidates ranks the team's points for sacrifice: non-critical
// non-articulation points first, relaxed to any non-critical point, and
// within the chosen tier only those of minimum degree.
func SacrificeCandidates(s *state.State, teamID string) []string {
	g := Graph(s, teamID)
	critical := CriticalPoints(s)
	cut := ArticulationPoints(g)
	var strict, relaxed []string
	for _, id := range g.Nodes() {
		if critical[id] || s.Stasis[id] > 0 {
			continue
		}
		relaxed = append(relaxed, id)
		if !cut[id] {
			strict = append(strict, id)
		}
	}
	tier := strict
	if len(tier) == 0 {
		tier = relaxed
	}
	if len(tier) == 0 {
		return nil
	}
	best := -1
	var out []string
	for _, id := range tier {
		d := g.Degree(id)
		switch {
		case best < 0 || d < best:
			best = d
			out = []string{id}
		case d == best:
			out = append(out, id)
		}
	}
	return out
}

// CanSacrifice reports whether a sacrifice leaves the team with at least
// two points and a candidate exists.
func CanSacrifice(s *state.State, teamID string) bool {
	return len(s.TeamPointIDs(teamID)) >= 3 && len(SacrificeCandidates(s, teamID)) > 0
}

// PickSacrifice chooses uniformly among the minimum-degree candidates.
func PickSacrifice(s *state.State, teamID string, r *rand.Rand) (string, bool) {
	c := SacrificeCandidates(s, teamID)
	if len(c) == 0 {
		return "", false
	}
	return c[r.IntN(len(c))], true
}

// PickString chooses uniformly from ids.
func PickString(ids []string, r *rand.Rand) string {
	return ids[r.IntN(len(ids))]
}

// TeamCentroid is the mean position of the team's points.
func TeamCentroid(s *state.State, teamID string) (geom.Point, bool) {
	var pts []geom.Point
	for _, id := range s.TeamPointIDs(teamID) {
		pts = append(pts, s.Points[id].Pos())
	}
	if len(pts) == 0 {
		return geom.Point{}, false
	}
	return geom.Centroid(pts), true
}

// PointsWithin returns point ids within radius of c, filtered by keep and
// sorted by id.
func PointsWithin(s *state.State, c geom.Point, radius float64, keep func(*state.Point) bool) []string {
	r2 := radius * radius
	var out []string
	for _, id := range s.PointIDs() {
		p := s.Points[id]
		if keep != nil && !keep(p) {
			continue
		}
		if geom.DistanceSquared(p.Pos(), c) <= r2 {
			out = append(out, id)
		}
	}
	return out
}

// Nearest returns the id closest to c, ties broken by id.
func Nearest(s *state.State, c geom.Point, ids []string) (string, bool) {
	best, bestD := "", 0.0
	for _, id := range ids {
		p, ok := s.Pos(id)
		if !ok {
			continue
		}
		d := geom.DistanceSquared(p, c)
		if best == "" || d < bestD {
			best, bestD = id, d
		}
	}
	return best, best != ""
}

// FreeCellsNear lists spawnable cells within radius of c ordered by
// distance then coordinates.
func FreeCellsNear(s *state.State, c geom.Point, radius float64) [][2]int {
	cx, cy := c.Round()
	r := int(radius + 0.5)
	type cell struct {
		x, y int
		d    float64
	}
	var cells []cell
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			d := geom.DistanceSquared(geom.Pt(x, y), c)
			if d == 0 || d > radius*radius || !s.CanSpawnAt(x, y) {
				continue
			}
			cells = append(cells, cell{x, y, d})
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].d != cells[j].d {
			return cells[i].d < cells[j].d
		}
		if cells[i].y != cells[j].y {
			return cells[i].y < cells[j].y
		}
		return cells[i].x < cells[j].x
	})
	out := make([][2]int, len(cells))
	for i, c := range cells {
		out[i] = [2]int{c.x, c.y}
	}
	return out
}

// BorderCells lists spawnable cells on the grid edge in scan order.
func BorderCells(s *state.State) [][2]int {
	n := s.GridSize
	var out [][2]int
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if x != 0 && y != 0 && x != n-1 && y != n-1 {
				continue
			}
			if s.CanSpawnAt(x, y) {
				out = append(out, [2]int{x, y})
			}
		}
	}
	return out
}

// AnyFreeCell reports whether some cell can take a new point.
func AnyFreeCell(s *state.State) bool {
	for y := 0; y < s.GridSize; y++ {
		for x := 0; x < s.GridSize; x++ {
			if s.CanSpawnAt(x, y) {
				return true
			}
		}
	}
	return false
}
