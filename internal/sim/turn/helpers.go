package turn

import (
	"sort"

	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/state"
)

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func notTeam(teamID string) func(*state.Point) bool {
	return func(p *state.Point) bool { return p.TeamID != teamID }
}

func positions(s *state.State, ids []string) []geom.Point {
	out := make([]geom.Point, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.Pos(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// nearestOnPath returns the closest point of the polyline to p and its
// squared distance.
func nearestOnPath(p geom.Point, path []geom.Point) (geom.Point, float64) {
	best, bestD := geom.Point{}, -1.0
	for i := 0; i+1 < len(path); i++ {
		a, b := path[i], path[i+1]
		ab := b.Sub(a)
		t := 0.0
		if l2 := ab.Dot(ab); l2 > geom.Eps {
			t = p.Sub(a).Dot(ab) / l2
			t = max(0, min(1, t))
		}
		foot := a.Add(ab.Scale(t))
		if d := geom.DistanceSquared(p, foot); bestD < 0 || d < bestD {
			best, bestD = foot, d
		}
	}
	return best, bestD
}
