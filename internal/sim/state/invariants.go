package state

import (
	"fmt"

	"runegrid.ai/internal/sim/geom"
)

// Validate checks referential integrity and board invariants. A non-nil
// result means an engine defect.
func (s *State) Validate() error {
	seen := map[[2]int]string{}
	for _, id := range s.PointIDs() {
		p := s.Points[id]
		if !geom.InBounds(p.X, p.Y, s.GridSize) {
			return fmt.Errorf("point %s at (%d,%d) outside grid %d", id, p.X, p.Y, s.GridSize)
		}
		if _, ok := s.Teams[p.TeamID]; !ok {
			return fmt.Errorf("point %s: unknown team %s", id, p.TeamID)
		}
		cell := [2]int{p.X, p.Y}
		if other, dup := seen[cell]; dup {
			return fmt.Errorf("points %s and %s share cell (%d,%d)", other, id, p.X, p.Y)
		}
		seen[cell] = id
	}
	joined := map[[2]string]string{}
	for _, id := range s.LineIDs() {
		l := s.Lines[id]
		key := pairKey(l.P1, l.P2)
		if other, dup := joined[key]; dup {
			return fmt.Errorf("lines %s and %s join the same points", other, id)
		}
		joined[key] = id
		a, ok1 := s.Points[l.P1]
		b, ok2 := s.Points[l.P2]
		if !ok1 || !ok2 {
			return fmt.Errorf("line %s references missing point", id)
		}
		if l.P1 == l.P2 || a.TeamID != l.TeamID || b.TeamID != l.TeamID {
			return fmt.Errorf("line %s joins %s/%s across teams", id, l.P1, l.P2)
		}
	}
	for _, id := range s.TerritoryIDs() {
		t := s.Territories[id]
		for _, pid := range t.Points {
			p, ok := s.Points[pid]
			if !ok {
				return fmt.Errorf("territory %s references missing point %s", id, pid)
			}
			if p.TeamID != t.TeamID {
				return fmt.Errorf("territory %s holds foreign point %s", id, pid)
			}
		}
	}
	for _, id := range s.StructureIDs() {
		st := s.Structures[id]
		for _, pid := range st.PointIDs() {
			p, ok := s.Points[pid]
			if !ok {
				return fmt.Errorf("structure %s references missing point %s", id, pid)
			}
			if p.TeamID != st.Team() {
				return fmt.Errorf("structure %s holds foreign point %s", id, pid)
			}
		}
	}
	for lid := range s.Shields {
		if _, ok := s.Lines[lid]; !ok {
			return fmt.Errorf("shield on missing line %s", lid)
		}
	}
	for lid := range s.Strengths {
		if _, ok := s.Lines[lid]; !ok {
			return fmt.Errorf("strength on missing line %s", lid)
		}
	}
	for pid := range s.Stasis {
		if _, ok := s.Points[pid]; !ok {
			return fmt.Errorf("stasis on missing point %s", pid)
		}
	}
	return nil
}
