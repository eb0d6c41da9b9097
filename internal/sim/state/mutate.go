package state

import (
	"errors"
	"fmt"
	"sort"

	"runegrid.ai/internal/sim/geom"
)

var (
	ErrUnknownTeam  = errors.New("unknown team")
	ErrUnknownPoint = errors.New("unknown point")
	ErrOutOfBounds  = errors.New("out of bounds")
	ErrOccupied     = errors.New("cell occupied")
	ErrBadLine      = errors.New("invalid line")
	ErrBadTerritory = errors.New("invalid territory")
	ErrBadStructure = errors.New("invalid structure")
)

// Removal lists everything a mutation deleted.
type Removal struct {
	Points      []string
	Lines       []string
	Territories []string
	Structures  []string
}

func (r *Removal) merge(o Removal) {
	r.Points = append(r.Points, o.Points...)
	r.Lines = append(r.Lines, o.Lines...)
	r.Territories = append(r.Territories, o.Territories...)
	r.Structures = append(r.Structures, o.Structures...)
}

func (s *State) AddPoint(teamID string, x, y int) (*Point, error) {
	if _, ok := s.Teams[teamID]; !ok {
		return nil, fmt.Errorf("add point: %w: %s", ErrUnknownTeam, teamID)
	}
	if !geom.InBounds(x, y, s.GridSize) {
		return nil, fmt.Errorf("add point (%d,%d): %w", x, y, ErrOutOfBounds)
	}
	if s.Occupied(x, y) {
		return nil, fmt.Errorf("add point (%d,%d): %w", x, y, ErrOccupied)
	}
	p := &Point{ID: s.newPointID(), X: x, Y: y, TeamID: teamID}
	s.Points[p.ID] = p
	s.cells[[2]int{x, y}] = p.ID
	return p, nil
}

// Frozen reports whether pid is held in place by stasis or an anchor.
func (s *State) Frozen(pid string) bool {
	return s.Stasis[pid] > 0 || s.IsAnchored(pid)
}

// MovePoint relocates a point, clamping to the board. Frozen points and
// moves onto occupied cells are refused.
func (s *State) MovePoint(pid string, x, y int) bool {
	p, ok := s.Points[pid]
	if !ok || s.Frozen(pid) {
		return false
	}
	x = geom.ClampInt(x, 0, s.GridSize-1)
	y = geom.ClampInt(y, 0, s.GridSize-1)
	if p.X == x && p.Y == y {
		return false
	}
	if s.Occupied(x, y) {
		return false
	}
	delete(s.cells, [2]int{p.X, p.Y})
	p.X, p.Y = x, y
	s.cells[[2]int{x, y}] = pid
	return true
}

func (s *State) AddLine(a, b string) (*Line, error) {
	pa, ok1 := s.Points[a]
	pb, ok2 := s.Points[b]
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("add line %s-%s: %w", a, b, ErrUnknownPoint)
	}
	if a == b || pa.TeamID != pb.TeamID {
		return nil, fmt.Errorf("add line %s-%s: %w", a, b, ErrBadLine)
	}
	if _, dup := s.LineBetween(a, b); dup {
		return nil, fmt.Errorf("add line %s-%s: duplicate: %w", a, b, ErrBadLine)
	}
	l := &Line{ID: s.newLineID(), P1: a, P2: b, TeamID: pa.TeamID}
	s.Lines[l.ID] = l
	s.pairs[pairKey(a, b)] = l.ID
	return l, nil
}

// DeleteLine removes a line and its modifiers.
func (s *State) DeleteLine(lid string) bool {
	l, ok := s.Lines[lid]
	if !ok {
		return false
	}
	delete(s.pairs, pairKey(l.P1, l.P2))
	delete(s.Lines, lid)
	delete(s.Shields, lid)
	delete(s.Strengths, lid)
	return true
}

func (s *State) AddTerritory(teamID string, a, b, c string) (*Territory, error) {
	ids := [3]string{a, b, c}
	for _, id := range ids {
		p, ok := s.Points[id]
		if !ok {
			return nil, fmt.Errorf("add territory: %w: %s", ErrUnknownPoint, id)
		}
		if p.TeamID != teamID {
			return nil, fmt.Errorf("add territory: %s not owned by %s: %w", id, teamID, ErrBadTerritory)
		}
	}
	if a == b || b == c || a == c {
		return nil, fmt.Errorf("add territory: repeated point: %w", ErrBadTerritory)
	}
	sort.Strings(ids[:])
	if s.TerritoryExists(ids) {
		return nil, fmt.Errorf("add territory: duplicate: %w", ErrBadTerritory)
	}
	t := &Territory{ID: s.newTerritoryID(), TeamID: teamID, Points: ids}
	s.Territories[t.ID] = t
	return t, nil
}

// TerritoryExists reports whether a territory covers exactly the given
// points, in any order.
func (s *State) TerritoryExists(ids [3]string) bool {
	key := ids
	sort.Strings(key[:])
	for _, t := range s.Territories {
		k := t.Points
		sort.Strings(k[:])
		if k == key {
			return true
		}
	}
	return false
}

func (s *State) AddStructure(st Structure) error {
	if st.StructureID() == "" {
		return fmt.Errorf("add structure: empty id: %w", ErrBadStructure)
	}
	if _, dup := s.Structures[st.StructureID()]; dup {
		return fmt.Errorf("add structure %s: duplicate: %w", st.StructureID(), ErrBadStructure)
	}
	for _, pid := range st.PointIDs() {
		p, ok := s.Points[pid]
		if !ok {
			return fmt.Errorf("add structure %s: %w: %s", st.StructureID(), ErrUnknownPoint, pid)
		}
		if p.TeamID != st.Team() {
			return fmt.Errorf("add structure %s: foreign point %s: %w", st.StructureID(), pid, ErrBadStructure)
		}
	}
	s.Structures[st.StructureID()] = st
	return nil
}

func (s *State) RemoveStructure(id string) bool {
	if _, ok := s.Structures[id]; !ok {
		return false
	}
	delete(s.Structures, id)
	return true
}

// detach removes everything that references pid without deleting the
// point itself.
func (s *State) detach(pid string) Removal {
	var r Removal
	for _, lid := range s.LinesOf(pid) {
		s.DeleteLine(lid)
		r.Lines = append(r.Lines, lid)
	}
	for _, tid := range s.TerritoryIDs() {
		if s.Territories[tid].Has(pid) {
			delete(s.Territories, tid)
			r.Territories = append(r.Territories, tid)
		}
	}
	for _, sid := range s.StructureIDs() {
		st := s.Structures[sid]
		if !containsID(st.PointIDs(), pid) {
			continue
		}
		if pr, ok := st.(Pruner); ok && pr.PrunePoint(pid) {
			continue
		}
		delete(s.Structures, sid)
		r.Structures = append(r.Structures, sid)
	}
	delete(s.Stasis, pid)
	return r
}

// DeletePoint removes a point and cascades to every line, territory and
// structure that references it.
func (s *State) DeletePoint(pid string) (Removal, bool) {
	p, ok := s.Points[pid]
	if !ok {
		return Removal{}, false
	}
	r := s.detach(pid)
	delete(s.cells, [2]int{p.X, p.Y})
	delete(s.Points, pid)
	r.Points = append(r.Points, pid)
	return r, true
}

// DeletePoints removes several points, skipping ids already gone.
func (s *State) DeletePoints(ids []string) Removal {
	var r Removal
	for _, id := range ids {
		if rr, ok := s.DeletePoint(id); ok {
			r.merge(rr)
		}
	}
	return r
}

// ConvertPoint hands a point to another team. Its lines, territories and
// structure memberships are dropped first.
func (s *State) ConvertPoint(pid, teamID string) (Removal, bool) {
	p, ok := s.Points[pid]
	if !ok || p.TeamID == teamID {
		return Removal{}, false
	}
	if _, ok := s.Teams[teamID]; !ok {
		return Removal{}, false
	}
	r := s.detach(pid)
	p.TeamID = teamID
	return r, true
}

func containsID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func (s *State) AddFissure(seg geom.Segment, turns int) string {
	id := s.newEffectID()
	s.Fissures[id] = &Fissure{ID: id, Seg: seg, TurnsLeft: turns}
	return id
}

func (s *State) AddBarricade(teamID string, seg geom.Segment, turns int) string {
	id := s.newEffectID()
	s.Barricades[id] = &Barricade{ID: id, TeamID: teamID, Seg: seg, TurnsLeft: turns}
	return id
}

func (s *State) AddScorchedZone(teamID string, tri [3]geom.Point, turns int) string {
	id := s.newEffectID()
	s.Scorched[id] = &ScorchedZone{ID: id, TeamID: teamID, Tri: tri, TurnsLeft: turns}
	return id
}

func (s *State) AddWhirlpool(teamID string, center geom.Point, radius, swirl float64, turns int) string {
	id := s.newEffectID()
	s.Whirlpools[id] = &Whirlpool{ID: id, TeamID: teamID, Center: center, Radius: radius, Swirl: swirl, TurnsLeft: turns}
	return id
}

func (s *State) AddRiftTrap(teamID string, center geom.Point, radius float64, turns int) string {
	id := s.newEffectID()
	s.RiftTraps[id] = &RiftTrap{ID: id, TeamID: teamID, Center: center, Radius: radius, TurnsLeft: turns}
	return id
}

// RebuildIndex recomputes the cell occupancy and line endpoint indexes
// from Points and Lines.
func (s *State) RebuildIndex() {
	s.cells = make(map[[2]int]string, len(s.Points))
	for id, p := range s.Points {
		s.cells[[2]int{p.X, p.Y}] = id
	}
	s.pairs = make(map[[2]string]string, len(s.Lines))
	for id, l := range s.Lines {
		s.pairs[pairKey(l.P1, l.P2)] = id
	}
}
