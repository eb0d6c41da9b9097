// Package state holds the canonical game data: teams, points, lines,
// territories, the structure arena and transient field effects, together
// with the mutation primitives that keep every reference valid.
package state

import (
	"fmt"
	"sort"

	"runegrid.ai/internal/sim/geom"
)

type Phase string

const (
	PhaseSetup    Phase = "SETUP"
	PhaseRunning  Phase = "RUNNING"
	PhaseFinished Phase = "FINISHED"
)

type Team struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Trait string `json:"trait"`
}

type Point struct {
	ID     string `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	TeamID string `json:"teamId"`
}

func (p *Point) Pos() geom.Point { return geom.Pt(p.X, p.Y) }

type Line struct {
	ID     string `json:"id"`
	P1     string `json:"p1_id"`
	P2     string `json:"p2_id"`
	TeamID string `json:"teamId"`
}

// Other returns the endpoint of l that is not pid.
func (l *Line) Other(pid string) string {
	if l.P1 == pid {
		return l.P2
	}
	return l.P1
}

func (l *Line) Has(pid string) bool { return l.P1 == pid || l.P2 == pid }

type Territory struct {
	ID     string    `json:"id"`
	TeamID string    `json:"teamId"`
	Points [3]string `json:"point_ids"`
}

func (t *Territory) Has(pid string) bool {
	return t.Points[0] == pid || t.Points[1] == pid || t.Points[2] == pid
}

type Fissure struct {
	ID        string       `json:"id"`
	Seg       geom.Segment `json:"segment"`
	TurnsLeft int          `json:"turns_left"`
}

type Barricade struct {
	ID        string       `json:"id"`
	TeamID    string       `json:"teamId"`
	Seg       geom.Segment `json:"segment"`
	TurnsLeft int          `json:"turns_left"`
}

type ScorchedZone struct {
	ID        string        `json:"id"`
	TeamID    string        `json:"teamId"`
	Tri       [3]geom.Point `json:"triangle"`
	TurnsLeft int           `json:"turns_left"`
}

func (z *ScorchedZone) Contains(p geom.Point) bool {
	return geom.IsPointInsideTriangle(p, z.Tri[0], z.Tri[1], z.Tri[2])
}

type Whirlpool struct {
	ID        string     `json:"id"`
	TeamID    string     `json:"teamId"`
	Center    geom.Point `json:"center"`
	Radius    float64    `json:"radius"`
	Swirl     float64    `json:"swirl"`
	TurnsLeft int        `json:"turns_left"`
}

type RiftTrap struct {
	ID        string     `json:"id"`
	TeamID    string     `json:"teamId"`
	Center    geom.Point `json:"center"`
	Radius    float64    `json:"radius"`
	TurnsLeft int        `json:"turns_left"`
}

type VictoryKind string

const (
	VictoryWonder     VictoryKind = "WONDER"
	VictoryDominance  VictoryKind = "DOMINANCE"
	VictoryTimeLimit  VictoryKind = "TIME_LIMIT"
	VictoryExtinction VictoryKind = "EXTINCTION"
)

type Victory struct {
	Kind        VictoryKind `json:"kind"`
	TeamID      string      `json:"teamId,omitempty"`
	Turn        int         `json:"turn"`
	Description string      `json:"description"`
}

// LogEntry is one line of the append-only game log.
type LogEntry struct {
	Turn     int    `json:"turn"`
	TeamID   string `json:"teamId,omitempty"`
	ActionID string `json:"action_id,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
	Message  string `json:"message"`
	Defect   bool   `json:"defect,omitempty"`
}

// Counters hand out monotonically increasing ids.
type Counters struct {
	NextPoint     uint64 `json:"next_point"`
	NextLine      uint64 `json:"next_line"`
	NextTerritory uint64 `json:"next_territory"`
	NextStructure uint64 `json:"next_structure"`
	NextEffect    uint64 `json:"next_effect"`
}

type State struct {
	GridSize int
	MaxTurns int
	Turn     int
	Phase    Phase

	Teams     map[string]*Team
	TeamOrder []string

	Points      map[string]*Point
	Lines       map[string]*Line
	Territories map[string]*Territory
	Structures  map[string]Structure

	// Line modifiers, keyed by line id.
	Shields   map[string]int
	Strengths map[string]int
	// Stasis freezes points, keyed by point id.
	Stasis map[string]int

	Fissures   map[string]*Fissure
	Barricades map[string]*Barricade
	Scorched   map[string]*ScorchedZone
	Whirlpools map[string]*Whirlpool
	RiftTraps  map[string]*RiftTrap

	Victory        *Victory
	DominanceTeam  string
	DominanceTurns int

	Log []LogEntry

	Counters Counters

	cells map[[2]int]string
	pairs map[[2]string]string
}

func New(gridSize, maxTurns int) *State {
	return &State{
		GridSize:    gridSize,
		MaxTurns:    maxTurns,
		Phase:       PhaseSetup,
		Teams:       map[string]*Team{},
		Points:      map[string]*Point{},
		Lines:       map[string]*Line{},
		Territories: map[string]*Territory{},
		Structures:  map[string]Structure{},
		Shields:     map[string]int{},
		Strengths:   map[string]int{},
		Stasis:      map[string]int{},
		Fissures:    map[string]*Fissure{},
		Barricades:  map[string]*Barricade{},
		Scorched:    map[string]*ScorchedZone{},
		Whirlpools:  map[string]*Whirlpool{},
		RiftTraps:   map[string]*RiftTrap{},
		cells:       map[[2]int]string{},
		pairs:       map[[2]string]string{},
	}
}

func (s *State) newPointID() string {
	s.Counters.NextPoint++
	return fmt.Sprintf("p%d", s.Counters.NextPoint)
}

func (s *State) newLineID() string {
	s.Counters.NextLine++
	return fmt.Sprintf("l%d", s.Counters.NextLine)
}

func (s *State) newTerritoryID() string {
	s.Counters.NextTerritory++
	return fmt.Sprintf("t%d", s.Counters.NextTerritory)
}

// NewStructureID reserves an id for a structure that is not keyed by a
// point or team.
func (s *State) NewStructureID() string {
	s.Counters.NextStructure++
	return fmt.Sprintf("s%d", s.Counters.NextStructure)
}

func (s *State) newEffectID() string {
	s.Counters.NextEffect++
	return fmt.Sprintf("f%d", s.Counters.NextEffect)
}

// AddTeam registers a team; order of registration is the acting order.
func (s *State) AddTeam(t Team) {
	if _, ok := s.Teams[t.ID]; !ok {
		s.TeamOrder = append(s.TeamOrder, t.ID)
	}
	tt := t
	s.Teams[t.ID] = &tt
}

// AppendLog records a message in the game log for the current turn.
func (s *State) AppendLog(e LogEntry) {
	e.Turn = s.Turn
	s.Log = append(s.Log, e)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PointIDs returns every point id, sorted.
func (s *State) PointIDs() []string { return sortedKeys(s.Points) }

// LineIDs returns every line id, sorted.
func (s *State) LineIDs() []string { return sortedKeys(s.Lines) }

func (s *State) TerritoryIDs() []string { return sortedKeys(s.Territories) }
func (s *State) StructureIDs() []string { return sortedKeys(s.Structures) }
func (s *State) FissureIDs() []string   { return sortedKeys(s.Fissures) }
func (s *State) BarricadeIDs() []string { return sortedKeys(s.Barricades) }
func (s *State) ScorchedIDs() []string  { return sortedKeys(s.Scorched) }
func (s *State) WhirlpoolIDs() []string { return sortedKeys(s.Whirlpools) }
func (s *State) RiftTrapIDs() []string  { return sortedKeys(s.RiftTraps) }

// TeamPointIDs returns the team's point ids, sorted.
func (s *State) TeamPointIDs(teamID string) []string {
	var out []string
	for _, id := range s.PointIDs() {
		if s.Points[id].TeamID == teamID {
			out = append(out, id)
		}
	}
	return out
}

// TeamLineIDs returns the team's line ids, sorted.
func (s *State) TeamLineIDs(teamID string) []string {
	var out []string
	for _, id := range s.LineIDs() {
		if s.Lines[id].TeamID == teamID {
			out = append(out, id)
		}
	}
	return out
}

func (s *State) TeamTerritoryIDs(teamID string) []string {
	var out []string
	for _, id := range s.TerritoryIDs() {
		if s.Territories[id].TeamID == teamID {
			out = append(out, id)
		}
	}
	return out
}

// EnemyPointIDs returns points of every team other than teamID, sorted.
func (s *State) EnemyPointIDs(teamID string) []string {
	var out []string
	for _, id := range s.PointIDs() {
		if s.Points[id].TeamID != teamID {
			out = append(out, id)
		}
	}
	return out
}

func (s *State) EnemyLineIDs(teamID string) []string {
	var out []string
	for _, id := range s.LineIDs() {
		if s.Lines[id].TeamID != teamID {
			out = append(out, id)
		}
	}
	return out
}

// LinesOf returns ids of lines touching pid, sorted.
func (s *State) LinesOf(pid string) []string {
	var out []string
	for _, id := range s.LineIDs() {
		if s.Lines[id].Has(pid) {
			out = append(out, id)
		}
	}
	return out
}

// Pos returns a point's coordinates. Missing points report false.
func (s *State) Pos(pid string) (geom.Point, bool) {
	p, ok := s.Points[pid]
	if !ok {
		return geom.Point{}, false
	}
	return p.Pos(), true
}

// Segment returns a line's geometry.
func (s *State) Segment(lid string) (geom.Segment, bool) {
	l, ok := s.Lines[lid]
	if !ok {
		return geom.Segment{}, false
	}
	a, ok1 := s.Pos(l.P1)
	b, ok2 := s.Pos(l.P2)
	if !ok1 || !ok2 {
		return geom.Segment{}, false
	}
	return geom.Segment{A: a, B: b}, true
}

// ActiveTeams returns teams owning at least one point, in acting order.
func (s *State) ActiveTeams() []string {
	count := map[string]int{}
	for _, p := range s.Points {
		count[p.TeamID]++
	}
	var out []string
	for _, id := range s.TeamOrder {
		if count[id] > 0 {
			out = append(out, id)
		}
	}
	return out
}

// PointAt returns the point occupying a cell.
func (s *State) PointAt(x, y int) (string, bool) {
	id, ok := s.cells[[2]int{x, y}]
	return id, ok
}

func (s *State) Occupied(x, y int) bool {
	_, ok := s.cells[[2]int{x, y}]
	return ok
}

func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// LineBetween finds the line joining a and b.
func (s *State) LineBetween(a, b string) (string, bool) {
	id, ok := s.pairs[pairKey(a, b)]
	return id, ok
}

// Obstacles returns segments that block line extension for teamID:
// fissures, other teams' barricades and scorched-zone edges.
func (s *State) Obstacles(teamID string) []geom.Segment {
	var out []geom.Segment
	for _, id := range s.FissureIDs() {
		out = append(out, s.Fissures[id].Seg)
	}
	for _, id := range s.BarricadeIDs() {
		if b := s.Barricades[id]; b.TeamID != teamID {
			out = append(out, b.Seg)
		}
	}
	for _, id := range s.ScorchedIDs() {
		z := s.Scorched[id]
		out = append(out, geom.PolygonEdges(z.Tri[:])...)
	}
	return out
}

// CanSpawnAt reports whether a new point may be placed on the cell: on
// the board, unoccupied, not on a fissure and not inside a scorched zone.
func (s *State) CanSpawnAt(x, y int) bool {
	if !geom.InBounds(x, y, s.GridSize) || s.Occupied(x, y) {
		return false
	}
	p := geom.Pt(x, y)
	for _, id := range s.FissureIDs() {
		f := s.Fissures[id]
		if geom.DistancePointSegmentSquared(p, f.Seg.A, f.Seg.B) < 0.25 {
			return false
		}
	}
	for _, id := range s.ScorchedIDs() {
		if s.Scorched[id].Contains(p) {
			return false
		}
	}
	return true
}

// ControlledArea is the summed area of the team's territories.
func (s *State) ControlledArea(teamID string) float64 {
	area := 0.0
	for _, id := range s.TeamTerritoryIDs(teamID) {
		t := s.Territories[id]
		var pts [3]geom.Point
		ok := true
		for i, pid := range t.Points {
			p, found := s.Pos(pid)
			if !found {
				ok = false
				break
			}
			pts[i] = p
		}
		if ok {
			area += geom.TriangleArea(pts[0], pts[1], pts[2])
		}
	}
	return area
}
