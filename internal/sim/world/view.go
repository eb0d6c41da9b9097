package world

import (
	"sort"

	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/state"
)

// GameView is a detached copy of the game for callers outside the world
// loop. Every slice is sorted by id.
type GameView struct {
	GameID      string            `json:"game_id,omitempty"`
	GridSize    int               `json:"grid_size"`
	MaxTurns    int               `json:"max_turns"`
	Turn        int               `json:"turn"`
	Phase       state.Phase       `json:"phase"`
	Teams       []TeamView        `json:"teams"`
	Points      []state.Point     `json:"points"`
	Lines       []LineView        `json:"lines"`
	Territories []state.Territory `json:"territories"`
	Structures  []StructureView   `json:"structures"`
	Stasis      map[string]int    `json:"stasis,omitempty"`
	Fields      []FieldView       `json:"fields"`
	Victory     *state.Victory    `json:"victory,omitempty"`
	Log         []state.LogEntry  `json:"log"`
	Digest      string            `json:"digest"`
}

type TeamStats struct {
	Points      int     `json:"points"`
	Lines       int     `json:"lines"`
	Territories int     `json:"territories"`
	Structures  int     `json:"structures"`
	Area        float64 `json:"controlled_area"`
}

type TeamView struct {
	state.Team
	Active bool      `json:"active"`
	Stats  TeamStats `json:"stats"`
}

type LineView struct {
	state.Line
	Shielded    bool `json:"shielded"`
	ShieldTurns int  `json:"shield_turns,omitempty"`
	Strength    int  `json:"strength,omitempty"`
}

type StructureView struct {
	ID        string              `json:"id"`
	Kind      state.StructureKind `json:"kind"`
	TeamID    string              `json:"teamId"`
	PointIDs  []string            `json:"point_ids,omitempty"`
	Center    *geom.Point         `json:"center,omitempty"`
	Charge    int                 `json:"charge,omitempty"`
	TurnsLeft int                 `json:"turns_left,omitempty"`
}

type FieldView struct {
	ID        string       `json:"id"`
	Kind      string       `json:"kind"`
	TeamID    string       `json:"teamId,omitempty"`
	Shape     []geom.Point `json:"shape"`
	Radius    float64      `json:"radius,omitempty"`
	TurnsLeft int          `json:"turns_left"`
}

// Snapshot returns the current game as a GameView. Two calls without an
// intervening turn return identical values.
func (w *World) Snapshot() GameView {
	s := w.state
	v := GameView{
		GameID:   w.gameID,
		GridSize: s.GridSize,
		MaxTurns: s.MaxTurns,
		Turn:     s.Turn,
		Phase:    s.Phase,
		Log:      append([]state.LogEntry{}, s.Log...),
		Digest:   w.stateDigest(),
	}
	active := map[string]bool{}
	for _, id := range s.ActiveTeams() {
		active[id] = true
	}
	for _, id := range s.TeamOrder {
		v.Teams = append(v.Teams, TeamView{Team: *s.Teams[id], Active: active[id], Stats: teamStats(s, id)})
	}
	for _, id := range s.PointIDs() {
		v.Points = append(v.Points, *s.Points[id])
	}
	for _, id := range s.LineIDs() {
		v.Lines = append(v.Lines, LineView{
			Line:        *s.Lines[id],
			Shielded:    s.Shields[id] > 0,
			ShieldTurns: s.Shields[id],
			Strength:    s.Strengths[id],
		})
	}
	for _, id := range s.TerritoryIDs() {
		v.Territories = append(v.Territories, *s.Territories[id])
	}
	for _, id := range s.StructureIDs() {
		v.Structures = append(v.Structures, structureView(s.Structures[id]))
	}
	if len(s.Stasis) > 0 {
		v.Stasis = make(map[string]int, len(s.Stasis))
		for k, n := range s.Stasis {
			v.Stasis[k] = n
		}
	}
	v.Fields = fieldViews(s)
	if s.Victory != nil {
		vc := *s.Victory
		v.Victory = &vc
	}
	return v
}

func teamStats(s *state.State, teamID string) TeamStats {
	return TeamStats{
		Points:      len(s.TeamPointIDs(teamID)),
		Lines:       len(s.TeamLineIDs(teamID)),
		Territories: len(s.TeamTerritoryIDs(teamID)),
		Structures:  countStructures(s, teamID),
		Area:        s.ControlledArea(teamID),
	}
}

func countStructures(s *state.State, teamID string) int {
	n := 0
	for _, st := range s.Structures {
		if st.Team() == teamID {
			n++
		}
	}
	return n
}

func sortFields(fs []FieldView) {
	sort.Slice(fs, func(i, j int) bool { return fs[i].ID < fs[j].ID })
}

func structureView(st state.Structure) StructureView {
	v := StructureView{ID: st.StructureID(), Kind: st.Kind(), TeamID: st.Team()}
	if ids := st.PointIDs(); len(ids) > 0 {
		v.PointIDs = append([]string(nil), ids...)
	}
	center := func(p geom.Point) { v.Center = &p }
	switch t := st.(type) {
	case *state.Monolith:
		center(t.Center)
		v.Charge = t.Charge
	case *state.Purifier:
		center(t.Center)
	case *state.AttunedNexus:
		center(t.Center)
		v.Charge = t.Charge
	case *state.LeyLine:
		v.Charge = t.Charge
	case *state.Heartwood:
		v.Charge = t.Charge
	case *state.Wonder:
		center(geom.Pt(t.X, t.Y))
		v.TurnsLeft = t.TurnsLeft
	case *state.RiftSpire:
		center(geom.Pt(t.X, t.Y))
		v.Charge = t.Charge
	case *state.Anchor:
		v.TurnsLeft = t.TurnsLeft
	}
	return v
}

func fieldViews(s *state.State) []FieldView {
	var out []FieldView
	for _, id := range s.FissureIDs() {
		f := s.Fissures[id]
		out = append(out, FieldView{ID: id, Kind: "fissure", Shape: []geom.Point{f.Seg.A, f.Seg.B}, TurnsLeft: f.TurnsLeft})
	}
	for _, id := range s.BarricadeIDs() {
		b := s.Barricades[id]
		out = append(out, FieldView{ID: id, Kind: "barricade", TeamID: b.TeamID, Shape: []geom.Point{b.Seg.A, b.Seg.B}, TurnsLeft: b.TurnsLeft})
	}
	for _, id := range s.ScorchedIDs() {
		z := s.Scorched[id]
		out = append(out, FieldView{ID: id, Kind: "scorched", TeamID: z.TeamID, Shape: append([]geom.Point(nil), z.Tri[:]...), TurnsLeft: z.TurnsLeft})
	}
	for _, id := range s.WhirlpoolIDs() {
		wp := s.Whirlpools[id]
		out = append(out, FieldView{ID: id, Kind: "whirlpool", TeamID: wp.TeamID, Shape: []geom.Point{wp.Center}, Radius: wp.Radius, TurnsLeft: wp.TurnsLeft})
	}
	for _, id := range s.RiftTrapIDs() {
		r := s.RiftTraps[id]
		out = append(out, FieldView{ID: id, Kind: "rift_trap", TeamID: r.TeamID, Shape: []geom.Point{r.Center}, Radius: r.Radius, TurnsLeft: r.TurnsLeft})
	}
	sortFields(out)
	return out
}
