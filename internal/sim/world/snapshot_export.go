package world

import (
	"runegrid.ai/internal/persistence/snapshot"
	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/state"
)

// ExportSnapshot captures the full game, random stream included, so that
// an imported copy continues identically.
func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	s := w.state
	rng, err := w.pcg.MarshalBinary()
	if err != nil {
		w.logger.Printf("snapshot: rng state: %v", err)
	}
	snap := snapshot.SnapshotV1{
		Header:         snapshot.Header{Version: snapshot.Version, GameID: w.gameID, Turn: s.Turn},
		Seed:           w.seed,
		RNG:            rng,
		GridSize:       s.GridSize,
		MaxTurns:       s.MaxTurns,
		Phase:          string(s.Phase),
		DominanceTeam:  s.DominanceTeam,
		DominanceTurns: s.DominanceTurns,
		Counters: snapshot.CountersV1{
			NextPoint:     s.Counters.NextPoint,
			NextLine:      s.Counters.NextLine,
			NextTerritory: s.Counters.NextTerritory,
			NextStructure: s.Counters.NextStructure,
			NextEffect:    s.Counters.NextEffect,
		},
	}
	for _, id := range s.TeamOrder {
		t := s.Teams[id]
		snap.Teams = append(snap.Teams, snapshot.TeamV1{ID: t.ID, Name: t.Name, Color: t.Color, Trait: t.Trait})
	}
	for _, id := range s.PointIDs() {
		p := s.Points[id]
		snap.Points = append(snap.Points, snapshot.PointV1{ID: p.ID, X: p.X, Y: p.Y, TeamID: p.TeamID})
	}
	for _, id := range s.LineIDs() {
		l := s.Lines[id]
		snap.Lines = append(snap.Lines, snapshot.LineV1{ID: l.ID, P1: l.P1, P2: l.P2, TeamID: l.TeamID, Shield: s.Shields[id], Strength: s.Strengths[id]})
	}
	for _, id := range s.TerritoryIDs() {
		t := s.Territories[id]
		snap.Territories = append(snap.Territories, snapshot.TerritoryV1{ID: t.ID, TeamID: t.TeamID, Points: t.Points})
	}
	for _, id := range s.StructureIDs() {
		snap.Structures = append(snap.Structures, exportStructure(s.Structures[id]))
	}
	if len(s.Stasis) > 0 {
		snap.Stasis = make(map[string]int, len(s.Stasis))
		for k, v := range s.Stasis {
			snap.Stasis[k] = v
		}
	}
	for _, f := range fieldViews(s) {
		fv := snapshot.FieldV1{ID: f.ID, Kind: f.Kind, TeamID: f.TeamID, Radius: f.Radius, TurnsLeft: f.TurnsLeft}
		for _, p := range f.Shape {
			fv.Points = append(fv.Points, [2]float64{p.X, p.Y})
		}
		if f.Kind == "whirlpool" {
			fv.Swirl = s.Whirlpools[f.ID].Swirl
		}
		snap.Fields = append(snap.Fields, fv)
	}
	if v := s.Victory; v != nil {
		snap.Victory = &snapshot.VictoryV1{Kind: string(v.Kind), TeamID: v.TeamID, Turn: v.Turn, Description: v.Description}
	}
	for _, e := range s.Log {
		snap.Log = append(snap.Log, snapshot.LogEntryV1{Turn: e.Turn, TeamID: e.TeamID, ActionID: e.ActionID, Outcome: e.Outcome, Message: e.Message, Defect: e.Defect})
	}
	return snap
}

func exportStructure(st state.Structure) snapshot.StructureV1 {
	out := snapshot.StructureV1{ID: st.StructureID(), Kind: string(st.Kind()), TeamID: st.Team()}
	if ids := st.PointIDs(); len(ids) > 0 {
		out.PointIDs = append([]string(nil), ids...)
	}
	setCenter := func(p geom.Point) { out.Center = [2]float64{p.X, p.Y} }
	switch t := st.(type) {
	case *state.Monolith:
		setCenter(t.Center)
		out.Charge = t.Charge
	case *state.Purifier:
		setCenter(t.Center)
	case *state.AttunedNexus:
		setCenter(t.Center)
		out.Charge = t.Charge
	case *state.LeyLine:
		out.Charge = t.Charge
	case *state.Heartwood:
		out.Charge = t.Charge
	case *state.Wonder:
		out.X, out.Y, out.TurnsLeft = t.X, t.Y, t.TurnsLeft
	case *state.RiftSpire:
		out.X, out.Y, out.Charge = t.X, t.Y, t.Charge
	case *state.Anchor:
		out.TurnsLeft = t.TurnsLeft
	}
	return out
}
