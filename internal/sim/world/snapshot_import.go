package world

import (
	"fmt"

	"runegrid.ai/internal/persistence/snapshot"
	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/logic/ids"
	"runegrid.ai/internal/sim/state"
)

// ImportSnapshot replaces the current game with the snapshot's.
//
// This must be called only when the world is stopped or from the world loop goroutine.
func (w *World) ImportSnapshot(snap snapshot.SnapshotV1) error {
	s, err := buildState(snap)
	if err != nil {
		return err
	}
	w.seedRandom(snap.Seed)
	if len(snap.RNG) > 0 {
		if err := w.pcg.UnmarshalBinary(snap.RNG); err != nil {
			return fmt.Errorf("snapshot rng: %w", err)
		}
	}
	w.state = s
	w.gameID = snap.Header.GameID
	w.stats.Reset()
	w.publishMetrics(0)
	return nil
}

func buildState(snap snapshot.SnapshotV1) (*state.State, error) {
	s := state.New(snap.GridSize, snap.MaxTurns)
	s.Turn = snap.Header.Turn
	switch p := state.Phase(snap.Phase); p {
	case state.PhaseSetup, state.PhaseRunning, state.PhaseFinished:
		s.Phase = p
	default:
		return nil, fmt.Errorf("snapshot: unknown phase %q", snap.Phase)
	}
	for _, t := range snap.Teams {
		s.AddTeam(state.Team{ID: t.ID, Name: t.Name, Color: t.Color, Trait: t.Trait})
	}
	var pointIDs, lineIDs, territoryIDs, structureIDs, effectIDs []string
	for _, p := range snap.Points {
		s.Points[p.ID] = &state.Point{ID: p.ID, X: p.X, Y: p.Y, TeamID: p.TeamID}
		pointIDs = append(pointIDs, p.ID)
	}
	for _, l := range snap.Lines {
		s.Lines[l.ID] = &state.Line{ID: l.ID, P1: l.P1, P2: l.P2, TeamID: l.TeamID}
		if l.Shield > 0 {
			s.Shields[l.ID] = l.Shield
		}
		if l.Strength > 0 {
			s.Strengths[l.ID] = l.Strength
		}
		lineIDs = append(lineIDs, l.ID)
	}
	for _, t := range snap.Territories {
		s.Territories[t.ID] = &state.Territory{ID: t.ID, TeamID: t.TeamID, Points: t.Points}
		territoryIDs = append(territoryIDs, t.ID)
	}
	for _, sv := range snap.Structures {
		st, err := importStructure(sv)
		if err != nil {
			return nil, err
		}
		s.Structures[sv.ID] = st
		structureIDs = append(structureIDs, sv.ID)
	}
	for k, v := range snap.Stasis {
		s.Stasis[k] = v
	}
	for _, f := range snap.Fields {
		if err := importField(s, f); err != nil {
			return nil, err
		}
		effectIDs = append(effectIDs, f.ID)
	}
	if v := snap.Victory; v != nil {
		s.Victory = &state.Victory{Kind: state.VictoryKind(v.Kind), TeamID: v.TeamID, Turn: v.Turn, Description: v.Description}
	}
	s.DominanceTeam, s.DominanceTurns = snap.DominanceTeam, snap.DominanceTurns
	for _, e := range snap.Log {
		s.Log = append(s.Log, state.LogEntry{Turn: e.Turn, TeamID: e.TeamID, ActionID: e.ActionID, Outcome: e.Outcome, Message: e.Message, Defect: e.Defect})
	}

	c := snap.Counters
	s.Counters = state.Counters{
		NextPoint:     ids.MaxU64(c.NextPoint, ids.MaxCounter("p", pointIDs)),
		NextLine:      ids.MaxU64(c.NextLine, ids.MaxCounter("l", lineIDs)),
		NextTerritory: ids.MaxU64(c.NextTerritory, ids.MaxCounter("t", territoryIDs)),
		NextStructure: ids.MaxU64(c.NextStructure, ids.MaxCounter("s", structureIDs)),
		NextEffect:    ids.MaxU64(c.NextEffect, ids.MaxCounter("f", effectIDs)),
	}
	s.RebuildIndex()
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return s, nil
}

func importStructure(sv snapshot.StructureV1) (state.Structure, error) {
	center := geom.Point{X: sv.Center[0], Y: sv.Center[1]}
	need := func(n int) error {
		if len(sv.PointIDs) < n {
			return fmt.Errorf("snapshot: structure %s (%s) has %d points, want %d", sv.ID, sv.Kind, len(sv.PointIDs), n)
		}
		return nil
	}
	switch state.StructureKind(sv.Kind) {
	case state.KindBastion:
		if err := need(4); err != nil {
			return nil, err
		}
		return &state.Bastion{ID: sv.ID, TeamID: sv.TeamID, Core: sv.PointIDs[0], Prongs: append([]string(nil), sv.PointIDs[1:]...)}, nil
	case state.KindMonolith:
		if err := need(4); err != nil {
			return nil, err
		}
		m := &state.Monolith{ID: sv.ID, TeamID: sv.TeamID, Center: center, Charge: sv.Charge}
		copy(m.Points[:], sv.PointIDs)
		return m, nil
	case state.KindPurifier:
		if err := need(5); err != nil {
			return nil, err
		}
		p := &state.Purifier{ID: sv.ID, TeamID: sv.TeamID, Center: center}
		copy(p.Points[:], sv.PointIDs)
		return p, nil
	case state.KindAttunedNexus:
		if err := need(4); err != nil {
			return nil, err
		}
		n := &state.AttunedNexus{ID: sv.ID, TeamID: sv.TeamID, Center: center, Charge: sv.Charge}
		copy(n.Points[:], sv.PointIDs)
		return n, nil
	case state.KindLeyLine:
		if err := need(2); err != nil {
			return nil, err
		}
		return &state.LeyLine{ID: sv.ID, TeamID: sv.TeamID, Points: append([]string(nil), sv.PointIDs...), Charge: sv.Charge}, nil
	case state.KindHeartwood:
		if err := need(1); err != nil {
			return nil, err
		}
		return &state.Heartwood{ID: sv.ID, TeamID: sv.TeamID, Center: sv.PointIDs[0], Charge: sv.Charge}, nil
	case state.KindWonder:
		return &state.Wonder{ID: sv.ID, TeamID: sv.TeamID, X: sv.X, Y: sv.Y, TurnsLeft: sv.TurnsLeft}, nil
	case state.KindRiftSpire:
		return &state.RiftSpire{ID: sv.ID, TeamID: sv.TeamID, X: sv.X, Y: sv.Y, Charge: sv.Charge}, nil
	case state.KindAnchor:
		if err := need(1); err != nil {
			return nil, err
		}
		return &state.Anchor{ID: sv.ID, TeamID: sv.TeamID, PointID: sv.PointIDs[0], TurnsLeft: sv.TurnsLeft}, nil
	}
	return nil, fmt.Errorf("snapshot: structure %s has unknown kind %q", sv.ID, sv.Kind)
}

func importField(s *state.State, f snapshot.FieldV1) error {
	pts := make([]geom.Point, 0, len(f.Points))
	for _, p := range f.Points {
		pts = append(pts, geom.Point{X: p[0], Y: p[1]})
	}
	need := func(n int) error {
		if len(pts) != n {
			return fmt.Errorf("snapshot: field %s (%s) has %d points, want %d", f.ID, f.Kind, len(pts), n)
		}
		return nil
	}
	switch f.Kind {
	case "fissure":
		if err := need(2); err != nil {
			return err
		}
		s.Fissures[f.ID] = &state.Fissure{ID: f.ID, Seg: geom.Segment{A: pts[0], B: pts[1]}, TurnsLeft: f.TurnsLeft}
	case "barricade":
		if err := need(2); err != nil {
			return err
		}
		s.Barricades[f.ID] = &state.Barricade{ID: f.ID, TeamID: f.TeamID, Seg: geom.Segment{A: pts[0], B: pts[1]}, TurnsLeft: f.TurnsLeft}
	case "scorched":
		if err := need(3); err != nil {
			return err
		}
		s.Scorched[f.ID] = &state.ScorchedZone{ID: f.ID, TeamID: f.TeamID, Tri: [3]geom.Point{pts[0], pts[1], pts[2]}, TurnsLeft: f.TurnsLeft}
	case "whirlpool":
		if err := need(1); err != nil {
			return err
		}
		s.Whirlpools[f.ID] = &state.Whirlpool{ID: f.ID, TeamID: f.TeamID, Center: pts[0], Radius: f.Radius, Swirl: f.Swirl, TurnsLeft: f.TurnsLeft}
	case "rift_trap":
		if err := need(1); err != nil {
			return err
		}
		s.RiftTraps[f.ID] = &state.RiftTrap{ID: f.ID, TeamID: f.TeamID, Center: pts[0], Radius: f.Radius, TurnsLeft: f.TurnsLeft}
	default:
		return fmt.Errorf("snapshot: field %s has unknown kind %q", f.ID, f.Kind)
	}
	return nil
}
