package world

import (
	"fmt"
	"sort"
	"time"

	"runegrid.ai/internal/sim/actions"
	"runegrid.ai/internal/sim/state"
	"runegrid.ai/internal/sim/turn"
)

// AdvanceTurn runs one full turn: upkeep, then one action per active team
// in id order, then victory checks.
func (w *World) AdvanceTurn() (TurnReport, error) {
	switch w.state.Phase {
	case state.PhaseSetup:
		return TurnReport{}, ErrNotRunning
	case state.PhaseFinished:
		return TurnReport{}, ErrGameFinished
	}
	stepStart := time.Now()
	s := w.state
	s.Turn++
	rules := w.cfg.Tuning.Rules

	events := turn.Process(s, rules)
	for _, ev := range events {
		s.AppendLog(state.LogEntry{TeamID: ev.TeamID, Message: ev.Message})
	}

	var recorded []RecordedAction
	if s.Victory == nil {
		teams := s.ActiveTeams()
		sort.Strings(teams)
		for _, teamID := range teams {
			if len(s.TeamPointIDs(teamID)) == 0 {
				continue
			}
			recorded = append(recorded, w.actTeam(teamID))
			if s.Victory != nil {
				break
			}
		}
	}
	w.checkVictory()

	if s.Victory != nil {
		s.Phase = state.PhaseFinished
		s.AppendLog(state.LogEntry{TeamID: s.Victory.TeamID, Message: "Victory: " + s.Victory.Description})
		w.logger.Printf("game %s finished at turn %d: %s %s", w.gameID, s.Turn, s.Victory.Kind, s.Victory.Description)
	}

	digest := w.stateDigest()
	if w.turnLogger != nil {
		if err := w.turnLogger.WriteTurn(TurnLogEntry{GameID: w.gameID, Turn: s.Turn, Events: events, Actions: recorded, Victory: s.Victory, Digest: digest}); err != nil {
			w.logger.Printf("turn log: %v", err)
		}
	}
	if w.snapshotSink != nil {
		every := w.cfg.SnapshotEveryTurns
		if s.Phase == state.PhaseFinished || (every > 0 && s.Turn%every == 0) {
			select {
			case w.snapshotSink <- w.ExportSnapshot():
			default:
				// Drop snapshot if sink is backed up.
			}
		}
	}
	if s.Phase == state.PhaseFinished {
		w.emitEvent("FINISH")
	}
	w.stats.ObserveTurn(uint64(s.Turn), len(events))
	w.publishMetrics(float64(time.Since(stepStart).Microseconds()) / 1000.0)

	return TurnReport{Turn: s.Turn, Events: events, Actions: recorded, Victory: s.Victory, Digest: digest}, nil
}

func (w *World) actTeam(teamID string) RecordedAction {
	s := w.state
	team := s.Teams[teamID]
	env := actions.NewEnv(s, w.rng, w.cfg.Tuning.Rules)
	a, ok := actions.Choose(env, teamID, team.Trait, w.cfg.Tuning)
	if !ok {
		msg := team.Name + " found nothing to do."
		s.AppendLog(state.LogEntry{TeamID: teamID, Message: msg})
		w.stats.RecordIdle(uint64(s.Turn), teamID)
		return RecordedAction{TeamID: teamID, Outcome: "idle", Message: msg}
	}
	res := actions.Execute(env, a, teamID)
	msg := res.Message(team.Name)
	rec := RecordedAction{TeamID: teamID, ActionID: a.ID(), Outcome: string(res.Kind), Fallback: res.Fallback, Message: msg}
	entry := state.LogEntry{TeamID: teamID, ActionID: a.ID(), Outcome: string(res.Kind), Message: msg}
	if !res.OK() {
		rec.Defect = true
		entry.Defect = true
		entry.Message = fmt.Sprintf("ENGINE DEFECT: %s", msg)
		w.logger.Printf("ENGINE DEFECT game=%s turn=%d team=%s action=%s: %s", w.gameID, s.Turn, teamID, a.ID(), res.Reason)
	}
	s.AppendLog(entry)
	w.stats.RecordAction(uint64(s.Turn), teamID, string(a.Group()), res.Fallback, !res.OK())
	return rec
}

// StepOnce advances one turn and returns its digest; it is meant for
// replays and tests.
func (w *World) StepOnce() (int, string, error) {
	r, err := w.AdvanceTurn()
	return r.Turn, r.Digest, err
}
