package world

import (
	"fmt"
	"sort"

	"runegrid.ai/internal/sim/state"
)

// checkVictory applies the end-of-turn victory rules in order: extinction,
// dominance, time limit. A victory already set by upkeep or an action
// wins.
func (w *World) checkVictory() {
	s := w.state
	if s.Victory != nil {
		return
	}
	active := s.ActiveTeams()
	switch len(active) {
	case 0:
		s.Victory = &state.Victory{Kind: state.VictoryExtinction, Turn: s.Turn, Description: "every team was wiped out; the game is a draw"}
		return
	case 1:
		if s.DominanceTeam == active[0] {
			s.DominanceTurns++
		} else {
			s.DominanceTeam, s.DominanceTurns = active[0], 1
		}
		need := w.cfg.Tuning.Rules.DominanceTurns
		if need <= 0 {
			need = 3
		}
		if s.DominanceTurns >= need {
			s.Victory = &state.Victory{
				Kind:        state.VictoryDominance,
				TeamID:      active[0],
				Turn:        s.Turn,
				Description: fmt.Sprintf("%s stood alone for %d turns", s.Teams[active[0]].Name, s.DominanceTurns),
			}
			return
		}
	default:
		s.DominanceTeam, s.DominanceTurns = "", 0
	}
	if s.Turn >= s.MaxTurns {
		s.Victory = timeLimitVictory(s)
	}
}

// timeLimitVictory ranks teams by point count, then controlled area. A
// tie at the top is a draw.
func timeLimitVictory(s *state.State) *state.Victory {
	type score struct {
		id     string
		points int
		area   float64
	}
	var scores []score
	for _, id := range s.TeamOrder {
		scores = append(scores, score{id: id, points: len(s.TeamPointIDs(id)), area: s.ControlledArea(id)})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].points != scores[j].points {
			return scores[i].points > scores[j].points
		}
		return scores[i].area > scores[j].area
	})
	v := &state.Victory{Kind: state.VictoryTimeLimit, Turn: s.Turn}
	if len(scores) > 1 && scores[0].points == scores[1].points && scores[0].area == scores[1].area {
		v.Description = fmt.Sprintf("turn limit reached with a tie at %d points; the game is a draw", scores[0].points)
		return v
	}
	top := scores[0]
	v.TeamID = top.id
	v.Description = fmt.Sprintf("%s led with %d points when the turn limit was reached", s.Teams[top.id].Name, top.points)
	return v
}
