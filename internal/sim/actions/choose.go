package actions

import (
	"runegrid.ai/internal/sim/logic/weighted"
	"runegrid.ai/internal/sim/tuning"
)

// Weigher scores an action for a trait; tuning.Tuning satisfies it.
type Weigher interface {
	Weight(group, actionID, trait string) float64
}

var _ Weigher = tuning.Tuning{}

// Choose draws one feasible action for the team, weighting each by its
// group weight and the team trait's multiplier. It reports false when the
// feasible set is empty or every weight is zero.
func Choose(e *Env, teamID, trait string, w Weigher) (Action, bool) {
	feasible := Feasible(e, teamID)
	if len(feasible) == 0 {
		return nil, false
	}
	weights := make(map[string]float64, len(feasible))
	for _, a := range feasible {
		weights[a.ID()] = w.Weight(string(a.Group()), a.ID(), trait)
	}
	id := weighted.Sample(weights, e.Rand.Float64())
	if id == "" {
		return nil, false
	}
	return byID[id], true
}
