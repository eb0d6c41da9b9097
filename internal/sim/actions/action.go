// Package actions resolves the game's action catalogue. Every action pairs
// a precondition with an effect; when the precondition holds the effect
// always mutates the state, falling back to a lesser outcome when the
// primary one is impossible.
package actions

import (
	"math/rand/v2"
	"sort"

	"runegrid.ai/internal/sim/query"
	"runegrid.ai/internal/sim/state"
	"runegrid.ai/internal/sim/tuning"
)

type Group string

const (
	GroupExpand    Group = "Expand"
	GroupFight     Group = "Fight"
	GroupFortify   Group = "Fortify"
	GroupSacrifice Group = "Sacrifice"
	GroupTerraform Group = "Terraform"
	GroupRune      Group = "Rune"
)

// Env is everything an action may read or mutate.
type Env struct {
	State *state.State
	Rand  *rand.Rand
	Rules tuning.Rules

	free *bool
}

func NewEnv(s *state.State, r *rand.Rand, rules tuning.Rules) *Env {
	return &Env{State: s, Rand: r, Rules: rules}
}

// Invalidate drops cached derivations after a mutation.
func (e *Env) Invalidate() { e.free = nil }

func (e *Env) hasFreeCell() bool {
	if e.free == nil {
		v := query.AnyFreeCell(e.State)
		e.free = &v
	}
	return *e.free
}

type Action interface {
	ID() string
	Group() Group
	// MinPoints is the smallest team size for which the precondition can
	// hold.
	MinPoints() int
	Precondition(e *Env, teamID string) (bool, string)
	Apply(e *Env, teamID string) Result
}

type base struct {
	id        string
	group     Group
	minPoints int
	templates map[OutcomeKind]string
}

func (b base) ID() string     { return b.id }
func (b base) Group() Group   { return b.group }
func (b base) MinPoints() int { return b.minPoints }
func (b base) template(k OutcomeKind) string {
	if t, ok := b.templates[k]; ok {
		return t
	}
	return defaultTemplates[k]
}

// gate checks the shared team-size rule before an action's own test.
func (b base) gate(e *Env, teamID string) (bool, string) {
	if n := len(e.State.TeamPointIDs(teamID)); n < b.minPoints {
		return false, "team too small"
	}
	return true, ""
}

var registry = []Action{
	expandAdd, expandExtend, expandGrow, expandFracture, expandSpawn, expandOrbital,

	fightAttack, fightConvert, fightPincer, fightTerritoryStrike, fightIsolate,
	fightHullBreach, fightBastionPulse, fightLaunchPayload, fightPurifyTerritory,
	fightRefractionBeam, fightRiftSpireStrike,

	fortifyClaim, fortifyAnchor, fortifyMirror, fortifyShield, fortifyFormBastion,
	fortifyFormMonolith, fortifyFormPurifier, fortifyAttuneNexus,
	fortifyCultivateHeartwood, fortifyFormRiftSpire, fortifyBuildWonder,
	fortifyReposition,

	sacrificeNovaBurst, sacrificeWhirlpool, sacrificePhaseShift, sacrificeRiftTrap,
	sacrificeScorchTerritory, sacrificeChainLightning,

	terraformCreateFissure, terraformRaiseBarricade,

	runeShootBisector, runeImpale, runeHourglassStasis, runeStarlightCascade,
	runeCardinalPulse, runeTHammerSlam, runeSentryZap, runeFormLeyLine,
}

var byID = func() map[string]Action {
	m := make(map[string]Action, len(registry))
	for _, a := range registry {
		m[a.ID()] = a
	}
	return m
}()

// All returns the registry in catalogue order.
func All() []Action { return append([]Action(nil), registry...) }

func Lookup(id string) (Action, bool) {
	a, ok := byID[id]
	return a, ok
}

// IDs returns every action id, sorted.
func IDs() []string {
	out := make([]string, 0, len(registry))
	for _, a := range registry {
		out = append(out, a.ID())
	}
	sort.Strings(out)
	return out
}

// Feasible returns the actions whose precondition holds for the team.
func Feasible(e *Env, teamID string) []Action {
	e.Invalidate()
	n := len(e.State.TeamPointIDs(teamID))
	var out []Action
	for _, a := range registry {
		if n < a.MinPoints() {
			continue
		}
		if ok, _ := a.Precondition(e, teamID); ok {
			out = append(out, a)
		}
	}
	return out
}

// Execute applies a and reports a defect result if the effect failed to
// produce an outcome.
func Execute(e *Env, a Action, teamID string) Result {
	r := a.Apply(e, teamID)
	e.Invalidate()
	r.ActionID = a.ID()
	if r.Kind == "" {
		r.Kind = OutcomeFailed
	}
	if r.Kind != OutcomeFailed {
		r.message = render(templateFor(a, r.Kind), r)
	}
	return r
}

func templateFor(a Action, k OutcomeKind) string {
	if t, ok := a.(interface{ template(OutcomeKind) string }); ok {
		return t.template(k)
	}
	return defaultTemplates[k]
}
