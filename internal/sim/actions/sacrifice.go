package actions

import (
	"math"

	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/query"
)

// sacrificeGate is shared by every sacrifice action: the team must keep at
// least two points and have a point it can afford to lose.
func sacrificeGate(e *Env, teamID string) (bool, string) {
	if !query.CanSacrifice(e.State, teamID) {
		return false, "nothing to sacrifice"
	}
	return true, ""
}

type sacrificeNovaBurstAction struct{ base }

var sacrificeNovaBurst = &sacrificeNovaBurstAction{base{id: "sacrifice_nova_burst", group: GroupSacrifice, minPoints: 3}}

func (a *sacrificeNovaBurstAction) Precondition(e *Env, teamID string) (bool, string) {
	if ok, why := sacrificeGate(e, teamID); !ok {
		return ok, why
	}
	if len(query.NovaCandidates(e.State, teamID, e.Rules.NovaRadius)) == 0 {
		return false, "no enemy line in blast radius"
	}
	return true, ""
}

// Apply detonates a point, stripping shields from or destroying every enemy
// line in the blast.
func (a *sacrificeNovaBurstAction) Apply(e *Env, teamID string) Result {
	cands := query.NovaCandidates(e.State, teamID, e.Rules.NovaRadius)
	if len(cands) == 0 {
		return failed("no nova candidate")
	}
	pid := query.PickString(cands, e.Rand)
	at := e.sacrificePoint(pid)
	r2 := e.Rules.NovaRadius * e.Rules.NovaRadius
	var d Damaged
	for _, lid := range e.State.EnemyLineIDs(teamID) {
		seg, _ := e.State.Segment(lid)
		if geom.DistancePointSegmentSquared(at, seg.A, seg.B) > r2 {
			continue
		}
		if e.State.Shields[lid] > 0 {
			delete(e.State.Shields, lid)
			d.Weakened = append(d.Weakened, lid)
			continue
		}
		e.State.DeleteLine(lid)
		d.Destroyed = append(d.Destroyed, lid)
	}
	if !d.empty() {
		return withSacrifice(damageResult(d), pid)
	}
	if r, done := e.pushEnemies(teamID, at, e.Rules.NovaRadius); done {
		return withSacrifice(asFallback(r), pid)
	}
	return withSacrifice(e.consolation(teamID, &at), pid)
}

type sacrificeWhirlpoolAction struct{ base }

var sacrificeWhirlpool = &sacrificeWhirlpoolAction{base{id: "sacrifice_whirlpool", group: GroupSacrifice, minPoints: 3}}

func (a *sacrificeWhirlpoolAction) Precondition(e *Env, teamID string) (bool, string) {
	if ok, why := sacrificeGate(e, teamID); !ok {
		return ok, why
	}
	if !hasEnemyPoints(e.State, teamID) {
		return false, "no enemy to pull"
	}
	return true, ""
}

func (a *sacrificeWhirlpoolAction) Apply(e *Env, teamID string) Result {
	pid, at, done := e.sacrifice(teamID)
	if !done {
		return failed("nothing to sacrifice")
	}
	id := e.State.AddWhirlpool(teamID, at, e.Rules.WhirlpoolRadius, e.Rules.WhirlpoolSwirl, e.Rules.WhirlpoolTurns)
	return withSacrifice(success(OutcomeFieldCreated, Field{EffectID: id, Kind: "whirlpool"}), pid)
}

type sacrificePhaseShiftAction struct{ base }

var sacrificePhaseShift = &sacrificePhaseShiftAction{base{id: "sacrifice_phase_shift", group: GroupSacrifice, minPoints: 3}}

func (a *sacrificePhaseShiftAction) Precondition(e *Env, teamID string) (bool, string) {
	if ok, why := sacrificeGate(e, teamID); !ok {
		return ok, why
	}
	if len(e.State.TeamLineIDs(teamID)) == 0 {
		return false, "no line to shift"
	}
	if !e.canConsole(teamID) {
		return false, "no fallback"
	}
	return true, ""
}

// Apply pays a point to translate a whole team line by a small offset.
// When the shift fails, the freed cell is still open to the whole-board
// spawn at the end of the fallback chain.
func (a *sacrificePhaseShiftAction) Apply(e *Env, teamID string) Result {
	pid, at, done := e.sacrifice(teamID)
	if !done {
		return failed("nothing to sacrifice")
	}
	offsets := [][2]int{}
	for dy := -3; dy <= 3; dy++ {
		for dx := -3; dx <= 3; dx++ {
			if dx*dx+dy*dy >= 4 && dx*dx+dy*dy <= 9 {
				offsets = append(offsets, [2]int{dx, dy})
			}
		}
	}
	for _, lid := range e.shuffled(e.State.TeamLineIDs(teamID)) {
		l := e.State.Lines[lid]
		if e.State.Frozen(l.P1) || e.State.Frozen(l.P2) {
			continue
		}
		p1, p2 := e.State.Points[l.P1], e.State.Points[l.P2]
		e.Rand.Shuffle(len(offsets), func(i, j int) { offsets[i], offsets[j] = offsets[j], offsets[i] })
		for _, o := range offsets {
			x1, y1 := p1.X+o[0], p1.Y+o[1]
			x2, y2 := p2.X+o[0], p2.Y+o[1]
			if !e.State.CanSpawnAt(x1, y1) || !e.State.CanSpawnAt(x2, y2) {
				continue
			}
			if !e.State.MovePoint(l.P1, x1, y1) {
				continue
			}
			if !e.State.MovePoint(l.P2, x2, y2) {
				continue
			}
			return withSacrifice(success(OutcomePointMoved, Moved{Points: []string{l.P1, l.P2}}), pid)
		}
	}
	return withSacrifice(e.consolation(teamID, &at), pid)
}

type sacrificeRiftTrapAction struct{ base }

var sacrificeRiftTrap = &sacrificeRiftTrapAction{base{id: "sacrifice_rift_trap", group: GroupSacrifice, minPoints: 3}}

func (a *sacrificeRiftTrapAction) Precondition(e *Env, teamID string) (bool, string) {
	return sacrificeGate(e, teamID)
}

func (a *sacrificeRiftTrapAction) Apply(e *Env, teamID string) Result {
	pid, at, done := e.sacrifice(teamID)
	if !done {
		return failed("nothing to sacrifice")
	}
	id := e.State.AddRiftTrap(teamID, at, e.Rules.RiftTrapRadius, e.Rules.RiftTrapTurns)
	return withSacrifice(success(OutcomeFieldCreated, Field{EffectID: id, Kind: "rift trap"}), pid)
}

type sacrificeScorchTerritoryAction struct{ base }

var sacrificeScorchTerritory = &sacrificeScorchTerritoryAction{base{id: "sacrifice_scorch_territory", group: GroupSacrifice, minPoints: 3}}

func (a *sacrificeScorchTerritoryAction) Precondition(e *Env, teamID string) (bool, string) {
	if ok, why := sacrificeGate(e, teamID); !ok {
		return ok, why
	}
	if len(e.State.TeamTerritoryIDs(teamID)) == 0 {
		return false, "no territory to scorch"
	}
	return true, ""
}

// Apply pays a point and sets a territory's triangle ablaze. Triangles are
// captured before the sacrifice so a territory lost to the cascade still
// leaves its ground to scorch.
func (a *sacrificeScorchTerritoryAction) Apply(e *Env, teamID string) Result {
	var tris [][3]geom.Point
	for _, tid := range e.State.TeamTerritoryIDs(teamID) {
		pts := positions(e.State, e.State.Territories[tid].Points[:])
		tris = append(tris, [3]geom.Point{pts[0], pts[1], pts[2]})
	}
	if len(tris) == 0 {
		return failed("territory vanished")
	}
	pid, _, done := e.sacrifice(teamID)
	if !done {
		return failed("nothing to sacrifice")
	}
	tri := tris[e.Rand.IntN(len(tris))]
	id := e.State.AddScorchedZone(teamID, tri, e.Rules.ScorchedTurns)
	return withSacrifice(success(OutcomeFieldCreated, Field{EffectID: id, Kind: "scorched zone"}), pid)
}

type sacrificeChainLightningAction struct{ base }

var sacrificeChainLightning = &sacrificeChainLightningAction{base{id: "sacrifice_chain_lightning", group: GroupSacrifice, minPoints: 3}}

// conductors are sacrificeable points with a vulnerable enemy in reach.
func (a *sacrificeChainLightningAction) conductors(e *Env, teamID string) []string {
	vulnerable := query.VulnerableEnemyPoints(e.State, teamID)
	if len(vulnerable) == 0 {
		return nil
	}
	r2 := e.Rules.ChainLightningRange * e.Rules.ChainLightningRange
	var out []string
	for _, pid := range query.SacrificeCandidates(e.State, teamID) {
		p, _ := e.State.Pos(pid)
		for _, v := range vulnerable {
			if q, _ := e.State.Pos(v); geom.DistanceSquared(p, q) <= r2 {
				out = append(out, pid)
				break
			}
		}
	}
	return out
}

func (a *sacrificeChainLightningAction) Precondition(e *Env, teamID string) (bool, string) {
	if ok, why := sacrificeGate(e, teamID); !ok {
		return ok, why
	}
	if len(a.conductors(e, teamID)) == 0 {
		return false, "no enemy within arc range"
	}
	return true, ""
}

// Apply arcs from the sacrificed point to the nearest vulnerable enemy and
// onward, hop by hop.
func (a *sacrificeChainLightningAction) Apply(e *Env, teamID string) Result {
	cands := a.conductors(e, teamID)
	if len(cands) == 0 {
		return failed("no conductor")
	}
	pid := query.PickString(cands, e.Rand)
	at := e.sacrificePoint(pid)
	hops := int(math.Max(1, float64(e.Rules.ChainLightningHops)))
	var d Damaged
	for i := 0; i < hops; i++ {
		var reach []string
		for _, v := range query.VulnerableEnemyPoints(e.State, teamID) {
			if q, _ := e.State.Pos(v); geom.DistanceSquared(at, q) <= e.Rules.ChainLightningRange*e.Rules.ChainLightningRange {
				reach = append(reach, v)
			}
		}
		next, found := query.Nearest(e.State, at, reach)
		if !found {
			break
		}
		at, _ = e.State.Pos(next)
		destroyPoints(e.State, []string{next}, &d)
	}
	if !d.empty() {
		return withSacrifice(damageResult(d), pid)
	}
	return withSacrifice(e.consolation(teamID, &at), pid)
}
