package actions

import (
	"runegrid.ai/internal/sim/formation"
	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/query"
	"runegrid.ai/internal/sim/state"
)

func runeMatches(e *Env, teamID string, pick func(query.Runes) []formation.Match) []formation.Match {
	return pick(query.DetectRunes(e.State, teamID))
}

// spawnAtMiss plants a point where a beam left the board.
func (e *Env) spawnAtMiss(teamID string, ends []geom.Point) (Result, bool) {
	for _, end := range ends {
		x, y := end.Round()
		if pid, placed := e.spawnAt(teamID, x, y); placed {
			return asFallback(success(OutcomePointSpawned, Created{Points: []string{pid}})), true
		}
	}
	return Result{}, false
}

type runeShootBisectorAction struct{ base }

var runeShootBisector = &runeShootBisectorAction{base{id: "rune_shoot_bisector", group: GroupRune, minPoints: 3}}

func pickV(r query.Runes) []formation.Match { return r.V }

func (a *runeShootBisectorAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(runeMatches(e, teamID, pickV)) == 0 {
		return false, "no V rune"
	}
	if !hasEnemyLines(e.State, teamID) {
		return false, "no enemy line"
	}
	if !e.canConsole(teamID) {
		return false, "no fallback"
	}
	return true, ""
}

// Apply fires from a V's vertex along its bisector, piercing shields.
func (a *runeShootBisectorAction) Apply(e *Env, teamID string) Result {
	var misses []geom.Point
	for _, m := range shuffledMatches(e, runeMatches(e, teamID, pickV)) {
		v, _ := e.State.Pos(m.Center)
		pa, _ := e.State.Pos(m.Arms[0])
		pb, _ := e.State.Pos(m.Arms[1])
		end, inside := geom.RayToBorder(v, geom.Bisector(v, pa, pb), e.State.GridSize)
		if !inside {
			continue
		}
		if h, hit := query.FirstHit(e.State, teamID, v, end, true); hit {
			var d Damaged
			delete(e.State.Shields, h.LineID)
			hitLine(e.State, h.LineID, &d)
			return damageResult(d)
		}
		misses = append(misses, end)
	}
	if r, done := e.spawnAtMiss(teamID, misses); done {
		return r
	}
	return e.consolation(teamID, nil)
}

type runeImpaleAction struct{ base }

var runeImpale = &runeImpaleAction{base{id: "rune_impale", group: GroupRune, minPoints: 5}}

func pickTrident(r query.Runes) []formation.Match { return r.Trident }

func (a *runeImpaleAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(runeMatches(e, teamID, pickTrident)) == 0 {
		return false, "no trident rune"
	}
	if !hasEnemyLines(e.State, teamID) {
		return false, "no enemy line"
	}
	if !e.canConsole(teamID) {
		return false, "no fallback"
	}
	return true, ""
}

// Apply drives a lance out of the trident's middle prong, destroying every
// enemy line on its path regardless of shields or strength.
func (a *runeImpaleAction) Apply(e *Env, teamID string) Result {
	var misses []geom.Point
	for _, m := range shuffledMatches(e, runeMatches(e, teamID, pickTrident)) {
		c, _ := e.State.Pos(m.Center)
		mid, _ := e.State.Pos(m.Arms[1])
		end, inside := geom.RayToBorder(mid, mid.Sub(c), e.State.GridSize)
		if !inside {
			continue
		}
		var d Damaged
		for _, lid := range e.State.EnemyLineIDs(teamID) {
			seg, _ := e.State.Segment(lid)
			if geom.SegmentsIntersect(mid, end, seg.A, seg.B) {
				e.State.DeleteLine(lid)
				d.Destroyed = append(d.Destroyed, lid)
			}
		}
		if !d.empty() {
			return damageResult(d)
		}
		misses = append(misses, end)
	}
	if r, done := e.spawnAtMiss(teamID, misses); done {
		return r
	}
	return e.consolation(teamID, nil)
}

type runeHourglassStasisAction struct{ base }

var runeHourglassStasis = &runeHourglassStasisAction{base{id: "rune_hourglass_stasis", group: GroupRune, minPoints: 5}}

func pickHourglass(r query.Runes) []formation.Match { return r.Hourglass }

func (e *Env) unfrozenEnemies(teamID string) []string {
	var out []string
	for _, id := range e.State.EnemyPointIDs(teamID) {
		if e.State.Stasis[id] == 0 {
			out = append(out, id)
		}
	}
	return out
}

func (a *runeHourglassStasisAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(runeMatches(e, teamID, pickHourglass)) == 0 {
		return false, "no hourglass rune"
	}
	if len(e.unfrozenEnemies(teamID)) == 0 {
		return false, "no enemy to freeze"
	}
	return true, ""
}

// Apply freezes the enemy point nearest the hourglass center.
func (a *runeHourglassStasisAction) Apply(e *Env, teamID string) Result {
	ms := runeMatches(e, teamID, pickHourglass)
	if len(ms) == 0 {
		return failed("hourglass vanished")
	}
	c, _ := e.State.Pos(ms[e.Rand.IntN(len(ms))].Center)
	target, found := query.Nearest(e.State, c, e.unfrozenEnemies(teamID))
	if !found {
		return failed("no enemy to freeze")
	}
	e.State.Stasis[target] = e.Rules.StasisTurns
	return success(OutcomePointsFrozen, Frozen{Points: []string{target}, Turns: e.Rules.StasisTurns})
}

type runeStarlightCascadeAction struct{ base }

var runeStarlightCascade = &runeStarlightCascadeAction{base{id: "rune_starlight_cascade", group: GroupRune, minPoints: 6}}

func pickStar(r query.Runes) []formation.Match { return r.Star }

func (a *runeStarlightCascadeAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(runeMatches(e, teamID, pickStar)) == 0 {
		return false, "no star rune"
	}
	if !e.canConsole(teamID) {
		return false, "no fallback"
	}
	return true, ""
}

// Apply rains light across the star's reach: enemy lines near the hub are
// struck, else the star's own lines are reinforced.
func (a *runeStarlightCascadeAction) Apply(e *Env, teamID string) Result {
	ms := runeMatches(e, teamID, pickStar)
	if len(ms) == 0 {
		return failed("star vanished")
	}
	m := ms[e.Rand.IntN(len(ms))]
	hub, _ := e.State.Pos(m.Center)
	reach := 0.0
	for _, p := range positions(e.State, m.Arms) {
		if d := geom.DistanceSquared(hub, p); d > reach {
			reach = d
		}
	}
	var d Damaged
	for _, lid := range e.State.EnemyLineIDs(teamID) {
		seg, _ := e.State.Segment(lid)
		if geom.DistanceSquared(seg.Midpoint(), hub) <= reach {
			Strike(e.State, lid, &d)
		}
	}
	if !d.empty() {
		return damageResult(d)
	}
	var own []string
	for i, arm := range m.Arms {
		if lid, found := e.State.LineBetween(m.Center, arm); found {
			own = append(own, lid)
		}
		if lid, found := e.State.LineBetween(arm, m.Arms[(i+1)%len(m.Arms)]); found {
			own = append(own, lid)
		}
	}
	var raised []string
	for _, lid := range own {
		if e.State.Strengths[lid] < e.Rules.MaxLineStrength {
			e.State.Strengths[lid]++
			raised = append(raised, lid)
		}
	}
	if len(raised) > 0 {
		return asFallback(success(OutcomeLinesStrengthened, Strengthened{Lines: raised}))
	}
	return e.consolation(teamID, &hub)
}

type runeCardinalPulseAction struct{ base }

var runeCardinalPulse = &runeCardinalPulseAction{base{id: "rune_cardinal_pulse", group: GroupRune, minPoints: 5}}

func (a *runeCardinalPulseAction) plus(e *Env, teamID string) []formation.Match {
	return query.FreeMatches(e.State, query.DetectRunes(e.State, teamID).Plus)
}

func (a *runeCardinalPulseAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(a.plus(e, teamID)) == 0 {
		return false, "no plus rune"
	}
	if !e.canConsole(teamID) {
		return false, "no fallback"
	}
	return true, ""
}

// Apply spends the plus hub to fire four beams out of its arms.
func (a *runeCardinalPulseAction) Apply(e *Env, teamID string) Result {
	ms := a.plus(e, teamID)
	if len(ms) == 0 {
		return failed("plus rune vanished")
	}
	m := ms[e.Rand.IntN(len(ms))]
	hub, _ := e.State.Pos(m.Center)
	type beam struct{ from, end geom.Point }
	var beams []beam
	for _, arm := range m.Arms {
		p, _ := e.State.Pos(arm)
		if end, inside := geom.RayToBorder(p, p.Sub(hub), e.State.GridSize); inside {
			beams = append(beams, beam{p, end})
		}
	}
	hubID := m.Center
	e.State.DeletePoint(hubID)
	var d Damaged
	var misses []geom.Point
	for _, b := range beams {
		if h, hit := query.FirstHit(e.State, teamID, b.from, b.end, true); hit {
			delete(e.State.Shields, h.LineID)
			hitLine(e.State, h.LineID, &d)
			continue
		}
		misses = append(misses, b.end)
	}
	if !d.empty() {
		return withSacrifice(damageResult(d), hubID)
	}
	if r, done := e.spawnAtMiss(teamID, misses); done {
		return withSacrifice(r, hubID)
	}
	return withSacrifice(e.consolation(teamID, &hub), hubID)
}

type runeTHammerSlamAction struct{ base }

var runeTHammerSlam = &runeTHammerSlamAction{base{id: "rune_t_hammer_slam", group: GroupRune, minPoints: 4}}

func pickT(r query.Runes) []formation.Match { return r.T }

func (a *runeTHammerSlamAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(runeMatches(e, teamID, pickT)) == 0 {
		return false, "no T rune"
	}
	if !hasEnemyPoints(e.State, teamID) {
		return false, "no enemy"
	}
	if !e.canConsole(teamID) {
		return false, "no fallback"
	}
	return true, ""
}

// Apply slams the T's stem foot, hurling nearby enemies outward.
func (a *runeTHammerSlamAction) Apply(e *Env, teamID string) Result {
	for _, m := range shuffledMatches(e, runeMatches(e, teamID, pickT)) {
		foot, _ := e.State.Pos(m.Arms[2])
		if r, done := e.pushEnemies(teamID, foot, e.Rules.SlamRadius); done {
			return r
		}
	}
	return e.consolation(teamID, nil)
}

type runeSentryZapAction struct{ base }

var runeSentryZap = &runeSentryZapAction{base{id: "rune_sentry_zap", group: GroupRune, minPoints: 3}}

func pickI(r query.Runes) []formation.Match { return r.I }

func (a *runeSentryZapAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(runeMatches(e, teamID, pickI)) == 0 {
		return false, "no I rune"
	}
	if !hasEnemyPoints(e.State, teamID) {
		return false, "no enemy"
	}
	if !e.canConsole(teamID) {
		return false, "no fallback"
	}
	return true, ""
}

// Apply zaps the vulnerable enemy point closest to an I rune's span.
func (a *runeSentryZapAction) Apply(e *Env, teamID string) Result {
	r2 := e.Rules.ZapRadius * e.Rules.ZapRadius
	vulnerable := query.VulnerableEnemyPoints(e.State, teamID)
	for _, m := range shuffledMatches(e, runeMatches(e, teamID, pickI)) {
		a0, _ := e.State.Pos(m.Arms[0])
		a1, _ := e.State.Pos(m.Arms[1])
		best, bestD := "", r2
		for _, id := range vulnerable {
			p, _ := e.State.Pos(id)
			if d := geom.DistancePointSegmentSquared(p, a0, a1); d <= bestD && (best == "" || d < bestD) {
				best, bestD = id, d
			}
		}
		if best != "" {
			var d Damaged
			destroyPoints(e.State, []string{best}, &d)
			return damageResult(d)
		}
	}
	return e.consolation(teamID, nil)
}

type runeFormLeyLineAction struct{ base }

var runeFormLeyLine = &runeFormLeyLineAction{base{id: "rune_form_ley_line", group: GroupRune, minPoints: 3}}

func (a *runeFormLeyLineAction) free(e *Env, teamID string) []formation.Match {
	return query.FreeMatches(e.State, runeMatches(e, teamID, pickI))
}

func (a *runeFormLeyLineAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(a.free(e, teamID)) == 0 {
		return false, "no free I rune"
	}
	return true, ""
}

// Apply binds an I rune into a persistent ley line.
func (a *runeFormLeyLineAction) Apply(e *Env, teamID string) Result {
	ms := a.free(e, teamID)
	if len(ms) == 0 {
		return failed("I rune vanished")
	}
	m := ms[e.Rand.IntN(len(ms))]
	ll := &state.LeyLine{ID: e.State.NewStructureID(), TeamID: teamID, Points: append([]string(nil), m.Points...)}
	if err := e.State.AddStructure(ll); err != nil {
		return failed(err.Error())
	}
	return success(OutcomeStructureFormed, Formed{StructureID: ll.ID, Kind: ll.Kind()})
}

func shuffledMatches(e *Env, ms []formation.Match) []formation.Match {
	out := append([]formation.Match(nil), ms...)
	e.Rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
