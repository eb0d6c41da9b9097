package actions

import (
	"math"

	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/query"
	"runegrid.ai/internal/sim/state"
)

type fightAttackAction struct{ base }

var fightAttack = &fightAttackAction{base{id: "fight_attack", group: GroupFight, minPoints: 2}}

func (a *fightAttackAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(e.State.TeamLineIDs(teamID)) == 0 {
		return false, "no line to attack along"
	}
	if len(query.AttackableEnemyLines(e.State, teamID)) == 0 {
		return false, "no attackable enemy line"
	}
	if !e.canConsole(teamID) {
		return false, "no fallback"
	}
	return true, ""
}

// Apply casts every friendly line both ways and strikes the closest enemy
// line on the first ray that meets one. A full miss plants a point where
// the first ray leaves the board.
func (a *fightAttackAction) Apply(e *Env, teamID string) Result {
	rays := query.AttackRays(e.State, teamID)
	e.Rand.Shuffle(len(rays), func(i, j int) { rays[i], rays[j] = rays[j], rays[i] })
	for _, r := range rays {
		h, hit := query.FirstHit(e.State, teamID, r.Origin, r.End, false)
		if !hit {
			continue
		}
		var d Damaged
		hitLine(e.State, h.LineID, &d)
		return damageResult(d)
	}
	for _, r := range rays {
		x, y := r.End.Round()
		if pid, placed := e.spawnAt(teamID, x, y); placed {
			return asFallback(success(OutcomePointSpawned, Created{Points: []string{pid}}))
		}
	}
	return e.consolation(teamID, nil)
}

type fightConvertAction struct{ base }

var fightConvert = &fightConvertAction{base{id: "fight_convert", group: GroupFight, minPoints: 2}}

type convertTarget struct {
	lineID, pointID string
	mid             geom.Point
}

func (e *Env) convertTargets(teamID string) []convertTarget {
	vulnerable := query.VulnerableEnemyPoints(e.State, teamID)
	if len(vulnerable) == 0 {
		return nil
	}
	r2 := e.Rules.ConvertRange * e.Rules.ConvertRange
	var out []convertTarget
	for _, lid := range e.State.TeamLineIDs(teamID) {
		seg, _ := e.State.Segment(lid)
		mid := seg.Midpoint()
		var inRange []string
		for _, pid := range vulnerable {
			if p, _ := e.State.Pos(pid); geom.DistanceSquared(p, mid) <= r2 {
				inRange = append(inRange, pid)
			}
		}
		if target, found := query.Nearest(e.State, mid, inRange); found {
			out = append(out, convertTarget{lineID: lid, pointID: target, mid: mid})
		}
	}
	return out
}

func (a *fightConvertAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(e.convertTargets(teamID)) == 0 {
		return false, "no enemy point in conversion range"
	}
	return true, ""
}

// Apply spends a line to turn the nearest vulnerable enemy point.
func (a *fightConvertAction) Apply(e *Env, teamID string) Result {
	targets := e.convertTargets(teamID)
	if len(targets) == 0 {
		return failed("conversion target vanished")
	}
	t := targets[e.Rand.IntN(len(targets))]
	e.State.DeleteLine(t.lineID)
	if _, done := e.State.ConvertPoint(t.pointID, teamID); done {
		return success(OutcomePointConverted, Converted{Points: []string{t.pointID}})
	}
	if r, done := e.pushEnemies(teamID, t.mid, e.Rules.ConvertRange); done {
		return asFallback(r)
	}
	return e.consolation(teamID, &t.mid)
}

type fightPincerAction struct{ base }

var fightPincer = &fightPincerAction{base{id: "fight_pincer_attack", group: GroupFight, minPoints: 2}}

// pincers returns vulnerable enemy points flanked by two friendly points:
// close to the pair's midpoint with the pair at least 120 degrees apart
// as seen from the target.
func (e *Env) pincers(teamID string) []string {
	own := e.State.TeamPointIDs(teamID)
	r2 := e.Rules.PincerRange * e.Rules.PincerRange
	var out []string
	for _, tid := range query.VulnerableEnemyPoints(e.State, teamID) {
		tp, _ := e.State.Pos(tid)
	pairs:
		for i := 0; i < len(own); i++ {
			for j := i + 1; j < len(own); j++ {
				a, _ := e.State.Pos(own[i])
				b, _ := e.State.Pos(own[j])
				if geom.DistanceSquared(tp, a.Midpoint(b)) > r2 {
					continue
				}
				if geom.AngleAt(tp, a, b) >= 2*math.Pi/3 {
					out = append(out, tid)
					break pairs
				}
			}
		}
	}
	return out
}

func (a *fightPincerAction) Precondition(e *Env, teamID string) (bool, string) {
	if ok, why := a.gate(e, teamID); !ok {
		return ok, why
	}
	if len(e.pincers(teamID)) == 0 {
		return false, "no flanked enemy point"
	}
	return true, ""
}

func (a *fightPincerAction) Apply(e *Env, teamID string) Result {
	targets := e.pincers(teamID)
	if len(targets) == 0 {
		return failed("pincer target vanished")
	}
	var d Damaged
	destroyPoints(e.State, []string{query.PickString(targets, e.Rand)}, &d)
	return damageResult(d)
}

type fightTerritoryStrikeAction struct{ base }

var fightTerritoryStrike = &fightTerritoryStrikeAction{base{id: "fight_territory_strike", group: GroupFight, minPoints: 3}}

func (a *fightTerritoryStrikeAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(e.State.TeamTerritoryIDs(teamID)) == 0 {
		return false, "no territory"
	}
	if len(query.VulnerableEnemyPoints(e.State, teamID)) == 0 {
		return false, "no vulnerable enemy point"
	}
	if !e.canConsole(teamID) {
		return false, "no fallback"
	}
	return true, ""
}

func (e *Env) territoryCentroid(tid string) geom.Point {
	t := e.State.Territories[tid]
	return geom.Centroid(positions(e.State, t.Points[:]))
}

// Apply strikes the vulnerable enemy point nearest a territory centroid,
// else reinforces that territory's edges.
func (a *fightTerritoryStrikeAction) Apply(e *Env, teamID string) Result {
	vulnerable := query.VulnerableEnemyPoints(e.State, teamID)
	terrs := e.shuffled(e.State.TeamTerritoryIDs(teamID))
	r2 := e.Rules.StrikeRange * e.Rules.StrikeRange
	for _, tid := range terrs {
		c := e.territoryCentroid(tid)
		target, found := query.Nearest(e.State, c, vulnerable)
		if !found {
			break
		}
		if p, _ := e.State.Pos(target); geom.DistanceSquared(p, c) > r2 {
			continue
		}
		var d Damaged
		destroyPoints(e.State, []string{target}, &d)
		return damageResult(d)
	}
	for _, tid := range terrs {
		t := e.State.Territories[tid]
		var edges []string
		for i := 0; i < 3; i++ {
			if lid, found := e.State.LineBetween(t.Points[i], t.Points[(i+1)%3]); found {
				edges = append(edges, lid)
			}
		}
		if r, done := e.strengthen(edges); done {
			return asFallback(r)
		}
	}
	return e.consolation(teamID, nil)
}

type fightIsolateAction struct{ base }

var fightIsolate = &fightIsolateAction{base{id: "fight_isolate_point", group: GroupFight, minPoints: 1}}

func (e *Env) severable(pid string, bastion map[string]bool) []string {
	var out []string
	for _, lid := range e.State.LinesOf(pid) {
		if e.State.Shields[lid] == 0 && !bastion[lid] {
			out = append(out, lid)
		}
	}
	return out
}

// isolationTargets picks the enemy points with the most severable lines,
// preferring articulation points of their own team's graph.
func (e *Env) isolationTargets(teamID string) []string {
	bastion := query.BastionLines(e.State)
	pick := func(ids []string) []string {
		best := 0
		var out []string
		for _, id := range ids {
			n := len(e.severable(id, bastion))
			switch {
			case n == 0:
			case n > best:
				best, out = n, []string{id}
			case n == best:
				out = append(out, id)
			}
		}
		return out
	}
	var cuts []string
	for _, other := range e.State.TeamOrder {
		if other == teamID {
			continue
		}
		cut := query.ArticulationPoints(query.Graph(e.State, other))
		for _, id := range e.State.TeamPointIDs(other) {
			if cut[id] {
				cuts = append(cuts, id)
			}
		}
	}
	if out := pick(cuts); len(out) > 0 {
		return out
	}
	return pick(e.State.EnemyPointIDs(teamID))
}

func (a *fightIsolateAction) Precondition(e *Env, teamID string) (bool, string) {
	if ok, why := a.gate(e, teamID); !ok {
		return ok, why
	}
	if len(e.isolationTargets(teamID)) == 0 {
		return false, "no enemy point with severable lines"
	}
	return true, ""
}

func (a *fightIsolateAction) Apply(e *Env, teamID string) Result {
	targets := e.isolationTargets(teamID)
	if len(targets) > 0 {
		target := query.PickString(targets, e.Rand)
		lines := e.severable(target, query.BastionLines(e.State))
		for _, lid := range lines {
			e.State.DeleteLine(lid)
		}
		return success(OutcomeLinesSevered, Damaged{Destroyed: lines})
	}
	return e.consolation(teamID, nil)
}

type fightHullBreachAction struct{ base }

var fightHullBreach = &fightHullBreachAction{base{id: "fight_hull_breach", group: GroupFight, minPoints: 3}}

func (a *fightHullBreachAction) Precondition(e *Env, teamID string) (bool, string) {
	if ok, why := a.gate(e, teamID); !ok {
		return ok, why
	}
	if len(query.EnemyPointsInHull(e.State, teamID)) == 0 {
		return false, "no enemy inside the hull"
	}
	if !e.canConsole(teamID) {
		return false, "no fallback"
	}
	return true, ""
}

// Apply converts a vulnerable intruder, else destroys an intruder that is
// not held by a critical structure or stasis, else closes the hull.
func (a *fightHullBreachAction) Apply(e *Env, teamID string) Result {
	inside := query.EnemyPointsInHull(e.State, teamID)
	immune := query.ImmunePoints(e.State)
	critical := query.CriticalPoints(e.State)
	var convertible, breakable []string
	for _, id := range inside {
		switch {
		case !immune[id]:
			convertible = append(convertible, id)
		case !critical[id] && e.State.Stasis[id] == 0:
			breakable = append(breakable, id)
		}
	}
	if len(convertible) > 0 {
		id := query.PickString(convertible, e.Rand)
		if _, done := e.State.ConvertPoint(id, teamID); done {
			return success(OutcomePointConverted, Converted{Points: []string{id}})
		}
	}
	if len(breakable) > 0 {
		var d Damaged
		destroyPoints(e.State, []string{query.PickString(breakable, e.Rand)}, &d)
		return damageResult(d)
	}
	hull := query.Hull(e.State, teamID)
	for i := range hull {
		ax, ay := hull[i].Round()
		bx, by := hull[(i+1)%len(hull)].Round()
		pa, _ := e.State.PointAt(ax, ay)
		pb, _ := e.State.PointAt(bx, by)
		if pa == "" || pb == "" {
			continue
		}
		if _, exists := e.State.LineBetween(pa, pb); exists {
			continue
		}
		if l, err := e.State.AddLine(pa, pb); err == nil {
			return asFallback(success(OutcomeLineCreated, Created{Lines: []string{l.ID}}))
		}
	}
	return e.consolation(teamID, nil)
}

type fightBastionPulseAction struct{ base }

var fightBastionPulse = &fightBastionPulseAction{base{id: "fight_bastion_pulse", group: GroupFight, minPoints: 4}}

func (a *fightBastionPulseAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(e.State.StructuresOf(teamID, state.KindBastion)) == 0 {
		return false, "no bastion"
	}
	if !hasEnemyLines(e.State, teamID) && !hasEnemyPoints(e.State, teamID) {
		return false, "no enemy"
	}
	if !e.canConsole(teamID) {
		return false, "no fallback"
	}
	return true, ""
}

// Apply sacrifices a prong and destroys enemy lines that cross the
// bastion's perimeter; with nothing to cut it pushes enemies off the core.
func (a *fightBastionPulseAction) Apply(e *Env, teamID string) Result {
	bs := e.State.StructuresOf(teamID, state.KindBastion)
	b := bs[e.Rand.IntN(len(bs))].(*state.Bastion)
	core, _ := e.State.Pos(b.Core)
	perimeter := geom.ConvexHull(positions(e.State, b.PointIDs()))
	prong := query.PickString(b.Prongs, e.Rand)
	e.sacrificePoint(prong)

	edges := geom.PolygonEdges(perimeter)
	var d Damaged
	for _, lid := range e.State.EnemyLineIDs(teamID) {
		if e.State.Shields[lid] > 0 {
			continue
		}
		seg, _ := e.State.Segment(lid)
		if geom.SegmentCrossesAny(seg.A, seg.B, edges) {
			e.State.DeleteLine(lid)
			d.Destroyed = append(d.Destroyed, lid)
		}
	}
	if !d.empty() {
		return withSacrifice(damageResult(d), prong)
	}
	if r, done := e.pushEnemies(teamID, core, e.Rules.PulseRadius); done {
		return withSacrifice(asFallback(r), prong)
	}
	return withSacrifice(e.consolation(teamID, &core), prong)
}

type fightLaunchPayloadAction struct{ base }

var fightLaunchPayload = &fightLaunchPayloadAction{base{id: "fight_launch_payload", group: GroupFight, minPoints: 4}}

func (a *fightLaunchPayloadAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(query.DetectRunes(e.State, teamID).Trebuchet) == 0 {
		return false, "no trebuchet"
	}
	if !hasEnemyPoints(e.State, teamID) {
		return false, "no enemy point"
	}
	return true, ""
}

// Apply lobs a payload at a critical enemy point, else any vulnerable one,
// else scorches the ground around the nearest enemy.
func (a *fightLaunchPayloadAction) Apply(e *Env, teamID string) Result {
	trebs := query.DetectRunes(e.State, teamID).Trebuchet
	if len(trebs) == 0 {
		return failed("trebuchet vanished")
	}
	tip, _ := e.State.Pos(trebs[e.Rand.IntN(len(trebs))].Center)
	critical := query.CriticalPoints(e.State)
	var tier1 []string
	for _, id := range e.State.EnemyPointIDs(teamID) {
		if critical[id] && e.State.Stasis[id] == 0 {
			tier1 = append(tier1, id)
		}
	}
	for _, tier := range [][]string{tier1, query.VulnerableEnemyPoints(e.State, teamID)} {
		if len(tier) == 0 {
			continue
		}
		var d Damaged
		destroyPoints(e.State, []string{query.PickString(tier, e.Rand)}, &d)
		return damageResult(d)
	}
	target, found := query.Nearest(e.State, tip, e.State.EnemyPointIDs(teamID))
	if !found {
		return e.consolation(teamID, nil)
	}
	c, _ := e.State.Pos(target)
	tri := [3]geom.Point{
		{X: c.X, Y: c.Y - 2},
		{X: c.X - 2, Y: c.Y + 1.5},
		{X: c.X + 2, Y: c.Y + 1.5},
	}
	id := e.State.AddScorchedZone(teamID, tri, e.Rules.ScorchedTurns)
	return asFallback(success(OutcomeFieldCreated, Field{EffectID: id, Kind: "scorched zone"}))
}

type fightPurifyTerritoryAction struct{ base }

var fightPurifyTerritory = &fightPurifyTerritoryAction{base{id: "fight_purify_territory", group: GroupFight, minPoints: 5}}

func (a *fightPurifyTerritoryAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(e.State.StructuresOf(teamID, state.KindPurifier)) == 0 {
		return false, "no purifier"
	}
	if len(e.enemyTerritories(teamID)) == 0 {
		return false, "no enemy territory"
	}
	return true, ""
}

func (e *Env) enemyTerritories(teamID string) []string {
	var out []string
	for _, tid := range e.State.TerritoryIDs() {
		if e.State.Territories[tid].TeamID != teamID {
			out = append(out, tid)
		}
	}
	return out
}

func (a *fightPurifyTerritoryAction) Apply(e *Env, teamID string) Result {
	ps := e.State.StructuresOf(teamID, state.KindPurifier)
	p := ps[e.Rand.IntN(len(ps))].(*state.Purifier)
	best, bestD := "", 0.0
	for _, tid := range e.enemyTerritories(teamID) {
		d := geom.DistanceSquared(e.territoryCentroid(tid), p.Center)
		if best == "" || d < bestD {
			best, bestD = tid, d
		}
	}
	if best != "" {
		owner := e.State.Territories[best].TeamID
		delete(e.State.Territories, best)
		return success(OutcomeTerritoryPurified, Purified{TerritoryID: best, TeamID: owner})
	}
	if r, done := e.pushEnemies(teamID, p.Center, e.Rules.PulseRadius); done {
		return asFallback(r)
	}
	return e.consolation(teamID, &p.Center)
}

type fightRefractionBeamAction struct{ base }

var fightRefractionBeam = &fightRefractionBeamAction{base{id: "fight_refraction_beam", group: GroupFight, minPoints: 4}}

func (a *fightRefractionBeamAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(query.DetectRunes(e.State, teamID).Prism) == 0 {
		return false, "no prism"
	}
	if !hasEnemyLines(e.State, teamID) {
		return false, "no enemy line"
	}
	if !e.canConsole(teamID) {
		return false, "no fallback"
	}
	return true, ""
}

// Apply fires a beam each way perpendicular to the prism's shared edge.
func (a *fightRefractionBeamAction) Apply(e *Env, teamID string) Result {
	prisms := query.DetectRunes(e.State, teamID).Prism
	m := prisms[e.Rand.IntN(len(prisms))]
	a0, _ := e.State.Pos(m.Arms[0])
	a1, _ := e.State.Pos(m.Arms[1])
	mid := a0.Midpoint(a1)
	normal := a1.Sub(a0).Perp().Norm()
	var d Damaged
	var misses []geom.Point
	for _, dir := range []geom.Point{normal, normal.Scale(-1)} {
		end, inside := geom.RayToBorder(mid, dir, e.State.GridSize)
		if !inside {
			continue
		}
		if h, hit := query.FirstHit(e.State, teamID, mid, end, false); hit {
			hitLine(e.State, h.LineID, &d)
			continue
		}
		misses = append(misses, end)
	}
	if !d.empty() {
		return damageResult(d)
	}
	for _, end := range misses {
		x, y := end.Round()
		if pid, placed := e.spawnAt(teamID, x, y); placed {
			return asFallback(success(OutcomePointSpawned, Created{Points: []string{pid}}))
		}
	}
	return e.consolation(teamID, &mid)
}

type fightRiftSpireStrikeAction struct{ base }

var fightRiftSpireStrike = &fightRiftSpireStrikeAction{base{id: "fight_rift_spire_strike", group: GroupFight, minPoints: 1}}

func (e *Env) chargedSpires(teamID string) []*state.RiftSpire {
	var out []*state.RiftSpire
	for _, st := range e.State.StructuresOf(teamID, state.KindRiftSpire) {
		if sp := st.(*state.RiftSpire); sp.Charge >= e.Rules.RiftSpireCharge {
			out = append(out, sp)
		}
	}
	return out
}

func (a *fightRiftSpireStrikeAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(e.chargedSpires(teamID)) == 0 {
		return false, "no charged rift spire"
	}
	if !hasEnemyPoints(e.State, teamID) {
		return false, "no enemy"
	}
	return true, ""
}

// Apply tears a fissure from the spire toward the enemy centroid, breaking
// every enemy line it crosses, and drains the spire.
func (a *fightRiftSpireStrikeAction) Apply(e *Env, teamID string) Result {
	spires := e.chargedSpires(teamID)
	if len(spires) == 0 {
		return failed("rift spire drained")
	}
	sp := spires[e.Rand.IntN(len(spires))]
	origin := geom.Pt(sp.X, sp.Y)
	var enemy []geom.Point
	for _, id := range e.State.EnemyPointIDs(teamID) {
		enemy = append(enemy, e.State.Points[id].Pos())
	}
	target := geom.Centroid(enemy)
	dir := target.Sub(origin)
	if dir.Len() < geom.Eps {
		dir = geom.Point{X: 1}
	}
	end, inside := geom.RayToBorder(origin, dir, e.State.GridSize)
	if !inside {
		tx, ty := geom.Clamp(target, e.State.GridSize)
		end = geom.Pt(tx, ty)
	}
	sp.Charge = 0
	seg := geom.Segment{A: origin, B: end}
	fid := e.State.AddFissure(seg, e.Rules.FissureTurns)
	var d Damaged
	for _, lid := range e.State.EnemyLineIDs(teamID) {
		ls, _ := e.State.Segment(lid)
		if geom.SegmentsIntersect(seg.A, seg.B, ls.A, ls.B) {
			Strike(e.State, lid, &d)
		}
	}
	if !d.empty() {
		return damageResult(d)
	}
	return success(OutcomeFieldCreated, Field{EffectID: fid, Kind: "fissure"})
}
