package actions

import (
	"runegrid.ai/internal/sim/formation"
	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/query"
	"runegrid.ai/internal/sim/state"
)

type fortifyClaimAction struct{ base }

var fortifyClaim = &fortifyClaimAction{base{id: "fortify_claim", group: GroupFortify, minPoints: 3}}

func (a *fortifyClaimAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(query.ClaimableTriangles(e.State, teamID)) == 0 {
		return false, "no unclaimed triangle"
	}
	return true, ""
}

func (a *fortifyClaimAction) Apply(e *Env, teamID string) Result {
	tris := query.ClaimableTriangles(e.State, teamID)
	if len(tris) == 0 {
		return failed("triangle vanished")
	}
	tri := tris[e.Rand.IntN(len(tris))]
	t, err := e.State.AddTerritory(teamID, tri[0], tri[1], tri[2])
	if err != nil {
		return failed(err.Error())
	}
	return success(OutcomeTerritoryClaimed, Claimed{TerritoryID: t.ID})
}

type fortifyAnchorAction struct{ base }

var fortifyAnchor = &fortifyAnchorAction{base{id: "fortify_anchor", group: GroupFortify, minPoints: 3}}

func (a *fortifyAnchorAction) Precondition(e *Env, teamID string) (bool, string) {
	if !query.CanSacrifice(e.State, teamID) {
		return false, "nothing to sacrifice"
	}
	if !e.canConsole(teamID) {
		return false, "no fallback"
	}
	return true, ""
}

// Apply sacrifices a point and anchors the best connected remaining one.
func (a *fortifyAnchorAction) Apply(e *Env, teamID string) Result {
	paid, at, done := e.sacrifice(teamID)
	if !done {
		return failed("nothing to sacrifice")
	}
	g := query.Graph(e.State, teamID)
	best := -1
	var targets []string
	for _, id := range g.Nodes() {
		if e.State.IsAnchored(id) {
			continue
		}
		switch d := g.Degree(id); {
		case d > best:
			best, targets = d, []string{id}
		case d == best:
			targets = append(targets, id)
		}
	}
	if len(targets) > 0 {
		pid := query.PickString(targets, e.Rand)
		anchor := &state.Anchor{ID: state.AnchorID(pid), TeamID: teamID, PointID: pid, TurnsLeft: e.Rules.AnchorTurns}
		if err := e.State.AddStructure(anchor); err == nil {
			return withSacrifice(success(OutcomeStructureFormed, Formed{StructureID: anchor.ID, Kind: anchor.Kind()}), paid)
		}
	}
	return withSacrifice(e.consolation(teamID, &at), paid)
}

type fortifyMirrorAction struct{ base }

var fortifyMirror = &fortifyMirrorAction{base{id: "fortify_mirror", group: GroupFortify, minPoints: 3}}

func (a *fortifyMirrorAction) Precondition(e *Env, teamID string) (bool, string) {
	if ok, why := a.gate(e, teamID); !ok {
		return ok, why
	}
	if len(e.State.TeamLineIDs(teamID)) == 0 {
		return false, "no mirror axis"
	}
	if !e.canConsole(teamID) {
		return false, "no fallback"
	}
	return true, ""
}

// Apply reflects up to three off-axis team points across a team line.
func (a *fortifyMirrorAction) Apply(e *Env, teamID string) Result {
	for _, lid := range e.shuffled(e.State.TeamLineIDs(teamID)) {
		l := e.State.Lines[lid]
		seg, _ := e.State.Segment(lid)
		var made []string
		for _, pid := range e.shuffled(e.State.TeamPointIDs(teamID)) {
			if len(made) == 3 {
				break
			}
			if l.Has(pid) {
				continue
			}
			p, _ := e.State.Pos(pid)
			m := geom.Reflect(p, seg.A, seg.B)
			if geom.DistanceSquared(p, m) < e.Rules.MirrorMinDistSq {
				continue
			}
			x, y := m.Round()
			if nid, placed := e.spawnAt(teamID, x, y); placed {
				made = append(made, nid)
			}
		}
		if len(made) > 0 {
			return success(OutcomePointsMirrored, Created{Points: made})
		}
	}
	return e.consolation(teamID, nil)
}

type fortifyShieldAction struct{ base }

var fortifyShield = &fortifyShieldAction{base{id: "fortify_shield", group: GroupFortify, minPoints: 2}}

func (a *fortifyShieldAction) Precondition(e *Env, teamID string) (bool, string) {
	lines := e.State.TeamLineIDs(teamID)
	if len(lines) == 0 {
		return false, "no line to shield"
	}
	for _, lid := range lines {
		if e.State.Shields[lid] < e.Rules.ShieldTurns {
			return true, ""
		}
	}
	if !e.canConsole(teamID) {
		return false, "every shield is fresh"
	}
	return true, ""
}

// Apply shields a bare line, else tops up the weakest shield.
func (a *fortifyShieldAction) Apply(e *Env, teamID string) Result {
	if bare := query.UnshieldedLines(e.State, teamID); len(bare) > 0 {
		lid := query.PickString(bare, e.Rand)
		e.State.Shields[lid] = e.Rules.ShieldTurns
		return success(OutcomeLineShielded, Shielded{Lines: []string{lid}, Turns: e.Rules.ShieldTurns})
	}
	weakest, low := "", e.Rules.ShieldTurns
	for _, lid := range e.State.TeamLineIDs(teamID) {
		if n := e.State.Shields[lid]; n < low {
			weakest, low = lid, n
		}
	}
	if weakest != "" {
		e.State.Shields[weakest] = e.Rules.ShieldTurns
		return asFallback(success(OutcomeShieldRefreshed, Shielded{Lines: []string{weakest}, Turns: e.Rules.ShieldTurns}))
	}
	return e.consolation(teamID, nil)
}

// formAction turns a detected, unclaimed formation into a stored structure.
type formAction struct {
	base
	pick  func(query.Runes) []formation.Match
	build func(e *Env, teamID string, m formation.Match) state.Structure
}

func (a *formAction) matches(e *Env, teamID string) []formation.Match {
	return query.FreeMatches(e.State, a.pick(query.DetectRunes(e.State, teamID)))
}

func (a *formAction) Precondition(e *Env, teamID string) (bool, string) {
	if ok, why := a.gate(e, teamID); !ok {
		return ok, why
	}
	if len(a.matches(e, teamID)) == 0 {
		return false, "no free formation"
	}
	return true, ""
}

func (a *formAction) Apply(e *Env, teamID string) Result {
	ms := a.matches(e, teamID)
	if len(ms) == 0 {
		return failed("formation vanished")
	}
	st := a.build(e, teamID, ms[e.Rand.IntN(len(ms))])
	if err := e.State.AddStructure(st); err != nil {
		return failed(err.Error())
	}
	return success(OutcomeStructureFormed, Formed{StructureID: st.StructureID(), Kind: st.Kind()})
}

func (e *Env) centroidOf(ids []string) geom.Point {
	return geom.Centroid(positions(e.State, ids))
}

var fortifyFormBastion = &formAction{
	base: base{id: "fortify_form_bastion", group: GroupFortify, minPoints: 4},
	pick: func(r query.Runes) []formation.Match { return r.Bastion },
	build: func(e *Env, teamID string, m formation.Match) state.Structure {
		return &state.Bastion{ID: e.State.NewStructureID(), TeamID: teamID, Core: m.Center, Prongs: append([]string(nil), m.Arms...)}
	},
}

var fortifyFormMonolith = &formAction{
	base: base{id: "fortify_form_monolith", group: GroupFortify, minPoints: 4},
	pick: func(r query.Runes) []formation.Match { return r.Monolith },
	build: func(e *Env, teamID string, m formation.Match) state.Structure {
		mono := &state.Monolith{ID: e.State.NewStructureID(), TeamID: teamID, Center: e.centroidOf(m.Points)}
		copy(mono.Points[:], m.Points)
		return mono
	},
}

var fortifyFormPurifier = &formAction{
	base: base{id: "fortify_form_purifier", group: GroupFortify, minPoints: 5},
	pick: func(r query.Runes) []formation.Match { return r.Pentagon },
	build: func(e *Env, teamID string, m formation.Match) state.Structure {
		p := &state.Purifier{ID: e.State.NewStructureID(), TeamID: teamID, Center: e.centroidOf(m.Points)}
		copy(p.Points[:], m.Points)
		return p
	},
}

type fortifyAttuneNexusAction struct{ base }

var fortifyAttuneNexus = &fortifyAttuneNexusAction{base{id: "fortify_attune_nexus", group: GroupFortify, minPoints: 4}}

func (a *fortifyAttuneNexusAction) matches(e *Env, teamID string) []formation.Match {
	return query.FreeMatches(e.State, query.DetectRunes(e.State, teamID).Nexus)
}

func (a *fortifyAttuneNexusAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(a.matches(e, teamID)) == 0 {
		return false, "no nexus"
	}
	return true, ""
}

// Apply burns the nexus diagonal to attune the square.
func (a *fortifyAttuneNexusAction) Apply(e *Env, teamID string) Result {
	ms := a.matches(e, teamID)
	if len(ms) == 0 {
		return failed("nexus vanished")
	}
	m := ms[e.Rand.IntN(len(ms))]
	if lid, found := e.State.LineBetween(m.Arms[0], m.Arms[1]); found {
		e.State.DeleteLine(lid)
	}
	n := &state.AttunedNexus{ID: e.State.NewStructureID(), TeamID: teamID, Center: e.centroidOf(m.Points)}
	copy(n.Points[:], m.Points)
	if err := e.State.AddStructure(n); err != nil {
		return failed(err.Error())
	}
	return success(OutcomeStructureFormed, Formed{StructureID: n.ID, Kind: n.Kind()})
}

type fortifyCultivateHeartwoodAction struct{ base }

var fortifyCultivateHeartwood = &fortifyCultivateHeartwoodAction{base{id: "fortify_cultivate_heartwood", group: GroupFortify, minPoints: 6}}

const heartwoodBranches = 5

// seeds maps candidate centers to the branches they would consume.
func (a *fortifyCultivateHeartwoodAction) seeds(e *Env, teamID string) map[string][]string {
	if _, exists := e.State.Structures[state.HeartwoodID(teamID)]; exists {
		return nil
	}
	critical := query.CriticalPoints(e.State)
	g := query.Graph(e.State, teamID)
	out := map[string][]string{}
	for _, c := range g.Nodes() {
		if critical[c] || g.Degree(c) < heartwoodBranches {
			continue
		}
		var branches []string
		for _, n := range g.Neighbors(c) {
			if !critical[n] && e.State.Stasis[n] == 0 {
				branches = append(branches, n)
			}
		}
		if len(branches) >= heartwoodBranches {
			out[c] = branches
		}
	}
	return out
}

func (a *fortifyCultivateHeartwoodAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(a.seeds(e, teamID)) == 0 {
		return false, "no heartwood seed"
	}
	return true, ""
}

// Apply sacrifices every free branch of a hub and roots a heartwood there.
func (a *fortifyCultivateHeartwoodAction) Apply(e *Env, teamID string) Result {
	seeds := a.seeds(e, teamID)
	var centers []string
	for c := range seeds {
		centers = append(centers, c)
	}
	if len(centers) == 0 {
		return failed("heartwood seed vanished")
	}
	centers = sortedStrings(centers)
	c := query.PickString(centers, e.Rand)
	branches := seeds[c]
	e.State.DeletePoints(branches)
	h := &state.Heartwood{ID: state.HeartwoodID(teamID), TeamID: teamID, Center: c}
	if err := e.State.AddStructure(h); err != nil {
		return withSacrifice(failed(err.Error()), branches...)
	}
	return withSacrifice(success(OutcomeStructureFormed, Formed{StructureID: h.ID, Kind: h.Kind()}), branches...)
}

type fortifyFormRiftSpireAction struct{ base }

var fortifyFormRiftSpire = &fortifyFormRiftSpireAction{base{id: "fortify_form_rift_spire", group: GroupFortify, minPoints: 4}}

func (a *fortifyFormRiftSpireAction) hubs(e *Env, teamID string) []string {
	critical := query.CriticalPoints(e.State)
	count := map[string]int{}
	for _, tid := range e.State.TeamTerritoryIDs(teamID) {
		for _, pid := range e.State.Territories[tid].Points {
			count[pid]++
		}
	}
	var out []string
	for _, pid := range e.State.TeamPointIDs(teamID) {
		if count[pid] >= 3 && !critical[pid] && e.State.Stasis[pid] == 0 {
			out = append(out, pid)
		}
	}
	return out
}

func (a *fortifyFormRiftSpireAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(a.hubs(e, teamID)) == 0 {
		return false, "no point shared by three territories"
	}
	return true, ""
}

// Apply collapses a point shared by three territories into a rift spire.
func (a *fortifyFormRiftSpireAction) Apply(e *Env, teamID string) Result {
	hubs := a.hubs(e, teamID)
	if len(hubs) == 0 {
		return failed("hub vanished")
	}
	pid := query.PickString(hubs, e.Rand)
	p := e.State.Points[pid]
	sp := &state.RiftSpire{ID: e.State.NewStructureID(), TeamID: teamID, X: p.X, Y: p.Y}
	e.State.DeletePoint(pid)
	if err := e.State.AddStructure(sp); err != nil {
		return withSacrifice(failed(err.Error()), pid)
	}
	return withSacrifice(success(OutcomeStructureFormed, Formed{StructureID: sp.ID, Kind: sp.Kind()}), pid)
}

type fortifyBuildWonderAction struct{ base }

var fortifyBuildWonder = &fortifyBuildWonderAction{base{id: "fortify_build_wonder", group: GroupFortify, minPoints: 6}}

func (a *fortifyBuildWonderAction) stars(e *Env, teamID string) []formation.Match {
	if len(e.State.StructuresOf(teamID, state.KindWonder)) > 0 {
		return nil
	}
	n := len(e.State.TeamPointIDs(teamID))
	var out []formation.Match
	for _, m := range query.FreeMatches(e.State, query.DetectRunes(e.State, teamID).Star) {
		// The team must outlive the star it spends.
		if n > len(m.Arms)+1 {
			out = append(out, m)
		}
	}
	return out
}

func (a *fortifyBuildWonderAction) Precondition(e *Env, teamID string) (bool, string) {
	if ok, why := a.gate(e, teamID); !ok {
		return ok, why
	}
	if len(a.stars(e, teamID)) == 0 {
		return false, "no star rune or wonder already standing"
	}
	return true, ""
}

// Apply consumes a whole star, hub included, and raises a wonder at its
// former centroid. An occupied centroid cell falls back to the hub's cell.
func (a *fortifyBuildWonderAction) Apply(e *Env, teamID string) Result {
	stars := a.stars(e, teamID)
	if len(stars) == 0 {
		return failed("star vanished")
	}
	m := stars[e.Rand.IntN(len(stars))]
	members := append([]string{m.Center}, m.Arms...)
	hub := e.State.Points[m.Center]
	hx, hy := hub.X, hub.Y
	x, y := e.centroidOf(members).Round()
	e.State.DeletePoints(members)
	if e.State.Occupied(x, y) {
		x, y = hx, hy
	}
	w := &state.Wonder{ID: e.State.NewStructureID(), TeamID: teamID, X: x, Y: y, TurnsLeft: e.Rules.WonderCountdown}
	if err := e.State.AddStructure(w); err != nil {
		return withSacrifice(failed(err.Error()), members...)
	}
	return withSacrifice(success(OutcomeStructureFormed, Formed{StructureID: w.ID, Kind: w.Kind()}), members...)
}

type fortifyRepositionAction struct{ base }

var fortifyReposition = &fortifyRepositionAction{base{id: "fortify_reposition_point", group: GroupFortify, minPoints: 2}}

func (a *fortifyRepositionAction) Precondition(e *Env, teamID string) (bool, string) {
	if ok, why := a.gate(e, teamID); !ok {
		return ok, why
	}
	if len(query.FreePoints(e.State, teamID)) == 0 {
		return false, "no free point"
	}
	if !e.canConsole(teamID) {
		return false, "no fallback"
	}
	return true, ""
}

// Apply draws a free point one or two cells closer to the team centroid.
func (a *fortifyRepositionAction) Apply(e *Env, teamID string) Result {
	center, _ := query.TeamCentroid(e.State, teamID)
	for _, pid := range e.shuffled(query.FreePoints(e.State, teamID)) {
		p, _ := e.State.Pos(pid)
		here := geom.DistanceSquared(p, center)
		var closer [][2]int
		for _, c := range query.FreeCellsNear(e.State, p, 2) {
			if geom.DistanceSquared(geom.Pt(c[0], c[1]), center) < here {
				closer = append(closer, c)
			}
		}
		if len(closer) == 0 {
			continue
		}
		c := closer[e.Rand.IntN(len(closer))]
		if e.State.MovePoint(pid, c[0], c[1]) {
			return success(OutcomePointMoved, Moved{Points: []string{pid}})
		}
	}
	return e.consolation(teamID, nil)
}
