package actions

import (
	"runegrid.ai/internal/sim/formation"
	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/query"
)

type terraformCreateFissureAction struct{ base }

var terraformCreateFissure = &terraformCreateFissureAction{base{id: "terraform_create_fissure", group: GroupTerraform, minPoints: 1}}

func (a *terraformCreateFissureAction) Precondition(e *Env, teamID string) (bool, string) {
	if ok, why := a.gate(e, teamID); !ok {
		return ok, why
	}
	if !hasEnemyPoints(e.State, teamID) {
		return false, "no enemy to wall off"
	}
	if !e.canConsole(teamID) {
		return false, "no fallback"
	}
	return true, ""
}

// Apply opens a fissure across the axis between the team and its nearest
// enemy, placed so it touches no point.
func (a *terraformCreateFissureAction) Apply(e *Env, teamID string) Result {
	home, _ := query.TeamCentroid(e.State, teamID)
	enemy, found := query.Nearest(e.State, home, e.State.EnemyPointIDs(teamID))
	if found {
		ep, _ := e.State.Pos(enemy)
		axis := ep.Sub(home)
		normal := axis.Perp().Norm()
		if normal.Len() < geom.Eps {
			normal = geom.Point{X: 1}
		}
		for try := 0; try < 8; try++ {
			t := 0.35 + e.Rand.Float64()*0.3
			c := home.Add(axis.Scale(t))
			half := 2 + e.Rand.Float64()
			ax, ay := geom.Clamp(c.Add(normal.Scale(half)), e.State.GridSize)
			bx, by := geom.Clamp(c.Sub(normal.Scale(half)), e.State.GridSize)
			seg := geom.Segment{A: geom.Pt(ax, ay), B: geom.Pt(bx, by)}
			if seg.LengthSquared() < 1 || e.touchesPoint(seg) {
				continue
			}
			id := e.State.AddFissure(seg, e.Rules.FissureTurns)
			return success(OutcomeFieldCreated, Field{EffectID: id, Kind: "fissure"})
		}
	}
	return e.consolation(teamID, nil)
}

func (e *Env) touchesPoint(seg geom.Segment) bool {
	for _, id := range e.State.PointIDs() {
		if geom.DistancePointSegmentSquared(e.State.Points[id].Pos(), seg.A, seg.B) < 0.5 {
			return true
		}
	}
	return false
}

type terraformRaiseBarricadeAction struct{ base }

var terraformRaiseBarricade = &terraformRaiseBarricadeAction{base{id: "terraform_raise_barricade", group: GroupTerraform, minPoints: 4}}

// runes returns barricade runes that have not already raised a barricade
// through their own middle.
func (a *terraformRaiseBarricadeAction) runes(e *Env, teamID string) []formation.Match {
	var out []formation.Match
	for _, m := range query.DetectRunes(e.State, teamID).Barricade {
		c := e.centroidOf(m.Points)
		raised := false
		for _, id := range e.State.BarricadeIDs() {
			b := e.State.Barricades[id]
			if b.TeamID == teamID && geom.DistanceSquared(b.Seg.Midpoint(), c) < 1 {
				raised = true
				break
			}
		}
		if !raised {
			out = append(out, m)
		}
	}
	return out
}

func (a *terraformRaiseBarricadeAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(a.runes(e, teamID)) == 0 {
		return false, "no barricade rune"
	}
	return true, ""
}

// Apply raises a wall along the rune's long midline, stretched to twice
// its length.
func (a *terraformRaiseBarricadeAction) Apply(e *Env, teamID string) Result {
	ms := a.runes(e, teamID)
	if len(ms) == 0 {
		return failed("rune vanished")
	}
	m := ms[e.Rand.IntN(len(ms))]
	seg := barricadeLine(positions(e.State, m.Points))
	c := seg.Midpoint()
	ax, ay := geom.Clamp(c.Add(seg.A.Sub(c).Scale(2)), e.State.GridSize)
	bx, by := geom.Clamp(c.Add(seg.B.Sub(c).Scale(2)), e.State.GridSize)
	id := e.State.AddBarricade(teamID, geom.Segment{A: geom.Pt(ax, ay), B: geom.Pt(bx, by)}, e.Rules.BarricadeTurns)
	return success(OutcomeFieldCreated, Field{EffectID: id, Kind: "barricade"})
}

// barricadeLine joins the midpoints of a rectangle's two short sides.
// Corners arrive in perimeter order.
func barricadeLine(c []geom.Point) geom.Segment {
	s01 := geom.DistanceSquared(c[0], c[1])
	s12 := geom.DistanceSquared(c[1], c[2])
	if s01 <= s12 {
		return geom.Segment{A: c[0].Midpoint(c[1]), B: c[2].Midpoint(c[3])}
	}
	return geom.Segment{A: c[1].Midpoint(c[2]), B: c[3].Midpoint(c[0])}
}
