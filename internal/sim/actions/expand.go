package actions

import (
	"math"

	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/query"
)

type expandAddAction struct{ base }

var expandAdd = &expandAddAction{base{id: "expand_add", group: GroupExpand, minPoints: 2}}

func (a *expandAddAction) Precondition(e *Env, teamID string) (bool, string) {
	if ok, why := a.gate(e, teamID); !ok {
		return ok, why
	}
	if !query.HasAddablePair(e.State, teamID) && !e.canConsole(teamID) {
		return false, "no pair to connect"
	}
	return true, ""
}

func (a *expandAddAction) Apply(e *Env, teamID string) Result {
	pairs := query.AddablePairs(e.State, teamID)
	if len(pairs) > 0 {
		pr := pairs[e.Rand.IntN(len(pairs))]
		if l, err := e.State.AddLine(pr[0], pr[1]); err == nil {
			return success(OutcomeLineCreated, Created{Lines: []string{l.ID}})
		}
	}
	return e.consolation(teamID, nil)
}

type expandExtendAction struct{ base }

var expandExtend = &expandExtendAction{base{id: "expand_extend", group: GroupExpand, minPoints: 2}}

func (a *expandExtendAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(e.State.TeamLineIDs(teamID)) == 0 {
		return false, "no line to extend"
	}
	if len(query.Extensions(e.State, teamID, e.Rules.MinSpacing)) == 0 && !e.canConsole(teamID) {
		return false, "no room to extend"
	}
	return true, ""
}

func (a *expandExtendAction) Apply(e *Env, teamID string) Result {
	exts := query.Extensions(e.State, teamID, e.Rules.MinSpacing)
	if len(exts) > 0 {
		x := exts[e.Rand.IntN(len(exts))]
		ex, ey := x.End.Round()
		if !query.Spaced(e.State, ex, ey, e.Rules.MinSpacing) {
			return e.consolation(teamID, nil)
		}
		if pid, placed := e.spawnAt(teamID, ex, ey); placed {
			c := Created{Points: []string{pid}}
			if l, err := e.State.AddLine(x.Tip, pid); err == nil {
				c.Lines = []string{l.ID}
			}
			return success(OutcomeLineExtended, c)
		}
	}
	return e.consolation(teamID, nil)
}

type expandGrowAction struct{ base }

var expandGrow = &expandGrowAction{base{id: "expand_grow", group: GroupExpand, minPoints: 2}}

func (a *expandGrowAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(e.State.TeamLineIDs(teamID)) == 0 {
		return false, "no line to grow from"
	}
	if !e.canConsole(teamID) {
		return false, "no room to grow"
	}
	return true, ""
}

// Apply rotates a line end by 30 to 60 degrees either way and grows a
// short branch there.
func (a *expandGrowAction) Apply(e *Env, teamID string) Result {
	obstacles := e.State.Obstacles(teamID)
	for _, lid := range e.shuffled(e.State.TeamLineIDs(teamID)) {
		l := e.State.Lines[lid]
		for _, dir := range [][2]string{{l.P1, l.P2}, {l.P2, l.P1}} {
			from, _ := e.State.Pos(dir[0])
			tip, _ := e.State.Pos(dir[1])
			heading := tip.Sub(from).Norm()
			angle := (math.Pi/6 + e.Rand.Float64()*math.Pi/6)
			if e.Rand.IntN(2) == 0 {
				angle = -angle
			}
			length := 2 + e.Rand.Float64()*2
			target := geom.Rotate(tip.Add(heading.Scale(length)), tip, angle)
			x, y := geom.Clamp(target, e.State.GridSize)
			if !e.State.CanSpawnAt(x, y) || geom.SegmentCrossesAny(tip, geom.Pt(x, y), obstacles) {
				continue
			}
			pid, placed := e.spawnAt(teamID, x, y)
			if !placed {
				continue
			}
			c := Created{Points: []string{pid}}
			if nl, err := e.State.AddLine(dir[1], pid); err == nil {
				c.Lines = []string{nl.ID}
			}
			return success(OutcomeBranchGrown, c)
		}
	}
	return e.consolation(teamID, nil)
}

type expandFractureAction struct{ base }

var expandFracture = &expandFractureAction{base{id: "expand_fracture", group: GroupExpand, minPoints: 2}}

func (a *expandFractureAction) Precondition(e *Env, teamID string) (bool, string) {
	if len(query.FracturableLines(e.State, teamID, e.Rules.FractureMinLengthSq)) == 0 {
		return false, "no line long enough to fracture"
	}
	return true, ""
}

// Apply splits a long line in two around a new middle point.
func (a *expandFractureAction) Apply(e *Env, teamID string) Result {
	lines := query.FracturableLines(e.State, teamID, e.Rules.FractureMinLengthSq)
	if len(lines) > 0 {
		lid := query.PickString(lines, e.Rand)
		l := *e.State.Lines[lid]
		seg, _ := e.State.Segment(lid)
		cells := query.FracturePoints(e.State, seg)
		if len(cells) > 0 {
			c := cells[e.Rand.IntN(len(cells))]
			if pid, placed := e.spawnAt(teamID, c[0], c[1]); placed {
				e.State.DeleteLine(lid)
				out := Created{Points: []string{pid}}
				for _, end := range []string{l.P1, l.P2} {
					if nl, err := e.State.AddLine(end, pid); err == nil {
						out.Lines = append(out.Lines, nl.ID)
					}
				}
				return success(OutcomeLineFractured, out)
			}
		}
	}
	return e.consolation(teamID, nil)
}

type expandSpawnAction struct{ base }

var expandSpawn = &expandSpawnAction{base{id: "expand_spawn", group: GroupExpand, minPoints: 1}}

func (a *expandSpawnAction) Precondition(e *Env, teamID string) (bool, string) {
	if ok, why := a.gate(e, teamID); !ok {
		return ok, why
	}
	if !e.hasFreeCell() {
		return false, "board is full"
	}
	return true, ""
}

func (a *expandSpawnAction) Apply(e *Env, teamID string) Result {
	if r, placed := e.spawnFriendly(teamID); placed {
		return r
	}
	return failed("no free cell")
}

type expandOrbitalAction struct{ base }

var expandOrbital = &expandOrbitalAction{base{id: "expand_orbital", group: GroupExpand, minPoints: 5}}

func (a *expandOrbitalAction) Precondition(e *Env, teamID string) (bool, string) {
	if ok, why := a.gate(e, teamID); !ok {
		return ok, why
	}
	if !e.canConsole(teamID) {
		return false, "no room for orbitals"
	}
	return true, ""
}

// Apply rings three to six points around a friendly point and ties each
// to it.
func (a *expandOrbitalAction) Apply(e *Env, teamID string) Result {
	count := 3 + e.Rand.IntN(4)
	if e.Rules.OrbitalCount >= 3 && e.Rules.OrbitalCount <= 6 {
		count = e.Rules.OrbitalCount
	}
	for _, cid := range e.shuffled(e.State.TeamPointIDs(teamID)) {
		center, _ := e.State.Pos(cid)
		phase := e.Rand.Float64() * 2 * math.Pi
		var cells [][2]int
		seen := map[[2]int]bool{}
		for i := 0; i < count; i++ {
			ang := phase + float64(i)*2*math.Pi/float64(count)
			p := center.Add(geom.Point{X: math.Cos(ang), Y: math.Sin(ang)}.Scale(e.Rules.OrbitalRadius))
			x, y := p.Round()
			c := [2]int{x, y}
			if seen[c] || !e.State.CanSpawnAt(x, y) {
				continue
			}
			seen[c] = true
			cells = append(cells, c)
		}
		if len(cells) < 3 {
			continue
		}
		out := Created{}
		for _, c := range cells {
			pid, placed := e.spawnAt(teamID, c[0], c[1])
			if !placed {
				continue
			}
			out.Points = append(out.Points, pid)
			if l, err := e.State.AddLine(cid, pid); err == nil {
				out.Lines = append(out.Lines, l.ID)
			}
		}
		return success(OutcomeOrbitalFormed, out)
	}
	return e.consolation(teamID, nil)
}
