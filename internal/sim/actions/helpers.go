package actions

import (
	"math"
	"sort"

	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/query"
	"runegrid.ai/internal/sim/state"
)

// strengthen raises one eligible line from candidates by a single step.
func (e *Env) strengthen(candidates []string) (Result, bool) {
	var open []string
	for _, lid := range candidates {
		if _, live := e.State.Lines[lid]; live && e.State.Strengths[lid] < e.Rules.MaxLineStrength {
			open = append(open, lid)
		}
	}
	if len(open) == 0 {
		return Result{}, false
	}
	lid := query.PickString(open, e.Rand)
	e.State.Strengths[lid]++
	return success(OutcomeLineStrengthened, Strengthened{Lines: []string{lid}, Strength: e.State.Strengths[lid]}), true
}

// spawnAt places a team point on a free cell.
func (e *Env) spawnAt(teamID string, x, y int) (string, bool) {
	if !e.State.CanSpawnAt(x, y) {
		return "", false
	}
	p, err := e.State.AddPoint(teamID, x, y)
	if err != nil {
		return "", false
	}
	return p.ID, true
}

func (e *Env) spawnCells(teamID string, cells [][2]int) (Result, bool) {
	if len(cells) == 0 {
		return Result{}, false
	}
	c := cells[e.Rand.IntN(len(cells))]
	id, placed := e.spawnAt(teamID, c[0], c[1])
	if !placed {
		return Result{}, false
	}
	return success(OutcomePointSpawned, Created{Points: []string{id}}), true
}

func (e *Env) spawnNear(teamID string, c geom.Point, radius float64) (Result, bool) {
	return e.spawnCells(teamID, query.FreeCellsNear(e.State, c, radius))
}

func (e *Env) spawnBorder(teamID string) (Result, bool) {
	return e.spawnCells(teamID, query.BorderCells(e.State))
}

func (e *Env) spawnAnywhere(teamID string) (Result, bool) {
	var cells [][2]int
	for y := 0; y < e.State.GridSize; y++ {
		for x := 0; x < e.State.GridSize; x++ {
			if e.State.CanSpawnAt(x, y) {
				cells = append(cells, [2]int{x, y})
			}
		}
	}
	return e.spawnCells(teamID, cells)
}

// spawnFriendly places a point near a random team point, then on the
// border, then anywhere.
func (e *Env) spawnFriendly(teamID string) (Result, bool) {
	if pts := e.State.TeamPointIDs(teamID); len(pts) > 0 {
		p := e.State.Points[query.PickString(pts, e.Rand)]
		if r, placed := e.spawnNear(teamID, p.Pos(), e.Rules.SpawnRadius); placed {
			return r, true
		}
	}
	if r, placed := e.spawnBorder(teamID); placed {
		return r, true
	}
	return e.spawnAnywhere(teamID)
}

// canConsole reports whether the generic fallback chain can act.
func (e *Env) canConsole(teamID string) bool {
	return len(query.StrengthenableLines(e.State, teamID, e.Rules.MaxLineStrength)) > 0 || e.hasFreeCell()
}

// consolation is the shared last-resort chain: reinforce a line, else
// place a point near near (when given), else near the team, the border or
// anywhere.
func (e *Env) consolation(teamID string, near *geom.Point) Result {
	if r, done := e.strengthen(e.State.TeamLineIDs(teamID)); done {
		return asFallback(r)
	}
	if near != nil {
		if r, done := e.spawnNear(teamID, *near, e.Rules.SpawnRadius); done {
			return asFallback(r)
		}
	}
	if r, done := e.spawnFriendly(teamID); done {
		return asFallback(r)
	}
	return failed("no fallback available")
}

// hitLine applies one standard hit: strength absorbs it first.
func hitLine(s *state.State, lid string, d *Damaged) {
	if s.Strengths[lid] > 0 {
		s.Strengths[lid]--
		if s.Strengths[lid] == 0 {
			delete(s.Strengths, lid)
		}
		d.Weakened = append(d.Weakened, lid)
		return
	}
	s.DeleteLine(lid)
	d.Destroyed = append(d.Destroyed, lid)
}

// Strike hits a line that may carry a shield; the shield is consumed in
// place of the hit.
func Strike(s *state.State, lid string, d *Damaged) {
	if _, live := s.Lines[lid]; !live {
		return
	}
	if s.Shields[lid] > 0 {
		delete(s.Shields, lid)
		d.Weakened = append(d.Weakened, lid)
		return
	}
	hitLine(s, lid, d)
}

// destroyPoints removes enemy points and records them.
func destroyPoints(s *state.State, ids []string, d *Damaged) {
	for _, id := range ids {
		if _, done := s.DeletePoint(id); done {
			d.Points = append(d.Points, id)
		}
	}
}

func (d Damaged) empty() bool {
	return len(d.Destroyed)+len(d.Weakened)+len(d.Points) == 0
}

func damageResult(d Damaged) Result {
	if len(d.Destroyed)+len(d.Points) > 0 {
		return success(OutcomeEnemyDestroyed, d)
	}
	return success(OutcomeEnemyDamaged, d)
}

// Push moves each listed point inside radius of center by step along the
// center-to-point direction (away) or against it. Pulls never overshoot
// the center. Frozen points and moves onto occupied cells are skipped.
func Push(s *state.State, center geom.Point, radius, step float64, ids []string, away bool) []string {
	r2 := radius * radius
	var moved []string
	for _, id := range ids {
		p, live := s.Points[id]
		if !live {
			continue
		}
		pos := p.Pos()
		d2 := geom.DistanceSquared(pos, center)
		if d2 > r2 || d2 < geom.Eps {
			continue
		}
		dir := pos.Sub(center).Norm()
		dist := step
		if !away {
			dir = dir.Scale(-1)
			dist = math.Min(step, math.Sqrt(d2)-1)
			if dist < 0.5 {
				continue
			}
		}
		x, y := geom.Clamp(pos.Add(dir.Scale(dist)), s.GridSize)
		if s.MovePoint(id, x, y) {
			moved = append(moved, id)
		}
	}
	return moved
}

// pushEnemies pushes other teams' points away from center.
func (e *Env) pushEnemies(teamID string, center geom.Point, radius float64) (Result, bool) {
	moved := Push(e.State, center, radius, e.Rules.PushDistance, e.State.EnemyPointIDs(teamID), true)
	if len(moved) == 0 {
		return Result{}, false
	}
	return success(OutcomePointsPushed, Moved{Points: moved}), true
}

// sacrifice pays a point from the team and returns its former position.
func (e *Env) sacrifice(teamID string) (string, geom.Point, bool) {
	pid, found := query.PickSacrifice(e.State, teamID, e.Rand)
	if !found {
		return "", geom.Point{}, false
	}
	return pid, e.sacrificePoint(pid), true
}

func (e *Env) sacrificePoint(pid string) geom.Point {
	pos, _ := e.State.Pos(pid)
	e.State.DeletePoint(pid)
	return pos
}

func withSacrifice(r Result, ids ...string) Result {
	r.Sacrificed = append(r.Sacrificed, ids...)
	return r
}

// shuffled returns a random permutation of ids.
func (e *Env) shuffled(ids []string) []string {
	out := append([]string(nil), ids...)
	e.Rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func ofTeam(teamID string) func(*state.Point) bool {
	return func(p *state.Point) bool { return p.TeamID == teamID }
}

func notOfTeam(teamID string) func(*state.Point) bool {
	return func(p *state.Point) bool { return p.TeamID != teamID }
}

func hasEnemyPoints(s *state.State, teamID string) bool {
	return len(s.EnemyPointIDs(teamID)) > 0
}

func hasEnemyLines(s *state.State, teamID string) bool {
	return len(s.EnemyLineIDs(teamID)) > 0
}

func positions(s *state.State, ids []string) []geom.Point {
	out := make([]geom.Point, 0, len(ids))
	for _, id := range ids {
		if p, live := s.Pos(id); live {
			out = append(out, p)
		}
	}
	return out
}

func sortedStrings(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
