// Package turn runs the upkeep that happens once per turn before any team
// acts: timers tick down, fields and structures fire, and the wonder
// countdown may end the game.
package turn

import (
	"fmt"
	"math"

	"runegrid.ai/internal/sim/actions"
	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/query"
	"runegrid.ai/internal/sim/state"
	"runegrid.ai/internal/sim/tuning"
)

// Event is one upkeep occurrence worth logging.
type Event struct {
	Phase   string `json:"phase"`
	TeamID  string `json:"teamId,omitempty"`
	Message string `json:"message"`
}

type processor struct {
	s      *state.State
	rules  tuning.Rules
	events []Event
}

func (p *processor) emit(phase, teamID, format string, args ...any) {
	p.events = append(p.events, Event{Phase: phase, TeamID: teamID, Message: fmt.Sprintf(format, args...)})
}

// Process runs the upkeep phases in their fixed order and returns what
// happened. Every phase walks its entities in id order.
func Process(s *state.State, rules tuning.Rules) []Event {
	p := &processor{s: s, rules: rules}
	p.systemTimers()
	p.systemRiftTraps()
	p.systemAnchors()
	p.systemWhirlpools()
	p.systemScorched()
	p.systemHeartwoods()
	p.systemMonoliths()
	p.systemNexuses()
	p.systemLeyLines()
	p.systemWonders()
	p.systemRiftSpires()
	p.systemTerrain()
	return p.events
}

func countdown(m map[string]int) {
	for _, k := range sortedKeys(m) {
		m[k]--
		if m[k] <= 0 {
			delete(m, k)
		}
	}
}

func (p *processor) systemTimers() {
	countdown(p.s.Shields)
	countdown(p.s.Stasis)
}

func (p *processor) systemRiftTraps() {
	s := p.s
	critical := s.StructurePoints(true)
	for _, id := range s.RiftTrapIDs() {
		trap := s.RiftTraps[id]
		var caught []string
		for _, pid := range query.PointsWithin(s, trap.Center, trap.Radius, notTeam(trap.TeamID)) {
			if !critical[pid] {
				caught = append(caught, pid)
			}
		}
		if len(caught) > 0 {
			s.DeletePoints(caught)
			delete(s.RiftTraps, id)
			p.emit("rift_trap", trap.TeamID, "rift trap %s swallowed %d points", id, len(caught))
			continue
		}
		trap.TurnsLeft--
		if trap.TurnsLeft > 0 {
			continue
		}
		delete(s.RiftTraps, id)
		x, y := geom.Clamp(trap.Center, s.GridSize)
		if _, live := s.Teams[trap.TeamID]; live && s.CanSpawnAt(x, y) {
			if pt, err := s.AddPoint(trap.TeamID, x, y); err == nil {
				p.emit("rift_trap", trap.TeamID, "rift trap %s collapsed into point %s", id, pt.ID)
			}
		}
	}
}

func (p *processor) systemAnchors() {
	s := p.s
	for _, st := range s.StructuresOfKind(state.KindAnchor) {
		a := st.(*state.Anchor)
		if pos, ok := s.Pos(a.PointID); ok {
			moved := actions.Push(s, pos, p.rules.AnchorRadius, 1, s.EnemyPointIDs(a.TeamID), false)
			if len(moved) > 0 {
				p.emit("anchor", a.TeamID, "anchor %s pulled %d points", a.ID, len(moved))
			}
		}
		a.TurnsLeft--
		if a.TurnsLeft <= 0 {
			s.RemoveStructure(a.ID)
		}
	}
}

func (p *processor) systemWhirlpools() {
	s := p.s
	for _, id := range s.WhirlpoolIDs() {
		w := s.Whirlpools[id]
		n := 0
		for _, pid := range query.PointsWithin(s, w.Center, w.Radius, notTeam(w.TeamID)) {
			pos, _ := s.Pos(pid)
			d := math.Sqrt(geom.DistanceSquared(pos, w.Center))
			if d < geom.Eps {
				continue
			}
			swirled := geom.Rotate(pos, w.Center, w.Swirl)
			pull := math.Min(p.rules.WhirlpoolPull, d-1)
			if pull > 0 {
				swirled = swirled.Add(w.Center.Sub(swirled).Norm().Scale(pull))
			}
			x, y := geom.Clamp(swirled, s.GridSize)
			if s.MovePoint(pid, x, y) {
				n++
			}
		}
		if n > 0 {
			p.emit("whirlpool", w.TeamID, "whirlpool %s dragged %d points", id, n)
		}
		w.TurnsLeft--
		if w.TurnsLeft <= 0 {
			delete(s.Whirlpools, id)
		}
	}
}

func (p *processor) systemScorched() {
	s := p.s
	for _, id := range s.ScorchedIDs() {
		z := s.Scorched[id]
		var burnt []string
		for _, pid := range s.PointIDs() {
			pt := s.Points[pid]
			if pt.TeamID != z.TeamID && z.Contains(pt.Pos()) {
				burnt = append(burnt, pid)
			}
		}
		if len(burnt) > 0 {
			s.DeletePoints(burnt)
			p.emit("scorched", z.TeamID, "scorched zone %s burnt %d points", id, len(burnt))
		}
		z.TurnsLeft--
		if z.TurnsLeft <= 0 {
			delete(s.Scorched, id)
		}
	}
}

func (p *processor) systemHeartwoods() {
	s := p.s
	for _, st := range s.StructuresOfKind(state.KindHeartwood) {
		h := st.(*state.Heartwood)
		h.Charge++
		if h.Charge < p.rules.HeartwoodInterval {
			continue
		}
		h.Charge = 0
		center, ok := s.Pos(h.Center)
		if !ok {
			continue
		}
		for _, c := range query.FreeCellsNear(s, center, p.rules.SpawnRadius) {
			pt, err := s.AddPoint(h.TeamID, c[0], c[1])
			if err != nil {
				continue
			}
			if _, err := s.AddLine(h.Center, pt.ID); err != nil {
				s.DeletePoint(pt.ID)
				p.emit("heartwood", h.TeamID, "heartwood %s failed to root: %v", h.ID, err)
				break
			}
			p.emit("heartwood", h.TeamID, "heartwood %s grew point %s", h.ID, pt.ID)
			break
		}
	}
}

// systemMonoliths charges each monolith and releases a wave exactly once
// per interval.
func (p *processor) systemMonoliths() {
	s := p.s
	r2 := p.rules.MonolithWaveRadius * p.rules.MonolithWaveRadius
	for _, st := range s.StructuresOfKind(state.KindMonolith) {
		m := st.(*state.Monolith)
		m.Charge++
		if m.Charge < p.rules.MonolithChargeInterval {
			continue
		}
		m.Charge = 0
		n := 0
		for _, lid := range s.TeamLineIDs(m.TeamID) {
			seg, _ := s.Segment(lid)
			if geom.DistanceSquared(seg.Midpoint(), m.Center) > r2 {
				continue
			}
			if s.Strengths[lid] < p.rules.MaxLineStrength {
				s.Strengths[lid]++
				n++
			}
		}
		p.emit("monolith", m.TeamID, "monolith %s pulsed, reinforcing %d lines", m.ID, n)
	}
}

func (p *processor) systemNexuses() {
	s := p.s
	r2 := p.rules.NexusRadius * p.rules.NexusRadius
	for _, st := range s.StructuresOfKind(state.KindAttunedNexus) {
		n := st.(*state.AttunedNexus)
		n.Charge++
		if n.Charge < p.rules.NexusInterval {
			continue
		}
		n.Charge = 0
		count := 0
		for _, lid := range s.TeamLineIDs(n.TeamID) {
			seg, _ := s.Segment(lid)
			if geom.DistanceSquared(seg.Midpoint(), n.Center) <= r2 {
				s.Shields[lid] = p.rules.ShieldTurns
				count++
			}
		}
		p.emit("nexus", n.TeamID, "nexus %s shielded %d lines", n.ID, count)
	}
}

func (p *processor) systemLeyLines() {
	s := p.s
	r2 := p.rules.LeyLineRadius * p.rules.LeyLineRadius
	for _, st := range s.StructuresOfKind(state.KindLeyLine) {
		l := st.(*state.LeyLine)
		l.Charge++
		if l.Charge < p.rules.LeyLineInterval {
			continue
		}
		l.Charge = 0
		path := positions(s, l.Points)
		var moved int
		for _, pid := range s.EnemyPointIDs(l.TeamID) {
			pos, _ := s.Pos(pid)
			foot, d2 := nearestOnPath(pos, path)
			if d2 < 0 || d2 > r2 {
				continue
			}
			moved += len(actions.Push(s, foot, p.rules.LeyLineRadius, p.rules.PushDistance, []string{pid}, true))
		}
		if moved > 0 {
			p.emit("ley_line", l.TeamID, "ley line %s repelled %d points", l.ID, moved)
		}
	}
}

func (p *processor) systemWonders() {
	s := p.s
	for _, st := range s.StructuresOfKind(state.KindWonder) {
		w := st.(*state.Wonder)
		w.TurnsLeft--
		if w.TurnsLeft > 0 || s.Victory != nil {
			continue
		}
		team := w.TeamID
		if t, ok := s.Teams[team]; ok {
			team = t.Name
		}
		s.Victory = &state.Victory{
			Kind:        state.VictoryWonder,
			TeamID:      w.TeamID,
			Turn:        s.Turn,
			Description: team + " completed a wonder",
		}
		p.emit("wonder", w.TeamID, "wonder %s completed", w.ID)
	}
}

func (p *processor) systemRiftSpires() {
	for _, st := range p.s.StructuresOfKind(state.KindRiftSpire) {
		r := st.(*state.RiftSpire)
		if r.Charge < p.rules.RiftSpireCharge {
			r.Charge++
		}
	}
}

func (p *processor) systemTerrain() {
	s := p.s
	for _, id := range s.FissureIDs() {
		if s.Fissures[id].TurnsLeft--; s.Fissures[id].TurnsLeft <= 0 {
			delete(s.Fissures, id)
		}
	}
	for _, id := range s.BarricadeIDs() {
		if s.Barricades[id].TurnsLeft--; s.Barricades[id].TurnsLeft <= 0 {
			delete(s.Barricades, id)
		}
	}
}
