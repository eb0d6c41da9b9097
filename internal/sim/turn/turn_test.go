package turn

import (
	"strings"
	"testing"

	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/state"
	"runegrid.ai/internal/sim/tuning"
)

func newState(t *testing.T) *state.State {
	t.Helper()
	s := state.New(20, 100)
	s.AddTeam(state.Team{ID: "red", Name: "Red", Trait: "Balanced"})
	s.AddTeam(state.Team{ID: "blue", Name: "Blue", Trait: "Balanced"})
	return s
}

func addPoint(t *testing.T, s *state.State, team string, x, y int) string {
	t.Helper()
	p, err := s.AddPoint(team, x, y)
	if err != nil {
		t.Fatalf("AddPoint: %v", err)
	}
	return p.ID
}

func addLine(t *testing.T, s *state.State, a, b string) string {
	t.Helper()
	l, err := s.AddLine(a, b)
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	return l.ID
}

func TestTimers_CountDown(t *testing.T) {
	s := newState(t)
	a := addPoint(t, s, "red", 1, 1)
	l := addLine(t, s, a, addPoint(t, s, "red", 3, 1))
	s.Shields[l] = 2
	s.Stasis[a] = 1
	rules := tuning.Defaults().Rules

	Process(s, rules)
	if s.Shields[l] != 1 {
		t.Fatalf("shield=%d want 1", s.Shields[l])
	}
	if _, ok := s.Stasis[a]; ok {
		t.Fatalf("stasis should have expired")
	}
	Process(s, rules)
	if _, ok := s.Shields[l]; ok {
		t.Fatalf("shield should have expired")
	}
}

func TestMonolith_WaveOncePerInterval(t *testing.T) {
	s := newState(t)
	ids := []string{
		addPoint(t, s, "red", 2, 2),
		addPoint(t, s, "red", 10, 2),
		addPoint(t, s, "red", 10, 4),
		addPoint(t, s, "red", 2, 4),
	}
	var lines []string
	for i := range ids {
		lines = append(lines, addLine(t, s, ids[i], ids[(i+1)%4]))
	}
	m := &state.Monolith{ID: s.NewStructureID(), TeamID: "red", Center: geom.Point{X: 6, Y: 3}}
	copy(m.Points[:], ids)
	if err := s.AddStructure(m); err != nil {
		t.Fatalf("AddStructure: %v", err)
	}
	rules := tuning.Defaults().Rules
	rules.MonolithChargeInterval = 3
	rules.MonolithWaveRadius = 6

	for turn := 1; turn <= 7; turn++ {
		Process(s, rules)
		want := turn / 3
		for _, lid := range lines {
			if got := s.Strengths[lid]; got != want {
				t.Fatalf("turn %d line %s strength=%d want %d", turn, lid, got, want)
			}
		}
	}
	if m.Charge != 1 {
		t.Fatalf("charge=%d want 1", m.Charge)
	}
}

func TestRiftTrap_TriggersAndExpires(t *testing.T) {
	s := newState(t)
	addPoint(t, s, "red", 0, 0)
	victim := addPoint(t, s, "blue", 5, 6)
	s.AddRiftTrap("red", geom.Pt(5, 5), 2, 3)
	quiet := s.AddRiftTrap("red", geom.Pt(15, 15), 2, 1)

	events := Process(s, tuning.Defaults().Rules)
	if _, alive := s.Points[victim]; alive {
		t.Fatalf("victim survived the trap")
	}
	if len(s.RiftTraps) != 0 {
		t.Fatalf("traps=%d want 0", len(s.RiftTraps))
	}
	if pid, ok := s.PointAt(15, 15); !ok || s.Points[pid].TeamID != "red" {
		t.Fatalf("expired trap %s did not leave a red point", quiet)
	}
	if len(events) < 2 {
		t.Fatalf("events=%v", events)
	}
}

func TestScorched_BurnsForeignPoints(t *testing.T) {
	s := newState(t)
	own := addPoint(t, s, "red", 3, 2)
	enemy := addPoint(t, s, "blue", 2, 2)
	s.AddScorchedZone("red", [3]geom.Point{geom.Pt(0, 0), geom.Pt(8, 0), geom.Pt(0, 8)}, 1)

	Process(s, tuning.Defaults().Rules)
	if _, alive := s.Points[enemy]; alive {
		t.Fatalf("enemy point survived the scorched zone")
	}
	if _, alive := s.Points[own]; !alive {
		t.Fatalf("own point burnt")
	}
	if len(s.Scorched) != 0 {
		t.Fatalf("zone should have expired")
	}
}

func TestAnchor_PullsAndExpires(t *testing.T) {
	s := newState(t)
	a := addPoint(t, s, "red", 5, 5)
	enemy := addPoint(t, s, "blue", 9, 5)
	if err := s.AddStructure(&state.Anchor{ID: state.AnchorID(a), TeamID: "red", PointID: a, TurnsLeft: 1}); err != nil {
		t.Fatalf("AddStructure: %v", err)
	}
	Process(s, tuning.Defaults().Rules)
	if p := s.Points[enemy]; p.X != 8 || p.Y != 5 {
		t.Fatalf("enemy at (%d,%d) want (8,5)", p.X, p.Y)
	}
	if _, ok := s.Structures[state.AnchorID(a)]; ok {
		t.Fatalf("anchor should have expired")
	}
}

func TestWhirlpool_DragsInward(t *testing.T) {
	s := newState(t)
	addPoint(t, s, "red", 0, 0)
	enemy := addPoint(t, s, "blue", 14, 10)
	s.AddWhirlpool("red", geom.Pt(10, 10), 5, 0, 2)

	Process(s, tuning.Defaults().Rules)
	p := s.Points[enemy]
	if d := geom.DistanceSquared(p.Pos(), geom.Pt(10, 10)); d >= 16 {
		t.Fatalf("enemy not pulled: (%d,%d)", p.X, p.Y)
	}
	if s.Whirlpools == nil || len(s.Whirlpools) != 1 {
		t.Fatalf("whirlpool should last another turn")
	}
}

func TestWonder_DeclaresVictory(t *testing.T) {
	s := newState(t)
	addPoint(t, s, "red", 1, 1)
	w := &state.Wonder{ID: s.NewStructureID(), TeamID: "red", X: 4, Y: 4, TurnsLeft: 2}
	if err := s.AddStructure(w); err != nil {
		t.Fatalf("AddStructure: %v", err)
	}
	rules := tuning.Defaults().Rules
	Process(s, rules)
	if s.Victory != nil {
		t.Fatalf("victory too early: %+v", s.Victory)
	}
	Process(s, rules)
	if s.Victory == nil || s.Victory.Kind != state.VictoryWonder || s.Victory.TeamID != "red" {
		t.Fatalf("victory=%+v want red wonder", s.Victory)
	}
}

func TestHeartwood_GrowsOnInterval(t *testing.T) {
	s := newState(t)
	c := addPoint(t, s, "red", 10, 10)
	if err := s.AddStructure(&state.Heartwood{ID: state.HeartwoodID("red"), TeamID: "red", Center: c}); err != nil {
		t.Fatalf("AddStructure: %v", err)
	}
	rules := tuning.Defaults().Rules
	rules.HeartwoodInterval = 2
	Process(s, rules)
	if n := len(s.TeamPointIDs("red")); n != 1 {
		t.Fatalf("points=%d want 1 after first turn", n)
	}
	Process(s, rules)
	if n := len(s.TeamPointIDs("red")); n != 2 {
		t.Fatalf("points=%d want 2 after interval", n)
	}
	if len(s.LinesOf(c)) != 1 {
		t.Fatalf("new growth should link to the heartwood")
	}
}

func TestHeartwood_DropsUnrootedGrowth(t *testing.T) {
	s := newState(t)
	c := addPoint(t, s, "red", 10, 10)
	if err := s.AddStructure(&state.Heartwood{ID: state.HeartwoodID("red"), TeamID: "red", Center: c}); err != nil {
		t.Fatalf("AddStructure: %v", err)
	}
	// A center owned by another team cannot take a red line.
	s.Points[c].TeamID = "blue"
	rules := tuning.Defaults().Rules
	rules.HeartwoodInterval = 1
	events := Process(s, rules)
	if n := len(s.TeamPointIDs("red")); n != 0 {
		t.Fatalf("red points=%d want the unlinked growth removed", n)
	}
	found := false
	for _, ev := range events {
		if ev.Phase == "heartwood" && strings.Contains(ev.Message, "failed to root") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no failure event in %+v", events)
	}
}

func TestTerrain_Decays(t *testing.T) {
	s := newState(t)
	s.AddFissure(geom.Segment{A: geom.Pt(1, 1), B: geom.Pt(5, 5)}, 1)
	s.AddBarricade("red", geom.Segment{A: geom.Pt(1, 5), B: geom.Pt(5, 1)}, 2)
	Process(s, tuning.Defaults().Rules)
	if len(s.Fissures) != 0 || len(s.Barricades) != 1 {
		t.Fatalf("fissures=%d barricades=%d", len(s.Fissures), len(s.Barricades))
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
