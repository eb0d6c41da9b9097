package query

import (
	"math/rand/v2"
	"testing"

	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/state"
)

type fixture struct {
	t *testing.T
	s *state.State
}

func newFixture(t *testing.T, grid int) *fixture {
	t.Helper()
	s := state.New(grid, 100)
	s.AddTeam(state.Team{ID: "red", Trait: "Balanced"})
	s.AddTeam(state.Team{ID: "blue", Trait: "Balanced"})
	return &fixture{t: t, s: s}
}

func (f *fixture) pt(team string, x, y int) string {
	f.t.Helper()
	p, err := f.s.AddPoint(team, x, y)
	if err != nil {
		f.t.Fatalf("AddPoint: %v", err)
	}
	return p.ID
}

func (f *fixture) line(a, b string) string {
	f.t.Helper()
	l, err := f.s.AddLine(a, b)
	if err != nil {
		f.t.Fatalf("AddLine: %v", err)
	}
	return l.ID
}

func TestArticulationPoints(t *testing.T) {
	f := newFixture(t, 20)
	a := f.pt("red", 0, 0)
	b := f.pt("red", 2, 0)
	c := f.pt("red", 4, 0)
	d := f.pt("red", 2, 3)
	e := f.pt("red", 6, 0)
	f.line(a, b)
	f.line(b, c)
	f.line(c, a)
	f.line(b, d)
	f.line(c, e)

	cut := ArticulationPoints(Graph(f.s, "red"))
	if !cut[b] || !cut[c] {
		t.Fatalf("cut=%v want %s and %s", cut, b, c)
	}
	if cut[a] || cut[d] || cut[e] {
		t.Fatalf("cut=%v contains a leaf or cycle-only vertex", cut)
	}
}

func TestArticulationPoints_RootWithTwoChildren(t *testing.T) {
	f := newFixture(t, 20)
	hub := f.pt("red", 5, 5)
	l := f.pt("red", 2, 5)
	r := f.pt("red", 8, 5)
	f.line(hub, l)
	f.line(hub, r)
	cut := ArticulationPoints(Graph(f.s, "red"))
	if len(cut) != 1 || !cut[hub] {
		t.Fatalf("cut=%v want only %s", cut, hub)
	}
}

func TestSacrificeCandidates_PrefersLeaves(t *testing.T) {
	f := newFixture(t, 20)
	a := f.pt("red", 0, 0)
	b := f.pt("red", 3, 0)
	c := f.pt("red", 6, 0)
	d := f.pt("red", 9, 0)
	f.line(a, b)
	f.line(b, c)
	f.line(c, d)

	got := SacrificeCandidates(f.s, "red")
	if len(got) != 2 || got[0] != a || got[1] != d {
		t.Fatalf("candidates=%v want [%s %s]", got, a, d)
	}

	f.s.AddStructure(&state.Anchor{ID: state.AnchorID(a), TeamID: "red", PointID: a, TurnsLeft: 2})
	f.s.AddStructure(&state.Anchor{ID: state.AnchorID(d), TeamID: "red", PointID: d, TurnsLeft: 2})
	got = SacrificeCandidates(f.s, "red")
	if len(got) != 2 || got[0] != b || got[1] != c {
		t.Fatalf("relaxed candidates=%v want [%s %s]", got, b, c)
	}
}

func TestCanSacrifice_NeedsThreePoints(t *testing.T) {
	f := newFixture(t, 20)
	a := f.pt("red", 0, 0)
	b := f.pt("red", 3, 0)
	f.line(a, b)
	if CanSacrifice(f.s, "red") {
		t.Fatalf("2-point team allowed to sacrifice")
	}
	f.pt("red", 9, 9)
	if !CanSacrifice(f.s, "red") {
		t.Fatalf("3-point team refused")
	}
	id, ok := PickSacrifice(f.s, "red", rand.New(rand.NewPCG(1, 2)))
	if !ok || f.s.Points[id] == nil {
		t.Fatalf("PickSacrifice=%q,%v", id, ok)
	}
}

func TestImmunePoints(t *testing.T) {
	f := newFixture(t, 20)
	a := f.pt("blue", 0, 0)
	b := f.pt("blue", 4, 0)
	c := f.pt("blue", 2, 3)
	free := f.pt("blue", 9, 9)
	frozen := f.pt("blue", 12, 12)
	f.line(a, b)
	f.line(b, c)
	f.line(c, a)
	if _, err := f.s.AddTerritory("blue", a, b, c); err != nil {
		t.Fatalf("AddTerritory: %v", err)
	}
	f.s.Stasis[frozen] = 2
	got := VulnerableEnemyPoints(f.s, "red")
	if len(got) != 1 || got[0] != free {
		t.Fatalf("vulnerable=%v want [%s]", got, free)
	}
}

func TestExtensions_BorderScenario(t *testing.T) {
	f := newFixture(t, 10)
	a := f.pt("red", 0, 0)
	b := f.pt("red", 5, 5)
	f.line(a, b)
	ext := Extensions(f.s, "red", 2)
	if len(ext) != 1 {
		t.Fatalf("extensions=%d want 1 (the backwards ray starts on the corner)", len(ext))
	}
	x, y := ext[0].End.Round()
	if x != 9 || y != 9 || ext[0].Tip != b {
		t.Fatalf("end=(%d,%d) tip=%s want (9,9) from %s", x, y, ext[0].Tip, b)
	}
}

func TestExtensions_KeepMinSpacing(t *testing.T) {
	f := newFixture(t, 10)
	a := f.pt("red", 4, 5)
	b := f.pt("red", 5, 5)
	f.line(a, b)
	f.pt("blue", 9, 6)

	if ext := Extensions(f.s, "red", 0); len(ext) != 2 {
		t.Fatalf("without spacing: extensions=%d want 2", len(ext))
	}
	ext := Extensions(f.s, "red", 2)
	if len(ext) != 1 {
		t.Fatalf("extensions=%+v want only the west ray", ext)
	}
	if x, y := ext[0].End.Round(); x != 0 || y != 5 || ext[0].Tip != a {
		t.Fatalf("end=(%d,%d) tip=%s want (0,5) from %s", x, y, ext[0].Tip, a)
	}
	if Spaced(f.s, 9, 5, 2) || !Spaced(f.s, 0, 5, 2) {
		t.Fatalf("Spaced disagrees with the extension filter")
	}
}

func TestAddablePairs_SkipsBlockedAndJoined(t *testing.T) {
	f := newFixture(t, 12)
	a := f.pt("red", 1, 1)
	b := f.pt("red", 5, 1)
	f.pt("red", 9, 1)
	f.pt("blue", 7, 1)
	if !HasAddablePair(f.s, "red") {
		t.Fatalf("expected an addable pair")
	}
	got := AddablePairs(f.s, "red")
	if len(got) != 1 || got[0] != [2]string{a, b} {
		t.Fatalf("pairs=%v want only %s-%s", got, a, b)
	}
	f.line(a, b)
	if HasAddablePair(f.s, "red") || len(AddablePairs(f.s, "red")) != 0 {
		t.Fatalf("joined pair still addable: %v", AddablePairs(f.s, "red"))
	}
}

func TestHasAddablePair_AgreesWithList(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for trial := 0; trial < 40; trial++ {
		f := newFixture(t, 12)
		var red []string
		for i := 0; i < 9; i++ {
			x, y := r.IntN(12), r.IntN(12)
			if f.s.Occupied(x, y) {
				continue
			}
			if i%3 == 0 {
				f.pt("blue", x, y)
				continue
			}
			red = append(red, f.pt("red", x, y))
		}
		for i := 0; i+1 < len(red); i += 2 {
			_, _ = f.s.AddLine(red[i], red[i+1])
		}
		pairs := AddablePairs(f.s, "red")
		if HasAddablePair(f.s, "red") != (len(pairs) > 0) {
			t.Fatalf("trial %d: HasAddablePair disagrees with %v", trial, pairs)
		}
		for _, p := range pairs {
			if _, joined := f.s.LineBetween(p[0], p[1]); joined {
				t.Fatalf("trial %d: pair %v already joined", trial, p)
			}
		}
	}
}

func TestFirstHit_ClosestAndShield(t *testing.T) {
	f := newFixture(t, 20)
	o := f.pt("red", 0, 5)
	p := f.pt("red", 2, 5)
	f.line(o, p)
	near := f.line(f.pt("blue", 5, 2), f.pt("blue", 5, 8))
	far := f.line(f.pt("blue", 10, 2), f.pt("blue", 10, 8))

	h, ok := FirstHit(f.s, "red", geom.Pt(2, 5), geom.Pt(19, 5), false)
	if !ok || h.LineID != near {
		t.Fatalf("hit=%+v ok=%v want %s", h, ok, near)
	}
	f.s.Shields[near] = 2
	h, ok = FirstHit(f.s, "red", geom.Pt(2, 5), geom.Pt(19, 5), false)
	if !ok || h.LineID != far {
		t.Fatalf("hit=%+v want %s when nearer line is shielded", h, far)
	}
	h, _ = FirstHit(f.s, "red", geom.Pt(2, 5), geom.Pt(19, 5), true)
	if h.LineID != near {
		t.Fatalf("bypass hit=%s want %s", h.LineID, near)
	}
}

func TestClaimableTriangles(t *testing.T) {
	f := newFixture(t, 20)
	a := f.pt("red", 0, 0)
	b := f.pt("red", 4, 0)
	c := f.pt("red", 2, 3)
	f.line(a, b)
	f.line(b, c)
	f.line(c, a)
	if got := ClaimableTriangles(f.s, "red"); len(got) != 1 {
		t.Fatalf("claimable=%v want 1", got)
	}
	f.s.AddTerritory("red", c, a, b)
	if got := ClaimableTriangles(f.s, "red"); len(got) != 0 {
		t.Fatalf("claimable=%v want 0 after claim", got)
	}
}

func TestFreeCellsNear_Ordering(t *testing.T) {
	f := newFixture(t, 10)
	f.pt("red", 5, 5)
	f.pt("red", 5, 4)
	cells := FreeCellsNear(f.s, geom.Pt(5, 5), 1)
	if len(cells) != 3 {
		t.Fatalf("cells=%v want 3", cells)
	}
	if cells[0] != [2]int{4, 5} {
		t.Fatalf("first=%v want (4,5)", cells[0])
	}
}
