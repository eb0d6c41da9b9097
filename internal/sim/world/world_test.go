package world

import (
	"context"
	"errors"
	"io"
	"log"
	"reflect"
	"testing"
	"time"

	"runegrid.ai/internal/persistence/snapshot"
	"runegrid.ai/internal/sim/actions"
	"runegrid.ai/internal/sim/state"
)

func newTestWorld(t *testing.T, cfg WorldConfig) *World {
	t.Helper()
	w, err := New(cfg, nil, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func fourTeams(grid, turns int, seed uint64) StartParams {
	return StartParams{
		GridSize: grid,
		MaxTurns: turns,
		Seed:     seed,
		Teams: []TeamSpec{
			{ID: "amber", Trait: "Aggressive"},
			{ID: "blue", Trait: "Defensive"},
			{ID: "cyan", Trait: "Expansive"},
			{ID: "dusk", Trait: "Mystic"},
		},
	}
}

func TestStartGame_RejectsInvalidParams(t *testing.T) {
	ok := func() StartParams {
		return StartParams{GridSize: 20, MaxTurns: 10, Teams: []TeamSpec{{ID: "red"}, {ID: "blue"}}}
	}
	cases := map[string]func(p *StartParams){
		"grid too small":  func(p *StartParams) { p.GridSize = MinGridSize - 1 },
		"grid too large":  func(p *StartParams) { p.GridSize = MaxGridSize + 1 },
		"zero turns":      func(p *StartParams) { p.MaxTurns = 0 },
		"too many turns":  func(p *StartParams) { p.MaxTurns = MaxTurns + 1 },
		"no teams":        func(p *StartParams) { p.Teams = nil },
		"empty id":        func(p *StartParams) { p.Teams[0].ID = "" },
		"duplicate id":    func(p *StartParams) { p.Teams[1].ID = "red" },
		"unknown trait":   func(p *StartParams) { p.Teams[0].Trait = "Sneaky" },
		"out of bounds":   func(p *StartParams) { p.Teams[0].Points = [][2]int{{20, 3}} },
		"shared cell":     func(p *StartParams) { p.Teams[0].Points = [][2]int{{2, 2}}; p.Teams[1].Points = [][2]int{{2, 2}} },
		"negative coords": func(p *StartParams) { p.Teams[1].Points = [][2]int{{-1, 0}} },
	}
	w := newTestWorld(t, WorldConfig{Seed: 1})
	for name, mutate := range cases {
		p := ok()
		mutate(&p)
		if _, err := w.StartGame(p); !errors.Is(err, ErrInvalidParams) {
			t.Fatalf("%s: expected ErrInvalidParams, got %v", name, err)
		}
	}
	if w.Phase() != state.PhaseSetup {
		t.Fatalf("rejected starts must leave the world in setup, got %s", w.Phase())
	}
	if _, err := w.StartGame(ok()); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}
}

func TestStartGame_DefaultsAndLayout(t *testing.T) {
	w := newTestWorld(t, WorldConfig{Seed: 7})
	v, err := w.StartGame(StartParams{
		GridSize: 30,
		MaxTurns: 50,
		Teams: []TeamSpec{
			{ID: "red", Points: [][2]int{{1, 1}, {2, 5}}},
			{ID: "blue"},
		},
	})
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if v.Phase != state.PhaseRunning || v.Turn != 0 || v.GameID == "" {
		t.Fatalf("unexpected header: phase=%s turn=%d game=%q", v.Phase, v.Turn, v.GameID)
	}
	if len(v.Teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(v.Teams))
	}
	for _, tv := range v.Teams {
		if tv.Team.Name != tv.Team.ID || tv.Team.Color == "" || tv.Team.Trait != "Balanced" {
			t.Fatalf("team defaults not applied: %+v", tv.Team)
		}
		if !tv.Active || tv.Stats.Points == 0 {
			t.Fatalf("team %s has no points", tv.Team.ID)
		}
	}
	if got := v.Teams[0].Stats.Points; v.Teams[0].Team.ID == "red" && got != 2 {
		t.Fatalf("explicit points must be used as given, got %d", got)
	}
	if w.Seed() != 7 {
		t.Fatalf("expected configured seed 7, got %d", w.Seed())
	}
}

func TestAdvanceTurn_PhaseErrors(t *testing.T) {
	w := newTestWorld(t, WorldConfig{Seed: 1})
	if _, err := w.AdvanceTurn(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning before start, got %v", err)
	}
	if _, err := w.StartGame(StartParams{GridSize: 12, MaxTurns: 1, Teams: []TeamSpec{{ID: "red"}, {ID: "blue"}}}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	r, err := w.AdvanceTurn()
	if err != nil {
		t.Fatalf("AdvanceTurn: %v", err)
	}
	if r.Victory == nil || w.Phase() != state.PhaseFinished {
		t.Fatalf("one-turn game must finish, victory=%v phase=%s", r.Victory, w.Phase())
	}
	if _, err := w.AdvanceTurn(); !errors.Is(err, ErrGameFinished) {
		t.Fatalf("expected ErrGameFinished, got %v", err)
	}
}

func TestAdvanceTurn_DeterministicForSeed(t *testing.T) {
	run := func() []string {
		w := newTestWorld(t, WorldConfig{})
		if _, err := w.StartGame(fourTeams(24, 60, 99)); err != nil {
			t.Fatalf("StartGame: %v", err)
		}
		var digests []string
		for w.Phase() == state.PhaseRunning {
			r, err := w.AdvanceTurn()
			if err != nil {
				t.Fatalf("AdvanceTurn: %v", err)
			}
			digests = append(digests, r.Digest)
		}
		return digests
	}
	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different games (%d vs %d turns)", len(a), len(b))
	}
	if len(a) == 0 {
		t.Fatalf("expected at least one turn")
	}
}

func TestAdvanceTurn_InvariantsAndNoDefects(t *testing.T) {
	for seed := uint64(1); seed <= 6; seed++ {
		w := newTestWorld(t, WorldConfig{})
		if _, err := w.StartGame(fourTeams(20, 120, seed)); err != nil {
			t.Fatalf("seed %d: StartGame: %v", seed, err)
		}
		for w.Phase() == state.PhaseRunning {
			r, err := w.AdvanceTurn()
			if err != nil {
				t.Fatalf("seed %d: AdvanceTurn: %v", seed, err)
			}
			if err := w.state.Validate(); err != nil {
				t.Fatalf("seed %d turn %d: %v", seed, r.Turn, err)
			}
			for _, a := range r.Actions {
				if a.Defect {
					t.Fatalf("seed %d turn %d: engine defect %s: %s", seed, r.Turn, a.ActionID, a.Message)
				}
				if a.Message == "" {
					t.Fatalf("seed %d turn %d: empty message for %s", seed, r.Turn, a.TeamID)
				}
			}
		}
		if w.state.Victory == nil {
			t.Fatalf("seed %d: finished without a victory", seed)
		}
	}
}

func BenchmarkAdvanceTurn_CrowdedBoard(b *testing.B) {
	w, err := New(WorldConfig{}, nil, log.New(io.Discard, "", 0))
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	if _, err := w.StartGame(fourTeams(40, 5000, 7)); err != nil {
		b.Fatalf("StartGame: %v", err)
	}
	for i := 0; i < 200 && w.Phase() == state.PhaseRunning; i++ {
		if _, err := w.AdvanceTurn(); err != nil {
			b.Fatalf("warmup: %v", err)
		}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N && w.Phase() == state.PhaseRunning; i++ {
		if _, err := w.AdvanceTurn(); err != nil {
			b.Fatalf("AdvanceTurn: %v", err)
		}
	}
}

func TestChoose_SmallDefensiveTeamStaysInReach(t *testing.T) {
	w := newTestWorld(t, WorldConfig{Seed: 3})
	if _, err := w.StartGame(StartParams{
		GridSize: 20,
		MaxTurns: 10,
		Teams: []TeamSpec{
			{ID: "red", Trait: "Defensive", Points: [][2]int{{2, 2}, {5, 3}}},
			{ID: "blue", Points: [][2]int{{17, 17}, {15, 18}, {18, 14}}},
		},
	}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	env := actions.NewEnv(w.state, w.rng, w.cfg.Tuning.Rules)
	for i := 0; i < 300; i++ {
		a, ok := actions.Choose(env, "red", "Defensive", w.cfg.Tuning)
		if !ok {
			t.Fatalf("a two-point team must always have something to do")
		}
		if a.MinPoints() > 2 {
			t.Fatalf("picked %s which needs %d points", a.ID(), a.MinPoints())
		}
	}
}

func TestVictory_Dominance(t *testing.T) {
	w := newTestWorld(t, WorldConfig{Seed: 5})
	if _, err := w.StartGame(StartParams{GridSize: 15, MaxTurns: 100, Teams: []TeamSpec{{ID: "solo"}}}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	var last TurnReport
	for w.Phase() == state.PhaseRunning {
		r, err := w.AdvanceTurn()
		if err != nil {
			t.Fatalf("AdvanceTurn: %v", err)
		}
		last = r
	}
	v := last.Victory
	if v == nil || v.Kind != state.VictoryDominance || v.TeamID != "solo" {
		t.Fatalf("expected dominance for solo, got %+v", v)
	}
	if last.Turn != w.cfg.Tuning.Rules.DominanceTurns {
		t.Fatalf("expected victory on turn %d, got %d", w.cfg.Tuning.Rules.DominanceTurns, last.Turn)
	}
}

func TestVictory_TimeLimitPicksLargestTeam(t *testing.T) {
	s := state.New(20, 5)
	s.AddTeam(state.Team{ID: "red", Name: "Red"})
	s.AddTeam(state.Team{ID: "blue", Name: "Blue"})
	for _, c := range [][2]int{{1, 1}, {3, 1}, {5, 1}} {
		if _, err := s.AddPoint("red", c[0], c[1]); err != nil {
			t.Fatalf("AddPoint: %v", err)
		}
	}
	if _, err := s.AddPoint("blue", 10, 10); err != nil {
		t.Fatalf("AddPoint: %v", err)
	}
	v := timeLimitVictory(s)
	if v.Kind != state.VictoryTimeLimit || v.TeamID != "red" {
		t.Fatalf("expected red time-limit win, got %+v", v)
	}

	if _, err := s.AddPoint("blue", 12, 10); err != nil {
		t.Fatalf("AddPoint: %v", err)
	}
	if _, err := s.AddPoint("blue", 14, 10); err != nil {
		t.Fatalf("AddPoint: %v", err)
	}
	if v := timeLimitVictory(s); v.TeamID != "" {
		t.Fatalf("equal points and area must be a draw, got %+v", v)
	}
}

func TestSnapshot_Idempotent(t *testing.T) {
	w := newTestWorld(t, WorldConfig{})
	if _, err := w.StartGame(fourTeams(20, 40, 11)); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	for i := 0; i < 8; i++ {
		if _, err := w.AdvanceTurn(); err != nil {
			t.Fatalf("AdvanceTurn: %v", err)
		}
	}
	a, b := w.Snapshot(), w.Snapshot()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two snapshots of the same state differ")
	}
	if a.Digest != w.stateDigest() {
		t.Fatalf("view digest out of date")
	}
}

func TestExportImport_ContinuesIdentically(t *testing.T) {
	src := newTestWorld(t, WorldConfig{})
	if _, err := src.StartGame(fourTeams(22, 200, 42)); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	for i := 0; i < 12 && src.Phase() == state.PhaseRunning; i++ {
		if _, err := src.AdvanceTurn(); err != nil {
			t.Fatalf("AdvanceTurn: %v", err)
		}
	}
	snap := src.ExportSnapshot()

	dst := newTestWorld(t, WorldConfig{})
	if err := dst.ImportSnapshot(snap); err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}
	if got, want := dst.stateDigest(), src.stateDigest(); got != want {
		t.Fatalf("digest after import %s, want %s", got, want)
	}
	for i := 0; i < 12 && src.Phase() == state.PhaseRunning; i++ {
		a, errA := src.AdvanceTurn()
		b, errB := dst.AdvanceTurn()
		if errA != nil || errB != nil {
			t.Fatalf("AdvanceTurn: %v / %v", errA, errB)
		}
		if a.Digest != b.Digest {
			t.Fatalf("turn %d diverged after import", a.Turn)
		}
	}
}

func TestSnapshotSink_ReceivesOnFinish(t *testing.T) {
	w := newTestWorld(t, WorldConfig{Seed: 2, SnapshotEveryTurns: 2})
	sink := make(chan snapshot.SnapshotV1, 8)
	w.SetSnapshotSink(sink)
	if _, err := w.StartGame(StartParams{GridSize: 12, MaxTurns: 3, Teams: []TeamSpec{{ID: "red"}, {ID: "blue"}}}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	for w.Phase() == state.PhaseRunning {
		if _, err := w.AdvanceTurn(); err != nil {
			t.Fatalf("AdvanceTurn: %v", err)
		}
	}
	if len(sink) == 0 {
		t.Fatalf("expected at least one snapshot")
	}
	var last snapshot.SnapshotV1
	for len(sink) > 0 {
		last = <-sink
	}
	if last.Phase != string(state.PhaseFinished) {
		t.Fatalf("last snapshot should be the finished game, got phase %s", last.Phase)
	}
}

type memTurnLog struct{ entries []TurnLogEntry }

func (m *memTurnLog) WriteTurn(e TurnLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

type memEventLog struct{ kinds []string }

func (m *memEventLog) WriteEvent(e GameEvent) error {
	m.kinds = append(m.kinds, e.Kind)
	return nil
}

func TestLoggers_ReceiveTurnsAndLifecycle(t *testing.T) {
	w := newTestWorld(t, WorldConfig{Seed: 4})
	turns := &memTurnLog{}
	events := &memEventLog{}
	w.SetTurnLogger(turns)
	w.SetEventLogger(events)
	if _, err := w.StartGame(StartParams{GridSize: 12, MaxTurns: 2, Teams: []TeamSpec{{ID: "red"}, {ID: "blue"}}}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	for w.Phase() == state.PhaseRunning {
		if _, err := w.AdvanceTurn(); err != nil {
			t.Fatalf("AdvanceTurn: %v", err)
		}
	}
	w.Reset()
	if len(turns.entries) == 0 || turns.entries[0].Turn != 1 || turns.entries[0].GameID == "" {
		t.Fatalf("unexpected turn log: %+v", turns.entries)
	}
	if want := []string{"START", "FINISH"}; !reflect.DeepEqual(events.kinds[:2], want) {
		t.Fatalf("expected %v first, got %v", want, events.kinds)
	}
	if events.kinds[len(events.kinds)-1] != "RESET" {
		t.Fatalf("expected RESET last, got %v", events.kinds)
	}
	if w.Phase() != state.PhaseSetup || w.GameID() != "" {
		t.Fatalf("reset must return to setup")
	}
}

func TestRun_ServesRequests(t *testing.T) {
	w := newTestWorld(t, WorldConfig{Seed: 8})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if _, err := w.RequestAdvance(ctx); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	if _, err := w.RequestExport(ctx); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("export before start: expected ErrNotRunning, got %v", err)
	}
	if _, err := w.RequestStart(ctx, StartParams{GridSize: 16, MaxTurns: 20, Teams: []TeamSpec{{ID: "red"}, {ID: "blue"}}}); err != nil {
		t.Fatalf("RequestStart: %v", err)
	}
	r, err := w.RequestAdvance(ctx)
	if err != nil {
		t.Fatalf("RequestAdvance: %v", err)
	}
	v, err := w.RequestSnapshot(ctx)
	if err != nil {
		t.Fatalf("RequestSnapshot: %v", err)
	}
	if v.Turn != r.Turn || v.Digest != r.Digest {
		t.Fatalf("snapshot turn=%d digest=%s, report turn=%d digest=%s", v.Turn, v.Digest, r.Turn, r.Digest)
	}
	snap, err := w.RequestExport(ctx)
	if err != nil || snap.Header.Turn != r.Turn || snap.Header.GameID != v.GameID {
		t.Fatalf("RequestExport: header=%+v err=%v", snap.Header, err)
	}
	defs, err := w.RequestCatalogue(ctx)
	if err != nil || len(defs) != len(actions.All()) {
		t.Fatalf("catalogue: %d entries, err=%v", len(defs), err)
	}
	if err := w.RequestReset(ctx); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	if m := w.Metrics(); m.Phase != state.PhaseSetup {
		t.Fatalf("metrics phase %s after reset", m.Phase)
	}

	w.Stop()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if _, err := w.RequestSnapshot(ctx); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}
