package main

import (
	"context"
	"strings"
	"testing"

	"runegrid.ai/internal/sim/catalogs"
	"runegrid.ai/internal/sim/tuning"
	"runegrid.ai/internal/sim/world"
)

func TestParseTeams(t *testing.T) {
	got, err := parseTeams("red:Aggressive, blue ,gold:Mystic")
	if err != nil {
		t.Fatalf("parseTeams: %v", err)
	}
	if len(got) != 3 || got[0].Trait != "Aggressive" || got[1].ID != "blue" || got[1].Trait != "" || got[2].ID != "gold" {
		t.Fatalf("unexpected teams: %+v", got)
	}
	if _, err := parseTeams(" , "); err == nil {
		t.Fatalf("expected error for empty list")
	}
	if _, err := parseTeams(":Mystic"); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestRunBatch_DeterministicAcrossWorkerCounts(t *testing.T) {
	cfg := batchConfig{
		Games:    6,
		BaseSeed: 100,
		Workers:  1,
		Start: world.StartParams{GridSize: 16, MaxTurns: 25, Teams: []world.TeamSpec{
			{ID: "red", Trait: "Aggressive"}, {ID: "blue", Trait: "Defensive"}, {ID: "gold"},
		}},
	}
	serial, err := runBatch(context.Background(), cfg, catalogs.Default(), tuning.Defaults())
	if err != nil {
		t.Fatalf("runBatch: %v", err)
	}
	cfg.Workers = 3
	parallel, err := runBatch(context.Background(), cfg, catalogs.Default(), tuning.Defaults())
	if err != nil {
		t.Fatalf("runBatch: %v", err)
	}

	if serial.Games != 6 || len(serial.Results) != 6 {
		t.Fatalf("games=%d results=%d", serial.Games, len(serial.Results))
	}
	for i := range serial.Results {
		if serial.Results[i] != parallel.Results[i] {
			t.Fatalf("game %d differs: %+v vs %+v", i, serial.Results[i], parallel.Results[i])
		}
	}
	total := serial.Draws
	for _, n := range serial.Wins {
		total += n
	}
	if total != serial.Games {
		t.Fatalf("wins+draws=%d games=%d", total, serial.Games)
	}
	for _, r := range serial.Results {
		if r.Kind == "" || r.Turns < 1 || r.Turns > 25 {
			t.Fatalf("bad result: %+v", r)
		}
	}
	if serial.Defects != 0 {
		t.Fatalf("defects=%d", serial.Defects)
	}
}

func TestRunBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := batchConfig{Games: 3, Workers: 1, Start: world.StartParams{GridSize: 12, MaxTurns: 5, Teams: []world.TeamSpec{{ID: "red"}}}}
	if _, err := runBatch(ctx, cfg, catalogs.Default(), tuning.Defaults()); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestSummaryFormat(t *testing.T) {
	s := summary{
		Games: 3, Turns: 12000, Actions: 2000, Fallbacks: 500, Draws: 1,
		Kinds: map[string]int{"DOMINANCE": 2, "TIME_LIMIT": 1},
		Wins:  map[string]int{"red": 2},
	}
	out := s.Format()
	for _, want := range []string{"turns=12,000", "fallbacks=500 (25%)", "DOMINANCE", "red", "(draw)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}
