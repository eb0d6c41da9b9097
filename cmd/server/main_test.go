package main

import (
	"io"
	"log"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"runegrid.ai/internal/persistence/snapshot"
	"runegrid.ai/internal/sim/world"
)

func TestLatestSnapshot_PicksNewest(t *testing.T) {
	dir := t.TempDir()
	if got := latestSnapshot(dir); got != "" {
		t.Fatalf("empty data dir: got %q", got)
	}
	older := snapshotPath(dir, snapshot.Header{GameID: "g1", Turn: 10})
	newer := snapshotPath(dir, snapshot.Header{GameID: "g2", Turn: 3})
	for _, p := range []string{older, newer} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	now := time.Now()
	if err := os.Chtimes(older, now.Add(-time.Hour), now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(filepath.Dir(newer), "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := latestSnapshot(dir); got != newer {
		t.Fatalf("got=%q want=%q", got, newer)
	}
}

func TestSnapshotPath_Layout(t *testing.T) {
	got := snapshotPath("/data", snapshot.Header{GameID: "abc", Turn: 42})
	if want := filepath.Join("/data", "snapshots", "abc", "000042.snap.zst"); got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
	if got := snapshotPath("/data", snapshot.Header{}); !strings.Contains(got, "unstarted") {
		t.Fatalf("empty game id: %q", got)
	}
}

type countingTurnLogger struct{ n int }

func (c *countingTurnLogger) WriteTurn(world.TurnLogEntry) error { c.n++; return nil }

func TestMultiTurnLogger_FansOut(t *testing.T) {
	a, b := &countingTurnLogger{}, &countingTurnLogger{}
	_ = multiTurnLogger{a: a, b: b}.WriteTurn(world.TurnLogEntry{Turn: 1})
	_ = multiTurnLogger{a: a}.WriteTurn(world.TurnLogEntry{Turn: 2})
	if a.n != 2 || b.n != 1 {
		t.Fatalf("a=%d b=%d", a.n, b.n)
	}
}

func TestMetricsHandler_ExposesGauges(t *testing.T) {
	w, err := world.New(world.WorldConfig{Seed: 1}, nil, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	if _, err := w.StartGame(world.StartParams{GridSize: 12, MaxTurns: 5, Teams: []world.TeamSpec{{ID: "red"}, {ID: "blue"}}}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if _, err := w.AdvanceTurn(); err != nil {
		t.Fatalf("AdvanceTurn: %v", err)
	}
	rec := httptest.NewRecorder()
	metricsHandler(w, "arena", nil)(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`runegrid_game_turn{world="arena"} 1`,
		`runegrid_game_running{world="arena"} 1`,
		`runegrid_stats_window{world="arena",metric="actions"}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5000": true,
		"[::1]:80":       true,
		"10.0.0.2:80":    false,
		"garbage":        false,
	}
	for in, want := range cases {
		if got := isLoopbackRemote(in); got != want {
			t.Fatalf("%s: got=%v want=%v", in, got, want)
		}
	}
}
