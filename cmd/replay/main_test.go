package main

import (
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"

	persistlog "runegrid.ai/internal/persistence/log"
	"runegrid.ai/internal/persistence/snapshot"
	"runegrid.ai/internal/sim/state"
	"runegrid.ai/internal/sim/world"
)

func TestVerifyTurns_MatchesRecordedGame(t *testing.T) {
	dir := t.TempDir()
	w, err := world.New(world.WorldConfig{Seed: 77}, nil, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	turnLog := persistlog.NewTurnLogger(dir)
	w.SetTurnLogger(turnLog)
	if _, err := w.StartGame(world.StartParams{GridSize: 18, MaxTurns: 40, Teams: []world.TeamSpec{{ID: "red"}, {ID: "blue"}, {ID: "gold"}}}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	for i := 0; i < 5 && w.Phase() == state.PhaseRunning; i++ {
		if _, err := w.AdvanceTurn(); err != nil {
			t.Fatalf("AdvanceTurn: %v", err)
		}
	}
	snapTurn := w.Snapshot().Turn
	snapPath := filepath.Join(dir, "snap.zst")
	if err := snapshot.WriteSnapshot(snapPath, w.ExportSnapshot()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	for w.Phase() == state.PhaseRunning {
		if _, err := w.AdvanceTurn(); err != nil {
			t.Fatalf("AdvanceTurn: %v", err)
		}
	}
	if err := turnLog.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	snap, err := snapshot.ReadSnapshot(snapPath)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	files, err := listTurnFiles(filepath.Join(dir, "turns"))
	if err != nil || len(files) == 0 {
		t.Fatalf("listTurnFiles: %v (%d files)", err, len(files))
	}

	replayed, err := world.New(world.WorldConfig{Seed: snap.Seed}, nil, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	if err := replayed.ImportSnapshot(snap); err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}
	checked, err := verifyTurns(replayed, files, snap.Header.GameID, snap.Header.Turn, 0)
	if err != nil {
		t.Fatalf("verifyTurns: %v", err)
	}
	if want := w.Snapshot().Turn - snapTurn; checked != want {
		t.Fatalf("checked=%d want=%d", checked, want)
	}
}

func TestSummarize(t *testing.T) {
	snap := snapshot.SnapshotV1{
		Header:   snapshot.Header{Version: 1, GameID: "g", Turn: 12},
		MaxTurns: 100,
		Phase:    "FINISHED",
		GridSize: 30,
		Points:   make([]snapshot.PointV1, 1500),
		Victory:  &snapshot.VictoryV1{Kind: "DOMINANCE", TeamID: "red", Turn: 12, Description: "red stood alone"},
	}
	out := summarize(snap, 2048)
	for _, want := range []string{"game=g turn=12/100", "points=1,500", "size=2.0 kB", "victory=DOMINANCE team=red"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}
