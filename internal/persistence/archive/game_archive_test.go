package archive

import (
	"os"
	"path/filepath"
	"testing"

	"runegrid.ai/internal/persistence/snapshot"
)

func writeDummy(t *testing.T, path string) []byte {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	want := []byte("dummy")
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return want
}

func TestArchiveFinishedGame_CopiesFinalSnapshot(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snapshots", "g1", "000040.snap.zst")
	want := writeDummy(t, src)

	snap := snapshot.SnapshotV1{
		Header:   snapshot.Header{Version: 1, GameID: "g1", Turn: 40},
		Seed:     42,
		MaxTurns: 40,
		GridSize: 20,
		Phase:    "FINISHED",
		Teams:    []snapshot.TeamV1{{ID: "blue"}, {ID: "red"}},
		Victory:  &snapshot.VictoryV1{Kind: "TIME_LIMIT", TeamID: "red", Turn: 40, Description: "red led"},
	}
	archivedPath, ok, err := ArchiveFinishedGame(dir, src, snap)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !ok {
		t.Fatalf("expected archived=true")
	}
	if archivedPath != filepath.Join(dir, "archives", "g1", "000040.snap.zst") {
		t.Fatalf("archived path %q", archivedPath)
	}
	got, err := os.ReadFile(archivedPath)
	if err != nil {
		t.Fatalf("read archived: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("archived content mismatch: got=%q want=%q", got, want)
	}

	meta, err := ReadMeta(dir, "g1")
	if err != nil {
		t.Fatalf("ReadMeta: %v", err)
	}
	if meta.Winner != "red" || meta.VictoryKind != "TIME_LIMIT" || meta.FinalTurn != 40 || len(meta.Teams) != 2 || meta.Snapshot != "000040.snap.zst" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestArchiveFinishedGame_SkipsRunningGame(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "snapshots", "g2", "000010.snap.zst")
	writeDummy(t, src)

	snap := snapshot.SnapshotV1{Header: snapshot.Header{Version: 1, GameID: "g2", Turn: 10}, Phase: "RUNNING"}
	_, ok, err := ArchiveFinishedGame(dir, src, snap)
	if err != nil || ok {
		t.Fatalf("running game: archived=%v err=%v", ok, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "archives", "g2")); !os.IsNotExist(err) {
		t.Fatalf("expected no archive dir, stat err=%v", err)
	}
}
