package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"runegrid.ai/internal/persistence/indexdb"
	"runegrid.ai/internal/persistence/snapshot"
	"runegrid.ai/internal/sim/world"
)

func TestListSnapshotDirs(t *testing.T) {
	dir := t.TempDir()
	write := func(rel string, size int) {
		p := filepath.Join(dir, "snapshots", rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, make([]byte, size), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("g2/000010.snap.zst", 100)
	write("g2/000020.snap.zst", 50)
	write("g2/notes.txt", 7)
	write("g1/000005.snap.zst", 10)
	if err := os.MkdirAll(filepath.Dir(filepath.Join(dir, "snapshots", "empty", "x")), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := listSnapshotDirs(dir)
	if err != nil {
		t.Fatalf("listSnapshotDirs: %v", err)
	}
	want := []snapshotDir{
		{GameID: "g1", Count: 1, Bytes: 10, Latest: "000005.snap.zst"},
		{GameID: "g2", Count: 2, Bytes: 150, Latest: "000020.snap.zst"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dir %d: got=%+v want=%+v", i, got[i], want[i])
		}
	}
}

func TestRunQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.sqlite")
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	_ = idx.WriteEvent(world.GameEvent{GameID: "g1", Kind: "START", Seed: 4, Teams: []string{"red"}})
	_ = idx.WriteTurn(world.TurnLogEntry{GameID: "g1", Turn: 1, Digest: "d1"})
	idx.RecordSnapshot("/data/snapshots/g1/000001.snap.zst", snapshot.SnapshotV1{Header: snapshot.Header{GameID: "g1", Turn: 1}})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	idx, err = indexdb.OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	ctx := context.Background()

	var buf bytes.Buffer
	if err := runQuery(ctx, idx, &buf, "games", "", 10); err != nil {
		t.Fatalf("games: %v", err)
	}
	var games []indexdb.GameRow
	if err := json.Unmarshal(buf.Bytes(), &games); err != nil || len(games) != 1 || games[0].GameID != "g1" {
		t.Fatalf("games output %s err=%v", buf.String(), err)
	}

	buf.Reset()
	if err := runQuery(ctx, idx, &buf, "turns", "g1", 10); err != nil {
		t.Fatalf("turns: %v", err)
	}
	var turns []indexdb.TurnRow
	if err := json.Unmarshal(buf.Bytes(), &turns); err != nil || len(turns) != 1 || turns[0].Digest != "d1" {
		t.Fatalf("turns output %s err=%v", buf.String(), err)
	}

	buf.Reset()
	if err := runQuery(ctx, idx, &buf, "snapshots", "", 10); err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	var snaps []indexdb.SnapshotRow
	if err := json.Unmarshal(buf.Bytes(), &snaps); err != nil || len(snaps) != 1 || snaps[0].Turn != 1 {
		t.Fatalf("snapshots output %s err=%v", buf.String(), err)
	}

	if err := runQuery(ctx, idx, &buf, "turns", "", 10); err == nil {
		t.Fatalf("expected missing -game error")
	}
	if err := runQuery(ctx, idx, &buf, "bogus", "", 10); err == nil {
		t.Fatalf("expected unknown query error")
	}
}
