package snapshot

import (
	"path/filepath"
	"reflect"
	"testing"
)

func sample() SnapshotV1 {
	return SnapshotV1{
		Header:   Header{Version: Version, GameID: "g1", Turn: 12},
		Seed:     99,
		RNG:      []byte{1, 2, 3},
		GridSize: 20,
		MaxTurns: 100,
		Phase:    "RUNNING",
		Teams:    []TeamV1{{ID: "red", Name: "Red", Color: "#f00", Trait: "Aggressive"}},
		Points:   []PointV1{{ID: "p1", X: 1, Y: 2, TeamID: "red"}, {ID: "p2", X: 4, Y: 2, TeamID: "red"}},
		Lines:    []LineV1{{ID: "l1", P1: "p1", P2: "p2", TeamID: "red", Shield: 2}},
		Structures: []StructureV1{
			{ID: "anchor_p1", Kind: "anchor", TeamID: "red", PointIDs: []string{"p1"}, TurnsLeft: 3},
		},
		Fields:   []FieldV1{{ID: "f1", Kind: "fissure", Points: [][2]float64{{0, 0}, {5, 5}}, TurnsLeft: 4}},
		Stasis:   map[string]int{"p2": 1},
		Log:      []LogEntryV1{{Turn: 12, TeamID: "red", ActionID: "expand_add", Message: "Red drew a line."}},
		Counters: CountersV1{NextPoint: 2, NextLine: 1, NextEffect: 1},
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snaps", "12.snap.zst")
	want := sample()
	if err := WriteSnapshot(path, want); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\ngot=%+v\nwant=%+v", got, want)
	}
	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h != want.Header {
		t.Fatalf("header=%+v want %+v", h, want.Header)
	}
}

func TestReadSnapshot_RejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.snap.zst")
	s := sample()
	s.Header.Version = 7
	if err := WriteSnapshot(path, s); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatalf("expected version error")
	}
}
