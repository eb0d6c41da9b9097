// Package snapshot stores a full game state as a zstd-compressed gob
// stream preceded by a one-line JSON header.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	GameID  string `json:"game_id"`
	Turn    int    `json:"turn"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed     uint64 `json:"seed"`
	RNG      []byte `json:"rng"`
	GridSize int    `json:"grid_size"`
	MaxTurns int    `json:"max_turns"`
	Phase    string `json:"phase"`

	Teams       []TeamV1       `json:"teams"`
	Points      []PointV1      `json:"points"`
	Lines       []LineV1       `json:"lines"`
	Territories []TerritoryV1  `json:"territories"`
	Structures  []StructureV1  `json:"structures"`
	Stasis      map[string]int `json:"stasis,omitempty"`
	Fields      []FieldV1      `json:"fields,omitempty"`

	Victory        *VictoryV1 `json:"victory,omitempty"`
	DominanceTeam  string     `json:"dominance_team,omitempty"`
	DominanceTurns int        `json:"dominance_turns,omitempty"`

	Log []LogEntryV1 `json:"log,omitempty"`

	Counters CountersV1 `json:"counters"`
}

type TeamV1 struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Trait string `json:"trait"`
}

type PointV1 struct {
	ID     string `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	TeamID string `json:"team_id"`
}

type LineV1 struct {
	ID       string `json:"id"`
	P1       string `json:"p1"`
	P2       string `json:"p2"`
	TeamID   string `json:"team_id"`
	Shield   int    `json:"shield,omitempty"`
	Strength int    `json:"strength,omitempty"`
}

type TerritoryV1 struct {
	ID     string    `json:"id"`
	TeamID string    `json:"team_id"`
	Points [3]string `json:"points"`
}

// StructureV1 flattens every structure kind; unused fields stay zero.
type StructureV1 struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	TeamID    string     `json:"team_id"`
	PointIDs  []string   `json:"point_ids,omitempty"`
	Center    [2]float64 `json:"center,omitempty"`
	X         int        `json:"x,omitempty"`
	Y         int        `json:"y,omitempty"`
	Charge    int        `json:"charge,omitempty"`
	TurnsLeft int        `json:"turns_left,omitempty"`
}

// FieldV1 flattens fissures, barricades, scorched zones, whirlpools and
// rift traps.
type FieldV1 struct {
	ID        string       `json:"id"`
	Kind      string       `json:"kind"`
	TeamID    string       `json:"team_id,omitempty"`
	Points    [][2]float64 `json:"points,omitempty"`
	Radius    float64      `json:"radius,omitempty"`
	Swirl     float64      `json:"swirl,omitempty"`
	TurnsLeft int          `json:"turns_left"`
}

type VictoryV1 struct {
	Kind        string `json:"kind"`
	TeamID      string `json:"team_id,omitempty"`
	Turn        int    `json:"turn"`
	Description string `json:"description"`
}

type LogEntryV1 struct {
	Turn     int    `json:"turn"`
	TeamID   string `json:"team_id,omitempty"`
	ActionID string `json:"action_id,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
	Message  string `json:"message"`
	Defect   bool   `json:"defect,omitempty"`
}

type CountersV1 struct {
	NextPoint     uint64 `json:"next_point"`
	NextLine      uint64 `json:"next_line"`
	NextTerritory uint64 `json:"next_territory"`
	NextStructure uint64 `json:"next_structure"`
	NextEffect    uint64 `json:"next_effect"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 64*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader decodes only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	return h, nil
}
