package archive

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"runegrid.ai/internal/persistence/snapshot"
)

type GameArchiveMeta struct {
	GameID      string   `json:"game_id"`
	Seed        uint64   `json:"seed"`
	FinalTurn   int      `json:"final_turn"`
	MaxTurns    int      `json:"max_turns"`
	GridSize    int      `json:"grid_size"`
	Teams       []string `json:"teams"`
	VictoryKind string   `json:"victory_kind"`
	Winner      string   `json:"winner,omitempty"`
	Description string   `json:"description"`
	Snapshot    string   `json:"snapshot"`
	CreatedAt   string   `json:"created_at"`
}

// ArchiveFinishedGame copies the final snapshot of a finished game into
// `dataDir/archives/<game_id>/` next to a meta.json describing the outcome.
// Snapshots of games still in progress are ignored (archived=false).
func ArchiveFinishedGame(dataDir, snapshotPath string, snap snapshot.SnapshotV1) (archivedPath string, archived bool, err error) {
	if snap.Phase != "FINISHED" || snap.Victory == nil || snap.Header.GameID == "" {
		return "", false, nil
	}

	archiveDir := filepath.Join(dataDir, "archives", snap.Header.GameID)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta := GameArchiveMeta{
		GameID:      snap.Header.GameID,
		Seed:        snap.Seed,
		FinalTurn:   snap.Header.Turn,
		MaxTurns:    snap.MaxTurns,
		GridSize:    snap.GridSize,
		VictoryKind: snap.Victory.Kind,
		Winner:      snap.Victory.TeamID,
		Description: snap.Victory.Description,
		Snapshot:    filepath.Base(dst),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, t := range snap.Teams {
		meta.Teams = append(meta.Teams, t.ID)
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", false, err
	}
	if err := os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644); err != nil {
		return "", false, err
	}
	return dst, true, nil
}

// ReadMeta loads the meta.json of an archived game.
func ReadMeta(dataDir, gameID string) (GameArchiveMeta, error) {
	var m GameArchiveMeta
	b, err := os.ReadFile(filepath.Join(dataDir, "archives", gameID, "meta.json"))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
