package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	persistlog "runegrid.ai/internal/persistence/log"
	"runegrid.ai/internal/persistence/snapshot"
	"runegrid.ai/internal/sim/catalogs"
	"runegrid.ai/internal/sim/tuning"
	"runegrid.ai/internal/sim/world"
)

var errStop = errors.New("stop")

func main() {
	var (
		snapPath   = flag.String("snapshot", "", "path to .snap.zst")
		turnsDir   = flag.String("turns", "", "dir containing turns-*.jsonl.zst to verify digests against (optional)")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml the game ran with (default: <configs>/tuning.yaml)")
		runTurns   = flag.Int("run", 0, "re-run this many turns after the snapshot and print their digests")
		toTurn     = flag.Int("to_turn", 0, "stop verifying at turn (inclusive, optional)")
	)
	flag.Parse()

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	var size uint64
	if fi, err := os.Stat(*snapPath); err == nil {
		size = uint64(fi.Size())
	}
	fmt.Println(summarize(snap, size))

	if *turnsDir == "" && *runTurns <= 0 {
		return
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tp := *tuningPath
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}

	w, err := world.New(world.WorldConfig{Seed: snap.Seed, Tuning: tune}, cats, log.New(io.Discard, "", 0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}
	if err := w.ImportSnapshot(snap); err != nil {
		fmt.Fprintln(os.Stderr, "import snapshot:", err)
		os.Exit(1)
	}

	if *turnsDir != "" {
		files, err := listTurnFiles(*turnsDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "list turns:", err)
			os.Exit(1)
		}
		if len(files) == 0 {
			fmt.Fprintln(os.Stderr, "no turn files found in", *turnsDir)
			os.Exit(1)
		}
		checked, err := verifyTurns(w, files, snap.Header.GameID, snap.Header.Turn, *toTurn)
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
		fmt.Printf("replay ok: checked=%s turns (from snapshot turn=%d)\n", humanize.Comma(int64(checked)), snap.Header.Turn)
		return
	}

	for i := 0; i < *runTurns; i++ {
		turn, digest, err := w.StepOnce()
		if err != nil {
			fmt.Printf("stopped: %v\n", err)
			break
		}
		fmt.Printf("turn %d %s\n", turn, digest)
	}
}

func summarize(snap snapshot.SnapshotV1, size uint64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "snapshot v%d game=%s turn=%d/%d phase=%s seed=%d grid=%d",
		snap.Header.Version, snap.Header.GameID, snap.Header.Turn, snap.MaxTurns, snap.Phase, snap.Seed, snap.GridSize)
	if size > 0 {
		fmt.Fprintf(&b, " size=%s", humanize.Bytes(size))
	}
	fmt.Fprintf(&b, "\n  teams=%d points=%s lines=%s territories=%s structures=%d fields=%d log=%s",
		len(snap.Teams),
		humanize.Comma(int64(len(snap.Points))),
		humanize.Comma(int64(len(snap.Lines))),
		humanize.Comma(int64(len(snap.Territories))),
		len(snap.Structures), len(snap.Fields),
		humanize.Comma(int64(len(snap.Log))))
	if v := snap.Victory; v != nil {
		fmt.Fprintf(&b, "\n  victory=%s team=%s turn=%d: %s", v.Kind, v.TeamID, v.Turn, v.Description)
	}
	return b.String()
}

func listTurnFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "turns-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// verifyTurns steps w once for every logged turn of gameID after
// startTurn and compares digests. It returns the number of turns checked.
func verifyTurns(w *world.World, files []string, gameID string, startTurn, toTurn int) (int, error) {
	checked := 0
	for _, path := range files {
		err := persistlog.ReadJSONL(path, func(line []byte) error {
			var entry world.TurnLogEntry
			if err := json.Unmarshal(line, &entry); err != nil {
				return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
			}
			if entry.GameID != gameID || entry.Turn <= startTurn {
				return nil
			}
			if toTurn != 0 && entry.Turn > toTurn {
				return errStop
			}
			turn, digest, err := w.StepOnce()
			if err != nil {
				return fmt.Errorf("turn %d: %w", entry.Turn, err)
			}
			if turn != entry.Turn {
				return fmt.Errorf("turn mismatch: stepped=%d entry=%d (file=%s)", turn, entry.Turn, filepath.Base(path))
			}
			if digest != entry.Digest {
				return fmt.Errorf("digest mismatch at turn %d: got=%s want=%s", turn, digest, entry.Digest)
			}
			checked++
			return nil
		})
		if errors.Is(err, errStop) {
			break
		}
		if err != nil {
			return checked, err
		}
	}
	return checked, nil
}
