package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"runegrid.ai/internal/persistence/archive"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "archives":
			archivesCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd prints every game that has snapshots on disk with its snapshot
// count and total size.
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	games, err := listSnapshotDirs(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, g := range games {
		fmt.Printf("%s\tsnapshots=%d\tsize=%s\tlatest=%s\n", g.GameID, g.Count, humanize.Bytes(g.Bytes), g.Latest)
	}
}

type snapshotDir struct {
	GameID string
	Count  int
	Bytes  uint64
	Latest string
}

func listSnapshotDirs(dataDir string) ([]snapshotDir, error) {
	root := filepath.Join(dataDir, "snapshots")
	ents, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []snapshotDir
	for _, e := range ents {
		if !e.IsDir() {
			continue
		}
		d := snapshotDir{GameID: e.Name()}
		files, err := os.ReadDir(filepath.Join(root, e.Name()))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".snap.zst") {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue
			}
			d.Count++
			d.Bytes += uint64(info.Size())
			// Names are zero-padded turns, so the lexical max is the latest.
			if f.Name() > d.Latest {
				d.Latest = f.Name()
			}
		}
		if d.Count > 0 {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out, nil
}

func archivesCmd(args []string) {
	fs := flag.NewFlagSet("archives", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	ents, err := os.ReadDir(filepath.Join(*dataDir, "archives"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range ents {
		if !e.IsDir() {
			continue
		}
		m, err := archive.ReadMeta(*dataDir, e.Name())
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", e.Name(), err)
			continue
		}
		printJSON(m)
	}
}
