package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"runegrid.ai/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional; defaults to <data>/index/games.sqlite)")
	gameID := fs.String("game", "", "game id (required for game and turns)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "games"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "games.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}

	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	if err := runQuery(context.Background(), idx, os.Stdout, q, *gameID, *limit); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data|-db PATH] [-game ID] [-limit N] games|game|turns|teams|actions|snapshots")
		os.Exit(2)
	}
}

func runQuery(ctx context.Context, idx *indexdb.SQLiteIndex, out io.Writer, q, gameID string, limit int) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	emit := func(rows any, err error) error {
		if err != nil {
			return fmt.Errorf("query %s: %w", q, err)
		}
		return enc.Encode(rows)
	}
	switch q {
	case "games":
		return emit(idx.RecentGames(ctx, limit))
	case "game":
		if gameID == "" {
			return fmt.Errorf("query %s: missing -game", q)
		}
		return emit(idx.Game(ctx, gameID))
	case "turns":
		if gameID == "" {
			return fmt.Errorf("query %s: missing -game", q)
		}
		return emit(idx.GameTurns(ctx, gameID))
	case "teams":
		return emit(idx.TeamRecords(ctx))
	case "actions":
		return emit(idx.ActionCounts(ctx))
	case "snapshots":
		return emit(idx.Snapshots(ctx, gameID, limit))
	default:
		return fmt.Errorf("unknown query: %s", q)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
