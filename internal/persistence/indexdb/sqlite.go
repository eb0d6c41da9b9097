// Package indexdb keeps a queryable SQLite index of games, turns and
// per-team action outcomes next to the JSONL turn logs. Writes go through
// a single writer goroutine; reads use sqlx on the same handle.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"runegrid.ai/internal/persistence/snapshot"
	"runegrid.ai/internal/sim/catalogs"
	"runegrid.ai/internal/sim/tuning"
	"runegrid.ai/internal/sim/world"
)

type SQLiteIndex struct {
	db *sqlx.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTurn     atomic.Uint64
	dropEvent    atomic.Uint64
	dropSnapshot atomic.Uint64
}

type reqKind int

const (
	reqTurn reqKind = iota + 1
	reqEvent
	reqSnapshot
)

type req struct {
	kind reqKind

	turn     world.TurnLogEntry
	event    world.GameEvent
	snapshot snapshotRow
	at       string
}

type snapshotRow struct {
	GameID     string
	Turn       int
	Path       string
	GridSize   int
	Teams      int
	Points     int
	Lines      int
	Structures int
}

// Stats reports writer queue pressure.
type Stats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropTurnTotal     uint64 `json:"drop_turn_total"`
	DropEventTotal    uint64 `json:"drop_event_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS games (
			game_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			teams TEXT NOT NULL,
			started_at TEXT NOT NULL,
			status TEXT NOT NULL,
			last_turn INTEGER NOT NULL DEFAULT 0,
			victory_kind TEXT NOT NULL DEFAULT '',
			winner TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			ended_at TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_games_started ON games(started_at);`,
		`CREATE TABLE IF NOT EXISTS turns (
			game_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			digest TEXT NOT NULL,
			events INTEGER NOT NULL,
			actions INTEGER NOT NULL,
			defects INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (game_id, turn)
		);`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			game_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			team_id TEXT NOT NULL,
			action_id TEXT NOT NULL,
			outcome TEXT NOT NULL,
			fallback INTEGER NOT NULL,
			defect INTEGER NOT NULL,
			PRIMARY KEY (game_id, turn, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_team ON outcomes(team_id, game_id);`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_action ON outcomes(action_id);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			game_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			path TEXT NOT NULL,
			grid_size INTEGER NOT NULL,
			teams INTEGER NOT NULL,
			points INTEGER NOT NULL,
			lines INTEGER NOT NULL,
			structures INTEGER NOT NULL,
			PRIMARY KEY (game_id, turn)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropTurnTotal:     s.dropTurn.Load(),
		DropEventTotal:    s.dropEvent.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// WriteTurn satisfies world.TurnLogger.
func (s *SQLiteIndex) WriteTurn(entry world.TurnLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTurn, turn: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		s.dropTurn.Add(1)
	}
	return nil
}

// WriteEvent satisfies world.EventLogger.
func (s *SQLiteIndex) WriteEvent(ev world.GameEvent) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqEvent, event: ev, at: now()}:
	default:
		s.dropEvent.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		GameID:     snap.Header.GameID,
		Turn:       snap.Header.Turn,
		Path:       path,
		GridSize:   snap.GridSize,
		Teams:      len(snap.Teams),
		Points:     len(snap.Points),
		Lines:      len(snap.Lines),
		Structures: len(snap.Structures),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

// UpsertCatalogs stores the action catalogue and the tuning in effect so
// indexed games can be interpreted later.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if b, _ := json.Marshal(cats.Actions.Defs); len(b) > 0 {
		rows = append(rows, kv{name: "actions", digest: cats.Actions.Digest, json: b})
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	at := now()
	for _, r := range rows {
		if r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), at); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertGame, _ := s.db.Prepare(`INSERT OR REPLACE INTO games(game_id,seed,teams,started_at,status) VALUES(?,?,?,?,'RUNNING')`)
	finishGame, _ := s.db.Prepare(`UPDATE games SET status=?, last_turn=?, victory_kind=?, winner=?, description=?, ended_at=? WHERE game_id=? AND status='RUNNING'`)
	insertTurn, _ := s.db.Prepare(`INSERT OR REPLACE INTO turns(game_id,turn,digest,events,actions,defects,raw_json) VALUES(?,?,?,?,?,?,?)`)
	touchGame, _ := s.db.Prepare(`UPDATE games SET last_turn=? WHERE game_id=?`)
	insertOutcome, _ := s.db.Prepare(`INSERT OR REPLACE INTO outcomes(game_id,turn,seq,team_id,action_id,outcome,fallback,defect) VALUES(?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(game_id,turn,path,grid_size,teams,points,lines,structures) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertGame, finishGame, insertTurn, touchGame, insertOutcome, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil || tx == nil {
			return false
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqEvent:
			ev := r.event
			switch ev.Kind {
			case "START":
				teams, _ := json.Marshal(ev.Teams)
				exec(insertGame, ev.GameID, int64(ev.Seed), string(teams), r.at)
			case "FINISH":
				kind, winner, desc := "", "", ""
				if ev.Victory != nil {
					kind, winner, desc = string(ev.Victory.Kind), ev.Victory.TeamID, ev.Victory.Description
				}
				exec(finishGame, "FINISHED", ev.Turn, kind, winner, desc, r.at, ev.GameID)
			case "RESET":
				exec(finishGame, "ABANDONED", ev.Turn, "", "", "", r.at, ev.GameID)
			}

		case reqTurn:
			e := r.turn
			defects := 0
			for _, a := range e.Actions {
				if a.Defect {
					defects++
				}
			}
			raw, _ := json.Marshal(e)
			if !exec(insertTurn, e.GameID, e.Turn, e.Digest, len(e.Events), len(e.Actions), defects, string(raw)) {
				continue
			}
			if !exec(touchGame, e.Turn, e.GameID) {
				continue
			}
			for i, a := range e.Actions {
				if !exec(insertOutcome, e.GameID, e.Turn, i, a.TeamID, a.ActionID, a.Outcome, boolInt(a.Fallback), boolInt(a.Defect)) {
					break
				}
			}

		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, sn.GameID, sn.Turn, sn.Path, sn.GridSize, sn.Teams, sn.Points, sn.Lines, sn.Structures)
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
