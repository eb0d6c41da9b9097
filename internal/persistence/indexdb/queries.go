package indexdb

import "context"

type GameRow struct {
	GameID      string `db:"game_id" json:"game_id"`
	Seed        int64  `db:"seed" json:"seed"`
	Teams       string `db:"teams" json:"teams"`
	StartedAt   string `db:"started_at" json:"started_at"`
	Status      string `db:"status" json:"status"`
	LastTurn    int    `db:"last_turn" json:"last_turn"`
	VictoryKind string `db:"victory_kind" json:"victory_kind,omitempty"`
	Winner      string `db:"winner" json:"winner,omitempty"`
	Description string `db:"description" json:"description,omitempty"`
	EndedAt     string `db:"ended_at" json:"ended_at,omitempty"`
}

type TurnRow struct {
	GameID  string `db:"game_id" json:"game_id"`
	Turn    int    `db:"turn" json:"turn"`
	Digest  string `db:"digest" json:"digest"`
	Events  int    `db:"events" json:"events"`
	Actions int    `db:"actions" json:"actions"`
	Defects int    `db:"defects" json:"defects"`
}

// TeamRecord aggregates one team id across every indexed game.
type TeamRecord struct {
	TeamID    string `db:"team_id" json:"team_id"`
	Games     int    `db:"games" json:"games"`
	Wins      int    `db:"wins" json:"wins"`
	Actions   int    `db:"actions" json:"actions"`
	Fallbacks int    `db:"fallbacks" json:"fallbacks"`
	Defects   int    `db:"defects" json:"defects"`
}

type ActionCount struct {
	ActionID  string `db:"action_id" json:"action_id"`
	Count     int    `db:"n" json:"count"`
	Fallbacks int    `db:"fallbacks" json:"fallbacks"`
}

// RecentGames lists games newest first.
func (s *SQLiteIndex) RecentGames(ctx context.Context, limit int) ([]GameRow, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []GameRow
	err := s.db.SelectContext(ctx, &out, `SELECT game_id,seed,teams,started_at,status,last_turn,victory_kind,winner,description,ended_at
		FROM games ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	return out, err
}

func (s *SQLiteIndex) Game(ctx context.Context, gameID string) (GameRow, error) {
	var g GameRow
	err := s.db.GetContext(ctx, &g, `SELECT game_id,seed,teams,started_at,status,last_turn,victory_kind,winner,description,ended_at
		FROM games WHERE game_id=?`, gameID)
	return g, err
}

func (s *SQLiteIndex) GameTurns(ctx context.Context, gameID string) ([]TurnRow, error) {
	var out []TurnRow
	err := s.db.SelectContext(ctx, &out, `SELECT game_id,turn,digest,events,actions,defects
		FROM turns WHERE game_id=? ORDER BY turn`, gameID)
	return out, err
}

// TeamRecords aggregates outcomes per team id, sorted by id.
func (s *SQLiteIndex) TeamRecords(ctx context.Context) ([]TeamRecord, error) {
	var out []TeamRecord
	err := s.db.SelectContext(ctx, &out, `SELECT o.team_id AS team_id,
			COUNT(DISTINCT o.game_id) AS games,
			(SELECT COUNT(*) FROM games g WHERE g.winner = o.team_id) AS wins,
			COUNT(*) AS actions,
			COALESCE(SUM(o.fallback), 0) AS fallbacks,
			COALESCE(SUM(o.defect), 0) AS defects
		FROM outcomes o
		GROUP BY o.team_id
		ORDER BY o.team_id`)
	return out, err
}

// ActionCounts reports how often each action ran, most frequent first.
func (s *SQLiteIndex) ActionCounts(ctx context.Context) ([]ActionCount, error) {
	var out []ActionCount
	err := s.db.SelectContext(ctx, &out, `SELECT action_id, COUNT(*) AS n, COALESCE(SUM(fallback), 0) AS fallbacks
		FROM outcomes WHERE action_id <> ''
		GROUP BY action_id
		ORDER BY n DESC, action_id`)
	return out, err
}

type SnapshotRow struct {
	GameID     string `db:"game_id" json:"game_id"`
	Turn       int    `db:"turn" json:"turn"`
	Path       string `db:"path" json:"path"`
	GridSize   int    `db:"grid_size" json:"grid_size"`
	Teams      int    `db:"teams" json:"teams"`
	Points     int    `db:"points" json:"points"`
	Lines      int    `db:"lines" json:"lines"`
	Structures int    `db:"structures" json:"structures"`
}

// Snapshots lists recorded snapshots newest first. An empty gameID
// matches every game.
func (s *SQLiteIndex) Snapshots(ctx context.Context, gameID string, limit int) ([]SnapshotRow, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []SnapshotRow
	err := s.db.SelectContext(ctx, &out, `SELECT game_id,turn,path,grid_size,teams,points,lines,structures
		FROM snapshots WHERE (? = '' OR game_id = ?) ORDER BY rowid DESC LIMIT ?`, gameID, gameID, limit)
	return out, err
}
