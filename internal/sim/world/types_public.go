package world

import (
	"errors"

	"runegrid.ai/internal/sim/state"
	"runegrid.ai/internal/sim/turn"
)

var (
	ErrInvalidParams = errors.New("invalid start parameters")
	ErrNotRunning    = errors.New("game is not running")
	ErrGameFinished  = errors.New("game is finished")
)

// Parameter bounds accepted by StartGame.
const (
	MinGridSize = 10
	MaxGridSize = 100
	MinTurns    = 1
	MaxTurns    = 5000
)

// TeamSpec describes one team at game start. Points may be empty, in
// which case a default layout is generated.
type TeamSpec struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Color  string   `json:"color"`
	Trait  string   `json:"trait"`
	Points [][2]int `json:"points,omitempty"`
}

type StartParams struct {
	Teams    []TeamSpec `json:"teams"`
	GridSize int        `json:"grid_size"`
	MaxTurns int        `json:"max_turns"`
	// Seed overrides the configured seed when non-zero.
	Seed uint64 `json:"seed,omitempty"`
}

type TurnLogger interface {
	WriteTurn(entry TurnLogEntry) error
}

type EventLogger interface {
	WriteEvent(entry GameEvent) error
}

// RecordedAction is one team's resolved action within a turn.
type RecordedAction struct {
	TeamID   string `json:"team_id"`
	ActionID string `json:"action_id,omitempty"`
	Outcome  string `json:"outcome"`
	Fallback bool   `json:"fallback,omitempty"`
	Defect   bool   `json:"defect,omitempty"`
	Message  string `json:"message"`
}

type TurnLogEntry struct {
	GameID  string           `json:"game_id"`
	Turn    int              `json:"turn"`
	Events  []turn.Event     `json:"events,omitempty"`
	Actions []RecordedAction `json:"actions,omitempty"`
	Victory *state.Victory   `json:"victory,omitempty"`
	Digest  string           `json:"digest"`
}

// GameEvent marks a game lifecycle transition.
type GameEvent struct {
	GameID  string         `json:"game_id"`
	Kind    string         `json:"kind"` // START, FINISH, RESET
	Turn    int            `json:"turn"`
	Seed    uint64         `json:"seed,omitempty"`
	Teams   []string       `json:"teams,omitempty"`
	Victory *state.Victory `json:"victory,omitempty"`
}

// TurnReport is what AdvanceTurn returns to the caller.
type TurnReport struct {
	Turn    int              `json:"turn"`
	Events  []turn.Event     `json:"events,omitempty"`
	Actions []RecordedAction `json:"actions"`
	Victory *state.Victory   `json:"victory,omitempty"`
	Digest  string           `json:"digest"`
}
