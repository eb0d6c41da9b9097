package protocol

import "encoding/json"

// START (client -> server)
type StartRequest struct {
	Type            string      `json:"type,omitempty"`
	ProtocolVersion string      `json:"protocol_version,omitempty"`
	GridSize        int         `json:"grid_size"`
	MaxTurns        int         `json:"max_turns"`
	Seed            uint64      `json:"seed,omitempty"`
	Teams           []TeamSetup `json:"teams"`
}

type TeamSetup struct {
	ID     string   `json:"id"`
	Name   string   `json:"name,omitempty"`
	Color  string   `json:"color,omitempty"`
	Trait  string   `json:"trait,omitempty"`
	Points [][2]int `json:"points,omitempty"`
}

// STATE (server -> client). State carries the game view as produced by
// the world.
type StateMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	State           any    `json:"state"`
}

// TURN (server -> client), one per advanced turn.
type TurnMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	GameID          string `json:"game_id"`
	Report          any    `json:"report"`
	Finished        bool   `json:"finished,omitempty"`
}

// CATALOGUE (server -> client)
type CatalogueMsg struct {
	Type            string           `json:"type"`
	ProtocolVersion string           `json:"protocol_version"`
	Digest          string           `json:"digest"`
	Actions         []CatalogueEntry `json:"actions"`
}

type CatalogueEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Group       string `json:"group"`
	Description string `json:"description"`
}

// GAMES (server -> client), the finished-game index.
type GamesMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Games           any    `json:"games"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(code, msg string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: msg}
}

func NewState(view any) StateMsg {
	return StateMsg{Type: TypeState, ProtocolVersion: Version, State: view}
}

func NewTurn(gameID string, report any, finished bool) TurnMsg {
	return TurnMsg{Type: TypeTurn, ProtocolVersion: Version, GameID: gameID, Report: report, Finished: finished}
}

// Marshal is json.Marshal for messages whose payloads are known to encode.
func Marshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(NewError(ErrInternal, err.Error()))
	}
	return b
}
