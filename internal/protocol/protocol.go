// Package protocol holds the JSON wire types shared by the HTTP and
// stream transports, the E_* error codes and the embedded JSON Schemas
// that incoming payloads are checked against.
package protocol

import (
	"encoding/json"
	"strings"
)

const Version = "1.0"

// Message types.
const (
	TypeStart     = "START"
	TypeState     = "STATE"
	TypeTurn      = "TURN"
	TypeCatalogue = "CATALOGUE"
	TypeGames     = "GAMES"
	TypeError     = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// CompatibleVersion reports whether a client speaking v can talk to this
// server: the major version must match. An empty version is accepted.
func CompatibleVersion(v string) bool {
	if v == "" {
		return true
	}
	major, _, _ := strings.Cut(v, ".")
	want, _, _ := strings.Cut(Version, ".")
	return major == want
}
