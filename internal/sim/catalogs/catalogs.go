// Package catalogs holds the static, human-facing metadata of the game:
// action names, display groups and descriptions. It carries no logic.
package catalogs

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

//go:embed actions.json
var embeddedActions []byte

type Catalogs struct {
	Actions ActionCatalog
}

type ActionCatalog struct {
	Defs   []ActionDef
	ByID   map[string]ActionDef
	Digest string
}

type ActionDef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Group       string `json:"group"`
	Description string `json:"description"`
}

// Load reads configDir/actions.json when present and falls back to the
// embedded catalogue otherwise. An empty configDir always uses the
// embedded copy.
func Load(configDir string) (*Catalogs, error) {
	raw := embeddedActions
	if configDir != "" {
		b, err := os.ReadFile(filepath.Join(configDir, "actions.json"))
		switch {
		case err == nil:
			raw = b
		case !os.IsNotExist(err):
			return nil, err
		}
	}
	var c Catalogs
	if err := parseActions(raw, &c.Actions); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the embedded catalogue.
func Default() *Catalogs {
	c, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("embedded action catalogue: %v", err))
	}
	return c
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func parseActions(raw []byte, out *ActionCatalog) error {
	out.Digest = sha256Hex(raw)
	var defs []ActionDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("actions.json: %w", err)
	}
	out.ByID = make(map[string]ActionDef, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("actions.json: entry without id")
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("actions.json: duplicate id %s", d.ID)
		}
		out.ByID[d.ID] = d
	}
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Group != defs[j].Group {
			return defs[i].Group < defs[j].Group
		}
		return defs[i].ID < defs[j].ID
	})
	out.Defs = defs
	return nil
}

// Lookup returns the display metadata for an action id.
func (c *Catalogs) Lookup(id string) (ActionDef, bool) {
	if c == nil {
		return ActionDef{}, false
	}
	d, ok := c.Actions.ByID[id]
	return d, ok
}
