package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"runegrid.ai/internal/persistence/indexdb"
	"runegrid.ai/internal/persistence/snapshot"
	"runegrid.ai/internal/sim/catalogs"
	"runegrid.ai/internal/sim/tuning"
	"runegrid.ai/internal/sim/world"
)

type runtimeIndex interface {
	world.TurnLogger
	world.EventLogger
	Close() error
	UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
	Stats() indexdb.Stats
}

// openRuntimeIndex returns the concrete *indexdb.SQLiteIndex alongside the
// interface so the HTTP layer can query it; both are nil when indexing is
// off.
func openRuntimeIndex(dataDir string, disableDB bool) (runtimeIndex, *indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil, nil
	}
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("RG_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}
	switch backend {
	case "none", "off", "disabled":
		return nil, nil, nil
	case "sqlite":
		idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "index", "games.sqlite"))
		if err != nil {
			return nil, nil, err
		}
		return idx, idx, nil
	default:
		return nil, nil, fmt.Errorf("unsupported RG_INDEX_BACKEND: %s", backend)
	}
}

type multiTurnLogger struct {
	a world.TurnLogger
	b world.TurnLogger
}

func (m multiTurnLogger) WriteTurn(entry world.TurnLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTurn(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTurn(entry)
	}
	return nil
}

type multiEventLogger struct {
	a world.EventLogger
	b world.EventLogger
}

func (m multiEventLogger) WriteEvent(entry world.GameEvent) error {
	if m.a != nil {
		_ = m.a.WriteEvent(entry)
	}
	if m.b != nil {
		_ = m.b.WriteEvent(entry)
	}
	return nil
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
