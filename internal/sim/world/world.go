// Package world owns a game's canonical state and random stream and runs
// it one turn at a time: upkeep, one weighted action per active team,
// victory checks, logging.
package world

import (
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"sync/atomic"

	"runegrid.ai/internal/persistence/snapshot"
	"runegrid.ai/internal/sim/catalogs"
	"runegrid.ai/internal/sim/state"
)

type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs
	logger   *log.Logger

	gameID string
	seed   uint64
	pcg    *rand.PCG
	rng    *rand.Rand
	state  *state.State

	reqs     chan request
	stop     chan struct{}
	autoplay bool

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	turnLogger  TurnLogger
	eventLogger EventLogger

	// Optional snapshot sink (may be nil). Snapshot writing should be off-thread.
	snapshotSink chan<- snapshot.SnapshotV1

	stats   *WorldStats
	metrics atomic.Value
}

func New(cfg WorldConfig, cats *catalogs.Catalogs, logger *log.Logger) (*World, error) {
	cfg.applyDefaults()
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("tuning: %w", err)
	}
	if cats == nil {
		cats = catalogs.Default()
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[world] ", log.LstdFlags|log.Lmicroseconds)
	}
	w := &World{
		cfg:      cfg,
		catalogs: cats,
		logger:   logger,
		state:    state.New(0, 0),
		reqs:     make(chan request, 64),
		stop:     make(chan struct{}),
		stats:    NewWorldStats(uint64(cfg.StatsBucketTurns), uint64(cfg.StatsWindowTurns)),
	}
	w.seedRandom(cfg.Seed)
	w.publishMetrics(0)
	return w, nil
}

func (w *World) seedRandom(seed uint64) {
	w.seed = seed
	w.pcg = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	w.rng = rand.New(w.pcg)
}

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) GameID() string { return w.gameID }
func (w *World) Seed() uint64   { return w.seed }
func (w *World) Phase() state.Phase {
	return w.state.Phase
}

// ActionCatalogue lists the static display metadata of every action.
func (w *World) ActionCatalogue() []catalogs.ActionDef {
	return append([]catalogs.ActionDef(nil), w.catalogs.Actions.Defs...)
}

func (w *World) CatalogueDigest() string { return w.catalogs.Actions.Digest }

func (w *World) SetTurnLogger(l TurnLogger)                    { w.turnLogger = l }
func (w *World) SetEventLogger(l EventLogger)                  { w.eventLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) emitEvent(kind string) {
	if w.eventLogger == nil {
		return
	}
	ev := GameEvent{GameID: w.gameID, Kind: kind, Turn: w.state.Turn, Victory: w.state.Victory}
	if kind == "START" {
		ev.Seed = w.seed
		ev.Teams = append([]string(nil), w.state.TeamOrder...)
	}
	if err := w.eventLogger.WriteEvent(ev); err != nil {
		w.logger.Printf("event log: %v", err)
	}
}
