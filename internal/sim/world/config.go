package world

import "runegrid.ai/internal/sim/tuning"

type WorldConfig struct {
	// ID labels this world instance in logs and snapshots.
	ID string
	// Seed feeds the game's random stream when StartParams carries none.
	Seed uint64

	Tuning tuning.Tuning

	// Operational parameters.
	SnapshotEveryTurns int
	// TurnIntervalMs paces autoplay in Run; zero disables autoplay.
	TurnIntervalMs   int
	StatsBucketTurns int
	StatsWindowTurns int
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "arena"
	}
	if c.Tuning.GroupWeights == nil {
		c.Tuning = tuning.Defaults()
	}
	if c.SnapshotEveryTurns < 0 {
		c.SnapshotEveryTurns = 0
	}
	if c.TurnIntervalMs < 0 {
		c.TurnIntervalMs = 0
	}
	if c.StatsBucketTurns <= 0 {
		c.StatsBucketTurns = 10
	}
	if c.StatsWindowTurns <= 0 {
		c.StatsWindowTurns = 100
	}
}
