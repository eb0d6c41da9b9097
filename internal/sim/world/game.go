package world

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"

	"runegrid.ai/internal/sim/geom"
	"runegrid.ai/internal/sim/setup"
	"runegrid.ai/internal/sim/state"
	"runegrid.ai/internal/sim/tuning"
)

var defaultColors = []string{"#e6194b", "#3cb44b", "#4363d8", "#f58231", "#911eb4", "#42d4f4", "#f032e6", "#bfef45"}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
}

// ValidateStart checks start parameters without touching any world.
func ValidateStart(p StartParams) error {
	if p.GridSize < MinGridSize || p.GridSize > MaxGridSize {
		return invalid("grid_size %d outside [%d,%d]", p.GridSize, MinGridSize, MaxGridSize)
	}
	if p.MaxTurns < MinTurns || p.MaxTurns > MaxTurns {
		return invalid("max_turns %d outside [%d,%d]", p.MaxTurns, MinTurns, MaxTurns)
	}
	if len(p.Teams) == 0 {
		return invalid("no teams")
	}
	ids := map[string]bool{}
	cells := map[[2]int]string{}
	for _, t := range p.Teams {
		if t.ID == "" {
			return invalid("team without id")
		}
		if ids[t.ID] {
			return invalid("duplicate team id %q", t.ID)
		}
		ids[t.ID] = true
		if t.Trait != "" && !slices.Contains(tuning.Traits, t.Trait) {
			return invalid("team %s: unknown trait %q", t.ID, t.Trait)
		}
		for _, c := range t.Points {
			if !geom.InBounds(c[0], c[1], p.GridSize) {
				return invalid("team %s: point (%d,%d) out of bounds", t.ID, c[0], c[1])
			}
			if other, dup := cells[c]; dup {
				return invalid("team %s: cell (%d,%d) already used by %s", t.ID, c[0], c[1], other)
			}
			cells[c] = t.ID
		}
	}
	return nil
}

// StartGame replaces any current game with a fresh one built from p.
func (w *World) StartGame(p StartParams) (GameView, error) {
	if err := ValidateStart(p); err != nil {
		return GameView{}, err
	}
	seed := p.Seed
	if seed == 0 {
		seed = w.cfg.Seed
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	w.seedRandom(seed)

	s := state.New(p.GridSize, p.MaxTurns)
	taken := map[[2]int]bool{}
	var needLayout []string
	for i, t := range p.Teams {
		team := state.Team{ID: t.ID, Name: t.Name, Color: t.Color, Trait: t.Trait}
		if team.Name == "" {
			team.Name = t.ID
		}
		if team.Color == "" {
			team.Color = defaultColors[i%len(defaultColors)]
		}
		if team.Trait == "" {
			team.Trait = "Balanced"
		}
		s.AddTeam(team)
		if len(t.Points) == 0 {
			needLayout = append(needLayout, t.ID)
		}
		for _, c := range t.Points {
			taken[c] = true
		}
	}
	for _, t := range p.Teams {
		for _, c := range t.Points {
			if _, err := s.AddPoint(t.ID, c[0], c[1]); err != nil {
				return GameView{}, invalid("team %s: %v", t.ID, err)
			}
		}
	}
	layout := setup.Layout(p.GridSize, needLayout, int64(seed), w.cfg.Tuning.Setup, taken)
	for _, id := range needLayout {
		for _, c := range layout[id] {
			if _, err := s.AddPoint(id, c[0], c[1]); err != nil {
				return GameView{}, fmt.Errorf("layout for %s: %w", id, err)
			}
		}
	}
	s.Phase = state.PhaseRunning

	w.state = s
	w.gameID = uuid.NewString()
	w.stats.Reset()
	s.AppendLog(state.LogEntry{Message: fmt.Sprintf("Game started on a %dx%d grid with %d teams.", p.GridSize, p.GridSize, len(p.Teams))})
	w.logger.Printf("game %s started: grid=%d turns=%d teams=%d seed=%d", w.gameID, p.GridSize, p.MaxTurns, len(p.Teams), seed)
	w.emitEvent("START")
	w.publishMetrics(0)
	return w.Snapshot(), nil
}

// Reset drops the current game and returns to the setup phase.
func (w *World) Reset() {
	if w.gameID != "" {
		w.emitEvent("RESET")
		w.logger.Printf("game %s reset at turn %d", w.gameID, w.state.Turn)
	}
	w.state = state.New(0, 0)
	w.gameID = ""
	w.stats.Reset()
	w.publishMetrics(0)
}
