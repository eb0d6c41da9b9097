package world

import "runegrid.ai/internal/sim/state"

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	GameID string      `json:"game_id,omitempty"`
	Turn   int         `json:"turn"`
	Phase  state.Phase `json:"phase"`

	ActiveTeams int `json:"active_teams"`
	Points      int `json:"points"`
	Lines       int `json:"lines"`
	Structures  int `json:"structures"`

	QueueDepth int     `json:"queue_depth"`
	StepMS     float64 `json:"step_ms"`

	StatsWindowTurns uint64               `json:"stats_window_turns"`
	StatsWindow      StatsBucket          `json:"stats_window"`
	Teams            map[string]TeamTally `json:"teams,omitempty"`
}

func (w *World) publishMetrics(stepMS float64) {
	s := w.state
	w.metrics.Store(WorldMetrics{
		GameID:           w.gameID,
		Turn:             s.Turn,
		Phase:            s.Phase,
		ActiveTeams:      len(s.ActiveTeams()),
		Points:           len(s.Points),
		Lines:            len(s.Lines),
		Structures:       len(s.Structures),
		QueueDepth:       len(w.reqs),
		StepMS:           stepMS,
		StatsWindowTurns: w.stats.WindowTurns(),
		StatsWindow:      w.stats.Summarize(uint64(s.Turn)),
		Teams:            w.stats.Teams(),
	})
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}
