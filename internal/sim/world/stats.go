package world

type StatsBucket struct {
	Turns     int `json:"turns"`
	Actions   int `json:"actions"`
	Fallbacks int `json:"fallbacks"`
	Defects   int `json:"defects"`
	Idle      int `json:"idle"`
	Upkeep    int `json:"upkeep_events"`
}

// TeamTally accumulates one team's action history for the whole game.
type TeamTally struct {
	Actions   int            `json:"actions"`
	Fallbacks int            `json:"fallbacks"`
	Defects   int            `json:"defects"`
	Idle      int            `json:"idle"`
	ByGroup   map[string]int `json:"by_group"`
}

// WorldStats keeps a sliding window of per-turn counters plus whole-game
// per-team tallies.
type WorldStats struct {
	bucketTurns uint64
	windowTurns uint64

	buckets []StatsBucket
	curIdx  int
	curBase uint64 // start turn (inclusive) of current bucket

	teams map[string]*TeamTally
}

func NewWorldStats(bucketTurns, windowTurns uint64) *WorldStats {
	if bucketTurns <= 0 {
		bucketTurns = 10
	}
	if windowTurns < bucketTurns {
		windowTurns = bucketTurns
	}
	n := int(windowTurns / bucketTurns)
	if n < 1 {
		n = 1
	}
	return &WorldStats{
		bucketTurns: bucketTurns,
		windowTurns: uint64(n) * bucketTurns,
		buckets:     make([]StatsBucket, n),
		teams:       map[string]*TeamTally{},
	}
}

func (s *WorldStats) Reset() {
	if s == nil {
		return
	}
	for i := range s.buckets {
		s.buckets[i] = StatsBucket{}
	}
	s.curIdx, s.curBase = 0, 0
	s.teams = map[string]*TeamTally{}
}

func (s *WorldStats) rotate(nowTurn uint64) {
	if s == nil {
		return
	}
	// Move forward until nowTurn is in [curBase, curBase+bucketTurns).
	for nowTurn >= s.curBase+s.bucketTurns {
		s.curIdx = (s.curIdx + 1) % len(s.buckets)
		s.buckets[s.curIdx] = StatsBucket{}
		s.curBase += s.bucketTurns
	}
}

func (s *WorldStats) tally(teamID string) *TeamTally {
	t := s.teams[teamID]
	if t == nil {
		t = &TeamTally{ByGroup: map[string]int{}}
		s.teams[teamID] = t
	}
	return t
}

func (s *WorldStats) ObserveTurn(nowTurn uint64, upkeepEvents int) {
	if s == nil {
		return
	}
	s.rotate(nowTurn)
	s.buckets[s.curIdx].Turns++
	s.buckets[s.curIdx].Upkeep += upkeepEvents
}

func (s *WorldStats) RecordAction(nowTurn uint64, teamID, group string, fallback, defect bool) {
	if s == nil {
		return
	}
	s.rotate(nowTurn)
	b := &s.buckets[s.curIdx]
	t := s.tally(teamID)
	b.Actions++
	t.Actions++
	t.ByGroup[group]++
	if fallback {
		b.Fallbacks++
		t.Fallbacks++
	}
	if defect {
		b.Defects++
		t.Defects++
	}
}

func (s *WorldStats) RecordIdle(nowTurn uint64, teamID string) {
	if s == nil {
		return
	}
	s.rotate(nowTurn)
	s.buckets[s.curIdx].Idle++
	s.tally(teamID).Idle++
}

func (s *WorldStats) WindowTurns() uint64 {
	if s == nil {
		return 0
	}
	return s.windowTurns
}

func (s *WorldStats) Summarize(nowTurn uint64) StatsBucket {
	if s == nil {
		return StatsBucket{}
	}
	s.rotate(nowTurn)
	var out StatsBucket
	for _, b := range s.buckets {
		out.Turns += b.Turns
		out.Actions += b.Actions
		out.Fallbacks += b.Fallbacks
		out.Defects += b.Defects
		out.Idle += b.Idle
		out.Upkeep += b.Upkeep
	}
	return out
}

// Teams returns a copy of the per-team tallies, keyed by team id.
func (s *WorldStats) Teams() map[string]TeamTally {
	out := map[string]TeamTally{}
	if s == nil {
		return out
	}
	for id, src := range s.teams {
		t := *src
		t.ByGroup = make(map[string]int, len(src.ByGroup))
		for g, n := range src.ByGroup {
			t.ByGroup[g] = n
		}
		out[id] = t
	}
	return out
}
