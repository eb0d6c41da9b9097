package state

import "runegrid.ai/internal/sim/geom"

type StructureKind string

const (
	KindBastion      StructureKind = "bastion"
	KindMonolith     StructureKind = "monolith"
	KindPurifier     StructureKind = "purifier"
	KindAttunedNexus StructureKind = "attuned_nexus"
	KindLeyLine      StructureKind = "ley_line"
	KindHeartwood    StructureKind = "heartwood"
	KindWonder       StructureKind = "wonder"
	KindRiftSpire    StructureKind = "rift_spire"
	KindAnchor       StructureKind = "anchor"
)

// Structure is a persistent formation stored in the arena. Structures refer
// to points by id only; DeletePoint removes or prunes any structure that
// references a deleted point.
type Structure interface {
	StructureID() string
	Kind() StructureKind
	Team() string
	PointIDs() []string
	// Critical points are excluded from sacrifice and from most
	// destructive targeting.
	Critical() bool
}

// Pruner is implemented by structures that can survive losing a point.
// PrunePoint reports whether the structure is still valid.
type Pruner interface {
	PrunePoint(pid string) bool
}

type Bastion struct {
	ID     string   `json:"id"`
	TeamID string   `json:"teamId"`
	Core   string   `json:"core_id"`
	Prongs []string `json:"prong_ids"`
}

func (b *Bastion) StructureID() string { return b.ID }
func (b *Bastion) Kind() StructureKind { return KindBastion }
func (b *Bastion) Team() string        { return b.TeamID }
func (b *Bastion) Critical() bool      { return true }
func (b *Bastion) PointIDs() []string {
	return append([]string{b.Core}, b.Prongs...)
}

// PrunePoint drops a prong. Losing the core or falling under three prongs
// dissolves the bastion.
func (b *Bastion) PrunePoint(pid string) bool {
	if pid == b.Core {
		return false
	}
	kept := b.Prongs[:0]
	for _, p := range b.Prongs {
		if p != pid {
			kept = append(kept, p)
		}
	}
	b.Prongs = kept
	return len(b.Prongs) >= 3
}

type Monolith struct {
	ID     string     `json:"id"`
	TeamID string     `json:"teamId"`
	Points [4]string  `json:"point_ids"`
	Center geom.Point `json:"center"`
	Charge int        `json:"charge"`
}

func (m *Monolith) StructureID() string { return m.ID }
func (m *Monolith) Kind() StructureKind { return KindMonolith }
func (m *Monolith) Team() string        { return m.TeamID }
func (m *Monolith) Critical() bool      { return true }
func (m *Monolith) PointIDs() []string  { return m.Points[:] }

type Purifier struct {
	ID     string     `json:"id"`
	TeamID string     `json:"teamId"`
	Points [5]string  `json:"point_ids"`
	Center geom.Point `json:"center"`
}

func (p *Purifier) StructureID() string { return p.ID }
func (p *Purifier) Kind() StructureKind { return KindPurifier }
func (p *Purifier) Team() string        { return p.TeamID }
func (p *Purifier) Critical() bool      { return true }
func (p *Purifier) PointIDs() []string  { return p.Points[:] }

type AttunedNexus struct {
	ID     string     `json:"id"`
	TeamID string     `json:"teamId"`
	Points [4]string  `json:"point_ids"`
	Center geom.Point `json:"center"`
	Charge int        `json:"charge"`
}

func (n *AttunedNexus) StructureID() string { return n.ID }
func (n *AttunedNexus) Kind() StructureKind { return KindAttunedNexus }
func (n *AttunedNexus) Team() string        { return n.TeamID }
func (n *AttunedNexus) Critical() bool      { return true }
func (n *AttunedNexus) PointIDs() []string  { return n.Points[:] }

type LeyLine struct {
	ID     string   `json:"id"`
	TeamID string   `json:"teamId"`
	Points []string `json:"point_ids"`
	Charge int      `json:"charge"`
}

func (l *LeyLine) StructureID() string { return l.ID }
func (l *LeyLine) Kind() StructureKind { return KindLeyLine }
func (l *LeyLine) Team() string        { return l.TeamID }
func (l *LeyLine) Critical() bool      { return true }
func (l *LeyLine) PointIDs() []string  { return l.Points }

// PrunePoint drops an interior point. Losing an end or falling under three
// points breaks the ley line.
func (l *LeyLine) PrunePoint(pid string) bool {
	n := len(l.Points)
	if n == 0 || l.Points[0] == pid || l.Points[n-1] == pid {
		return false
	}
	kept := l.Points[:0]
	for _, p := range l.Points {
		if p != pid {
			kept = append(kept, p)
		}
	}
	l.Points = kept
	return len(l.Points) >= 3
}

// Heartwood is keyed by team; a team owns at most one.
type Heartwood struct {
	ID     string `json:"id"`
	TeamID string `json:"teamId"`
	Center string `json:"center_id"`
	Charge int    `json:"charge"`
}

func HeartwoodID(teamID string) string { return "heartwood_" + teamID }

func (h *Heartwood) StructureID() string { return h.ID }
func (h *Heartwood) Kind() StructureKind { return KindHeartwood }
func (h *Heartwood) Team() string        { return h.TeamID }
func (h *Heartwood) Critical() bool      { return true }
func (h *Heartwood) PointIDs() []string  { return []string{h.Center} }

// Wonder counts down to a win. It occupies a cell but no points.
type Wonder struct {
	ID        string `json:"id"`
	TeamID    string `json:"teamId"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	TurnsLeft int    `json:"turns_left"`
}

func (w *Wonder) StructureID() string { return w.ID }
func (w *Wonder) Kind() StructureKind { return KindWonder }
func (w *Wonder) Team() string        { return w.TeamID }
func (w *Wonder) Critical() bool      { return false }
func (w *Wonder) PointIDs() []string  { return nil }

type RiftSpire struct {
	ID     string `json:"id"`
	TeamID string `json:"teamId"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Charge int    `json:"charge"`
}

func (r *RiftSpire) StructureID() string { return r.ID }
func (r *RiftSpire) Kind() StructureKind { return KindRiftSpire }
func (r *RiftSpire) Team() string        { return r.TeamID }
func (r *RiftSpire) Critical() bool      { return false }
func (r *RiftSpire) PointIDs() []string  { return nil }

// Anchor pins a single point against pushes for a few turns.
type Anchor struct {
	ID        string `json:"id"`
	TeamID    string `json:"teamId"`
	PointID   string `json:"point_id"`
	TurnsLeft int    `json:"turns_left"`
}

func AnchorID(pointID string) string { return "anchor_" + pointID }

func (a *Anchor) StructureID() string { return a.ID }
func (a *Anchor) Kind() StructureKind { return KindAnchor }
func (a *Anchor) Team() string        { return a.TeamID }
func (a *Anchor) Critical() bool      { return true }
func (a *Anchor) PointIDs() []string  { return []string{a.PointID} }

// StructuresOf returns the team's structures of kind k, sorted by id.
func (s *State) StructuresOf(teamID string, k StructureKind) []Structure {
	var out []Structure
	for _, id := range s.StructureIDs() {
		st := s.Structures[id]
		if st.Team() == teamID && st.Kind() == k {
			out = append(out, st)
		}
	}
	return out
}

// StructuresOfKind returns every structure of kind k, sorted by id.
func (s *State) StructuresOfKind(k StructureKind) []Structure {
	var out []Structure
	for _, id := range s.StructureIDs() {
		if st := s.Structures[id]; st.Kind() == k {
			out = append(out, st)
		}
	}
	return out
}

// StructurePoints returns the set of point ids referenced by any
// structure, optionally limited to critical structures.
func (s *State) StructurePoints(criticalOnly bool) map[string]bool {
	out := map[string]bool{}
	for _, st := range s.Structures {
		if criticalOnly && !st.Critical() {
			continue
		}
		for _, pid := range st.PointIDs() {
			out[pid] = true
		}
	}
	return out
}

// IsAnchored reports whether an anchor currently pins pid.
func (s *State) IsAnchored(pid string) bool {
	_, ok := s.Structures[AnchorID(pid)]
	return ok
}

// StructureCells returns the cells claimed by point-less structures.
func (s *State) StructureCells() map[[2]int]string {
	out := map[[2]int]string{}
	for _, id := range s.StructureIDs() {
		switch st := s.Structures[id].(type) {
		case *Wonder:
			out[[2]int{st.X, st.Y}] = id
		case *RiftSpire:
			out[[2]int{st.X, st.Y}] = id
		}
	}
	return out
}
