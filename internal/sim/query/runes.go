package query

import (
	"runegrid.ai/internal/sim/formation"
	"runegrid.ai/internal/sim/state"
)

// Runes holds every formation detected for a team at one moment.
type Runes struct {
	I, V, T, Plus, Trident, Hourglass, Star []formation.Match
	Nexus, Monolith, Barricade, Trebuchet   []formation.Match
	Pentagon, Prism, Bastion                []formation.Match
}

// DetectRunes runs every detector on the team graph.
func DetectRunes(s *state.State, teamID string) Runes {
	g := Graph(s, teamID)
	terr := map[string][3]string{}
	order := s.TeamTerritoryIDs(teamID)
	for _, id := range order {
		terr[id] = s.Territories[id].Points
	}
	return Runes{
		I:         formation.FindIRunes(g),
		V:         formation.FindVRunes(g),
		T:         formation.FindTRunes(g),
		Plus:      formation.FindPlusRunes(g),
		Trident:   formation.FindTridentRunes(g),
		Hourglass: formation.FindHourglassRunes(g),
		Star:      formation.FindStarRunes(g),
		Nexus:     formation.FindNexus(g),
		Monolith:  formation.FindMonoliths(g),
		Barricade: formation.FindBarricadeRunes(g),
		Trebuchet: formation.FindTrebuchets(g),
		Pentagon:  formation.FindPentagons(g),
		Prism:     formation.FindPrisms(g, terr, order),
		Bastion:   formation.FindBastions(g),
	}
}

// FreeMatches drops matches that reuse points already bound to a
// critical structure.
func FreeMatches(s *state.State, ms []formation.Match) []formation.Match {
	critical := CriticalPoints(s)
	var out []formation.Match
outer:
	for _, m := range ms {
		for _, pid := range m.Points {
			if critical[pid] {
				continue outer
			}
		}
		out = append(out, m)
	}
	return out
}
