package state

// Clone returns a deep copy that shares no mutable data with s.
func (s *State) Clone() *State {
	c := New(s.GridSize, s.MaxTurns)
	c.Turn = s.Turn
	c.Phase = s.Phase
	c.TeamOrder = append([]string(nil), s.TeamOrder...)
	for id, t := range s.Teams {
		tt := *t
		c.Teams[id] = &tt
	}
	for id, p := range s.Points {
		pp := *p
		c.Points[id] = &pp
	}
	for id, l := range s.Lines {
		ll := *l
		c.Lines[id] = &ll
	}
	for id, t := range s.Territories {
		tt := *t
		c.Territories[id] = &tt
	}
	for id, st := range s.Structures {
		c.Structures[id] = CloneStructure(st)
	}
	copyInts(c.Shields, s.Shields)
	copyInts(c.Strengths, s.Strengths)
	copyInts(c.Stasis, s.Stasis)
	for id, f := range s.Fissures {
		ff := *f
		c.Fissures[id] = &ff
	}
	for id, b := range s.Barricades {
		bb := *b
		c.Barricades[id] = &bb
	}
	for id, z := range s.Scorched {
		zz := *z
		c.Scorched[id] = &zz
	}
	for id, w := range s.Whirlpools {
		ww := *w
		c.Whirlpools[id] = &ww
	}
	for id, r := range s.RiftTraps {
		rr := *r
		c.RiftTraps[id] = &rr
	}
	if s.Victory != nil {
		v := *s.Victory
		c.Victory = &v
	}
	c.DominanceTeam = s.DominanceTeam
	c.DominanceTurns = s.DominanceTurns
	c.Log = append([]LogEntry(nil), s.Log...)
	c.Counters = s.Counters
	c.RebuildIndex()
	return c
}

func copyInts(dst, src map[string]int) {
	for k, v := range src {
		dst[k] = v
	}
}

func CloneStructure(st Structure) Structure {
	switch v := st.(type) {
	case *Bastion:
		c := *v
		c.Prongs = append([]string(nil), v.Prongs...)
		return &c
	case *Monolith:
		c := *v
		return &c
	case *Purifier:
		c := *v
		return &c
	case *AttunedNexus:
		c := *v
		return &c
	case *LeyLine:
		c := *v
		c.Points = append([]string(nil), v.Points...)
		return &c
	case *Heartwood:
		c := *v
		return &c
	case *Wonder:
		c := *v
		return &c
	case *RiftSpire:
		c := *v
		return &c
	case *Anchor:
		c := *v
		return &c
	}
	return st
}
