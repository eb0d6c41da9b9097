package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"runegrid.ai/internal/sim/geom"
)

// stateDigest hashes every rule-relevant part of the game in id order. Two
// games fed the same seed and parameters produce the same digest sequence.
func (w *World) stateDigest() string {
	s := w.state
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, uint64(s.GridSize))
	digestWriteU64(h, &tmp, uint64(s.MaxTurns))
	digestWriteU64(h, &tmp, uint64(s.Turn))
	digestWriteString(h, &tmp, string(s.Phase))

	for _, id := range s.TeamOrder {
		t := s.Teams[id]
		digestWriteString(h, &tmp, t.ID)
		digestWriteString(h, &tmp, t.Trait)
	}
	for _, id := range s.PointIDs() {
		p := s.Points[id]
		digestWriteString(h, &tmp, id)
		digestWriteString(h, &tmp, p.TeamID)
		digestWriteI64(h, &tmp, int64(p.X))
		digestWriteI64(h, &tmp, int64(p.Y))
		digestWriteI64(h, &tmp, int64(s.Stasis[id]))
	}
	for _, id := range s.LineIDs() {
		l := s.Lines[id]
		digestWriteString(h, &tmp, id)
		digestWriteString(h, &tmp, l.P1)
		digestWriteString(h, &tmp, l.P2)
		digestWriteI64(h, &tmp, int64(s.Shields[id]))
		digestWriteI64(h, &tmp, int64(s.Strengths[id]))
	}
	for _, id := range s.TerritoryIDs() {
		t := s.Territories[id]
		digestWriteString(h, &tmp, id)
		for _, pid := range t.Points {
			digestWriteString(h, &tmp, pid)
		}
	}
	for _, id := range s.StructureIDs() {
		v := structureView(s.Structures[id])
		digestWriteString(h, &tmp, id)
		digestWriteString(h, &tmp, string(v.Kind))
		digestWriteString(h, &tmp, v.TeamID)
		for _, pid := range v.PointIDs {
			digestWriteString(h, &tmp, pid)
		}
		if v.Center != nil {
			digestWritePoint(h, &tmp, *v.Center)
		}
		digestWriteI64(h, &tmp, int64(v.Charge))
		digestWriteI64(h, &tmp, int64(v.TurnsLeft))
	}
	for _, f := range fieldViews(s) {
		digestWriteString(h, &tmp, f.ID)
		digestWriteString(h, &tmp, f.Kind)
		for _, p := range f.Shape {
			digestWritePoint(h, &tmp, p)
		}
		digestWriteF64(h, &tmp, f.Radius)
		digestWriteI64(h, &tmp, int64(f.TurnsLeft))
	}
	if v := s.Victory; v != nil {
		h.Write([]byte{1})
		digestWriteString(h, &tmp, string(v.Kind))
		digestWriteString(h, &tmp, v.TeamID)
	} else {
		h.Write([]byte{0})
	}
	digestWriteString(h, &tmp, s.DominanceTeam)
	digestWriteI64(h, &tmp, int64(s.DominanceTurns))

	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}

func digestWritePoint(h hashWriter, tmp *[8]byte, p geom.Point) {
	digestWriteF64(h, tmp, p.X)
	digestWriteF64(h, tmp, p.Y)
}

// digestWriteString length-prefixes s so adjacent fields cannot alias.
func digestWriteString(h hashWriter, tmp *[8]byte, s string) {
	digestWriteU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}
