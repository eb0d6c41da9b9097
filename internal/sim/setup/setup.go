// Package setup produces default starting layouts for teams that arrive
// without explicit initial points.
package setup

import (
	"math"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"runegrid.ai/internal/sim/tuning"
)

// Layout places cfg.PointsPerTeam points for each listed team. Homes sit on
// a ring around the board center; within each home the highest-scoring
// noise cells win. Cells in taken are never used. The result is fully
// determined by the arguments.
func Layout(gridSize int, teamIDs []string, seed int64, cfg tuning.Setup, taken map[[2]int]bool) map[string][][2]int {
	out := make(map[string][][2]int, len(teamIDs))
	if gridSize <= 0 || len(teamIDs) == 0 {
		return out
	}
	noise := opensimplex.NewNormalized(seed)
	used := make(map[[2]int]bool, len(taken))
	for c := range taken {
		used[c] = true
	}

	center := float64(gridSize-1) / 2
	ring := float64(gridSize) * 0.3
	phase := noise.Eval2(0.5, 0.5) * 2 * math.Pi
	for i, id := range teamIDs {
		angle := phase + 2*math.Pi*float64(i)/float64(len(teamIDs))
		hx := clamp(int(math.Round(center+ring*math.Cos(angle))), gridSize)
		hy := clamp(int(math.Round(center+ring*math.Sin(angle))), gridSize)

		want := cfg.PointsPerTeam
		radius := max(cfg.StartRadius, 1)
		var picked [][2]int
		for len(picked) < want && radius <= gridSize {
			picked = pick(noise, gridSize, hx, hy, radius, want, cfg.NoiseScale, used)
			radius *= 2
		}
		for _, c := range picked {
			used[c] = true
		}
		out[id] = picked
	}
	return out
}

type scored struct {
	cell  [2]int
	score float64
}

func pick(noise opensimplex.Noise, gridSize, hx, hy, radius, want int, scale float64, used map[[2]int]bool) [][2]int {
	var cands []scored
	for y := hy - radius; y <= hy+radius; y++ {
		for x := hx - radius; x <= hx+radius; x++ {
			if x < 0 || y < 0 || x >= gridSize || y >= gridSize {
				continue
			}
			dx, dy := x-hx, y-hy
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			c := [2]int{x, y}
			if used[c] {
				continue
			}
			cands = append(cands, scored{cell: c, score: octaveNoise(noise, float64(x), float64(y), 3, scale, 0.5)})
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		if cands[i].cell[1] != cands[j].cell[1] {
			return cands[i].cell[1] < cands[j].cell[1]
		}
		return cands[i].cell[0] < cands[j].cell[0]
	})
	n := min(want, len(cands))
	out := make([][2]int, 0, n)
	for _, c := range cands[:n] {
		out = append(out, c.cell)
	}
	return out
}

// octaveNoise layers several noise frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total, amplitude, maxVal := 0.0, 1.0, 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}

func clamp(v, gridSize int) int {
	if v < 0 {
		return 0
	}
	if v >= gridSize {
		return gridSize - 1
	}
	return v
}
