package setup

import (
	"reflect"
	"testing"

	"runegrid.ai/internal/sim/tuning"
)

func TestLayout_PlacesDistinctInBoundsPoints(t *testing.T) {
	cfg := tuning.Defaults().Setup
	cfg.PointsPerTeam = 5
	teams := []string{"a", "b", "c", "d"}
	got := Layout(30, teams, 42, cfg, nil)

	seen := map[[2]int]string{}
	for _, id := range teams {
		cells := got[id]
		if len(cells) != cfg.PointsPerTeam {
			t.Fatalf("team %s cells=%d want %d", id, len(cells), cfg.PointsPerTeam)
		}
		for _, c := range cells {
			if c[0] < 0 || c[1] < 0 || c[0] >= 30 || c[1] >= 30 {
				t.Fatalf("team %s cell %v out of bounds", id, c)
			}
			if other, dup := seen[c]; dup {
				t.Fatalf("cell %v used by %s and %s", c, other, id)
			}
			seen[c] = id
		}
	}
}

func TestLayout_Deterministic(t *testing.T) {
	cfg := tuning.Defaults().Setup
	a := Layout(20, []string{"red", "blue"}, 7, cfg, nil)
	b := Layout(20, []string{"red", "blue"}, 7, cfg, nil)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different layouts:\n%v\n%v", a, b)
	}
}

func TestLayout_SkipsTakenCells(t *testing.T) {
	cfg := tuning.Defaults().Setup
	first := Layout(20, []string{"red"}, 3, cfg, nil)
	taken := map[[2]int]bool{}
	for _, c := range first["red"] {
		taken[c] = true
	}
	again := Layout(20, []string{"red"}, 3, cfg, taken)
	for _, c := range again["red"] {
		if taken[c] {
			t.Fatalf("cell %v reused", c)
		}
	}
	if len(again["red"]) != cfg.PointsPerTeam {
		t.Fatalf("cells=%d want %d", len(again["red"]), cfg.PointsPerTeam)
	}
}
