package formation

import (
	"fmt"
	"testing"

	"runegrid.ai/internal/sim/geom"
)

// build creates a graph from "id:x,y" style coordinates and "a-b" edges.
func build(t *testing.T, pts map[string][2]int, edges ...string) *Graph {
	t.Helper()
	pos := map[string]geom.Point{}
	for id, xy := range pts {
		pos[id] = geom.Pt(xy[0], xy[1])
	}
	var es [][2]string
	for _, e := range edges {
		var a, b string
		if _, err := fmt.Sscanf(e, "%1s-%1s", &a, &b); err != nil {
			t.Fatalf("bad edge %q: %v", e, err)
		}
		es = append(es, [2]string{a, b})
	}
	return NewGraph(pos, es)
}

func TestGraph_DegreesAndComponents(t *testing.T) {
	g := build(t, map[string][2]int{"a": {0, 0}, "b": {1, 0}, "c": {2, 0}, "d": {5, 5}}, "a-b", "b-c", "a-b", "c-z")
	if g.Degree("b") != 2 || g.Degree("a") != 1 || g.Degree("d") != 0 {
		t.Fatalf("degrees=%v", g.Degrees())
	}
	if len(g.Edges()) != 2 {
		t.Fatalf("edges=%v", g.Edges())
	}
	comps := g.Components()
	if len(comps) != 2 || len(comps[0]) != 3 {
		t.Fatalf("components=%v", comps)
	}
}

func TestFindIRunes(t *testing.T) {
	g := build(t, map[string][2]int{"a": {0, 0}, "b": {2, 0}, "c": {4, 0}, "d": {6, 0}, "e": {6, 3}, "f": {7, 5}, "g": {9, 5}},
		"a-b", "b-c", "c-d", "e-f", "f-g")
	m := FindIRunes(g)
	if len(m) != 1 {
		t.Fatalf("matches=%v want 1", m)
	}
	if len(m[0].Points) != 4 || m[0].Arms[0] != "a" || m[0].Arms[1] != "d" {
		t.Fatalf("match=%+v", m[0])
	}
}

func TestFindVRunes(t *testing.T) {
	g := build(t, map[string][2]int{"v": {5, 5}, "a": {8, 5}, "b": {5, 8}, "c": {2, 5}}, "v-a", "v-b")
	m := FindVRunes(g)
	if len(m) != 1 || m[0].Center != "v" {
		t.Fatalf("matches=%+v", m)
	}
	// Straight line through v is not a V.
	g = build(t, map[string][2]int{"v": {5, 5}, "a": {8, 5}, "c": {2, 5}}, "v-a", "v-c")
	if m := FindVRunes(g); len(m) != 0 {
		t.Fatalf("collinear arms accepted: %+v", m)
	}
	// Very unequal arms are rejected.
	g = build(t, map[string][2]int{"v": {5, 5}, "a": {9, 5}, "b": {5, 6}}, "v-a", "v-b")
	if m := FindVRunes(g); len(m) != 0 {
		t.Fatalf("unequal arms accepted: %+v", m)
	}
}

func TestFindTAndPlusRunes(t *testing.T) {
	g := build(t, map[string][2]int{"j": {5, 5}, "a": {3, 5}, "b": {7, 5}, "s": {5, 8}}, "j-a", "j-b", "j-s")
	if m := FindTRunes(g); len(m) != 1 || m[0].Arms[2] != "s" {
		t.Fatalf("t-rune=%+v", m)
	}
	g = build(t, map[string][2]int{"c": {5, 5}, "a": {3, 5}, "b": {7, 5}, "d": {5, 3}, "e": {5, 7}}, "c-a", "c-b", "c-d", "c-e")
	if m := FindPlusRunes(g); len(m) != 1 || m[0].Center != "c" || len(m[0].Arms) != 4 {
		t.Fatalf("plus-rune=%+v", m)
	}
}

func TestFindTridentRunes(t *testing.T) {
	g := build(t, map[string][2]int{"c": {5, 5}, "h": {5, 8}, "m": {5, 2}, "l": {3, 3}, "r": {7, 3}}, "c-h", "c-m", "c-l", "c-r")
	m := FindTridentRunes(g)
	if len(m) != 1 || m[0].Arms[0] != "h" || m[0].Arms[1] != "m" {
		t.Fatalf("trident=%+v", m)
	}
}

func TestFindHourglassRunes(t *testing.T) {
	g := build(t, map[string][2]int{"c": {5, 5}, "a": {3, 2}, "b": {7, 2}, "d": {3, 8}, "e": {7, 8}},
		"c-a", "c-b", "a-b", "c-d", "c-e", "d-e")
	if m := FindHourglassRunes(g); len(m) != 1 || m[0].Center != "c" {
		t.Fatalf("hourglass=%+v", m)
	}
}

func TestFindStarRunes(t *testing.T) {
	pts := map[string][2]int{"h": {10, 10}, "a": {10, 5}, "b": {15, 9}, "c": {13, 15}, "d": {7, 15}, "e": {5, 9}}
	g := build(t, pts, "h-a", "h-b", "h-c", "h-d", "h-e", "a-b", "b-c", "c-d", "d-e", "e-a")
	m := FindStarRunes(g)
	if len(m) != 1 || m[0].Center != "h" || len(m[0].Arms) != 5 {
		t.Fatalf("star=%+v", m)
	}
	// Break the loop: no star.
	g = build(t, pts, "h-a", "h-b", "h-c", "h-d", "h-e", "a-b", "b-c", "c-d", "d-e")
	if m := FindStarRunes(g); len(m) != 0 {
		t.Fatalf("open loop accepted: %+v", m)
	}
}

func TestFindRectangleFamilies(t *testing.T) {
	square := build(t, map[string][2]int{"a": {0, 0}, "b": {4, 0}, "c": {4, 4}, "d": {0, 4}}, "a-b", "b-c", "c-d", "d-a", "a-c")
	if m := FindNexus(square); len(m) != 1 || len(m[0].Arms) != 2 {
		t.Fatalf("nexus=%+v", m)
	}
	if m := FindMonoliths(square); len(m) != 0 {
		t.Fatalf("square is not a monolith: %+v", m)
	}

	thin := build(t, map[string][2]int{"a": {2, 2}, "b": {6, 2}, "c": {6, 3}, "d": {2, 3}}, "a-b", "b-c", "c-d", "d-a")
	m := FindMonoliths(thin)
	if len(m) != 1 || m[0].Aspect < 3.99 {
		t.Fatalf("monolith=%+v", m)
	}

	wide := build(t, map[string][2]int{"a": {0, 0}, "b": {4, 0}, "c": {4, 2}, "d": {0, 2}}, "a-b", "b-c", "c-d", "d-a")
	if m := FindBarricadeRunes(wide); len(m) != 1 {
		t.Fatalf("barricade=%+v", m)
	}

	// A missing side breaks the rectangle.
	open := build(t, map[string][2]int{"a": {0, 0}, "b": {4, 0}, "c": {4, 2}, "d": {0, 2}}, "a-b", "b-c", "c-d")
	if q := FindRectangles(open); len(q) != 0 {
		t.Fatalf("open rectangle accepted: %+v", q)
	}
}

func TestFindTrebuchets(t *testing.T) {
	g := build(t, map[string][2]int{"a": {5, 2}, "b": {3, 5}, "c": {7, 5}, "d": {5, 12}}, "a-b", "a-c", "b-d", "c-d")
	m := FindTrebuchets(g)
	if len(m) != 1 || m[0].Center != "a" || m[0].Arms[2] != "d" {
		t.Fatalf("trebuchet=%+v", m)
	}
}

func TestFindPentagons(t *testing.T) {
	g := build(t, map[string][2]int{"a": {5, 0}, "b": {10, 4}, "c": {8, 10}, "d": {2, 10}, "e": {0, 4}},
		"a-b", "b-c", "c-d", "d-e", "e-a")
	if m := FindPentagons(g); len(m) != 1 || len(m[0].Points) != 5 {
		t.Fatalf("pentagon=%+v", m)
	}
}

func TestFindBastionsAndPrisms(t *testing.T) {
	g := build(t, map[string][2]int{"c": {5, 5}, "a": {5, 2}, "b": {8, 5}, "d": {2, 5}, "e": {5, 8}, "f": {9, 9}},
		"c-a", "c-b", "c-d", "c-e", "e-f")
	m := FindBastions(g)
	if len(m) != 1 || len(m[0].Arms) != 3 {
		t.Fatalf("bastion=%+v", m)
	}

	g = build(t, map[string][2]int{"a": {0, 0}, "b": {4, 0}, "c": {2, 3}, "d": {2, -3}}, "a-b", "b-c", "c-a", "a-d", "b-d")
	terr := map[string][3]string{"t1": {"a", "b", "c"}, "t2": {"a", "b", "d"}}
	p := FindPrisms(g, terr, []string{"t1", "t2"})
	if len(p) != 1 || p[0].Arms[0] != "a" || p[0].Arms[1] != "b" {
		t.Fatalf("prism=%+v", p)
	}
	if tr := Triangles(g); len(tr) != 2 {
		t.Fatalf("triangles=%v", tr)
	}
}
