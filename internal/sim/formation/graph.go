// Package formation recognizes named structural patterns ("runes") in a
// team's point/line graph. Detectors are stateless: each takes a Graph and
// returns zero or more matches whose point sets are disjoint within that
// one detector.
package formation

import (
	"math"
	"sort"

	"runegrid.ai/internal/sim/geom"
)

// Graph is an undirected team graph with positions for every node.
type Graph struct {
	pos   map[string]geom.Point
	adj   map[string][]string
	edge  map[[2]string]bool
	nodes []string
}

// NewGraph builds adjacency from an edge list. Edges referencing unknown
// nodes are ignored; neighbor lists are sorted so iteration is stable.
func NewGraph(pos map[string]geom.Point, edges [][2]string) *Graph {
	g := &Graph{
		pos:  make(map[string]geom.Point, len(pos)),
		adj:  make(map[string][]string, len(pos)),
		edge: make(map[[2]string]bool, len(edges)),
	}
	for id, p := range pos {
		g.pos[id] = p
		g.adj[id] = nil
		g.nodes = append(g.nodes, id)
	}
	sort.Strings(g.nodes)
	for _, e := range edges {
		a, b := e[0], e[1]
		if a == b {
			continue
		}
		if _, ok := g.pos[a]; !ok {
			continue
		}
		if _, ok := g.pos[b]; !ok {
			continue
		}
		k := edgeKey(a, b)
		if g.edge[k] {
			continue
		}
		g.edge[k] = true
		g.adj[a] = append(g.adj[a], b)
		g.adj[b] = append(g.adj[b], a)
	}
	for id := range g.adj {
		sort.Strings(g.adj[id])
	}
	return g
}

func edgeKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func (g *Graph) Nodes() []string              { return g.nodes }
func (g *Graph) Neighbors(id string) []string { return g.adj[id] }
func (g *Graph) Degree(id string) int         { return len(g.adj[id]) }
func (g *Graph) Pos(id string) geom.Point     { return g.pos[id] }
func (g *Graph) Connected(a, b string) bool   { return g.edge[edgeKey(a, b)] }
func (g *Graph) Len() int                     { return len(g.nodes) }

func (g *Graph) Has(id string) bool {
	_, ok := g.pos[id]
	return ok
}

// Degrees returns the degree of every node.
func (g *Graph) Degrees() map[string]int {
	out := make(map[string]int, len(g.nodes))
	for _, id := range g.nodes {
		out[id] = len(g.adj[id])
	}
	return out
}

// Edges returns every edge once, sorted.
func (g *Graph) Edges() [][2]string {
	out := make([][2]string, 0, len(g.edge))
	for k := range g.edge {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// NodeNear returns a node within sqrt(maxSq) of p, preferring the closest.
func (g *Graph) NodeNear(p geom.Point, maxSq float64) (string, bool) {
	best, bestD := "", math.Inf(1)
	for _, id := range g.nodes {
		d := geom.DistanceSquared(g.pos[id], p)
		if d <= maxSq && d < bestD {
			best, bestD = id, d
		}
	}
	return best, best != ""
}

// Components returns connected components, each sorted, in order of their
// smallest id.
func (g *Graph) Components() [][]string {
	seen := map[string]bool{}
	var out [][]string
	for _, start := range g.nodes {
		if seen[start] {
			continue
		}
		comp := []string{}
		stack := []string{start}
		seen[start] = true
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, n)
			for _, m := range g.adj[n] {
				if !seen[m] {
					seen[m] = true
					stack = append(stack, m)
				}
			}
		}
		sort.Strings(comp)
		out = append(out, comp)
	}
	return out
}

func (g *Graph) points(ids []string) []geom.Point {
	out := make([]geom.Point, len(ids))
	for i, id := range ids {
		out[i] = g.pos[id]
	}
	return out
}

// Centroid is the average position of ids.
func (g *Graph) Centroid(ids []string) geom.Point {
	return geom.Centroid(g.points(ids))
}

type usedSet map[string]bool

func (u usedSet) any(ids ...string) bool {
	for _, id := range ids {
		if u[id] {
			return true
		}
	}
	return false
}

func (u usedSet) mark(ids ...string) {
	for _, id := range ids {
		u[id] = true
	}
}

func distinct(ids ...string) bool {
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			if ids[i] == ids[j] {
				return false
			}
		}
	}
	return true
}

func sortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
