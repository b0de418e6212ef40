// Package graph tracks include relationships between source files as a
// bidirectional dependency graph: a parent/child pair kept in sync so
// ancestor BFS is cheap in either direction.
package graph

import (
	"sort"
)

// ProjectGraph is a bidirectional directed graph of file dependencies: an
// edge parent->child means parent includes child.
type ProjectGraph struct {
	children map[string][]string // parent -> children it includes
	parents  map[string][]string // child -> parents that include it
}

// New returns an empty ProjectGraph.
func New() *ProjectGraph {
	return &ProjectGraph{
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// RegisterDependency records that parent includes child, inserting into
// both the forward and reverse maps. Duplicate edges are not re-added.
func (g *ProjectGraph) RegisterDependency(parent, child string) {
	if !containsStr(g.children[parent], child) {
		g.children[parent] = append(g.children[parent], child)
	}
	if !containsStr(g.parents[child], parent) {
		g.parents[child] = append(g.parents[child], parent)
	}
}

// Clear removes all edges, for use when a full re-scan replaces the graph.
func (g *ProjectGraph) Clear() {
	g.children = make(map[string][]string)
	g.parents = make(map[string][]string)
}

// GetAncestorDistances runs a BFS over child->parents from u and returns
// the shortest distance from u to every reachable ancestor, including u
// itself at distance 0.
func (g *ProjectGraph) GetAncestorDistances(u string) map[string]int {
	dist := map[string]int{u: 0}
	queue := []string{u}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := dist[cur]
		for _, p := range g.parents[cur] {
			if _, seen := dist[p]; !seen {
				dist[p] = d + 1
				queue = append(queue, p)
			}
		}
	}
	return dist
}

// SelectRoot picks the file whose analysis should stand in for u, per
// three rules applied in order:
//  1. If any ancestor of u (or u itself) is in preferred, return the
//     closest such ancestor; ties broken lexicographically.
//  2. Otherwise return the closest true root (an ancestor with no
//     parents); ties broken lexicographically.
//  3. If u has no known ancestors at all, return u.
func (g *ProjectGraph) SelectRoot(u string, preferred map[string]bool) string {
	dist := g.GetAncestorDistances(u)
	if len(dist) == 1 {
		return u
	}

	if best, ok := closestMatching(dist, func(name string) bool { return preferred[name] }); ok {
		return best
	}

	if best, ok := closestMatching(dist, func(name string) bool { return len(g.parents[name]) == 0 }); ok {
		return best
	}

	return u
}

// closestMatching returns the name with the smallest distance satisfying
// match, tie-broken lexicographically.
func closestMatching(dist map[string]int, match func(string) bool) (string, bool) {
	var candidates []string
	for name := range dist {
		if match(name) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Slice(candidates, func(i, j int) bool {
		di, dj := dist[candidates[i]], dist[candidates[j]]
		if di != dj {
			return di < dj
		}
		return candidates[i] < candidates[j]
	})
	return candidates[0], true
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
