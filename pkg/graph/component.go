package graph

import "slices"

// LargestComponent returns the handles of the largest connected component,
// sorted ascending. When several components tie on size, the one containing
// the smallest handle wins, so the result is stable across runs. An empty
// graph yields an empty slice.
func (g *Graph) LargestComponent() []int32 {
	n := len(g.titles)
	visited := make([]bool, n)

	var best []int32
	for seed := 0; seed < n; seed++ {
		if visited[seed] {
			continue
		}
		component := g.collectComponent(int32(seed), visited)
		if len(component) > len(best) {
			best = component
		}
	}
	return best
}

// collectComponent runs a BFS from seed and returns the reached handles in
// ascending order. Handles are discovered in sorted adjacency order and
// seeds increase monotonically, so the output order is deterministic.
func (g *Graph) collectComponent(seed int32, visited []bool) []int32 {
	visited[seed] = true
	queue := []int32{seed}
	component := []int32{seed}

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		for _, e := range g.adj[h] {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			queue = append(queue, e.To)
			component = append(component, e.To)
		}
	}

	slices.Sort(component)
	return component
}
