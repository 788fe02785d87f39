package graph

import "sort"

// WeightPolicy selects how duplicate undirected edges combine their weights.
type WeightPolicy int

const (
	// WeightSum adds the weights of duplicate edges together.
	WeightSum WeightPolicy = iota
	// WeightMax keeps the largest weight seen for the pair.
	WeightMax
)

// Edge is one half of an undirected edge, stored in the adjacency list of
// its source node.
type Edge struct {
	To     int32
	Weight float64
}

// Graph is an undirected weighted graph held as an arena of nodes addressed
// by integer handles, with a title↔handle side table. Adjacency lists stay
// sorted by neighbor handle, so every traversal order is deterministic.
type Graph struct {
	titles []string
	adj    [][]Edge
	index  map[string]int32
	edges  int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{index: make(map[string]int32)}
}

// AddNode interns title and returns its handle. Adding an existing title
// returns the original handle.
func (g *Graph) AddNode(title string) int32 {
	if h, ok := g.index[title]; ok {
		return h
	}
	h := int32(len(g.titles))
	g.titles = append(g.titles, title)
	g.adj = append(g.adj, nil)
	g.index[title] = h
	return h
}

// AddEdge inserts the undirected edge (source, target), combining duplicate
// pairs (in either direction) per policy. Self loops are dropped.
func (g *Graph) AddEdge(source, target string, weight float64, policy WeightPolicy) {
	if source == target {
		return
	}
	a := g.AddNode(source)
	b := g.AddNode(target)

	if g.combineHalf(a, b, weight, policy) {
		g.combineHalf(b, a, weight, policy)
		return
	}
	g.insertHalf(a, b, weight)
	g.insertHalf(b, a, weight)
	g.edges++
}

func (g *Graph) combineHalf(from, to int32, weight float64, policy WeightPolicy) bool {
	list := g.adj[from]
	i := sort.Search(len(list), func(i int) bool { return list[i].To >= to })
	if i >= len(list) || list[i].To != to {
		return false
	}
	switch policy {
	case WeightSum:
		list[i].Weight += weight
	case WeightMax:
		if weight > list[i].Weight {
			list[i].Weight = weight
		}
	}
	return true
}

func (g *Graph) insertHalf(from, to int32, weight float64) {
	list := g.adj[from]
	i := sort.Search(len(list), func(i int) bool { return list[i].To >= to })
	list = append(list, Edge{})
	copy(list[i+1:], list[i:])
	list[i] = Edge{To: to, Weight: weight}
	g.adj[from] = list
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.titles)
}

// EdgeCount returns the number of distinct undirected edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Title returns the title interned for handle h.
func (g *Graph) Title(h int32) string {
	return g.titles[h]
}

// Handle looks up the handle for title.
func (g *Graph) Handle(title string) (int32, bool) {
	h, ok := g.index[title]
	return h, ok
}

// Degree returns the number of distinct neighbors of h.
func (g *Graph) Degree(h int32) int {
	return len(g.adj[h])
}

// Edges returns the adjacency list of h, sorted by neighbor handle. The
// returned slice is owned by the graph and must not be modified.
func (g *Graph) Edges(h int32) []Edge {
	return g.adj[h]
}

// WeightedDegree returns the sum of edge weights incident to h.
func (g *Graph) WeightedDegree(h int32) float64 {
	var sum float64
	for _, e := range g.adj[h] {
		sum += e.Weight
	}
	return sum
}

// TotalEdgeWeight returns the sum of weights over all undirected edges,
// each counted once.
func (g *Graph) TotalEdgeWeight() float64 {
	var sum float64
	for h := range g.adj {
		for _, e := range g.adj[h] {
			sum += e.Weight
		}
	}
	return sum / 2
}

// Induced returns the subgraph induced by the given node handles: the nodes
// themselves plus every edge whose both endpoints are included. Titles carry
// over, handles do not.
func (g *Graph) Induced(handles []int32) *Graph {
	sub := New()
	keep := make(map[int32]bool, len(handles))
	for _, h := range handles {
		keep[h] = true
		sub.AddNode(g.titles[h])
	}
	for _, h := range handles {
		for _, e := range g.adj[h] {
			if h < e.To && keep[e.To] {
				sub.AddEdge(g.titles[h], g.titles[e.To], e.Weight, WeightSum)
			}
		}
	}
	return sub
}
