package cluster

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"slices"
	"sort"

	"github.com/OFFIS-RIT/grove/pkg/graph"
	"github.com/OFFIS-RIT/grove/pkg/logger"
)

const (
	maxLocalMovePasses = 16
	gainEpsilon        = 1e-12
)

// ModularitySplitter is the default Clusterer: a seeded local-moving
// modularity optimizer, applied recursively to every community that exceeds
// the size bound. The node visit order is derived by hashing the seed
// together with each node title, so the result depends on no PRNG stream and
// is bit-identical across runs and process restarts. Ties between candidate
// communities break to the smallest community id.
type ModularitySplitter struct{}

// NewModularitySplitter returns the default clusterer.
func NewModularitySplitter() *ModularitySplitter {
	return &ModularitySplitter{}
}

// Cluster implements Clusterer.
func (s *ModularitySplitter) Cluster(g *graph.Graph, opts Options) ([]Assignment, error) {
	if opts.Seed <= 0 {
		return nil, ErrInvalidSeed
	}
	if opts.MaxClusterSize <= 0 {
		return nil, ErrInvalidClusterSize
	}

	var handles []int32
	if opts.UseLargestComponent {
		handles = g.LargestComponent()
		if len(handles) < g.NodeCount() {
			logger.Debug("[Cluster] Restricted to largest component",
				"nodes", len(handles), "total", g.NodeCount())
		}
	} else {
		handles = make([]int32, g.NodeCount())
		for i := range handles {
			handles[i] = int32(i)
		}
	}

	if len(handles) == 0 {
		logger.Warn("[Cluster] Empty graph, nothing to cluster")
		return []Assignment{}, nil
	}

	type task struct {
		handles []int32
		level   int
		parent  int
		seed    int64
	}

	var out []Assignment
	nextID := 0
	queue := []task{{handles: handles, level: 0, parent: -1, seed: opts.Seed}}

	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]

		groups := partition(g, t.handles, t.seed)
		if t.parent != -1 && len(groups) == 1 && len(groups[0]) == len(t.handles) {
			// local moving found no split, bound the size by chunking
			groups = chunkByTitle(g, t.handles, opts.MaxClusterSize)
			logger.Debug("[Cluster] Community resisted splitting, chunked by title",
				"parent", t.parent, "members", len(t.handles), "chunks", len(groups))
		}

		for _, members := range groups {
			id := nextID
			nextID++

			titles := make([]string, len(members))
			for i, h := range members {
				titles[i] = g.Title(h)
			}
			out = append(out, Assignment{
				Level:     t.level,
				Community: id,
				Parent:    t.parent,
				Nodes:     titles,
			})

			if len(members) > opts.MaxClusterSize {
				queue = append(queue, task{
					handles: members,
					level:   t.level + 1,
					parent:  id,
					seed:    opts.Seed + int64(id) + 1,
				})
			}
		}
	}

	logger.Debug("[Cluster] Hierarchy complete", "communities", nextID, "nodes", len(handles))
	return out, nil
}

// partition splits the given node set into communities by local-moving
// modularity optimization on the induced subgraph. Groups come back sorted
// by their smallest member handle, members ascending, so downstream ids are
// deterministic. A node set without edges falls apart into singletons.
func partition(g *graph.Graph, handles []int32, seed int64) [][]int32 {
	if len(handles) == 1 {
		return [][]int32{{handles[0]}}
	}

	sub := g.Induced(handles)
	if sub.EdgeCount() == 0 {
		groups := make([][]int32, len(handles))
		for i, h := range handles {
			groups[i] = []int32{h}
		}
		return groups
	}

	// subgraph handle i corresponds to handles[i]
	comm := localMove(sub, seed)

	byComm := make(map[int][]int32)
	for i, c := range comm {
		byComm[c] = append(byComm[c], handles[i])
	}

	groups := make([][]int32, 0, len(byComm))
	for _, members := range byComm {
		slices.Sort(members)
		groups = append(groups, members)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}

// localMove runs single-level local-moving modularity optimization and
// returns the community index per node handle. Every node starts alone; in
// hash-seeded visit order each node moves to the adjacent community with the
// best modularity gain until a full pass makes no move.
func localMove(g *graph.Graph, seed int64) []int {
	n := g.NodeCount()
	comm := make([]int, n)
	commTotal := make([]float64, n)
	degree := make([]float64, n)
	for h := 0; h < n; h++ {
		comm[h] = h
		degree[h] = g.WeightedDegree(int32(h))
		commTotal[h] = degree[h]
	}
	m2 := 2 * g.TotalEdgeWeight()

	order := visitOrder(g, seed)

	for pass := 0; pass < maxLocalMovePasses; pass++ {
		moved := false
		for _, h := range order {
			current := comm[h]

			// edge weight from h into each adjacent community
			weights := make(map[int]float64)
			for _, e := range g.Edges(h) {
				weights[comm[e.To]] += e.Weight
			}

			commTotal[current] -= degree[h]

			candidates := make([]int, 0, len(weights)+1)
			for c := range weights {
				candidates = append(candidates, c)
			}
			if _, ok := weights[current]; !ok {
				candidates = append(candidates, current)
			}
			slices.Sort(candidates)

			best := current
			bestGain := math.Inf(-1)
			for _, c := range candidates {
				gain := weights[c] - commTotal[c]*degree[h]/m2
				if gain > bestGain+gainEpsilon {
					best = c
					bestGain = gain
				}
			}

			commTotal[best] += degree[h]
			if best != current {
				comm[h] = best
				moved = true
			}
		}
		if !moved {
			break
		}
	}

	return comm
}

// visitOrder sorts node handles by the hash of (seed, title), titles breaking
// hash collisions.
func visitOrder(g *graph.Graph, seed int64) []int32 {
	n := g.NodeCount()
	order := make([]int32, n)
	keys := make([]uint64, n)
	for h := 0; h < n; h++ {
		order[h] = int32(h)
		keys[h] = visitKey(seed, g.Title(int32(h)))
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if keys[a] != keys[b] {
			return keys[a] < keys[b]
		}
		return g.Title(a) < g.Title(b)
	})
	return order
}

func visitKey(seed int64, title string) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(seed))
	h.Write(buf[:])
	h.Write([]byte(title))
	return h.Sum64()
}

// chunkByTitle splits the node set into consecutive chunks of at most size
// members in sorted title order. Used when modularity cannot subdivide an
// oversized community, such as a clique.
func chunkByTitle(g *graph.Graph, handles []int32, size int) [][]int32 {
	sorted := slices.Clone(handles)
	sort.Slice(sorted, func(i, j int) bool { return g.Title(sorted[i]) < g.Title(sorted[j]) })

	var groups [][]int32
	for start := 0; start < len(sorted); start += size {
		end := min(start+size, len(sorted))
		groups = append(groups, sorted[start:end:end])
	}
	return groups
}
