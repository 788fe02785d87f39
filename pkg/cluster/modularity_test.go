package cluster

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"testing"

	"github.com/OFFIS-RIT/grove/pkg/graph"
)

func buildGraph(edges [][2]string) *graph.Graph {
	g := graph.New()
	for _, e := range edges {
		g.AddEdge(e[0], e[1], 1.0, graph.WeightSum)
	}
	return g
}

func twoTriangles() *graph.Graph {
	return buildGraph([][2]string{
		{"A", "B"}, {"B", "C"}, {"A", "C"},
		{"D", "E"}, {"E", "F"}, {"D", "F"},
	})
}

func sortedNodes(a Assignment) []string {
	nodes := slices.Clone(a.Nodes)
	slices.Sort(nodes)
	return nodes
}

func TestCluster_InvalidOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{
			name:    "zero seed",
			opts:    Options{MaxClusterSize: 10, Seed: 0},
			wantErr: ErrInvalidSeed,
		},
		{
			name:    "negative seed",
			opts:    Options{MaxClusterSize: 10, Seed: -5},
			wantErr: ErrInvalidSeed,
		},
		{
			name:    "zero cluster size",
			opts:    Options{MaxClusterSize: 0, Seed: 1},
			wantErr: ErrInvalidClusterSize,
		},
	}

	splitter := NewModularitySplitter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := splitter.Cluster(twoTriangles(), tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Cluster() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCluster_EmptyGraph(t *testing.T) {
	splitter := NewModularitySplitter()
	got, err := splitter.Cluster(graph.New(), Options{MaxClusterSize: 10, Seed: 1})
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	if got == nil {
		t.Fatal("expected non-nil empty result")
	}
	if len(got) != 0 {
		t.Errorf("got %d assignments, want 0", len(got))
	}
}

func TestCluster_SingleNode(t *testing.T) {
	g := graph.New()
	g.AddNode("ONLY")

	splitter := NewModularitySplitter()
	got, err := splitter.Cluster(g, Options{MaxClusterSize: 10, Seed: 1})
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d assignments, want 1", len(got))
	}
	a := got[0]
	if a.Level != 0 || a.Parent != -1 || a.Community != 0 {
		t.Errorf("assignment = %+v, want level 0, community 0, parent -1", a)
	}
	if !slices.Equal(a.Nodes, []string{"ONLY"}) {
		t.Errorf("nodes = %v, want [ONLY]", a.Nodes)
	}
}

func TestCluster_TwoTriangles(t *testing.T) {
	splitter := NewModularitySplitter()
	got, err := splitter.Cluster(twoTriangles(), Options{MaxClusterSize: 10, Seed: 1})
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d assignments, want 2: %+v", len(got), got)
	}

	wantSets := [][]string{{"A", "B", "C"}, {"D", "E", "F"}}
	for i, a := range got {
		if a.Level != 0 {
			t.Errorf("community %d level = %d, want 0", a.Community, a.Level)
		}
		if a.Parent != -1 {
			t.Errorf("community %d parent = %d, want -1", a.Community, a.Parent)
		}
		if !slices.Equal(sortedNodes(a), wantSets[i]) {
			t.Errorf("community %d nodes = %v, want %v", a.Community, sortedNodes(a), wantSets[i])
		}
	}
}

func TestCluster_LargestComponentOnly(t *testing.T) {
	splitter := NewModularitySplitter()
	got, err := splitter.Cluster(twoTriangles(), Options{
		MaxClusterSize:      10,
		UseLargestComponent: true,
		Seed:                1,
	})
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d assignments, want 1: %+v", len(got), got)
	}
	if len(got[0].Nodes) != 3 {
		t.Errorf("community size = %d, want 3", len(got[0].Nodes))
	}
	// components tie on size, the one containing the smallest handle wins
	if want := []string{"A", "B", "C"}; !slices.Equal(sortedNodes(got[0]), want) {
		t.Errorf("nodes = %v, want %v", sortedNodes(got[0]), want)
	}
}

func TestCluster_Deterministic(t *testing.T) {
	build := func() *graph.Graph {
		g := graph.New()
		// ring with chords, fixed construction
		for i := 0; i < 30; i++ {
			a := fmt.Sprintf("N%02d", i)
			b := fmt.Sprintf("N%02d", (i+1)%30)
			c := fmt.Sprintf("N%02d", (i*i)%30)
			g.AddEdge(a, b, 1.0, graph.WeightSum)
			if a != c {
				g.AddEdge(a, c, 0.5, graph.WeightSum)
			}
		}
		return g
	}

	splitter := NewModularitySplitter()
	opts := Options{MaxClusterSize: 5, Seed: 42}

	first, err := splitter.Cluster(build(), opts)
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}
	second, err := splitter.Cluster(build(), opts)
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Cluster() not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestCluster_SizeBoundByChunking(t *testing.T) {
	// a 5-clique cannot be split by modularity
	titles := []string{"A", "B", "C", "D", "E"}
	g := graph.New()
	for i := 0; i < len(titles); i++ {
		for j := i + 1; j < len(titles); j++ {
			g.AddEdge(titles[i], titles[j], 1.0, graph.WeightSum)
		}
	}

	splitter := NewModularitySplitter()
	got, err := splitter.Cluster(g, Options{MaxClusterSize: 2, Seed: 7})
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}

	byID := make(map[int]Assignment, len(got))
	for _, a := range got {
		byID[a.Community] = a
	}

	root := got[0]
	if root.Level != 0 || root.Parent != -1 || len(root.Nodes) != 5 {
		t.Fatalf("root = %+v, want level 0, parent -1, 5 nodes", root)
	}

	var children []Assignment
	for _, a := range got[1:] {
		if a.Parent == root.Community {
			children = append(children, a)
		}
	}
	if len(children) != 3 {
		t.Fatalf("got %d children, want 3 chunks of the 5-clique", len(children))
	}

	var union []string
	for _, c := range children {
		if c.Level != root.Level+1 {
			t.Errorf("child %d level = %d, want %d", c.Community, c.Level, root.Level+1)
		}
		if len(c.Nodes) > 2 {
			t.Errorf("child %d size = %d, exceeds bound 2", c.Community, len(c.Nodes))
		}
		union = append(union, c.Nodes...)
	}
	slices.Sort(union)
	if !slices.Equal(union, titles) {
		t.Errorf("children union = %v, want %v", union, titles)
	}
}

func TestCluster_HierarchyInvariants(t *testing.T) {
	// two 6-cliques joined by one bridge, bound forces subdivision
	g := graph.New()
	groups := [][]string{
		{"A0", "A1", "A2", "A3", "A4", "A5"},
		{"B0", "B1", "B2", "B3", "B4", "B5"},
	}
	for _, members := range groups {
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				g.AddEdge(members[i], members[j], 1.0, graph.WeightSum)
			}
		}
	}
	g.AddEdge("A0", "B0", 0.1, graph.WeightSum)

	splitter := NewModularitySplitter()
	got, err := splitter.Cluster(g, Options{MaxClusterSize: 4, Seed: 3})
	if err != nil {
		t.Fatalf("Cluster() error = %v", err)
	}

	byID := make(map[int]Assignment, len(got))
	for _, a := range got {
		if _, dup := byID[a.Community]; dup {
			t.Fatalf("duplicate community id %d", a.Community)
		}
		byID[a.Community] = a
	}

	for _, a := range got {
		if a.Parent == -1 {
			if a.Level != 0 {
				t.Errorf("root community %d at level %d, want 0", a.Community, a.Level)
			}
			continue
		}

		parent, ok := byID[a.Parent]
		if !ok {
			t.Fatalf("community %d references missing parent %d", a.Community, a.Parent)
		}
		if a.Level != parent.Level+1 {
			t.Errorf("community %d level = %d, want parent level+1 = %d",
				a.Community, a.Level, parent.Level+1)
		}
		parentSet := make(map[string]bool, len(parent.Nodes))
		for _, n := range parent.Nodes {
			parentSet[n] = true
		}
		for _, n := range a.Nodes {
			if !parentSet[n] {
				t.Errorf("community %d node %s not in parent %d", a.Community, n, a.Parent)
			}
		}
	}

	// every oversized community is fully partitioned by its children
	for _, a := range got {
		if len(a.Nodes) <= 4 {
			continue
		}
		var union []string
		for _, c := range got {
			if c.Parent == a.Community {
				union = append(union, c.Nodes...)
			}
		}
		slices.Sort(union)
		if !slices.Equal(union, sortedNodes(a)) {
			t.Errorf("children of oversized community %d cover %v, want %v",
				a.Community, union, sortedNodes(a))
		}
	}
}
