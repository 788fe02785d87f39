package graph

import (
	"slices"
	"testing"
)

func TestAddEdge_CombinesDuplicates(t *testing.T) {
	tests := []struct {
		name       string
		policy     WeightPolicy
		weights    []float64
		wantWeight float64
	}{
		{
			name:       "sum policy adds weights",
			policy:     WeightSum,
			weights:    []float64{1.0, 2.5, 0.5},
			wantWeight: 4.0,
		},
		{
			name:       "max policy keeps largest",
			policy:     WeightMax,
			weights:    []float64{1.0, 3.0, 2.0},
			wantWeight: 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for i, w := range tt.weights {
				// alternate direction to confirm pairs combine either way
				if i%2 == 0 {
					g.AddEdge("A", "B", w, tt.policy)
				} else {
					g.AddEdge("B", "A", w, tt.policy)
				}
			}

			if g.EdgeCount() != 1 {
				t.Fatalf("EdgeCount() = %d, want 1", g.EdgeCount())
			}
			h, ok := g.Handle("A")
			if !ok {
				t.Fatal("expected handle for A")
			}
			edges := g.Edges(h)
			if len(edges) != 1 {
				t.Fatalf("len(Edges(A)) = %d, want 1", len(edges))
			}
			if edges[0].Weight != tt.wantWeight {
				t.Errorf("edge weight = %v, want %v", edges[0].Weight, tt.wantWeight)
			}
		})
	}
}

func TestAddEdge_DropsSelfLoops(t *testing.T) {
	g := New()
	g.AddEdge("A", "A", 1.0, WeightSum)

	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
	if g.NodeCount() != 0 {
		t.Errorf("NodeCount() = %d, want 0", g.NodeCount())
	}
}

func TestGraph_DegreeAndWeights(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", 1.0, WeightSum)
	g.AddEdge("A", "C", 2.0, WeightSum)
	g.AddEdge("B", "C", 3.0, WeightSum)
	g.AddEdge("C", "D", 4.0, WeightSum)

	tests := []struct {
		title          string
		wantDegree     int
		wantWeightedDg float64
	}{
		{"A", 2, 3.0},
		{"B", 2, 4.0},
		{"C", 3, 9.0},
		{"D", 1, 4.0},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			h, ok := g.Handle(tt.title)
			if !ok {
				t.Fatalf("expected handle for %s", tt.title)
			}
			if got := g.Degree(h); got != tt.wantDegree {
				t.Errorf("Degree(%s) = %d, want %d", tt.title, got, tt.wantDegree)
			}
			if got := g.WeightedDegree(h); got != tt.wantWeightedDg {
				t.Errorf("WeightedDegree(%s) = %v, want %v", tt.title, got, tt.wantWeightedDg)
			}
		})
	}

	if got := g.TotalEdgeWeight(); got != 10.0 {
		t.Errorf("TotalEdgeWeight() = %v, want 10.0", got)
	}
	if got := g.EdgeCount(); got != 4 {
		t.Errorf("EdgeCount() = %d, want 4", got)
	}
}

func TestGraph_EdgesSortedByHandle(t *testing.T) {
	g := New()
	g.AddEdge("C", "A", 1.0, WeightSum)
	g.AddEdge("C", "D", 1.0, WeightSum)
	g.AddEdge("C", "B", 1.0, WeightSum)

	h, _ := g.Handle("C")
	edges := g.Edges(h)
	for i := 1; i < len(edges); i++ {
		if edges[i-1].To >= edges[i].To {
			t.Fatalf("adjacency list not sorted: %v", edges)
		}
	}
}

func TestInduced(t *testing.T) {
	g := New()
	g.AddEdge("A", "B", 1.0, WeightSum)
	g.AddEdge("B", "C", 2.0, WeightSum)
	g.AddEdge("C", "D", 3.0, WeightSum)
	g.AddEdge("A", "D", 4.0, WeightSum)

	var handles []int32
	for _, title := range []string{"A", "B", "C"} {
		h, ok := g.Handle(title)
		if !ok {
			t.Fatalf("expected handle for %s", title)
		}
		handles = append(handles, h)
	}

	sub := g.Induced(handles)

	if sub.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d, want 3", sub.NodeCount())
	}
	// edges A-D and C-D cross the boundary and must not carry over
	if sub.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", sub.EdgeCount())
	}
	if _, ok := sub.Handle("D"); ok {
		t.Error("expected D to be excluded from subgraph")
	}
	h, _ := sub.Handle("B")
	if got := sub.WeightedDegree(h); got != 3.0 {
		t.Errorf("WeightedDegree(B) = %v, want 3.0", got)
	}
}

func TestLargestComponent(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]string
		nodes []string
		want  []string
	}{
		{
			name: "single component",
			edges: [][2]string{
				{"A", "B"},
				{"B", "C"},
			},
			want: []string{"A", "B", "C"},
		},
		{
			name: "larger component wins",
			edges: [][2]string{
				{"A", "B"},
				{"C", "D"},
				{"D", "E"},
			},
			want: []string{"C", "D", "E"},
		},
		{
			name: "tie picks component with smallest handle",
			edges: [][2]string{
				{"A", "B"},
				{"C", "D"},
			},
			want: []string{"A", "B"},
		},
		{
			name:  "isolated nodes are singleton components",
			edges: [][2]string{{"B", "C"}},
			nodes: []string{"A"},
			want:  []string{"B", "C"},
		},
		{
			name: "empty graph",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for _, n := range tt.nodes {
				g.AddNode(n)
			}
			for _, e := range tt.edges {
				g.AddEdge(e[0], e[1], 1.0, WeightSum)
			}

			got := g.LargestComponent()
			titles := make([]string, 0, len(got))
			for _, h := range got {
				titles = append(titles, g.Title(h))
			}
			slices.Sort(titles)

			if !slices.Equal(titles, tt.want) {
				t.Errorf("LargestComponent() = %v, want %v", titles, tt.want)
			}
		})
	}
}

func TestLargestComponent_Deterministic(t *testing.T) {
	build := func() *Graph {
		g := New()
		g.AddEdge("X", "Y", 1.0, WeightSum)
		g.AddEdge("Y", "Z", 1.0, WeightSum)
		g.AddEdge("P", "Q", 1.0, WeightSum)
		return g
	}

	first := build().LargestComponent()
	second := build().LargestComponent()
	if !slices.Equal(first, second) {
		t.Errorf("LargestComponent() not deterministic: %v vs %v", first, second)
	}
}
