package graph

import (
	"slices"
	"testing"

	"github.com/OFFIS-RIT/grove/pkg/common"
)

func TestBuildGraph(t *testing.T) {
	tests := []struct {
		name          string
		entities      []common.Entity
		relationships []common.Relationship
		wantNodes     int
		wantEdges     int
	}{
		{
			name: "relationships imply nodes",
			relationships: []common.Relationship{
				{Source: "A", Target: "B", Weight: 1.0},
				{Source: "B", Target: "C", Weight: 2.0},
			},
			wantNodes: 3,
			wantEdges: 2,
		},
		{
			name: "entities without relationships stay isolated",
			entities: []common.Entity{
				{Title: "A"},
				{Title: "B"},
				{Title: "LONER"},
			},
			relationships: []common.Relationship{
				{Source: "A", Target: "B", Weight: 1.0},
			},
			wantNodes: 3,
			wantEdges: 1,
		},
		{
			name:      "no input yields empty graph",
			wantNodes: 0,
			wantEdges: 0,
		},
		{
			name: "duplicate pairs collapse to one edge",
			relationships: []common.Relationship{
				{Source: "A", Target: "B", Weight: 1.0},
				{Source: "B", Target: "A", Weight: 2.0},
			},
			wantNodes: 2,
			wantEdges: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := BuildGraph(BuildGraphParams{
				Entities:      tt.entities,
				Relationships: tt.relationships,
				Policy:        WeightSum,
			})

			if g.NodeCount() != tt.wantNodes {
				t.Errorf("NodeCount() = %d, want %d", g.NodeCount(), tt.wantNodes)
			}
			if g.EdgeCount() != tt.wantEdges {
				t.Errorf("EdgeCount() = %d, want %d", g.EdgeCount(), tt.wantEdges)
			}
		})
	}
}

func TestBuildGraph_DefaultWeight(t *testing.T) {
	g := BuildGraph(BuildGraphParams{
		Relationships: []common.Relationship{
			{Source: "A", Target: "B"},
		},
		Policy: WeightSum,
	})

	h, ok := g.Handle("A")
	if !ok {
		t.Fatal("expected handle for A")
	}
	if got := g.WeightedDegree(h); got != 1.0 {
		t.Errorf("WeightedDegree(A) = %v, want 1.0 for missing weight", got)
	}
}

func TestCanonicalizeRelationships(t *testing.T) {
	tests := []struct {
		name   string
		input  []common.Relationship
		policy WeightPolicy
		want   []common.Relationship
	}{
		{
			name: "orients source before target",
			input: []common.Relationship{
				{Source: "ZULU", Target: "ALPHA", Weight: 1.0},
			},
			policy: WeightSum,
			want: []common.Relationship{
				{Source: "ALPHA", Target: "ZULU", Weight: 1.0},
			},
		},
		{
			name: "sums duplicate weights and unions text units",
			input: []common.Relationship{
				{Source: "A", Target: "B", Weight: 1.0, Description: "first", TextUnitIDs: []string{"u1"}},
				{Source: "B", Target: "A", Weight: 2.0, Description: "second", TextUnitIDs: []string{"u2", "u1"}},
			},
			policy: WeightSum,
			want: []common.Relationship{
				{Source: "A", Target: "B", Weight: 3.0, Description: "first", TextUnitIDs: []string{"u1", "u2"}},
			},
		},
		{
			name: "max keeps largest duplicate weight",
			input: []common.Relationship{
				{Source: "A", Target: "B", Weight: 2.0},
				{Source: "A", Target: "B", Weight: 5.0},
				{Source: "A", Target: "B", Weight: 3.0},
			},
			policy: WeightMax,
			want: []common.Relationship{
				{Source: "A", Target: "B", Weight: 5.0},
			},
		},
		{
			name: "drops self loops",
			input: []common.Relationship{
				{Source: "A", Target: "A", Weight: 1.0},
				{Source: "A", Target: "B", Weight: 1.0},
			},
			policy: WeightSum,
			want: []common.Relationship{
				{Source: "A", Target: "B", Weight: 1.0},
			},
		},
		{
			name: "missing weight counts as one",
			input: []common.Relationship{
				{Source: "A", Target: "B"},
				{Source: "A", Target: "B"},
			},
			policy: WeightSum,
			want: []common.Relationship{
				{Source: "A", Target: "B", Weight: 2.0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanonicalizeRelationships(tt.input, tt.policy)

			if len(got) != len(tt.want) {
				t.Fatalf("got %d relationships, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Source != tt.want[i].Source || got[i].Target != tt.want[i].Target {
					t.Errorf("relationship %d = %s->%s, want %s->%s",
						i, got[i].Source, got[i].Target, tt.want[i].Source, tt.want[i].Target)
				}
				if got[i].Weight != tt.want[i].Weight {
					t.Errorf("relationship %d weight = %v, want %v", i, got[i].Weight, tt.want[i].Weight)
				}
				if tt.want[i].Description != "" && got[i].Description != tt.want[i].Description {
					t.Errorf("relationship %d description = %q, want %q", i, got[i].Description, tt.want[i].Description)
				}
				if tt.want[i].TextUnitIDs != nil && !slices.Equal(got[i].TextUnitIDs, tt.want[i].TextUnitIDs) {
					t.Errorf("relationship %d text units = %v, want %v", i, got[i].TextUnitIDs, tt.want[i].TextUnitIDs)
				}
			}
		})
	}
}

func TestFinalizeTables(t *testing.T) {
	entities := []common.Entity{
		{Title: "A", TextUnitIDs: []string{"u1", "u2"}},
		{Title: "B", TextUnitIDs: []string{"u1"}},
		{Title: "C", Frequency: 7},
		{Title: "LONER"},
	}
	relationships := CanonicalizeRelationships([]common.Relationship{
		{Source: "A", Target: "B", Weight: 1.0},
		{Source: "A", Target: "C", Weight: 2.0},
		{Source: "B", Target: "C", Weight: 1.0},
	}, WeightSum)

	g := BuildGraph(BuildGraphParams{
		Entities:      entities,
		Relationships: relationships,
		Policy:        WeightSum,
	})

	gotEntities, gotRels, err := FinalizeTables(entities, relationships, g)
	if err != nil {
		t.Fatalf("FinalizeTables() error = %v", err)
	}

	wantDegrees := map[string]int{"A": 2, "B": 2, "C": 2, "LONER": 0}
	wantFrequency := map[string]int{"A": 2, "B": 1, "C": 7, "LONER": 0}

	seenIDs := make(map[string]bool)
	for i, e := range gotEntities {
		if e.ID == "" {
			t.Errorf("entity %s has no id", e.Title)
		}
		if seenIDs[e.ID] {
			t.Errorf("duplicate entity id %s", e.ID)
		}
		seenIDs[e.ID] = true
		if e.HumanReadableID != i {
			t.Errorf("entity %s hrid = %d, want %d", e.Title, e.HumanReadableID, i)
		}
		if e.Degree != wantDegrees[e.Title] {
			t.Errorf("entity %s degree = %d, want %d", e.Title, e.Degree, wantDegrees[e.Title])
		}
		if e.Frequency != wantFrequency[e.Title] {
			t.Errorf("entity %s frequency = %d, want %d", e.Title, e.Frequency, wantFrequency[e.Title])
		}
	}

	for i, r := range gotRels {
		if r.ID == "" {
			t.Errorf("relationship %d has no id", i)
		}
		if r.HumanReadableID != i {
			t.Errorf("relationship %d hrid = %d, want %d", i, r.HumanReadableID, i)
		}
		wantCombined := wantDegrees[r.Source] + wantDegrees[r.Target]
		if r.CombinedDegree != wantCombined {
			t.Errorf("relationship %s->%s combined degree = %d, want %d",
				r.Source, r.Target, r.CombinedDegree, wantCombined)
		}
	}
}

func TestFinalizeTables_KeepsExistingIDs(t *testing.T) {
	entities := []common.Entity{{ID: "keep-me", Title: "A"}}
	g := BuildGraph(BuildGraphParams{Entities: entities, Policy: WeightSum})

	gotEntities, _, err := FinalizeTables(entities, nil, g)
	if err != nil {
		t.Fatalf("FinalizeTables() error = %v", err)
	}
	if gotEntities[0].ID != "keep-me" {
		t.Errorf("entity id = %s, want keep-me", gotEntities[0].ID)
	}
}
