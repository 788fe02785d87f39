package community

import (
	"slices"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/grove/pkg/cluster"
	"github.com/OFFIS-RIT/grove/pkg/common"
)

func testEntities() []common.Entity {
	titles := []string{"A", "B", "C", "D", "E", "F"}
	entities := make([]common.Entity, len(titles))
	for i, title := range titles {
		entities[i] = common.Entity{
			ID:              "id-" + strings.ToLower(title),
			HumanReadableID: i,
			Title:           title,
		}
	}
	return entities
}

func testRelationships() []common.Relationship {
	return []common.Relationship{
		{ID: "r1", Source: "A", Target: "B", TextUnitIDs: []string{"u1", "u2"}},
		{ID: "r2", Source: "B", Target: "C", TextUnitIDs: []string{"u2", "u3"}},
		{ID: "r3", Source: "C", Target: "D", TextUnitIDs: []string{"u9"}},
		{ID: "r4", Source: "D", Target: "E", TextUnitIDs: []string{"u4"}},
	}
}

func testAssignments() []cluster.Assignment {
	return []cluster.Assignment{
		{Level: 0, Community: 0, Parent: -1, Nodes: []string{"A", "B", "C"}},
		{Level: 0, Community: 1, Parent: -1, Nodes: []string{"D", "E", "F"}},
		{Level: 1, Community: 2, Parent: 0, Nodes: []string{"A", "B"}},
		{Level: 1, Community: 3, Parent: 0, Nodes: []string{"C"}},
	}
}

func TestBuildTree(t *testing.T) {
	got, err := BuildTree(BuildTreeParams{
		Assignments:   testAssignments(),
		Entities:      testEntities(),
		Relationships: testRelationships(),
		Period:        "2026-08-21",
	})
	if err != nil {
		t.Fatalf("BuildTree() error = %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d communities, want 4", len(got))
	}

	byID := make(map[int]common.Community, len(got))
	seenUUIDs := make(map[string]bool)
	for _, c := range got {
		if c.ID == "" {
			t.Errorf("community %d has no id", c.Community)
		}
		if seenUUIDs[c.ID] {
			t.Errorf("duplicate community id %s", c.ID)
		}
		seenUUIDs[c.ID] = true
		if c.HumanReadableID != c.Community {
			t.Errorf("community %d hrid = %d, want %d", c.Community, c.HumanReadableID, c.Community)
		}
		if c.Children == nil {
			t.Errorf("community %d children is nil", c.Community)
		}
		if c.Size != len(c.EntityIDs) {
			t.Errorf("community %d size = %d, want %d", c.Community, c.Size, len(c.EntityIDs))
		}
		if c.Period != "2026-08-21" {
			t.Errorf("community %d period = %q", c.Community, c.Period)
		}
		byID[c.Community] = c
	}

	tests := []struct {
		community   int
		level       int
		parent      int
		title       string
		entityIDs   []string
		relIDs      []string
		textUnitIDs []string
		children    []int
	}{
		{
			community: 0, level: 0, parent: -1, title: "Community 0",
			entityIDs:   []string{"id-a", "id-b", "id-c"},
			relIDs:      []string{"r1", "r2"},
			textUnitIDs: []string{"u1", "u2", "u3"},
			children:    []int{2, 3},
		},
		{
			community: 1, level: 0, parent: -1, title: "Community 1",
			entityIDs:   []string{"id-d", "id-e", "id-f"},
			relIDs:      []string{"r4"},
			textUnitIDs: []string{"u4"},
			children:    []int{},
		},
		{
			community: 2, level: 1, parent: 0, title: "Community 2",
			entityIDs:   []string{"id-a", "id-b"},
			relIDs:      []string{"r1"},
			textUnitIDs: []string{"u1", "u2"},
			children:    []int{},
		},
		{
			community: 3, level: 1, parent: 0, title: "Community 3",
			entityIDs:   []string{"id-c"},
			relIDs:      []string{},
			textUnitIDs: []string{},
			children:    []int{},
		},
	}

	for _, tt := range tests {
		c, ok := byID[tt.community]
		if !ok {
			t.Errorf("community %d missing from output", tt.community)
			continue
		}
		if c.Level != tt.level {
			t.Errorf("community %d level = %d, want %d", tt.community, c.Level, tt.level)
		}
		if c.Parent != tt.parent {
			t.Errorf("community %d parent = %d, want %d", tt.community, c.Parent, tt.parent)
		}
		if c.Title != tt.title {
			t.Errorf("community %d title = %q, want %q", tt.community, c.Title, tt.title)
		}
		if !slices.Equal(c.EntityIDs, tt.entityIDs) {
			t.Errorf("community %d entity ids = %v, want %v", tt.community, c.EntityIDs, tt.entityIDs)
		}
		if !slices.Equal(c.RelationshipIDs, tt.relIDs) {
			t.Errorf("community %d relationship ids = %v, want %v", tt.community, c.RelationshipIDs, tt.relIDs)
		}
		if !slices.Equal(c.TextUnitIDs, tt.textUnitIDs) {
			t.Errorf("community %d text units = %v, want %v", tt.community, c.TextUnitIDs, tt.textUnitIDs)
		}
		if !slices.Equal(c.Children, tt.children) {
			t.Errorf("community %d children = %v, want %v", tt.community, c.Children, tt.children)
		}
	}
}

func TestBuildTree_ParentChildReciprocity(t *testing.T) {
	got, err := BuildTree(BuildTreeParams{
		Assignments:   testAssignments(),
		Entities:      testEntities(),
		Relationships: testRelationships(),
		Period:        "2026-08-21",
	})
	if err != nil {
		t.Fatalf("BuildTree() error = %v", err)
	}

	byID := make(map[int]common.Community, len(got))
	for _, c := range got {
		byID[c.Community] = c
	}

	for _, c := range got {
		if c.Parent == -1 {
			continue
		}
		parent, ok := byID[c.Parent]
		if !ok {
			t.Fatalf("community %d parent %d missing", c.Community, c.Parent)
		}
		if !slices.Contains(parent.Children, c.Community) {
			t.Errorf("community %d not listed in parent %d children %v", c.Community, c.Parent, parent.Children)
		}
	}
	for _, c := range got {
		for _, child := range c.Children {
			if byID[child].Parent != c.Community {
				t.Errorf("child %d parent = %d, want %d", child, byID[child].Parent, c.Community)
			}
		}
	}
}

func TestBuildTree_Empty(t *testing.T) {
	got, err := BuildTree(BuildTreeParams{Period: "2026-08-21"})
	if err != nil {
		t.Fatalf("BuildTree() error = %v", err)
	}
	if got == nil {
		t.Fatal("expected non-nil empty result")
	}
	if len(got) != 0 {
		t.Errorf("got %d communities, want 0", len(got))
	}
}

func TestBuildTree_Errors(t *testing.T) {
	tests := []struct {
		name        string
		assignments []cluster.Assignment
		entities    []common.Entity
	}{
		{
			name: "unknown entity title",
			assignments: []cluster.Assignment{
				{Level: 0, Community: 0, Parent: -1, Nodes: []string{"GHOST"}},
			},
			entities: testEntities(),
		},
		{
			name: "community spans two parents",
			assignments: []cluster.Assignment{
				{Level: 0, Community: 0, Parent: -1, Nodes: []string{"A", "B"}},
				{Level: 0, Community: 1, Parent: -1, Nodes: []string{"C", "D"}},
				{Level: 1, Community: 2, Parent: 0, Nodes: []string{"B", "C"}},
			},
			entities: testEntities(),
		},
		{
			name: "declared parent contradicts containment",
			assignments: []cluster.Assignment{
				{Level: 0, Community: 0, Parent: -1, Nodes: []string{"A", "B"}},
				{Level: 0, Community: 1, Parent: -1, Nodes: []string{"C", "D"}},
				{Level: 1, Community: 2, Parent: 1, Nodes: []string{"A"}},
			},
			entities: testEntities(),
		},
		{
			name: "child node missing from parent level",
			assignments: []cluster.Assignment{
				{Level: 0, Community: 0, Parent: -1, Nodes: []string{"A", "B"}},
				{Level: 1, Community: 1, Parent: 0, Nodes: []string{"E"}},
			},
			entities: testEntities(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildTree(BuildTreeParams{
				Assignments: tt.assignments,
				Entities:    tt.entities,
				Period:      "2026-08-21",
			})
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
