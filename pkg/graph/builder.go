package graph

import (
	"fmt"

	"github.com/OFFIS-RIT/grove/internal/util"
	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// BuildGraphParams carries the inputs for BuildGraph.
type BuildGraphParams struct {
	// Entities optionally seeds explicit nodes; entities without any
	// relationship stay in the graph as isolated nodes.
	Entities      []common.Entity
	Relationships []common.Relationship
	Policy        WeightPolicy
}

// BuildGraph builds the undirected entity graph from a relationship table.
// Relationship rows without a weight count as 1.0. Duplicate undirected
// pairs, in either direction, are combined per the configured policy. Empty
// input yields an empty graph and a warning, not an error.
func BuildGraph(params BuildGraphParams) *Graph {
	g := New()

	for _, entity := range params.Entities {
		g.AddNode(entity.Title)
	}

	if len(params.Relationships) == 0 {
		logger.Warn("[Graph] No relationships provided, graph is empty", "nodes", g.NodeCount())
		return g
	}

	for _, rel := range params.Relationships {
		weight := rel.Weight
		if weight == 0 {
			weight = 1.0
		}
		g.AddEdge(rel.Source, rel.Target, weight, params.Policy)
	}

	return g
}

// CanonicalizeRelationships normalizes a relationship table so that
// Source < Target lexicographically and no undirected pair occurs twice.
// Duplicate rows are folded into the first occurrence: weights combine per
// policy, text unit ids are unioned, the first description wins. Self loops
// are dropped. Row order otherwise follows the input.
func CanonicalizeRelationships(relationships []common.Relationship, policy WeightPolicy) []common.Relationship {
	undirectedKey := func(a, b string) string {
		if a <= b {
			return a + "\x00" + b
		}
		return b + "\x00" + a
	}

	out := make([]common.Relationship, 0, len(relationships))
	seen := make(map[string]int, len(relationships))

	for _, rel := range relationships {
		if rel.Source == rel.Target {
			continue
		}
		if rel.Source > rel.Target {
			rel.Source, rel.Target = rel.Target, rel.Source
		}
		if rel.Weight == 0 {
			rel.Weight = 1.0
		}

		key := undirectedKey(rel.Source, rel.Target)
		i, ok := seen[key]
		if !ok {
			seen[key] = len(out)
			out = append(out, rel)
			continue
		}

		switch policy {
		case WeightSum:
			out[i].Weight += rel.Weight
		case WeightMax:
			if rel.Weight > out[i].Weight {
				out[i].Weight = rel.Weight
			}
		}
		out[i].TextUnitIDs = util.SortedUnion(out[i].TextUnitIDs, rel.TextUnitIDs)
	}

	return out
}

// FinalizeTables assigns opaque ids, sequential human readable ids, default
// frequencies and graph degrees to the entity and relationship tables. The
// graph must have been built from the same relationship table.
func FinalizeTables(entities []common.Entity, relationships []common.Relationship, g *Graph) ([]common.Entity, []common.Relationship, error) {
	for i := range entities {
		if entities[i].ID == "" {
			id, err := gonanoid.New()
			if err != nil {
				return nil, nil, fmt.Errorf("failed to generate entity id: %w", err)
			}
			entities[i].ID = id
		}
		entities[i].HumanReadableID = i
		if entities[i].Frequency == 0 {
			entities[i].Frequency = len(entities[i].TextUnitIDs)
		}
		if h, ok := g.Handle(entities[i].Title); ok {
			entities[i].Degree = g.Degree(h)
		}
	}

	degreeOf := func(title string) int {
		if h, ok := g.Handle(title); ok {
			return g.Degree(h)
		}
		return 0
	}

	for i := range relationships {
		if relationships[i].ID == "" {
			id, err := gonanoid.New()
			if err != nil {
				return nil, nil, fmt.Errorf("failed to generate relationship id: %w", err)
			}
			relationships[i].ID = id
		}
		relationships[i].HumanReadableID = i
		relationships[i].SourceDegree = degreeOf(relationships[i].Source)
		relationships[i].TargetDegree = degreeOf(relationships[i].Target)
		relationships[i].CombinedDegree = relationships[i].SourceDegree + relationships[i].TargetDegree
	}

	return entities, relationships, nil
}
