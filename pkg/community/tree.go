package community

import (
	"fmt"
	"slices"
	"sort"

	"github.com/OFFIS-RIT/grove/internal/util"
	"github.com/OFFIS-RIT/grove/pkg/cluster"
	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/logger"

	"github.com/google/uuid"
)

// BuildTreeParams carries the inputs for BuildTree.
type BuildTreeParams struct {
	Assignments   []cluster.Assignment
	Entities      []common.Entity
	Relationships []common.Relationship
	// Period is the ISO date stamped on every community row.
	Period string
}

// BuildTree materializes flat clusterer assignments into community rows.
// Member titles resolve to entity ids through a lookup built once up front.
// Per level, relationships join a community only when both endpoints map to
// that same community; their ids and text unit ids are deduplicated and
// sorted. Parent and child links are derived from node-set containment
// between adjacent levels and validated against the assignments, so the
// result is always a forest. Children is never nil.
func BuildTree(params BuildTreeParams) ([]common.Community, error) {
	if len(params.Assignments) == 0 {
		logger.Warn("[Tree] No assignments, no communities to build")
		return []common.Community{}, nil
	}

	idByTitle := make(map[string]string, len(params.Entities))
	for _, e := range params.Entities {
		idByTitle[e.Title] = e.ID
	}

	maxLevel := 0
	for _, a := range params.Assignments {
		if a.Level > maxLevel {
			maxLevel = a.Level
		}
	}
	levels := make([][]cluster.Assignment, maxLevel+1)
	for _, a := range params.Assignments {
		levels[a.Level] = append(levels[a.Level], a)
	}

	// title → community per level
	membership := make([]map[string]int, maxLevel+1)
	for level, assignments := range levels {
		m := make(map[string]int)
		for _, a := range assignments {
			for _, title := range a.Nodes {
				m[title] = a.Community
			}
		}
		membership[level] = m
	}

	relIDs := make(map[int][]string)
	textUnits := make(map[int][]string)
	for level := 0; level <= maxLevel; level++ {
		members := membership[level]
		for _, rel := range params.Relationships {
			src, ok := members[rel.Source]
			if !ok {
				continue
			}
			dst, ok := members[rel.Target]
			if !ok || src != dst {
				continue
			}
			relIDs[src] = append(relIDs[src], rel.ID)
			textUnits[src] = append(textUnits[src], rel.TextUnitIDs...)
		}
	}

	parentOf := make(map[int]int, len(params.Assignments))
	childrenOf := make(map[int][]int)
	for level := 1; level <= maxLevel; level++ {
		parents := membership[level-1]
		for _, a := range levels[level] {
			if len(a.Nodes) == 0 {
				return nil, fmt.Errorf("community %d at level %d has no members", a.Community, level)
			}
			parent := -1
			for _, title := range a.Nodes {
				p, ok := parents[title]
				if !ok {
					return nil, fmt.Errorf("community %d node %q missing from level %d", a.Community, title, level-1)
				}
				if parent == -1 {
					parent = p
				} else if parent != p {
					return nil, fmt.Errorf("community %d spans parent communities %d and %d", a.Community, parent, p)
				}
			}
			if a.Parent != parent {
				return nil, fmt.Errorf("community %d declares parent %d but is contained in %d", a.Community, a.Parent, parent)
			}
			parentOf[a.Community] = parent
			childrenOf[parent] = append(childrenOf[parent], a.Community)
		}
	}

	ordered := slices.Clone(params.Assignments)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Community < ordered[j].Community })

	out := make([]common.Community, 0, len(ordered))
	for _, a := range ordered {
		entityIDs := make([]string, len(a.Nodes))
		for i, title := range a.Nodes {
			id, ok := idByTitle[title]
			if !ok {
				return nil, fmt.Errorf("failed to resolve entity id for title %q", title)
			}
			entityIDs[i] = id
		}

		parent := -1
		if p, ok := parentOf[a.Community]; ok {
			parent = p
		}
		children := util.SortedInts(childrenOf[a.Community])

		out = append(out, common.Community{
			ID:              uuid.New().String(),
			HumanReadableID: a.Community,
			Community:       a.Community,
			Level:           a.Level,
			Parent:          parent,
			Children:        children,
			Title:           fmt.Sprintf("Community %d", a.Community),
			EntityIDs:       entityIDs,
			RelationshipIDs: util.SortedUnion(relIDs[a.Community]),
			TextUnitIDs:     util.SortedUnion(textUnits[a.Community]),
			Period:          params.Period,
			Size:            len(entityIDs),
		})
	}

	logger.Debug("[Tree] Built community rows", "communities", len(out), "levels", maxLevel+1)
	return out, nil
}
