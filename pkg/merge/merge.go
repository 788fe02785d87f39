package merge

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/OFFIS-RIT/grove/internal/util"
	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/logger"
)

// ErrMissingTable marks a merge input handed over without one of its
// required tables. The merge aborts before touching anything.
var ErrMissingTable = errors.New("merge table missing")

// Tables bundles one index run's persisted tables.
type Tables struct {
	Entities      []common.Entity
	Relationships []common.Relationship
	Communities   []common.Community
	Reports       []common.CommunityReport
}

// Result is the outcome of merging a delta run into a previous index.
//
// EntityIDMap maps every old and delta entity id to its canonical merged id.
// RelationshipIDMap does the same for relationships, mapping dropped
// duplicate ids onto the kept row. CommunityIDShift is the offset added to
// every delta community number. Merged is false when the delta carried no
// rows and the previous tables were returned unchanged.
type Result struct {
	Tables            Tables
	EntityIDMap       map[string]string
	RelationshipIDMap map[string]string
	CommunityIDShift  int
	Merged            bool
}

// Merge folds the tables of a delta run into a previous index.
//
// Entities merge by title, relationships by undirected endpoint pair with
// the old row winning, and delta community numbers shift past the old
// maximum so the two hierarchies sit side by side. Every reference between
// the tables is rewritten through the recorded id maps, and the merged
// result is validated before it is returned; a consistency violation aborts
// the merge with no result.
func Merge(prev, delta Tables) (*Result, error) {
	if err := requireTables("previous", prev); err != nil {
		return nil, err
	}
	if err := requireTables("delta", delta); err != nil {
		return nil, err
	}

	if len(delta.Entities) == 0 && len(delta.Relationships) == 0 &&
		len(delta.Communities) == 0 && len(delta.Reports) == 0 {
		logger.Info("[Merge] Empty delta, nothing to merge")
		return &Result{Tables: prev}, nil
	}

	entities, entityIDMap := mergeEntities(prev.Entities, delta.Entities)
	relationships, relIDMap := mergeRelationships(prev.Relationships, delta.Relationships)
	recomputeDegrees(relationships)

	shift := maxCommunityNumber(prev.Communities) + 1
	communities, err := mergeCommunities(prev.Communities, delta.Communities, shift, entityIDMap, relIDMap)
	if err != nil {
		return nil, err
	}
	reports := mergeReports(prev.Reports, delta.Reports, shift)

	merged := Tables{
		Entities:      entities,
		Relationships: relationships,
		Communities:   communities,
		Reports:       reports,
	}
	if err := validate(merged); err != nil {
		return nil, fmt.Errorf("merged tables failed consistency validation: %w", err)
	}

	logger.Info(
		"[Merge] Delta merged into index",
		"entities", len(entities),
		"relationships", len(relationships),
		"communities", len(communities),
		"reports", len(reports),
		"community_shift", shift,
	)
	return &Result{
		Tables:            merged,
		EntityIDMap:       entityIDMap,
		RelationshipIDMap: relIDMap,
		CommunityIDShift:  shift,
		Merged:            true,
	}, nil
}

func requireTables(side string, t Tables) error {
	switch {
	case t.Entities == nil:
		return fmt.Errorf("%w: %s entities", ErrMissingTable, side)
	case t.Relationships == nil:
		return fmt.Errorf("%w: %s relationships", ErrMissingTable, side)
	case t.Communities == nil:
		return fmt.Errorf("%w: %s communities", ErrMissingTable, side)
	case t.Reports == nil:
		return fmt.Errorf("%w: %s reports", ErrMissingTable, side)
	}
	return nil
}

// mergeEntities groups old and delta rows by title. Matches union their
// descriptions and text units onto the old row; everything else keeps the
// first value seen. Delta-new rows continue the human readable id sequence
// after the old maximum.
func mergeEntities(old, delta []common.Entity) ([]common.Entity, map[string]string) {
	merged := make([]common.Entity, 0, len(old)+len(delta))
	idMap := make(map[string]string, len(old)+len(delta))
	byTitle := make(map[string]int, len(old))

	nextHrid := 0
	for _, e := range old {
		if e.HumanReadableID >= nextHrid {
			nextHrid = e.HumanReadableID + 1
		}
		byTitle[e.Title] = len(merged)
		idMap[e.ID] = e.ID
		merged = append(merged, e)
	}

	for _, d := range delta {
		i, ok := byTitle[d.Title]
		if !ok {
			d.HumanReadableID = nextHrid
			nextHrid++
			byTitle[d.Title] = len(merged)
			idMap[d.ID] = d.ID
			merged = append(merged, d)
			continue
		}

		row := &merged[i]
		row.Description = unionDescriptions(row.Description, d.Description)
		row.TextUnitIDs = util.SortedUnion(row.TextUnitIDs, d.TextUnitIDs)
		row.Frequency = len(row.TextUnitIDs)
		idMap[d.ID] = row.ID
	}

	return merged, idMap
}

// unionDescriptions appends the lines of b that a does not already contain.
func unionDescriptions(a, b string) string {
	if a == "" {
		return b
	}
	seen := make(map[string]bool)
	for _, line := range strings.Split(a, "\n") {
		seen[line] = true
	}
	out := a
	for _, line := range strings.Split(b, "\n") {
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		out += "\n" + line
	}
	return out
}

// mergeRelationships concatenates old and delta rows, canonicalizing
// endpoint order and collapsing duplicate undirected pairs. The earlier row
// wins; the dropped row's text units are unioned in and its id recorded in
// the returned map so references can follow the kept row.
func mergeRelationships(old, delta []common.Relationship) ([]common.Relationship, map[string]string) {
	merged := make([]common.Relationship, 0, len(old)+len(delta))
	idMap := make(map[string]string, len(old)+len(delta))
	byPair := make(map[string]int, len(old))

	nextHrid := 0
	add := func(r common.Relationship, countHrid bool) {
		if r.Source > r.Target {
			r.Source, r.Target = r.Target, r.Source
		}
		if r.Source == r.Target {
			logger.Warn("[Merge] Dropping self loop relationship", "id", r.ID, "title", r.Source)
			return
		}
		key := r.Source + "\x00" + r.Target
		if i, ok := byPair[key]; ok {
			kept := &merged[i]
			kept.TextUnitIDs = util.SortedUnion(kept.TextUnitIDs, r.TextUnitIDs)
			idMap[r.ID] = kept.ID
			return
		}
		if countHrid {
			if r.HumanReadableID >= nextHrid {
				nextHrid = r.HumanReadableID + 1
			}
		} else {
			r.HumanReadableID = nextHrid
			nextHrid++
		}
		byPair[key] = len(merged)
		idMap[r.ID] = r.ID
		merged = append(merged, r)
	}

	for _, r := range old {
		add(r, true)
	}
	for _, r := range delta {
		add(r, false)
	}
	return merged, idMap
}

// recomputeDegrees rebuilds the per-endpoint degrees over the merged union
// graph from neighbor sets, so endpoints shared between the old and delta
// runs are not counted twice.
func recomputeDegrees(relationships []common.Relationship) {
	neighbors := make(map[string]map[string]struct{})
	link := func(a, b string) {
		set, ok := neighbors[a]
		if !ok {
			set = make(map[string]struct{})
			neighbors[a] = set
		}
		set[b] = struct{}{}
	}
	for _, r := range relationships {
		link(r.Source, r.Target)
		link(r.Target, r.Source)
	}
	for i := range relationships {
		r := &relationships[i]
		r.SourceDegree = len(neighbors[r.Source])
		r.TargetDegree = len(neighbors[r.Target])
		r.CombinedDegree = r.SourceDegree + r.TargetDegree
	}
}

func maxCommunityNumber(communities []common.Community) int {
	maxID := -1
	for _, c := range communities {
		if c.Community > maxID {
			maxID = c.Community
		}
	}
	return maxID
}

// mergeCommunities shifts every delta community number, parent reference,
// and child reference by the offset, rebuilds title and human readable id
// from the shifted number, and rewrites membership ids through the entity
// and relationship id maps. The -1 root sentinel is never shifted.
func mergeCommunities(
	old, delta []common.Community,
	shift int,
	entityIDMap map[string]string,
	relIDMap map[string]string,
) ([]common.Community, error) {
	merged := make([]common.Community, 0, len(old)+len(delta))
	merged = append(merged, old...)

	for _, c := range delta {
		c.Community += shift
		if c.Parent != -1 {
			c.Parent += shift
		}
		children := slices.Clone(c.Children)
		for i := range children {
			children[i] += shift
		}
		if children == nil {
			children = []int{}
		}
		c.Children = children
		c.Title = fmt.Sprintf("Community %d", c.Community)
		c.HumanReadableID = c.Community

		entityIDs := make([]string, 0, len(c.EntityIDs))
		for _, id := range c.EntityIDs {
			mapped, ok := entityIDMap[id]
			if !ok {
				return nil, fmt.Errorf("delta community %d references unknown entity id %q", c.Community-shift, id)
			}
			entityIDs = append(entityIDs, mapped)
		}
		c.EntityIDs = entityIDs

		relIDs := make([]string, 0, len(c.RelationshipIDs))
		for _, id := range c.RelationshipIDs {
			mapped, ok := relIDMap[id]
			if !ok {
				return nil, fmt.Errorf("delta community %d references unknown relationship id %q", c.Community-shift, id)
			}
			relIDs = append(relIDs, mapped)
		}
		c.RelationshipIDs = relIDs

		merged = append(merged, c)
	}
	return merged, nil
}

// mergeReports applies the community number shift to delta reports and
// concatenates them after the old rows.
func mergeReports(old, delta []common.CommunityReport, shift int) []common.CommunityReport {
	merged := make([]common.CommunityReport, 0, len(old)+len(delta))
	merged = append(merged, old...)

	for _, rep := range delta {
		rep.Community += shift
		rep.HumanReadableID = rep.Community
		if rep.Parent != -1 {
			rep.Parent += shift
		}
		children := slices.Clone(rep.Children)
		for i := range children {
			children[i] += shift
		}
		if children == nil {
			children = []int{}
		}
		rep.Children = children
		merged = append(merged, rep)
	}
	return merged
}

// validate checks the cross-table invariants of a merged index: unique ids
// and titles, resolvable relationship endpoints, canonical endpoint order,
// resolvable community membership and hierarchy references, and report rows
// pointing at existing communities.
func validate(t Tables) error {
	entityIDs := make(map[string]bool, len(t.Entities))
	titles := make(map[string]bool, len(t.Entities))
	for _, e := range t.Entities {
		if entityIDs[e.ID] {
			return fmt.Errorf("duplicate entity id %q", e.ID)
		}
		if titles[e.Title] {
			return fmt.Errorf("duplicate entity title %q", e.Title)
		}
		entityIDs[e.ID] = true
		titles[e.Title] = true
	}

	relIDs := make(map[string]bool, len(t.Relationships))
	for _, r := range t.Relationships {
		if relIDs[r.ID] {
			return fmt.Errorf("duplicate relationship id %q", r.ID)
		}
		relIDs[r.ID] = true
		if !titles[r.Source] {
			return fmt.Errorf("relationship %q endpoint %q resolves to no entity", r.ID, r.Source)
		}
		if !titles[r.Target] {
			return fmt.Errorf("relationship %q endpoint %q resolves to no entity", r.ID, r.Target)
		}
		if r.Source >= r.Target {
			return fmt.Errorf("relationship %q endpoints %q/%q are not in canonical order", r.ID, r.Source, r.Target)
		}
	}

	communityNumbers := make(map[int]bool, len(t.Communities))
	for _, c := range t.Communities {
		if communityNumbers[c.Community] {
			return fmt.Errorf("duplicate community number %d", c.Community)
		}
		communityNumbers[c.Community] = true
	}
	for _, c := range t.Communities {
		if c.Parent != -1 && !communityNumbers[c.Parent] {
			return fmt.Errorf("community %d declares missing parent %d", c.Community, c.Parent)
		}
		for _, child := range c.Children {
			if !communityNumbers[child] {
				return fmt.Errorf("community %d declares missing child %d", c.Community, child)
			}
		}
		if c.Size != len(c.EntityIDs) {
			return fmt.Errorf("community %d size %d does not match %d member entities", c.Community, c.Size, len(c.EntityIDs))
		}
		for _, id := range c.EntityIDs {
			if !entityIDs[id] {
				return fmt.Errorf("community %d references missing entity id %q", c.Community, id)
			}
		}
		for _, id := range c.RelationshipIDs {
			if !relIDs[id] {
				return fmt.Errorf("community %d references missing relationship id %q", c.Community, id)
			}
		}
	}

	for _, rep := range t.Reports {
		if !communityNumbers[rep.Community] {
			return fmt.Errorf("report %q references missing community %d", rep.ID, rep.Community)
		}
		if rep.Parent != -1 && !communityNumbers[rep.Parent] {
			return fmt.Errorf("report %q declares missing parent %d", rep.ID, rep.Parent)
		}
	}
	return nil
}
