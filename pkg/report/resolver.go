package report

import (
	"fmt"
	"sort"

	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/logger"
	"github.com/OFFIS-RIT/grove/pkg/tokenizer"
)

// Resolver rewrites over-budget community contexts by substituting the
// summaries of already-processed sub-communities. Levels must be resolved
// bottom-up: resolving a community requires every direct child to carry a
// resolved context, and ideally a generated report, already.
type Resolver struct {
	counter   tokenizer.Counter
	maxTokens int
}

// NewResolverParams carries the configuration for NewResolver.
type NewResolverParams struct {
	Counter          tokenizer.Counter
	MaxContextTokens int
}

// NewResolver creates a new Resolver with the provided parameters.
func NewResolver(params NewResolverParams) *Resolver {
	return &Resolver{
		counter:   params.Counter,
		maxTokens: params.MaxContextTokens,
	}
}

// ResolveParams carries one community's local context plus everything known
// about its direct children. ChildContexts and ChildReports are keyed by
// community number; a child without a report falls back to its resolved
// context string.
type ResolveParams struct {
	Community     common.Community
	Local         common.ContextRecord
	Children      []common.Community
	ChildContexts map[int]common.ContextRecord
	ChildReports  map[int]*common.CommunityReport
}

// Resolve produces the final context record for one community.
//
// A local context within budget passes through unchanged. Otherwise the
// community is rebuilt as a mixed context of child summaries, ranked by
// child size with the community number as tie-breaker and packed with the
// same greedy algorithm as assembly; children that still do not fit are
// omitted whole, never truncated mid-entry. A community with no usable child
// representation keeps its clipped local context and is marked lossy. The
// returned record never has ExceedsLimit set.
func (r *Resolver) Resolve(params ResolveParams) common.ContextRecord {
	if !params.Local.ExceedsLimit {
		return params.Local
	}

	entries := mixedEntries(params)
	if len(entries) > 0 {
		text, size, included := packChunks(r.counter, entries, r.maxTokens)
		if included > 0 {
			return common.ContextRecord{
				Community:     params.Community.Community,
				Level:         params.Community.Level,
				ContextString: text,
				ContextSize:   size,
			}
		}
		logger.Debug(
			"[Resolve] No child entry fits the budget, keeping clipped local context",
			"community", params.Community.Community,
			"level", params.Community.Level,
		)
	}

	return common.ContextRecord{
		Community:     params.Community.Community,
		Level:         params.Community.Level,
		ContextString: params.Local.ContextString,
		ContextSize:   params.Local.ContextSize,
		Lossy:         true,
	}
}

// mixedEntries builds one substitution entry per direct child, preferring
// the child's generated report over its resolved context string. Children
// without any non-empty representation are skipped.
func mixedEntries(params ResolveParams) []string {
	children := make([]common.Community, len(params.Children))
	copy(children, params.Children)
	sort.SliceStable(children, func(i, j int) bool {
		if children[i].Size != children[j].Size {
			return children[i].Size > children[j].Size
		}
		return children[i].Community < children[j].Community
	})

	entries := make([]string, 0, len(children))
	for _, child := range children {
		text := ""
		if rep := params.ChildReports[child.Community]; rep != nil && rep.FullContent != "" {
			text = rep.FullContent
		} else if rec, ok := params.ChildContexts[child.Community]; ok {
			text = rec.ContextString
		}
		if text == "" {
			continue
		}
		entries = append(entries, fmt.Sprintf("-----Community %d-----\n%s", child.Community, text))
	}
	return entries
}
