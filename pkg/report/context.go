package report

import (
	"encoding/csv"
	"sort"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/logger"
	"github.com/OFFIS-RIT/grove/pkg/tokenizer"
)

const (
	entityHeader       = "-----Entities-----\nid,entity,description,degree"
	relationshipHeader = "-----Relationships-----\nid,source,target,description,combined_degree"
	claimHeader        = "-----Claims-----\nid,subject,type,status,description"
)

// TableIndex resolves the id and title references of community rows back to
// their full entity, relationship, and claim records. Build it once per run
// and share it across all communities.
type TableIndex struct {
	entities      map[string]common.Entity
	relationships map[string]common.Relationship
	claims        map[string][]common.Claim
}

// NewTableIndex indexes entities and relationships by id and claims by
// subject title. Claims of one subject are kept sorted by id so context
// candidates rank the same run over run.
func NewTableIndex(
	entities []common.Entity,
	relationships []common.Relationship,
	claims []common.Claim,
) *TableIndex {
	idx := &TableIndex{
		entities:      make(map[string]common.Entity, len(entities)),
		relationships: make(map[string]common.Relationship, len(relationships)),
		claims:        make(map[string][]common.Claim),
	}
	for _, e := range entities {
		idx.entities[e.ID] = e
	}
	for _, r := range relationships {
		idx.relationships[r.ID] = r
	}
	for _, c := range claims {
		idx.claims[c.Subject] = append(idx.claims[c.Subject], c)
	}
	for subject := range idx.claims {
		list := idx.claims[subject]
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	return idx
}

// Assembler packs each community's member detail rows into a token-bounded
// context string for summarization.
type Assembler struct {
	counter   tokenizer.Counter
	maxTokens int
}

// NewAssemblerParams carries the configuration for NewAssembler.
type NewAssemblerParams struct {
	Counter          tokenizer.Counter
	MaxContextTokens int
}

// NewAssembler creates a new Assembler with the provided parameters.
func NewAssembler(params NewAssemblerParams) *Assembler {
	return &Assembler{
		counter:   params.Counter,
		maxTokens: params.MaxContextTokens,
	}
}

// Assemble builds the local context record for one community.
//
// Candidate rows are ranked by descending degree with the numeric row id as
// tie-breaker, then appended greedily until the next row would push the token
// count past the budget. ExceedsLimit reports whether the full unclipped
// serialization was over budget, independent of how much was included.
// ContextSize always equals re-tokenizing ContextString with the same
// counter.
func (a *Assembler) Assemble(community common.Community, idx *TableIndex) common.ContextRecord {
	rec := common.ContextRecord{
		Community: community.Community,
		Level:     community.Level,
	}

	chunks := communityChunks(community, idx)
	if len(chunks) == 0 {
		return rec
	}

	full := strings.Join(chunks, "\n")
	size := a.counter.Count(full)
	if size <= a.maxTokens {
		rec.ContextString = full
		rec.ContextSize = size
		return rec
	}

	rec.ContextString, rec.ContextSize, _ = packChunks(a.counter, chunks, a.maxTokens)
	rec.ExceedsLimit = true
	return rec
}

// communityChunks builds the ranked candidate chunks for one community: one
// CSV row per member entity, per intra-community relationship, and per claim
// attached to a member entity. Each non-empty section's header travels with
// its first row, so a clipped context never ends in a bare header.
func communityChunks(community common.Community, idx *TableIndex) []string {
	entities := make([]common.Entity, 0, len(community.EntityIDs))
	for _, id := range community.EntityIDs {
		e, ok := idx.entities[id]
		if !ok {
			logger.Debug("[Context] Entity not found in table", "id", id, "community", community.Community)
			continue
		}
		entities = append(entities, e)
	}
	sort.SliceStable(entities, func(i, j int) bool {
		if entities[i].Degree != entities[j].Degree {
			return entities[i].Degree > entities[j].Degree
		}
		return entities[i].HumanReadableID < entities[j].HumanReadableID
	})

	relationships := make([]common.Relationship, 0, len(community.RelationshipIDs))
	for _, id := range community.RelationshipIDs {
		r, ok := idx.relationships[id]
		if !ok {
			logger.Debug("[Context] Relationship not found in table", "id", id, "community", community.Community)
			continue
		}
		relationships = append(relationships, r)
	}
	sort.SliceStable(relationships, func(i, j int) bool {
		if relationships[i].CombinedDegree != relationships[j].CombinedDegree {
			return relationships[i].CombinedDegree > relationships[j].CombinedDegree
		}
		return relationships[i].HumanReadableID < relationships[j].HumanReadableID
	})

	chunks := make([]string, 0, len(entities)+len(relationships))
	for i, e := range entities {
		row := csvRow(strconv.Itoa(e.HumanReadableID), e.Title, e.Description, strconv.Itoa(e.Degree))
		if i == 0 {
			row = entityHeader + "\n" + row
		}
		chunks = append(chunks, row)
	}
	for i, r := range relationships {
		row := csvRow(strconv.Itoa(r.HumanReadableID), r.Source, r.Target, r.Description, strconv.Itoa(r.CombinedDegree))
		if i == 0 {
			row = relationshipHeader + "\n" + row
		}
		chunks = append(chunks, row)
	}

	claimCount := 0
	for _, e := range entities {
		for _, c := range idx.claims[e.Title] {
			row := csvRow(c.ID, c.Subject, c.Type, c.Status, c.Description)
			if claimCount == 0 {
				row = claimHeader + "\n" + row
			}
			claimCount++
			chunks = append(chunks, row)
		}
	}

	return chunks
}

// packChunks greedily appends ranked chunks, newline separated, stopping
// before the first chunk that would push the token count past maxTokens. The
// running count is always taken over the full joined string rather than
// summed per chunk, so the returned size survives re-tokenization exactly.
func packChunks(counter tokenizer.Counter, chunks []string, maxTokens int) (string, int, int) {
	text := ""
	size := 0
	included := 0
	for _, chunk := range chunks {
		candidate := chunk
		if included > 0 {
			candidate = text + "\n" + chunk
		}
		n := counter.Count(candidate)
		if n > maxTokens {
			break
		}
		text = candidate
		size = n
		included++
	}
	return text, size, included
}

// csvRow renders one record in CSV encoding, quoting fields that carry
// commas, quotes, or line breaks.
func csvRow(fields ...string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(fields); err != nil {
		return strings.Join(fields, ",")
	}
	w.Flush()
	return strings.TrimRight(sb.String(), "\n")
}
