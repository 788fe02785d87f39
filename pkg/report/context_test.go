package report

import (
	"strings"
	"testing"

	"github.com/OFFIS-RIT/grove/pkg/common"
)

// wordCounter counts whitespace-separated fields, giving tests full control
// over token sizes without a real encoder.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("w ", n))
}

func TestPackChunks(t *testing.T) {
	tests := []struct {
		name         string
		chunks       []string
		maxTokens    int
		wantText     string
		wantSize     int
		wantIncluded int
	}{
		{
			name:         "all chunks fit",
			chunks:       []string{"a b", "c"},
			maxTokens:    10,
			wantText:     "a b\nc",
			wantSize:     3,
			wantIncluded: 2,
		},
		{
			name:         "exact fit is kept",
			chunks:       []string{"a b"},
			maxTokens:    2,
			wantText:     "a b",
			wantSize:     2,
			wantIncluded: 1,
		},
		{
			name:         "stops before overflow",
			chunks:       []string{"a b", "c d", "e f"},
			maxTokens:    4,
			wantText:     "a b\nc d",
			wantSize:     4,
			wantIncluded: 2,
		},
		{
			name:         "first chunk too large",
			chunks:       []string{"a b c"},
			maxTokens:    2,
			wantText:     "",
			wantSize:     0,
			wantIncluded: 0,
		},
		{
			name:         "no chunks",
			chunks:       nil,
			maxTokens:    5,
			wantText:     "",
			wantSize:     0,
			wantIncluded: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, size, included := packChunks(wordCounter{}, tt.chunks, tt.maxTokens)
			if text != tt.wantText {
				t.Errorf("text = %q, want %q", text, tt.wantText)
			}
			if size != tt.wantSize {
				t.Errorf("size = %d, want %d", size, tt.wantSize)
			}
			if included != tt.wantIncluded {
				t.Errorf("included = %d, want %d", included, tt.wantIncluded)
			}
		})
	}
}

func TestAssemble_FitsWithinBudget(t *testing.T) {
	entities := []common.Entity{
		{ID: "e0", HumanReadableID: 0, Title: "ALPHA", Description: "Largest port, by tonnage", Degree: 2},
		{ID: "e1", HumanReadableID: 1, Title: "BRAVO", Description: "Shipping company", Degree: 2},
	}
	relationships := []common.Relationship{
		{ID: "r0", HumanReadableID: 0, Source: "ALPHA", Target: "BRAVO", Description: "Bravo operates from Alpha", CombinedDegree: 4},
	}
	claims := []common.Claim{
		{ID: "c0", Subject: "ALPHA", Type: "REGULATORY", Status: "TRUE", Description: "Fined in 2019"},
	}
	community := common.Community{
		Community:       0,
		Level:           0,
		EntityIDs:       []string{"e0", "e1"},
		RelationshipIDs: []string{"r0"},
	}

	a := NewAssembler(NewAssemblerParams{Counter: wordCounter{}, MaxContextTokens: 1000})
	rec := a.Assemble(community, NewTableIndex(entities, relationships, claims))

	if rec.ExceedsLimit {
		t.Error("ExceedsLimit = true, want false")
	}
	if rec.Lossy {
		t.Error("Lossy = true, want false")
	}
	if got := (wordCounter{}).Count(rec.ContextString); got != rec.ContextSize {
		t.Errorf("ContextSize = %d, re-tokenized = %d", rec.ContextSize, got)
	}

	for _, header := range []string{entityHeader, relationshipHeader, claimHeader} {
		if n := strings.Count(rec.ContextString, header); n != 1 {
			t.Errorf("header %q appears %d times, want 1", header, n)
		}
	}
	entityIdx := strings.Index(rec.ContextString, "-----Entities-----")
	relIdx := strings.Index(rec.ContextString, "-----Relationships-----")
	claimIdx := strings.Index(rec.ContextString, "-----Claims-----")
	if !(entityIdx < relIdx && relIdx < claimIdx) {
		t.Errorf("section order entities=%d relationships=%d claims=%d", entityIdx, relIdx, claimIdx)
	}

	if !strings.Contains(rec.ContextString, `"Largest port, by tonnage"`) {
		t.Error("description containing a comma is not CSV-quoted")
	}
	if !strings.Contains(rec.ContextString, "c0,ALPHA,REGULATORY,TRUE,Fined in 2019") {
		t.Error("claim row missing from context")
	}
}

func TestAssemble_ClipsOverBudget(t *testing.T) {
	// Full serialization is 50 counter units against a budget of 30: the
	// header plus the two top-degree rows (12 + 10) fit, the third row
	// would reach 32.
	entities := []common.Entity{
		{ID: "e0", HumanReadableID: 0, Title: "ALPHA", Description: words(10), Degree: 9},
		{ID: "e1", HumanReadableID: 1, Title: "BRAVO", Description: words(10), Degree: 7},
		{ID: "e2", HumanReadableID: 2, Title: "CHARLIE", Description: words(10), Degree: 5},
		{ID: "e3", HumanReadableID: 3, Title: "DELTA", Description: words(9), Degree: 3},
		{ID: "e4", HumanReadableID: 4, Title: "ECHO", Description: words(9), Degree: 1},
	}
	community := common.Community{
		Community: 7,
		Level:     1,
		EntityIDs: []string{"e0", "e1", "e2", "e3", "e4"},
	}
	idx := NewTableIndex(entities, nil, nil)

	chunks := communityChunks(community, idx)
	if full := (wordCounter{}).Count(strings.Join(chunks, "\n")); full != 50 {
		t.Fatalf("full serialization = %d counter units, fixture wants 50", full)
	}

	a := NewAssembler(NewAssemblerParams{Counter: wordCounter{}, MaxContextTokens: 30})
	rec := a.Assemble(community, idx)

	if !rec.ExceedsLimit {
		t.Error("ExceedsLimit = false, want true")
	}
	if rec.ContextSize > 30 {
		t.Errorf("ContextSize = %d, want <= 30", rec.ContextSize)
	}
	if rec.ContextSize != 22 {
		t.Errorf("ContextSize = %d, want 22", rec.ContextSize)
	}
	if got := (wordCounter{}).Count(rec.ContextString); got != rec.ContextSize {
		t.Errorf("ContextSize = %d, re-tokenized = %d", rec.ContextSize, got)
	}

	for _, title := range []string{"ALPHA", "BRAVO"} {
		if !strings.Contains(rec.ContextString, title) {
			t.Errorf("top-ranked entity %s missing from clipped context", title)
		}
	}
	for _, title := range []string{"CHARLIE", "DELTA", "ECHO"} {
		if strings.Contains(rec.ContextString, title) {
			t.Errorf("low-ranked entity %s retained in clipped context", title)
		}
	}
	if rec.Community != 7 || rec.Level != 1 {
		t.Errorf("record community/level = %d/%d, want 7/1", rec.Community, rec.Level)
	}
}

func TestAssemble_RanksByDegreeThenID(t *testing.T) {
	entities := []common.Entity{
		{ID: "e2", HumanReadableID: 2, Title: "LOW_SECOND", Description: "x", Degree: 5},
		{ID: "e0", HumanReadableID: 0, Title: "TOP", Description: "x", Degree: 9},
		{ID: "e1", HumanReadableID: 1, Title: "LOW_FIRST", Description: "x", Degree: 5},
	}
	community := common.Community{
		Community: 0,
		EntityIDs: []string{"e2", "e0", "e1"},
	}

	a := NewAssembler(NewAssemblerParams{Counter: wordCounter{}, MaxContextTokens: 1000})
	rec := a.Assemble(community, NewTableIndex(entities, nil, nil))

	top := strings.Index(rec.ContextString, "TOP")
	first := strings.Index(rec.ContextString, "LOW_FIRST")
	second := strings.Index(rec.ContextString, "LOW_SECOND")
	if !(top < first && first < second) {
		t.Errorf("ranking positions top=%d first=%d second=%d, want descending degree with id tie-break", top, first, second)
	}
}

func TestAssemble_SkipsUnknownIDs(t *testing.T) {
	entities := []common.Entity{
		{ID: "e0", HumanReadableID: 0, Title: "ALPHA", Description: "x", Degree: 1},
	}
	community := common.Community{
		Community:       0,
		EntityIDs:       []string{"e0", "ghost"},
		RelationshipIDs: []string{"nope"},
	}

	a := NewAssembler(NewAssemblerParams{Counter: wordCounter{}, MaxContextTokens: 1000})
	rec := a.Assemble(community, NewTableIndex(entities, nil, nil))

	if !strings.Contains(rec.ContextString, "ALPHA") {
		t.Error("known entity missing from context")
	}
	if strings.Contains(rec.ContextString, "-----Relationships-----") {
		t.Error("relationship section emitted although no relationship resolved")
	}
	if rec.ExceedsLimit {
		t.Error("ExceedsLimit = true, want false")
	}
}

func TestAssemble_NoResolvableMembers(t *testing.T) {
	community := common.Community{
		Community: 3,
		Level:     2,
		EntityIDs: []string{"ghost"},
	}

	a := NewAssembler(NewAssemblerParams{Counter: wordCounter{}, MaxContextTokens: 1000})
	rec := a.Assemble(community, NewTableIndex(nil, nil, nil))

	if rec.ContextString != "" || rec.ContextSize != 0 {
		t.Errorf("got context %q size %d, want empty", rec.ContextString, rec.ContextSize)
	}
	if rec.ExceedsLimit {
		t.Error("ExceedsLimit = true, want false")
	}
	if rec.Community != 3 || rec.Level != 2 {
		t.Errorf("record community/level = %d/%d, want 3/2", rec.Community, rec.Level)
	}
}
