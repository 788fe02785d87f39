package report

import (
	"reflect"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/grove/pkg/common"
)

func testResolver(maxTokens int) *Resolver {
	return NewResolver(NewResolverParams{Counter: wordCounter{}, MaxContextTokens: maxTokens})
}

func testRecord(community, level int, text string, exceeds bool) common.ContextRecord {
	return common.ContextRecord{
		Community:     community,
		Level:         level,
		ContextString: text,
		ContextSize:   (wordCounter{}).Count(text),
		ExceedsLimit:  exceeds,
	}
}

func TestResolve_WithinBudgetUnchanged(t *testing.T) {
	local := testRecord(0, 0, "small local context", false)
	got := testResolver(10).Resolve(ResolveParams{
		Community: common.Community{Community: 0, Level: 0},
		Local:     local,
	})
	if !reflect.DeepEqual(got, local) {
		t.Errorf("Resolve() = %+v, want unchanged local %+v", got, local)
	}
}

func TestResolve_SubstitutesChildReports(t *testing.T) {
	parent := common.Community{Community: 0, Level: 0, Children: []int{1, 2}}
	children := []common.Community{
		{Community: 1, Level: 1, Size: 4},
		{Community: 2, Level: 1, Size: 2},
	}
	reports := map[int]*common.CommunityReport{
		1: {Community: 1, FullContent: "# One\n\nbig child summary"},
		2: {Community: 2, FullContent: "# Two\n\nsmall child summary"},
	}

	got := testResolver(20).Resolve(ResolveParams{
		Community:    parent,
		Local:        testRecord(0, 0, words(30), true),
		Children:     children,
		ChildReports: reports,
	})

	if got.ExceedsLimit {
		t.Error("ExceedsLimit = true, want false after resolution")
	}
	if got.Lossy {
		t.Error("Lossy = true, want false")
	}
	if got.Community != 0 || got.Level != 0 {
		t.Errorf("record community/level = %d/%d, want 0/0", got.Community, got.Level)
	}
	if n := (wordCounter{}).Count(got.ContextString); n != got.ContextSize {
		t.Errorf("ContextSize = %d, re-tokenized = %d", got.ContextSize, n)
	}
	first := strings.Index(got.ContextString, "-----Community 1-----\n# One")
	second := strings.Index(got.ContextString, "-----Community 2-----\n# Two")
	if first == -1 || second == -1 {
		t.Fatalf("missing substituted child sections in %q", got.ContextString)
	}
	if first > second {
		t.Error("larger child ranked after smaller child")
	}
}

func TestResolve_FallsBackToChildContext(t *testing.T) {
	parent := common.Community{Community: 0, Level: 0, Children: []int{1, 2}}
	children := []common.Community{
		{Community: 1, Level: 1, Size: 4},
		{Community: 2, Level: 1, Size: 2},
	}
	reports := map[int]*common.CommunityReport{
		1: {Community: 1, FullContent: "# One\n\nreported child"},
	}
	contexts := map[int]common.ContextRecord{
		1: testRecord(1, 1, "resolved context one", false),
		2: testRecord(2, 1, "resolved context two", false),
	}

	got := testResolver(20).Resolve(ResolveParams{
		Community:     parent,
		Local:         testRecord(0, 0, words(30), true),
		Children:      children,
		ChildContexts: contexts,
		ChildReports:  reports,
	})

	if !strings.Contains(got.ContextString, "-----Community 1-----\n# One") {
		t.Error("child with report did not use the report content")
	}
	if !strings.Contains(got.ContextString, "-----Community 2-----\nresolved context two") {
		t.Error("child without report did not fall back to its resolved context")
	}
	if got.Lossy {
		t.Error("Lossy = true, want false")
	}
}

func TestResolve_DropsLowestRankedChildren(t *testing.T) {
	parent := common.Community{Community: 0, Level: 0, Children: []int{1, 2, 3}}
	children := []common.Community{
		{Community: 1, Level: 1, Size: 5},
		{Community: 2, Level: 1, Size: 3},
		{Community: 3, Level: 1, Size: 1},
	}
	// Each entry costs 1 marker unit plus 4 content units; two entries fit
	// a budget of 10, the third would reach 15.
	reports := map[int]*common.CommunityReport{
		1: {Community: 1, FullContent: words(4)},
		2: {Community: 2, FullContent: words(4)},
		3: {Community: 3, FullContent: words(4)},
	}

	got := testResolver(10).Resolve(ResolveParams{
		Community:    parent,
		Local:        testRecord(0, 0, words(30), true),
		Children:     children,
		ChildReports: reports,
	})

	if !strings.Contains(got.ContextString, "-----Community 1-----") {
		t.Error("largest child missing")
	}
	if !strings.Contains(got.ContextString, "-----Community 2-----") {
		t.Error("second child missing")
	}
	if strings.Contains(got.ContextString, "-----Community 3-----") {
		t.Error("smallest child should have been omitted")
	}
	if got.ContextSize > 10 {
		t.Errorf("ContextSize = %d, want <= 10", got.ContextSize)
	}
	if got.Lossy {
		t.Error("Lossy = true, want false")
	}
}

func TestResolve_LeafFallsBackLossy(t *testing.T) {
	clipped := "clipped local rows"
	got := testResolver(5).Resolve(ResolveParams{
		Community: common.Community{Community: 9, Level: 3},
		Local:     testRecord(9, 3, clipped, true),
	})

	if !got.Lossy {
		t.Error("Lossy = false, want true for leaf fallback")
	}
	if got.ExceedsLimit {
		t.Error("ExceedsLimit = true, want false after resolution")
	}
	if got.ContextString != clipped {
		t.Errorf("ContextString = %q, want clipped local %q", got.ContextString, clipped)
	}
	if got.ContextSize != 3 {
		t.Errorf("ContextSize = %d, want 3", got.ContextSize)
	}
}

func TestResolve_NoUsableChildRepresentation(t *testing.T) {
	parent := common.Community{Community: 0, Level: 0, Children: []int{1}}
	children := []common.Community{{Community: 1, Level: 1, Size: 2}}

	got := testResolver(5).Resolve(ResolveParams{
		Community: parent,
		Local:     testRecord(0, 0, "some clipped rows", true),
		Children:  children,
	})

	if !got.Lossy {
		t.Error("Lossy = false, want true when no child has any representation")
	}
	if got.ContextString != "some clipped rows" {
		t.Errorf("ContextString = %q, want clipped local", got.ContextString)
	}
}

func TestResolve_OversizedChildEntriesFallBackLossy(t *testing.T) {
	parent := common.Community{Community: 0, Level: 0, Children: []int{1}}
	children := []common.Community{{Community: 1, Level: 1, Size: 2}}
	reports := map[int]*common.CommunityReport{
		1: {Community: 1, FullContent: words(50)},
	}

	got := testResolver(10).Resolve(ResolveParams{
		Community:    parent,
		Local:        testRecord(0, 0, words(8), true),
		Children:     children,
		ChildReports: reports,
	})

	if !got.Lossy {
		t.Error("Lossy = false, want true when no child entry fits")
	}
	if got.ContextSize != 8 {
		t.Errorf("ContextSize = %d, want clipped local size 8", got.ContextSize)
	}
}
