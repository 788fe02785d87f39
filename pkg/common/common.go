package common

// Entity represents a node of the entity graph. An entity can be an
// organization, person, location, or any other relevant concept. Rows arrive
// from the extraction stage without ids or degrees; graph finalization
// assigns both before clustering runs.
type Entity struct {
	ID              string    `json:"id"`
	HumanReadableID int       `json:"human_readable_id"`
	Title           string    `json:"title"`
	Type            string    `json:"type"`
	Description     string    `json:"description"`
	Degree          int       `json:"degree"`
	Frequency       int       `json:"frequency"`
	TextUnitIDs     []string  `json:"text_unit_ids"`
	Embedding       []float32 `json:"embedding,omitempty"`
}

// Relationship represents an undirected edge between two entities, keyed by
// entity title. Source and Target are canonicalized so that Source < Target
// lexicographically; the same pair never occurs twice within one run.
type Relationship struct {
	ID              string   `json:"id"`
	HumanReadableID int      `json:"human_readable_id"`
	Source          string   `json:"source"`
	Target          string   `json:"target"`
	Description     string   `json:"description"`
	Weight          float64  `json:"weight"`
	SourceDegree    int      `json:"source_degree"`
	TargetDegree    int      `json:"target_degree"`
	CombinedDegree  int      `json:"combined_degree"`
	TextUnitIDs     []string `json:"text_unit_ids"`
}

// Claim is a covariate statement attached to an entity by title. Claims are
// optional input; when present they are packed into community contexts
// alongside entities and relationships.
type Claim struct {
	ID          string   `json:"id"`
	Subject     string   `json:"subject"`
	Type        string   `json:"type"`
	Status      string   `json:"status"`
	Description string   `json:"description"`
	TextUnitIDs []string `json:"text_unit_ids"`
}

// Community is one node of the community hierarchy.
//
// Level 0 is the root (coarsest) partition; larger levels are finer
// subdivisions. Parent is -1 for root communities, otherwise the community
// number of the parent one level coarser. Children lists the direct
// sub-communities and is never nil. RelationshipIDs only reference edges
// with both endpoints inside the community; TextUnitIDs is the sorted,
// deduplicated union drawn from those relationships.
type Community struct {
	ID              string   `json:"id"`
	HumanReadableID int      `json:"human_readable_id"`
	Community       int      `json:"community"`
	Level           int      `json:"level"`
	Parent          int      `json:"parent"`
	Children        []int    `json:"children"`
	Title           string   `json:"title"`
	EntityIDs       []string `json:"entity_ids"`
	RelationshipIDs []string `json:"relationship_ids"`
	TextUnitIDs     []string `json:"text_unit_ids"`
	Period          string   `json:"period"`
	Size            int      `json:"size"`
}

// ContextRecord is the packed textual description of one community, used as
// the summarization prompt.
//
// ContextSize is the exact token count of ContextString. ExceedsLimit
// records whether the full unclipped serialization was over budget before
// any resolution happened. Lossy is set when resolution had to fall back to
// a clipped local context because no child substitutes were available.
type ContextRecord struct {
	Community     int    `json:"community"`
	Level         int    `json:"level"`
	ContextString string `json:"context_string"`
	ContextSize   int    `json:"context_size"`
	ExceedsLimit  bool   `json:"exceeds_limit"`
	Lossy         bool   `json:"lossy"`
}

// Finding is a single insight of a community report.
type Finding struct {
	Summary     string `json:"summary"`
	Explanation string `json:"explanation"`
}

// CommunityReport is the generated summary of one community. A community
// whose summarizer call failed permanently has no report row at all; the
// hierarchy around it is unaffected.
type CommunityReport struct {
	ID              string    `json:"id"`
	HumanReadableID int       `json:"human_readable_id"`
	Community       int       `json:"community"`
	Level           int       `json:"level"`
	Parent          int       `json:"parent"`
	Children        []int     `json:"children"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary"`
	FullContent     string    `json:"full_content"`
	Rank            float64   `json:"rank"`
	RankExplanation string    `json:"rank_explanation"`
	Findings        []Finding `json:"findings"`
	FullContentJSON string    `json:"full_content_json"`
	Period          string    `json:"period"`
	Size            int       `json:"size"`
}
