package index

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/grove/internal/timing"
	"github.com/OFFIS-RIT/grove/pkg/cluster"
	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/community"
	"github.com/OFFIS-RIT/grove/pkg/graph"
	"github.com/OFFIS-RIT/grove/pkg/logger"
	"github.com/OFFIS-RIT/grove/pkg/report"
	"github.com/OFFIS-RIT/grove/pkg/tokenizer"
)

// Input is one indexing run's extracted tables. Entity and relationship rows
// arrive un-finalized; opaque ids, human readable ids and degrees are
// assigned here. Claims are optional.
type Input struct {
	Entities      []common.Entity       `json:"entities"`
	Relationships []common.Relationship `json:"relationships"`
	Claims        []common.Claim        `json:"claims,omitempty"`
	// Period is the ISO date stamped on community rows. Empty means today.
	Period string `json:"period,omitempty"`
}

// Output bundles the finalized tables of one indexing run. Contexts holds
// the resolved context record of every community; Gaps counts communities
// without a report after summarizer retries were exhausted.
type Output struct {
	Entities      []common.Entity          `json:"entities"`
	Relationships []common.Relationship    `json:"relationships"`
	Communities   []common.Community       `json:"communities"`
	Reports       []common.CommunityReport `json:"reports"`
	Contexts      []common.ContextRecord   `json:"contexts"`
	Gaps          int                      `json:"gaps"`
}

// Indexer runs the community-structuring pipeline over one run's tables:
// graph construction, hierarchical clustering, community tree building, and
// bottom-up report generation.
type Indexer struct {
	counter    tokenizer.Counter
	summarizer report.Summarizer
	clusterer  cluster.Clusterer
	config     Config
}

// NewIndexerParams carries the collaborators for NewIndexer. Clusterer may be
// nil; the default modularity splitter is used then.
type NewIndexerParams struct {
	Counter    tokenizer.Counter
	Summarizer report.Summarizer
	Clusterer  cluster.Clusterer
	Config     Config
}

// NewIndexer validates the configuration and creates a new Indexer.
func NewIndexer(params NewIndexerParams) (*Indexer, error) {
	if err := params.Config.Validate(); err != nil {
		return nil, err
	}
	if params.Counter == nil {
		return nil, fmt.Errorf("%w: token counter is required", ErrInvalidConfig)
	}
	if params.Summarizer == nil {
		return nil, fmt.Errorf("%w: summarizer is required", ErrInvalidConfig)
	}

	clusterer := params.Clusterer
	if clusterer == nil {
		clusterer = cluster.NewModularitySplitter()
	}
	return &Indexer{
		counter:    params.Counter,
		summarizer: params.Summarizer,
		clusterer:  clusterer,
		config:     params.Config,
	}, nil
}

// Run executes the full pipeline. Degenerate input (no entities, no
// relationships) produces an empty output, not an error.
func (x *Indexer) Run(ctx context.Context, input Input) (*Output, error) {
	sw := timing.Start()

	canonical := graph.CanonicalizeRelationships(input.Relationships, x.config.WeightPolicy)
	g := graph.BuildGraph(graph.BuildGraphParams{
		Entities:      input.Entities,
		Relationships: canonical,
		Policy:        x.config.WeightPolicy,
	})
	entities, relationships, err := graph.FinalizeTables(input.Entities, canonical, g)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize graph tables: %w", err)
	}
	logger.Info("[Index] Graph built", "nodes", g.NodeCount(), "relationships", len(relationships))

	assignments, err := x.clusterGraph(ctx, g)
	if err != nil {
		return nil, err
	}

	period := input.Period
	if period == "" {
		period = time.Now().UTC().Format(time.DateOnly)
	}
	communities, err := community.BuildTree(community.BuildTreeParams{
		Assignments:   assignments,
		Entities:      entities,
		Relationships: relationships,
		Period:        period,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build community tree: %w", err)
	}

	runner := report.NewRunner(report.NewRunnerParams{
		Counter:          x.counter,
		Summarizer:       x.summarizer,
		MaxContextTokens: x.config.MaxContextTokens,
		MaxReportLength:  x.config.MaxReportLength,
		MaxConcurrency:   x.config.ReportConcurrency,
	})
	res, err := runner.Run(ctx, communities, entities, relationships, input.Claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate community reports: %w", err)
	}

	logger.Info(
		"[Index] Pipeline complete",
		"entities", len(entities),
		"relationships", len(relationships),
		"communities", len(communities),
		"reports", len(res.Reports),
		"gaps", res.Gaps,
		"elapsed_ms", sw.ElapsedMs(),
	)
	return &Output{
		Entities:      entities,
		Relationships: relationships,
		Communities:   communities,
		Reports:       res.Reports,
		Contexts:      res.Contexts,
		Gaps:          res.Gaps,
	}, nil
}

// clusterGraph runs the clusterer in its own goroutine and selects the result
// against the context, so cancellation is observed even while the CPU-bound
// partitioning is mid-flight. A stale result is discarded.
func (x *Indexer) clusterGraph(ctx context.Context, g *graph.Graph) ([]cluster.Assignment, error) {
	type clusterResult struct {
		assignments []cluster.Assignment
		err         error
	}

	ch := make(chan clusterResult, 1)
	go func() {
		assignments, err := x.clusterer.Cluster(g, cluster.Options{
			MaxClusterSize:      x.config.MaxClusterSize,
			UseLargestComponent: x.config.UseLargestComponent,
			Seed:                x.config.RandomSeed,
		})
		ch <- clusterResult{assignments: assignments, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("failed to cluster entity graph: %w", res.err)
		}
		logger.Info("[Index] Hierarchy clustered", "communities", len(res.assignments))
		return res.assignments, nil
	}
}
