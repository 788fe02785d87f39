package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/OFFIS-RIT/grove/internal/util"
	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/logger"
	"github.com/OFFIS-RIT/grove/pkg/tokenizer"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const summaryMaxTries = 3

// Runner drives context assembly, bottom-up resolution, and summarizer
// calls for a full community hierarchy.
type Runner struct {
	counter          tokenizer.Counter
	summarizer       Summarizer
	maxContextTokens int
	maxReportLength  int
	maxConcurrency   int
}

// NewRunnerParams carries the configuration for NewRunner.
type NewRunnerParams struct {
	Counter          tokenizer.Counter
	Summarizer       Summarizer
	MaxContextTokens int
	MaxReportLength  int
	MaxConcurrency   int
}

// NewRunner creates a new Runner with the provided parameters.
func NewRunner(params NewRunnerParams) *Runner {
	return &Runner{
		counter:          params.Counter,
		summarizer:       params.Summarizer,
		maxContextTokens: params.MaxContextTokens,
		maxReportLength:  params.MaxReportLength,
		maxConcurrency:   params.MaxConcurrency,
	}
}

// RunResult is the output of one report run. Contexts holds the final
// resolved context record of every community in input order. Reports holds
// one row per successfully summarized community; Gaps counts communities
// whose summarizer calls failed permanently and therefore have no row.
type RunResult struct {
	Reports  []common.CommunityReport
	Contexts []common.ContextRecord
	Gaps     int
}

// Run assembles a context for every community, then walks the hierarchy
// levels from finest to coarsest. Per level it resolves each community's
// context against the already-summarized children and calls the summarizer.
// Summarizer failures are retried and then recorded as gaps without
// affecting the rest of the hierarchy; context cancellation aborts the run.
func (r *Runner) Run(
	ctx context.Context,
	communities []common.Community,
	entities []common.Entity,
	relationships []common.Relationship,
	claims []common.Claim,
) (*RunResult, error) {
	if len(communities) == 0 {
		logger.Warn("[Report] No communities to report on")
		return &RunResult{Reports: []common.CommunityReport{}, Contexts: []common.ContextRecord{}}, nil
	}

	idx := NewTableIndex(entities, relationships, claims)
	assembler := NewAssembler(NewAssemblerParams{
		Counter:          r.counter,
		MaxContextTokens: r.maxContextTokens,
	})
	resolver := NewResolver(NewResolverParams{
		Counter:          r.counter,
		MaxContextTokens: r.maxContextTokens,
	})

	locals := make([]common.ContextRecord, len(communities))
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency())
	for i := range communities {
		eg.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			locals[i] = assembler.Assemble(communities[i], idx)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to assemble community contexts: %w", err)
	}
	logger.Info("[Report] Community contexts assembled", "communities", len(communities))

	rowByCommunity := make(map[int]common.Community, len(communities))
	byLevel := make(map[int][]int)
	for i, c := range communities {
		rowByCommunity[c.Community] = c
		byLevel[c.Level] = append(byLevel[c.Level], i)
	}
	levels := make([]int, 0, len(byLevel))
	for level := range byLevel {
		levels = append(levels, level)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(levels)))

	resolved := make([]common.ContextRecord, len(communities))
	reports := make([]*common.CommunityReport, len(communities))
	resolvedByCommunity := make(map[int]common.ContextRecord, len(communities))
	reportByCommunity := make(map[int]*common.CommunityReport, len(communities))

	gaps := 0
	done := 0
	for _, level := range levels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		members := byLevel[level]
		eg, gCtx = errgroup.WithContext(ctx)
		eg.SetLimit(r.concurrency())
		for _, i := range members {
			eg.Go(func() error {
				if err := gCtx.Err(); err != nil {
					return err
				}

				community := communities[i]
				rec := resolver.Resolve(ResolveParams{
					Community:     community,
					Local:         locals[i],
					Children:      childRows(community, rowByCommunity),
					ChildContexts: resolvedByCommunity,
					ChildReports:  reportByCommunity,
				})
				resolved[i] = rec

				out, err := util.RetryWithContext(gCtx, summaryMaxTries, func(c context.Context) (*ReportOutput, error) {
					return r.summarizer.Summarize(c, rec.ContextString, r.maxReportLength)
				})
				if err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return err
					}
					logger.Warn(
						"[Report] Dropping report after repeated summarizer failures",
						"community", community.Community,
						"level", community.Level,
						"error", err,
					)
					return nil
				}
				reports[i] = r.buildReport(community, out)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, fmt.Errorf("failed to generate reports for level %d: %w", level, err)
		}

		for _, i := range members {
			resolvedByCommunity[communities[i].Community] = resolved[i]
			if reports[i] != nil {
				reportByCommunity[communities[i].Community] = reports[i]
			} else {
				gaps++
			}
		}
		done += len(members)
		logger.Info("[Report] Level reported", "level", level, "communities", len(members), "progress", util.FormatProgress(done, len(communities)))
	}

	res := &RunResult{
		Reports:  make([]common.CommunityReport, 0, len(communities)-gaps),
		Contexts: resolved,
		Gaps:     gaps,
	}
	for _, rep := range reports {
		if rep != nil {
			res.Reports = append(res.Reports, *rep)
		}
	}
	if gaps > 0 {
		logger.Warn("[Report] Finished with report gaps", "gaps", gaps, "communities", len(communities))
	}
	return res, nil
}

func (r *Runner) concurrency() int {
	if r.maxConcurrency < 1 {
		return 1
	}
	return r.maxConcurrency
}

// buildReport materializes the model output into a report row carrying the
// community's hierarchy fields.
func (r *Runner) buildReport(c common.Community, out *ReportOutput) *common.CommunityReport {
	title := out.Title
	if title == "" {
		title = c.Title
	}

	findings := make([]common.Finding, 0, len(out.Findings))
	for _, f := range out.Findings {
		findings = append(findings, common.Finding{
			Summary:     f.Summary,
			Explanation: f.Explanation,
		})
	}

	raw, _ := json.Marshal(out)

	return &common.CommunityReport{
		ID:              uuid.New().String(),
		HumanReadableID: c.Community,
		Community:       c.Community,
		Level:           c.Level,
		Parent:          c.Parent,
		Children:        c.Children,
		Title:           title,
		Summary:         out.Summary,
		FullContent:     formatFullContent(title, out),
		Rank:            out.Rating,
		RankExplanation: out.RatingExplanation,
		Findings:        findings,
		FullContentJSON: string(raw),
		Period:          c.Period,
		Size:            c.Size,
	}
}

// childRows resolves a community's child numbers to their rows, skipping
// numbers missing from the table.
func childRows(c common.Community, rows map[int]common.Community) []common.Community {
	children := make([]common.Community, 0, len(c.Children))
	for _, id := range c.Children {
		if row, ok := rows[id]; ok {
			children = append(children, row)
		}
	}
	return children
}

// formatFullContent renders the report as markdown, one section per finding.
func formatFullContent(title string, out *ReportOutput) string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n")
	sb.WriteString(out.Summary)
	for _, f := range out.Findings {
		sb.WriteString("\n\n## ")
		sb.WriteString(f.Summary)
		sb.WriteString("\n\n")
		sb.WriteString(f.Explanation)
	}
	return sb.String()
}
