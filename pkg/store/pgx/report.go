package pgx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/grove/internal/util"
	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

const reportChunkSize = 100

var reportColumns = []string{
	"project_id", "run_id", "public_id", "human_readable_id", "community", "level",
	"parent", "children", "title", "summary", "full_content", "rank", "rank_explanation",
	"findings", "full_content_json", "period", "size",
}

func (s *IndexDBStorage) copyReports(
	ctx context.Context,
	tx pgxv5.Tx,
	projectID int64,
	runID string,
	reports []common.CommunityReport,
) error {
	return store.ChunkRange(len(reports), reportChunkSize, func(start, end int) error {
		part := reports[start:end]
		_, err := tx.CopyFrom(ctx, pgxv5.Identifier{"community_reports"}, reportColumns,
			pgxv5.CopyFromSlice(len(part), func(i int) ([]any, error) {
				r := part[i]
				// Model output can carry NUL bytes, which Postgres text and
				// jsonb columns reject.
				cleaned := make([]common.Finding, len(r.Findings))
				for j, f := range r.Findings {
					cleaned[j] = common.Finding{
						Summary:     util.SanitizePostgresText(f.Summary),
						Explanation: util.SanitizePostgresText(f.Explanation),
					}
				}
				findings, err := json.Marshal(cleaned)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal findings for community %d: %w", r.Community, err)
				}
				var fullJSON any
				if r.FullContentJSON != "" {
					fullJSON = []byte(r.FullContentJSON)
				}
				return []any{
					projectID, runID, r.ID, r.HumanReadableID, r.Community, r.Level,
					r.Parent, int32Slice(r.Children), util.SanitizePostgresText(r.Title),
					util.SanitizePostgresText(r.Summary), util.SanitizePostgresText(r.FullContent),
					r.Rank, util.SanitizePostgresText(r.RankExplanation), findings, fullJSON,
					r.Period, r.Size,
				}, nil
			}),
		)
		return err
	})
}

const selectReportsSQL = `
SELECT public_id, human_readable_id, community, level, parent, children, title, summary, full_content, rank, rank_explanation, findings, full_content_json, period, size
FROM community_reports
WHERE project_id = $1`

func (s *IndexDBStorage) queryReports(ctx context.Context, projectID int64, level int) ([]common.CommunityReport, error) {
	sql := selectReportsSQL
	args := []any{projectID}
	if level >= 0 {
		sql += ` AND level = $2`
		args = append(args, level)
	}
	sql += ` ORDER BY community`

	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]common.CommunityReport, 0)
	for rows.Next() {
		var r common.CommunityReport
		var children []int32
		var findings []byte
		var fullJSON []byte
		err := rows.Scan(
			&r.ID, &r.HumanReadableID, &r.Community, &r.Level, &r.Parent, &children,
			&r.Title, &r.Summary, &r.FullContent, &r.Rank, &r.RankExplanation,
			&findings, &fullJSON, &r.Period, &r.Size,
		)
		if err != nil {
			return nil, err
		}
		r.Children = intSlice(children)
		if len(findings) > 0 {
			if err := json.Unmarshal(findings, &r.Findings); err != nil {
				return nil, fmt.Errorf("failed to unmarshal findings for community %d: %w", r.Community, err)
			}
		}
		r.FullContentJSON = string(fullJSON)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// GetCommunityReports returns the project's current report rows, all levels
// when level < 0.
func (s *IndexDBStorage) GetCommunityReports(ctx context.Context, projectID int64, level int) ([]common.CommunityReport, error) {
	return s.queryReports(ctx, projectID, level)
}
