package pgx

import (
	"context"

	"github.com/OFFIS-RIT/grove/internal/util"
	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

const relationshipChunkSize = 500

var relationshipColumns = []string{
	"project_id", "run_id", "public_id", "human_readable_id", "source", "target",
	"description", "weight", "source_degree", "target_degree", "combined_degree",
	"text_unit_ids",
}

func (s *IndexDBStorage) copyRelationships(
	ctx context.Context,
	tx pgxv5.Tx,
	projectID int64,
	runID string,
	relationships []common.Relationship,
) error {
	return store.ChunkRange(len(relationships), relationshipChunkSize, func(start, end int) error {
		part := relationships[start:end]
		_, err := tx.CopyFrom(ctx, pgxv5.Identifier{"relationships"}, relationshipColumns,
			pgxv5.CopyFromSlice(len(part), func(i int) ([]any, error) {
				r := part[i]
				return []any{
					projectID, runID, r.ID, r.HumanReadableID, r.Source, r.Target,
					util.SanitizePostgresText(r.Description), r.Weight, r.SourceDegree,
					r.TargetDegree, r.CombinedDegree, r.TextUnitIDs,
				}, nil
			}),
		)
		return err
	})
}

const selectRelationshipsSQL = `
SELECT public_id, human_readable_id, source, target, description, weight, source_degree, target_degree, combined_degree, text_unit_ids
FROM relationships
WHERE project_id = $1
ORDER BY human_readable_id;
`

func (s *IndexDBStorage) loadRelationships(ctx context.Context, projectID int64) ([]common.Relationship, error) {
	rows, err := s.conn.Query(ctx, selectRelationshipsSQL, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	relationships := make([]common.Relationship, 0)
	for rows.Next() {
		var r common.Relationship
		err := rows.Scan(
			&r.ID, &r.HumanReadableID, &r.Source, &r.Target, &r.Description,
			&r.Weight, &r.SourceDegree, &r.TargetDegree, &r.CombinedDegree, &r.TextUnitIDs,
		)
		if err != nil {
			return nil, err
		}
		relationships = append(relationships, r)
	}
	return relationships, rows.Err()
}

// GetRelationships returns the project's current relationship table.
func (s *IndexDBStorage) GetRelationships(ctx context.Context, projectID int64) ([]common.Relationship, error) {
	return s.loadRelationships(ctx, projectID)
}
