package pgx

import (
	"context"

	"github.com/OFFIS-RIT/grove/internal/util"
	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

const entityChunkSize = 250

var entityColumns = []string{
	"project_id", "run_id", "public_id", "human_readable_id", "title", "type",
	"description", "degree", "frequency", "text_unit_ids", "embedding",
}

func (s *IndexDBStorage) copyEntities(
	ctx context.Context,
	tx pgxv5.Tx,
	projectID int64,
	runID string,
	entities []common.Entity,
) error {
	return store.ChunkRange(len(entities), entityChunkSize, func(start, end int) error {
		part := entities[start:end]
		_, err := tx.CopyFrom(ctx, pgxv5.Identifier{"entities"}, entityColumns,
			pgxv5.CopyFromSlice(len(part), func(i int) ([]any, error) {
				e := part[i]
				var embedding any
				if len(e.Embedding) > 0 {
					embedding = pgvector.NewVector(e.Embedding)
				}
				return []any{
					projectID, runID, e.ID, e.HumanReadableID, e.Title, e.Type,
					util.SanitizePostgresText(e.Description), e.Degree, e.Frequency,
					e.TextUnitIDs, embedding,
				}, nil
			}),
		)
		return err
	})
}

const selectEntitiesSQL = `
SELECT public_id, human_readable_id, title, type, description, degree, frequency, text_unit_ids, embedding
FROM entities
WHERE project_id = $1
ORDER BY human_readable_id;
`

func (s *IndexDBStorage) loadEntities(ctx context.Context, projectID int64) ([]common.Entity, error) {
	rows, err := s.conn.Query(ctx, selectEntitiesSQL, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := make([]common.Entity, 0)
	for rows.Next() {
		var e common.Entity
		var embedding *pgvector.Vector
		err := rows.Scan(
			&e.ID, &e.HumanReadableID, &e.Title, &e.Type, &e.Description,
			&e.Degree, &e.Frequency, &e.TextUnitIDs, &embedding,
		)
		if err != nil {
			return nil, err
		}
		if embedding != nil {
			e.Embedding = embedding.Slice()
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// GetEntities returns the project's current entity table.
func (s *IndexDBStorage) GetEntities(ctx context.Context, projectID int64) ([]common.Entity, error) {
	return s.loadEntities(ctx, projectID)
}
