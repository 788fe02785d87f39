package pgx

import (
	"context"

	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

const communityChunkSize = 250

var communityColumns = []string{
	"project_id", "run_id", "public_id", "human_readable_id", "community", "level",
	"parent", "children", "title", "entity_ids", "relationship_ids", "text_unit_ids",
	"period", "size",
}

func (s *IndexDBStorage) copyCommunities(
	ctx context.Context,
	tx pgxv5.Tx,
	projectID int64,
	runID string,
	communities []common.Community,
) error {
	return store.ChunkRange(len(communities), communityChunkSize, func(start, end int) error {
		part := communities[start:end]
		_, err := tx.CopyFrom(ctx, pgxv5.Identifier{"communities"}, communityColumns,
			pgxv5.CopyFromSlice(len(part), func(i int) ([]any, error) {
				c := part[i]
				return []any{
					projectID, runID, c.ID, c.HumanReadableID, c.Community, c.Level,
					c.Parent, int32Slice(c.Children), c.Title, c.EntityIDs, c.RelationshipIDs,
					c.TextUnitIDs, c.Period, c.Size,
				}, nil
			}),
		)
		return err
	})
}

const selectCommunitiesSQL = `
SELECT public_id, human_readable_id, community, level, parent, children, title, entity_ids, relationship_ids, text_unit_ids, period, size
FROM communities
WHERE project_id = $1`

func (s *IndexDBStorage) queryCommunities(ctx context.Context, projectID int64, level int) ([]common.Community, error) {
	sql := selectCommunitiesSQL
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

	communities := make([]common.Community, 0)
	for rows.Next() {
		var c common.Community
		var children []int32
		err := rows.Scan(
			&c.ID, &c.HumanReadableID, &c.Community, &c.Level, &c.Parent, &children,
			&c.Title, &c.EntityIDs, &c.RelationshipIDs, &c.TextUnitIDs, &c.Period, &c.Size,
		)
		if err != nil {
			return nil, err
		}
		c.Children = intSlice(children)
		communities = append(communities, c)
	}
	return communities, rows.Err()
}

// GetCommunities returns the project's current community rows, all levels
// when level < 0.
func (s *IndexDBStorage) GetCommunities(ctx context.Context, projectID int64, level int) ([]common.Community, error) {
	return s.queryCommunities(ctx, projectID, level)
}
