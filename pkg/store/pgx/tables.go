package pgx

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/grove/pkg/logger"
	"github.com/OFFIS-RIT/grove/pkg/merge"
)

// LoadTables reads the project's current index tables. A project without an
// index yields empty, non-nil tables, so a first merge starts from nothing.
func (s *IndexDBStorage) LoadTables(ctx context.Context, projectID int64) (merge.Tables, error) {
	var tables merge.Tables
	var err error

	if tables.Entities, err = s.loadEntities(ctx, projectID); err != nil {
		return merge.Tables{}, fmt.Errorf("failed to load entities: %w", err)
	}
	if tables.Relationships, err = s.loadRelationships(ctx, projectID); err != nil {
		return merge.Tables{}, fmt.Errorf("failed to load relationships: %w", err)
	}
	if tables.Communities, err = s.queryCommunities(ctx, projectID, -1); err != nil {
		return merge.Tables{}, fmt.Errorf("failed to load communities: %w", err)
	}
	if tables.Reports, err = s.queryReports(ctx, projectID, -1); err != nil {
		return merge.Tables{}, fmt.Errorf("failed to load community reports: %w", err)
	}
	return tables, nil
}

// ReplaceCurrent swaps the project's current index for the given tables in
// one transaction. Readers never observe a half-written run.
func (s *IndexDBStorage) ReplaceCurrent(ctx context.Context, projectID int64, runID string, tables merge.Tables) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin replace transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	deletes := []string{
		`DELETE FROM community_reports WHERE project_id = $1`,
		`DELETE FROM communities WHERE project_id = $1`,
		`DELETE FROM relationships WHERE project_id = $1`,
		`DELETE FROM entities WHERE project_id = $1`,
	}
	for _, del := range deletes {
		if _, err := tx.Exec(ctx, del, projectID); err != nil {
			return fmt.Errorf("failed to clear current index: %w", err)
		}
	}

	if err := s.copyEntities(ctx, tx, projectID, runID, tables.Entities); err != nil {
		return fmt.Errorf("failed to insert entities: %w", err)
	}
	if err := s.copyRelationships(ctx, tx, projectID, runID, tables.Relationships); err != nil {
		return fmt.Errorf("failed to insert relationships: %w", err)
	}
	if err := s.copyCommunities(ctx, tx, projectID, runID, tables.Communities); err != nil {
		return fmt.Errorf("failed to insert communities: %w", err)
	}
	if err := s.copyReports(ctx, tx, projectID, runID, tables.Reports); err != nil {
		return fmt.Errorf("failed to insert community reports: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit replace transaction: %w", err)
	}
	logger.Debug(
		"[Store] Replaced current index",
		"project_id", projectID,
		"run_id", runID,
		"entities", len(tables.Entities),
		"relationships", len(tables.Relationships),
		"communities", len(tables.Communities),
		"reports", len(tables.Reports),
	)
	return nil
}

// DeleteProject removes the project's current index and run history in one
// transaction. S3 artifacts are cleaned up separately by the caller.
func (s *IndexDBStorage) DeleteProject(ctx context.Context, projectID int64) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	deletes := []string{
		`DELETE FROM community_reports WHERE project_id = $1`,
		`DELETE FROM communities WHERE project_id = $1`,
		`DELETE FROM relationships WHERE project_id = $1`,
		`DELETE FROM entities WHERE project_id = $1`,
		`DELETE FROM index_runs WHERE project_id = $1`,
	}
	for _, del := range deletes {
		if _, err := tx.Exec(ctx, del, projectID); err != nil {
			return fmt.Errorf("failed to delete project rows: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete transaction: %w", err)
	}
	logger.Debug("[Store] Deleted project index", "project_id", projectID)
	return nil
}

func int32Slice(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}

func intSlice(in []int32) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
