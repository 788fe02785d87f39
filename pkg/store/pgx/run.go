package pgx

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/grove/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

const insertRunSQL = `
INSERT INTO index_runs (project_id, run_id, kind, status, gaps, elapsed_ms, error)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (s *IndexDBStorage) CreateRun(ctx context.Context, run store.Run) error {
	_, err := s.conn.Exec(ctx, insertRunSQL,
		run.ProjectID, run.RunID, run.Kind, run.Status, run.Gaps, run.ElapsedMs, run.Error,
	)
	return err
}

const updateRunSQL = `
UPDATE index_runs
SET status = $3, gaps = $4, elapsed_ms = $5, error = $6, updated_at = now()
WHERE project_id = $1 AND run_id = $2`

func (s *IndexDBStorage) UpdateRun(ctx context.Context, run store.Run) error {
	tag, err := s.conn.Exec(ctx, updateRunSQL,
		run.ProjectID, run.RunID, run.Status, run.Gaps, run.ElapsedMs, run.Error,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const selectRunSQL = `
SELECT project_id, run_id, kind, status, gaps, elapsed_ms, error
FROM index_runs
WHERE project_id = $1 AND run_id = $2`

func (s *IndexDBStorage) GetRun(ctx context.Context, projectID int64, runID string) (*store.Run, error) {
	var run store.Run
	err := s.conn.QueryRow(ctx, selectRunSQL, projectID, runID).Scan(
		&run.ProjectID, &run.RunID, &run.Kind, &run.Status, &run.Gaps, &run.ElapsedMs, &run.Error,
	)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

const listRunsSQL = `
SELECT project_id, run_id, kind, status, gaps, elapsed_ms, error
FROM index_runs
WHERE project_id = $1
ORDER BY created_at DESC`

// ListRuns returns the project's runs, newest first.
func (s *IndexDBStorage) ListRuns(ctx context.Context, projectID int64) ([]store.Run, error) {
	return s.queryRuns(ctx, listRunsSQL, projectID)
}

const listStaleRunsSQL = `
SELECT project_id, run_id, kind, status, gaps, elapsed_ms, error
FROM index_runs
WHERE status = 'running' AND updated_at < now() - ($1::bigint * interval '1 millisecond')
ORDER BY updated_at`

// ListStaleRuns returns running runs not updated for olderThanMs, oldest
// first.
func (s *IndexDBStorage) ListStaleRuns(ctx context.Context, olderThanMs int64) ([]store.Run, error) {
	return s.queryRuns(ctx, listStaleRunsSQL, olderThanMs)
}

func (s *IndexDBStorage) queryRuns(ctx context.Context, sql string, args ...any) ([]store.Run, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]store.Run, 0)
	for rows.Next() {
		var run store.Run
		err := rows.Scan(
			&run.ProjectID, &run.RunID, &run.Kind, &run.Status, &run.Gaps, &run.ElapsedMs, &run.Error,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
