package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/grove/pkg/logger"
	"github.com/OFFIS-RIT/grove/pkg/store"
	indexstorage "github.com/OFFIS-RIT/grove/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
)

// Runs still marked running after this long are treated as orphaned by a
// crashed worker. Well above the lease TTL, so an active job never trips it.
const staleRunAge = 30 * time.Minute

// RecoverStaleRuns re-enqueues runs a crashed worker left behind. Their
// staged input is still in S3 because staging documents are only deleted
// after a run completes.
func RecoverStaleRuns(
	ctx context.Context,
	ch *amqp091.Channel,
	conn *pgxpool.Pool,
) error {
	st := indexstorage.NewIndexDBStorageWithConnection(conn)

	staleRuns, err := st.ListStaleRuns(ctx, staleRunAge.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to list stale runs: %w", err)
	}

	if len(staleRuns) == 0 {
		logger.Debug("[Queue] No stale runs found")
		return nil
	}

	logger.Info("[Queue] Found stale runs", "count", len(staleRuns))

	for _, run := range staleRuns {
		var targetQueue string
		switch run.Kind {
		case store.RunKindIndex:
			targetQueue = IndexQueue
		case store.RunKindMerge:
			targetQueue = MergeQueue
		default:
			continue
		}

		requeued := run
		requeued.Status = store.RunStatusQueued
		if err := st.UpdateRun(ctx, requeued); err != nil {
			logger.Error("[Queue] Failed to reset stale run", "project_id", run.ProjectID, "run_id", run.RunID, "err", err)
			continue
		}

		if err := EnqueueJob(ch, targetQueue, JobMessage{ProjectID: run.ProjectID, RunID: run.RunID}); err != nil {
			logger.Error("[Queue] Failed to republish stale run", "project_id", run.ProjectID, "run_id", run.RunID, "queue", targetQueue, "err", err)
			continue
		}

		logger.Info("[Queue] Recovered stale run", "project_id", run.ProjectID, "run_id", run.RunID, "queue", targetQueue)
	}

	return nil
}
