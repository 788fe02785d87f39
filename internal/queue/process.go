package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/grove/internal/storage"
	"github.com/OFFIS-RIT/grove/internal/timing"
	"github.com/OFFIS-RIT/grove/internal/util"
	"github.com/OFFIS-RIT/grove/pkg/ai"
	"github.com/OFFIS-RIT/grove/pkg/index"
	"github.com/OFFIS-RIT/grove/pkg/leaselock"
	"github.com/OFFIS-RIT/grove/pkg/logger"
	"github.com/OFFIS-RIT/grove/pkg/merge"
	"github.com/OFFIS-RIT/grove/pkg/report"
	"github.com/OFFIS-RIT/grove/pkg/store"
	indexstorage "github.com/OFFIS-RIT/grove/pkg/store/pgx"
	"github.com/OFFIS-RIT/grove/pkg/tokenizer"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
)

// ProcessIndexMessage runs a full indexing job: download the staged input
// tables, run the structuring pipeline, and replace the project's current
// index under the project lease.
func ProcessIndexMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	aiClient ai.GraphAIClient,
	counter tokenizer.Counter,
	ch *amqp091.Channel,
	conn *pgxpool.Pool,
	msg string,
) (err error) {
	data := new(JobMessage)
	if err = json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}
	if err = data.validate(); err != nil {
		return err
	}
	if data.RunID == "" {
		return errors.New("run id is required")
	}

	st := indexstorage.NewIndexDBStorageWithConnection(conn)
	sw := timing.Start()

	runClaimed := false
	defer func() {
		if err == nil || !runClaimed {
			return
		}
		failRun(ch, st, data.ProjectID, data.RunID, store.RunKindIndex, err, sw)
	}()

	if err = startRun(ctx, ch, st, data.ProjectID, data.RunID, store.RunKindIndex); err != nil {
		return err
	}
	runClaimed = true

	input, err := storage.DownloadStagedInput(ctx, s3Client, data.ProjectID, data.RunID)
	if err != nil {
		return fmt.Errorf("failed to download staged input: %w", err)
	}
	logger.Info(
		"[Queue] Starting index job",
		"project_id", data.ProjectID,
		"run_id", data.RunID,
		"entities", len(input.Entities),
		"relationships", len(input.Relationships),
	)

	out, err := runPipeline(ctx, aiClient, counter, input)
	if err != nil {
		return err
	}

	logger.Debug("[Queue] Acquiring project lease for index persist", "project_id", data.ProjectID)
	lock := leaselock.New(conn)
	err = lock.WithLease(ctx, leaselock.ProjectKey(data.ProjectID), leaseOptions(data.ProjectID, "index"),
		func(leaseCtx context.Context) error {
			return st.ReplaceCurrent(leaseCtx, data.ProjectID, data.RunID, outputTables(out))
		})
	if err != nil {
		return fmt.Errorf("failed to persist index: %w", err)
	}

	archiveRun(ctx, s3Client, data.ProjectID, data.RunID, out)
	return completeRun(ctx, ch, st, data.ProjectID, data.RunID, store.RunKindIndex, out.Gaps, sw)
}

// ProcessMergeMessage runs an incremental update: the staged delta tables go
// through the same pipeline, then the result is merged into the project's
// current index. Load, merge and replace all happen under the project lease
// so concurrent jobs cannot interleave.
func ProcessMergeMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	aiClient ai.GraphAIClient,
	counter tokenizer.Counter,
	ch *amqp091.Channel,
	conn *pgxpool.Pool,
	msg string,
) (err error) {
	data := new(JobMessage)
	if err = json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}
	if err = data.validate(); err != nil {
		return err
	}
	if data.RunID == "" {
		return errors.New("run id is required")
	}

	st := indexstorage.NewIndexDBStorageWithConnection(conn)
	sw := timing.Start()

	runClaimed := false
	defer func() {
		if err == nil || !runClaimed {
			return
		}
		failRun(ch, st, data.ProjectID, data.RunID, store.RunKindMerge, err, sw)
	}()

	if err = startRun(ctx, ch, st, data.ProjectID, data.RunID, store.RunKindMerge); err != nil {
		return err
	}
	runClaimed = true

	input, err := storage.DownloadStagedInput(ctx, s3Client, data.ProjectID, data.RunID)
	if err != nil {
		return fmt.Errorf("failed to download staged input: %w", err)
	}
	logger.Info(
		"[Queue] Starting merge job",
		"project_id", data.ProjectID,
		"run_id", data.RunID,
		"entities", len(input.Entities),
		"relationships", len(input.Relationships),
	)

	out, err := runPipeline(ctx, aiClient, counter, input)
	if err != nil {
		return err
	}

	logger.Debug("[Queue] Acquiring project lease for merge", "project_id", data.ProjectID)
	var result *merge.Result
	lock := leaselock.New(conn)
	err = lock.WithLease(ctx, leaselock.ProjectKey(data.ProjectID), leaseOptions(data.ProjectID, "merge"),
		func(leaseCtx context.Context) error {
			prev, err := st.LoadTables(leaseCtx, data.ProjectID)
			if err != nil {
				return fmt.Errorf("failed to load current index: %w", err)
			}
			result, err = merge.Merge(prev, outputTables(out))
			if err != nil {
				return fmt.Errorf("failed to merge delta into current index: %w", err)
			}
			return st.ReplaceCurrent(leaseCtx, data.ProjectID, data.RunID, result.Tables)
		})
	if err != nil {
		return err
	}

	logger.Info(
		"[Queue] Delta merged",
		"project_id", data.ProjectID,
		"run_id", data.RunID,
		"merged", result.Merged,
		"entities", len(result.Tables.Entities),
		"relationships", len(result.Tables.Relationships),
		"communities", len(result.Tables.Communities),
		"community_shift", result.CommunityIDShift,
	)

	merged := index.Output{
		Entities:      result.Tables.Entities,
		Relationships: result.Tables.Relationships,
		Communities:   result.Tables.Communities,
		Reports:       result.Tables.Reports,
		Contexts:      out.Contexts,
		Gaps:          out.Gaps,
	}
	archiveRun(ctx, s3Client, data.ProjectID, data.RunID, merged)
	return completeRun(ctx, ch, st, data.ProjectID, data.RunID, store.RunKindMerge, out.Gaps, sw)
}

func runPipeline(ctx context.Context, aiClient ai.GraphAIClient, counter tokenizer.Counter, input index.Input) (index.Output, error) {
	summarizer := report.NewAISummarizer(report.NewAISummarizerParams{
		Client: aiClient,
		Model:  util.GetEnv("AI_REPORT_MODEL"),
	})
	indexer, err := index.NewIndexer(index.NewIndexerParams{
		Counter:    counter,
		Summarizer: summarizer,
		Config:     index.NewConfigFromEnv(),
	})
	if err != nil {
		return index.Output{}, err
	}
	out, err := indexer.Run(ctx, input)
	if err != nil {
		return index.Output{}, err
	}
	return *out, nil
}

func outputTables(out index.Output) merge.Tables {
	return merge.Tables{
		Entities:      out.Entities,
		Relationships: out.Relationships,
		Communities:   out.Communities,
		Reports:       out.Reports,
	}
}

func leaseOptions(projectID int64, kind string) leaselock.Options {
	return leaselock.Options{
		TTL:         10 * time.Minute,
		RenewEvery:  4 * time.Minute,
		Wait:        true,
		TokenPrefix: fmt.Sprintf("%s/%d/", kind, projectID),
	}
}

func startRun(ctx context.Context, ch *amqp091.Channel, st store.IndexStorage, projectID int64, runID string, kind string) error {
	run := store.Run{
		ProjectID: projectID,
		RunID:     runID,
		Kind:      kind,
		Status:    store.RunStatusRunning,
	}
	err := st.UpdateRun(ctx, run)
	if errors.Is(err, store.ErrNotFound) {
		// Redelivery after the run row was cleaned up; recreate it so status
		// tracking keeps working.
		err = st.CreateRun(ctx, run)
	}
	if err != nil {
		return fmt.Errorf("failed to mark run as running: %w", err)
	}
	publishRunEvent(ch, run)
	return nil
}

func completeRun(ctx context.Context, ch *amqp091.Channel, st store.IndexStorage, projectID int64, runID string, kind string, gaps int, sw timing.Stopwatch) error {
	run := store.Run{
		ProjectID: projectID,
		RunID:     runID,
		Kind:      kind,
		Status:    store.RunStatusCompleted,
		Gaps:      gaps,
		ElapsedMs: sw.ElapsedMs(),
	}
	if err := st.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("failed to mark run as completed: %w", err)
	}
	publishRunEvent(ch, run)
	logger.Info("[Queue] Run completed", "project_id", projectID, "run_id", runID, "kind", kind, "gaps", gaps, "elapsed_ms", run.ElapsedMs)
	return nil
}

func failRun(ch *amqp091.Channel, st store.IndexStorage, projectID int64, runID string, kind string, jobErr error, sw timing.Stopwatch) {
	updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	run := store.Run{
		ProjectID: projectID,
		RunID:     runID,
		Kind:      kind,
		Status:    store.RunStatusFailed,
		ElapsedMs: sw.ElapsedMs(),
		Error:     jobErr.Error(),
	}
	if err := st.UpdateRun(updateCtx, run); err != nil {
		logger.Warn("[Queue] Failed to mark run as failed", "project_id", projectID, "run_id", runID, "err", err)
		return
	}
	publishRunEvent(ch, run)
}

// archiveRun snapshots the run output to S3 and drops the consumed staging
// document. Both are best effort: the database already holds the serving
// copy.
func archiveRun(ctx context.Context, s3Client *awss3.Client, projectID int64, runID string, out index.Output) {
	err := util.RetryErrWithContext(ctx, 3, func(c context.Context) error {
		return storage.SnapshotOutput(c, s3Client, projectID, runID, out)
	})
	if err != nil {
		logger.Warn("[Queue] Failed to snapshot run output", "project_id", projectID, "run_id", runID, "err", err)
	}
	if err := storage.DeleteStagedInput(ctx, s3Client, projectID, runID); err != nil {
		logger.Warn("[Queue] Failed to delete staged input", "project_id", projectID, "run_id", runID, "err", err)
	}
}
