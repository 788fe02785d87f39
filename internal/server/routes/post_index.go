package routes

import (
	"context"
	"net/http"

	"github.com/OFFIS-RIT/grove/internal/queue"
	"github.com/OFFIS-RIT/grove/internal/server/middleware"
	"github.com/OFFIS-RIT/grove/internal/storage"
	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/index"
	"github.com/OFFIS-RIT/grove/pkg/logger"
	"github.com/OFFIS-RIT/grove/pkg/store"
	indexstorage "github.com/OFFIS-RIT/grove/pkg/store/pgx"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type runResponse struct {
	Message string     `json:"message"`
	Run     *store.Run `json:"run,omitempty"`
}

// PostIndexHandler stages the uploaded extraction tables and queues a full
// indexing run. The heavy lifting happens in the worker; the handler only
// records the run and hands the tables to S3.
func PostIndexHandler(c echo.Context) error {
	type postIndexBody struct {
		ProjectID     int64                 `param:"id" validate:"required,numeric"`
		Entities      []common.Entity       `json:"entities" validate:"required"`
		Relationships []common.Relationship `json:"relationships"`
		Claims        []common.Claim        `json:"claims"`
		Period        string                `json:"period"`
	}

	data := new(postIndexBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, runResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, runResponse{Message: "Invalid request body"})
	}

	input := index.Input{
		Entities:      data.Entities,
		Relationships: data.Relationships,
		Claims:        data.Claims,
		Period:        data.Period,
	}
	return enqueueRun(c, data.ProjectID, input, store.RunKindIndex, queue.IndexQueue)
}

// enqueueRun records a queued run, stages its input tables in S3 and
// publishes the job message. Used by both the index and merge endpoints.
func enqueueRun(c echo.Context, projectID int64, input index.Input, kind string, queueName string) error {
	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	runID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, runResponse{Message: "Internal server error"})
	}

	st := indexstorage.NewIndexDBStorageWithConnection(app.DBConn)
	run := store.Run{
		ProjectID: projectID,
		RunID:     runID,
		Kind:      kind,
		Status:    store.RunStatusQueued,
	}
	if err := st.CreateRun(ctx, run); err != nil {
		logger.Error("Failed to create run", "project_id", projectID, "run_id", runID, "err", err)
		return c.JSON(http.StatusInternalServerError, runResponse{Message: "Internal server error"})
	}

	failQueuedRun := func(cause error) {
		failed := run
		failed.Status = store.RunStatusFailed
		failed.Error = cause.Error()
		if err := st.UpdateRun(context.WithoutCancel(ctx), failed); err != nil {
			logger.Warn("Failed to mark run as failed", "project_id", projectID, "run_id", runID, "err", err)
		}
	}

	if _, err := storage.UploadStagedInput(ctx, app.S3, projectID, runID, input); err != nil {
		logger.Error("Failed to stage input tables", "project_id", projectID, "run_id", runID, "err", err)
		failQueuedRun(err)
		return c.JSON(http.StatusInternalServerError, runResponse{Message: "Internal server error"})
	}

	if err := queue.EnqueueJob(app.Queue, queueName, queue.JobMessage{ProjectID: projectID, RunID: runID}); err != nil {
		logger.Error("Failed to enqueue run", "project_id", projectID, "run_id", runID, "queue", queueName, "err", err)
		failQueuedRun(err)
		return c.JSON(http.StatusInternalServerError, runResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusAccepted, runResponse{
		Message: "Run queued",
		Run:     &run,
	})
}
