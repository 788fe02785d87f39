package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/grove/internal/queue"
	"github.com/OFFIS-RIT/grove/internal/server/middleware"
	"github.com/OFFIS-RIT/grove/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DeleteIndexHandler queues removal of a project's index, run history and S3
// artifacts.
func DeleteIndexHandler(c echo.Context) error {
	type deleteIndexParams struct {
		ProjectID int64 `param:"id" validate:"required,numeric"`
	}
	type deleteIndexResponse struct {
		Message string `json:"message"`
	}

	params := new(deleteIndexParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteIndexResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteIndexResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	if err := queue.EnqueueJob(app.Queue, queue.DeleteQueue, queue.JobMessage{ProjectID: params.ProjectID}); err != nil {
		logger.Error("Failed to enqueue delete job", "project_id", params.ProjectID, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteIndexResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusAccepted, deleteIndexResponse{Message: "Deletion queued"})
}
