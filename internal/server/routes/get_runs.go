package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/grove/internal/server/middleware"
	"github.com/OFFIS-RIT/grove/internal/storage"
	"github.com/OFFIS-RIT/grove/pkg/logger"
	"github.com/OFFIS-RIT/grove/pkg/store"
	indexstorage "github.com/OFFIS-RIT/grove/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// GetRunsHandler lists the project's runs, newest first.
func GetRunsHandler(c echo.Context) error {
	type getRunsParams struct {
		ProjectID int64 `param:"id" validate:"required,numeric"`
	}
	type getRunsResponse struct {
		Message string      `json:"message"`
		Runs    []store.Run `json:"runs,omitempty"`
	}

	params := new(getRunsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getRunsResponse{Message: "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getRunsResponse{Message: "Invalid request"})
	}

	ctx := c.Request().Context()
	st := indexstorage.NewIndexDBStorageWithConnection(c.(*middleware.AppContext).App.DBConn)

	runs, err := st.ListRuns(ctx, params.ProjectID)
	if err != nil {
		logger.Error("Failed to list runs", "project_id", params.ProjectID, "err", err)
		return c.JSON(http.StatusInternalServerError, getRunsResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, getRunsResponse{
		Message: "OK",
		Runs:    runs,
	})
}

// GetRunHandler returns one run's status row.
func GetRunHandler(c echo.Context) error {
	type getRunParams struct {
		ProjectID int64  `param:"id" validate:"required,numeric"`
		RunID     string `param:"run_id" validate:"required"`
	}
	type getRunResponse struct {
		Message string     `json:"message"`
		Run     *store.Run `json:"run,omitempty"`
	}

	params := new(getRunParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getRunResponse{Message: "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getRunResponse{Message: "Invalid request"})
	}

	ctx := c.Request().Context()
	st := indexstorage.NewIndexDBStorageWithConnection(c.(*middleware.AppContext).App.DBConn)

	run, err := st.GetRun(ctx, params.ProjectID, params.RunID)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, getRunResponse{Message: "Run not found"})
	}
	if err != nil {
		logger.Error("Failed to get run", "project_id", params.ProjectID, "run_id", params.RunID, "err", err)
		return c.JSON(http.StatusInternalServerError, getRunResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, getRunResponse{
		Message: "OK",
		Run:     run,
	})
}

// GetRunArtifactsHandler returns presigned download links for one run's
// snapshot files.
func GetRunArtifactsHandler(c echo.Context) error {
	type getArtifactsParams struct {
		ProjectID int64  `param:"id" validate:"required,numeric"`
		RunID     string `param:"run_id" validate:"required"`
	}
	type artifact struct {
		Key string `json:"key"`
		URL string `json:"url"`
	}
	type getArtifactsResponse struct {
		Message   string     `json:"message"`
		Artifacts []artifact `json:"artifacts,omitempty"`
	}

	params := new(getArtifactsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getArtifactsResponse{Message: "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getArtifactsResponse{Message: "Invalid request"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	keys, err := storage.ListRunArtifacts(ctx, app.S3, params.ProjectID, params.RunID)
	if err != nil {
		logger.Error("Failed to list run artifacts", "project_id", params.ProjectID, "run_id", params.RunID, "err", err)
		return c.JSON(http.StatusInternalServerError, getArtifactsResponse{Message: "Internal server error"})
	}
	if len(keys) == 0 {
		return c.JSON(http.StatusNotFound, getArtifactsResponse{Message: "No artifacts for run"})
	}

	artifacts := make([]artifact, 0, len(keys))
	for _, key := range keys {
		url, err := storage.PresignArtifact(ctx, app.S3, key)
		if err != nil {
			logger.Error("Failed to presign artifact", "key", key, "err", err)
			return c.JSON(http.StatusInternalServerError, getArtifactsResponse{Message: "Internal server error"})
		}
		artifacts = append(artifacts, artifact{Key: key, URL: url})
	}

	return c.JSON(http.StatusOK, getArtifactsResponse{
		Message:   "OK",
		Artifacts: artifacts,
	})
}
