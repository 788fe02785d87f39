package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/grove/internal/server/middleware"
	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/logger"
	indexstorage "github.com/OFFIS-RIT/grove/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// GetEntitiesHandler returns the entity table of the project's current index.
func GetEntitiesHandler(c echo.Context) error {
	type getEntitiesParams struct {
		ProjectID int64 `param:"id" validate:"required,numeric"`
	}
	type getEntitiesResponse struct {
		Message  string          `json:"message"`
		Entities []common.Entity `json:"entities,omitempty"`
	}

	params := new(getEntitiesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getEntitiesResponse{Message: "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getEntitiesResponse{Message: "Invalid request"})
	}

	ctx := c.Request().Context()
	st := indexstorage.NewIndexDBStorageWithConnection(c.(*middleware.AppContext).App.DBConn)

	entities, err := st.GetEntities(ctx, params.ProjectID)
	if err != nil {
		logger.Error("Failed to get entities", "project_id", params.ProjectID, "err", err)
		return c.JSON(http.StatusInternalServerError, getEntitiesResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, getEntitiesResponse{
		Message:  "OK",
		Entities: entities,
	})
}
