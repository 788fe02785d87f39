package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/grove/internal/server/middleware"
	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/logger"
	indexstorage "github.com/OFFIS-RIT/grove/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// GetRelationshipsHandler returns the relationship table of the project's
// current index.
func GetRelationshipsHandler(c echo.Context) error {
	type getRelationshipsParams struct {
		ProjectID int64 `param:"id" validate:"required,numeric"`
	}
	type getRelationshipsResponse struct {
		Message       string                `json:"message"`
		Relationships []common.Relationship `json:"relationships,omitempty"`
	}

	params := new(getRelationshipsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getRelationshipsResponse{Message: "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getRelationshipsResponse{Message: "Invalid request"})
	}

	ctx := c.Request().Context()
	st := indexstorage.NewIndexDBStorageWithConnection(c.(*middleware.AppContext).App.DBConn)

	relationships, err := st.GetRelationships(ctx, params.ProjectID)
	if err != nil {
		logger.Error("Failed to get relationships", "project_id", params.ProjectID, "err", err)
		return c.JSON(http.StatusInternalServerError, getRelationshipsResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, getRelationshipsResponse{
		Message:       "OK",
		Relationships: relationships,
	})
}
