package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/grove/internal/server/middleware"
	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/logger"
	indexstorage "github.com/OFFIS-RIT/grove/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// GetCommunitiesHandler returns the project's community hierarchy, optionally
// restricted to one level.
func GetCommunitiesHandler(c echo.Context) error {
	type getCommunitiesParams struct {
		ProjectID int64 `param:"id" validate:"required,numeric"`
		Level     *int  `query:"level" validate:"omitempty,min=0"`
	}
	type getCommunitiesResponse struct {
		Message     string             `json:"message"`
		Communities []common.Community `json:"communities,omitempty"`
	}

	params := new(getCommunitiesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getCommunitiesResponse{Message: "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getCommunitiesResponse{Message: "Invalid request"})
	}

	level := -1
	if params.Level != nil {
		level = *params.Level
	}

	ctx := c.Request().Context()
	st := indexstorage.NewIndexDBStorageWithConnection(c.(*middleware.AppContext).App.DBConn)

	communities, err := st.GetCommunities(ctx, params.ProjectID, level)
	if err != nil {
		logger.Error("Failed to get communities", "project_id", params.ProjectID, "err", err)
		return c.JSON(http.StatusInternalServerError, getCommunitiesResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, getCommunitiesResponse{
		Message:     "OK",
		Communities: communities,
	})
}
