package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/grove/internal/server/middleware"
	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/logger"
	indexstorage "github.com/OFFIS-RIT/grove/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// GetCommunityReportsHandler returns the project's community reports,
// optionally restricted to one level.
func GetCommunityReportsHandler(c echo.Context) error {
	type getReportsParams struct {
		ProjectID int64 `param:"id" validate:"required,numeric"`
		Level     *int  `query:"level" validate:"omitempty,min=0"`
	}
	type getReportsResponse struct {
		Message string                   `json:"message"`
		Reports []common.CommunityReport `json:"reports,omitempty"`
	}

	params := new(getReportsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getReportsResponse{Message: "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getReportsResponse{Message: "Invalid request"})
	}

	level := -1
	if params.Level != nil {
		level = *params.Level
	}

	ctx := c.Request().Context()
	st := indexstorage.NewIndexDBStorageWithConnection(c.(*middleware.AppContext).App.DBConn)

	reports, err := st.GetCommunityReports(ctx, params.ProjectID, level)
	if err != nil {
		logger.Error("Failed to get community reports", "project_id", params.ProjectID, "err", err)
		return c.JSON(http.StatusInternalServerError, getReportsResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, getReportsResponse{
		Message: "OK",
		Reports: reports,
	})
}
