package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/grove/internal/queue"
	"github.com/OFFIS-RIT/grove/pkg/common"
	"github.com/OFFIS-RIT/grove/pkg/index"
	"github.com/OFFIS-RIT/grove/pkg/store"

	"github.com/labstack/echo/v4"
)

// PostMergeHandler stages a delta extraction and queues an incremental merge
// into the project's current index. Merging into an empty project behaves
// like a first index run.
func PostMergeHandler(c echo.Context) error {
	type postMergeBody struct {
		ProjectID     int64                 `param:"id" validate:"required,numeric"`
		Entities      []common.Entity       `json:"entities" validate:"required"`
		Relationships []common.Relationship `json:"relationships"`
		Claims        []common.Claim        `json:"claims"`
		Period        string                `json:"period"`
	}

	data := new(postMergeBody)
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
	return enqueueRun(c, data.ProjectID, input, store.RunKindMerge, queue.MergeQueue)
}
