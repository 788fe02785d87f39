package server

import (
	"github.com/OFFIS-RIT/grove/internal/server/middleware"
	"github.com/OFFIS-RIT/grove/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Index lifecycle routes
	apiRoutes.POST("/projects/:id/index", routes.PostIndexHandler, middleware.RequirePermission("project.index"))
	apiRoutes.POST("/projects/:id/merge", routes.PostMergeHandler, middleware.RequirePermission("project.update"))
	apiRoutes.DELETE("/projects/:id/index", routes.DeleteIndexHandler, middleware.RequirePermission("project.delete"))

	// Current index routes
	apiRoutes.GET("/projects/:id/communities", routes.GetCommunitiesHandler)
	apiRoutes.GET("/projects/:id/reports", routes.GetCommunityReportsHandler)
	apiRoutes.GET("/projects/:id/entities", routes.GetEntitiesHandler)
	apiRoutes.GET("/projects/:id/relationships", routes.GetRelationshipsHandler)

	// Run routes
	apiRoutes.GET("/projects/:id/runs", routes.GetRunsHandler)
	apiRoutes.GET("/projects/:id/runs/:run_id", routes.GetRunHandler)
	apiRoutes.GET("/projects/:id/runs/:run_id/artifacts", routes.GetRunArtifactsHandler)
}
