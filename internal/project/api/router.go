package api

import (
	"github.com/gin-gonic/gin"

	"github.com/appgenius/appgenius/internal/common/logger"
	"github.com/appgenius/appgenius/internal/project/repository"
)

// SetupRoutes configures the project API routes
func SetupRoutes(router *gin.RouterGroup, repo repository.Repository, log *logger.Logger) {
	handler := NewHandler(repo, log)

	projects := router.Group("/projects")
	{
		projects.GET("", handler.ListProjects)
		projects.POST("", handler.CreateProject)
		projects.GET("/:projectId", handler.GetProject)
		projects.DELETE("/:projectId", handler.DeleteProject)
		projects.GET("/:projectId/executions", handler.ListExecutions)
		projects.GET("/:projectId/files", handler.ListCodeFiles)
	}
}
