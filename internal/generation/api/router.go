package api

import (
	"github.com/gin-gonic/gin"

	"github.com/appgenius/appgenius/internal/agent/registry"
	"github.com/appgenius/appgenius/internal/common/logger"
	"github.com/appgenius/appgenius/internal/credentials"
	"github.com/appgenius/appgenius/internal/generation/completion"
	"github.com/appgenius/appgenius/internal/generation/orchestrator"
	"github.com/appgenius/appgenius/internal/project/repository"
)

// SetupRoutes configures the generation API routes
func SetupRoutes(router *gin.RouterGroup, orch *orchestrator.Orchestrator, agents []registry.Agent, repo repository.Repository, creds *credentials.Manager, factory completion.Factory, log *logger.Logger) {
	handler := NewHandler(orch, agents, repo, creds, factory, log)

	router.POST("/generate", handler.Generate)
	router.GET("/agents", handler.ListAgents)
}
