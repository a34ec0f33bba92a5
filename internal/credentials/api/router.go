package api

import (
	"github.com/gin-gonic/gin"

	"github.com/appgenius/appgenius/internal/common/logger"
	"github.com/appgenius/appgenius/internal/project/repository"
)

// SetupRoutes configures the API key routes
func SetupRoutes(router *gin.RouterGroup, repo repository.Repository, log *logger.Logger) {
	handler := NewHandler(repo, log)

	keys := router.Group("/keys")
	{
		keys.GET("", handler.ListKeys)
		keys.POST("", handler.CreateKey)
		keys.DELETE("/:keyId", handler.DeleteKey)
	}
}
