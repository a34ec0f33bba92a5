// Package api provides HTTP handlers for per-user API key management.
package api

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/appgenius/appgenius/internal/common/errors"
	"github.com/appgenius/appgenius/internal/common/logger"
	"github.com/appgenius/appgenius/internal/project/models"
	"github.com/appgenius/appgenius/internal/project/repository"
)

// CreateKeyRequest for storing a service API key
type CreateKeyRequest struct {
	Name    string `json:"name"`
	Service string `json:"service" binding:"required"`
	Key     string `json:"key" binding:"required"`
}

// KeyResponse is the API representation of a stored key. The key value is
// only ever returned masked.
type KeyResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Service   string     `json:"service"`
	Masked    string     `json:"masked"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// keyPatterns validates key shapes for known services. Unknown services are
// accepted as-is.
var keyPatterns = map[string]*regexp.Regexp{
	"cerebras":  regexp.MustCompile(`^[a-zA-Z0-9_-]{20,}$`),
	"openai":    regexp.MustCompile(`^sk-[a-zA-Z0-9]{48}$`),
	"anthropic": regexp.MustCompile(`^sk-ant-[a-zA-Z0-9_-]{95,}$`),
}

// Handler contains HTTP handlers for the API key endpoints
type Handler struct {
	repo   repository.Repository
	logger *logger.Logger
}

// NewHandler creates a new API key handler
func NewHandler(repo repository.Repository, log *logger.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: log,
	}
}

// ListKeys lists the caller's stored keys, values masked
// GET /api/v1/keys
func (h *Handler) ListKeys(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	keys, err := h.repo.ListAPIKeys(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list api keys", zap.Error(err))
		appErr := errors.InternalError("failed to list api keys", err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	responses := make([]KeyResponse, 0, len(keys))
	for _, key := range keys {
		responses = append(responses, keyToResponse(key))
	}
	c.JSON(http.StatusOK, gin.H{"keys": responses, "count": len(responses)})
}

// CreateKey stores a new service key for the caller
// POST /api/v1/keys
func (h *Handler) CreateKey(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	if pattern, known := keyPatterns[req.Service]; known && !pattern.MatchString(req.Key) {
		appErr := errors.BadRequest("invalid API key format")
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	if _, err := h.repo.GetAPIKeyByService(c.Request.Context(), userID, req.Service); err == nil {
		appErr := errors.Conflict("API key for " + req.Service + " already exists")
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	key := &models.APIKey{
		UserID:  userID,
		Name:    req.Name,
		Service: req.Service,
		Key:     req.Key,
	}
	if err := h.repo.CreateAPIKey(c.Request.Context(), key); err != nil {
		h.logger.Error("failed to create api key", zap.Error(err))
		appErr := errors.InternalError("failed to create api key", err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusCreated, keyToResponse(key))
}

// DeleteKey removes one of the caller's keys
// DELETE /api/v1/keys/:keyId
func (h *Handler) DeleteKey(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	keyID := c.Param("keyId")
	keys, err := h.repo.ListAPIKeys(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list api keys", zap.Error(err))
		appErr := errors.InternalError("failed to delete api key", err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	owned := false
	for _, key := range keys {
		if key.ID == keyID {
			owned = true
			break
		}
	}
	if !owned {
		appErr := errors.NotFound("api key", keyID)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	if err := h.repo.DeleteAPIKey(c.Request.Context(), keyID); err != nil {
		h.logger.Error("failed to delete api key", zap.Error(err))
		appErr := errors.InternalError("failed to delete api key", err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "api key deleted"})
}

func requireUser(c *gin.Context) (string, bool) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		appErr := errors.Unauthorized("X-User-ID header is required")
		c.JSON(appErr.HTTPStatus, appErr)
		return "", false
	}
	return userID, true
}

func keyToResponse(key *models.APIKey) KeyResponse {
	return KeyResponse{
		ID:        key.ID,
		Name:      key.Name,
		Service:   key.Service,
		Masked:    Mask(key.Key),
		LastUsed:  key.LastUsed,
		CreatedAt: key.CreatedAt,
	}
}

// Mask hides the middle of a key, keeping the first and last four
// characters. Short keys are fully hidden.
func Mask(key string) string {
	if len(key) <= 8 {
		return "••••••••"
	}
	return key[:4] + "••••••••" + key[len(key)-4:]
}
