package api

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/appgenius/appgenius/internal/agent/registry"
	"github.com/appgenius/appgenius/internal/common/errors"
	"github.com/appgenius/appgenius/internal/common/logger"
	"github.com/appgenius/appgenius/internal/credentials"
	"github.com/appgenius/appgenius/internal/generation/completion"
	"github.com/appgenius/appgenius/internal/generation/orchestrator"
	"github.com/appgenius/appgenius/internal/generation/stream"
	"github.com/appgenius/appgenius/internal/project/models"
	"github.com/appgenius/appgenius/internal/project/repository"
)

// Handler contains HTTP handlers for the generation API
type Handler struct {
	orch    *orchestrator.Orchestrator
	agents  []registry.Agent
	repo    repository.Repository
	creds   *credentials.Manager
	factory completion.Factory
	logger  *logger.Logger
}

// NewHandler creates a new generation API handler
func NewHandler(orch *orchestrator.Orchestrator, agents []registry.Agent, repo repository.Repository, creds *credentials.Manager, factory completion.Factory, log *logger.Logger) *Handler {
	return &Handler{
		orch:    orch,
		agents:  agents,
		repo:    repo,
		creds:   creds,
		factory: factory,
		logger:  log,
	}
}

// Generate runs the full agent pipeline for a prompt, streaming events as SSE
// POST /api/v1/generate
func (h *Handler) Generate(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		appErr := errors.Unauthorized("X-User-ID header is required")
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		appErr := errors.BadRequest("prompt is required")
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	cred, err := h.creds.Resolve(c.Request.Context(), userID, credentials.ServiceCerebras)
	if err != nil {
		appErr := errors.BadRequest("no Cerebras API key configured. Add one in settings.")
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	project := &models.Project{
		Name:        extractProjectName(req.Prompt),
		Description: truncate(req.Prompt, 200),
		Prompt:      req.Prompt,
		Status:      models.ProjectStatusBuilding,
		Framework:   "react",
		Category:    "web",
		UserID:      userID,
	}
	if err := h.repo.CreateProject(c.Request.Context(), project); err != nil {
		h.logger.Error("failed to create project", zap.Error(err))
		appErr := errors.InternalError("failed to create project", err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	sink, err := stream.NewSSEWriter(c.Writer)
	if err != nil {
		appErr := errors.InternalError("streaming unsupported by connection", err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	// The run outlives the client: a disconnect mid-stream must not cancel
	// completion calls or persistence.
	runCtx := context.WithoutCancel(c.Request.Context())
	client := h.factory(cred.Value)
	if _, err := h.orch.Run(runCtx, project, client, sink); err != nil {
		// Already streamed as generation_error; nothing more to send.
		h.logger.Error("generation run aborted",
			zap.String("project_id", project.ID),
			zap.Error(err))
	}
}

// ListAgents returns the fixed agent registry in execution order
// GET /api/v1/agents
func (h *Handler) ListAgents(c *gin.Context) {
	agents := make([]AgentResponse, 0, len(h.agents))
	for _, agent := range h.agents {
		agents = append(agents, AgentResponse{
			ID:                  agent.ID,
			Name:                agent.Name,
			Role:                agent.Role,
			Goal:                agent.Goal,
			Tools:               agent.Tools,
			MaxExecutionSeconds: agent.MaxExecutionSeconds,
		})
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents, "count": len(agents)})
}

var projectNamePattern = regexp.MustCompile(`(?i)(?:create|build|make)\s+(?:a|an)?\s*(.+?)\s+(?:app|application|website|platform|system)`)

// extractProjectName derives a display name from the prompt. Prompts that
// don't match the create/build/make shape get a timestamped fallback.
func extractProjectName(prompt string) string {
	match := projectNamePattern.FindStringSubmatch(prompt)
	if match == nil {
		return "Generated App " + time.Now().UTC().Format("20060102150405")
	}

	words := strings.Fields(match[1])
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// truncate cuts s to at most n runes, never splitting a multi-byte
// character.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
