package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/appgenius/appgenius/internal/common/errors"
	"github.com/appgenius/appgenius/internal/common/logger"
	"github.com/appgenius/appgenius/internal/project/models"
	"github.com/appgenius/appgenius/internal/project/repository"
)

// Handler contains HTTP handlers for the project API
type Handler struct {
	repo   repository.Repository
	logger *logger.Logger
}

// NewHandler creates a new project API handler
func NewHandler(repo repository.Repository, log *logger.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: log,
	}
}

// ListProjects lists the caller's projects, newest first
// GET /api/v1/projects
func (h *Handler) ListProjects(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	filter := repository.ProjectFilter{
		Status: models.ProjectStatus(c.Query("status")),
		Search: c.Query("search"),
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			appErr := errors.BadRequest("limit must be a positive integer")
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}
		filter.Limit = n
	}

	projects, err := h.repo.ListProjects(c.Request.Context(), userID, filter)
	if err != nil {
		h.logger.Error("failed to list projects", zap.Error(err))
		appErr := errors.InternalError("failed to list projects", err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	responses := make([]ProjectResponse, 0, len(projects))
	for _, project := range projects {
		responses = append(responses, projectToResponse(project))
	}
	c.JSON(http.StatusOK, gin.H{"projects": responses, "count": len(responses)})
}

// CreateProject creates a draft project
// POST /api/v1/projects
func (h *Handler) CreateProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	project := &models.Project{
		Name:        req.Name,
		Description: req.Description,
		Status:      models.ProjectStatusDraft,
		Framework:   req.Framework,
		Category:    req.Category,
		UserID:      userID,
	}
	if err := h.repo.CreateProject(c.Request.Context(), project); err != nil {
		h.logger.Error("failed to create project", zap.Error(err))
		appErr := errors.InternalError("failed to create project", err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusCreated, projectToResponse(project))
}

// GetProject retrieves one of the caller's projects
// GET /api/v1/projects/:projectId
func (h *Handler) GetProject(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, projectToResponse(project))
}

// DeleteProject deletes a project and its executions and files
// DELETE /api/v1/projects/:projectId
func (h *Handler) DeleteProject(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}

	if err := h.repo.DeleteProject(c.Request.Context(), project.ID); err != nil {
		h.logger.Error("failed to delete project", zap.Error(err))
		appErr := errors.InternalError("failed to delete project", err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "project deleted"})
}

// ListExecutions lists a project's agent execution records in start order
// GET /api/v1/projects/:projectId/executions
func (h *Handler) ListExecutions(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}

	executions, err := h.repo.ListExecutions(c.Request.Context(), project.ID)
	if err != nil {
		h.logger.Error("failed to list executions", zap.Error(err))
		appErr := errors.InternalError("failed to list executions", err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	responses := make([]ExecutionResponse, 0, len(executions))
	for _, exec := range executions {
		responses = append(responses, ExecutionResponse{
			ID:              exec.ID,
			AgentID:         exec.AgentID,
			AgentName:       exec.AgentName,
			Status:          string(exec.Status),
			Progress:        exec.Progress,
			Output:          exec.Output,
			Error:           exec.Error,
			StartedAt:       exec.StartedAt,
			CompletedAt:     exec.CompletedAt,
			DurationSeconds: exec.DurationSeconds,
		})
	}
	c.JSON(http.StatusOK, gin.H{"executions": responses, "count": len(responses)})
}

// ListCodeFiles lists a project's generated code files
// GET /api/v1/projects/:projectId/files
func (h *Handler) ListCodeFiles(c *gin.Context) {
	project, ok := h.ownedProject(c)
	if !ok {
		return
	}

	files, err := h.repo.ListCodeFiles(c.Request.Context(), project.ID)
	if err != nil {
		h.logger.Error("failed to list code files", zap.Error(err))
		appErr := errors.InternalError("failed to list code files", err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	responses := make([]CodeFileResponse, 0, len(files))
	for _, file := range files {
		responses = append(responses, CodeFileResponse{
			ID:        file.ID,
			Filename:  file.Filename,
			Content:   file.Content,
			Language:  file.Language,
			Agent:     file.Agent,
			CreatedAt: file.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"files": responses, "count": len(responses)})
}

// ownedProject loads the path project and verifies the caller owns it.
// Non-owned projects read as not found.
func (h *Handler) ownedProject(c *gin.Context) (*models.Project, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return nil, false
	}

	projectID := c.Param("projectId")
	project, err := h.repo.GetProject(c.Request.Context(), projectID)
	if err != nil || project.UserID != userID {
		appErr := errors.NotFound("project", projectID)
		c.JSON(appErr.HTTPStatus, appErr)
		return nil, false
	}
	return project, true
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

func projectToResponse(project *models.Project) ProjectResponse {
	return ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Prompt:      project.Prompt,
		Status:      string(project.Status),
		Framework:   project.Framework,
		Category:    project.Category,
		DeployURL:   project.DeployURL,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}
