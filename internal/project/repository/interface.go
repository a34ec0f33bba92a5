package repository

import (
	"context"

	"github.com/appgenius/appgenius/internal/project/models"
)

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	// Status filters by project status; empty means all.
	Status models.ProjectStatus
	// Search matches name or description, case-insensitive substring.
	Search string
	// Limit caps the result size; zero means the repository default of 50.
	Limit int
}

// Repository defines the interface for generation storage operations.
// Every method is a single independent write or read: the pipeline never
// spans agent boundaries with a transaction and never rolls back earlier
// agents' records.
type Repository interface {
	// Project operations
	CreateProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	UpdateProject(ctx context.Context, project *models.Project) error
	UpdateProjectStatus(ctx context.Context, id string, status models.ProjectStatus, deployURL string) error
	DeleteProject(ctx context.Context, id string) error
	ListProjects(ctx context.Context, userID string, filter ProjectFilter) ([]*models.Project, error)

	// Agent execution operations
	CreateExecution(ctx context.Context, exec *models.AgentExecution) error
	UpdateExecution(ctx context.Context, exec *models.AgentExecution) error
	ListExecutions(ctx context.Context, projectID string) ([]*models.AgentExecution, error)

	// Code file operations
	CreateCodeFile(ctx context.Context, file *models.CodeFile) error
	ListCodeFiles(ctx context.Context, projectID string) ([]*models.CodeFile, error)

	// API key operations
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	GetAPIKeyByService(ctx context.Context, userID, service string) (*models.APIKey, error)
	ListAPIKeys(ctx context.Context, userID string) ([]*models.APIKey, error)
	DeleteAPIKey(ctx context.Context, id string) error
	TouchAPIKey(ctx context.Context, id string) error

	// Ping verifies the backing store is reachable (health checks).
	Ping(ctx context.Context) error

	// Close closes the repository (for database connections)
	Close() error
}

const defaultListLimit = 50
