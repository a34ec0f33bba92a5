package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/appgenius/appgenius/internal/project/models"
)

// MemoryRepository is an in-memory implementation of Repository.
// Used for tests and for running without a database configured.
type MemoryRepository struct {
	mu         sync.RWMutex
	projects   map[string]*models.Project
	executions map[string]*models.AgentExecution
	files      map[string]*models.CodeFile
	keys       map[string]*models.APIKey
}

// NewMemoryRepository creates a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		projects:   make(map[string]*models.Project),
		executions: make(map[string]*models.AgentExecution),
		files:      make(map[string]*models.CodeFile),
		keys:       make(map[string]*models.APIKey),
	}
}

var _ Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) CreateProject(ctx context.Context, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	r.projects[project.ID] = cloneProject(project)
	return nil
}

func (r *MemoryRepository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	project, ok := r.projects[id]
	if !ok {
		return nil, fmt.Errorf("project not found: %s", id)
	}
	return cloneProject(project), nil
}

func (r *MemoryRepository) UpdateProject(ctx context.Context, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.projects[project.ID]
	if !ok {
		return fmt.Errorf("project not found: %s", project.ID)
	}
	project.CreatedAt = existing.CreatedAt
	project.UpdatedAt = time.Now().UTC()
	r.projects[project.ID] = cloneProject(project)
	return nil
}

func (r *MemoryRepository) UpdateProjectStatus(ctx context.Context, id string, status models.ProjectStatus, deployURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	project, ok := r.projects[id]
	if !ok {
		return fmt.Errorf("project not found: %s", id)
	}
	project.Status = status
	if deployURL != "" {
		project.DeployURL = deployURL
	}
	project.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) DeleteProject(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[id]; !ok {
		return fmt.Errorf("project not found: %s", id)
	}
	delete(r.projects, id)
	for execID, exec := range r.executions {
		if exec.ProjectID == id {
			delete(r.executions, execID)
		}
	}
	for fileID, file := range r.files {
		if file.ProjectID == id {
			delete(r.files, fileID)
		}
	}
	return nil
}

func (r *MemoryRepository) ListProjects(ctx context.Context, userID string, filter ProjectFilter) ([]*models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	var result []*models.Project
	for _, project := range r.projects {
		if project.UserID != userID {
			continue
		}
		if filter.Status != "" && project.Status != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(project.Name), search) &&
			!strings.Contains(strings.ToLower(project.Description), search) {
			continue
		}
		result = append(result, cloneProject(project))
	}

	// Newest first, matching the SQL implementations.
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *MemoryRepository) CreateExecution(ctx context.Context, exec *models.AgentExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if exec.ID == "" {
		exec.ID = uuid.New().String()
	}
	if exec.StartedAt.IsZero() {
		exec.StartedAt = time.Now().UTC()
	}
	r.executions[exec.ID] = cloneExecution(exec)
	return nil
}

func (r *MemoryRepository) UpdateExecution(ctx context.Context, exec *models.AgentExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.executions[exec.ID]; !ok {
		return fmt.Errorf("execution not found: %s", exec.ID)
	}
	r.executions[exec.ID] = cloneExecution(exec)
	return nil
}

func (r *MemoryRepository) ListExecutions(ctx context.Context, projectID string) ([]*models.AgentExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.AgentExecution
	for _, exec := range r.executions {
		if exec.ProjectID == projectID {
			result = append(result, cloneExecution(exec))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.Before(result[j].StartedAt)
	})
	return result, nil
}

func (r *MemoryRepository) CreateCodeFile(ctx context.Context, file *models.CodeFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if file.ID == "" {
		file.ID = uuid.New().String()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now().UTC()
	}
	copied := *file
	r.files[file.ID] = &copied
	return nil
}

func (r *MemoryRepository) ListCodeFiles(ctx context.Context, projectID string) ([]*models.CodeFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.CodeFile
	for _, file := range r.files {
		if file.ProjectID == projectID {
			copied := *file
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryRepository) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.keys {
		if existing.UserID == key.UserID && existing.Service == key.Service {
			return fmt.Errorf("api key already exists for service: %s", key.Service)
		}
	}
	if key.ID == "" {
		key.ID = uuid.New().String()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}
	copied := *key
	r.keys[key.ID] = &copied
	return nil
}

func (r *MemoryRepository) GetAPIKeyByService(ctx context.Context, userID, service string) (*models.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, key := range r.keys {
		if key.UserID == userID && key.Service == service {
			copied := *key
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("api key not found for service: %s", service)
}

func (r *MemoryRepository) ListAPIKeys(ctx context.Context, userID string) ([]*models.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.APIKey
	for _, key := range r.keys {
		if key.UserID == userID {
			copied := *key
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryRepository) DeleteAPIKey(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[id]; !ok {
		return fmt.Errorf("api key not found: %s", id)
	}
	delete(r.keys, id)
	return nil
}

func (r *MemoryRepository) TouchAPIKey(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.keys[id]
	if !ok {
		return fmt.Errorf("api key not found: %s", id)
	}
	now := time.Now().UTC()
	key.LastUsed = &now
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}

func cloneProject(p *models.Project) *models.Project {
	copied := *p
	return &copied
}

func cloneExecution(e *models.AgentExecution) *models.AgentExecution {
	copied := *e
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		copied.CompletedAt = &t
	}
	return &copied
}
