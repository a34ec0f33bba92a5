// Package models defines the persisted records of the generation pipeline.
package models

import "time"

// ProjectStatus represents the lifecycle state of a project.
type ProjectStatus string

const (
	// ProjectStatusDraft is a project created manually, never generated.
	ProjectStatusDraft ProjectStatus = "draft"
	// ProjectStatusBuilding is a project whose generation run is in flight.
	ProjectStatusBuilding ProjectStatus = "building"
	// ProjectStatusDeployed is a project whose run reached the end of the registry.
	ProjectStatusDeployed ProjectStatus = "deployed"
	// ProjectStatusError is a project whose run failed outside the per-agent scope.
	ProjectStatusError ProjectStatus = "error"
)

// Terminal reports whether the status ends a run. Deployed and error are
// final; a project never returns to building once advanced.
func (s ProjectStatus) Terminal() bool {
	return s == ProjectStatusDeployed || s == ProjectStatusError
}

// ExecutionStatus represents the state of one agent execution.
type ExecutionStatus string

const (
	ExecutionStatusActive    ExecutionStatus = "active"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusError     ExecutionStatus = "error"
)

// Project is one prompt submission and its generated scaffold.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Prompt      string        `json:"prompt"`
	Status      ProjectStatus `json:"status"`
	Framework   string        `json:"framework"`
	Category    string        `json:"category"`
	DeployURL   string        `json:"deploy_url,omitempty"`
	UserID      string        `json:"user_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// AgentExecution is the audit record of one (run, agent) pair. It is written
// exactly twice: once at agent start (active, progress 0) and once at
// finalization (completed or error). Executions are never deleted by the
// pipeline.
type AgentExecution struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	AgentID     string          `json:"agent_id"`
	AgentName   string          `json:"agent_name"`
	Status      ExecutionStatus `json:"status"`
	Progress    int             `json:"progress"`
	Output      string          `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	// DurationSeconds is completion minus start, in whole seconds.
	DurationSeconds int `json:"duration,omitempty"`
}

// CodeFile is the artifact extracted from one agent's completion. At most one
// per execution; immutable once created.
type CodeFile struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Filename  string    `json:"filename"`
	Content   string    `json:"content"`
	Language  string    `json:"language"`
	Agent     string    `json:"agent"`
	CreatedAt time.Time `json:"created_at"`
}

// APIKey is a stored credential for an external service, owned by one user.
// The key value is stored as provided; at-rest encryption is handled by the
// deployment environment.
type APIKey struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Service   string     `json:"service"`
	Key       string     `json:"-"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
