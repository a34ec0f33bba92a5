// Package api provides HTTP handlers for the project API.
package api

import "time"

// CreateProjectRequest for creating a draft project
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Framework   string `json:"framework"`
	Category    string `json:"category"`
}

// ProjectResponse is the API representation of a project
type ProjectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Prompt      string    `json:"prompt,omitempty"`
	Status      string    `json:"status"`
	Framework   string    `json:"framework"`
	Category    string    `json:"category"`
	DeployURL   string    `json:"deploy_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ExecutionResponse is the API representation of an agent execution record
type ExecutionResponse struct {
	ID              string     `json:"id"`
	AgentID         string     `json:"agent_id"`
	AgentName       string     `json:"agent_name"`
	Status          string     `json:"status"`
	Progress        int        `json:"progress"`
	Output          string     `json:"output,omitempty"`
	Error           string     `json:"error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
}

// CodeFileResponse is the API representation of a generated code file
type CodeFileResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Content   string    `json:"content"`
	Language  string    `json:"language"`
	Agent     string    `json:"agent"`
	CreatedAt time.Time `json:"created_at"`
}
