// Package api provides HTTP handlers for the generation API.
package api

// GenerateRequest starts a generation run
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// AgentResponse describes a registry agent
type AgentResponse struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Role                string   `json:"role"`
	Goal                string   `json:"goal"`
	Tools               []string `json:"tools,omitempty"`
	MaxExecutionSeconds int      `json:"max_execution_seconds"`
}
