// Package stream defines the event vocabulary of a generation run and its
// Server-Sent Events encoding.
//
// Events form a closed tagged union: one Go type per event kind, all
// implementing Event through an unexported method so the set cannot grow
// outside this package. Every event carries its kind discriminant and an
// RFC 3339 timestamp.
package stream

import "time"

// Type discriminates event kinds on the wire.
type Type string

const (
	TypeAgentStart         Type = "agent_start"
	TypeAgentProgress      Type = "agent_progress"
	TypeAgentComplete      Type = "agent_complete"
	TypeAgentError         Type = "agent_error"
	TypeGenerationComplete Type = "generation_complete"
	TypeGenerationError    Type = "generation_error"
)

// Event is one unit of the generation stream. Implementations are the six
// variant structs below and nothing else.
type Event interface {
	EventType() Type
	isEvent()
}

// AgentStart announces that an agent has begun executing.
type AgentStart struct {
	Type      Type      `json:"type"`
	AgentID   string    `json:"agentId"`
	AgentName string    `json:"agentName"`
	Timestamp time.Time `json:"timestamp"`
}

// AgentProgress carries one non-blank line of an agent's raw output.
type AgentProgress struct {
	Type      Type      `json:"type"`
	AgentID   string    `json:"agentId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// AgentComplete reports a finished agent. Code is empty when the completion
// contained no fenced code block.
type AgentComplete struct {
	Type      Type      `json:"type"`
	AgentID   string    `json:"agentId"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AgentError reports a failed agent. The run continues with the next agent.
type AgentError struct {
	Type      Type      `json:"type"`
	AgentID   string    `json:"agentId"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// GenerationComplete is the terminal event of a run that reached the end of
// the registry, regardless of individual agent failures.
type GenerationComplete struct {
	Type      Type      `json:"type"`
	ProjectID string    `json:"projectId"`
	Timestamp time.Time `json:"timestamp"`
}

// GenerationError is the terminal event of a run that failed outside the
// per-agent scope.
type GenerationError struct {
	Type      Type      `json:"type"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

func (e AgentStart) EventType() Type         { return TypeAgentStart }
func (e AgentProgress) EventType() Type      { return TypeAgentProgress }
func (e AgentComplete) EventType() Type      { return TypeAgentComplete }
func (e AgentError) EventType() Type         { return TypeAgentError }
func (e GenerationComplete) EventType() Type { return TypeGenerationComplete }
func (e GenerationError) EventType() Type    { return TypeGenerationError }

func (AgentStart) isEvent()         {}
func (AgentProgress) isEvent()      {}
func (AgentComplete) isEvent()      {}
func (AgentError) isEvent()         {}
func (GenerationComplete) isEvent() {}
func (GenerationError) isEvent()    {}

// NewAgentStart stamps an AgentStart event.
func NewAgentStart(agentID, agentName string) AgentStart {
	return AgentStart{Type: TypeAgentStart, AgentID: agentID, AgentName: agentName, Timestamp: time.Now().UTC()}
}

// NewAgentProgress stamps an AgentProgress event for one output line.
func NewAgentProgress(agentID, content string) AgentProgress {
	return AgentProgress{Type: TypeAgentProgress, AgentID: agentID, Content: content, Timestamp: time.Now().UTC()}
}

// NewAgentComplete stamps an AgentComplete event. Pass an empty code string
// when no artifact was extracted.
func NewAgentComplete(agentID, code string) AgentComplete {
	return AgentComplete{Type: TypeAgentComplete, AgentID: agentID, Code: code, Timestamp: time.Now().UTC()}
}

// NewAgentError stamps an AgentError event.
func NewAgentError(agentID, msg string) AgentError {
	return AgentError{Type: TypeAgentError, AgentID: agentID, Error: msg, Timestamp: time.Now().UTC()}
}

// NewGenerationComplete stamps the successful terminal event.
func NewGenerationComplete(projectID string) GenerationComplete {
	return GenerationComplete{Type: TypeGenerationComplete, ProjectID: projectID, Timestamp: time.Now().UTC()}
}

// NewGenerationError stamps the failing terminal event.
func NewGenerationError(msg string) GenerationError {
	return GenerationError{Type: TypeGenerationError, Error: msg, Timestamp: time.Now().UTC()}
}
