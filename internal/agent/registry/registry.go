// Package registry defines the ordered set of generation agents.
//
// The registry is an immutable sequence: its order is the execution order of
// the pipeline and must be stable across runs. Callers receive copies and
// cannot mutate the defaults.
package registry

import "time"

// Agent describes one role-specialized generation step. Agents are pure data;
// the orchestrator walks them in registry order, one completion call each.
type Agent struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	Goal      string   `json:"goal"`
	Backstory string   `json:"backstory"`
	Tools     []string `json:"tools"`

	// MaxExecutionSeconds bounds the completion call for this agent when
	// timeout enforcement is enabled.
	MaxExecutionSeconds int `json:"max_execution_time"`
}

// MaxExecutionTime returns the agent's execution budget as a time.Duration.
func (a Agent) MaxExecutionTime() time.Duration {
	return time.Duration(a.MaxExecutionSeconds) * time.Second
}

// List returns a copy of the given registry slice. Handlers use it to expose
// the registry without sharing the backing array.
func List(agents []Agent) []Agent {
	out := make([]Agent, len(agents))
	copy(out, agents)
	return out
}
