package registry

import (
	"reflect"
	"testing"
	"time"
)

func TestDefaultOrder(t *testing.T) {
	want := []string{"orchestrator", "ui", "backend", "database", "tester", "deployment"}

	agents := Default()
	if len(agents) != len(want) {
		t.Fatalf("Expected %d agents, got %d", len(want), len(agents))
	}
	for i, agent := range agents {
		if agent.ID != want[i] {
			t.Errorf("Position %d: expected agent %q, got %q", i, want[i], agent.ID)
		}
	}
}

func TestDefaultStable(t *testing.T) {
	first := Default()
	second := Default()

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical registries across calls")
	}
}

func TestDefaultComplete(t *testing.T) {
	for _, agent := range Default() {
		if agent.Name == "" || agent.Role == "" || agent.Goal == "" || agent.Backstory == "" {
			t.Errorf("Agent %q has empty descriptor fields", agent.ID)
		}
		if agent.MaxExecutionSeconds <= 0 {
			t.Errorf("Agent %q has no execution budget", agent.ID)
		}
	}
}

func TestMaxExecutionTime(t *testing.T) {
	agent := Agent{ID: "test", MaxExecutionSeconds: 300}
	if got := agent.MaxExecutionTime(); got != 5*time.Minute {
		t.Errorf("Expected 5m, got %v", got)
	}
}

func TestListCopies(t *testing.T) {
	agents := Default()
	listed := List(agents)

	listed[0].ID = "mutated"
	if agents[0].ID == "mutated" {
		t.Error("List must not share its backing array with the input")
	}
}
