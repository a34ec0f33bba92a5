package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/appgenius/appgenius/internal/agent/registry"
	"github.com/appgenius/appgenius/internal/common/config"
	"github.com/appgenius/appgenius/internal/common/logger"
	"github.com/appgenius/appgenius/internal/events/bus"
	"github.com/appgenius/appgenius/internal/generation/stream"
	"github.com/appgenius/appgenius/internal/project/lifecycle"
	"github.com/appgenius/appgenius/internal/project/models"
	"github.com/appgenius/appgenius/internal/project/repository"
)

func newTestLogger(t *testing.T) *logger.Logger {
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:  "debug",
		Format: "console",
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return log
}

// fakeClient returns canned completions in call order. An entry that is an
// error fails that call.
type fakeClient struct {
	replies []any
	calls   int
}

func (c *fakeClient) Complete(ctx context.Context, system, user string) (string, error) {
	if c.calls >= len(c.replies) {
		return "", errors.New("no more canned replies")
	}
	reply := c.replies[c.calls]
	c.calls++
	if err, ok := reply.(error); ok {
		return "", err
	}
	return reply.(string), nil
}

// collector records every event a run emits, in order.
func collector(events *[]stream.Event) stream.Sink {
	return stream.SinkFunc(func(event stream.Event) error {
		*events = append(*events, event)
		return nil
	})
}

func testAgents(n int) []registry.Agent {
	all := registry.Default()
	return all[:n]
}

func newTestOrchestrator(t *testing.T, repo repository.Repository, agents []registry.Agent) *Orchestrator {
	log := newTestLogger(t)
	tracker := lifecycle.NewTracker(repo, log)
	eventBus := bus.NewMemoryEventBus(log)
	cfg := config.GenerationConfig{LineDelayMs: 0, EnforceAgentTimeout: true}
	return New(agents, repo, tracker, eventBus, cfg, log)
}

func createProject(t *testing.T, repo repository.Repository) *models.Project {
	project := &models.Project{
		Name:   "Todo",
		Prompt: "Build a simple todo app",
		Status: models.ProjectStatusBuilding,
		UserID: "u1",
	}
	if err := repo.CreateProject(context.Background(), project); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	return project
}

func eventTypes(events []stream.Event) []stream.Type {
	types := make([]stream.Type, len(events))
	for i, e := range events {
		types[i] = e.EventType()
	}
	return types
}

func TestRunTwoAgents(t *testing.T) {
	repo := repository.NewMemoryRepository()
	orch := newTestOrchestrator(t, repo, testAgents(2))
	project := createProject(t, repo)

	client := &fakeClient{replies: []any{
		"I would structure the project as a single-page app.\nNo code needed yet.",
		"Here is the component:\n```tsx\nexport default function Todo(){}\n```",
	}}

	var events []stream.Event
	outcomes, err := orch.Run(context.Background(), project, client, collector(&events))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("Expected 2 outcomes, got %d", len(outcomes))
	}

	// First agent: prose only, no artifact.
	var firstComplete stream.AgentComplete
	var secondComplete stream.AgentComplete
	for _, e := range events {
		if ac, ok := e.(stream.AgentComplete); ok {
			if ac.AgentID == "orchestrator" {
				firstComplete = ac
			} else {
				secondComplete = ac
			}
		}
	}
	if firstComplete.Code != "" {
		t.Errorf("Prose-only agent must complete with empty code, got %q", firstComplete.Code)
	}
	if secondComplete.Code != "export default function Todo(){}" {
		t.Errorf("Unexpected artifact code: %q", secondComplete.Code)
	}

	// Terminal event is last and is generation_complete.
	last := events[len(events)-1]
	if last.EventType() != stream.TypeGenerationComplete {
		t.Errorf("Expected generation_complete last, got %s", last.EventType())
	}

	// Project reached deployed with a deploy URL.
	stored, err := repo.GetProject(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if stored.Status != models.ProjectStatusDeployed {
		t.Errorf("Expected deployed status, got %s", stored.Status)
	}
	if !strings.Contains(stored.DeployURL, project.ID) {
		t.Errorf("Deploy URL must reference the project, got %q", stored.DeployURL)
	}

	// Both executions finalized.
	executions, err := repo.ListExecutions(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("ListExecutions failed: %v", err)
	}
	if len(executions) != 2 {
		t.Fatalf("Expected 2 executions, got %d", len(executions))
	}
	for _, exec := range executions {
		if exec.Status != models.ExecutionStatusCompleted {
			t.Errorf("Execution %s not completed: %s", exec.AgentID, exec.Status)
		}
		if exec.Progress != 100 {
			t.Errorf("Execution %s progress = %d, want 100", exec.AgentID, exec.Progress)
		}
		if exec.CompletedAt == nil {
			t.Errorf("Execution %s missing completion time", exec.AgentID)
		}
		if exec.Output == "" {
			t.Errorf("Execution %s missing raw output", exec.AgentID)
		}
	}

	// One artifact persisted with the canonical filename.
	files, err := repo.ListCodeFiles(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("ListCodeFiles failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("Expected 1 code file, got %d", len(files))
	}
	if files[0].Filename != "components/App.tsx" {
		t.Errorf("Unexpected filename: %q", files[0].Filename)
	}
	if files[0].Agent != "ui" {
		t.Errorf("Unexpected artifact agent: %q", files[0].Agent)
	}
}

func TestRunEventOrdering(t *testing.T) {
	repo := repository.NewMemoryRepository()
	agents := testAgents(3)
	orch := newTestOrchestrator(t, repo, agents)
	project := createProject(t, repo)

	client := &fakeClient{replies: []any{
		"line one\nline two",
		"single line",
		"done",
	}}

	var events []stream.Event
	if _, err := orch.Run(context.Background(), project, client, collector(&events)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Events for agent k are fully emitted before agent k+1 begins: walking
	// the stream, agent ids must appear as contiguous groups in registry
	// order.
	var seen []string
	for _, e := range events {
		var agentID string
		switch ev := e.(type) {
		case stream.AgentStart:
			agentID = ev.AgentID
		case stream.AgentProgress:
			agentID = ev.AgentID
		case stream.AgentComplete:
			agentID = ev.AgentID
		case stream.AgentError:
			agentID = ev.AgentID
		default:
			continue
		}
		if len(seen) == 0 || seen[len(seen)-1] != agentID {
			seen = append(seen, agentID)
		}
	}

	if len(seen) != len(agents) {
		t.Fatalf("Agent event groups interleaved: %v", seen)
	}
	for i, agent := range agents {
		if seen[i] != agent.ID {
			t.Errorf("Group %d: expected %q, got %q", i, agent.ID, seen[i])
		}
	}

	// One start and one terminal agent event per agent.
	types := eventTypes(events)
	starts, terminals := 0, 0
	for _, typ := range types {
		switch typ {
		case stream.TypeAgentStart:
			starts++
		case stream.TypeAgentComplete, stream.TypeAgentError:
			terminals++
		}
	}
	if starts != len(agents) || terminals != len(agents) {
		t.Errorf("Expected %d starts and terminals, got %d and %d", len(agents), starts, terminals)
	}
}

func TestRunProgressPerNonBlankLine(t *testing.T) {
	repo := repository.NewMemoryRepository()
	orch := newTestOrchestrator(t, repo, testAgents(1))
	project := createProject(t, repo)

	client := &fakeClient{replies: []any{"first\n\n  \nsecond\nthird\n"}}

	var events []stream.Event
	if _, err := orch.Run(context.Background(), project, client, collector(&events)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var lines []string
	for _, e := range events {
		if p, ok := e.(stream.AgentProgress); ok {
			lines = append(lines, p.Content)
		}
	}
	want := []string{"first", "second", "third"}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d progress events, got %d: %v", len(want), len(lines), lines)
	}
	for i, line := range want {
		if lines[i] != line {
			t.Errorf("Progress %d = %q, want %q", i, lines[i], line)
		}
	}
}

func TestRunAgentFailureContinues(t *testing.T) {
	repo := repository.NewMemoryRepository()
	orch := newTestOrchestrator(t, repo, testAgents(2))
	project := createProject(t, repo)

	client := &fakeClient{replies: []any{
		errors.New("rate limited"),
		"recovered output",
	}}

	var events []stream.Event
	outcomes, err := orch.Run(context.Background(), project, client, collector(&events))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if outcomes[0].Err == nil {
		t.Error("First outcome must record the agent failure")
	}
	if outcomes[1].Err != nil {
		t.Errorf("Second agent must succeed, got %v", outcomes[1].Err)
	}

	types := eventTypes(events)
	want := []stream.Type{
		stream.TypeAgentStart, stream.TypeAgentError,
		stream.TypeAgentStart, stream.TypeAgentProgress, stream.TypeAgentComplete,
		stream.TypeGenerationComplete,
	}
	if len(types) != len(want) {
		t.Fatalf("Unexpected event sequence: %v", types)
	}
	for i, typ := range want {
		if types[i] != typ {
			t.Errorf("Event %d = %s, want %s", i, types[i], typ)
		}
	}

	// Failed execution finalized with the error message.
	executions, _ := repo.ListExecutions(context.Background(), project.ID)
	if executions[0].Status != models.ExecutionStatusError {
		t.Errorf("Expected error status, got %s", executions[0].Status)
	}
	if executions[0].Error != "rate limited" {
		t.Errorf("Expected error message, got %q", executions[0].Error)
	}
	if executions[0].CompletedAt == nil {
		t.Error("Failed execution missing completion time")
	}

	// Per-agent failure does not force the run to error.
	stored, _ := repo.GetProject(context.Background(), project.ID)
	if stored.Status != models.ProjectStatusDeployed {
		t.Errorf("Expected deployed despite agent failure, got %s", stored.Status)
	}
}

func TestRunSingleAgentFailureStillCompletes(t *testing.T) {
	repo := repository.NewMemoryRepository()
	orch := newTestOrchestrator(t, repo, testAgents(1))
	project := createProject(t, repo)

	client := &fakeClient{replies: []any{errors.New("provider down")}}

	var events []stream.Event
	if _, err := orch.Run(context.Background(), project, client, collector(&events)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	types := eventTypes(events)
	want := []stream.Type{stream.TypeAgentStart, stream.TypeAgentError, stream.TypeGenerationComplete}
	if len(types) != len(want) {
		t.Fatalf("Unexpected event sequence: %v", types)
	}
	for i, typ := range want {
		if types[i] != typ {
			t.Errorf("Event %d = %s, want %s", i, types[i], typ)
		}
	}
}

// brokenRepo fails execution finalization to simulate the store becoming
// unreachable mid-run.
type brokenRepo struct {
	repository.Repository
}

func (r *brokenRepo) UpdateExecution(ctx context.Context, exec *models.AgentExecution) error {
	return errors.New("store unreachable")
}

func TestRunInfrastructureFailure(t *testing.T) {
	repo := &brokenRepo{Repository: repository.NewMemoryRepository()}
	orch := newTestOrchestrator(t, repo, testAgents(2))
	project := createProject(t, repo)

	client := &fakeClient{replies: []any{"fine output", "never reached"}}

	var events []stream.Event
	_, err := orch.Run(context.Background(), project, client, collector(&events))
	if err == nil {
		t.Fatal("Expected a run-scoped error")
	}

	last := events[len(events)-1]
	if last.EventType() != stream.TypeGenerationError {
		t.Errorf("Expected generation_error last, got %s", last.EventType())
	}

	stored, _ := repo.GetProject(context.Background(), project.ID)
	if stored.Status != models.ProjectStatusError {
		t.Errorf("Expected error status, got %s", stored.Status)
	}
}

// codeFileFailRepo rejects artifact writes but leaves execution records
// working.
type codeFileFailRepo struct {
	repository.Repository
}

func (r *codeFileFailRepo) CreateCodeFile(ctx context.Context, file *models.CodeFile) error {
	return errors.New("store rejected write")
}

func TestRunCodeFileFailureContinues(t *testing.T) {
	repo := &codeFileFailRepo{Repository: repository.NewMemoryRepository()}
	orch := newTestOrchestrator(t, repo, testAgents(2))
	project := createProject(t, repo)

	client := &fakeClient{replies: []any{
		"```json\n{\"name\":\"todo\"}\n```",
		"plain advice, no code",
	}}

	var events []stream.Event
	outcomes, err := orch.Run(context.Background(), project, client, collector(&events))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if outcomes[0].Err == nil {
		t.Error("First outcome must record the artifact write failure")
	}
	if outcomes[1].Err != nil {
		t.Errorf("Second agent must succeed, got %v", outcomes[1].Err)
	}

	types := eventTypes(events)
	want := []stream.Type{
		stream.TypeAgentStart, stream.TypeAgentProgress, stream.TypeAgentProgress, stream.TypeAgentProgress, stream.TypeAgentError,
		stream.TypeAgentStart, stream.TypeAgentProgress, stream.TypeAgentComplete,
		stream.TypeGenerationComplete,
	}
	if len(types) != len(want) {
		t.Fatalf("Unexpected event sequence: %v", types)
	}
	for i, typ := range want {
		if types[i] != typ {
			t.Errorf("Event %d = %s, want %s", i, types[i], typ)
		}
	}

	executions, _ := repo.ListExecutions(context.Background(), project.ID)
	if executions[0].Status != models.ExecutionStatusError {
		t.Errorf("Expected error status, got %s", executions[0].Status)
	}
	if !strings.Contains(executions[0].Error, "persist code file") {
		t.Errorf("Expected persistence error message, got %q", executions[0].Error)
	}

	stored, _ := repo.GetProject(context.Background(), project.ID)
	if stored.Status != models.ProjectStatusDeployed {
		t.Errorf("Expected deployed despite artifact failure, got %s", stored.Status)
	}
}

// completedWriteFailRepo fails only the completed-status finalize; the
// error record can still be written.
type completedWriteFailRepo struct {
	repository.Repository
}

func (r *completedWriteFailRepo) UpdateExecution(ctx context.Context, exec *models.AgentExecution) error {
	if exec.Status == models.ExecutionStatusCompleted {
		return errors.New("store rejected write")
	}
	return r.Repository.UpdateExecution(ctx, exec)
}

func TestRunFinalizeFailureContinues(t *testing.T) {
	repo := &completedWriteFailRepo{Repository: repository.NewMemoryRepository()}
	orch := newTestOrchestrator(t, repo, testAgents(1))
	project := createProject(t, repo)

	client := &fakeClient{replies: []any{"one line of advice"}}

	var events []stream.Event
	outcomes, err := orch.Run(context.Background(), project, client, collector(&events))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcomes[0].Err == nil {
		t.Error("Outcome must record the finalize failure")
	}

	types := eventTypes(events)
	want := []stream.Type{
		stream.TypeAgentStart, stream.TypeAgentProgress, stream.TypeAgentError,
		stream.TypeGenerationComplete,
	}
	if len(types) != len(want) {
		t.Fatalf("Unexpected event sequence: %v", types)
	}
	for i, typ := range want {
		if types[i] != typ {
			t.Errorf("Event %d = %s, want %s", i, types[i], typ)
		}
	}

	executions, _ := repo.ListExecutions(context.Background(), project.ID)
	if executions[0].Status != models.ExecutionStatusError {
		t.Errorf("Expected error status, got %s", executions[0].Status)
	}

	stored, _ := repo.GetProject(context.Background(), project.ID)
	if stored.Status != models.ProjectStatusDeployed {
		t.Errorf("Expected deployed, got %s", stored.Status)
	}
}

func TestRunPublishesToBus(t *testing.T) {
	log := newTestLogger(t)
	repo := repository.NewMemoryRepository()
	tracker := lifecycle.NewTracker(repo, log)
	eventBus := bus.NewMemoryEventBus(log)
	cfg := config.GenerationConfig{LineDelayMs: 0}
	orch := New(testAgents(1), repo, tracker, eventBus, cfg, log)
	project := createProject(t, repo)

	received := make(chan *bus.Event, 16)
	sub, err := eventBus.Subscribe("generation.>", func(ctx context.Context, event *bus.Event) error {
		received <- event
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	client := &fakeClient{replies: []any{"some output"}}
	var events []stream.Event
	if _, err := orch.Run(context.Background(), project, client, collector(&events)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Every streamed event is republished, each carrying the project id.
	// Delivery is asynchronous, so wait.
	deadline := time.After(2 * time.Second)
	for i := 0; i < len(events); i++ {
		select {
		case event := <-received:
			if got, _ := event.Data["projectId"].(string); got != project.ID {
				t.Errorf("Bus event missing project id, got %v", event.Data["projectId"])
			}
		case <-deadline:
			t.Fatalf("Expected %d bus events, got %d before timeout", len(events), i)
		}
	}
}
