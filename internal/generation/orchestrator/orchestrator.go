// Package orchestrator drives a full generation run: every registry agent in
// order, one completion call each, events streamed as they happen.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/appgenius/appgenius/internal/agent/registry"
	"github.com/appgenius/appgenius/internal/common/config"
	"github.com/appgenius/appgenius/internal/common/logger"
	"github.com/appgenius/appgenius/internal/events/bus"
	"github.com/appgenius/appgenius/internal/generation/completion"
	"github.com/appgenius/appgenius/internal/generation/parser"
	"github.com/appgenius/appgenius/internal/generation/prompt"
	"github.com/appgenius/appgenius/internal/generation/stream"
	"github.com/appgenius/appgenius/internal/project/lifecycle"
	"github.com/appgenius/appgenius/internal/project/models"
	"github.com/appgenius/appgenius/internal/project/repository"
)

// AgentOutcome records how a single agent fared in a run.
type AgentOutcome struct {
	AgentID     string
	ExecutionID string
	Output      string
	Code        string
	Language    string
	Filename    string
	// Err is the agent-scoped failure, if any. It never aborts the run.
	Err error
}

// Orchestrator executes generation runs. A single instance is shared by all
// requests; per-run state lives on the stack of Run.
type Orchestrator struct {
	agents  []registry.Agent
	repo    repository.Repository
	tracker *lifecycle.Tracker
	bus     bus.EventBus
	cfg     config.GenerationConfig
	logger  *logger.Logger
}

// New creates an orchestrator over a fixed agent registry.
func New(agents []registry.Agent, repo repository.Repository, tracker *lifecycle.Tracker, eventBus bus.EventBus, cfg config.GenerationConfig, lg *logger.Logger) *Orchestrator {
	return &Orchestrator{
		agents:  agents,
		repo:    repo,
		tracker: tracker,
		bus:     eventBus,
		cfg:     cfg,
		logger:  lg,
	}
}

// Run executes the pipeline for one project. Agents run strictly in registry
// order; an individual agent failure — completion error or a write that fails
// after the completion returned — is recorded and streamed but does not stop
// the run. Only failures to create an execution record or to write the error
// record itself abort the run, in which case the project is marked errored
// and the returned error is non-nil. The terminal event (generation_complete or generation_error) is
// always the last one emitted.
func (o *Orchestrator) Run(ctx context.Context, project *models.Project, client completion.Client, sink stream.Sink) ([]AgentOutcome, error) {
	log := o.logger.WithProjectID(project.ID)

	if err := o.tracker.Begin(ctx, project.ID); err != nil {
		return nil, o.fail(ctx, project.ID, sink, log, err)
	}

	outcomes := make([]AgentOutcome, 0, len(o.agents))
	for _, agent := range o.agents {
		outcome, err := o.runAgent(ctx, project, agent, client, sink, log)
		if err != nil {
			return outcomes, o.fail(ctx, project.ID, sink, log, err)
		}
		outcomes = append(outcomes, outcome)
	}

	if _, err := o.tracker.Deployed(ctx, project.ID); err != nil {
		return outcomes, o.fail(ctx, project.ID, sink, log, err)
	}

	o.emit(ctx, project.ID, sink, log, stream.NewGenerationComplete(project.ID))
	log.Info("generation run finished", zap.Int("agents", len(outcomes)))
	return outcomes, nil
}

// runAgent executes one agent's sub-sequence. The returned error is
// run-scoped (infrastructure failure); agent-scoped failures are folded into
// the outcome.
func (o *Orchestrator) runAgent(ctx context.Context, project *models.Project, agent registry.Agent, client completion.Client, sink stream.Sink, log *logger.Logger) (AgentOutcome, error) {
	outcome := AgentOutcome{AgentID: agent.ID}

	o.emit(ctx, project.ID, sink, log, stream.NewAgentStart(agent.ID, agent.Name))

	exec := &models.AgentExecution{
		ProjectID: project.ID,
		AgentID:   agent.ID,
		AgentName: agent.Name,
		Status:    models.ExecutionStatusActive,
		Progress:  0,
		StartedAt: time.Now().UTC(),
	}
	if err := o.repo.CreateExecution(ctx, exec); err != nil {
		return outcome, fmt.Errorf("create execution record: %w", err)
	}
	outcome.ExecutionID = exec.ID

	system, user := prompt.Build(agent, project.Prompt, nil)

	callCtx := ctx
	if o.cfg.EnforceAgentTimeout && agent.MaxExecutionSeconds > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, agent.MaxExecutionTime())
		defer cancel()
	}

	raw, err := client.Complete(callCtx, system, user)
	if err != nil {
		return o.failAgent(ctx, project.ID, agent, exec, outcome, err, sink, log)
	}

	result := parser.Parse(raw)

	delay := o.cfg.LineDelay()
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		o.emit(ctx, project.ID, sink, log, stream.NewAgentProgress(agent.ID, line))
		if delay > 0 {
			time.Sleep(delay)
		}
	}

	if result.HasCode() {
		filename := parser.Filename(agent.ID, result.Language)
		file := &models.CodeFile{
			ProjectID: project.ID,
			Filename:  filename,
			Content:   result.Code,
			Language:  result.Language,
			Agent:     agent.ID,
		}
		if err := o.repo.CreateCodeFile(ctx, file); err != nil {
			return o.failAgent(ctx, project.ID, agent, exec, outcome, fmt.Errorf("persist code file: %w", err), sink, log)
		}
		outcome.Code = result.Code
		outcome.Language = result.Language
		outcome.Filename = filename
	}

	now := time.Now().UTC()
	exec.Status = models.ExecutionStatusCompleted
	exec.Progress = 100
	exec.Output = raw
	exec.CompletedAt = &now
	exec.DurationSeconds = int(now.Sub(exec.StartedAt).Seconds())
	if err := o.repo.UpdateExecution(ctx, exec); err != nil {
		return o.failAgent(ctx, project.ID, agent, exec, outcome, fmt.Errorf("finalize execution record: %w", err), sink, log)
	}
	outcome.Output = raw

	o.emit(ctx, project.ID, sink, log, stream.NewAgentComplete(agent.ID, result.Code))
	return outcome, nil
}

// failAgent finalizes the execution record as errored and emits
// agent_error. The run continues past a failed agent; only a failure
// to write the error record itself escapes as a run-scoped error.
func (o *Orchestrator) failAgent(ctx context.Context, projectID string, agent registry.Agent, exec *models.AgentExecution, outcome AgentOutcome, agentErr error, sink stream.Sink, log *logger.Logger) (AgentOutcome, error) {
	outcome.Err = agentErr
	log.Warn("agent failed", zap.String("agent_id", agent.ID), zap.Error(agentErr))

	now := time.Now().UTC()
	exec.Status = models.ExecutionStatusError
	exec.Error = agentErr.Error()
	exec.CompletedAt = &now
	exec.DurationSeconds = int(now.Sub(exec.StartedAt).Seconds())
	if err := o.repo.UpdateExecution(ctx, exec); err != nil {
		return outcome, fmt.Errorf("finalize execution record: %w", err)
	}

	o.emit(ctx, projectID, sink, log, stream.NewAgentError(agent.ID, agentErr.Error()))
	return outcome, nil
}

// fail marks the project errored and emits the terminal error event. It
// always returns the original error.
func (o *Orchestrator) fail(ctx context.Context, projectID string, sink stream.Sink, log *logger.Logger, runErr error) error {
	log.Error("generation run failed", zap.Error(runErr))
	if err := o.tracker.Failed(ctx, projectID); err != nil {
		log.Error("failed to mark project errored", zap.Error(err))
	}
	o.emit(ctx, projectID, sink, log, stream.NewGenerationError(runErr.Error()))
	return runErr
}

// emit delivers an event to the response stream and republishes it on the
// event bus. Neither destination can abort the run: the sink goes silent once
// the client is gone, and bus errors are only logged.
func (o *Orchestrator) emit(ctx context.Context, projectID string, sink stream.Sink, log *logger.Logger, event stream.Event) {
	if err := sink.Send(event); err != nil {
		log.Debug("stream write failed", zap.Error(err))
	}
	if o.bus == nil {
		return
	}
	data := eventData(event)
	if data != nil {
		// Subject-level routing is lost on redelivery, so every payload
		// carries the project id.
		data["projectId"] = projectID
	}
	busEvent := bus.NewEvent(string(event.EventType()), "generation", data)
	if err := o.bus.Publish(ctx, "generation."+projectID, busEvent); err != nil {
		log.Debug("bus publish failed", zap.Error(err))
	}
}

// eventData flattens a stream event into the bus payload shape.
func eventData(event stream.Event) map[string]interface{} {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return data
}
