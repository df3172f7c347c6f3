package temporalx

import (
	"context"
	"fmt"
	"time"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
	pipeline "github.com/mailsage/mailsage-backend/internal/workflow"

	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/workflow"
)

const (
	WorkflowName    = "pipeline_run"
	ActivityExecute = "pipeline_execute"
)

// ExecuteRequest is the workflow input for one delegated pipeline run.
type ExecuteRequest struct {
	Query     string `json:"query"`
	TopK      int    `json:"top_k"`
	EnableRAG bool   `json:"enable_rag"`
}

// PipelineWorkflow wraps the local pipeline in a single activity so Temporal
// provides durability and retries without changing the execution semantics.
// It returns the execution ID; the full record lives in the orchestrator's
// registry, which the worker shares with the serving process.
func PipelineWorkflow(ctx workflow.Context, req ExecuteRequest) (string, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		HeartbeatTimeout:    30 * time.Second,
	})

	var executionID string
	if err := workflow.ExecuteActivity(ctx, ActivityExecute, req).Get(ctx, &executionID); err != nil {
		return "", err
	}
	return executionID, nil
}

// Activities holds the dependencies the pipeline activity needs.
type Activities struct {
	Log          *logger.Logger
	Orchestrator *pipeline.Orchestrator
}

func (a *Activities) Execute(ctx context.Context, req ExecuteRequest) (string, error) {
	if a == nil || a.Orchestrator == nil {
		return "", fmt.Errorf("pipeline activity not configured")
	}
	exec, err := a.Orchestrator.Execute(ctx, req.Query, req.TopK, req.EnableRAG)
	if err != nil {
		return "", err
	}
	return exec.ID, nil
}

// Dispatcher routes pipeline executions to Temporal when a client is
// configured and transparently falls back to the local orchestrator on any
// delegation failure. The return contract is identical on both paths.
type Dispatcher struct {
	log  *logger.Logger
	tc   temporalsdkclient.Client
	orch *pipeline.Orchestrator
}

func NewDispatcher(log *logger.Logger, tc temporalsdkclient.Client, orch *pipeline.Orchestrator) (*Dispatcher, error) {
	if log == nil {
		return nil, fmt.Errorf("temporalx: logger is nil")
	}
	if orch == nil {
		return nil, fmt.Errorf("temporalx: orchestrator is nil")
	}
	return &Dispatcher{log: log.With("service", "dispatcher"), tc: tc, orch: orch}, nil
}

func (d *Dispatcher) Execute(ctx context.Context, query string, topK int, enableRAG bool) (domain.WorkflowExecution, error) {
	if d.tc == nil {
		return d.orch.Execute(ctx, query, topK, enableRAG)
	}

	cfg := LoadConfig()
	run, err := d.tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		TaskQueue: cfg.TaskQueue,
	}, WorkflowName, ExecuteRequest{Query: query, TopK: topK, EnableRAG: enableRAG})
	if err != nil {
		d.log.Warn("temporal delegation failed; running locally", "error", err)
		return d.orch.Execute(ctx, query, topK, enableRAG)
	}

	var executionID string
	if err := run.Get(ctx, &executionID); err != nil {
		d.log.Warn("temporal workflow failed; running locally", "workflow_id", run.GetID(), "error", err)
		return d.orch.Execute(ctx, query, topK, enableRAG)
	}
	exec, ok := d.orch.GetExecution(executionID)
	if !ok {
		d.log.Warn("delegated execution not in registry; running locally", "execution_id", executionID)
		return d.orch.Execute(ctx, query, topK, enableRAG)
	}
	return exec, nil
}
