package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/observability"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
)

const (
	DefaultTopK        = 5
	DefaultThreatTopN  = 5
	DefaultStepTimeout = 30 * time.Second
)

// Searcher retrieves ranked results for a query.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error)
}

// Answerer generates a grounded answer with citations.
type Answerer interface {
	Answer(ctx context.Context, question string, topK int) (domain.RAGResponse, error)
}

// MessageClassifier tags a message with categories, priority, and sentiment.
type MessageClassifier interface {
	Classify(msg domain.Message) domain.Classification
}

// ThreatAnalyzer scores a message for threat indicators.
type ThreatAnalyzer interface {
	Analyze(msg domain.Message) domain.ThreatAnalysis
}

// Sink persists execution records and elevated threat analyses. Writes are
// best-effort from the orchestrator's point of view.
type Sink interface {
	SaveExecution(ctx context.Context, exec domain.WorkflowExecution) error
	SaveThreatAnalyses(ctx context.Context, analyses []domain.ThreatAnalysis) error
}

// Config tunes one orchestrator instance. Zero values take the defaults.
type Config struct {
	ThreatTopN  int
	StepTimeout time.Duration
}

// Orchestrator runs the fixed pipeline intent -> search -> {classify, rag} ->
// threat -> persist and retains every execution in its registry.
type Orchestrator struct {
	log        *logger.Logger
	search     Searcher
	classifier MessageClassifier
	detector   ThreatAnalyzer
	answerer   Answerer
	sink       Sink
	registry   *Registry
	cfg        Config
}

// NewOrchestrator wires the pipeline. The answerer and sink may be nil; the
// corresponding steps degrade instead of failing the construction.
func NewOrchestrator(log *logger.Logger, search Searcher, classifier MessageClassifier, detector ThreatAnalyzer, answerer Answerer, sink Sink, cfg Config) (*Orchestrator, error) {
	if log == nil {
		return nil, fmt.Errorf("workflow: logger is nil")
	}
	if search == nil {
		return nil, fmt.Errorf("workflow: searcher is nil")
	}
	if classifier == nil {
		return nil, fmt.Errorf("workflow: classifier is nil")
	}
	if detector == nil {
		return nil, fmt.Errorf("workflow: threat analyzer is nil")
	}
	if cfg.ThreatTopN <= 0 {
		cfg.ThreatTopN = DefaultThreatTopN
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = DefaultStepTimeout
	}
	return &Orchestrator{
		log:        log.With("service", "workflow"),
		search:     search,
		classifier: classifier,
		detector:   detector,
		answerer:   answerer,
		sink:       sink,
		registry:   NewRegistry(),
		cfg:        cfg,
	}, nil
}

// Execute runs one full pipeline pass for the query. It always returns a
// structured execution record; a failed search yields a record with status
// ERROR and the partial step history intact rather than a bare error.
func (o *Orchestrator) Execute(ctx context.Context, query string, topK int, enableRAG bool) (domain.WorkflowExecution, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.WorkflowExecution{}, fmt.Errorf("workflow: query is empty")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	exec := domain.WorkflowExecution{
		ID:        o.registry.NextID(),
		Query:     query,
		Status:    domain.WorkflowRunning,
		StartedAt: time.Now().UTC(),
	}
	o.registry.Put(exec)
	log := o.log.With("execution_id", exec.ID)
	log.Info("workflow started", "query", query, "top_k", topK, "rag", enableRAG)

	intentStep, intent := o.stepIntent(query)
	exec.Intent = intent
	exec.Steps = append(exec.Steps, intentStep)

	enhanced := EnhanceQuery(query, intent)
	searchStep, results := o.stepSearch(ctx, enhanced, topK)
	exec.Steps = append(exec.Steps, searchStep)
	if searchStep.Status == domain.StepFailed {
		return o.finishError(ctx, exec, searchStep.Error, log), nil
	}
	exec.Results = results

	classifyStep, ragStep, rag := o.stepClassifyAndAnswer(ctx, query, topK, enableRAG, results)
	exec.Steps = append(exec.Steps, classifyStep, ragStep)
	if ragStep.Status == domain.StepCompleted {
		exec.Answer = rag.Answer
		exec.Citations = rag.Citations
	}

	threatStep, threats := o.stepThreats(results)
	exec.Steps = append(exec.Steps, threatStep)
	exec.Threats = threats

	exec.Status = domain.WorkflowCompleted
	now := time.Now().UTC()
	exec.CompletedAt = &now

	exec.Steps = append(exec.Steps, o.stepPersist(ctx, exec, threats))
	o.registry.Put(exec)
	recordExecutionMetrics(exec)
	log.Info("workflow completed",
		"steps", len(exec.Steps),
		"results", len(results),
		"duration_ms", time.Since(exec.StartedAt).Milliseconds())
	return exec, nil
}

func (o *Orchestrator) finishError(ctx context.Context, exec domain.WorkflowExecution, stepErr string, log *logger.Logger) domain.WorkflowExecution {
	exec.Status = domain.WorkflowError
	exec.Error = stepErr
	now := time.Now().UTC()
	exec.CompletedAt = &now

	exec.Steps = append(exec.Steps, o.stepPersist(ctx, exec, nil))
	o.registry.Put(exec)
	recordExecutionMetrics(exec)
	log.Error("workflow failed", "error", stepErr)
	return exec
}

func recordExecutionMetrics(exec domain.WorkflowExecution) {
	m := observability.Current()
	for _, s := range exec.Steps {
		m.ObserveWorkflowStep(s.Name, string(s.Status), s.FinishedAt.Sub(s.StartedAt))
	}
	m.IncExecution(string(exec.Status))
	for _, t := range exec.Threats {
		m.IncThreatLevel(string(t.ThreatLevel))
	}
}

// GetExecution looks up a retained execution by ID.
func (o *Orchestrator) GetExecution(id string) (domain.WorkflowExecution, bool) {
	return o.registry.Get(id)
}

// ListRecentExecutions returns up to limit executions, newest first.
func (o *Orchestrator) ListRecentExecutions(limit int) []domain.WorkflowExecution {
	return o.registry.ListRecent(limit)
}
