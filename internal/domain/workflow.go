package domain

import "time"

// WorkflowStatus is the lifecycle state of one orchestrated execution.
type WorkflowStatus string

const (
	WorkflowPending   WorkflowStatus = "PENDING"
	WorkflowRunning   WorkflowStatus = "RUNNING"
	WorkflowCompleted WorkflowStatus = "COMPLETED"
	WorkflowError     WorkflowStatus = "ERROR"
)

// StepStatus is the outcome of a single workflow step.
type StepStatus string

const (
	StepCompleted StepStatus = "COMPLETED"
	StepFailed    StepStatus = "FAILED"
	StepSkipped   StepStatus = "SKIPPED"
)

// Intent is the coarse query intent recognized before routing.
type Intent string

const (
	IntentSearch         Intent = "search"
	IntentSummarization  Intent = "summarization"
	IntentAnalysis       Intent = "analysis"
	IntentSenderAnalysis Intent = "sender_analysis"
	IntentTemporalSearch Intent = "temporal_search"
)

// StepResult is implemented by the closed set of per-step payload types.
// Steps record exactly one of these in WorkflowStep.Result.
type StepResult interface {
	stepResult()
}

type IntentStepResult struct {
	Intent Intent `json:"intent"`
}

type SearchStepResult struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

type ClassifyStepResult struct {
	Classifications []Classification `json:"classifications"`
}

type RagStepResult struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

type ThreatStepResult struct {
	Analyses []ThreatAnalysis `json:"analyses"`
}

type PersistStepResult struct {
	Persisted bool   `json:"persisted"`
	Detail    string `json:"detail,omitempty"`
}

func (IntentStepResult) stepResult()   {}
func (SearchStepResult) stepResult()   {}
func (ClassifyStepResult) stepResult() {}
func (RagStepResult) stepResult()      {}
func (ThreatStepResult) stepResult()   {}
func (PersistStepResult) stepResult()  {}

// WorkflowStep is one append-only entry in an execution's step log.
type WorkflowStep struct {
	Name       string     `json:"name"`
	Status     StepStatus `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Error      string     `json:"error,omitempty"`
	Result     StepResult `json:"result,omitempty"`
}

// WorkflowExecution tracks a single run through the pipeline. Steps are
// appended in completion order and never mutated after the fact.
type WorkflowExecution struct {
	ID          string         `json:"execution_id"`
	Query       string         `json:"query"`
	Status      WorkflowStatus `json:"status"`
	Intent      Intent         `json:"intent,omitempty"`
	Steps       []WorkflowStep `json:"steps"`
	Results     []SearchResult `json:"results,omitempty"`
	Answer      string         `json:"answer,omitempty"`
	Citations   []Citation     `json:"citations,omitempty"`
	Threats     []ThreatAnalysis `json:"threats,omitempty"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}
