package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mailsage/mailsage-backend/internal/classify"
	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
	"github.com/mailsage/mailsage-backend/internal/threat"
)

type fakeSearcher struct {
	results []domain.SearchResult
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ int) ([]domain.SearchResult, error) {
	return f.results, f.err
}

type fakeAnswerer struct {
	resp domain.RAGResponse
	err  error
}

func (f *fakeAnswerer) Answer(_ context.Context, _ string, _ int) (domain.RAGResponse, error) {
	return f.resp, f.err
}

type fakeSink struct {
	executions []domain.WorkflowExecution
	threats    []domain.ThreatAnalysis
	execErr    error
	threatErr  error
}

func (f *fakeSink) SaveExecution(_ context.Context, exec domain.WorkflowExecution) error {
	if f.execErr != nil {
		return f.execErr
	}
	f.executions = append(f.executions, exec)
	return nil
}

func (f *fakeSink) SaveThreatAnalyses(_ context.Context, analyses []domain.ThreatAnalysis) error {
	if f.threatErr != nil {
		return f.threatErr
	}
	f.threats = append(f.threats, analyses...)
	return nil
}

func plainResults() []domain.SearchResult {
	return []domain.SearchResult{
		{ID: "m-1", Sender: "alice@example.com", Subject: "Q3 budget review", Date: "2026-02-10", Score: 0.91, Snippet: "the budget draft is attached"},
		{ID: "m-2", Sender: "bob@example.com", Subject: "Offsite planning", Date: "2026-02-12", Score: 0.74, Snippet: "offsite is set for March"},
	}
}

func newTestOrchestrator(t *testing.T, search Searcher, answerer Answerer, sink Sink, cfg Config) *Orchestrator {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	detector, err := threat.NewDetector(log, threat.DefaultRules())
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	orch, err := NewOrchestrator(log, search, classify.NewClassifier(), detector, answerer, sink, cfg)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return orch
}

func stepByName(t *testing.T, exec domain.WorkflowExecution, name string) domain.WorkflowStep {
	t.Helper()
	for _, s := range exec.Steps {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("step %q not found in %v", name, stepNames(exec))
	return domain.WorkflowStep{}
}

func stepNames(exec domain.WorkflowExecution) []string {
	names := make([]string, 0, len(exec.Steps))
	for _, s := range exec.Steps {
		names = append(names, s.Name)
	}
	return names
}

func TestExecuteHappyPath(t *testing.T) {
	sink := &fakeSink{}
	answerer := &fakeAnswerer{resp: domain.RAGResponse{
		Answer:    "The budget draft was attached.",
		Citations: []domain.Citation{{ID: "m-1", Subject: "Q3 budget review"}},
	}}
	orch := newTestOrchestrator(t, &fakeSearcher{results: plainResults()}, answerer, sink, Config{})

	exec, err := orch.Execute(context.Background(), "what happened with the budget?", 5, true)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if exec.Status != domain.WorkflowCompleted {
		t.Fatalf("status: want=%s got=%s", domain.WorkflowCompleted, exec.Status)
	}

	wantOrder := []string{StepIntent, StepSearch, StepClassify, StepRag, StepThreat, StepPersist}
	got := stepNames(exec)
	if len(got) != len(wantOrder) {
		t.Fatalf("steps: want=%v got=%v", wantOrder, got)
	}
	for i, name := range wantOrder {
		if got[i] != name {
			t.Fatalf("step %d: want=%s got=%s", i, name, got[i])
		}
		if exec.Steps[i].Status != domain.StepCompleted {
			t.Fatalf("step %s: want=%s got=%s", name, domain.StepCompleted, exec.Steps[i].Status)
		}
	}

	if exec.Answer != answerer.resp.Answer {
		t.Fatalf("answer: want=%q got=%q", answerer.resp.Answer, exec.Answer)
	}
	if len(exec.Results) != 2 {
		t.Fatalf("results: want=2 got=%d", len(exec.Results))
	}
	if len(exec.Threats) != 2 {
		t.Fatalf("threats: want=2 got=%d", len(exec.Threats))
	}
	if exec.CompletedAt == nil {
		t.Fatalf("completed_at not set")
	}
	if len(sink.executions) != 1 || sink.executions[0].ID != exec.ID {
		t.Fatalf("sink executions: want one record for %s, got %d", exec.ID, len(sink.executions))
	}
}

func TestExecuteSearchFailureIsFatal(t *testing.T) {
	orch := newTestOrchestrator(t, &fakeSearcher{err: errors.New("index offline")}, nil, nil, Config{})

	exec, err := orch.Execute(context.Background(), "anything", 5, true)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if exec.Status != domain.WorkflowError {
		t.Fatalf("status: want=%s got=%s", domain.WorkflowError, exec.Status)
	}
	if exec.Error == "" {
		t.Fatalf("error not recorded")
	}
	if stepByName(t, exec, StepSearch).Status != domain.StepFailed {
		t.Fatalf("search step not marked failed")
	}
	for _, name := range []string{StepClassify, StepRag, StepThreat} {
		for _, s := range exec.Steps {
			if s.Name == name && s.Status == domain.StepCompleted {
				t.Fatalf("step %s completed after fatal search failure", name)
			}
		}
	}

	stored, ok := orch.GetExecution(exec.ID)
	if !ok {
		t.Fatalf("failed execution not retained")
	}
	if stored.Status != domain.WorkflowError {
		t.Fatalf("retained status: want=%s got=%s", domain.WorkflowError, stored.Status)
	}
}

func TestExecuteRagFailureDegradesToSearchResults(t *testing.T) {
	orch := newTestOrchestrator(t, &fakeSearcher{results: plainResults()}, &fakeAnswerer{err: errors.New("generator down")}, nil, Config{})

	exec, err := orch.Execute(context.Background(), "what happened?", 5, true)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if exec.Status != domain.WorkflowCompleted {
		t.Fatalf("status: want=%s got=%s", domain.WorkflowCompleted, exec.Status)
	}
	if stepByName(t, exec, StepRag).Status != domain.StepFailed {
		t.Fatalf("rag step not marked failed")
	}
	if stepByName(t, exec, StepClassify).Status != domain.StepCompleted {
		t.Fatalf("classify step should complete independently of the rag branch")
	}
	if exec.Answer != "" {
		t.Fatalf("answer should be empty after rag failure, got %q", exec.Answer)
	}
	if len(exec.Results) != 2 {
		t.Fatalf("results: want=2 got=%d", len(exec.Results))
	}
}

func TestExecuteRagDisabledIsSkipped(t *testing.T) {
	orch := newTestOrchestrator(t, &fakeSearcher{results: plainResults()}, &fakeAnswerer{resp: domain.RAGResponse{Answer: "unused"}}, nil, Config{})

	exec, err := orch.Execute(context.Background(), "budget emails", 5, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if exec.Status != domain.WorkflowCompleted {
		t.Fatalf("status: want=%s got=%s", domain.WorkflowCompleted, exec.Status)
	}
	if stepByName(t, exec, StepRag).Status != domain.StepSkipped {
		t.Fatalf("rag step: want=%s got=%s", domain.StepSkipped, stepByName(t, exec, StepRag).Status)
	}
	if exec.Answer != "" {
		t.Fatalf("answer should be empty when rag is disabled")
	}
}

func TestExecutePersistFailureKeepsCompleted(t *testing.T) {
	sink := &fakeSink{execErr: errors.New("db unavailable")}
	orch := newTestOrchestrator(t, &fakeSearcher{results: plainResults()}, nil, sink, Config{})

	exec, err := orch.Execute(context.Background(), "budget emails", 5, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if exec.Status != domain.WorkflowCompleted {
		t.Fatalf("persist failure flipped status: want=%s got=%s", domain.WorkflowCompleted, exec.Status)
	}
	if stepByName(t, exec, StepPersist).Status != domain.StepFailed {
		t.Fatalf("persist step not marked failed")
	}
}

func TestExecuteThreatTopNLimitsAnalyses(t *testing.T) {
	results := append(plainResults(), domain.SearchResult{ID: "m-3", Sender: "carol@example.com", Subject: "Lunch", Snippet: "lunch at noon"})
	orch := newTestOrchestrator(t, &fakeSearcher{results: results}, nil, nil, Config{ThreatTopN: 1})

	exec, err := orch.Execute(context.Background(), "budget emails", 5, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(exec.Threats) != 1 {
		t.Fatalf("threats: want=1 got=%d", len(exec.Threats))
	}
	if exec.Threats[0].MessageID != "m-1" {
		t.Fatalf("threat analysis should cover the top result, got %s", exec.Threats[0].MessageID)
	}
}

func TestExecutePersistsElevatedThreats(t *testing.T) {
	sink := &fakeSink{}
	results := []domain.SearchResult{{
		ID:      "m-bad",
		Sender:  "fake@paypa1.com",
		Subject: "URGENT: Verify your account immediately",
		Snippet: "Click https://bit.ly/verify-now",
	}}
	orch := newTestOrchestrator(t, &fakeSearcher{results: results}, nil, sink, Config{})

	exec, err := orch.Execute(context.Background(), "suspicious emails", 5, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if exec.Status != domain.WorkflowCompleted {
		t.Fatalf("status: want=%s got=%s", domain.WorkflowCompleted, exec.Status)
	}
	if len(sink.threats) != 1 {
		t.Fatalf("elevated threats persisted: want=1 got=%d", len(sink.threats))
	}
	if sink.threats[0].ThreatLevel != domain.ThreatLevelCritical {
		t.Fatalf("threat level: want=%s got=%s", domain.ThreatLevelCritical, sink.threats[0].ThreatLevel)
	}
}

func TestExecuteIDsMonotonic(t *testing.T) {
	orch := newTestOrchestrator(t, &fakeSearcher{results: plainResults()}, nil, nil, Config{})

	first, err := orch.Execute(context.Background(), "first query", 5, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	second, err := orch.Execute(context.Background(), "second query", 5, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.ID != "exec_1" || second.ID != "exec_2" {
		t.Fatalf("ids: want=exec_1,exec_2 got=%s,%s", first.ID, second.ID)
	}
}

func TestListRecentExecutionsNewestFirst(t *testing.T) {
	orch := newTestOrchestrator(t, &fakeSearcher{results: plainResults()}, nil, nil, Config{})

	for _, q := range []string{"first", "second", "third"} {
		if _, err := orch.Execute(context.Background(), q, 5, false); err != nil {
			t.Fatalf("Execute(%q): %v", q, err)
		}
	}

	recent := orch.ListRecentExecutions(2)
	if len(recent) != 2 {
		t.Fatalf("recent: want=2 got=%d", len(recent))
	}
	if recent[0].Query != "third" || recent[1].Query != "second" {
		t.Fatalf("order: want third,second got %s,%s", recent[0].Query, recent[1].Query)
	}
}

func TestListRecentBreaksTimestampTiesNumerically(t *testing.T) {
	reg := NewRegistry()
	started := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	for _, id := range []string{"exec_9", "exec_10", "exec_2"} {
		reg.Put(domain.WorkflowExecution{ID: id, StartedAt: started})
	}

	recent := reg.ListRecent(3)
	if len(recent) != 3 {
		t.Fatalf("recent: want=3 got=%d", len(recent))
	}
	want := []string{"exec_10", "exec_9", "exec_2"}
	for i, id := range want {
		if recent[i].ID != id {
			t.Fatalf("order[%d]: want=%s got=%s", i, id, recent[i].ID)
		}
	}
}

func TestExecuteEmptyQueryRejected(t *testing.T) {
	orch := newTestOrchestrator(t, &fakeSearcher{}, nil, nil, Config{})
	if _, err := orch.Execute(context.Background(), "   ", 5, true); err == nil {
		t.Fatalf("want validation error for empty query")
	}
}

func TestGetExecutionNotFound(t *testing.T) {
	orch := newTestOrchestrator(t, &fakeSearcher{}, nil, nil, Config{})
	if _, ok := orch.GetExecution("exec_999"); ok {
		t.Fatalf("want not-found for unknown execution")
	}
}
