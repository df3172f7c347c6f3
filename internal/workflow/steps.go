package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mailsage/mailsage-backend/internal/domain"
)

// Step names as they appear in execution traces.
const (
	StepIntent   = "intent"
	StepSearch   = "search"
	StepClassify = "classify"
	StepRag      = "rag"
	StepThreat   = "threat"
	StepPersist  = "persist"
)

func newStep(name string) domain.WorkflowStep {
	return domain.WorkflowStep{Name: name, StartedAt: time.Now().UTC()}
}

func completeStep(step domain.WorkflowStep, result domain.StepResult) domain.WorkflowStep {
	step.Status = domain.StepCompleted
	step.Result = result
	step.FinishedAt = time.Now().UTC()
	return step
}

func failStep(step domain.WorkflowStep, err error) domain.WorkflowStep {
	step.Status = domain.StepFailed
	step.Error = err.Error()
	step.FinishedAt = time.Now().UTC()
	return step
}

func skipStep(step domain.WorkflowStep, result domain.StepResult) domain.WorkflowStep {
	step.Status = domain.StepSkipped
	step.Result = result
	step.FinishedAt = time.Now().UTC()
	return step
}

func (o *Orchestrator) stepIntent(query string) (domain.WorkflowStep, domain.Intent) {
	step := newStep(StepIntent)
	intent := DetectIntent(query)
	return completeStep(step, domain.IntentStepResult{Intent: intent}), intent
}

func (o *Orchestrator) stepSearch(ctx context.Context, query string, topK int) (domain.WorkflowStep, []domain.SearchResult) {
	step := newStep(StepSearch)

	ctx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
	defer cancel()

	results, err := o.search.Search(ctx, query, topK)
	if err != nil {
		return failStep(step, fmt.Errorf("search: %w", err)), nil
	}
	return completeStep(step, domain.SearchStepResult{Query: query, Results: results}), results
}

// stepClassifyAndAnswer runs classification and answer generation over the
// same search results in parallel. The branches are independent: each records
// its own status and neither can cancel the other.
func (o *Orchestrator) stepClassifyAndAnswer(ctx context.Context, query string, topK int, enableRAG bool, results []domain.SearchResult) (domain.WorkflowStep, domain.WorkflowStep, domain.RAGResponse) {
	var (
		wg           sync.WaitGroup
		classifyStep domain.WorkflowStep
		ragStep      domain.WorkflowStep
		rag          domain.RAGResponse
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		classifyStep = o.stepClassification(results)
	}()
	go func() {
		defer wg.Done()
		ragStep, rag = o.stepAnswer(ctx, query, topK, enableRAG)
	}()
	wg.Wait()

	return classifyStep, ragStep, rag
}

func (o *Orchestrator) stepClassification(results []domain.SearchResult) domain.WorkflowStep {
	step := newStep(StepClassify)

	classifications := make([]domain.Classification, 0, len(results))
	for _, r := range results {
		classifications = append(classifications, o.classifier.Classify(resultMessage(r)))
	}
	return completeStep(step, domain.ClassifyStepResult{Classifications: classifications})
}

func (o *Orchestrator) stepAnswer(ctx context.Context, query string, topK int, enableRAG bool) (domain.WorkflowStep, domain.RAGResponse) {
	step := newStep(StepRag)
	if !enableRAG {
		return skipStep(step, domain.RagStepResult{}), domain.RAGResponse{}
	}
	if o.answerer == nil {
		return skipStep(step, domain.RagStepResult{}), domain.RAGResponse{}
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
	defer cancel()

	resp, err := o.answerer.Answer(ctx, query, topK)
	if err != nil {
		return failStep(step, fmt.Errorf("rag: %w", err)), domain.RAGResponse{}
	}
	return completeStep(step, domain.RagStepResult{Answer: resp.Answer, Citations: resp.Citations}), resp
}

func (o *Orchestrator) stepThreats(results []domain.SearchResult) (domain.WorkflowStep, []domain.ThreatAnalysis) {
	step := newStep(StepThreat)

	topN := o.cfg.ThreatTopN
	if topN > len(results) {
		topN = len(results)
	}
	analyses := make([]domain.ThreatAnalysis, 0, topN)
	for _, r := range results[:topN] {
		analyses = append(analyses, o.detector.Analyze(resultMessage(r)))
	}
	return completeStep(step, domain.ThreatStepResult{Analyses: analyses}), analyses
}

// stepPersist writes the execution record and any elevated threat analyses.
// Failures are recorded on the step and logged, but never change the
// execution's final status.
func (o *Orchestrator) stepPersist(ctx context.Context, exec domain.WorkflowExecution, threats []domain.ThreatAnalysis) domain.WorkflowStep {
	step := newStep(StepPersist)
	if o.sink == nil {
		return skipStep(step, domain.PersistStepResult{Persisted: false, Detail: "no sink configured"})
	}

	if err := o.sink.SaveExecution(ctx, exec); err != nil {
		o.log.Warn("execution persistence failed", "execution_id", exec.ID, "error", err)
		return failStep(step, fmt.Errorf("persist execution: %w", err))
	}

	elevated := make([]domain.ThreatAnalysis, 0, len(threats))
	for _, t := range threats {
		if t.ThreatLevel == domain.ThreatLevelWarning || t.ThreatLevel == domain.ThreatLevelCritical {
			elevated = append(elevated, t)
		}
	}
	if len(elevated) > 0 {
		if err := o.sink.SaveThreatAnalyses(ctx, elevated); err != nil {
			o.log.Warn("threat persistence failed", "execution_id", exec.ID, "error", err)
			return failStep(step, fmt.Errorf("persist threats: %w", err))
		}
	}
	return completeStep(step, domain.PersistStepResult{
		Persisted: true,
		Detail:    fmt.Sprintf("execution and %d threat analyses", len(elevated)),
	})
}

// resultMessage rebuilds a lightweight message from a search result so the
// classifier and threat detector can run over retrieved snippets.
func resultMessage(r domain.SearchResult) domain.Message {
	return domain.Message{
		ID:      r.ID,
		Sender:  r.Sender,
		Subject: r.Subject,
		Body:    r.Snippet,
		Date:    r.Date,
	}
}
