package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
)

// PersistenceSink adapts the repos to the orchestrator's sink contract.
type PersistenceSink struct {
	log        *logger.Logger
	executions ExecutionRepo
	threats    ThreatRepo
}

func NewPersistenceSink(log *logger.Logger, executions ExecutionRepo, threats ThreatRepo) (*PersistenceSink, error) {
	if executions == nil || threats == nil {
		return nil, fmt.Errorf("persistence sink missing repos")
	}
	return &PersistenceSink{
		log:        log.With("service", "PersistenceSink"),
		executions: executions,
		threats:    threats,
	}, nil
}

func (s *PersistenceSink) SaveExecution(ctx context.Context, exec domain.WorkflowExecution) error {
	payload, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("marshal execution %s: %w", exec.ID, err)
	}
	var durationMS int64
	if exec.CompletedAt != nil {
		durationMS = exec.CompletedAt.Sub(exec.StartedAt).Milliseconds()
	}
	return s.executions.Upsert(ctx, &domain.ExecutionRecord{
		ExecutionID: exec.ID,
		Query:       exec.Query,
		Status:      string(exec.Status),
		Intent:      string(exec.Intent),
		Error:       exec.Error,
		Payload:     datatypes.JSON(payload),
		StartedAt:   exec.StartedAt,
		CompletedAt: exec.CompletedAt,
		DurationMS:  durationMS,
	})
}

func (s *PersistenceSink) SaveThreatAnalyses(ctx context.Context, analyses []domain.ThreatAnalysis) error {
	recs := make([]*domain.ThreatRecord, 0, len(analyses))
	for _, a := range analyses {
		indicators, err := json.Marshal(a.Indicators)
		if err != nil {
			return fmt.Errorf("marshal indicators for %s: %w", a.MessageID, err)
		}
		analyzedAt := a.Timestamp
		if analyzedAt.IsZero() {
			analyzedAt = time.Now().UTC()
		}
		recs = append(recs, &domain.ThreatRecord{
			MessageID:      a.MessageID,
			ThreatScore:    a.ThreatScore,
			ThreatLevel:    string(a.ThreatLevel),
			Indicators:     datatypes.JSON(indicators),
			Recommendation: a.Recommendation,
			AnalyzedAt:     analyzedAt,
		})
	}
	return s.threats.Upsert(ctx, recs)
}
