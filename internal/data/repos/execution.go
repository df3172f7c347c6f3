package repos

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
)

type ExecutionRepo interface {
	Upsert(ctx context.Context, rec *domain.ExecutionRecord) error
	GetByID(ctx context.Context, executionID string) (*domain.ExecutionRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.ExecutionRecord, error)
}

type executionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExecutionRepo(db *gorm.DB, baseLog *logger.Logger) ExecutionRepo {
	return &executionRepo{
		db:  db,
		log: baseLog.With("repo", "ExecutionRepo"),
	}
}

// Upsert writes the record keyed by execution_id so re-persisting the same
// execution overwrites instead of duplicating.
func (r *executionRepo) Upsert(ctx context.Context, rec *domain.ExecutionRecord) error {
	if rec == nil || strings.TrimSpace(rec.ExecutionID) == "" {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "execution_id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
}

func (r *executionRepo) GetByID(ctx context.Context, executionID string) (*domain.ExecutionRecord, error) {
	if strings.TrimSpace(executionID) == "" {
		return nil, nil
	}
	var rec domain.ExecutionRecord
	err := r.db.WithContext(ctx).
		Where("execution_id = ?", executionID).
		Limit(1).
		Find(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.ExecutionID == "" {
		return nil, nil
	}
	return &rec, nil
}

func (r *executionRepo) ListRecent(ctx context.Context, limit int) ([]*domain.ExecutionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []*domain.ExecutionRecord
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
