package repos

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
)

type ThreatRepo interface {
	Upsert(ctx context.Context, recs []*domain.ThreatRecord) error
	GetByMessageID(ctx context.Context, messageID string) (*domain.ThreatRecord, error)
	ListByLevel(ctx context.Context, level string, limit int) ([]*domain.ThreatRecord, error)
}

type threatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThreatRepo(db *gorm.DB, baseLog *logger.Logger) ThreatRepo {
	return &threatRepo{
		db:  db,
		log: baseLog.With("repo", "ThreatRepo"),
	}
}

// Upsert writes analyses keyed by message_id; re-analyzing a message
// overwrites its prior record.
func (r *threatRepo) Upsert(ctx context.Context, recs []*domain.ThreatRecord) error {
	filtered := make([]*domain.ThreatRecord, 0, len(recs))
	for _, rec := range recs {
		if rec == nil || strings.TrimSpace(rec.MessageID) == "" {
			continue
		}
		filtered = append(filtered, rec)
	}
	if len(filtered) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			UpdateAll: true,
		}).
		Create(&filtered).Error
}

func (r *threatRepo) GetByMessageID(ctx context.Context, messageID string) (*domain.ThreatRecord, error) {
	if strings.TrimSpace(messageID) == "" {
		return nil, nil
	}
	var rec domain.ThreatRecord
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Limit(1).
		Find(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.MessageID == "" {
		return nil, nil
	}
	return &rec, nil
}

func (r *threatRepo) ListByLevel(ctx context.Context, level string, limit int) ([]*domain.ThreatRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Order("analyzed_at DESC").Limit(limit)
	if strings.TrimSpace(level) != "" {
		q = q.Where("threat_level = ?", level)
	}
	var out []*domain.ThreatRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
