package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ExecutionRecord is the persisted form of a workflow execution. Payload
// holds the full execution JSON; the scalar columns exist for querying.
type ExecutionRecord struct {
	ExecutionID string         `gorm:"primaryKey;column:execution_id" json:"execution_id"`
	Query       string         `gorm:"column:query" json:"query"`
	Status      string         `gorm:"column:status;index" json:"status"`
	Intent      string         `gorm:"column:intent" json:"intent"`
	Error       string         `gorm:"column:error" json:"error,omitempty"`
	Payload     datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	StartedAt   time.Time      `gorm:"column:started_at;index" json:"started_at"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	DurationMS  int64          `gorm:"column:duration_ms" json:"duration_ms"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (ExecutionRecord) TableName() string { return "execution_record" }

// ThreatRecord is the persisted form of an elevated threat analysis, keyed
// by message so re-analysis overwrites rather than duplicates.
type ThreatRecord struct {
	MessageID      string         `gorm:"primaryKey;column:message_id" json:"message_id"`
	ThreatScore    float64        `gorm:"column:threat_score" json:"threat_score"`
	ThreatLevel    string         `gorm:"column:threat_level;index" json:"threat_level"`
	Indicators     datatypes.JSON `gorm:"column:indicators" json:"indicators,omitempty"`
	Recommendation string         `gorm:"column:recommendation" json:"recommendation"`
	AnalyzedAt     time.Time      `gorm:"column:analyzed_at" json:"analyzed_at"`
	CreatedAt      time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (ThreatRecord) TableName() string { return "threat_record" }
