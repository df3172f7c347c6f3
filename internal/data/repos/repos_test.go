package repos

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.ExecutionRecord{}, &domain.ThreatRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestExecutionUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewExecutionRepo(testDB(t), testLogger(t))

	rec := &domain.ExecutionRecord{
		ExecutionID: "exec_1",
		Query:       "budget emails",
		Status:      string(domain.WorkflowRunning),
		StartedAt:   time.Now().UTC(),
	}
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	rec.Status = string(domain.WorkflowCompleted)
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.GetByID(ctx, "exec_1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatalf("record not found after upsert")
	}
	if got.Status != string(domain.WorkflowCompleted) {
		t.Fatalf("status: want=%s got=%s", domain.WorkflowCompleted, got.Status)
	}

	recent, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("upsert duplicated rows: want=1 got=%d", len(recent))
	}
}

func TestExecutionGetByIDNotFound(t *testing.T) {
	repo := NewExecutionRepo(testDB(t), testLogger(t))
	got, err := repo.GetByID(context.Background(), "exec_999")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("want nil for missing record, got %+v", got)
	}
}

func TestExecutionListRecentOrderedByStart(t *testing.T) {
	ctx := context.Background()
	repo := NewExecutionRepo(testDB(t), testLogger(t))

	base := time.Now().UTC()
	for i, id := range []string{"exec_1", "exec_2", "exec_3"} {
		rec := &domain.ExecutionRecord{
			ExecutionID: id,
			Status:      string(domain.WorkflowCompleted),
			StartedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Upsert(ctx, rec); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	recent, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent: want=2 got=%d", len(recent))
	}
	if recent[0].ExecutionID != "exec_3" || recent[1].ExecutionID != "exec_2" {
		t.Fatalf("order: want exec_3,exec_2 got %s,%s", recent[0].ExecutionID, recent[1].ExecutionID)
	}
}

func TestThreatUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewThreatRepo(testDB(t), testLogger(t))

	rec := &domain.ThreatRecord{
		MessageID:   "m-1",
		ThreatScore: 0.5,
		ThreatLevel: string(domain.ThreatLevelWarning),
		AnalyzedAt:  time.Now().UTC(),
	}
	if err := repo.Upsert(ctx, []*domain.ThreatRecord{rec}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	rec.ThreatScore = 0.9
	rec.ThreatLevel = string(domain.ThreatLevelCritical)
	if err := repo.Upsert(ctx, []*domain.ThreatRecord{rec}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.GetByMessageID(ctx, "m-1")
	if err != nil {
		t.Fatalf("GetByMessageID: %v", err)
	}
	if got == nil {
		t.Fatalf("record not found after upsert")
	}
	if got.ThreatScore != 0.9 || got.ThreatLevel != string(domain.ThreatLevelCritical) {
		t.Fatalf("record not overwritten: got score=%v level=%s", got.ThreatScore, got.ThreatLevel)
	}
}

func TestThreatListByLevelFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewThreatRepo(testDB(t), testLogger(t))

	now := time.Now().UTC()
	recs := []*domain.ThreatRecord{
		{MessageID: "m-1", ThreatLevel: string(domain.ThreatLevelCritical), AnalyzedAt: now},
		{MessageID: "m-2", ThreatLevel: string(domain.ThreatLevelWarning), AnalyzedAt: now.Add(time.Second)},
		{MessageID: "m-3", ThreatLevel: string(domain.ThreatLevelCritical), AnalyzedAt: now.Add(2 * time.Second)},
	}
	if err := repo.Upsert(ctx, recs); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	critical, err := repo.ListByLevel(ctx, string(domain.ThreatLevelCritical), 10)
	if err != nil {
		t.Fatalf("ListByLevel: %v", err)
	}
	if len(critical) != 2 {
		t.Fatalf("critical: want=2 got=%d", len(critical))
	}
	if critical[0].MessageID != "m-3" {
		t.Fatalf("order: want m-3 first, got %s", critical[0].MessageID)
	}

	all, err := repo.ListByLevel(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListByLevel all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all: want=3 got=%d", len(all))
	}
}

func TestPersistenceSinkRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	log := testLogger(t)
	execRepo := NewExecutionRepo(db, log)
	threatRepo := NewThreatRepo(db, log)

	sink, err := NewPersistenceSink(log, execRepo, threatRepo)
	if err != nil {
		t.Fatalf("NewPersistenceSink: %v", err)
	}

	now := time.Now().UTC()
	completed := now.Add(1200 * time.Millisecond)
	exec := domain.WorkflowExecution{
		ID:          "exec_7",
		Query:       "suspicious emails",
		Status:      domain.WorkflowCompleted,
		Intent:      domain.IntentSearch,
		StartedAt:   now,
		CompletedAt: &completed,
	}
	if err := sink.SaveExecution(ctx, exec); err != nil {
		t.Fatalf("SaveExecution: %v", err)
	}

	stored, err := execRepo.GetByID(ctx, "exec_7")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored == nil {
		t.Fatalf("execution not persisted")
	}
	var decoded domain.WorkflowExecution
	if err := json.Unmarshal(stored.Payload, &decoded); err != nil {
		t.Fatalf("payload decode: %v", err)
	}
	if decoded.ID != exec.ID || decoded.Query != exec.Query {
		t.Fatalf("payload round trip: want=%+v got=%+v", exec, decoded)
	}
	if stored.DurationMS != 1200 {
		t.Fatalf("duration_ms: want=1200 got=%d", stored.DurationMS)
	}

	analyses := []domain.ThreatAnalysis{{
		MessageID:   "m-bad",
		ThreatScore: 0.9,
		ThreatLevel: domain.ThreatLevelCritical,
		Indicators: []domain.ThreatIndicator{{
			Type:     domain.IndicatorTyposquatting,
			Severity: domain.SeverityMedium,
		}},
		Timestamp: now,
	}}
	if err := sink.SaveThreatAnalyses(ctx, analyses); err != nil {
		t.Fatalf("SaveThreatAnalyses: %v", err)
	}

	rec, err := threatRepo.GetByMessageID(ctx, "m-bad")
	if err != nil {
		t.Fatalf("GetByMessageID: %v", err)
	}
	if rec == nil {
		t.Fatalf("threat not persisted")
	}
	var indicators []domain.ThreatIndicator
	if err := json.Unmarshal(rec.Indicators, &indicators); err != nil {
		t.Fatalf("indicators decode: %v", err)
	}
	if len(indicators) != 1 || indicators[0].Type != domain.IndicatorTyposquatting {
		t.Fatalf("indicators round trip: got %+v", indicators)
	}
}
