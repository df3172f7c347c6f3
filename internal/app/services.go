package app

import (
	"fmt"

	"github.com/mailsage/mailsage-backend/internal/classify"
	"github.com/mailsage/mailsage-backend/internal/data/repos"
	"github.com/mailsage/mailsage-backend/internal/db"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
	"github.com/mailsage/mailsage-backend/internal/platform/vecstore"
	"github.com/mailsage/mailsage-backend/internal/rag"
	"github.com/mailsage/mailsage-backend/internal/semantic"
	"github.com/mailsage/mailsage-backend/internal/temporalx"
	"github.com/mailsage/mailsage-backend/internal/threat"
	"github.com/mailsage/mailsage-backend/internal/workflow"
)

type Services struct {
	Index        *semantic.Index
	Classifier   *classify.Classifier
	Threads      *classify.ThreadDetector
	Detector     *threat.Detector
	RAG          *rag.Engine
	Sink         *repos.PersistenceSink
	Orchestrator *workflow.Orchestrator
	Dispatcher   *temporalx.Dispatcher
	Worker       *temporalx.Runner
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, store *db.Store, vs vecstore.VectorStore) (Services, error) {
	log.Info("Wiring services...")

	index, err := semantic.NewIndex(log, clients.OpenAI, vs, clients.Cache, semantic.IndexConfig{
		Namespace:    cfg.IndexNamespace,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		BatchSize:    cfg.EmbedBatchSize,
		Concurrency:  cfg.EmbedWorkers,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init semantic index: %w", err)
	}

	classifier := classify.NewClassifier()
	threads := classify.NewThreadDetector()

	rules := threat.DefaultRules()
	if cfg.ThreatRules != "" {
		loaded, err := threat.LoadRules(cfg.ThreatRules)
		if err != nil {
			return Services{}, fmt.Errorf("load threat rules: %w", err)
		}
		rules = loaded
	}
	detector, err := threat.NewDetector(log, rules)
	if err != nil {
		return Services{}, fmt.Errorf("init threat detector: %w", err)
	}

	engine, err := rag.NewEngine(log, index, clients.OpenAI)
	if err != nil {
		return Services{}, fmt.Errorf("init rag engine: %w", err)
	}

	sink, err := repos.NewPersistenceSink(log,
		repos.NewExecutionRepo(store.DB(), log),
		repos.NewThreatRepo(store.DB(), log),
	)
	if err != nil {
		return Services{}, fmt.Errorf("init persistence sink: %w", err)
	}

	orch, err := workflow.NewOrchestrator(log, index, classifier, detector, engine, sink, workflow.Config{
		ThreatTopN:  cfg.ThreatTopN,
		StepTimeout: cfg.StepTimeout,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init orchestrator: %w", err)
	}

	dispatcher, err := temporalx.NewDispatcher(log, clients.Temporal, orch)
	if err != nil {
		return Services{}, fmt.Errorf("init dispatcher: %w", err)
	}

	var runner *temporalx.Runner
	if clients.Temporal != nil {
		runner, err = temporalx.NewRunner(log, clients.Temporal, orch)
		if err != nil {
			return Services{}, fmt.Errorf("init temporal worker: %w", err)
		}
	}

	return Services{
		Index:        index,
		Classifier:   classifier,
		Threads:      threads,
		Detector:     detector,
		RAG:          engine,
		Sink:         sink,
		Orchestrator: orch,
		Dispatcher:   dispatcher,
		Worker:       runner,
	}, nil
}
