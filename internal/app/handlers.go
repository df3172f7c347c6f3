package app

import (
	httpH "github.com/mailsage/mailsage-backend/internal/http/handlers"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
)

type Handlers struct {
	Index    *httpH.IndexHandler
	Search   *httpH.SearchHandler
	Answer   *httpH.AnswerHandler
	Classify *httpH.ClassifyHandler
	Threat   *httpH.ThreatHandler
	Workflow *httpH.WorkflowHandler
	Health   *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Index:    httpH.NewIndexHandler(services.Index),
		Search:   httpH.NewSearchHandler(services.Index),
		Answer:   httpH.NewAnswerHandler(services.RAG),
		Classify: httpH.NewClassifyHandler(services.Classifier, services.Threads),
		Threat:   httpH.NewThreatHandler(services.Detector),
		Workflow: httpH.NewWorkflowHandler(services.Dispatcher, services.Orchestrator),
		Health:   httpH.NewHealthHandler(),
	}
}
