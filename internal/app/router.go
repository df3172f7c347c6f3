package app

import (
	"github.com/gin-gonic/gin"

	httpapi "github.com/mailsage/mailsage-backend/internal/http"
	"github.com/mailsage/mailsage-backend/internal/observability"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, handlers Handlers) *gin.Engine {
	log.Info("Wiring router...")
	return httpapi.NewRouter(httpapi.RouterConfig{
		Log:     log,
		Metrics: observability.Current(),

		IndexHandler:    handlers.Index,
		SearchHandler:   handlers.Search,
		AnswerHandler:   handlers.Answer,
		ClassifyHandler: handlers.Classify,
		ThreatHandler:   handlers.Threat,
		WorkflowHandler: handlers.Workflow,
		HealthHandler:   handlers.Health,
	})
}
