package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/mailsage/mailsage-backend/internal/http/handlers"
	httpMW "github.com/mailsage/mailsage-backend/internal/http/middleware"
	"github.com/mailsage/mailsage-backend/internal/observability"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	IndexHandler    *httpH.IndexHandler
	SearchHandler   *httpH.SearchHandler
	AnswerHandler   *httpH.AnswerHandler
	ClassifyHandler *httpH.ClassifyHandler
	ThreatHandler   *httpH.ThreatHandler
	WorkflowHandler *httpH.WorkflowHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Index
		if cfg.IndexHandler != nil {
			api.POST("/index", cfg.IndexHandler.IndexMessages)
			api.POST("/index/reset", cfg.IndexHandler.ResetIndex)
			api.GET("/index/stats", cfg.IndexHandler.IndexStats)
		}

		// Search
		if cfg.SearchHandler != nil {
			api.POST("/search", cfg.SearchHandler.Search)
		}

		// RAG answers
		if cfg.AnswerHandler != nil {
			api.POST("/answer", cfg.AnswerHandler.Answer)
		}

		// Classification
		if cfg.ClassifyHandler != nil {
			api.POST("/classify", cfg.ClassifyHandler.Classify)
		}

		// Threat analysis
		if cfg.ThreatHandler != nil {
			api.POST("/threats/analyze", cfg.ThreatHandler.Analyze)
		}

		// Workflow
		if cfg.WorkflowHandler != nil {
			api.POST("/workflow/execute", cfg.WorkflowHandler.Execute)
			api.GET("/workflow/executions", cfg.WorkflowHandler.ListExecutions)
			api.GET("/workflow/executions/:id", cfg.WorkflowHandler.GetExecution)
		}
	}

	return r
}
