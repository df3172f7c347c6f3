package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/http/response"
)

// WorkflowExecutor runs one pipeline execution, locally or via Temporal.
type WorkflowExecutor interface {
	Execute(ctx context.Context, query string, topK int, enableRAG bool) (domain.WorkflowExecution, error)
}

// ExecutionReader looks up past executions from the in-process registry.
type ExecutionReader interface {
	GetExecution(id string) (domain.WorkflowExecution, bool)
	ListRecentExecutions(limit int) []domain.WorkflowExecution
}

type WorkflowHandler struct {
	executor WorkflowExecutor
	reader   ExecutionReader
}

func NewWorkflowHandler(executor WorkflowExecutor, reader ExecutionReader) *WorkflowHandler {
	return &WorkflowHandler{executor: executor, reader: reader}
}

type executeRequest struct {
	Query     string `json:"query"`
	TopK      int    `json:"top_k"`
	EnableRAG *bool  `json:"enable_rag"`
}

// POST /api/workflow/execute
func (h *WorkflowHandler) Execute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		response.RespondError(c, http.StatusBadRequest, "empty_query", errors.New("query is required"))
		return
	}
	enableRAG := true
	if req.EnableRAG != nil {
		enableRAG = *req.EnableRAG
	}
	exec, err := h.executor.Execute(c.Request.Context(), req.Query, req.TopK, enableRAG)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "execute_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"execution": exec})
}

// GET /api/workflow/executions/:id
func (h *WorkflowHandler) GetExecution(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	exec, ok := h.reader.GetExecution(id)
	if !ok {
		response.RespondError(c, http.StatusNotFound, "execution_not_found", errors.New("no execution with id "+id))
		return
	}
	response.RespondOK(c, gin.H{"execution": exec})
}

// GET /api/workflow/executions
func (h *WorkflowHandler) ListExecutions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	execs := h.reader.ListRecentExecutions(limit)
	response.RespondOK(c, gin.H{"executions": execs, "count": len(execs)})
}
