package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/http/response"
	"github.com/mailsage/mailsage-backend/internal/semantic"
)

// IndexService is the slice of the semantic index the HTTP layer needs.
type IndexService interface {
	IndexMessages(ctx context.Context, messages []domain.Message) (int, semantic.IndexStats, error)
	Reset(ctx context.Context) error
	Stats(ctx context.Context) (semantic.CollectionStats, error)
}

type IndexHandler struct {
	index IndexService
}

func NewIndexHandler(index IndexService) *IndexHandler {
	return &IndexHandler{index: index}
}

type indexRequest struct {
	Messages []domain.Message `json:"messages"`
}

// POST /api/index
func (h *IndexHandler) IndexMessages(c *gin.Context) {
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if len(req.Messages) == 0 {
		response.RespondError(c, http.StatusBadRequest, "no_messages", errors.New("messages is empty"))
		return
	}
	for _, m := range req.Messages {
		if err := m.Validate(); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_message", err)
			return
		}
	}
	indexed, stats, err := h.index.IndexMessages(c.Request.Context(), req.Messages)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "index_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"indexed": indexed, "stats": stats})
}

// POST /api/index/reset
func (h *IndexHandler) ResetIndex(c *gin.Context) {
	if err := h.index.Reset(c.Request.Context()); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "reset_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"status": "reset"})
}

// GET /api/index/stats
func (h *IndexHandler) IndexStats(c *gin.Context) {
	stats, err := h.index.Stats(c.Request.Context())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "stats_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"stats": stats})
}
