package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/http/response"
)

type ThreatService interface {
	AnalyzeAll(msgs []domain.Message) []domain.ThreatAnalysis
}

type ThreatHandler struct {
	detector ThreatService
}

func NewThreatHandler(detector ThreatService) *ThreatHandler {
	return &ThreatHandler{detector: detector}
}

type threatRequest struct {
	Messages []domain.Message `json:"messages"`
}

// POST /api/threats/analyze
func (h *ThreatHandler) Analyze(c *gin.Context) {
	var req threatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if len(req.Messages) == 0 {
		response.RespondError(c, http.StatusBadRequest, "no_messages", errors.New("messages is empty"))
		return
	}
	analyses := h.detector.AnalyzeAll(req.Messages)
	response.RespondOK(c, gin.H{"analyses": analyses, "count": len(analyses)})
}
