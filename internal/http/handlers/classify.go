package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/http/response"
)

type ClassifyService interface {
	ClassifyAll(msgs []domain.Message) []domain.Classification
}

type ThreadService interface {
	DetectThreads(msgs []domain.Message) ([]domain.Thread, map[string]string)
}

type ClassifyHandler struct {
	classifier ClassifyService
	threads    ThreadService
}

func NewClassifyHandler(classifier ClassifyService, threads ThreadService) *ClassifyHandler {
	return &ClassifyHandler{classifier: classifier, threads: threads}
}

type classifyRequest struct {
	Messages []domain.Message `json:"messages"`
}

// POST /api/classify
func (h *ClassifyHandler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if len(req.Messages) == 0 {
		response.RespondError(c, http.StatusBadRequest, "no_messages", errors.New("messages is empty"))
		return
	}
	payload := gin.H{"classifications": h.classifier.ClassifyAll(req.Messages)}
	if h.threads != nil {
		threads, byMessage := h.threads.DetectThreads(req.Messages)
		payload["threads"] = threads
		payload["thread_membership"] = byMessage
	}
	response.RespondOK(c, payload)
}
