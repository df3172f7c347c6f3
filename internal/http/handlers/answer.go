package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/http/response"
)

type AnswerService interface {
	Answer(ctx context.Context, question string, topK int) (domain.RAGResponse, error)
}

type AnswerHandler struct {
	rag AnswerService
}

func NewAnswerHandler(rag AnswerService) *AnswerHandler {
	return &AnswerHandler{rag: rag}
}

type answerRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// POST /api/answer
func (h *AnswerHandler) Answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		response.RespondError(c, http.StatusBadRequest, "empty_question", errors.New("question is required"))
		return
	}
	resp, err := h.rag.Answer(c.Request.Context(), req.Question, req.TopK)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "answer_failed", err)
		return
	}
	response.RespondOK(c, resp)
}
