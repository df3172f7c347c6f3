package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
)

// DefaultTopK is the number of emails retrieved as answer context when the
// caller does not ask for a specific amount.
const DefaultTopK = 5

const noResultsAnswer = "I couldn't find any relevant emails to answer your question."

// Searcher retrieves the passages an answer is grounded on.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error)
}

// Generator produces free text from a prompt. A nil Generator is valid and
// switches the engine into context-only fallback mode.
type Generator interface {
	GenerateText(ctx context.Context, system, prompt string) (string, error)
}

// Engine answers questions over the indexed mailbox, citing every passage it
// was shown.
type Engine struct {
	log    *logger.Logger
	search Searcher
	gen    Generator
}

func NewEngine(log *logger.Logger, search Searcher, gen Generator) (*Engine, error) {
	if log == nil {
		return nil, fmt.Errorf("rag: logger is nil")
	}
	if search == nil {
		return nil, fmt.Errorf("rag: searcher is nil")
	}
	return &Engine{
		log:    log.With("service", "rag"),
		search: search,
		gen:    gen,
	}, nil
}

// Answer retrieves topK passages for the question and generates a grounded
// answer. Retrieval failures are fatal; generation failures degrade to a
// context-only answer so the caller still gets the retrieved material.
func (e *Engine) Answer(ctx context.Context, question string, topK int) (domain.RAGResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.RAGResponse{}, fmt.Errorf("rag: question is empty")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	results, err := e.search.Search(ctx, question, topK)
	if err != nil {
		return domain.RAGResponse{}, fmt.Errorf("rag: retrieval failed: %w", err)
	}
	if len(results) == 0 {
		return domain.RAGResponse{Answer: noResultsAnswer, Citations: []domain.Citation{}}, nil
	}

	contextBlock := buildContext(results)
	answer := e.generate(ctx, question, contextBlock)

	citations := make([]domain.Citation, 0, len(results))
	for _, r := range results {
		citations = append(citations, domain.Citation{
			ID:      r.ID,
			Subject: r.Subject,
			Date:    r.Date,
			Snippet: r.Snippet,
		})
	}
	return domain.RAGResponse{Answer: answer, Citations: citations}, nil
}

func (e *Engine) generate(ctx context.Context, question, contextBlock string) string {
	if e.gen == nil {
		return fallbackAnswer(contextBlock)
	}
	answer, err := e.gen.GenerateText(ctx, systemPrompt, buildPrompt(question, contextBlock))
	if err != nil {
		e.log.Warn("generation failed, answering from retrieved context only", "error", err)
		return fallbackAnswer(contextBlock)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return fallbackAnswer(contextBlock)
	}
	return answer
}

const systemPrompt = "You are a helpful assistant that answers questions based on email context."

func buildPrompt(question, contextBlock string) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant that answers questions based ONLY on the provided email context.\n\n")
	b.WriteString("Context (Retrieved Emails):\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nInstructions:\n")
	b.WriteString("- Answer the question using ONLY information from the provided emails\n")
	b.WriteString("- If the answer is not in the emails, say \"I cannot find this information in the retrieved emails\"\n")
	b.WriteString("- Be concise and specific\n")
	b.WriteString("- Reference which email(s) you used to answer\n\n")
	b.WriteString("Answer:")
	return b.String()
}

func buildContext(results []domain.SearchResult) string {
	parts := make([]string, 0, len(results))
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("[Email %d]\nSubject: %s\nDate: %s\nContent: %s\n", i+1, r.Subject, r.Date, r.Snippet))
	}
	return strings.Join(parts, "\n")
}

func fallbackAnswer(contextBlock string) string {
	return "Based on the retrieved emails, here is the relevant information:\n\n" +
		contextBlock +
		"\n\nNote: no answer generator is configured. The above shows the raw retrieved context."
}
