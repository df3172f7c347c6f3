package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/semantic"
)

type fakeIndex struct {
	indexed  []domain.Message
	stats    semantic.IndexStats
	coll     semantic.CollectionStats
	resets   int
	indexErr error
}

func (f *fakeIndex) IndexMessages(_ context.Context, msgs []domain.Message) (int, semantic.IndexStats, error) {
	if f.indexErr != nil {
		return 0, semantic.IndexStats{}, f.indexErr
	}
	f.indexed = append(f.indexed, msgs...)
	return len(msgs), f.stats, nil
}

func (f *fakeIndex) Reset(context.Context) error {
	f.resets++
	return nil
}

func (f *fakeIndex) Stats(context.Context) (semantic.CollectionStats, error) {
	return f.coll, nil
}

type fakeSearch struct {
	results []domain.SearchResult
	err     error
	gotTopK int
}

func (f *fakeSearch) Search(_ context.Context, _ string, topK int) ([]domain.SearchResult, error) {
	f.gotTopK = topK
	return f.results, f.err
}

type fakeRAG struct {
	resp domain.RAGResponse
	err  error
}

func (f *fakeRAG) Answer(context.Context, string, int) (domain.RAGResponse, error) {
	return f.resp, f.err
}

type fakeExecutor struct {
	exec domain.WorkflowExecution
	err  error
}

func (f *fakeExecutor) Execute(context.Context, string, int, bool) (domain.WorkflowExecution, error) {
	return f.exec, f.err
}

type fakeReader struct {
	byID   map[string]domain.WorkflowExecution
	recent []domain.WorkflowExecution
}

func (f *fakeReader) GetExecution(id string) (domain.WorkflowExecution, bool) {
	exec, ok := f.byID[id]
	return exec, ok
}

func (f *fakeReader) ListRecentExecutions(int) []domain.WorkflowExecution {
	return f.recent
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body == "" {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v (body=%s)", err, rec.Body.String())
	}
	return out
}

func TestIndexHandlerRejectsEmptyBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ix := &fakeIndex{}
	r.POST("/api/index", NewIndexHandler(ix).IndexMessages)

	rec := doJSON(t, r, http.MethodPost, "/api/index", `{"messages":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	if len(ix.indexed) != 0 {
		t.Fatalf("index should not be called on empty batch")
	}
	body := decodeBody(t, rec)
	if _, ok := body["error"]; !ok {
		t.Fatalf("expected error envelope, got %v", body)
	}
}

func TestIndexHandlerRejectsInvalidMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ix := &fakeIndex{}
	r.POST("/api/index", NewIndexHandler(ix).IndexMessages)

	rec := doJSON(t, r, http.MethodPost, "/api/index", `{"messages":[{"id":"","subject":"hi","body":"x"}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
}

func TestIndexHandlerIndexesMessages(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ix := &fakeIndex{stats: semantic.IndexStats{MessagesIndexed: 1, ChunksCreated: 3, AvgChunksPerMessage: 3}}
	r.POST("/api/index", NewIndexHandler(ix).IndexMessages)

	rec := doJSON(t, r, http.MethodPost, "/api/index",
		`{"messages":[{"id":"m1","from":"a@example.com","subject":"hi","body":"hello"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if got := body["indexed"].(float64); got != 1 {
		t.Fatalf("indexed: got=%v want=1", got)
	}
	if len(ix.indexed) != 1 || ix.indexed[0].ID != "m1" {
		t.Fatalf("unexpected indexed messages: %+v", ix.indexed)
	}
}

func TestSearchHandlerRejectsEmptyQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	s := &fakeSearch{}
	r.POST("/api/search", NewSearchHandler(s).Search)

	rec := doJSON(t, r, http.MethodPost, "/api/search", `{"query":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
}

func TestSearchHandlerReturnsResults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	s := &fakeSearch{results: []domain.SearchResult{
		{ID: "m1", Subject: "budget", Score: 0.9},
		{ID: "m2", Subject: "forecast", Score: 0.7},
	}}
	r.POST("/api/search", NewSearchHandler(s).Search)

	rec := doJSON(t, r, http.MethodPost, "/api/search", `{"query":"budget","top_k":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if got := body["count"].(float64); got != 2 {
		t.Fatalf("count: got=%v want=2", got)
	}
	if s.gotTopK != 2 {
		t.Fatalf("top_k: got=%d want=2", s.gotTopK)
	}
}

func TestSearchHandlerMapsFailureTo500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	s := &fakeSearch{err: errors.New("store down")}
	r.POST("/api/search", NewSearchHandler(s).Search)

	rec := doJSON(t, r, http.MethodPost, "/api/search", `{"query":"budget"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusInternalServerError)
	}
}

func TestAnswerHandlerRejectsEmptyQuestion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/answer", NewAnswerHandler(&fakeRAG{}).Answer)

	rec := doJSON(t, r, http.MethodPost, "/api/answer", `{"question":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
}

func TestAnswerHandlerReturnsAnswerWithCitations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rag := &fakeRAG{resp: domain.RAGResponse{
		Answer:    "The deadline is Friday.",
		Citations: []domain.Citation{{ID: "m1", Subject: "deadline"}},
	}}
	r.POST("/api/answer", NewAnswerHandler(rag).Answer)

	rec := doJSON(t, r, http.MethodPost, "/api/answer", `{"question":"when is the deadline?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["answer"] != "The deadline is Friday." {
		t.Fatalf("answer: got=%v", body["answer"])
	}
	citations := body["citations"].([]any)
	if len(citations) != 1 {
		t.Fatalf("citations: got=%d want=1", len(citations))
	}
}

func TestClassifyHandlerClassifiesBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewClassifyHandler(classifyAllFunc(func(msgs []domain.Message) []domain.Classification {
		out := make([]domain.Classification, len(msgs))
		for i, m := range msgs {
			out[i] = domain.Classification{MessageID: m.ID, Categories: []string{"work"}}
		}
		return out
	}), nil)
	r.POST("/api/classify", h.Classify)

	rec := doJSON(t, r, http.MethodPost, "/api/classify",
		`{"messages":[{"id":"m1","subject":"meeting","body":"project sync"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	cls := body["classifications"].([]any)
	if len(cls) != 1 {
		t.Fatalf("classifications: got=%d want=1", len(cls))
	}
}

type classifyAllFunc func(msgs []domain.Message) []domain.Classification

func (f classifyAllFunc) ClassifyAll(msgs []domain.Message) []domain.Classification { return f(msgs) }

type analyzeAllFunc func(msgs []domain.Message) []domain.ThreatAnalysis

func (f analyzeAllFunc) AnalyzeAll(msgs []domain.Message) []domain.ThreatAnalysis { return f(msgs) }

func TestThreatHandlerAnalyzesBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewThreatHandler(analyzeAllFunc(func(msgs []domain.Message) []domain.ThreatAnalysis {
		out := make([]domain.ThreatAnalysis, len(msgs))
		for i, m := range msgs {
			out[i] = domain.ThreatAnalysis{MessageID: m.ID, ThreatLevel: domain.ThreatLevelSafe}
		}
		return out
	}))
	r.POST("/api/threats/analyze", h.Analyze)

	rec := doJSON(t, r, http.MethodPost, "/api/threats/analyze",
		`{"messages":[{"id":"m1","subject":"hi","body":"hello"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if got := body["count"].(float64); got != 1 {
		t.Fatalf("count: got=%v want=1", got)
	}
}

func TestWorkflowExecuteRejectsEmptyQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewWorkflowHandler(&fakeExecutor{}, &fakeReader{})
	r.POST("/api/workflow/execute", h.Execute)

	rec := doJSON(t, r, http.MethodPost, "/api/workflow/execute", `{"query":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
}

func TestWorkflowExecuteReturnsExecution(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewWorkflowHandler(&fakeExecutor{exec: domain.WorkflowExecution{
		ID:     "exec_1",
		Query:  "urgent emails",
		Status: domain.WorkflowCompleted,
	}}, &fakeReader{})
	r.POST("/api/workflow/execute", h.Execute)

	rec := doJSON(t, r, http.MethodPost, "/api/workflow/execute", `{"query":"urgent emails"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	exec := body["execution"].(map[string]any)
	if exec["execution_id"] != "exec_1" {
		t.Fatalf("execution id: got=%v want=exec_1", exec["execution_id"])
	}
	if exec["status"] != string(domain.WorkflowCompleted) {
		t.Fatalf("status: got=%v want=%v", exec["status"], domain.WorkflowCompleted)
	}
}

func TestWorkflowGetExecutionNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewWorkflowHandler(&fakeExecutor{}, &fakeReader{byID: map[string]domain.WorkflowExecution{}})
	r.GET("/api/workflow/executions/:id", h.GetExecution)

	rec := doJSON(t, r, http.MethodGet, "/api/workflow/executions/exec_404", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "exec_404") {
		t.Fatalf("expected missing id in body, got %s", rec.Body.String())
	}
}

func TestWorkflowListExecutionsRejectsBadLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewWorkflowHandler(&fakeExecutor{}, &fakeReader{})
	r.GET("/api/workflow/executions", h.ListExecutions)

	rec := doJSON(t, r, http.MethodGet, "/api/workflow/executions?limit=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
}

func TestWorkflowListExecutions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewWorkflowHandler(&fakeExecutor{}, &fakeReader{recent: []domain.WorkflowExecution{
		{ID: "exec_2"}, {ID: "exec_1"},
	}})
	r.GET("/api/workflow/executions", h.ListExecutions)

	rec := doJSON(t, r, http.MethodGet, "/api/workflow/executions?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if got := body["count"].(float64); got != 2 {
		t.Fatalf("count: got=%v want=2", got)
	}
}
