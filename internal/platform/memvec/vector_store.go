package memvec

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/mailsage/mailsage-backend/internal/platform/logger"
	"github.com/mailsage/mailsage-backend/internal/platform/vecstore"
)

// vectorStore keeps every vector in process memory. It backs local and test
// deployments where no qdrant instance is available. Matching is exact
// cosine similarity over the full namespace.
type vectorStore struct {
	log *logger.Logger
	dim int

	mu         sync.RWMutex
	namespaces map[string]map[string]storedVector
}

type storedVector struct {
	values  []float32
	payload map[string]any
}

func NewVectorStore(log *logger.Logger, dim int) (vecstore.VectorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", dim)
	}
	log.Info("in-memory vector store selected", "provider", "memory", "vector_dim", dim)
	return &vectorStore{
		log:        log.With("service", "MemoryVectorStore"),
		dim:        dim,
		namespaces: make(map[string]map[string]storedVector),
	}, nil
}

func (s *vectorStore) Upsert(ctx context.Context, namespace string, vectors []vecstore.Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	for _, v := range vectors {
		if strings.TrimSpace(v.ID) == "" {
			return fmt.Errorf("vector id is required")
		}
		if len(v.Values) != s.dim {
			return fmt.Errorf("vector %q dimension mismatch: expected=%d got=%d", v.ID, s.dim, len(v.Values))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.namespaces[namespace]
	if ns == nil {
		ns = make(map[string]storedVector, len(vectors))
		s.namespaces[namespace] = ns
	}
	for _, v := range vectors {
		values := make([]float32, len(v.Values))
		copy(values, v.Values)
		payload := make(map[string]any, len(v.Metadata))
		for k, val := range v.Metadata {
			payload[k] = val
		}
		ns[strings.TrimSpace(v.ID)] = storedVector{values: values, payload: payload}
	}
	return nil
}

func (s *vectorStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]vecstore.VectorMatch, error) {
	if len(q) == 0 {
		return nil, fmt.Errorf("query vector required")
	}
	if len(q) != s.dim {
		return nil, fmt.Errorf("query vector dimension mismatch: expected=%d got=%d", s.dim, len(q))
	}
	if topK <= 0 {
		topK = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	ns := s.namespaces[namespace]
	if len(ns) == 0 {
		return []vecstore.VectorMatch{}, nil
	}

	out := make([]vecstore.VectorMatch, 0, len(ns))
	for id, stored := range ns {
		if !payloadMatches(stored.payload, filter) {
			continue
		}
		score := cosineSimilarity(q, stored.values)
		payload := make(map[string]any, len(stored.payload))
		for k, v := range stored.payload {
			payload[k] = v
		}
		out = append(out, vecstore.VectorMatch{ID: id, Score: score, Payload: payload})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (s *vectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.namespaces[namespace]
	for _, id := range ids {
		delete(ns, strings.TrimSpace(id))
	}
	return nil
}

func (s *vectorStore) DeleteWhere(ctx context.Context, namespace string, filter map[string]any) error {
	if len(filter) == 0 {
		return fmt.Errorf("filter required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.namespaces[namespace]
	for id, stored := range ns {
		if payloadMatches(stored.payload, filter) {
			delete(ns, id)
		}
	}
	return nil
}

func (s *vectorStore) DeleteNamespace(ctx context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, namespace)
	return nil
}

func (s *vectorStore) Stats(ctx context.Context, namespace string) (vecstore.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vecstore.Stats{
		VectorCount: len(s.namespaces[namespace]),
		Dimension:   s.dim,
	}, nil
}

// payloadMatches supports only flat equality filters. The qdrant adapter
// covers the richer operator surface; callers that need it in tests should
// use qdrant directly.
func payloadMatches(payload map[string]any, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := payload[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// cosineSimilarity clamps to [0, 1] so scores line up with the normalized
// scores the qdrant adapter reports for cosine collections.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
