package vecstore

import "context"

// Vector is one embedding with its payload as stored by a provider.
type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// VectorMatch is a query hit. Score is normalized so higher is better.
type VectorMatch struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Stats summarizes one namespace of a store.
type Stats struct {
	VectorCount int `json:"vector_count"`
	Dimension   int `json:"dimension"`
}

type VectorStore interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	// QueryMatches returns matches with their similarity scores (higher is better).
	QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]VectorMatch, error)
	DeleteIDs(ctx context.Context, namespace string, ids []string) error
	// DeleteWhere removes every vector in the namespace whose payload matches
	// the filter.
	DeleteWhere(ctx context.Context, namespace string, filter map[string]any) error
	// DeleteNamespace removes every vector in the namespace.
	DeleteNamespace(ctx context.Context, namespace string) error
	Stats(ctx context.Context, namespace string) (Stats, error)
}
