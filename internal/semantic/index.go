package semantic

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mailsage/mailsage-backend/internal/domain"
	"github.com/mailsage/mailsage-backend/internal/observability"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
	"github.com/mailsage/mailsage-backend/internal/platform/rediscache"
	"github.com/mailsage/mailsage-backend/internal/platform/vecstore"
)

const searchCachePrefix = "search:"

// Embedder is the slice of the AI client the index needs.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// IndexStats summarizes one IndexMessages call.
type IndexStats struct {
	MessagesIndexed     int     `json:"messages_indexed"`
	ChunksCreated       int     `json:"chunks_created"`
	AvgChunksPerMessage float64 `json:"avg_chunks_per_message"`
}

// CollectionStats summarizes the indexed collection.
type CollectionStats struct {
	TotalChunks int `json:"total_chunks"`
	Dimension   int `json:"dimension"`
	Namespace   string `json:"namespace"`
}

type IndexConfig struct {
	Namespace    string
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	Concurrency  int
}

// Index chunks, embeds and stores message text, and serves similarity search
// over it.
type Index struct {
	log   *logger.Logger
	embed Embedder
	store vecstore.VectorStore
	cache *rediscache.Cache
	cfg   IndexConfig
}

func NewIndex(log *logger.Logger, embed Embedder, store vecstore.VectorStore, cache *rediscache.Cache, cfg IndexConfig) (*Index, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if embed == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if store == nil {
		return nil, fmt.Errorf("vector store required")
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "emails"
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = DefaultChunkOverlap
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Index{
		log:   log.With("service", "SemanticIndex"),
		embed: embed,
		store: store,
		cache: cache,
		cfg:   cfg,
	}, nil
}

// IndexMessages chunks and embeds the messages and upserts the vectors.
// Prior vectors for each message are deleted first so re-indexing the same
// message never leaves stale chunks behind. Returns the number of chunks
// written.
func (ix *Index) IndexMessages(ctx context.Context, messages []domain.Message) (int, IndexStats, error) {
	stats := IndexStats{}
	if len(messages) == 0 {
		return 0, stats, nil
	}
	for _, msg := range messages {
		if err := msg.Validate(); err != nil {
			return 0, stats, fmt.Errorf("message %q: %w", msg.ID, err)
		}
	}

	type pending struct {
		chunk domain.Chunk
		text  string
	}

	all := make([]pending, 0, len(messages))
	for _, msg := range messages {
		if err := ix.store.DeleteWhere(ctx, ix.cfg.Namespace, map[string]any{"message_id": msg.ID}); err != nil {
			return 0, stats, fmt.Errorf("delete stale chunks for %q: %w", msg.ID, err)
		}

		pieces := Chunk(msg.NormalizedText(), ix.cfg.ChunkSize, ix.cfg.ChunkOverlap)
		for i, text := range pieces {
			all = append(all, pending{
				chunk: domain.Chunk{
					ID:   domain.ChunkID(msg.ID, i),
					Text: text,
					Metadata: domain.ChunkMetadata{
						MessageID:   msg.ID,
						Sender:      msg.Sender,
						Subject:     msg.Subject,
						Date:        msg.Date,
						ChunkIndex:  i,
						TotalChunks: len(pieces),
					},
				},
				text: text,
			})
		}
	}
	if len(all) == 0 {
		return 0, stats, nil
	}

	batches := make([][]pending, 0, len(all)/ix.cfg.BatchSize+1)
	for start := 0; start < len(all); start += ix.cfg.BatchSize {
		end := start + ix.cfg.BatchSize
		if end > len(all) {
			end = len(all)
		}
		batches = append(batches, all[start:end])
	}

	var chunksWritten int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Concurrency)

	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			texts := make([]string, 0, len(batch))
			for _, p := range batch {
				texts = append(texts, p.text)
			}
			vecs, err := ix.embed.Embed(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed batch: %w", err)
			}
			if len(vecs) != len(batch) {
				return fmt.Errorf("embedding count mismatch (got %d want %d)", len(vecs), len(batch))
			}

			vectors := make([]vecstore.Vector, 0, len(batch))
			for i, p := range batch {
				vectors = append(vectors, vecstore.Vector{
					ID:     p.chunk.ID,
					Values: vecs[i],
					Metadata: map[string]any{
						"message_id":   p.chunk.Metadata.MessageID,
						"sender":       p.chunk.Metadata.Sender,
						"subject":      p.chunk.Metadata.Subject,
						"date":         p.chunk.Metadata.Date,
						"chunk_index":  p.chunk.Metadata.ChunkIndex,
						"total_chunks": p.chunk.Metadata.TotalChunks,
						"text":         p.text,
					},
				})
			}
			if err := ix.store.Upsert(gctx, ix.cfg.Namespace, vectors); err != nil {
				return fmt.Errorf("upsert batch: %w", err)
			}
			atomic.AddInt32(&chunksWritten, int32(len(batch)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(atomic.LoadInt32(&chunksWritten)), stats, err
	}

	written := int(atomic.LoadInt32(&chunksWritten))
	stats.MessagesIndexed = len(messages)
	stats.ChunksCreated = written
	stats.AvgChunksPerMessage = round2(float64(written) / float64(len(messages)))

	ix.cache.Invalidate(ctx, searchCachePrefix)
	observability.Current().AddIndexedChunks(written)

	ix.log.Info("messages indexed",
		"messages", stats.MessagesIndexed,
		"chunks", stats.ChunksCreated,
	)
	return written, stats, nil
}

// Search embeds the query once and returns the top-k most similar chunks as
// results. An empty index yields an empty slice, not an error.
func (ix *Index) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query required")
	}
	if topK <= 0 {
		topK = 5
	}

	cacheKey := searchCachePrefix + "q=" + query + "|k=" + strconv.Itoa(topK)
	var cached []domain.SearchResult
	if ix.cache.Get(ctx, cacheKey, &cached) {
		return cached, nil
	}

	stats, err := ix.store.Stats(ctx, ix.cfg.Namespace)
	if err != nil {
		return nil, fmt.Errorf("collection stats: %w", err)
	}
	if stats.VectorCount == 0 {
		return []domain.SearchResult{}, nil
	}
	if topK > stats.VectorCount {
		topK = stats.VectorCount
	}

	vecs, err := ix.embed.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding count mismatch (got %d want 1)", len(vecs))
	}

	matches, err := ix.store.QueryMatches(ctx, ix.cfg.Namespace, vecs[0], topK, nil)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, domain.SearchResult{
			ID:      payloadString(m.Payload, "message_id"),
			Sender:  payloadString(m.Payload, "sender"),
			Subject: payloadString(m.Payload, "subject"),
			Date:    payloadString(m.Payload, "date"),
			Score:   round4(m.Score),
			Snippet: Snippet(payloadString(m.Payload, "text")),
		})
	}

	ix.cache.Set(ctx, cacheKey, results)
	observability.Current().IncSearch()
	return results, nil
}

// Reset drops every vector in the namespace.
func (ix *Index) Reset(ctx context.Context) error {
	if err := ix.store.DeleteNamespace(ctx, ix.cfg.Namespace); err != nil {
		return fmt.Errorf("reset collection: %w", err)
	}
	ix.cache.Invalidate(ctx, searchCachePrefix)
	ix.log.Info("collection reset", "namespace", ix.cfg.Namespace)
	return nil
}

// Stats reports the current collection size.
func (ix *Index) Stats(ctx context.Context) (CollectionStats, error) {
	stats, err := ix.store.Stats(ctx, ix.cfg.Namespace)
	if err != nil {
		return CollectionStats{}, fmt.Errorf("collection stats: %w", err)
	}
	return CollectionStats{
		TotalChunks: stats.VectorCount,
		Dimension:   stats.Dimension,
		Namespace:   ix.cfg.Namespace,
	}, nil
}

// Snippet truncates chunk text to 200 runes with a trailing ellipsis.
func Snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= 200 {
		return text
	}
	return string(runes[:200]) + "..."
}

func payloadString(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	if s, ok := payload[key].(string); ok {
		return s
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
