// Package retrieval fetches the knowledge chunks most relevant to a query.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"trackbot-be/internal/pkg/logger"
	"trackbot-be/internal/repository/contract"
	"trackbot-be/pkg/embedding"
)

// DefaultTopK is the number of chunks fetched when callers pass k <= 0.
const DefaultTopK = 3

// ErrEmptyQuery is returned when there is nothing to embed.
var ErrEmptyQuery = errors.New("retrieval: empty query")

// Chunk is one retrieved knowledge fragment. Results are relevance ranked.
type Chunk struct {
	Content    string
	Source     string
	Similarity float64
}

type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]Chunk, error)
}

// ChunkSearcher is the vector index the retriever queries.
type ChunkSearcher interface {
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredKnowledgeChunk, error)
}

// VectorRetriever embeds the query and runs a cosine search over the
// knowledge_chunks table.
type VectorRetriever struct {
	embedder  embedding.EmbeddingProvider
	searcher  ChunkSearcher
	threshold float64
	logger    logger.ILogger
}

func NewVectorRetriever(embedder embedding.EmbeddingProvider, searcher ChunkSearcher, log logger.ILogger) *VectorRetriever {
	return &VectorRetriever{
		embedder: embedder,
		searcher: searcher,
		logger:   log,
	}
}

// WithThreshold drops chunks below the given cosine similarity.
func (r *VectorRetriever) WithThreshold(threshold float64) *VectorRetriever {
	r.threshold = threshold
	return r
}

func (r *VectorRetriever) Search(ctx context.Context, query string, k int) ([]Chunk, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = DefaultTopK
	}

	res, err := r.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := r.searcher.SearchSimilarWithScore(ctx, res.Embedding.Values, k, r.threshold)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	chunks := make([]Chunk, 0, len(scored))
	for _, s := range scored {
		if s == nil || s.Chunk == nil {
			continue
		}
		chunks = append(chunks, Chunk{
			Content:    s.Chunk.Document,
			Source:     s.Chunk.Source,
			Similarity: s.Similarity,
		})
	}

	r.logger.Debug("RETRIEVAL", "Vector search finished", map[string]interface{}{
		"k":       k,
		"results": len(chunks),
	})
	return chunks, nil
}

// Contents returns the chunk texts in rank order.
func Contents(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}
