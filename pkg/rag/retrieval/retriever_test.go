package retrieval

import (
	"context"
	"errors"
	"testing"

	"trackbot-be/internal/entity"
	"trackbot-be/internal/pkg/logger"
	"trackbot-be/internal/repository/contract"
	"trackbot-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err      error
	gotTask  string
	gotQuery string
}

func (f *fakeEmbedder) Generate(_ context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.gotQuery, f.gotTask = text, taskType
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0}}}, nil
}

type fakeSearcher struct {
	gotLimit int
	results  []*contract.ScoredKnowledgeChunk
	err      error
}

func (f *fakeSearcher) SearchSimilarWithScore(_ context.Context, _ []float32, limit int, _ float64) ([]*contract.ScoredKnowledgeChunk, error) {
	f.gotLimit = limit
	return f.results, f.err
}

func TestVectorRetrieverSearch(t *testing.T) {
	emb := &fakeEmbedder{}
	searcher := &fakeSearcher{results: []*contract.ScoredKnowledgeChunk{
		{Chunk: &entity.KnowledgeChunk{Document: "budget is required", Source: "schema.md"}, Similarity: 0.9},
		nil,
		{Chunk: &entity.KnowledgeChunk{Document: "owner is required", Source: "schema.md"}, Similarity: 0.7},
	}}
	r := NewVectorRetriever(emb, searcher, logger.NewNopLogger())

	chunks, err := r.Search(context.Background(), "we need a budget", 0)
	require.NoError(t, err)

	assert.Equal(t, DefaultTopK, searcher.gotLimit)
	assert.Equal(t, embedding.TaskRetrievalQuery, emb.gotTask)
	assert.Equal(t, []string{"budget is required", "owner is required"}, Contents(chunks))
}

func TestVectorRetrieverErrors(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		embedErr error
		dbErr    error
		wantIs   error
	}{
		{name: "empty query", query: "", wantIs: ErrEmptyQuery},
		{name: "embedding failure", query: "q", embedErr: errors.New("quota")},
		{name: "search failure", query: "q", dbErr: errors.New("conn refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewVectorRetriever(&fakeEmbedder{err: tt.embedErr}, &fakeSearcher{err: tt.dbErr}, logger.NewNopLogger())
			_, err := r.Search(context.Background(), tt.query, 3)
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}
