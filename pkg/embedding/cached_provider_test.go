package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls int
	err   error
}

func (c *countingProvider) Generate(_ context.Context, text string, _ string) (*EmbeddingResponse, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: []float32{float32(len(text))}}}, nil
}

func TestCachedProviderMemoizes(t *testing.T) {
	inner := &countingProvider{}
	p, err := NewCachedProvider(inner, 2)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := p.Generate(ctx, "budget", TaskRetrievalQuery)
	require.NoError(t, err)
	second, err := p.Generate(ctx, "budget", TaskRetrievalQuery)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, inner.calls)

	// task type is part of the key
	_, err = p.Generate(ctx, "budget", TaskRetrievalDocument)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, p.Len())
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	inner := &countingProvider{err: errors.New("down")}
	p, err := NewCachedProvider(inner, 0)
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "q", TaskRetrievalQuery)
	assert.Error(t, err)
	_, err = p.Generate(context.Background(), "q", TaskRetrievalQuery)
	assert.Error(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, p.Len())
}

func TestNormalizeVector(t *testing.T) {
	out := normalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, out[0], 1e-6)
	assert.InDelta(t, 0.8, out[1], 1e-6)

	zero := []float32{0, 0}
	assert.Equal(t, zero, normalizeVector(zero))
}
