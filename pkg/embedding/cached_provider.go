package embedding

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedProvider memoizes embeddings by (taskType, text). Re-submissions of a
// growing conversation repeat many queries, and each miss is a network call.
type CachedProvider struct {
	inner EmbeddingProvider
	cache *lru.Cache[string, *EmbeddingResponse]
}

func NewCachedProvider(inner EmbeddingProvider, size int) (*CachedProvider, error) {
	if size <= 0 {
		size = 256
	}
	c, err := lru.New[string, *EmbeddingResponse](size)
	if err != nil {
		return nil, err
	}
	return &CachedProvider{inner: inner, cache: c}, nil
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	key := taskType + "\x00" + text
	if res, ok := p.cache.Get(key); ok {
		return res, nil
	}

	res, err := p.inner.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	p.cache.Add(key, res)
	return res, nil
}

// Len reports how many embeddings are cached.
func (p *CachedProvider) Len() int {
	return p.cache.Len()
}
