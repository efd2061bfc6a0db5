package bootstrap

import (
	"context"
	"testing"

	"trackbot-be/internal/config"
	"trackbot-be/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingProvider(t *testing.T) {
	tests := []struct {
		name    string
		ai      config.AIConfig
		keys    config.APIKeys
		wantErr bool
	}{
		{"gemini", config.AIConfig{EmbeddingProvider: "gemini"}, config.APIKeys{GoogleGemini: "k"}, false},
		{"gemini without key", config.AIConfig{EmbeddingProvider: "gemini"}, config.APIKeys{}, true},
		{"ollama", config.AIConfig{EmbeddingProvider: "ollama"}, config.APIKeys{}, false},
		{"jina", config.AIConfig{EmbeddingProvider: "jina"}, config.APIKeys{Jina: "k"}, false},
		{"jina without key", config.AIConfig{EmbeddingProvider: "jina"}, config.APIKeys{}, true},
		{"unknown", config.AIConfig{EmbeddingProvider: "word2vec"}, config.APIKeys{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewEmbeddingProvider(&config.Config{Ai: tt.ai, Keys: tt.keys})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}

func TestNewLLMProviderRequiresCredentials(t *testing.T) {
	_, err := NewLLMProvider(context.Background(), &config.Config{Ai: config.AIConfig{LLMProvider: "gemini"}})
	assert.Error(t, err)

	_, err = NewLLMProvider(context.Background(), &config.Config{Ai: config.AIConfig{LLMProvider: "huggingface"}})
	assert.Error(t, err)

	p, err := NewLLMProvider(context.Background(), &config.Config{Ai: config.AIConfig{LLMProvider: "ollama", OllamaBaseURL: "http://localhost:11434"}})
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNewSessionRepository(t *testing.T) {
	repo, err := newSessionRepository(context.Background(), &config.Config{App: config.AppConfig{SessionStore: "memory"}})
	require.NoError(t, err)
	assert.IsType(t, &memory.SessionRepository{}, repo)

	_, err = newSessionRepository(context.Background(), &config.Config{App: config.AppConfig{SessionStore: "etcd"}})
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	h, err := authMiddleware(&config.Config{})
	require.NoError(t, err)
	assert.NotNil(t, h)

	_, err = authMiddleware(&config.Config{App: config.AppConfig{AuthEnabled: true}})
	assert.Error(t, err)

	h, err = authMiddleware(&config.Config{App: config.AppConfig{AuthEnabled: true}, Keys: config.APIKeys{JWTSecret: "s"}})
	require.NoError(t, err)
	assert.NotNil(t, h)
}
