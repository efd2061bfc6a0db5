package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trackbot-be/internal/entity"
	"trackbot-be/internal/pkg/logger"
	"trackbot-be/internal/repository/unitofwork"
	"trackbot-be/pkg/embedding"
	"trackbot-be/pkg/utils"

	"github.com/google/uuid"
)

// KnowledgeIndexer splits a knowledge document, embeds every chunk and
// replaces whatever was stored for the same source.
type KnowledgeIndexer struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	chunkSize         int
	chunkOverlap      int
	logger            logger.ILogger
}

func NewKnowledgeIndexer(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	chunkSize int,
	chunkOverlap int,
	log logger.ILogger,
) *KnowledgeIndexer {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &KnowledgeIndexer{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		chunkSize:         chunkSize,
		chunkOverlap:      chunkOverlap,
		logger:            log,
	}
}

// Index returns the number of chunks stored for source.
func (k *KnowledgeIndexer) Index(ctx context.Context, source, content string) (int, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return 0, fmt.Errorf("knowledge source is required")
	}

	chunks := utils.SplitText(content, k.chunkSize, k.chunkOverlap)
	k.logger.Info("KNOWLEDGE", "Content split", map[string]interface{}{
		"source": source,
		"chunks": len(chunks),
	})

	now := time.Now()
	rows := make([]*entity.KnowledgeChunk, 0, len(chunks))
	for i, chunk := range chunks {
		res, err := k.embeddingProvider.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d of %s: %w", i, source, err)
		}
		rows = append(rows, &entity.KnowledgeChunk{
			Id:             uuid.New(),
			Source:         source,
			Document:       chunk,
			EmbeddingValue: res.Embedding.Values,
			ChunkIndex:     i,
			CreatedAt:      now,
		})
	}

	uow := k.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.KnowledgeChunkRepository().DeleteBySource(ctx, source); err != nil {
		return 0, fmt.Errorf("delete old chunks: %w", err)
	}
	if len(rows) > 0 {
		if err := uow.KnowledgeChunkRepository().CreateBulk(ctx, rows); err != nil {
			return 0, fmt.Errorf("store chunks: %w", err)
		}
	}
	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	k.logger.Info("KNOWLEDGE", "Source indexed", map[string]interface{}{
		"source": source,
		"chunks": len(rows),
	})
	return len(rows), nil
}
