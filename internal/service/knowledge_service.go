package service

import (
	"context"
	"encoding/json"
	"strings"

	"trackbot-be/internal/dto"
	"trackbot-be/internal/pkg/logger"
	"trackbot-be/internal/pkg/serverutils"
	"trackbot-be/internal/repository/unitofwork"
)

type IKnowledgeService interface {
	Ingest(ctx context.Context, req *dto.IngestKnowledgeRequest) (*dto.IngestKnowledgeResponse, error)
	Delete(ctx context.Context, source string) error
	Stats(ctx context.Context) (*dto.KnowledgeStatsResponse, error)
}

type knowledgeService struct {
	uowFactory       unitofwork.RepositoryFactory
	indexer          *KnowledgeIndexer
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewKnowledgeService(
	uowFactory unitofwork.RepositoryFactory,
	indexer *KnowledgeIndexer,
	publisherService IPublisherService,
	log logger.ILogger,
) IKnowledgeService {
	return &knowledgeService{
		uowFactory:       uowFactory,
		indexer:          indexer,
		publisherService: publisherService,
		logger:           log,
	}
}

func (s *knowledgeService) Ingest(ctx context.Context, req *dto.IngestKnowledgeRequest) (*dto.IngestKnowledgeResponse, error) {
	source := strings.TrimSpace(req.Source)
	if source == "" || strings.TrimSpace(req.Content) == "" {
		return nil, serverutils.NewBadRequestError("source and content are required")
	}

	if req.Async && s.publisherService != nil {
		payload, err := json.Marshal(dto.PublishIngestKnowledgeMessage{Source: source, Content: req.Content})
		if err != nil {
			return nil, err
		}
		if err := s.publisherService.Publish(ctx, payload); err != nil {
			return nil, err
		}
		s.logger.Info("KNOWLEDGE", "Ingestion queued", map[string]interface{}{"source": source})
		return &dto.IngestKnowledgeResponse{Source: source, Queued: true}, nil
	}

	n, err := s.indexer.Index(ctx, source, req.Content)
	if err != nil {
		return nil, serverutils.NewBadGatewayError("failed to index knowledge: "+err.Error(), err)
	}
	return &dto.IngestKnowledgeResponse{Source: source, Chunks: n}, nil
}

func (s *knowledgeService) Delete(ctx context.Context, source string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.KnowledgeChunkRepository().DeleteBySource(ctx, source); err != nil {
		return err
	}
	s.logger.Info("KNOWLEDGE", "Source deleted", map[string]interface{}{"source": source})
	return nil
}

func (s *knowledgeService) Stats(ctx context.Context) (*dto.KnowledgeStatsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.KnowledgeChunkRepository().Count(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.KnowledgeStatsResponse{Chunks: count}, nil
}
