package unitofwork

import (
	"context"

	"trackbot-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	KnowledgeChunkRepository() contract.KnowledgeChunkRepository
	TrackRecordRepository() contract.TrackRecordRepository
	GeneratedDocumentRepository() contract.GeneratedDocumentRepository
}
