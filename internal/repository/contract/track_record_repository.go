package contract

import (
	"context"

	"trackbot-be/internal/entity"
	"trackbot-be/internal/repository/specification"
)

type TrackRecordRepository interface {
	Create(ctx context.Context, record *entity.TrackRecord) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TrackRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type GeneratedDocumentRepository interface {
	Create(ctx context.Context, doc *entity.GeneratedDocument) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GeneratedDocument, error)
}
