package implementation

import (
	"context"

	"trackbot-be/internal/entity"
	"trackbot-be/internal/mapper"
	"trackbot-be/internal/model"
	"trackbot-be/internal/repository/contract"
	"trackbot-be/internal/repository/specification"

	"gorm.io/gorm"
)

type TrackRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TrackRecordMapper
}

func NewTrackRecordRepository(db *gorm.DB) contract.TrackRecordRepository {
	return &TrackRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewTrackRecordMapper(),
	}
}

func (r *TrackRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TrackRecordRepositoryImpl) Create(ctx context.Context, record *entity.TrackRecord) error {
	m, err := r.mapper.ToModel(record)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	record.Id = m.Id
	record.CreatedAt = m.CreatedAt
	return nil
}

func (r *TrackRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TrackRecord, error) {
	var models []*model.TrackRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.TrackRecord, 0, len(models))
	for _, m := range models {
		e, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (r *TrackRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.TrackRecord{}).Count(&count).Error
	return count, err
}

type GeneratedDocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TrackRecordMapper
}

func NewGeneratedDocumentRepository(db *gorm.DB) contract.GeneratedDocumentRepository {
	return &GeneratedDocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewTrackRecordMapper(),
	}
}

func (r *GeneratedDocumentRepositoryImpl) Create(ctx context.Context, doc *entity.GeneratedDocument) error {
	m := r.mapper.DocumentToModel(doc)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*doc = *r.mapper.DocumentToEntity(m)
	return nil
}

func (r *GeneratedDocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GeneratedDocument, error) {
	var models []*model.GeneratedDocument
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.GeneratedDocument, len(models))
	for i, m := range models {
		entities[i] = r.mapper.DocumentToEntity(m)
	}
	return entities, nil
}
