package service

import (
	"context"
	"fmt"
	"time"

	"trackbot-be/internal/entity"
	"trackbot-be/internal/pkg/logger"
	"trackbot-be/internal/repository/unitofwork"
	"trackbot-be/pkg/events"
	"trackbot-be/pkg/rag/persist"

	"github.com/google/uuid"
)

// RecordSink stores reshaped records in track_records and announces them
// on the event bus.
type RecordSink struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  events.Publisher
	logger     logger.ILogger
}

var _ persist.Sink = (*RecordSink)(nil)

func NewRecordSink(uowFactory unitofwork.RepositoryFactory, publisher events.Publisher, log logger.ILogger) *RecordSink {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &RecordSink{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *RecordSink) Save(ctx context.Context, meta persist.Meta, record map[string]interface{}) error {
	row := &entity.TrackRecord{
		Id:        uuid.New(),
		SessionId: meta.SessionID,
		UserId:    meta.UserID,
		Payload:   record,
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.TrackRecordRepository().Create(ctx, row); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	evt := events.TrackRecordSaved(meta.SessionID, meta.UserID, row.Id.String(), len(record))
	if err := s.publisher.Publish(ctx, evt); err != nil {
		// the row is committed, a lost event is only logged
		s.logger.Warn("PERSIST", "Failed to publish record event", map[string]interface{}{
			"record_id": row.Id.String(),
			"error":     err.Error(),
		})
	}
	return nil
}
