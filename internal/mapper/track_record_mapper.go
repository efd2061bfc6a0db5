package mapper

import (
	"encoding/json"
	"fmt"

	"trackbot-be/internal/entity"
	"trackbot-be/internal/model"
)

type TrackRecordMapper struct{}

func NewTrackRecordMapper() *TrackRecordMapper {
	return &TrackRecordMapper{}
}

func (m *TrackRecordMapper) ToEntity(r *model.TrackRecord) (*entity.TrackRecord, error) {
	if r == nil {
		return nil, nil
	}

	payload := map[string]interface{}{}
	if len(r.Payload) > 0 {
		if err := json.Unmarshal(r.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode track record payload: %w", err)
		}
	}

	return &entity.TrackRecord{
		Id:        r.Id,
		SessionId: r.SessionId,
		UserId:    r.UserId,
		Payload:   payload,
		CreatedAt: r.CreatedAt,
	}, nil
}

func (m *TrackRecordMapper) ToModel(r *entity.TrackRecord) (*model.TrackRecord, error) {
	if r == nil {
		return nil, nil
	}

	payload, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode track record payload: %w", err)
	}

	return &model.TrackRecord{
		Id:        r.Id,
		SessionId: r.SessionId,
		UserId:    r.UserId,
		Payload:   payload,
		CreatedAt: r.CreatedAt,
	}, nil
}

func (m *TrackRecordMapper) DocumentToEntity(d *model.GeneratedDocument) *entity.GeneratedDocument {
	if d == nil {
		return nil
	}
	var objectKey string
	if d.ObjectKey != nil {
		objectKey = *d.ObjectKey
	}
	return &entity.GeneratedDocument{
		Id:        d.Id,
		SessionId: d.SessionId,
		Kind:      d.Kind,
		Content:   d.Content,
		ObjectKey: objectKey,
		CreatedAt: d.CreatedAt,
	}
}

func (m *TrackRecordMapper) DocumentToModel(d *entity.GeneratedDocument) *model.GeneratedDocument {
	if d == nil {
		return nil
	}
	var objectKey *string
	if d.ObjectKey != "" {
		k := d.ObjectKey
		objectKey = &k
	}
	return &model.GeneratedDocument{
		Id:        d.Id,
		SessionId: d.SessionId,
		Kind:      d.Kind,
		Content:   d.Content,
		ObjectKey: objectKey,
		CreatedAt: d.CreatedAt,
	}
}
