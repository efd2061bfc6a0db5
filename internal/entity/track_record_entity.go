package entity

import (
	"time"

	"github.com/google/uuid"
)

// TrackRecord is a persisted, reshaped extraction record.
type TrackRecord struct {
	Id        uuid.UUID
	SessionId string
	UserId    string
	Payload   map[string]interface{}
	CreatedAt time.Time
}

type GeneratedDocument struct {
	Id        uuid.UUID
	SessionId string
	Kind      string
	Content   string
	ObjectKey string
	CreatedAt time.Time
}
