package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TrackRecord struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId string         `gorm:"type:varchar(64);not null;index"`
	UserId    string         `gorm:"type:varchar(64);index"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"default:now();not null;index"`
}

func (TrackRecord) TableName() string {
	return "track_records"
}

type GeneratedDocument struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId string    `gorm:"type:varchar(64);not null;index"`
	Kind      string    `gorm:"type:varchar(50);not null"`
	Content   string    `gorm:"type:text;not null"`
	ObjectKey *string   `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"default:now();not null;index"`
}

func (GeneratedDocument) TableName() string {
	return "generated_documents"
}
