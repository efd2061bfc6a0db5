package dto

import (
	"time"

	"trackbot-be/pkg/rag/dialogue"
)

type CreateTrackSessionResponse struct {
	Id       string            `json:"id"`
	Snapshot dialogue.Snapshot `json:"snapshot"`
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

type SendMessageResponse struct {
	SessionId  string            `json:"session_id"`
	Messages   []string          `json:"messages"`
	Status     string            `json:"status,omitempty"`
	Reanalyzed bool              `json:"reanalyzed"`
	Snapshot   dialogue.Snapshot `json:"snapshot"`
}

type TurnDTO struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type ShowTrackSessionResponse struct {
	Id            string                 `json:"id"`
	Record        map[string]interface{} `json:"record"`
	MissingFields []string               `json:"missing_fields"`
	Questions     []string               `json:"questions"`
	Log           []TurnDTO              `json:"log"`
	Snapshot      dialogue.Snapshot      `json:"snapshot"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

type SaveRecordResponse struct {
	Message string                 `json:"message"`
	Record  map[string]interface{} `json:"record"`
}

type GenerateDocumentRequest struct {
	Kind string `json:"kind" validate:"required"`
}

type GeneratedDocumentResponse struct {
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ObjectKey string    `json:"object_key,omitempty"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PublishIngestKnowledgeMessage is the watermill payload on the knowledge
// topic.
type PublishIngestKnowledgeMessage struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

type IngestKnowledgeRequest struct {
	Source  string `json:"source" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
	// Async hands the document to the background consumer instead of
	// embedding it inside the request.
	Async bool `json:"async"`
}

type IngestKnowledgeResponse struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
	Queued bool   `json:"queued"`
}

type KnowledgeStatsResponse struct {
	Chunks int64 `json:"chunks"`
}

type DeleteKnowledgeRequest struct {
	Source string `json:"source" validate:"required"`
}

type TrackRecordResponse struct {
	Id        string                 `json:"id"`
	SessionId string                 `json:"session_id"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
}
