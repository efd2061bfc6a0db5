package events

import (
	"context"
	"time"
)

const (
	TypeTrackRecordSaved    = "TRACK_RECORD_SAVED"
	TypeExtractionCompleted = "EXTRACTION_COMPLETED"
	TypeDocumentGenerated   = "DOCUMENT_GENERATED"
)

// Publisher sends events to a bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when no broker is reachable.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func TrackRecordSaved(sessionID, userID, recordID string, fields int) Event {
	return BaseEvent{
		Type: TypeTrackRecordSaved,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"user_id":    userID,
			"record_id":  recordID,
			"fields":     fields,
		},
		OccurredAt: time.Now(),
	}
}

func ExtractionCompleted(sessionID, userID string, fields int) Event {
	return BaseEvent{
		Type: TypeExtractionCompleted,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"user_id":    userID,
			"fields":     fields,
		},
		OccurredAt: time.Now(),
	}
}

func DocumentGenerated(sessionID, kind, objectKey string) Event {
	return BaseEvent{
		Type: TypeDocumentGenerated,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"kind":       kind,
			"object_key": objectKey,
		},
		OccurredAt: time.Now(),
	}
}
