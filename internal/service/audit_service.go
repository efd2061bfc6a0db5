package service

import (
	"context"

	"trackbot-be/internal/pkg/logger"
	"trackbot-be/pkg/events"
	pktNats "trackbot-be/pkg/nats"
)

// AuditService writes every bus event to the application log.
type AuditService struct {
	subscriber *pktNats.Subscriber
	logger     logger.ILogger
}

func NewAuditService(sub *pktNats.Subscriber, log logger.ILogger) *AuditService {
	return &AuditService{
		subscriber: sub,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *AuditService) Start() {
	err := s.subscriber.Subscribe("events.>", "trackbot-audit-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("AUDIT", "Failed to start audit subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("AUDIT", "Audit service started, listening to events.>", nil)
}

func (s *AuditService) handleEvent(_ context.Context, event events.Event) error {
	details := map[string]interface{}{
		"type":        event.EventType(),
		"occurred_at": event.Timestamp(),
	}
	for k, v := range event.Payload() {
		details[k] = v
	}
	s.logger.Info("AUDIT", "Event received", details)
	return nil
}
