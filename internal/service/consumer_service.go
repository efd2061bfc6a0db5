package service

import (
	"context"
	"encoding/json"
	"sync"

	"trackbot-be/internal/dto"
	"trackbot-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// maxIngestAttempts bounds redelivery of a failing ingestion message.
const maxIngestAttempts = 3

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	indexer   knowledgeIndexer
	logger    logger.ILogger

	mu       sync.Mutex
	attempts map[string]int
}

type knowledgeIndexer interface {
	Index(ctx context.Context, source, content string) (int, error)
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	indexer *KnowledgeIndexer,
	log logger.ILogger,
) IConsumerService {
	return newConsumerService(pubSub, topicName, indexer, log)
}

func newConsumerService(pubSub *gochannel.GoChannel, topicName string, indexer knowledgeIndexer, log logger.ILogger) *consumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		indexer:   indexer,
		logger:    log,
		attempts:  make(map[string]int),
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestKnowledgeMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("KNOWLEDGE", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // invalid payloads are never retried
		return
	}

	n, err := cs.indexer.Index(ctx, payload.Source, payload.Content)
	if err != nil {
		if cs.retry(msg.UUID) {
			cs.logger.Warn("KNOWLEDGE", "Ingestion failed, retrying", map[string]interface{}{
				"source": payload.Source,
				"error":  err.Error(),
			})
			msg.Nack()
			return
		}
		cs.logger.Error("KNOWLEDGE", "Ingestion failed, giving up", map[string]interface{}{
			"source": payload.Source,
			"error":  err.Error(),
		})
		msg.Ack()
		return
	}

	cs.forget(msg.UUID)
	cs.logger.Info("KNOWLEDGE", "Ingestion message processed", map[string]interface{}{
		"source": payload.Source,
		"chunks": n,
	})
	msg.Ack()
}

// retry records one more failed attempt and reports whether another
// delivery is allowed.
func (cs *consumerService) retry(id string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.attempts[id]++
	if cs.attempts[id] >= maxIngestAttempts {
		delete(cs.attempts, id)
		return false
	}
	return true
}

func (cs *consumerService) forget(id string) {
	cs.mu.Lock()
	delete(cs.attempts, id)
	cs.mu.Unlock()
}
