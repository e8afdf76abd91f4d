package service

import (
	"context"
	"encoding/json"

	"chartnotes-be/internal/dto"
	"chartnotes-be/internal/pkg/logger"
	"chartnotes-be/pkg/events"
	"chartnotes-be/pkg/rag/indexer"
	"chartnotes-be/pkg/rag/state"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the async indexing topic. Uploads are accepted
// on the API immediately and the chunk/summarize/embed work happens here.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	indexer   indexer.IIndexer
	sessions  state.IManager
	publisher IEventPublisher
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	ix indexer.IIndexer,
	sessions state.IManager,
	publisher IEventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		indexer:   ix,
		sessions:  sessions,
		publisher: publisher,
		logger:    log,
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
	var payload dto.IndexSessionMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("consumer", "Failed to unmarshal index message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	namespace := payload.TenantID + "-" + payload.PatientID
	cs.logger.Info("consumer", "Processing index message", map[string]interface{}{
		"namespace":    namespace,
		"session_date": payload.SessionDate,
		"is_history":   payload.IsHistory,
		"reindex":      payload.Reindex,
	})

	var chunks int
	var err error
	switch {
	case payload.IsHistory && payload.Reindex:
		chunks, err = cs.indexer.ReindexHistory(ctx, namespace, payload.Text)
	case payload.IsHistory:
		chunks, err = cs.indexer.IndexHistory(ctx, namespace, payload.Text)
	case payload.Reindex:
		chunks, err = cs.indexer.Reindex(ctx, namespace, payload.SessionDate, payload.Text)
	default:
		chunks, err = cs.indexer.Index(ctx, namespace, payload.SessionDate, payload.Text)
	}
	if err != nil {
		cs.logger.Error("consumer", "Indexing failed", map[string]interface{}{
			"namespace":    namespace,
			"session_date": payload.SessionDate,
			"error":        err.Error(),
		})
		msg.Nack() // Nack for retriable errors
		return
	}

	// A queued upload is still a data mutation: drop the stale
	// conversation and announce the write, same as the synchronous path.
	if err := cs.sessions.ResetIfActive(ctx, payload.TenantID, payload.PatientID); err != nil {
		cs.logger.Warn("consumer", "Failed to reset conversation after data change", map[string]interface{}{
			"tenant_id":  payload.TenantID,
			"patient_id": payload.PatientID,
			"error":      err.Error(),
		})
	}
	if cs.publisher != nil {
		event := events.NewSessionIndexed(payload.TenantID, payload.PatientID, payload.SessionDate, chunks)
		if err := cs.publisher.Publish(ctx, event); err != nil {
			cs.logger.Warn("consumer", "Failed to publish event", map[string]interface{}{
				"event_type": event.EventType(),
				"error":      err.Error(),
			})
		}
	}

	cs.logger.Info("consumer", "Session indexed", map[string]interface{}{
		"namespace":    namespace,
		"session_date": payload.SessionDate,
		"chunks":       chunks,
	})
	msg.Ack()
}
