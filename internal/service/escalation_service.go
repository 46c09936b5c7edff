package service

import (
	"context"
	"encoding/json"

	"contactiq-be/internal/pkg/logger"
	"contactiq-be/internal/websocket"
	"contactiq-be/pkg/escalation"
	"contactiq-be/pkg/pipeline"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IEscalationService decouples the pipeline's escalation hook from the
// delivery fan-out. The hook runs on the request path, so publishing to
// the in-process bus must stay cheap.
type IEscalationService interface {
	Raise(ctx context.Context, summary pipeline.EscalationSummary)
	Consume(ctx context.Context) error
}

type escalationService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	natsPub   *escalation.NatsPublisher
	hub       *websocket.Hub
	logger    logger.ILogger
}

func NewEscalationService(
	pubSub *gochannel.GoChannel,
	topicName string,
	natsPub *escalation.NatsPublisher,
	hub *websocket.Hub,
	log logger.ILogger,
) IEscalationService {
	return &escalationService{
		pubSub:    pubSub,
		topicName: topicName,
		natsPub:   natsPub,
		hub:       hub,
		logger:    log,
	}
}

// Raise publishes the escalation onto the in-process bus.
func (es *escalationService) Raise(ctx context.Context, summary pipeline.EscalationSummary) {
	payload, err := json.Marshal(summary)
	if err != nil {
		es.logger.Error("EscalationService", "Failed to serialize escalation", map[string]interface{}{
			"request_id": summary.RequestID,
			"error":      err.Error(),
		})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := es.pubSub.Publish(es.topicName, msg); err != nil {
		es.logger.Error("EscalationService", "Failed to publish escalation", map[string]interface{}{
			"request_id": summary.RequestID,
			"error":      err.Error(),
		})
	}
}

// Consume starts the fan-out worker: agent consoles over the websocket hub
// and downstream systems over NATS.
func (es *escalationService) Consume(ctx context.Context) error {
	messages, err := es.pubSub.Subscribe(ctx, es.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			es.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (es *escalationService) processMessage(ctx context.Context, msg *message.Message) {
	var summary pipeline.EscalationSummary
	if err := json.Unmarshal(msg.Payload, &summary); err != nil {
		es.logger.Error("EscalationService", "Failed to unmarshal escalation, dropping", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack()
		return
	}

	if es.hub != nil {
		es.hub.BroadcastEscalation(summary)
	}
	if es.natsPub != nil {
		es.natsPub.PublishEscalationRaised(ctx, summary)
	}

	es.logger.Info("EscalationService", "Escalation delivered", map[string]interface{}{
		"request_id": summary.RequestID,
		"reason":     string(summary.Reason),
		"mode":       string(summary.Mode),
	})
	msg.Ack()
}
