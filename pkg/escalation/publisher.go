// Package escalation fans escalated interactions out to downstream
// consumers (agent consoles, the event bus) without blocking the pipeline.
package escalation

import (
	"context"
	"time"

	"contactiq-be/internal/pkg/logger"
	pkgEvents "contactiq-be/pkg/events"
	pkgNats "contactiq-be/pkg/nats"
	"contactiq-be/pkg/pipeline"
)

// Publisher abstracts escalation event publishing.
type Publisher interface {
	PublishEscalationRaised(ctx context.Context, summary pipeline.EscalationSummary)
	PublishHandoffAccepted(ctx context.Context, requestId, agentId string)
}

// NatsPublisher implements Publisher using NATS. A nil inner publisher
// turns every publish into a no-op so the pipeline runs without a bus.
type NatsPublisher struct {
	publisher *pkgNats.Publisher
	logger    logger.ILogger
}

// NewNatsPublisher creates a new NATS-based escalation publisher.
func NewNatsPublisher(publisher *pkgNats.Publisher, logger logger.ILogger) *NatsPublisher {
	return &NatsPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishEscalationRaised emits ESCALATION_RAISED for a handed-off request.
func (p *NatsPublisher) PublishEscalationRaised(ctx context.Context, summary pipeline.EscalationSummary) {
	if p.publisher == nil {
		return
	}

	evt := pkgEvents.BaseEvent{
		Type: "ESCALATION_RAISED",
		Data: map[string]interface{}{
			"request_id":      summary.RequestID,
			"session_id":      summary.SessionID,
			"mode":            string(summary.Mode),
			"query_text":      summary.QueryText,
			"intent_name":     summary.IntentName,
			"intent_category": string(summary.Category),
			"reason":          string(summary.Reason),
			"confidence":      summary.Confidence,
			"occurred_at":     summary.OccurredAt,
		},
		OccurredAt: summary.OccurredAt,
	}

	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error("ESCALATION", "Failed to publish ESCALATION_RAISED event", map[string]interface{}{"error": err.Error(), "request_id": summary.RequestID})
	}
}

// PublishHandoffAccepted emits HANDOFF_ACCEPTED when an agent claims a case.
func (p *NatsPublisher) PublishHandoffAccepted(ctx context.Context, requestId, agentId string) {
	if p.publisher == nil {
		return
	}

	now := time.Now()
	evt := pkgEvents.BaseEvent{
		Type: "HANDOFF_ACCEPTED",
		Data: map[string]interface{}{
			"request_id":  requestId,
			"agent_id":    agentId,
			"occurred_at": now,
		},
		OccurredAt: now,
	}

	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error("ESCALATION", "Failed to publish HANDOFF_ACCEPTED event", map[string]interface{}{"error": err.Error(), "request_id": requestId})
	}
}
