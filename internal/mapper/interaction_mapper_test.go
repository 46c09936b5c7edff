package mapper

import (
	"testing"
	"time"

	"contactiq-be/pkg/pipeline"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFromPipeline(t *testing.T) {
	m := NewInteractionMapper()

	requestId := uuid.NewString()
	completed := time.Now()

	interaction := &pipeline.Interaction{
		RequestID:      requestId,
		SessionID:      "s1",
		Mode:           pipeline.ModeCustomer,
		QueryText:      "why the fee?",
		IntentName:     "fee_inquiry",
		IntentCategory: pipeline.CategoryAutomatable,
		RetrievedPassages: []pipeline.Passage{
			{Text: "fee schedule", Source: "fees.md", Score: 0.9},
		},
		ResponseText:     "because [1]",
		Confidence:       0.8,
		Outcome:          pipeline.OutcomeResolved,
		EscalationReason: pipeline.ReasonNone,
		CreatedAt:        completed.Add(-time.Second),
		CompletedAt:      completed,
		ProcessingTimeMs: 1000,
	}

	entity := m.FromPipeline(interaction)
	assert.Equal(t, requestId, entity.RequestId.String())
	assert.Equal(t, "customer", entity.Mode)
	assert.Equal(t, "resolved", entity.Outcome)
	assert.Nil(t, entity.EscalationReason)
	assert.NotNil(t, entity.CompletedAt)
	assert.Len(t, entity.RetrievedPassages, 1)
}

func TestFromPipelineEscalationReason(t *testing.T) {
	m := NewInteractionMapper()

	entity := m.FromPipeline(&pipeline.Interaction{
		RequestID:        uuid.NewString(),
		Outcome:          pipeline.OutcomeEscalated,
		EscalationReason: pipeline.ReasonSensitiveIntent,
	})
	assert.NotNil(t, entity.EscalationReason)
	assert.Equal(t, "sensitive_intent", *entity.EscalationReason)

	// In-flight records have no completion timestamp yet.
	assert.Nil(t, entity.CompletedAt)
}

func TestFromPipelineNonUUIDRequestIdIsStable(t *testing.T) {
	m := NewInteractionMapper()

	first := m.FromPipeline(&pipeline.Interaction{RequestID: "req-legacy-42"})
	second := m.FromPipeline(&pipeline.Interaction{RequestID: "req-legacy-42"})

	assert.NotEqual(t, uuid.Nil, first.RequestId)
	assert.Equal(t, first.RequestId, second.RequestId)
}

func TestModelRoundTrip(t *testing.T) {
	m := NewInteractionMapper()

	reason := "low_confidence"
	completed := time.Now().Truncate(time.Millisecond)
	source := m.FromPipeline(&pipeline.Interaction{
		RequestID:        uuid.NewString(),
		SessionID:        "s2",
		Mode:             pipeline.ModeBanker,
		QueryText:        "offset eligibility?",
		IntentName:       "eligibility_criteria",
		IntentCategory:   pipeline.CategoryAutomatable,
		ResponseText:     "escalated",
		Confidence:       0.4,
		Outcome:          pipeline.OutcomeEscalated,
		EscalationReason: pipeline.ReasonLowConfidence,
		CompletedAt:      completed,
		RetrievedPassages: []pipeline.Passage{
			{Text: "rules", Source: "products.md", Score: 0.5},
		},
	})

	restored := m.ToEntity(m.ToModel(source))
	assert.Equal(t, source.RequestId, restored.RequestId)
	assert.Equal(t, source.QueryText, restored.QueryText)
	assert.Equal(t, &reason, restored.EscalationReason)
	assert.Equal(t, source.RetrievedPassages, restored.RetrievedPassages)
}
