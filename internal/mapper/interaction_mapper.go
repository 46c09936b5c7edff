package mapper

import (
	"encoding/json"
	"time"

	"contactiq-be/internal/entity"
	"contactiq-be/internal/model"
	"contactiq-be/pkg/pipeline"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type InteractionMapper struct{}

func NewInteractionMapper() *InteractionMapper {
	return &InteractionMapper{}
}

func (m *InteractionMapper) ToEntity(i *model.Interaction) *entity.Interaction {
	if i == nil {
		return nil
	}

	var passages []pipeline.Passage
	if len(i.RetrievedPassages) > 0 {
		// Corrupt rows keep a nil slice rather than failing the read
		_ = json.Unmarshal(i.RetrievedPassages, &passages)
	}

	return &entity.Interaction{
		RequestId:         i.RequestId,
		SessionId:         i.SessionId,
		Mode:              i.Mode,
		QueryText:         i.QueryText,
		IntentName:        i.IntentName,
		IntentCategory:    i.IntentCategory,
		RetrievedPassages: passages,
		ResponseText:      i.ResponseText,
		Confidence:        i.Confidence,
		Outcome:           i.Outcome,
		EscalationReason:  i.EscalationReason,
		AcceptedBy:        i.AcceptedBy,
		AcceptedAt:        i.AcceptedAt,
		CreatedAt:         i.CreatedAt,
		CompletedAt:       i.CompletedAt,
		ProcessingTimeMs:  i.ProcessingTimeMs,
	}
}

func (m *InteractionMapper) ToModel(i *entity.Interaction) *model.Interaction {
	if i == nil {
		return nil
	}

	var passages datatypes.JSON
	if len(i.RetrievedPassages) > 0 {
		if data, err := json.Marshal(i.RetrievedPassages); err == nil {
			passages = datatypes.JSON(data)
		}
	}

	return &model.Interaction{
		RequestId:         i.RequestId,
		SessionId:         i.SessionId,
		Mode:              i.Mode,
		QueryText:         i.QueryText,
		IntentName:        i.IntentName,
		IntentCategory:    i.IntentCategory,
		RetrievedPassages: passages,
		ResponseText:      i.ResponseText,
		Confidence:        i.Confidence,
		Outcome:           i.Outcome,
		EscalationReason:  i.EscalationReason,
		AcceptedBy:        i.AcceptedBy,
		AcceptedAt:        i.AcceptedAt,
		CreatedAt:         i.CreatedAt,
		CompletedAt:       i.CompletedAt,
		ProcessingTimeMs:  i.ProcessingTimeMs,
	}
}

// FromPipeline converts an in-flight interaction into the persistence entity.
func (m *InteractionMapper) FromPipeline(i *pipeline.Interaction) *entity.Interaction {
	if i == nil {
		return nil
	}

	requestId, err := uuid.Parse(i.RequestID)
	if err != nil {
		// Caller-supplied ids are validated at the boundary; a bad one
		// here still gets a stable id derived from the raw string.
		requestId = uuid.NewSHA1(uuid.NameSpaceOID, []byte(i.RequestID))
	}

	var reason *string
	if i.EscalationReason != pipeline.ReasonNone {
		r := string(i.EscalationReason)
		reason = &r
	}

	var completedAt *time.Time
	if !i.CompletedAt.IsZero() {
		t := i.CompletedAt
		completedAt = &t
	}

	return &entity.Interaction{
		RequestId:         requestId,
		SessionId:         i.SessionID,
		Mode:              string(i.Mode),
		QueryText:         i.QueryText,
		IntentName:        i.IntentName,
		IntentCategory:    string(i.IntentCategory),
		RetrievedPassages: i.RetrievedPassages,
		ResponseText:      i.ResponseText,
		Confidence:        i.Confidence,
		Outcome:           string(i.Outcome),
		EscalationReason:  reason,
		CreatedAt:         i.CreatedAt,
		CompletedAt:       completedAt,
		ProcessingTimeMs:  i.ProcessingTimeMs,
	}
}
