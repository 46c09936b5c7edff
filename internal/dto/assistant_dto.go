package dto

import (
	"time"

	"contactiq-be/pkg/pipeline"
)

type QueryRequest struct {
	SessionId string `json:"session_id" validate:"required,max=128"`
	Mode      string `json:"mode" validate:"required,oneof=customer banker"`
	Query     string `json:"query" validate:"required,max=4000"`
	RequestId string `json:"request_id,omitempty" validate:"omitempty,uuid4"`
}

type QueryResponse struct {
	RequestId        string  `json:"request_id"`
	ResponseText     string  `json:"response_text"`
	Outcome          string  `json:"outcome"`
	EscalationReason string  `json:"escalation_reason,omitempty"`
	Confidence       float64 `json:"confidence"`
	IntentName       string  `json:"intent_name,omitempty"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
}

func QueryResponseFromResult(result *pipeline.Result) *QueryResponse {
	return &QueryResponse{
		RequestId:        result.RequestID,
		ResponseText:     result.ResponseText,
		Outcome:          string(result.Outcome),
		EscalationReason: string(result.EscalationReason),
		Confidence:       result.Confidence,
		IntentName:       result.IntentName,
		ProcessingTimeMs: result.ProcessingTimeMs,
	}
}

type InteractionListRequest struct {
	SessionId string `query:"session_id"`
	Outcome   string `query:"outcome" validate:"omitempty,oneof=processing resolved escalated failed"`
	Mode      string `query:"mode" validate:"omitempty,oneof=customer banker"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset    int    `query:"offset" validate:"omitempty,min=0"`
}

type InteractionResponse struct {
	RequestId        string             `json:"request_id"`
	SessionId        string             `json:"session_id"`
	Mode             string             `json:"mode"`
	QueryText        string             `json:"query_text"`
	IntentName       string             `json:"intent_name"`
	IntentCategory   string             `json:"intent_category"`
	Passages         []pipeline.Passage `json:"retrieved_passages,omitempty"`
	ResponseText     string             `json:"response_text"`
	Confidence       float64            `json:"confidence"`
	Outcome          string             `json:"outcome"`
	EscalationReason *string            `json:"escalation_reason,omitempty"`
	AcceptedBy       *string            `json:"accepted_by,omitempty"`
	AcceptedAt       *time.Time         `json:"accepted_at,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
	ProcessingTimeMs int64              `json:"processing_time_ms"`
}

type InteractionListResponse struct {
	Interactions []*InteractionResponse `json:"interactions"`
	Total        int64                  `json:"total"`
}
