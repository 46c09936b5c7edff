package entity

import (
	"time"

	"contactiq-be/pkg/pipeline"

	"github.com/google/uuid"
)

// Interaction is the durable audit record for one processed request.
type Interaction struct {
	RequestId         uuid.UUID
	SessionId         string
	Mode              string
	QueryText         string
	IntentName        string
	IntentCategory    string
	RetrievedPassages []pipeline.Passage
	ResponseText      string
	Confidence        float64
	Outcome           string
	EscalationReason  *string
	AcceptedBy        *string
	AcceptedAt        *time.Time
	CreatedAt         time.Time
	CompletedAt       *time.Time
	ProcessingTimeMs  int64
}
