package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Interaction struct {
	RequestId         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	SessionId         string         `gorm:"type:text;not null;index"`
	Mode              string         `gorm:"type:varchar(16);not null"`
	QueryText         string         `gorm:"type:text;not null"`
	IntentName        string         `gorm:"type:varchar(64)"`
	IntentCategory    string         `gorm:"type:varchar(16);check:intent_category IN ('automatable','sensitive','human_only')"`
	RetrievedPassages datatypes.JSON `gorm:"type:jsonb"`
	ResponseText      string         `gorm:"type:text"`
	Confidence        float64        `gorm:"check:confidence >= 0 AND confidence <= 1"`
	Outcome           string         `gorm:"type:varchar(16);not null;index;check:outcome IN ('processing','resolved','escalated','failed')"`
	EscalationReason  *string        `gorm:"type:varchar(32)"`
	AcceptedBy        *string        `gorm:"type:varchar(128)"`
	AcceptedAt        *time.Time
	CreatedAt         time.Time      `gorm:"autoCreateTime;index"`
	CompletedAt       *time.Time
	ProcessingTimeMs  int64 `gorm:"default:0"`
}

func (Interaction) TableName() string {
	return "interactions"
}
