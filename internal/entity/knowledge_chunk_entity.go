package entity

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeChunk is one reference snippet in a knowledge domain.
type KnowledgeChunk struct {
	Id        uuid.UUID
	Domain    string
	Content   string
	Source    string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// ScoredKnowledgeChunk pairs a chunk with its similarity to a query.
type ScoredKnowledgeChunk struct {
	Chunk      *KnowledgeChunk
	Similarity float64
}
