package contract

import (
	"context"

	"contactiq-be/internal/entity"

	"github.com/google/uuid"
)

type KnowledgeChunkRepository interface {
	Create(ctx context.Context, chunk *entity.KnowledgeChunk, embedding []float32) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByDomain(ctx context.Context, domain string) error

	// SearchSimilarWithScore returns chunks in one domain ranked by cosine
	// similarity, filtered by threshold.
	SearchSimilarWithScore(ctx context.Context, domain string, embedding []float32, limit int, threshold float64) ([]*entity.ScoredKnowledgeChunk, error)
}
