package implementation

import (
	"context"

	"contactiq-be/internal/entity"
	"contactiq-be/internal/mapper"
	"contactiq-be/internal/model"
	"contactiq-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KnowledgeChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeChunkMapper
}

func NewKnowledgeChunkRepository(db *gorm.DB) contract.KnowledgeChunkRepository {
	return &KnowledgeChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeChunkMapper(),
	}
}

func (r *KnowledgeChunkRepositoryImpl) Create(ctx context.Context, chunk *entity.KnowledgeChunk, embedding []float32) error {
	m := &model.KnowledgeChunk{
		Id:             chunk.Id,
		Domain:         chunk.Domain,
		Content:        chunk.Content,
		Source:         chunk.Source,
		EmbeddingValue: pgvector.NewVector(embedding),
	}
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*chunk = *r.mapper.ToEntity(m)
	return nil
}

func (r *KnowledgeChunkRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.KnowledgeChunk{}, id).Error
}

func (r *KnowledgeChunkRepositoryImpl) DeleteByDomain(ctx context.Context, domain string) error {
	return r.db.WithContext(ctx).Where("domain = ?", domain).Delete(&model.KnowledgeChunk{}).Error
}

// SearchSimilarWithScore returns chunks with similarity scores, filtered by threshold.
// Cosine distance in pgvector is 1 - cosine_similarity, so we compute
// 1 - (embedding_value <=> query_vector) = cosine_similarity.
func (r *KnowledgeChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, domain string, embedding []float32, limit int, threshold float64) ([]*entity.ScoredKnowledgeChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.KnowledgeChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("knowledge_chunks").
		Select("knowledge_chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("domain = ?", domain).
		Where("deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredKnowledgeChunk, len(results))
	for i, res := range results {
		chunk := res.KnowledgeChunk
		scored[i] = &entity.ScoredKnowledgeChunk{
			Chunk:      r.mapper.ToEntity(&chunk),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
