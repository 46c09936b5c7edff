package mapper

import (
	"contactiq-be/internal/entity"
	"contactiq-be/internal/model"
)

type KnowledgeChunkMapper struct{}

func NewKnowledgeChunkMapper() *KnowledgeChunkMapper {
	return &KnowledgeChunkMapper{}
}

func (m *KnowledgeChunkMapper) ToEntity(c *model.KnowledgeChunk) *entity.KnowledgeChunk {
	if c == nil {
		return nil
	}
	updatedAt := c.UpdatedAt
	return &entity.KnowledgeChunk{
		Id:        c.Id,
		Domain:    c.Domain,
		Content:   c.Content,
		Source:    c.Source,
		CreatedAt: c.CreatedAt,
		UpdatedAt: &updatedAt,
	}
}
