package knowledge

import (
	"context"
	"fmt"

	"contactiq-be/internal/pkg/logger"
	"contactiq-be/internal/repository/contract"
	"contactiq-be/pkg/embedding"
	"contactiq-be/pkg/pipeline"
)

// PgvectorProvider searches the knowledge_chunks table by cosine similarity.
type PgvectorProvider struct {
	chunks   contract.KnowledgeChunkRepository
	embedder embedding.EmbeddingProvider
	logger   logger.ILogger
}

func NewPgvectorProvider(chunks contract.KnowledgeChunkRepository, embedder embedding.EmbeddingProvider, log logger.ILogger) *PgvectorProvider {
	return &PgvectorProvider{
		chunks:   chunks,
		embedder: embedder,
		logger:   log,
	}
}

func (p *PgvectorProvider) Search(ctx context.Context, domain, query string, topK int, scoreFloor float64) ([]pipeline.Passage, error) {
	resp, err := p.embedder.Generate(query, "retrieval_query")
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := p.chunks.SearchSimilarWithScore(ctx, domain, resp.Embedding.Values, topK, scoreFloor)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	passages := make([]pipeline.Passage, 0, len(scored))
	for _, s := range scored {
		if s.Chunk == nil {
			continue
		}
		passages = append(passages, pipeline.Passage{
			Text:   s.Chunk.Content,
			Source: s.Chunk.Source,
			Score:  s.Similarity,
		})
	}

	p.logger.Debug("KNOWLEDGE", "Similarity search completed", map[string]interface{}{
		"domain":  domain,
		"matches": len(passages),
	})

	return passages, nil
}
