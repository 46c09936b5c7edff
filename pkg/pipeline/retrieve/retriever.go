// Package retrieve fetches reference passages through the knowledge
// gateway and normalizes their ranking.
package retrieve

import (
	"context"
	"fmt"
	"sort"

	"contactiq-be/internal/pkg/logger"
	"contactiq-be/pkg/knowledge"
	"contactiq-be/pkg/pipeline"
	"contactiq-be/pkg/resilience"
)

// Config bounds one retrieval call.
type Config struct {
	TopK       int
	ScoreFloor float64
}

func DefaultConfig() Config {
	return Config{
		TopK:       5,
		ScoreFloor: 0.35,
	}
}

type Retriever struct {
	provider knowledge.Provider
	breaker  *resilience.Breaker
	retry    resilience.RetryConfig
	config   Config
	logger   logger.ILogger
}

func NewRetriever(provider knowledge.Provider, breaker *resilience.Breaker, retry resilience.RetryConfig, config Config, log logger.ILogger) *Retriever {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Retriever{
		provider: provider,
		breaker:  breaker,
		retry:    retry,
		config:   config,
		logger:   log,
	}
}

// Retrieve returns ranked passages, or the explicit no-match marker when the
// domain genuinely has nothing above the score floor. Gateway failures come
// back as RetrievalUnavailable, never as an empty result.
func (r *Retriever) Retrieve(ctx context.Context, domain string, query string) (*pipeline.RetrievalResult, error) {
	var passages []pipeline.Passage
	err := resilience.CallThrough(ctx, r.breaker, r.retry, func() error {
		var callErr error
		passages, callErr = r.provider.Search(ctx, domain, query, r.config.TopK, r.config.ScoreFloor)
		return callErr
	})
	if err != nil {
		r.logger.Error("RETRIEVE", "Knowledge gateway call failed", map[string]interface{}{
			"error":  err.Error(),
			"domain": domain,
		})
		return nil, fmt.Errorf("%w: %v", pipeline.ErrRetrievalUnavailable, err)
	}

	if len(passages) == 0 {
		r.logger.Info("RETRIEVE", "No matching content in domain", map[string]interface{}{"domain": domain})
		return &pipeline.RetrievalResult{NoMatch: true}, nil
	}

	ranked := rank(passages)
	return &pipeline.RetrievalResult{Passages: ranked}, nil
}

// rank orders by gateway score descending; ties prefer the shorter passage,
// which packs denser context into the prompt budget.
func rank(passages []pipeline.Passage) []pipeline.Passage {
	ranked := make([]pipeline.Passage, len(passages))
	copy(ranked, passages)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return len(ranked[i].Text) < len(ranked[j].Text)
	})
	return ranked
}
