// Package knowledge is the retrieval gateway: given a domain and a query,
// it returns ranked reference passages with provenance.
package knowledge

import (
	"context"

	"contactiq-be/pkg/pipeline"
)

// Provider is the search contract the retriever calls. An empty result
// means the domain genuinely has no matching content above the floor;
// failures are returned as errors, never as empty results.
type Provider interface {
	Search(ctx context.Context, domain, query string, topK int, scoreFloor float64) ([]pipeline.Passage, error)
}
