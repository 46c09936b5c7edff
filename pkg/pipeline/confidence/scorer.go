// Package confidence derives a deterministic confidence estimate for a
// generated answer from retrieval strength and citation coverage.
package confidence

import (
	"contactiq-be/pkg/pipeline"
)

// Weights is injected policy. The floor and ceiling rules in Score are
// structural and apply regardless of these values.
type Weights struct {
	// RetrievalWeight scales the top passage's relevance score.
	RetrievalWeight float64

	// CoverageWeight scales the fraction of retrieved passages the answer
	// actually cites.
	CoverageWeight float64

	// NoContextCap is the maximum confidence when the answer was produced
	// without retrieval context.
	NoContextCap float64

	// SensitiveCeiling caps confidence for the sensitive category. Must be
	// below 1.0 so sensitive answers stay biased toward escalation.
	SensitiveCeiling float64

	// CannedConfidence is assigned to fixed responses (greeting, guidance)
	// that bypass retrieval and generation.
	CannedConfidence float64
}

// DefaultWeights splits the estimate evenly between retrieval strength and
// citation coverage.
func DefaultWeights() Weights {
	return Weights{
		RetrievalWeight:  0.5,
		CoverageWeight:   0.5,
		NoContextCap:     0.2,
		SensitiveCeiling: 0.6,
		CannedConfidence: 0.9,
	}
}

type Scorer struct {
	weights Weights
}

func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Score returns a confidence in [0,1].
//
// Structural rules, in order:
//   - no-match retrieval scores exactly 0
//   - a declined answer scores 0
//   - no-context answers never exceed NoContextCap
//   - sensitive-category answers never exceed SensitiveCeiling
func (s *Scorer) Score(input pipeline.ScoreInput) float64 {
	if input.Retrieval != nil && input.Retrieval.NoMatch {
		return 0
	}
	if input.Draft != nil && input.Draft.Declined {
		return 0
	}

	var score float64
	if input.Draft != nil && input.Draft.Canned {
		score = s.weights.CannedConfidence
	} else {
		strength := clamp01(input.Retrieval.TopScore())

		coverage := 0.0
		if input.Draft != nil && len(input.Draft.Citations) > 0 && input.Retrieval != nil && len(input.Retrieval.Passages) > 0 {
			coverage = clamp01(float64(len(input.Draft.Citations)) / float64(len(input.Retrieval.Passages)))
		}

		score = s.weights.RetrievalWeight*strength + s.weights.CoverageWeight*coverage
	}

	if input.NoContext && score > s.weights.NoContextCap {
		score = s.weights.NoContextCap
	}
	if input.Category == pipeline.CategorySensitive && score > s.weights.SensitiveCeiling {
		score = s.weights.SensitiveCeiling
	}

	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
