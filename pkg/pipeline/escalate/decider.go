// Package escalate holds the resolve/escalate state machine.
package escalate

import (
	"contactiq-be/pkg/pipeline"
)

// Policy is injected configuration for the decision rules.
type Policy struct {
	// ConfidenceThreshold is the minimum confidence for automated
	// resolution.
	ConfidenceThreshold float64

	// SensitiveAllowList names the sensitive intents that may still be
	// automated. An allow-list, not a default: every other sensitive
	// intent escalates no matter how confident the answer is.
	SensitiveAllowList map[string]bool

	// UngroundedIntents are intents answered without knowledge-base
	// content (greetings, guidance). A no-match retrieval does not force
	// escalation for these.
	UngroundedIntents map[string]bool
}

// DefaultPolicy uses the production threshold with no sensitive overrides.
func DefaultPolicy() Policy {
	return Policy{
		ConfidenceThreshold: 0.68,
		SensitiveAllowList:  map[string]bool{},
		UngroundedIntents: map[string]bool{
			"greeting":             true,
			"general_conversation": true,
			"unknown":              true,
		},
	}
}

type Decider struct {
	policy Policy
}

func NewDecider(policy Policy) *Decider {
	return &Decider{policy: policy}
}

// Decide evaluates the transition rules in fixed order; the first match
// wins. Category rules precede the confidence rule on purpose: a
// high-confidence answer to a human_only or sensitive request is still
// unsafe to automate.
func (d *Decider) Decide(input pipeline.DecideInput) pipeline.Decision {
	if input.Category == pipeline.CategoryHumanOnly {
		return pipeline.Decision{ShouldEscalate: true, Reason: pipeline.ReasonHumanOnlyIntent}
	}

	if input.Category == pipeline.CategorySensitive && !d.policy.SensitiveAllowList[input.IntentName] {
		return pipeline.Decision{ShouldEscalate: true, Reason: pipeline.ReasonSensitiveIntent}
	}

	// The no-match rule runs before the confidence rule: no-match forces
	// confidence to 0, so checking confidence first would report the
	// generic low_confidence reason for every empty retrieval.
	if input.Retrieval != nil && input.Retrieval.NoMatch && !d.policy.UngroundedIntents[input.IntentName] {
		return pipeline.Decision{ShouldEscalate: true, Reason: pipeline.ReasonRetrievalEmpty}
	}

	if input.Confidence < d.policy.ConfidenceThreshold {
		return pipeline.Decision{ShouldEscalate: true, Reason: pipeline.ReasonLowConfidence}
	}

	return pipeline.Decision{ShouldEscalate: false}
}
