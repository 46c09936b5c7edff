package pipeline

import "context"

// IntentClassifier labels a query with an intent name and handling category.
type IntentClassifier interface {
	Classify(ctx context.Context, mode Mode, query string, history []Turn) (*Classification, error)
}

// Router maps (mode, category) onto a knowledge domain and policy. Pure.
type Router interface {
	Route(mode Mode, category Category) (*Route, error)
}

// Retriever fetches and ranks reference passages for a domain.
type Retriever interface {
	Retrieve(ctx context.Context, domain string, query string) (*RetrievalResult, error)
}

// GenerateInput is everything the response generator needs for one draft.
type GenerateInput struct {
	Mode           Mode
	Query          string
	Classification *Classification
	Retrieval      *RetrievalResult
	NoContext      bool
	History        []Turn
}

// ResponseGenerator produces a grounded answer with citations, or a
// decline message when no usable context exists.
type ResponseGenerator interface {
	Generate(ctx context.Context, input GenerateInput) (*Draft, error)
	Canned(mode Mode, intentName string) (*Draft, bool)
}

// ScoreInput bundles the evidence the confidence scorer weighs.
type ScoreInput struct {
	Category  Category
	Retrieval *RetrievalResult
	Draft     *Draft
	NoContext bool
}

// ConfidenceScorer derives a confidence estimate in [0,1]. Pure.
type ConfidenceScorer interface {
	Score(input ScoreInput) float64
}

// DecideInput is the state the escalation machine evaluates.
type DecideInput struct {
	IntentName string
	Category   Category
	Confidence float64
	Retrieval  *RetrievalResult
	Route      *Route
}

// EscalationDecider resolves the terminal outcome for a scored answer. Pure.
type EscalationDecider interface {
	Decide(input DecideInput) Decision
}

// AuditSink accepts finalized interactions for durable, off-path logging.
// Enqueue must never block the caller.
type AuditSink interface {
	Enqueue(interaction *Interaction)
}

// EscalationHook is invoked synchronously before an escalated result is
// returned, so a human-agent system can pick up the handoff.
type EscalationHook func(ctx context.Context, summary EscalationSummary)
