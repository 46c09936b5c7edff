package pipeline

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidMode is returned when a session mode outside the closed set is supplied.
	ErrInvalidMode = errors.New("pipeline: invalid session mode")

	// ErrEmptyQuery is returned when the query text is empty after trimming.
	ErrEmptyQuery = errors.New("pipeline: empty query")

	// ErrClassificationUnavailable signals the intent classifier could not produce a label.
	ErrClassificationUnavailable = errors.New("pipeline: classification unavailable")

	// ErrRetrievalUnavailable signals the knowledge gateway failed or timed out.
	ErrRetrievalUnavailable = errors.New("pipeline: retrieval unavailable")

	// ErrGenerationUnavailable signals the generative gateway failed or timed out.
	ErrGenerationUnavailable = errors.New("pipeline: generation unavailable")
)

// Mode identifies which assistant surface the session belongs to.
type Mode string

const (
	ModeCustomer Mode = "customer"
	ModeBanker   Mode = "banker"
)

// ParseMode validates a raw mode string against the closed set.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeCustomer:
		return ModeCustomer, nil
	case ModeBanker:
		return ModeBanker, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
	}
}

// Category is the handling requirement assigned to a classified intent.
type Category string

const (
	CategoryAutomatable Category = "automatable"
	CategorySensitive   Category = "sensitive"
	CategoryHumanOnly   Category = "human_only"
)

// Outcome is the terminal status of an interaction.
type Outcome string

const (
	OutcomeProcessing Outcome = "processing"
	OutcomeResolved   Outcome = "resolved"
	OutcomeEscalated  Outcome = "escalated"
	OutcomeFailed     Outcome = "failed"
)

// Reason explains why an interaction was escalated or failed.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonLowConfidence    Reason = "low_confidence"
	ReasonSensitiveIntent  Reason = "sensitive_intent"
	ReasonHumanOnlyIntent  Reason = "human_only_intent"
	ReasonRetrievalEmpty   Reason = "retrieval_empty"
	ReasonUpstreamFailure  Reason = "upstream_failure"
	ReasonDeadlineExceeded Reason = "deadline_exceeded"
)

// Turn is one prior exchange in the session, oldest first.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Classification is produced once per interaction and never re-derived.
type Classification struct {
	IntentName string   `json:"intent_name"`
	Category   Category `json:"intent_category"`
	Reason     string   `json:"reason"`
}

// Route maps a (mode, category) pair onto a knowledge domain and policy.
type Route struct {
	Domain              string `json:"domain"`
	MandatoryEscalation bool   `json:"mandatory_escalation"`

	// PolicyGap is set when the mode had no configured domain for the
	// category and fell back to the mode default.
	PolicyGap bool `json:"policy_gap"`
}

// Passage is one ranked reference snippet with provenance.
type Passage struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// RetrievalResult carries ranked passages. NoMatch distinguishes "searched
// and found nothing" from an empty list produced by a failed search.
type RetrievalResult struct {
	Passages []Passage `json:"passages"`
	NoMatch  bool      `json:"no_match"`
}

// TopScore returns the relevance score of the best passage, 0 when none.
func (r *RetrievalResult) TopScore() float64 {
	if r == nil || r.NoMatch || len(r.Passages) == 0 {
		return 0
	}
	return r.Passages[0].Score
}

// Draft is a generated answer with the passages it actually cites.
type Draft struct {
	Text      string    `json:"text"`
	Citations []Passage `json:"citations"`
	Declined  bool      `json:"declined"`
	Canned    bool      `json:"canned"`
	Tokens    int       `json:"tokens"`
}

// Decision is the terminal verdict of the escalation state machine.
type Decision struct {
	ShouldEscalate bool   `json:"should_escalate"`
	Reason         Reason `json:"reason"`
}

// Request is the single synchronous entry into the pipeline.
type Request struct {
	RequestID string
	SessionID string
	Mode      Mode
	Query     string
	History   []Turn
}

// Result is what the caller receives for one processed request.
type Result struct {
	RequestID        string  `json:"request_id"`
	ResponseText     string  `json:"response_text"`
	Outcome          Outcome `json:"outcome"`
	EscalationReason Reason  `json:"escalation_reason,omitempty"`
	Confidence       float64 `json:"confidence"`
	IntentName       string  `json:"intent_name"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
}

// Interaction is the full audit record for one request. The orchestrator
// owns it while in flight; the audit logger owns the durable copy after
// handoff.
type Interaction struct {
	RequestID         string    `json:"request_id"`
	SessionID         string    `json:"session_id"`
	Mode              Mode      `json:"mode"`
	QueryText         string    `json:"query_text"`
	IntentName        string    `json:"intent_name"`
	IntentCategory    Category  `json:"intent_category"`
	RetrievedPassages []Passage `json:"retrieved_passages"`
	ResponseText      string    `json:"response_text"`
	Confidence        float64   `json:"confidence"`
	Outcome           Outcome   `json:"outcome"`
	EscalationReason  Reason    `json:"escalation_reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	CompletedAt       time.Time `json:"completed_at"`
	ProcessingTimeMs  int64     `json:"processing_time_ms"`

	finalized bool
}

// Finalize closes the interaction exactly once. Later calls are no-ops so a
// deadline path and a normal path cannot double-finalize the same record.
func (i *Interaction) Finalize(outcome Outcome, reason Reason, now time.Time) bool {
	if i.finalized {
		return false
	}
	i.finalized = true
	i.Outcome = outcome
	i.EscalationReason = reason
	i.CompletedAt = now
	i.ProcessingTimeMs = now.Sub(i.CreatedAt).Milliseconds()
	if i.ProcessingTimeMs < 0 {
		i.ProcessingTimeMs = 0
	}
	return true
}

// Finalized reports whether the interaction has reached a terminal outcome.
func (i *Interaction) Finalized() bool {
	return i.finalized
}

// EscalationSummary is the payload handed to the escalation hook when a
// request is routed to a human agent.
type EscalationSummary struct {
	RequestID  string    `json:"request_id"`
	SessionID  string    `json:"session_id"`
	Mode       Mode      `json:"mode"`
	QueryText  string    `json:"query_text"`
	IntentName string    `json:"intent_name"`
	Category   Category  `json:"intent_category"`
	Reason     Reason    `json:"reason"`
	Confidence float64   `json:"confidence"`
	OccurredAt time.Time `json:"occurred_at"`
}
