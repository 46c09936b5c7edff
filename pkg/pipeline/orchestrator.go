package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"contactiq-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// OrchestratorConfig is immutable once the orchestrator is constructed.
// Tests inject deterministic values here instead of reading ambient state.
type OrchestratorConfig struct {
	// OverallTimeout is the end-to-end request deadline.
	OverallTimeout time.Duration

	// Per-stage sub-timeouts inside the overall deadline.
	ClassifyTimeout time.Duration
	RetrieveTimeout time.Duration
	GenerateTimeout time.Duration

	// MaxQueryLength rejects oversized queries before any gateway call.
	MaxQueryLength int

	// EscalationMessage renders the handoff text for an escalated request.
	EscalationMessage func(mode Mode, reason Reason) string

	// FailureMessage is the only text shown to the caller when the
	// pipeline fails; internal detail goes to the audit record.
	FailureMessage string
}

// DefaultOrchestratorConfig mirrors the production timeout budget.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		OverallTimeout:  30 * time.Second,
		ClassifyTimeout: 10 * time.Second,
		RetrieveTimeout: 8 * time.Second,
		GenerateTimeout: 15 * time.Second,
		MaxQueryLength:  4000,
		EscalationMessage: func(Mode, Reason) string {
			return "This request has been escalated to a human agent."
		},
		FailureMessage: "Sorry, something went wrong while processing your request.",
	}
}

// Orchestrator composes the pipeline stages into one request lifecycle. It
// owns the timeout budget and guarantees every processed request reaches
// the audit sink exactly once, success or failure.
type Orchestrator struct {
	classifier  IntentClassifier
	router      Router
	retriever   Retriever
	generator   ResponseGenerator
	scorer      ConfidenceScorer
	decider     EscalationDecider
	sink        AuditSink
	onEscalated EscalationHook
	config      OrchestratorConfig
	logger      logger.ILogger
}

func NewOrchestrator(
	classifier IntentClassifier,
	router Router,
	retriever Retriever,
	generator ResponseGenerator,
	scorer ConfidenceScorer,
	decider EscalationDecider,
	sink AuditSink,
	onEscalated EscalationHook,
	config OrchestratorConfig,
	log logger.ILogger,
) *Orchestrator {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Orchestrator{
		classifier:  classifier,
		router:      router,
		retriever:   retriever,
		generator:   generator,
		scorer:      scorer,
		decider:     decider,
		sink:        sink,
		onEscalated: onEscalated,
		config:      config,
		logger:      log,
	}
}

// ProcessQuery runs one request through the pipeline. Permanent input
// errors (invalid mode, empty or oversized query) fail fast with an error
// and are never logged as interactions. Every other path finalizes an
// interaction and hands it to the audit sink before returning.
func (o *Orchestrator) ProcessQuery(ctx context.Context, req Request) (*Result, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if o.config.MaxQueryLength > 0 && len(query) > o.config.MaxQueryLength {
		query = truncateOnRuneBoundary(query, o.config.MaxQueryLength)
	}

	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	interaction := &Interaction{
		RequestID: requestID,
		SessionID: req.SessionID,
		Mode:      mode,
		QueryText: query,
		Outcome:   OutcomeProcessing,
		CreatedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, o.config.OverallTimeout)
	defer cancel()

	result := o.run(ctx, mode, query, req.History, interaction)

	// The sink sees every interaction exactly once, including failures.
	o.sink.Enqueue(interaction)

	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, mode Mode, query string, history []Turn, interaction *Interaction) *Result {
	// Stage 1: classification. A failed classification is non-fatal: the
	// request falls back to the most conservative category instead of
	// guessing, which forces escalation downstream.
	classification := o.classify(ctx, mode, query, history, interaction)
	if deadlineHit(ctx) {
		return o.fail(interaction, ReasonDeadlineExceeded)
	}

	interaction.IntentName = classification.IntentName
	interaction.IntentCategory = classification.Category

	// Stage 2: routing. The mode was validated at entry, so the total
	// mapping cannot fail here.
	route, err := o.router.Route(mode, classification.Category)
	if err != nil {
		o.logger.Error("ORCHESTRATOR", "Router rejected validated mode", map[string]interface{}{
			"error": err.Error(),
			"mode":  string(mode),
		})
		return o.fail(interaction, ReasonUpstreamFailure)
	}

	// Canned intents (greeting, guidance) skip retrieval and generation.
	if draft, ok := o.generator.Canned(mode, classification.IntentName); ok {
		retrieval := &RetrievalResult{}
		return o.settle(ctx, interaction, classification, route, retrieval, draft, false)
	}

	// Stage 3: retrieval. Failures downgrade to "no context available";
	// the user still gets an answer, with forced lower confidence.
	retrieval, noContext := o.retrieve(ctx, route.Domain, query, interaction)
	if deadlineHit(ctx) {
		return o.fail(interaction, ReasonDeadlineExceeded)
	}
	if retrieval != nil {
		interaction.RetrievedPassages = retrieval.Passages
	}

	// Stage 4: generation.
	draft := o.generate(ctx, mode, query, classification, retrieval, noContext, history, interaction)
	if deadlineHit(ctx) {
		return o.fail(interaction, ReasonDeadlineExceeded)
	}
	if draft == nil {
		// Generation exhausted its retries. Escalate with a handoff
		// message rather than failing the request.
		return o.escalate(ctx, interaction, classification, Decision{
			ShouldEscalate: true,
			Reason:         ReasonUpstreamFailure,
		}, 0)
	}

	return o.settle(ctx, interaction, classification, route, retrieval, draft, noContext)
}

// settle scores the draft and applies the escalation decision.
func (o *Orchestrator) settle(ctx context.Context, interaction *Interaction, classification *Classification, route *Route, retrieval *RetrievalResult, draft *Draft, noContext bool) *Result {
	confidence := o.scorer.Score(ScoreInput{
		Category:  classification.Category,
		Retrieval: retrieval,
		Draft:     draft,
		NoContext: noContext,
	})
	interaction.Confidence = confidence

	decision := o.decider.Decide(DecideInput{
		IntentName: classification.IntentName,
		Category:   classification.Category,
		Confidence: confidence,
		Retrieval:  retrieval,
		Route:      route,
	})

	if decision.ShouldEscalate {
		return o.escalate(ctx, interaction, classification, decision, confidence)
	}

	interaction.ResponseText = draft.Text
	interaction.Finalize(OutcomeResolved, ReasonNone, time.Now())

	o.logger.Info("ORCHESTRATOR", "Request resolved", map[string]interface{}{
		"request_id": interaction.RequestID,
		"intent":     classification.IntentName,
		"confidence": confidence,
	})

	return o.result(interaction)
}

func (o *Orchestrator) classify(ctx context.Context, mode Mode, query string, history []Turn, interaction *Interaction) *Classification {
	stageCtx, cancel := context.WithTimeout(ctx, o.config.ClassifyTimeout)
	defer cancel()

	classification, err := o.classifier.Classify(stageCtx, mode, query, history)
	if err != nil {
		o.logger.Warn("ORCHESTRATOR", "Classification unavailable, falling back to human_only", map[string]interface{}{
			"request_id": interaction.RequestID,
			"error":      err.Error(),
		})
		return &Classification{
			IntentName: "unknown",
			Category:   CategoryHumanOnly,
			Reason:     "classification unavailable",
		}
	}
	return classification
}

func (o *Orchestrator) retrieve(ctx context.Context, domain, query string, interaction *Interaction) (*RetrievalResult, bool) {
	stageCtx, cancel := context.WithTimeout(ctx, o.config.RetrieveTimeout)
	defer cancel()

	retrieval, err := o.retriever.Retrieve(stageCtx, domain, query)
	if err != nil {
		o.logger.Warn("ORCHESTRATOR", "Retrieval unavailable, continuing without context", map[string]interface{}{
			"request_id": interaction.RequestID,
			"domain":     domain,
			"error":      err.Error(),
		})
		return nil, true
	}
	return retrieval, false
}

func (o *Orchestrator) generate(ctx context.Context, mode Mode, query string, classification *Classification, retrieval *RetrievalResult, noContext bool, history []Turn, interaction *Interaction) *Draft {
	stageCtx, cancel := context.WithTimeout(ctx, o.config.GenerateTimeout)
	defer cancel()

	draft, err := o.generator.Generate(stageCtx, GenerateInput{
		Mode:           mode,
		Query:          query,
		Classification: classification,
		Retrieval:      retrieval,
		NoContext:      noContext,
		History:        history,
	})
	if err != nil {
		o.logger.Warn("ORCHESTRATOR", "Generation unavailable", map[string]interface{}{
			"request_id": interaction.RequestID,
			"error":      err.Error(),
		})
		return nil
	}
	return draft
}

func (o *Orchestrator) escalate(ctx context.Context, interaction *Interaction, classification *Classification, decision Decision, confidence float64) *Result {
	interaction.Confidence = confidence
	interaction.ResponseText = o.config.EscalationMessage(interaction.Mode, decision.Reason)
	interaction.Finalize(OutcomeEscalated, decision.Reason, time.Now())

	o.logger.Info("ORCHESTRATOR", "Request escalated", map[string]interface{}{
		"request_id": interaction.RequestID,
		"intent":     classification.IntentName,
		"reason":     string(decision.Reason),
	})

	// Synchronous hook so the human-agent system sees the handoff before
	// the caller gets the response.
	if o.onEscalated != nil {
		o.onEscalated(ctx, EscalationSummary{
			RequestID:  interaction.RequestID,
			SessionID:  interaction.SessionID,
			Mode:       interaction.Mode,
			QueryText:  interaction.QueryText,
			IntentName: classification.IntentName,
			Category:   classification.Category,
			Reason:     decision.Reason,
			Confidence: confidence,
			OccurredAt: interaction.CompletedAt,
		})
	}

	return o.result(interaction)
}

// fail finalizes the interaction as failed with a generic safe message.
// Deadline exhaustion is a first-class outcome, not a raw error.
func (o *Orchestrator) fail(interaction *Interaction, reason Reason) *Result {
	interaction.ResponseText = o.config.FailureMessage
	interaction.Confidence = 0
	interaction.Finalize(OutcomeFailed, reason, time.Now())

	o.logger.Error("ORCHESTRATOR", "Request failed", map[string]interface{}{
		"request_id": interaction.RequestID,
		"reason":     string(reason),
	})

	return o.result(interaction)
}

func (o *Orchestrator) result(interaction *Interaction) *Result {
	return &Result{
		RequestID:        interaction.RequestID,
		ResponseText:     interaction.ResponseText,
		Outcome:          interaction.Outcome,
		EscalationReason: interaction.EscalationReason,
		Confidence:       interaction.Confidence,
		IntentName:       interaction.IntentName,
		ProcessingTimeMs: interaction.ProcessingTimeMs,
	}
}

func deadlineHit(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(ctx.Err(), context.Canceled)
}

// truncateOnRuneBoundary cuts s to at most max bytes without splitting a
// multi-byte rune.
func truncateOnRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
