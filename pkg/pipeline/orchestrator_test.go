package pipeline_test

import (
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"contactiq-be/internal/constant"
	"contactiq-be/pkg/pipeline"
	"contactiq-be/pkg/pipeline/confidence"
	"contactiq-be/pkg/pipeline/escalate"
	"contactiq-be/pkg/pipeline/route"

	"github.com/stretchr/testify/assert"
)

type stubClassifier struct {
	result *pipeline.Classification
	err    error
	delay  time.Duration
}

func (s *stubClassifier) Classify(ctx context.Context, mode pipeline.Mode, query string, history []pipeline.Turn) (*pipeline.Classification, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubRetriever struct {
	result *pipeline.RetrievalResult
	err    error
}

func (s *stubRetriever) Retrieve(ctx context.Context, domain, query string) (*pipeline.RetrievalResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubGenerator struct {
	draft *pipeline.Draft
	err   error
}

func (s *stubGenerator) Generate(ctx context.Context, input pipeline.GenerateInput) (*pipeline.Draft, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.draft != nil {
		return s.draft, nil
	}
	// Mirror the real generator's decline behavior.
	if input.NoContext || input.Retrieval == nil || input.Retrieval.NoMatch || len(input.Retrieval.Passages) == 0 {
		return &pipeline.Draft{Text: constant.DeclineMessage, Declined: true}, nil
	}
	return &pipeline.Draft{Text: "generated answer [1]", Citations: input.Retrieval.Passages}, nil
}

func (s *stubGenerator) Canned(mode pipeline.Mode, intentName string) (*pipeline.Draft, bool) {
	switch intentName {
	case constant.IntentGreeting:
		return &pipeline.Draft{Text: constant.GreetingResponses[string(mode)], Canned: true}, true
	case constant.IntentUnknown:
		return &pipeline.Draft{Text: constant.UnknownGuidanceResponses[string(mode)], Canned: true}, true
	}
	return nil, false
}

type recordingSink struct {
	interactions []*pipeline.Interaction
}

func (r *recordingSink) Enqueue(interaction *pipeline.Interaction) {
	r.interactions = append(r.interactions, interaction)
}

type fixture struct {
	classifier *stubClassifier
	retriever  *stubRetriever
	generator  *stubGenerator
	sink       *recordingSink
	escalated  []pipeline.EscalationSummary
}

func newFixture() *fixture {
	return &fixture{
		classifier: &stubClassifier{},
		retriever:  &stubRetriever{},
		generator:  &stubGenerator{},
		sink:       &recordingSink{},
	}
}

func (f *fixture) orchestrator(cfg pipeline.OrchestratorConfig) *pipeline.Orchestrator {
	cfg.EscalationMessage = constant.EscalationMessage
	cfg.FailureMessage = constant.SafeFailureMessage

	return pipeline.NewOrchestrator(
		f.classifier,
		route.NewRouter(route.DefaultConfig(), nil),
		f.retriever,
		f.generator,
		confidence.NewScorer(confidence.DefaultWeights()),
		escalate.NewDecider(escalate.DefaultPolicy()),
		f.sink,
		func(ctx context.Context, summary pipeline.EscalationSummary) {
			f.escalated = append(f.escalated, summary)
		},
		cfg,
		nil,
	)
}

func strongRetrieval() *pipeline.RetrievalResult {
	return &pipeline.RetrievalResult{
		Passages: []pipeline.Passage{
			{Text: "fee schedule", Source: "fees.md", Score: 0.92},
		},
	}
}

func TestProcessQueryResolvesGroundedAnswer(t *testing.T) {
	f := newFixture()
	f.classifier.result = &pipeline.Classification{IntentName: "fee_inquiry", Category: pipeline.CategoryAutomatable}
	f.retriever.result = strongRetrieval()

	result, err := f.orchestrator(pipeline.DefaultOrchestratorConfig()).ProcessQuery(context.Background(), pipeline.Request{
		SessionID: "s1",
		Mode:      pipeline.ModeCustomer,
		Query:     "why was I charged a $5 fee?",
	})
	assert.NoError(t, err)
	assert.Equal(t, pipeline.OutcomeResolved, result.Outcome)
	assert.Equal(t, "generated answer [1]", result.ResponseText)
	assert.Equal(t, "fee_inquiry", result.IntentName)
	assert.GreaterOrEqual(t, result.Confidence, 0.68)
	assert.Empty(t, f.escalated)

	// Exactly one finalized audit record.
	assert.Len(t, f.sink.interactions, 1)
	logged := f.sink.interactions[0]
	assert.True(t, logged.Finalized())
	assert.Equal(t, pipeline.OutcomeResolved, logged.Outcome)
	assert.NotEmpty(t, logged.RequestID)
}

func TestProcessQuerySensitiveEscalatesDespiteConfidence(t *testing.T) {
	f := newFixture()
	f.classifier.result = &pipeline.Classification{IntentName: "account_balance", Category: pipeline.CategorySensitive}
	f.retriever.result = strongRetrieval()

	result, err := f.orchestrator(pipeline.DefaultOrchestratorConfig()).ProcessQuery(context.Background(), pipeline.Request{
		SessionID: "s1",
		Mode:      pipeline.ModeCustomer,
		Query:     "what's my balance?",
	})
	assert.NoError(t, err)
	assert.Equal(t, pipeline.OutcomeEscalated, result.Outcome)
	assert.Equal(t, pipeline.ReasonSensitiveIntent, result.EscalationReason)
	assert.Equal(t, constant.EscalationMessage(pipeline.ModeCustomer, pipeline.ReasonSensitiveIntent), result.ResponseText)

	assert.Len(t, f.escalated, 1)
	assert.Equal(t, pipeline.ReasonSensitiveIntent, f.escalated[0].Reason)
}

func TestProcessQueryNoMatchEscalatesAsRetrievalEmpty(t *testing.T) {
	f := newFixture()
	f.classifier.result = &pipeline.Classification{IntentName: "fee_inquiry", Category: pipeline.CategoryAutomatable}
	f.retriever.result = &pipeline.RetrievalResult{NoMatch: true}

	result, err := f.orchestrator(pipeline.DefaultOrchestratorConfig()).ProcessQuery(context.Background(), pipeline.Request{
		SessionID: "s1",
		Mode:      pipeline.ModeCustomer,
		Query:     "do you charge for quantum transfers?",
	})
	assert.NoError(t, err)
	assert.Equal(t, pipeline.OutcomeEscalated, result.Outcome)
	assert.Equal(t, pipeline.ReasonRetrievalEmpty, result.EscalationReason)
	assert.Zero(t, result.Confidence)
}

func TestProcessQueryHumanOnlyAlwaysEscalates(t *testing.T) {
	f := newFixture()
	f.classifier.result = &pipeline.Classification{IntentName: "hardship", Category: pipeline.CategoryHumanOnly}
	f.retriever.result = strongRetrieval()

	result, err := f.orchestrator(pipeline.DefaultOrchestratorConfig()).ProcessQuery(context.Background(), pipeline.Request{
		SessionID: "s1",
		Mode:      pipeline.ModeCustomer,
		Query:     "I lost my job and can't pay my mortgage",
	})
	assert.NoError(t, err)
	assert.Equal(t, pipeline.OutcomeEscalated, result.Outcome)
	assert.Equal(t, pipeline.ReasonHumanOnlyIntent, result.EscalationReason)
}

func TestProcessQueryClassificationFailureFallsBackConservatively(t *testing.T) {
	f := newFixture()
	f.classifier.err = pipeline.ErrClassificationUnavailable
	f.retriever.result = strongRetrieval()

	result, err := f.orchestrator(pipeline.DefaultOrchestratorConfig()).ProcessQuery(context.Background(), pipeline.Request{
		SessionID: "s1",
		Mode:      pipeline.ModeCustomer,
		Query:     "why was I charged?",
	})
	assert.NoError(t, err)
	assert.Equal(t, pipeline.OutcomeEscalated, result.Outcome)
	assert.Equal(t, pipeline.ReasonHumanOnlyIntent, result.EscalationReason)
	assert.Equal(t, "unknown", result.IntentName)
}

func TestProcessQueryRetrievalFailureCapsConfidence(t *testing.T) {
	f := newFixture()
	f.classifier.result = &pipeline.Classification{IntentName: "fee_inquiry", Category: pipeline.CategoryAutomatable}
	f.retriever.err = pipeline.ErrRetrievalUnavailable

	result, err := f.orchestrator(pipeline.DefaultOrchestratorConfig()).ProcessQuery(context.Background(), pipeline.Request{
		SessionID: "s1",
		Mode:      pipeline.ModeCustomer,
		Query:     "why was I charged?",
	})
	assert.NoError(t, err)
	assert.Equal(t, pipeline.OutcomeEscalated, result.Outcome)
	assert.Equal(t, pipeline.ReasonLowConfidence, result.EscalationReason)
	assert.LessOrEqual(t, result.Confidence, 0.2)
}

func TestProcessQueryGenerationFailureEscalatesUpstream(t *testing.T) {
	f := newFixture()
	f.classifier.result = &pipeline.Classification{IntentName: "fee_inquiry", Category: pipeline.CategoryAutomatable}
	f.retriever.result = strongRetrieval()
	f.generator.err = pipeline.ErrGenerationUnavailable

	result, err := f.orchestrator(pipeline.DefaultOrchestratorConfig()).ProcessQuery(context.Background(), pipeline.Request{
		SessionID: "s1",
		Mode:      pipeline.ModeCustomer,
		Query:     "why was I charged?",
	})
	assert.NoError(t, err)
	assert.Equal(t, pipeline.OutcomeEscalated, result.Outcome)
	assert.Equal(t, pipeline.ReasonUpstreamFailure, result.EscalationReason)
	assert.Zero(t, result.Confidence)
	assert.Len(t, f.sink.interactions, 1)
}

func TestProcessQueryGreetingShortCircuits(t *testing.T) {
	f := newFixture()
	f.classifier.result = &pipeline.Classification{IntentName: "greeting", Category: pipeline.CategoryAutomatable}
	f.retriever.err = pipeline.ErrRetrievalUnavailable // must not matter

	result, err := f.orchestrator(pipeline.DefaultOrchestratorConfig()).ProcessQuery(context.Background(), pipeline.Request{
		SessionID: "s1",
		Mode:      pipeline.ModeCustomer,
		Query:     "hi there",
	})
	assert.NoError(t, err)
	assert.Equal(t, pipeline.OutcomeResolved, result.Outcome)
	assert.Equal(t, constant.GreetingResponses["customer"], result.ResponseText)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
}

func TestProcessQueryEmptyQueryFailsFast(t *testing.T) {
	f := newFixture()

	_, err := f.orchestrator(pipeline.DefaultOrchestratorConfig()).ProcessQuery(context.Background(), pipeline.Request{
		SessionID: "s1",
		Mode:      pipeline.ModeCustomer,
		Query:     "   ",
	})
	assert.ErrorIs(t, err, pipeline.ErrEmptyQuery)
	// Rejected input never reaches the audit sink.
	assert.Empty(t, f.sink.interactions)
}

func TestProcessQueryInvalidModeFailsFast(t *testing.T) {
	f := newFixture()

	_, err := f.orchestrator(pipeline.DefaultOrchestratorConfig()).ProcessQuery(context.Background(), pipeline.Request{
		SessionID: "s1",
		Mode:      pipeline.Mode("admin"),
		Query:     "hello",
	})
	assert.ErrorIs(t, err, pipeline.ErrInvalidMode)
	assert.Empty(t, f.sink.interactions)
}

func TestProcessQueryDeadlineIsFirstClassFailure(t *testing.T) {
	f := newFixture()
	f.classifier.result = &pipeline.Classification{IntentName: "fee_inquiry", Category: pipeline.CategoryAutomatable}
	f.classifier.delay = 50 * time.Millisecond
	f.retriever.result = strongRetrieval()

	cfg := pipeline.DefaultOrchestratorConfig()
	cfg.OverallTimeout = 10 * time.Millisecond

	result, err := f.orchestrator(cfg).ProcessQuery(context.Background(), pipeline.Request{
		SessionID: "s1",
		Mode:      pipeline.ModeCustomer,
		Query:     "why was I charged?",
	})
	assert.NoError(t, err)
	assert.Equal(t, pipeline.OutcomeFailed, result.Outcome)
	assert.Equal(t, pipeline.ReasonDeadlineExceeded, result.EscalationReason)
	assert.Equal(t, constant.SafeFailureMessage, result.ResponseText)

	// Even timed-out requests land in the audit sink.
	assert.Len(t, f.sink.interactions, 1)
	assert.Equal(t, pipeline.OutcomeFailed, f.sink.interactions[0].Outcome)
}

func TestProcessQueryGeneratesRequestIDWhenAbsent(t *testing.T) {
	f := newFixture()
	f.classifier.result = &pipeline.Classification{IntentName: "greeting", Category: pipeline.CategoryAutomatable}

	orch := f.orchestrator(pipeline.DefaultOrchestratorConfig())

	first, err := orch.ProcessQuery(context.Background(), pipeline.Request{SessionID: "s1", Mode: pipeline.ModeCustomer, Query: "hi"})
	assert.NoError(t, err)
	second, err := orch.ProcessQuery(context.Background(), pipeline.Request{SessionID: "s1", Mode: pipeline.ModeCustomer, Query: "hi"})
	assert.NoError(t, err)

	assert.NotEmpty(t, first.RequestID)
	assert.NotEqual(t, first.RequestID, second.RequestID)

	supplied, err := orch.ProcessQuery(context.Background(), pipeline.Request{
		RequestID: "11111111-2222-3333-4444-555555555555",
		SessionID: "s1",
		Mode:      pipeline.ModeCustomer,
		Query:     "hi",
	})
	assert.NoError(t, err)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", supplied.RequestID)
}

func TestProcessQueryTruncatesOversizedQuery(t *testing.T) {
	f := newFixture()
	f.classifier.result = &pipeline.Classification{IntentName: "greeting", Category: pipeline.CategoryAutomatable}

	cfg := pipeline.DefaultOrchestratorConfig()
	cfg.MaxQueryLength = 10

	long := "0123456789ABCDEF"
	_, err := f.orchestrator(cfg).ProcessQuery(context.Background(), pipeline.Request{
		SessionID: "s1",
		Mode:      pipeline.ModeCustomer,
		Query:     long,
	})
	assert.NoError(t, err)
	assert.Len(t, f.sink.interactions, 1)
	assert.Equal(t, "0123456789", f.sink.interactions[0].QueryText)
}

func TestProcessQueryTruncatesOnRuneBoundary(t *testing.T) {
	f := newFixture()
	f.classifier.result = &pipeline.Classification{IntentName: "greeting", Category: pipeline.CategoryAutomatable}

	cfg := pipeline.DefaultOrchestratorConfig()
	cfg.MaxQueryLength = 10

	// "é" spans bytes 9-10, so a byte cut at 10 would split it.
	long := "123456789épargne"
	_, err := f.orchestrator(cfg).ProcessQuery(context.Background(), pipeline.Request{
		SessionID: "s1",
		Mode:      pipeline.ModeCustomer,
		Query:     long,
	})
	assert.NoError(t, err)
	assert.Len(t, f.sink.interactions, 1)

	got := f.sink.interactions[0].QueryText
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "123456789", got)
}

func TestInteractionFinalizeExactlyOnce(t *testing.T) {
	interaction := &pipeline.Interaction{
		RequestID: "r1",
		Outcome:   pipeline.OutcomeProcessing,
		CreatedAt: time.Now(),
	}

	assert.True(t, interaction.Finalize(pipeline.OutcomeResolved, pipeline.ReasonNone, time.Now()))
	assert.True(t, interaction.Finalized())

	// A second finalize is a no-op.
	assert.False(t, interaction.Finalize(pipeline.OutcomeFailed, pipeline.ReasonUpstreamFailure, time.Now()))
	assert.Equal(t, pipeline.OutcomeResolved, interaction.Outcome)
	assert.GreaterOrEqual(t, interaction.ProcessingTimeMs, int64(0))
}
