package service

import (
	"context"
	"testing"
	"time"

	"contactiq-be/internal/constant"
	"contactiq-be/internal/dto"
	"contactiq-be/internal/entity"
	"contactiq-be/internal/repository/memory"
	"contactiq-be/internal/repository/specification"
	"contactiq-be/pkg/pipeline"
	"contactiq-be/pkg/pipeline/confidence"
	"contactiq-be/pkg/pipeline/escalate"
	"contactiq-be/pkg/pipeline/route"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type scriptedClassifier struct {
	result *pipeline.Classification
}

func (s *scriptedClassifier) Classify(ctx context.Context, mode pipeline.Mode, query string, history []pipeline.Turn) (*pipeline.Classification, error) {
	return s.result, nil
}

type scriptedRetriever struct {
	result *pipeline.RetrievalResult
}

func (s *scriptedRetriever) Retrieve(ctx context.Context, domain, query string) (*pipeline.RetrievalResult, error) {
	return s.result, nil
}

type scriptedGenerator struct{}

func (s *scriptedGenerator) Generate(ctx context.Context, input pipeline.GenerateInput) (*pipeline.Draft, error) {
	if input.Retrieval == nil || input.Retrieval.NoMatch || len(input.Retrieval.Passages) == 0 {
		return &pipeline.Draft{Text: constant.DeclineMessage, Declined: true}, nil
	}
	return &pipeline.Draft{Text: "answer [1]", Citations: input.Retrieval.Passages}, nil
}

func (s *scriptedGenerator) Canned(mode pipeline.Mode, intentName string) (*pipeline.Draft, bool) {
	return nil, false
}

type dropSink struct{}

func (dropSink) Enqueue(*pipeline.Interaction) {}

type recordingPublisher struct {
	raised   []pipeline.EscalationSummary
	accepted []string // "requestId/agentId"
}

func (p *recordingPublisher) PublishEscalationRaised(ctx context.Context, summary pipeline.EscalationSummary) {
	p.raised = append(p.raised, summary)
}

func (p *recordingPublisher) PublishHandoffAccepted(ctx context.Context, requestId, agentId string) {
	p.accepted = append(p.accepted, requestId+"/"+agentId)
}

type fakeInteractionRepo struct {
	interactions []*entity.Interaction
}

func (f *fakeInteractionRepo) InsertIfAbsent(ctx context.Context, interaction *entity.Interaction) (bool, error) {
	f.interactions = append(f.interactions, interaction)
	return true, nil
}

func (f *fakeInteractionRepo) UpdateById(ctx context.Context, requestId uuid.UUID, patch map[string]interface{}) (bool, error) {
	for _, interaction := range f.interactions {
		if interaction.RequestId == requestId {
			if agentId, ok := patch["accepted_by"].(string); ok {
				interaction.AcceptedBy = &agentId
			}
			if at, ok := patch["accepted_at"].(time.Time); ok {
				interaction.AcceptedAt = &at
			}
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInteractionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Interaction, error) {
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByRequestID); ok {
			for _, interaction := range f.interactions {
				if interaction.RequestId == byId.RequestID {
					return interaction, nil
				}
			}
			return nil, nil
		}
	}
	if len(f.interactions) == 0 {
		return nil, nil
	}
	return f.interactions[0], nil
}

func (f *fakeInteractionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Interaction, error) {
	return f.interactions, nil
}

func (f *fakeInteractionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.interactions)), nil
}

func newServiceFixture(classification *pipeline.Classification, retrieval *pipeline.RetrievalResult) (IAssistantService, *memory.SessionRepository) {
	cfg := pipeline.DefaultOrchestratorConfig()
	cfg.EscalationMessage = constant.EscalationMessage
	cfg.FailureMessage = constant.SafeFailureMessage

	orchestrator := pipeline.NewOrchestrator(
		&scriptedClassifier{result: classification},
		route.NewRouter(route.DefaultConfig(), nil),
		&scriptedRetriever{result: retrieval},
		&scriptedGenerator{},
		confidence.NewScorer(confidence.DefaultWeights()),
		escalate.NewDecider(escalate.DefaultPolicy()),
		dropSink{},
		nil,
		cfg,
		nil,
	)

	sessions := memory.NewSessionRepository()
	return NewAssistantService(orchestrator, sessions, &fakeInteractionRepo{}, nil, nil), sessions
}

func strongRetrieval() *pipeline.RetrievalResult {
	return &pipeline.RetrievalResult{
		Passages: []pipeline.Passage{{Text: "fee schedule", Source: "fees.md", Score: 0.95}},
	}
}

func TestProcessQueryCreatesSessionAndAppendsHistory(t *testing.T) {
	svc, sessions := newServiceFixture(
		&pipeline.Classification{IntentName: "fee_inquiry", Category: pipeline.CategoryAutomatable},
		strongRetrieval(),
	)

	res, err := svc.ProcessQuery(context.Background(), "agent-1", &dto.QueryRequest{
		SessionId: "s1",
		Mode:      "customer",
		Query:     "why the fee?",
	})
	assert.NoError(t, err)
	assert.Equal(t, "resolved", res.Outcome)
	assert.Equal(t, "answer [1]", res.ResponseText)

	session, found := sessions.Get("s1")
	assert.True(t, found)
	assert.Equal(t, "agent-1", session.UserID)
	assert.Len(t, session.History, 2)
	assert.Equal(t, "why the fee?", session.History[0].Content)
	assert.Zero(t, session.EscalationStreak)
}

func TestProcessQueryTracksEscalationStreak(t *testing.T) {
	svc, sessions := newServiceFixture(
		&pipeline.Classification{IntentName: "account_balance", Category: pipeline.CategorySensitive},
		strongRetrieval(),
	)

	for i := 0; i < 2; i++ {
		res, err := svc.ProcessQuery(context.Background(), "u1", &dto.QueryRequest{
			SessionId: "s1",
			Mode:      "customer",
			Query:     "what's my balance?",
		})
		assert.NoError(t, err)
		assert.Equal(t, "escalated", res.Outcome)
		assert.Equal(t, "sensitive_intent", res.EscalationReason)
	}

	session, _ := sessions.Get("s1")
	assert.Equal(t, 2, session.EscalationStreak)
}

func TestProcessQueryModeSwitchResetsHistory(t *testing.T) {
	svc, sessions := newServiceFixture(
		&pipeline.Classification{IntentName: "fee_inquiry", Category: pipeline.CategoryAutomatable},
		strongRetrieval(),
	)

	_, err := svc.ProcessQuery(context.Background(), "u1", &dto.QueryRequest{
		SessionId: "s1", Mode: "customer", Query: "first question",
	})
	assert.NoError(t, err)

	_, err = svc.ProcessQuery(context.Background(), "u1", &dto.QueryRequest{
		SessionId: "s1", Mode: "banker", Query: "second question",
	})
	assert.NoError(t, err)

	session, _ := sessions.Get("s1")
	assert.Equal(t, "banker", session.Mode)
	// Only the post-switch exchange survives.
	assert.Len(t, session.History, 2)
	assert.Equal(t, "second question", session.History[0].Content)
}

func TestProcessQueryPropagatesInputErrors(t *testing.T) {
	svc, _ := newServiceFixture(
		&pipeline.Classification{IntentName: "fee_inquiry", Category: pipeline.CategoryAutomatable},
		strongRetrieval(),
	)

	_, err := svc.ProcessQuery(context.Background(), "u1", &dto.QueryRequest{
		SessionId: "s1", Mode: "customer", Query: "  ",
	})
	assert.ErrorIs(t, err, pipeline.ErrEmptyQuery)
}

func escalatedInteraction(id uuid.UUID) *entity.Interaction {
	reason := string(pipeline.ReasonSensitiveIntent)
	return &entity.Interaction{
		RequestId:      id,
		SessionId:      "s1",
		Mode:           "customer",
		QueryText:      "dispute a wire",
		IntentCategory: string(pipeline.CategorySensitive),
		Outcome:        string(pipeline.OutcomeEscalated),
		EscalationReason: &reason,
	}
}

func newHandoffFixture(interactions ...*entity.Interaction) (IAssistantService, *fakeInteractionRepo, *recordingPublisher) {
	repo := &fakeInteractionRepo{interactions: interactions}
	pub := &recordingPublisher{}
	svc := NewAssistantService(nil, memory.NewSessionRepository(), repo, pub, nil)
	return svc, repo, pub
}

func TestAcceptHandoffRecordsAgentAndPublishes(t *testing.T) {
	id := uuid.New()
	svc, repo, pub := newHandoffFixture(escalatedInteraction(id))

	res, err := svc.AcceptHandoff(context.Background(), id.String(), "agent-9")

	assert.NoError(t, err)
	assert.NotNil(t, res.AcceptedBy)
	assert.Equal(t, "agent-9", *res.AcceptedBy)
	assert.NotNil(t, res.AcceptedAt)
	assert.NotNil(t, repo.interactions[0].AcceptedBy)
	assert.Equal(t, []string{id.String() + "/agent-9"}, pub.accepted)
}

func TestAcceptHandoffRejectsNonEscalatedInteraction(t *testing.T) {
	id := uuid.New()
	interaction := escalatedInteraction(id)
	interaction.Outcome = string(pipeline.OutcomeResolved)
	svc, _, pub := newHandoffFixture(interaction)

	_, err := svc.AcceptHandoff(context.Background(), id.String(), "agent-9")

	var fiberErr *fiber.Error
	assert.ErrorAs(t, err, &fiberErr)
	assert.Equal(t, fiber.StatusConflict, fiberErr.Code)
	assert.Empty(t, pub.accepted)
}

func TestAcceptHandoffIsClaimedOnce(t *testing.T) {
	id := uuid.New()
	svc, _, pub := newHandoffFixture(escalatedInteraction(id))

	_, err := svc.AcceptHandoff(context.Background(), id.String(), "agent-9")
	assert.NoError(t, err)

	_, err = svc.AcceptHandoff(context.Background(), id.String(), "agent-4")
	var fiberErr *fiber.Error
	assert.ErrorAs(t, err, &fiberErr)
	assert.Equal(t, fiber.StatusConflict, fiberErr.Code)
	assert.Len(t, pub.accepted, 1)
}

func TestAcceptHandoffUnknownInteraction(t *testing.T) {
	svc, _, _ := newHandoffFixture()

	_, err := svc.AcceptHandoff(context.Background(), uuid.NewString(), "agent-9")

	var fiberErr *fiber.Error
	assert.ErrorAs(t, err, &fiberErr)
	assert.Equal(t, fiber.StatusNotFound, fiberErr.Code)
}

func TestAcceptHandoffRejectsMalformedId(t *testing.T) {
	svc, _, _ := newHandoffFixture()

	_, err := svc.AcceptHandoff(context.Background(), "not-a-uuid", "agent-9")

	var fiberErr *fiber.Error
	assert.ErrorAs(t, err, &fiberErr)
	assert.Equal(t, fiber.StatusBadRequest, fiberErr.Code)
}
