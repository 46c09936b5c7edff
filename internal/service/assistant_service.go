package service

import (
	"context"
	"time"

	"contactiq-be/internal/dto"
	"contactiq-be/internal/entity"
	"contactiq-be/internal/pkg/logger"
	"contactiq-be/internal/repository/contract"
	"contactiq-be/internal/repository/specification"
	"contactiq-be/pkg/escalation"
	"contactiq-be/pkg/pipeline"
	"contactiq-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// IAssistantService defines the assistant service interface
type IAssistantService interface {
	ProcessQuery(ctx context.Context, userId string, request *dto.QueryRequest) (*dto.QueryResponse, error)
	ListInteractions(ctx context.Context, request *dto.InteractionListRequest) (*dto.InteractionListResponse, error)
	GetInteraction(ctx context.Context, requestId string) (*dto.InteractionResponse, error)
	AcceptHandoff(ctx context.Context, requestId, agentId string) (*dto.InteractionResponse, error)
}

type assistantService struct {
	orchestrator    *pipeline.Orchestrator
	sessionStore    store.SessionStore
	interactionRepo contract.InteractionRepository
	escalations     escalation.Publisher
	logger          logger.ILogger
}

func NewAssistantService(
	orchestrator *pipeline.Orchestrator,
	sessionStore store.SessionStore,
	interactionRepo contract.InteractionRepository,
	escalations escalation.Publisher,
	log logger.ILogger,
) IAssistantService {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &assistantService{
		orchestrator:    orchestrator,
		sessionStore:    sessionStore,
		interactionRepo: interactionRepo,
		escalations:     escalations,
		logger:          log,
	}
}

// ProcessQuery runs one query through the assistant pipeline with the
// session's conversation history attached.
func (s *assistantService) ProcessQuery(ctx context.Context, userId string, request *dto.QueryRequest) (*dto.QueryResponse, error) {
	session, found := s.sessionStore.Get(request.SessionId)
	if !found {
		session = &store.Session{
			ID:        request.SessionId,
			UserID:    userId,
			Mode:      request.Mode,
			CreatedAt: time.Now(),
		}
	}

	// A session is bound to the mode it was opened with. Switching roles
	// mid-conversation starts from a clean history.
	if session.Mode != request.Mode {
		s.logger.Warn("AssistantService", "Session mode changed, resetting history", map[string]interface{}{
			"session_id": request.SessionId,
			"old_mode":   session.Mode,
			"new_mode":   request.Mode,
		})
		session.Mode = request.Mode
		session.History = nil
		session.EscalationStreak = 0
	}

	result, err := s.orchestrator.ProcessQuery(ctx, pipeline.Request{
		RequestID: request.RequestId,
		SessionID: request.SessionId,
		Mode:      pipeline.Mode(request.Mode),
		Query:     request.Query,
		History:   session.RecentHistory(),
	})
	if err != nil {
		return nil, err
	}

	session.AppendTurn(request.Query, result.ResponseText)
	if result.Outcome == pipeline.OutcomeEscalated {
		session.EscalationStreak++
	} else {
		session.EscalationStreak = 0
	}
	s.sessionStore.Save(session)

	return dto.QueryResponseFromResult(result), nil
}

func (s *assistantService) ListInteractions(ctx context.Context, request *dto.InteractionListRequest) (*dto.InteractionListResponse, error) {
	filters := make([]specification.Specification, 0, 4)
	if request.SessionId != "" {
		filters = append(filters, specification.BySessionID{SessionID: request.SessionId})
	}
	if request.Outcome != "" {
		filters = append(filters, specification.ByOutcome{Outcome: request.Outcome})
	}
	if request.Mode != "" {
		filters = append(filters, specification.ByMode{Mode: request.Mode})
	}

	total, err := s.interactionRepo.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	limit := request.Limit
	if limit <= 0 {
		limit = 50
	}

	specs := append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: request.Offset},
	)

	interactions, err := s.interactionRepo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.InteractionResponse, 0, len(interactions))
	for _, interaction := range interactions {
		responses = append(responses, toInteractionResponse(interaction))
	}

	return &dto.InteractionListResponse{
		Interactions: responses,
		Total:        total,
	}, nil
}

func (s *assistantService) GetInteraction(ctx context.Context, requestId string) (*dto.InteractionResponse, error) {
	id, err := uuid.Parse(requestId)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "request id must be a valid UUID")
	}

	interaction, err := s.interactionRepo.FindOne(ctx, specification.ByRequestID{RequestID: id})
	if err != nil {
		return nil, err
	}
	if interaction == nil {
		return nil, nil
	}
	return toInteractionResponse(interaction), nil
}

// AcceptHandoff records which agent claimed an escalated interaction and
// announces the claim on the event bus. Only escalated interactions can be
// claimed, and only once.
func (s *assistantService) AcceptHandoff(ctx context.Context, requestId, agentId string) (*dto.InteractionResponse, error) {
	id, err := uuid.Parse(requestId)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "request id must be a valid UUID")
	}

	interaction, err := s.interactionRepo.FindOne(ctx, specification.ByRequestID{RequestID: id})
	if err != nil {
		return nil, err
	}
	if interaction == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "interaction not found")
	}
	if interaction.Outcome != string(pipeline.OutcomeEscalated) {
		return nil, fiber.NewError(fiber.StatusConflict, "interaction is not escalated")
	}
	if interaction.AcceptedBy != nil {
		return nil, fiber.NewError(fiber.StatusConflict, "handoff already accepted")
	}

	now := time.Now()
	found, err := s.interactionRepo.UpdateById(ctx, id, map[string]interface{}{
		"accepted_by": agentId,
		"accepted_at": now,
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fiber.NewError(fiber.StatusNotFound, "interaction not found")
	}

	if s.escalations != nil {
		s.escalations.PublishHandoffAccepted(ctx, interaction.RequestId.String(), agentId)
	}
	s.logger.Info("AssistantService", "Handoff accepted", map[string]interface{}{
		"request_id": interaction.RequestId.String(),
		"agent_id":   agentId,
	})

	interaction.AcceptedBy = &agentId
	interaction.AcceptedAt = &now
	return toInteractionResponse(interaction), nil
}

func toInteractionResponse(interaction *entity.Interaction) *dto.InteractionResponse {
	return &dto.InteractionResponse{
		RequestId:        interaction.RequestId.String(),
		SessionId:        interaction.SessionId,
		Mode:             interaction.Mode,
		QueryText:        interaction.QueryText,
		IntentName:       interaction.IntentName,
		IntentCategory:   interaction.IntentCategory,
		Passages:         interaction.RetrievedPassages,
		ResponseText:     interaction.ResponseText,
		Confidence:       interaction.Confidence,
		Outcome:          interaction.Outcome,
		EscalationReason: interaction.EscalationReason,
		AcceptedBy:       interaction.AcceptedBy,
		AcceptedAt:       interaction.AcceptedAt,
		CreatedAt:        interaction.CreatedAt,
		CompletedAt:      interaction.CompletedAt,
		ProcessingTimeMs: interaction.ProcessingTimeMs,
	}
}
