package service

import (
	"context"

	"contactiq-be/internal/mapper"
	"contactiq-be/internal/repository/contract"
	"contactiq-be/pkg/audit"
	"contactiq-be/pkg/pipeline"
)

// interactionAuditStore adapts the interaction repository to the audit
// logger's store contract.
type interactionAuditStore struct {
	repo   contract.InteractionRepository
	mapper *mapper.InteractionMapper
}

func NewInteractionAuditStore(repo contract.InteractionRepository) audit.Store {
	return &interactionAuditStore{
		repo:   repo,
		mapper: mapper.NewInteractionMapper(),
	}
}

func (s *interactionAuditStore) InsertIfAbsent(ctx context.Context, interaction *pipeline.Interaction) (bool, error) {
	return s.repo.InsertIfAbsent(ctx, s.mapper.FromPipeline(interaction))
}
