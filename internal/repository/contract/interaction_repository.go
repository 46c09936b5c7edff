package contract

import (
	"context"

	"contactiq-be/internal/entity"
	"contactiq-be/internal/repository/specification"

	"github.com/google/uuid"
)

type InteractionRepository interface {
	// InsertIfAbsent writes the record unless one already exists for the
	// request id. Returns whether a row was inserted.
	InsertIfAbsent(ctx context.Context, interaction *entity.Interaction) (bool, error)

	// UpdateById patches an existing record. Returns whether it was found.
	UpdateById(ctx context.Context, requestId uuid.UUID, patch map[string]interface{}) (bool, error)

	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Interaction, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Interaction, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
