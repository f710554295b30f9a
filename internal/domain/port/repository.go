package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/joakimgrr/framecatcher/internal/domain/entity"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.ComparisonJob) error
	Update(ctx context.Context, job *entity.ComparisonJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ComparisonJob, error)
}
