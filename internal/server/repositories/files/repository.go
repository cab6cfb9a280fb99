package files

import (
	"context"

	"github.com/akarpov/sealbox/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	Get(ctx context.Context, id string) (*models.File, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error)
	SoftDelete(ctx context.Context, id string) error
}
