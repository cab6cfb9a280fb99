package signatures

import (
	"context"

	"github.com/akarpov/sealbox/internal/server/models"
)

type Repository interface {
	Attach(ctx context.Context, sig *models.Signature) error
	GetForFile(ctx context.Context, fileID string) (*models.Signature, error)
}
