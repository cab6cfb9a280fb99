package shares

import (
	"context"

	"github.com/akarpov/sealbox/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, share *models.Share) error
	Get(ctx context.Context, fileID, recipientID string) (*models.Share, error)
	GetForUpdate(ctx context.Context, fileID, recipientID string) (*models.Share, error)
	ListForFile(ctx context.Context, fileID string) ([]*models.Share, error)
	Revoke(ctx context.Context, fileID, recipientID, revokerID string) error
	RevokeAllForFile(ctx context.Context, fileID, revokerID string) error
}
