package repository

import (
	"context"

	"one-ui-backend/internal/model"
)

type APIKeyRepository interface {
	Create(ctx context.Context, key *model.APIKey) error
	Update(ctx context.Context, key *model.APIKey) error
	GetByID(ctx context.Context, id string) (*model.APIKey, error)
	GetByPrefix(ctx context.Context, prefix string) (*model.APIKey, error)
	List(ctx context.Context) ([]model.APIKey, error)
}
