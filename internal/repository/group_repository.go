package repository

import (
	"context"
	"time"

	"one-ui-backend/internal/model"
)

type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	Update(ctx context.Context, group *model.Group) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Group, error)
	GetByName(ctx context.Context, name string) (*model.Group, error)
	List(ctx context.Context) ([]model.Group, error)
	ListDueRollouts(ctx context.Context, now time.Time) ([]model.Group, error)
}
