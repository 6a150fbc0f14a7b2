package repository

import (
	"context"

	"one-ui-backend/internal/model"
)

type SettingRepository interface {
	Get(ctx context.Context, key string) (*model.Setting, error)
	Put(ctx context.Context, setting *model.Setting) error
}
