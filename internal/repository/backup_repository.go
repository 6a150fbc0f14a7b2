package repository

import (
	"context"

	"one-ui-backend/internal/model"
)

type BackupRepository interface {
	Create(ctx context.Context, record *model.BackupRecord) error
	Update(ctx context.Context, record *model.BackupRecord) error
	GetByID(ctx context.Context, id string) (*model.BackupRecord, error)
	// List returns records newest first. A non-positive limit returns all.
	List(ctx context.Context, limit int) ([]model.BackupRecord, error)
	Delete(ctx context.Context, id string) error
}
