package database

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"one-ui-backend/internal/model"
	"one-ui-backend/internal/repository"
)

type apiKeyRepository struct {
	db *gorm.DB
}

func NewAPIKeyRepository(db *gorm.DB) repository.APIKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) Create(ctx context.Context, key *model.APIKey) error {
	return r.db.WithContext(ctx).Create(key).Error
}

func (r *apiKeyRepository) Update(ctx context.Context, key *model.APIKey) error {
	return r.db.WithContext(ctx).Save(key).Error
}

func (r *apiKeyRepository) GetByID(ctx context.Context, id string) (*model.APIKey, error) {
	var key model.APIKey
	if err := r.db.WithContext(ctx).First(&key, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &key, nil
}

func (r *apiKeyRepository) GetByPrefix(ctx context.Context, prefix string) (*model.APIKey, error) {
	var key model.APIKey
	if err := r.db.WithContext(ctx).First(&key, "prefix = ?", prefix).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &key, nil
}

func (r *apiKeyRepository) List(ctx context.Context) ([]model.APIKey, error) {
	var keys []model.APIKey
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}
