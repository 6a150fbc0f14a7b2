package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"one-ui-backend/internal/model"
	"one-ui-backend/internal/repository"
)

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) repository.GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *groupRepository) Update(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).Save(group).Error
}

func (r *groupRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.Group{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) GetByName(ctx context.Context, name string) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).First(&group, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) List(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepository) ListDueRollouts(ctx context.Context, now time.Time) ([]model.Group, error) {
	var groups []model.Group
	err := r.db.WithContext(ctx).
		Where("pending_json <> '' AND rollout_at IS NOT NULL AND rollout_at <= ?", now).
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}
