package database

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"one-ui-backend/internal/model"
	"one-ui-backend/internal/repository"
)

type backupRepository struct {
	db *gorm.DB
}

func NewBackupRepository(db *gorm.DB) repository.BackupRepository {
	return &backupRepository{db: db}
}

func (r *backupRepository) Create(ctx context.Context, record *model.BackupRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *backupRepository) Update(ctx context.Context, record *model.BackupRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *backupRepository) GetByID(ctx context.Context, id string) (*model.BackupRecord, error) {
	var record model.BackupRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *backupRepository) List(ctx context.Context, limit int) ([]model.BackupRecord, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var records []model.BackupRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *backupRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.BackupRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
