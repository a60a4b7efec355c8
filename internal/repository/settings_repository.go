package repository

import (
	"context"
	"errors"
	"time"

	"flooring_crm/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SettingsRepository interface {
	Get(ctx context.Context, key string) (*models.AppSetting, error)
	// Put overwrites the value and bumps its version. Last write wins.
	Put(ctx context.Context, key string, value []byte, updatedBy string) (*models.AppSetting, error)
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, key string) (*models.AppSetting, error) {
	var setting models.AppSetting
	err := r.db.WithContext(ctx).Where(&models.AppSetting{Key: key}).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *settingsRepository) Put(ctx context.Context, key string, value []byte, updatedBy string) (*models.AppSetting, error) {
	var saved models.AppSetting
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where(&models.AppSetting{Key: key}).First(&saved).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		saved.Key = key
		saved.Value = datatypes.JSON(value)
		saved.Version++
		saved.UpdatedBy = updatedBy
		saved.UpdatedAt = time.Now()
		return tx.Save(&saved).Error
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}
