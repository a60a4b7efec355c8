package repository

import (
	"context"
	"time"

	"flooring_crm/internal/models"

	"gorm.io/gorm"
)

type ChecklistRepository interface {
	WithTx(tx *gorm.DB) ChecklistRepository
	ListTemplates(ctx context.Context) ([]models.ChecklistTemplate, error)
	SaveTemplate(ctx context.Context, template *models.ChecklistTemplate) error
	CreateItems(ctx context.Context, items []models.ChecklistItem) error
	GetByOrderID(ctx context.Context, orderID uint) ([]models.ChecklistItem, error)
	SetCompleted(ctx context.Context, orderID uint, templateID string, completed bool, at time.Time) error
}

type checklistRepository struct {
	db *gorm.DB
}

func NewChecklistRepository(db *gorm.DB) ChecklistRepository {
	return &checklistRepository{db: db}
}

func (r *checklistRepository) WithTx(tx *gorm.DB) ChecklistRepository {
	return &checklistRepository{db: tx}
}

// ListTemplates returns every template ordered by position.
func (r *checklistRepository) ListTemplates(ctx context.Context) ([]models.ChecklistTemplate, error) {
	var templates []models.ChecklistTemplate
	err := r.db.WithContext(ctx).Order("position").Order("id").Find(&templates).Error
	return templates, err
}

func (r *checklistRepository) SaveTemplate(ctx context.Context, template *models.ChecklistTemplate) error {
	return r.db.WithContext(ctx).Save(template).Error
}

// CreateItems inserts all rows in one statement.
func (r *checklistRepository) CreateItems(ctx context.Context, items []models.ChecklistItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *checklistRepository) GetByOrderID(ctx context.Context, orderID uint) ([]models.ChecklistItem, error) {
	var items []models.ChecklistItem
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("order_index").Find(&items).Error
	return items, err
}

func (r *checklistRepository) SetCompleted(ctx context.Context, orderID uint, templateID string, completed bool, at time.Time) error {
	fields := map[string]interface{}{"completed": completed, "completed_at": nil}
	if completed {
		fields["completed_at"] = at
	}

	result := r.db.WithContext(ctx).Model(&models.ChecklistItem{}).
		Where("order_id = ? AND template_id = ?", orderID, templateID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
