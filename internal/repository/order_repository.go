package repository

import (
	"context"

	"flooring_crm/internal/models"

	"gorm.io/gorm"
)

type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetWithDetails(ctx context.Context, id uint) (*models.Order, error)
	List(ctx context.Context, limit int) ([]models.Order, error)
	// ListWithStatusNotIn returns up to limit orders whose status is outside statuses.
	ListWithStatusNotIn(ctx context.Context, statuses []string, limit int) ([]models.Order, error)
	// MaxSequence includes soft-deleted orders so their sequences are never reused.
	MaxSequence(ctx context.Context, customerID uint) (int, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepository{db: tx}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Customer", "Quotes", "ChecklistItems").Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetWithDetails loads everything the pipeline checkpoints read.
func (r *orderRepository) GetWithDetails(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Quotes", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("ChecklistItems", func(db *gorm.DB) *gorm.DB { return db.Order("order_index") }).
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Order("id").Limit(limit).Find(&orders).Error
	return orders, err
}

func (r *orderRepository) ListWithStatusNotIn(ctx context.Context, statuses []string, limit int) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.WithContext(ctx).Order("id").Limit(limit)
	if len(statuses) > 0 {
		query = query.Where("status NOT IN ?", statuses)
	}
	err := query.Find(&orders).Error
	return orders, err
}

func (r *orderRepository) MaxSequence(ctx context.Context, customerID uint) (int, error) {
	var maxSeq int
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Order{}).
		Where("customer_id = ?", customerID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&maxSeq).Error
	return maxSeq, err
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"status": status})
}

func (r *orderRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Order{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
