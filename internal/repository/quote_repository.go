package repository

import (
	"context"
	"time"

	"flooring_crm/internal/models"

	"gorm.io/gorm"
)

type QuoteRepository interface {
	Create(ctx context.Context, quote *models.Quote) error
	GetByID(ctx context.Context, id uint) (*models.Quote, error)
	GetByOrderID(ctx context.Context, orderID uint) ([]models.Quote, error)
	UpdateStatus(ctx context.Context, id uint, status models.QuoteStatus, at time.Time) error
}

type quoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

func (r *quoteRepository) Create(ctx context.Context, quote *models.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *quoteRepository) GetByID(ctx context.Context, id uint) (*models.Quote, error) {
	var quote models.Quote
	err := r.db.WithContext(ctx).First(&quote, id).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepository) GetByOrderID(ctx context.Context, orderID uint) ([]models.Quote, error) {
	var quotes []models.Quote
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&quotes).Error
	return quotes, err
}

// UpdateStatus stamps SentAt or AcceptedAt when the quote reaches that status.
func (r *quoteRepository) UpdateStatus(ctx context.Context, id uint, status models.QuoteStatus, at time.Time) error {
	fields := map[string]interface{}{"status": status}
	switch status {
	case models.QuoteSent:
		fields["sent_at"] = at
	case models.QuoteAccepted:
		fields["accepted_at"] = at
	}

	result := r.db.WithContext(ctx).Model(&models.Quote{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
