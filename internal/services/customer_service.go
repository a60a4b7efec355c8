package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flooring_crm/internal/apperrors"
	"flooring_crm/internal/models"
	"flooring_crm/internal/repository"

	"gorm.io/gorm"
)

type NewCustomerInput struct {
	Name         string  `json:"name"`
	PublicNumber *string `json:"public_number"`
	Phone        string  `json:"phone"`
	Email        string  `json:"email"`
}

type CustomerService interface {
	CreateCustomer(ctx context.Context, input NewCustomerInput) (*models.Customer, error)
	GetCustomer(ctx context.Context, id uint) (*models.Customer, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository) CustomerService {
	return &customerService{customerRepo: customerRepo}
}

func (s *customerService) CreateCustomer(ctx context.Context, input NewCustomerInput) (*models.Customer, error) {
	return createCustomer(ctx, s.customerRepo, input)
}

func (s *customerService) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err, fmt.Sprintf("customer %d", id))
	}
	return customer, nil
}

// createCustomer is shared with order creation, which passes a
// transaction-bound repository.
func createCustomer(ctx context.Context, repo repository.CustomerRepository, input NewCustomerInput) (*models.Customer, error) {
	customer := &models.Customer{
		Name:  strings.TrimSpace(input.Name),
		Phone: strings.TrimSpace(input.Phone),
		Email: strings.TrimSpace(input.Email),
	}
	if customer.Name == "" {
		return nil, apperrors.InvalidInput("customer name is required")
	}
	if input.PublicNumber != nil {
		if number := strings.TrimSpace(*input.PublicNumber); number != "" {
			customer.PublicNumber = &number
		}
	}

	if err := repo.Create(ctx, customer); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "customer public number already in use", err)
		}
		return nil, apperrors.Database("failed to create customer", err)
	}
	return customer, nil
}
