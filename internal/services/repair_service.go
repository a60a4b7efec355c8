package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"flooring_crm/internal/apperrors"
	"flooring_crm/internal/lifecycle"
	"flooring_crm/internal/models"
	"flooring_crm/internal/repository"
)

// RepairService audits orders whose stored status is not a system status
// and lets an operator move them onto one. Repairs are never automatic.
type RepairService interface {
	FindDriftedOrders(ctx context.Context) ([]models.Order, error)
	RepairStatus(ctx context.Context, orderID uint, newStatus string) error
}

type repairService struct {
	orderRepo repository.OrderRepository
	batchSize int
	logger    *slog.Logger
}

func NewRepairService(orderRepo repository.OrderRepository, batchSize int, logger *slog.Logger) RepairService {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &repairService{orderRepo: orderRepo, batchSize: batchSize, logger: logger}
}

func (s *repairService) FindDriftedOrders(ctx context.Context) ([]models.Order, error) {
	drifted, err := s.orderRepo.ListWithStatusNotIn(ctx, lifecycle.SystemStatusIDs(), s.batchSize)
	if err != nil {
		return nil, storageError(err, "orders")
	}
	if drifted == nil {
		drifted = []models.Order{}
	}
	if len(drifted) == s.batchSize {
		s.logger.Warn("drift audit hit batch limit, more drifted orders may exist", "batch_size", s.batchSize)
	}
	return drifted, nil
}

func (s *repairService) RepairStatus(ctx context.Context, orderID uint, newStatus string) error {
	newStatus = strings.TrimSpace(newStatus)
	if !lifecycle.IsSystemStatus(newStatus) {
		return apperrors.InvalidInput(fmt.Sprintf("%q is not a system status", newStatus))
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return storageError(err, fmt.Sprintf("order %d", orderID))
	}
	if err := s.orderRepo.UpdateStatus(ctx, orderID, newStatus); err != nil {
		return storageError(err, fmt.Sprintf("order %d", orderID))
	}

	s.logger.Info("order status repaired", "order_id", orderID, "from", order.Status, "to", newStatus)
	return nil
}
