package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"flooring_crm/internal/models"
	"flooring_crm/internal/repository"
)

// ChecklistService reads and toggles checklist rows. Rows are only created
// by OrderService.CreateOrder.
type ChecklistService interface {
	ListTemplates(ctx context.Context) ([]models.ChecklistTemplate, error)
	GetChecklist(ctx context.Context, orderID uint) ([]models.ChecklistItem, error)
	SetItemCompleted(ctx context.Context, orderID uint, templateID string, completed bool) error
}

type checklistService struct {
	checklistRepo repository.ChecklistRepository
	orderRepo     repository.OrderRepository
	logger        *slog.Logger
}

func NewChecklistService(checklistRepo repository.ChecklistRepository, orderRepo repository.OrderRepository, logger *slog.Logger) ChecklistService {
	return &checklistService{checklistRepo: checklistRepo, orderRepo: orderRepo, logger: logger}
}

func (s *checklistService) ListTemplates(ctx context.Context) ([]models.ChecklistTemplate, error) {
	templates, err := s.checklistRepo.ListTemplates(ctx)
	if err != nil {
		return nil, storageError(err, "checklist templates")
	}
	return templates, nil
}

func (s *checklistService) GetChecklist(ctx context.Context, orderID uint) ([]models.ChecklistItem, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return nil, storageError(err, fmt.Sprintf("order %d", orderID))
	}
	items, err := s.checklistRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, storageError(err, fmt.Sprintf("checklist of order %d", orderID))
	}
	return items, nil
}

func (s *checklistService) SetItemCompleted(ctx context.Context, orderID uint, templateID string, completed bool) error {
	templateID = strings.TrimSpace(templateID)
	if err := s.checklistRepo.SetCompleted(ctx, orderID, templateID, completed, time.Now()); err != nil {
		return storageError(err, fmt.Sprintf("checklist item %q of order %d", templateID, orderID))
	}
	s.logger.Debug("checklist item toggled", "order_id", orderID, "template_id", templateID, "completed", completed)
	return nil
}
