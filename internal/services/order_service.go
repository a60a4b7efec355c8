package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"flooring_crm/internal/apperrors"
	"flooring_crm/internal/lifecycle"
	"flooring_crm/internal/models"
	"flooring_crm/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type CreateOrderInput struct {
	CustomerID    uint                `json:"customer_id"`
	NewCustomer   *NewCustomerInput   `json:"new_customer"`
	Type          models.OrderType    `json:"type"`
	Status        string              `json:"status"`
	PipelineStage string              `json:"pipeline_stage"`
	SampleStatus  models.SampleStatus `json:"sample_status"`
	FloorAreaM2   float64             `json:"floor_area_m2"`
	Address       string              `json:"address"`
	Notes         string              `json:"notes"`
	DepositPaid   bool                `json:"deposit_paid"`
}

// OrderDetailsInput carries a partial update; nil fields are left untouched.
type OrderDetailsInput struct {
	SampleStatus            *models.SampleStatus   `json:"sample_status"`
	MaterialStatus          *models.MaterialStatus `json:"material_status"`
	FloorAreaM2             *float64               `json:"floor_area_m2"`
	Address                 *string                `json:"address"`
	Notes                   *string                `json:"notes"`
	ScheduledMeasurementAt  *time.Time             `json:"scheduled_measurement_at"`
	MeasuredAt              *time.Time             `json:"measured_at"`
	DepositPaidAt           *time.Time             `json:"deposit_paid_at"`
	ScheduledInstallationAt *time.Time             `json:"scheduled_installation_at"`
	InstallerName           *string                `json:"installer_name"`
	CustomerSignedAt        *time.Time             `json:"customer_signed_at"`
	ProtocolSignedAt        *time.Time             `json:"protocol_signed_at"`
	InvoiceNumber           *string                `json:"invoice_number"`
}

type QuoteInput struct {
	Number     string  `json:"number"`
	TotalGross float64 `json:"total_gross"`
}

type SequenceAllocation struct {
	Sequence    int
	OrderNumber *string
}

type OrderService interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	// AllocateSequence must run on the transaction that inserts the order.
	AllocateSequence(ctx context.Context, tx *gorm.DB, customerID uint) (*SequenceAllocation, error)
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	ListOrders(ctx context.Context, limit int) ([]models.Order, error)
	GetPipeline(ctx context.Context, id uint) (*lifecycle.PipelineState, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	UpdatePipelineStage(ctx context.Context, id uint, stage string) error
	UpdateDetails(ctx context.Context, id uint, input OrderDetailsInput) error
	DeleteOrder(ctx context.Context, id uint) error
	AddQuote(ctx context.Context, orderID uint, input QuoteInput) (*models.Quote, error)
	UpdateQuoteStatus(ctx context.Context, quoteID uint, status models.QuoteStatus) error
}

type orderService struct {
	db            *gorm.DB
	orderRepo     repository.OrderRepository
	customerRepo  repository.CustomerRepository
	checklistRepo repository.ChecklistRepository
	quoteRepo     repository.QuoteRepository
	statusService StatusService
	maxAttempts   int
	logger        *slog.Logger
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	checklistRepo repository.ChecklistRepository,
	quoteRepo repository.QuoteRepository,
	statusService StatusService,
	maxAttempts int,
	logger *slog.Logger,
) OrderService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &orderService{
		db:            db,
		orderRepo:     orderRepo,
		customerRepo:  customerRepo,
		checklistRepo: checklistRepo,
		quoteRepo:     quoteRepo,
		statusService: statusService,
		maxAttempts:   maxAttempts,
		logger:        logger,
	}
}

// CreateOrder inserts the order, its sequence and its checklist in one
// transaction. The whole transaction is retried when a concurrent creation
// for the same customer wins the sequence.
func (s *orderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	input, err := s.validateCreate(ctx, input)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		order, err := s.createOrderOnce(ctx, input)
		if err == nil {
			s.logger.Info("order created",
				"order_id", order.ID,
				"customer_id", order.CustomerID,
				"sequence", *order.Sequence,
				"attempt", attempt,
			)
			return order, nil
		}
		if !isRetryable(err) {
			return nil, storageError(err, "order")
		}
		if attempt >= s.maxAttempts {
			return nil, apperrors.Conflict(fmt.Sprintf("order sequence allocation failed after %d attempts", attempt), err)
		}

		s.logger.Warn("order creation collided, retrying", "attempt", attempt, "error", err)
		if err := sleepContext(ctx, retryBackoff(attempt)); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, "order creation cancelled", err)
		}
	}
}

func (s *orderService) validateCreate(ctx context.Context, input CreateOrderInput) (CreateOrderInput, error) {
	if input.CustomerID != 0 && input.NewCustomer != nil {
		return input, apperrors.InvalidInput("give either customer_id or new_customer, not both")
	}
	if input.CustomerID == 0 {
		if input.NewCustomer == nil || strings.TrimSpace(input.NewCustomer.Name) == "" {
			return input, apperrors.InvalidInput("customer name is required")
		}
	}

	if input.Type == "" {
		input.Type = models.OrderInstallation
	}
	if !input.Type.Valid() {
		return input, apperrors.InvalidInput(fmt.Sprintf("unknown order type %q", input.Type))
	}

	if input.SampleStatus == "" {
		input.SampleStatus = models.SampleNone
	}
	if !input.SampleStatus.Valid() {
		return input, apperrors.InvalidInput(fmt.Sprintf("unknown sample status %q", input.SampleStatus))
	}

	input.Status = strings.TrimSpace(input.Status)
	if input.Status == "" {
		input.Status = lifecycle.StatusNew
	} else if err := s.requireKnownStatus(ctx, input.Status); err != nil {
		return input, err
	}

	input.PipelineStage = strings.TrimSpace(input.PipelineStage)
	return input, nil
}

func (s *orderService) createOrderOnce(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customerID := input.CustomerID
		if customerID == 0 {
			customer, err := createCustomer(ctx, s.customerRepo.WithTx(tx), *input.NewCustomer)
			if err != nil {
				return err
			}
			customerID = customer.ID
		}

		alloc, err := s.AllocateSequence(ctx, tx, customerID)
		if err != nil {
			return err
		}

		now := time.Now()
		order = &models.Order{
			CustomerID:     customerID,
			Type:           input.Type,
			Sequence:       &alloc.Sequence,
			OrderNumber:    alloc.OrderNumber,
			Status:         input.Status,
			PipelineStage:  input.PipelineStage,
			SampleStatus:   input.SampleStatus,
			MaterialStatus: models.MaterialNotOrdered,
			FloorAreaM2:    input.FloorAreaM2,
			Address:        strings.TrimSpace(input.Address),
			Notes:          input.Notes,
		}
		if input.DepositPaid {
			order.DepositPaidAt = &now
		}
		if err := s.orderRepo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}

		checklist := s.checklistRepo.WithTx(tx)
		templates, err := checklist.ListTemplates(ctx)
		if err != nil {
			return err
		}
		items := lifecycle.InstantiateChecklist(order.ID, lifecycle.TemplatesFor(templates, order.Type), lifecycle.ChecklistContext{
			SampleStatus:    order.SampleStatus,
			OrderType:       order.Type,
			DepositPaid:     input.DepositPaid,
			HasMeasurements: input.FloorAreaM2 > 0,
		}, now)
		if err := checklist.CreateItems(ctx, items); err != nil {
			return err
		}
		order.ChecklistItems = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// AllocateSequence locks the customer row, so concurrent allocations for one
// customer queue behind each other while other customers proceed.
func (s *orderService) AllocateSequence(ctx context.Context, tx *gorm.DB, customerID uint) (*SequenceAllocation, error) {
	customer, err := s.customerRepo.WithTx(tx).GetByIDForUpdate(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(fmt.Sprintf("customer %d not found", customerID))
		}
		return nil, err
	}

	maxSeq, err := s.orderRepo.WithTx(tx).MaxSequence(ctx, customerID)
	if err != nil {
		return nil, err
	}

	next := maxSeq + 1
	return &SequenceAllocation{
		Sequence:    next,
		OrderNumber: FormatOrderNumber(customer.PublicNumber, next),
	}, nil
}

// FormatOrderNumber returns "{publicNumber}_{sequence}", or nil when the
// customer has no public number.
func FormatOrderNumber(publicNumber *string, sequence int) *string {
	if publicNumber == nil || *publicNumber == "" {
		return nil
	}
	number := *publicNumber + "_" + strconv.Itoa(sequence)
	return &number
}

func (s *orderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetWithDetails(ctx, id)
	if err != nil {
		return nil, storageError(err, fmt.Sprintf("order %d", id))
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	orders, err := s.orderRepo.List(ctx, limit)
	if err != nil {
		return nil, storageError(err, "orders")
	}
	return orders, nil
}

func (s *orderService) GetPipeline(ctx context.Context, id uint) (*lifecycle.PipelineState, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	state := lifecycle.Project(order)
	return &state, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id uint, status string) error {
	status = strings.TrimSpace(status)
	if err := s.requireKnownStatus(ctx, status); err != nil {
		return err
	}
	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		return storageError(err, fmt.Sprintf("order %d", id))
	}
	s.logger.Info("order status changed", "order_id", id, "status", status)
	return nil
}

func (s *orderService) requireKnownStatus(ctx context.Context, status string) error {
	known, err := s.statusService.IsKnownStatus(ctx, status)
	if err != nil {
		return err
	}
	if !known {
		return apperrors.InvalidInput(fmt.Sprintf("unknown status %q", status))
	}
	return nil
}

func (s *orderService) UpdatePipelineStage(ctx context.Context, id uint, stage string) error {
	err := s.orderRepo.UpdateFields(ctx, id, map[string]interface{}{"pipeline_stage": strings.TrimSpace(stage)})
	if err != nil {
		return storageError(err, fmt.Sprintf("order %d", id))
	}
	return nil
}

func (s *orderService) UpdateDetails(ctx context.Context, id uint, input OrderDetailsInput) error {
	fields := map[string]interface{}{}
	if input.SampleStatus != nil {
		if !input.SampleStatus.Valid() {
			return apperrors.InvalidInput(fmt.Sprintf("unknown sample status %q", *input.SampleStatus))
		}
		fields["sample_status"] = *input.SampleStatus
	}
	if input.MaterialStatus != nil {
		if !input.MaterialStatus.Valid() {
			return apperrors.InvalidInput(fmt.Sprintf("unknown material status %q", *input.MaterialStatus))
		}
		fields["material_status"] = *input.MaterialStatus
	}
	if input.FloorAreaM2 != nil {
		if *input.FloorAreaM2 < 0 {
			return apperrors.InvalidInput("floor area cannot be negative")
		}
		fields["floor_area_m2"] = *input.FloorAreaM2
	}
	setString := func(column string, v *string) {
		if v != nil {
			fields[column] = strings.TrimSpace(*v)
		}
	}
	setTime := func(column string, v *time.Time) {
		if v != nil {
			fields[column] = *v
		}
	}
	setString("address", input.Address)
	setString("installer_name", input.InstallerName)
	setString("invoice_number", input.InvoiceNumber)
	if input.Notes != nil {
		fields["notes"] = *input.Notes
	}
	setTime("scheduled_measurement_at", input.ScheduledMeasurementAt)
	setTime("measured_at", input.MeasuredAt)
	setTime("deposit_paid_at", input.DepositPaidAt)
	setTime("scheduled_installation_at", input.ScheduledInstallationAt)
	setTime("customer_signed_at", input.CustomerSignedAt)
	setTime("protocol_signed_at", input.ProtocolSignedAt)

	if len(fields) == 0 {
		return apperrors.InvalidInput("no fields to update")
	}
	if err := s.orderRepo.UpdateFields(ctx, id, fields); err != nil {
		return storageError(err, fmt.Sprintf("order %d", id))
	}
	return nil
}

// DeleteOrder soft-deletes; the sequence stays taken.
func (s *orderService) DeleteOrder(ctx context.Context, id uint) error {
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return storageError(err, fmt.Sprintf("order %d", id))
	}
	s.logger.Info("order deleted", "order_id", id)
	return nil
}

func (s *orderService) AddQuote(ctx context.Context, orderID uint, input QuoteInput) (*models.Quote, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return nil, storageError(err, fmt.Sprintf("order %d", orderID))
	}
	if input.TotalGross < 0 {
		return nil, apperrors.InvalidInput("quote total cannot be negative")
	}

	quote := &models.Quote{
		OrderID:    orderID,
		Number:     strings.TrimSpace(input.Number),
		Status:     models.QuoteDraft,
		TotalGross: input.TotalGross,
	}
	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		return nil, storageError(err, "quote")
	}
	return quote, nil
}

func (s *orderService) UpdateQuoteStatus(ctx context.Context, quoteID uint, status models.QuoteStatus) error {
	if !status.Valid() {
		return apperrors.InvalidInput(fmt.Sprintf("unknown quote status %q", status))
	}
	if err := s.quoteRepo.UpdateStatus(ctx, quoteID, status, time.Now()); err != nil {
		return storageError(err, fmt.Sprintf("quote %d", quoteID))
	}
	return nil
}

// isRetryable reports whether err came from losing a race on the sequence:
// a unique violation, a serialization failure or a deadlock.
func isRetryable(err error) bool {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "40001", "40P01":
			return true
		}
	}
	return false
}

func retryBackoff(attempt int) time.Duration {
	base := time.Duration(attempt) * 10 * time.Millisecond
	return base + time.Duration(rand.Int63n(int64(10*time.Millisecond)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
