package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"flooring_crm/internal/apperrors"
	"flooring_crm/internal/lifecycle"
	"flooring_crm/internal/models"
)

func TestCreateOrder_ConcurrentSameCustomerGetsGaplessSequences(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Jan Kowalski", strPtr("42"))

	const n = 8
	var wg sync.WaitGroup
	results := make(chan *models.Order, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := env.orders.CreateOrder(context.Background(), CreateOrderInput{CustomerID: customer.ID})
			if err != nil {
				errs <- err
				return
			}
			results <- order
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("create failed: %v", err)
	}

	var sequences []int
	numbers := map[string]bool{}
	for order := range results {
		require.NotNil(t, order.Sequence)
		require.NotNil(t, order.OrderNumber)
		sequences = append(sequences, *order.Sequence)
		numbers[*order.OrderNumber] = true
	}
	sort.Ints(sequences)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, sequences)
	assert.True(t, numbers["42_1"])
	assert.True(t, numbers["42_8"])
	assert.Len(t, numbers, n)
}

func TestCreateOrder_TwoConcurrentCallsScenario(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "C1", strPtr("42"))

	var wg sync.WaitGroup
	got := make([]*models.Order, 2)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order, err := env.orders.CreateOrder(context.Background(), CreateOrderInput{CustomerID: customer.ID})
			assert.NoError(t, err)
			got[i] = order
		}(i)
	}
	wg.Wait()
	require.NotNil(t, got[0])
	require.NotNil(t, got[1])

	numbers := []string{*got[0].OrderNumber, *got[1].OrderNumber}
	sort.Strings(numbers)
	assert.Equal(t, []string{"42_1", "42_2"}, numbers)

	third, err := env.orders.CreateOrder(context.Background(), CreateOrderInput{CustomerID: customer.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, *third.Sequence)
}

func TestCreateOrder_SequencesAreScopedPerCustomer(t *testing.T) {
	env := newTestEnv(t)
	a := env.customer(t, "A", strPtr("100"))
	b := env.customer(t, "B", nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		for _, id := range []uint{a.ID, b.ID} {
			wg.Add(1)
			go func(id uint) {
				defer wg.Done()
				_, err := env.orders.CreateOrder(ctx, CreateOrderInput{CustomerID: id})
				assert.NoError(t, err)
			}(id)
		}
	}
	wg.Wait()

	for _, id := range []uint{a.ID, b.ID} {
		maxSeq, err := env.orderRepo.MaxSequence(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 3, maxSeq)
	}

	orders, err := env.orders.ListOrders(ctx, 0)
	require.NoError(t, err)
	for _, o := range orders {
		if o.CustomerID == b.ID {
			assert.Nil(t, o.OrderNumber, "customer without public number gets no order number")
		}
	}
}

func TestCreateOrder_DeletedOrderSequenceIsNotReused(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Anna Nowak", strPtr("7"))
	ctx := context.Background()

	first, err := env.orders.CreateOrder(ctx, CreateOrderInput{CustomerID: customer.ID})
	require.NoError(t, err)
	second, err := env.orders.CreateOrder(ctx, CreateOrderInput{CustomerID: customer.ID})
	require.NoError(t, err)
	require.NoError(t, env.orders.DeleteOrder(ctx, second.ID))

	third, err := env.orders.CreateOrder(ctx, CreateOrderInput{CustomerID: customer.ID})
	require.NoError(t, err)

	assert.Equal(t, 1, *first.Sequence)
	assert.Equal(t, 3, *third.Sequence)
	assert.Equal(t, "7_3", *third.OrderNumber)
}

func TestCreateOrder_WithNewCustomer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.orders.CreateOrder(ctx, CreateOrderInput{
		NewCustomer:  &NewCustomerInput{Name: "  Piotr Zieliński ", PublicNumber: strPtr("K-9"), Phone: "600100200"},
		Type:         models.OrderInstallation,
		SampleStatus: models.SampleRequested,
		FloorAreaM2:  42.5,
		DepositPaid:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, lifecycle.StatusNew, order.Status)
	assert.Equal(t, 1, *order.Sequence)
	assert.Equal(t, "K-9_1", *order.OrderNumber)
	require.NotNil(t, order.DepositPaidAt)

	customer, err := env.customers.GetCustomer(ctx, order.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, "Piotr Zieliński", customer.Name)

	items, err := env.checklists.GetChecklist(ctx, order.ID)
	require.NoError(t, err)
	completed := map[string]bool{}
	for i, item := range items {
		assert.Equal(t, i, item.OrderIndex)
		completed[item.TemplateID] = item.Completed
	}
	assert.Len(t, items, 6)
	assert.False(t, completed[lifecycle.TemplateSampleVerification])
	assert.True(t, completed[lifecycle.TemplateSiteMeasurement])
	assert.True(t, completed[lifecycle.TemplateDepositConfirmation])
	_, hasDeliverySlot := completed["delivery_slot"]
	assert.False(t, hasDeliverySlot)
}

func TestCreateOrder_DeliveryChecklist(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Sklep", nil)

	order, err := env.orders.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:   customer.ID,
		Type:         models.OrderDelivery,
		SampleStatus: models.SampleDelivered,
	})
	require.NoError(t, err)

	ids := make([]string, len(order.ChecklistItems))
	for i, item := range order.ChecklistItems {
		ids[i] = item.TemplateID
		assert.NotZero(t, item.ID)
	}
	assert.Equal(t, []string{lifecycle.TemplateSampleVerification, lifecycle.TemplateDepositConfirmation, "delivery_slot", "acceptance_protocol"}, ids)
	assert.True(t, order.ChecklistItems[0].Completed)
}

func TestCreateOrder_Validation(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Jan", nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateOrderInput
		code  apperrors.ErrorCode
	}{
		{name: "no customer", input: CreateOrderInput{}, code: apperrors.CodeInvalidInput},
		{name: "blank new customer name", input: CreateOrderInput{NewCustomer: &NewCustomerInput{Name: "   "}}, code: apperrors.CodeInvalidInput},
		{name: "unknown type", input: CreateOrderInput{CustomerID: customer.ID, Type: "repair"}, code: apperrors.CodeInvalidInput},
		{name: "unknown sample status", input: CreateOrderInput{CustomerID: customer.ID, SampleStatus: "lost"}, code: apperrors.CodeInvalidInput},
		{name: "unknown status", input: CreateOrderInput{CustomerID: customer.ID, Status: "teleported"}, code: apperrors.CodeInvalidInput},
		{name: "missing customer", input: CreateOrderInput{CustomerID: 9999}, code: apperrors.CodeNotFound},
		{name: "both customer and new customer", input: CreateOrderInput{CustomerID: customer.ID, NewCustomer: &NewCustomerInput{Name: "Anna"}}, code: apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.orders.CreateOrder(ctx, tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
		})
	}

	orders, err := env.orders.ListOrders(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_FailureLeavesNothingBehind(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.db.Callback().Create().Before("gorm:create").Register("test:fail_checklist", func(tx *gorm.DB) {
		if tx.Statement.Table == "checklist_items" {
			tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := env.orders.CreateOrder(ctx, CreateOrderInput{NewCustomer: &NewCustomerInput{Name: "Ghost", PublicNumber: strPtr("G1")}})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatabase, apperrors.CodeOf(err))

	var orders, customers, items int64
	require.NoError(t, env.db.Unscoped().Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, env.db.Unscoped().Model(&models.Customer{}).Count(&customers).Error)
	require.NoError(t, env.db.Model(&models.ChecklistItem{}).Count(&items).Error)
	assert.Zero(t, orders)
	assert.Zero(t, customers)
	assert.Zero(t, items)
}

func TestCreateOrder_ConflictRetriesThenFails(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Jan", strPtr("5"))
	ctx := context.Background()

	attempts := 0
	require.NoError(t, env.db.Callback().Create().Before("gorm:create").Register("test:collide", func(tx *gorm.DB) {
		if tx.Statement.Table == "orders" {
			attempts++
			tx.AddError(gorm.ErrDuplicatedKey)
		}
	}))

	_, err := env.orders.CreateOrder(ctx, CreateOrderInput{CustomerID: customer.ID})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
	assert.Equal(t, 3, attempts)
}

func TestCreateOrder_ConflictThenSuccess(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Jan", strPtr("5"))

	attempts := 0
	require.NoError(t, env.db.Callback().Create().Before("gorm:create").Register("test:collide_once", func(tx *gorm.DB) {
		if tx.Statement.Table == "orders" {
			attempts++
			if attempts == 1 {
				tx.AddError(gorm.ErrDuplicatedKey)
			}
		}
	}))

	order, err := env.orders.CreateOrder(context.Background(), CreateOrderInput{CustomerID: customer.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, *order.Sequence)
	assert.Equal(t, 2, attempts)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(gorm.ErrDuplicatedKey))
	assert.True(t, isRetryable(&pgconn.PgError{Code: "40001"}))
	assert.True(t, isRetryable(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, isRetryable(&pgconn.PgError{Code: "23502"}))
	assert.False(t, isRetryable(apperrors.Wrap(apperrors.CodeInvalidInput, "dup public number", gorm.ErrDuplicatedKey)))
	assert.False(t, isRetryable(errors.New("boom")))
}

func TestFormatOrderNumber(t *testing.T) {
	assert.Nil(t, FormatOrderNumber(nil, 1))
	assert.Nil(t, FormatOrderNumber(strPtr(""), 1))
	assert.Equal(t, "42_3", *FormatOrderNumber(strPtr("42"), 3))
}

func TestAllocateSequence_InsideCallerTransaction(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Jan", strPtr("11"))
	ctx := context.Background()

	err := env.db.Transaction(func(tx *gorm.DB) error {
		alloc, err := env.orders.AllocateSequence(ctx, tx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, alloc.Sequence)
		assert.Equal(t, "11_1", *alloc.OrderNumber)
		return errors.New("rollback")
	})
	require.Error(t, err)

	order, err := env.orders.CreateOrder(ctx, CreateOrderInput{CustomerID: customer.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, *order.Sequence)
}

func TestUpdateStatus_ValidatesAgainstLiveTaxonomy(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Jan", nil)
	ctx := context.Background()
	order, err := env.orders.CreateOrder(ctx, CreateOrderInput{CustomerID: customer.ID})
	require.NoError(t, err)

	err = env.orders.UpdateStatus(ctx, order.ID, "waiting_for_permit")
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))

	_, err = env.statuses.SetStatusDefinitions(ctx, []models.StatusDefinition{{ID: "waiting_for_permit", Label: "Czeka na pozwolenie"}}, "ola")
	require.NoError(t, err)

	require.NoError(t, env.orders.UpdateStatus(ctx, order.ID, "waiting_for_permit"))
	require.NoError(t, env.orders.UpdateStatus(ctx, order.ID, lifecycle.StatusQuoteSent))

	err = env.orders.UpdateStatus(ctx, 9999, lifecycle.StatusQuoteSent)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestGetPipeline_UsesOrderData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order, err := env.orders.CreateOrder(ctx, CreateOrderInput{
		NewCustomer: &NewCustomerInput{Name: "Jan", Email: "jan@example.com"},
		Status:      lifecycle.StatusQuoteInProgress,
	})
	require.NoError(t, err)

	quote, err := env.orders.AddQuote(ctx, order.ID, QuoteInput{Number: "OF/1/2026", TotalGross: 12500})
	require.NoError(t, err)
	require.NoError(t, env.orders.UpdateQuoteStatus(ctx, quote.ID, models.QuoteSent))

	measured := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	area := 31.0
	require.NoError(t, env.orders.UpdateDetails(ctx, order.ID, OrderDetailsInput{MeasuredAt: &measured, FloorAreaM2: &area}))

	state, err := env.orders.GetPipeline(ctx, order.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, state.CurrentStepIndex)
	assert.Equal(t, 40, state.ProgressPercent)
	assert.False(t, state.Unmapped)

	met := map[string]bool{}
	for _, step := range state.Steps {
		for _, cp := range step.Checkpoints {
			met[cp.Key] = cp.IsMet
		}
	}
	assert.True(t, met["contact_details"])
	assert.True(t, met["measurement_recorded"])
	assert.True(t, met["quote_sent"])
	assert.False(t, met["quote_accepted"])

	again, err := env.orders.GetPipeline(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, state, again)
}

func TestUpdateDetails(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Jan", nil)
	ctx := context.Background()
	order, err := env.orders.CreateOrder(ctx, CreateOrderInput{CustomerID: customer.ID})
	require.NoError(t, err)

	err = env.orders.UpdateDetails(ctx, order.ID, OrderDetailsInput{})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))

	bad := models.MaterialStatus("lost")
	err = env.orders.UpdateDetails(ctx, order.ID, OrderDetailsInput{MaterialStatus: &bad})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))

	delivered := models.MaterialDelivered
	installer := "  Ekipa B "
	require.NoError(t, env.orders.UpdateDetails(ctx, order.ID, OrderDetailsInput{MaterialStatus: &delivered, InstallerName: &installer}))
	require.NoError(t, env.orders.UpdatePipelineStage(ctx, order.ID, " Do montażu "))

	got, err := env.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MaterialDelivered, got.MaterialStatus)
	assert.Equal(t, "Ekipa B", got.InstallerName)
	assert.Equal(t, "Do montażu", got.PipelineStage)
	assert.Equal(t, lifecycle.StatusNew, got.Status, "board stage is independent of status")
}

func TestQuotes(t *testing.T) {
	env := newTestEnv(t)
	customer := env.customer(t, "Jan", nil)
	ctx := context.Background()
	order, err := env.orders.CreateOrder(ctx, CreateOrderInput{CustomerID: customer.ID})
	require.NoError(t, err)

	_, err = env.orders.AddQuote(ctx, 9999, QuoteInput{Number: "X"})
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	quote, err := env.orders.AddQuote(ctx, order.ID, QuoteInput{Number: "OF/2"})
	require.NoError(t, err)
	assert.Equal(t, models.QuoteDraft, quote.Status)

	err = env.orders.UpdateQuoteStatus(ctx, quote.ID, "maybe")
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))

	require.NoError(t, env.orders.UpdateQuoteStatus(ctx, quote.ID, models.QuoteAccepted))
	got, err := env.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Quotes, 1)
	assert.Equal(t, models.QuoteAccepted, got.Quotes[0].Status)
	assert.NotNil(t, got.Quotes[0].AcceptedAt)
}
