package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"flooring_crm/internal/migrations"
	"flooring_crm/internal/models"
	"flooring_crm/internal/redis"
	"flooring_crm/internal/repository"
	"flooring_crm/internal/testutil"
)

type testEnv struct {
	db         *gorm.DB
	cache      *redis.Client
	orders     OrderService
	statuses   StatusService
	customers  CustomerService
	checklists ChecklistService
	repair     RepairService
	orderRepo  repository.OrderRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := testutil.DiscardLogger()

	db := testutil.NewDB(t)
	require.NoError(t, migrations.SeedChecklistTemplates(ctx, db, logger))

	mr := miniredis.RunT(t)
	cache, err := redis.Initialize("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	orderRepo := repository.NewOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	checklistRepo := repository.NewChecklistRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	statuses := NewStatusService(settingsRepo, cache, time.Minute, logger)
	return &testEnv{
		db:         db,
		cache:      cache,
		statuses:   statuses,
		orders:     NewOrderService(db, orderRepo, customerRepo, checklistRepo, quoteRepo, statuses, 3, logger),
		customers:  NewCustomerService(customerRepo),
		checklists: NewChecklistService(checklistRepo, orderRepo, logger),
		repair:     NewRepairService(orderRepo, 1000, logger),
		orderRepo:  orderRepo,
	}
}

func (e *testEnv) customer(t *testing.T, name string, publicNumber *string) *models.Customer {
	t.Helper()
	c, err := e.customers.CreateCustomer(context.Background(), NewCustomerInput{Name: name, PublicNumber: publicNumber})
	require.NoError(t, err)
	return c
}

func strPtr(s string) *string { return &s }
