package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flooring_crm/internal/apperrors"
	"flooring_crm/internal/lifecycle"
	"flooring_crm/internal/models"
)

func TestChecklist_ToggleItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.customer(t, "Jan", nil)
	order, err := env.orders.CreateOrder(ctx, CreateOrderInput{CustomerID: customer.ID, SampleStatus: models.SampleSent})
	require.NoError(t, err)

	require.NoError(t, env.checklists.SetItemCompleted(ctx, order.ID, lifecycle.TemplateSampleVerification, true))
	items, err := env.checklists.GetChecklist(ctx, order.ID)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	assert.Equal(t, lifecycle.TemplateSampleVerification, items[0].TemplateID)
	assert.True(t, items[0].Completed)
	assert.NotNil(t, items[0].CompletedAt)

	require.NoError(t, env.checklists.SetItemCompleted(ctx, order.ID, lifecycle.TemplateSampleVerification, false))
	items, err = env.checklists.GetChecklist(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, items[0].Completed)
	assert.Nil(t, items[0].CompletedAt)
}

func TestChecklist_NotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.customer(t, "Jan", nil)
	order, err := env.orders.CreateOrder(ctx, CreateOrderInput{CustomerID: customer.ID, Type: models.OrderDelivery})
	require.NoError(t, err)

	_, err = env.checklists.GetChecklist(ctx, 9999)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	// Installation-only template is not on a delivery order.
	err = env.checklists.SetItemCompleted(ctx, order.ID, lifecycle.TemplateSiteMeasurement, true)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestChecklist_InactiveTemplatesAreSkipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	templates, err := env.checklists.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 7)
	assert.Equal(t, lifecycle.TemplateSampleVerification, templates[0].ID)

	require.NoError(t, env.db.Model(&models.ChecklistTemplate{}).Where("id = ?", "acceptance_protocol").Update("active", false).Error)

	customer := env.customer(t, "Jan", nil)
	order, err := env.orders.CreateOrder(ctx, CreateOrderInput{CustomerID: customer.ID, Type: models.OrderDelivery})
	require.NoError(t, err)
	for _, item := range order.ChecklistItems {
		assert.NotEqual(t, "acceptance_protocol", item.TemplateID)
	}
}
