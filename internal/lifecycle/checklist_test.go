package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flooring_crm/internal/models"
)

func checklistTemplates() []models.ChecklistTemplate {
	return []models.ChecklistTemplate{
		{ID: TemplateSampleVerification, Label: "Verify floor sample", Active: true},
		{ID: TemplateSiteMeasurement, Label: "Site measurement", Active: true, OrderType: models.OrderInstallation},
		{ID: TemplateDepositConfirmation, Label: "Deposit confirmed", Active: true},
		{ID: "delivery_slot", Label: "Book delivery slot", Active: true, OrderType: models.OrderDelivery},
		{ID: "photos", Label: "Upload site photos", AllowAttachment: true, Active: true},
		{ID: "legacy", Label: "Old item", Active: false},
	}
}

func TestTemplatesFor(t *testing.T) {
	got := TemplatesFor(checklistTemplates(), models.OrderInstallation)

	ids := make([]string, len(got))
	for i, tpl := range got {
		ids[i] = tpl.ID
	}
	assert.Equal(t, []string{TemplateSampleVerification, TemplateSiteMeasurement, TemplateDepositConfirmation, "photos"}, ids)
}

func TestInstantiateChecklist_Completeness(t *testing.T) {
	templates := TemplatesFor(checklistTemplates(), models.OrderDelivery)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	items := InstantiateChecklist(12, templates, ChecklistContext{SampleStatus: models.SampleRequested}, now)

	require.Len(t, items, len(templates))
	for i, item := range items {
		assert.Equal(t, i, item.OrderIndex)
		assert.Equal(t, uint(12), item.OrderID)
		assert.Equal(t, templates[i].ID, item.TemplateID)
		assert.Equal(t, templates[i].Label, item.Label)
		assert.False(t, item.Completed, item.TemplateID)
		assert.Nil(t, item.CompletedAt)
	}
	assert.True(t, items[len(items)-1].AllowAttachment)
}

func TestInstantiateChecklist_SampleVerificationRule(t *testing.T) {
	templates := []models.ChecklistTemplate{{ID: TemplateSampleVerification, Label: "Verify sample", Active: true}}
	now := time.Now()

	tests := []struct {
		status models.SampleStatus
		want   bool
	}{
		{status: models.SampleNone, want: true},
		{status: models.SampleDelivered, want: true},
		{status: "", want: true},
		{status: models.SampleRequested, want: false},
		{status: models.SampleSent, want: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			items := InstantiateChecklist(1, templates, ChecklistContext{SampleStatus: tt.status}, now)
			require.Len(t, items, 1)
			assert.Equal(t, tt.want, items[0].Completed)
			if tt.want {
				require.NotNil(t, items[0].CompletedAt)
				assert.True(t, items[0].CompletedAt.Equal(now))
			}
		})
	}
}

func TestInstantiateChecklist_ContextRules(t *testing.T) {
	templates := TemplatesFor(checklistTemplates(), models.OrderInstallation)

	items := InstantiateChecklist(3, templates, ChecklistContext{
		SampleStatus:    models.SampleSent,
		DepositPaid:     true,
		HasMeasurements: true,
	}, time.Now())

	completed := map[string]bool{}
	for _, item := range items {
		completed[item.TemplateID] = item.Completed
	}
	assert.False(t, completed[TemplateSampleVerification])
	assert.True(t, completed[TemplateSiteMeasurement])
	assert.True(t, completed[TemplateDepositConfirmation])
	assert.False(t, completed["photos"])
}

func TestInstantiateChecklist_NoTemplates(t *testing.T) {
	items := InstantiateChecklist(1, nil, ChecklistContext{}, time.Now())
	assert.Empty(t, items)
}
