package lifecycle

import (
	"time"

	"flooring_crm/internal/models"
)

// Template ids with creation-time completion rules.
const (
	TemplateSampleVerification  = "sample_verification"
	TemplateDepositConfirmation = "deposit_confirmation"
	TemplateSiteMeasurement     = "site_measurement"
)

// ChecklistContext is what is known about an order at creation time.
type ChecklistContext struct {
	SampleStatus    models.SampleStatus
	OrderType       models.OrderType
	DepositPaid     bool
	HasMeasurements bool
}

type completionRule struct {
	templateID string
	applies    func(ChecklistContext) bool
}

var completionRules = []completionRule{
	{
		templateID: TemplateSampleVerification,
		applies: func(c ChecklistContext) bool {
			// Nothing to verify when no samples were asked for or they already arrived.
			return c.SampleStatus == "" || c.SampleStatus == models.SampleNone || c.SampleStatus == models.SampleDelivered
		},
	},
	{
		templateID: TemplateDepositConfirmation,
		applies:    func(c ChecklistContext) bool { return c.DepositPaid },
	},
	{
		templateID: TemplateSiteMeasurement,
		applies:    func(c ChecklistContext) bool { return c.HasMeasurements },
	},
}

func preCompleted(templateID string, ctx ChecklistContext) bool {
	for _, r := range completionRules {
		if r.templateID == templateID && r.applies(ctx) {
			return true
		}
	}
	return false
}

// TemplatesFor keeps the active templates that apply to orderType, in the
// order given.
func TemplatesFor(templates []models.ChecklistTemplate, orderType models.OrderType) []models.ChecklistTemplate {
	out := make([]models.ChecklistTemplate, 0, len(templates))
	for _, t := range templates {
		if !t.Active {
			continue
		}
		if t.OrderType != "" && t.OrderType != orderType {
			continue
		}
		out = append(out, t)
	}
	return out
}

// InstantiateChecklist builds one row per template. OrderIndex follows the
// template position in the slice, starting at 0.
func InstantiateChecklist(orderID uint, templates []models.ChecklistTemplate, ctx ChecklistContext, now time.Time) []models.ChecklistItem {
	items := make([]models.ChecklistItem, len(templates))
	for i, t := range templates {
		item := models.ChecklistItem{
			OrderID:         orderID,
			TemplateID:      t.ID,
			Label:           t.Label,
			AllowAttachment: t.AllowAttachment,
			OrderIndex:      i,
		}
		if preCompleted(t.ID, ctx) {
			completedAt := now
			item.Completed = true
			item.CompletedAt = &completedAt
		}
		items[i] = item
	}
	return items
}
