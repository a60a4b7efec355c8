package lifecycle

import (
	"math"

	"flooring_crm/internal/models"
)

type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepCurrent   StepStatus = "current"
	StepPending   StepStatus = "pending"
)

// Automation describes a side job attached to a step. The projector only
// reports it; nothing here executes it.
type Automation struct {
	Key         string `json:"key"`
	Trigger     string `json:"trigger"`
	Description string `json:"description"`
}

type Checkpoint struct {
	Key   string                   `json:"key"`
	Label string                   `json:"label"`
	Check func(*models.Order) bool `json:"-"`
}

type StepDefinition struct {
	Key             string       `json:"key"`
	Label           string       `json:"label"`
	Actor           string       `json:"actor"`
	RelatedStatuses []string     `json:"related_statuses"`
	Automations     []Automation `json:"automations"`
	Checkpoints     []Checkpoint `json:"checkpoints"`
}

type CheckpointState struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	IsMet bool   `json:"is_met"`
}

type StepState struct {
	Key         string            `json:"key"`
	Label       string            `json:"label"`
	Actor       string            `json:"actor"`
	State       StepStatus        `json:"state"`
	Checkpoints []CheckpointState `json:"checkpoints"`
	Automations []Automation      `json:"automations"`
}

// PipelineState is the projection of one order onto the process steps.
// Unmapped is set when the order status belongs to no step; the order is
// then shown at step 0.
type PipelineState struct {
	Steps            []StepState `json:"steps"`
	CurrentStepIndex int         `json:"current_step_index"`
	ProgressPercent  int         `json:"progress_percent"`
	Status           string      `json:"status"`
	Unmapped         bool        `json:"unmapped"`
}

var processSteps = []StepDefinition{
	{
		Key:             "lead_intake",
		Label:           "Przyjęcie zapytania",
		Actor:           "office",
		RelatedStatuses: []string{StatusNew, StatusContacted},
		Automations: []Automation{
			{Key: "lead_acknowledgement", Trigger: "order_created", Description: "Send acknowledgement e-mail to the customer"},
		},
		Checkpoints: []Checkpoint{
			{Key: "contact_details", Label: "Customer phone or e-mail on file", Check: hasContactDetails},
			{Key: "samples_handled", Label: "Floor samples not needed or delivered", Check: samplesHandled},
		},
	},
	{
		Key:             "measurement_valuation",
		Label:           "Pomiar i wycena wstępna",
		Actor:           "surveyor",
		RelatedStatuses: []string{StatusMeasurementScheduled, StatusMeasurementDone},
		Automations: []Automation{
			{Key: "measurement_reminder", Trigger: "day_before_measurement", Description: "SMS reminder to the customer"},
		},
		Checkpoints: []Checkpoint{
			{Key: "measurement_booked", Label: "Measurement date set", Check: func(o *models.Order) bool { return o.ScheduledMeasurementAt != nil }},
			{Key: "measurement_recorded", Label: "Floor area recorded", Check: func(o *models.Order) bool { return o.MeasuredAt != nil && o.FloorAreaM2 > 0 }},
		},
	},
	{
		Key:             "quotation",
		Label:           "Oferta",
		Actor:           "sales",
		RelatedStatuses: []string{StatusQuoteInProgress, StatusQuoteSent, StatusQuoteAccepted},
		Automations: []Automation{
			{Key: "quote_follow_up", Trigger: "quote_sent_plus_3_days", Description: "Remind sales to call the customer about an open quote"},
		},
		Checkpoints: []Checkpoint{
			{Key: "quote_prepared", Label: "Quote drafted", Check: func(o *models.Order) bool { return len(o.Quotes) > 0 }},
			{Key: "quote_sent", Label: "Quote sent to customer", Check: func(o *models.Order) bool { return hasQuoteIn(o, models.QuoteSent, models.QuoteAccepted) }},
			{Key: "quote_accepted", Label: "Quote accepted", Check: func(o *models.Order) bool { return hasQuoteIn(o, models.QuoteAccepted) }},
			{Key: "contract_signed", Label: "Contract signed by customer", Check: func(o *models.Order) bool { return o.CustomerSignedAt != nil }},
		},
	},
	{
		Key:             "materials",
		Label:           "Zaliczka i materiał",
		Actor:           "warehouse",
		RelatedStatuses: []string{StatusAwaitingDeposit, StatusMaterialsOrdered, StatusMaterialsReady},
		Automations: []Automation{
			{Key: "supplier_order", Trigger: "deposit_paid", Description: "Prepare supplier purchase order"},
		},
		Checkpoints: []Checkpoint{
			{Key: "deposit_paid", Label: "Deposit received", Check: func(o *models.Order) bool { return o.DepositPaidAt != nil }},
			{Key: "materials_ordered", Label: "Material ordered", Check: materialsOrdered},
			{Key: "materials_on_site", Label: "Material delivered", Check: func(o *models.Order) bool { return o.MaterialStatus == models.MaterialDelivered }},
		},
	},
	{
		Key:             "installation",
		Label:           "Montaż",
		Actor:           "installer",
		RelatedStatuses: []string{StatusInstallationScheduled, StatusInstallationInProgress},
		Automations: []Automation{
			{Key: "installation_reminder", Trigger: "day_before_installation", Description: "SMS reminder to customer and crew"},
		},
		Checkpoints: []Checkpoint{
			{Key: "installation_booked", Label: "Installation date set", Check: func(o *models.Order) bool { return o.ScheduledInstallationAt != nil }},
			{Key: "installer_assigned", Label: "Crew assigned", Check: func(o *models.Order) bool { return o.InstallerName != "" }},
		},
	},
	{
		Key:             "closing",
		Label:           "Odbiór i rozliczenie",
		Actor:           "office",
		RelatedStatuses: []string{StatusProtocolPending, StatusInvoiced, StatusCompleted},
		Automations: []Automation{
			{Key: "review_request", Trigger: "order_completed", Description: "Ask the customer for a review"},
		},
		Checkpoints: []Checkpoint{
			{Key: "protocol_signed", Label: "Acceptance protocol signed", Check: func(o *models.Order) bool { return o.ProtocolSignedAt != nil }},
			{Key: "invoice_issued", Label: "Final invoice issued", Check: func(o *models.Order) bool { return o.InvoiceNumber != "" }},
			{Key: "checklist_done", Label: "All checklist items done", Check: checklistDone},
		},
	},
}

// stepIndexByStatus keeps the first step that lists a status.
var stepIndexByStatus = func() map[string]int {
	idx := make(map[string]int)
	for i, step := range processSteps {
		for _, s := range step.RelatedStatuses {
			if _, taken := idx[s]; !taken {
				idx[s] = i
			}
		}
	}
	return idx
}()

// Steps returns a copy of the process step definitions in pipeline order.
// Callers may modify it freely.
func Steps() []StepDefinition {
	out := make([]StepDefinition, len(processSteps))
	for i, step := range processSteps {
		step.RelatedStatuses = append([]string(nil), step.RelatedStatuses...)
		step.Automations = append([]Automation(nil), step.Automations...)
		step.Checkpoints = append([]Checkpoint(nil), step.Checkpoints...)
		out[i] = step
	}
	return out
}

// StepIndex resolves a raw status to its step. ok is false for statuses no
// step lists; index is then 0.
func StepIndex(status string) (index int, ok bool) {
	index, ok = stepIndexByStatus[status]
	return index, ok
}

// Project places order on the pipeline. It reads order only and returns the
// same value for the same input, so it is safe to call on every render.
func Project(order *models.Order) PipelineState {
	var status string
	if order != nil {
		status = order.Status
	}
	current, mapped := StepIndex(status)

	steps := make([]StepState, len(processSteps))
	for i, def := range processSteps {
		state := StepPending
		switch {
		case i < current:
			state = StepCompleted
		case i == current:
			state = StepCurrent
		}

		checkpoints := make([]CheckpointState, len(def.Checkpoints))
		for j, cp := range def.Checkpoints {
			checkpoints[j] = CheckpointState{Key: cp.Key, Label: cp.Label, IsMet: evaluate(cp, order)}
		}

		steps[i] = StepState{
			Key:         def.Key,
			Label:       def.Label,
			Actor:       def.Actor,
			State:       state,
			Checkpoints: checkpoints,
			Automations: def.Automations,
		}
	}

	return PipelineState{
		Steps:            steps,
		CurrentStepIndex: current,
		ProgressPercent:  progressPercent(current, len(processSteps)),
		Status:           status,
		Unmapped:         !mapped,
	}
}

func progressPercent(current, total int) int {
	if total < 2 {
		return 0
	}
	return int(math.Round(float64(current) / float64(total-1) * 100))
}

// evaluate never lets a checkpoint take a render down.
func evaluate(cp Checkpoint, order *models.Order) (met bool) {
	if order == nil || cp.Check == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			met = false
		}
	}()
	return cp.Check(order)
}

func hasContactDetails(o *models.Order) bool {
	return o.Customer != nil && (o.Customer.Phone != "" || o.Customer.Email != "")
}

func samplesHandled(o *models.Order) bool {
	return o.SampleStatus == "" || o.SampleStatus == models.SampleNone || o.SampleStatus == models.SampleDelivered
}

func materialsOrdered(o *models.Order) bool {
	switch o.MaterialStatus {
	case models.MaterialOrdered, models.MaterialInStock, models.MaterialDelivered:
		return true
	}
	return false
}

func hasQuoteIn(o *models.Order, statuses ...models.QuoteStatus) bool {
	for _, q := range o.Quotes {
		for _, s := range statuses {
			if q.Status == s {
				return true
			}
		}
	}
	return false
}

func checklistDone(o *models.Order) bool {
	if len(o.ChecklistItems) == 0 {
		return false
	}
	for _, item := range o.ChecklistItems {
		if !item.Completed {
			return false
		}
	}
	return true
}
