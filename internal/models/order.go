package models

import (
	"time"

	"gorm.io/gorm"
)

type Order struct {
	ID                      uint            `json:"id" gorm:"primaryKey"`
	CustomerID              uint            `json:"customer_id" gorm:"not null;uniqueIndex:idx_orders_customer_sequence,priority:1"`
	Customer                *Customer       `json:"customer,omitempty"`
	Type                    OrderType       `json:"type" gorm:"not null;default:'installation'"`
	Sequence                *int            `json:"sequence" gorm:"uniqueIndex:idx_orders_customer_sequence,priority:2,sort:desc"`
	OrderNumber             *string         `json:"order_number"`                 // informational, not unique
	Status                  string          `json:"status" gorm:"not null;index"` // free text, may drift out of the taxonomy
	PipelineStage           string          `json:"pipeline_stage"`               // board view column, independent of Status
	SampleStatus            SampleStatus    `json:"sample_status" gorm:"default:'none'"`
	MaterialStatus          MaterialStatus  `json:"material_status" gorm:"default:'not_ordered'"`
	FloorAreaM2             float64         `json:"floor_area_m2"`
	Address                 string          `json:"address"`
	Notes                   string          `json:"notes" gorm:"type:text"`
	ScheduledMeasurementAt  *time.Time      `json:"scheduled_measurement_at"`
	MeasuredAt              *time.Time      `json:"measured_at"`
	DepositPaidAt           *time.Time      `json:"deposit_paid_at"`
	ScheduledInstallationAt *time.Time      `json:"scheduled_installation_at"`
	InstallerName           string          `json:"installer_name"`
	CustomerSignedAt        *time.Time      `json:"customer_signed_at"`
	ProtocolSignedAt        *time.Time      `json:"protocol_signed_at"`
	InvoiceNumber           string          `json:"invoice_number"`
	Quotes                  []Quote         `json:"quotes,omitempty"`
	ChecklistItems          []ChecklistItem `json:"checklist_items,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
	DeletedAt               gorm.DeletedAt  `json:"deleted_at" gorm:"index"`
}

type OrderType string

const (
	OrderDelivery     OrderType = "delivery"
	OrderInstallation OrderType = "installation"
)

func (t OrderType) Valid() bool {
	return t == OrderDelivery || t == OrderInstallation
}

// SampleStatus tracks physical floor samples shown to the customer before quoting.
type SampleStatus string

const (
	SampleNone      SampleStatus = "none"
	SampleRequested SampleStatus = "requested"
	SampleSent      SampleStatus = "sent"
	SampleDelivered SampleStatus = "delivered"
)

func (s SampleStatus) Valid() bool {
	switch s {
	case SampleNone, SampleRequested, SampleSent, SampleDelivered:
		return true
	}
	return false
}

type MaterialStatus string

const (
	MaterialNotOrdered MaterialStatus = "not_ordered"
	MaterialOrdered    MaterialStatus = "ordered"
	MaterialInStock    MaterialStatus = "in_stock"
	MaterialDelivered  MaterialStatus = "delivered"
)

func (s MaterialStatus) Valid() bool {
	switch s {
	case MaterialNotOrdered, MaterialOrdered, MaterialInStock, MaterialDelivered:
		return true
	}
	return false
}
