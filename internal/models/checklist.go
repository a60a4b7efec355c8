package models

import "time"

// ChecklistTemplate is a work item copied onto every new order of a matching type.
type ChecklistTemplate struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Label           string    `json:"label" gorm:"not null"`
	AllowAttachment bool      `json:"allow_attachment" gorm:"default:false"`
	Position        int       `json:"position" gorm:"not null;default:0"`
	OrderType       OrderType `json:"order_type"` // empty applies to every order type
	Active          bool      `json:"active" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ChecklistItem struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	OrderID         uint       `json:"order_id" gorm:"not null;uniqueIndex:idx_checklist_order_template,priority:1"`
	TemplateID      string     `json:"template_id" gorm:"not null;type:varchar(64);uniqueIndex:idx_checklist_order_template,priority:2"`
	Label           string     `json:"label" gorm:"not null"`
	AllowAttachment bool       `json:"allow_attachment"`
	OrderIndex      int        `json:"order_index" gorm:"not null"`
	Completed       bool       `json:"completed" gorm:"default:false"`
	CompletedAt     *time.Time `json:"completed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
