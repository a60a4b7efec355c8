package models

import (
	"time"

	"gorm.io/datatypes"
)

// AppSetting is a versioned key-value record for operator-editable configuration.
type AppSetting struct {
	Key       string         `json:"key" gorm:"primaryKey;type:varchar(128)"`
	Value     datatypes.JSON `json:"value"`
	Version   int            `json:"version" gorm:"not null;default:0"`
	UpdatedBy string         `json:"updated_by"`
	UpdatedAt time.Time      `json:"updated_at"`
}

const SettingOrderStatuses = "order_status_definitions"
