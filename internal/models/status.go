package models

// StatusDefinition is one entry of the order status taxonomy.
type StatusDefinition struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	Group       string `json:"group"`
	IsSystem    bool   `json:"isSystem"`
}
