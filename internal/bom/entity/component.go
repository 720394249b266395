package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Component 物料目录项，按 (identifier, name) 去重
type Component struct {
	ID              string          `json:"id" gorm:"primaryKey;size:32"`
	Identifier      string          `json:"identifier" gorm:"size:255;not null;uniqueIndex:idx_component_identifier_name,priority:1"`
	Name            string          `json:"name" gorm:"size:255;not null;uniqueIndex:idx_component_identifier_name,priority:2"`
	Category        string          `json:"category" gorm:"size:255"`
	Unit            string          `json:"unit" gorm:"size:255;not null"`
	ProcurementType string          `json:"procurement_type" gorm:"size:255;not null"`
	Price           decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (Component) TableName() string {
	return "components"
}

func (c *Component) String() string {
	return c.Identifier + ", " + c.Name
}
