package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Assembly BOM树节点
// Path 为物化路径（列宽即 mpath.MaxLen），Depth 从1开始（根节点为1）
type Assembly struct {
	ID          string          `json:"id" gorm:"primaryKey;size:32"`
	Path        string          `json:"-" gorm:"size:255;not null;uniqueIndex"`
	Depth       int             `json:"depth" gorm:"not null;index"`
	ComponentID string          `json:"component_id" gorm:"size:32;not null;index"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:decimal(8,3);not null;default:0"`
	ImportID    string          `json:"import_id" gorm:"size:32;index"`
	CreatedAt   time.Time       `json:"created_at"`

	// 关联
	Component *Component `json:"component,omitempty" gorm:"foreignKey:ComponentID"`
}

func (Assembly) TableName() string {
	return "assemblies"
}

// LinePrice 行金额 = 数量 × 单价
func (a *Assembly) LinePrice() decimal.Decimal {
	if a.Component == nil {
		return decimal.Zero
	}
	return a.Quantity.Mul(a.Component.Price)
}

func (a *Assembly) String() string {
	if a.Component == nil {
		return a.ID
	}
	return a.Component.String()
}
