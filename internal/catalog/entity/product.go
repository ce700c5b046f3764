package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product 产品（目录项）。带变体的父产品价格由变体组合承载。
type Product struct {
	ID                  string                `json:"id" gorm:"primaryKey;size:32"`
	Name                string                `json:"name" gorm:"size:255;not null"`
	Brand               string                `json:"brand,omitempty" gorm:"size:128"`
	IsParent            bool                  `json:"is_parent" gorm:"default:false"`
	Price               decimal.NullDecimal   `json:"price" gorm:"type:numeric(12,2)"`
	MonthlyPrice        decimal.NullDecimal   `json:"monthly_price" gorm:"type:numeric(12,2)"`
	VariationAttributes VariationAttributeSet `json:"variation_attributes" gorm:"type:jsonb"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// Attribute 预定义属性目录，用于自动补全
type Attribute struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Name        string    `json:"name" gorm:"size:64;not null;uniqueIndex"`
	DisplayName string    `json:"display_name" gorm:"size:128"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Attribute) TableName() string {
	return "attributes"
}
