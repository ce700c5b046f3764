package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VariantCombinationPrice 变体组合价格
type VariantCombinationPrice struct {
	ID             string              `json:"id" gorm:"primaryKey;size:32"`
	ProductID      string              `json:"product_id" gorm:"size:32;not null;uniqueIndex:uk_variant_combination,priority:1"`
	Attributes     AttributeAssignment `json:"attributes" gorm:"type:jsonb;not null"`
	CombinationKey string              `json:"-" gorm:"size:1024;not null;uniqueIndex:uk_variant_combination,priority:2"`
	Price          decimal.Decimal     `json:"price" gorm:"type:numeric(12,2);not null;default:0"`
	MonthlyPrice   decimal.NullDecimal `json:"monthly_price" gorm:"type:numeric(12,2)"`
	Stock          *int                `json:"stock"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func (VariantCombinationPrice) TableName() string {
	return "product_variant_prices"
}

// BeforeSave keeps the normalized key in sync with the assignment.
func (v *VariantCombinationPrice) BeforeSave(tx *gorm.DB) error {
	v.CombinationKey = v.Attributes.Key()
	return nil
}

// VariantPricePatch 批量设置价格/库存，nil 字段保持不变
type VariantPricePatch struct {
	Price        *decimal.Decimal `json:"price"`
	MonthlyPrice *decimal.Decimal `json:"monthly_price"`
	Stock        *int             `json:"stock"`
}

// Empty reports whether the patch changes nothing.
func (p VariantPricePatch) Empty() bool {
	return p.Price == nil && p.MonthlyPrice == nil && p.Stock == nil
}
