package repository

import (
	"github.com/iTakecare/leazr.co-sub004/internal/shared/database"
	"gorm.io/gorm"
)

// Repositories 仓库集合
type Repositories struct {
	Product      *ProductRepository
	Attribute    *AttributeRepository
	VariantPrice *VariantPriceRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product:      NewProductRepository(db),
		Attribute:    NewAttributeRepository(db),
		VariantPrice: NewVariantPriceRepository(db),
	}
}

func translate(err error) error {
	return database.Translate(err)
}
