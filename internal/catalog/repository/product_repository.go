package repository

import (
	"context"
	"time"

	"github.com/iTakecare/leazr.co-sub004/internal/catalog/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// UpdateVariationAttributes replaces the whole attribute set and marks the
// product as a variant parent.
func (r *ProductRepository) UpdateVariationAttributes(ctx context.Context, id string, set entity.VariationAttributeSet) error {
	res := r.db.WithContext(ctx).Model(&entity.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"variation_attributes": set,
			"is_parent":            len(set) > 0,
			"updated_at":           time.Now(),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// RemovePrice clears the flat price of a parent product; prices then live on
// its combinations.
func (r *ProductRepository) RemovePrice(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&entity.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"price":         nil,
			"monthly_price": nil,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
