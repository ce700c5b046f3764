package repository

import (
	"context"
	"time"

	"github.com/iTakecare/leazr.co-sub004/internal/catalog/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VariantPriceRepository struct {
	db *gorm.DB
}

func NewVariantPriceRepository(db *gorm.DB) *VariantPriceRepository {
	return &VariantPriceRepository{db: db}
}

func (r *VariantPriceRepository) ListByProduct(ctx context.Context, productID string) ([]entity.VariantCombinationPrice, error) {
	var prices []entity.VariantCombinationPrice
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC, id ASC").
		Find(&prices).Error
	return prices, translate(err)
}

func (r *VariantPriceRepository) FindByID(ctx context.Context, id string) (*entity.VariantCombinationPrice, error) {
	var v entity.VariantCombinationPrice
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *VariantPriceRepository) Create(ctx context.Context, v *entity.VariantCombinationPrice) error {
	return translate(r.db.WithContext(ctx).Create(v).Error)
}

// Update saves price, monthly price and stock of an existing row.
func (r *VariantPriceRepository) Update(ctx context.Context, v *entity.VariantCombinationPrice) error {
	res := r.db.WithContext(ctx).Model(&entity.VariantCombinationPrice{}).
		Where("id = ?", v.ID).
		Updates(map[string]interface{}{
			"price":         v.Price,
			"monthly_price": v.MonthlyPrice,
			"stock":         v.Stock,
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

// Replace deletes oldID and inserts v in one transaction. Either both happen
// or neither does.
func (r *VariantPriceRepository) Replace(ctx context.Context, oldID string, v *entity.VariantCombinationPrice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old entity.VariantCombinationPrice
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&old, "id = ? AND product_id = ?", oldID, v.ProductID).Error; err != nil {
			return translate(err)
		}
		if err := tx.Delete(&entity.VariantCombinationPrice{}, "id = ?", oldID).Error; err != nil {
			return translate(err)
		}
		return translate(tx.Create(v).Error)
	})
}

func (r *VariantPriceRepository) Delete(ctx context.Context, productID, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", id, productID).
		Delete(&entity.VariantCombinationPrice{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// BulkUpdate applies patch to the given combinations of a product, or to all
// of them when ids is empty.
func (r *VariantPriceRepository) BulkUpdate(ctx context.Context, productID string, ids []string, patch entity.VariantPricePatch) (int64, error) {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.MonthlyPrice != nil {
		updates["monthly_price"] = *patch.MonthlyPrice
	}
	if patch.Stock != nil {
		updates["stock"] = *patch.Stock
	}

	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&entity.VariantCombinationPrice{}).Where("product_id = ?", productID)
		if len(ids) > 0 {
			q = q.Where("id IN ?", ids)
		}
		res := q.Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if len(ids) > 0 && res.RowsAffected != int64(len(ids)) {
			return apperr.ErrNotFound
		}
		affected = res.RowsAffected
		return nil
	})
	return affected, translate(err)
}
