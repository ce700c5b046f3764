package repository

import (
	"context"

	"github.com/iTakecare/leazr.co-sub004/internal/delivery/entity"
	"gorm.io/gorm"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// FindByID loads a contract with its equipment lines in display order.
func (r *ContractRepository) FindByID(ctx context.Context, id string) (*entity.Contract, error) {
	var c entity.Contract
	err := r.db.WithContext(ctx).
		Preload("Equipment", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, created_at ASC")
		}).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}
