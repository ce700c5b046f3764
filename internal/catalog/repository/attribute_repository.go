package repository

import (
	"context"

	"github.com/iTakecare/leazr.co-sub004/internal/catalog/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttributeRepository struct {
	db *gorm.DB
}

func NewAttributeRepository(db *gorm.DB) *AttributeRepository {
	return &AttributeRepository{db: db}
}

func (r *AttributeRepository) List(ctx context.Context) ([]entity.Attribute, error) {
	var attrs []entity.Attribute
	err := r.db.WithContext(ctx).Order("name ASC").Find(&attrs).Error
	return attrs, translate(err)
}

func (r *AttributeRepository) Create(ctx context.Context, a *entity.Attribute) error {
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

// Seed inserts the given attributes, ignoring names that already exist.
func (r *AttributeRepository) Seed(ctx context.Context, attrs []entity.Attribute) error {
	if len(attrs) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&attrs).Error)
}
