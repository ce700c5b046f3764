package repository

import (
	"context"

	"github.com/iTakecare/leazr.co-sub004/internal/delivery/entity"
	"gorm.io/gorm"
)

// ClientRepository 客户联系人与收货地点
type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) ListCollaborators(ctx context.Context, clientID string) ([]entity.Collaborator, error) {
	var list []entity.Collaborator
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("is_primary DESC, name ASC").
		Find(&list).Error
	return list, translate(err)
}

// ListDeliverySites returns active sites, default first.
func (r *ClientRepository) ListDeliverySites(ctx context.Context, clientID string) ([]entity.DeliverySite, error) {
	var list []entity.DeliverySite
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND is_active = ?", clientID, true).
		Order("is_default DESC, site_name ASC").
		Find(&list).Error
	return list, translate(err)
}
