package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/iTakecare/leazr.co-sub004/internal/delivery/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/delivery/split"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// CreateContractEquipmentDeliveries writes one equipment line's delivery
// items, replacing any earlier configuration of that line. The equipment row
// is locked and the partition is checked again against its stored quantity
// and serial numbers before anything is written.
func (r *DeliveryRepository) CreateContractEquipmentDeliveries(ctx context.Context, contractID string, cfg entity.EquipmentDeliveryConfig, createdBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eq entity.ContractEquipment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&eq, "id = ? AND contract_id = ?", cfg.EquipmentID, contractID).Error; err != nil {
			return translate(err)
		}

		stored := entity.NewEquipmentDeliveryConfig(eq)
		cfg.TotalQuantity = stored.TotalQuantity
		cfg.HasSerials = stored.HasSerials
		cfg.SerialNumbers = stored.SerialNumbers
		if err := split.CheckConfig(cfg); err != nil {
			return err
		}

		if err := tx.Where("contract_id = ? AND equipment_id = ?", contractID, eq.ID).
			Delete(&entity.EquipmentDelivery{}).Error; err != nil {
			return translate(err)
		}
		rows := toRows(contractID, cfg, createdBy)
		return translate(tx.Create(&rows).Error)
	})
}

// ListByContract returns deliveries in the contract's equipment order, then
// item position.
func (r *DeliveryRepository) ListByContract(ctx context.Context, contractID string) ([]entity.EquipmentDelivery, error) {
	var list []entity.EquipmentDelivery
	err := r.db.WithContext(ctx).
		Select("contract_equipment_deliveries.*").
		Joins("JOIN contract_equipment ON contract_equipment.id = contract_equipment_deliveries.equipment_id").
		Where("contract_equipment_deliveries.contract_id = ?", contractID).
		Order("contract_equipment.sort_order ASC, contract_equipment.created_at ASC, contract_equipment_deliveries.position ASC").
		Find(&list).Error
	return list, translate(err)
}

func toRows(contractID string, cfg entity.EquipmentDeliveryConfig, createdBy string) []entity.EquipmentDelivery {
	now := time.Now()
	rows := make([]entity.EquipmentDelivery, len(cfg.Items))
	for i, it := range cfg.Items {
		d := it.Destination.Normalized()
		serials := pq.StringArray{}
		if len(it.SerialNumbers) > 0 {
			serials = append(serials, it.SerialNumbers...)
		}
		rows[i] = entity.EquipmentDelivery{
			ID:             uuid.New().String()[:32],
			ContractID:     contractID,
			EquipmentID:    cfg.EquipmentID,
			Mode:           cfg.Mode,
			Position:       i,
			Quantity:       it.Quantity,
			SerialNumbers:  serials,
			DeliveryType:   d.DeliveryType,
			CollaboratorID: d.CollaboratorID,
			DeliverySiteID: d.DeliverySiteID,
			Address:        d.Address,
			City:           d.City,
			PostalCode:     d.PostalCode,
			Country:        d.Country,
			Notes:          it.Notes,
			Status:         "pending",
			CreatedBy:      createdBy,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}
	return rows
}
