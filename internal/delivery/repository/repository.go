package repository

import (
	"github.com/iTakecare/leazr.co-sub004/internal/shared/database"
	"gorm.io/gorm"
)

// Repositories 交付相关仓库
type Repositories struct {
	Contract *ContractRepository
	Client   *ClientRepository
	Delivery *DeliveryRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Contract: NewContractRepository(db),
		Client:   NewClientRepository(db),
		Delivery: NewDeliveryRepository(db),
	}
}

func translate(err error) error {
	return database.Translate(err)
}
