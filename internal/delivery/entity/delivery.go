package entity

import (
	"strings"
	"time"

	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
	"github.com/lib/pq"
)

// DeliveryMode 设备交付方式
type DeliveryMode string

const (
	ModeSingle           DeliveryMode = "single"
	ModeSplitQuantity    DeliveryMode = "split_quantity"
	ModeIndividualSerial DeliveryMode = "individual_serial"
)

// DeliveryType 收货目的地类型
type DeliveryType string

const (
	DeliveryMainClient      DeliveryType = "main_client"
	DeliveryCollaborator    DeliveryType = "collaborator"
	DeliveryPredefinedSite  DeliveryType = "predefined_site"
	DeliverySpecificAddress DeliveryType = "specific_address"
)

// Destination 收货目的地，字段按类型取用
type Destination struct {
	DeliveryType   DeliveryType `json:"delivery_type"`
	CollaboratorID string       `json:"collaborator_id,omitempty"`
	DeliverySiteID string       `json:"delivery_site_id,omitempty"`
	Address        string       `json:"address,omitempty"`
	City           string       `json:"city,omitempty"`
	PostalCode     string       `json:"postal_code,omitempty"`
	Country        string       `json:"country,omitempty"`
}

// MainClient is the default destination.
func MainClient() Destination {
	return Destination{DeliveryType: DeliveryMainClient}
}

// Validate checks the fields required by the destination type.
func (d Destination) Validate() error {
	switch d.DeliveryType {
	case DeliveryMainClient:
		return nil
	case DeliveryCollaborator:
		if strings.TrimSpace(d.CollaboratorID) == "" {
			return apperr.Invalid(apperr.ErrDestinationIncomplete, "collaborator is required")
		}
	case DeliveryPredefinedSite:
		if strings.TrimSpace(d.DeliverySiteID) == "" {
			return apperr.Invalid(apperr.ErrDestinationIncomplete, "delivery site is required")
		}
	case DeliverySpecificAddress:
		if strings.TrimSpace(d.Address) == "" || strings.TrimSpace(d.City) == "" {
			return apperr.Invalid(apperr.ErrDestinationIncomplete, "address and city are required")
		}
	default:
		return apperr.Invalid(apperr.ErrDestinationIncomplete, "unknown delivery type %q", d.DeliveryType)
	}
	return nil
}

// Normalized drops the fields the destination type does not use.
func (d Destination) Normalized() Destination {
	out := Destination{DeliveryType: d.DeliveryType}
	switch d.DeliveryType {
	case DeliveryCollaborator:
		out.CollaboratorID = strings.TrimSpace(d.CollaboratorID)
	case DeliveryPredefinedSite:
		out.DeliverySiteID = strings.TrimSpace(d.DeliverySiteID)
	case DeliverySpecificAddress:
		out.Address = strings.TrimSpace(d.Address)
		out.City = strings.TrimSpace(d.City)
		out.PostalCode = strings.TrimSpace(d.PostalCode)
		out.Country = strings.TrimSpace(d.Country)
	}
	return out
}

// DeliveryItem 一个发货单元
type DeliveryItem struct {
	Quantity      int      `json:"quantity"`
	SerialNumbers []string `json:"serial_numbers"`
	Destination
	Notes string `json:"notes,omitempty"`
}

// Clone deep-copies the item.
func (i DeliveryItem) Clone() DeliveryItem {
	i.SerialNumbers = append([]string(nil), i.SerialNumbers...)
	return i
}

// EquipmentDeliveryConfig 单台设备的交付配置
type EquipmentDeliveryConfig struct {
	EquipmentID   string         `json:"equipment_id"`
	Title         string         `json:"title"`
	TotalQuantity int            `json:"total_quantity"`
	HasSerials    bool           `json:"has_serial_numbers"`
	SerialNumbers []string       `json:"serial_numbers"`
	Mode          DeliveryMode   `json:"mode,omitempty"`
	Items         []DeliveryItem `json:"delivery_items"`
}

// NewEquipmentDeliveryConfig starts an empty configuration for a contract line.
func NewEquipmentDeliveryConfig(eq ContractEquipment) EquipmentDeliveryConfig {
	serials := eq.Serials()
	return EquipmentDeliveryConfig{
		EquipmentID:   eq.ID,
		Title:         eq.Title,
		TotalQuantity: eq.Quantity,
		HasSerials:    len(serials) > 0,
		SerialNumbers: serials,
		Items:         []DeliveryItem{},
	}
}

// Clone deep-copies the configuration.
func (c EquipmentDeliveryConfig) Clone() EquipmentDeliveryConfig {
	c.SerialNumbers = append([]string(nil), c.SerialNumbers...)
	items := make([]DeliveryItem, len(c.Items))
	for i, it := range c.Items {
		items[i] = it.Clone()
	}
	c.Items = items
	return c
}

// AllowedModes lists the modes the equipment supports.
func (c EquipmentDeliveryConfig) AllowedModes() []DeliveryMode {
	modes := []DeliveryMode{ModeSingle}
	if c.TotalQuantity > 1 {
		modes = append(modes, ModeSplitQuantity)
	}
	if c.HasSerials {
		modes = append(modes, ModeIndividualSerial)
	}
	return modes
}

// Allows reports whether the mode is offered for the equipment.
func (c EquipmentDeliveryConfig) Allows(mode DeliveryMode) bool {
	for _, m := range c.AllowedModes() {
		if m == mode {
			return true
		}
	}
	return false
}

// EquipmentDelivery 已持久化的发货记录
type EquipmentDelivery struct {
	ID             string         `json:"id" gorm:"primaryKey;size:32"`
	ContractID     string         `json:"contract_id" gorm:"size:32;not null;index"`
	EquipmentID    string         `json:"equipment_id" gorm:"size:32;not null;index"`
	Mode           DeliveryMode   `json:"mode" gorm:"size:32;not null"`
	Position       int            `json:"position" gorm:"not null;default:0"`
	Quantity       int            `json:"quantity" gorm:"not null"`
	SerialNumbers  pq.StringArray `json:"serial_numbers" gorm:"type:text[]"`
	DeliveryType   DeliveryType   `json:"delivery_type" gorm:"size:32;not null"`
	CollaboratorID string         `json:"collaborator_id,omitempty" gorm:"size:32"`
	DeliverySiteID string         `json:"delivery_site_id,omitempty" gorm:"size:32"`
	Address        string         `json:"address,omitempty" gorm:"size:255"`
	City           string         `json:"city,omitempty" gorm:"size:128"`
	PostalCode     string         `json:"postal_code,omitempty" gorm:"size:16"`
	Country        string         `json:"country,omitempty" gorm:"size:8"`
	Notes          string         `json:"notes,omitempty"`
	Status         string         `json:"status" gorm:"size:16;not null;default:pending"`
	CreatedBy      string         `json:"created_by" gorm:"size:32"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (EquipmentDelivery) TableName() string {
	return "contract_equipment_deliveries"
}
