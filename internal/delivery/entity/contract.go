package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Contract 租赁合同
type Contract struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	CompanyID string    `json:"company_id" gorm:"size:32;not null;index"`
	ClientID  string    `json:"client_id" gorm:"size:32;not null;index"`
	Number    string    `json:"number" gorm:"size:64"`
	Status    string    `json:"status" gorm:"size:32;default:active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Equipment []ContractEquipment `json:"equipment,omitempty" gorm:"foreignKey:ContractID"`
}

func (Contract) TableName() string {
	return "contracts"
}

// ContractEquipment 合同设备行。序列号以 JSON 数组存储，可能为空或缺失。
type ContractEquipment struct {
	ID            string         `json:"id" gorm:"primaryKey;size:32"`
	ContractID    string         `json:"contract_id" gorm:"size:32;not null;index"`
	Title         string         `json:"title" gorm:"size:255;not null"`
	Quantity      int            `json:"quantity" gorm:"not null;default:1"`
	SerialNumbers datatypes.JSON `json:"serial_number,omitempty" gorm:"type:jsonb"`
	SortOrder     int            `json:"sort_order" gorm:"default:0"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (ContractEquipment) TableName() string {
	return "contract_equipment"
}

// Serials decodes the serial-number column. Blank entries are dropped and
// repeated serials collapse to their first occurrence; unreadable content is
// treated as "no serials".
func (e ContractEquipment) Serials() []string {
	if len(e.SerialNumbers) == 0 {
		return nil
	}
	var raw []interface{}
	if err := json.Unmarshal(e.SerialNumbers, &raw); err != nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, v := range raw {
		if v == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprintf("%v", v))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Collaborator 客户方联系人，可作为收货人
type Collaborator struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	ClientID  string    `json:"client_id" gorm:"size:32;not null;index"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Email     string    `json:"email,omitempty" gorm:"size:128"`
	Phone     string    `json:"phone,omitempty" gorm:"size:32"`
	Role      string    `json:"role,omitempty" gorm:"size:64"`
	IsPrimary bool      `json:"is_primary" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (Collaborator) TableName() string {
	return "collaborators"
}

// DeliverySite 客户预设收货地点
type DeliverySite struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	ClientID   string    `json:"client_id" gorm:"size:32;not null;index"`
	SiteName   string    `json:"site_name" gorm:"size:128;not null"`
	Address    string    `json:"address" gorm:"size:255"`
	City       string    `json:"city" gorm:"size:128"`
	PostalCode string    `json:"postal_code" gorm:"size:16"`
	Country    string    `json:"country" gorm:"size:8"`
	IsDefault  bool      `json:"is_default" gorm:"default:false"`
	IsActive   bool      `json:"is_active" gorm:"default:true"`
	CreatedAt  time.Time `json:"created_at"`
}

func (DeliverySite) TableName() string {
	return "client_delivery_sites"
}
