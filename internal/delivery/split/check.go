package split

import (
	"fmt"
	"strings"

	"github.com/iTakecare/leazr.co-sub004/internal/delivery/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
)

// SingleItem is the one item produced by single mode: everything to the
// main client.
func SingleItem(cfg entity.EquipmentDeliveryConfig) entity.DeliveryItem {
	return entity.DeliveryItem{
		Quantity:      cfg.TotalQuantity,
		SerialNumbers: append([]string{}, cfg.SerialNumbers...),
		Destination:   entity.MainClient(),
	}
}

// CheckItems validates the partition the mode requires, without looking at
// destinations.
func CheckItems(cfg entity.EquipmentDeliveryConfig) error {
	switch cfg.Mode {
	case entity.ModeSingle:
		if len(cfg.Items) != 1 {
			return apperr.Invalid(apperr.ErrQuantityMismatch, "single mode needs exactly one item, got %d", len(cfg.Items))
		}
		it := cfg.Items[0]
		if it.Quantity != cfg.TotalQuantity {
			return apperr.Invalid(apperr.ErrQuantityMismatch, "assigned %d, expected %d", it.Quantity, cfg.TotalQuantity)
		}
		if !sameSet(it.SerialNumbers, cfg.SerialNumbers) {
			return apperr.Invalid(apperr.ErrSerialPartition, "single item must carry every serial number")
		}
		return nil
	case entity.ModeSplitQuantity:
		return NewQuantitySplitter(cfg.TotalQuantity, cfg.Items).Validate()
	case entity.ModeIndividualSerial:
		a := SerialAssigner{Serials: cfg.SerialNumbers, Items: cfg.Items}
		return a.Validate()
	case "":
		return apperr.Invalid(apperr.ErrInvalidStep, "no delivery mode selected")
	default:
		return apperr.Invalid(apperr.ErrModeNotAvailable, "unknown mode %q", cfg.Mode)
	}
}

// CheckDestinations validates every item's destination.
func CheckDestinations(items []entity.DeliveryItem) error {
	var problems []string
	for i, it := range items {
		if err := it.Destination.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("item %d: %v", i+1, err))
		}
	}
	if len(problems) > 0 {
		return apperr.Invalid(apperr.ErrDestinationIncomplete, "%s", strings.Join(problems, "; "))
	}
	return nil
}

// CheckConfig is the full invariant set a configuration must satisfy before
// it is persisted.
func CheckConfig(cfg entity.EquipmentDeliveryConfig) error {
	if err := CheckItems(cfg); err != nil {
		return err
	}
	return CheckDestinations(cfg.Items)
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	m := make(map[string]int, len(a))
	for _, s := range a {
		m[s]++
	}
	for _, s := range b {
		if m[s] == 0 {
			return false
		}
		m[s]--
	}
	return true
}
