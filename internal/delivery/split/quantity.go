// Package split partitions an equipment line's quantity or serial numbers
// across delivery items. Every operation returns a new value; receivers are
// never modified.
package split

import (
	"github.com/iTakecare/leazr.co-sub004/internal/delivery/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
)

// QuantitySplitter 按数量拆分
type QuantitySplitter struct {
	Total int
	Items []entity.DeliveryItem
}

// NewQuantitySplitter copies items so later operations never alias the caller.
func NewQuantitySplitter(total int, items []entity.DeliveryItem) QuantitySplitter {
	return QuantitySplitter{Total: total, Items: cloneItems(items)}
}

// Assigned is the sum of item quantities.
func (q QuantitySplitter) Assigned() int {
	sum := 0
	for _, it := range q.Items {
		sum += it.Quantity
	}
	return sum
}

// Remaining is Total minus Assigned; negative when over-assigned.
func (q QuantitySplitter) Remaining() int {
	return q.Total - q.Assigned()
}

// AddItem appends an item holding one unit of the remaining quantity.
func (q QuantitySplitter) AddItem() (QuantitySplitter, error) {
	remaining := q.Remaining()
	if remaining <= 0 {
		return q, apperr.Invalid(apperr.ErrNoRemainingQuantity, "%d of %d already assigned", q.Assigned(), q.Total)
	}
	out := NewQuantitySplitter(q.Total, q.Items)
	out.Items = append(out.Items, entity.DeliveryItem{
		Quantity:      min(1, remaining),
		SerialNumbers: []string{},
		Destination:   entity.MainClient(),
	})
	return out, nil
}

// RemoveItem drops an item unless it is the last one.
func (q QuantitySplitter) RemoveItem(index int) (QuantitySplitter, error) {
	if err := checkIndex(index, len(q.Items)); err != nil {
		return q, err
	}
	if len(q.Items) == 1 {
		return q, apperr.Invalid(apperr.ErrLastItem, "")
	}
	out := NewQuantitySplitter(q.Total, nil)
	out.Items = append(cloneItems(q.Items[:index]), cloneItems(q.Items[index+1:])...)
	return out, nil
}

// SetItemQuantity sets one item's quantity, clamped to at least 1. Other
// items are left alone; Validate reports any resulting mismatch.
func (q QuantitySplitter) SetItemQuantity(index, n int) (QuantitySplitter, error) {
	if err := checkIndex(index, len(q.Items)); err != nil {
		return q, err
	}
	if n < 1 {
		n = 1
	}
	out := NewQuantitySplitter(q.Total, q.Items)
	out.Items[index].Quantity = n
	return out, nil
}

// Valid reports whether item quantities add up to Total.
func (q QuantitySplitter) Valid() bool {
	return len(q.Items) > 0 && q.Assigned() == q.Total
}

// Validate returns the mismatch as a ValidationError.
func (q QuantitySplitter) Validate() error {
	if len(q.Items) == 0 {
		return apperr.Invalid(apperr.ErrLastItem, "")
	}
	if assigned := q.Assigned(); assigned != q.Total {
		return apperr.Invalid(apperr.ErrQuantityMismatch, "assigned %d, expected %d", assigned, q.Total)
	}
	return nil
}

func checkIndex(index, n int) error {
	if index < 0 || index >= n {
		return apperr.Invalid(apperr.ErrItemIndex, "index %d, %d items", index, n)
	}
	return nil
}

func cloneItems(items []entity.DeliveryItem) []entity.DeliveryItem {
	out := make([]entity.DeliveryItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
