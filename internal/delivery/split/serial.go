package split

import (
	"strings"

	"github.com/iTakecare/leazr.co-sub004/internal/delivery/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
)

// SerialAssigner 按序列号拆分。每个序列号只归属一个发货单元，
// 单元数量恒等于其序列号个数。
type SerialAssigner struct {
	Serials []string
	Items   []entity.DeliveryItem
}

// NewSerialAssigner copies its inputs and recomputes item quantities.
func NewSerialAssigner(serials []string, items []entity.DeliveryItem) SerialAssigner {
	a := SerialAssigner{Serials: append([]string(nil), serials...), Items: cloneItems(items)}
	for i := range a.Items {
		a.Items[i].Quantity = len(a.Items[i].SerialNumbers)
	}
	return a
}

// ParseSerials splits free text on newlines, commas and semicolons, trims
// every token and drops blanks and repeats.
func ParseSerials(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ',' || r == ';'
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func (a SerialAssigner) known(serial string) bool {
	for _, s := range a.Serials {
		if s == serial {
			return true
		}
	}
	return false
}

func (a SerialAssigner) clone() SerialAssigner {
	return SerialAssigner{Serials: append([]string(nil), a.Serials...), Items: cloneItems(a.Items)}
}

// Unassigned lists serials held by no item, in equipment order.
func (a SerialAssigner) Unassigned() []string {
	held := make(map[string]bool)
	for _, it := range a.Items {
		for _, s := range it.SerialNumbers {
			held[s] = true
		}
	}
	var out []string
	for _, s := range a.Serials {
		if !held[s] {
			out = append(out, s)
		}
	}
	return out
}

// Duplicates lists serials held by more than one item.
func (a SerialAssigner) Duplicates() []string {
	count := make(map[string]int)
	var out []string
	for _, it := range a.Items {
		for _, s := range it.SerialNumbers {
			count[s]++
			if count[s] == 2 {
				out = append(out, s)
			}
		}
	}
	return out
}

// AddItem appends an empty item while some serial is still unassigned.
func (a SerialAssigner) AddItem() (SerialAssigner, error) {
	if len(a.Unassigned()) == 0 {
		return a, apperr.Invalid(apperr.ErrAllSerialsAssigned, "")
	}
	out := a.clone()
	out.Items = append(out.Items, entity.DeliveryItem{
		Quantity:      0,
		SerialNumbers: []string{},
		Destination:   entity.MainClient(),
	})
	return out, nil
}

// RemoveItem drops an item unless it is the last one; its serials become
// unassigned.
func (a SerialAssigner) RemoveItem(index int) (SerialAssigner, error) {
	if err := checkIndex(index, len(a.Items)); err != nil {
		return a, err
	}
	if len(a.Items) == 1 {
		return a, apperr.Invalid(apperr.ErrLastItem, "")
	}
	out := a.clone()
	out.Items = append(out.Items[:index], out.Items[index+1:]...)
	return out, nil
}

// SetItemSerials replaces an item's serials with those parsed from text.
// Tokens that are not serials of the equipment are dropped. Serials taken
// by this item are released from any other item.
func (a SerialAssigner) SetItemSerials(index int, text string) (SerialAssigner, error) {
	if err := checkIndex(index, len(a.Items)); err != nil {
		return a, err
	}
	serials := make([]string, 0)
	for _, s := range ParseSerials(text) {
		if a.known(s) {
			serials = append(serials, s)
		}
	}
	out := a.clone()
	for _, s := range serials {
		out.release(s, index)
	}
	out.Items[index].SerialNumbers = serials
	out.Items[index].Quantity = len(serials)
	return out, nil
}

// Assign moves a serial into an item, taking it away from whichever item
// held it before.
func (a SerialAssigner) Assign(index int, serial string) (SerialAssigner, error) {
	if err := checkIndex(index, len(a.Items)); err != nil {
		return a, err
	}
	serial = strings.TrimSpace(serial)
	if !a.known(serial) {
		return a, apperr.Invalid(apperr.ErrUnknownSerial, "%q", serial)
	}
	out := a.clone()
	out.release(serial, index)
	item := &out.Items[index]
	for _, s := range item.SerialNumbers {
		if s == serial {
			return out, nil
		}
	}
	item.SerialNumbers = append(item.SerialNumbers, serial)
	item.Quantity = len(item.SerialNumbers)
	return out, nil
}

// Unassign removes a serial from an item.
func (a SerialAssigner) Unassign(index int, serial string) (SerialAssigner, error) {
	if err := checkIndex(index, len(a.Items)); err != nil {
		return a, err
	}
	out := a.clone()
	item := &out.Items[index]
	item.SerialNumbers = removeSerial(item.SerialNumbers, strings.TrimSpace(serial))
	item.Quantity = len(item.SerialNumbers)
	return out, nil
}

// release removes serial from every item except keep.
func (a *SerialAssigner) release(serial string, keep int) {
	for i := range a.Items {
		if i == keep {
			continue
		}
		a.Items[i].SerialNumbers = removeSerial(a.Items[i].SerialNumbers, serial)
		a.Items[i].Quantity = len(a.Items[i].SerialNumbers)
	}
}

func removeSerial(list []string, serial string) []string {
	out := list[:0:0]
	for _, s := range list {
		if s != serial {
			out = append(out, s)
		}
	}
	return out
}

// Valid reports whether the items partition the serial set exactly.
func (a SerialAssigner) Valid() bool {
	return a.Validate() == nil
}

// Validate checks the partition: every serial of the equipment held by
// exactly one item, nothing foreign, no empty item.
func (a SerialAssigner) Validate() error {
	if len(a.Items) == 0 {
		return apperr.Invalid(apperr.ErrLastItem, "")
	}
	if dup := a.Duplicates(); len(dup) > 0 {
		return apperr.Invalid(apperr.ErrSerialPartition, "assigned more than once: %s", strings.Join(dup, ", "))
	}
	union := 0
	for i, it := range a.Items {
		if len(it.SerialNumbers) == 0 {
			return apperr.Invalid(apperr.ErrSerialPartition, "item %d has no serial number", i+1)
		}
		if it.Quantity != len(it.SerialNumbers) {
			return apperr.Invalid(apperr.ErrSerialPartition, "item %d quantity %d does not match %d serials", i+1, it.Quantity, len(it.SerialNumbers))
		}
		for _, s := range it.SerialNumbers {
			if !a.known(s) {
				return apperr.Invalid(apperr.ErrUnknownSerial, "%q", s)
			}
		}
		union += len(it.SerialNumbers)
	}
	if missing := a.Unassigned(); len(missing) > 0 {
		return apperr.Invalid(apperr.ErrSerialPartition, "unassigned: %s", strings.Join(missing, ", "))
	}
	if union != len(a.Serials) {
		return apperr.Invalid(apperr.ErrSerialPartition, "assigned %d of %d serials", union, len(a.Serials))
	}
	return nil
}
