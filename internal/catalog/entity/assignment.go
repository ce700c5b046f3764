package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// AttributeAssignment 属性取值组合：属性名 → 选定值
type AttributeAssignment map[string]string

// Clone copies the assignment.
func (a AttributeAssignment) Clone() AttributeAssignment {
	out := make(AttributeAssignment, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Matches reports whether other carries, for every attribute of a, the same
// value ignoring case. Attributes present only in other are not compared.
func (a AttributeAssignment) Matches(other AttributeAssignment) bool {
	for name, value := range a {
		ov, ok := other[name]
		if !ok {
			return false
		}
		if FoldValue(ov) != FoldValue(value) {
			return false
		}
	}
	return true
}

// Key is the normalized identity of the assignment: attribute names sorted,
// values case-folded. Used for the (product_id, combination_key) unique index.
func (a AttributeAssignment) Key() string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([][2]string, len(names))
	for i, name := range names {
		pairs[i] = [2]string{name, FoldValue(a[name])}
	}
	b, _ := json.Marshal(pairs)
	return string(b)
}

// Label renders the assignment in the set's attribute order, e.g. "Red / M".
func (a AttributeAssignment) Label(names []string) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if v, ok := a[n]; ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " / ")
}

func (a AttributeAssignment) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string(a))
}

func (a *AttributeAssignment) Scan(value interface{}) error {
	if value == nil {
		*a = AttributeAssignment{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to scan attribute assignment: %v", value)
	}
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*a = AttributeAssignment(m)
	return nil
}
