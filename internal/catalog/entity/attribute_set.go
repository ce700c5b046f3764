package entity

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
	"golang.org/x/text/cases"
)

// VariationAttribute 变体属性：名称 + 有序取值列表
type VariationAttribute struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// VariationAttributeSet 产品的变体属性集合，保持插入顺序。
// JSON 形式为对象 {"Color": ["Red","Blue"], ...}，键顺序即属性顺序。
type VariationAttributeSet []VariationAttribute

// FoldValue normalizes an attribute value for case-insensitive comparison.
func FoldValue(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// NewVariationAttributeSet builds a set from ordered attributes, trimming
// names and values, dropping blank values and collapsing values that only
// differ by case. Blank or repeated attribute names are rejected.
func NewVariationAttributeSet(attrs ...VariationAttribute) (VariationAttributeSet, error) {
	set := make(VariationAttributeSet, 0, len(attrs))
	seen := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return nil, apperr.Invalid(apperr.ErrInvalidAttributeSet, "attribute name is empty")
		}
		if seen[name] {
			return nil, apperr.Invalid(apperr.ErrInvalidAttributeSet, "duplicate attribute %q", name)
		}
		seen[name] = true
		set = append(set, VariationAttribute{Name: name, Values: normalizeValues(a.Values)})
	}
	return set, nil
}

func normalizeValues(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := FoldValue(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

// Names returns attribute names in insertion order.
func (s VariationAttributeSet) Names() []string {
	names := make([]string, len(s))
	for i, a := range s {
		names[i] = a.Name
	}
	return names
}

// Get returns the permitted values of an attribute.
func (s VariationAttributeSet) Get(name string) ([]string, bool) {
	for _, a := range s {
		if a.Name == name {
			return a.Values, true
		}
	}
	return nil, false
}

// Has reports whether the set declares the attribute.
func (s VariationAttributeSet) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Allows reports whether value is a permitted value of the attribute.
func (s VariationAttributeSet) Allows(name, value string) bool {
	values, ok := s.Get(name)
	if !ok {
		return false
	}
	k := FoldValue(value)
	for _, v := range values {
		if FoldValue(v) == k {
			return true
		}
	}
	return false
}

// With returns a copy of the set where the attribute is added, or its values
// replaced when it already exists (position kept).
func (s VariationAttributeSet) With(name string, values []string) (VariationAttributeSet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid(apperr.ErrInvalidAttributeSet, "attribute name is empty")
	}
	out := s.Clone()
	for i := range out {
		if out[i].Name == name {
			out[i].Values = normalizeValues(values)
			return out, nil
		}
	}
	return append(out, VariationAttribute{Name: name, Values: normalizeValues(values)}), nil
}

// Without returns a copy of the set with the attribute removed.
func (s VariationAttributeSet) Without(name string) (VariationAttributeSet, error) {
	out := make(VariationAttributeSet, 0, len(s))
	found := false
	for _, a := range s {
		if a.Name == name {
			found = true
			continue
		}
		out = append(out, VariationAttribute{Name: a.Name, Values: append([]string(nil), a.Values...)})
	}
	if !found {
		return nil, apperr.Invalid(apperr.ErrInvalidAttributeSet, "unknown attribute %q", name)
	}
	return out, nil
}

// Subset restricts the set to the given names, keeping the set's own order.
// Unknown names are rejected; an empty selection is an error.
func (s VariationAttributeSet) Subset(names []string) (VariationAttributeSet, error) {
	if len(names) == 0 {
		return nil, apperr.Invalid(apperr.ErrNoAttributeSelected, "")
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		if !s.Has(n) {
			return nil, apperr.Invalid(apperr.ErrInvalidAttributeSet, "unknown attribute %q", n)
		}
		wanted[n] = true
	}
	out := make(VariationAttributeSet, 0, len(wanted))
	for _, a := range s {
		if wanted[a.Name] {
			out = append(out, a)
		}
	}
	return out, nil
}

// Clone deep-copies the set.
func (s VariationAttributeSet) Clone() VariationAttributeSet {
	if s == nil {
		return nil
	}
	out := make(VariationAttributeSet, len(s))
	for i, a := range s {
		out[i] = VariationAttribute{Name: a.Name, Values: append([]string(nil), a.Values...)}
	}
	return out
}

func (s VariationAttributeSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(a.Name)
		if err != nil {
			return nil, err
		}
		values := a.Values
		if values == nil {
			values = []string{}
		}
		v, err := json.Marshal(values)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the object form (order preserved) or a list of
// {"name","values"} objects.
func (s *VariationAttributeSet) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = nil
		return nil
	}
	if trimmed[0] == '[' {
		var list []VariationAttribute
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		set, err := NewVariationAttributeSet(list...)
		if err != nil {
			return err
		}
		*s = set
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("variation attributes: expected object, got %v", tok)
	}
	var attrs []VariationAttribute
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("variation attributes: expected key, got %v", tok)
		}
		var values []string
		if err := dec.Decode(&values); err != nil {
			return fmt.Errorf("variation attributes: values of %q: %w", name, err)
		}
		attrs = append(attrs, VariationAttribute{Name: name, Values: values})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	set, err := NewVariationAttributeSet(attrs...)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

func (s VariationAttributeSet) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return s.MarshalJSON()
}

func (s *VariationAttributeSet) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to scan variation attributes: %v", value)
	}
	return s.UnmarshalJSON(data)
}
