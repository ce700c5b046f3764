package combination

import (
	"errors"
	"testing"

	"github.com/iTakecare/leazr.co-sub004/internal/catalog/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
)

func mustSet(t *testing.T, attrs ...entity.VariationAttribute) entity.VariationAttributeSet {
	t.Helper()
	set, err := entity.NewVariationAttributeSet(attrs...)
	if err != nil {
		t.Fatalf("NewVariationAttributeSet: %v", err)
	}
	return set
}

func TestGenerateAll_ColorBySize(t *testing.T) {
	set := mustSet(t,
		entity.VariationAttribute{Name: "Color", Values: []string{"Red", "Blue"}},
		entity.VariationAttribute{Name: "Size", Values: []string{"S", "M", "L"}},
	)

	combos, err := GenerateAll(set)
	if err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}
	if len(combos) != 6 {
		t.Fatalf("Expected 6 combinations, got %d", len(combos))
	}

	want := []entity.AttributeAssignment{
		{"Color": "Red", "Size": "S"},
		{"Color": "Red", "Size": "M"},
		{"Color": "Red", "Size": "L"},
		{"Color": "Blue", "Size": "S"},
		{"Color": "Blue", "Size": "M"},
		{"Color": "Blue", "Size": "L"},
	}
	for i, w := range want {
		if combos[i]["Color"] != w["Color"] || combos[i]["Size"] != w["Size"] {
			t.Errorf("combination %d = %v, want %v", i, combos[i], w)
		}
	}
}

func TestGenerateAll_CartesianCompleteness(t *testing.T) {
	tests := []struct {
		name  string
		attrs []entity.VariationAttribute
		want  int
	}{
		{"single_attribute", []entity.VariationAttribute{{Name: "Storage", Values: []string{"64GB", "128GB"}}}, 2},
		{"three_attributes", []entity.VariationAttribute{
			{Name: "Color", Values: []string{"Black", "Silver", "Gold"}},
			{Name: "Storage", Values: []string{"64GB", "256GB"}},
			{Name: "Keyboard", Values: []string{"AZERTY", "QWERTY"}},
		}, 12},
		{"empty_attribute_collapses", []entity.VariationAttribute{
			{Name: "Color", Values: []string{"Black"}},
			{Name: "Size", Values: nil},
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := mustSet(t, tt.attrs...)
			combos, err := GenerateAll(set)
			if err != nil {
				t.Fatalf("GenerateAll: %v", err)
			}
			if len(combos) != tt.want {
				t.Fatalf("Expected %d combinations, got %d", tt.want, len(combos))
			}
			if Count(set) != tt.want {
				t.Errorf("Count = %d, want %d", Count(set), tt.want)
			}
			seen := map[string]bool{}
			for _, c := range combos {
				if seen[c.Key()] {
					t.Errorf("duplicate combination %v", c)
				}
				seen[c.Key()] = true
				if len(c) != len(set) {
					t.Errorf("combination %v does not cover every attribute", c)
				}
			}
		})
	}
}

func TestGenerate_Subset(t *testing.T) {
	set := mustSet(t,
		entity.VariationAttribute{Name: "Color", Values: []string{"Red", "Blue"}},
		entity.VariationAttribute{Name: "Size", Values: []string{"S", "M", "L"}},
	)

	combos, err := Generate(set, []string{"Size"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(combos) != 3 {
		t.Fatalf("Expected 3 combinations, got %d", len(combos))
	}
	if _, ok := combos[0]["Color"]; ok {
		t.Errorf("unselected attribute leaked into %v", combos[0])
	}

	// Selection order does not change the expansion order.
	a, _ := Generate(set, []string{"Size", "Color"})
	b, _ := Generate(set, []string{"Color", "Size"})
	for i := range a {
		if a[i].Key() != b[i].Key() {
			t.Fatalf("expansion order depends on selection order at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestGenerate_NoSelection(t *testing.T) {
	set := mustSet(t, entity.VariationAttribute{Name: "Color", Values: []string{"Red"}})
	if _, err := Generate(set, nil); !errors.Is(err, apperr.ErrNoAttributeSelected) {
		t.Errorf("Expected ErrNoAttributeSelected, got %v", err)
	}
	if _, err := Generate(set, []string{"Weight"}); !apperr.IsValidation(err) {
		t.Errorf("Expected validation error for unknown attribute, got %v", err)
	}
	if _, err := GenerateAll(nil); !errors.Is(err, apperr.ErrNoAttributeSelected) {
		t.Errorf("Expected ErrNoAttributeSelected for empty set, got %v", err)
	}
}

func TestFilterNew_CaseInsensitive(t *testing.T) {
	existing := []entity.AttributeAssignment{{"Color": "red", "Size": "s"}}
	candidates := []entity.AttributeAssignment{
		{"Color": "Red", "Size": "S"},
		{"Color": "Red", "Size": "M"},
		{"Color": "Blue", "Size": "S"},
	}

	fresh := FilterNew(candidates, existing)
	if len(fresh) != 2 {
		t.Fatalf("Expected 2 new combinations, got %d: %v", len(fresh), fresh)
	}
	if fresh[0]["Size"] != "M" || fresh[1]["Color"] != "Blue" {
		t.Errorf("order not preserved: %v", fresh)
	}

	if got := FilterNew(candidates[:1], existing); len(got) != 0 {
		t.Errorf("Expected all combinations to exist, got %v", got)
	}
}

func TestValidateComplete(t *testing.T) {
	set := mustSet(t,
		entity.VariationAttribute{Name: "Color", Values: []string{"Red"}},
		entity.VariationAttribute{Name: "Size", Values: []string{"S"}},
	)

	tests := []struct {
		name       string
		assignment entity.AttributeAssignment
		want       bool
	}{
		{"complete", entity.AttributeAssignment{"Color": "Red", "Size": "S"}, true},
		{"missing_size", entity.AttributeAssignment{"Color": "Red"}, false},
		{"blank_value", entity.AttributeAssignment{"Color": "Red", "Size": "  "}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateComplete(tt.assignment, set); got != tt.want {
				t.Errorf("ValidateComplete(%v) = %v, want %v", tt.assignment, got, tt.want)
			}
		})
	}

	if m := Missing(entity.AttributeAssignment{"Color": "Red"}, set); len(m) != 1 || m[0] != "Size" {
		t.Errorf("Missing = %v, want [Size]", m)
	}
}
