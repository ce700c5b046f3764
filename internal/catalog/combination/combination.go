// Package combination expands variation attribute sets into every attribute
// value combination and filters them against combinations already priced.
package combination

import (
	"strings"

	"github.com/iTakecare/leazr.co-sub004/internal/catalog/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
)

// Generate returns the Cartesian product of the selected attributes, walking
// them depth-first in the set's order. An attribute without values yields no
// combinations at all.
func Generate(set entity.VariationAttributeSet, names []string) ([]entity.AttributeAssignment, error) {
	chosen, err := set.Subset(names)
	if err != nil {
		return nil, err
	}
	return expand(chosen), nil
}

// GenerateAll expands every attribute of the set.
func GenerateAll(set entity.VariationAttributeSet) ([]entity.AttributeAssignment, error) {
	if len(set) == 0 {
		return nil, apperr.Invalid(apperr.ErrNoAttributeSelected, "product has no variation attributes")
	}
	return expand(set), nil
}

// Count is the number of combinations GenerateAll would produce.
func Count(set entity.VariationAttributeSet) int {
	if len(set) == 0 {
		return 0
	}
	n := 1
	for _, a := range set {
		n *= len(a.Values)
	}
	return n
}

func expand(attrs entity.VariationAttributeSet) []entity.AttributeAssignment {
	out := make([]entity.AttributeAssignment, 0, Count(attrs))
	partial := make(entity.AttributeAssignment, len(attrs))
	var walk func(depth int)
	walk = func(depth int) {
		if depth == len(attrs) {
			out = append(out, partial.Clone())
			return
		}
		a := attrs[depth]
		for _, v := range a.Values {
			partial[a.Name] = v
			walk(depth + 1)
		}
		delete(partial, a.Name)
	}
	walk(0)
	return out
}

// FilterNew keeps the candidates no existing assignment matches, in order.
func FilterNew(candidates, existing []entity.AttributeAssignment) []entity.AttributeAssignment {
	out := make([]entity.AttributeAssignment, 0, len(candidates))
	for _, c := range candidates {
		if !Contains(existing, c) {
			out = append(out, c)
		}
	}
	return out
}

// Contains reports whether any existing assignment matches the candidate on
// every attribute the candidate carries, ignoring case.
func Contains(existing []entity.AttributeAssignment, candidate entity.AttributeAssignment) bool {
	for _, e := range existing {
		if candidate.Matches(e) {
			return true
		}
	}
	return false
}

// ValidateComplete reports whether the assignment has a non-blank value for
// every attribute of the set.
func ValidateComplete(assignment entity.AttributeAssignment, set entity.VariationAttributeSet) bool {
	for _, a := range set {
		if strings.TrimSpace(assignment[a.Name]) == "" {
			return false
		}
	}
	return true
}

// Missing lists attributes of the set the assignment leaves blank.
func Missing(assignment entity.AttributeAssignment, set entity.VariationAttributeSet) []string {
	var missing []string
	for _, a := range set {
		if strings.TrimSpace(assignment[a.Name]) == "" {
			missing = append(missing, a.Name)
		}
	}
	return missing
}
