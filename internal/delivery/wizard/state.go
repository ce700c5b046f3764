// Package wizard drives the per-equipment delivery configuration as a finite
// state machine: mode selection, item configuration, destination assignment,
// then the next equipment line until the contract is complete.
package wizard

import (
	"github.com/iTakecare/leazr.co-sub004/internal/delivery/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/delivery/split"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
)

// Step 向导步骤
type Step string

const (
	StepModeSelect        Step = "mode_select"
	StepItemConfiguration Step = "item_configuration"
	StepDestination       Step = "destination"
	StepComplete          Step = "complete"
)

// Number is the 1-based position shown to users; 0 once complete.
func (s Step) Number() int {
	switch s {
	case StepModeSelect:
		return 1
	case StepItemConfiguration:
		return 2
	case StepDestination:
		return 3
	default:
		return 0
	}
}

// State is an immutable snapshot of a wizard run. Transition never modifies
// the State it is given.
type State struct {
	ContractID string                           `json:"contract_id"`
	Configs    []entity.EquipmentDeliveryConfig `json:"configs"`
	Current    int                              `json:"current"`
	Step       Step                             `json:"step"`
	Dirty      bool                             `json:"dirty"`
	// Failed holds equipment ids whose last write was rejected.
	Failed []string `json:"failed,omitempty"`
}

// New opens the wizard on the first equipment line.
func New(contractID string, equipment []entity.ContractEquipment) (State, error) {
	if len(equipment) == 0 {
		return State{}, apperr.Invalid(apperr.ErrInvalidStep, "contract has no equipment")
	}
	configs := make([]entity.EquipmentDeliveryConfig, len(equipment))
	for i, eq := range equipment {
		if eq.Quantity < 1 {
			return State{}, apperr.Invalid(apperr.ErrQuantityMismatch, "equipment %q has quantity %d", eq.Title, eq.Quantity)
		}
		configs[i] = entity.NewEquipmentDeliveryConfig(eq)
	}
	return State{
		ContractID: contractID,
		Configs:    configs,
		Current:    0,
		Step:       StepModeSelect,
	}, nil
}

// Clone deep-copies the snapshot.
func (s State) Clone() State {
	configs := make([]entity.EquipmentDeliveryConfig, len(s.Configs))
	for i, c := range s.Configs {
		configs[i] = c.Clone()
	}
	s.Configs = configs
	s.Failed = append([]string(nil), s.Failed...)
	return s
}

// Config returns the configuration of the equipment being edited.
func (s State) Config() entity.EquipmentDeliveryConfig {
	return s.Configs[s.Current]
}

// Complete reports whether every equipment line passed its last step.
func (s State) Complete() bool {
	return s.Step == StepComplete
}

// Retryable reports a completed run with lines that were not written.
func (s State) Retryable() bool {
	return s.Step == StepComplete && len(s.Failed) > 0
}

// CanGoBack is false on the very first step, and once complete unless some
// line failed to persist.
func (s State) CanGoBack() bool {
	if s.Step == StepComplete {
		return s.Retryable()
	}
	return !(s.Current == 0 && s.Step == StepModeSelect)
}

// Gate returns why Next is refused at the current step, or nil.
func (s State) Gate() error {
	if s.Step == StepComplete {
		return apperr.Invalid(apperr.ErrInvalidStep, "wizard already complete")
	}
	cfg := s.Config()
	switch s.Step {
	case StepModeSelect:
		if cfg.Mode == "" {
			return apperr.Invalid(apperr.ErrInvalidStep, "select a delivery mode")
		}
		return nil
	case StepItemConfiguration:
		return split.CheckItems(cfg)
	case StepDestination:
		if err := split.CheckItems(cfg); err != nil {
			return err
		}
		return split.CheckDestinations(cfg.Items)
	}
	return apperr.Invalid(apperr.ErrInvalidStep, "unknown step %q", s.Step)
}

// CanAdvance reports whether Next would be accepted.
func (s State) CanAdvance() bool {
	return s.Gate() == nil
}

// Pending returns the configurations to persist, in equipment order.
func (s State) Pending() []entity.EquipmentDeliveryConfig {
	var out []entity.EquipmentDeliveryConfig
	for _, c := range s.Configs {
		if len(c.Items) > 0 {
			out = append(out, c.Clone())
		}
	}
	return out
}
