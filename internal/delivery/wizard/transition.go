package wizard

import (
	"github.com/iTakecare/leazr.co-sub004/internal/delivery/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/delivery/split"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
)

// EventType 向导事件类型
type EventType string

const (
	EventSelectMode     EventType = "select_mode"
	EventAddItem        EventType = "add_item"
	EventRemoveItem     EventType = "remove_item"
	EventSetQuantity    EventType = "set_quantity"
	EventSetSerials     EventType = "set_serials"
	EventAssignSerial   EventType = "assign_serial"
	EventUnassignSerial EventType = "unassign_serial"
	EventSetDestination EventType = "set_destination"
	EventSetNotes       EventType = "set_notes"
	EventNext           EventType = "next"
	EventBack           EventType = "back"
	EventRetryPersist   EventType = "retry_persist"
)

// Event 用户操作
type Event struct {
	Type        EventType           `json:"type" binding:"required"`
	Mode        entity.DeliveryMode `json:"mode,omitempty"`
	Index       int                 `json:"index"`
	Quantity    int                 `json:"quantity,omitempty"`
	Text        string              `json:"text,omitempty"`
	Serial      string              `json:"serial,omitempty"`
	Destination *entity.Destination `json:"destination,omitempty"`
	Notes       string              `json:"notes,omitempty"`
}

// Mutates reports whether the event can change delivery items.
func (e Event) Mutates() bool {
	return e.Type != EventNext && e.Type != EventBack && e.Type != EventRetryPersist
}

// Transition applies one event. On error the returned state is the input
// state unchanged.
func Transition(s State, ev Event) (State, error) {
	if s.Step == StepComplete && !(s.Retryable() && (ev.Type == EventBack || ev.Type == EventRetryPersist)) {
		return s, apperr.Invalid(apperr.ErrInvalidStep, "wizard already complete")
	}
	next := s.Clone()
	var err error

	switch ev.Type {
	case EventSelectMode:
		err = next.selectMode(ev.Mode)
	case EventAddItem, EventRemoveItem, EventSetQuantity, EventSetSerials, EventAssignSerial, EventUnassignSerial:
		err = next.editItems(ev)
	case EventSetDestination, EventSetNotes:
		err = next.editDestination(ev)
	case EventNext:
		err = next.advance()
	case EventBack:
		err = next.back()
	case EventRetryPersist:
		// the write itself happens outside the state machine
		if !next.Retryable() {
			err = apperr.Invalid(apperr.ErrInvalidStep, "nothing to retry")
		}
	default:
		err = apperr.Invalid(apperr.ErrInvalidStep, "unknown event %q", ev.Type)
	}
	if err != nil {
		return s, err
	}
	if ev.Mutates() {
		next.Dirty = true
	}
	return next, nil
}

func (s *State) requireStep(step Step) error {
	if s.Step != step {
		return apperr.Invalid(apperr.ErrInvalidStep, "expected step %s, at %s", step, s.Step)
	}
	return nil
}

func (s *State) selectMode(mode entity.DeliveryMode) error {
	if err := s.requireStep(StepModeSelect); err != nil {
		return err
	}
	cfg := &s.Configs[s.Current]
	if !cfg.Allows(mode) {
		return apperr.Invalid(apperr.ErrModeNotAvailable, "%q for %q", mode, cfg.Title)
	}
	cfg.Mode = mode
	if mode == entity.ModeSingle {
		cfg.Items = []entity.DeliveryItem{split.SingleItem(*cfg)}
	} else {
		cfg.Items = []entity.DeliveryItem{}
	}
	return nil
}

func (s *State) editItems(ev Event) error {
	if err := s.requireStep(StepItemConfiguration); err != nil {
		return err
	}
	cfg := &s.Configs[s.Current]

	switch cfg.Mode {
	case entity.ModeSplitQuantity:
		q := split.NewQuantitySplitter(cfg.TotalQuantity, cfg.Items)
		var err error
		switch ev.Type {
		case EventAddItem:
			q, err = q.AddItem()
		case EventRemoveItem:
			q, err = q.RemoveItem(ev.Index)
		case EventSetQuantity:
			q, err = q.SetItemQuantity(ev.Index, ev.Quantity)
		default:
			err = apperr.Invalid(apperr.ErrInvalidStep, "%s not available in %s mode", ev.Type, cfg.Mode)
		}
		if err != nil {
			return err
		}
		cfg.Items = q.Items

	case entity.ModeIndividualSerial:
		a := split.NewSerialAssigner(cfg.SerialNumbers, cfg.Items)
		var err error
		switch ev.Type {
		case EventAddItem:
			a, err = a.AddItem()
		case EventRemoveItem:
			a, err = a.RemoveItem(ev.Index)
		case EventSetSerials:
			a, err = a.SetItemSerials(ev.Index, ev.Text)
		case EventAssignSerial:
			a, err = a.Assign(ev.Index, ev.Serial)
		case EventUnassignSerial:
			a, err = a.Unassign(ev.Index, ev.Serial)
		default:
			err = apperr.Invalid(apperr.ErrInvalidStep, "%s not available in %s mode", ev.Type, cfg.Mode)
		}
		if err != nil {
			return err
		}
		cfg.Items = a.Items

	default:
		return apperr.Invalid(apperr.ErrInvalidStep, "items are not editable in %s mode", cfg.Mode)
	}
	return nil
}

func (s *State) editDestination(ev Event) error {
	if err := s.requireStep(StepDestination); err != nil {
		return err
	}
	cfg := &s.Configs[s.Current]
	if ev.Index < 0 || ev.Index >= len(cfg.Items) {
		return apperr.Invalid(apperr.ErrItemIndex, "index %d, %d items", ev.Index, len(cfg.Items))
	}
	item := &cfg.Items[ev.Index]
	switch ev.Type {
	case EventSetDestination:
		if ev.Destination == nil {
			return apperr.Invalid(apperr.ErrDestinationIncomplete, "destination is required")
		}
		item.Destination = ev.Destination.Normalized()
	case EventSetNotes:
		item.Notes = ev.Notes
	}
	return nil
}

func (s *State) advance() error {
	if err := s.Gate(); err != nil {
		return err
	}
	switch s.Step {
	case StepModeSelect:
		if s.Config().Mode == entity.ModeSingle {
			s.Step = StepDestination
		} else {
			s.Step = StepItemConfiguration
		}
	case StepItemConfiguration:
		s.Step = StepDestination
	case StepDestination:
		if s.Current == len(s.Configs)-1 {
			s.Step = StepComplete
		} else {
			s.Current++
			s.Step = StepModeSelect
		}
	}
	return nil
}

func (s *State) back() error {
	if !s.CanGoBack() {
		return apperr.Invalid(apperr.ErrInvalidStep, "already at the first step")
	}
	switch s.Step {
	case StepComplete:
		s.Current = s.firstFailed()
		s.Step = StepDestination
	case StepModeSelect:
		s.Current--
		s.Step = StepDestination
	case StepItemConfiguration:
		s.Step = StepModeSelect
	case StepDestination:
		if s.Config().Mode == entity.ModeSingle {
			s.Step = StepModeSelect
		} else {
			s.Step = StepItemConfiguration
		}
	}
	return nil
}

func (s *State) firstFailed() int {
	for i, c := range s.Configs {
		for _, id := range s.Failed {
			if c.EquipmentID == id {
				return i
			}
		}
	}
	return len(s.Configs) - 1
}
