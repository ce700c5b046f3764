package wizard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/iTakecare/leazr.co-sub004/internal/delivery/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
	"gorm.io/datatypes"
)

func equipment(id, title string, qty int, serials string) entity.ContractEquipment {
	eq := entity.ContractEquipment{ID: id, Title: title, Quantity: qty}
	if serials != "" {
		eq.SerialNumbers = datatypes.JSON(serials)
	}
	return eq
}

func mustApply(t *testing.T, s State, events ...Event) State {
	t.Helper()
	for _, ev := range events {
		var err error
		s, err = Transition(s, ev)
		if err != nil {
			t.Fatalf("Transition(%s): %v", ev.Type, err)
		}
	}
	return s
}

func TestWizard_SingleModeSkipsItemStep(t *testing.T) {
	s, err := New("ct-1", []entity.ContractEquipment{
		equipment("eq-1", "Laptop", 3, `["SN1","SN2","SN3"]`),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s = mustApply(t, s, Event{Type: EventSelectMode, Mode: entity.ModeSingle}, Event{Type: EventNext})
	if s.Step != StepDestination {
		t.Fatalf("Expected destination step, got %s", s.Step)
	}
	cfg := s.Config()
	if len(cfg.Items) != 1 || cfg.Items[0].Quantity != 3 || len(cfg.Items[0].SerialNumbers) != 3 {
		t.Fatalf("unexpected single item: %+v", cfg.Items)
	}
	if cfg.Items[0].DeliveryType != entity.DeliveryMainClient {
		t.Errorf("single item defaults to main client, got %s", cfg.Items[0].DeliveryType)
	}

	s = mustApply(t, s, Event{Type: EventNext})
	if !s.Complete() {
		t.Fatalf("Expected complete, got %s", s.Step)
	}
	if _, err := Transition(s, Event{Type: EventBack}); !errors.Is(err, apperr.ErrInvalidStep) {
		t.Errorf("Expected no transition after completion, got %v", err)
	}
}

func TestWizard_ModeSwitchResetsItems(t *testing.T) {
	s, _ := New("ct-1", []entity.ContractEquipment{equipment("eq-1", "Screen", 4, "")})

	s = mustApply(t, s,
		Event{Type: EventSelectMode, Mode: entity.ModeSplitQuantity},
		Event{Type: EventNext},
		Event{Type: EventAddItem},
		Event{Type: EventAddItem},
		Event{Type: EventSetQuantity, Index: 0, Quantity: 3},
		Event{Type: EventBack},
		Event{Type: EventSelectMode, Mode: entity.ModeSingle},
	)

	cfg := s.Config()
	if len(cfg.Items) != 1 {
		t.Fatalf("Expected exactly one item after switching to single, got %d", len(cfg.Items))
	}
	if cfg.Items[0].Quantity != 4 {
		t.Errorf("Expected full quantity 4, got %d", cfg.Items[0].Quantity)
	}
	if !s.Dirty {
		t.Errorf("Expected dirty state")
	}
}

func TestWizard_SplitQuantityGate(t *testing.T) {
	s, _ := New("ct-1", []entity.ContractEquipment{equipment("eq-1", "Phone", 5, "")})
	s = mustApply(t, s,
		Event{Type: EventSelectMode, Mode: entity.ModeSplitQuantity},
		Event{Type: EventNext},
		Event{Type: EventAddItem},
		Event{Type: EventAddItem},
		Event{Type: EventSetQuantity, Index: 0, Quantity: 3},
		Event{Type: EventSetQuantity, Index: 1, Quantity: 2},
	)
	if !s.CanAdvance() {
		t.Fatalf("Expected [3,2] to pass the gate: %v", s.Gate())
	}

	for _, q := range []int{1, 3} {
		off := mustApply(t, s, Event{Type: EventSetQuantity, Index: 1, Quantity: q})
		if _, err := Transition(off, Event{Type: EventNext}); !errors.Is(err, apperr.ErrQuantityMismatch) {
			t.Errorf("quantity %d: expected ErrQuantityMismatch, got %v", q, err)
		}
	}

	s = mustApply(t, s, Event{Type: EventNext})
	if s.Step != StepDestination {
		t.Fatalf("Expected destination step, got %s", s.Step)
	}
}

func TestWizard_SerialModeFlow(t *testing.T) {
	s, _ := New("ct-1", []entity.ContractEquipment{equipment("eq-1", "Tablet", 3, `["A","B","C"]`)})
	s = mustApply(t, s,
		Event{Type: EventSelectMode, Mode: entity.ModeIndividualSerial},
		Event{Type: EventNext},
		Event{Type: EventAddItem},
		Event{Type: EventAddItem},
		Event{Type: EventSetSerials, Index: 0, Text: "A, B"},
		Event{Type: EventAssignSerial, Index: 1, Serial: "A"},
	)
	cfg := s.Config()
	if len(cfg.Items[0].SerialNumbers) != 1 || cfg.Items[0].SerialNumbers[0] != "B" {
		t.Fatalf("A should have moved to item 2, item 1 = %v", cfg.Items[0].SerialNumbers)
	}
	if s.CanAdvance() {
		t.Fatalf("C is unassigned; gate must refuse")
	}

	s = mustApply(t, s, Event{Type: EventAssignSerial, Index: 1, Serial: "C"}, Event{Type: EventNext})
	if s.Step != StepDestination {
		t.Fatalf("Expected destination step, got %s", s.Step)
	}
	if _, err := Transition(s, Event{Type: EventSetQuantity, Index: 0, Quantity: 2}); !errors.Is(err, apperr.ErrInvalidStep) {
		t.Errorf("Expected ErrInvalidStep editing items at destination step, got %v", err)
	}
}

func TestWizard_ModeAvailability(t *testing.T) {
	s, _ := New("ct-1", []entity.ContractEquipment{equipment("eq-1", "Dock", 1, "")})
	for _, mode := range []entity.DeliveryMode{entity.ModeSplitQuantity, entity.ModeIndividualSerial, "teleport"} {
		if _, err := Transition(s, Event{Type: EventSelectMode, Mode: mode}); !errors.Is(err, apperr.ErrModeNotAvailable) {
			t.Errorf("mode %s: expected ErrModeNotAvailable, got %v", mode, err)
		}
	}
	if _, err := Transition(s, Event{Type: EventNext}); err == nil {
		t.Errorf("Next without a mode must be refused")
	}
}

func TestWizard_DestinationGate(t *testing.T) {
	s, _ := New("ct-1", []entity.ContractEquipment{equipment("eq-1", "Laptop", 1, "")})
	s = mustApply(t, s, Event{Type: EventSelectMode, Mode: entity.ModeSingle}, Event{Type: EventNext})

	tests := []struct {
		name  string
		dest  entity.Destination
		valid bool
	}{
		{"main_client", entity.Destination{DeliveryType: entity.DeliveryMainClient}, true},
		{"collaborator_missing", entity.Destination{DeliveryType: entity.DeliveryCollaborator}, false},
		{"collaborator", entity.Destination{DeliveryType: entity.DeliveryCollaborator, CollaboratorID: "col-1"}, true},
		{"site_missing", entity.Destination{DeliveryType: entity.DeliveryPredefinedSite}, false},
		{"site", entity.Destination{DeliveryType: entity.DeliveryPredefinedSite, DeliverySiteID: "site-1"}, true},
		{"address_without_city", entity.Destination{DeliveryType: entity.DeliverySpecificAddress, Address: "Rue 1"}, false},
		{"address", entity.Destination{DeliveryType: entity.DeliverySpecificAddress, Address: "Rue 1", City: "Liège"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := tt.dest
			next := mustApply(t, s, Event{Type: EventSetDestination, Index: 0, Destination: &dest})
			if next.CanAdvance() != tt.valid {
				t.Errorf("CanAdvance = %v, want %v (%v)", next.CanAdvance(), tt.valid, next.Gate())
			}
		})
	}
}

func TestWizard_BackAcrossEquipment(t *testing.T) {
	s, _ := New("ct-1", []entity.ContractEquipment{
		equipment("eq-1", "Laptop", 2, ""),
		equipment("eq-2", "Mouse", 1, ""),
	})
	if s.CanGoBack() {
		t.Fatalf("back must be disabled on the first step")
	}
	if _, err := Transition(s, Event{Type: EventBack}); !errors.Is(err, apperr.ErrInvalidStep) {
		t.Errorf("Expected ErrInvalidStep, got %v", err)
	}

	s = mustApply(t, s,
		Event{Type: EventSelectMode, Mode: entity.ModeSplitQuantity},
		Event{Type: EventNext},
		Event{Type: EventAddItem},
		Event{Type: EventAddItem},
		Event{Type: EventNext},
		Event{Type: EventNext},
	)
	if s.Current != 1 || s.Step != StepModeSelect {
		t.Fatalf("Expected equipment 2 mode select, got %d/%s", s.Current, s.Step)
	}

	s = mustApply(t, s, Event{Type: EventBack})
	if s.Current != 0 || s.Step != StepDestination {
		t.Fatalf("Expected equipment 1 destination step, got %d/%s", s.Current, s.Step)
	}
	if len(s.Config().Items) != 2 {
		t.Errorf("going back must keep the configured items")
	}
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	s, _ := New("ct-1", []entity.ContractEquipment{equipment("eq-1", "Laptop", 2, "")})
	s = mustApply(t, s, Event{Type: EventSelectMode, Mode: entity.ModeSplitQuantity}, Event{Type: EventNext}, Event{Type: EventAddItem})

	before := s.Config().Items[0].Quantity
	_ = mustApply(t, s, Event{Type: EventSetQuantity, Index: 0, Quantity: 2})
	if s.Config().Items[0].Quantity != before {
		t.Errorf("input snapshot changed")
	}
}

type fakeWriter struct {
	fail    map[string]bool
	written []string
}

func (w *fakeWriter) CreateContractEquipmentDeliveries(ctx context.Context, contractID string, cfg entity.EquipmentDeliveryConfig) error {
	if w.fail[cfg.EquipmentID] {
		return fmt.Errorf("backend rejected %s", cfg.EquipmentID)
	}
	w.written = append(w.written, cfg.EquipmentID)
	return nil
}

func TestPersist_PartialFailure(t *testing.T) {
	s, _ := New("ct-1", []entity.ContractEquipment{
		equipment("eq-1", "Laptop", 1, ""),
		equipment("eq-2", "Screen", 1, ""),
		equipment("eq-3", "Dock", 1, ""),
	})
	if _, err := Persist(context.Background(), &fakeWriter{}, s, nil); !errors.Is(err, apperr.ErrInvalidStep) {
		t.Fatalf("Expected refusal before completion, got %v", err)
	}

	for i := 0; i < 3; i++ {
		s = mustApply(t, s, Event{Type: EventSelectMode, Mode: entity.ModeSingle}, Event{Type: EventNext}, Event{Type: EventNext})
	}
	if !s.Complete() {
		t.Fatalf("Expected complete")
	}

	w := &fakeWriter{fail: map[string]bool{"eq-2": true}}
	res, err := Persist(context.Background(), w, s, nil)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if res.SuccessCount != 2 || res.ErrorCount != 1 {
		t.Errorf("Expected 2 successes and 1 error, got %+v", res)
	}
	if len(w.written) != 2 || w.written[0] != "eq-1" || w.written[1] != "eq-3" {
		t.Errorf("Expected eq-1 then eq-3 written, got %v", w.written)
	}
	if res.Failures[0].EquipmentID != "eq-2" {
		t.Errorf("unexpected failure %+v", res.Failures)
	}
}

func TestSettle_FailedLinesStayRetryable(t *testing.T) {
	s, _ := New("ct-1", []entity.ContractEquipment{
		equipment("eq-1", "Laptop", 1, ""),
		equipment("eq-2", "Screen", 1, ""),
	})
	for i := 0; i < 2; i++ {
		s = mustApply(t, s, Event{Type: EventSelectMode, Mode: entity.ModeSingle}, Event{Type: EventNext}, Event{Type: EventNext})
	}
	if _, err := Transition(s, Event{Type: EventRetryPersist}); !errors.Is(err, apperr.ErrInvalidStep) {
		t.Fatalf("Expected nothing to retry before a failure, got %v", err)
	}

	w := &fakeWriter{fail: map[string]bool{"eq-1": true}}
	res, err := Persist(context.Background(), w, s, nil)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	s = s.Settle(res)
	if !s.Dirty || !s.Retryable() || len(s.Failed) != 1 || s.Failed[0] != "eq-1" {
		t.Fatalf("failed line must stay unsaved: %+v", s)
	}

	// retry writes only the failed line
	s = mustApply(t, s, Event{Type: EventRetryPersist})
	delete(w.fail, "eq-1")
	res, err = Retry(context.Background(), w, s, nil)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if res.SuccessCount != 1 || res.ErrorCount != 0 {
		t.Errorf("Expected 1/0 on retry, got %+v", res)
	}
	if len(w.written) != 2 || w.written[0] != "eq-2" || w.written[1] != "eq-1" {
		t.Errorf("Expected eq-2 then eq-1 written, got %v", w.written)
	}
	s = s.Settle(res)
	if s.Dirty || s.Retryable() || s.CanGoBack() {
		t.Errorf("settled run should be clean and final: %+v", s)
	}
}

func TestBack_ReopensFirstFailedLine(t *testing.T) {
	s, _ := New("ct-1", []entity.ContractEquipment{
		equipment("eq-1", "Laptop", 1, ""),
		equipment("eq-2", "Screen", 2, ""),
		equipment("eq-3", "Dock", 1, ""),
	})
	for i := 0; i < 3; i++ {
		s = mustApply(t, s, Event{Type: EventSelectMode, Mode: entity.ModeSingle}, Event{Type: EventNext}, Event{Type: EventNext})
	}
	s = s.Settle(&Result{SuccessCount: 2, ErrorCount: 1, Failures: []Failure{{EquipmentID: "eq-2"}}})
	if !s.CanGoBack() {
		t.Fatalf("back must be offered after a failed write")
	}

	s = mustApply(t, s, Event{Type: EventBack})
	if s.Current != 1 || s.Step != StepDestination {
		t.Fatalf("Expected destination step of eq-2, got %d/%s", s.Current, s.Step)
	}
	if !s.Dirty {
		t.Errorf("reopened run must stay dirty")
	}
	s = mustApply(t, s, Event{Type: EventNext}, Event{Type: EventSelectMode, Mode: entity.ModeSingle}, Event{Type: EventNext}, Event{Type: EventNext})
	if !s.Complete() {
		t.Fatalf("Expected complete again, got %s", s.Step)
	}
}
