package wizard

import (
	"context"

	"github.com/iTakecare/leazr.co-sub004/internal/delivery/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
	"go.uber.org/zap"
)

// DeliveryWriter persists one equipment line's delivery configuration.
type DeliveryWriter interface {
	CreateContractEquipmentDeliveries(ctx context.Context, contractID string, cfg entity.EquipmentDeliveryConfig) error
}

// DeliveryWriterFunc adapts a function to DeliveryWriter.
type DeliveryWriterFunc func(ctx context.Context, contractID string, cfg entity.EquipmentDeliveryConfig) error

func (f DeliveryWriterFunc) CreateContractEquipmentDeliveries(ctx context.Context, contractID string, cfg entity.EquipmentDeliveryConfig) error {
	return f(ctx, contractID, cfg)
}

// Failure 单台设备持久化失败
type Failure struct {
	EquipmentID string `json:"equipment_id"`
	Title       string `json:"title"`
	Error       string `json:"error"`
}

// Result 批量持久化结果
type Result struct {
	SuccessCount int       `json:"success_count"`
	ErrorCount   int       `json:"error_count"`
	Failures     []Failure `json:"failures,omitempty"`
}

// Persist writes every configuration that has items, in equipment order.
// A failing line is recorded and the next one is attempted; lines already
// written are kept.
func Persist(ctx context.Context, w DeliveryWriter, s State, logger *zap.Logger) (*Result, error) {
	if !s.Complete() {
		return nil, apperr.Invalid(apperr.ErrInvalidStep, "wizard is not complete")
	}
	return persist(ctx, w, s.ContractID, s.Pending(), logger), nil
}

// Retry writes again only the lines whose last write failed.
func Retry(ctx context.Context, w DeliveryWriter, s State, logger *zap.Logger) (*Result, error) {
	if !s.Retryable() {
		return nil, apperr.Invalid(apperr.ErrInvalidStep, "nothing to retry")
	}
	failed := make(map[string]bool, len(s.Failed))
	for _, id := range s.Failed {
		failed[id] = true
	}
	var cfgs []entity.EquipmentDeliveryConfig
	for _, cfg := range s.Pending() {
		if failed[cfg.EquipmentID] {
			cfgs = append(cfgs, cfg)
		}
	}
	return persist(ctx, w, s.ContractID, cfgs, logger), nil
}

// Settle records a write outcome on the state. Lines that failed stay
// unsaved, so the run remains dirty until they are written or discarded.
func (s State) Settle(res *Result) State {
	out := s.Clone()
	out.Failed = nil
	for _, f := range res.Failures {
		out.Failed = append(out.Failed, f.EquipmentID)
	}
	out.Dirty = res.ErrorCount > 0
	return out
}

func persist(ctx context.Context, w DeliveryWriter, contractID string, cfgs []entity.EquipmentDeliveryConfig, logger *zap.Logger) *Result {
	if logger == nil {
		logger = zap.NewNop()
	}

	result := &Result{}
	for _, cfg := range cfgs {
		if err := w.CreateContractEquipmentDeliveries(ctx, contractID, cfg); err != nil {
			result.ErrorCount++
			result.Failures = append(result.Failures, Failure{
				EquipmentID: cfg.EquipmentID,
				Title:       cfg.Title,
				Error:       err.Error(),
			})
			logger.Warn("Persist equipment deliveries failed",
				zap.String("contract_id", contractID),
				zap.String("equipment_id", cfg.EquipmentID),
				zap.Error(err),
			)
			continue
		}
		result.SuccessCount++
	}

	logger.Info("Delivery wizard persisted",
		zap.String("contract_id", contractID),
		zap.Int("success", result.SuccessCount),
		zap.Int("errors", result.ErrorCount),
	)
	return result
}
