package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iTakecare/leazr.co-sub004/internal/delivery/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/delivery/wizard"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
	"go.uber.org/zap"
)

type ContractStore interface {
	FindByID(ctx context.Context, id string) (*entity.Contract, error)
}

// ClientStore 客户收货选项
type ClientStore interface {
	ListCollaborators(ctx context.Context, clientID string) ([]entity.Collaborator, error)
	ListDeliverySites(ctx context.Context, clientID string) ([]entity.DeliverySite, error)
}

type DeliveryStore interface {
	CreateContractEquipmentDeliveries(ctx context.Context, contractID string, cfg entity.EquipmentDeliveryConfig, createdBy string) error
	ListByContract(ctx context.Context, contractID string) ([]entity.EquipmentDelivery, error)
}

// Notifier announces persisted deliveries.
type Notifier interface {
	PublishDeliveryUpdate(contractID string, successCount, errorCount int)
}

type noopNotifier struct{}

func (noopNotifier) PublishDeliveryUpdate(string, int, int) {}

// Caller is the authenticated user acting on the wizard. Contracts and
// sessions outside CompanyID are reported as not found.
type Caller struct {
	UserID    string
	CompanyID string
	Admin     bool
}

// SessionView 会话快照及派生状态
type SessionView struct {
	ID           string                `json:"id"`
	State        wizard.State          `json:"state"`
	StepNumber   int                   `json:"step_number"`
	CanGoBack    bool                  `json:"can_go_back"`
	CanAdvance   bool                  `json:"can_advance"`
	Blocker      string                `json:"blocker,omitempty"`
	AllowedModes []entity.DeliveryMode `json:"allowed_modes,omitempty"`
	Result       *wizard.Result        `json:"result,omitempty"`
}

func newView(s *Session, result *wizard.Result) *SessionView {
	v := &SessionView{
		ID:         s.ID,
		State:      s.State,
		StepNumber: s.State.Step.Number(),
		CanGoBack:  s.State.CanGoBack(),
		Result:     result,
	}
	if !s.State.Complete() {
		v.AllowedModes = s.State.Config().AllowedModes()
		if err := s.State.Gate(); err != nil {
			v.Blocker = err.Error()
		} else {
			v.CanAdvance = true
		}
	}
	return v
}

// DeliveryService 交付向导
type DeliveryService struct {
	contracts  ContractStore
	clients    ClientStore
	deliveries DeliveryStore
	sessions   SessionStore
	notifier   Notifier
	logger     *zap.Logger
}

func NewDeliveryService(contracts ContractStore, clients ClientStore, deliveries DeliveryStore, sessions SessionStore, notifier Notifier, logger *zap.Logger) *DeliveryService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliveryService{
		contracts:  contracts,
		clients:    clients,
		deliveries: deliveries,
		sessions:   sessions,
		notifier:   notifier,
		logger:     logger,
	}
}

// StartWizard opens a session on the contract's first equipment line.
func (s *DeliveryService) StartWizard(ctx context.Context, contractID string, caller Caller) (*SessionView, error) {
	contract, err := s.loadContract(ctx, contractID, caller)
	if err != nil {
		return nil, err
	}
	state, err := wizard.New(contract.ID, contract.Equipment)
	if err != nil {
		return nil, err
	}
	sess := &Session{
		ID:        uuid.New().String(),
		UserID:    caller.UserID,
		CompanyID: contract.CompanyID,
		ClientID:  contract.ClientID,
		State:     state,
		UpdatedAt: time.Now(),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("Delivery wizard started",
		zap.String("session_id", sess.ID),
		zap.String("contract_id", contract.ID),
		zap.String("user_id", caller.UserID),
		zap.Int("equipment", len(contract.Equipment)),
	)
	return newView(sess, nil), nil
}

func (s *DeliveryService) Get(ctx context.Context, sessionID string, caller Caller) (*SessionView, error) {
	sess, err := s.session(ctx, sessionID, caller)
	if err != nil {
		return nil, err
	}
	return newView(sess, nil), nil
}

// Apply runs one wizard event. Completing the wizard writes every configured
// line and returns the tally with the view; retry_persist writes only the
// lines that failed last time. Lines that fail keep the session dirty.
// A rejected event leaves the stored session untouched.
func (s *DeliveryService) Apply(ctx context.Context, sessionID string, ev wizard.Event, caller Caller) (*SessionView, error) {
	sess, err := s.session(ctx, sessionID, caller)
	if err != nil {
		return nil, err
	}
	if ev.Type == wizard.EventSetDestination && ev.Destination != nil {
		if err := s.checkDestination(ctx, sess.ClientID, *ev.Destination); err != nil {
			return nil, err
		}
	}

	next, err := wizard.Transition(sess.State, ev)
	if err != nil {
		return nil, err
	}

	writer := wizard.DeliveryWriterFunc(func(ctx context.Context, contractID string, cfg entity.EquipmentDeliveryConfig) error {
		return s.deliveries.CreateContractEquipmentDeliveries(ctx, contractID, cfg, caller.UserID)
	})
	var result *wizard.Result
	switch {
	case ev.Type == wizard.EventRetryPersist:
		result, err = wizard.Retry(ctx, writer, next, s.logger)
	case next.Complete() && !sess.State.Complete():
		result, err = wizard.Persist(ctx, writer, next, s.logger)
	}
	if err != nil {
		return nil, err
	}
	if result != nil {
		next = next.Settle(result)
		s.notifier.PublishDeliveryUpdate(next.ContractID, result.SuccessCount, result.ErrorCount)
	}

	sess.State = next
	sess.UpdatedAt = time.Now()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return newView(sess, result), nil
}

// Discard drops a session. Unsaved edits are only thrown away when forced.
func (s *DeliveryService) Discard(ctx context.Context, sessionID string, force bool, caller Caller) error {
	sess, err := s.session(ctx, sessionID, caller)
	if err != nil {
		return err
	}
	if sess.State.Dirty && !force {
		return apperr.ErrUnsavedChanges
	}
	return s.sessions.Delete(ctx, sessionID)
}

// session loads a session the caller may act on. Another company's session
// does not exist for the caller; another user's needs the admin role.
func (s *DeliveryService) session(ctx context.Context, sessionID string, caller Caller) (*Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.CompanyID != caller.CompanyID {
		return nil, fmt.Errorf("session %s: %w", sessionID, apperr.ErrNotFound)
	}
	if sess.UserID != caller.UserID && !caller.Admin {
		s.logger.Warn("Delivery wizard access denied",
			zap.String("session_id", sessionID),
			zap.String("owner", sess.UserID),
			zap.String("user_id", caller.UserID),
		)
		return nil, fmt.Errorf("session %s: %w", sessionID, apperr.ErrForbidden)
	}
	return sess, nil
}

func (s *DeliveryService) loadContract(ctx context.Context, contractID string, caller Caller) (*entity.Contract, error) {
	contract, err := s.contracts.FindByID(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("load contract: %w", err)
	}
	if contract.CompanyID != caller.CompanyID {
		return nil, fmt.Errorf("load contract %s: %w", contractID, apperr.ErrNotFound)
	}
	return contract, nil
}

func (s *DeliveryService) ListCollaborators(ctx context.Context, clientID string) ([]entity.Collaborator, error) {
	list, err := s.clients.ListCollaborators(ctx, clientID)
	if err != nil {
		return nil, apperr.Remote("list collaborators", err)
	}
	return list, nil
}

func (s *DeliveryService) ListDeliverySites(ctx context.Context, clientID string) ([]entity.DeliverySite, error) {
	list, err := s.clients.ListDeliverySites(ctx, clientID)
	if err != nil {
		return nil, apperr.Remote("list delivery sites", err)
	}
	return list, nil
}

func (s *DeliveryService) ListDeliveries(ctx context.Context, contractID string, caller Caller) ([]entity.EquipmentDelivery, error) {
	if _, err := s.loadContract(ctx, contractID, caller); err != nil {
		return nil, err
	}
	list, err := s.deliveries.ListByContract(ctx, contractID)
	if err != nil {
		return nil, apperr.Remote("list deliveries", err)
	}
	return list, nil
}

// checkDestination rejects collaborator and site ids that belong to another
// client. Field completeness is left to the wizard gate.
func (s *DeliveryService) checkDestination(ctx context.Context, clientID string, d entity.Destination) error {
	switch d.DeliveryType {
	case entity.DeliveryCollaborator:
		if d.CollaboratorID == "" {
			return nil
		}
		list, err := s.ListCollaborators(ctx, clientID)
		if err != nil {
			return err
		}
		for _, c := range list {
			if c.ID == d.CollaboratorID {
				return nil
			}
		}
		return apperr.Invalid(apperr.ErrDestinationIncomplete, "collaborator %q does not belong to the client", d.CollaboratorID)
	case entity.DeliveryPredefinedSite:
		if d.DeliverySiteID == "" {
			return nil
		}
		list, err := s.ListDeliverySites(ctx, clientID)
		if err != nil {
			return err
		}
		for _, site := range list {
			if site.ID == d.DeliverySiteID {
				return nil
			}
		}
		return apperr.Invalid(apperr.ErrDestinationIncomplete, "delivery site %q is not an active site of the client", d.DeliverySiteID)
	}
	return nil
}

