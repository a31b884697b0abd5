package payments

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/internal/orders"
	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	"github.com/angelmondragon/shopcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
	"github.com/angelmondragon/shopcore-backend/pkg/logger"
	"github.com/angelmondragon/shopcore-backend/pkg/metrics"
	"github.com/angelmondragon/shopcore-backend/pkg/outbox"
	"github.com/angelmondragon/shopcore-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type verificationRecorder interface {
	IncVerification(outcome string)
}

// VerifyOutcome identifies the order and payment a callback settled.
type VerifyOutcome struct {
	OrderID   uuid.UUID           `json:"order_id"`
	PaymentID uuid.UUID           `json:"payment_id"`
	Status    enums.PaymentStatus `json:"status"`
}

// Service handles the gateway's payment callback.
type Service interface {
	Verify(ctx context.Context, authority, status string) (*VerifyOutcome, error)
}

// ServiceParams bundles the dependencies required to build a payments service.
type ServiceParams struct {
	Orders  orders.Repository
	Gateway Gateway
	Outbox  outboxEmitter
	Tx      txRunner
	Metrics verificationRecorder
	Logger  *logger.Logger
}

type service struct {
	orders  orders.Repository
	gateway Gateway
	outbox  outboxEmitter
	tx      txRunner
	metrics verificationRecorder
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox emitter required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{
		orders:  params.Orders,
		gateway: params.Gateway,
		outbox:  params.Outbox,
		tx:      params.Tx,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// Verify settles a pending order from the gateway callback. Only pending
// orders transition; a repeated callback for an order that is already paid
// returns the same outcome without side effects.
func (s *service) Verify(ctx context.Context, authority, status string) (*VerifyOutcome, error) {
	authority = strings.TrimSpace(authority)
	if authority == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authority is required")
	}

	order, err := s.orders.FindByTransactionID(ctx, authority)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NewReason(pkgerrors.CodeNotFound, pkgerrors.ReasonOrderNotFound, "no order for this authority")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Payment == nil {
		return nil, pkgerrors.NewReason(pkgerrors.CodeNotFound, pkgerrors.ReasonPaymentNotFound, "no payment for this order")
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	switch order.Status {
	case enums.OrderStatusPending:
	case enums.OrderStatusPaid, enums.OrderStatusShipped, enums.OrderStatusDelivered:
		s.record("duplicate")
		return outcomeOf(order, enums.PaymentStatusSuccessful), nil
	default:
		return nil, pkgerrors.NewReason(pkgerrors.CodeStateConflict, pkgerrors.ReasonInvalidOrderStatus, "order is no longer awaiting payment").
			WithDetails(map[string]any{"status": order.Status})
	}

	if status != StatusOK {
		return nil, s.fail(ctx, order, "callback", "gateway reported status "+status)
	}

	result, err := s.gateway.Verify(ctx, authority, order.Payment.Amount)
	if err != nil {
		s.logg.Error(ctx, "gateway verify failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway verification unavailable").
			WithReason(pkgerrors.ReasonGatewayUnavailable)
	}
	if !result.Accepted {
		return nil, s.fail(ctx, order, "verify", "gateway rejected verification")
	}

	var settled *VerifyOutcome
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		moved, err := repo.TransitionStatus(ctx, order.ID, []enums.OrderStatus{enums.OrderStatusPending}, enums.OrderStatusPaid)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if !moved {
			// lost to a concurrent callback; report whatever it decided
			current, err := repo.FindByID(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
			}
			if current.Status == enums.OrderStatusPaid {
				settled = outcomeOf(current, enums.PaymentStatusSuccessful)
				return nil
			}
			return pkgerrors.NewReason(pkgerrors.CodeStateConflict, pkgerrors.ReasonInvalidOrderStatus, "order is no longer awaiting payment")
		}
		if _, err := repo.TransitionPayment(ctx, order.ID, enums.PaymentStatusPending, enums.PaymentStatusSuccessful); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment successful")
		}
		settled = outcomeOf(order, enums.PaymentStatusSuccessful)
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPaidEvent{
				OrderID:       order.ID,
				PaymentID:     order.Payment.ID,
				TransactionID: authority,
				Amount:        order.Payment.Amount,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.record(metrics.OutcomeSuccess)
	s.logg.Info(s.logg.WithField(ctx, "reference_id", result.ReferenceID), "order paid")
	return settled, nil
}

// fail moves a pending order and its payment to failed and returns the error
// the caller should report.
func (s *service) fail(ctx context.Context, order *models.Order, stage, reason string) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		moved, err := repo.TransitionStatus(ctx, order.ID, []enums.OrderStatus{enums.OrderStatusPending}, enums.OrderStatusFailed)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order failed")
		}
		if !moved {
			return nil
		}
		if _, err := repo.TransitionPayment(ctx, order.ID, enums.PaymentStatusPending, enums.PaymentStatusFailed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment failed")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.PaymentFailedEvent{
				OrderID: order.ID,
				Stage:   stage,
				Reason:  reason,
			},
		})
	})
	if err != nil {
		return err
	}

	s.record(metrics.OutcomeFailed)
	s.logg.Warn(s.logg.WithField(ctx, "stage", stage), "payment verification failed")
	return pkgerrors.NewReason(pkgerrors.CodeConflict, pkgerrors.ReasonPaymentFailed, "payment was not completed").
		WithDetails(map[string]any{
			"order_id":   order.ID.String(),
			"payment_id": order.Payment.ID.String(),
		})
}

func (s *service) record(outcome string) {
	if s.metrics != nil {
		s.metrics.IncVerification(outcome)
	}
}

func outcomeOf(order *models.Order, status enums.PaymentStatus) *VerifyOutcome {
	outcome := &VerifyOutcome{OrderID: order.ID, Status: status}
	if order.Payment != nil {
		outcome.PaymentID = order.Payment.ID
	}
	return outcome
}
