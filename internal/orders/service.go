package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/internal/inventory"
	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	"github.com/angelmondragon/shopcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
	"github.com/angelmondragon/shopcore-backend/pkg/logger"
	"github.com/angelmondragon/shopcore-backend/pkg/outbox"
	"github.com/angelmondragon/shopcore-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/shopcore-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type refundRecorder interface {
	IncRefund()
}

// Service exposes order reads plus the state transitions that happen after checkout.
type Service interface {
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	Refund(ctx context.Context, actor outbox.ActorRef, orderID uuid.UUID) (*OrderDTO, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	AdvanceStatus(ctx context.Context, actor outbox.ActorRef, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error)
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	Repo      Repository
	Inventory inventory.Ledger
	Outbox    outboxEmitter
	Tx        txRunner
	Metrics   refundRecorder
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	inventory inventory.Ledger
	outbox    outboxEmitter
	tx        txRunner
	metrics   refundRecorder
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.Inventory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory ledger required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox emitter required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{
		repo:      params.Repo,
		inventory: params.Inventory,
		outbox:    params.Outbox,
		tx:        params.Tx,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	return s.list(ctx, listOrdersParams{UserID: &userID, Limit: params.Size()}, params.Cursor)
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.NewReason(pkgerrors.CodeValidation, pkgerrors.ReasonInvalidOrderStatus, "unknown order status filter")
	}
	return s.list(ctx, listOrdersParams{Status: filters.Status, Limit: params.Size()}, params.Cursor)
}

func (s *service) list(ctx context.Context, params listOrdersParams, rawCursor string) (*OrderList, error) {
	cursor, err := pagination.Decode(rawCursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").WithReason(pkgerrors.ReasonInvalidCursor)
	}
	params.Cursor = cursor

	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	list := &OrderList{Orders: make([]OrderDTO, 0, len(rows))}
	for _, row := range rows {
		list.Orders = append(list.Orders, ToDTO(row))
	}
	if next != nil {
		list.NextCursor = next.Encode()
	}
	return list, nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindForUser(ctx, userID, orderID)
	if err != nil {
		return nil, mapOrderLookupErr(err)
	}
	dto := ToDTO(*order)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapOrderLookupErr(err)
	}
	dto := ToDTO(*order)
	return &dto, nil
}

// Refund returns every item of a paid, shipped or delivered order to stock and
// cancels it. It is the exact inverse of the checkout inventory step.
func (s *service) Refund(ctx context.Context, actor outbox.ActorRef, orderID uuid.UUID) (*OrderDTO, error) {
	var from enums.OrderStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			return mapOrderLookupErr(err)
		}
		if !order.Status.IsRefundable() {
			return invalidStatus(order.Status, "order cannot be refunded in its current status")
		}
		from = order.Status
		return s.restock(ctx, tx, order, enums.RefundableOrderStatuses(), enums.EventOrderRefunded, &actor)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncRefund()
	}
	logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, orderID.String()), map[string]any{
		"from_status": from,
		"actor_id":    actor.UserID.String(),
	})
	s.logg.Info(logCtx, "order refunded")
	return s.Get(ctx, orderID)
}

// Cancel lets the owner abandon an order that has not been paid yet.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUser(ctx, userID, orderID)
		if err != nil {
			return mapOrderLookupErr(err)
		}
		if order.Status != enums.OrderStatusPending {
			return invalidStatus(order.Status, "only pending orders can be cancelled")
		}
		actor := &outbox.ActorRef{UserID: userID, Role: string(enums.RoleCustomer)}
		if err := s.restock(ctx, tx, order, []enums.OrderStatus{enums.OrderStatusPending}, enums.EventOrderCancelled, actor); err != nil {
			return err
		}
		if _, err := repo.TransitionPayment(ctx, order.ID, enums.PaymentStatusPending, enums.PaymentStatusFailed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fail payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "order cancelled by customer")
	return s.GetForUser(ctx, userID, orderID)
}

// restock moves the order to cancelled, guarded on its status still being one
// of from, and returns each item's quantity to inventory.
func (s *service) restock(ctx context.Context, tx *gorm.DB, order *models.Order, from []enums.OrderStatus, event enums.OutboxEventType, actor *outbox.ActorRef) error {
	moved, err := s.repo.WithTx(tx).TransitionStatus(ctx, order.ID, from, enums.OrderStatusCancelled)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !moved {
		return invalidStatus(order.Status, "order status changed concurrently")
	}

	ledger := s.inventory.WithTx(tx)
	items := make([]payloads.OrderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		if err := ledger.Increment(ctx, item.VariantID, item.Quantity); err != nil {
			return err
		}
		items = append(items, payloads.OrderItemPayload{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     event,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: payloads.OrderRestockedEvent{
			OrderID:    order.ID,
			FromStatus: order.Status,
			Items:      items,
		},
	})
}

// AdvanceStatus moves a fulfilled order one step along paid -> shipped -> delivered.
func (s *service) AdvanceStatus(ctx context.Context, actor outbox.ActorRef, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return mapOrderLookupErr(err)
		}
		allowed, ok := order.Status.Next()
		if !ok || allowed != next {
			return invalidStatus(order.Status, "order cannot move to "+string(next)).
				WithDetails(map[string]any{"status": order.Status, "requested": next})
		}
		moved, err := repo.TransitionStatus(ctx, order.ID, []enums.OrderStatus{order.Status}, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !moved {
			return invalidStatus(order.Status, "order status changed concurrently")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &actor,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    order.ID,
				FromStatus: order.Status,
				ToStatus:   next,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(s.logg.WithOrderID(ctx, orderID.String()), "status", next), "order status advanced")
	return s.Get(ctx, orderID)
}

func mapOrderLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NewReason(pkgerrors.CodeNotFound, pkgerrors.ReasonOrderNotFound, "order not found")
	}
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func invalidStatus(status enums.OrderStatus, message string) *pkgerrors.Error {
	return pkgerrors.NewReason(pkgerrors.CodeStateConflict, pkgerrors.ReasonInvalidOrderStatus, message).
		WithDetails(map[string]any{"status": status})
}
