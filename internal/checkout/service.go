package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/internal/cart"
	"github.com/angelmondragon/shopcore-backend/internal/coupons"
	"github.com/angelmondragon/shopcore-backend/internal/inventory"
	"github.com/angelmondragon/shopcore-backend/internal/orders"
	"github.com/angelmondragon/shopcore-backend/internal/payments"
	"github.com/angelmondragon/shopcore-backend/pkg/config"
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

type checkoutRecorder interface {
	ObserveCheckout(outcome string, duration time.Duration)
}

// Input is the buyer's checkout request.
type Input struct {
	ShippingAddressID uuid.UUID
}

// Result is a committed order and where to send the buyer to pay for it.
type Result struct {
	Order      orders.OrderDTO `json:"order"`
	PaymentURL string          `json:"payment_url"`
}

// Service converts a cart into an order.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input Input) (*Result, error)
}

// ServiceParams bundles the dependencies required to build a checkout service.
type ServiceParams struct {
	Carts     cart.Repository
	Engine    *cart.Engine
	Orders    orders.Repository
	Addresses AddressRepository
	Inventory inventory.Ledger
	Coupons   coupons.Repository
	Outbox    outboxEmitter
	Gateway   payments.Gateway
	Tx        txRunner
	Config    config.CheckoutConfig
	Metrics   checkoutRecorder
	Logger    *logger.Logger
}

type service struct {
	carts     cart.Repository
	engine    *cart.Engine
	orders    orders.Repository
	addresses AddressRepository
	inventory inventory.Ledger
	coupons   coupons.Repository
	outbox    outboxEmitter
	gateway   payments.Gateway
	tx        txRunner
	cfg       config.CheckoutConfig
	method    enums.PaymentMethod
	metrics   checkoutRecorder
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repository required")
	}
	if params.Engine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pricing engine required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.Addresses == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "address repository required")
	}
	if params.Inventory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory ledger required")
	}
	if params.Coupons == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "coupon repository required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox emitter required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	method := enums.PaymentMethodOnlineGateway
	if params.Config.PaymentMethod != "" {
		parsed, err := enums.ParsePaymentMethod(params.Config.PaymentMethod)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "invalid checkout payment method")
		}
		if !parsed.UsesGateway() {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout only settles through the online gateway")
		}
		method = parsed
	}
	return &service{
		carts:     params.Carts,
		engine:    params.Engine,
		orders:    params.Orders,
		addresses: params.Addresses,
		inventory: params.Inventory,
		coupons:   params.Coupons,
		outbox:    params.Outbox,
		gateway:   params.Gateway,
		tx:        params.Tx,
		cfg:       params.Config,
		method:    method,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

// Checkout commits the order, its items, the stock decrement, the coupon usage
// and the pending payment in one transaction, then asks the gateway for a
// payment session. A gateway rejection leaves the order committed as failed
// with its stock still taken.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input Input) (*Result, error) {
	started := time.Now()
	ctx = s.logg.WithUserID(ctx, userID.String())

	result, err := s.checkout(ctx, userID, input)
	s.observe(started, err)
	return result, err
}

func (s *service) checkout(ctx context.Context, userID uuid.UUID, input Input) (*Result, error) {
	if input.ShippingAddressID == uuid.Nil {
		return nil, pkgerrors.NewReason(pkgerrors.CodeValidation, pkgerrors.ReasonInvalidAddress, "shipping address is required")
	}

	userCart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.placeOrder(ctx, tx, userID, userCart.ID, input.ShippingAddressID)
		order = created
		return err
	})
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, "order created")

	initiated, gwErr := s.gateway.Initiate(ctx, payments.InitiateRequest{
		OrderID:     order.ID,
		Amount:      order.TotalAmount,
		CallbackURL: s.cfg.CallbackURL,
	})
	if gwErr != nil || !initiated.Accepted {
		return nil, s.failInitiation(ctx, order, initiated, gwErr)
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.orders.WithTx(tx).SetTransactionID(ctx, order.ID, initiated.Authority)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment authority")
	}

	stored, err := s.orders.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return &Result{Order: orders.ToDTO(*stored), PaymentURL: initiated.RedirectURL}, nil
}

func (s *service) placeOrder(ctx context.Context, tx *gorm.DB, userID, cartID, addressID uuid.UUID) (*models.Order, error) {
	if _, err := s.addresses.WithTx(tx).FindOwned(ctx, userID, addressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NewReason(pkgerrors.CodeValidation, pkgerrors.ReasonInvalidAddress, "shipping address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping address")
	}

	carts := s.carts.WithTx(tx)
	locked, err := carts.LockForCheckout(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart")
	}
	if locked.Status != enums.CartStatusActive {
		return nil, pkgerrors.NewReason(pkgerrors.CodeStateConflict, pkgerrors.ReasonCartNotActive, "cart was already checked out")
	}
	loaded, err := carts.LoadForPricing(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(loaded.Items) == 0 {
		return nil, pkgerrors.NewReason(pkgerrors.CodeValidation, pkgerrors.ReasonEmptyCart, "cart is empty")
	}

	quote, err := s.engine.WithTx(tx).Quote(ctx, loaded)
	if err != nil {
		return nil, err
	}
	if line, ok := unavailableLine(quote); ok {
		return nil, pkgerrors.NewReason(pkgerrors.CodeConflict, pkgerrors.ReasonProductUnavailable, "product is not available").
			WithDetails(map[string]any{"variant_id": line.Item.VariantID.String()})
	}

	order := &models.Order{
		UserID:            userID,
		Status:            enums.OrderStatusPending,
		ShippingAddressID: &addressID,
		SubtotalAmount:    quote.TotalDiscountedPrice,
		CouponDiscount:    quote.CouponDiscount(),
		TotalAmount:       quote.FinalPrice,
	}
	if quote.Coupon != nil {
		code := quote.Coupon.Code
		order.CouponID = &quote.Coupon.ID
		order.CouponCode = &code
	}

	ordersRepo := s.orders.WithTx(tx)
	if err := ordersRepo.CreateOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	items := orderItemsFromQuote(order.ID, quote)
	if err := ordersRepo.CreateItems(ctx, items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
	}

	ledger := s.inventory.WithTx(tx)
	for _, item := range items {
		if err := ledger.Decrement(ctx, item.VariantID, item.Quantity); err != nil {
			return nil, err
		}
	}

	if quote.Coupon != nil {
		used, err := s.coupons.WithTx(tx).IncrementUsage(ctx, quote.Coupon.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record coupon usage")
		}
		if !used {
			return nil, pkgerrors.NewReason(pkgerrors.CodeConflict, pkgerrors.ReasonCouponExpiredOrInactive, "coupon usage limit reached")
		}
	}

	cleared, err := carts.ClearItems(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	// fewer rows than were priced means another checkout took this cart
	if cleared < int64(len(loaded.Items)) {
		return nil, pkgerrors.NewReason(pkgerrors.CodeStateConflict, pkgerrors.ReasonConcurrentUpdate, "cart changed during checkout")
	}
	if err := carts.DetachCoupon(ctx, cartID, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach coupon")
	}
	if s.cfg.MarkCartConverted {
		if err := carts.SetStatus(ctx, cartID, enums.CartStatusConverted); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark cart converted")
		}
	}

	payment := &models.Payment{
		OrderID: order.ID,
		Amount:  order.TotalAmount,
		Method:  s.method,
		Status:  enums.PaymentStatusPending,
	}
	if err := ordersRepo.CreatePayment(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
	}
	order.Payment = payment

	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.RoleCustomer)},
		Data: payloads.OrderCreatedEvent{
			OrderID:        order.ID,
			UserID:         userID,
			TotalAmount:    order.TotalAmount,
			CouponCode:     order.CouponCode,
			CouponDiscount: order.CouponDiscount,
			Items:          itemPayloads(items),
		},
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// failInitiation records the rejected session on the order and payment. Stock
// stays decremented until the order is refunded.
func (s *service) failInitiation(ctx context.Context, order *models.Order, res payments.InitiateResult, gwErr error) error {
	reason := res.Message
	if gwErr != nil {
		reason = gwErr.Error()
		s.logg.Error(ctx, "payment initiation failed", gwErr)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		if _, err := repo.TransitionStatus(ctx, order.ID, []enums.OrderStatus{enums.OrderStatusPending}, enums.OrderStatusFailed); err != nil {
			return err
		}
		if _, err := repo.TransitionPayment(ctx, order.ID, enums.PaymentStatusPending, enums.PaymentStatusFailed); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.PaymentFailedEvent{
				OrderID: order.ID,
				Stage:   "initiate",
				Reason:  reason,
			},
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order failed")
	}

	s.logg.Warn(ctx, "payment initiation rejected; order failed")
	out := pkgerrors.NewReason(pkgerrors.CodeDependency, pkgerrors.ReasonPaymentInitFailed, "payment gateway rejected the payment")
	if gwErr != nil {
		out = pkgerrors.Wrap(pkgerrors.CodeDependency, gwErr, "payment gateway unavailable").
			WithReason(pkgerrors.ReasonGatewayUnavailable)
	}
	return out.WithDetails(map[string]any{"order_id": order.ID.String()})
}

func (s *service) observe(started time.Time, err error) {
	if s.metrics == nil {
		return
	}
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case pkgerrors.CodeOf(err) == pkgerrors.CodeDependency || pkgerrors.CodeOf(err) == pkgerrors.CodeInternal:
		outcome = metrics.OutcomeFailed
	default:
		outcome = metrics.OutcomeRejected
	}
	s.metrics.ObserveCheckout(outcome, time.Since(started))
}
