package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/internal/cart"
	"github.com/angelmondragon/shopcore-backend/internal/coupons"
	"github.com/angelmondragon/shopcore-backend/internal/discounts"
	"github.com/angelmondragon/shopcore-backend/internal/inventory"
	"github.com/angelmondragon/shopcore-backend/internal/orders"
	"github.com/angelmondragon/shopcore-backend/internal/payments"
	"github.com/angelmondragon/shopcore-backend/pkg/config"
	"github.com/angelmondragon/shopcore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	"github.com/angelmondragon/shopcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
	"github.com/angelmondragon/shopcore-backend/pkg/metrics"
	"github.com/angelmondragon/shopcore-backend/pkg/outbox"
)

type stubGateway struct {
	reject bool
	err    error
	last   payments.InitiateRequest
}

func (g *stubGateway) Initiate(_ context.Context, req payments.InitiateRequest) (payments.InitiateResult, error) {
	g.last = req
	if g.err != nil {
		return payments.InitiateResult{}, g.err
	}
	if g.reject {
		return payments.InitiateResult{Message: "declined"}, nil
	}
	return payments.InitiateResult{
		Accepted:    true,
		Authority:   "AUTH-" + req.OrderID.String(),
		RedirectURL: "https://pay.local/" + req.OrderID.String(),
	}, nil
}

func (g *stubGateway) Verify(context.Context, string, int64) (payments.VerifyResult, error) {
	return payments.VerifyResult{}, nil
}

type checkoutCounter struct {
	outcomes []string
}

func (c *checkoutCounter) ObserveCheckout(outcome string, _ time.Duration) {
	c.outcomes = append(c.outcomes, outcome)
}

type fixture struct {
	svc     Service
	params  ServiceParams
	carts   cart.Service
	db      *gorm.DB
	gateway *stubGateway
	counter *checkoutCounter
	userID  uuid.UUID
	address models.Address
}

func newFixture(t *testing.T, cfg config.CheckoutConfig) fixture {
	t.Helper()
	db := dbtest.Open(t)
	resolver, err := discounts.NewResolver(discounts.NewRepository(db), nil)
	require.NoError(t, err)
	engine, err := cart.NewEngine(resolver, coupons.NewValidator(nil))
	require.NoError(t, err)

	tx := dbtest.TxRunner{DB: db}
	cartSvc, err := cart.NewService(cart.ServiceParams{
		Repo:      cart.NewRepository(db),
		Inventory: inventory.NewLedger(db),
		Coupons:   coupons.NewRepository(db),
		Engine:    engine,
		Tx:        tx,
	})
	require.NoError(t, err)

	gw := &stubGateway{}
	counter := &checkoutCounter{}
	params := ServiceParams{
		Carts:     cart.NewRepository(db),
		Engine:    engine,
		Orders:    orders.NewRepository(db),
		Addresses: NewAddressRepository(db),
		Inventory: inventory.NewLedger(db),
		Coupons:   coupons.NewRepository(db),
		Outbox:    outbox.NewService(outbox.NewRepository(db), nil),
		Gateway:   gw,
		Tx:        tx,
		Config:    cfg,
		Metrics:   counter,
	}
	svc, err := NewService(params)
	require.NoError(t, err)

	userID := uuid.New()
	return fixture{
		svc:     svc,
		params:  params,
		carts:   cartSvc,
		db:      db,
		gateway: gw,
		counter: counter,
		userID:  userID,
		address: dbtest.SeedAddress(t, db, userID),
	}
}

func (f fixture) add(t *testing.T, variantID uuid.UUID, qty int) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), f.userID, cart.AddItemInput{VariantID: variantID, Quantity: qty})
	require.NoError(t, err)
}

// staleCarts replays a cart as it was read before another checkout committed.
type staleCarts struct {
	cart.Repository
	base     *models.Cart
	snapshot *models.Cart
}

func (r staleCarts) WithTx(tx *gorm.DB) cart.Repository {
	return staleCarts{Repository: r.Repository.WithTx(tx), base: r.base, snapshot: r.snapshot}
}

func (r staleCarts) GetOrCreate(context.Context, uuid.UUID) (*models.Cart, error) {
	return r.base, nil
}

func (r staleCarts) LoadForPricing(context.Context, uuid.UUID) (*models.Cart, error) {
	return r.snapshot, nil
}

// racingCheckout captures the cart, checks it out once, and returns a service
// that still sees the captured cart.
func (f fixture) racingCheckout(t *testing.T) Service {
	t.Helper()
	ctx := context.Background()
	repo := cart.NewRepository(f.db)
	base, err := repo.GetOrCreate(ctx, f.userID)
	require.NoError(t, err)
	snapshot, err := repo.LoadForPricing(ctx, base.ID)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, f.userID, Input{ShippingAddressID: f.address.ID})
	require.NoError(t, err)

	params := f.params
	params.Carts = staleCarts{Repository: repo, base: base, snapshot: snapshot}
	svc, err := NewService(params)
	require.NoError(t, err)
	return svc
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestCheckoutCreatesPendingOrder(t *testing.T) {
	f := newFixture(t, config.CheckoutConfig{CallbackURL: "https://shop.local/verify"})
	ctx := context.Background()
	a := dbtest.SeedVariant(t, f.db, dbtest.VariantSpec{Price: 1000, Stock: 5})
	b := dbtest.SeedVariant(t, f.db, dbtest.VariantSpec{Price: 500, Stock: 3})
	f.add(t, a.ID, 2)
	f.add(t, b.ID, 1)

	res, err := f.svc.Checkout(ctx, f.userID, Input{ShippingAddressID: f.address.ID})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPending, res.Order.Status)
	assert.Equal(t, int64(2500), res.Order.TotalAmount)
	assert.Len(t, res.Order.Items, 2)
	assert.Equal(t, "https://pay.local/"+res.Order.ID.String(), res.PaymentURL)
	require.NotNil(t, res.Order.Payment)
	assert.Equal(t, enums.PaymentStatusPending, res.Order.Payment.Status)
	assert.Equal(t, int64(2500), res.Order.Payment.Amount)
	assert.Equal(t, "https://shop.local/verify", f.gateway.last.CallbackURL)

	var stored models.Order
	require.NoError(t, f.db.First(&stored, "id = ?", res.Order.ID).Error)
	require.NotNil(t, stored.TransactionID)
	assert.Equal(t, "AUTH-"+res.Order.ID.String(), *stored.TransactionID)

	assert.Equal(t, 3, dbtest.Stock(t, f.db, a.ID))
	assert.Equal(t, 2, dbtest.Stock(t, f.db, b.ID))
	assert.Zero(t, countRows(t, f.db, &models.CartItem{}))
	assert.Equal(t, int64(1), countRows(t, f.db, &models.OutboxEvent{}))
	assert.Equal(t, []string{metrics.OutcomeSuccess}, f.counter.outcomes)

	view, err := f.carts.View(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, enums.CartStatusActive, view.Status)
}

func TestCheckoutChargesLiveDiscountedPrice(t *testing.T) {
	f := newFixture(t, config.CheckoutConfig{})
	ctx := context.Background()
	variant := dbtest.SeedVariant(t, f.db, dbtest.VariantSpec{Price: 1000, Stock: 5})
	f.add(t, variant.ID, 2)

	// price and discount change after the item was added
	require.NoError(t, f.db.Model(&models.ProductVariant{}).Where("id = ?", variant.ID).Update("price", 1200).Error)
	dbtest.SeedDiscount(t, f.db, 25, []uuid.UUID{variant.ID}, nil)

	res, err := f.svc.Checkout(ctx, f.userID, Input{ShippingAddressID: f.address.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1800), res.Order.TotalAmount)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, int64(900), res.Order.Items[0].Price)
}

func TestCheckoutAppliesCouponAndCountsUsage(t *testing.T) {
	f := newFixture(t, config.CheckoutConfig{})
	ctx := context.Background()
	variant := dbtest.SeedVariant(t, f.db, dbtest.VariantSpec{Price: 1000, Stock: 5})
	coupon := dbtest.SeedCoupon(t, f.db, dbtest.CouponSpec{Percentage: 10, VariantIDs: []uuid.UUID{variant.ID}})
	f.add(t, variant.ID, 2)
	_, err := f.carts.ApplyCoupon(ctx, f.userID, coupon.Code)
	require.NoError(t, err)

	res, err := f.svc.Checkout(ctx, f.userID, Input{ShippingAddressID: f.address.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), res.Order.SubtotalAmount)
	assert.Equal(t, int64(200), res.Order.CouponDiscount)
	assert.Equal(t, int64(1800), res.Order.TotalAmount)

	var stored models.Coupon
	require.NoError(t, f.db.First(&stored, "id = ?", coupon.ID).Error)
	assert.Equal(t, 1, stored.UsageCount)

	var userCart models.Cart
	require.NoError(t, f.db.First(&userCart, "user_id = ?", f.userID).Error)
	assert.Nil(t, userCart.CouponID)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t, config.CheckoutConfig{})

	_, err := f.svc.Checkout(context.Background(), f.userID, Input{ShippingAddressID: f.address.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Equal(t, pkgerrors.ReasonEmptyCart, pkgerrors.ReasonOf(err))
	assert.Zero(t, countRows(t, f.db, &models.Order{}))
	assert.Equal(t, []string{metrics.OutcomeRejected}, f.counter.outcomes)
}

func TestCheckoutRejectsForeignAddress(t *testing.T) {
	f := newFixture(t, config.CheckoutConfig{})
	variant := dbtest.SeedVariant(t, f.db, dbtest.VariantSpec{Price: 1000, Stock: 5})
	f.add(t, variant.ID, 1)
	other := dbtest.SeedAddress(t, f.db, uuid.New())

	for _, addressID := range []uuid.UUID{uuid.Nil, other.ID} {
		_, err := f.svc.Checkout(context.Background(), f.userID, Input{ShippingAddressID: addressID})
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
		assert.Equal(t, pkgerrors.ReasonInvalidAddress, pkgerrors.ReasonOf(err))
	}
	assert.Zero(t, countRows(t, f.db, &models.Order{}))
	assert.Equal(t, 5, dbtest.Stock(t, f.db, variant.ID))
}

func TestCheckoutRechecksStock(t *testing.T) {
	f := newFixture(t, config.CheckoutConfig{})
	ctx := context.Background()
	plenty := dbtest.SeedVariant(t, f.db, dbtest.VariantSpec{Price: 100, Stock: 10})
	scarce := dbtest.SeedVariant(t, f.db, dbtest.VariantSpec{Price: 100, Stock: 3})
	f.add(t, plenty.ID, 2)
	f.add(t, scarce.ID, 3)

	// another buyer took stock after this cart was filled
	require.NoError(t, inventory.NewLedger(f.db).Decrement(ctx, scarce.ID, 2))

	_, err := f.svc.Checkout(ctx, f.userID, Input{ShippingAddressID: f.address.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, pkgerrors.ReasonInsufficientStock, pkgerrors.ReasonOf(err))

	assert.Zero(t, countRows(t, f.db, &models.Order{}))
	assert.Zero(t, countRows(t, f.db, &models.OutboxEvent{}))
	assert.Equal(t, 10, dbtest.Stock(t, f.db, plenty.ID))
	assert.Equal(t, 1, dbtest.Stock(t, f.db, scarce.ID))
	assert.Equal(t, int64(2), countRows(t, f.db, &models.CartItem{}))
}

func TestCheckoutRejectsWithdrawnProduct(t *testing.T) {
	f := newFixture(t, config.CheckoutConfig{})
	variant := dbtest.SeedVariant(t, f.db, dbtest.VariantSpec{Price: 100, Stock: 10})
	f.add(t, variant.ID, 1)
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", variant.ProductID).Update("available", false).Error)

	_, err := f.svc.Checkout(context.Background(), f.userID, Input{ShippingAddressID: f.address.ID})
	assert.Equal(t, pkgerrors.ReasonProductUnavailable, pkgerrors.ReasonOf(err))
	assert.Zero(t, countRows(t, f.db, &models.Order{}))
}

func TestCheckoutGatewayRejectionFailsOrder(t *testing.T) {
	f := newFixture(t, config.CheckoutConfig{})
	f.gateway.reject = true
	variant := dbtest.SeedVariant(t, f.db, dbtest.VariantSpec{Price: 1000, Stock: 5})
	f.add(t, variant.ID, 2)

	_, err := f.svc.Checkout(context.Background(), f.userID, Input{ShippingAddressID: f.address.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
	assert.Equal(t, pkgerrors.ReasonPaymentInitFailed, pkgerrors.ReasonOf(err))

	var order models.Order
	require.NoError(t, f.db.Preload("Payment").First(&order).Error)
	assert.Equal(t, enums.OrderStatusFailed, order.Status)
	assert.Equal(t, enums.PaymentStatusFailed, order.Payment.Status)
	assert.Nil(t, order.TransactionID)
	assert.Equal(t, 3, dbtest.Stock(t, f.db, variant.ID))
	assert.Equal(t, int64(2), countRows(t, f.db, &models.OutboxEvent{}))
	assert.Equal(t, []string{metrics.OutcomeFailed}, f.counter.outcomes)
}

func TestCheckoutGatewayOutage(t *testing.T) {
	f := newFixture(t, config.CheckoutConfig{})
	f.gateway.err = errors.New("dial tcp: timeout")
	variant := dbtest.SeedVariant(t, f.db, dbtest.VariantSpec{Price: 1000, Stock: 5})
	f.add(t, variant.ID, 1)

	_, err := f.svc.Checkout(context.Background(), f.userID, Input{ShippingAddressID: f.address.ID})
	assert.Equal(t, pkgerrors.ReasonGatewayUnavailable, pkgerrors.ReasonOf(err))

	var order models.Order
	require.NoError(t, f.db.First(&order).Error)
	assert.Equal(t, enums.OrderStatusFailed, order.Status)
}

func TestCheckoutMarksCartConverted(t *testing.T) {
	f := newFixture(t, config.CheckoutConfig{MarkCartConverted: true})
	variant := dbtest.SeedVariant(t, f.db, dbtest.VariantSpec{Price: 1000, Stock: 5})
	f.add(t, variant.ID, 1)

	_, err := f.svc.Checkout(context.Background(), f.userID, Input{ShippingAddressID: f.address.ID})
	require.NoError(t, err)

	var userCart models.Cart
	require.NoError(t, f.db.First(&userCart, "user_id = ?", f.userID).Error)
	assert.Equal(t, enums.CartStatusConverted, userCart.Status)
}

func TestNewServiceRejectsUnknownPaymentMethod(t *testing.T) {
	db := dbtest.Open(t)
	resolver, err := discounts.NewResolver(discounts.NewRepository(db), nil)
	require.NoError(t, err)
	engine, err := cart.NewEngine(resolver, coupons.NewValidator(nil))
	require.NoError(t, err)

	_, err = NewService(ServiceParams{
		Carts:     cart.NewRepository(db),
		Engine:    engine,
		Orders:    orders.NewRepository(db),
		Addresses: NewAddressRepository(db),
		Inventory: inventory.NewLedger(db),
		Coupons:   coupons.NewRepository(db),
		Outbox:    outbox.NewService(outbox.NewRepository(db), nil),
		Gateway:   &stubGateway{},
		Tx:        dbtest.TxRunner{DB: db},
		Config:    config.CheckoutConfig{PaymentMethod: "barter"},
	})
	assert.Equal(t, pkgerrors.CodeInternal, pkgerrors.CodeOf(err))
}

func TestCheckoutRejectsAlreadyClearedCart(t *testing.T) {
	f := newFixture(t, config.CheckoutConfig{})
	variant := dbtest.SeedVariant(t, f.db, dbtest.VariantSpec{Price: 1000, Stock: 5})
	f.add(t, variant.ID, 2)

	second := f.racingCheckout(t)
	_, err := second.Checkout(context.Background(), f.userID, Input{ShippingAddressID: f.address.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, pkgerrors.ReasonConcurrentUpdate, pkgerrors.ReasonOf(err))

	assert.Equal(t, int64(1), countRows(t, f.db, &models.Order{}))
	assert.Equal(t, int64(1), countRows(t, f.db, &models.Payment{}))
	assert.Equal(t, 3, dbtest.Stock(t, f.db, variant.ID))
	assert.Equal(t, int64(1), countRows(t, f.db, &models.OutboxEvent{}))
}

func TestCheckoutRejectsConvertedCart(t *testing.T) {
	f := newFixture(t, config.CheckoutConfig{MarkCartConverted: true})
	variant := dbtest.SeedVariant(t, f.db, dbtest.VariantSpec{Price: 1000, Stock: 5})
	f.add(t, variant.ID, 2)

	second := f.racingCheckout(t)
	_, err := second.Checkout(context.Background(), f.userID, Input{ShippingAddressID: f.address.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, pkgerrors.ReasonCartNotActive, pkgerrors.ReasonOf(err))

	assert.Equal(t, int64(1), countRows(t, f.db, &models.Order{}))
	assert.Equal(t, 3, dbtest.Stock(t, f.db, variant.ID))
}
