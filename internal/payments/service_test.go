package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/internal/orders"
	"github.com/angelmondragon/shopcore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	"github.com/angelmondragon/shopcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopcore-backend/pkg/errors"
	"github.com/angelmondragon/shopcore-backend/pkg/metrics"
	"github.com/angelmondragon/shopcore-backend/pkg/outbox"
)

type fixture struct {
	svc     Service
	db      *gorm.DB
	gateway *stubGateway
	counter *verificationCounter
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t)
	gw := &stubGateway{verify: VerifyResult{Accepted: true, ReferenceID: "REF-1"}}
	counter := &verificationCounter{}
	svc, err := NewService(ServiceParams{
		Orders:  orders.NewRepository(db),
		Gateway: gw,
		Outbox:  outbox.NewService(outbox.NewRepository(db), nil),
		Tx:      dbtest.TxRunner{DB: db},
		Metrics: counter,
	})
	require.NoError(t, err)
	return fixture{svc: svc, db: db, gateway: gw, counter: counter}
}

func seedPendingOrder(t *testing.T, db *gorm.DB, authority string, status enums.OrderStatus) models.Order {
	t.Helper()
	order := models.Order{
		UserID:         uuid.New(),
		Status:         status,
		TransactionID:  &authority,
		SubtotalAmount: 2000,
		TotalAmount:    2000,
	}
	require.NoError(t, db.Omit("Items", "Payment").Create(&order).Error)
	paymentStatus := enums.PaymentStatusPending
	if status == enums.OrderStatusPaid {
		paymentStatus = enums.PaymentStatusSuccessful
	}
	payment := models.Payment{
		OrderID:       order.ID,
		Amount:        order.TotalAmount,
		Method:        enums.PaymentMethodOnlineGateway,
		Status:        paymentStatus,
		TransactionID: &authority,
	}
	require.NoError(t, db.Create(&payment).Error)
	order.Payment = &payment
	return order
}

func loadOrder(t *testing.T, db *gorm.DB, id uuid.UUID) models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, db.Preload("Payment").First(&order, "id = ?", id).Error)
	return order
}

func countEvents(t *testing.T, db *gorm.DB, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func TestVerifyMarksOrderPaid(t *testing.T) {
	f := newFixture(t)
	order := seedPendingOrder(t, f.db, "AUTH-1", enums.OrderStatusPending)

	out, err := f.svc.Verify(context.Background(), "AUTH-1", StatusOK)
	require.NoError(t, err)
	assert.Equal(t, order.ID, out.OrderID)
	assert.Equal(t, order.Payment.ID, out.PaymentID)
	assert.Equal(t, enums.PaymentStatusSuccessful, out.Status)

	stored := loadOrder(t, f.db, order.ID)
	assert.Equal(t, enums.OrderStatusPaid, stored.Status)
	assert.Equal(t, enums.PaymentStatusSuccessful, stored.Payment.Status)
	assert.Equal(t, int64(1), countEvents(t, f.db, enums.EventOrderPaid))
	assert.Equal(t, []string{metrics.OutcomeSuccess}, f.counter.outcomes)
}

func TestVerifyIsIdempotentForPaidOrders(t *testing.T) {
	f := newFixture(t)
	order := seedPendingOrder(t, f.db, "AUTH-2", enums.OrderStatusPending)
	ctx := context.Background()

	_, err := f.svc.Verify(ctx, "AUTH-2", StatusOK)
	require.NoError(t, err)
	again, err := f.svc.Verify(ctx, "AUTH-2", StatusOK)
	require.NoError(t, err)

	assert.Equal(t, order.ID, again.OrderID)
	assert.Equal(t, 1, f.gateway.calls)
	assert.Equal(t, int64(1), countEvents(t, f.db, enums.EventOrderPaid))
}

func TestVerifyNonOKStatusFailsOrder(t *testing.T) {
	f := newFixture(t)
	order := seedPendingOrder(t, f.db, "AUTH-3", enums.OrderStatusPending)

	_, err := f.svc.Verify(context.Background(), "AUTH-3", "NOK")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, pkgerrors.ReasonPaymentFailed, pkgerrors.ReasonOf(err))
	assert.Zero(t, f.gateway.calls)

	stored := loadOrder(t, f.db, order.ID)
	assert.Equal(t, enums.OrderStatusFailed, stored.Status)
	assert.Equal(t, enums.PaymentStatusFailed, stored.Payment.Status)
	assert.Equal(t, int64(1), countEvents(t, f.db, enums.EventOrderPaymentFailed))
}

func TestVerifyGatewayRejection(t *testing.T) {
	f := newFixture(t)
	f.gateway.verify = VerifyResult{}
	order := seedPendingOrder(t, f.db, "AUTH-4", enums.OrderStatusPending)

	_, err := f.svc.Verify(context.Background(), "AUTH-4", StatusOK)
	assert.Equal(t, pkgerrors.ReasonPaymentFailed, pkgerrors.ReasonOf(err))
	assert.Equal(t, enums.OrderStatusFailed, loadOrder(t, f.db, order.ID).Status)
	assert.Equal(t, []string{metrics.OutcomeFailed}, f.counter.outcomes)
}

func TestVerifyGatewayOutageLeavesOrderPending(t *testing.T) {
	f := newFixture(t)
	f.gateway.verifyErr = errors.New("connection reset")
	order := seedPendingOrder(t, f.db, "AUTH-5", enums.OrderStatusPending)

	_, err := f.svc.Verify(context.Background(), "AUTH-5", StatusOK)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
	assert.Equal(t, pkgerrors.ReasonGatewayUnavailable, pkgerrors.ReasonOf(err))
	assert.Equal(t, enums.OrderStatusPending, loadOrder(t, f.db, order.ID).Status)
}

func TestVerifyRejectsFailedOrders(t *testing.T) {
	f := newFixture(t)
	seedPendingOrder(t, f.db, "AUTH-6", enums.OrderStatusFailed)

	_, err := f.svc.Verify(context.Background(), "AUTH-6", StatusOK)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, pkgerrors.ReasonInvalidOrderStatus, pkgerrors.ReasonOf(err))
	assert.Zero(t, f.gateway.calls)
}

func TestVerifyLookupErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Verify(ctx, "  ", StatusOK)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.Verify(ctx, "AUTH-unknown", StatusOK)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	assert.Equal(t, pkgerrors.ReasonOrderNotFound, pkgerrors.ReasonOf(err))
}
