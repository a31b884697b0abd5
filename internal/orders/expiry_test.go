package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shopcore-backend/internal/inventory"
	"github.com/angelmondragon/shopcore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	"github.com/angelmondragon/shopcore-backend/pkg/enums"
	"github.com/angelmondragon/shopcore-backend/pkg/outbox"
)

func TestExpirePendingRestocksStaleOrders(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	expirer, err := NewExpirer(ServiceParams{
		Repo:      NewRepository(db),
		Inventory: inventory.NewLedger(db),
		Outbox:    outbox.NewService(outbox.NewRepository(db), nil),
		Tx:        dbtest.TxRunner{DB: db},
	})
	require.NoError(t, err)

	variant := dbtest.SeedVariant(t, db, dbtest.VariantSpec{Price: 500, Stock: 10})
	stale := seedOrder(t, db, uuid.New(), enums.OrderStatusPending, line{variant, 3})
	fresh := seedOrder(t, db, uuid.New(), enums.OrderStatusPending, line{variant, 1})
	paid := seedOrder(t, db, uuid.New(), enums.OrderStatusPaid, line{variant, 2})

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, db.Model(&models.Order{}).Where("id IN ?", []uuid.UUID{stale.ID, paid.ID}).Update("created_at", old).Error)
	require.Equal(t, 4, dbtest.Stock(t, db, variant.ID))

	expired, err := expirer.ExpirePending(context.Background(), time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 7, dbtest.Stock(t, db, variant.ID))

	var reloaded models.Order
	require.NoError(t, db.Preload("Payment").First(&reloaded, "id = ?", stale.ID).Error)
	assert.Equal(t, enums.OrderStatusCancelled, reloaded.Status)
	require.NotNil(t, reloaded.Payment)
	assert.Equal(t, enums.PaymentStatusFailed, reloaded.Payment.Status)

	var untouched models.Order
	require.NoError(t, db.First(&untouched, "id = ?", fresh.ID).Error)
	assert.Equal(t, enums.OrderStatusPending, untouched.Status)
	assert.Equal(t, int64(1), countEvents(t, db, enums.EventOrderCancelled))

	again, err := expirer.ExpirePending(context.Background(), time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Zero(t, again)
	assert.Equal(t, 7, dbtest.Stock(t, db, variant.ID))
}
