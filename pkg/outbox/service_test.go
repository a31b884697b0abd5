package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	"github.com/angelmondragon/shopcore-backend/pkg/enums"
)

func TestEmitWritesEnvelopeInsideTransaction(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	svc := NewService(NewRepository(db), nil)
	orderID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data:          map[string]string{"order_id": orderID.String()},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventOrderPaid, rows[0].EventType)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, currentVersion, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.JSONEq(t, `{"order_id":"`+orderID.String()+`"}`, string(envelope.Data))
}

func TestEmitRollsBackWithCaller(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	svc := NewService(NewRepository(db), nil)

	_ = db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Data:          struct{}{},
		}))
		return errors.New("abort")
	})

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmitRejectsMissingTxAndUnknownType(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	svc := NewService(NewRepository(db), nil)

	require.Error(t, svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventOrderPaid}))
	require.Error(t, svc.Emit(context.Background(), db, DomainEvent{EventType: "nope"}))
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Emit(context.Background(), db, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Data:          struct{}{},
		}))
	}

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 2)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.NoError(t, repo.MarkPublishedTx(db, rows[0].ID))
	require.NoError(t, repo.MarkFailedTx(db, rows[1].ID, errors.New("broker down")))
	require.NoError(t, repo.MarkTerminalTx(db, rows[2].ID, errors.New("bad payload"), 2))

	pending, err := repo.FetchUnpublishedForPublish(db, 10, 2)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, rows[1].ID, pending[0].ID)
	assert.Equal(t, 1, pending[0].AttemptCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "broker down", *pending[0].LastError)
}

func TestDeletePublishedBeforeKeepsPendingRows(t *testing.T) {
	t.Parallel()
	db := dbtest.Open(t)
	repo := NewRepository(db)

	old := time.Now().Add(-48 * time.Hour).UTC()
	recent := time.Now().UTC()
	rows := []models.OutboxEvent{
		{EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), PublishedAt: &old},
		{EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), PublishedAt: &recent},
		{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)},
	}
	require.NoError(t, db.Create(&rows).Error)

	deleted, err := repo.DeletePublishedBefore(context.Background(), nil, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}
