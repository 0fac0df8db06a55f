package engines

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vidiaspot/tradecore/config"
	"github.com/vidiaspot/tradecore/matching"
	"github.com/vidiaspot/tradecore/models"
)

func d(value string) decimal.Decimal {
	v, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}

	return v
}

func setupWorkerDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.Trade{}))

	config.DataBase = db

	return db
}

type brokerEvent struct {
	Kind  string
	ID    string
	Event string
}

func captureEvents(t *testing.T) *[]brokerEvent {
	t.Helper()

	events := &[]brokerEvent{}

	previousEnqueue := enqueue
	previousEnqueueEvent := enqueueEvent
	enqueue = func(id string, payload []byte) error { return nil }
	enqueueEvent = func(kind, id, event string, payload []byte) error {
		*events = append(*events, brokerEvent{Kind: kind, ID: id, Event: event})
		return nil
	}
	t.Cleanup(func() {
		enqueue = previousEnqueue
		enqueueEvent = previousEnqueueEvent
	})

	return events
}

func openOrder(t *testing.T, db *gorm.DB) *models.Order {
	t.Helper()

	order := &models.Order{
		MemberID: 1,
		Symbol:   "btcusd",
		Type:     matching.TypeLimit,
		Side:     matching.SideBuy,
		Price:    decimal.NewNullDecimal(d("100")),
		Quantity: d("2"),
		Status:   matching.StatusOpen,
	}
	require.NoError(t, db.Create(order).Error)

	return order
}

func TestUpdateOrderKeepsConcurrentFill(t *testing.T) {
	db := setupWorkerDB(t)
	events := captureEvents(t)
	worker := &OrderProcessorWorker{Registry: models.NewPairRegistry()}

	order := openOrder(t, db)

	// An executor strikes the row between the worker picking up the
	// terminal status and committing it.
	struck := false
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("strike_in_between", func(tx *gorm.DB) {
		if struck {
			return
		}
		struck = true

		require.NoError(t, db.Exec(
			"UPDATE orders SET executed_quantity = ?, avg_price = ?, status = ? WHERE id = ?",
			d("0.5"), d("100"), matching.StatusPartiallyFilled, order.ID,
		).Error)
	}))

	require.NoError(t, worker.UpdateOrder(order.ID, matching.StatusCancelled))

	require.NoError(t, db.First(order, "id = ?", order.ID).Error)
	require.Equal(t, matching.StatusCancelled, order.Status)
	require.True(t, order.ExecutedQuantity.Equal(d("0.5")), "fill reverted: %s", order.ExecutedQuantity)
	require.True(t, order.AvgPrice.Equal(d("100")))

	require.Len(t, *events, 1)
	require.Equal(t, brokerEvent{Kind: "order", ID: order.UUID.String(), Event: "cancelled"}, (*events)[0])
}

func TestUpdateOrderSkipsTerminalRows(t *testing.T) {
	db := setupWorkerDB(t)
	events := captureEvents(t)
	worker := &OrderProcessorWorker{Registry: models.NewPairRegistry()}

	order := openOrder(t, db)
	require.NoError(t, db.Model(order).Updates(map[string]interface{}{
		"status":            matching.StatusFilled,
		"executed_quantity": d("2"),
	}).Error)

	require.NoError(t, worker.UpdateOrder(order.ID, matching.StatusCancelled))

	require.NoError(t, db.First(order, "id = ?", order.ID).Error)
	require.Equal(t, matching.StatusFilled, order.Status)
	require.Empty(t, *events)
}

func TestUpdateOrderRefusesNonTerminalStatus(t *testing.T) {
	db := setupWorkerDB(t)
	captureEvents(t)
	worker := &OrderProcessorWorker{Registry: models.NewPairRegistry()}

	order := openOrder(t, db)

	require.Error(t, worker.UpdateOrder(order.ID, matching.StatusFilled))

	require.NoError(t, db.First(order, "id = ?", order.ID).Error)
	require.Equal(t, matching.StatusOpen, order.Status)
}
