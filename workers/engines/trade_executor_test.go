package engines

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vidiaspot/tradecore/matching"
	"github.com/vidiaspot/tradecore/models"
)

func TestPublishTradeEmitsMatchEvents(t *testing.T) {
	events := captureEvents(t)

	maker := &models.Order{UUID: uuid.New(), Side: matching.SideSell}
	taker := &models.Order{UUID: uuid.New(), Side: matching.SideBuy}
	executor := &TradeExecutor{MakerOrder: maker, TakerOrder: taker}

	executor.PublishTrade(&models.Trade{
		Symbol:   "btcusd",
		Price:    d("100"),
		Quantity: d("1"),
		Total:    d("100"),
	})

	require.Equal(t, []brokerEvent{
		{Kind: "trade", ID: "btcusd", Event: "created"},
		{Kind: "order", ID: maker.UUID.String(), Event: "matched"},
		{Kind: "order", ID: taker.UUID.String(), Event: "matched"},
	}, *events)
}
