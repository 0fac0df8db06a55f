package models

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidiaspot/tradecore/matching"
)

func TestApplyFillAveragesPrice(t *testing.T) {
	order := &Order{
		Quantity: d("3"),
		Status:   matching.StatusOpen,
	}

	order.ApplyFill(d("100"), d("1"), d("0.1"))

	if order.Status != matching.StatusPartiallyFilled {
		t.Fatalf("expected partially_filled, got %s", order.Status)
	}
	if !order.AvgPrice.Equal(d("100")) {
		t.Fatalf("expected avg 100, got %s", order.AvgPrice)
	}

	order.ApplyFill(d("110"), d("2"), d("0.2"))

	if order.Status != matching.StatusFilled {
		t.Fatalf("expected filled, got %s", order.Status)
	}
	// (100*1 + 110*2) / 3
	if !order.AvgPrice.Round(8).Equal(d("106.66666667")) {
		t.Fatalf("unexpected avg price %s", order.AvgPrice)
	}
	if !order.Fee.Equal(d("0.3")) {
		t.Fatalf("expected fee 0.3, got %s", order.Fee)
	}
	if order.TradesCount != 2 {
		t.Fatalf("expected 2 trades, got %d", order.TradesCount)
	}
}

func TestIsTerminal(t *testing.T) {
	order := &Order{Status: matching.StatusOpen}
	if order.IsTerminal() {
		t.Fatal("open order is not terminal")
	}

	for _, status := range []matching.OrderStatus{
		matching.StatusFilled,
		matching.StatusCancelled,
		matching.StatusExpired,
		matching.StatusRejected,
	} {
		order.Status = status
		if !order.IsTerminal() {
			t.Fatalf("%s should be terminal", status)
		}
	}
}

func TestToMatchingOrder(t *testing.T) {
	goodTill := time.Now().Add(time.Hour)

	order := &Order{
		ID:               7,
		MemberID:         12,
		Symbol:           "btcusd",
		Type:             matching.TypeLimit,
		Side:             matching.SideBuy,
		Price:            decimal.NewNullDecimal(d("30000")),
		Quantity:         d("1"),
		ExecutedQuantity: d("0.25"),
		TimeInForce:      matching.GTD,
		GoodTillDate:     sql.NullTime{Time: goodTill, Valid: true},
		Status:           matching.StatusPartiallyFilled,
	}

	engineOrder := order.ToMatchingOrder()

	if engineOrder.ID != 7 || engineOrder.Symbol != "btcusd" {
		t.Fatalf("identity not carried over: %+v", engineOrder)
	}
	if !engineOrder.FilledQuantity.Equal(d("0.25")) {
		t.Fatalf("executed quantity must survive reload, got %s", engineOrder.FilledQuantity)
	}
	if !engineOrder.UnfilledQuantity().Equal(d("0.75")) {
		t.Fatalf("expected unfilled 0.75, got %s", engineOrder.UnfilledQuantity())
	}
	if !engineOrder.GoodTillDate.Equal(goodTill) {
		t.Fatal("good till date must carry over")
	}
}
