package matching

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderSide string
type OrderType string
type OrderStatus string
type TimeInForce string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

const (
	TypeMarket OrderType = "market"
	TypeLimit  OrderType = "limit"
	TypeStop   OrderType = "stop"
)

const (
	StatusOpen            OrderStatus = "open"
	StatusPartiallyFilled OrderStatus = "partially_filled"
	StatusFilled          OrderStatus = "filled"
	StatusCancelled       OrderStatus = "cancelled"
	StatusExpired         OrderStatus = "expired"
	StatusRejected        OrderStatus = "rejected"
)

const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
	GTD TimeInForce = "GTD"
)

// Order is the matching engine's view of an order. The book indexes it by
// price level but the submitting member stays the owner; terminal statuses
// freeze it.
type Order struct {
	ID             uint64
	UUID           uuid.UUID
	MemberID       int64
	Symbol         string
	Side           OrderSide
	Type           OrderType
	Price          decimal.Decimal
	StopPrice      decimal.Decimal
	Quantity       decimal.Decimal
	FilledQuantity decimal.Decimal
	TimeInForce    TimeInForce
	GoodTillDate   time.Time
	PostOnly       bool
	ReduceOnly     bool
	Status         OrderStatus
	CreatedAt      time.Time
}

type OrderKey struct {
	ID        uint64
	Side      OrderSide
	StopPrice decimal.Decimal
	CreatedAt time.Time
}

func (o *Order) Key() *OrderKey {
	return &OrderKey{
		ID:        o.ID,
		Side:      o.Side,
		StopPrice: o.StopPrice,
		CreatedAt: o.CreatedAt,
	}
}

func (o *Order) UnfilledQuantity() decimal.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

// Fill consumes quantity and rederives the status. Callers clamp quantity
// to UnfilledQuantity before calling.
func (o *Order) Fill(quantity decimal.Decimal) {
	o.FilledQuantity = o.FilledQuantity.Add(quantity)

	if o.Filled() {
		o.Status = StatusFilled
	} else if o.FilledQuantity.IsPositive() {
		o.Status = StatusPartiallyFilled
	}
}

func (o *Order) Filled() bool {
	return o.FilledQuantity.GreaterThanOrEqual(o.Quantity)
}

// IsCrossed reports whether the given maker price satisfies this order's
// limit. Market orders cross any price.
func (o *Order) IsCrossed(price decimal.Decimal) bool {
	if o.Type == TypeMarket {
		return true
	}

	if o.Side == SideBuy {
		return price.LessThanOrEqual(o.Price)
	}

	return price.GreaterThanOrEqual(o.Price)
}

func (o *Order) Expired(now time.Time) bool {
	return o.TimeInForce == GTD && now.After(o.GoodTillDate)
}

func (o *Order) IsBuy() bool {
	return o.Side == SideBuy
}

// Triggered converts a parked stop order into the order it was configured
// to become once the stop price is crossed.
func (o *Order) Triggered() {
	if o.Price.IsPositive() {
		o.Type = TypeLimit
	} else {
		o.Type = TypeMarket
	}
}

// StopTriggered reports whether the last traded price crosses the stop
// price: buy stops arm above the market, sell stops below it.
func (o *Order) StopTriggered(marketPrice decimal.Decimal) bool {
	if !marketPrice.IsPositive() {
		return false
	}

	if o.Side == SideBuy {
		return marketPrice.GreaterThanOrEqual(o.StopPrice)
	}

	return marketPrice.LessThanOrEqual(o.StopPrice)
}

// StopComparator ranks parked stop orders so the next order to trigger is
// at the tree's right edge: lowest stop first for bids (rising price),
// highest stop first for asks (falling price). Equal stops trigger in
// arrival order.
func StopComparator(a, b interface{}) (result int) {
	this := a.(*OrderKey)
	that := b.(*OrderKey)

	if this.ID == that.ID {
		return 0
	}

	switch {
	case this.Side == SideBuy && this.StopPrice.LessThan(that.StopPrice):
		result = 1

	case this.Side == SideBuy && this.StopPrice.GreaterThan(that.StopPrice):
		result = -1

	case this.Side == SideSell && this.StopPrice.LessThan(that.StopPrice):
		result = -1

	case this.Side == SideSell && this.StopPrice.GreaterThan(that.StopPrice):
		result = 1

	default:
		if this.CreatedAt.Before(that.CreatedAt) {
			result = 1
		} else {
			result = -1
		}
	}

	return
}
