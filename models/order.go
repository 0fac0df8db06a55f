package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/validate"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vidiaspot/tradecore/matching"
)

// Order is the persisted order row. The book holds a price-level index
// into the in-memory copy; this row is the owner-facing record.
type Order struct {
	ID               uint64               `json:"id" gorm:"primaryKey"`
	UUID             uuid.UUID            `json:"uuid"`
	MemberID         int64                `json:"member_id" validate:"required"`
	Symbol           string               `json:"symbol" gorm:"index" validate:"required"`
	Type             matching.OrderType   `json:"type" validate:"required"`
	Side             matching.OrderSide   `json:"side" validate:"required"`
	Price            decimal.NullDecimal  `json:"price"`
	StopPrice        decimal.NullDecimal  `json:"stop_price"`
	Quantity         decimal.Decimal      `json:"quantity" validate:"required"`
	ExecutedQuantity decimal.Decimal      `json:"executed_quantity" gorm:"default:0.0"`
	AvgPrice         decimal.Decimal      `json:"avg_price" gorm:"default:0.0"`
	Status           matching.OrderStatus `json:"status" gorm:"index"`
	TimeInForce      matching.TimeInForce `json:"time_in_force" gorm:"default:GTC"`
	GoodTillDate     sql.NullTime         `json:"good_till_date"`
	PostOnly         bool                 `json:"post_only" gorm:"default:false"`
	ReduceOnly       bool                 `json:"reduce_only" gorm:"default:false"`
	Fee              decimal.Decimal      `json:"fee" gorm:"default:0.0"`
	FeeCurrency      string               `json:"fee_currency"`
	TradesCount      int64                `json:"trades_count" gorm:"default:0"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.UUID == uuid.Nil {
		o.UUID = uuid.New()
	}

	return nil
}

func (o Order) Message() map[string]string {
	return validate.MS{
		"required": "market.order.invalid_{field}",
	}
}

func (o *Order) IsTerminal() bool {
	switch o.Status {
	case matching.StatusFilled, matching.StatusCancelled, matching.StatusExpired, matching.StatusRejected:
		return true
	}

	return false
}

func (o *Order) UnfilledQuantity() decimal.Decimal {
	return o.Quantity.Sub(o.ExecutedQuantity)
}

// ApplyFill folds one execution into the order: executed quantity,
// volume-weighted average price, fee, trade count and the derived status.
func (o *Order) ApplyFill(price, quantity, fee decimal.Decimal) {
	notionalBefore := o.AvgPrice.Mul(o.ExecutedQuantity)

	o.ExecutedQuantity = o.ExecutedQuantity.Add(quantity)
	o.AvgPrice = notionalBefore.Add(price.Mul(quantity)).Div(o.ExecutedQuantity)
	o.Fee = o.Fee.Add(fee)
	o.TradesCount += 1

	if o.ExecutedQuantity.GreaterThanOrEqual(o.Quantity) {
		o.Status = matching.StatusFilled
	} else {
		o.Status = matching.StatusPartiallyFilled
	}
}

func (o *Order) TradingPair(registry *PairRegistry) (*TradingPair, bool) {
	return registry.Get(o.Symbol)
}

// ToMatchingOrder builds the engine's view of this order. Resting state
// is reconstructed from executed quantity on engine reload.
func (o *Order) ToMatchingOrder() *matching.Order {
	var goodTillDate time.Time
	if o.GoodTillDate.Valid {
		goodTillDate = o.GoodTillDate.Time
	}

	return &matching.Order{
		ID:             o.ID,
		UUID:           o.UUID,
		MemberID:       o.MemberID,
		Symbol:         o.Symbol,
		Side:           o.Side,
		Type:           o.Type,
		Price:          o.Price.Decimal,
		StopPrice:      o.StopPrice.Decimal,
		Quantity:       o.Quantity,
		FilledQuantity: o.ExecutedQuantity,
		TimeInForce:    o.TimeInForce,
		GoodTillDate:   goodTillDate,
		PostOnly:       o.PostOnly,
		ReduceOnly:     o.ReduceOnly,
		Status:         o.Status,
		CreatedAt:      o.CreatedAt,
	}
}
