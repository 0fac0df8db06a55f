package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vidiaspot/tradecore/config"
	"github.com/vidiaspot/tradecore/matching"
	"github.com/vidiaspot/tradecore/types"
)

var ErrTradeImmutable = errors.New("market.trade.immutable")

// Trade is one execution in the append-only ledger. It is the audit trail
// both orders' executed quantities derive from; rows are never updated or
// deleted.
type Trade struct {
	ID           uint64             `json:"id" gorm:"primaryKey"`
	Symbol       string             `json:"symbol" gorm:"index"`
	Price        decimal.Decimal    `json:"price" validate:"ValidatePrice"`
	Quantity     decimal.Decimal    `json:"quantity" validate:"ValidateQuantity"`
	Total        decimal.Decimal    `json:"total" validate:"ValidateTotal"`
	MakerOrderID uint64             `json:"maker_order_id"`
	TakerOrderID uint64             `json:"taker_order_id"`
	MakerID      int64              `json:"maker_id"`
	TakerID      int64              `json:"taker_id"`
	TakerSide    matching.OrderSide `json:"taker_side"`
	Fee          decimal.Decimal    `json:"fee" gorm:"default:0.0"`
	FeeCurrency  string             `json:"fee_currency"`
	FeePayer     types.TakerType    `json:"fee_payer"`
	ExecutedAt   time.Time          `json:"executed_at"`
	CreatedAt    time.Time          `json:"created_at"`
}

func (t Trade) ValidatePrice(price decimal.Decimal) bool {
	return price.IsPositive()
}

func (t Trade) ValidateQuantity(quantity decimal.Decimal) bool {
	return quantity.IsPositive()
}

func (t Trade) ValidateTotal(total decimal.Decimal) bool {
	return total.IsPositive()
}

func (t *Trade) BeforeUpdate(tx *gorm.DB) error {
	return ErrTradeImmutable
}

func (t *Trade) BeforeDelete(tx *gorm.DB) error {
	return ErrTradeImmutable
}

func (t *Trade) MakerOrder() *Order {
	order := &Order{}
	config.DataBase.First(&order, "id = ?", t.MakerOrderID)
	return order
}

func (t *Trade) TakerOrder() *Order {
	order := &Order{}
	config.DataBase.First(&order, "id = ?", t.TakerOrderID)
	return order
}

func (t *Trade) WriteToInflux() {
	if config.InfluxDB == nil {
		return
	}

	price, _ := t.Price.Float64()
	quantity, _ := t.Quantity.Float64()
	total, _ := t.Total.Float64()

	tags := map[string]string{"symbol": t.Symbol}
	fields := map[string]interface{}{
		"id":          int64(t.ID),
		"price":       price,
		"quantity":    quantity,
		"total":       total,
		"taker_side":  string(t.TakerSide),
		"executed_at": t.ExecutedAt,
	}

	config.InfluxDB.NewPoint("trades", tags, fields)
}
