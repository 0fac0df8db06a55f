package matching

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents two opposed matched orders. The price is always the
// maker's resting price.
type Trade struct {
	Symbol       string          `json:"symbol"`
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
	Total        decimal.Decimal `json:"total"`
	MakerOrderID uint64          `json:"maker_order_id"`
	TakerOrderID uint64          `json:"taker_order_id"`
	MakerID      int64           `json:"maker_id"`
	TakerID      int64           `json:"taker_id"`
	TakerSide    OrderSide       `json:"taker_side"`
	CreatedAt    time.Time       `json:"created_at"`
}
