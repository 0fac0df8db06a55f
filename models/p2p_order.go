package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vidiaspot/tradecore/types"
)

type P2pOrderStatus string

const (
	P2pOpen      P2pOrderStatus = "open"
	P2pMatched   P2pOrderStatus = "matched"
	P2pCompleted P2pOrderStatus = "completed"
	P2pCancelled P2pOrderStatus = "cancelled"
)

// P2pCryptoOrder is a peer-to-peer offer, distinct from the order-book
// Order. Once matched it is tied 1:1 to an Escrow.
type P2pCryptoOrder struct {
	ID             uint64          `json:"id" gorm:"primaryKey"`
	UUID           uuid.UUID       `json:"uuid"`
	SellerID       int64           `json:"seller_id"`
	BuyerID        sql.NullInt64   `json:"buyer_id"`
	CryptoCurrency string          `json:"crypto_currency"`
	FiatCurrency   string          `json:"fiat_currency"`
	Type           types.TakerType `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	PricePerUnit   decimal.Decimal `json:"price_per_unit"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	FeeAmount      decimal.Decimal `json:"fee_amount"`
	PaymentMethod  string          `json:"payment_method"`
	Status         P2pOrderStatus  `json:"status" gorm:"index;default:open"`
	TradeReference string          `json:"trade_reference" gorm:"uniqueIndex"`
	MatchedAt      sql.NullTime    `json:"matched_at"`
	CompletedAt    sql.NullTime    `json:"completed_at"`
	CancelledAt    sql.NullTime    `json:"cancelled_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (o *P2pCryptoOrder) BeforeCreate(tx *gorm.DB) error {
	if o.UUID == uuid.Nil {
		o.UUID = uuid.New()
	}

	return nil
}

func (o *P2pCryptoOrder) IsOpen() bool {
	return o.Status == P2pOpen
}
