package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type EscrowTransactionType string

const (
	TxCryptoDeposit EscrowTransactionType = "crypto_deposit"
	TxCryptoRelease EscrowTransactionType = "crypto_release"
	TxCryptoRefund  EscrowTransactionType = "crypto_refund"
)

// EscrowTransaction records each movement of funds for an escrow.
type EscrowTransaction struct {
	ID          uint64                `json:"id" gorm:"primaryKey"`
	EscrowID    uint64                `json:"escrow_id" gorm:"index"`
	MemberID    int64                 `json:"member_id"`
	Type        EscrowTransactionType `json:"type"`
	Amount      decimal.Decimal       `json:"amount"`
	Currency    string                `json:"currency"`
	TxHash      sql.NullString        `json:"tx_hash"`
	Status      string                `json:"status" gorm:"default:pending"`
	ConfirmedAt sql.NullTime          `json:"confirmed_at"`
	CreatedAt   time.Time             `json:"created_at"`
}
