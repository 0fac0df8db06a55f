package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type EscrowStatus string

const (
	EscrowPending  EscrowStatus = "pending"
	EscrowFunded   EscrowStatus = "funded"
	EscrowReleased EscrowStatus = "released"
	EscrowRefunded EscrowStatus = "refunded"
	EscrowDisputed EscrowStatus = "disputed"
	EscrowResolved EscrowStatus = "resolved"
)

type DisputeOutcome string

const (
	FavorBuyer  DisputeOutcome = "favor_buyer"
	FavorSeller DisputeOutcome = "favor_seller"
)

type ResolutionMethod string

const (
	Mediation     ResolutionMethod = "mediation"
	Arbitration   ResolutionMethod = "arbitration"
	SmartContract ResolutionMethod = "smart_contract"
)

// Escrow is the peer-to-peer settlement record. Amount is immutable after
// creation and the row is retained forever; once either terminal timestamp
// is set the record is frozen.
type Escrow struct {
	ID               uint64           `json:"id" gorm:"primaryKey"`
	UUID             uuid.UUID        `json:"uuid"`
	P2pOrderID       uint64           `json:"p2p_order_id" gorm:"uniqueIndex"`
	BuyerID          int64            `json:"buyer_id"`
	SellerID         int64            `json:"seller_id"`
	Amount           decimal.Decimal  `json:"amount"`
	Currency         string           `json:"currency"`
	Status           EscrowStatus     `json:"status" gorm:"index;default:pending"`
	EscrowAddress    string           `json:"escrow_address"`
	FundingTxHash    sql.NullString   `json:"funding_tx_hash"`
	FundedAt         sql.NullTime     `json:"funded_at"`
	AutoReleaseAt    sql.NullTime     `json:"auto_release_at"`
	ReleasedAt       sql.NullTime     `json:"released_at"`
	RefundedAt       sql.NullTime     `json:"refunded_at"`
	ReleaseNotes     string           `json:"release_notes"`
	RefundNotes      string           `json:"refund_notes"`
	DisputeReason    string           `json:"dispute_reason"`
	DisputeEvidence  string           `json:"dispute_evidence"`
	DisputeOutcome   DisputeOutcome   `json:"dispute_outcome"`
	ResolutionMethod ResolutionMethod `json:"resolution_method"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (e *Escrow) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}

	return nil
}

// Frozen reports whether a terminal timestamp is set; no transition is
// permitted past this point.
func (e *Escrow) Frozen() bool {
	return e.ReleasedAt.Valid || e.RefundedAt.Valid
}

// IntegrityViolated reports the fatal state of both terminal timestamps
// being set. It is never corrected, only surfaced.
func (e *Escrow) IntegrityViolated() bool {
	return e.ReleasedAt.Valid && e.RefundedAt.Valid
}

func (e *Escrow) AutoReleaseDue(now time.Time) bool {
	return e.Status == EscrowFunded && e.AutoReleaseAt.Valid && now.After(e.AutoReleaseAt.Time)
}
