package escrow

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vidiaspot/tradecore/config"
	"github.com/vidiaspot/tradecore/models"
)

// FundsLedger moves the escrowed funds. Implementations talk to the
// wallet service; failures leave the escrow in its current state.
type FundsLedger interface {
	Hold(ctx context.Context, escrow *models.Escrow) error
	Transfer(ctx context.Context, escrow *models.Escrow, toMemberID int64) error
}

// BlockchainVerifier confirms a funding transaction on chain before the
// escrow is marked funded.
type BlockchainVerifier interface {
	VerifyTransaction(ctx context.Context, txHash, address string, amount decimal.Decimal) error
}

// EventPublisher receives escrow lifecycle events for downstream
// consumers (notifications, websockets).
type EventPublisher interface {
	Publish(kind, id, event string, payload []byte) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(kind, id, event string, payload []byte) error { return nil }

// Machine drives the escrow state machine:
//
//	pending -> funded -> released
//	                  -> refunded
//	                  -> disputed -> resolved
//
// Concurrent operations on the same escrow are serialized in-process by
// a per-escrow mutex; cross-process races are caught by the guarded
// status update, which fails with ErrPrecondition when the row moved
// underneath us.
type Machine struct {
	db       *gorm.DB
	cfg      config.TradingConfig
	ledger   FundsLedger
	verifier BlockchainVerifier
	events   EventPublisher

	mutex sync.Mutex
	locks map[uint64]*sync.Mutex
}

func NewMachine(db *gorm.DB, cfg config.TradingConfig, ledger FundsLedger, verifier BlockchainVerifier, events EventPublisher) *Machine {
	if events == nil {
		events = NopPublisher{}
	}

	return &Machine{
		db:       db,
		cfg:      cfg,
		ledger:   ledger,
		verifier: verifier,
		events:   events,
		locks:    make(map[uint64]*sync.Mutex),
	}
}

func (m *Machine) guard(id uint64) *sync.Mutex {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}

	return lock
}

func (m *Machine) load(id uint64) (*models.Escrow, error) {
	escrow := &models.Escrow{}

	result := m.db.First(escrow, "id = ?", id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}

		return nil, result.Error
	}

	if escrow.IntegrityViolated() {
		config.Logger.Errorf("escrow %d has both terminal timestamps set", escrow.ID)
		return nil, ErrIntegrity
	}

	return escrow, nil
}

// transition applies updates to the escrow only while its status is
// still `from`. Zero rows affected means another writer won the race.
func (m *Machine) transition(escrow *models.Escrow, from models.EscrowStatus, updates map[string]interface{}) error {
	result := m.db.Model(&models.Escrow{}).
		Where("id = ? AND status = ?", escrow.ID, from).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPrecondition
	}

	return m.db.First(escrow, "id = ?", escrow.ID).Error
}

func (m *Machine) publish(escrow *models.Escrow, event string) {
	payload, err := json.Marshal(escrow)
	if err != nil {
		return
	}

	if err := m.events.Publish("escrow", escrow.UUID.String(), event, payload); err != nil {
		config.Logger.Errorf("publish escrow event %s: %v", event, err)
	}
}

func (m *Machine) record(escrow *models.Escrow, memberID int64, kind models.EscrowTransactionType, txHash string) {
	transaction := &models.EscrowTransaction{
		EscrowID: escrow.ID,
		MemberID: memberID,
		Type:     kind,
		Amount:   escrow.Amount,
		Currency: escrow.Currency,
		Status:   "confirmed",
		TxHash:   sql.NullString{String: txHash, Valid: txHash != ""},
		ConfirmedAt: sql.NullTime{
			Time:  time.Now(),
			Valid: true,
		},
	}

	if err := m.db.Create(transaction).Error; err != nil {
		config.Logger.Errorf("record escrow transaction for %d: %v", escrow.ID, err)
	}
}

// Fund confirms the buyer's deposit and moves the escrow from pending
// to funded. The auto release clock starts here and is never reset.
func (m *Machine) Fund(ctx context.Context, id uint64, txHash string, amount decimal.Decimal) (*models.Escrow, error) {
	lock := m.guard(id)
	lock.Lock()
	defer lock.Unlock()

	escrow, err := m.load(id)
	if err != nil {
		return nil, err
	}

	switch escrow.Status {
	case models.EscrowPending:
	case models.EscrowFunded:
		return nil, ErrAlreadyInState
	default:
		return nil, ErrInvalidTransition
	}

	if !amount.Equal(escrow.Amount) {
		return nil, ErrAmountMismatch
	}

	if err := m.verifier.VerifyTransaction(ctx, txHash, escrow.EscrowAddress, amount); err != nil {
		return nil, err
	}

	if err := m.ledger.Hold(ctx, escrow); err != nil {
		return nil, err
	}

	now := time.Now()
	err = m.transition(escrow, models.EscrowPending, map[string]interface{}{
		"status":          models.EscrowFunded,
		"funding_tx_hash": txHash,
		"funded_at":       now,
		"auto_release_at": now.Add(m.cfg.AutoReleaseWindow),
	})
	if err != nil {
		return nil, err
	}

	m.record(escrow, escrow.BuyerID, models.TxCryptoDeposit, txHash)
	m.publish(escrow, "funded")

	return escrow, nil
}

// Release pays the escrowed funds out to the seller. Calling it on an
// already released escrow is a no-op; a dispute in flight blocks it.
func (m *Machine) Release(ctx context.Context, id uint64, notes string) (*models.Escrow, error) {
	lock := m.guard(id)
	lock.Lock()
	defer lock.Unlock()

	escrow, err := m.load(id)
	if err != nil {
		return nil, err
	}

	switch escrow.Status {
	case models.EscrowFunded:
	case models.EscrowReleased:
		return escrow, nil
	default:
		return nil, ErrInvalidTransition
	}

	if err := m.ledger.Transfer(ctx, escrow, escrow.SellerID); err != nil {
		return nil, err
	}

	err = m.transition(escrow, models.EscrowFunded, map[string]interface{}{
		"status":        models.EscrowReleased,
		"released_at":   time.Now(),
		"release_notes": notes,
	})
	if err != nil {
		return nil, err
	}

	m.record(escrow, escrow.SellerID, models.TxCryptoRelease, "")
	m.publish(escrow, "released")

	return escrow, nil
}

// Refund returns the escrowed funds to the buyer, from funded or
// straight out of a dispute.
func (m *Machine) Refund(ctx context.Context, id uint64, notes string) (*models.Escrow, error) {
	lock := m.guard(id)
	lock.Lock()
	defer lock.Unlock()

	escrow, err := m.load(id)
	if err != nil {
		return nil, err
	}

	switch escrow.Status {
	case models.EscrowFunded, models.EscrowDisputed:
	case models.EscrowRefunded:
		return escrow, nil
	default:
		return nil, ErrInvalidTransition
	}

	if err := m.ledger.Transfer(ctx, escrow, escrow.BuyerID); err != nil {
		return nil, err
	}

	err = m.transition(escrow, escrow.Status, map[string]interface{}{
		"status":       models.EscrowRefunded,
		"refunded_at":  time.Now(),
		"refund_notes": notes,
	})
	if err != nil {
		return nil, err
	}

	m.record(escrow, escrow.BuyerID, models.TxCryptoRefund, "")
	m.publish(escrow, "refunded")

	return escrow, nil
}

// OpenDispute freezes a funded escrow until a resolver decides it. The
// auto release sweep skips disputed escrows, so raising a dispute
// stops the clock.
func (m *Machine) OpenDispute(ctx context.Context, id uint64, raisedBy int64, reason, evidence string) (*models.Escrow, error) {
	lock := m.guard(id)
	lock.Lock()
	defer lock.Unlock()

	escrow, err := m.load(id)
	if err != nil {
		return nil, err
	}

	if raisedBy != escrow.BuyerID && raisedBy != escrow.SellerID {
		return nil, ErrNotParty
	}
	if reason == "" {
		return nil, ErrEmptyReason
	}

	switch escrow.Status {
	case models.EscrowFunded:
	case models.EscrowDisputed:
		return nil, ErrAlreadyInState
	default:
		return nil, ErrInvalidTransition
	}

	err = m.transition(escrow, models.EscrowFunded, map[string]interface{}{
		"status":           models.EscrowDisputed,
		"dispute_reason":   reason,
		"dispute_evidence": evidence,
	})
	if err != nil {
		return nil, err
	}

	m.publish(escrow, "disputed")

	return escrow, nil
}

// ApplyResolution moves a disputed escrow to resolved and settles the
// funds per the decision.
func (m *Machine) ApplyResolution(ctx context.Context, id uint64, decision Decision) (*models.Escrow, error) {
	lock := m.guard(id)
	lock.Lock()
	defer lock.Unlock()

	escrow, err := m.load(id)
	if err != nil {
		return nil, err
	}

	if escrow.Status != models.EscrowDisputed {
		return nil, ErrInvalidTransition
	}

	var beneficiary int64
	var kind models.EscrowTransactionType
	terminal := map[string]interface{}{
		"status":            models.EscrowResolved,
		"dispute_outcome":   decision.Outcome,
		"resolution_method": decision.Method,
	}

	switch decision.Outcome {
	case models.FavorBuyer:
		beneficiary = escrow.BuyerID
		kind = models.TxCryptoRefund
		terminal["refunded_at"] = time.Now()
		terminal["refund_notes"] = decision.Notes
	case models.FavorSeller:
		beneficiary = escrow.SellerID
		kind = models.TxCryptoRelease
		terminal["released_at"] = time.Now()
		terminal["release_notes"] = decision.Notes
	default:
		return nil, ErrOutcome
	}

	if err := m.ledger.Transfer(ctx, escrow, beneficiary); err != nil {
		return nil, err
	}

	if err := m.transition(escrow, models.EscrowDisputed, terminal); err != nil {
		return nil, err
	}

	m.record(escrow, beneficiary, kind, "")
	m.publish(escrow, "resolved")

	return escrow, nil
}

// AutoReleaseSweep releases every funded escrow whose window has
// elapsed. One failing escrow does not stop the sweep.
func (m *Machine) AutoReleaseSweep(ctx context.Context, now time.Time) int {
	var due []models.Escrow

	result := m.db.Where("status = ? AND auto_release_at <= ?", models.EscrowFunded, now).Find(&due)
	if result.Error != nil {
		config.Logger.Errorf("auto release sweep query: %v", result.Error)
		return 0
	}

	released := 0
	for i := range due {
		if _, err := m.Release(ctx, due[i].ID, "auto_release"); err != nil {
			config.Logger.Errorf("auto release escrow %d: %v", due[i].ID, err)
			continue
		}
		released++
	}

	return released
}
