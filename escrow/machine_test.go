package escrow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vidiaspot/tradecore/config"
	"github.com/vidiaspot/tradecore/models"
)

func d(value string) decimal.Decimal {
	v, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}

	return v
}

type fakeLedger struct {
	holdErr     error
	transferErr error
	transfers   []int64
}

func (f *fakeLedger) Hold(ctx context.Context, escrow *models.Escrow) error {
	return f.holdErr
}

func (f *fakeLedger) Transfer(ctx context.Context, escrow *models.Escrow, toMemberID int64) error {
	if f.transferErr != nil {
		return f.transferErr
	}

	f.transfers = append(f.transfers, toMemberID)
	return nil
}

type fakeVerifier struct {
	err error
}

func (f *fakeVerifier) VerifyTransaction(ctx context.Context, txHash, address string, amount decimal.Decimal) error {
	return f.err
}

func testConfig() config.TradingConfig {
	return config.TradingConfig{
		AutoReleaseWindow:  24 * time.Hour,
		DisputeDirectLimit: d("1000"),
		MinEscrowAmount:    d("1"),
		P2pFeeRate:         d("0.01"),
	}
}

func setupMachine(t *testing.T) (*Machine, *gorm.DB, *fakeLedger, *fakeVerifier) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Escrow{},
		&models.EscrowTransaction{},
		&models.P2pCryptoOrder{},
		&models.Currency{},
	))

	ledger := &fakeLedger{}
	verifier := &fakeVerifier{}
	machine := NewMachine(db, testConfig(), ledger, verifier, nil)

	return machine, db, ledger, verifier
}

func createEscrow(t *testing.T, db *gorm.DB) *models.Escrow {
	t.Helper()

	escrow := &models.Escrow{
		P2pOrderID:    1,
		BuyerID:       10,
		SellerID:      20,
		Amount:        d("5"),
		Currency:      "btc",
		Status:        models.EscrowPending,
		EscrowAddress: "escrow_btc_test",
	}
	require.NoError(t, db.Create(escrow).Error)

	return escrow
}

func fundEscrow(t *testing.T, machine *Machine, db *gorm.DB) *models.Escrow {
	t.Helper()

	escrow := createEscrow(t, db)
	funded, err := machine.Fund(context.Background(), escrow.ID, "0xabc", d("5"))
	require.NoError(t, err)

	return funded
}

func TestFundMovesPendingToFunded(t *testing.T) {
	machine, db, _, _ := setupMachine(t)
	escrow := createEscrow(t, db)

	funded, err := machine.Fund(context.Background(), escrow.ID, "0xabc", d("5"))
	require.NoError(t, err)

	require.Equal(t, models.EscrowFunded, funded.Status)
	require.True(t, funded.FundedAt.Valid)
	require.True(t, funded.AutoReleaseAt.Valid)
	require.WithinDuration(t,
		funded.FundedAt.Time.Add(24*time.Hour), funded.AutoReleaseAt.Time, time.Second)

	var transactions []models.EscrowTransaction
	require.NoError(t, db.Where("escrow_id = ?", escrow.ID).Find(&transactions).Error)
	require.Len(t, transactions, 1)
	require.Equal(t, models.TxCryptoDeposit, transactions[0].Type)
}

func TestFundRejectsAmountMismatch(t *testing.T) {
	machine, db, _, _ := setupMachine(t)
	escrow := createEscrow(t, db)

	_, err := machine.Fund(context.Background(), escrow.ID, "0xabc", d("4.9"))
	require.ErrorIs(t, err, ErrAmountMismatch)

	require.NoError(t, db.First(escrow, "id = ?", escrow.ID).Error)
	require.Equal(t, models.EscrowPending, escrow.Status)
}

func TestFundTwiceIsAlreadyInState(t *testing.T) {
	machine, db, _, _ := setupMachine(t)
	escrow := fundEscrow(t, machine, db)

	_, err := machine.Fund(context.Background(), escrow.ID, "0xabc", d("5"))
	require.ErrorIs(t, err, ErrAlreadyInState)
}

func TestFundFailsWhenVerificationFails(t *testing.T) {
	machine, db, _, verifier := setupMachine(t)
	escrow := createEscrow(t, db)

	verifier.err = errors.New("tx not found")

	_, err := machine.Fund(context.Background(), escrow.ID, "0xbad", d("5"))
	require.Error(t, err)

	require.NoError(t, db.First(escrow, "id = ?", escrow.ID).Error)
	require.Equal(t, models.EscrowPending, escrow.Status)
}

func TestReleaseTransfersToSeller(t *testing.T) {
	machine, db, ledger, _ := setupMachine(t)
	escrow := fundEscrow(t, machine, db)

	released, err := machine.Release(context.Background(), escrow.ID, "payment confirmed")
	require.NoError(t, err)

	require.Equal(t, models.EscrowReleased, released.Status)
	require.True(t, released.ReleasedAt.Valid)
	require.False(t, released.RefundedAt.Valid)
	require.Equal(t, []int64{20}, ledger.transfers)
}

func TestReleaseIsIdempotent(t *testing.T) {
	machine, db, ledger, _ := setupMachine(t)
	escrow := fundEscrow(t, machine, db)

	_, err := machine.Release(context.Background(), escrow.ID, "")
	require.NoError(t, err)

	again, err := machine.Release(context.Background(), escrow.ID, "")
	require.NoError(t, err)
	require.Equal(t, models.EscrowReleased, again.Status)

	// Funds moved exactly once.
	require.Len(t, ledger.transfers, 1)
}

func TestReleaseBlockedByDispute(t *testing.T) {
	machine, db, _, _ := setupMachine(t)
	escrow := fundEscrow(t, machine, db)

	_, err := machine.OpenDispute(context.Background(), escrow.ID, 10, "item not received", "")
	require.NoError(t, err)

	_, err = machine.Release(context.Background(), escrow.ID, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestLedgerFailureLeavesFunded(t *testing.T) {
	machine, db, ledger, _ := setupMachine(t)
	escrow := fundEscrow(t, machine, db)

	ledger.transferErr = errors.New("wallet unavailable")

	_, err := machine.Release(context.Background(), escrow.ID, "")
	require.Error(t, err)

	require.NoError(t, db.First(escrow, "id = ?", escrow.ID).Error)
	require.Equal(t, models.EscrowFunded, escrow.Status)
	require.False(t, escrow.ReleasedAt.Valid)
}

func TestRefundTransfersToBuyer(t *testing.T) {
	machine, db, ledger, _ := setupMachine(t)
	escrow := fundEscrow(t, machine, db)

	refunded, err := machine.Refund(context.Background(), escrow.ID, "seller backed out")
	require.NoError(t, err)

	require.Equal(t, models.EscrowRefunded, refunded.Status)
	require.True(t, refunded.RefundedAt.Valid)
	require.False(t, refunded.ReleasedAt.Valid)
	require.Equal(t, []int64{10}, ledger.transfers)
}

func TestRefundAllowedFromDispute(t *testing.T) {
	machine, db, ledger, _ := setupMachine(t)
	escrow := fundEscrow(t, machine, db)

	_, err := machine.OpenDispute(context.Background(), escrow.ID, 10, "item not received", "")
	require.NoError(t, err)

	refunded, err := machine.Refund(context.Background(), escrow.ID, "seller conceded")
	require.NoError(t, err)

	require.Equal(t, models.EscrowRefunded, refunded.Status)
	require.True(t, refunded.RefundedAt.Valid)
	require.Equal(t, []int64{10}, ledger.transfers)
}

func TestTerminalEscrowIsFrozen(t *testing.T) {
	machine, db, _, _ := setupMachine(t)
	escrow := fundEscrow(t, machine, db)

	_, err := machine.Release(context.Background(), escrow.ID, "")
	require.NoError(t, err)

	_, err = machine.Refund(context.Background(), escrow.ID, "")
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = machine.OpenDispute(context.Background(), escrow.ID, 10, "too late", "")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestIntegrityViolationSurfaces(t *testing.T) {
	machine, db, _, _ := setupMachine(t)
	escrow := createEscrow(t, db)

	now := time.Now()
	require.NoError(t, db.Model(escrow).Updates(map[string]interface{}{
		"status":      models.EscrowReleased,
		"released_at": now,
		"refunded_at": now,
	}).Error)

	_, err := machine.Release(context.Background(), escrow.ID, "")
	require.ErrorIs(t, err, ErrIntegrity)
}

func TestOpenDisputeValidation(t *testing.T) {
	machine, db, _, _ := setupMachine(t)
	escrow := fundEscrow(t, machine, db)

	_, err := machine.OpenDispute(context.Background(), escrow.ID, 99, "not mine", "")
	require.ErrorIs(t, err, ErrNotParty)

	_, err = machine.OpenDispute(context.Background(), escrow.ID, 10, "", "")
	require.ErrorIs(t, err, ErrEmptyReason)

	disputed, err := machine.OpenDispute(context.Background(), escrow.ID, 10, "item not received", "chat log")
	require.NoError(t, err)
	require.Equal(t, models.EscrowDisputed, disputed.Status)
	require.Equal(t, "item not received", disputed.DisputeReason)

	_, err = machine.OpenDispute(context.Background(), escrow.ID, 20, "me too", "")
	require.ErrorIs(t, err, ErrAlreadyInState)
}

func TestAutoReleaseSweep(t *testing.T) {
	machine, db, ledger, _ := setupMachine(t)
	escrow := fundEscrow(t, machine, db)

	released := machine.AutoReleaseSweep(context.Background(), time.Now())
	require.Zero(t, released, "window has not elapsed yet")

	released = machine.AutoReleaseSweep(context.Background(), time.Now().Add(25*time.Hour))
	require.Equal(t, 1, released)

	require.NoError(t, db.First(escrow, "id = ?", escrow.ID).Error)
	require.Equal(t, models.EscrowReleased, escrow.Status)
	require.Equal(t, []int64{20}, ledger.transfers)
}

func TestDisputeStopsAutoRelease(t *testing.T) {
	machine, db, _, _ := setupMachine(t)
	escrow := fundEscrow(t, machine, db)

	_, err := machine.OpenDispute(context.Background(), escrow.ID, 10, "item not received", "")
	require.NoError(t, err)

	released := machine.AutoReleaseSweep(context.Background(), time.Now().Add(25*time.Hour))
	require.Zero(t, released)

	require.NoError(t, db.First(escrow, "id = ?", escrow.ID).Error)
	require.Equal(t, models.EscrowDisputed, escrow.Status)
}
