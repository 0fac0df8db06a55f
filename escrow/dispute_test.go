package escrow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vidiaspot/tradecore/models"
)

func disputedEscrow(t *testing.T, machine *Machine, db *gorm.DB) *models.Escrow {
	t.Helper()

	escrow := fundEscrow(t, machine, db)

	disputed, err := machine.OpenDispute(context.Background(), escrow.ID, escrow.BuyerID, "item not received", "")
	require.NoError(t, err)

	return disputed
}

func TestResolveFavorBuyer(t *testing.T) {
	machine, db, ledger, _ := setupMachine(t)
	resolver := NewResolver(machine, testConfig())
	escrow := disputedEscrow(t, machine, db)

	resolved, err := resolver.Decide(context.Background(), escrow.ID, Decision{
		Method:  models.Mediation,
		Outcome: models.FavorBuyer,
		Notes:   "seller never shipped",
	})
	require.NoError(t, err)

	require.Equal(t, models.EscrowResolved, resolved.Status)
	require.Equal(t, models.FavorBuyer, resolved.DisputeOutcome)
	require.Equal(t, models.Mediation, resolved.ResolutionMethod)
	require.True(t, resolved.RefundedAt.Valid)
	require.False(t, resolved.ReleasedAt.Valid)
	require.Equal(t, []int64{escrow.BuyerID}, ledger.transfers)
}

func TestResolveFavorSeller(t *testing.T) {
	machine, db, ledger, _ := setupMachine(t)
	resolver := NewResolver(machine, testConfig())
	escrow := disputedEscrow(t, machine, db)

	resolved, err := resolver.Decide(context.Background(), escrow.ID, Decision{
		Method:  models.Arbitration,
		Outcome: models.FavorSeller,
	})
	require.NoError(t, err)

	require.Equal(t, models.EscrowResolved, resolved.Status)
	require.True(t, resolved.ReleasedAt.Valid)
	require.False(t, resolved.RefundedAt.Valid)
	require.Equal(t, []int64{escrow.SellerID}, ledger.transfers)
}

func TestMediationLimitedByAmount(t *testing.T) {
	machine, db, _, _ := setupMachine(t)
	resolver := NewResolver(machine, testConfig())
	escrow := disputedEscrow(t, machine, db)

	require.NoError(t, db.Model(&models.Escrow{}).
		Where("id = ?", escrow.ID).
		Update("amount", d("5000")).Error)

	_, err := resolver.Decide(context.Background(), escrow.ID, Decision{
		Method:  models.Mediation,
		Outcome: models.FavorBuyer,
	})
	require.ErrorIs(t, err, ErrDirectLimit)

	// Arbitration has no amount ceiling.
	_, err = resolver.Decide(context.Background(), escrow.ID, Decision{
		Method:  models.Arbitration,
		Outcome: models.FavorBuyer,
	})
	require.NoError(t, err)
}

func TestResolveRejectsBadDecision(t *testing.T) {
	machine, db, _, _ := setupMachine(t)
	resolver := NewResolver(machine, testConfig())
	escrow := disputedEscrow(t, machine, db)

	_, err := resolver.Decide(context.Background(), escrow.ID, Decision{
		Method:  models.Mediation,
		Outcome: "split",
	})
	require.ErrorIs(t, err, ErrOutcome)

	_, err = resolver.Decide(context.Background(), escrow.ID, Decision{
		Method:  "coin_flip",
		Outcome: models.FavorBuyer,
	})
	require.ErrorIs(t, err, ErrMethod)
}

func TestResolveRequiresDispute(t *testing.T) {
	machine, db, _, _ := setupMachine(t)
	resolver := NewResolver(machine, testConfig())
	escrow := fundEscrow(t, machine, db)

	_, err := resolver.Decide(context.Background(), escrow.ID, Decision{
		Method:  models.Mediation,
		Outcome: models.FavorBuyer,
	})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestResolvedEscrowStaysResolved(t *testing.T) {
	machine, db, _, _ := setupMachine(t)
	resolver := NewResolver(machine, testConfig())
	escrow := disputedEscrow(t, machine, db)

	_, err := resolver.Decide(context.Background(), escrow.ID, Decision{
		Method:  models.Mediation,
		Outcome: models.FavorBuyer,
	})
	require.NoError(t, err)

	_, err = resolver.Decide(context.Background(), escrow.ID, Decision{
		Method:  models.Mediation,
		Outcome: models.FavorSeller,
	})
	require.ErrorIs(t, err, ErrInvalidTransition)
}
