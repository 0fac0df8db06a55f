package escrow

import (
	"context"

	"github.com/vidiaspot/tradecore/config"
	"github.com/vidiaspot/tradecore/models"
)

// Decision is a resolver's verdict on a disputed escrow.
type Decision struct {
	Method  models.ResolutionMethod
	Outcome models.DisputeOutcome
	Notes   string
}

// Resolver validates dispute decisions and applies them through the
// state machine. Mediation may only settle disputes up to the direct
// limit; anything larger goes to arbitration or an on-chain contract.
type Resolver struct {
	machine *Machine
	cfg     config.TradingConfig
}

func NewResolver(machine *Machine, cfg config.TradingConfig) *Resolver {
	return &Resolver{machine: machine, cfg: cfg}
}

func (r *Resolver) validate(escrow *models.Escrow, decision Decision) error {
	switch decision.Outcome {
	case models.FavorBuyer, models.FavorSeller:
	default:
		return ErrOutcome
	}

	switch decision.Method {
	case models.Mediation:
		if escrow.Amount.GreaterThan(r.cfg.DisputeDirectLimit) {
			return ErrDirectLimit
		}
	case models.Arbitration, models.SmartContract:
	default:
		return ErrMethod
	}

	return nil
}

// Decide settles a disputed escrow. The decision is validated against
// the escrow before any funds move.
func (r *Resolver) Decide(ctx context.Context, escrowID uint64, decision Decision) (*models.Escrow, error) {
	escrow, err := r.machine.load(escrowID)
	if err != nil {
		return nil, err
	}

	if escrow.Status != models.EscrowDisputed {
		return nil, ErrInvalidTransition
	}

	if err := r.validate(escrow, decision); err != nil {
		return nil, err
	}

	return r.machine.ApplyResolution(ctx, escrowID, decision)
}
