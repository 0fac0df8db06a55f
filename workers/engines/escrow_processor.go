package engines

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vidiaspot/tradecore/config"
	"github.com/vidiaspot/tradecore/escrow"
	"github.com/vidiaspot/tradecore/models"
	"github.com/vidiaspot/tradecore/services/wallet_service"
)

type EscrowPayload struct {
	Action   string                  `json:"action"`
	EscrowID uint64                  `json:"escrow_id"`
	MemberID int64                   `json:"member_id,omitempty"`
	TxHash   string                  `json:"tx_hash,omitempty"`
	Amount   decimal.Decimal         `json:"amount,omitempty"`
	Notes    string                  `json:"notes,omitempty"`
	Reason   string                  `json:"reason,omitempty"`
	Evidence string                  `json:"evidence,omitempty"`
	Method   models.ResolutionMethod `json:"method,omitempty"`
	Outcome  models.DisputeOutcome   `json:"outcome,omitempty"`
}

// EscrowProcessorWorker consumes escrow commands off the broker and
// drives them through the state machine.
type EscrowProcessorWorker struct {
	Machine  *escrow.Machine
	Resolver *escrow.Resolver
}

func NewEscrowProcessorWorker() *EscrowProcessorWorker {
	wallet := wallet_service.NewClient()
	machine := escrow.NewMachine(config.DataBase, config.Trading, wallet, wallet, escrow.MQEventPublisher{})

	return &EscrowProcessorWorker{
		Machine:  machine,
		Resolver: escrow.NewResolver(machine, config.Trading),
	}
}

func (w *EscrowProcessorWorker) Process(payload []byte) error {
	var message EscrowPayload
	if err := json.Unmarshal(payload, &message); err != nil {
		return err
	}

	ctx := context.Background()

	var err error
	switch message.Action {
	case "fund":
		_, err = w.Machine.Fund(ctx, message.EscrowID, message.TxHash, message.Amount)
	case "release":
		_, err = w.Machine.Release(ctx, message.EscrowID, message.Notes)
	case "refund":
		_, err = w.Machine.Refund(ctx, message.EscrowID, message.Notes)
	case "dispute":
		_, err = w.Machine.OpenDispute(ctx, message.EscrowID, message.MemberID, message.Reason, message.Evidence)
	case "resolve":
		_, err = w.Resolver.Decide(ctx, message.EscrowID, escrow.Decision{
			Method:  message.Method,
			Outcome: message.Outcome,
			Notes:   message.Notes,
		})
	default:
		return fmt.Errorf("escrow_processor: unknown action %q", message.Action)
	}

	if err != nil {
		config.Logger.Errorf("escrow %d %s: %v", message.EscrowID, message.Action, err)
	}

	// State machine errors are verdicts, not broker failures; the
	// message is consumed either way.
	return nil
}
