package escrow

import "errors"

var (
	// ErrNotFound is returned when the escrow or order does not exist.
	ErrNotFound = errors.New("escrow.record.not_found")

	// ErrAlreadyInState is returned when the operation asks for the state
	// the escrow is already in and the operation is not idempotent.
	ErrAlreadyInState = errors.New("escrow.transition.already_in_state")

	// ErrInvalidTransition is returned when the requested transition is
	// not part of the state machine, including any move off a frozen
	// record.
	ErrInvalidTransition = errors.New("escrow.transition.invalid")

	// ErrPrecondition is returned when the guarded update finds the row
	// changed under us; the caller reloads and retries.
	ErrPrecondition = errors.New("escrow.transition.precondition_failed")

	// ErrIntegrity is returned when both terminal timestamps are set.
	// The record is surfaced for manual intervention, never repaired.
	ErrIntegrity = errors.New("escrow.record.integrity_violated")

	ErrAmountMismatch = errors.New("escrow.fund.amount_mismatch")
	ErrNotParty       = errors.New("escrow.dispute.not_a_party")
	ErrEmptyReason    = errors.New("escrow.dispute.empty_reason")
	ErrOutcome        = errors.New("escrow.resolution.invalid_outcome")
	ErrMethod         = errors.New("escrow.resolution.invalid_method")
	ErrDirectLimit    = errors.New("escrow.resolution.over_direct_limit")
	ErrOrderNotOpen   = errors.New("p2p.order.not_open")
	ErrSelfTrade      = errors.New("p2p.order.self_trade")
	ErrAmountTooSmall = errors.New("p2p.order.amount_too_small")
	ErrInvalidPrice   = errors.New("p2p.order.invalid_price")
	ErrCurrency       = errors.New("p2p.order.invalid_currency")
)
