package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var Trading TradingConfig

// TradingConfig carries the settlement policy constants. It is built once
// and passed into the escrow components at construction instead of being
// read from the environment inside the core.
type TradingConfig struct {
	// AutoReleaseWindow is how long a funded escrow waits before the
	// sweep pays it out to the seller. The timer is never reset.
	AutoReleaseWindow time.Duration
	// DisputeDirectLimit is the maximum escrow amount a mediator may
	// resolve directly; larger disputes require arbitration.
	DisputeDirectLimit decimal.Decimal
	MinEscrowAmount    decimal.Decimal
	// P2pFeeRate is the platform fee charged on an offer's total.
	P2pFeeRate decimal.Decimal
}

func NewTradingConfig() TradingConfig {
	cfg := TradingConfig{
		AutoReleaseWindow:  24 * time.Hour,
		DisputeDirectLimit: decimal.NewFromInt(1000),
		MinEscrowAmount:    decimal.NewFromInt(1),
		P2pFeeRate:         decimal.NewFromFloat(0.01),
	}

	if hours, err := strconv.Atoi(os.Getenv("ESCROW_AUTO_RELEASE_HOURS")); err == nil && hours > 0 {
		cfg.AutoReleaseWindow = time.Duration(hours) * time.Hour
	}
	if limit, err := decimal.NewFromString(os.Getenv("DISPUTE_DIRECT_LIMIT")); err == nil && limit.IsPositive() {
		cfg.DisputeDirectLimit = limit
	}
	if min, err := decimal.NewFromString(os.Getenv("MIN_ESCROW_AMOUNT")); err == nil && min.IsPositive() {
		cfg.MinEscrowAmount = min
	}
	if rate, err := decimal.NewFromString(os.Getenv("P2P_FEE_RATE")); err == nil && !rate.IsNegative() {
		cfg.P2pFeeRate = rate
	}

	return cfg
}
