package concerns

import (
	"github.com/shopspring/decimal"
)

type PrecisionValidator struct {
}

func (p PrecisionValidator) LessThanOrEqTo(value decimal.Decimal, precision int32) bool {
	return value.Equal(value.Round(precision))
}

// MultipleOf reports whether value is an exact multiple of step. A zero
// step disables the check.
func (p PrecisionValidator) MultipleOf(value decimal.Decimal, step decimal.Decimal) bool {
	if !step.IsPositive() {
		return true
	}

	return value.Mod(step).IsZero()
}
