package concerns

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLessThanOrEqTo(t *testing.T) {
	v := PrecisionValidator{}

	if !v.LessThanOrEqTo(decimal.RequireFromString("1.25"), 2) {
		t.Fatal("1.25 fits 2 decimals")
	}
	if v.LessThanOrEqTo(decimal.RequireFromString("1.255"), 2) {
		t.Fatal("1.255 does not fit 2 decimals")
	}
}

func TestMultipleOf(t *testing.T) {
	v := PrecisionValidator{}

	if !v.MultipleOf(decimal.RequireFromString("30000.25"), decimal.RequireFromString("0.01")) {
		t.Fatal("expected multiple of tick")
	}
	if v.MultipleOf(decimal.RequireFromString("30000.005"), decimal.RequireFromString("0.01")) {
		t.Fatal("expected off-tick to fail")
	}
	if !v.MultipleOf(decimal.RequireFromString("123.456"), decimal.Zero) {
		t.Fatal("zero step disables the check")
	}
}
