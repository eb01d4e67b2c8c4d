// Package valuation implements classic intrinsic-value formulas and
// dividend yield metrics for held positions.
package valuation

import "math"

const (
	// bazinMinimumYield is the 6% yield Décio Bazin required of a stock.
	bazinMinimumYield = 0.06

	// grahamMultiplier is Graham's 22.5 ceiling (15 P/E times 1.5 P/B).
	grahamMultiplier = 22.5

	// earningsMultiple is the plain 15x earnings fair-price multiple.
	earningsMultiple = 15.0
)

// GrahamNumber returns sqrt(22.5 * EPS * BVPS). The formula is only
// defined when both inputs are positive; ok reports whether it applies.
func GrahamNumber(eps, bvps float64) (float64, bool) {
	if eps <= 0 || bvps <= 0 {
		return 0, false
	}
	return math.Sqrt(grahamMultiplier * eps * bvps), true
}

// BazinValue returns the price at which the dividend per share yields 6%.
func BazinValue(dps float64) (float64, bool) {
	if dps <= 0 {
		return 0, false
	}
	return dps / bazinMinimumYield, true
}

// EarningsMultiple returns the 15x earnings fair price.
func EarningsMultiple(eps float64) (float64, bool) {
	if eps <= 0 {
		return 0, false
	}
	return eps * earningsMultiple, true
}

// Yield returns dps/basis as a percentage, or 0 when basis is not positive.
func Yield(dps, basis float64) float64 {
	if basis <= 0 {
		return 0
	}
	return dps / basis * 100
}
