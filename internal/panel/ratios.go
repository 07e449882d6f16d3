package panel

import "math"

// ratioBound is the admissible range of one derived ratio. Values outside
// the range are coerced to missing unless Clip is set, in which case they
// are clamped to the boundary instead. Only a small explicit list of
// series is clipped; everything else is coerced.
type ratioBound struct {
	Lower, Upper float64
	Clip         bool
}

// ratioBounds fixes the validity rules per ratio column.
var ratioBounds = map[string]ratioBound{
	"leverage":      {Lower: 0, Upper: 1},
	"noncore_ratio": {Lower: 0, Upper: 1},
	"liquid_ratio": {Lower: 0, Upper: 1},
	// Surplus over assets is negative for undercapitalised banks; only
	// implausible magnitudes are coerced away.
	"surplus_ratio": {Lower: -1, Upper: 1},
	// Income over assets can legitimately run negative in a failure
	// year; it is clipped rather than coerced so a catastrophic loss
	// stays in sample at the boundary.
	"income_ratio": {Lower: -1, Upper: 1, Clip: true},
}

// ComputeRatios fills the derived ratio fields of an observation from its
// levels, then applies the bounds rules. A ratio whose numerator or
// denominator is missing, or whose denominator is non-positive, is
// missing.
func ComputeRatios(o *Observation) {
	o.Leverage = safeRatio(o.Equity, o.Assets)
	o.NoncoreRatio = safeRatio(o.Noncore, o.Deposits)
	o.IncomeRatio = safeRatio(o.NetIncome, o.Assets)
	o.LiquidRatio = safeRatio(o.LiquidAssets, o.Assets)
	surplus := o.Equity - 0.1*o.Assets
	o.SurplusRatio = safeRatio(surplus, o.Assets)

	for name, b := range ratioBounds {
		v, _ := columnValue(o, name)
		setColumn(o, name, applyBound(v, b))
	}
}

func safeRatio(num, den float64) float64 {
	if math.IsNaN(num) || math.IsNaN(den) || den <= 0 {
		return math.NaN()
	}
	return num / den
}

func applyBound(v float64, b ratioBound) float64 {
	if math.IsNaN(v) {
		return v
	}
	if v < b.Lower {
		if b.Clip {
			return b.Lower
		}
		return math.NaN()
	}
	if v > b.Upper {
		if b.Clip {
			return b.Upper
		}
		return math.NaN()
	}
	return v
}
