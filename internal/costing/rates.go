// Package costing holds the tariff cost model and the savings math built on
// it. All currency arithmetic runs on decimals and is rounded to cents at
// period boundaries, so annual totals reconcile exactly with their monthly
// breakdowns.
package costing

import (
	"github.com/shopspring/decimal"

	"github.com/smartwatt/plan-advisor/internal/domain"
)

var cents100 = decimal.NewFromInt(100)

// EnergyCost returns the energy charge in dollars for one billing period of
// kwh against the given rate structure. Pure and stateless.
//
// Time-of-use is priced at the plain mean of peak and off-peak rates; no
// hourly load curve is modeled. Variable and indexed rates are priced at
// their current base rate; their uncertainty is reported separately on the
// savings analysis, not baked into the point estimate.
func EnergyCost(kwh float64, rate domain.RateStructure) decimal.Decimal {
	k := decimal.NewFromFloat(kwh)
	switch rate.Kind {
	case domain.RateTiered:
		return tieredCost(k, rate.Tiers)
	case domain.RateTimeOfUse:
		mean := decimal.NewFromFloat(rate.PeakRate).
			Add(decimal.NewFromFloat(rate.OffPeakRate)).
			Div(decimal.NewFromInt(2))
		return k.Mul(mean).Div(cents100)
	default:
		return k.Mul(decimal.NewFromFloat(rate.RatePerKWH)).Div(cents100)
	}
}

// tieredCost walks the tiers in ascending order, consuming kwh against each
// tier's capacity. The final tier is unbounded (UpToKWH == 0).
func tieredCost(kwh decimal.Decimal, tiers []domain.RateTier) decimal.Decimal {
	total := decimal.Zero
	remaining := kwh
	var floor decimal.Decimal

	for _, t := range tiers {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		inTier := remaining
		if t.UpToKWH > 0 {
			capacity := decimal.NewFromFloat(t.UpToKWH).Sub(floor)
			if inTier.GreaterThan(capacity) {
				inTier = capacity
			}
			floor = decimal.NewFromFloat(t.UpToKWH)
		}
		total = total.Add(inTier.Mul(decimal.NewFromFloat(t.RatePerKWH)).Div(cents100))
		remaining = remaining.Sub(inTier)
	}
	return total
}

// MonthCost is the rounded dollar cost of one billing period: energy charge
// plus the plan's monthly fee.
func MonthCost(kwh float64, plan domain.Plan) decimal.Decimal {
	return EnergyCost(kwh, plan.Rate).
		Add(decimal.NewFromFloat(plan.MonthlyFee)).
		Round(2)
}

// AnnualCost sums MonthCost over a 12-month kWh projection. One-time fees are
// excluded; they belong to switching cost and TCO.
func AnnualCost(monthlyKWH []float64, plan domain.Plan) decimal.Decimal {
	total := decimal.Zero
	for _, kwh := range monthlyKWH {
		total = total.Add(MonthCost(kwh, plan))
	}
	return total
}
