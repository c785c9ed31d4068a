package costing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartwatt/plan-advisor/internal/domain"
	"github.com/smartwatt/plan-advisor/internal/usage"
)

func flatProjection(monthlyKWH float64) usage.Projection {
	p := usage.Projection{
		StartMonth: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		MonthlyKWH: make([]float64, 12),
		Method:     usage.MethodMovingAverage,
		Confidence: 0.8,
	}
	for i := range p.MonthlyKWH {
		p.MonthlyKWH[i] = monthlyKWH
	}
	p.AnnualKWH = monthlyKWH * 12
	return p
}

func currentPlan(rateCents float64) domain.CurrentPlan {
	return domain.CurrentPlan{Plan: domain.Plan{
		ID:   "current",
		Name: "Current Standard",
		Rate: domain.FixedRate(rateCents),
	}}
}

func TestAnalyzeSavings(t *testing.T) {
	t.Run("Cheaper Fixed Plan Saves Double Digits", func(t *testing.T) {
		// 13,320 kWh/year at 13.8c versus 10.8c.
		candidate := domain.Plan{ID: "fixed-108", Rate: domain.FixedRate(10.8)}
		sa := AnalyzeSavings(currentPlan(13.8), candidate, flatProjection(1110))

		assert.InDelta(t, 1838.16, sa.CurrentAnnualCost, 0.01)
		assert.Greater(t, sa.AnnualSavings, 0.0)
		assert.Greater(t, sa.SavingsPercentage, 10.0)
	})

	t.Run("Breakdown Reconciles With Annual Total", func(t *testing.T) {
		candidate := domain.Plan{
			ID:            "tiered",
			Rate:          domain.TieredRate(domain.RateTier{UpToKWH: 600, RatePerKWH: 9}, domain.RateTier{UpToKWH: 0, RatePerKWH: 14}),
			MonthlyFee:    7.99,
			ConnectionFee: 25,
		}
		sa := AnalyzeSavings(currentPlan(12), candidate, flatProjection(834.7))

		require.Len(t, sa.MonthlyBreakdown, 12)
		var sum float64
		for _, mc := range sa.MonthlyBreakdown {
			sum += mc.TotalCost
		}
		assert.InDelta(t, sa.ProjectedAnnualCost, sum, 0.01)
	})

	t.Run("Connection Fee Charged Only In Month One", func(t *testing.T) {
		candidate := domain.Plan{ID: "p", Rate: domain.FixedRate(10), ConnectionFee: 50}
		sa := AnalyzeSavings(currentPlan(12), candidate, flatProjection(1000))

		assert.InDelta(t, 50, sa.MonthlyBreakdown[0].ConnectionFee, 0.001)
		for _, mc := range sa.MonthlyBreakdown[1:] {
			assert.Zero(t, mc.ConnectionFee)
		}
	})

	t.Run("Break Even Rounds Up", func(t *testing.T) {
		// $200 exit fee against $300/year savings: 200/(300/12) = 8 months.
		end := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
		current := domain.CurrentPlan{
			Plan: domain.Plan{
				ID:   "current",
				Rate: domain.FixedRate(10),
				EarlyTerminationFee: 200,
			},
			ContractEndDate: &end,
		}
		candidate := domain.Plan{ID: "cheap", Rate: domain.FixedRate(7.5)}
		sa := AnalyzeSavings(current, candidate, flatProjection(1000))

		assert.InDelta(t, 300, sa.AnnualSavings, 0.01)
		assert.InDelta(t, 200, sa.SwitchingCost, 0.001)
		require.NotNil(t, sa.BreakEvenMonths)
		assert.Equal(t, 8, *sa.BreakEvenMonths)
	})

	t.Run("No Switching Cost Means Zero Break Even", func(t *testing.T) {
		candidate := domain.Plan{ID: "free-switch", Rate: domain.FixedRate(10)}
		sa := AnalyzeSavings(currentPlan(12), candidate, flatProjection(1000))

		assert.Zero(t, sa.SwitchingCost)
		require.NotNil(t, sa.BreakEvenMonths)
		assert.Zero(t, *sa.BreakEvenMonths)
	})

	t.Run("Negative Savings Never Break Even", func(t *testing.T) {
		candidate := domain.Plan{ID: "pricey", Rate: domain.FixedRate(15), ConnectionFee: 30}
		sa := AnalyzeSavings(currentPlan(12), candidate, flatProjection(1000))

		assert.Less(t, sa.AnnualSavings, 0.0)
		assert.Nil(t, sa.BreakEvenMonths)
		assert.Contains(t, sa.Warnings, "this plan would cost more than the current plan")
	})

	t.Run("Variable Plan Gets Wider Uncertainty", func(t *testing.T) {
		variable := domain.Plan{ID: "var", Rate: domain.VariableRate(10)}
		fixed := domain.Plan{ID: "fix", Rate: domain.FixedRate(10)}

		vsa := AnalyzeSavings(currentPlan(12), variable, flatProjection(1000))
		fsa := AnalyzeSavings(currentPlan(12), fixed, flatProjection(1000))

		require.NotNil(t, vsa.Uncertainty)
		require.NotNil(t, fsa.Uncertainty)
		assert.InDelta(t, 10, vsa.Uncertainty.VolatilityPct, 0.001)
		assert.InDelta(t, 5, fsa.Uncertainty.VolatilityPct, 0.001)
		assert.InDelta(t, 1080, vsa.Uncertainty.LowAnnualCost, 0.01)
		assert.InDelta(t, 1320, vsa.Uncertainty.HighAnnualCost, 0.01)
	})

	t.Run("Indexed Plan Has The Widest Band", func(t *testing.T) {
		candidate := domain.Plan{ID: "idx", Rate: domain.IndexedRate(10)}
		sa := AnalyzeSavings(currentPlan(12), candidate, flatProjection(1000))

		require.NotNil(t, sa.Uncertainty)
		assert.InDelta(t, 15, sa.Uncertainty.VolatilityPct, 0.001)
	})

	t.Run("TCO Scales To Contract Length", func(t *testing.T) {
		candidate := domain.Plan{
			ID:                   "two-year",
			Rate:                 domain.FixedRate(10),
			ContractLengthMonths: 24,
			ConnectionFee:        40,
		}
		sa := AnalyzeSavings(currentPlan(12), candidate, flatProjection(1000))

		// 1200/year recurring * 2 years + 40 connection.
		assert.InDelta(t, 2440, sa.TotalCostOfOwnership, 0.01)
		assert.InDelta(t, 2880, sa.TCOCurrentPlan, 0.01)
	})

	t.Run("Month To Month Assumes Twelve Month Horizon", func(t *testing.T) {
		candidate := domain.Plan{ID: "mtm", Rate: domain.FixedRate(10)}
		sa := AnalyzeSavings(currentPlan(12), candidate, flatProjection(1000))

		assert.InDelta(t, 1200, sa.TotalCostOfOwnership, 0.01)
	})

	t.Run("High ETF And Marginal Savings Warn", func(t *testing.T) {
		candidate := domain.Plan{ID: "meh", Rate: domain.FixedRate(11.8), EarlyTerminationFee: 250}
		sa := AnalyzeSavings(currentPlan(12), candidate, flatProjection(1000))

		assert.NotEmpty(t, sa.Warnings)
		assert.Less(t, sa.SavingsPercentage, 5.0)
	})

	t.Run("Assumptions Mention Projected Usage", func(t *testing.T) {
		candidate := domain.Plan{ID: "p", Rate: domain.FixedRate(10)}
		sa := AnalyzeSavings(currentPlan(12), candidate, flatProjection(1000))

		assert.Contains(t, sa.Assumptions, "based on projected annual usage of 12000 kWh")
	})
}
