package scoring

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
	}
	for i := range p.MonthlyKWH {
		p.MonthlyKWH[i] = monthlyKWH
	}
	p.AnnualKWH = monthlyKWH * 12
	return p
}

func fixedPlan(id string, rateCents float64) domain.Plan {
	return domain.Plan{ID: id, Name: id, Rate: domain.FixedRate(rateCents), SupplierRating: 4}
}

func TestRank(t *testing.T) {
	prefs := domain.DefaultPreferences()
	proj := flatProjection(1000)

	t.Run("Cheapest Plan Scores Highest On Cost", func(t *testing.T) {
		ranked := Rank([]domain.Plan{fixedPlan("a", 14), fixedPlan("b", 9), fixedPlan("c", 12)}, proj, prefs, 3)

		require.Len(t, ranked, 3)
		assert.Equal(t, "b", ranked[0].ID)
		assert.InDelta(t, 100, ranked[0].Scores.Cost, 0.001)
		assert.InDelta(t, 0, findPlan(t, ranked, "a").Scores.Cost, 0.001)
	})

	t.Run("Ranks Are Sequential", func(t *testing.T) {
		ranked := Rank([]domain.Plan{fixedPlan("a", 14), fixedPlan("b", 9)}, proj, prefs, 3)
		require.Len(t, ranked, 2)
		assert.Equal(t, 1, ranked[0].Rank)
		assert.Equal(t, 2, ranked[1].Rank)
	})

	t.Run("Identical Inputs Rank Identically", func(t *testing.T) {
		plans := []domain.Plan{fixedPlan("a", 12), fixedPlan("b", 10), fixedPlan("c", 11)}
		first := Rank(plans, proj, prefs, 3)
		second := Rank(plans, proj, prefs, 3)
		assert.Equal(t, first, second)
	})

	t.Run("Score Tie Breaks On Lower Cost", func(t *testing.T) {
		// Cost weight zero: both plans get identical composites, so the
		// cheaper plan must come first.
		tiePrefs := domain.Preferences{RenewablePriority: 50, RatingPriority: 50}
		a := fixedPlan("a", 14)
		b := fixedPlan("b", 9)
		a.RenewablePercentage, b.RenewablePercentage = 50, 50

		ranked := Rank([]domain.Plan{a, b}, proj, tiePrefs, 3)
		require.Len(t, ranked, 2)
		assert.InDelta(t, ranked[0].Scores.Composite, ranked[1].Scores.Composite, 0.0001)
		assert.Equal(t, "b", ranked[0].ID)
	})

	t.Run("Full Tie Breaks On Plan ID", func(t *testing.T) {
		ranked := Rank([]domain.Plan{fixedPlan("zeta", 10), fixedPlan("alpha", 10)}, proj, prefs, 3)
		require.Len(t, ranked, 2)
		assert.Equal(t, "alpha", ranked[0].ID)
	})

	t.Run("Truncates To Top N", func(t *testing.T) {
		plans := []domain.Plan{
			fixedPlan("a", 10), fixedPlan("b", 11), fixedPlan("c", 12),
			fixedPlan("d", 13), fixedPlan("e", 14),
		}
		ranked := Rank(plans, proj, prefs, 3)
		assert.Len(t, ranked, 3)
	})

	t.Run("Defaults Top N When Unset", func(t *testing.T) {
		plans := []domain.Plan{
			fixedPlan("a", 10), fixedPlan("b", 11), fixedPlan("c", 12), fixedPlan("d", 13),
		}
		assert.Len(t, Rank(plans, proj, prefs, 0), DefaultTopN)
	})

	t.Run("Fewer Candidates Than N", func(t *testing.T) {
		assert.Len(t, Rank([]domain.Plan{fixedPlan("only", 10)}, proj, prefs, 3), 1)
	})

	t.Run("Empty Candidate Set", func(t *testing.T) {
		assert.Empty(t, Rank(nil, proj, prefs, 3))
	})

	t.Run("Flexibility Rewards Short Contracts", func(t *testing.T) {
		short := fixedPlan("short", 10)
		long := fixedPlan("long", 10)
		long.ContractLengthMonths = 36
		long.EarlyTerminationFee = 300

		ranked := Rank([]domain.Plan{short, long}, proj, prefs, 3)
		shortScore := findPlan(t, ranked, "short").Scores.Flexibility
		longScore := findPlan(t, ranked, "long").Scores.Flexibility
		assert.InDelta(t, 100, shortScore, 0.001)
		assert.InDelta(t, 0, longScore, 0.001)
	})

	t.Run("Renewable And Rating Map Directly", func(t *testing.T) {
		p := fixedPlan("p", 10)
		p.RenewablePercentage = 75
		p.SupplierRating = 2.5

		ranked := Rank([]domain.Plan{p}, proj, prefs, 1)
		assert.InDelta(t, 75, ranked[0].Scores.Renewable, 0.001)
		assert.InDelta(t, 50, ranked[0].Scores.Rating, 0.001)
	})

	t.Run("Zero Weights Fall Back To Equal", func(t *testing.T) {
		ranked := Rank([]domain.Plan{fixedPlan("a", 10)}, proj, domain.Preferences{}, 1)
		require.Len(t, ranked, 1)
		assert.Greater(t, ranked[0].Scores.Composite, 0.0)
	})
}

func findPlan(t *testing.T, ranked []RankedPlan, id string) RankedPlan {
	t.Helper()
	for _, p := range ranked {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("plan %s not in ranking", id)
	return RankedPlan{}
}
