// Package scoring ranks candidate plans by a preference-weighted composite of
// cost, flexibility, renewable content, and supplier rating.
package scoring

import (
	"sort"

	"github.com/smartwatt/plan-advisor/internal/costing"
	"github.com/smartwatt/plan-advisor/internal/domain"
	"github.com/smartwatt/plan-advisor/internal/usage"
)

// DefaultTopN caps the shortlist when the caller does not ask for a size.
const DefaultTopN = 3

// Scores are the per-factor scores of one plan, each normalized to [0,100].
type Scores struct {
	Cost        float64 `json:"cost_score"`
	Flexibility float64 `json:"flexibility_score"`
	Renewable   float64 `json:"renewable_score"`
	Rating      float64 `json:"rating_score"`
	Composite   float64 `json:"composite_score"`
}

// RankedPlan is a candidate plan with its computed scores and rank.
type RankedPlan struct {
	domain.Plan
	Scores              Scores  `json:"scores"`
	ProjectedAnnualCost float64 `json:"projected_annual_cost"`
	Rank                int     `json:"rank"`
}

// Rank scores every candidate against the usage projection and returns the
// top-N plans ordered by composite score. Ties break on lower projected
// annual cost, then plan ID, so identical inputs always produce identical
// output. An empty candidate set yields an empty list, never an error.
func Rank(candidates []domain.Plan, proj usage.Projection, prefs domain.Preferences, topN int) []RankedPlan {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if len(candidates) == 0 {
		return nil
	}

	ranked := make([]RankedPlan, 0, len(candidates))
	minCost, maxCost := 0.0, 0.0
	for i, c := range candidates {
		annual := costing.AnnualCost(proj.MonthlyKWH, c).InexactFloat64()
		if i == 0 || annual < minCost {
			minCost = annual
		}
		if i == 0 || annual > maxCost {
			maxCost = annual
		}
		ranked = append(ranked, RankedPlan{Plan: c, ProjectedAnnualCost: annual})
	}

	for i := range ranked {
		ranked[i].Scores = score(ranked[i].Plan, ranked[i].ProjectedAnnualCost, minCost, maxCost, prefs)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Scores.Composite != ranked[j].Scores.Composite {
			return ranked[i].Scores.Composite > ranked[j].Scores.Composite
		}
		if ranked[i].ProjectedAnnualCost != ranked[j].ProjectedAnnualCost {
			return ranked[i].ProjectedAnnualCost < ranked[j].ProjectedAnnualCost
		}
		return ranked[i].ID < ranked[j].ID
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// score computes the four sub-scores and the preference-weighted composite.
func score(plan domain.Plan, annualCost, minCost, maxCost float64, prefs domain.Preferences) Scores {
	s := Scores{
		Cost:        costScore(annualCost, minCost, maxCost),
		Flexibility: flexibilityScore(plan),
		Renewable:   clampScore(plan.RenewablePercentage),
		Rating:      clampScore(plan.SupplierRating / 5 * 100),
	}

	weight := prefs.Sum()
	if weight <= 0 {
		prefs = domain.Preferences{CostPriority: 25, FlexibilityPriority: 25, RenewablePriority: 25, RatingPriority: 25}
		weight = 100
	}
	s.Composite = clampScore((s.Cost*prefs.CostPriority +
		s.Flexibility*prefs.FlexibilityPriority +
		s.Renewable*prefs.RenewablePriority +
		s.Rating*prefs.RatingPriority) / weight)
	return s
}

// costScore is inverse to annual cost relative to the candidate set: the
// cheapest plan scores 100, the priciest 0.
func costScore(annual, min, max float64) float64 {
	if max <= min {
		return 100
	}
	return clampScore((max - annual) / (max - min) * 100)
}

// flexibilityScore rewards short contracts and low termination fees. A
// month-to-month plan with no fee scores 100; 36+ month contracts and fees of
// $300 or more bottom out their components.
func flexibilityScore(plan domain.Plan) float64 {
	contract := 100 - float64(plan.ContractLengthMonths)*(100.0/36)
	if contract < 0 {
		contract = 0
	}
	etf := 100 - plan.EarlyTerminationFee/3
	if etf < 0 {
		etf = 0
	}
	return clampScore(0.6*contract + 0.4*etf)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
