package costing

import (
	"fmt"
	"sort"

	"github.com/smartwatt/plan-advisor/internal/domain"
	"github.com/smartwatt/plan-advisor/internal/usage"
)

// Comparison categories.
const (
	CategoryLowestCost       = "lowest_cost"
	CategoryHighestRenewable = "highest_renewable"
	CategoryMostFlexible     = "most_flexible"
	CategoryHighestRated     = "highest_rated"
	CategoryBestValue        = "best_value"
)

// CategoryWinner names the single best plan for one comparison category.
type CategoryWinner struct {
	Category string  `json:"category"`
	PlanID   string  `json:"plan_id"`
	Detail   string  `json:"detail"`
	Value    float64 `json:"value"`
}

// TradeOffNote flags a tension between two desirable plan attributes.
type TradeOffNote struct {
	Severity        string   `json:"severity"`
	Message         string   `json:"message"`
	AffectedPlanIDs []string `json:"affected_plan_ids"`
}

// YearCost is one plan's cost for one projection year.
type YearCost struct {
	PlanID string  `json:"plan_id"`
	Year   int     `json:"year"`
	Cost   float64 `json:"cost"`
	Note   string  `json:"note,omitempty"`
}

// Comparison is the side-by-side view across the shortlist and the current
// plan.
type Comparison struct {
	Categories []CategoryWinner  `json:"categories"`
	TradeOffs  []TradeOffNote    `json:"trade_off_notes,omitempty"`
	MultiYear  []YearCost        `json:"multi_year_projection"`
	Savings    []SavingsAnalysis `json:"savings"`
}

// comparable pairs a plan with its savings analysis; the current plan
// participates with a zero-savings entry.
type comparablePlan struct {
	plan      domain.Plan
	annual    float64
	savings   float64
	isCurrent bool
}

// Compare assembles category winners, trade-off notes, and a 3-year cost
// projection for the candidate shortlist plus the current plan.
func Compare(candidates []domain.Plan, current domain.CurrentPlan, proj usage.Projection) Comparison {
	var out Comparison

	all := []comparablePlan{{
		plan:      current.Plan,
		annual:    AnnualCost(proj.MonthlyKWH, current.Plan).InexactFloat64(),
		isCurrent: true,
	}}
	for _, c := range candidates {
		sa := AnalyzeSavings(current, c, proj)
		out.Savings = append(out.Savings, sa)
		all = append(all, comparablePlan{
			plan:    c,
			annual:  sa.CurrentAnnualCost - sa.AnnualSavings,
			savings: sa.AnnualSavings,
		})
	}

	out.Categories = categoryWinners(all)
	out.TradeOffs = tradeOffNotes(all)
	out.MultiYear = multiYear(all)
	return out
}

func categoryWinners(all []comparablePlan) []CategoryWinner {
	var winners []CategoryWinner

	if w, ok := pickBest(all, func(a, b comparablePlan) bool {
		if a.annual != b.annual {
			return a.annual < b.annual
		}
		return a.plan.ID < b.plan.ID
	}); ok {
		winners = append(winners, CategoryWinner{
			Category: CategoryLowestCost,
			PlanID:   w.plan.ID,
			Detail:   fmt.Sprintf("$%.2f projected annual cost", w.annual),
			Value:    w.annual,
		})
	}

	if w, ok := pickBest(all, func(a, b comparablePlan) bool {
		if a.plan.RenewablePercentage != b.plan.RenewablePercentage {
			return a.plan.RenewablePercentage > b.plan.RenewablePercentage
		}
		return a.plan.ID < b.plan.ID
	}); ok {
		winners = append(winners, CategoryWinner{
			Category: CategoryHighestRenewable,
			PlanID:   w.plan.ID,
			Detail:   fmt.Sprintf("%.0f%% renewable content", w.plan.RenewablePercentage),
			Value:    w.plan.RenewablePercentage,
		})
	}

	if w, ok := pickBest(all, func(a, b comparablePlan) bool {
		if a.plan.ContractLengthMonths != b.plan.ContractLengthMonths {
			return a.plan.ContractLengthMonths < b.plan.ContractLengthMonths
		}
		if a.plan.EarlyTerminationFee != b.plan.EarlyTerminationFee {
			return a.plan.EarlyTerminationFee < b.plan.EarlyTerminationFee
		}
		return a.plan.ID < b.plan.ID
	}); ok {
		winners = append(winners, CategoryWinner{
			Category: CategoryMostFlexible,
			PlanID:   w.plan.ID,
			Detail:   fmt.Sprintf("%d-month contract, $%.2f termination fee", w.plan.ContractLengthMonths, w.plan.EarlyTerminationFee),
			Value:    float64(w.plan.ContractLengthMonths),
		})
	}

	if w, ok := pickBest(all, func(a, b comparablePlan) bool {
		if a.plan.SupplierRating != b.plan.SupplierRating {
			return a.plan.SupplierRating > b.plan.SupplierRating
		}
		return a.plan.ID < b.plan.ID
	}); ok {
		winners = append(winners, CategoryWinner{
			Category: CategoryHighestRated,
			PlanID:   w.plan.ID,
			Detail:   fmt.Sprintf("supplier rated %.1f/5", w.plan.SupplierRating),
			Value:    w.plan.SupplierRating,
		})
	}

	// Best value considers recommended plans only, never the current plan.
	var recommended []comparablePlan
	for _, p := range all {
		if !p.isCurrent {
			recommended = append(recommended, p)
		}
	}
	if w, ok := pickBest(recommended, func(a, b comparablePlan) bool {
		if a.savings != b.savings {
			return a.savings > b.savings
		}
		av := a.savings - a.plan.EarlyTerminationFee/12
		bv := b.savings - b.plan.EarlyTerminationFee/12
		if av != bv {
			return av > bv
		}
		return a.plan.ID < b.plan.ID
	}); ok {
		winners = append(winners, CategoryWinner{
			Category: CategoryBestValue,
			PlanID:   w.plan.ID,
			Detail:   fmt.Sprintf("$%.2f annual savings", w.savings),
			Value:    w.savings,
		})
	}
	return winners
}

func pickBest(plans []comparablePlan, less func(a, b comparablePlan) bool) (comparablePlan, bool) {
	if len(plans) == 0 {
		return comparablePlan{}, false
	}
	sorted := make([]comparablePlan, len(plans))
	copy(sorted, plans)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	return sorted[0], true
}

// tradeOffNotes runs a fixed set of pairwise heuristics: the cheapest plan
// locking the customer into a long contract, the cheapest plan lagging far
// behind on renewables, and any plan carrying a steep termination fee.
func tradeOffNotes(all []comparablePlan) []TradeOffNote {
	var notes []TradeOffNote

	cheapest, ok := pickBest(all, func(a, b comparablePlan) bool { return a.annual < b.annual })
	if !ok {
		return nil
	}

	if cheapest.plan.ContractLengthMonths >= 24 {
		notes = append(notes, TradeOffNote{
			Severity:        "warning",
			Message:         fmt.Sprintf("the cheapest plan locks in a %d-month contract", cheapest.plan.ContractLengthMonths),
			AffectedPlanIDs: []string{cheapest.plan.ID},
		})
	}

	greenest, _ := pickBest(all, func(a, b comparablePlan) bool {
		return a.plan.RenewablePercentage > b.plan.RenewablePercentage
	})
	if greenest.plan.RenewablePercentage-cheapest.plan.RenewablePercentage > 30 {
		notes = append(notes, TradeOffNote{
			Severity: "info",
			Message: fmt.Sprintf("the cheapest plan has %.0f%% renewable content versus %.0f%% on the greenest option",
				cheapest.plan.RenewablePercentage, greenest.plan.RenewablePercentage),
			AffectedPlanIDs: []string{cheapest.plan.ID, greenest.plan.ID},
		})
	}

	var highETF []string
	for _, p := range all {
		if !p.isCurrent && p.plan.EarlyTerminationFee > highETFThreshold {
			highETF = append(highETF, p.plan.ID)
		}
	}
	if len(highETF) > 0 {
		sort.Strings(highETF)
		notes = append(notes, TradeOffNote{
			Severity:        "warning",
			Message:         fmt.Sprintf("%d plan(s) carry an early termination fee above $%.0f", len(highETF), highETFThreshold),
			AffectedPlanIDs: highETF,
		})
	}
	return notes
}

// multiYear projects each plan's cost over three years. Costs are assumed flat
// except that year 1 carries the connection fee, and years past the contract
// length are annotated as renewals.
func multiYear(all []comparablePlan) []YearCost {
	var out []YearCost
	for year := 1; year <= 3; year++ {
		for _, p := range all {
			yc := YearCost{PlanID: p.plan.ID, Year: year, Cost: p.annual}
			if year == 1 && !p.isCurrent {
				yc.Cost += p.plan.ConnectionFee
			}
			if p.plan.ContractLengthMonths > 0 && year*12 > p.plan.ContractLengthMonths {
				yc.Note = "contract renewed (rates may change)"
			}
			out = append(out, yc)
		}
	}
	return out
}
