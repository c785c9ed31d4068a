package costing

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartwatt/plan-advisor/internal/domain"
	"github.com/smartwatt/plan-advisor/internal/usage"
)

// Warning thresholds for the savings analysis.
const (
	highETFThreshold   = 150.0
	marginalSavingsPct = 5.0
	lowProjectionConf  = 0.5
)

// MonthlyCost is one month of a plan's cost breakdown, in dollars.
type MonthlyCost struct {
	Month         time.Time `json:"month"`
	KWH           float64   `json:"kwh"`
	EnergyCost    float64   `json:"energy_cost"`
	MonthlyFee    float64   `json:"monthly_fee"`
	ConnectionFee float64   `json:"connection_fee"`
	TotalCost     float64   `json:"total_cost"`
}

// UncertaintyRange brackets the projected annual cost of a plan whose rate can
// move. The volatility figures are a plain heuristic, not a market model.
type UncertaintyRange struct {
	LowAnnualCost  float64 `json:"low_annual_cost"`
	HighAnnualCost float64 `json:"high_annual_cost"`
	VolatilityPct  float64 `json:"volatility_pct"`
}

// SavingsAnalysis is the full cost comparison of one candidate plan against
// the customer's current plan over the projected 12 months.
type SavingsAnalysis struct {
	PlanID                    string            `json:"plan_id"`
	ProjectedAnnualCost       float64           `json:"projected_annual_cost"`
	CurrentAnnualCost         float64           `json:"current_annual_cost"`
	AnnualSavings             float64           `json:"annual_savings"`
	SavingsPercentage         float64           `json:"savings_percentage"`
	MonthlyBreakdown          []MonthlyCost     `json:"monthly_breakdown"`
	TotalCostOfOwnership      float64           `json:"total_cost_of_ownership"`
	TCOCurrentPlan            float64           `json:"tco_current_plan"`
	BreakEvenMonths           *int              `json:"break_even_months,omitempty"`
	SwitchingCost             float64           `json:"switching_cost"`
	CumulativeSavings12Months float64           `json:"cumulative_savings_12_months"`
	Uncertainty               *UncertaintyRange `json:"uncertainty_range,omitempty"`
	Assumptions               []string          `json:"assumptions"`
	Warnings                  []string          `json:"warnings,omitempty"`
}

// AnalyzeSavings builds the 12-month cost breakdown for the candidate plan
// against the projection and derives savings, TCO and break-even.
//
// The candidate's connection fee is charged once, in month 1 of the breakdown,
// and is counted toward switching cost rather than recurring savings, so it is
// never double-counted against break-even. Switching cost additionally carries
// the current plan's early termination fee while its contract runs.
func AnalyzeSavings(current domain.CurrentPlan, candidate domain.Plan, proj usage.Projection) SavingsAnalysis {
	out := SavingsAnalysis{PlanID: candidate.ID}

	recurring := decimal.Zero
	projected := decimal.Zero
	for i, kwh := range proj.MonthlyKWH {
		energy := EnergyCost(kwh, candidate.Rate).Round(2)
		mc := MonthlyCost{
			Month:      proj.StartMonth.AddDate(0, i, 0),
			KWH:        kwh,
			EnergyCost: energy.InexactFloat64(),
			MonthlyFee: candidate.MonthlyFee,
		}
		total := energy.Add(decimal.NewFromFloat(candidate.MonthlyFee))
		if i == 0 {
			mc.ConnectionFee = candidate.ConnectionFee
			total = total.Add(decimal.NewFromFloat(candidate.ConnectionFee))
		}
		total = total.Round(2)
		mc.TotalCost = total.InexactFloat64()
		out.MonthlyBreakdown = append(out.MonthlyBreakdown, mc)

		projected = projected.Add(total)
		recurring = recurring.Add(energy.Add(decimal.NewFromFloat(candidate.MonthlyFee)).Round(2))
	}
	out.ProjectedAnnualCost = projected.InexactFloat64()

	currentAnnual := AnnualCost(proj.MonthlyKWH, current.Plan)
	out.CurrentAnnualCost = currentAnnual.InexactFloat64()

	savings := currentAnnual.Sub(recurring)
	out.AnnualSavings = savings.InexactFloat64()
	if currentAnnual.IsPositive() {
		out.SavingsPercentage = savings.Div(currentAnnual).Mul(cents100).Round(2).InexactFloat64()
	}

	out.SwitchingCost = candidate.ConnectionFee
	if current.UnderContract(proj.StartMonth) {
		out.SwitchingCost += current.EarlyTerminationFee
	}
	out.BreakEvenMonths = breakEven(out.SwitchingCost, out.AnnualSavings)
	out.CumulativeSavings12Months = out.AnnualSavings - out.SwitchingCost

	horizon := candidate.ContractLengthMonths
	if horizon == 0 {
		// Month-to-month plans are compared on a 12-month horizon.
		horizon = 12
	}
	scale := decimal.NewFromInt(int64(horizon)).Div(decimal.NewFromInt(12))
	out.TotalCostOfOwnership = recurring.Mul(scale).
		Add(decimal.NewFromFloat(candidate.ConnectionFee)).Round(2).InexactFloat64()
	out.TCOCurrentPlan = currentAnnual.Mul(scale).Round(2).InexactFloat64()

	out.Uncertainty = uncertaintyRange(recurring, candidate.Rate)
	out.Assumptions = savingsAssumptions(candidate, proj)
	out.Warnings = savingsWarnings(out, candidate, proj)
	return out
}

// breakEven is nil when switching never pays for itself and zero when there is
// nothing to pay back.
func breakEven(switchingCost, annualSavings float64) *int {
	if switchingCost <= 0 {
		zero := 0
		return &zero
	}
	if annualSavings <= 0 {
		return nil
	}
	months := int(math.Ceil(switchingCost / (annualSavings / 12)))
	return &months
}

func uncertaintyRange(annual decimal.Decimal, rate domain.RateStructure) *UncertaintyRange {
	volatility := 0.05
	switch rate.Kind {
	case domain.RateVariable:
		volatility = 0.10
	case domain.RateIndexed:
		volatility = 0.15
	}
	v := decimal.NewFromFloat(volatility)
	return &UncertaintyRange{
		LowAnnualCost:  annual.Mul(decimal.NewFromInt(1).Sub(v)).Round(2).InexactFloat64(),
		HighAnnualCost: annual.Mul(decimal.NewFromInt(1).Add(v)).Round(2).InexactFloat64(),
		VolatilityPct:  volatility * 100,
	}
}

func savingsAssumptions(candidate domain.Plan, proj usage.Projection) []string {
	a := []string{
		fmt.Sprintf("based on projected annual usage of %.0f kWh", proj.AnnualKWH),
		fmt.Sprintf("usage projected by the %s method", proj.Method),
	}
	if candidate.ConnectionFee > 0 {
		a = append(a, fmt.Sprintf("one-time connection fee of $%.2f charged in month 1", candidate.ConnectionFee))
	}
	switch candidate.Rate.Kind {
	case domain.RateTimeOfUse:
		a = append(a, "time-of-use cost assumes an even split between peak and off-peak consumption")
	case domain.RateVariable, domain.RateIndexed:
		a = append(a, "variable rate priced at its current base rate; see uncertainty range")
	}
	return a
}

func savingsWarnings(s SavingsAnalysis, candidate domain.Plan, proj usage.Projection) []string {
	var w []string
	if candidate.EarlyTerminationFee > highETFThreshold {
		w = append(w, fmt.Sprintf("early termination fee of $%.2f is high", candidate.EarlyTerminationFee))
	}
	if s.AnnualSavings < 0 {
		w = append(w, "this plan would cost more than the current plan")
	} else if s.SavingsPercentage < marginalSavingsPct {
		w = append(w, fmt.Sprintf("projected savings of %.1f%% are marginal", s.SavingsPercentage))
	}
	if candidate.Rate.IsVariable() {
		w = append(w, "variable rate may rise; realized savings can differ from the estimate")
	}
	if proj.Confidence < lowProjectionConf {
		w = append(w, "usage projection confidence is low; savings are indicative only")
	}
	return w
}
