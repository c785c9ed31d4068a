// Package risk evaluates a fixed battery of rules over the analysis outputs
// and derives a stay-vs-switch recommendation. Rules never short-circuit:
// every applicable rule fires on every call so the result is auditable.
package risk

import (
	"fmt"
	"sort"
	"time"

	"github.com/smartwatt/plan-advisor/internal/costing"
	"github.com/smartwatt/plan-advisor/internal/domain"
	"github.com/smartwatt/plan-advisor/internal/scoring"
	"github.com/smartwatt/plan-advisor/internal/usage"
)

// Severity of one risk warning.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Level is the aggregate risk across all candidate plans.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Warning is one detected risk, tagged with the plans it applies to.
type Warning struct {
	Type            string   `json:"risk_type"`
	Severity        Severity `json:"severity"`
	Category        string   `json:"category"`
	Title           string   `json:"title"`
	Message         string   `json:"message"`
	Mitigation      string   `json:"mitigation,omitempty"`
	AffectedPlanIDs []string `json:"affected_plan_ids,omitempty"`
}

// StayRecommendation is the stay-vs-switch verdict with its audit trail.
type StayRecommendation struct {
	ShouldStay       bool     `json:"should_stay"`
	Reasoning        string   `json:"reasoning"`
	Triggers         []string `json:"triggers"`
	NetAnnualSavings *float64 `json:"net_annual_savings,omitempty"`
	BreakEvenMonths  *int     `json:"break_even_months,omitempty"`
	Confidence       float64  `json:"confidence"`
}

// Detector holds the rule thresholds. Zero values fall back to product
// defaults via NewDetector; Now is injectable for tests.
type Detector struct {
	HighETF          float64
	StaySavings      float64
	ExpiryWindowDays int
	Now              func() time.Time
}

// NewDetector returns a detector with the product-default thresholds.
func NewDetector() *Detector {
	return &Detector{
		HighETF:          150,
		StaySavings:      100,
		ExpiryWindowDays: 90,
		Now:              time.Now,
	}
}

// Detect runs every rule over the candidate set. A plan may collect warnings
// from several rules at once.
func (d *Detector) Detect(
	plans []scoring.RankedPlan,
	current domain.CurrentPlan,
	savings []costing.SavingsAnalysis,
	profile usage.Profile,
	prefs domain.Preferences,
) []Warning {
	byPlan := make(map[string]costing.SavingsAnalysis, len(savings))
	for _, s := range savings {
		byPlan[s.PlanID] = s
	}

	var warnings []Warning
	warnings = append(warnings, d.etfRule(plans)...)
	warnings = append(warnings, d.savingsRule(plans, byPlan)...)
	warnings = append(warnings, d.dataQualityRule(profile)...)
	warnings = append(warnings, d.volatilityRule(plans, prefs)...)
	warnings = append(warnings, d.contractTimingRule(plans, current)...)
	warnings = append(warnings, d.planFlagRule(plans)...)
	return warnings
}

func (d *Detector) etfRule(plans []scoring.RankedPlan) []Warning {
	var ids []string
	var maxETF float64
	for _, p := range plans {
		if p.EarlyTerminationFee > d.HighETF {
			ids = append(ids, p.ID)
			if p.EarlyTerminationFee > maxETF {
				maxETF = p.EarlyTerminationFee
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)
	severity := SeverityWarning
	if maxETF > 2*d.HighETF {
		severity = SeverityCritical
	}
	return []Warning{{
		Type:            "high_termination_fee",
		Severity:        severity,
		Category:        "contract",
		Title:           "High early termination fee",
		Message:         fmt.Sprintf("%d recommended plan(s) charge more than $%.0f to exit early", len(ids), d.HighETF),
		Mitigation:      "prefer a shorter contract or budget for the exit fee",
		AffectedPlanIDs: ids,
	}}
}

func (d *Detector) savingsRule(plans []scoring.RankedPlan, byPlan map[string]costing.SavingsAnalysis) []Warning {
	var warnings []Warning
	var marginal, negative []string
	for _, p := range plans {
		s, ok := byPlan[p.ID]
		if !ok {
			continue
		}
		switch {
		case s.AnnualSavings < 0:
			negative = append(negative, p.ID)
		case s.AnnualSavings < d.StaySavings:
			marginal = append(marginal, p.ID)
		}
	}
	if len(negative) > 0 {
		sort.Strings(negative)
		warnings = append(warnings, Warning{
			Type:            "negative_savings",
			Severity:        SeverityCritical,
			Category:        "savings",
			Title:           "Plan costs more than staying",
			Message:         fmt.Sprintf("%d recommended plan(s) would increase the annual bill", len(negative)),
			AffectedPlanIDs: negative,
		})
	}
	if len(marginal) > 0 {
		sort.Strings(marginal)
		warnings = append(warnings, Warning{
			Type:            "marginal_savings",
			Severity:        SeverityWarning,
			Category:        "savings",
			Title:           "Savings are marginal",
			Message:         fmt.Sprintf("%d recommended plan(s) save less than $%.0f per year", len(marginal), d.StaySavings),
			Mitigation:      "weigh the switching effort against the small gain",
			AffectedPlanIDs: marginal,
		})
	}
	return warnings
}

func (d *Detector) dataQualityRule(profile usage.Profile) []Warning {
	switch {
	case profile.ProfileType == usage.ProfileInsufficientData:
		return []Warning{{
			Type:     "insufficient_data",
			Severity: SeverityCritical,
			Category: "data_quality",
			Title:    "Not enough usage history",
			Message:  "fewer than three months of usage were available; all estimates are low-confidence",
			Mitigation: "re-run the analysis after more billing cycles have accumulated",
		}}
	case profile.Quality.QualityScore < 0.6:
		return []Warning{{
			Type:     "low_data_quality",
			Severity: SeverityWarning,
			Category: "data_quality",
			Title:    "Usage data quality is low",
			Message:  fmt.Sprintf("data quality score %.2f; gaps or zero-usage months reduce estimate reliability", profile.Quality.QualityScore),
		}}
	}
	return nil
}

func (d *Detector) volatilityRule(plans []scoring.RankedPlan, prefs domain.Preferences) []Warning {
	var ids []string
	for _, p := range plans {
		if p.Rate.IsVariable() {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)
	severity := SeverityInfo
	// A cost-driven customer is the one hurt most by rate movement.
	if prefs.CostPriority >= 50 {
		severity = SeverityWarning
	}
	return []Warning{{
		Type:            "rate_volatility",
		Severity:        severity,
		Category:        "pricing",
		Title:           "Variable rate exposure",
		Message:         fmt.Sprintf("%d recommended plan(s) track market rates and can rise without notice", len(ids)),
		Mitigation:      "consider a fixed-rate plan if bill stability matters",
		AffectedPlanIDs: ids,
	}}
}

func (d *Detector) contractTimingRule(plans []scoring.RankedPlan, current domain.CurrentPlan) []Warning {
	if current.ContractEndDate == nil {
		return nil
	}
	now := d.Now()
	remaining := current.ContractEndDate.Sub(now)
	if remaining <= 0 {
		return nil
	}
	windowEnd := now.AddDate(0, 0, d.ExpiryWindowDays)
	if !current.ContractEndDate.After(windowEnd) {
		// Expiring soon enough that waiting out the contract is an option.
		return []Warning{{
			Type:     "contract_near_expiry",
			Severity: SeverityInfo,
			Category: "contract",
			Title:    "Current contract ends soon",
			Message:  fmt.Sprintf("the current contract ends on %s; switching after that date avoids the exit fee", current.ContractEndDate.Format("2006-01-02")),
		}}
	}

	var ids []string
	for _, p := range plans {
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)
	return []Warning{{
		Type:            "contract_timing_mismatch",
		Severity:        SeverityWarning,
		Category:        "contract",
		Title:           "Switching mid-contract",
		Message:         fmt.Sprintf("the current contract runs until %s; switching now incurs the $%.2f exit fee", current.ContractEndDate.Format("2006-01-02"), current.EarlyTerminationFee),
		Mitigation:      "compare the exit fee against first-year savings before switching",
		AffectedPlanIDs: ids,
	}}
}

func (d *Detector) planFlagRule(plans []scoring.RankedPlan) []Warning {
	var warnings []Warning
	for _, p := range plans {
		for _, flag := range p.RiskFlags {
			warnings = append(warnings, Warning{
				Type:            "plan_flag",
				Severity:        SeverityInfo,
				Category:        "plan",
				Title:           "Plan-specific note",
				Message:         flag,
				AffectedPlanIDs: []string{p.ID},
			})
		}
	}
	return warnings
}

// OverallLevel derives the aggregate risk from the count and severity mix
// across every candidate, not just the top-ranked one.
func OverallLevel(warnings []Warning) Level {
	var critical, warn int
	for _, w := range warnings {
		switch w.Severity {
		case SeverityCritical:
			critical++
		case SeverityWarning:
			warn++
		}
	}
	switch {
	case critical > 0 || warn >= 4:
		return LevelHigh
	case warn >= 2:
		return LevelMedium
	default:
		return LevelLow
	}
}

// ShouldStay recommends keeping the current plan when savings are marginal and
// either the current contract is not near expiry or switching cost would erase
// the savings within a year. "No alternatives" is itself a strong stay signal.
func (d *Detector) ShouldStay(
	current domain.CurrentPlan,
	top *scoring.RankedPlan,
	savings *costing.SavingsAnalysis,
	warnings []Warning,
	totalPlansAnalyzed int,
) StayRecommendation {
	rec := StayRecommendation{Confidence: 0.5}

	if top == nil || savings == nil || totalPlansAnalyzed == 0 {
		rec.ShouldStay = true
		rec.Triggers = append(rec.Triggers, "no_alternatives")
		rec.Reasoning = "no viable alternative plans were found, so the current plan remains the best option"
		rec.Confidence = 0.9
		return rec
	}

	net := savings.CumulativeSavings12Months
	rec.NetAnnualSavings = &net
	rec.BreakEvenMonths = savings.BreakEvenMonths

	marginal := savings.AnnualSavings < d.StaySavings
	if marginal {
		rec.Triggers = append(rec.Triggers, "marginal_savings")
	}

	nearExpiry := false
	if current.ContractEndDate != nil {
		remaining := current.ContractEndDate.Sub(d.Now())
		nearExpiry = remaining > 0 && remaining <= time.Duration(d.ExpiryWindowDays)*24*time.Hour
	}
	if !nearExpiry && current.UnderContract(d.Now()) {
		rec.Triggers = append(rec.Triggers, "contract_not_near_expiry")
	}

	erased := net <= 0 || (savings.BreakEvenMonths != nil && *savings.BreakEvenMonths > 12)
	if erased {
		rec.Triggers = append(rec.Triggers, "switching_cost_erases_savings")
	}

	rec.ShouldStay = marginal && (!nearExpiry || erased)
	if rec.ShouldStay {
		rec.Reasoning = fmt.Sprintf(
			"projected annual savings of $%.2f fall below the $%.0f threshold and switching costs of $%.2f would absorb much of the gain",
			savings.AnnualSavings, d.StaySavings, savings.SwitchingCost)
		rec.Confidence = 0.75
	} else {
		rec.Reasoning = fmt.Sprintf(
			"switching to %s is projected to save $%.2f per year after one-time costs",
			top.Name, net)
		rec.Confidence = 0.7
	}
	for _, w := range warnings {
		if w.Severity == SeverityCritical {
			rec.Confidence -= 0.1
			break
		}
	}
	if rec.Confidence < 0 {
		rec.Confidence = 0
	}
	return rec
}
