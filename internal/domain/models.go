package domain

import "time"

// MonthlyUsage is one calendar month of metered consumption. Month is
// normalized to midnight UTC on the first of the month.
type MonthlyUsage struct {
	Month time.Time `db:"month" json:"month"`
	KWH   float64   `db:"kwh" json:"kwh"`
}

// NewMonthlyUsage validates and normalizes a usage record. Negative
// consumption is rejected at construction; it never enters the pipeline.
func NewMonthlyUsage(month time.Time, kwh float64) (MonthlyUsage, error) {
	if kwh < 0 {
		return MonthlyUsage{}, ErrNegativeKWH
	}
	return MonthlyUsage{Month: FirstOfMonth(month), KWH: kwh}, nil
}

// FirstOfMonth truncates t to the first of its calendar month in UTC.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Plan is a tariff plan from the catalog. Static attributes only; scores and
// savings are computed per analysis call and never stored here.
type Plan struct {
	ID                   string        `db:"id" json:"id"`
	Name                 string        `db:"name" json:"name"`
	Supplier             string        `db:"supplier" json:"supplier"`
	Rate                 RateStructure `json:"rate"`
	ContractLengthMonths int           `db:"contract_length_months" json:"contract_length_months"`
	EarlyTerminationFee  float64       `db:"early_termination_fee" json:"early_termination_fee"`
	RenewablePercentage  float64       `db:"renewable_percentage" json:"renewable_percentage"`
	MonthlyFee           float64       `db:"monthly_fee" json:"monthly_fee"`
	ConnectionFee        float64       `db:"connection_fee" json:"connection_fee"`
	SupplierRating       float64       `db:"supplier_rating" json:"supplier_rating"`
	RiskFlags            []string      `json:"risk_flags,omitempty"`
}

// CurrentPlan is the customer's active plan plus contract state.
type CurrentPlan struct {
	Plan
	ContractEndDate *time.Time `db:"contract_end_date" json:"contract_end_date,omitempty"`
}

// UnderContract reports whether leaving the plan at ref would be an early exit.
func (c CurrentPlan) UnderContract(ref time.Time) bool {
	return c.ContractEndDate != nil && c.ContractEndDate.After(ref)
}

// Preferences are the user's four priority weights, each 0-100. The API layer
// is responsible for checking that they sum to 100; the engines only divide by
// the actual sum.
type Preferences struct {
	CostPriority        float64 `json:"cost_priority"`
	FlexibilityPriority float64 `json:"flexibility_priority"`
	RenewablePriority   float64 `json:"renewable_priority"`
	RatingPriority      float64 `json:"rating_priority"`
}

// DefaultPreferences weights cost heaviest, matching the product default.
func DefaultPreferences() Preferences {
	return Preferences{
		CostPriority:        40,
		FlexibilityPriority: 20,
		RenewablePriority:   20,
		RatingPriority:      20,
	}
}

// Sum returns the total weight, used as the normalization denominator.
func (p Preferences) Sum() float64 {
	return p.CostPriority + p.FlexibilityPriority + p.RenewablePriority + p.RatingPriority
}
