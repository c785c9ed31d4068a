package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/smartwatt/plan-advisor/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type Repos struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repos { return &Repos{db: db} }

// UsageHistory returns a user's monthly usage in chronological order.
func (r *Repos) UsageHistory(userID string) ([]domain.MonthlyUsage, error) {
	var out []domain.MonthlyUsage
	err := r.db.Select(&out,
		`SELECT month, kwh FROM monthly_usage WHERE user_id = $1 ORDER BY month`, userID)
	return out, err
}

// InsertUsage upserts one month of usage for a user. Re-delivered readings
// overwrite rather than duplicate.
func (r *Repos) InsertUsage(userID string, u domain.MonthlyUsage) error {
	_, err := r.db.Exec(
		`INSERT INTO monthly_usage(user_id, month, kwh) VALUES ($1,$2,$3)
		 ON CONFLICT (user_id, month) DO UPDATE SET kwh = EXCLUDED.kwh`,
		userID, u.Month, u.KWH)
	return err
}

type planRow struct {
	ID                   string          `db:"id"`
	Name                 string          `db:"name"`
	Supplier             string          `db:"supplier"`
	RateKind             string          `db:"rate_kind"`
	RatePerKWH           sql.NullFloat64 `db:"rate_per_kwh"`
	PeakRate             sql.NullFloat64 `db:"peak_rate"`
	OffPeakRate          sql.NullFloat64 `db:"off_peak_rate"`
	ContractLengthMonths int             `db:"contract_length_months"`
	EarlyTerminationFee  float64         `db:"early_termination_fee"`
	RenewablePercentage  float64         `db:"renewable_percentage"`
	MonthlyFee           float64         `db:"monthly_fee"`
	ConnectionFee        float64         `db:"connection_fee"`
	SupplierRating       float64         `db:"supplier_rating"`
}

const planColumns = `id, name, supplier, rate_kind, rate_per_kwh, peak_rate,
	off_peak_rate, contract_length_months, early_termination_fee,
	renewable_percentage, monthly_fee, connection_fee, supplier_rating`

// ListPlans loads the full plan catalog with rate structures assembled and
// validated. A malformed row fails the whole load; partial catalogs would
// silently bias the ranking.
func (r *Repos) ListPlans() ([]domain.Plan, error) {
	var rows []planRow
	if err := r.db.Select(&rows, `SELECT `+planColumns+` FROM plans ORDER BY id`); err != nil {
		return nil, err
	}

	out := make([]domain.Plan, 0, len(rows))
	for _, row := range rows {
		p, err := r.assemblePlan(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// GetPlan loads one catalog plan by id.
func (r *Repos) GetPlan(id string) (domain.Plan, error) {
	var row planRow
	err := r.db.Get(&row, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Plan{}, fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Plan{}, err
	}
	return r.assemblePlan(row)
}

// GetCurrentPlan loads the user's active plan record.
func (r *Repos) GetCurrentPlan(userID string) (domain.CurrentPlan, error) {
	var row struct {
		planRow
		ContractEndDate sql.NullTime `db:"contract_end_date"`
	}
	err := r.db.Get(&row, `
		SELECT p.id, p.name, p.supplier, p.rate_kind, p.rate_per_kwh, p.peak_rate,
		       p.off_peak_rate, p.contract_length_months, p.early_termination_fee,
		       p.renewable_percentage, p.monthly_fee, p.connection_fee,
		       p.supplier_rating, up.contract_end_date
		FROM user_plans up JOIN plans p ON p.id = up.plan_id
		WHERE up.user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CurrentPlan{}, fmt.Errorf("current plan for user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return domain.CurrentPlan{}, err
	}

	plan, err := r.assemblePlan(row.planRow)
	if err != nil {
		return domain.CurrentPlan{}, err
	}
	cp := domain.CurrentPlan{Plan: plan}
	if row.ContractEndDate.Valid {
		end := row.ContractEndDate.Time
		cp.ContractEndDate = &end
	}
	return cp, nil
}

func (r *Repos) assemblePlan(row planRow) (domain.Plan, error) {
	rate := domain.RateStructure{
		Kind:        domain.RateKind(row.RateKind),
		RatePerKWH:  row.RatePerKWH.Float64,
		PeakRate:    row.PeakRate.Float64,
		OffPeakRate: row.OffPeakRate.Float64,
	}
	if rate.Kind == domain.RateTiered {
		var tiers []domain.RateTier
		if err := r.db.Select(&tiers,
			`SELECT up_to_kwh, rate_per_kwh FROM plan_tiers WHERE plan_id = $1 ORDER BY tier_order`,
			row.ID); err != nil {
			return domain.Plan{}, err
		}
		rate.Tiers = tiers
	}
	if err := rate.Validate(); err != nil {
		return domain.Plan{}, fmt.Errorf("plan %s: %w", row.ID, err)
	}

	return domain.Plan{
		ID:                   row.ID,
		Name:                 row.Name,
		Supplier:             row.Supplier,
		Rate:                 rate,
		ContractLengthMonths: row.ContractLengthMonths,
		EarlyTerminationFee:  row.EarlyTerminationFee,
		RenewablePercentage:  row.RenewablePercentage,
		MonthlyFee:           row.MonthlyFee,
		ConnectionFee:        row.ConnectionFee,
		SupplierRating:       row.SupplierRating,
	}, nil
}
