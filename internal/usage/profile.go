package usage

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartwatt/plan-advisor/internal/domain"
)

// ProfileType is the customer archetype derived from the usage shape.
type ProfileType string

const (
	ProfileBaseline         ProfileType = "baseline"
	ProfileHighUser         ProfileType = "high_user"
	ProfileVariable         ProfileType = "variable"
	ProfileSeasonal         ProfileType = "seasonal"
	ProfileInsufficientData ProfileType = "insufficient_data"
)

// PeakOffPeak captures the skew between the heaviest and lightest months.
type PeakOffPeak struct {
	PeakMonth      time.Time `json:"peak_month"`
	PeakKWH        float64   `json:"peak_kwh"`
	OffPeakMonth   time.Time `json:"off_peak_month"`
	OffPeakKWH     float64   `json:"off_peak_kwh"`
	PeakToAvgRatio float64   `json:"peak_to_avg_ratio"`
}

// Profile is the aggregate analysis result for one customer. It is built
// fresh on every call and never mutated afterwards.
type Profile struct {
	UserID            string           `json:"user_id,omitempty"`
	ProfileType       ProfileType      `json:"profile_type"`
	Statistics        Statistics       `json:"statistics"`
	Seasonal          SeasonalAnalysis `json:"seasonal_analysis"`
	PeakOffPeak       PeakOffPeak      `json:"peak_offpeak"`
	Outliers          OutlierDetection `json:"outliers"`
	Quality           DataQuality      `json:"data_quality"`
	Projection        Projection       `json:"projection"`
	OverallConfidence float64          `json:"overall_confidence"`
	Warnings          []string         `json:"warnings,omitempty"`
	PeriodStart       time.Time        `json:"period_start"`
	PeriodEnd         time.Time        `json:"period_end"`
}

// Analyzer runs the usage analysis pipeline. Thresholds are fixed at
// construction; Analyze itself is a pure function of its arguments.
type Analyzer struct {
	HighUserKWH float64
	VariableCV  float64
	Log         zerolog.Logger
}

// NewAnalyzer returns an analyzer with the product-default thresholds.
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{
		HighUserKWH: 1500,
		VariableCV:  0.25,
		Log:         log,
	}
}

// Analyze is the single entry point for usage analysis. It degrades instead
// of failing: malformed-but-valid input lowers confidence and adds warnings,
// and fewer than three months of history short-circuits to an
// insufficient-data profile built from the regional average when one is given.
func (a *Analyzer) Analyze(history []domain.MonthlyUsage, userID string, regionalAvgKWH float64) Profile {
	filled, stats, quality, outliers := Assess(history)

	if len(filled) < MinAnalysisMonths {
		return a.insufficientData(filled, quality, userID, regionalAvgKWH)
	}

	a.Log.Debug().Str("user_id", userID).Int("months", len(filled)).Msg("usage analysis start")

	seasonal := DetectSeasonality(filled)
	projection := Project(filled, seasonal)

	p := Profile{
		UserID:      userID,
		Statistics:  stats,
		Seasonal:    seasonal,
		PeakOffPeak: peakOffPeak(filled, stats),
		Outliers:    outliers,
		Quality:     quality,
		Projection:  projection,
		PeriodStart: filled[0].Month,
		PeriodEnd:   filled[len(filled)-1].Month,
	}
	p.ProfileType = a.classify(stats, seasonal)
	p.OverallConfidence = clamp01(0.4*quality.QualityScore + 0.3*seasonal.Confidence + 0.3*projection.Confidence)
	p.Warnings = a.collectWarnings(p)

	a.Log.Debug().
		Str("user_id", userID).
		Str("profile_type", string(p.ProfileType)).
		Float64("confidence", p.OverallConfidence).
		Msg("usage analysis done")
	return p
}

// classify applies the archetype rules in decision order; first match wins.
func (a *Analyzer) classify(stats Statistics, seasonal SeasonalAnalysis) ProfileType {
	switch {
	case seasonal.HasSeasonalPattern:
		return ProfileSeasonal
	case stats.MeanKWH > a.HighUserKWH && stats.CoefficientOfVariation < a.VariableCV:
		return ProfileHighUser
	case stats.CoefficientOfVariation >= a.VariableCV:
		return ProfileVariable
	default:
		return ProfileBaseline
	}
}

func (a *Analyzer) insufficientData(sorted []domain.MonthlyUsage, quality DataQuality, userID string, regionalAvgKWH float64) Profile {
	stats := ComputeStatistics(sorted)

	monthly := regionalAvgKWH
	assumption := fmt.Sprintf("projection uses the regional average of %.0f kWh/month", regionalAvgKWH)
	if monthly <= 0 {
		monthly = stats.MeanKWH
		assumption = fmt.Sprintf("projection uses the %.0f kWh/month observed average", monthly)
	}

	start := domain.FirstOfMonth(time.Now().UTC()).AddDate(0, 1, 0)
	var periodStart, periodEnd time.Time
	if len(sorted) > 0 {
		periodStart = sorted[0].Month
		periodEnd = sorted[len(sorted)-1].Month
		start = periodEnd.AddDate(0, 1, 0)
	}

	projection := ProjectFlat(monthly, start, assumption)
	p := Profile{
		UserID:            userID,
		ProfileType:       ProfileInsufficientData,
		Statistics:        stats,
		Seasonal:          SeasonalAnalysis{DominantSeason: SeasonNone},
		Outliers:          OutlierDetection{Method: "IQR"},
		Quality:           quality,
		Projection:        projection,
		PeriodStart:       periodStart,
		PeriodEnd:         periodEnd,
		OverallConfidence: clamp01(0.4*quality.QualityScore + 0.3*projection.Confidence),
		Warnings: []string{
			fmt.Sprintf("only %d month(s) of usage history; at least %d are needed for a full analysis", len(sorted), MinAnalysisMonths),
		},
	}
	a.Log.Debug().Str("user_id", userID).Int("months", len(sorted)).Msg("insufficient usage history")
	return p
}

func peakOffPeak(series []domain.MonthlyUsage, stats Statistics) PeakOffPeak {
	if len(series) == 0 {
		return PeakOffPeak{}
	}
	out := PeakOffPeak{
		PeakMonth:    series[0].Month,
		PeakKWH:      series[0].KWH,
		OffPeakMonth: series[0].Month,
		OffPeakKWH:   series[0].KWH,
	}
	for _, u := range series[1:] {
		if u.KWH > out.PeakKWH {
			out.PeakKWH = u.KWH
			out.PeakMonth = u.Month
		}
		if u.KWH < out.OffPeakKWH {
			out.OffPeakKWH = u.KWH
			out.OffPeakMonth = u.Month
		}
	}
	if stats.MeanKWH > 0 {
		out.PeakToAvgRatio = out.PeakKWH / stats.MeanKWH
	}
	return out
}

func (a *Analyzer) collectWarnings(p Profile) []string {
	var w []string
	if p.Quality.HasGaps {
		w = append(w, fmt.Sprintf("%d missing month(s) were filled by interpolation", p.Quality.MissingMonths))
	}
	if p.Outliers.HasOutliers {
		w = append(w, fmt.Sprintf("%d month(s) look like outliers and may skew the projection", len(p.Outliers.Months)))
	}
	if p.Quality.QualityScore < 0.6 {
		w = append(w, "usage data quality is low; results carry reduced confidence")
	}
	if p.Projection.Confidence < 0.5 {
		w = append(w, "projection confidence is low; cost estimates are indicative only")
	}
	if p.Quality.TotalMonths < 12 {
		w = append(w, fmt.Sprintf("less than a full year of history (%d months); seasonal effects may be missed", p.Quality.TotalMonths))
	}
	return w
}
