package usage

import (
	"math"
	"sort"
	"time"

	"github.com/smartwatt/plan-advisor/internal/domain"
)

// MinAnalysisMonths is the floor below which the pipeline short-circuits to an
// insufficient-data profile instead of computing standard statistics.
const MinAnalysisMonths = 3

// Statistics are descriptive statistics over a cleaned usage series.
type Statistics struct {
	MinKWH                 float64 `json:"min_kwh"`
	MaxKWH                 float64 `json:"max_kwh"`
	MeanKWH                float64 `json:"mean_kwh"`
	MedianKWH              float64 `json:"median_kwh"`
	StdDev                 float64 `json:"std_dev"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
	TotalAnnualKWH         float64 `json:"total_annual_kwh"`
}

// DataQuality describes completeness of the raw series before gap filling.
type DataQuality struct {
	TotalMonths     int     `json:"total_months"`
	MissingMonths   int     `json:"missing_months"`
	HasGaps         bool    `json:"has_gaps"`
	CompletenessPct float64 `json:"completeness_pct"`
	QualityScore    float64 `json:"quality_score"`
}

// OutlierDetection flags usage months outside the 1.5x IQR fence. Outliers are
// reported, never removed: silently altering real consumption data would skew
// every downstream cost estimate, so exclusion is left to the caller.
type OutlierDetection struct {
	HasOutliers bool        `json:"has_outliers"`
	Months      []time.Time `json:"outlier_months,omitempty"`
	Values      []float64   `json:"outlier_values,omitempty"`
	Method      string      `json:"method"`
}

// SortChronological returns a copy of the series sorted by month ascending.
func SortChronological(series []domain.MonthlyUsage) []domain.MonthlyUsage {
	out := make([]domain.MonthlyUsage, len(series))
	copy(out, series)
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// AssessQuality measures completeness of a sorted series over its own span.
// Re-delivered readings for the same month count once, so completeness stays
// within [0,100]. Quality penalizes both gaps and zero-usage months:
// completeness/100 - 0.3*zeroFraction, clamped to [0,1].
func AssessQuality(sorted []domain.MonthlyUsage) DataQuality {
	if len(sorted) == 0 {
		return DataQuality{}
	}

	seen := make(map[time.Time]bool, len(sorted))
	for _, u := range sorted {
		seen[u.Month] = true
	}
	distinct := len(seen)

	q := DataQuality{TotalMonths: distinct}
	expected := monthsBetween(sorted[0].Month, sorted[len(sorted)-1].Month) + 1
	q.MissingMonths = expected - distinct
	q.HasGaps = q.MissingMonths > 0
	q.CompletenessPct = float64(distinct) / float64(expected) * 100

	zeros := 0
	for _, u := range sorted {
		if u.KWH == 0 {
			zeros++
		}
	}
	zeroFrac := float64(zeros) / float64(len(sorted))
	q.QualityScore = clamp01(q.CompletenessPct/100 - 0.3*zeroFrac)
	return q
}

// FillGaps returns a contiguous monthly series between the first and last
// observed months. A missing month takes the average of its nearest known
// neighbors, a single neighbor at the boundary, or the overall mean.
func FillGaps(sorted []domain.MonthlyUsage) []domain.MonthlyUsage {
	if len(sorted) < 2 {
		return sorted
	}

	known := make(map[time.Time]float64, len(sorted))
	for _, u := range sorted {
		known[u.Month] = u.KWH
	}

	overall := 0.0
	for _, u := range sorted {
		overall += u.KWH
	}
	overall /= float64(len(sorted))

	var out []domain.MonthlyUsage
	for m := sorted[0].Month; !m.After(sorted[len(sorted)-1].Month); m = m.AddDate(0, 1, 0) {
		if kwh, ok := known[m]; ok {
			out = append(out, domain.MonthlyUsage{Month: m, KWH: kwh})
			continue
		}
		out = append(out, domain.MonthlyUsage{Month: m, KWH: interpolate(m, sorted, overall)})
	}
	return out
}

func interpolate(m time.Time, sorted []domain.MonthlyUsage, overall float64) float64 {
	var prev, next *domain.MonthlyUsage
	for i := range sorted {
		if sorted[i].Month.Before(m) {
			prev = &sorted[i]
		}
		if sorted[i].Month.After(m) && next == nil {
			next = &sorted[i]
		}
	}
	switch {
	case prev != nil && next != nil:
		return (prev.KWH + next.KWH) / 2
	case prev != nil:
		return prev.KWH
	case next != nil:
		return next.KWH
	default:
		return overall
	}
}

// DetectOutliers applies the Tukey fence (k=1.5) to the kWh values.
func DetectOutliers(series []domain.MonthlyUsage) OutlierDetection {
	det := OutlierDetection{Method: "IQR"}
	if len(series) < 4 {
		return det
	}

	values := make([]float64, len(series))
	for i, u := range series {
		values[i] = u.KWH
	}
	sort.Float64s(values)

	q1 := percentile(values, 25)
	q3 := percentile(values, 75)
	iqr := q3 - q1
	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr

	for _, u := range series {
		if u.KWH < lo || u.KWH > hi {
			det.HasOutliers = true
			det.Months = append(det.Months, u.Month)
			det.Values = append(det.Values, u.KWH)
		}
	}
	return det
}

// ComputeStatistics derives descriptive statistics over a cleaned series.
// TotalAnnualKWH is the annualized mean so that partial years remain
// comparable to full ones.
func ComputeStatistics(series []domain.MonthlyUsage) Statistics {
	var s Statistics
	if len(series) == 0 {
		return s
	}

	values := make([]float64, len(series))
	s.MinKWH = series[0].KWH
	for i, u := range series {
		values[i] = u.KWH
		s.MeanKWH += u.KWH
		if u.KWH < s.MinKWH {
			s.MinKWH = u.KWH
		}
		if u.KWH > s.MaxKWH {
			s.MaxKWH = u.KWH
		}
	}
	s.MeanKWH /= float64(len(series))

	sort.Float64s(values)
	s.MedianKWH = percentile(values, 50)
	s.StdDev = stdDev(values, s.MeanKWH)
	if s.MeanKWH > 0 {
		s.CoefficientOfVariation = s.StdDev / s.MeanKWH
	}
	s.TotalAnnualKWH = s.MeanKWH * 12
	return s
}

// Assess runs the quality stage over a raw series: sort, measure quality, fill
// gaps, then compute outliers and statistics on the filled series. The
// returned series is the gap-filled chronological input the later pipeline
// stages consume; short histories come back unfilled.
func Assess(series []domain.MonthlyUsage) ([]domain.MonthlyUsage, Statistics, DataQuality, OutlierDetection) {
	sorted := SortChronological(series)
	quality := AssessQuality(sorted)
	if len(sorted) < MinAnalysisMonths {
		return sorted, ComputeStatistics(sorted), quality, OutlierDetection{Method: "IQR"}
	}
	filled := FillGaps(sorted)
	return filled, ComputeStatistics(filled), quality, DetectOutliers(filled)
}

// percentile takes linear interpolation between closest ranks over a sorted
// slice. p is in [0,100].
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// stdDev is the sample standard deviation, zero for fewer than two points.
func stdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
