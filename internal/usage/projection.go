package usage

import (
	"fmt"
	"math"
	"time"

	"github.com/smartwatt/plan-advisor/internal/domain"
)

// ProjectionMethod names the forecasting strategy that produced a projection.
type ProjectionMethod string

const (
	MethodSeasonalAverage  ProjectionMethod = "seasonal_average"
	MethodLinearTrend      ProjectionMethod = "linear_trend"
	MethodMovingAverage    ProjectionMethod = "moving_average"
	MethodSimpleAverage    ProjectionMethod = "simple_average"
	MethodInsufficientData ProjectionMethod = "insufficient_data_average"
)

// Projection is a 12-month forward usage forecast with 95% confidence bands.
type Projection struct {
	StartMonth      time.Time        `json:"start_month"`
	MonthlyKWH      []float64        `json:"projected_monthly_kwh"`
	AnnualKWH       float64          `json:"projected_annual_kwh"`
	ConfidenceLower []float64        `json:"confidence_lower"`
	ConfidenceUpper []float64        `json:"confidence_upper"`
	Confidence      float64          `json:"confidence_score"`
	Method          ProjectionMethod `json:"method"`
	Assumptions     []string         `json:"assumptions"`
}

// Project forecasts the next 12 calendar months after the last observed month.
// Method selection, in priority order: per-season averages when a seasonal
// pattern is confident enough, a linear trend when the series correlates with
// time, a 6-month moving average, and finally the overall mean for short
// histories.
func Project(series []domain.MonthlyUsage, seasonal SeasonalAnalysis) Projection {
	sorted := SortChronological(series)
	n := len(sorted)

	p := Projection{
		MonthlyKWH:      make([]float64, 12),
		ConfidenceLower: make([]float64, 12),
		ConfidenceUpper: make([]float64, 12),
	}
	if n == 0 {
		p.Method = MethodInsufficientData
		p.Assumptions = append(p.Assumptions, "no usage history available")
		return p
	}
	p.StartMonth = sorted[n-1].Month.AddDate(0, 1, 0)

	completeness := clamp01(float64(n) / 12)
	slope, intercept, r := linearFit(sorted)

	switch {
	case seasonal.HasSeasonalPattern && seasonal.Confidence >= 0.5:
		p.Method = MethodSeasonalAverage
		overall := meanKWH(sorted)
		for i := 0; i < 12; i++ {
			m := p.StartMonth.AddDate(0, i, 0)
			avg := seasonAvg(seasonal.Patterns, SeasonOf(m.Month()))
			if avg == 0 {
				avg = overall
			}
			p.MonthlyKWH[i] = avg
		}
		p.Confidence = seasonal.Confidence * completeness
		p.Assumptions = append(p.Assumptions,
			"future months repeat historical per-season averages")

	case n >= minSeasonalMonths && math.Abs(r) > 0.5:
		p.Method = MethodLinearTrend
		for i := 0; i < 12; i++ {
			v := intercept + slope*float64(n+i)
			p.MonthlyKWH[i] = math.Max(0, v)
		}
		p.Confidence = math.Abs(r) * completeness
		p.Assumptions = append(p.Assumptions,
			fmt.Sprintf("historical trend of %+.1f kWh/month continues", slope))

	case n >= minSeasonalMonths:
		p.Method = MethodMovingAverage
		avg := meanKWH(sorted[n-6:])
		for i := range p.MonthlyKWH {
			p.MonthlyKWH[i] = avg
		}
		p.Confidence = 0.7 * completeness
		p.Assumptions = append(p.Assumptions,
			"usage holds at the 6-month moving average")

	default:
		p.Method = MethodSimpleAverage
		avg := meanKWH(sorted)
		for i := range p.MonthlyKWH {
			p.MonthlyKWH[i] = avg
		}
		p.Confidence = 0.6 * completeness
		p.Assumptions = append(p.Assumptions,
			"usage holds at the overall historical average")
	}

	applyConfidenceBands(&p, sorted)
	for _, v := range p.MonthlyKWH {
		p.AnnualKWH += v
	}
	p.Assumptions = append(p.Assumptions,
		fmt.Sprintf("based on %d months of usage history", n))
	return p
}

// ProjectFlat builds a flat 12-month projection from a single monthly figure.
// Used for the insufficient-data path, where the figure is either a regional
// average or the raw mean of the few observed months.
func ProjectFlat(monthlyKWH float64, start time.Time, assumption string) Projection {
	p := Projection{
		StartMonth:      start,
		MonthlyKWH:      make([]float64, 12),
		ConfidenceLower: make([]float64, 12),
		ConfidenceUpper: make([]float64, 12),
		Method:          MethodInsufficientData,
		Confidence:      0.2,
		Assumptions:     []string{assumption},
	}
	band := 1.96 * 0.15 * monthlyKWH
	for i := range p.MonthlyKWH {
		p.MonthlyKWH[i] = monthlyKWH
		p.ConfidenceLower[i] = math.Max(0, monthlyKWH-band)
		p.ConfidenceUpper[i] = monthlyKWH + band
	}
	p.AnnualKWH = monthlyKWH * 12
	return p
}

// applyConfidenceBands sets 95% bands at +/-1.96 sigma of the historical
// series, falling back to 15% of the mean when no spread can be estimated.
func applyConfidenceBands(p *Projection, sorted []domain.MonthlyUsage) {
	values := make([]float64, len(sorted))
	mean := 0.0
	for i, u := range sorted {
		values[i] = u.KWH
		mean += u.KWH
	}
	mean /= float64(len(sorted))

	sigma := stdDev(values, mean)
	if sigma == 0 {
		sigma = 0.15 * mean
	}
	for i, v := range p.MonthlyKWH {
		p.ConfidenceLower[i] = math.Max(0, v-1.96*sigma)
		p.ConfidenceUpper[i] = v + 1.96*sigma
	}
}

// linearFit regresses kWh against month index and returns slope, intercept,
// and Pearson's r. A flat series has r = 0.
func linearFit(sorted []domain.MonthlyUsage) (slope, intercept, r float64) {
	n := float64(len(sorted))
	if n < 2 {
		return 0, meanKWH(sorted), 0
	}

	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i, u := range sorted {
		x := float64(i)
		sumX += x
		sumY += u.KWH
		sumXY += x * u.KWH
		sumXX += x * x
		sumYY += u.KWH * u.KWH
	}

	denomX := n*sumXX - sumX*sumX
	if denomX == 0 {
		return 0, sumY / n, 0
	}
	slope = (n*sumXY - sumX*sumY) / denomX
	intercept = (sumY - slope*sumX) / n

	denomY := n*sumYY - sumY*sumY
	if denomY <= 0 {
		return slope, intercept, 0
	}
	r = (n*sumXY - sumX*sumY) / math.Sqrt(denomX*denomY)
	return slope, intercept, r
}

func meanKWH(series []domain.MonthlyUsage) float64 {
	if len(series) == 0 {
		return 0
	}
	total := 0.0
	for _, u := range series {
		total += u.KWH
	}
	return total / float64(len(series))
}
