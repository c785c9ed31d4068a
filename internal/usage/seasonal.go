package usage

import (
	"time"

	"github.com/smartwatt/plan-advisor/internal/domain"
)

// Season is a meteorological season.
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
	SeasonNone   Season = "none"
)

// seasonalRatioThreshold is the summer/winter mean ratio (or its inverse) at
// which usage counts as seasonal.
const seasonalRatioThreshold = 1.35

// minSeasonalMonths is the minimum history for a seasonality verdict.
const minSeasonalMonths = 6

// SeasonPattern summarizes one season's usage.
type SeasonPattern struct {
	Season       Season     `json:"season"`
	AvgKWH       float64    `json:"avg_kwh"`
	PeakMonth    time.Month `json:"peak_month"`
	PeakKWH      float64    `json:"peak_kwh"`
	VariationPct float64    `json:"variation_pct"`
}

// SeasonalAnalysis is the seasonality verdict over a usage series.
type SeasonalAnalysis struct {
	HasSeasonalPattern  bool            `json:"has_seasonal_pattern"`
	DominantSeason      Season          `json:"dominant_season"`
	Patterns            []SeasonPattern `json:"patterns"`
	SummerToWinterRatio float64         `json:"summer_to_winter_ratio"`
	PeakToAvgRatio      float64         `json:"peak_to_avg_ratio"`
	Confidence          float64         `json:"confidence_score"`
}

// SeasonOf maps a calendar month to its meteorological season
// (winter = Dec/Jan/Feb).
func SeasonOf(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonFall
	}
}

// DetectSeasonality groups the series into seasons and flags a seasonal
// pattern when the summer/winter mean ratio exceeds 1.35 or its inverse.
// Confidence weights data completeness over pattern purity: a confident
// "no pattern" verdict is still a usable verdict.
func DetectSeasonality(series []domain.MonthlyUsage) SeasonalAnalysis {
	out := SeasonalAnalysis{DominantSeason: SeasonNone}
	if len(series) < minSeasonalMonths {
		return out
	}

	bySeason := map[Season][]domain.MonthlyUsage{}
	overall := 0.0
	peak := 0.0
	for _, u := range series {
		s := SeasonOf(u.Month.Month())
		bySeason[s] = append(bySeason[s], u)
		overall += u.KWH
		if u.KWH > peak {
			peak = u.KWH
		}
	}
	overall /= float64(len(series))

	var dominantAvg float64
	for _, s := range []Season{SeasonWinter, SeasonSpring, SeasonSummer, SeasonFall} {
		months := bySeason[s]
		if len(months) == 0 {
			continue
		}
		p := SeasonPattern{Season: s}
		for _, u := range months {
			p.AvgKWH += u.KWH
			if u.KWH > p.PeakKWH {
				p.PeakKWH = u.KWH
				p.PeakMonth = u.Month.Month()
			}
		}
		p.AvgKWH /= float64(len(months))
		if p.AvgKWH > 0 {
			p.VariationPct = (p.PeakKWH - p.AvgKWH) / p.AvgKWH * 100
		}
		out.Patterns = append(out.Patterns, p)
		if p.AvgKWH > dominantAvg {
			dominantAvg = p.AvgKWH
			out.DominantSeason = s
		}
	}

	summer := seasonAvg(out.Patterns, SeasonSummer)
	winter := seasonAvg(out.Patterns, SeasonWinter)
	if winter > 0 {
		out.SummerToWinterRatio = summer / winter
	}
	// The ratio test only applies when both seasons are observed. A zero mean
	// on one side is a valid extreme, not missing data: an all-zero summer
	// against a non-zero winter sits below the inverse threshold.
	if len(bySeason[SeasonSummer]) > 0 && len(bySeason[SeasonWinter]) > 0 {
		switch {
		case winter > 0 && out.SummerToWinterRatio >= seasonalRatioThreshold:
			out.HasSeasonalPattern = true
		case winter > 0 && out.SummerToWinterRatio <= 1/seasonalRatioThreshold:
			out.HasSeasonalPattern = true
		case winter == 0 && summer > 0:
			out.HasSeasonalPattern = true
		}
	}
	if overall > 0 {
		out.PeakToAvgRatio = peak / overall
	}

	completeness := clamp01(float64(len(series)) / 12)
	out.Confidence = clamp01(0.6*completeness + 0.4*(1-meanWithinSeasonCV(bySeason)))
	return out
}

func seasonAvg(patterns []SeasonPattern, s Season) float64 {
	for _, p := range patterns {
		if p.Season == s {
			return p.AvgKWH
		}
	}
	return 0
}

// meanWithinSeasonCV averages the coefficient of variation inside each season
// that has at least two samples. High within-season noise lowers confidence in
// the seasonal means.
func meanWithinSeasonCV(bySeason map[Season][]domain.MonthlyUsage) float64 {
	var total float64
	var n int
	for _, months := range bySeason {
		if len(months) < 2 {
			continue
		}
		mean := 0.0
		for _, u := range months {
			mean += u.KWH
		}
		mean /= float64(len(months))
		if mean == 0 {
			continue
		}
		values := make([]float64, len(months))
		for i, u := range months {
			values[i] = u.KWH
		}
		total += stdDev(values, mean) / mean
		n++
	}
	if n == 0 {
		return 0
	}
	return clamp01(total / float64(n))
}
