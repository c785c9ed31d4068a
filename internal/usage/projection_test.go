package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	t.Run("Flat Year Uses Moving Average", func(t *testing.T) {
		series := months(jan(2024), 800, 800, 800, 800, 800, 800, 800, 800, 800, 800, 800, 800)
		p := Project(series, DetectSeasonality(series))

		assert.Equal(t, MethodMovingAverage, p.Method)
		require.Len(t, p.MonthlyKWH, 12)
		for _, v := range p.MonthlyKWH {
			assert.InDelta(t, 800, v, 0.001)
		}
		assert.InDelta(t, 9600, p.AnnualKWH, 0.001)
		assert.Equal(t, jan(2025), p.StartMonth)
	})

	t.Run("Strong Trend Uses Regression", func(t *testing.T) {
		series := months(jan(2024), 100, 200, 300, 400, 500, 600, 700, 800, 900, 1000, 1100, 1200)
		p := Project(series, SeasonalAnalysis{DominantSeason: SeasonNone})

		assert.Equal(t, MethodLinearTrend, p.Method)
		assert.InDelta(t, 1300, p.MonthlyKWH[0], 0.001)
		assert.InDelta(t, 2400, p.MonthlyKWH[11], 0.001)
		assert.InDelta(t, 1.0, p.Confidence, 0.01)
	})

	t.Run("Declining Trend Floors At Zero", func(t *testing.T) {
		series := months(jan(2024), 1200, 1000, 800, 600, 400, 200)
		p := Project(series, SeasonalAnalysis{DominantSeason: SeasonNone})

		assert.Equal(t, MethodLinearTrend, p.Method)
		for _, v := range p.MonthlyKWH {
			assert.GreaterOrEqual(t, v, 0.0)
		}
		assert.Zero(t, p.MonthlyKWH[11])
	})

	t.Run("Seasonal Pattern Maps Season Averages", func(t *testing.T) {
		series := fullYear(600, 800, 1000, 800)
		seasonal := DetectSeasonality(series)
		require.True(t, seasonal.HasSeasonalPattern)

		p := Project(series, seasonal)
		assert.Equal(t, MethodSeasonalAverage, p.Method)
		// Forecast starts January 2025, a winter month.
		assert.InDelta(t, 600, p.MonthlyKWH[0], 0.001)
		// June 2025 is summer.
		assert.InDelta(t, 1000, p.MonthlyKWH[5], 0.001)
		assert.InDelta(t, 9600, p.AnnualKWH, 0.001)
	})

	t.Run("Short History Uses Simple Average", func(t *testing.T) {
		series := months(jan(2024), 700, 800, 900)
		p := Project(series, DetectSeasonality(series))

		assert.Equal(t, MethodSimpleAverage, p.Method)
		assert.InDelta(t, 800, p.MonthlyKWH[0], 0.001)
		assert.InDelta(t, 0.6*0.25, p.Confidence, 0.001)
	})

	t.Run("Confidence Bands Bracket The Forecast", func(t *testing.T) {
		series := months(jan(2024), 700, 750, 800, 850, 900, 950, 700, 750, 800, 850, 900, 950)
		p := Project(series, DetectSeasonality(series))

		require.Len(t, p.ConfidenceLower, 12)
		require.Len(t, p.ConfidenceUpper, 12)
		for i := range p.MonthlyKWH {
			assert.LessOrEqual(t, p.ConfidenceLower[i], p.MonthlyKWH[i])
			assert.GreaterOrEqual(t, p.ConfidenceUpper[i], p.MonthlyKWH[i])
			assert.GreaterOrEqual(t, p.ConfidenceLower[i], 0.0)
		}
	})

	t.Run("Zero Variance Falls Back To Relative Band", func(t *testing.T) {
		series := months(jan(2024), 800, 800, 800, 800, 800, 800)
		p := Project(series, SeasonalAnalysis{DominantSeason: SeasonNone})

		band := 1.96 * 0.15 * 800
		assert.InDelta(t, 800-band, p.ConfidenceLower[0], 0.001)
		assert.InDelta(t, 800+band, p.ConfidenceUpper[0], 0.001)
	})

	t.Run("Empty History", func(t *testing.T) {
		p := Project(nil, SeasonalAnalysis{DominantSeason: SeasonNone})
		assert.Equal(t, MethodInsufficientData, p.Method)
		assert.Zero(t, p.AnnualKWH)
	})
}

func TestProjectFlat(t *testing.T) {
	p := ProjectFlat(900, jan(2025), "regional average")

	assert.Equal(t, MethodInsufficientData, p.Method)
	require.Len(t, p.MonthlyKWH, 12)
	for _, v := range p.MonthlyKWH {
		assert.InDelta(t, 900, v, 0.001)
	}
	assert.InDelta(t, 10800, p.AnnualKWH, 0.001)
	assert.Contains(t, p.Assumptions, "regional average")
}

func TestLinearFit(t *testing.T) {
	t.Run("Perfect Line", func(t *testing.T) {
		slope, intercept, r := linearFit(months(jan(2024), 100, 200, 300, 400))
		assert.InDelta(t, 100, slope, 0.001)
		assert.InDelta(t, 100, intercept, 0.001)
		assert.InDelta(t, 1.0, r, 0.001)
	})

	t.Run("Flat Line Has No Correlation", func(t *testing.T) {
		_, _, r := linearFit(months(jan(2024), 500, 500, 500, 500))
		assert.Zero(t, r)
	})

	t.Run("Single Point", func(t *testing.T) {
		slope, intercept, r := linearFit(months(jan(2024), 640))
		assert.Zero(t, slope)
		assert.InDelta(t, 640, intercept, 0.001)
		assert.Zero(t, r)
	})
}
