package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/smartwatt/plan-advisor/internal/domain"
)

// fullYear builds Jan..Dec of 2024 with per-season values.
func fullYear(winter, spring, summer, fall float64) []domain.MonthlyUsage {
	var out []domain.MonthlyUsage
	for m := time.January; m <= time.December; m++ {
		var kwh float64
		switch SeasonOf(m) {
		case SeasonWinter:
			kwh = winter
		case SeasonSpring:
			kwh = spring
		case SeasonSummer:
			kwh = summer
		default:
			kwh = fall
		}
		out = append(out, domain.MonthlyUsage{
			Month: time.Date(2024, m, 1, 0, 0, 0, 0, time.UTC),
			KWH:   kwh,
		})
	}
	return out
}

func TestDetectSeasonality(t *testing.T) {
	t.Run("Summer Peak", func(t *testing.T) {
		sa := DetectSeasonality(fullYear(600, 800, 1000, 800))

		assert.True(t, sa.HasSeasonalPattern)
		assert.Equal(t, SeasonSummer, sa.DominantSeason)
		assert.InDelta(t, 1000.0/600, sa.SummerToWinterRatio, 0.001)
		assert.InDelta(t, 1.0, sa.Confidence, 0.001)
	})

	t.Run("Winter Peak Via Inverse Ratio", func(t *testing.T) {
		sa := DetectSeasonality(fullYear(1200, 800, 700, 800))

		assert.True(t, sa.HasSeasonalPattern)
		assert.Equal(t, SeasonWinter, sa.DominantSeason)
		assert.Less(t, sa.SummerToWinterRatio, 1/1.35)
	})

	t.Run("Flat Usage Is Not Seasonal", func(t *testing.T) {
		sa := DetectSeasonality(fullYear(800, 800, 800, 800))

		assert.False(t, sa.HasSeasonalPattern)
		assert.InDelta(t, 1.0, sa.SummerToWinterRatio, 0.001)
	})

	t.Run("Below Ratio Threshold", func(t *testing.T) {
		// 1.25x summer skew stays under the 1.35 threshold.
		sa := DetectSeasonality(fullYear(800, 850, 1000, 850))
		assert.False(t, sa.HasSeasonalPattern)
	})

	t.Run("Zero Usage Summer Is Seasonal", func(t *testing.T) {
		// A vacation-home shape: the house sits empty all summer. Ratio 0 is
		// the extreme of the inverse threshold, not missing data.
		sa := DetectSeasonality(fullYear(1200, 1200, 0, 1200))

		assert.True(t, sa.HasSeasonalPattern)
		assert.Equal(t, SeasonWinter, sa.DominantSeason)
		assert.Zero(t, sa.SummerToWinterRatio)
	})

	t.Run("Zero Usage Winter Is Seasonal", func(t *testing.T) {
		sa := DetectSeasonality(fullYear(0, 900, 1200, 900))

		assert.True(t, sa.HasSeasonalPattern)
		assert.Equal(t, SeasonSummer, sa.DominantSeason)
	})

	t.Run("Missing Summer Months Are Not A Ratio Verdict", func(t *testing.T) {
		// Sep 2024 through Feb 2025: no summer months observed at all, so the
		// summer/winter ratio test cannot fire.
		start := time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC)
		sa := DetectSeasonality(months(start, 900, 900, 1000, 1100, 1100, 1000))

		assert.False(t, sa.HasSeasonalPattern)
		assert.Zero(t, sa.SummerToWinterRatio)
	})

	t.Run("Too Little History", func(t *testing.T) {
		sa := DetectSeasonality(months(jan(2024), 600, 700, 800, 900, 1000))

		assert.False(t, sa.HasSeasonalPattern)
		assert.Equal(t, SeasonNone, sa.DominantSeason)
		assert.Zero(t, sa.Confidence)
	})

	t.Run("Season Patterns Carry Peaks", func(t *testing.T) {
		series := fullYear(600, 800, 1000, 800)
		series[6].KWH = 1100 // July
		sa := DetectSeasonality(series)

		for _, p := range sa.Patterns {
			if p.Season == SeasonSummer {
				assert.Equal(t, time.July, p.PeakMonth)
				assert.InDelta(t, 1100, p.PeakKWH, 0.001)
			}
		}
	})
}
