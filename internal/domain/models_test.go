package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMonthlyUsage(t *testing.T) {
	t.Run("Normalizes To First Of Month", func(t *testing.T) {
		u, err := NewMonthlyUsage(time.Date(2024, time.July, 19, 14, 30, 0, 0, time.UTC), 812.4)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), u.Month)
		assert.InDelta(t, 812.4, u.KWH, 0.001)
	})

	t.Run("Rejects Negative Consumption", func(t *testing.T) {
		_, err := NewMonthlyUsage(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), -1)
		assert.ErrorIs(t, err, ErrNegativeKWH)
	})

	t.Run("Zero Is Valid", func(t *testing.T) {
		u, err := NewMonthlyUsage(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), 0)
		require.NoError(t, err)
		assert.Zero(t, u.KWH)
	})
}

func TestCurrentPlanUnderContract(t *testing.T) {
	ref := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Future End Date", func(t *testing.T) {
		end := ref.AddDate(1, 0, 0)
		cp := CurrentPlan{ContractEndDate: &end}
		assert.True(t, cp.UnderContract(ref))
	})

	t.Run("Past End Date", func(t *testing.T) {
		end := ref.AddDate(0, 0, -1)
		cp := CurrentPlan{ContractEndDate: &end}
		assert.False(t, cp.UnderContract(ref))
	})

	t.Run("No Contract", func(t *testing.T) {
		assert.False(t, CurrentPlan{}.UnderContract(ref))
	})
}
