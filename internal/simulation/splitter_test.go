package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitEven(t *testing.T) {
	s := SplitEven(1800, 30)

	assert.InDelta(t, 60.0, s.DailyPayout, 1e-9)
	assert.Equal(t, 30, s.RemainingDays)
	assert.InDelta(t, 1800.0, s.RemainingAmount, 1e-9)

	// no front or back loading: the split reconstructs the input
	assert.InDelta(t, 1800.0, s.DailyPayout*float64(s.RemainingDays), 1e-9)
}

func TestSplitEvenZeroDays(t *testing.T) {
	s := SplitEven(500, 0)
	assert.Zero(t, s.DailyPayout)
	assert.Zero(t, s.RemainingDays)
}

func TestSplitRemainingMeetsMonthEndTarget(t *testing.T) {
	// 1800 owed over 30 days, 600 already paid over 10 days
	s := SplitRemaining(1200, 20)

	assert.InDelta(t, 60.0, s.DailyPayout, 1e-9)
	assert.InDelta(t, 1200.0, s.DailyPayout*float64(s.RemainingDays), 1e-9)
}

func TestSplitRemainingAfterRateChange(t *testing.T) {
	// mid-month override left 1500 owed over 20 days
	s := SplitRemaining(1500, 20)
	assert.InDelta(t, 75.0, s.DailyPayout, 1e-9)
}

func TestSplitRemainingNoDaysLeft(t *testing.T) {
	s := SplitRemaining(100, 0)
	assert.Zero(t, s.DailyPayout)
	assert.InDelta(t, 100.0, s.RemainingAmount, 1e-9)
}
