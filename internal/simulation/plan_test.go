package simulation

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/cryptosim-ai/internal/config"
	"github.com/cryptosim-ai/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.SimulationConfig {
	return config.SimulationConfig{
		MinDeposit:       100,
		MonthlyRateMin:   0.15,
		MonthlyRateMax:   0.21,
		PlanMonths:       12,
		TradeCountMin:    300,
		TradeCountMax:    400,
		WinRateMin:       0.60,
		WinRateMax:       0.85,
		LockedRatio:      0.80,
		ReconcileEpsilon: 0.01,
	}
}

func testPolicy(seed int64) *Policy {
	return NewPolicyWithSource(testConfig(), rand.New(rand.NewSource(seed)))
}

// fixedRatePolicy pins the rate band to a single value for arithmetic checks
func fixedRatePolicy(rate float64) *Policy {
	cfg := testConfig()
	cfg.MonthlyRateMin = rate
	cfg.MonthlyRateMax = rate
	return NewPolicyWithSource(cfg, rand.New(rand.NewSource(1)))
}

func TestBuildPlanRejectsBelowMinimum(t *testing.T) {
	p := testPolicy(1)

	_, err := p.BuildPlan(1, 99.99, time.Now())
	require.ErrorIs(t, err, ErrBelowMinimumDeposit)

	plan, err := p.BuildPlan(1, 100, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 100.0, plan.TotalDeposited)
}

func TestBuildPlanTotalsMatchMonthSum(t *testing.T) {
	p := testPolicy(42)

	plan, err := p.BuildPlan(1, 10000, time.Now())
	require.NoError(t, err)
	require.Len(t, plan.Months, 12)

	var sum float64
	for _, m := range plan.Months {
		sum += m.ProjectedInterest
	}
	assert.InDelta(t, plan.TotalProjectedReturn, sum, 1e-6)
}

func TestBuildPlanCompoundsMonthOverMonth(t *testing.T) {
	p := testPolicy(7)

	plan, err := p.BuildPlan(1, 5000, time.Now())
	require.NoError(t, err)

	for i, m := range plan.Months {
		assert.InDelta(t, m.StartingBalance*m.LockedRate, m.ProjectedInterest, 1e-9)
		assert.InDelta(t, m.StartingBalance+m.ProjectedInterest, m.EndingBalance, 1e-9)
		if i > 0 {
			assert.InDelta(t, plan.Months[i-1].EndingBalance, m.StartingBalance, 1e-9)
		}
	}
	assert.Equal(t, models.MonthActive, plan.Months[0].Status)
	assert.Equal(t, models.MonthPending, plan.Months[1].Status)
}

func TestBuildPlanRatesWithinBand(t *testing.T) {
	p := testPolicy(99)

	plan, err := p.BuildPlan(1, 2500, time.Now())
	require.NoError(t, err)

	for _, m := range plan.Months {
		assert.GreaterOrEqual(t, m.LockedRate, 0.15)
		assert.LessOrEqual(t, m.LockedRate, 0.21)
	}
}

func TestBuildPlanKnownExample(t *testing.T) {
	// $10,000 at a fixed 18% monthly rate starting in a 30-day month
	p := fixedRatePolicy(0.18)
	start := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	plan, err := p.BuildPlan(1, 10000, start)
	require.NoError(t, err)

	m1 := plan.Months[0]
	assert.InDelta(t, 1800.0, m1.ProjectedInterest, 1e-9)
	assert.InDelta(t, 11800.0, m1.EndingBalance, 1e-9)
	assert.Equal(t, 30, m1.DaysInMonth)
	assert.InDelta(t, 60.0, m1.DailyPayout, 1e-9)
}

func TestDailyPayoutReconstructsInterest(t *testing.T) {
	p := testPolicy(3)

	plan, err := p.BuildPlan(1, 8000, time.Now())
	require.NoError(t, err)

	for _, m := range plan.Months {
		assert.InDelta(t, m.ProjectedInterest, m.DailyPayout*float64(m.DaysInMonth), 1e-6)
	}
}

func TestRecomputeFromMonthLeavesEarlierMonthsUntouched(t *testing.T) {
	p := testPolicy(11)

	plan, err := p.BuildPlan(1, 10000, time.Now())
	require.NoError(t, err)

	before := make([]models.MonthRecord, len(plan.Months))
	copy(before, plan.Months)

	require.NoError(t, p.RecomputeFromMonth(plan, 3, 0.20))

	// months 1-2 byte-stable
	for i := 0; i < 2; i++ {
		assert.Equal(t, before[i].LockedRate, plan.Months[i].LockedRate)
		assert.Equal(t, before[i].ProjectedInterest, plan.Months[i].ProjectedInterest)
		assert.Equal(t, before[i].EndingBalance, plan.Months[i].EndingBalance)
	}

	// month 3 uses the new rate off its unchanged starting balance
	m3 := plan.Months[2]
	assert.Equal(t, 0.20, m3.LockedRate)
	assert.InDelta(t, before[2].StartingBalance, m3.StartingBalance, 1e-9)
	assert.InDelta(t, m3.StartingBalance*0.20, m3.ProjectedInterest, 1e-9)

	// months 4-12 re-chain and keep their own rates
	for i := 3; i < 12; i++ {
		assert.Equal(t, before[i].LockedRate, plan.Months[i].LockedRate)
		assert.InDelta(t, plan.Months[i-1].EndingBalance, plan.Months[i].StartingBalance, 1e-9)
	}

	var sum float64
	for _, m := range plan.Months {
		sum += m.ProjectedInterest
	}
	assert.InDelta(t, plan.TotalProjectedReturn, sum, 1e-6)
}

func TestRecomputeFromMonthRejectsBadInput(t *testing.T) {
	p := testPolicy(5)
	plan, err := p.BuildPlan(1, 1000, time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, p.RecomputeFromMonth(plan, 1, 0), ErrInvalidRate)
	assert.ErrorIs(t, p.RecomputeFromMonth(plan, 1, 1.5), ErrInvalidRate)
	assert.Error(t, p.RecomputeFromMonth(plan, 13, 0.18))
	assert.Error(t, p.RecomputeFromMonth(plan, 0, 0.18))
}

func TestRecomputeRespreadsActiveMonthRemainder(t *testing.T) {
	p := fixedRatePolicy(0.18)
	start := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	plan, err := p.BuildPlan(1, 10000, start)
	require.NoError(t, err)

	// pay out ten days, then override the active month
	for i := 0; i < 10; i++ {
		_, err := AdvanceDay(plan)
		require.NoError(t, err)
	}
	require.NoError(t, p.RecomputeFromMonth(plan, 1, 0.21))

	m1 := &plan.Months[0]
	assert.InDelta(t, 10000*0.21, m1.ProjectedInterest, 1e-9)
	assert.InDelta(t, 600.0, m1.ActualInterestPaid, 1e-9)
	// the unpaid remainder spreads over the 20 days left
	assert.InDelta(t, (m1.ProjectedInterest-600)/20, m1.DailyPayout, 1e-9)
}

func TestAdvanceDayPaysOutFullMonth(t *testing.T) {
	p := fixedRatePolicy(0.18)
	start := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	plan, err := p.BuildPlan(1, 10000, start)
	require.NoError(t, err)

	for day := 1; day <= 30; day++ {
		result, err := AdvanceDay(plan)
		require.NoError(t, err)
		assert.Equal(t, 1, result.MonthNumber)
		assert.Equal(t, day, result.DaysPaid)
	}

	m1 := plan.Months[0]
	assert.Equal(t, models.MonthCompleted, m1.Status)
	assert.InDelta(t, m1.ProjectedInterest, m1.ActualInterestPaid, 1e-9)
	assert.InDelta(t, 11800.0, plan.CurrentBalance, 1e-9)
	assert.Equal(t, models.MonthActive, plan.Months[1].Status)
}

func TestAdvanceDayCompletesPlan(t *testing.T) {
	cfg := testConfig()
	cfg.PlanMonths = 2
	p := NewPolicyWithSource(cfg, rand.New(rand.NewSource(8)))

	plan, err := p.BuildPlan(1, 500, time.Now())
	require.NoError(t, err)

	totalDays := plan.Months[0].DaysInMonth + plan.Months[1].DaysInMonth
	for i := 0; i < totalDays; i++ {
		_, err := AdvanceDay(plan)
		require.NoError(t, err)
	}

	assert.Equal(t, models.PlanCompleted, plan.Status)
	assert.InDelta(t, plan.TotalDeposited+plan.TotalProjectedReturn, plan.CurrentBalance, 1e-6)

	_, err = AdvanceDay(plan)
	assert.ErrorIs(t, err, ErrNoActiveMonth)
}

func TestApplyDepositSplicesIntoActiveMonth(t *testing.T) {
	p := fixedRatePolicy(0.18)
	start := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	plan, err := p.BuildPlan(1, 10000, start)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := AdvanceDay(plan)
		require.NoError(t, err)
	}
	paidBefore := plan.Months[0].ActualInterestPaid

	require.NoError(t, p.ApplyDeposit(plan, 5000))

	m1 := &plan.Months[0]
	assert.InDelta(t, 15000.0, m1.StartingBalance, 1e-9)
	assert.InDelta(t, 15000*0.18, m1.ProjectedInterest, 1e-9)
	// already-paid interest is untouched; remainder respread over 20 days
	assert.Equal(t, paidBefore, m1.ActualInterestPaid)
	assert.InDelta(t, (m1.ProjectedInterest-paidBefore)/20, m1.DailyPayout, 1e-9)

	// later months re-chain from the new ending balance
	assert.InDelta(t, m1.EndingBalance, plan.Months[1].StartingBalance, 1e-9)

	assert.InDelta(t, 15000.0, plan.TotalDeposited, 1e-9)
}

func TestApplyDepositRejectsNonPositive(t *testing.T) {
	p := testPolicy(2)
	plan, err := p.BuildPlan(1, 1000, time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, p.ApplyDeposit(plan, 0), ErrInvalidAmount)
	assert.ErrorIs(t, p.ApplyDeposit(plan, -50), ErrInvalidAmount)
}

func TestDaysInCalendarMonth(t *testing.T) {
	assert.Equal(t, 31, daysInCalendarMonth(time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 28, daysInCalendarMonth(time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 29, daysInCalendarMonth(time.Date(2028, time.February, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 30, daysInCalendarMonth(time.Date(2026, time.April, 30, 0, 0, 0, 0, time.UTC)))
}

func TestAdvanceDayLastDayAbsorbsRounding(t *testing.T) {
	p := fixedRatePolicy(0.17)
	start := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC) // 31 days

	plan, err := p.BuildPlan(1, 1000, start)
	require.NoError(t, err)

	m1 := plan.Months[0]
	var paid float64
	for i := 0; i < m1.DaysInMonth; i++ {
		result, err := AdvanceDay(plan)
		require.NoError(t, err)
		paid += result.Payout
	}

	// the month pays out its projected interest exactly, not a multiple of
	// the truncated daily figure
	assert.True(t, math.Abs(paid-m1.ProjectedInterest) < 1e-9)
}

func TestRecomputeDownwardOverrideNeverPaysNegative(t *testing.T) {
	// twenty paid days at 18% have already exceeded a 10% projection
	p := fixedRatePolicy(0.18)
	start := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	plan, err := p.BuildPlan(1, 10000, start)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		_, err := AdvanceDay(plan)
		require.NoError(t, err)
	}
	require.InDelta(t, 11200.0, plan.CurrentBalance, 1e-9)

	require.NoError(t, p.RecomputeFromMonth(plan, 1, 0.10))

	m1 := &plan.Months[0]
	assert.InDelta(t, 1000.0, m1.ProjectedInterest, 1e-9)
	assert.InDelta(t, 1200.0, m1.ActualInterestPaid, 1e-9)
	assert.Equal(t, 0.0, m1.DailyPayout)

	// the overpaid month stops paying but never claws back
	for day := 21; day <= 30; day++ {
		result, err := AdvanceDay(plan)
		require.NoError(t, err)
		assert.Equal(t, 0.0, result.Payout)
		assert.InDelta(t, 11200.0, plan.CurrentBalance, 1e-9)
	}

	assert.Equal(t, models.MonthCompleted, plan.Months[0].Status)
	assert.Equal(t, models.MonthActive, plan.Months[1].Status)
}

func TestApplyWithdrawalDebitsBalance(t *testing.T) {
	p := fixedRatePolicy(0.18)
	start := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	plan, err := p.BuildPlan(1, 10000, start)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := AdvanceDay(plan)
		require.NoError(t, err)
	}
	require.InDelta(t, 10300.0, plan.CurrentBalance, 1e-9)

	require.NoError(t, ApplyWithdrawal(plan, 1000))
	assert.InDelta(t, 9300.0, plan.CurrentBalance, 1e-9)

	// the next payout builds on the debited balance
	result, err := AdvanceDay(plan)
	require.NoError(t, err)
	assert.InDelta(t, 9300.0+result.Payout, plan.CurrentBalance, 1e-9)
}

func TestApplyWithdrawalRejectsBadAmounts(t *testing.T) {
	p := fixedRatePolicy(0.18)

	plan, err := p.BuildPlan(1, 500, time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, ApplyWithdrawal(plan, 0), ErrInvalidAmount)
	assert.ErrorIs(t, ApplyWithdrawal(plan, -10), ErrInvalidAmount)
	assert.ErrorIs(t, ApplyWithdrawal(plan, 501), ErrInsufficientBalance)
	assert.InDelta(t, 500.0, plan.CurrentBalance, 1e-9)
}

func TestProcessDayFabricatesBatch(t *testing.T) {
	p := fixedRatePolicy(0.18)
	start := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	plan, err := p.BuildPlan(1, 10000, start)
	require.NoError(t, err)
	plan.ID = 7

	result, batch, err := p.ProcessDay(plan, start.Add(13*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, batch)

	assert.Equal(t, uint(7), batch.PlanID)
	assert.Equal(t, start, batch.TradeDate)
	assert.InDelta(t, result.Payout, batch.TargetAmount, 1e-9)
	assert.NotEmpty(t, batch.Trades)
}

func TestProcessDayZeroPayoutStillRecordsBatch(t *testing.T) {
	p := fixedRatePolicy(0.18)
	start := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	plan, err := p.BuildPlan(1, 10000, start)
	require.NoError(t, err)
	plan.ID = 7

	// overpay the month, then drop its rate so nothing is owed
	for i := 0; i < 20; i++ {
		_, err := AdvanceDay(plan)
		require.NoError(t, err)
	}
	require.NoError(t, p.RecomputeFromMonth(plan, 1, 0.10))

	day := start.AddDate(0, 0, 20)
	result, batch, err := p.ProcessDay(plan, day)
	require.NoError(t, err)
	require.NotNil(t, batch)

	assert.Equal(t, 0.0, result.Payout)
	assert.Equal(t, uint(7), batch.PlanID)
	assert.Equal(t, day, batch.TradeDate)
	assert.Zero(t, batch.TradeCount)
	assert.Empty(t, batch.Trades)
}
