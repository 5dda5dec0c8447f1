package simulation

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeDayReconcilesToTarget(t *testing.T) {
	p := testPolicy(42)
	date := time.Date(2026, time.August, 31, 15, 4, 5, 0, time.UTC)

	batch, err := p.SynthesizeDay(1, date, 60.0, 10000)
	require.NoError(t, err)

	var sum float64
	for _, tr := range batch.Trades {
		sum += tr.ProfitLoss
	}
	assert.InDelta(t, 60.0, sum, p.Epsilon)
	assert.InDelta(t, batch.ActualTotal, sum, 1e-9)
	assert.Equal(t, 60.0, batch.TargetAmount)
}

func TestSynthesizeDayTradeCountInRange(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		batch, err := testPolicy(seed).SynthesizeDay(1, time.Now(), 100, 5000)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, batch.TradeCount, 300)
		assert.LessOrEqual(t, batch.TradeCount, 400)
		assert.Len(t, batch.Trades, batch.TradeCount)
	}
}

func TestSynthesizeDayWinRateInBand(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		batch, err := testPolicy(seed).SynthesizeDay(1, time.Now(), 75, 8000)
		require.NoError(t, err)

		// the cent-drift settlement can flip at most one trade's sign
		slack := 2.0 / float64(batch.TradeCount)
		assert.GreaterOrEqual(t, batch.WinRate(), 0.60-slack)
		assert.LessOrEqual(t, batch.WinRate(), 0.85+slack)
	}
}

func TestSynthesizeDayTimestampsStayInsideDay(t *testing.T) {
	p := testPolicy(3)
	date := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)

	batch, err := p.SynthesizeDay(1, date, 40, 2000)
	require.NoError(t, err)

	dayEnd := date.Add(24 * time.Hour)
	var prev time.Time
	for _, tr := range batch.Trades {
		assert.False(t, tr.ExecutedAt.Before(date))
		assert.True(t, tr.ExecutedAt.Before(dayEnd))
		assert.False(t, tr.ExecutedAt.Before(prev), "trades must be ordered by execution time")
		prev = tr.ExecutedAt
	}
	assert.Equal(t, date, batch.TradeDate)
}

func TestSynthesizeDayAggressiveProfileStillReconciles(t *testing.T) {
	p := testPolicy(13)
	p.Profile = ProfileAggressive

	batch, err := p.SynthesizeDay(1, time.Now(), 250, 20000)
	require.NoError(t, err)

	var sum float64
	for _, tr := range batch.Trades {
		sum += tr.ProfitLoss
	}
	assert.InDelta(t, 250.0, sum, p.Epsilon)
}

func TestSynthesizeDayLockedAmount(t *testing.T) {
	p := testPolicy(21)

	batch, err := p.SynthesizeDay(1, time.Now(), 100, 10000)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, batch.LockedAmount, 1e-9)
}

func TestSynthesizeDayRejectsNonPositiveTarget(t *testing.T) {
	p := testPolicy(1)

	_, err := p.SynthesizeDay(1, time.Now(), 0, 1000)
	assert.ErrorIs(t, err, ErrNonPositiveTarget)

	_, err = p.SynthesizeDay(1, time.Now(), -10, 1000)
	assert.ErrorIs(t, err, ErrNonPositiveTarget)
}

func TestSynthesizeDayTradeFields(t *testing.T) {
	p := testPolicy(5)

	batch, err := p.SynthesizeDay(1, time.Now(), 50, 4000)
	require.NoError(t, err)

	symbols := map[string]bool{}
	for _, s := range DefaultSymbols {
		symbols[s] = true
	}
	for _, tr := range batch.Trades {
		assert.True(t, symbols[tr.Symbol], "unexpected symbol %s", tr.Symbol)
		assert.Contains(t, []string{"LONG", "SHORT"}, string(tr.Side))
		assert.Greater(t, tr.Amount, 0.0)
		assert.GreaterOrEqual(t, tr.DurationSec, 30)
		assert.Less(t, tr.DurationSec, 1800)
		assert.NotZero(t, tr.ProfitLoss)
	}
}

func TestDistributeSumsToTotal(t *testing.T) {
	p := testPolicy(9)

	for _, n := range []int{1, 2, 50, 333} {
		parts := p.distribute(1234.56, n)
		require.Len(t, parts, n)
		var sum float64
		for _, v := range parts {
			sum += v
		}
		assert.InDelta(t, 1234.56, sum, 1e-6, "n=%d", n)
	}

	assert.Nil(t, p.distribute(100, 0))
}

func TestFlatTradeCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	counts := FlatTradeCounts(300, 400)

	for i := 0; i < 100; i++ {
		k := counts(rng, float64(i)*10000)
		assert.GreaterOrEqual(t, k, 300)
		assert.LessOrEqual(t, k, 400)
	}
}

func TestTieredTradeCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	counts := TieredTradeCounts([]CountTier{
		{BalanceBelow: 1000, Min: 10, Max: 20},
		{BalanceBelow: 10000, Min: 50, Max: 100},
		{BalanceBelow: math.MaxFloat64, Min: 200, Max: 300},
	})

	k := counts(rng, 500)
	assert.GreaterOrEqual(t, k, 10)
	assert.LessOrEqual(t, k, 20)

	k = counts(rng, 5000)
	assert.GreaterOrEqual(t, k, 50)
	assert.LessOrEqual(t, k, 100)

	k = counts(rng, 1e9)
	assert.GreaterOrEqual(t, k, 200)
	assert.LessOrEqual(t, k, 300)
}
