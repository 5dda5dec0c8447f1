package simulation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cryptosim-ai/internal/models"
)

var (
	// ErrNonPositiveTarget is returned when a day has nothing to distribute
	ErrNonPositiveTarget = errors.New("daily target amount must be positive")
)

// SynthesizeDay fabricates a day of trading activity for a plan: K trades
// whose signed profit/loss sums to target within the policy tolerance, a
// win rate inside the configured band, and timestamps spread across the
// trading day according to the variance profile.
func (p *Policy) SynthesizeDay(planID uint, date time.Time, target, balance float64) (*models.DailyTradeBatch, error) {
	if target <= 0 {
		return nil, ErrNonPositiveTarget
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	count := p.tradeCount(balance)
	winRate := p.SampleWinRate()
	winCount := int(math.Round(float64(count) * winRate))
	if winCount < 1 {
		winCount = 1
	}
	if winCount >= count {
		winCount = count - 1
	}
	lossCount := count - winCount

	// Losses are a multiple of the target so wins have to out-earn them by
	// exactly the target. The aggressive profile churns more both ways.
	lossSpan := [2]float64{0.4, 1.0}
	if p.Profile == ProfileAggressive {
		lossSpan = [2]float64{0.8, 2.0}
	}
	grossLoss := target * (lossSpan[0] + p.float64()*(lossSpan[1]-lossSpan[0]))
	grossWin := target + grossLoss

	winAmounts := p.distribute(grossWin, winCount)
	lossAmounts := p.distribute(grossLoss, lossCount)

	timestamps := p.tradeTimestamps(day, count)

	trades := make([]models.Trade, 0, count)
	for i, amt := range winAmounts {
		trades = append(trades, p.fabricateTrade(balance, amt, timestamps[i]))
	}
	for i, amt := range lossAmounts {
		trades = append(trades, p.fabricateTrade(balance, -amt, timestamps[winCount+i]))
	}
	sort.Slice(trades, func(i, j int) bool {
		return trades[i].ExecutedAt.Before(trades[j].ExecutedAt)
	})

	// Cent rounding drifts the sum; settle the difference on the last trade
	var actual float64
	for _, t := range trades {
		actual += t.ProfitLoss
	}
	drift := round2(target - actual)
	if drift != 0 {
		last := &trades[len(trades)-1]
		last.ProfitLoss = round2(last.ProfitLoss + drift)
		actual = round2(actual + drift)
	}

	if math.Abs(actual-target) > p.Epsilon {
		return nil, fmt.Errorf("trade batch failed to reconcile: target=%.2f actual=%.2f", target, actual)
	}

	wins := 0
	for _, t := range trades {
		if t.ProfitLoss > 0 {
			wins++
		}
	}

	return &models.DailyTradeBatch{
		PlanID:       planID,
		TradeDate:    day,
		TargetAmount: target,
		ActualTotal:  round2(actual),
		TradeCount:   len(trades),
		WinCount:     wins,
		LockedAmount: round2(p.LockedRatio * target),
		Trades:       trades,
	}, nil
}

// distribute splits a total across n parts with randomized weights,
// rounded to cents, residual folded into the largest part.
func (p *Policy) distribute(total float64, n int) []float64 {
	if n <= 0 {
		return nil
	}

	weights := make([]float64, n)
	var weightSum float64
	for i := range weights {
		var w float64
		if p.Profile == ProfileAggressive {
			// heavier tail: a few outsized trades per day
			w = math.Exp(p.normFloat64() * 0.8)
		} else {
			w = 0.5 + p.float64()
		}
		weights[i] = w
		weightSum += w
	}

	parts := make([]float64, n)
	largest := 0
	var assigned float64
	for i, w := range weights {
		parts[i] = round2(total * w / weightSum)
		assigned += parts[i]
		if parts[i] > parts[largest] {
			largest = i
		}
	}
	// exact fold: the largest part absorbs the rounding residual so the
	// group sums to total at full precision
	parts[largest] += total - assigned
	return parts
}

// tradeTimestamps spreads count timestamps across the trading day. The
// aggressive profile clusters most trades into a few volatility bursts.
func (p *Policy) tradeTimestamps(day time.Time, count int) []time.Time {
	const daySeconds = 24 * 60 * 60

	ts := make([]time.Time, count)
	if p.Profile != ProfileAggressive {
		for i := range ts {
			ts[i] = day.Add(time.Duration(p.intn(daySeconds)) * time.Second)
		}
		return ts
	}

	// 2-4 burst centers, most trades land near one of them
	burstCount := 2 + p.intn(3)
	centers := make([]int, burstCount)
	for i := range centers {
		centers[i] = p.intn(daySeconds)
	}

	const burstSigma = 45 * 60 // seconds
	for i := range ts {
		var sec int
		if p.float64() < 0.7 {
			center := centers[p.intn(burstCount)]
			sec = center + int(p.normFloat64()*burstSigma)
			if sec < 0 {
				sec = 0
			}
			if sec >= daySeconds {
				sec = daySeconds - 1
			}
		} else {
			sec = p.intn(daySeconds)
		}
		ts[i] = day.Add(time.Duration(sec) * time.Second)
	}
	return ts
}

func (p *Policy) fabricateTrade(balance, profitLoss float64, executedAt time.Time) models.Trade {
	side := models.TradeSideLong
	if p.float64() < 0.5 {
		side = models.TradeSideShort
	}

	// Position size shown on the dashboard, independent of the P/L draw
	amount := round2(balance * (0.005 + 0.02*p.float64()))
	if amount < 1 {
		amount = 1
	}

	return models.Trade{
		Symbol:      p.Symbols[p.intn(len(p.Symbols))],
		Side:        side,
		Amount:      amount,
		ProfitLoss:  profitLoss,
		ExecutedAt:  executedAt,
		DurationSec: 30 + p.intn(1770),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
